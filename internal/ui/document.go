package ui

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/logging"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	gtksource "libdb.so/gotk4-sourceview/pkg/gtksource/v5"
)

// validateDelay is how long (ms) after the last edit diagnostics are
// recomputed.
const validateDelay = 300

// Mark categories for diagnostics, highest priority first.
var markCategories = map[analysis.Severity]string{
	analysis.SeverityError:   "mvs-error",
	analysis.SeverityWarning: "mvs-warning",
	analysis.SeverityInfo:    "mvs-info",
	analysis.SeverityHint:    "mvs-hint",
}

// Document is a GtkSourceView buffer implementing editor.Document.
type Document struct {
	engine     *Engine
	buffer     *gtksource.Buffer
	uri        string
	languageID string

	changedHandler coreglib.SignalHandle
	observers      map[int]func()
	nextObserver   int
	muted          bool

	version    uint64
	validateID glib.SourceHandle
	marks      map[string]string // mark name → diagnostic message
	disposed   bool
}

func newDocument(e *Engine, text, languageID, uri string) *Document {
	buf := gtksource.NewBuffer(nil)
	buf.SetEnableUndo(true)
	buf.SetHighlightSyntax(true)

	// The seed text is not undoable.
	buf.BeginIrreversibleAction()
	buf.SetText(text)
	buf.EndIrreversibleAction()

	d := &Document{
		engine:     e,
		buffer:     buf,
		uri:        uri,
		languageID: languageID,
		observers:  make(map[int]func()),
		marks:      make(map[string]string),
	}
	d.changedHandler = buf.ConnectChanged(d.onBufferChanged)
	d.scheduleValidation()
	return d
}

// URI implements editor.Document.
func (d *Document) URI() string { return d.uri }

// LanguageID returns the document's language tag.
func (d *Document) LanguageID() string { return d.languageID }

// Text implements editor.Document.
func (d *Document) Text() string {
	return d.buffer.Text(d.buffer.StartIter(), d.buffer.EndIter(), true)
}

// SetText implements editor.Document. GTK reports the delete and the insert
// separately; observers see a single change.
func (d *Document) SetText(text string) {
	d.muted = true
	d.buffer.BeginUserAction()
	d.buffer.SetText(text)
	d.buffer.EndUserAction()
	d.muted = false
	d.onBufferChanged()
}

// Append implements editor.Document.
func (d *Document) Append(s string) {
	d.buffer.Insert(d.buffer.EndIter(), s)
}

// Undo implements editor.Document.
func (d *Document) Undo() {
	if d.buffer.CanUndo() {
		d.buffer.Undo()
	}
}

// OnDidChange implements editor.Document.
func (d *Document) OnDidChange(fn func()) func() {
	d.nextObserver++
	id := d.nextObserver
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

// Dispose implements editor.Document.
func (d *Document) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	d.cancelValidation()
	d.buffer.HandlerDisconnect(d.changedHandler)
	d.clearMarks()
	clear(d.observers)
	d.engine.forget(d)
}

// CursorOffset returns the character offset of the insertion cursor.
func (d *Document) CursorOffset() int {
	return d.buffer.IterAtMark(d.buffer.GetInsert()).Offset()
}

// ReplaceBeforeCursor replaces the n characters before the cursor with text
// as one undoable edit.
func (d *Document) ReplaceBeforeCursor(n int, text string) {
	end := d.buffer.IterAtMark(d.buffer.GetInsert())
	start := d.buffer.IterAtOffset(max(end.Offset()-n, 0))
	d.buffer.BeginUserAction()
	d.buffer.Delete(start, end)
	d.buffer.InsertAtCursor(text)
	d.buffer.EndUserAction()
}

func (d *Document) onBufferChanged() {
	if d.muted || d.disposed {
		return
	}
	d.version++
	d.scheduleValidation()
	for _, id := range slices.Sorted(maps.Keys(d.observers)) {
		if fn, ok := d.observers[id]; ok {
			fn()
		}
	}
}

func (d *Document) cancelValidation() {
	if d.validateID != 0 {
		glib.SourceRemove(d.validateID)
		d.validateID = 0
	}
}

// scheduleValidation debounces validation. The analysis runs off the main
// thread; results for an outdated version are dropped.
func (d *Document) scheduleValidation() {
	d.cancelValidation()
	d.validateID = glib.TimeoutAdd(validateDelay, func() bool {
		d.validateID = 0
		version, text := d.version, d.Text()
		go func() {
			diags := d.engine.service.Validate(context.Background(), d.languageID, d.uri, text)
			glib.IdleAdd(func() {
				if d.disposed || d.version != version {
					return
				}
				d.applyDiagnostics(diags)
			})
		}()
		return false
	})
}

func (d *Document) applyDiagnostics(diags []analysis.Diagnostic) {
	d.clearMarks()
	for i, diag := range diags {
		category, ok := markCategories[diag.Severity]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s-%d-%d", category, d.version, i)
		at := d.buffer.IterAtOffset(diag.Start)
		d.buffer.CreateSourceMark(name, category, at)
		d.marks[name] = fmt.Sprintf("%s (%d)", diag.Message, diag.Code)
	}
	logging.Log(logging.DEBUG, "ui", fmt.Sprintf("%s: %d diagnostics", d.uri, len(diags)))
	d.engine.diagnosed(d.uri, diags)
}

func (d *Document) clearMarks() {
	start, end := d.buffer.StartIter(), d.buffer.EndIter()
	for _, category := range markCategories {
		d.buffer.RemoveSourceMarks(start, end, category)
	}
	clear(d.marks)
}

func (d *Document) markMessage(mark *gtksource.Mark) string {
	return d.marks[mark.Name()]
}
