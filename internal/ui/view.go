package ui

import (
	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/editor"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	gtksource "libdb.so/gotk4-sourceview/pkg/gtksource/v5"
)

var markIcons = map[analysis.Severity]string{
	analysis.SeverityError:   "dialog-error-symbolic",
	analysis.SeverityWarning: "dialog-warning-symbolic",
	analysis.SeverityInfo:    "dialog-information-symbolic",
	analysis.SeverityHint:    "dialog-question-symbolic",
}

// View is a GtkSourceView implementing editor.View.
type View struct {
	Widget   *gtksource.View
	surface  *Surface
	doc      *Document
	opts     editor.ViewOptions
	commands editor.Keymap
	disposed bool
}

func newView(s *Surface, doc *Document, opts editor.ViewOptions) *View {
	w := gtksource.NewViewWithBuffer(doc.buffer)
	w.SetMonospace(true)
	w.SetAutoIndent(true)
	w.SetIndentOnTab(true)
	w.SetTabWidth(2)
	w.SetShowLineNumbers(opts.LineNumbers)
	w.SetHighlightCurrentLine(true)
	if opts.WordWrap {
		w.SetWrapMode(gtk.WrapWord)
	}
	w.AddCSSClass("mvs-editor")
	w.SetTopMargin(8)
	w.SetBottomMargin(8)
	w.SetLeftMargin(8)

	v := &View{Widget: w, surface: s, doc: doc, opts: opts}
	if opts.ShowDiagnostics {
		w.SetShowLineMarks(true)
		for sev, category := range markCategories {
			attrs := gtksource.NewMarkAttributes()
			attrs.SetIconName(markIcons[sev])
			attrs.ConnectQueryTooltipText(doc.markMessage)
			w.SetMarkAttributes(category, attrs, int(analysis.SeverityHint-sev))
		}
	}
	return v
}

// AddCommand implements editor.View.
func (v *View) AddCommand(c editor.Chord, fn func()) func() {
	return v.commands.Add(c, fn)
}

// HasFocus reports whether the text view has keyboard focus.
func (v *View) HasFocus() bool {
	return !v.disposed && v.Widget.HasFocus()
}

// Dispose implements editor.View.
func (v *View) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true
	v.surface.detach(v)
}
