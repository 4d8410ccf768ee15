package ui

import (
	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
)

// CompletionPicker is a panel with a search entry and the completion
// candidates at the cursor of the active document.
type CompletionPicker struct {
	Box     *gtk.Box
	service *analysis.Service
	active  func() *Document
	onHide  func()

	listBox     *gtk.ListBox
	searchEntry *gtk.SearchEntry
	candidates  []analysis.Completion // everything offered at the cursor
	shown       []analysis.Completion // candidates matching the search
	prefix      int                   // characters before the cursor to replace
}

// NewCompletionPicker creates the picker panel. active returns the document
// completions apply to, or nil.
func NewCompletionPicker(service *analysis.Service, active func() *Document, onHide func()) *CompletionPicker {
	cp := &CompletionPicker{service: service, active: active, onHide: onHide}

	cp.searchEntry = gtk.NewSearchEntry()
	cp.searchEntry.SetPlaceholderText("Filter completions…")
	cp.searchEntry.SetHExpand(true)
	cp.searchEntry.ConnectSearchChanged(func() {
		cp.setShown(analysis.Filter(cp.searchEntry.Text(), cp.candidates))
	})

	// ConnectNextMatch fires on Ctrl+G, not Down, so the entry needs its own
	// controller.
	searchCtrl := gtk.NewEventControllerKey()
	searchCtrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		switch keyval {
		case gdk.KEY_Down:
			cp.focusList()
			return true
		case gdk.KEY_Return, gdk.KEY_KP_Enter:
			cp.activateSelected()
			return true
		case gdk.KEY_Escape:
			cp.hide()
			return true
		}
		return false
	})
	cp.searchEntry.AddController(searchCtrl)

	cp.listBox = gtk.NewListBox()
	cp.listBox.SetSelectionMode(gtk.SelectionSingle)
	cp.listBox.AddCSSClass("completion-list")
	cp.listBox.ConnectRowActivated(func(row *gtk.ListBoxRow) {
		cp.insert(row.Index())
	})

	// Selection is driven by hand in the capture phase; GTK's own ListBox
	// navigation stalls once focus lands on a row.
	listCtrl := gtk.NewEventControllerKey()
	listCtrl.SetPropagationPhase(gtk.PhaseCapture)
	listCtrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		switch keyval {
		case gdk.KEY_Up:
			row := cp.listBox.SelectedRow()
			if row == nil || row.Index() == 0 {
				cp.searchEntry.GrabFocus()
				return true
			}
			if prev := cp.listBox.RowAtIndex(row.Index() - 1); prev != nil {
				cp.listBox.SelectRow(prev)
				prev.GrabFocus()
			}
			return true
		case gdk.KEY_Down:
			nextIdx := 0
			if row := cp.listBox.SelectedRow(); row != nil {
				nextIdx = row.Index() + 1
			}
			if next := cp.listBox.RowAtIndex(nextIdx); next != nil {
				cp.listBox.SelectRow(next)
				next.GrabFocus()
			}
			return true
		case gdk.KEY_Return, gdk.KEY_KP_Enter:
			cp.activateSelected()
			return true
		case gdk.KEY_Escape:
			cp.hide()
			return true
		}
		return false
	})
	cp.listBox.AddController(listCtrl)

	scroll := gtk.NewScrolledWindow()
	scroll.SetVExpand(true)
	scroll.SetHExpand(true)
	scroll.SetChild(cp.listBox)

	cp.Box = gtk.NewBox(gtk.OrientationVertical, 0)
	cp.Box.AddCSSClass("completion-picker")
	cp.Box.Append(cp.searchEntry)
	cp.Box.Append(scroll)
	return cp
}

// Reset loads the candidates at the cursor of the active document and
// clears the search. It reports whether there is anything to offer.
func (cp *CompletionPicker) Reset() bool {
	cp.candidates, cp.prefix = nil, 0
	if doc := cp.active(); doc != nil {
		text, offset := doc.Text(), doc.CursorOffset()
		cp.prefix = len([]rune(analysis.PrefixAt(text, offset)))
		cp.candidates = cp.service.Complete(doc.LanguageID(), doc.URI(), text, offset)
	}
	cp.searchEntry.SetText("")
	cp.setShown(cp.candidates)
	return len(cp.candidates) > 0
}

// Focus moves keyboard focus to the search entry.
func (cp *CompletionPicker) Focus() {
	cp.searchEntry.GrabFocus()
}

func (cp *CompletionPicker) setShown(list []analysis.Completion) {
	cp.shown = list
	for {
		row := cp.listBox.RowAtIndex(0)
		if row == nil {
			break
		}
		cp.listBox.Remove(row)
	}

	if len(list) == 0 {
		none := gtk.NewLabel("No completions")
		none.AddCSSClass("no-results-label")
		cp.listBox.Append(none)
		return
	}
	for _, c := range list {
		cp.listBox.Append(buildCompletionRow(c))
	}
}

func buildCompletionRow(c analysis.Completion) *gtk.Box {
	name := gtk.NewLabel(c.Label)
	name.SetXAlign(0)
	name.AddCSSClass("completion-name")
	if c.Deprecated {
		name.AddCSSClass("completion-deprecated")
	}

	detail := gtk.NewLabel(c.Detail)
	detail.SetXAlign(0)
	detail.AddCSSClass("completion-detail")
	detail.SetEllipsize(pango.EllipsizeEnd)

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)
	text.Append(name)
	if c.Detail != "" {
		text.Append(detail)
	}

	row := gtk.NewBox(gtk.OrientationHorizontal, 8)
	row.SetMarginTop(4)
	row.SetMarginBottom(4)
	row.SetMarginStart(8)
	row.SetMarginEnd(8)
	if c.Doc != "" {
		row.SetTooltipText(c.Doc)
	}

	img := gtk.NewImageFromIconName(kindIconName(c.Kind))
	img.SetPixelSize(16)
	row.Append(img)
	row.Append(text)

	kind := gtk.NewLabel(c.Kind.String())
	kind.AddCSSClass("completion-kind")
	row.Append(kind)
	return row
}

func kindIconName(k analysis.SymbolKind) string {
	switch k {
	case analysis.KindFunction, analysis.KindMethod:
		return "system-run-symbolic"
	case analysis.KindProperty, analysis.KindVariable:
		return "insert-object-symbolic"
	case analysis.KindType:
		return "view-list-symbolic"
	case analysis.KindKeyword:
		return "format-text-bold-symbolic"
	default:
		return "text-x-generic-symbolic"
	}
}

func (cp *CompletionPicker) focusList() {
	row := cp.listBox.RowAtIndex(0)
	if row == nil {
		return
	}
	cp.listBox.SelectRow(row)
	row.GrabFocus()
}

func (cp *CompletionPicker) activateSelected() {
	row := cp.listBox.SelectedRow()
	if row == nil {
		row = cp.listBox.RowAtIndex(0)
	}
	if row != nil {
		cp.insert(row.Index())
	}
}

// insert replaces the identifier before the cursor with candidate idx.
func (cp *CompletionPicker) insert(idx int) {
	if idx < 0 || idx >= len(cp.shown) {
		return
	}
	c := cp.shown[idx]
	doc := cp.active()
	cp.hide()
	if doc == nil {
		return
	}
	text := c.InsertText
	if text == "" {
		text = c.Label
	}
	doc.ReplaceBeforeCursor(cp.prefix, text)
}

func (cp *CompletionPicker) hide() {
	if cp.onHide != nil {
		cp.onHide()
	}
}
