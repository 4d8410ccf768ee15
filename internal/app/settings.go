package app

import (
	"sort"

	"codeberg.org/sigterm-de/mvsedit/internal/editor"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
	gtksource "libdb.so/gotk4-sourceview/pkg/gtksource/v5"
)

// buildSchemeDropDown constructs a DropDown listing all available GtkSourceView
// style schemes sorted by human-readable name, with currentID pre-selected.
// The returned slice mirrors the dropdown's indices → scheme IDs.
func buildSchemeDropDown(currentID string) (*gtk.DropDown, []string) {
	type entry struct{ id, name string }
	mgr := gtksource.StyleSchemeManagerGetDefault()
	var entries []entry
	for _, id := range mgr.SchemeIDs() {
		name := id
		if s := mgr.Scheme(id); s != nil {
			name = s.Name()
		}
		entries = append(entries, entry{id, name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	names := make([]string, len(entries))
	ids := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
		ids[i] = e.id
	}

	drop := gtk.NewDropDownFromStrings(names)
	drop.SetHExpand(true)
	for i, id := range ids {
		if id == currentID {
			drop.SetSelected(uint(i))
			break
		}
	}
	return drop, ids
}

// monospaceFontFilter passes only faces of monospace families. The font
// dialog lists one PangoFontFace per row.
func monospaceFontFilter() *gtk.Filter {
	cf := gtk.NewCustomFilter(func(item *coreglib.Object) bool {
		face, ok := item.Cast().(*pango.FontFace)
		if !ok {
			return true
		}
		family, ok := face.Family().(*pango.FontFamily)
		if !ok {
			return true
		}
		return family.IsMonospace()
	})
	return &cf.Filter
}

// shortcutError explains why accel cannot open the completion picker, or
// returns "" when it can.
func shortcutError(accel string) string {
	c, err := editor.ParseChord(accel)
	switch {
	case err != nil:
		return err.Error()
	case c == editor.SaveChord:
		return "already used to save"
	}
	return ""
}

// ShowSettingsDialog opens a modal preferences window transient to parent.
// Every change is applied immediately through onApply.
func ShowSettingsDialog(
	parent *gtk.ApplicationWindow,
	prefs AppPreferences,
	onApply func(AppPreferences),
) {
	win := gtk.NewWindow()
	win.SetTitle("Preferences")
	win.SetTransientFor(&parent.Window)
	win.SetModal(true)
	win.SetDefaultSize(440, 0)
	win.SetResizable(false)

	// ── Editor ────────────────────────────────────────────────────────────────
	fontDialog := gtk.NewFontDialog()
	fontDialog.SetFilter(monospaceFontFilter())
	fontBtn := gtk.NewFontDialogButton(fontDialog)
	fontBtn.SetUseFont(true)
	fontBtn.SetUseSize(true)
	fontBtn.SetHExpand(true)
	if desc := pango.FontDescriptionFromString(prefs.EditorFont); desc != nil {
		fontBtn.SetFontDesc(desc)
	}

	heightSpin := gtk.NewSpinButtonWithRange(0, 2000, 20)
	heightSpin.SetValue(float64(prefs.EditorHeight))
	heightSpin.SetTooltipText("Minimum editor height in pixels (0 = fill the window)")

	schemeFollowCheck := gtk.NewCheckButtonWithLabel("Follow system dark/light")
	schemeFollowCheck.SetActive(prefs.EditorSchemeFollowSystem)

	lightDrop, lightIDs := buildSchemeDropDown(prefs.EditorSchemeLight)
	darkDrop, darkIDs := buildSchemeDropDown(prefs.EditorSchemeDark)

	// ── Completion ────────────────────────────────────────────────────────────
	shortcutEntry := gtk.NewEntry()
	shortcutEntry.SetText(prefs.CompletionShortcut)
	shortcutEntry.SetHExpand(true)
	shortcutEntry.SetTooltipText("GTK accelerator, e.g. <Primary>space")

	// ── Validation ────────────────────────────────────────────────────────────
	revalidateSpin := gtk.NewSpinButtonWithRange(0, maxRevalidateDelayMS, 50)
	revalidateSpin.SetValue(float64(prefs.RevalidateDelayMS))
	revalidateSpin.SetTooltipText("Delay before a newly opened script is validated (0 = off). Takes effect on the next start.")

	// ── Apply helper ─────────────────────────────────────────────────────────
	applyChanges := func() {
		p := prefs
		if fd := fontBtn.FontDesc(); fd != nil {
			p.EditorFont = fd.String()
		}
		p.EditorHeight = heightSpin.ValueAsInt()
		p.EditorSchemeFollowSystem = schemeFollowCheck.Active()
		if idx := lightDrop.Selected(); int(idx) < len(lightIDs) {
			p.EditorSchemeLight = lightIDs[idx]
		}
		if idx := darkDrop.Selected(); int(idx) < len(darkIDs) {
			p.EditorSchemeDark = darkIDs[idx]
		}
		if msg := shortcutError(shortcutEntry.Text()); msg == "" {
			shortcutEntry.RemoveCSSClass("error")
			shortcutEntry.SetTooltipText("GTK accelerator, e.g. <Primary>space")
			p.CompletionShortcut = shortcutEntry.Text()
		} else {
			shortcutEntry.AddCSSClass("error")
			shortcutEntry.SetTooltipText(msg)
		}
		p.RevalidateDelayMS = revalidateSpin.ValueAsInt()
		if p == prefs {
			return
		}
		prefs = p
		onApply(p)
	}

	fontBtn.NotifyProperty("font-desc", func() { applyChanges() })
	heightSpin.ConnectValueChanged(func() { applyChanges() })
	schemeFollowCheck.ConnectToggled(func() { applyChanges() })
	lightDrop.NotifyProperty("selected", func() { applyChanges() })
	darkDrop.NotifyProperty("selected", func() { applyChanges() })
	shortcutEntry.ConnectChanged(func() { applyChanges() })
	revalidateSpin.ConnectValueChanged(func() { applyChanges() })

	// ── Layout ───────────────────────────────────────────────────────────────
	grid := gtk.NewGrid()
	grid.SetRowSpacing(10)
	grid.SetColumnSpacing(12)
	grid.SetMarginTop(20)
	grid.SetMarginBottom(12)
	grid.SetMarginStart(20)
	grid.SetMarginEnd(20)

	row := 0
	section := func(title string) {
		if row > 0 {
			sep := gtk.NewSeparator(gtk.OrientationHorizontal)
			sep.SetMarginTop(4)
			sep.SetMarginBottom(4)
			grid.Attach(sep, 0, row, 2, 1)
			row++
		}
		lbl := gtk.NewLabel("<b>" + title + "</b>")
		lbl.SetUseMarkup(true)
		lbl.SetXAlign(0)
		grid.Attach(lbl, 0, row, 2, 1)
		row++
	}
	attach := func(label string, widget gtk.Widgetter) {
		if label == "" {
			grid.Attach(widget, 0, row, 2, 1)
		} else {
			lbl := gtk.NewLabel(label)
			lbl.SetXAlign(1)
			grid.Attach(lbl, 0, row, 1, 1)
			grid.Attach(widget, 1, row, 1, 1)
		}
		row++
	}

	section("Editor")
	attach("Font:", fontBtn)
	attach("Height (px):", heightSpin)
	section("Colour scheme")
	attach("", schemeFollowCheck)
	attach("Light scheme:", lightDrop)
	attach("Dark scheme:", darkDrop)
	section("Completion")
	attach("Shortcut:", shortcutEntry)
	section("Validation")
	attach("Nudge delay (ms):", revalidateSpin)

	closeBtn := gtk.NewButtonWithLabel("Close")
	closeBtn.SetHAlign(gtk.AlignEnd)
	closeBtn.SetMarginTop(8)
	closeBtn.SetMarginEnd(20)
	closeBtn.SetMarginBottom(16)
	closeBtn.ConnectClicked(func() { win.Close() })

	box := gtk.NewBox(gtk.OrientationVertical, 0)
	box.Append(grid)
	box.Append(closeBtn)

	win.SetChild(box)
	win.Present()
}
