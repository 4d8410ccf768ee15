package app

import (
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/completion"
	"codeberg.org/sigterm-de/mvsedit/internal/editor"
	"codeberg.org/sigterm-de/mvsedit/internal/langenv"
	"codeberg.org/sigterm-de/mvsedit/internal/logging"
	"codeberg.org/sigterm-de/mvsedit/internal/ui"
	"github.com/adrg/xdg"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// windowDeps is everything a window needs from application start-up.
type windowDeps struct {
	engine      *ui.Engine
	registry    *langenv.Registry
	provisioner *completion.Provisioner
	path        string // file to edit; "" for the starter script
	initialCode string
	version     string
	catalogs    int
}

// ApplicationWindow is the main window of mvsedit.
type ApplicationWindow struct {
	Win      *gtk.ApplicationWindow
	deps     windowDeps
	prefs    AppPreferences
	surface  *ui.Surface
	ctrl     *editor.Controller
	status   *ui.StatusBar
	picker   *ui.CompletionPicker
	revealer *gtk.Revealer

	path            string
	dirty           bool
	watcher         *fileWatcher
	completionChord editor.Chord
}

// NewApplicationWindow builds the UI hierarchy, mounts the editor and wires
// keyboard shortcuts.
func NewApplicationWindow(app *gtk.Application, deps windowDeps, prefs AppPreferences) *ApplicationWindow {
	w := &ApplicationWindow{deps: deps, prefs: prefs, path: deps.path}

	w.Win = gtk.NewApplicationWindow(app)
	w.Win.SetIconName("text-editor-symbolic")
	w.Win.SetDefaultSize(1000, 700)

	// ── Core widgets ─────────────────────────────────────────────────────────
	w.surface = ui.NewSurface(&w.Win.Window)
	w.status = ui.NewStatusBar()
	w.ctrl = editor.New(deps.engine, editor.Config{
		InitialCode:  deps.initialCode,
		Height:       prefs.EditorHeight,
		OnCodeChange: w.codeChanged,
		OnSave:       w.save,
	},
		editor.WithEnvironment(deps.registry, deps.provisioner, deps.engine.Service()),
		editor.WithScheduler(ui.Scheduler{}),
		editor.WithRevalidateDelay(prefs.RevalidateDelay()),
	)

	// ── Completion picker revealer (overlay panel) ───────────────────────────
	w.revealer = gtk.NewRevealer()
	w.revealer.SetTransitionType(gtk.RevealerTransitionTypeSlideLeft)
	w.revealer.SetTransitionDuration(150)
	w.revealer.SetHAlign(gtk.AlignEnd)
	w.revealer.SetVExpand(true)

	w.picker = ui.NewCompletionPicker(deps.engine.Service(), w.activeDocument, w.HideCompletionPicker)
	pickerFrame := gtk.NewFrame("")
	pickerFrame.SetChild(w.picker.Box)
	pickerFrame.AddCSSClass("picker-frame")
	w.revealer.SetChild(pickerFrame)

	overlay := gtk.NewOverlay()
	overlay.SetChild(w.surface.Scroll)
	overlay.AddOverlay(w.revealer)
	overlay.SetVExpand(true)

	root := gtk.NewBox(gtk.OrientationVertical, 0)
	root.Append(overlay)
	root.Append(w.status.Box)
	w.Win.SetChild(root)

	// ── Header bar ───────────────────────────────────────────────────────────
	header := gtk.NewHeaderBar()
	header.SetShowTitleButtons(true)

	saveBtn := gtk.NewButton()
	saveBtn.SetIconName("document-save-symbolic")
	saveBtn.SetTooltipText("Save (" + accelToLabel(editor.SaveChord.String()) + ")")
	saveBtn.AddCSSClass("flat")
	saveBtn.ConnectClicked(w.ctrl.Save)
	header.PackStart(saveBtn)

	completeBtn := gtk.NewButton()
	completeBtn.SetIconName("edit-find-symbolic")
	completeBtn.SetTooltipText("Complete")
	completeBtn.AddCSSClass("flat")
	completeBtn.ConnectClicked(w.ShowCompletionPicker)
	header.PackStart(completeBtn)

	aboutBtn := gtk.NewButton()
	aboutBtn.SetIconName("help-about-symbolic")
	aboutBtn.SetTooltipText("About")
	aboutBtn.AddCSSClass("flat")
	aboutBtn.ConnectClicked(func() { ShowAboutDialog(w.Win, deps.version, deps.catalogs) })
	header.PackEnd(aboutBtn)

	settingsBtn := gtk.NewButton()
	settingsBtn.SetIconName("preferences-system-symbolic")
	settingsBtn.SetTooltipText("Preferences")
	settingsBtn.AddCSSClass("flat")
	settingsBtn.ConnectClicked(func() {
		ShowSettingsDialog(w.Win, w.prefs, w.applyPreferences)
	})
	header.PackEnd(settingsBtn)
	w.Win.SetTitlebar(header)

	// ── Watch system dark/light mode ─────────────────────────────────────────
	applySchemeIfFollowing := func() {
		if w.prefs.EditorSchemeFollowSystem {
			deps.engine.SetScheme(resolveActiveScheme(w.prefs))
		}
	}
	if gnomeInterfaceSettings != nil {
		gnomeInterfaceSettings.ConnectChanged(func(key string) {
			if key == "color-scheme" {
				applySchemeIfFollowing()
			}
		})
	}
	if display := gdk.DisplayGetDefault(); display != nil {
		display.ConnectSettingChanged(func(setting string) {
			switch setting {
			case "gtk-application-prefer-dark-theme", "gtk-theme-name":
				// Defer so GtkSettings has already applied the new value.
				glib.IdleAdd(applySchemeIfFollowing)
			}
		})
	}

	// ── Keyboard shortcuts ────────────────────────────────────────────────────
	w.setupKeyboard()
	w.setCompletionShortcut(prefs.CompletionShortcut)

	w.Win.ConnectCloseRequest(func() bool {
		w.shutdown()
		return false
	})

	w.ctrl.Mount(w.surface)
	w.surface.Focus()
	w.startWatching()
	w.updateTitle()
	return w
}

// accelToLabel converts a GTK accelerator string (e.g. "<Primary>space") into
// a human-readable label (e.g. "Ctrl+Space").
func accelToLabel(accel string) string {
	key, mods, ok := gtk.AcceleratorParse(accel)
	if !ok || key == 0 {
		return accel
	}
	return gtk.AcceleratorGetLabel(key, mods)
}

func (w *ApplicationWindow) activeDocument() *ui.Document {
	doc, _ := w.ctrl.Document().(*ui.Document)
	return doc
}

func (w *ApplicationWindow) updateTitle() {
	name := "untitled.mvs.js"
	if w.path != "" {
		name = filepath.Base(w.path)
	}
	if w.dirty {
		name = "*" + name
	}
	w.Win.SetTitle(name + " - " + appName)
}

func (w *ApplicationWindow) codeChanged(string) {
	if !w.dirty {
		w.dirty = true
		w.updateTitle()
	}
}

// save writes text to the edited file. An untitled script goes to the
// scratch file in the user data directory.
func (w *ApplicationWindow) save(text string) {
	if w.path == "" {
		path, err := xdg.DataFile(filepath.Join(appName, "scratch.mvs.js"))
		if err != nil {
			w.fail("cannot resolve scratch file", err)
			return
		}
		w.path = path
	}
	if w.watcher != nil {
		w.watcher.Wrote(text)
	}
	if err := writeFileAtomic(w.path, []byte(text)); err != nil {
		w.fail("save failed", err)
		return
	}
	logging.Log(logging.INFO, "app", fmt.Sprintf("saved %d bytes to %s", len(text), w.path))
	w.dirty = false
	w.updateTitle()
	w.status.ShowSuccess("✓ Saved " + filepath.Base(w.path))
	w.startWatching()
}

func (w *ApplicationWindow) fail(what string, err error) {
	logging.Log(logging.ERROR, "app", what+": "+err.Error())
	w.status.ShowError(what+": "+err.Error(), logging.Path())
}

// startWatching pushes changes made to the file by other programs into the
// editor.
func (w *ApplicationWindow) startWatching() {
	if w.watcher != nil || w.path == "" {
		return
	}
	deliver := func(fn func()) { glib.IdleAdd(fn) }
	fw, err := watchFile(w.path, deliver, w.externalChange)
	if err != nil {
		logging.Log(logging.WARN, "app", err.Error())
		return
	}
	fw.Wrote(w.ctrl.Text())
	w.watcher = fw
}

func (w *ApplicationWindow) externalChange(text string) {
	if w.ctrl.State() != editor.Ready || text == w.ctrl.Text() {
		return
	}
	w.ctrl.SetInitialCode(text)
	w.dirty = false
	w.updateTitle()
	w.status.ShowSuccess("Reloaded " + filepath.Base(w.path) + " after an external change")
}

func (w *ApplicationWindow) diagnosed(uri string, diags []analysis.Diagnostic) {
	if uri == w.ctrl.URI() {
		w.status.SetDiagnostics(diags)
	}
}

func (w *ApplicationWindow) applyPreferences(newPrefs AppPreferences) {
	if newPrefs.CompletionShortcut != w.prefs.CompletionShortcut {
		w.setCompletionShortcut(newPrefs.CompletionShortcut)
	}
	if newPrefs.EditorHeight != w.prefs.EditorHeight {
		w.surface.SetMinHeight(newPrefs.EditorHeight)
	}
	w.prefs = newPrefs
	applyPreferences(newPrefs)
	w.deps.engine.SetScheme(resolveActiveScheme(newPrefs))
	if err := SavePreferences(newPrefs); err != nil {
		logging.Log(logging.WARN, "app", "preferences: "+err.Error())
	}
}

func (w *ApplicationWindow) setCompletionShortcut(accel string) {
	chord, err := editor.ParseChord(accel)
	if err != nil {
		logging.Log(logging.WARN, "app", err.Error())
		return
	}
	w.completionChord = chord
	w.status.SetIdleHint(fmt.Sprintf("%s saves, %s completes",
		accelToLabel(editor.SaveChord.String()), accelToLabel(chord.String())))
}

// ShowCompletionPicker reveals the picker with the candidates at the cursor.
func (w *ApplicationWindow) ShowCompletionPicker() {
	if !w.picker.Reset() {
		w.status.ShowSuccess("No completions here")
		return
	}
	w.revealer.SetRevealChild(true)
	w.picker.Focus()
}

// HideCompletionPicker hides the picker and returns focus to the editor.
func (w *ApplicationWindow) HideCompletionPicker() {
	w.revealer.SetRevealChild(false)
	w.surface.Focus()
}

// setupKeyboard registers the completion shortcut on the editor surface and
// closes the picker on Escape.
func (w *ApplicationWindow) setupKeyboard() {
	w.surface.AddCaptureKeyListener(func(ev *editor.KeyEvent) {
		if ev.Chord == w.completionChord && w.surface.HasFocusWithin() {
			ev.PreventDefault()
			w.ShowCompletionPicker()
		}
	})

	ctrl := gtk.NewEventControllerKey()
	ctrl.SetPropagationPhase(gtk.PhaseCapture)
	ctrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape && w.revealer.RevealChild() {
			w.HideCompletionPicker()
			return true
		}
		return false
	})
	w.Win.AddController(ctrl)
}

func (w *ApplicationWindow) shutdown() {
	w.ctrl.Unmount()
	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Log(logging.WARN, "app", err.Error())
		}
		w.watcher = nil
	}
	if err := logging.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "mvsedit: flushing log: %v\n", err)
	}
}
