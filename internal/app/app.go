package app

import (
	"fmt"
	"os"

	"codeberg.org/sigterm-de/mvsedit/assets"
	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/completion"
	"codeberg.org/sigterm-de/mvsedit/internal/langenv"
	"codeberg.org/sigterm-de/mvsedit/internal/logging"
	"codeberg.org/sigterm-de/mvsedit/internal/ui"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// mvsLanguage is the grammar registered once per process.
func mvsLanguage() langenv.Language {
	return langenv.Language{
		ID:         langenv.LanguageID,
		Name:       "MVS",
		Extensions: []string{".mvs.js", ".mvs.ts"},
		MimeTypes:  []string{"text/x-mvs"},
		Grammar:    assets.LanguageSpec(),
	}
}

// Run initialises and runs the GTK application. path names the script to
// open; when empty the editor starts with the starter script. It returns the
// exit code that main() should pass to os.Exit.
func Run(appVersion, path string) int {
	app := gtk.NewApplication("org.codeberg.sigterm-de.mvsedit", gio.ApplicationNonUnique)
	app.ConnectActivate(func() { activate(app, appVersion, path) })
	return int(app.Run(os.Args[:1]))
}

func activate(app *gtk.Application, appVersion, path string) {
	// ── Configuration ─────────────────────────────────────────────────────────
	cfg, err := NewUserConfiguration()
	if err != nil {
		showFatalError(app, fmt.Sprintf("Failed to initialise configuration: %v", err))
		return
	}

	// ── Logging ───────────────────────────────────────────────────────────────
	if _, err := logging.InitLogger(appName); err != nil {
		fmt.Fprintf(os.Stderr, "mvsedit: warning: cannot initialise logger: %v\n", err)
	}
	logging.Log(logging.INFO, "", fmt.Sprintf("mvsedit %s starting", appVersion))

	// ── Completion catalogs ───────────────────────────────────────────────────
	result, err := completion.NewLoader(assets.Typings()).Load(cfg.TypingsDir)
	if err != nil {
		showFatalError(app, fmt.Sprintf("Failed to load completion catalogs: %v", err))
		return
	}
	for _, skipped := range result.SkippedFiles {
		logging.Log(logging.WARN, skipped, "catalog was skipped during load")
	}
	logging.Log(logging.INFO, "",
		fmt.Sprintf("loaded %d built-in catalogs, %d user catalogs (%d skipped)",
			result.BuiltInCount, result.UserCount, len(result.SkippedFiles)))

	// ── Script ────────────────────────────────────────────────────────────────
	initial, err := openScript(path, assets.Starter())
	if err != nil {
		showFatalError(app, fmt.Sprintf("Cannot open %s: %v", path, err))
		return
	}

	// ── Preferences ──────────────────────────────────────────────────────────
	prefs := LoadPreferences()

	// ── CSS + theme ───────────────────────────────────────────────────────────
	loadCSS(prefs)

	// ── Editing engine ────────────────────────────────────────────────────────
	var win *ApplicationWindow
	engine := ui.NewEngine(appName,
		ui.WithScheme(resolveActiveScheme(prefs)),
		ui.WithDiagnosticsHandler(func(uri string, diags []analysis.Diagnostic) {
			if win != nil {
				win.diagnosed(uri, diags)
			}
		}),
	)

	// ── Window ────────────────────────────────────────────────────────────────
	win = NewApplicationWindow(app, windowDeps{
		engine:      engine,
		registry:    langenv.Shared(engine, mvsLanguage()),
		provisioner: completion.NewProvisioner(langenv.LanguageID, result.Catalog),
		path:        path,
		initialCode: initial,
		version:     appVersion,
		catalogs:    result.BuiltInCount + result.UserCount,
	}, prefs)

	win.Win.Present()
}

// showFatalError creates a minimal error dialog and quits the application.
// The window has a Close button and responds to Escape so users can dismiss it.
func showFatalError(app *gtk.Application, msg string) {
	fmt.Fprintln(os.Stderr, "mvsedit: fatal:", msg)

	win := gtk.NewApplicationWindow(app)
	win.SetDefaultSize(420, 0)
	win.SetTitle("mvsedit: fatal error")
	win.SetResizable(false)

	label := gtk.NewLabel(msg)
	label.SetWrap(true)
	label.SetMarginTop(16)
	label.SetMarginBottom(8)
	label.SetMarginStart(16)
	label.SetMarginEnd(16)

	closeBtn := gtk.NewButtonWithLabel("Close")
	closeBtn.SetHAlign(gtk.AlignCenter)
	closeBtn.SetMarginBottom(16)
	closeBtn.ConnectClicked(func() { app.Quit() })

	keyCtrl := gtk.NewEventControllerKey()
	keyCtrl.SetPropagationPhase(gtk.PhaseCapture)
	keyCtrl.ConnectKeyPressed(func(keyval, _ uint, _ gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			app.Quit()
			return true
		}
		return false
	})
	win.AddController(keyCtrl)

	box := gtk.NewBox(gtk.OrientationVertical, 0)
	box.Append(label)
	box.Append(closeBtn)
	win.SetChild(box)
	win.Present()
}
