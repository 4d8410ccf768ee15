package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"codeberg.org/sigterm-de/mvsedit/assets"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
)

const (
	defaultFontFamily = "Monospace"
	defaultFontPoints = 12
	pangoScale        = 1024 // Pango sizes are in 1/1024 point
)

// fontCSSProvider is updated whenever the user changes the editor font.
var fontCSSProvider *gtk.CSSProvider

// gnomeInterfaceSettings holds a GSettings handle for
// "org.gnome.desktop.interface", or nil when that schema is not present
// (non-GNOME desktops).  Initialised once by loadCSS.
var gnomeInterfaceSettings *gio.Settings

// loadCSS installs the embedded stylesheet and initialises the font provider.
func loadCSS(prefs AppPreferences) {
	display := gdk.DisplayGetDefault()
	if display == nil {
		fmt.Fprintln(os.Stderr, "mvsedit: warning: no display available, skipping CSS")
		return
	}

	// Application stylesheet.
	appProvider := gtk.NewCSSProvider()
	appProvider.LoadFromString(string(assets.StyleCSS()))
	gtk.StyleContextAddProviderForDisplay(
		display,
		appProvider,
		uint(gtk.STYLE_PROVIDER_PRIORITY_APPLICATION),
	)

	// Font override provider (higher priority so it wins over the stylesheet).
	fontCSSProvider = gtk.NewCSSProvider()
	gtk.StyleContextAddProviderForDisplay(
		display,
		fontCSSProvider,
		uint(gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)+1,
	)

	applyEditorFont(prefs.EditorFont)
	initGnomeInterfaceSettings()
}

// initGnomeInterfaceSettings creates a GSettings handle for
// "org.gnome.desktop.interface" when the schema is available (GNOME desktops).
func initGnomeInterfaceSettings() {
	src := gio.SettingsSchemaSourceGetDefault()
	if src == nil {
		return
	}
	if src.Lookup("org.gnome.desktop.interface", true) == nil {
		return
	}
	gnomeInterfaceSettings = gio.NewSettings("org.gnome.desktop.interface")
}

// applyEditorFont updates the font CSS provider. Must be called on the GTK
// main thread.
func applyEditorFont(fontDesc string) {
	if fontCSSProvider == nil {
		return
	}
	family, points := defaultFontFamily, float64(defaultFontPoints)
	if desc := pango.FontDescriptionFromString(fontDesc); desc != nil {
		family = desc.Family()
		points = float64(desc.Size()) / pangoScale
	}
	fontCSSProvider.LoadFromString(editorFontCSS(family, points))
}

// editorFontCSS styles the MVS editor text view. Sizes are rounded to tenths
// of a point; an empty family or non-positive size falls back to the default.
func editorFontCSS(family string, points float64) string {
	if family == "" {
		family = defaultFontFamily
	}
	if points <= 0 {
		points = defaultFontPoints
	}
	size := strconv.FormatFloat(float64(int(points*10+0.5))/10, 'f', -1, 64)
	return fmt.Sprintf("textview.mvs-editor { font-family: %q; font-size: %spt; }", family, size)
}

// applyPreferences applies the preferences that take effect without
// remounting the editor.
func applyPreferences(prefs AppPreferences) {
	applyEditorFont(prefs.EditorFont)
}

// isSystemDark reports whether the system currently prefers dark mode.
//
// Three sources are checked in priority order:
//  1. org.gnome.desktop.interface color-scheme (GNOME, most direct)
//  2. gtk-application-prefer-dark-theme        (GTK/portal fallback)
//  3. gtk-theme-name contains "dark"           (KDE and others)
func isSystemDark() bool {
	if gnomeInterfaceSettings != nil {
		return gnomeInterfaceSettings.String("color-scheme") == "prefer-dark"
	}
	settings := gtk.SettingsGetDefault()
	if settings == nil {
		return false
	}
	if v, ok := settings.ObjectProperty("gtk-application-prefer-dark-theme").(bool); ok && v {
		return true
	}
	if name, ok := settings.ObjectProperty("gtk-theme-name").(string); ok {
		return strings.Contains(strings.ToLower(name), "dark")
	}
	return false
}

// resolveActiveScheme returns the editor scheme ID that should be active right
// now.
func resolveActiveScheme(prefs AppPreferences) string {
	return schemeFor(prefs, isSystemDark())
}

// schemeFor picks the editor scheme. The editor is dark unless it follows a
// desktop that prefers light.
func schemeFor(prefs AppPreferences, systemDark bool) string {
	if prefs.EditorSchemeFollowSystem && !systemDark {
		return prefs.EditorSchemeLight
	}
	return prefs.EditorSchemeDark
}
