package app

import (
	"fmt"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	gtksource "libdb.so/gotk4-sourceview/pkg/gtksource/v5"
)

// ShowAboutDialog opens the About window, transient to parent.
func ShowAboutDialog(parent *gtk.ApplicationWindow, version string, catalogs int) {
	dialog := gtk.NewAboutDialog()
	dialog.SetTransientFor(&parent.Window)
	dialog.SetModal(true)
	dialog.SetProgramName(appName)
	dialog.SetVersion(version)
	dialog.SetComments(fmt.Sprintf(
		"An editor for MolViewSpec builder scripts.\n%d completion catalogs loaded.\n\nGTK %d.%d.%d · GtkSourceView %d.%d.%d",
		catalogs,
		gtk.GetMajorVersion(), gtk.GetMinorVersion(), gtk.GetMicroVersion(),
		gtksource.GetMajorVersion(), gtksource.GetMinorVersion(), gtksource.GetMicroVersion(),
	))
	dialog.SetWebsite("https://codeberg.org/sigterm-de/mvsedit")
	dialog.SetWebsiteLabel("codeberg.org/sigterm-de/mvsedit")
	dialog.SetLogoIconName("text-editor-symbolic")
	dialog.Present()
}
