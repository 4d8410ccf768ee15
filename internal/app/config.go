package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "mvsedit"

// UserConfiguration holds runtime paths resolved from the XDG Base Directory
// specification.
type UserConfiguration struct {
	TypingsDir      string // ~/.config/mvsedit/typings/
	PreferencesPath string // ~/.config/mvsedit/preferences.json
}

// NewUserConfiguration resolves XDG paths, creates the typings directory if
// absent, and returns a ready-to-use configuration.
func NewUserConfiguration() (UserConfiguration, error) {
	typingsDir := filepath.Join(xdg.ConfigHome, appName, "typings")
	if err := os.MkdirAll(typingsDir, 0o755); err != nil {
		return UserConfiguration{}, fmt.Errorf("config: create typings dir: %w", err)
	}

	prefsPath, err := preferencesFilePath()
	if err != nil {
		return UserConfiguration{}, fmt.Errorf("config: resolve preferences path: %w", err)
	}

	return UserConfiguration{
		TypingsDir:      typingsDir,
		PreferencesPath: prefsPath,
	}, nil
}
