package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/sigterm-de/mvsedit/internal/editor"
	"github.com/adrg/xdg"
)

// maxRevalidateDelayMS bounds the revalidation nudge delay.
const maxRevalidateDelayMS = 5000

// AppPreferences holds persistent user-configurable settings.
type AppPreferences struct {
	EditorFont string `json:"editor_font"` // Pango font description, e.g. "Monospace 12"

	// Editor colour scheme. The editor is dark by default; with
	// EditorSchemeFollowSystem it switches to the light scheme whenever the
	// desktop prefers light.
	EditorSchemeFollowSystem bool   `json:"editor_scheme_follow_system"`
	EditorSchemeLight        string `json:"editor_scheme_light"`
	EditorSchemeDark         string `json:"editor_scheme_dark"`

	// CompletionShortcut opens the completion picker (e.g. "<Primary>space").
	CompletionShortcut string `json:"completion_shortcut"`

	// RevalidateDelayMS is the delay before a new document is nudged into
	// validation. 0 disables the nudge.
	RevalidateDelayMS int `json:"revalidate_delay_ms"`

	// EditorHeight is the minimum editor height in pixels; 0 fills the window.
	EditorHeight int `json:"editor_height"`
}

func defaultPreferences() AppPreferences {
	return AppPreferences{
		EditorFont:               "Monospace 12",
		EditorSchemeFollowSystem: false,
		EditorSchemeLight:        "classic",
		EditorSchemeDark:         "oblivion",
		CompletionShortcut:       "<Primary>space",
		RevalidateDelayMS:        int(editor.DefaultRevalidateDelay / time.Millisecond),
		EditorHeight:             0,
	}
}

// RevalidateDelay returns RevalidateDelayMS as a duration.
func (p AppPreferences) RevalidateDelay() time.Duration {
	return time.Duration(p.RevalidateDelayMS) * time.Millisecond
}

func preferencesFilePath() (string, error) {
	return xdg.ConfigFile(filepath.Join(appName, "preferences.json"))
}

// LoadPreferences loads preferences from disk, returning defaults on any error.
func LoadPreferences() AppPreferences {
	path, err := preferencesFilePath()
	if err != nil {
		return defaultPreferences()
	}
	return loadPreferencesFrom(path)
}

func loadPreferencesFrom(path string) AppPreferences {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultPreferences()
	}
	prefs := defaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultPreferences()
	}
	sanitizePreferences(&prefs)
	return prefs
}

// sanitizePreferences replaces any field that would cause silent misbehaviour
// with its default value. Called after JSON unmarshal so that a hand-edited
// preferences file cannot leave the application in a broken state.
func sanitizePreferences(p *AppPreferences) {
	def := defaultPreferences()
	// An unparseable shortcut makes the picker unreachable by keyboard.
	if c, err := editor.ParseChord(p.CompletionShortcut); err != nil || c == editor.SaveChord {
		p.CompletionShortcut = def.CompletionShortcut
	}
	if p.RevalidateDelayMS < 0 || p.RevalidateDelayMS > maxRevalidateDelayMS {
		p.RevalidateDelayMS = def.RevalidateDelayMS
	}
	if p.EditorHeight < 0 {
		p.EditorHeight = def.EditorHeight
	}
	if p.EditorSchemeDark == "" {
		p.EditorSchemeDark = def.EditorSchemeDark
	}
	if p.EditorSchemeLight == "" {
		p.EditorSchemeLight = def.EditorSchemeLight
	}
}

// SavePreferences writes preferences to disk.
func SavePreferences(prefs AppPreferences) error {
	path, err := preferencesFilePath()
	if err != nil {
		return fmt.Errorf("preferences: resolve path: %w", err)
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("preferences: marshal: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("preferences: write: %w", err)
	}
	return nil
}
