// Package editor implements the MVS editor session: one document bound to one
// view inside a host container, with save and change notifications and
// reconciliation of host-supplied code.
//
// The package talks to the editing engine only through the narrow interfaces
// below. A Controller and everything it touches must be used from the UI
// thread.
package editor

import "time"

// Engine creates documents and views.
type Engine interface {
	NewDocument(text, languageID, uri string) (Document, error)
	NewView(c Container, doc Document, opts ViewOptions) (View, error)
}

// Document is an editable text model with undo history.
type Document interface {
	URI() string
	Text() string
	// SetText replaces the whole text. Observers see one change.
	SetText(text string)
	// Append inserts s at the end of the text as one undoable edit.
	Append(s string)
	// Undo reverts the most recent edit, if any.
	Undo()
	// OnDidChange registers fn to run after every change. The returned
	// function removes it and may be called more than once.
	OnDidChange(fn func()) (remove func())
	Dispose()
}

// View renders a document inside a container.
type View interface {
	// AddCommand binds fn to chord. It fires only while the view has focus.
	AddCommand(c Chord, fn func()) (remove func())
	Dispose()
}

// Container is the host area a view is mounted in.
type Container interface {
	// HasFocusWithin reports whether keyboard focus is inside the container.
	HasFocusWithin() bool
	// AddCaptureKeyListener registers fn to see key presses before any
	// widget does.
	AddCaptureKeyListener(fn func(*KeyEvent)) (remove func())
}

// Scheduler runs one-shot tasks on the UI thread.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// ViewOptions is the fixed visual configuration of a view.
type ViewOptions struct {
	Theme           string
	LineNumbers     bool
	Folding         bool
	WordWrap        bool
	Minimap         bool
	ShowDiagnostics bool
	Height          int // pixels; 0 lets the view fill the container
}

// ThemeDark selects the engine's dark style scheme.
const ThemeDark = "dark"

// DefaultViewOptions returns the dark, line-numbered, wrapping layout with
// diagnostics shown and no minimap.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		Theme:           ThemeDark,
		LineNumbers:     true,
		Folding:         true,
		WordWrap:        true,
		Minimap:         false,
		ShowDiagnostics: true,
	}
}
