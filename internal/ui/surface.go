package ui

import (
	"codeberg.org/sigterm-de/mvsedit/internal/editor"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Surface is the area of a window an editor view is mounted in. It
// implements editor.Container.
//
// Key presses anywhere in the window go through one capture-phase controller:
// capture listeners first, then the commands of the focused view. Whatever
// neither consumes propagates to the window's own handlers.
type Surface struct {
	Scroll *gtk.ScrolledWindow
	window *gtk.Window

	capture editor.Listeners
	view    *View
}

// NewSurface creates an empty surface and installs its key controller on
// window.
func NewSurface(window *gtk.Window) *Surface {
	scroll := gtk.NewScrolledWindow()
	scroll.SetVExpand(true)
	scroll.SetHExpand(true)

	s := &Surface{Scroll: scroll, window: window}

	ctrl := gtk.NewEventControllerKey()
	ctrl.SetPropagationPhase(gtk.PhaseCapture)
	ctrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		chord, ok := chordFor(keyval, state)
		if !ok {
			return false
		}
		return editor.Route(&editor.KeyEvent{Chord: chord}, &s.capture, s.focusedCommands())
	})
	window.AddController(ctrl)
	return s
}

// HasFocusWithin implements editor.Container.
func (s *Surface) HasFocusWithin() bool {
	if s.view != nil && s.view.HasFocus() {
		return true
	}
	focus := s.window.Focus()
	if focus == nil {
		return false
	}
	return gtk.BaseWidget(focus).IsAncestor(s.Scroll)
}

// AddCaptureKeyListener implements editor.Container.
func (s *Surface) AddCaptureKeyListener(fn func(*editor.KeyEvent)) func() {
	return s.capture.Add(fn)
}

// View returns the mounted view, or nil.
func (s *Surface) View() *View { return s.view }

// Focus moves keyboard focus into the mounted view.
func (s *Surface) Focus() {
	if s.view != nil {
		s.view.Widget.GrabFocus()
	}
}

func (s *Surface) focusedCommands() *editor.Keymap {
	if s.view == nil || !s.view.HasFocus() {
		return nil
	}
	return &s.view.commands
}

func (s *Surface) attach(v *View) {
	s.view = v
	s.Scroll.SetChild(v.Widget)
	s.SetMinHeight(v.opts.Height)
}

// SetMinHeight sets the minimum height of the surface in pixels. Zero lets
// it fill the space it is given.
func (s *Surface) SetMinHeight(px int) {
	if px <= 0 {
		px = -1
	}
	s.Scroll.SetSizeRequest(-1, px)
}

func (s *Surface) detach(v *View) {
	if s.view != v {
		return
	}
	s.view = nil
	s.Scroll.SetChild(nil)
}

// chordFor maps a key press to a chord. Presses of bare modifier keys have
// no chord.
func chordFor(keyval uint, state gdk.ModifierType) (editor.Chord, bool) {
	r := rune(gdk.KeyvalToUnicode(gdk.KeyvalToLower(keyval)))
	if r == 0 {
		return editor.Chord{}, false
	}
	return editor.NewChord(r, modifiers(state)), true
}

func modifiers(state gdk.ModifierType) editor.Modifier {
	var mods editor.Modifier
	if state&(gdk.ControlMask|gdk.MetaMask) != 0 {
		mods |= editor.ModPrimary
	}
	if state&gdk.ShiftMask != 0 {
		mods |= editor.ModShift
	}
	if state&gdk.AltMask != 0 {
		mods |= editor.ModAlt
	}
	return mods
}
