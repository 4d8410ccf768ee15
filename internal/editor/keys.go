package editor

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	// ModPrimary is Ctrl on Linux and Windows and Cmd on macOS.
	ModPrimary Modifier = 1 << iota
	ModShift
	ModAlt
)

// Chord is a key plus modifiers. Key is always lower case.
type Chord struct {
	Key  rune
	Mods Modifier
}

// NewChord returns the chord for key with mods.
func NewChord(key rune, mods Modifier) Chord {
	return Chord{Key: unicode.ToLower(key), Mods: mods}
}

// SaveChord is Primary+S.
var SaveChord = NewChord('s', ModPrimary)

var modNames = []struct {
	mod  Modifier
	name string
}{
	{ModPrimary, "Primary"},
	{ModShift, "Shift"},
	{ModAlt, "Alt"},
}

// String renders c in GTK accelerator syntax, e.g. "<Primary>s".
func (c Chord) String() string {
	var b strings.Builder
	for _, m := range modNames {
		if c.Mods&m.mod != 0 {
			b.WriteString("<" + m.name + ">")
		}
	}
	switch c.Key {
	case ' ':
		b.WriteString("space")
	case 0:
	default:
		b.WriteRune(c.Key)
	}
	return b.String()
}

var errBadChord = errors.New("invalid key chord")

// ParseChord parses GTK accelerator syntax. Control, Ctrl, Meta and Super
// all map to Primary.
func ParseChord(s string) (Chord, error) {
	rest := strings.TrimSpace(s)
	var mods Modifier
	for strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return Chord{}, fmt.Errorf("%w: %q", errBadChord, s)
		}
		switch strings.ToLower(rest[1:end]) {
		case "primary", "control", "ctrl", "meta", "super":
			mods |= ModPrimary
		case "shift":
			mods |= ModShift
		case "alt":
			mods |= ModAlt
		default:
			return Chord{}, fmt.Errorf("%w: unknown modifier in %q", errBadChord, s)
		}
		rest = rest[end+1:]
	}
	if strings.EqualFold(rest, "space") {
		return NewChord(' ', mods), nil
	}
	if utf8.RuneCountInString(rest) != 1 {
		return Chord{}, fmt.Errorf("%w: %q", errBadChord, s)
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return NewChord(r, mods), nil
}

// KeyEvent is a key press travelling through a surface.
type KeyEvent struct {
	Chord     Chord
	prevented bool
}

// PreventDefault stops the window's default handling of the event.
func (e *KeyEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

// Keymap maps chords to commands. The most recently added binding for a
// chord wins.
type Keymap struct {
	next     int
	bindings []binding
}

type binding struct {
	id    int
	chord Chord
	fn    func()
}

// Add binds fn to c.
func (k *Keymap) Add(c Chord, fn func()) (remove func()) {
	k.next++
	id := k.next
	k.bindings = append(k.bindings, binding{id: id, chord: c, fn: fn})
	return func() {
		for i, b := range k.bindings {
			if b.id == id {
				k.bindings = append(k.bindings[:i], k.bindings[i+1:]...)
				return
			}
		}
	}
}

// Dispatch runs the command bound to c and reports whether one was found.
func (k *Keymap) Dispatch(c Chord) bool {
	for i := len(k.bindings) - 1; i >= 0; i-- {
		if k.bindings[i].chord == c {
			k.bindings[i].fn()
			return true
		}
	}
	return false
}

// Len returns the number of bindings.
func (k *Keymap) Len() int { return len(k.bindings) }

// Listeners is an ordered set of capture key listeners.
type Listeners struct {
	next int
	fns  []listener
}

type listener struct {
	id int
	fn func(*KeyEvent)
}

// Add registers fn.
func (l *Listeners) Add(fn func(*KeyEvent)) (remove func()) {
	l.next++
	id := l.next
	l.fns = append(l.fns, listener{id: id, fn: fn})
	return func() {
		for i, x := range l.fns {
			if x.id == id {
				l.fns = append(l.fns[:i], l.fns[i+1:]...)
				return
			}
		}
	}
}

// Dispatch runs every listener in registration order.
func (l *Listeners) Dispatch(ev *KeyEvent) {
	for _, x := range append([]listener(nil), l.fns...) {
		x.fn(ev)
	}
}

// Len returns the number of listeners.
func (l *Listeners) Len() int { return len(l.fns) }

// Route delivers ev to the capture listeners and then to the keymap of the
// focused view, which is nil when no view has focus. It reports whether the
// event was consumed and must not reach the window default.
func Route(ev *KeyEvent, capture *Listeners, focused *Keymap) bool {
	capture.Dispatch(ev)
	handled := false
	if focused != nil {
		handled = focused.Dispatch(ev.Chord)
	}
	return handled || ev.DefaultPrevented()
}
