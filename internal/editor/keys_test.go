package editor

import (
	"errors"
	"testing"
)

func TestParseChord(t *testing.T) {
	cases := []struct {
		in   string
		want Chord
		str  string
	}{
		{"<Primary>s", SaveChord, "<Primary>s"},
		{"<Control>S", SaveChord, "<Primary>s"},
		{"<Ctrl>space", NewChord(' ', ModPrimary), "<Primary>space"},
		{"<Primary><Shift>p", NewChord('p', ModPrimary|ModShift), "<Primary><Shift>p"},
		{"<Alt>x", NewChord('x', ModAlt), "<Alt>x"},
		{" <Meta>k ", NewChord('k', ModPrimary), "<Primary>k"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseChord(tc.in)
			if err != nil {
				t.Fatalf("ParseChord(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseChord(%q) = %+v; want %+v", tc.in, got, tc.want)
			}
			if got.String() != tc.str {
				t.Errorf("String() = %q; want %q", got.String(), tc.str)
			}
		})
	}

	for _, bad := range []string{"", "<Primary>", "<Hyper>s", "<Primary>ab", "<Primary"} {
		if _, err := ParseChord(bad); !errors.Is(err, errBadChord) {
			t.Errorf("ParseChord(%q) err = %v; want errBadChord", bad, err)
		}
	}
}

func TestKeymap(t *testing.T) {
	var k Keymap
	var got []string
	removeA := k.Add(SaveChord, func() { got = append(got, "a") })
	removeB := k.Add(SaveChord, func() { got = append(got, "b") })

	if !k.Dispatch(SaveChord) || got[0] != "b" {
		t.Fatalf("latest binding should win: %v", got)
	}
	removeB()
	removeB()
	k.Dispatch(SaveChord)
	if got[1] != "a" {
		t.Errorf("after removing b: %v", got)
	}
	removeA()
	if k.Dispatch(SaveChord) || k.Len() != 0 {
		t.Errorf("dispatch after removing every binding")
	}
}

func TestRoute(t *testing.T) {
	var l Listeners
	var k Keymap
	var order []string
	l.Add(func(ev *KeyEvent) {
		order = append(order, "capture")
		ev.PreventDefault()
	})
	k.Add(SaveChord, func() { order = append(order, "command") })

	if !Route(&KeyEvent{Chord: SaveChord}, &l, &k) {
		t.Errorf("event not consumed")
	}
	if len(order) != 2 || order[0] != "capture" || order[1] != "command" {
		t.Errorf("order = %v", order)
	}

	order = nil
	if !Route(&KeyEvent{Chord: SaveChord}, &l, nil) {
		t.Errorf("prevented event not consumed without focus")
	}
	if len(order) != 1 {
		t.Errorf("command ran without focus: %v", order)
	}

	var empty Listeners
	if Route(&KeyEvent{Chord: NewChord('q', ModPrimary)}, &empty, &k) {
		t.Errorf("unbound chord consumed")
	}
}
