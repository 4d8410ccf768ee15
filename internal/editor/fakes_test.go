package editor

import (
	"errors"
	"slices"
	"time"
)

// journal records teardown steps across fakes.
type journal struct{ entries []string }

func (j *journal) add(s string) {
	if j != nil {
		j.entries = append(j.entries, s)
	}
}

type fakeDocument struct {
	log        *journal
	uri        string
	languageID string
	text       string
	history    []string
	brokenUndo bool

	nextID    int
	observers map[int]func()

	setTexts int
	appends  int
	undos    int
	disposed bool
}

func (d *fakeDocument) URI() string  { return d.uri }
func (d *fakeDocument) Text() string { return d.text }

func (d *fakeDocument) edit(text string) {
	d.history = append(d.history, d.text)
	d.text = text
	d.notify()
}

func (d *fakeDocument) notify() {
	ids := make([]int, 0, len(d.observers))
	for id := range d.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := d.observers[id]; ok {
			fn()
		}
	}
}

func (d *fakeDocument) SetText(text string) {
	d.setTexts++
	d.edit(text)
}

func (d *fakeDocument) Append(s string) {
	d.appends++
	d.edit(d.text + s)
}

// typeText inserts s one character at a time, like a user typing.
func (d *fakeDocument) typeText(s string) {
	for _, r := range s {
		d.edit(d.text + string(r))
	}
}

func (d *fakeDocument) Undo() {
	d.undos++
	if d.brokenUndo || len(d.history) == 0 {
		return
	}
	d.text = d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]
	d.notify()
}

func (d *fakeDocument) OnDidChange(fn func()) func() {
	d.nextID++
	id := d.nextID
	d.observers[id] = fn
	return func() {
		if _, ok := d.observers[id]; ok {
			delete(d.observers, id)
			d.log.add("change subscription removed")
		}
	}
}

func (d *fakeDocument) Dispose() {
	d.disposed = true
	d.log.add("document disposed")
}

type fakeView struct {
	log      *journal
	opts     ViewOptions
	keymap   Keymap
	disposed bool
}

func (v *fakeView) AddCommand(c Chord, fn func()) func() {
	remove := v.keymap.Add(c, fn)
	return func() {
		remove()
		v.log.add("command removed")
	}
}

func (v *fakeView) Dispose() {
	v.disposed = true
	v.log.add("view disposed")
}

type fakeContainer struct {
	log       *journal
	focus     bool
	listeners Listeners
	view      *fakeView
}

func (c *fakeContainer) HasFocusWithin() bool { return c.focus }

func (c *fakeContainer) AddCaptureKeyListener(fn func(*KeyEvent)) func() {
	remove := c.listeners.Add(fn)
	return func() {
		remove()
		c.log.add("capture listener removed")
	}
}

// press routes chord the way the GTK surface does and reports whether the
// window default was suppressed.
func (c *fakeContainer) press(chord Chord) bool {
	var focused *Keymap
	if c.focus && c.view != nil && !c.view.disposed {
		focused = &c.view.keymap
	}
	return Route(&KeyEvent{Chord: chord}, &c.listeners, focused)
}

var errFake = errors.New("fake failure")

type fakeEngine struct {
	log      *journal
	docs     []*fakeDocument
	views    []*fakeView
	failDoc  bool
	failView bool
	// brokenUndo makes created documents ignore Undo.
	brokenUndo bool
}

func (e *fakeEngine) NewDocument(text, languageID, uri string) (Document, error) {
	if e.failDoc {
		return nil, errFake
	}
	d := &fakeDocument{
		log:        e.log,
		uri:        uri,
		languageID: languageID,
		text:       text,
		brokenUndo: e.brokenUndo,
		observers:  map[int]func(){},
	}
	e.docs = append(e.docs, d)
	return d, nil
}

func (e *fakeEngine) NewView(c Container, doc Document, opts ViewOptions) (View, error) {
	if e.failView {
		return nil, errFake
	}
	v := &fakeView{log: e.log, opts: opts}
	if fc, ok := c.(*fakeContainer); ok {
		fc.view = v
	}
	e.views = append(e.views, v)
	return v, nil
}

func (e *fakeEngine) lastDoc() *fakeDocument { return e.docs[len(e.docs)-1] }

// fakeClock is a manual Scheduler.
type fakeClock struct {
	log   *journal
	now   time.Duration
	tasks []*task
}

type task struct {
	due       time.Duration
	fn        func()
	cancelled bool
	ran       bool
}

func (c *fakeClock) After(d time.Duration, fn func()) func() {
	t := &task{due: c.now + d, fn: fn}
	c.tasks = append(c.tasks, t)
	return func() {
		if !t.cancelled && !t.ran {
			t.cancelled = true
			c.log.add("nudge cancelled")
		}
	}
}

func (c *fakeClock) advance(d time.Duration) {
	c.now += d
	for _, t := range c.tasks {
		if !t.cancelled && !t.ran && t.due <= c.now {
			t.ran = true
			t.fn()
		}
	}
}

// runCancelled fires cancelled tasks anyway, as a late timer would.
func (c *fakeClock) runCancelled() {
	for _, t := range c.tasks {
		if t.cancelled {
			t.fn()
		}
	}
}

func (c *fakeClock) pending() int {
	n := 0
	for _, t := range c.tasks {
		if !t.cancelled && !t.ran {
			n++
		}
	}
	return n
}
