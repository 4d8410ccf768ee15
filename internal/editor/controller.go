package editor

import (
	"fmt"
	"time"

	"codeberg.org/sigterm-de/mvsedit/internal/completion"
	"codeberg.org/sigterm-de/mvsedit/internal/langenv"
	"codeberg.org/sigterm-de/mvsedit/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionURI returns the virtual document path for a session.
func SessionURI(session string) string {
	return "file:///mvs/" + session + "/main.mvs.ts"
}

func newSessionURI() string { return SessionURI(uuid.NewString()) }

// Controller owns one editor session at a time.
type Controller struct {
	engine Engine

	registry        *langenv.Registry
	provisioner     *completion.Provisioner
	service         completion.LanguageService
	scheduler       Scheduler
	revalidateDelay time.Duration
	newURI          func() string

	state       State
	initialCode string
	height      int
	hostChange  func(string)
	hostSave    func(string)

	// Callbacks of the live session; nil outside Ready.
	onCodeChange func(string)
	onSave       func(string)

	container     Container
	doc           Document
	view          View
	removeCapture func()
	removeSave    func()
	removeChange  func()
	cancelNudge   func()
	nudging       bool
}

// New returns an unmounted Controller for cfg.
func New(engine Engine, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		engine:          engine,
		revalidateDelay: DefaultRevalidateDelay,
		newURI:          newSessionURI,
		initialCode:     cfg.InitialCode,
		height:          cfg.Height,
		hostChange:      cfg.OnCodeChange,
		hostSave:        cfg.OnSave,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// URI returns the document URI of the live session, or "".
func (c *Controller) URI() string {
	if c.doc == nil {
		return ""
	}
	return c.doc.URI()
}

// Document returns the live document, or nil when not Ready.
func (c *Controller) Document() Document {
	if c.state != Ready {
		return nil
	}
	return c.doc
}

// Text returns the live text while Ready and the pending initial code
// otherwise.
func (c *Controller) Text() string {
	if c.state == Ready && c.doc != nil {
		return c.doc.Text()
	}
	return c.initialCode
}

// SetCallbacks replaces the host callbacks.
func (c *Controller) SetCallbacks(onCodeChange, onSave func(string)) {
	c.hostChange, c.hostSave = onCodeChange, onSave
	if c.state == Ready {
		c.onCodeChange, c.onSave = onCodeChange, onSave
	}
}

// Mount creates the session inside container. A nil container is not ready
// yet and the call does nothing; the host mounts again once it exists.
func (c *Controller) Mount(container Container) {
	if container == nil {
		logging.Log(logging.DEBUG, "editor", "mount deferred: no container")
		return
	}
	if c.state != Unmounted {
		logging.Log(logging.DEBUG, "editor", "mount ignored in state "+c.state.String())
		return
	}
	if c.engine == nil {
		logging.Log(logging.ERROR, "editor", "mount failed: no editing engine")
		return
	}

	c.state = Initializing
	c.container = container

	if c.registry != nil {
		c.registry.Ensure()
	}
	if c.provisioner != nil {
		c.provisioner.Provision(c.service)
	}

	uri := c.newURI()
	doc, err := c.engine.NewDocument(c.initialCode, langenv.LanguageID, uri)
	if err != nil {
		c.abort(fmt.Errorf("editor: create document: %w", err))
		return
	}
	c.doc = doc

	opts := DefaultViewOptions()
	opts.Height = c.height
	view, err := c.engine.NewView(container, doc, opts)
	if err != nil {
		c.abort(fmt.Errorf("editor: create view: %w", err))
		return
	}
	c.view = view

	c.ready()
	logging.L().Debug("editor mounted",
		zap.String("uri", uri),
		zap.Int("bytes", len(c.initialCode)),
		zap.Duration("revalidate", c.revalidateDelay))
}

// abort releases a half-built session and returns to Unmounted.
func (c *Controller) abort(err error) {
	logging.Log(logging.ERROR, "editor", err.Error())
	if c.view != nil {
		c.view.Dispose()
	}
	if c.doc != nil {
		c.doc.Dispose()
	}
	c.view, c.doc, c.container = nil, nil, nil
	c.state = Unmounted
}

func (c *Controller) ready() {
	c.removeSave = c.view.AddCommand(SaveChord, c.Save)
	c.removeCapture = c.container.AddCaptureKeyListener(c.captureKey)
	c.removeChange = c.doc.OnDidChange(c.changed)
	c.onCodeChange, c.onSave = c.hostChange, c.hostSave
	c.state = Ready

	if c.scheduler != nil && c.revalidateDelay > 0 {
		c.cancelNudge = c.scheduler.After(c.revalidateDelay, c.nudge)
	}
}

// captureKey keeps the window from handling the save chord while focus is
// inside the container. Saving itself is left to the view command.
func (c *Controller) captureKey(ev *KeyEvent) {
	if c.state != Ready || ev.Chord != SaveChord {
		return
	}
	if c.container != nil && c.container.HasFocusWithin() {
		ev.PreventDefault()
	}
}

func (c *Controller) changed() {
	if c.state != Ready || c.nudging || c.onCodeChange == nil {
		return
	}
	c.onCodeChange(c.doc.Text())
}

// nudge makes a throwaway edit so the language service validates the
// freshly created document.
func (c *Controller) nudge() {
	c.cancelNudge = nil
	if c.state != Ready || c.doc == nil {
		return
	}
	before := c.doc.Text()
	c.nudging = true
	defer func() { c.nudging = false }()
	c.doc.Append(" ")
	c.doc.Undo()
	if c.doc.Text() != before {
		logging.Log(logging.WARN, "editor", "revalidation undo did not restore the text; resetting")
		c.doc.SetText(before)
	}
}

// SetInitialCode supplies new code from the host. While Ready a differing
// value replaces the document text wholesale; otherwise it seeds the next
// mount.
func (c *Controller) SetInitialCode(code string) {
	c.initialCode = code
	if c.state != Ready || c.doc == nil {
		return
	}
	if c.doc.Text() == code {
		return
	}
	c.doc.SetText(code)
}

// Save hands the live text to the host. It never changes the document.
func (c *Controller) Save() {
	if c.state != Ready || c.doc == nil || c.onSave == nil {
		return
	}
	c.onSave(c.doc.Text())
}

// Unmount tears the session down. It is safe in any state and idempotent.
func (c *Controller) Unmount() {
	if c.state == Unmounted || c.state == Disposing {
		return
	}
	c.state = Disposing
	c.onCodeChange = nil
	c.onSave = nil

	for _, release := range []*func(){&c.removeCapture, &c.removeSave, &c.removeChange, &c.cancelNudge} {
		if *release != nil {
			(*release)()
			*release = nil
		}
	}

	if c.view != nil {
		c.view.Dispose()
	}
	if c.doc != nil {
		c.doc.Dispose()
	}
	c.view, c.doc, c.container = nil, nil, nil
	c.state = Unmounted
	logging.Log(logging.DEBUG, "editor", "editor unmounted")
}
