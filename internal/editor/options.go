package editor

import (
	"time"

	"codeberg.org/sigterm-de/mvsedit/internal/completion"
	"codeberg.org/sigterm-de/mvsedit/internal/langenv"
)

// DefaultRevalidateDelay is how long after mounting the controller nudges
// the language service to validate the new document.
const DefaultRevalidateDelay = 100 * time.Millisecond

// Config is what the host supplies per mount.
type Config struct {
	InitialCode  string
	Height       int
	OnCodeChange func(text string)
	OnSave       func(text string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithEnvironment makes every mount ensure the language environment in reg
// and provision svc with prov.
func WithEnvironment(reg *langenv.Registry, prov *completion.Provisioner, svc completion.LanguageService) Option {
	return func(c *Controller) {
		c.registry = reg
		c.provisioner = prov
		c.service = svc
	}
}

// WithScheduler sets the scheduler used for the revalidation nudge. Without
// one the nudge is skipped.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithRevalidateDelay overrides DefaultRevalidateDelay. Zero disables the
// nudge.
func WithRevalidateDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.revalidateDelay = d
		}
	}
}

// WithURIFunc overrides how each session's document URI is generated.
func WithURIFunc(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newURI = fn
		}
	}
}
