// Package langenv installs the MVS language environment into the editing
// engine: the highlighting grammar and the worker resolution policy.
//
// Installation happens at most once per process. Every editor mount calls
// Ensure; all calls after the first successful one are no-ops.
package langenv

import (
	"fmt"
	"slices"
	"sync"

	"codeberg.org/sigterm-de/mvsedit/internal/logging"
)

// LanguageID is the language tag attached to MVS documents.
const LanguageID = "mvs"

// Language describes a grammar to install into the editing engine.
type Language struct {
	ID         string
	Name       string
	Extensions []string
	MimeTypes  []string
	Grammar    []byte // engine-specific grammar definition (GtkSourceView .lang XML)
}

// Backend is the slice of the editing engine the registrar mutates.
type Backend interface {
	// LanguageIDs lists the languages the engine currently knows.
	LanguageIDs() []string
	// InstallLanguage makes lang available for highlighting.
	InstallLanguage(lang Language) error
	// SetWorkerResolver installs the label → resource URL policy.
	SetWorkerResolver(resolve func(label string) string)
}

// Registry is a one-time initialisation guard around a Backend.
// All methods are safe for concurrent use.
type Registry struct {
	backend Backend
	lang    Language

	mu       sync.Mutex
	done     bool
	installs int
}

// NewRegistry returns a Registry that installs lang into backend on the first
// successful Ensure.
func NewRegistry(backend Backend, lang Language) *Registry {
	return &Registry{backend: backend, lang: lang}
}

var (
	sharedOnce sync.Once
	shared     *Registry
)

// Shared returns the process-wide Registry. The backend and language passed by
// the first caller win; later arguments are ignored.
func Shared(backend Backend, lang Language) *Registry {
	sharedOnce.Do(func() {
		shared = NewRegistry(backend, lang)
	})
	return shared
}

// Ensure performs the registration if it has not happened yet. It never
// fails: errors are logged and leave the registry unregistered so that a later
// call may retry, while the caller proceeds without highlighting.
func (r *Registry) Ensure() {
	if r == nil || r.backend == nil {
		logging.Log(logging.WARN, "langenv", "no editing backend; language environment not installed")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		logging.Log(logging.DEBUG, "langenv", "language environment already installed, skipping")
		return
	}

	// Worker resolution is process-wide and has no failure path; install it
	// before the grammar so analysis works even if highlighting does not.
	r.backend.SetWorkerResolver(ResolveWorker)

	if slices.Contains(r.backend.LanguageIDs(), r.lang.ID) {
		logging.Log(logging.INFO, "langenv", fmt.Sprintf("language %q already registered, skipping", r.lang.ID))
		r.done = true
		return
	}

	if err := r.install(); err != nil {
		logging.Log(logging.ERROR, "langenv", err.Error())
		return
	}
	r.installs++
	r.done = true
	logging.Log(logging.INFO, "langenv", fmt.Sprintf("registered language %q", r.lang.ID))
}

func (r *Registry) install() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("langenv: install %s: panic: %v", r.lang.ID, p)
		}
	}()
	if err := r.backend.InstallLanguage(r.lang); err != nil {
		return fmt.Errorf("langenv: install %s: %w", r.lang.ID, err)
	}
	return nil
}

// Registered reports whether the language environment is in place.
func (r *Registry) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Installs returns how many times the grammar was actually installed. It is
// never more than one.
func (r *Registry) Installs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installs
}

// Language returns the language this registry installs.
func (r *Registry) Language() Language { return r.lang }
