// Package analysis is the language service behind the editing engine. It
// holds per-language compiler and diagnostics defaults plus the always-loaded
// declaration libraries, and dispatches diagnostics and completion requests to
// workers addressed by resource URL.
package analysis

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"codeberg.org/sigterm-de/mvsedit/internal/logging"
)

const defaultTimeout = 2 * time.Second

type languageDefaults struct {
	compiler    CompilerOptions
	diagnostics DiagnosticsOptions
	libs        []ExtraLib
}

// Service is safe for concurrent use.
type Service struct {
	mu       sync.RWMutex
	resolve  func(label string) string
	workers  map[string]Worker
	defaults map[string]*languageDefaults
	timeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds how long a single Validate call may run.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService returns a Service serving the given workers, keyed by resource
// URL. No worker is reachable until a resolver is installed.
func NewService(workers map[string]Worker, opts ...Option) *Service {
	s := &Service{
		workers:  make(map[string]Worker, len(workers)),
		defaults: make(map[string]*languageDefaults),
		timeout:  defaultTimeout,
	}
	for url, w := range workers {
		s.workers[url] = w
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetWorkerResolver installs the label → resource URL policy.
func (s *Service) SetWorkerResolver(resolve func(label string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolve = resolve
}

func (s *Service) lang(id string) *languageDefaults {
	d := s.defaults[id]
	if d == nil {
		d = &languageDefaults{}
		s.defaults[id] = d
	}
	return d
}

// SetCompilerOptions replaces the compiler options for language id.
func (s *Service) SetCompilerOptions(id string, o CompilerOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang(id).compiler = o
}

// SetDiagnosticsOptions replaces the diagnostics options for language id.
func (s *Service) SetDiagnosticsOptions(id string, o DiagnosticsOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.DiagnosticCodesToIgnore = slices.Clone(o.DiagnosticCodesToIgnore)
	s.lang(id).diagnostics = o
}

// AddExtraLib adds lib to language id, replacing any library with the same path.
func (s *Service) AddExtraLib(id string, lib ExtraLib) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.lang(id)
	lib.Symbols = slices.Clone(lib.Symbols)
	for i, existing := range d.libs {
		if existing.Path == lib.Path {
			d.libs[i] = lib
			return
		}
	}
	d.libs = append(d.libs, lib)
}

// ExtraLibs returns the libraries installed for language id.
func (s *Service) ExtraLibs(id string) []ExtraLib {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d := s.defaults[id]; d != nil {
		return slices.Clone(d.libs)
	}
	return nil
}

// CompilerOptions returns the compiler options for language id.
func (s *Service) CompilerOptions(id string) CompilerOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d := s.defaults[id]; d != nil {
		return d.compiler
	}
	return CompilerOptions{}
}

// DiagnosticsOptions returns the diagnostics options for language id.
func (s *Service) DiagnosticsOptions(id string) DiagnosticsOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d := s.defaults[id]; d != nil {
		return d.diagnostics
	}
	return DiagnosticsOptions{}
}

// request resolves the worker for language id and snapshots its defaults.
func (s *Service) request(id, uri, text string) (Worker, Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.resolve == nil {
		return nil, Request{}, false
	}
	w := s.workers[s.resolve(id)]
	if w == nil {
		return nil, Request{}, false
	}
	req := Request{URI: uri, LanguageID: id, Text: text}
	if d := s.defaults[id]; d != nil {
		req.Compiler = d.compiler
		req.Diagnostics = d.diagnostics
		req.Libs = slices.Clone(d.libs)
	}
	return w, req, true
}

// Validate runs the worker for language id over text. It returns nil when no
// worker is reachable, on timeout or cancellation, and if the worker panics.
func (s *Service) Validate(ctx context.Context, id, uri, text string) []Diagnostic {
	w, req, ok := s.request(id, uri, text)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan []Diagnostic, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Log(logging.ERROR, "analysis", fmt.Sprintf("worker panic on %s: %v", uri, r))
				done <- nil
			}
		}()
		done <- w.Diagnose(ctx, req)
	}()

	select {
	case diags := <-done:
		return diags
	case <-ctx.Done():
		logging.Log(logging.WARN, "analysis", fmt.Sprintf("validation of %s abandoned: %v", uri, ctx.Err()))
		return nil
	}
}

// Complete returns completion candidates at the character offset.
func (s *Service) Complete(id, uri, text string, offset int) (out []Completion) {
	w, req, ok := s.request(id, uri, text)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Log(logging.ERROR, "analysis", fmt.Sprintf("completion panic on %s: %v", uri, r))
			out = nil
		}
	}()
	return w.Complete(req, offset)
}
