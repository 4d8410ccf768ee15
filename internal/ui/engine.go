// Package ui is the GTK implementation of the editing engine: GtkSourceView
// documents and views, the key surface they are mounted in, and the widgets
// around them.
package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/editor"
	"codeberg.org/sigterm-de/mvsedit/internal/langenv"
	"codeberg.org/sigterm-de/mvsedit/internal/logging"
	"github.com/adrg/xdg"
	gtksource "libdb.so/gotk4-sourceview/pkg/gtksource/v5"
)

// DefaultDarkScheme is the style scheme used for editor.ThemeDark.
const DefaultDarkScheme = "oblivion"

// Engine implements editor.Engine and langenv.Backend on top of
// GtkSourceView. It must be used from the GTK main thread.
type Engine struct {
	appName       string
	languages     *gtksource.LanguageManager
	service       *analysis.Service
	scheme        string
	docs          map[*Document]struct{}
	onDiagnostics func(uri string, diags []analysis.Diagnostic)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDiagnosticsHandler registers fn to receive each validation result.
func WithDiagnosticsHandler(fn func(uri string, diags []analysis.Diagnostic)) EngineOption {
	return func(e *Engine) { e.onDiagnostics = fn }
}

// WithScheme sets the style scheme for editor.ThemeDark.
func WithScheme(id string) EngineOption {
	return func(e *Engine) {
		if id != "" {
			e.scheme = id
		}
	}
}

// NewEngine returns an Engine whose language service runs the script worker
// for MVS and the word worker for everything else.
func NewEngine(appName string, opts ...EngineOption) *Engine {
	e := &Engine{
		appName:    appName,
		languages:  gtksource.LanguageManagerGetDefault(),
		scheme:     DefaultDarkScheme,
		docs:       make(map[*Document]struct{}),
		service: analysis.NewService(map[string]analysis.Worker{
			langenv.AnalysisWorkerURL: analysis.NewScriptWorker(),
			langenv.EditorWorkerURL:   analysis.NewWordWorker(),
		}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Service returns the language service behind the engine.
func (e *Engine) Service() *analysis.Service { return e.service }

// LanguageIDs implements langenv.Backend.
func (e *Engine) LanguageIDs() []string { return e.languages.LanguageIDs() }

// SetWorkerResolver implements langenv.Backend.
func (e *Engine) SetWorkerResolver(resolve func(label string) string) {
	e.service.SetWorkerResolver(resolve)
}

var errNoGrammar = errors.New("language has no grammar")

// InstallLanguage implements langenv.Backend. The grammar is written to the
// user data directory and loaded through a fresh language manager, since a
// manager cannot change its search path once it has loaded languages.
func (e *Engine) InstallLanguage(lang langenv.Language) error {
	if len(lang.Grammar) == 0 {
		return fmt.Errorf("ui: install %s: %w", lang.ID, errNoGrammar)
	}
	path, err := xdg.DataFile(filepath.Join(e.appName, "language-specs", lang.ID+".lang"))
	if err != nil {
		return fmt.Errorf("ui: resolve language-specs dir: %w", err)
	}
	if err := os.WriteFile(path, lang.Grammar, 0o644); err != nil {
		return fmt.Errorf("ui: write %s: %w", path, err)
	}

	mgr := gtksource.NewLanguageManager()
	mgr.SetSearchPath(append([]string{filepath.Dir(path)}, e.languages.SearchPath()...))
	if mgr.Language(lang.ID) == nil {
		return fmt.Errorf("ui: install %s: grammar at %s did not load", lang.ID, path)
	}
	e.languages = mgr

	for doc := range e.docs {
		if doc.languageID == lang.ID {
			doc.buffer.SetLanguage(mgr.Language(lang.ID))
		}
	}
	return nil
}

// NewDocument implements editor.Engine.
func (e *Engine) NewDocument(text, languageID, uri string) (editor.Document, error) {
	doc := newDocument(e, text, languageID, uri)
	if lang := e.languages.Language(languageID); lang != nil {
		doc.buffer.SetLanguage(lang)
	} else {
		logging.Log(logging.WARN, "ui", "no grammar for "+languageID+"; highlighting disabled")
	}
	e.applyScheme(doc, editor.ThemeDark)
	e.docs[doc] = struct{}{}
	return doc, nil
}

// NewView implements editor.Engine. The container must be a *Surface.
func (e *Engine) NewView(c editor.Container, doc editor.Document, opts editor.ViewOptions) (editor.View, error) {
	surface, ok := c.(*Surface)
	if !ok {
		return nil, fmt.Errorf("ui: unsupported container %T", c)
	}
	d, ok := doc.(*Document)
	if !ok {
		return nil, fmt.Errorf("ui: unsupported document %T", doc)
	}
	e.applyScheme(d, opts.Theme)
	v := newView(surface, d, opts)
	surface.attach(v)
	return v, nil
}

// SetScheme changes the scheme used for editor.ThemeDark and applies it
// to every live document.
func (e *Engine) SetScheme(id string) {
	if id == "" || id == e.scheme {
		return
	}
	e.scheme = id
	for doc := range e.docs {
		e.applyScheme(doc, editor.ThemeDark)
	}
}

func (e *Engine) applyScheme(doc *Document, theme string) {
	id := theme
	if theme == editor.ThemeDark || theme == "" {
		id = e.scheme
	}
	mgr := gtksource.StyleSchemeManagerGetDefault()
	if scheme := mgr.Scheme(id); scheme != nil {
		doc.buffer.SetStyleScheme(scheme)
	}
}

func (e *Engine) forget(doc *Document) { delete(e.docs, doc) }

func (e *Engine) diagnosed(uri string, diags []analysis.Diagnostic) {
	if e.onDiagnostics != nil {
		e.onDiagnostics(uri, diags)
	}
}
