// Package completion configures the language service for MVS scripts: the
// compiler and diagnostics profile, and the domain declaration catalog that
// powers autocompletion.
package completion

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/logging"
)

// ExtraLibPath is the virtual path the catalog is installed under.
const ExtraLibPath = "file:///node_modules/@types/molstar-mvs/index.d.ts"

// LanguageService is the part of the analysis service the provisioner writes.
type LanguageService interface {
	SetCompilerOptions(languageID string, o analysis.CompilerOptions)
	SetDiagnosticsOptions(languageID string, o analysis.DiagnosticsOptions)
	AddExtraLib(languageID string, lib analysis.ExtraLib)
}

// Profile is the compiler and diagnostics configuration for MVS scripts.
type Profile struct {
	Compiler    analysis.CompilerOptions
	Diagnostics analysis.DiagnosticsOptions
}

// DefaultProfile targets ES2020, accepts untyped scripts and enables every
// diagnostic category.
func DefaultProfile() Profile {
	return Profile{
		Compiler: analysis.CompilerOptions{
			Target:               analysis.TargetES2020,
			AllowNonTSExtensions: true,
			AllowJS:              true,
			Strict:               false,
			NoImplicitAny:        false,
		},
		Diagnostics: analysis.DiagnosticsOptions{},
	}
}

var (
	errTargetTooOld = errors.New("target below ES2020")
	errStrict       = errors.New("strict checking rejects untyped scripts")
	errSuppressed   = errors.New("diagnostics suppressed")
)

// Validate checks that the profile accepts modern syntax and loose typing and
// that no diagnostic category is switched off.
func (p Profile) Validate() error {
	var errs []error
	if p.Compiler.Target < analysis.TargetES2020 {
		errs = append(errs, fmt.Errorf("%w: %s", errTargetTooOld, p.Compiler.Target))
	}
	if p.Compiler.Strict || p.Compiler.NoImplicitAny {
		errs = append(errs, errStrict)
	}
	d := p.Diagnostics
	if d.NoSemanticValidation || d.NoSyntaxValidation || d.NoSuggestionDiagnostics || len(d.DiagnosticCodesToIgnore) > 0 {
		errs = append(errs, errSuppressed)
	}
	return errors.Join(errs...)
}

// Provisioner installs one profile and catalog into language services.
type Provisioner struct {
	languageID string
	profile    Profile
	catalog    Catalog

	mu   sync.Mutex
	done map[LanguageService]bool
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithProfile overrides the default profile. An invalid profile is logged and
// ignored.
func WithProfile(p Profile) Option {
	return func(pr *Provisioner) {
		if err := p.Validate(); err != nil {
			logging.Log(logging.WARN, "completion", "ignoring profile: "+err.Error())
			return
		}
		pr.profile = p
	}
}

// NewProvisioner returns a Provisioner for languageID backed by catalog.
func NewProvisioner(languageID string, catalog Catalog, opts ...Option) *Provisioner {
	p := &Provisioner{
		languageID: languageID,
		profile:    DefaultProfile(),
		catalog:    catalog,
		done:       make(map[LanguageService]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile returns the profile this provisioner installs.
func (p *Provisioner) Profile() Profile { return p.profile }

// Provision configures svc. Repeated calls for the same service are no-ops.
// It may run before the language is registered; the service applies the
// configuration once it can reach a worker.
//
// Services are remembered by identity, so svc should be a pointer. A service
// whose dynamic type is not comparable cannot be remembered and is configured
// again on every call.
func (p *Provisioner) Provision(svc LanguageService) {
	if svc == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	keyed := reflect.TypeOf(svc).Comparable()
	if keyed && p.done[svc] {
		return
	}

	svc.SetCompilerOptions(p.languageID, p.profile.Compiler)
	svc.SetDiagnosticsOptions(p.languageID, p.profile.Diagnostics)
	lib := p.catalog.ExtraLib(ExtraLibPath)
	svc.AddExtraLib(p.languageID, lib)

	if keyed {
		p.done[svc] = true
	}
	logging.Log(logging.INFO, "completion",
		fmt.Sprintf("provisioned %s: target %s, %d declarations", p.languageID, p.profile.Compiler.Target, len(lib.Symbols)))
}
