package langenv

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

type fakeBackend struct {
	mu        sync.Mutex
	langs     []string
	installed []Language
	resolver  func(string) string
	failNext  int
	panicNext bool
}

func (b *fakeBackend) LanguageIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.langs)
}

func (b *fakeBackend) InstallLanguage(lang Language) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.panicNext {
		b.panicNext = false
		panic("out of memory")
	}
	if b.failNext > 0 {
		b.failNext--
		return errors.New("resource exhausted")
	}
	b.installed = append(b.installed, lang)
	b.langs = append(b.langs, lang.ID)
	return nil
}

func (b *fakeBackend) SetWorkerResolver(fn func(string) string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolver = fn
}

var mvs = Language{ID: LanguageID, Name: "MVS", Grammar: []byte("<language/>")}

func TestEnsureRegistersOnce(t *testing.T) {
	b := &fakeBackend{}
	r := NewRegistry(b, mvs)

	for range 5 {
		r.Ensure()
	}

	if got := r.Installs(); got != 1 {
		t.Fatalf("Installs() = %d; want 1", got)
	}
	if len(b.installed) != 1 {
		t.Fatalf("backend saw %d installs; want 1", len(b.installed))
	}
	if !r.Registered() {
		t.Error("Registered() = false after Ensure")
	}
	if b.resolver == nil {
		t.Fatal("worker resolver not installed")
	}
}

func TestEnsureConcurrent(t *testing.T) {
	b := &fakeBackend{}
	r := NewRegistry(b, mvs)

	var wg sync.WaitGroup
	for range 32 {
		wg.Go(r.Ensure)
	}
	wg.Wait()

	if got := len(b.installed); got != 1 {
		t.Fatalf("concurrent Ensure installed %d times; want 1", got)
	}
}

func TestEnsureSkipsAlreadyKnownLanguage(t *testing.T) {
	b := &fakeBackend{langs: []string{"js", LanguageID}}
	r := NewRegistry(b, mvs)
	r.Ensure()

	if len(b.installed) != 0 {
		t.Fatalf("language reinstalled over existing entry")
	}
	if !r.Registered() {
		t.Error("Registered() = false; existing entry should count as registered")
	}
	if r.Installs() != 0 {
		t.Errorf("Installs() = %d; want 0", r.Installs())
	}
}

func TestEnsureFailureDegradesAndRetries(t *testing.T) {
	b := &fakeBackend{failNext: 1}
	r := NewRegistry(b, mvs)

	r.Ensure()
	if r.Registered() {
		t.Fatal("Registered() = true after failed install")
	}
	if b.resolver == nil {
		t.Error("worker resolver should be installed even when the grammar fails")
	}

	r.Ensure()
	if !r.Registered() || r.Installs() != 1 {
		t.Fatalf("retry: Registered=%v Installs=%d; want true, 1", r.Registered(), r.Installs())
	}
}

func TestEnsureRecoversBackendPanic(t *testing.T) {
	b := &fakeBackend{panicNext: true}
	r := NewRegistry(b, mvs)
	r.Ensure()
	if r.Registered() {
		t.Fatal("Registered() = true after panicking install")
	}
}

func TestEnsureNilBackend(t *testing.T) {
	var r *Registry
	r.Ensure()
	NewRegistry(nil, mvs).Ensure()
}

func TestSharedReturnsSingleInstance(t *testing.T) {
	a := Shared(&fakeBackend{}, mvs)
	b := Shared(&fakeBackend{}, Language{ID: "other"})
	if a != b {
		t.Fatal("Shared returned distinct registries")
	}
	if a.Language().ID != LanguageID {
		t.Errorf("first caller's language should win, got %q", a.Language().ID)
	}
}

func TestResolveWorker(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{LanguageID, AnalysisWorkerURL},
		{"typescript", AnalysisWorkerURL},
		{"javascript", AnalysisWorkerURL},
		{"json", EditorWorkerURL},
		{"", EditorWorkerURL},
		{"editorWorkerService", EditorWorkerURL},
	}
	for _, tc := range cases {
		if got := ResolveWorker(tc.label); got != tc.want {
			t.Errorf("ResolveWorker(%q) = %q; want %q", tc.label, got, tc.want)
		}
	}
}
