package editor

import (
	"slices"
	"strings"
	"testing"
	"time"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"codeberg.org/sigterm-de/mvsedit/internal/completion"
	"codeberg.org/sigterm-de/mvsedit/internal/langenv"
)

type harness struct {
	t         *testing.T
	log       *journal
	engine    *fakeEngine
	container *fakeContainer
	clock     *fakeClock
	ctrl      *Controller
	changes   []string
	saves     []string
}

func newHarness(t *testing.T, initial string, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, log: &journal{}}
	h.engine = &fakeEngine{log: h.log}
	h.container = &fakeContainer{log: h.log, focus: true}
	h.clock = &fakeClock{log: h.log}
	cfg := Config{
		InitialCode:  initial,
		Height:       480,
		OnCodeChange: func(s string) { h.changes = append(h.changes, s) },
		OnSave:       func(s string) { h.saves = append(h.saves, s) },
	}
	h.ctrl = New(h.engine, cfg, append([]Option{WithScheduler(h.clock)}, opts...)...)
	return h
}

func (h *harness) mount() *fakeDocument {
	h.t.Helper()
	h.ctrl.Mount(h.container)
	if got := h.ctrl.State(); got != Ready {
		h.t.Fatalf("state after Mount = %v; want ready", got)
	}
	return h.engine.lastDoc()
}

func TestMountReady(t *testing.T) {
	const code = "const b = createMVSBuilder();\n"
	h := newHarness(t, code)
	doc := h.mount()

	if got := h.ctrl.Text(); got != code {
		t.Errorf("Text() = %q; want %q", got, code)
	}
	if doc.languageID != langenv.LanguageID {
		t.Errorf("language = %q; want %q", doc.languageID, langenv.LanguageID)
	}
	if !strings.HasPrefix(doc.uri, "file:///mvs/") || !strings.HasSuffix(doc.uri, "/main.mvs.ts") {
		t.Errorf("uri = %q", doc.uri)
	}
	if h.ctrl.URI() != doc.uri || h.ctrl.Document() != Document(doc) {
		t.Errorf("controller does not expose the live document")
	}

	want := DefaultViewOptions()
	want.Height = 480
	if got := h.engine.views[0].opts; got != want {
		t.Errorf("view options = %+v; want %+v", got, want)
	}
	if !want.LineNumbers || !want.Folding || !want.WordWrap || want.Minimap || !want.ShowDiagnostics || want.Theme != ThemeDark {
		t.Errorf("default view options = %+v", want)
	}
	if len(h.changes) != 0 {
		t.Errorf("mount fired change notifications: %q", h.changes)
	}
}

func TestSessionURIsAreDistinct(t *testing.T) {
	a := newHarness(t, "")
	b := newHarness(t, "")
	a.mount()
	b.mount()
	if a.ctrl.URI() == b.ctrl.URI() {
		t.Fatalf("two sessions share %q", a.ctrl.URI())
	}

	c := newHarness(t, "", WithURIFunc(func() string { return SessionURI("fixed") }))
	c.mount()
	if got := c.ctrl.URI(); got != "file:///mvs/fixed/main.mvs.ts" {
		t.Errorf("URI = %q", got)
	}
}

func TestMountWithoutContainer(t *testing.T) {
	h := newHarness(t, "x")
	h.ctrl.Mount(nil)
	if h.ctrl.State() != Unmounted || len(h.engine.docs) != 0 {
		t.Fatalf("Mount(nil) created a session")
	}
	h.mount()
}

func TestMountTwice(t *testing.T) {
	h := newHarness(t, "x")
	h.mount()
	h.ctrl.Mount(h.container)
	if len(h.engine.docs) != 1 || len(h.engine.views) != 1 {
		t.Fatalf("second Mount created %d documents and %d views", len(h.engine.docs), len(h.engine.views))
	}
	if h.container.listeners.Len() != 1 {
		t.Errorf("capture listeners = %d; want 1", h.container.listeners.Len())
	}
}

func TestMountFailures(t *testing.T) {
	t.Run("document", func(t *testing.T) {
		h := newHarness(t, "x")
		h.engine.failDoc = true
		h.ctrl.Mount(h.container)
		if h.ctrl.State() != Unmounted {
			t.Fatalf("state = %v; want unmounted", h.ctrl.State())
		}
		h.engine.failDoc = false
		h.mount()
	})

	t.Run("view", func(t *testing.T) {
		h := newHarness(t, "x")
		h.engine.failView = true
		h.ctrl.Mount(h.container)
		if h.ctrl.State() != Unmounted {
			t.Fatalf("state = %v; want unmounted", h.ctrl.State())
		}
		if !h.engine.docs[0].disposed {
			t.Errorf("document leaked after view failure")
		}
		if h.container.listeners.Len() != 0 || h.clock.pending() != 0 {
			t.Errorf("handlers installed after failed mount")
		}
		h.ctrl.Unmount()
	})
}

func TestSetInitialCodeSameValue(t *testing.T) {
	h := newHarness(t, "abc")
	doc := h.mount()
	h.ctrl.SetInitialCode("abc")
	if doc.setTexts != 0 || len(h.changes) != 0 {
		t.Fatalf("same value caused %d replaces and %d notifications", doc.setTexts, len(h.changes))
	}
}

func TestSetInitialCodeReplaces(t *testing.T) {
	h := newHarness(t, "abc")
	doc := h.mount()
	doc.typeText("de")
	h.changes = nil

	h.ctrl.SetInitialCode("xyz")
	if got := h.ctrl.Text(); got != "xyz" {
		t.Fatalf("Text() = %q; want xyz", got)
	}
	if doc.setTexts != 1 {
		t.Errorf("replaces = %d; want 1", doc.setTexts)
	}
	if !slices.Equal(h.changes, []string{"xyz"}) {
		t.Errorf("notifications = %q; want [xyz]", h.changes)
	}
}

func TestChangeFeedbackLoop(t *testing.T) {
	h := newHarness(t, "a")
	var replaces int
	h.ctrl.SetCallbacks(func(s string) {
		replaces++
		h.ctrl.SetInitialCode(s)
	}, nil)
	doc := h.mount()
	doc.typeText("bc")
	if replaces != 2 || doc.setTexts != 0 {
		t.Fatalf("echoing the text back caused %d replaces (%d notifications)", doc.setTexts, replaces)
	}
	if h.ctrl.Text() != "abc" {
		t.Errorf("Text() = %q", h.ctrl.Text())
	}
}

func TestSetInitialCodeOutsideReady(t *testing.T) {
	h := newHarness(t, "first")
	h.ctrl.SetInitialCode("second")
	if h.ctrl.Text() != "second" {
		t.Errorf("Text() while unmounted = %q", h.ctrl.Text())
	}
	doc := h.mount()
	if doc.text != "second" {
		t.Errorf("mounted with %q; want the latest initial code", doc.text)
	}
	h.ctrl.Unmount()
	h.ctrl.SetInitialCode("third")
	if doc.setTexts != 0 {
		t.Errorf("disposed document was written")
	}
	if h.mount().text != "third" {
		t.Errorf("remount did not use the stored code")
	}
}

func TestSaveWithFocus(t *testing.T) {
	h := newHarness(t, "let x = 1;")
	doc := h.mount()
	doc.typeText("\n")

	consumed := h.container.press(SaveChord)
	if !consumed {
		t.Errorf("save chord reached the window default")
	}
	if !slices.Equal(h.saves, []string{"let x = 1;\n"}) {
		t.Fatalf("saves = %q", h.saves)
	}
	if doc.text != "let x = 1;\n" || doc.setTexts != 0 {
		t.Errorf("save mutated the document")
	}

	h.ctrl.Save()
	if len(h.saves) != 2 {
		t.Errorf("direct Save: saves = %d; want 2", len(h.saves))
	}
}

func TestSaveChordWithoutFocus(t *testing.T) {
	h := newHarness(t, "x")
	h.mount()
	h.container.focus = false
	if h.container.press(SaveChord) {
		t.Errorf("save chord outside the container was consumed")
	}
	if len(h.saves) != 0 {
		t.Fatalf("saves = %q; want none", h.saves)
	}
}

func TestCaptureListenerIgnoresOtherKeys(t *testing.T) {
	h := newHarness(t, "x")
	h.mount()
	if h.container.press(NewChord('o', ModPrimary)) {
		t.Errorf("unrelated chord was consumed")
	}
	if h.container.press(NewChord('s', ModPrimary|ModShift)) {
		t.Errorf("save-as chord was consumed")
	}
}

func TestTypingDeliversFullText(t *testing.T) {
	h := newHarness(t, "// mvs\n")
	doc := h.mount()
	const typed = "createMVSBuilder()"
	doc.typeText(typed)

	if len(h.changes) != len([]rune(typed)) {
		t.Fatalf("notifications = %d; want one per character", len(h.changes))
	}
	last := h.changes[len(h.changes)-1]
	if last != doc.text || last != "// mvs\n"+typed {
		t.Errorf("final payload = %q; want full text", last)
	}
}

func TestRevalidationNudge(t *testing.T) {
	h := newHarness(t, "abc")
	doc := h.mount()

	h.clock.advance(DefaultRevalidateDelay - time.Millisecond)
	if doc.appends != 0 {
		t.Fatalf("nudge ran early")
	}
	h.clock.advance(time.Millisecond)
	if doc.appends != 1 || doc.undos != 1 {
		t.Fatalf("nudge: appends %d, undos %d", doc.appends, doc.undos)
	}
	if doc.text != "abc" {
		t.Errorf("text after nudge = %q", doc.text)
	}
	if len(h.changes) != 0 {
		t.Errorf("nudge leaked notifications: %q", h.changes)
	}

	doc.typeText("d")
	if !slices.Equal(h.changes, []string{"abcd"}) {
		t.Errorf("notifications after nudge = %q", h.changes)
	}
}

func TestRevalidationNudgeBrokenUndo(t *testing.T) {
	h := newHarness(t, "abc")
	h.engine.brokenUndo = true
	doc := h.mount()
	h.clock.advance(DefaultRevalidateDelay)
	if doc.text != "abc" {
		t.Fatalf("text = %q; want it restored", doc.text)
	}
	if len(h.changes) != 0 {
		t.Errorf("restoring leaked notifications: %q", h.changes)
	}
}

func TestRevalidationDisabled(t *testing.T) {
	h := newHarness(t, "abc", WithRevalidateDelay(0))
	h.mount()
	if len(h.clock.tasks) != 0 {
		t.Fatalf("nudge scheduled with zero delay")
	}

	custom := newHarness(t, "abc", WithRevalidateDelay(time.Second))
	custom.mount()
	if custom.clock.tasks[0].due != time.Second {
		t.Errorf("nudge due at %v; want 1s", custom.clock.tasks[0].due)
	}

	noClock := New(&fakeEngine{}, Config{InitialCode: "x"})
	noClock.Mount(&fakeContainer{})
	if noClock.State() != Ready {
		t.Errorf("mount without scheduler: state %v", noClock.State())
	}
}

func TestUnmountTeardownOrder(t *testing.T) {
	h := newHarness(t, "x")
	doc := h.mount()
	view := h.engine.views[0]

	h.ctrl.Unmount()
	want := []string{
		"capture listener removed",
		"command removed",
		"change subscription removed",
		"nudge cancelled",
		"view disposed",
		"document disposed",
	}
	if !slices.Equal(h.log.entries, want) {
		t.Fatalf("teardown = %q\nwant %q", h.log.entries, want)
	}
	if h.ctrl.State() != Unmounted || h.ctrl.Document() != nil || h.ctrl.URI() != "" {
		t.Errorf("references survive unmount")
	}
	if len(doc.observers) != 0 || view.keymap.Len() != 0 || h.container.listeners.Len() != 0 {
		t.Errorf("handlers survive unmount")
	}
}

func TestNoCallbacksAfterUnmount(t *testing.T) {
	h := newHarness(t, "x")
	doc := h.mount()
	h.ctrl.Unmount()

	h.clock.runCancelled()
	doc.typeText("late")
	doc.notify()
	h.ctrl.Save()
	h.ctrl.SetInitialCode("other")
	h.container.focus = true
	h.container.press(SaveChord)

	if len(h.changes) != 0 || len(h.saves) != 0 {
		t.Fatalf("callbacks after unmount: changes %q, saves %q", h.changes, h.saves)
	}
	if doc.appends != 0 {
		t.Errorf("late nudge edited a disposed document")
	}
}

func TestCallbacksRestoredOnRemount(t *testing.T) {
	h := newHarness(t, "x")
	h.mount()
	h.ctrl.Unmount()
	doc := h.mount()
	doc.typeText("y")
	h.container.press(SaveChord)
	if !slices.Equal(h.changes, []string{"xy"}) || !slices.Equal(h.saves, []string{"xy"}) {
		t.Fatalf("after remount: changes %q, saves %q", h.changes, h.saves)
	}
}

func TestUnmountIsSafe(t *testing.T) {
	h := newHarness(t, "x")
	h.ctrl.Unmount()
	if h.ctrl.State() != Unmounted || len(h.log.entries) != 0 {
		t.Fatalf("unmount of a never-mounted controller did something: %q", h.log.entries)
	}
	h.mount()
	h.ctrl.Unmount()
	n := len(h.log.entries)
	h.ctrl.Unmount()
	if len(h.log.entries) != n {
		t.Errorf("second Unmount repeated teardown")
	}
}

func TestUnmountFromSaveCallback(t *testing.T) {
	h := newHarness(t, "x")
	h.ctrl.SetCallbacks(nil, func(string) { h.ctrl.Unmount() })
	h.mount()
	h.container.press(SaveChord)
	if h.ctrl.State() != Unmounted {
		t.Fatalf("state = %v", h.ctrl.State())
	}
}

// memBackend is an in-memory langenv.Backend.
type memBackend struct {
	languages []string
	installs  int
	resolver  func(string) string
}

func (b *memBackend) LanguageIDs() []string { return b.languages }

func (b *memBackend) InstallLanguage(l langenv.Language) error {
	b.installs++
	b.languages = append(b.languages, l.ID)
	return nil
}

func (b *memBackend) SetWorkerResolver(fn func(string) string) { b.resolver = fn }

func TestEnvironmentOncePerProcess(t *testing.T) {
	backend := &memBackend{}
	reg := langenv.NewRegistry(backend, langenv.Language{ID: langenv.LanguageID})
	svc := analysis.NewService(nil)
	prov := completion.NewProvisioner(langenv.LanguageID, completion.Catalog{
		Globals: []completion.Member{{Name: "createMVSBuilder", Kind: "function"}},
	})

	var ctrls []*Controller
	for range 3 {
		ctrls = append(ctrls, New(&fakeEngine{}, Config{}, WithEnvironment(reg, prov, svc)))
	}
	for range 4 {
		for _, c := range ctrls {
			c.Mount(&fakeContainer{})
			if c.State() != Ready {
				t.Fatalf("mount failed: %v", c.State())
			}
		}
		for _, c := range ctrls {
			c.Unmount()
		}
	}

	if backend.installs != 1 || reg.Installs() != 1 {
		t.Fatalf("installs = %d (registry %d); want 1", backend.installs, reg.Installs())
	}
	if backend.resolver == nil || backend.resolver("mvs") != langenv.AnalysisWorkerURL {
		t.Errorf("worker resolver not installed")
	}
	if libs := svc.ExtraLibs(langenv.LanguageID); len(libs) != 1 {
		t.Errorf("extra libs = %d; want 1", len(libs))
	}
	if got := svc.CompilerOptions(langenv.LanguageID).Target; got != analysis.TargetES2020 {
		t.Errorf("target = %v", got)
	}
}
