package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

func TestLogBeforeInitIsDropped(t *testing.T) {
	// Must not panic or create files.
	Log(INFO, "test", "nobody is listening")
}

func TestInitLoggerWritesUnderStateHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	xdg.Reload()

	p, err := InitLogger("mvsedit-test")
	if err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	if want := filepath.Join(dir, "mvsedit-test", "mvsedit-test.log"); p != want {
		t.Fatalf("path = %q; want %q", p, want)
	}
	if Path() != p {
		t.Errorf("Path() = %q; want %q", Path(), p)
	}

	Log(WARN, "langenv", "grammar registration skipped")
	Log(DEBUG, "editor", "deferred mount")
	if err := Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"WARN", "grammar registration skipped", `"component": "langenv"`, "DEBUG"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelString(t *testing.T) {
	cases := map[LogLevel]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR", LogLevel(9): "UNKNOWN"}
	for lvl, want := range cases {
		if got := lvl.String(); got != want {
			t.Errorf("LogLevel(%d).String() = %q; want %q", int(lvl), got, want)
		}
	}
}
