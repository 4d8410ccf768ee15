package app

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.mvs.js")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := writeFileAtomic(path, []byte("new text")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	got, err := readScript(path)
	if err != nil || got != "new text" {
		t.Fatalf("readScript = %q, %v", got, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v; want the original 0600", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "x.js")
	if err := writeFileAtomic(path, []byte("x")); err == nil {
		t.Fatal("writeFileAtomic into a missing directory succeeded")
	}
}

func TestOpenScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.mvs.js")
	if err := os.WriteFile(script, []byte("const b = createMVSBuilder();"), 0o644); err != nil {
		t.Fatal(err)
	}
	big := filepath.Join(dir, "big.mvs.js")
	if err := os.WriteFile(big, make([]byte, maxScriptBytes+1), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		want     string
		wantErr  string
		notExist bool
	}{
		{name: "no path", path: "", want: "starter"},
		{name: "existing", path: script, want: "const b = createMVSBuilder();"},
		{name: "missing", path: filepath.Join(dir, "new.mvs.js"), want: "", notExist: true},
		{name: "directory", path: dir, wantErr: "directory"},
		{name: "oversized", path: big, wantErr: "exceeds limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := openScript(tc.path, "starter")
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v; want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("openScript: %v", err)
			}
			if got != tc.want {
				t.Errorf("text = %q; want %q", got, tc.want)
			}
			if tc.notExist {
				if _, err := readScript(tc.path); !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("readScript err = %v; want fs.ErrNotExist", err)
				}
			}
		})
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.mvs.js")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan string, 16)
	fw, err := watchFile(path, func(fn func()) { fn() }, func(text string) { got <- text })
	if err != nil {
		t.Fatalf("watchFile: %v", err)
	}
	defer fw.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.js"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := writeFileAtomic(path, []byte("v2")); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case text := <-got:
			if text == "ignored" {
				t.Fatalf("change to another file was delivered")
			}
			if text == "v2" {
				return
			}
		case <-deadline:
			t.Fatal("no change delivered for the watched file")
		}
	}
}

func TestWatchFileSkipsOwnWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.mvs.js")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan string, 16)
	fw, err := watchFile(path, func(fn func()) { fn() }, func(text string) { got <- text })
	if err != nil {
		t.Fatalf("watchFile: %v", err)
	}
	defer fw.Close()

	fw.Wrote("saved")
	if err := writeFileAtomic(path, []byte("saved")); err != nil {
		t.Fatal(err)
	}
	if err := writeFileAtomic(path, []byte("external")); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case text := <-got:
			if text == "saved" {
				t.Fatalf("own write was delivered as an external change")
			}
			if text == "external" {
				return
			}
		case <-deadline:
			t.Fatal("external change was not delivered")
		}
	}
}
