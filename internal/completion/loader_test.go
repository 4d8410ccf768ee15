package completion

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"codeberg.org/sigterm-de/mvsedit/assets"
)

func builtinFS() fstest.MapFS {
	return fstest.MapFS{
		"mvs-builder.yaml": {Data: []byte(sampleYAML)},
		"README.md":        {Data: []byte("not a catalog")},
	}
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBuiltinOnly(t *testing.T) {
	res, err := NewLoader(builtinFS()).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.BuiltInCount != 1 || res.UserCount != 0 || len(res.SkippedFiles) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if _, ok := res.Catalog.Types["Root"]; !ok {
		t.Errorf("built-in types missing")
	}
}

func TestLoadNoBuiltin(t *testing.T) {
	_, err := NewLoader(fstest.MapFS{"broken.yaml": {Data: []byte("globals: [")}}).Load("")
	if err == nil {
		t.Fatal("Load succeeded without a usable built-in catalog")
	}
}

func TestLoadUserCatalogs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extra.plist", []byte(samplePlist))
	writeFile(t, dir, "broken.yaml", []byte("types: [oops"))
	writeFile(t, dir, "notes.txt", []byte("ignored"))
	writeFile(t, dir, "huge.yml", []byte(strings.Repeat("#", maxUserCatalogBytes+1)))
	if err := os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := NewLoader(builtinFS()).Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.UserCount != 1 {
		t.Errorf("UserCount = %d; want 1", res.UserCount)
	}
	slices.Sort(res.SkippedFiles)
	if !slices.Equal(res.SkippedFiles, []string{"broken.yaml", "huge.yml"}) {
		t.Errorf("SkippedFiles = %v", res.SkippedFiles)
	}
	found := false
	for _, m := range res.Catalog.Types["Root"].Members {
		found = found || m.Name == "camera"
	}
	if !found {
		t.Errorf("user member not merged into Root")
	}
}

func TestLoadMissingUserDir(t *testing.T) {
	res, err := NewLoader(builtinFS()).Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.UserCount != 0 {
		t.Errorf("UserCount = %d", res.UserCount)
	}
}

func TestEmbeddedCatalogs(t *testing.T) {
	res, err := NewLoader(assets.Typings()).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.SkippedFiles) != 0 {
		t.Fatalf("skipped embedded catalogs: %v", res.SkippedFiles)
	}
	if err := res.Catalog.Check(); err != nil {
		t.Fatalf("embedded catalog references: %v", err)
	}
	for _, typ := range []string{"Root", "Download", "Parse", "Structure", "Component", "Representation", "State"} {
		if _, ok := res.Catalog.Types[typ]; !ok {
			t.Errorf("embedded catalog lacks type %s", typ)
		}
	}
}
