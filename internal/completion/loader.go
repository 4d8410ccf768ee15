package completion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/sigterm-de/mvsedit/internal/logging"
)

// maxUserCatalogBytes caps a single user catalog file.
const maxUserCatalogBytes = 1 << 20

// LoadResult is the combined outcome of loading built-in and user catalogs.
type LoadResult struct {
	Catalog      Catalog  // built-ins merged with user catalogs, in load order
	SkippedFiles []string // catalogs that could not be read or parsed
	BuiltInCount int
	UserCount    int
}

// Loader discovers catalogs in an embedded FS and the user typings directory.
type Loader interface {
	// Load reads all catalogs. A bad file is logged and skipped; Load returns
	// an error only when no built-in catalog could be loaded at all.
	Load(userDir string) (LoadResult, error)
}

type loader struct {
	builtinFS fs.FS
}

// NewLoader returns a Loader backed by builtinFS (pass assets.Typings()).
func NewLoader(builtinFS fs.FS) Loader {
	return &loader{builtinFS: builtinFS}
}

func isCatalogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".plist":
		return true
	}
	return false
}

// Load implements Loader.
func (l *loader) Load(userDir string) (LoadResult, error) {
	var result LoadResult
	result.Catalog = Catalog{Name: "mvs", Types: map[string]Type{}}

	err := fs.WalkDir(l.builtinFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isCatalogFile(path) {
			return nil
		}
		data, readErr := fs.ReadFile(l.builtinFS, path)
		if readErr != nil {
			logging.Log(logging.WARN, "completion", "cannot read embedded catalog "+path+": "+readErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, path)
			return nil
		}
		c, parseErr := ParseCatalog(path, data)
		if parseErr != nil {
			logging.Log(logging.WARN, "completion", "skipping: "+parseErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, path)
			return nil
		}
		result.Catalog = result.Catalog.Merge(c)
		result.BuiltInCount++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("completion: walk built-in catalogs: %w", err)
	}
	if result.BuiltInCount == 0 {
		return result, fmt.Errorf("completion: no built-in catalog found")
	}

	if userDir != "" {
		l.loadUser(userDir, &result)
	}
	return result, nil
}

func (l *loader) loadUser(dir string, result *LoadResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Log(logging.INFO, "completion", "user typings dir does not exist: "+dir)
			return
		}
		logging.Log(logging.WARN, "completion", "cannot read user typings dir: "+err.Error())
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isCatalogFile(entry.Name()) {
			continue
		}
		info, statErr := entry.Info()
		if statErr != nil {
			logging.Log(logging.WARN, "completion", "cannot stat "+entry.Name()+": "+statErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, entry.Name())
			continue
		}
		if info.Size() > maxUserCatalogBytes {
			logging.Log(logging.WARN, "completion", fmt.Sprintf("skipping %s: %d B exceeds limit of %d B", entry.Name(), info.Size(), maxUserCatalogBytes))
			result.SkippedFiles = append(result.SkippedFiles, entry.Name())
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			logging.Log(logging.WARN, "completion", "cannot read "+entry.Name()+": "+readErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, entry.Name())
			continue
		}
		c, parseErr := ParseCatalog(entry.Name(), data)
		if parseErr != nil {
			logging.Log(logging.WARN, "completion", "skipping: "+parseErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, entry.Name())
			continue
		}
		result.Catalog = result.Catalog.Merge(c)
		result.UserCount++
	}

	if err := result.Catalog.Check(); err != nil {
		logging.Log(logging.WARN, "completion", "catalog references: "+err.Error())
	}
}
