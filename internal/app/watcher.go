package app

import (
	"fmt"
	"path/filepath"
	"sync"

	"codeberg.org/sigterm-de/mvsedit/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// fileWatcher reports content changes of one file made by other programs.
// It watches the parent directory so that editors which save by renaming a
// temporary file over the original are noticed too.
type fileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	deliver func(func()) // runs a callback on the UI thread
	done    chan struct{}

	mu      sync.Mutex
	written string // last content this process wrote
	wrote   bool
}

// Wrote records text as written by this process. Until another write is
// recorded, changes whose content equals text are not reported.
func (fw *fileWatcher) Wrote(text string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.written, fw.wrote = text, true
}

func (fw *fileWatcher) ownWrite(text string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.wrote && text == fw.written
}

// watchFile starts watching path. onChange receives the new content through
// deliver.
func watchFile(path string, deliver func(func()), onChange func(text string)) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	fw := &fileWatcher{path: abs, watcher: w, deliver: deliver, done: make(chan struct{})}
	go fw.loop(onChange)
	return fw, nil
}

func (fw *fileWatcher) loop(onChange func(string)) {
	defer close(fw.done)
	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			text, err := readScript(fw.path)
			if err != nil {
				logging.Log(logging.WARN, "watcher", err.Error())
				continue
			}
			if fw.ownWrite(text) {
				continue
			}
			fw.deliver(func() { onChange(text) })
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Log(logging.WARN, "watcher", err.Error())
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (fw *fileWatcher) Close() error {
	err := fw.watcher.Close()
	<-fw.done
	return err
}
