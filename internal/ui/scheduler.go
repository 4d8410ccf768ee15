package ui

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// Scheduler runs tasks on the GTK main loop. It implements editor.Scheduler.
type Scheduler struct{}

// After implements editor.Scheduler.
func (Scheduler) After(d time.Duration, fn func()) func() {
	done := false
	handle := glib.TimeoutAdd(uint(d.Milliseconds()), func() bool {
		done = true
		fn()
		return false
	})
	return func() {
		if !done {
			done = true
			glib.SourceRemove(handle)
		}
	}
}
