package ui

import (
	"fmt"
	"strings"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
)

const defaultIdleHint = "Ctrl+S saves, Ctrl+Space completes"

// revertDelay is how long (ms) a status message stays before reverting to the
// idle text.
const revertDelay = 5000

// StatusBar shows save results, errors and, when idle, the diagnostic summary
// of the document next to a usage hint.
type StatusBar struct {
	Box      *gtk.Box
	label    *gtk.Label
	problems *gtk.Label
	hint     string
	timerTag glib.SourceHandle // 0 when no timer is pending
}

// NewStatusBar creates a status bar showing the idle hint.
func NewStatusBar() *StatusBar {
	label := gtk.NewLabel(defaultIdleHint)
	label.SetXAlign(0)
	label.SetEllipsize(pango.EllipsizeEnd)
	label.SetHExpand(true)

	problems := gtk.NewLabel(DiagnosticSummary(0, 0, 0))
	problems.AddCSSClass("statusbar-problems")

	box := gtk.NewBox(gtk.OrientationHorizontal, 12)
	box.AddCSSClass("statusbar")
	box.AddCSSClass("statusbar-idle")
	box.SetMarginTop(4)
	box.SetMarginBottom(4)
	box.SetMarginStart(12)
	box.SetMarginEnd(12)
	box.Append(label)
	box.Append(problems)

	return &StatusBar{Box: box, label: label, problems: problems, hint: defaultIdleHint}
}

// SetIdleHint replaces the text shown while no message is displayed.
func (s *StatusBar) SetIdleHint(hint string) {
	s.hint = hint
	if s.timerTag == 0 {
		s.label.SetText(hint)
	}
}

// SetDiagnostics updates the problem counter.
func (s *StatusBar) SetDiagnostics(diags []analysis.Diagnostic) {
	errs, warnings, hints := analysis.Counts(diags)
	s.problems.SetText(DiagnosticSummary(errs, warnings, hints))
	if errs > 0 {
		s.problems.AddCSSClass("statusbar-problems-error")
	} else {
		s.problems.RemoveCSSClass("statusbar-problems-error")
	}
	if len(diags) > 0 {
		s.problems.SetTooltipText(diags[0].String())
	} else {
		s.problems.SetTooltipText("")
	}
}

// ShowError displays an error message and schedules a revert to the idle hint.
func (s *StatusBar) ShowError(message, logPath string) {
	s.cancelTimer()
	text := message
	if logPath != "" {
		text += "  (log: " + logPath + ")"
	}
	s.label.SetText(text)
	s.Box.RemoveCSSClass("statusbar-success")
	s.Box.RemoveCSSClass("statusbar-idle")
	s.Box.AddCSSClass("statusbar-error")
	s.scheduleRevert()
}

// ShowSuccess displays a success message and schedules a revert to the idle
// hint.
func (s *StatusBar) ShowSuccess(message string) {
	s.cancelTimer()
	s.label.SetText(message)
	s.Box.RemoveCSSClass("statusbar-error")
	s.Box.RemoveCSSClass("statusbar-idle")
	s.Box.AddCSSClass("statusbar-success")
	s.scheduleRevert()
}

// Clear immediately reverts the status bar to the idle hint.
func (s *StatusBar) Clear() {
	s.cancelTimer()
	s.revertToIdle()
}

func (s *StatusBar) scheduleRevert() {
	s.timerTag = glib.TimeoutAdd(revertDelay, func() bool {
		s.revertToIdle()
		return false
	})
}

func (s *StatusBar) cancelTimer() {
	if s.timerTag != 0 {
		glib.SourceRemove(s.timerTag)
		s.timerTag = 0
	}
}

func (s *StatusBar) revertToIdle() {
	s.timerTag = 0
	s.label.SetText(s.hint)
	s.Box.RemoveCSSClass("statusbar-error")
	s.Box.RemoveCSSClass("statusbar-success")
	s.Box.AddCSSClass("statusbar-idle")
}

// DiagnosticSummary renders problem counts, e.g. "2 errors, 1 warning".
func DiagnosticSummary(errors, warnings, hints int) string {
	var parts []string
	add := func(n int, noun string) {
		switch n {
		case 0:
		case 1:
			parts = append(parts, "1 "+noun)
		default:
			parts = append(parts, fmt.Sprintf("%d %ss", n, noun))
		}
	}
	add(errors, "error")
	add(warnings, "warning")
	add(hints, "hint")
	if len(parts) == 0 {
		return "No problems"
	}
	return strings.Join(parts, ", ")
}
