package analysis

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic codes produced by the analysis worker.
const (
	CodeSyntax          = 1005
	CodeStrictMode      = 1100
	CodeUnknownProperty = 2339
	CodeDeprecated      = 6385
)

// Diagnostic is a single finding. Line and Column are 1-based; Start and End
// are character (rune) offsets into the document.
type Diagnostic struct {
	Line     int
	Column   int
	Start    int
	End      int
	Severity Severity
	Code     int
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d %s TS%d: %s", d.Line, d.Column, d.Severity, d.Code, d.Message)
}

// Counts tallies diagnostics by severity.
func Counts(diags []Diagnostic) (errors, warnings, hints int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		default:
			hints++
		}
	}
	return errors, warnings, hints
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Start != diags[j].Start {
			return diags[i].Start < diags[j].Start
		}
		return diags[i].Code < diags[j].Code
	})
}

// lineIndex converts between byte offsets, rune offsets and 1-based
// line/column positions of a text.
type lineIndex struct {
	text   string
	starts []int // byte offset of each line start
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{text: text, starts: starts}
}

// position returns the 1-based line/column (in runes) and the rune offset of
// byte offset b.
func (li *lineIndex) position(b int) (line, col, runeOff int) {
	b = max(0, min(b, len(li.text)))
	line = sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > b })
	start := li.starts[line-1]
	col = utf8.RuneCountInString(li.text[start:b]) + 1
	runeOff = utf8.RuneCountInString(li.text[:b])
	return line, col, runeOff
}

// byteOffset converts a 1-based line and byte column to a byte offset,
// clamped to the text.
func (li *lineIndex) byteOffset(line, col int) int {
	if line < 1 {
		return 0
	}
	if line > len(li.starts) {
		return len(li.text)
	}
	off := li.starts[line-1] + max(col-1, 0)
	end := len(li.text)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	return min(off, end)
}

// span builds a diagnostic covering bytes [from, to).
func (li *lineIndex) span(from, to int, sev Severity, code int, msg string) Diagnostic {
	line, col, start := li.position(from)
	_, _, end := li.position(to)
	if end <= start {
		end = start + 1
	}
	return Diagnostic{Line: line, Column: col, Start: start, End: end, Severity: sev, Code: code, Message: strings.TrimSpace(msg)}
}
