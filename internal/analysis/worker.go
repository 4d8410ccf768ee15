package analysis

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Request is one unit of work handed to a worker. It carries a snapshot of the
// language defaults so workers never touch Service state.
type Request struct {
	URI         string
	LanguageID  string
	Text        string
	Compiler    CompilerOptions
	Diagnostics DiagnosticsOptions
	Libs        []ExtraLib
}

// Completion is one autocompletion candidate.
type Completion struct {
	Label      string
	Kind       SymbolKind
	Detail     string
	Doc        string
	InsertText string
	Deprecated bool
}

// Worker analyses documents of the languages it is resolved for.
// Implementations MUST be safe to call from any goroutine.
type Worker interface {
	Diagnose(ctx context.Context, req Request) []Diagnostic
	// Complete returns candidates at offset, a character (rune) offset.
	Complete(req Request, offset int) []Completion
}

// WordWorker is the general editing worker: no diagnostics, completion from
// the words already present in the document.
type WordWorker struct{}

// NewWordWorker returns the default editing worker.
func NewWordWorker() *WordWorker { return &WordWorker{} }

// Diagnose implements Worker.
func (*WordWorker) Diagnose(context.Context, Request) []Diagnostic { return nil }

// Complete implements Worker.
func (*WordWorker) Complete(req Request, offset int) []Completion {
	off := byteOffsetOfRune(req.Text, offset)
	prefix := identPrefix(req.Text, off)
	seen := map[string]bool{}
	var out []Completion
	for _, t := range lex(req.Text) {
		if t.kind != tokIdent || utf8.RuneCountInString(t.text) < 3 || seen[t.text] {
			continue
		}
		if t.end == off && t.text == prefix {
			continue // the word being typed
		}
		seen[t.text] = true
		out = append(out, Completion{Label: t.text, Kind: KindText, InsertText: t.text})
	}
	return rank(prefix, out)
}

type completionSource []Completion

func (s completionSource) String(i int) string { return s[i].Label }
func (s completionSource) Len() int            { return len(s) }

// rank orders candidates by fuzzy score against prefix, or alphabetically
// when prefix is empty.
func rank(prefix string, cands []Completion) []Completion {
	if prefix == "" {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].Label < cands[j].Label })
		return cands
	}
	matches := fuzzy.FindFrom(prefix, completionSource(cands))
	out := make([]Completion, 0, len(matches))
	for _, m := range matches {
		out = append(out, cands[m.Index])
	}
	return out
}

func byteOffsetOfRune(s string, runeOff int) int {
	if runeOff <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeOff {
			return i
		}
		n++
	}
	return len(s)
}

// Filter ranks cs against query the way completion results are ranked.
func Filter(query string, cs []Completion) []Completion {
	return rank(query, append([]Completion(nil), cs...))
}

// PrefixAt returns the identifier fragment that ends at character offset
// offset of text.
func PrefixAt(text string, offset int) string {
	return identPrefix(text, byteOffsetOfRune(text, offset))
}
