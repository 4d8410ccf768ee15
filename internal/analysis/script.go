package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
)

// CodeImplicitAny is reported when NoImplicitAny is set and a chain reaches a
// member whose result type is not declared.
const CodeImplicitAny = 7005

// ScriptWorker analyses MVS builder scripts: goja provides syntax checking and
// the extra libraries drive member checks and completion.
type ScriptWorker struct{}

// NewScriptWorker returns the analysis worker.
func NewScriptWorker() *ScriptWorker { return &ScriptWorker{} }

// Diagnose implements Worker.
func (*ScriptWorker) Diagnose(ctx context.Context, req Request) []Diagnostic {
	li := newLineIndex(req.Text)
	var out []Diagnostic
	if !req.Diagnostics.NoSyntaxValidation {
		out = append(out, syntaxDiagnostics(li, req)...)
	}
	if ctx.Err() != nil {
		return nil
	}
	if !req.Diagnostics.NoSemanticValidation || !req.Diagnostics.NoSuggestionDiagnostics {
		c := newChecker(req, li, lex(req.Text))
		c.run()
		out = append(out, c.diags...)
	}

	kept := out[:0]
	for _, d := range out {
		if !req.Diagnostics.ignores(d.Code) {
			kept = append(kept, d)
		}
	}
	sortDiagnostics(kept)
	return kept
}

var lineColRe = regexp.MustCompile(`Line (\d+):(\d+) (.*)`)

func syntaxDiagnostics(li *lineIndex, req Request) []Diagnostic {
	if _, err := parser.ParseFile(nil, req.URI, req.Text, 0); err != nil {
		var list parser.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			out := make([]Diagnostic, 0, len(list))
			for _, e := range list {
				b := li.byteOffset(e.Position.Line, e.Position.Column)
				out = append(out, li.span(b, b+1, SeverityError, CodeSyntax, e.Message))
			}
			return out
		}
		return []Diagnostic{messageDiagnostic(li, err.Error(), CodeSyntax)}
	}
	if req.Compiler.Strict {
		if _, err := goja.Compile(req.URI, req.Text, true); err != nil {
			return []Diagnostic{messageDiagnostic(li, err.Error(), CodeStrictMode)}
		}
	}
	return nil
}

// messageDiagnostic recovers a position from goja's "Line L:C msg" format.
func messageDiagnostic(li *lineIndex, msg string, code int) Diagnostic {
	b := 0
	if m := lineColRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		b = li.byteOffset(line, col)
		msg = m[3]
	}
	return li.span(b, b+1, SeverityError, code, msg)
}

// Complete implements Worker.
func (*ScriptWorker) Complete(req Request, offset int) []Completion {
	off := byteOffsetOfRune(req.Text, offset)
	prefix := identPrefix(req.Text, off)
	head := req.Text[:off-len(prefix)]
	toks := lex(head)

	c := newChecker(req, newLineIndex(head), toks)
	c.quiet = true
	c.run()

	if n := len(toks); n > 0 && toks[n-1].kind == tokDot {
		start := chainStart(toks, n-1)
		if start < 0 {
			return nil
		}
		typ := c.chain(start, n-1)
		return rank(prefix, c.membersOf(typ))
	}
	return rank(prefix, c.scope())
}

// checker walks member-access chains rooted at known globals or bound
// variables. Receivers of unknown type end the chain silently.
type checker struct {
	req   Request
	li    *lineIndex
	toks  []token
	idx   *symbolIndex
	vars  map[string]string
	seen  map[int]bool
	diags []Diagnostic
	quiet bool
}

func newChecker(req Request, li *lineIndex, toks []token) *checker {
	return &checker{
		req:  req,
		li:   li,
		toks: toks,
		idx:  newSymbolIndex(req.Libs),
		vars: make(map[string]string),
		seen: make(map[int]bool),
	}
}

func (c *checker) run() {
	for i, t := range c.toks {
		if t.kind != tokIdent || (i > 0 && c.toks[i-1].kind == tokDot) {
			continue
		}
		if i+2 < len(c.toks) && c.toks[i+1].kind == tokAssign && c.toks[i+2].kind == tokIdent {
			c.seen[i+2] = true
			if typ := c.chain(i+2, len(c.toks)); typ != "" {
				c.vars[t.text] = typ
			} else {
				delete(c.vars, t.text)
			}
			continue
		}
		if !c.seen[i] {
			c.seen[i] = true
			c.chain(i, len(c.toks))
		}
	}
}

// chain evaluates the access chain starting at token start and stopping
// before end. It returns the type of the resulting value, or "" if unknown.
func (c *checker) chain(start, end int) string {
	root := c.toks[start]
	var typ, pending string
	if g, ok := c.idx.globals[root.text]; ok {
		c.deprecated(root, g)
		typ, pending = c.valueOf(g)
	} else if v, ok := c.vars[root.text]; ok {
		typ = v
	} else {
		return ""
	}

	for j := start + 1; j < end; {
		switch c.toks[j].kind {
		case tokLParen:
			closing := matchParen(c.toks, j, end)
			if closing < 0 {
				return ""
			}
			typ, pending = pending, ""
			j = closing + 1
		case tokDot:
			if j+1 >= end || c.toks[j+1].kind != tokIdent {
				return typ
			}
			name := c.toks[j+1]
			if typ == "" || !c.idx.isType(typ) {
				return ""
			}
			m, ok := c.idx.member(typ, name.text)
			if !ok {
				c.report(name, SeverityError, CodeUnknownProperty,
					fmt.Sprintf("Property '%s' does not exist on type '%s'.", name.text, typ),
					c.req.Diagnostics.NoSemanticValidation)
				return ""
			}
			c.deprecated(name, m)
			if m.Returns == "" && c.req.Compiler.NoImplicitAny && m.Kind == KindProperty {
				c.report(name, SeverityWarning, CodeImplicitAny,
					fmt.Sprintf("Member '%s' implicitly has an 'any' type.", name.text),
					c.req.Diagnostics.NoSemanticValidation)
			}
			typ, pending = c.valueOf(m)
			j += 2
		default:
			return typ
		}
	}
	return typ
}

// valueOf returns the immediate type of referencing s and the type produced
// by calling it.
func (c *checker) valueOf(s Symbol) (typ, pending string) {
	switch s.Kind {
	case KindFunction, KindMethod:
		return "", s.Returns
	default:
		return s.Returns, ""
	}
}

func (c *checker) deprecated(t token, s Symbol) {
	if s.Deprecated == "" {
		return
	}
	c.report(t, SeverityHint, CodeDeprecated,
		fmt.Sprintf("'%s' is deprecated. %s", s.Name, s.Deprecated),
		c.req.Diagnostics.NoSuggestionDiagnostics)
}

func (c *checker) report(t token, sev Severity, code int, msg string, disabled bool) {
	if c.quiet || disabled {
		return
	}
	c.diags = append(c.diags, c.li.span(t.pos, t.end, sev, code, msg))
}

func (c *checker) membersOf(typ string) []Completion {
	var out []Completion
	for _, m := range c.idx.types[typ] {
		out = append(out, symbolCompletion(m))
	}
	return out
}

func (c *checker) scope() []Completion {
	var out []Completion
	for _, g := range c.idx.globals {
		out = append(out, symbolCompletion(g))
	}
	for name, typ := range c.vars {
		if _, ok := c.idx.globals[name]; ok {
			continue
		}
		out = append(out, Completion{Label: name, Kind: KindVariable, Detail: typ, InsertText: name})
	}
	for _, kw := range jsKeywords {
		out = append(out, Completion{Label: kw, Kind: KindKeyword, InsertText: kw})
	}
	return out
}

func symbolCompletion(s Symbol) Completion {
	detail := s.Signature
	if detail == "" {
		detail = s.Returns
	}
	return Completion{
		Label:      s.Name,
		Kind:       s.Kind,
		Detail:     detail,
		Doc:        s.Doc,
		InsertText: s.Name,
		Deprecated: s.Deprecated != "",
	}
}

func matchParen(toks []token, open, end int) int {
	depth := 0
	for k := open; k < end; k++ {
		switch toks[k].kind {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// chainStart walks backwards from the dot at index dot to the root
// identifier of its chain, or returns -1.
func chainStart(toks []token, dot int) int {
	k := dot - 1
	for k >= 0 {
		if toks[k].kind == tokRParen {
			depth := 0
			for ; k >= 0; k-- {
				if toks[k].kind == tokRParen {
					depth++
				} else if toks[k].kind == tokLParen {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			k--
			if k < 0 {
				return -1
			}
		}
		if toks[k].kind != tokIdent {
			return -1
		}
		if k > 0 && toks[k-1].kind == tokDot {
			k -= 2
			continue
		}
		return k
	}
	return -1
}
