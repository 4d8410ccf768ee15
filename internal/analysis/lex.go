package analysis

import (
	"unicode"
	"unicode/utf8"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokDot
	tokLParen
	tokRParen
	tokAssign
	tokOther
)

type token struct {
	kind tokKind
	text string
	pos  int // byte offset
	end  int
}

// lex splits src into the coarse token stream the chain checker needs.
// Strings, template literals, comments and numbers are skipped entirely.
func lex(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i = min(i+2, len(src))
		case c == '"' || c == '\'' || c == '`':
			i = skipString(src, i)
		case c == '.':
			if i+2 < len(src) && src[i+1] == '.' && src[i+2] == '.' {
				toks = append(toks, token{tokOther, "...", i, i + 3})
				i += 3
				continue
			}
			if i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9' {
				i = skipNumber(src, i+1)
				continue
			}
			toks = append(toks, token{tokDot, ".", i, i + 1})
			i++
		case c == '?' && i+1 < len(src) && src[i+1] == '.':
			// optional chaining reads like a member access
			toks = append(toks, token{tokDot, "?.", i, i + 2})
			i += 2
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i, i + 1})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i, i + 1})
			i++
		case c == '=':
			if i+1 < len(src) && (src[i+1] == '=' || src[i+1] == '>') {
				toks = append(toks, token{tokOther, src[i : i+2], i, i + 2})
				i += 2
				continue
			}
			toks = append(toks, token{tokAssign, "=", i, i + 1})
			i++
		case c >= '0' && c <= '9':
			i = skipNumber(src, i)
		default:
			r, size := utf8.DecodeRuneInString(src[i:])
			if isIdentStart(r) {
				j := i + size
				for j < len(src) {
					r2, s2 := utf8.DecodeRuneInString(src[j:])
					if !isIdentPart(r2) {
						break
					}
					j += s2
				}
				toks = append(toks, token{tokIdent, src[i:j], i, j})
				i = j
				continue
			}
			toks = append(toks, token{tokOther, src[i : i+size], i, i + size})
			i += size
		}
	}
	return toks
}

func skipString(src string, i int) int {
	quote := src[i]
	i++
	depth := 0
	for i < len(src) {
		switch {
		case src[i] == '\\':
			i += 2
			continue
		case quote == '`' && src[i] == '$' && i+1 < len(src) && src[i+1] == '{':
			depth++
			i += 2
			continue
		case quote == '`' && depth > 0 && src[i] == '}':
			depth--
		case src[i] == quote && depth == 0:
			return i + 1
		case src[i] == '\n' && quote != '`':
			return i
		}
		i++
	}
	return len(src)
}

func skipNumber(src string, i int) int {
	for i < len(src) {
		c := src[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '.' {
			i++
			continue
		}
		break
	}
	return i
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// identPrefix returns the identifier fragment ending at byte offset off.
func identPrefix(src string, off int) string {
	start := off
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(src[:start])
		if !isIdentPart(r) {
			break
		}
		start -= size
	}
	return src[start:off]
}

var jsKeywords = []string{
	"async", "await", "break", "case", "catch", "class", "const", "continue",
	"default", "do", "else", "export", "false", "finally", "for", "function",
	"if", "import", "in", "instanceof", "let", "new", "null", "of", "return",
	"switch", "this", "throw", "true", "try", "typeof", "undefined", "var",
	"while", "yield",
}
