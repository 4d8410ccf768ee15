package analysis

// ScriptTarget is the language level the analysis accepts. Values follow the
// numbering used by TypeScript's compiler options.
type ScriptTarget int

const (
	TargetES5    ScriptTarget = 1
	TargetES2015 ScriptTarget = 2
	TargetES2017 ScriptTarget = 4
	TargetES2020 ScriptTarget = 7
	TargetES2022 ScriptTarget = 9
	TargetESNext ScriptTarget = 99
)

func (t ScriptTarget) String() string {
	switch t {
	case TargetES5:
		return "ES5"
	case TargetES2015:
		return "ES2015"
	case TargetES2017:
		return "ES2017"
	case TargetES2020:
		return "ES2020"
	case TargetES2022:
		return "ES2022"
	case TargetESNext:
		return "ESNext"
	default:
		return "ES?"
	}
}

// CompilerOptions controls how strictly scripts are checked.
type CompilerOptions struct {
	Target               ScriptTarget
	AllowNonTSExtensions bool
	AllowJS              bool
	Strict               bool // compile in strict mode; strict-only syntax errors are reported
	NoImplicitAny        bool // report members reached through untyped receivers
}

// DiagnosticsOptions selects which diagnostic categories are produced.
type DiagnosticsOptions struct {
	NoSemanticValidation    bool
	NoSyntaxValidation      bool
	NoSuggestionDiagnostics bool
	DiagnosticCodesToIgnore []int
}

func (o DiagnosticsOptions) ignores(code int) bool {
	for _, c := range o.DiagnosticCodesToIgnore {
		if c == code {
			return true
		}
	}
	return false
}

// SymbolKind classifies catalog symbols.
type SymbolKind int

const (
	KindFunction SymbolKind = iota
	KindMethod
	KindProperty
	KindType
	KindVariable
	KindKeyword
	KindText
)

func (k SymbolKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindType:
		return "type"
	case KindVariable:
		return "variable"
	case KindKeyword:
		return "keyword"
	default:
		return "text"
	}
}

// Symbol is one declaration from an extra library. Owner is empty for globals
// and names the declaring type for members.
type Symbol struct {
	Owner      string
	Name       string
	Kind       SymbolKind
	Signature  string
	Returns    string // type name of the value produced; empty when unknown
	Doc        string
	Deprecated string
}

// ExtraLib is an always-available declaration library. Libraries are keyed by
// Path; adding a library with an existing path replaces it.
type ExtraLib struct {
	Path    string
	Symbols []Symbol
}
