package completion

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"codeberg.org/sigterm-de/mvsedit/internal/analysis"
	"gopkg.in/yaml.v3"
	"howett.net/plist"
)

// Catalog is a snapshot of MVS domain declarations: the builder entry points
// (globals) and the node types reachable from them.
type Catalog struct {
	Name    string          `yaml:"name" plist:"name"`
	Globals []Member        `yaml:"globals" plist:"globals"`
	Types   map[string]Type `yaml:"types" plist:"types"`
}

// Type is a named node type and its members.
type Type struct {
	Doc     string   `yaml:"doc" plist:"doc"`
	Members []Member `yaml:"members" plist:"members"`
}

// Member is a function, method or property declaration.
type Member struct {
	Name       string `yaml:"name" plist:"name"`
	Kind       string `yaml:"kind" plist:"kind"` // function, method or property
	Signature  string `yaml:"signature" plist:"signature"`
	Returns    string `yaml:"returns" plist:"returns"`
	Doc        string `yaml:"doc" plist:"doc"`
	Deprecated string `yaml:"deprecated" plist:"deprecated"`
}

var errUnknownFormat = errors.New("unsupported catalog format")

// ParseCatalog decodes a catalog. The format is chosen by the extension of
// name: .yaml/.yml or .plist.
func ParseCatalog(name string, data []byte) (Catalog, error) {
	var c Catalog
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Catalog{}, fmt.Errorf("catalog %s: %w", name, err)
		}
	case ".plist":
		if _, err := plist.Unmarshal(data, &c); err != nil {
			return Catalog{}, fmt.Errorf("catalog %s: %w", name, err)
		}
	default:
		return Catalog{}, fmt.Errorf("catalog %s: %w", name, errUnknownFormat)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if err := c.validateMembers(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", name, err)
	}
	return c, nil
}

func (c Catalog) validateMembers() error {
	var errs []error
	check := func(owner string, m Member) {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: member without name", ownerLabel(owner)))
		}
		if _, ok := memberKind(m.Kind); !ok {
			errs = append(errs, fmt.Errorf("%s.%s: unknown kind %q", ownerLabel(owner), m.Name, m.Kind))
		}
	}
	for _, g := range c.Globals {
		check("", g)
	}
	for name, t := range c.Types {
		for _, m := range t.Members {
			check(name, m)
		}
	}
	return errors.Join(errs...)
}

// Check reports return types that name no declared type. Run it on the
// merged catalog, since user catalogs may refer to built-in types.
func (c Catalog) Check() error {
	var errs []error
	check := func(owner string, m Member) {
		if m.Returns != "" {
			if _, ok := c.Types[m.Returns]; !ok {
				errs = append(errs, fmt.Errorf("%s.%s: returns undeclared type %q", ownerLabel(owner), m.Name, m.Returns))
			}
		}
	}
	for _, g := range c.Globals {
		check("", g)
	}
	for _, name := range c.typeNames() {
		for _, m := range c.Types[name].Members {
			check(name, m)
		}
	}
	return errors.Join(errs...)
}

// Merge returns c extended by other. Members of other replace members of c
// with the same name.
func (c Catalog) Merge(other Catalog) Catalog {
	out := Catalog{
		Name:    c.Name,
		Globals: mergeMembers(c.Globals, other.Globals),
		Types:   make(map[string]Type, len(c.Types)+len(other.Types)),
	}
	for name, t := range c.Types {
		out.Types[name] = Type{Doc: t.Doc, Members: slices.Clone(t.Members)}
	}
	for name, t := range other.Types {
		base := out.Types[name]
		if t.Doc != "" {
			base.Doc = t.Doc
		}
		base.Members = mergeMembers(base.Members, t.Members)
		out.Types[name] = base
	}
	return out
}

func mergeMembers(base, over []Member) []Member {
	out := slices.Clone(base)
	for _, m := range over {
		i := slices.IndexFunc(out, func(b Member) bool { return b.Name == m.Name })
		if i >= 0 {
			out[i] = m
		} else {
			out = append(out, m)
		}
	}
	return out
}

// ExtraLib renders the catalog as a declaration library for the language
// service.
func (c Catalog) ExtraLib(path string) analysis.ExtraLib {
	lib := analysis.ExtraLib{Path: path}
	for _, name := range c.typeNames() {
		lib.Symbols = append(lib.Symbols, analysis.Symbol{Name: name, Kind: analysis.KindType, Doc: c.Types[name].Doc})
	}
	for _, g := range c.Globals {
		lib.Symbols = append(lib.Symbols, g.symbol(""))
	}
	for _, name := range c.typeNames() {
		for _, m := range c.Types[name].Members {
			lib.Symbols = append(lib.Symbols, m.symbol(name))
		}
	}
	return lib
}

func (c Catalog) typeNames() []string {
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m Member) symbol(owner string) analysis.Symbol {
	kind, _ := memberKind(m.Kind)
	if owner == "" && kind == analysis.KindMethod {
		kind = analysis.KindFunction
	}
	return analysis.Symbol{
		Owner:      owner,
		Name:       m.Name,
		Kind:       kind,
		Signature:  m.Signature,
		Returns:    m.Returns,
		Doc:        strings.TrimSpace(m.Doc),
		Deprecated: m.Deprecated,
	}
}

func memberKind(kind string) (analysis.SymbolKind, bool) {
	switch kind {
	case "function":
		return analysis.KindFunction, true
	case "method", "":
		return analysis.KindMethod, true
	case "property":
		return analysis.KindProperty, true
	default:
		return analysis.KindText, false
	}
}

func ownerLabel(owner string) string {
	if owner == "" {
		return "globals"
	}
	return owner
}
