package analysis

// symbolIndex is a lookup view over a set of extra libraries.
type symbolIndex struct {
	globals map[string]Symbol
	types   map[string]map[string]Symbol
}

func newSymbolIndex(libs []ExtraLib) *symbolIndex {
	idx := &symbolIndex{
		globals: make(map[string]Symbol),
		types:   make(map[string]map[string]Symbol),
	}
	for _, lib := range libs {
		for _, s := range lib.Symbols {
			if s.Kind == KindType {
				if idx.types[s.Name] == nil {
					idx.types[s.Name] = make(map[string]Symbol)
				}
				continue
			}
			if s.Owner == "" {
				idx.globals[s.Name] = s
				continue
			}
			members := idx.types[s.Owner]
			if members == nil {
				members = make(map[string]Symbol)
				idx.types[s.Owner] = members
			}
			members[s.Name] = s
		}
	}
	return idx
}

func (idx *symbolIndex) isType(name string) bool {
	_, ok := idx.types[name]
	return ok
}

func (idx *symbolIndex) member(typ, name string) (Symbol, bool) {
	s, ok := idx.types[typ][name]
	return s, ok
}
