package symtab

import (
	"github.com/msiegel/substratum-sub000/internal/types"
)

// SymbolTable is a rooted tree with one implicit root module, plus one flat
// arena per symbol kind (spec.md §5/§9: arena + integer indices rather than
// Rc/parent-pointer sharing). Def-paths name symbols by a sequence of
// (kind, index) pairs, resolved through the owning container's child maps.
type SymbolTable struct {
	modules   []ModuleSymbol
	typeSyms  []TypeSymbol
	functions []FunctionSymbol
	scopes    []ScopeSymbol
	variables []VariableSymbol
	blocks    []BasicBlockSymbol

	Types *types.Interner

	// intrinsics is a synthetic module of built-in functions, implicitly
	// consulted as the outermost fallback during lookup<Function>/<Variable>
	// resolution, per spec.md §4.1.
	intrinsics ModuleSymbol

	// resolver caches Semantic ids for primitives and generic parameters
	// across ResolveType calls. Lazily initialized.
	resolver *resolver
}

// rootIndex is the arena index of the always-present root module.
const rootIndex = 0

// New creates an empty symbol table with a root module and an intrinsics
// fallback module, parameterized by the target's type interner.
func New(target types.Target) *SymbolTable {
	st := &SymbolTable{
		Types: types.NewInterner(target),
	}
	st.modules = append(st.modules, *newModuleSymbol("", DefPath{}))
	st.intrinsics = *newModuleSymbol("intrinsics", DefPath{{Kind: KindModule, Name: "intrinsics"}})
	return st
}

// RegisterIntrinsicFunction installs a built-in function (e.g. a primitive
// arithmetic operation) into the intrinsics fallback module.
func (st *SymbolTable) RegisterIntrinsicFunction(proto FunctionPrototype) {
	st.functions = append(st.functions, *newFunctionSymbol(nil, proto, nil))
	st.intrinsics.Functions[proto.Name] = len(st.functions) - 1
}

// container identifies the kind and arena index of a def-path's current
// container (the Module/Type/Function/Scope that new children are inserted
// into, or resolved from).
type container struct {
	kind  ComponentKind
	index int
}

// resolveContainer returns the container named by path, by trusting the
// (kind, index) recorded on path's last component (or the root module if
// path is empty). Every component on a path was stamped with its arena
// index at the point it was successfully inserted, so this is an O(1)
// lookup, not a re-walk.
func (st *SymbolTable) resolveContainer(path DefPath) container {
	if len(path) == 0 {
		return container{kind: KindModule, index: rootIndex}
	}
	last := path[len(path)-1]
	return container{kind: last.Kind, index: last.index}
}

// childIndex looks up childKind/key within the given container, returning
// its arena index if present.
func (st *SymbolTable) childIndex(c container, childKind ComponentKind, key string) (int, bool) {
	switch c.kind {
	case KindModule:
		m := &st.modules[c.index]
		switch childKind {
		case KindModule:
			i, ok := m.Modules[key]
			return i, ok
		case KindType:
			i, ok := m.Types[key]
			return i, ok
		case KindFunction:
			i, ok := m.Functions[key]
			return i, ok
		case KindVariable:
			i, ok := m.Variables[key]
			return i, ok
		}
	case KindType:
		t := &st.typeSyms[c.index]
		if childKind == KindFunction {
			i, ok := t.Functions[key]
			return i, ok
		}
	case KindFunction:
		f := &st.functions[c.index]
		switch childKind {
		case KindScope:
			i, ok := f.Scopes[key]
			return i, ok
		case KindVariable:
			i, ok := f.Variables[key]
			return i, ok
		case KindBasicBlock:
			i, ok := f.Blocks[key]
			return i, ok
		}
	case KindScope:
		s := &st.scopes[c.index]
		switch childKind {
		case KindScope:
			i, ok := s.Scopes[key]
			return i, ok
		case KindVariable:
			i, ok := s.Variables[key]
			return i, ok
		case KindBasicBlock:
			i, ok := s.Blocks[key]
			return i, ok
		case KindType:
			i, ok := s.Types[key]
			return i, ok
		}
	}
	return 0, false
}

// setChildIndex records a newly inserted child's arena index in its
// container's map for childKind/key. Callers must have already validated
// ownership via checkOwnership.
func (st *SymbolTable) setChildIndex(c container, childKind ComponentKind, key string, idx int) {
	switch c.kind {
	case KindModule:
		m := &st.modules[c.index]
		switch childKind {
		case KindModule:
			m.Modules[key] = idx
		case KindType:
			m.Types[key] = idx
		case KindFunction:
			m.Functions[key] = idx
		case KindVariable:
			m.Variables[key] = idx
		}
	case KindType:
		t := &st.typeSyms[c.index]
		if childKind == KindFunction {
			t.Functions[key] = idx
		}
	case KindFunction:
		f := &st.functions[c.index]
		switch childKind {
		case KindScope:
			f.Scopes[key] = idx
		case KindVariable:
			f.Variables[key] = idx
		case KindBasicBlock:
			f.Blocks[key] = idx
		}
	case KindScope:
		s := &st.scopes[c.index]
		switch childKind {
		case KindScope:
			s.Scopes[key] = idx
		case KindVariable:
			s.Variables[key] = idx
		case KindBasicBlock:
			s.Blocks[key] = idx
		case KindType:
			s.Types[key] = idx
		}
	}
}
