package symtab

import "github.com/msiegel/substratum-sub000/internal/types"

func appendPath(base DefPath, c DefPathComponent) DefPath {
	out := make(DefPath, len(base)+1)
	copy(out, base)
	out[len(base)] = c
	return out
}

// InsertModule inserts a nested module under the cursor's current
// container. Returns Defined if a module with that name already exists
// there.
func (st *SymbolTable) InsertModule(cur *Cursor, name string) (DefPath, error) {
	c := st.resolveContainer(cur.path)
	if _, ok := st.childIndex(c, KindModule, name); ok {
		return nil, &DefinedError{Kind: KindModule, Key: name, Existing: cur.path}
	}
	newPath := appendPath(cur.path, DefPathComponent{Kind: KindModule, Name: name})
	st.modules = append(st.modules, *newModuleSymbol(name, newPath))
	idx := len(st.modules) - 1
	st.setChildIndex(c, KindModule, name, idx)
	newPath[len(newPath)-1].index = idx
	return newPath, nil
}

// InsertType interns def and inserts a TypeSymbol for it under the cursor's
// current container, keyed by the syntactic form's structural key.
func (st *SymbolTable) InsertType(cur *Cursor, syntax types.Syntactic, def types.TypeDefinition, generics []string) (DefPath, types.Semantic, error) {
	c := st.resolveContainer(cur.path)
	key := syntax.String()
	if _, ok := st.childIndex(c, KindType, key); ok {
		return nil, types.Invalid, &DefinedError{Kind: KindType, Key: key, Existing: cur.path}
	}
	sem := st.Types.Intern(def)
	newPath := appendPath(cur.path, DefPathComponent{Kind: KindType, Syntax: syntax})
	st.typeSyms = append(st.typeSyms, *newTypeSymbol(newPath, sem, generics))
	idx := len(st.typeSyms) - 1
	st.setChildIndex(c, KindType, key, idx)
	newPath[len(newPath)-1].index = idx
	return newPath, sem, nil
}

// InsertFunction inserts a FunctionSymbol (method or associated function
// when the container is a Type, free function when the container is a
// Module) under the cursor's current container.
func (st *SymbolTable) InsertFunction(cur *Cursor, proto FunctionPrototype, generics []string, isMethod bool) (DefPath, error) {
	c := st.resolveContainer(cur.path)
	if _, ok := st.childIndex(c, KindFunction, proto.Name); ok {
		return nil, &DefinedError{Kind: KindFunction, Key: proto.Name, Existing: cur.path}
	}
	newPath := appendPath(cur.path, DefPathComponent{Kind: KindFunction, Proto: proto})
	fn := newFunctionSymbol(newPath, proto, generics)
	fn.IsMethod = isMethod
	st.functions = append(st.functions, *fn)
	idx := len(st.functions) - 1
	st.setChildIndex(c, KindFunction, proto.Name, idx)
	newPath[len(newPath)-1].index = idx
	return newPath, nil
}

// InsertVariable inserts a VariableSymbol (user variable or compiler
// temporary) under the cursor's current container.
func (st *SymbolTable) InsertVariable(cur *Cursor, name string, typ types.Semantic) (DefPath, error) {
	c := st.resolveContainer(cur.path)
	if _, ok := st.childIndex(c, KindVariable, name); ok {
		return nil, &DefinedError{Kind: KindVariable, Key: name, Existing: cur.path}
	}
	newPath := appendPath(cur.path, DefPathComponent{Kind: KindVariable, Name: name})
	st.variables = append(st.variables, VariableSymbol{Path: newPath, Name: name, Type: typ})
	idx := len(st.variables) - 1
	st.setChildIndex(c, KindVariable, name, idx)
	newPath[len(newPath)-1].index = idx
	return newPath, nil
}

// InsertScope inserts a fresh nested Scope under the cursor's current
// container (a Function or another Scope), auto-assigning its index.
func (st *SymbolTable) InsertScope(cur *Cursor) (DefPath, error) {
	c := st.resolveContainer(cur.path)
	var index int
	switch c.kind {
	case KindFunction:
		f := &st.functions[c.index]
		index = f.nextScope
		f.nextScope++
	case KindScope:
		s := &st.scopes[c.index]
		index = s.nextScope
		s.nextScope++
	default:
		return nil, &InvalidOwnershipError{Parent: c.kind, Child: KindScope}
	}
	comp := DefPathComponent{Kind: KindScope, ScopeIndex: index}
	newPath := appendPath(cur.path, comp)
	st.scopes = append(st.scopes, *newScopeSymbol(newPath, index))
	idx := len(st.scopes) - 1
	st.setChildIndex(c, KindScope, comp.Key(), idx)
	newPath[len(newPath)-1].index = idx
	return newPath, nil
}

// InsertBasicBlock inserts a BasicBlockSymbol under the cursor's current
// container (a Function or Scope), keyed by its integer label.
func (st *SymbolTable) InsertBasicBlock(cur *Cursor, label int) (DefPath, error) {
	c := st.resolveContainer(cur.path)
	comp := DefPathComponent{Kind: KindBasicBlock, Label: label}
	if _, ok := st.childIndex(c, KindBasicBlock, comp.Key()); ok {
		return nil, &DefinedError{Kind: KindBasicBlock, Key: comp.Key(), Existing: cur.path}
	}
	newPath := appendPath(cur.path, comp)
	st.blocks = append(st.blocks, BasicBlockSymbol{Path: newPath, Label: label})
	idx := len(st.blocks) - 1
	st.setChildIndex(c, KindBasicBlock, comp.Key(), idx)
	newPath[len(newPath)-1].index = idx
	return newPath, nil
}
