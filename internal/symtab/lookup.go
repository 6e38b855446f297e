package symtab

// ancestorContainers yields the container for path, then for each
// successively shorter prefix, ending at the root module. This is the
// upward walk of spec.md §4.1's resolution order.
func (st *SymbolTable) ancestorContainers(path DefPath) []container {
	out := make([]container, 0, len(path)+1)
	for i := len(path); i >= 0; i-- {
		out = append(out, st.resolveContainer(path[:i]))
	}
	return out
}

// LookupVariable resolves name by walking from cur's current def-path
// outward to the root, then falling back to the intrinsics module.
func (st *SymbolTable) LookupVariable(cur *Cursor, name string) (*VariableSymbol, DefPath, error) {
	for _, c := range st.ancestorContainers(cur.path) {
		if idx, ok := st.childIndex(c, KindVariable, name); ok {
			return &st.variables[idx], st.variables[idx].Path, nil
		}
	}
	if idx, ok := st.intrinsics.Variables[name]; ok {
		return &st.variables[idx], st.variables[idx].Path, nil
	}
	return nil, nil, &UndefinedError{Kind: KindVariable, Key: name}
}

// LookupFunction resolves a free function name by the same upward walk,
// including the intrinsics fallback (so primitive operations resolve).
func (st *SymbolTable) LookupFunction(cur *Cursor, name string) (*FunctionSymbol, DefPath, error) {
	for _, c := range st.ancestorContainers(cur.path) {
		if idx, ok := st.childIndex(c, KindFunction, name); ok {
			return &st.functions[idx], st.functions[idx].Path, nil
		}
	}
	if idx, ok := st.intrinsics.Functions[name]; ok {
		return &st.functions[idx], st.functions[idx].Path, nil
	}
	return nil, nil, &UndefinedError{Kind: KindFunction, Key: name}
}

// LookupType resolves a type name by the same upward walk.
func (st *SymbolTable) LookupType(cur *Cursor, key string) (*TypeSymbol, DefPath, error) {
	for _, c := range st.ancestorContainers(cur.path) {
		if idx, ok := st.childIndex(c, KindType, key); ok {
			return &st.typeSyms[idx], st.typeSyms[idx].Path, nil
		}
	}
	return nil, nil, &UndefinedError{Kind: KindType, Key: key}
}

// LookupModule resolves a module name by the same upward walk.
func (st *SymbolTable) LookupModule(cur *Cursor, name string) (*ModuleSymbol, DefPath, error) {
	for _, c := range st.ancestorContainers(cur.path) {
		if idx, ok := st.childIndex(c, KindModule, name); ok {
			return &st.modules[idx], st.modules[idx].Path, nil
		}
	}
	return nil, nil, &UndefinedError{Kind: KindModule, Key: name}
}

// LookupAtVariable resolves name within exactly the container named by
// path, without walking to ancestors.
func (st *SymbolTable) LookupAtVariable(path DefPath, name string) (*VariableSymbol, error) {
	c := st.resolveContainer(path)
	idx, ok := st.childIndex(c, KindVariable, name)
	if !ok {
		return nil, &UndefinedError{Kind: KindVariable, Key: name}
	}
	return &st.variables[idx], nil
}

// LookupAtFunction resolves name within exactly the container named by
// path, without walking to ancestors. Used by LookupImplementedFunction
// once the receiver type's def-path is known.
func (st *SymbolTable) LookupAtFunction(path DefPath, name string) (*FunctionSymbol, error) {
	c := st.resolveContainer(path)
	idx, ok := st.childIndex(c, KindFunction, name)
	if !ok {
		return nil, &UndefinedError{Kind: KindFunction, Key: name}
	}
	return &st.functions[idx], nil
}

// TypeSymbolAt returns the TypeSymbol at exactly path (path must name a
// Type component).
func (st *SymbolTable) TypeSymbolAt(path DefPath) (*TypeSymbol, bool) {
	if len(path) == 0 {
		return nil, false
	}
	last := path[len(path)-1]
	if last.Kind != KindType {
		return nil, false
	}
	return &st.typeSyms[last.index], true
}

// LookupImplementedFunction resolves receiver's TypeDefinition def-path,
// then looks up name as a Function directly owned by that type, per
// spec.md §4.1.
func (st *SymbolTable) LookupImplementedFunction(cur *Cursor, receiverKey string, name string) (*FunctionSymbol, error) {
	typeSym, typePath, err := st.LookupType(cur, receiverKey)
	if err != nil {
		return nil, err
	}
	_ = typeSym
	return st.LookupAtFunction(typePath, name)
}

// FunctionAt, ScopeAt, BlockAt, VariableAt, ModuleAt return the symbol at an
// exact, already-resolved def-path (its last component's stamped index is
// trusted directly).
func (st *SymbolTable) FunctionAt(path DefPath) (*FunctionSymbol, bool) {
	if len(path) == 0 || path[len(path)-1].Kind != KindFunction {
		return nil, false
	}
	return &st.functions[path[len(path)-1].index], true
}

func (st *SymbolTable) ScopeAt(path DefPath) (*ScopeSymbol, bool) {
	if len(path) == 0 || path[len(path)-1].Kind != KindScope {
		return nil, false
	}
	return &st.scopes[path[len(path)-1].index], true
}

func (st *SymbolTable) VariableAt(path DefPath) (*VariableSymbol, bool) {
	if len(path) == 0 || path[len(path)-1].Kind != KindVariable {
		return nil, false
	}
	return &st.variables[path[len(path)-1].index], true
}

func (st *SymbolTable) ModuleAt(path DefPath) (*ModuleSymbol, bool) {
	if len(path) == 0 {
		return &st.modules[rootIndex], true
	}
	if path[len(path)-1].Kind != KindModule {
		return nil, false
	}
	return &st.modules[path[len(path)-1].index], true
}
