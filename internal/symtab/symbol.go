package symtab

import "github.com/msiegel/substratum-sub000/internal/types"

// ModuleSymbol is a namespace holding nested modules, types, functions, and
// module-level variables.
type ModuleSymbol struct {
	Name string
	Path DefPath

	Modules   map[string]int
	Types     map[string]int
	Functions map[string]int
	Variables map[string]int
}

func newModuleSymbol(name string, path DefPath) *ModuleSymbol {
	return &ModuleSymbol{
		Name:      name,
		Path:      path,
		Modules:   map[string]int{},
		Types:     map[string]int{},
		Functions: map[string]int{},
		Variables: map[string]int{},
	}
}

// TypeSymbol is a struct or enum definition. It owns the methods and
// associated functions declared in its impl blocks.
type TypeSymbol struct {
	Path          DefPath
	Semantic      types.Semantic
	GenericParams []string

	Functions map[string]int
}

func newTypeSymbol(path DefPath, sem types.Semantic, generics []string) *TypeSymbol {
	return &TypeSymbol{
		Path:          path,
		Semantic:      sem,
		GenericParams: generics,
		Functions:     map[string]int{},
	}
}

// FunctionSymbol is a function or method, owning the scopes, variables, and
// basic blocks of its body.
type FunctionSymbol struct {
	Path          DefPath
	Proto         FunctionPrototype
	GenericParams []string
	IsMethod      bool

	Scopes    map[string]int
	Variables map[string]int
	Blocks    map[string]int

	nextScope int
}

func newFunctionSymbol(path DefPath, proto FunctionPrototype, generics []string) *FunctionSymbol {
	return &FunctionSymbol{
		Path:          path,
		Proto:         proto,
		GenericParams: generics,
		Scopes:        map[string]int{},
		Variables:     map[string]int{},
		Blocks:        map[string]int{},
	}
}

// ScopeSymbol is a lexical scope nested within a function or another scope.
type ScopeSymbol struct {
	Path  DefPath
	Index int

	Scopes    map[string]int
	Variables map[string]int
	Blocks    map[string]int
	Types     map[string]int

	nextScope int
}

func newScopeSymbol(path DefPath, index int) *ScopeSymbol {
	return &ScopeSymbol{
		Path:      path,
		Index:     index,
		Scopes:    map[string]int{},
		Variables: map[string]int{},
		Blocks:    map[string]int{},
		Types:     map[string]int{},
	}
}

// VariableSymbol is a named user variable or compiler-generated temporary
// inserted as a Variable so the register allocator and SSA passes see both
// uniformly.
type VariableSymbol struct {
	Path DefPath
	Name string
	Type types.Semantic // types.Invalid if unresolved
}

// BasicBlockSymbol names a basic block within the owning function's or
// scope's namespace.
type BasicBlockSymbol struct {
	Path  DefPath
	Label int
}
