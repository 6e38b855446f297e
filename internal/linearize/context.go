package linearize

import (
	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/symtab"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// DefContext pairs a SymbolTable with the cursor tracking where the walk
// currently is, per spec.md §4.3's single-pass declare-and-walk design:
// there is no separate semantic-analysis phase, so every item the
// linearizer visits is declared into the symbol table and walked for IR in
// the same step, with DefContext carrying the cursor across both.
type DefContext struct {
	Symbols *symtab.SymbolTable
	Cursor  *symtab.Cursor
}

// NewDefContext starts a walk at the symbol table's root module.
func NewDefContext(symbols *symtab.SymbolTable) *DefContext {
	return &DefContext{Symbols: symbols, Cursor: symtab.NewCursor()}
}

// pushInto advances the cursor onto path's last component, carrying
// generics into scope alongside it. Shared by every PushX below.
func (dc *DefContext) pushInto(path symtab.DefPath, generics []string) (symtab.DefPath, error) {
	last := path[len(path)-1]
	if err := dc.Cursor.PushDefPath(last, generics); err != nil {
		return nil, err
	}
	return path, nil
}

// PushModule declares and enters a nested module.
func (dc *DefContext) PushModule(name string) (symtab.DefPath, error) {
	path, err := dc.Symbols.InsertModule(dc.Cursor, name)
	if err != nil {
		return nil, err
	}
	return dc.pushInto(path, nil)
}

// PushType declares and enters a struct or enum type, interning its
// representation. Returns the new def-path and the type's Semantic id.
func (dc *DefContext) PushType(syntax types.Syntactic, def types.TypeDefinition, generics []string) (symtab.DefPath, types.Semantic, error) {
	path, sem, err := dc.Symbols.InsertType(dc.Cursor, syntax, def, generics)
	if err != nil {
		return nil, types.Invalid, err
	}
	newPath, err := dc.pushInto(path, generics)
	if err != nil {
		return nil, types.Invalid, err
	}
	return newPath, sem, nil
}

// PushFunction declares and enters a function or method body.
func (dc *DefContext) PushFunction(proto symtab.FunctionPrototype, generics []string, isMethod bool) (symtab.DefPath, error) {
	path, err := dc.Symbols.InsertFunction(dc.Cursor, proto, generics, isMethod)
	if err != nil {
		return nil, err
	}
	return dc.pushInto(path, generics)
}

// PushScope declares and enters a fresh lexical scope.
func (dc *DefContext) PushScope() (symtab.DefPath, error) {
	path, err := dc.Symbols.InsertScope(dc.Cursor)
	if err != nil {
		return nil, err
	}
	return dc.pushInto(path, nil)
}

// Pop leaves the innermost entered container, restoring the cursor to its
// parent def-path.
func (dc *DefContext) Pop() {
	dc.Cursor.PopDefPath()
}

// FunctionWalkContext is a DefContext plus the per-function IR-construction
// state the linearizer threads through one function body's walk: the
// control-flow graph under construction, its value interner, and the
// BlockManager driving branch/loop bookkeeping (spec.md §4.3/§4.4).
type FunctionWalkContext struct {
	*DefContext

	CF     *ir.ControlFlow
	Values *ir.Interner
	Blocks *BlockManager

	// locals maps a variable's def-path string to the ValueId bound to it,
	// so an Identifier expression can turn a symtab lookup (which only knows
	// the path) back into the ValueId the IR actually reads and writes.
	locals map[string]ir.ValueId
}

// NewFunctionWalkContext starts walking one function's body, already
// positioned (via dc) inside that function's def-path.
func NewFunctionWalkContext(dc *DefContext) *FunctionWalkContext {
	cf := ir.NewControlFlow()
	return &FunctionWalkContext{
		DefContext: dc,
		CF:         cf,
		Values:     ir.NewInterner(),
		Blocks:     NewBlockManager(cf),
		locals:     map[string]ir.ValueId{},
	}
}

// BindLocal declares name as a variable in the current lexical scope and
// interns a matching IR value for it, returning the ValueId the rest of the
// walk should use for reads and writes of this binding.
func (fc *FunctionWalkContext) BindLocal(name string, typ types.Semantic) (ir.ValueId, error) {
	path, err := fc.Symbols.InsertVariable(fc.Cursor, name, typ)
	if err != nil {
		return 0, err
	}
	id := fc.Values.NewVariable(path, typ)
	fc.locals[path.String()] = id
	return id, nil
}

// BindArgument declares name as the index'th function argument: a symtab
// variable backed by an IR argument value rather than a plain variable, so
// the body reads it like any other local while the register allocator still
// sees it as an incoming argument.
func (fc *FunctionWalkContext) BindArgument(name string, index int, typ types.Semantic) (ir.ValueId, error) {
	path, err := fc.Symbols.InsertVariable(fc.Cursor, name, typ)
	if err != nil {
		return 0, err
	}
	id := fc.Values.NewArgument(index, typ)
	fc.locals[path.String()] = id
	return id, nil
}

// ResolveLocal looks up the ValueId bound to a variable's def-path, as
// found by a prior symtab lookup.
func (fc *FunctionWalkContext) ResolveLocal(path symtab.DefPath) (ir.ValueId, bool) {
	id, ok := fc.locals[path.String()]
	return id, ok
}

// EnterLexicalScope opens both a symtab Scope and the CFG's unconditional
// sub-block for a `{ ... }` block expression (spec.md §4.3's table: every
// braced block is its own scope and its own basic block).
func (fc *FunctionWalkContext) EnterLexicalScope(loc ir.SourceLoc) error {
	if _, err := fc.PushScope(); err != nil {
		return err
	}
	_, err := fc.Blocks.CreateUnconditionalBranch(loc)
	return err
}

// ExitLexicalScope closes the innermost lexical scope opened by
// EnterLexicalScope, converging its CFG sub-block and popping the cursor.
// Returns the convergence target and whether it is fully resolved, exactly
// as BlockManager.FinishBranch does.
func (fc *FunctionWalkContext) ExitLexicalScope(loc ir.SourceLoc) (target int, done bool, err error) {
	target, done, err = fc.Blocks.FinishBranch(loc)
	fc.Pop()
	return target, done, err
}
