package linearize

import (
	"testing"

	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/symtab"
	"github.com/msiegel/substratum-sub000/internal/types"
)

type fakeTarget struct{ word int }

func (f fakeTarget) WordSize() int { return f.word }

func u32(dc *DefContext) types.Semantic {
	id, err := dc.Symbols.ResolveType(dc.Cursor, types.UnsignedInt{Size: types.Size32})
	if err != nil {
		panic(err)
	}
	return id
}

func TestPushModulePositionsCursorInsideIt(t *testing.T) {
	dc := NewDefContext(symtab.New(fakeTarget{word: 8}))
	path, err := dc.PushModule("shapes")
	if err != nil {
		t.Fatal(err)
	}
	if got := dc.Cursor.Path().String(); got != path.String() {
		t.Errorf("cursor should be positioned at the new module, got %q want %q", got, path.String())
	}
}

func TestPushFunctionThenPopRestoresCursor(t *testing.T) {
	dc := NewDefContext(symtab.New(fakeTarget{word: 8}))
	before := dc.Cursor.Path().String()

	proto := symtab.FunctionPrototype{Name: "area", ReturnType: types.UnsignedInt{Size: types.Size32}}
	if _, err := dc.PushFunction(proto, nil, false); err != nil {
		t.Fatal(err)
	}
	dc.Pop()

	if got := dc.Cursor.Path().String(); got != before {
		t.Errorf("Pop should restore the cursor to %q, got %q", before, got)
	}
}

func TestPushTypeInternsAndRejectsDuplicate(t *testing.T) {
	dc := NewDefContext(symtab.New(fakeTarget{word: 8}))
	syntax := types.Named{Name: "Point"}
	def := types.TypeDefinition{Syntax: syntax, Repr: types.TypeRepr{Kind: types.ReprStruct, Name: "Point"}}

	path, sem, err := dc.PushType(syntax, def, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sem == types.Invalid {
		t.Error("PushType should intern a non-Invalid Semantic id")
	}
	dc.Pop()

	if _, _, err := dc.PushType(syntax, def, nil); err == nil {
		t.Errorf("re-declaring %s should error", path)
	}
}

func TestBindLocalInternsMatchingValue(t *testing.T) {
	dc := NewDefContext(symtab.New(fakeTarget{word: 8}))
	proto := symtab.FunctionPrototype{Name: "f"}
	if _, err := dc.PushFunction(proto, nil, false); err != nil {
		t.Fatal(err)
	}
	fc := NewFunctionWalkContext(dc)

	typ := u32(dc)
	id, err := fc.BindLocal("x", typ)
	if err != nil {
		t.Fatal(err)
	}
	val, ok := fc.Values.Lookup(id)
	if !ok {
		t.Fatal("BindLocal's ValueId should be looked up in the function's interner")
	}
	if val.Kind != ir.KindVariable || val.Type != typ {
		t.Errorf("bound value should be a Variable of type %v, got kind=%v type=%v", typ, val.Kind, val.Type)
	}

	if _, _, err := dc.Symbols.LookupVariable(dc.Cursor, "x"); err != nil {
		t.Errorf("x should resolve in the symbol table after BindLocal: %v", err)
	}
}

func TestEnterExitLexicalScopeOpensAndConvergesOneBlock(t *testing.T) {
	dc := NewDefContext(symtab.New(fakeTarget{word: 8}))
	proto := symtab.FunctionPrototype{Name: "f"}
	if _, err := dc.PushFunction(proto, nil, false); err != nil {
		t.Fatal(err)
	}
	fc := NewFunctionWalkContext(dc)

	entry := fc.CF.Current().Label
	if err := fc.EnterLexicalScope(ir.SourceLoc{}); err != nil {
		t.Fatal(err)
	}
	body := fc.CF.Current().Label
	if body == entry {
		t.Fatal("entering a lexical scope should open a fresh block")
	}

	target, done, err := fc.ExitLexicalScope(ir.SourceLoc{})
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("a single-source scope convergence should be immediately done")
	}
	if target != fc.CF.Current().Label {
		t.Error("current should move to the convergence target after exiting the scope")
	}

	if _, ok := dc.Symbols.ScopeAt(dc.Cursor.Path()); ok {
		t.Error("cursor should no longer be positioned inside the exited scope")
	}
}
