package linearize

import (
	"fmt"
	"strings"

	"github.com/msiegel/substratum-sub000/internal/ast"
	"github.com/msiegel/substratum-sub000/internal/diag"
	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/symtab"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// Result is one function's linearized output: its declared prototype, the
// control-flow graph built for its body, the interner backing every value
// referenced in that graph, and the operand its body evaluates to (the
// function's return value, before any return-lowering downstream passes do).
type Result struct {
	Path        symtab.DefPath
	Proto       symtab.FunctionPrototype
	CF          *ir.ControlFlow
	Values      *ir.Interner
	ReturnValue ir.Operand
}

// Linearizer walks one parsed file's items, declaring each into the symbol
// table and linearizing every function body into IR in the same pass
// (spec.md §4.3: no separate semantic-analysis phase). Non-fatal problems
// (undefined names, duplicate declarations, missing fields or variants,
// field access or destructuring on the wrong kind of type) are recorded
// into Diagnostics and the walk continues past them with a best-effort
// placeholder; internal invariant violations (BlockManager misuse, invalid
// ownership) are returned as errors that abort the walk.
type Linearizer struct {
	*DefContext

	Diagnostics *diag.Buffer
	Results     []*Result

	moduleStack []string
}

// NewLinearizer starts a walk over a fresh symbol table.
func NewLinearizer(symbols *symtab.SymbolTable, diags *diag.Buffer) *Linearizer {
	return &Linearizer{DefContext: NewDefContext(symbols), Diagnostics: diags}
}

// LinearizeFile walks every item of file, appending one Result per function
// body encountered (including methods and associated functions).
func (lz *Linearizer) LinearizeFile(file *ast.File) error {
	for _, item := range file.Items {
		if err := lz.walkItem(item, nil); err != nil {
			return err
		}
	}
	return nil
}

func (lz *Linearizer) loc(n ast.Node) ir.SourceLoc {
	p := n.Pos()
	return ir.SourceLoc{
		File:   p.Filename,
		Line:   p.Line,
		Column: p.Column,
		Module: strings.Join(lz.moduleStack, "::"),
	}
}

func (lz *Linearizer) unitType() types.Semantic {
	id, _ := lz.Symbols.ResolveType(lz.Cursor, types.Unit{})
	return id
}

func (lz *Linearizer) defaultIntType() types.Semantic {
	id, _ := lz.Symbols.ResolveType(lz.Cursor, types.UnsignedInt{Size: types.Size32})
	return id
}

// --- items ---

// walkItem dispatches one item. selfType is the enclosing impl block's
// receiver type (nil outside an impl), substituted for every occurrence of
// Self in the item's own signature.
func (lz *Linearizer) walkItem(item ast.Item, selfType types.Syntactic) error {
	switch d := item.(type) {
	case *ast.ModuleDecl:
		return lz.walkModule(d)
	case *ast.StructDecl:
		return lz.walkStruct(d)
	case *ast.EnumDecl:
		return lz.walkEnum(d)
	case *ast.ImplDecl:
		return lz.walkImpl(d)
	case *ast.FunctionDecl:
		return lz.walkFunction(d, false, selfType)
	default:
		return diag.Fatal(fmt.Errorf("unhandled item type %T", item), "walking item")
	}
}

func (lz *Linearizer) walkModule(d *ast.ModuleDecl) error {
	if _, err := lz.PushModule(d.Name); err != nil {
		lz.Diagnostics.Push(&diag.Defined{Kind: "module", Key: d.Name, NewLoc: d.Loc})
		return nil
	}
	lz.moduleStack = append(lz.moduleStack, d.Name)

	for _, item := range d.Items {
		if err := lz.walkItem(item, nil); err != nil {
			lz.moduleStack = lz.moduleStack[:len(lz.moduleStack)-1]
			lz.Pop()
			return err
		}
	}

	lz.moduleStack = lz.moduleStack[:len(lz.moduleStack)-1]
	lz.Pop()
	return nil
}

// walkStruct resolves each field's type, then interns the struct's
// representation and computes its layout. Field types may reference the
// struct's own generic parameters, which is why they are resolved inside a
// PushGenericScope/PopGenericScope bracket taken before the struct itself
// has a def-path component to push (see Cursor.PushGenericScope).
func (lz *Linearizer) walkStruct(d *ast.StructDecl) error {
	if err := lz.Cursor.PushGenericScope(d.Generics); err != nil {
		return diag.Fatal(err, fmt.Sprintf("declaring struct %s", d.Name))
	}
	fields := make([]types.StructField, len(d.Fields))
	for i, f := range d.Fields {
		sem, err := lz.Symbols.ResolveType(lz.Cursor, f.Type)
		if err != nil {
			lz.Diagnostics.Push(&diag.Undefined{Kind: "type", Key: f.Type.String(), Loc: d.Loc})
			sem = types.Invalid
		}
		fields[i] = types.StructField{Name: f.Name, Type: sem}
	}
	lz.Cursor.PopGenericScope()

	syntax := types.Named{Name: d.Name}
	def := types.TypeDefinition{
		Syntax: syntax,
		Repr:   types.TypeRepr{Kind: types.ReprStruct, Name: d.Name, GenericParams: d.Generics, Fields: fields},
	}
	_, sem, err := lz.PushType(syntax, def, d.Generics)
	if err != nil {
		lz.Diagnostics.Push(&diag.Defined{Kind: "struct", Key: d.Name, NewLoc: d.Loc})
		return nil
	}
	if err := lz.Symbols.Types.ComputeLayout(sem); err != nil {
		lz.Pop()
		return diag.Fatal(err, fmt.Sprintf("computing layout for struct %s", d.Name))
	}
	lz.Pop()
	return nil
}

func (lz *Linearizer) walkEnum(d *ast.EnumDecl) error {
	if err := lz.Cursor.PushGenericScope(d.Generics); err != nil {
		return diag.Fatal(err, fmt.Sprintf("declaring enum %s", d.Name))
	}
	variants := make([]types.Variant, len(d.Variants))
	for i, v := range d.Variants {
		variant := types.Variant{Name: v.Name}
		if v.Payload != nil {
			sem, err := lz.Symbols.ResolveType(lz.Cursor, v.Payload)
			if err != nil {
				lz.Diagnostics.Push(&diag.Undefined{Kind: "type", Key: v.Payload.String(), Loc: d.Loc})
				sem = types.Invalid
			}
			variant.Payload = v.Payload
			variant.PayloadResolved = sem
		}
		variants[i] = variant
	}
	lz.Cursor.PopGenericScope()

	syntax := types.Named{Name: d.Name}
	def := types.TypeDefinition{
		Syntax: syntax,
		Repr:   types.TypeRepr{Kind: types.ReprEnum, Name: d.Name, GenericParams: d.Generics, Variants: variants},
	}
	if _, _, err := lz.PushType(syntax, def, d.Generics); err != nil {
		lz.Diagnostics.Push(&diag.Defined{Kind: "enum", Key: d.Name, NewLoc: d.Loc})
		return nil
	}
	lz.Pop()
	return nil
}

// walkImpl positions the cursor inside the type named by d.ForType (already
// declared by a prior StructDecl/EnumDecl) and walks every method/associated
// function in the block with Self bound to that type.
func (lz *Linearizer) walkImpl(d *ast.ImplDecl) error {
	named, ok := d.ForType.(types.Named)
	if !ok {
		return diag.Fatal(fmt.Errorf("impl target %s is not a named type", d.ForType), "walking impl block")
	}
	key := named.Name
	_, typePath, err := lz.Symbols.LookupType(lz.Cursor, key)
	if err != nil {
		lz.Diagnostics.Push(&diag.Undefined{Kind: "type", Key: key, Loc: d.Loc})
		return nil
	}
	if err := lz.Cursor.PushDefPath(typePath[len(typePath)-1], d.Generics); err != nil {
		return diag.Fatal(err, fmt.Sprintf("entering impl block for %s", key))
	}

	for _, fn := range d.Functions {
		if err := lz.walkFunction(fn, true, d.ForType); err != nil {
			lz.Cursor.PopDefPath()
			return err
		}
	}

	lz.Cursor.PopDefPath()
	return nil
}

// selfParamType returns the syntactic type a `self` parameter of the given
// kind binds to, relative to the enclosing impl's receiver type.
func selfParamType(kind ast.SelfKind, selfType types.Syntactic) types.Syntactic {
	switch kind {
	case ast.SelfByRef:
		return types.Reference{Mut: types.Immutable, Of: selfType}
	case ast.SelfByRefMut:
		return types.Reference{Mut: types.Mutable, Of: selfType}
	default:
		return selfType
	}
}

// substituteSelf recursively replaces every occurrence of Self in t with
// self, per symtab.ResolveType's contract that Self must already be gone by
// the time a syntactic type reaches it.
func substituteSelf(t types.Syntactic, self types.Syntactic) types.Syntactic {
	if t == nil || self == nil {
		return t
	}
	switch s := t.(type) {
	case types.SelfType:
		return self
	case types.Reference:
		return types.Reference{Mut: s.Mut, Of: substituteSelf(s.Of, self)}
	case types.Pointer:
		return types.Pointer{Mut: s.Mut, Of: substituteSelf(s.Of, self)}
	case types.Tuple:
		elems := make([]types.Syntactic, len(s.Elems))
		for i, e := range s.Elems {
			elems[i] = substituteSelf(e, self)
		}
		return types.Tuple{Elems: elems}
	case types.Named:
		if len(s.Args) == 0 {
			return s
		}
		args := make([]types.Syntactic, len(s.Args))
		for i, a := range s.Args {
			args[i] = substituteSelf(a, self)
		}
		return types.Named{Name: s.Name, Args: args}
	default:
		return t
	}
}

// walkFunction declares d and linearizes its body. selfType is nil for a
// free function; for a method or associated function it is the impl
// block's receiver type.
func (lz *Linearizer) walkFunction(d *ast.FunctionDecl, isMethod bool, selfType types.Syntactic) error {
	argTypes := make([]types.Syntactic, len(d.Params))
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		if p.Self != ast.NotSelf {
			argTypes[i] = selfParamType(p.Self, selfType)
			names[i] = "self"
			continue
		}
		argTypes[i] = substituteSelf(p.Type, selfType)
		names[i] = p.Name
	}

	var retType types.Syntactic = types.Unit{}
	if d.ReturnType != nil {
		retType = substituteSelf(d.ReturnType, selfType)
	}

	proto := symtab.FunctionPrototype{Name: d.Name, ArgTypes: argTypes, ReturnType: retType}
	if _, err := lz.PushFunction(proto, d.Generics, isMethod); err != nil {
		lz.Diagnostics.Push(&diag.Defined{Kind: "function", Key: d.Name, NewLoc: d.Loc})
		return nil
	}

	fc := NewFunctionWalkContext(lz.DefContext)
	for i, t := range argTypes {
		sem, err := lz.Symbols.ResolveType(lz.Cursor, t)
		if err != nil {
			lz.Diagnostics.Push(&diag.Undefined{Kind: "type", Key: t.String(), Loc: d.Loc})
			sem = types.Invalid
		}
		if _, err := fc.BindArgument(names[i], i, sem); err != nil {
			lz.Diagnostics.Push(&diag.Defined{Kind: "variable", Key: names[i], NewLoc: d.Loc})
		}
	}

	returnOp, _, err := lz.walkStmtsAndTail(fc, d.Body.Stmts, d.Body.Tail)
	if err != nil {
		lz.Pop()
		return err
	}

	lz.Results = append(lz.Results, &Result{
		Path:        lz.Cursor.Path(),
		Proto:       proto,
		CF:          fc.CF,
		Values:      fc.Values,
		ReturnValue: returnOp,
	})

	lz.Pop()
	return nil
}

// --- statements and blocks ---

func (lz *Linearizer) walkStmt(fc *FunctionWalkContext, s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		return lz.walkLet(fc, st)
	case *ast.ExprStmt:
		_, _, err := lz.walkExpr(fc, st.Expr)
		return err
	default:
		return diag.Fatal(fmt.Errorf("unhandled statement type %T", s), "walking statement")
	}
}

func (lz *Linearizer) walkLet(fc *FunctionWalkContext, st *ast.LetStmt) error {
	var declaredType types.Semantic = types.Invalid
	haveDeclaredType := false
	if st.Type != nil {
		sem, err := lz.Symbols.ResolveType(lz.Cursor, st.Type)
		if err != nil {
			lz.Diagnostics.Push(&diag.Undefined{Kind: "type", Key: st.Type.String(), Loc: st.Loc})
		} else {
			declaredType, haveDeclaredType = sem, true
		}
	}

	initOp := ir.ValueOperand(ir.UnitValue)
	initType := lz.unitType()
	if st.Init != nil {
		var err error
		initOp, initType, err = lz.walkExpr(fc, st.Init)
		if err != nil {
			return err
		}
	}

	typ := initType
	if haveDeclaredType {
		typ = declaredType
	}

	id, err := fc.BindLocal(st.Name, typ)
	if err != nil {
		lz.Diagnostics.Push(&diag.Defined{Kind: "variable", Key: st.Name, NewLoc: st.Loc})
		return nil
	}
	fc.CF.Current().Append(lz.loc(st), &ir.Assignment{Dest: id, Source: initOp})
	return nil
}

// walkStmtsAndTail walks a sequence of statements followed by an optional
// tail expression, in whatever scope and basic block is already current. It
// does not itself open a lexical scope or a CFG block: the function body's
// top level is already scoped by the function, and an if/while/match arm's
// body is already its own basic block by the time this is called.
func (lz *Linearizer) walkStmtsAndTail(fc *FunctionWalkContext, stmts []ast.Stmt, tail ast.Expr) (ir.Operand, types.Semantic, error) {
	for _, s := range stmts {
		if err := lz.walkStmt(fc, s); err != nil {
			return ir.Operand{}, types.Invalid, err
		}
	}
	if tail == nil {
		return ir.ValueOperand(ir.UnitValue), lz.unitType(), nil
	}
	return lz.walkExpr(fc, tail)
}

// walkBranchBody walks a `{ ... }` block that is already its own basic
// block (an if/while arm), pushing only a symtab scope for the names it
// declares — spec.md §4.3's "every braced block is its own scope", with the
// "own basic block" half already provided by the branch that opened it.
func (lz *Linearizer) walkBranchBody(fc *FunctionWalkContext, b *ast.BlockExpr) (ir.Operand, types.Semantic, error) {
	if _, err := lz.PushScope(); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "entering branch scope")
	}
	op, typ, err := lz.walkStmtsAndTail(fc, b.Stmts, b.Tail)
	lz.Pop()
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	return op, typ, nil
}

// walkBlockExpr walks a bare nested `{ ... }` used as an expression in its
// own right (not an if/while/match arm): it opens both its own scope and
// its own CFG sub-block via FunctionWalkContext.EnterLexicalScope.
func (lz *Linearizer) walkBlockExpr(fc *FunctionWalkContext, b *ast.BlockExpr) (ir.Operand, types.Semantic, error) {
	loc := lz.loc(b)
	if err := fc.EnterLexicalScope(loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "entering block")
	}
	op, typ, err := lz.walkStmtsAndTail(fc, b.Stmts, b.Tail)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	if _, _, err := fc.ExitLexicalScope(loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "exiting block")
	}
	return op, typ, nil
}

// --- expressions ---

func convertBinaryOp(op ast.BinaryOp) ir.BinaryOp {
	switch op {
	case ast.Add:
		return ir.Add
	case ast.Sub:
		return ir.Sub
	case ast.Mul:
		return ir.Mul
	case ast.Div:
		return ir.Div
	case ast.LT:
		return ir.LT
	case ast.GT:
		return ir.GT
	case ast.LE:
		return ir.LE
	case ast.GE:
		return ir.GE
	case ast.EQ:
		return ir.EQ
	default:
		return ir.NE
	}
}

func (lz *Linearizer) walkExpr(fc *FunctionWalkContext, e ast.Expr) (ir.Operand, types.Semantic, error) {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		typ := lz.defaultIntType()
		return ir.ValueOperand(fc.Values.NewConstant(ex.Value, typ)), typ, nil

	case *ast.Identifier:
		return lz.walkIdentifier(fc, ex)

	case *ast.BinaryExpr:
		return lz.walkBinary(fc, ex)

	case *ast.AssignExpr:
		return lz.walkAssign(fc, ex)

	case *ast.FieldExpr:
		return lz.walkFieldRead(fc, ex)

	case *ast.CallExpr:
		return lz.walkCall(fc, ex)

	case *ast.MethodCallExpr:
		return lz.walkMethodCall(fc, ex)

	case *ast.IfExpr:
		return lz.walkIf(fc, ex)

	case *ast.WhileExpr:
		return lz.walkWhile(fc, ex)

	case *ast.MatchExpr:
		return lz.walkMatch(fc, ex)

	case *ast.BlockExpr:
		return lz.walkBlockExpr(fc, ex)

	default:
		return ir.Operand{}, types.Invalid, diag.Fatal(fmt.Errorf("unhandled expression type %T", e), "walking expression")
	}
}

func (lz *Linearizer) walkIdentifier(fc *FunctionWalkContext, e *ast.Identifier) (ir.Operand, types.Semantic, error) {
	v, path, err := lz.Symbols.LookupVariable(lz.Cursor, e.Name)
	if err != nil {
		lz.Diagnostics.Push(&diag.Undefined{Kind: "variable", Key: e.Name, Loc: e.Loc})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}
	id, ok := fc.ResolveLocal(path)
	if !ok {
		return ir.Operand{}, types.Invalid, diag.Fatal(
			fmt.Errorf("variable %s resolves to %s but has no bound IR value", e.Name, path), "resolving identifier")
	}
	return ir.ValueOperand(id), v.Type, nil
}

func (lz *Linearizer) walkBinary(fc *FunctionWalkContext, e *ast.BinaryExpr) (ir.Operand, types.Semantic, error) {
	leftOp, leftTyp, err := lz.walkExpr(fc, e.Left)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	rightOp, _, err := lz.walkExpr(fc, e.Right)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	dest := fc.Values.NewTemporary(leftTyp)
	fc.CF.Current().Append(lz.loc(e), &ir.BinaryOperation{Op: convertBinaryOp(e.Op), Dest: dest, A: leftOp, B: rightOp})
	return ir.ValueOperand(dest), leftTyp, nil
}

func (lz *Linearizer) walkAssign(fc *FunctionWalkContext, e *ast.AssignExpr) (ir.Operand, types.Semantic, error) {
	rhsOp, rhsTyp, err := lz.walkExpr(fc, e.Value)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}

	switch target := e.Target.(type) {
	case *ast.Identifier:
		_, path, err := lz.Symbols.LookupVariable(lz.Cursor, target.Name)
		if err != nil {
			lz.Diagnostics.Push(&diag.Undefined{Kind: "variable", Key: target.Name, Loc: target.Loc})
			return rhsOp, rhsTyp, nil
		}
		id, ok := fc.ResolveLocal(path)
		if !ok {
			return ir.Operand{}, types.Invalid, diag.Fatal(
				fmt.Errorf("variable %s resolves to %s but has no bound IR value", target.Name, path), "resolving assignment target")
		}
		fc.CF.Current().Append(lz.loc(e), &ir.Assignment{Dest: id, Source: rhsOp})
		return rhsOp, rhsTyp, nil

	case *ast.FieldExpr:
		recvOp, _, err := lz.walkExpr(fc, target.Receiver)
		if err != nil {
			return ir.Operand{}, types.Invalid, err
		}
		fc.CF.Current().Append(lz.loc(e), &ir.FieldWrite{Receiver: recvOp, FieldName: target.Field, Source: rhsOp})
		return rhsOp, rhsTyp, nil

	default:
		return ir.Operand{}, types.Invalid, diag.Fatal(
			fmt.Errorf("invalid assignment target %T", e.Target), "walking assignment")
	}
}

func (lz *Linearizer) walkFieldRead(fc *FunctionWalkContext, e *ast.FieldExpr) (ir.Operand, types.Semantic, error) {
	recvOp, recvTyp, err := lz.walkExpr(fc, e.Receiver)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	def, ok := lz.Symbols.Types.Lookup(recvTyp)
	if !ok || def.Repr.Kind != types.ReprStruct {
		kind := "unknown"
		if ok {
			kind = def.Repr.Kind.String()
		}
		lz.Diagnostics.Push(&diag.NonStructFieldAccess{ActualReprKind: kind, Loc: e.Loc})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}
	field, ok := def.Repr.LookupField(e.Field)
	if !ok {
		lz.Diagnostics.Push(&diag.FieldNotFound{Struct: def.Repr.Name, Field: e.Field, Loc: e.Loc})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}
	dest := fc.Values.NewTemporary(field.Type)
	fc.CF.Current().Append(lz.loc(e), &ir.FieldRead{Receiver: recvOp, FieldName: e.Field, Dest: dest})
	return ir.ValueOperand(dest), field.Type, nil
}

// callReturnType resolves a callee's declared return type, treating Unit
// specially: a unit-returning call discards its result rather than
// interning a temporary for it.
func (lz *Linearizer) callReturnType(ret types.Syntactic) (types.Semantic, bool) {
	if _, isUnit := ret.(types.Unit); isUnit {
		return types.Invalid, false
	}
	sem, err := lz.Symbols.ResolveType(lz.Cursor, ret)
	if err != nil {
		return types.Invalid, true
	}
	return sem, true
}

func (lz *Linearizer) walkCall(fc *FunctionWalkContext, e *ast.CallExpr) (ir.Operand, types.Semantic, error) {
	fn, _, err := lz.Symbols.LookupFunction(lz.Cursor, e.Name)
	if err != nil {
		lz.Diagnostics.Push(&diag.Undefined{Kind: "function", Key: e.Name, Loc: e.Loc})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}

	args := make([]ir.Operand, len(e.Args))
	for i, a := range e.Args {
		op, _, err := lz.walkExpr(fc, a)
		if err != nil {
			return ir.Operand{}, types.Invalid, err
		}
		args[i] = op
	}

	retType, hasResult := lz.callReturnType(fn.Proto.ReturnType)
	if !hasResult {
		fc.CF.Current().Append(lz.loc(e), &ir.FunctionCall{Name: e.Name, OrderedArgs: args})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}
	dest := fc.Values.NewTemporary(retType)
	fc.CF.Current().Append(lz.loc(e), &ir.FunctionCall{Name: e.Name, OrderedArgs: args, Dest: &dest})
	return ir.ValueOperand(dest), retType, nil
}

func (lz *Linearizer) walkMethodCall(fc *FunctionWalkContext, e *ast.MethodCallExpr) (ir.Operand, types.Semantic, error) {
	recvOp, recvTyp, err := lz.walkExpr(fc, e.Receiver)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	def, ok := lz.Symbols.Types.Lookup(recvTyp)
	if !ok {
		lz.Diagnostics.Push(&diag.Undefined{Kind: "type", Key: recvTyp.String(), Loc: e.Loc})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}
	fn, err := lz.Symbols.LookupImplementedFunction(lz.Cursor, def.Repr.Name, e.Method)
	if err != nil {
		lz.Diagnostics.Push(&diag.Undefined{Kind: "method", Key: def.Repr.Name + "." + e.Method, Loc: e.Loc})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}

	args := make([]ir.Operand, len(e.Args))
	for i, a := range e.Args {
		op, _, err := lz.walkExpr(fc, a)
		if err != nil {
			return ir.Operand{}, types.Invalid, err
		}
		args[i] = op
	}

	retType, hasResult := lz.callReturnType(fn.Proto.ReturnType)
	if !hasResult {
		fc.CF.Current().Append(lz.loc(e), &ir.MethodCall{Receiver: recvOp, Name: e.Method, OrderedArgs: args})
		return ir.ValueOperand(ir.UnitValue), types.Invalid, nil
	}
	dest := fc.Values.NewTemporary(retType)
	fc.CF.Current().Append(lz.loc(e), &ir.MethodCall{Receiver: recvOp, Name: e.Method, OrderedArgs: args, Dest: &dest})
	return ir.ValueOperand(dest), retType, nil
}

// lowerCondition evaluates cond to a single operand, which walkIf and
// walkWhile then test with CondNE against zero when opening the
// BlockManager branch or loop, so arbitrary boolean expressions (not just a
// literal comparison) can drive a branch.
func (lz *Linearizer) lowerCondition(fc *FunctionWalkContext, cond ast.Expr) (ir.Operand, error) {
	op, _, err := lz.walkExpr(fc, cond)
	if err != nil {
		return ir.Operand{}, err
	}
	return op, nil
}

// walkIf lowers `if cond { then } else { else }`. Both arms assign their
// trailing value into one shared temporary rather than producing a block
// argument directly: spec.md §8's if-merge scenario expects the merge
// block's block argument to appear only after SSA construction, so the
// linearizer's job is just to give SSA two reaching definitions of the same
// value to unify.
func (lz *Linearizer) walkIf(fc *FunctionWalkContext, e *ast.IfExpr) (ir.Operand, types.Semantic, error) {
	loc := lz.loc(e)
	condOp, err := lz.lowerCondition(fc, e.Cond)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}

	if _, err := fc.Blocks.CreateConditionalBranch(ir.CondNE, condOp, ir.ConstantOperand(0), loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "opening if expression")
	}

	thenOp, thenTyp, err := lz.walkBranchBody(fc, e.Then)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}

	resultTyp := thenTyp
	if resultTyp == types.Invalid {
		resultTyp = lz.unitType()
	}
	result := fc.Values.NewTemporary(resultTyp)
	fc.CF.Current().Append(loc, &ir.Assignment{Dest: result, Source: thenOp})

	if _, err := fc.Blocks.FinishTrueBranchSwitchToFalse(loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "closing if true branch")
	}

	if e.Else != nil {
		elseOp, _, err := lz.walkBranchBody(fc, e.Else)
		if err != nil {
			return ir.Operand{}, types.Invalid, err
		}
		fc.CF.Current().Append(loc, &ir.Assignment{Dest: result, Source: elseOp})
	}

	if _, _, err := fc.Blocks.FinishBranch(loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "closing if expression")
	}

	return ir.ValueOperand(result), resultTyp, nil
}

// walkWhile lowers `while cond { body }` using BlockManager's loop protocol.
// A while loop always evaluates to unit.
func (lz *Linearizer) walkWhile(fc *FunctionWalkContext, e *ast.WhileExpr) (ir.Operand, types.Semantic, error) {
	loc := lz.loc(e)
	fc.Blocks.CreateLoop(loc)

	condOp, err := lz.lowerCondition(fc, e.Cond)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}
	if _, err := fc.Blocks.EnterLoopBody(ir.CondNE, condOp, ir.ConstantOperand(0), loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "entering loop body")
	}

	if _, _, err := lz.walkBranchBody(fc, e.Body); err != nil {
		return ir.Operand{}, types.Invalid, err
	}

	if err := fc.Blocks.FinishLoopBody(loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "closing loop body")
	}
	if _, err := fc.Blocks.FinishLoop(loc); err != nil {
		return ir.Operand{}, types.Invalid, diag.Fatal(err, "closing loop")
	}

	return ir.ValueOperand(ir.UnitValue), lz.unitType(), nil
}
