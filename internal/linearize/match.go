package linearize

import (
	"fmt"
	"strconv"

	"github.com/msiegel/substratum-sub000/internal/ast"
	"github.com/msiegel/substratum-sub000/internal/diag"
	"github.com/msiegel/substratum-sub000/internal/ir"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// enumTagField and enumPayloadField are the symbolic field names used to
// decompose a tagged-union enum value. The IR has no dedicated "read
// discriminant" operation; a match's tag test and payload extraction both
// lower to plain FieldRead under these two conventional names, same as a
// struct field read, leaving the concrete layout to the backend.
const (
	enumTagField     = "$tag"
	enumPayloadField = "$payload"
)

// walkMatch lowers `match scrutinee { pat1 => body1, ... }` into a cascade
// of equality tests, one per arm, each converging into the next arm's test
// on mismatch and into a single shared result variable on match (spec.md
// §4.5's cascaded-dispatch redesign, DESIGN.md Open Questions #4). The
// expression's own value is threaded the same way an if-expression's is
// (see walkIf): every arm assigns into one shared temporary, leaving SSA
// construction to unify the reaching definitions at the join.
func (lz *Linearizer) walkMatch(fc *FunctionWalkContext, e *ast.MatchExpr) (ir.Operand, types.Semantic, error) {
	loc := lz.loc(e)
	scrutOp, scrutTyp, err := lz.walkExpr(fc, e.Scrutinee)
	if err != nil {
		return ir.Operand{}, types.Invalid, err
	}

	var resultID *ir.ValueId
	resultTyp := lz.unitType()

	runArm := func(body ast.Expr) error {
		op, typ, err := lz.walkExpr(fc, body)
		if err != nil {
			return err
		}
		if resultID == nil {
			if typ != types.Invalid {
				resultTyp = typ
			}
			id := fc.Values.NewTemporary(resultTyp)
			resultID = &id
		}
		fc.CF.Current().Append(loc, &ir.Assignment{Dest: *resultID, Source: op})
		return nil
	}

	if err := lz.lowerMatchArms(fc, e.Arms, 0, scrutOp, scrutTyp, runArm, loc); err != nil {
		return ir.Operand{}, types.Invalid, err
	}

	if resultID == nil {
		return ir.ValueOperand(ir.UnitValue), lz.unitType(), nil
	}
	return ir.ValueOperand(*resultID), resultTyp, nil
}

// lowerMatchArms processes arms[idx:], recursing through matchPattern's
// mismatch continuation to reach the next arm. The last arm is treated as
// exhaustive per spec.md §4.5 and run unconditionally, with no test emitted
// for it even if its own pattern is in principle refutable: the middle end
// trusts an earlier exhaustiveness check rather than re-deriving one.
func (lz *Linearizer) lowerMatchArms(fc *FunctionWalkContext, arms []ast.MatchArm, idx int, scrutOp ir.Operand, scrutTyp types.Semantic, runArm func(ast.Expr) error, loc ir.SourceLoc) error {
	if idx >= len(arms) {
		return nil
	}
	arm := arms[idx]
	isLast := idx == len(arms)-1

	if _, err := lz.PushScope(); err != nil {
		return diag.Fatal(err, "entering match arm scope")
	}

	if isLast {
		if err := lz.bindPatternUnconditionally(fc, arm.Pattern, scrutOp, scrutTyp, loc); err != nil {
			lz.Pop()
			return err
		}
		err := runArm(arm.Body)
		lz.Pop()
		return err
	}

	return lz.matchPattern(fc, arm.Pattern, scrutOp, scrutTyp, loc,
		func() error {
			err := runArm(arm.Body)
			lz.Pop()
			return err
		},
		func() error {
			// The arm's scope was already popped by onMatch, which
			// matchPattern always runs before any onMismatch.
			return lz.lowerMatchArms(fc, arms, idx+1, scrutOp, scrutTyp, runArm, loc)
		},
	)
}

// matchPattern tests pat against operand (of type typ), running onMatch in
// the branch where it succeeds and onMismatch where it doesn't. For an
// irrefutable pattern (IdentPattern), onMismatch is never called.
//
// For a refutable pattern, matchPattern opens exactly one BlockManager
// branch, runs onMatch inside its true arm, and runs onMismatch inside its
// false arm — closing the branch itself before returning, so callers can
// nest matchPattern calls (for tuple-struct elements) arbitrarily deep
// without tracking BlockManager's branch stack themselves.
func (lz *Linearizer) matchPattern(fc *FunctionWalkContext, pat ast.Pattern, operand ir.Operand, typ types.Semantic, loc ir.SourceLoc, onMatch, onMismatch func() error) error {
	switch pt := pat.(type) {
	case *ast.IdentPattern:
		id, err := fc.BindLocal(pt.Name, typ)
		if err != nil {
			lz.Diagnostics.Push(&diag.Defined{Kind: "variable", Key: pt.Name, NewLoc: pt.Loc})
			return onMatch()
		}
		fc.CF.Current().Append(loc, &ir.Assignment{Dest: id, Source: operand})
		return onMatch()

	case *ast.LiteralPattern:
		if _, err := fc.Blocks.CreateConditionalBranch(ir.CondEq, operand, ir.ConstantOperand(pt.Value), loc); err != nil {
			return diag.Fatal(err, "lowering literal pattern")
		}
		if err := onMatch(); err != nil {
			return err
		}
		if _, err := fc.Blocks.FinishTrueBranchSwitchToFalse(loc); err != nil {
			return diag.Fatal(err, "closing literal pattern match arm")
		}
		if err := onMismatch(); err != nil {
			return err
		}
		_, _, err := fc.Blocks.FinishBranch(loc)
		if err != nil {
			return diag.Fatal(err, "closing literal pattern dispatch")
		}
		return nil

	case *ast.TupleStructPattern:
		return lz.matchTupleStruct(fc, pt, operand, typ, loc, onMatch, onMismatch)

	default:
		return diag.Fatal(fmt.Errorf("unhandled pattern type %T", pat), "lowering pattern")
	}
}

func (lz *Linearizer) matchTupleStruct(fc *FunctionWalkContext, pt *ast.TupleStructPattern, operand ir.Operand, typ types.Semantic, loc ir.SourceLoc, onMatch, onMismatch func() error) error {
	def, ok := lz.Symbols.Types.Lookup(typ)
	if !ok || def.Repr.Kind != types.ReprEnum {
		kind := "unknown"
		if ok {
			kind = def.Repr.Kind.String()
		}
		lz.Diagnostics.Push(&diag.NonEnumDestructure{ActualReprKind: kind, Loc: pt.Loc})
		return onMatch()
	}
	idx, variant, ok := lookupVariantIndex(def.Repr.Variants, pt.Variant)
	if !ok {
		lz.Diagnostics.Push(&diag.VariantNotFound{Enum: def.Repr.Name, Variant: pt.Variant, Loc: pt.Loc})
		return onMatch()
	}

	tagID := fc.Values.NewTemporary(lz.defaultIntType())
	fc.CF.Current().Append(loc, &ir.FieldRead{Receiver: operand, FieldName: enumTagField, Dest: tagID})

	if _, err := fc.Blocks.CreateConditionalBranch(ir.CondEq, ir.ValueOperand(tagID), ir.ConstantOperand(uint64(idx)), loc); err != nil {
		return diag.Fatal(err, "lowering tuple-struct pattern")
	}

	var payloadOp ir.Operand = ir.ValueOperand(ir.UnitValue)
	var payloadFields []types.StructField
	if variant.PayloadResolved != types.Invalid {
		payloadID := fc.Values.NewTemporary(variant.PayloadResolved)
		fc.CF.Current().Append(loc, &ir.FieldRead{Receiver: operand, FieldName: enumPayloadField, Dest: payloadID})
		payloadOp = ir.ValueOperand(payloadID)
		if pdef, ok := lz.Symbols.Types.Lookup(variant.PayloadResolved); ok {
			payloadFields = pdef.Repr.Fields
		}
	}

	if err := lz.matchElemsFrom(fc, pt.Elems, 0, payloadOp, payloadFields, loc, onMatch, onMismatch); err != nil {
		return err
	}

	if _, err := fc.Blocks.FinishTrueBranchSwitchToFalse(loc); err != nil {
		return diag.Fatal(err, "closing tuple-struct pattern match arm")
	}
	if err := onMismatch(); err != nil {
		return err
	}
	_, _, err := fc.Blocks.FinishBranch(loc)
	if err != nil {
		return diag.Fatal(err, "closing tuple-struct pattern dispatch")
	}
	return nil
}

// matchElemsFrom recursively destructures a tuple-struct pattern's payload
// elements, threading the enclosing pattern's onMatch/onMismatch through
// each element in turn. A mismatch on an inner element (e.g. a literal
// sub-pattern) re-runs onMismatch from inside the outer tag-matched branch,
// duplicating the "try the next arm" cascade at that point rather than
// sharing a single failure block — acceptable for the depth of nesting
// these patterns actually reach.
func (lz *Linearizer) matchElemsFrom(fc *FunctionWalkContext, elems []ast.Pattern, idx int, payloadOp ir.Operand, payloadFields []types.StructField, loc ir.SourceLoc, onMatch, onMismatch func() error) error {
	if idx >= len(elems) {
		return onMatch()
	}
	elemTyp := types.Invalid
	if idx < len(payloadFields) {
		elemTyp = payloadFields[idx].Type
	}
	elemID := fc.Values.NewTemporary(elemTyp)
	fc.CF.Current().Append(loc, &ir.FieldRead{Receiver: payloadOp, FieldName: strconv.Itoa(idx), Dest: elemID})

	return lz.matchPattern(fc, elems[idx], ir.ValueOperand(elemID), elemTyp, loc,
		func() error {
			return lz.matchElemsFrom(fc, elems, idx+1, payloadOp, payloadFields, loc, onMatch, onMismatch)
		},
		onMismatch,
	)
}

// bindPatternUnconditionally binds pat's names against operand with no
// branch at all, for the exhaustive last arm of a match.
func (lz *Linearizer) bindPatternUnconditionally(fc *FunctionWalkContext, pat ast.Pattern, operand ir.Operand, typ types.Semantic, loc ir.SourceLoc) error {
	switch pt := pat.(type) {
	case *ast.IdentPattern:
		id, err := fc.BindLocal(pt.Name, typ)
		if err != nil {
			lz.Diagnostics.Push(&diag.Defined{Kind: "variable", Key: pt.Name, NewLoc: pt.Loc})
			return nil
		}
		fc.CF.Current().Append(loc, &ir.Assignment{Dest: id, Source: operand})
		return nil

	case *ast.LiteralPattern:
		return nil

	case *ast.TupleStructPattern:
		def, ok := lz.Symbols.Types.Lookup(typ)
		if !ok || def.Repr.Kind != types.ReprEnum {
			return nil
		}
		_, variant, ok := lookupVariantIndex(def.Repr.Variants, pt.Variant)
		if !ok {
			return nil
		}
		var payloadOp ir.Operand = ir.ValueOperand(ir.UnitValue)
		var payloadFields []types.StructField
		if variant.PayloadResolved != types.Invalid {
			payloadID := fc.Values.NewTemporary(variant.PayloadResolved)
			fc.CF.Current().Append(loc, &ir.FieldRead{Receiver: operand, FieldName: enumPayloadField, Dest: payloadID})
			payloadOp = ir.ValueOperand(payloadID)
			if pdef, ok := lz.Symbols.Types.Lookup(variant.PayloadResolved); ok {
				payloadFields = pdef.Repr.Fields
			}
		}
		for i, elemPat := range pt.Elems {
			elemTyp := types.Invalid
			if i < len(payloadFields) {
				elemTyp = payloadFields[i].Type
			}
			elemID := fc.Values.NewTemporary(elemTyp)
			fc.CF.Current().Append(loc, &ir.FieldRead{Receiver: payloadOp, FieldName: strconv.Itoa(i), Dest: elemID})
			if err := lz.bindPatternUnconditionally(fc, elemPat, ir.ValueOperand(elemID), elemTyp, loc); err != nil {
				return err
			}
		}
		return nil

	default:
		return diag.Fatal(fmt.Errorf("unhandled pattern type %T", pat), "binding pattern")
	}
}

func lookupVariantIndex(variants []types.Variant, name string) (int, *types.Variant, bool) {
	for i := range variants {
		if variants[i].Name == name {
			return i, &variants[i], true
		}
	}
	return 0, nil, false
}
