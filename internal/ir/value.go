// Package ir implements the intermediate representation that sits between
// the linearizer and SSA construction: per-function values, operations,
// basic blocks, and the control-flow graph that owns them.
package ir

import (
	"fmt"

	"github.com/msiegel/substratum-sub000/internal/symtab"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// ValueId is a small integer index into a function's value interner.
// ValueId 0 always denotes the unit value.
type ValueId int

// UnitValue is the distinguished ValueId of the always-present unit value.
const UnitValue ValueId = 0

func (id ValueId) String() string { return fmt.Sprintf("v%d", int(id)) }

// ValueKind discriminates the origin of a Value.
type ValueKind int

const (
	KindArgument ValueKind = iota
	KindVariable
	KindTemporary
	KindConstant
)

func (k ValueKind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindVariable:
		return "variable"
	case KindTemporary:
		return "temporary"
	case KindConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Value is one entry in a function's value interner (spec.md §3.3).
type Value struct {
	ID   ValueId
	Kind ValueKind

	// Argument
	ArgIndex int

	// Variable
	VarPath symtab.DefPath

	// Temporary: no extra payload, ID alone identifies it.

	// Constant
	ConstValue uint64

	// Type is the resolved semantic type, or types.Invalid if unresolved
	// (e.g. a placeholder temp produced after an Undefined diagnostic).
	Type types.Semantic
}

func (v *Value) String() string {
	switch v.Kind {
	case KindArgument:
		return fmt.Sprintf("arg%d", v.ArgIndex)
	case KindVariable:
		return fmt.Sprintf("%s.%d", v.VarPath, v.ID)
	case KindTemporary:
		return fmt.Sprintf("t%d", v.ID)
	case KindConstant:
		return fmt.Sprintf("const(%d)", v.ConstValue)
	default:
		return fmt.Sprintf("v%d", v.ID)
	}
}

// Interner hands out ValueIds for one function, monotonically per spec.md
// §5's ordering guarantee.
type Interner struct {
	values []Value
}

// NewInterner creates an interner pre-seeded with the unit value at id 0.
func NewInterner() *Interner {
	return &Interner{values: []Value{{ID: UnitValue, Kind: KindTemporary, Type: types.Invalid}}}
}

func (in *Interner) alloc(v Value) ValueId {
	v.ID = ValueId(len(in.values))
	in.values = append(in.values, v)
	return v.ID
}

// NewArgument interns the nth function argument.
func (in *Interner) NewArgument(index int, typ types.Semantic) ValueId {
	return in.alloc(Value{Kind: KindArgument, ArgIndex: index, Type: typ})
}

// NewVariable interns a named user variable bound to path.
func (in *Interner) NewVariable(path symtab.DefPath, typ types.Semantic) ValueId {
	return in.alloc(Value{Kind: KindVariable, VarPath: path, Type: typ})
}

// NewTemporary interns a fresh compiler-generated temp.
func (in *Interner) NewTemporary(typ types.Semantic) ValueId {
	return in.alloc(Value{Kind: KindTemporary, Type: typ})
}

// NewConstant interns an unsigned integer literal value.
func (in *Interner) NewConstant(n uint64, typ types.Semantic) ValueId {
	return in.alloc(Value{Kind: KindConstant, ConstValue: n, Type: typ})
}

// Lookup returns the Value for id.
func (in *Interner) Lookup(id ValueId) (*Value, bool) {
	if id < 0 || int(id) >= len(in.values) {
		return nil, false
	}
	return &in.values[id], true
}

// Len returns the number of interned values, including the unit value.
func (in *Interner) Len() int { return len(in.values) }

// Operand is either a ValueId or an inline UnsignedConstant (spec.md §3.3):
// both produce the same semantic artifact, so literal constants need not
// round-trip through the interner to be used as an operand.
type Operand struct {
	isConstant bool
	value      ValueId
	constant   uint64

	// SSANumber is nil ("None") before SSA construction, and Some(k) after
	// §4.6 renumbers reads and writes.
	SSANumber *int
}

// ValueOperand wraps an interned ValueId as an Operand.
func ValueOperand(id ValueId) Operand { return Operand{value: id} }

// ConstantOperand wraps an inline unsigned constant as an Operand.
func ConstantOperand(n uint64) Operand { return Operand{isConstant: true, constant: n} }

// IsConstant reports whether this operand is an inline constant rather than
// a reference into the value interner.
func (o Operand) IsConstant() bool { return o.isConstant }

// Value returns the referenced ValueId. Only meaningful if !IsConstant().
func (o Operand) Value() ValueId { return o.value }

// Constant returns the inline constant. Only meaningful if IsConstant().
func (o Operand) Constant() uint64 { return o.constant }

func (o Operand) String() string {
	if o.isConstant {
		s := fmt.Sprintf("const(%d)", o.constant)
		if o.SSANumber != nil {
			return fmt.Sprintf("%s#%d", s, *o.SSANumber)
		}
		return s
	}
	if o.SSANumber != nil {
		return fmt.Sprintf("v%d#%d", o.value, *o.SSANumber)
	}
	return fmt.Sprintf("v%d", o.value)
}

// WithSSANumber returns a copy of o tagged with SSA number k.
func (o Operand) WithSSANumber(k int) Operand {
	o.SSANumber = &k
	return o
}

// BaseEqual reports whether two operands refer to the same base value
// (ignoring SSA number).
func (o Operand) BaseEqual(other Operand) bool {
	if o.isConstant != other.isConstant {
		return false
	}
	if o.isConstant {
		return o.constant == other.constant
	}
	return o.value == other.value
}
