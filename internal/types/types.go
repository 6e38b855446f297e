// Package types implements the two-tier type system of the middle end:
// syntactic types as written in source, and semantic types as interned,
// identity-carrying ids resolved against a def-path.
package types

import (
	"fmt"
	"strings"
)

// Mutability distinguishes shared from exclusive references and pointers.
type Mutability int

const (
	Immutable Mutability = iota
	Mutable
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mut "
	}
	return ""
}

// IntSize is the bit width of a primitive integer type.
type IntSize int

const (
	Size8 IntSize = 8
	Size16 IntSize = 16
	Size32 IntSize = 32
	Size64 IntSize = 64
)

// Syntactic is the surface shape of a type as written in source. Syntactic
// types carry no identity beyond structural equality.
type Syntactic interface {
	fmt.Stringer
	syntactic()
}

// Unit is the surface "()" type.
type Unit struct{}

func (Unit) String() string { return "()" }
func (Unit) syntactic()     {}

// UnsignedInt is one of U8..U64 as written.
type UnsignedInt struct{ Size IntSize }

func (u UnsignedInt) String() string { return fmt.Sprintf("u%d", u.Size) }
func (UnsignedInt) syntactic()       {}

// SignedInt is one of I8..I64 as written.
type SignedInt struct{ Size IntSize }

func (i SignedInt) String() string { return fmt.Sprintf("i%d", i.Size) }
func (SignedInt) syntactic()       {}

// GenericParam is a reference to a generic parameter name in scope.
type GenericParam struct{ Name string }

func (g GenericParam) String() string { return g.Name }
func (GenericParam) syntactic()       {}

// SelfType is the surface "Self" type inside an impl block.
type SelfType struct{}

func (SelfType) String() string { return "Self" }
func (SelfType) syntactic()     {}

// Named is a reference to a user-defined struct/enum by name, with any
// generic type arguments supplied at the use site.
type Named struct {
	Name string
	Args []Syntactic
}

func (n Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Name + "<" + strings.Join(parts, ", ") + ">"
}
func (Named) syntactic() {}

// Reference is "&T" or "&mut T".
type Reference struct {
	Mut Mutability
	Of  Syntactic
}

func (r Reference) String() string { return "&" + r.Mut.String() + r.Of.String() }
func (Reference) syntactic()       {}

// Pointer is "*const T" or "*mut T".
type Pointer struct {
	Mut Mutability
	Of  Syntactic
}

func (p Pointer) String() string {
	if p.Mut == Mutable {
		return "*mut " + p.Of.String()
	}
	return "*const " + p.Of.String()
}
func (Pointer) syntactic() {}

// Tuple is "(T1, T2, ...)".
type Tuple struct{ Elems []Syntactic }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (Tuple) syntactic() {}

// Semantic is an interned type id. Equal ids mean the same definition.
type Semantic int

// Invalid is the zero Semantic id, used when resolution fails so analysis
// can continue past the error.
const Invalid Semantic = 0

func (s Semantic) String() string { return fmt.Sprintf("T%d", int(s)) }

// ReprKind discriminates the variants of TypeRepr.
type ReprKind int

const (
	ReprUnsignedInteger ReprKind = iota
	ReprSignedInteger
	ReprStruct
	ReprEnum
	ReprTuple
	ReprUnit
)

func (k ReprKind) String() string {
	switch k {
	case ReprUnsignedInteger:
		return "unsigned integer"
	case ReprSignedInteger:
		return "signed integer"
	case ReprStruct:
		return "struct"
	case ReprEnum:
		return "enum"
	case ReprTuple:
		return "tuple"
	case ReprUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// StructField is one named, laid-out field of a struct representation.
type StructField struct {
	Name   string
	Type   Semantic
	Offset int // filled in by ComputeLayout
}

// Variant is one named enum variant, optionally carrying a payload type.
// Payload is the syntactic form as written (spec.md §3.2); PayloadResolved
// is filled in once the payload type has been interned, so size/alignment
// queries over the owning enum can be answered.
type Variant struct {
	Name            string
	Payload         Syntactic // nil if the variant carries no payload
	PayloadResolved Semantic  // Invalid if Payload is nil or unresolved
}

// TypeRepr is the resolved representation backing a TypeDefinition.
type TypeRepr struct {
	Kind ReprKind

	// UnsignedInteger / SignedInteger
	IntSize IntSize

	// Struct
	Name          string
	GenericParams []string
	Fields        []StructField // declaration order; offsets filled lazily
	Size          int           // 0 until ComputeLayout runs
	Align         int           // 0 until ComputeLayout runs

	// Enum
	Variants []Variant
}

// TypeDefinition pairs the originating syntactic form with its resolved
// representation.
type TypeDefinition struct {
	Syntax Syntactic
	Repr   TypeRepr
}

// Target is the subset of target-architecture information the type system
// needs to compute size and alignment. internal/arch.TargetArchitecture
// satisfies this interface.
type Target interface {
	WordSize() int
}

// Interner hands out Semantic ids for TypeDefinitions and supports the
// size/alignment queries of spec.md §3.1.
type Interner struct {
	defs   []TypeDefinition
	target Target
}

// NewInterner creates an interner parameterized by a target architecture;
// size/alignment queries for references, pointers, and primitives are
// computed relative to it.
func NewInterner(target Target) *Interner {
	// Semantic id 0 is reserved as Invalid, so seed one placeholder entry.
	return &Interner{defs: []TypeDefinition{{Syntax: Unit{}, Repr: TypeRepr{}}}, target: target}
}

// Intern registers a new TypeDefinition and returns its fresh Semantic id.
// Callers are responsible for deduplicating identical definitions (the
// symbol table does this at the def-path level: a given def-path is only
// ever interned once).
func (in *Interner) Intern(def TypeDefinition) Semantic {
	in.defs = append(in.defs, def)
	return Semantic(len(in.defs) - 1)
}

// Lookup returns the TypeDefinition for a previously interned Semantic id.
func (in *Interner) Lookup(id Semantic) (*TypeDefinition, bool) {
	if id <= 0 || int(id) >= len(in.defs) {
		return nil, false
	}
	return &in.defs[id], true
}

// primitiveAlignment is the size rounded up to the next power of two,
// minimum 1, per spec.md §3.1.
func primitiveAlignment(size int) int {
	if size <= 1 {
		return 1
	}
	a := 1
	for a < size {
		a <<= 1
	}
	return a
}

// SizeOf returns the size in bytes of a semantic type.
func (in *Interner) SizeOf(id Semantic) int {
	def, ok := in.Lookup(id)
	if !ok {
		return 0
	}
	switch def.Repr.Kind {
	case ReprUnsignedInteger, ReprSignedInteger:
		return int(def.Repr.IntSize) / 8
	case ReprStruct, ReprTuple:
		return def.Repr.Size
	case ReprUnit:
		return 0
	case ReprEnum:
		// A discriminant word plus the largest payload, word-aligned.
		max := 0
		for _, v := range def.Repr.Variants {
			if v.PayloadResolved == Invalid {
				continue
			}
			if s := in.SizeOf(v.PayloadResolved); s > max {
				max = s
			}
		}
		return in.target.WordSize() + max
	default:
		return 0
	}
}

// AlignOf returns the alignment in bytes of a semantic type.
func (in *Interner) AlignOf(id Semantic) int {
	def, ok := in.Lookup(id)
	if !ok {
		return 1
	}
	switch def.Repr.Kind {
	case ReprUnsignedInteger, ReprSignedInteger:
		return primitiveAlignment(int(def.Repr.IntSize) / 8)
	case ReprStruct, ReprTuple:
		return def.Repr.Align
	case ReprEnum:
		return in.target.WordSize()
	default:
		return 1
	}
}

// ReferenceSize and ReferenceAlign both equal the target word size, per
// spec.md §3.1 ("References and pointers have size = target word size and
// alignment = word size").
func (in *Interner) ReferenceSize() int  { return in.target.WordSize() }
func (in *Interner) ReferenceAlign() int { return in.target.WordSize() }

// ComputeLayout fills in Offset for every field and Size/Align for the
// struct itself, laying fields out in declaration order with padding so
// each field starts at a multiple of its own alignment, and padding the
// total size up to the struct's alignment. It must be called exactly once,
// after every field's type has been interned.
func (in *Interner) ComputeLayout(id Semantic) error {
	def, ok := in.Lookup(id)
	if !ok {
		return fmt.Errorf("ComputeLayout: unknown type id %s", id)
	}
	if def.Repr.Kind != ReprStruct && def.Repr.Kind != ReprTuple {
		return fmt.Errorf("ComputeLayout: %s is not a struct or tuple", def.Repr.Kind)
	}

	offset := 0
	maxAlign := 1
	for i := range def.Repr.Fields {
		f := &def.Repr.Fields[i]
		align := in.AlignOf(f.Type)
		if align > maxAlign {
			maxAlign = align
		}
		offset = padTo(offset, align)
		f.Offset = offset
		offset += in.SizeOf(f.Type)
	}
	def.Repr.Size = padTo(offset, maxAlign)
	def.Repr.Align = maxAlign
	return nil
}

func padTo(offset, align int) int {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// FieldOrder returns field names in declaration order, used to validate
// spec.md §3.1's invariant that a struct names each field exactly once.
func (r *TypeRepr) FieldOrder() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// LookupField finds a struct field by name, or reports it missing.
func (r *TypeRepr) LookupField(name string) (*StructField, bool) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i], true
		}
	}
	return nil, false
}

// LookupVariant finds an enum variant by name, or reports it missing.
func (r *TypeRepr) LookupVariant(name string) (*Variant, bool) {
	for i := range r.Variants {
		if r.Variants[i].Name == name {
			return &r.Variants[i], true
		}
	}
	return nil, false
}
