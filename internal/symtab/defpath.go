// Package symtab implements the hierarchical, def-path-based symbol table
// of spec.md §3.2/§4.1: module/type/function/scope/variable/basic-block
// symbols, name resolution by upward walk, and generic-parameter scoping.
package symtab

import (
	"fmt"
	"strings"

	"github.com/msiegel/substratum-sub000/internal/types"
)

// ComponentKind discriminates the variants of DefPathComponent.
type ComponentKind int

const (
	KindModule ComponentKind = iota
	KindType
	KindFunction
	KindScope
	KindVariable
	KindBasicBlock
)

func (k ComponentKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindType:
		return "type"
	case KindFunction:
		return "function"
	case KindScope:
		return "scope"
	case KindVariable:
		return "variable"
	case KindBasicBlock:
		return "basic block"
	default:
		return "unknown"
	}
}

// FunctionPrototype names a function by its argument and return types, used
// to key Function def-path components (so overload-free resolution still
// has enough identity to render readable diagnostics).
type FunctionPrototype struct {
	Name       string
	ArgTypes   []types.Syntactic
	ReturnType types.Syntactic
}

// DefPathComponent is one link in a def-path, per spec.md §3.2.
type DefPathComponent struct {
	Kind ComponentKind

	// Module, Variable
	Name string

	// Type
	Syntax types.Syntactic

	// Function
	Proto FunctionPrototype

	// Scope
	ScopeIndex int

	// BasicBlock
	Label int

	// index is filled in once the component has actually been inserted
	// into the symbol table's arena for its kind, per spec.md §5/§9's
	// arena-of-integer-indices guidance.
	index int
}

// Key returns the string this component is keyed by within its container's
// namespace for its kind.
func (c DefPathComponent) Key() string {
	switch c.Kind {
	case KindModule, KindVariable:
		return c.Name
	case KindType:
		return c.Syntax.String()
	case KindFunction:
		return c.Proto.Name
	case KindScope:
		return fmt.Sprintf("#%d", c.ScopeIndex)
	case KindBasicBlock:
		return fmt.Sprintf("bb%d", c.Label)
	default:
		return ""
	}
}

func (c DefPathComponent) String() string {
	return c.Kind.String() + "(" + c.Key() + ")"
}

// DefPath is an ordered sequence of DefPathComponents uniquely naming a
// symbol.
type DefPath []DefPathComponent

func (p DefPath) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.Key()
	}
	return strings.Join(parts, "::")
}

// Clone returns an independent copy of the path, since DefContext mutates
// its current path in place during linearization.
func (p DefPath) Clone() DefPath {
	out := make(DefPath, len(p))
	copy(out, p)
	return out
}

// ownership lattice from spec.md §3.2.
var permittedChildren = map[ComponentKind]map[ComponentKind]bool{
	KindModule: {KindModule: true, KindType: true, KindFunction: true, KindVariable: true},
	KindType:   {KindFunction: true},
	KindFunction: {KindScope: true, KindVariable: true, KindBasicBlock: true},
	KindScope: {KindScope: true, KindVariable: true, KindBasicBlock: true, KindType: true},
}

// InvalidOwnershipError reports an attempt to push a component into a
// def-path that the ownership lattice forbids. This is a programmer error:
// callers should treat it as fatal, per spec.md §7.
type InvalidOwnershipError struct {
	Parent ComponentKind
	Child  ComponentKind
}

func (e *InvalidOwnershipError) Error() string {
	return fmt.Sprintf("invalid ownership: %s cannot contain %s", e.Parent, e.Child)
}

// checkOwnership validates that child may be pushed onto a def-path whose
// current last component is parent (the root module if the path is empty).
func checkOwnership(parent ComponentKind, hasParent bool, child ComponentKind) error {
	if !hasParent {
		// Root is an implicit module.
		parent = KindModule
	}
	allowed, ok := permittedChildren[parent]
	if !ok || !allowed[child] {
		return &InvalidOwnershipError{Parent: parent, Child: child}
	}
	return nil
}
