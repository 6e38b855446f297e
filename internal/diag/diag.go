// Package diag implements the structured diagnostic taxonomy of spec.md §7:
// typed error values rather than exceptions, accumulated in source order by
// a Buffer, with a shared "<kind>: <detail> at <file>:<line>:<col>" render.
package diag

import (
	"fmt"

	"github.com/msiegel/substratum-sub000/internal/lexer"
)

// Diagnostic is any of the typed values below. Category and Detail drive
// the user-visible rendering; Location pins it to source.
type Diagnostic interface {
	error
	Category() string
	Detail() string
	Location() lexer.Position
}

func render(d Diagnostic) string {
	return fmt.Sprintf("%s: %s at %s", d.Category(), d.Detail(), d.Location())
}

// InvalidChar is a lex-time diagnostic, passed through from the collaborator.
type InvalidChar struct {
	Char rune
	Loc  lexer.Position
}

func (e *InvalidChar) Category() string         { return "invalid character" }
func (e *InvalidChar) Detail() string           { return fmt.Sprintf("%q", e.Char) }
func (e *InvalidChar) Location() lexer.Position { return e.Loc }
func (e *InvalidChar) Error() string            { return render(e) }

// UnexpectedEof is a parse-time diagnostic, passed through from the collaborator.
type UnexpectedEof struct {
	Loc lexer.Position
}

func (e *UnexpectedEof) Category() string       { return "unexpected end of file" }
func (e *UnexpectedEof) Detail() string         { return "" }
func (e *UnexpectedEof) Location() lexer.Position { return e.Loc }
func (e *UnexpectedEof) Error() string          { return render(e) }

// UnexpectedToken is a parse-time diagnostic, passed through from the collaborator.
type UnexpectedToken struct {
	Got          string
	Expected     []string
	WhileParsing string
	Loc          lexer.Position
}

func (e *UnexpectedToken) Category() string { return "unexpected token" }
func (e *UnexpectedToken) Detail() string {
	return fmt.Sprintf("got %s, expected one of %v while parsing %s", e.Got, e.Expected, e.WhileParsing)
}
func (e *UnexpectedToken) Location() lexer.Position { return e.Loc }
func (e *UnexpectedToken) Error() string            { return render(e) }

// Undefined reports a resolution failure: no symbol of Kind named Key was
// found anywhere from the caller's def-path out to the root.
type Undefined struct {
	Kind string // function | method | associated | variable | type | struct | module
	Key  string
	Loc  lexer.Position
}

func (e *Undefined) Category() string           { return "undefined" }
func (e *Undefined) Detail() string             { return fmt.Sprintf("%s %s", e.Kind, e.Key) }
func (e *Undefined) Location() lexer.Position   { return e.Loc }
func (e *Undefined) Error() string              { return render(e) }

// Defined reports a duplicate insertion: Kind Key already exists at
// ExistingLoc when NewLoc tries to define it again.
type Defined struct {
	Kind        string
	Key         string
	ExistingLoc lexer.Position
	NewLoc      lexer.Position
}

func (e *Defined) Category() string         { return "already defined" }
func (e *Defined) Detail() string           { return fmt.Sprintf("%s %s (first defined at %s)", e.Kind, e.Key, e.ExistingLoc) }
func (e *Defined) Location() lexer.Position { return e.NewLoc }
func (e *Defined) Error() string            { return render(e) }

// TypeMismatch reports a type-checking failure.
type TypeMismatch struct {
	Expected string
	Got      string
	Loc      lexer.Position
}

func (e *TypeMismatch) Category() string         { return "type mismatch" }
func (e *TypeMismatch) Detail() string           { return fmt.Sprintf("expected %s, got %s", e.Expected, e.Got) }
func (e *TypeMismatch) Location() lexer.Position { return e.Loc }
func (e *TypeMismatch) Error() string            { return render(e) }

// FieldNotFound reports a `.field` access naming a field the struct doesn't have.
type FieldNotFound struct {
	Struct string
	Field  string
	Loc    lexer.Position
}

func (e *FieldNotFound) Category() string         { return "field not found" }
func (e *FieldNotFound) Detail() string           { return fmt.Sprintf("%s has no field %s", e.Struct, e.Field) }
func (e *FieldNotFound) Location() lexer.Position { return e.Loc }
func (e *FieldNotFound) Error() string            { return render(e) }

// VariantNotFound reports a match pattern naming an enum variant that
// doesn't exist.
type VariantNotFound struct {
	Enum    string
	Variant string
	Loc     lexer.Position
}

func (e *VariantNotFound) Category() string         { return "variant not found" }
func (e *VariantNotFound) Detail() string           { return fmt.Sprintf("%s has no variant %s", e.Enum, e.Variant) }
func (e *VariantNotFound) Location() lexer.Position { return e.Loc }
func (e *VariantNotFound) Error() string            { return render(e) }

// NonStructFieldAccess reports a `.field` access on a non-struct type.
type NonStructFieldAccess struct {
	ActualReprKind string
	Loc            lexer.Position
}

func (e *NonStructFieldAccess) Category() string { return "non-struct field access" }
func (e *NonStructFieldAccess) Detail() string {
	return fmt.Sprintf("cannot access a field on a %s", e.ActualReprKind)
}
func (e *NonStructFieldAccess) Location() lexer.Position { return e.Loc }
func (e *NonStructFieldAccess) Error() string            { return render(e) }

// NonEnumDestructure reports a tuple-struct match pattern applied to a
// non-enum type.
type NonEnumDestructure struct {
	ActualReprKind string
	Loc            lexer.Position
}

func (e *NonEnumDestructure) Category() string { return "non-enum destructure" }
func (e *NonEnumDestructure) Detail() string {
	return fmt.Sprintf("cannot destructure a %s as an enum variant", e.ActualReprKind)
}
func (e *NonEnumDestructure) Location() lexer.Position { return e.Loc }
func (e *NonEnumDestructure) Error() string            { return render(e) }

// InvalidOwnership reports a def-path push that violates the ownership
// lattice (spec.md §3.2).
type InvalidOwnership struct {
	ParentKind string
	ChildKind  string
	Loc        lexer.Position
}

func (e *InvalidOwnership) Category() string { return "invalid ownership" }
func (e *InvalidOwnership) Detail() string {
	return fmt.Sprintf("%s cannot directly own %s", e.ParentKind, e.ChildKind)
}
func (e *InvalidOwnership) Location() lexer.Position { return e.Loc }
func (e *InvalidOwnership) Error() string            { return render(e) }
