// Package ast defines the surface AST the linearizer consumes: a Rust-like
// tree of items, statements, expressions, and patterns, each tagged with a
// source lexer.Position (spec.md §6's upstream shape).
package ast

import (
	"github.com/msiegel/substratum-sub000/internal/lexer"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() lexer.Position
}

// Item is a top-level or module-level declaration.
type Item interface {
	Node
	item()
}

// Stmt is a statement inside a block.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression; every Expr eventually walks to a ValueId.
type Expr interface {
	Node
	expr()
}

// Pattern is a match-arm pattern (spec.md §4.5).
type Pattern interface {
	Node
	pattern()
}

// File is the root of one parsed source file.
type File struct {
	Items []Item
	Loc   lexer.Position
}

func (f *File) Pos() lexer.Position { return f.Loc }

// ModuleDecl declares `mod name { items }`.
type ModuleDecl struct {
	Name  string
	Items []Item
	Loc   lexer.Position
}

func (*ModuleDecl) item()             {}
func (d *ModuleDecl) Pos() lexer.Position { return d.Loc }

// FieldDecl is one struct field, `name: type`.
type FieldDecl struct {
	Name string
	Type types.Syntactic
}

// StructDecl declares `struct Name<Generics> { fields }`.
type StructDecl struct {
	Name     string
	Generics []string
	Fields   []FieldDecl
	Loc      lexer.Position
}

func (*StructDecl) item()             {}
func (d *StructDecl) Pos() lexer.Position { return d.Loc }

// VariantDecl is one enum variant, optionally carrying a tuple payload.
type VariantDecl struct {
	Name    string
	Payload types.Syntactic // nil if the variant carries no payload
}

// EnumDecl declares `enum Name<Generics> { variants }`.
type EnumDecl struct {
	Name     string
	Generics []string
	Variants []VariantDecl
	Loc      lexer.Position
}

func (*EnumDecl) item()             {}
func (d *EnumDecl) Pos() lexer.Position { return d.Loc }

// SelfKind discriminates how a function parameter binds `self`.
type SelfKind int

const (
	NotSelf SelfKind = iota
	SelfByValue
	SelfByRef
	SelfByRefMut
)

// ParamDecl is one function parameter.
type ParamDecl struct {
	Name string
	Type types.Syntactic
	Self SelfKind
}

// FunctionDecl declares `fn name<Generics>(params) -> ReturnType { Body }`.
// A method has its first ParamDecl's Self != NotSelf; an associated
// function within an impl block does not.
type FunctionDecl struct {
	Name       string
	Generics   []string
	Params     []ParamDecl
	ReturnType types.Syntactic
	Body       *BlockExpr
	Loc        lexer.Position
}

func (*FunctionDecl) item()             {}
func (d *FunctionDecl) Pos() lexer.Position { return d.Loc }

// ImplDecl declares `impl<Generics> ForType { functions }`.
type ImplDecl struct {
	ForType   types.Syntactic
	Generics  []string
	Functions []*FunctionDecl
	Loc       lexer.Position
}

func (*ImplDecl) item()             {}
func (d *ImplDecl) Pos() lexer.Position { return d.Loc }
