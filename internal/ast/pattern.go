package ast

import "github.com/msiegel/substratum-sub000/internal/lexer"

// LiteralPattern matches the scrutinee against an integer literal.
type LiteralPattern struct {
	Value uint64
	Loc   lexer.Position
}

func (*LiteralPattern) pattern()             {}
func (p *LiteralPattern) Pos() lexer.Position { return p.Loc }

// IdentPattern binds a fresh variable to the scrutinee's value
// unconditionally.
type IdentPattern struct {
	Name string
	Loc  lexer.Position
}

func (*IdentPattern) pattern()             {}
func (p *IdentPattern) Pos() lexer.Position { return p.Loc }

// TupleStructPattern matches an enum variant and recursively destructures
// its tuple payload: `Variant(p1, ..., pk)`.
type TupleStructPattern struct {
	Variant string
	Elems   []Pattern
	Loc     lexer.Position
}

func (*TupleStructPattern) pattern()             {}
func (p *TupleStructPattern) Pos() lexer.Position { return p.Loc }
