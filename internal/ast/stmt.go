package ast

import (
	"github.com/msiegel/substratum-sub000/internal/lexer"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// LetStmt is `let [mut] name: Type = init;`.
type LetStmt struct {
	Name string
	Mut  bool
	Type types.Syntactic
	Init Expr
	Loc  lexer.Position
}

func (*LetStmt) stmt()             {}
func (s *LetStmt) Pos() lexer.Position { return s.Loc }

// ExprStmt is an expression evaluated for its side effect; its value is
// discarded.
type ExprStmt struct {
	Expr Expr
	Loc  lexer.Position
}

func (*ExprStmt) stmt()             {}
func (s *ExprStmt) Pos() lexer.Position { return s.Loc }
