package parser

import (
	"github.com/msiegel/substratum-sub000/internal/lexer"
)

// Precedence represents operator precedence levels, lowest to highest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment // =
	PrecEquality   // ==, !=
	PrecComparison // <, <=, >, >=
	PrecTerm       // +, -
	PrecFactor     // *, /
	PrecCall       // ., ()
	PrecPrimary
)

// getPrecedence returns the precedence level for a given token type, used
// by the Pratt parser to decide when to stop climbing.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenAssign:
		return PrecAssignment
	case lexer.TokenEqEq, lexer.TokenNotEq:
		return PrecEquality
	case lexer.TokenLt, lexer.TokenLe, lexer.TokenGt, lexer.TokenGe:
		return PrecComparison
	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm
	case lexer.TokenStar, lexer.TokenSlash:
		return PrecFactor
	case lexer.TokenDot, lexer.TokenLeftParen:
		return PrecCall
	default:
		return PrecNone
	}
}

// isRightAssociative reports whether the operator associates right to
// left. Assignment chains as `x = y = z = 0` means `x = (y = (z = 0))`.
func isRightAssociative(tokenType lexer.TokenType) bool {
	return tokenType == lexer.TokenAssign
}
