package parser

import (
	"testing"

	"github.com/msiegel/substratum-sub000/internal/lexer"
)

func TestGetPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		token    lexer.TokenType
		expected Precedence
	}{
		{"assign", lexer.TokenAssign, PrecAssignment},
		{"equal", lexer.TokenEqEq, PrecEquality},
		{"not equal", lexer.TokenNotEq, PrecEquality},
		{"less than", lexer.TokenLt, PrecComparison},
		{"less equal", lexer.TokenLe, PrecComparison},
		{"greater than", lexer.TokenGt, PrecComparison},
		{"greater equal", lexer.TokenGe, PrecComparison},
		{"plus", lexer.TokenPlus, PrecTerm},
		{"minus", lexer.TokenMinus, PrecTerm},
		{"star", lexer.TokenStar, PrecFactor},
		{"slash", lexer.TokenSlash, PrecFactor},
		{"dot", lexer.TokenDot, PrecCall},
		{"left paren", lexer.TokenLeftParen, PrecCall},
		{"identifier", lexer.TokenIdentifier, PrecNone},
		{"int", lexer.TokenInt, PrecNone},
		{"semicolon", lexer.TokenSemicolon, PrecNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getPrecedence(tt.token)
			if result != tt.expected {
				t.Errorf("getPrecedence(%v) = %v, want %v", tt.token, result, tt.expected)
			}
		})
	}
}

func TestIsRightAssociative(t *testing.T) {
	tests := []struct {
		name     string
		token    lexer.TokenType
		expected bool
	}{
		{"assign", lexer.TokenAssign, true},
		{"plus", lexer.TokenPlus, false},
		{"minus", lexer.TokenMinus, false},
		{"star", lexer.TokenStar, false},
		{"slash", lexer.TokenSlash, false},
		{"equal", lexer.TokenEqEq, false},
		{"dot", lexer.TokenDot, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRightAssociative(tt.token)
			if result != tt.expected {
				t.Errorf("isRightAssociative(%v) = %v, want %v", tt.token, result, tt.expected)
			}
		})
	}
}

func TestPrecedenceOrdering(t *testing.T) {
	if PrecAssignment >= PrecEquality {
		t.Error("Assignment should have lower precedence than Equality")
	}
	if PrecEquality >= PrecComparison {
		t.Error("Equality should have lower precedence than Comparison")
	}
	if PrecComparison >= PrecTerm {
		t.Error("Comparison should have lower precedence than Term")
	}
	if PrecTerm >= PrecFactor {
		t.Error("Term should have lower precedence than Factor")
	}
	if PrecFactor >= PrecCall {
		t.Error("Factor should have lower precedence than Call")
	}
	if PrecCall >= PrecPrimary {
		t.Error("Call should have lower precedence than Primary")
	}
}
