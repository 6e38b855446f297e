// Package parser implements a recursive descent parser for the compiler,
// turning a token stream into the Rust-like surface ast (internal/ast).
//
// PARSING STRATEGY: recursive descent for items, statements, and types;
// Pratt parsing (precedence climbing) for expressions.
//
// ERROR HANDLING STRATEGY: report errors but keep parsing (collect
// multiple diagnostics in one pass); use panic/recover for error recovery
// at item boundaries.
package parser

import (
	"fmt"
	"strconv"

	"github.com/msiegel/substratum-sub000/internal/ast"
	"github.com/msiegel/substratum-sub000/internal/lexer"
	"github.com/msiegel/substratum-sub000/internal/types"
)

// Parser converts a stream of tokens into a surface ast.File.
type Parser struct {
	lexer *lexer.Lexer

	current  lexer.Token
	previous lexer.Token

	errors []error

	panicMode bool

	// generics is a stack of generic-parameter name frames currently in
	// scope, pushed by struct/enum/fn/impl headers and popped when their
	// body closes. A bare identifier in type position resolves to
	// types.GenericParam when it names one of these, else types.Named.
	generics [][]string
}

// New creates a new parser for the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l, errors: make([]error, 0)}
	p.advance()
	return p
}

// ParseFile parses a complete source file.
//
// GRAMMAR: file = item* EOF
func (p *Parser) ParseFile(filename string) (*ast.File, []error) {
	start := p.current.Position
	file := &ast.File{Loc: start}

	for !p.isAtEnd() {
		if p.match(lexer.TokenComment) {
			continue
		}
		item := p.parseItem()
		if item != nil {
			file.Items = append(file.Items, item)
		}
	}

	return file, p.errors
}

// parseItem parses one top-level or module-level declaration.
//
// GRAMMAR: item = structDecl | enumDecl | implDecl | fnDecl | modDecl
func (p *Parser) parseItem() (item ast.Item) {
	defer func() {
		if r := recover(); r != nil {
			p.synchronize()
			item = nil
		}
	}()

	switch {
	case p.match(lexer.TokenStruct):
		return p.parseStructDecl()
	case p.match(lexer.TokenEnum):
		return p.parseEnumDecl()
	case p.match(lexer.TokenImpl):
		return p.parseImplDecl()
	case p.match(lexer.TokenFn):
		return p.parseFunctionDecl()
	case p.match(lexer.TokenMod):
		return p.parseModuleDecl()
	default:
		p.error(fmt.Sprintf("expected item, got %s", p.current.Type))
		panic("invalid item")
	}
}

// parseModuleDecl parses `mod name { item* }`.
func (p *Parser) parseModuleDecl() *ast.ModuleDecl {
	loc := p.previous.Position
	name := p.expectIdentName("expected module name")

	p.consume(lexer.TokenLeftBrace, "expected '{' after module name")
	var items []ast.Item
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		if p.match(lexer.TokenComment) {
			continue
		}
		if it := p.parseItem(); it != nil {
			items = append(items, it)
		}
	}
	p.consume(lexer.TokenRightBrace, "expected '}' after module body")

	return &ast.ModuleDecl{Name: name, Items: items, Loc: loc}
}

// parseStructDecl parses `struct Name<Generics> { fields }`.
func (p *Parser) parseStructDecl() *ast.StructDecl {
	loc := p.previous.Position
	name := p.expectIdentName("expected struct name")

	generics := p.parseGenericParams()
	p.pushGenerics(generics)
	defer p.popGenerics()

	p.consume(lexer.TokenLeftBrace, "expected '{' before struct body")
	var fields []ast.FieldDecl
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		fieldName := p.expectIdentName("expected field name")
		p.consume(lexer.TokenColon, "expected ':' after field name")
		fieldType := p.parseType()
		fields = append(fields, ast.FieldDecl{Name: fieldName, Type: fieldType})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightBrace, "expected '}' after struct body")

	return &ast.StructDecl{Name: name, Generics: generics, Fields: fields, Loc: loc}
}

// parseEnumDecl parses `enum Name<Generics> { variants }`. A variant may
// carry a tuple payload: `Variant(T1, T2)`.
func (p *Parser) parseEnumDecl() *ast.EnumDecl {
	loc := p.previous.Position
	name := p.expectIdentName("expected enum name")

	generics := p.parseGenericParams()
	p.pushGenerics(generics)
	defer p.popGenerics()

	p.consume(lexer.TokenLeftBrace, "expected '{' before enum body")
	var variants []ast.VariantDecl
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		variantName := p.expectIdentName("expected variant name")

		var payload types.Syntactic
		if p.match(lexer.TokenLeftParen) {
			var elems []types.Syntactic
			if !p.check(lexer.TokenRightParen) {
				for {
					elems = append(elems, p.parseType())
					if !p.match(lexer.TokenComma) {
						break
					}
				}
			}
			p.consume(lexer.TokenRightParen, "expected ')' after variant payload")
			payload = types.Tuple{Elems: elems}
		}

		variants = append(variants, ast.VariantDecl{Name: variantName, Payload: payload})
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightBrace, "expected '}' after enum body")

	return &ast.EnumDecl{Name: name, Generics: generics, Variants: variants, Loc: loc}
}

// parseImplDecl parses `impl<Generics> ForType { functions }`.
func (p *Parser) parseImplDecl() *ast.ImplDecl {
	loc := p.previous.Position

	generics := p.parseGenericParams()
	p.pushGenerics(generics)
	defer p.popGenerics()

	forType := p.parseType()

	p.consume(lexer.TokenLeftBrace, "expected '{' before impl body")
	var functions []*ast.FunctionDecl
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		if p.match(lexer.TokenComment) {
			continue
		}
		p.consume(lexer.TokenFn, "expected 'fn' inside impl body")
		functions = append(functions, p.parseFunctionDecl())
	}
	p.consume(lexer.TokenRightBrace, "expected '}' after impl body")

	return &ast.ImplDecl{ForType: forType, Generics: generics, Functions: functions, Loc: loc}
}

// parseFunctionDecl parses `fn name<Generics>(params) -> ReturnType { Body }`.
// The arrow and return type are optional; an omitted return type means the
// function returns unit.
func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	loc := p.previous.Position
	name := p.expectIdentName("expected function name")

	generics := p.parseGenericParams()
	p.pushGenerics(generics)
	defer p.popGenerics()

	p.consume(lexer.TokenLeftParen, "expected '(' after function name")
	params := p.parseParams()
	p.consume(lexer.TokenRightParen, "expected ')' after parameters")

	var returnType types.Syntactic
	if p.match(lexer.TokenArrow) {
		returnType = p.parseType()
	} else {
		returnType = types.Unit{}
	}

	body := p.parseBlockExpr()

	return &ast.FunctionDecl{
		Name:       name,
		Generics:   generics,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		Loc:        loc,
	}
}

// parseParams parses a function's parameter list. Only the first
// parameter may be `self`, `&self`, or `&mut self`.
func (p *Parser) parseParams() []ast.ParamDecl {
	var params []ast.ParamDecl
	if p.check(lexer.TokenRightParen) {
		return params
	}

	for {
		if len(params) == 0 && p.isSelfParamStart() {
			params = append(params, p.parseSelfParam())
		} else {
			name := p.expectIdentName("expected parameter name")
			p.consume(lexer.TokenColon, "expected ':' after parameter name")
			paramType := p.parseType()
			params = append(params, ast.ParamDecl{Name: name, Type: paramType})
		}

		if !p.match(lexer.TokenComma) {
			break
		}
	}
	return params
}

func (p *Parser) isSelfParamStart() bool {
	return p.check(lexer.TokenSelfValue) || p.check(lexer.TokenAmp)
}

func (p *Parser) parseSelfParam() ast.ParamDecl {
	if p.match(lexer.TokenSelfValue) {
		return ast.ParamDecl{Name: "self", Self: ast.SelfByValue}
	}
	p.consume(lexer.TokenAmp, "expected '&' before 'self'")
	if p.match(lexer.TokenMut) {
		p.consume(lexer.TokenSelfValue, "expected 'self' after '&mut'")
		return ast.ParamDecl{Name: "self", Self: ast.SelfByRefMut}
	}
	p.consume(lexer.TokenSelfValue, "expected 'self' after '&'")
	return ast.ParamDecl{Name: "self", Self: ast.SelfByRef}
}

// parseGenericParams parses an optional `<Name, Name, ...>` list.
func (p *Parser) parseGenericParams() []string {
	if !p.match(lexer.TokenLt) {
		return nil
	}
	var names []string
	for {
		names = append(names, p.expectIdentName("expected generic parameter name"))
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenGt, "expected '>' after generic parameters")
	return names
}

func (p *Parser) pushGenerics(names []string) {
	p.generics = append(p.generics, names)
}

func (p *Parser) popGenerics() {
	p.generics = p.generics[:len(p.generics)-1]
}

func (p *Parser) genericInScope(name string) bool {
	for _, frame := range p.generics {
		for _, n := range frame {
			if n == name {
				return true
			}
		}
	}
	return false
}

// primitiveInts maps the fixed set of primitive integer type names to
// their width.
var primitiveInts = map[string]types.IntSize{
	"8": types.Size8, "16": types.Size16, "32": types.Size32, "64": types.Size64,
}

// parseType parses a type expression.
//
// GRAMMAR:
//
//	type = '&' 'mut'? type
//	     | '*' 'mut'? type
//	     | '(' (type (',' type)*)? ')'
//	     | 'Self'
//	     | ident ('<' type (',' type)* '>')?
func (p *Parser) parseType() types.Syntactic {
	switch {
	case p.match(lexer.TokenAmp):
		mut := types.Immutable
		if p.match(lexer.TokenMut) {
			mut = types.Mutable
		}
		return types.Reference{Mut: mut, Of: p.parseType()}

	case p.match(lexer.TokenStar):
		mut := types.Immutable
		if p.match(lexer.TokenMut) {
			mut = types.Mutable
		}
		return types.Pointer{Mut: mut, Of: p.parseType()}

	case p.match(lexer.TokenLeftParen):
		if p.match(lexer.TokenRightParen) {
			return types.Unit{}
		}
		var elems []types.Syntactic
		for {
			elems = append(elems, p.parseType())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		p.consume(lexer.TokenRightParen, "expected ')' after tuple type")
		return types.Tuple{Elems: elems}

	case p.match(lexer.TokenSelfType):
		return types.SelfType{}

	case p.check(lexer.TokenIdentifier):
		name := p.current.Lexeme
		p.advance()

		if width, ok := primitiveIntWidth(name); ok {
			if name[0] == 'u' {
				return types.UnsignedInt{Size: width}
			}
			return types.SignedInt{Size: width}
		}

		var args []types.Syntactic
		if p.match(lexer.TokenLt) {
			for {
				args = append(args, p.parseType())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
			p.consume(lexer.TokenGt, "expected '>' after type arguments")
		}

		if len(args) == 0 && p.genericInScope(name) {
			return types.GenericParam{Name: name}
		}
		return types.Named{Name: name, Args: args}

	default:
		p.error(fmt.Sprintf("expected type, got %s", p.current.Type))
		return types.Unit{}
	}
}

// primitiveIntWidth recognizes u8/u16/u32/u64/i8/i16/i32/i64.
func primitiveIntWidth(name string) (types.IntSize, bool) {
	if len(name) < 2 {
		return 0, false
	}
	if name[0] != 'u' && name[0] != 'i' {
		return 0, false
	}
	width, ok := primitiveInts[name[1:]]
	return width, ok
}

// parseBlockExpr parses `{ stmt* tail? }`. A trailing expression not
// followed by ';' is the block's tail value; otherwise the block
// evaluates to unit.
func (p *Parser) parseBlockExpr() *ast.BlockExpr {
	loc := p.current.Position
	p.consume(lexer.TokenLeftBrace, "expected '{'")

	block := &ast.BlockExpr{Loc: loc}
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		if p.match(lexer.TokenComment) {
			continue
		}
		if p.match(lexer.TokenLet) {
			block.Stmts = append(block.Stmts, p.parseLetStmt())
			continue
		}

		expr := p.parseExpression()
		if p.match(lexer.TokenSemicolon) {
			block.Stmts = append(block.Stmts, &ast.ExprStmt{Expr: expr, Loc: expr.Pos()})
			continue
		}
		if p.check(lexer.TokenRightBrace) {
			block.Tail = expr
			break
		}
		// An expression-with-block (if/while/match/block) used as a
		// statement doesn't require a trailing ';'.
		block.Stmts = append(block.Stmts, &ast.ExprStmt{Expr: expr, Loc: expr.Pos()})
	}

	p.consume(lexer.TokenRightBrace, "expected '}'")
	return block
}

// parseLetStmt parses `let [mut] name [: Type] = init;`.
func (p *Parser) parseLetStmt() *ast.LetStmt {
	loc := p.previous.Position
	mut := p.match(lexer.TokenMut)
	name := p.expectIdentName("expected variable name")

	var typ types.Syntactic
	if p.match(lexer.TokenColon) {
		typ = p.parseType()
	}

	p.consume(lexer.TokenAssign, "expected '=' in let statement")
	init := p.parseExpression()
	p.consume(lexer.TokenSemicolon, "expected ';' after let statement")

	return &ast.LetStmt{Name: name, Mut: mut, Type: typ, Init: init, Loc: loc}
}

// parseExpression parses an expression of any precedence.
func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the core of Pratt parsing: parse a prefix expression,
// then keep consuming infix operators at or above the given precedence.
func (p *Parser) parsePrecedence(precedence Precedence) ast.Expr {
	left := p.parsePrefix()
	if left == nil {
		p.error(fmt.Sprintf("expected expression, got %s", p.current.Type))
		return &ast.IntLiteral{Value: 0, Loc: p.current.Position}
	}

	for precedence <= getPrecedence(p.current.Type) {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	switch {
	case p.check(lexer.TokenInt):
		return p.parseIntLiteral()
	case p.check(lexer.TokenIdentifier):
		return p.parseIdentifierOrCall()
	case p.check(lexer.TokenSelfValue):
		tok := p.current
		p.advance()
		return &ast.Identifier{Name: "self", Loc: tok.Position}
	case p.match(lexer.TokenLeftParen):
		inner := p.parseExpression()
		p.consume(lexer.TokenRightParen, "expected ')' after expression")
		return inner
	case p.check(lexer.TokenLeftBrace):
		return p.parseBlockExpr()
	case p.match(lexer.TokenIf):
		return p.parseIfExpr()
	case p.match(lexer.TokenWhile):
		return p.parseWhileExpr()
	case p.match(lexer.TokenMatch):
		return p.parseMatchExpr()
	default:
		return nil
	}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	tok := p.current
	p.advance()
	value, err := strconv.ParseUint(tok.Lexeme, 10, 64)
	if err != nil {
		p.error(fmt.Sprintf("invalid integer literal: %s", tok.Lexeme))
	}
	return &ast.IntLiteral{Value: value, Loc: tok.Position}
}

func (p *Parser) parseIdentifierOrCall() ast.Expr {
	tok := p.current
	p.advance()

	if p.match(lexer.TokenLeftParen) {
		args := p.parseArgs()
		return &ast.CallExpr{Name: tok.Lexeme, Args: args, Loc: tok.Position}
	}
	return &ast.Identifier{Name: tok.Lexeme, Loc: tok.Position}
}

func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	if !p.check(lexer.TokenRightParen) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "expected ')' after arguments")
	return args
}

// parseIfExpr parses `if (cond) { then } [else { else }]`. The parentheses
// around the condition are required.
func (p *Parser) parseIfExpr() ast.Expr {
	loc := p.previous.Position
	p.consume(lexer.TokenLeftParen, "expected '(' after 'if'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRightParen, "expected ')' after condition")

	then := p.parseBlockExpr()

	var elseBlock *ast.BlockExpr
	if p.match(lexer.TokenElse) {
		elseBlock = p.parseBlockExpr()
	}

	return &ast.IfExpr{Cond: cond, Then: then, Else: elseBlock, Loc: loc}
}

// parseWhileExpr parses `while (cond) { body }`.
func (p *Parser) parseWhileExpr() ast.Expr {
	loc := p.previous.Position
	p.consume(lexer.TokenLeftParen, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRightParen, "expected ')' after condition")

	body := p.parseBlockExpr()
	return &ast.WhileExpr{Cond: cond, Body: body, Loc: loc}
}

// parseMatchExpr parses `match scrutinee { pattern => expr, ... }`.
func (p *Parser) parseMatchExpr() ast.Expr {
	loc := p.previous.Position
	scrutinee := p.parseExpression()

	p.consume(lexer.TokenLeftBrace, "expected '{' after match scrutinee")
	var arms []ast.MatchArm
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		armLoc := p.current.Position
		pattern := p.parsePattern()
		p.consume(lexer.TokenFatArrow, "expected '=>' after match pattern")
		body := p.parseExpression()
		arms = append(arms, ast.MatchArm{Pattern: pattern, Body: body, Loc: armLoc})

		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightBrace, "expected '}' after match arms")

	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, Loc: loc}
}

// parsePattern parses one match-arm pattern: an integer literal, a bare
// binding, or a tuple-struct destructure `Variant(p1, ..., pk)`.
func (p *Parser) parsePattern() ast.Pattern {
	switch {
	case p.check(lexer.TokenInt):
		tok := p.current
		p.advance()
		value, err := strconv.ParseUint(tok.Lexeme, 10, 64)
		if err != nil {
			p.error(fmt.Sprintf("invalid integer pattern: %s", tok.Lexeme))
		}
		return &ast.LiteralPattern{Value: value, Loc: tok.Position}

	case p.check(lexer.TokenIdentifier):
		tok := p.current
		p.advance()
		if !p.match(lexer.TokenLeftParen) {
			return &ast.IdentPattern{Name: tok.Lexeme, Loc: tok.Position}
		}
		var elems []ast.Pattern
		if !p.check(lexer.TokenRightParen) {
			for {
				elems = append(elems, p.parsePattern())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		p.consume(lexer.TokenRightParen, "expected ')' after pattern elements")
		return &ast.TupleStructPattern{Variant: tok.Lexeme, Elems: elems, Loc: tok.Position}

	default:
		p.error(fmt.Sprintf("expected pattern, got %s", p.current.Type))
		return &ast.IdentPattern{Name: "_", Loc: p.current.Position}
	}
}

// parseInfix parses an infix operator applied to an already-parsed left
// operand.
func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	switch p.current.Type {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash,
		lexer.TokenLt, lexer.TokenLe, lexer.TokenGt, lexer.TokenGe,
		lexer.TokenEqEq, lexer.TokenNotEq:
		return p.parseBinary(left)

	case lexer.TokenAssign:
		return p.parseAssign(left)

	case lexer.TokenDot:
		return p.parseFieldOrMethod(left)

	default:
		return left
	}
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenPlus:  ast.Add,
	lexer.TokenMinus: ast.Sub,
	lexer.TokenStar:  ast.Mul,
	lexer.TokenSlash: ast.Div,
	lexer.TokenLt:    ast.LT,
	lexer.TokenGt:    ast.GT,
	lexer.TokenLe:    ast.LE,
	lexer.TokenGe:    ast.GE,
	lexer.TokenEqEq:  ast.EQ,
	lexer.TokenNotEq: ast.NE,
}

func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	operator := p.current
	precedence := getPrecedence(operator.Type)
	p.advance()

	right := p.parsePrecedence(precedence + 1)

	return &ast.BinaryExpr{Op: binaryOps[operator.Type], Left: left, Right: right, Loc: left.Pos()}
}

func (p *Parser) parseAssign(left ast.Expr) ast.Expr {
	p.advance()
	// Assignment is right-associative.
	value := p.parsePrecedence(PrecAssignment)
	return &ast.AssignExpr{Target: left, Value: value, Loc: left.Pos()}
}

func (p *Parser) parseFieldOrMethod(left ast.Expr) ast.Expr {
	p.advance()
	name := p.expectIdentName("expected field or method name after '.'")

	if p.match(lexer.TokenLeftParen) {
		args := p.parseArgs()
		return &ast.MethodCallExpr{Receiver: left, Method: name, Args: args, Loc: left.Pos()}
	}
	return &ast.FieldExpr{Receiver: left, Field: name, Loc: left.Pos()}
}

// Helper methods

func (p *Parser) advance() {
	p.previous = p.current
	for {
		token, err := p.lexer.NextToken()
		if err != nil {
			p.error(err.Error())
			p.current = lexer.Token{Type: lexer.TokenInvalid}
			return
		}
		if token.Type == lexer.TokenComment {
			continue
		}
		p.current = token
		return
	}
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.current.Type == tokenType
}

func (p *Parser) match(tokenType lexer.TokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(tokenType lexer.TokenType, message string) {
	if p.check(tokenType) {
		p.advance()
		return
	}
	p.error(message)
	panic(message)
}

func (p *Parser) expectIdentName(message string) string {
	if !p.check(lexer.TokenIdentifier) {
		p.error(message)
		panic(message)
	}
	name := p.current.Lexeme
	p.advance()
	return name
}

func (p *Parser) isAtEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

func (p *Parser) error(message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.errors = append(p.errors, fmt.Errorf("%s: %s", p.current.Position.String(), message))
}

// synchronize skips tokens until a likely item boundary, so one malformed
// item doesn't prevent parsing the rest of the file.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.isAtEnd() {
		switch p.current.Type {
		case lexer.TokenFn, lexer.TokenStruct, lexer.TokenEnum, lexer.TokenImpl, lexer.TokenMod:
			return
		}
		p.advance()
	}
}
