// Package parser implements a Pratt (precedence-climbing) recursive
// descent parser over the restricted surface grammar defined in
// internal/ast, producing the AST the resolver and compiler consume.
package parser

import (
	"fmt"

	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/lexer"
	"github.com/svmlang/svmc/internal/report"
	"github.com/svmlang/svmc/internal/token"
)

const (
	_ int = iota
	precLowest
	precTernary
	precOr
	precAnd
	precEquals
	precCompare
	precSum
	precProduct
	precPrefix
	precCall
)

var precedences = map[token.Type]int{
	token.QUESTION: precTernary,
	token.OR:       precOr,
	token.AND:      precAnd,
	token.EQ:       precEquals,
	token.NEQ:      precEquals,
	token.LT:       precCompare,
	token.GT:       precCompare,
	token.LE:       precCompare,
	token.GE:       precCompare,
	token.PLUS:     precSum,
	token.MINUS:    precSum,
	token.STAR:     precProduct,
	token.SLASH:    precProduct,
	token.PERCENT:  precProduct,
	token.LPAREN:   precCall,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser turns a token stream into a Program.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errs []error

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New returns a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.Type]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.INT:    p.parseIntLiteral,
		token.FLOAT:  p.parseFloatLiteral,
		token.STRING: p.parseStringLiteral,
		token.TRUE:   p.parseBoolLiteral,
		token.FALSE:  p.parseBoolLiteral,
		token.NONE:   p.parseNoneLiteral,
		token.MINUS:  p.parsePrefixExpr,
		token.NOT:    p.parsePrefixExpr,
		token.LPAREN: p.parseGroupedExpr,
		token.LAMBDA: p.parseFunctionLiteral,
	}

	p.infixParseFns = map[token.Type]infixParseFn{
		token.PLUS:     p.parseBinaryExpr,
		token.MINUS:    p.parseBinaryExpr,
		token.STAR:     p.parseBinaryExpr,
		token.SLASH:    p.parseBinaryExpr,
		token.PERCENT:  p.parseBinaryExpr,
		token.EQ:       p.parseBinaryExpr,
		token.NEQ:      p.parseBinaryExpr,
		token.LT:       p.parseBinaryExpr,
		token.GT:       p.parseBinaryExpr,
		token.LE:       p.parseBinaryExpr,
		token.GE:       p.parseBinaryExpr,
		token.AND:      p.parseBinaryExpr,
		token.OR:       p.parseBinaryExpr,
		token.LPAREN:   p.parseCallExpr,
		token.QUESTION: p.parseTernaryExpr,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every parse error collected so far.
func (p *Parser) Errors() []error { return p.errs }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) pos() report.Position {
	return report.Position{Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, report.NewCompileError(p.pos(), format, args...))
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected next token to be %v, got %v (%q)", t, p.peekToken.Type, p.peekToken.Lexeme)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return precLowest
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

func (p *Parser) parseBlock() []ast.Statement {
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()

	var stmts []ast.Statement
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}
	if !p.curTokenIs(token.RBRACE) {
		p.errorf("unterminated block, expected '}'")
	}
	return stmts
}

func (p *Parser) parseIdentTok() *ast.Identifier {
	return &ast.Identifier{Token: p.curToken, Name: p.curToken.Lexeme}
}

func (p *Parser) parseIdentifier() ast.Expression { return p.parseIdentTok() }

func (p *Parser) parseIntLiteral() ast.Expression {
	var v int64
	if _, err := fmt.Sscanf(p.curToken.Literal, "%d", &v); err != nil {
		p.errorf("invalid integer literal %q", p.curToken.Literal)
	}
	return &ast.IntLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	var v float64
	if _, err := fmt.Sscanf(p.curToken.Literal, "%g", &v); err != nil {
		p.errorf("invalid float literal %q", p.curToken.Literal)
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.NoneLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpr() ast.Expression {
	tok := p.curToken
	op := tok.Lexeme
	if tok.Type == token.NOT {
		op = "not"
	}
	p.nextToken()
	right := p.parseExpression(precPrefix)
	return &ast.UnaryExpr{Token: tok, Op: op, Right: right}
}

func (p *Parser) parseBinaryExpr(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := tok.Lexeme
	if tok.Type == token.AND {
		op = "and"
	} else if tok.Type == token.OR {
		op = "or"
	}
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.BinaryExpr{Token: tok, Op: op, Left: left, Right: right}
}

// parseTernaryExpr parses "cond ? then : else", right-associative:
// the else-arm is parsed at precLowest so a further ternary there
// (a ? b : c ? d : e) nests to the right instead of erroring.
func (p *Parser) parseTernaryExpr(cond ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	then := p.parseExpression(precLowest)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	els := p.parseExpression(precLowest)
	return &ast.ConditionalExpr{Token: tok, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseGroupedExpr() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(precLowest)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseCallExpr(callee ast.Expression) ast.Expression {
	tok := p.curToken
	args := p.parseExpressionList(token.RPAREN)
	return &ast.CallExpr{Token: tok, Callee: callee, Args: args}
}

func (p *Parser) parseExpressionList(end token.Type) []ast.Expression {
	var list []ast.Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(precLowest))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(precLowest))
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseParamList() []*ast.Identifier {
	var params []*ast.Identifier
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseIdentTok())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		params = append(params, p.parseIdentTok())
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	body := []ast.Statement{&ast.ExpressionStatement{Token: p.curToken, Expr: p.parseExpression(precLowest)}}
	return &ast.FunctionLiteral{Token: tok, Params: params, Body: body}
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf("no prefix parse function for %v (%q)", p.curToken.Type, p.curToken.Lexeme)
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}
