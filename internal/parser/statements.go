package parser

import (
	"github.com/svmlang/svmc/internal/ast"
	"github.com/svmlang/svmc/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.DEF:
		return p.parseFunctionDef()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.PASS:
		tok := p.curToken
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return &ast.PassStatement{Token: tok}
	case token.GLOBAL:
		return p.parseGlobalStatement()
	case token.NONLOCAL:
		return p.parseNonlocalStatement()
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.curToken
	expr := p.parseExpression(precLowest)
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return &ast.ExpressionStatement{Token: tok, Expr: expr}
}

func (p *Parser) parseAssignStatement() ast.Statement {
	target := p.parseIdentTok()
	tok := p.curToken
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(precLowest)
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return &ast.AssignStatement{Token: tok, Target: target, Value: value}
}

func (p *Parser) parseFunctionDef() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.parseIdentTok()
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.FunctionDef{Token: tok, Name: name, Params: params, Body: body}
}

func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(precLowest)
	then := p.parseBlock()

	var elseBody []ast.Statement
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			elseBody = []ast.Statement{p.parseIfStatement()}
		} else {
			elseBody = p.parseBlock()
		}
	}
	return &ast.IfStatement{Token: tok, Cond: cond, Then: then, Else: elseBody}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(precLowest)
	body := p.parseBlock()
	return &ast.WhileStatement{Token: tok, Cond: cond, Body: body}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.SEMICOLON) {
		if p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		return &ast.ReturnStatement{Token: tok}
	}
	p.nextToken()
	value := p.parseExpression(precLowest)
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return &ast.ReturnStatement{Token: tok, Value: value}
}

func (p *Parser) parseGlobalStatement() ast.Statement {
	tok := p.curToken
	names := p.parseNameList()
	return &ast.GlobalStatement{Token: tok, Names: names}
}

func (p *Parser) parseNonlocalStatement() ast.Statement {
	tok := p.curToken
	names := p.parseNameList()
	return &ast.NonlocalStatement{Token: tok, Names: names}
}

func (p *Parser) parseNameList() []string {
	var names []string
	if !p.expectPeek(token.IDENT) {
		return names
	}
	names = append(names, p.curToken.Lexeme)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return names
		}
		names = append(names, p.curToken.Lexeme)
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return names
}
