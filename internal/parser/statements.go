package parser

import (
	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/lexer"
)

// parseStatement parses one statement or declaration. It returns
// InvalidNode for erased TypeScript-only constructs (interfaces, type
// aliases, declare statements).
func (p *Parser) parseStatement() ast.NodeID {
	switch p.cur.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenVar, lexer.TokenLet, lexer.TokenConst:
		id := p.parseVarStatement()
		p.semicolon()
		return id
	case lexer.TokenFunction:
		return p.parseFunctionDecl(false, p.cur.Start)
	case lexer.TokenAsync:
		if p.peek.Type == lexer.TokenFunction {
			start := p.cur.Start
			p.advance()
			return p.parseFunctionDecl(true, start)
		}
		return p.parseExpressionStatement()
	case lexer.TokenClass:
		return p.parseClass(true)
	case lexer.TokenEnum:
		return p.parseEnum(false, p.cur.Start)
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenThrow:
		return p.parseThrow()
	case lexer.TokenBreak, lexer.TokenContinue:
		return p.parseBreakContinue()
	case lexer.TokenSwitch:
		return p.parseSwitch()
	case lexer.TokenTry:
		return p.parseTry()
	case lexer.TokenSemicolon:
		n := p.node(ast.KindEmptyStmt, p.cur.Start)
		p.advance()
		return p.add(n)
	case lexer.TokenDebugger:
		n := p.node(ast.KindDebuggerStmt, p.cur.Start)
		p.advance()
		p.semicolon()
		return p.add(n)
	case lexer.TokenImport:
		return p.parseImport()
	case lexer.TokenExport:
		return p.parseExport()
	case lexer.TokenInterface:
		p.skipInterface()
		return ast.InvalidNode
	case lexer.TokenTypeKeyword:
		// "type X = ..." only when followed by an identifier; otherwise
		// "type" is a plain identifier expression.
		if p.peek.Type == lexer.TokenIdent && !p.peek.NewlineBefore {
			p.skipTypeAlias()
			return ast.InvalidNode
		}
		return p.parseExpressionStatement()
	case lexer.TokenDeclare:
		p.skipDeclare()
		return ast.InvalidNode
	case lexer.TokenIdent:
		// Labeled statement: ident ':' statement
		if p.peek.Type == lexer.TokenColon {
			start := p.cur.Start
			label := p.identText()
			p.advance() // ':'
			n := p.node(ast.KindLabeled, start)
			n.Text = label
			n.A = p.parseStatement()
			return p.add(n)
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.NodeID {
	start := p.cur.Start
	expr := p.parseExpression()
	n := p.node(ast.KindExprStmt, start)
	n.A = expr
	p.semicolon()
	return p.add(n)
}

func (p *Parser) parseBlock() ast.NodeID {
	n := p.node(ast.KindBlock, p.cur.Start)
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		before := p.cur.Start
		if id := p.parseStatement(); id != ast.InvalidNode {
			n.List = append(n.List, id)
		}
		if p.cur.Start == before && !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
			p.advance()
		}
	}
	p.expect(lexer.TokenRBrace)
	return p.add(n)
}

// parseVarStatement parses "var|let|const declarator (, declarator)*"
// without the trailing semicolon, so for-loop heads can reuse it.
func (p *Parser) parseVarStatement() ast.NodeID {
	n := p.node(ast.KindVarStmt, p.cur.Start)
	n.Text = p.cur.Literal
	p.advance()
	for {
		n.List = append(n.List, p.parseVarDeclarator())
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	return p.add(n)
}

func (p *Parser) parseVarDeclarator() ast.NodeID {
	n := p.node(ast.KindVarDeclarator, p.cur.Start)
	n.A = p.parseBindingTarget()
	p.skipTypeAnnotation()
	if p.eat(lexer.TokenAssign) {
		n.B = p.parseAssignExpr()
	}
	return p.add(n)
}

// parseBindingTarget parses an identifier, object pattern, or array
// pattern in binding position.
func (p *Parser) parseBindingTarget() ast.NodeID {
	switch p.cur.Type {
	case lexer.TokenLBrace:
		return p.parseObjectPattern()
	case lexer.TokenLBracket:
		return p.parseArrayPattern()
	default:
		n := p.node(ast.KindBindingIdent, p.cur.Start)
		n.Text = p.identText()
		return p.add(n)
	}
}

func (p *Parser) parseObjectPattern() ast.NodeID {
	n := p.node(ast.KindObjectPattern, p.cur.Start)
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		if p.at(lexer.TokenEllipsis) {
			rest := p.node(ast.KindRestElement, p.cur.Start)
			p.advance()
			rest.A = p.parseBindingTarget()
			n.List = append(n.List, p.add(rest))
		} else {
			prop := p.node(ast.KindPatternProp, p.cur.Start)
			prop.Text = p.identText()
			if p.eat(lexer.TokenColon) {
				prop.A = p.parseBindingTarget()
			} else {
				// Shorthand: the key is also the binding.
				bind := p.node(ast.KindBindingIdent, int(prop.Start))
				bind.Text = prop.Text
				prop.A = p.add(bind)
			}
			if p.eat(lexer.TokenAssign) {
				prop.B = p.parseAssignExpr()
			}
			n.List = append(n.List, p.add(prop))
		}
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBrace)
	return p.add(n)
}

func (p *Parser) parseArrayPattern() ast.NodeID {
	n := p.node(ast.KindArrayPattern, p.cur.Start)
	p.expect(lexer.TokenLBracket)
	for !p.at(lexer.TokenRBracket) && !p.at(lexer.TokenEOF) {
		if p.at(lexer.TokenComma) {
			n.List = append(n.List, ast.InvalidNode) // hole
			p.advance()
			continue
		}
		if p.at(lexer.TokenEllipsis) {
			rest := p.node(ast.KindRestElement, p.cur.Start)
			p.advance()
			rest.A = p.parseBindingTarget()
			n.List = append(n.List, p.add(rest))
		} else {
			elem := p.parseBindingTarget()
			if p.eat(lexer.TokenAssign) {
				// Default values ride on a pattern property wrapper.
				wrap := p.node(ast.KindPatternProp, int(p.arena.Get(elem).Start))
				wrap.A = elem
				wrap.B = p.parseAssignExpr()
				elem = p.add(wrap)
			}
			n.List = append(n.List, elem)
		}
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBracket)
	return p.add(n)
}

func (p *Parser) parseFunctionDecl(isAsync bool, start int) ast.NodeID {
	p.expect(lexer.TokenFunction)
	n := p.node(ast.KindFunctionDecl, start)
	if isAsync {
		n.Flags |= ast.FlagAsync
	}
	if p.eat(lexer.TokenMul) {
		n.Flags |= ast.FlagGenerator
	}
	n.Text = p.identText()
	p.skipTypeParams()
	n.List = p.parseParams()
	p.skipTypeAnnotation()
	n.A = p.parseBlock()
	return p.add(n)
}

// parseParams parses a parenthesized parameter list with optional
// patterns, defaults, rest elements, and erased type annotations.
func (p *Parser) parseParams() []ast.NodeID {
	var params []ast.NodeID
	p.expect(lexer.TokenLParen)
	for !p.at(lexer.TokenRParen) && !p.at(lexer.TokenEOF) {
		param := p.node(ast.KindParam, p.cur.Start)
		if p.eat(lexer.TokenEllipsis) {
			param.Flags |= ast.FlagRest
		}
		param.A = p.parseBindingTarget()
		p.eat(lexer.TokenQuestion) // optional marker, erased
		p.skipTypeAnnotation()
		if p.eat(lexer.TokenAssign) {
			param.B = p.parseAssignExpr()
		}
		params = append(params, p.add(param))
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRParen)
	return params
}

func (p *Parser) parseClass(isDecl bool) ast.NodeID {
	kind := ast.KindClassExpr
	if isDecl {
		kind = ast.KindClassDecl
	}
	n := p.node(kind, p.cur.Start)
	p.expect(lexer.TokenClass)
	if p.cur.IdentLike() {
		n.Text = p.identText()
	}
	p.skipTypeParams()
	if p.eat(lexer.TokenExtends) {
		n.A = p.parseLeftHandSide()
		p.skipTypeParams()
	}
	if p.at(lexer.TokenIdent) && p.cur.Literal == "implements" {
		p.advance()
		p.skipType()
		for p.eat(lexer.TokenComma) {
			p.skipType()
		}
	}
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		if p.eat(lexer.TokenSemicolon) {
			continue
		}
		n.List = append(n.List, p.parseClassMember())
	}
	p.expect(lexer.TokenRBrace)
	return p.add(n)
}

func (p *Parser) parseClassMember() ast.NodeID {
	start := p.cur.Start
	var flags ast.Flags

	if p.at(lexer.TokenStatic) && p.peek.Type != lexer.TokenLParen && p.peek.Type != lexer.TokenAssign {
		flags |= ast.FlagStatic
		p.advance()
	}
	// Visibility modifiers are TypeScript-only; erase them.
	for p.at(lexer.TokenIdent) &&
		(p.cur.Literal == "public" || p.cur.Literal == "private" || p.cur.Literal == "protected" || p.cur.Literal == "readonly") &&
		p.peek.Type != lexer.TokenLParen && p.peek.Type != lexer.TokenAssign {
		p.advance()
	}
	if (p.at(lexer.TokenGet) || p.at(lexer.TokenSet)) && p.peek.Type != lexer.TokenLParen && p.peek.Type != lexer.TokenAssign {
		if p.at(lexer.TokenGet) {
			flags |= ast.FlagGetter
		} else {
			flags |= ast.FlagSetter
		}
		p.advance()
	}
	if p.at(lexer.TokenAsync) && p.peek.Type != lexer.TokenLParen && p.peek.Type != lexer.TokenAssign {
		flags |= ast.FlagAsync
		p.advance()
	}
	if p.eat(lexer.TokenMul) {
		flags |= ast.FlagGenerator
	}

	var name string
	computed := ast.InvalidNode
	if p.at(lexer.TokenLBracket) {
		flags |= ast.FlagComputed
		p.advance()
		computed = p.parseAssignExpr()
		p.expect(lexer.TokenRBracket)
	} else if p.at(lexer.TokenString) {
		name = p.cur.Literal
		p.advance()
	} else {
		name = p.identText()
	}
	p.eat(lexer.TokenQuestion) // optional marker

	if p.at(lexer.TokenLParen) || p.at(lexer.TokenLt) {
		method := p.node(ast.KindMethod, start)
		method.Flags = flags
		method.Text = name
		method.A = computed
		p.skipTypeParams()
		method.List = p.parseParams()
		p.skipTypeAnnotation()
		method.B = p.parseBlock()
		return p.add(method)
	}

	field := p.node(ast.KindField, start)
	field.Flags = flags
	field.Text = name
	p.skipTypeAnnotation()
	if p.eat(lexer.TokenAssign) {
		field.A = p.parseAssignExpr()
	}
	p.semicolon()
	return p.add(field)
}

func (p *Parser) parseEnum(isConst bool, start int) ast.NodeID {
	n := p.node(ast.KindEnumDecl, start)
	if isConst {
		n.Flags |= ast.FlagConstEnum
	}
	p.expect(lexer.TokenEnum)
	n.Text = p.identText()
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		member := p.node(ast.KindEnumMember, p.cur.Start)
		if p.at(lexer.TokenString) {
			member.Text = p.cur.Literal
			p.advance()
		} else {
			member.Text = p.identText()
		}
		if p.eat(lexer.TokenAssign) {
			member.A = p.parseAssignExpr()
		}
		n.List = append(n.List, p.add(member))
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBrace)
	return p.add(n)
}

func (p *Parser) parseIf() ast.NodeID {
	n := p.node(ast.KindIf, p.cur.Start)
	p.expect(lexer.TokenIf)
	p.expect(lexer.TokenLParen)
	n.A = p.parseExpression()
	p.expect(lexer.TokenRParen)
	n.B = p.parseStatement()
	if p.eat(lexer.TokenElse) {
		n.C = p.parseStatement()
	}
	return p.add(n)
}

func (p *Parser) parseWhile() ast.NodeID {
	n := p.node(ast.KindWhile, p.cur.Start)
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	n.A = p.parseExpression()
	p.expect(lexer.TokenRParen)
	n.B = p.parseStatement()
	return p.add(n)
}

func (p *Parser) parseDoWhile() ast.NodeID {
	n := p.node(ast.KindDoWhile, p.cur.Start)
	p.expect(lexer.TokenDo)
	n.B = p.parseStatement()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	n.A = p.parseExpression()
	p.expect(lexer.TokenRParen)
	p.semicolon()
	return p.add(n)
}

func (p *Parser) parseFor() ast.NodeID {
	start := p.cur.Start
	p.expect(lexer.TokenFor)
	p.expect(lexer.TokenLParen)

	init := ast.InvalidNode
	p.noIn = true
	if p.at(lexer.TokenVar) || p.at(lexer.TokenLet) || p.at(lexer.TokenConst) {
		init = p.parseVarStatement()
	} else if !p.at(lexer.TokenSemicolon) {
		exprStart := p.cur.Start
		expr := p.parseExpression()
		stmt := p.node(ast.KindExprStmt, exprStart)
		stmt.A = expr
		init = p.add(stmt)
	}
	p.noIn = false

	// for-in / for-of
	if p.at(lexer.TokenIn) || p.at(lexer.TokenOf) {
		kind := ast.KindForIn
		if p.at(lexer.TokenOf) {
			kind = ast.KindForOf
		}
		p.advance()
		n := p.node(kind, start)
		n.A = init
		n.B = p.parseAssignExpr()
		p.expect(lexer.TokenRParen)
		n.C = p.parseStatement()
		return p.add(n)
	}

	n := p.node(ast.KindFor, start)
	n.A = init
	p.expect(lexer.TokenSemicolon)
	if !p.at(lexer.TokenSemicolon) {
		n.B = p.parseExpression()
	}
	p.expect(lexer.TokenSemicolon)
	if !p.at(lexer.TokenRParen) {
		n.C = p.parseExpression()
	}
	p.expect(lexer.TokenRParen)
	n.D = p.parseStatement()
	return p.add(n)
}

func (p *Parser) parseReturn() ast.NodeID {
	n := p.node(ast.KindReturn, p.cur.Start)
	p.advance()
	if !p.at(lexer.TokenSemicolon) && !p.at(lexer.TokenRBrace) &&
		!p.at(lexer.TokenEOF) && !p.cur.NewlineBefore {
		n.A = p.parseExpression()
	}
	p.semicolon()
	return p.add(n)
}

func (p *Parser) parseThrow() ast.NodeID {
	n := p.node(ast.KindThrow, p.cur.Start)
	p.advance()
	n.A = p.parseExpression()
	p.semicolon()
	return p.add(n)
}

func (p *Parser) parseBreakContinue() ast.NodeID {
	kind := ast.KindBreak
	if p.at(lexer.TokenContinue) {
		kind = ast.KindContinue
	}
	n := p.node(kind, p.cur.Start)
	p.advance()
	if p.at(lexer.TokenIdent) && !p.cur.NewlineBefore {
		n.Text = p.identText()
	}
	p.semicolon()
	return p.add(n)
}

func (p *Parser) parseSwitch() ast.NodeID {
	n := p.node(ast.KindSwitch, p.cur.Start)
	p.expect(lexer.TokenSwitch)
	p.expect(lexer.TokenLParen)
	n.A = p.parseExpression()
	p.expect(lexer.TokenRParen)
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		c := p.node(ast.KindSwitchCase, p.cur.Start)
		if p.eat(lexer.TokenCase) {
			c.A = p.parseExpression()
		} else {
			p.expect(lexer.TokenDefault)
		}
		p.expect(lexer.TokenColon)
		for !p.at(lexer.TokenCase) && !p.at(lexer.TokenDefault) &&
			!p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
			if id := p.parseStatement(); id != ast.InvalidNode {
				c.List = append(c.List, id)
			}
		}
		n.List = append(n.List, p.add(c))
	}
	p.expect(lexer.TokenRBrace)
	return p.add(n)
}

func (p *Parser) parseTry() ast.NodeID {
	n := p.node(ast.KindTry, p.cur.Start)
	p.expect(lexer.TokenTry)
	n.A = p.parseBlock()
	if p.at(lexer.TokenCatch) {
		c := p.node(ast.KindCatchClause, p.cur.Start)
		p.advance()
		if p.eat(lexer.TokenLParen) {
			c.A = p.parseBindingTarget()
			p.skipTypeAnnotation()
			p.expect(lexer.TokenRParen)
		}
		c.B = p.parseBlock()
		n.B = p.add(c)
	}
	if p.eat(lexer.TokenFinally) {
		n.C = p.parseBlock()
	}
	if n.B == ast.InvalidNode && n.C == ast.InvalidNode {
		p.errorAtCur("try statement requires catch or finally")
	}
	return p.add(n)
}

func (p *Parser) parseImport() ast.NodeID {
	n := p.node(ast.KindImportDecl, p.cur.Start)
	p.expect(lexer.TokenImport)

	// import "module";
	if p.at(lexer.TokenString) {
		n.Text = p.cur.Literal
		p.advance()
		p.semicolon()
		return p.add(n)
	}

	// import type ... is erased entirely.
	if p.at(lexer.TokenTypeKeyword) && p.peek.Type != lexer.TokenComma && p.peek.Type != lexer.TokenFrom {
		for !p.at(lexer.TokenSemicolon) && !p.at(lexer.TokenEOF) && !p.cur.NewlineBefore {
			p.advance()
		}
		p.eat(lexer.TokenSemicolon)
		return ast.InvalidNode
	}

	if p.cur.IdentLike() {
		spec := p.node(ast.KindImportSpec, p.cur.Start)
		spec.Flags |= ast.FlagDefault
		spec.Text = p.identText()
		n.List = append(n.List, p.add(spec))
		p.eat(lexer.TokenComma)
	}
	if p.eat(lexer.TokenMul) {
		spec := p.node(ast.KindImportSpec, p.prevEnd)
		spec.Flags |= ast.FlagNamespace
		p.expect(lexer.TokenAs)
		spec.Text = p.identText()
		n.List = append(n.List, p.add(spec))
	} else if p.eat(lexer.TokenLBrace) {
		for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
			spec := p.node(ast.KindImportSpec, p.cur.Start)
			importedStart := p.cur.Start
			imported := p.identText()
			if p.eat(lexer.TokenAs) {
				imp := p.node(ast.KindIdent, importedStart)
				imp.Text = imported
				spec.A = p.add(imp)
				spec.Text = p.identText()
			} else {
				spec.Text = imported
			}
			n.List = append(n.List, p.add(spec))
			if !p.eat(lexer.TokenComma) {
				break
			}
		}
		p.expect(lexer.TokenRBrace)
	}
	p.expect(lexer.TokenFrom)
	if p.at(lexer.TokenString) {
		n.Text = p.cur.Literal
		p.advance()
	} else {
		p.errorAtCur("expected module specifier")
	}
	p.semicolon()
	return p.add(n)
}

func (p *Parser) parseExport() ast.NodeID {
	start := p.cur.Start
	p.expect(lexer.TokenExport)

	// export default <expr|decl>
	if p.eat(lexer.TokenDefault) {
		n := p.node(ast.KindExportDecl, start)
		n.Flags |= ast.FlagDefault
		switch p.cur.Type {
		case lexer.TokenFunction:
			n.A = p.parseFunctionDecl(false, p.cur.Start)
		case lexer.TokenAsync:
			s := p.cur.Start
			p.advance()
			n.A = p.parseFunctionDecl(true, s)
		case lexer.TokenClass:
			n.A = p.parseClass(true)
		default:
			n.A = p.parseAssignExpr()
			p.semicolon()
		}
		return p.add(n)
	}

	// export { a, b as c } [from "m"];
	if p.at(lexer.TokenLBrace) {
		n := p.node(ast.KindExportNamed, start)
		p.advance()
		for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
			spec := p.node(ast.KindExportSpec, p.cur.Start)
			spec.Text = p.identText()
			if p.eat(lexer.TokenAs) {
				aliasStart := p.cur.Start
				alias := p.node(ast.KindIdent, aliasStart)
				alias.Text = p.identText()
				spec.A = p.add(alias)
			}
			n.List = append(n.List, p.add(spec))
			if !p.eat(lexer.TokenComma) {
				break
			}
		}
		p.expect(lexer.TokenRBrace)
		if p.eat(lexer.TokenFrom) {
			if p.at(lexer.TokenString) {
				n.Text = p.cur.Literal
				p.advance()
			} else {
				p.errorAtCur("expected module specifier")
			}
		}
		p.semicolon()
		return p.add(n)
	}

	// export <declaration>
	n := p.node(ast.KindExportDecl, start)
	switch p.cur.Type {
	case lexer.TokenVar, lexer.TokenLet, lexer.TokenConst:
		if p.at(lexer.TokenConst) && p.peek.Type == lexer.TokenEnum {
			p.advance()
			n.A = p.parseEnum(true, start)
		} else {
			n.A = p.parseVarStatement()
			p.semicolon()
		}
	case lexer.TokenFunction:
		n.A = p.parseFunctionDecl(false, p.cur.Start)
	case lexer.TokenAsync:
		s := p.cur.Start
		p.advance()
		n.A = p.parseFunctionDecl(true, s)
	case lexer.TokenClass:
		n.A = p.parseClass(true)
	case lexer.TokenEnum:
		n.A = p.parseEnum(false, p.cur.Start)
	case lexer.TokenInterface:
		p.skipInterface()
		return ast.InvalidNode
	case lexer.TokenTypeKeyword:
		p.skipTypeAlias()
		return ast.InvalidNode
	default:
		p.errorAtCur("expected declaration after export")
		p.advance()
		return ast.InvalidNode
	}
	return p.add(n)
}

// --- erased TypeScript declarations ---------------------------------------

func (p *Parser) skipInterface() {
	p.expect(lexer.TokenInterface)
	p.identText()
	p.skipTypeParams()
	if p.eat(lexer.TokenExtends) {
		p.skipType()
		for p.eat(lexer.TokenComma) {
			p.skipType()
		}
	}
	p.skipBalanced(lexer.TokenLBrace, lexer.TokenRBrace)
}

func (p *Parser) skipTypeAlias() {
	p.expect(lexer.TokenTypeKeyword)
	p.identText()
	p.skipTypeParams()
	p.expect(lexer.TokenAssign)
	p.skipType()
	p.eat(lexer.TokenSemicolon)
}

func (p *Parser) skipDeclare() {
	p.expect(lexer.TokenDeclare)
	// Swallow the rest of the declared statement; ambient declarations
	// have no runtime output.
	depth := 0
	for !p.at(lexer.TokenEOF) {
		switch p.cur.Type {
		case lexer.TokenLBrace:
			depth++
		case lexer.TokenRBrace:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case lexer.TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		if depth == 0 && p.cur.NewlineBefore && p.cur.Type == lexer.TokenEOF {
			return
		}
		p.advance()
	}
}
