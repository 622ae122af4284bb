package parser

import (
	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/lexer"
)

// binaryPrec maps binary operator tokens to binding power. Logical and
// nullish operators are handled here too but build KindLogical nodes.
var binaryPrec = map[lexer.TokenType]int{
	lexer.TokenNullish:    1,
	lexer.TokenOr:         2,
	lexer.TokenAnd:        3,
	lexer.TokenBitOr:      4,
	lexer.TokenBitXor:     5,
	lexer.TokenBitAnd:     6,
	lexer.TokenEq:         7,
	lexer.TokenNe:         7,
	lexer.TokenStrictEq:   7,
	lexer.TokenStrictNe:   7,
	lexer.TokenLt:         8,
	lexer.TokenLe:         8,
	lexer.TokenGt:         8,
	lexer.TokenGe:         8,
	lexer.TokenInstanceof: 8,
	lexer.TokenIn:         8,
	lexer.TokenShl:        9,
	lexer.TokenShr:        9,
	lexer.TokenUShr:       9,
	lexer.TokenPlus:       10,
	lexer.TokenMinus:      10,
	lexer.TokenMul:        11,
	lexer.TokenDiv:        11,
	lexer.TokenMod:        11,
	lexer.TokenPow:        12,
}

var assignOps = map[lexer.TokenType]bool{
	lexer.TokenAssign:       true,
	lexer.TokenPlusAssign:   true,
	lexer.TokenMinusAssign:  true,
	lexer.TokenMulAssign:    true,
	lexer.TokenDivAssign:    true,
	lexer.TokenModAssign:    true,
	lexer.TokenPowAssign:    true,
	lexer.TokenShlAssign:    true,
	lexer.TokenShrAssign:    true,
	lexer.TokenUShrAssign:   true,
	lexer.TokenBitAndAssign: true,
	lexer.TokenBitOrAssign:  true,
	lexer.TokenBitXorAssign: true,
}

// parseExpression parses a full expression including comma sequences.
func (p *Parser) parseExpression() ast.NodeID {
	start := p.cur.Start
	first := p.parseAssignExpr()
	if !p.at(lexer.TokenComma) {
		return first
	}
	n := p.node(ast.KindComma, start)
	n.List = append(n.List, first)
	for p.eat(lexer.TokenComma) {
		n.List = append(n.List, p.parseAssignExpr())
	}
	return p.add(n)
}

// parseAssignExpr parses an assignment-level expression: arrows, yield,
// conditional, and the assignment operators (right associative).
func (p *Parser) parseAssignExpr() ast.NodeID {
	if arrow, ok := p.tryParseArrow(); ok {
		return arrow
	}
	if p.at(lexer.TokenYield) {
		return p.parseYield()
	}

	start := p.cur.Start
	left := p.parseConditional()
	if assignOps[p.cur.Type] {
		n := p.node(ast.KindAssign, start)
		n.Text = p.cur.Literal
		n.A = p.retargetPattern(left)
		p.advance()
		n.B = p.parseAssignExpr()
		return p.add(n)
	}
	return left
}

func (p *Parser) parseYield() ast.NodeID {
	n := p.node(ast.KindYield, p.cur.Start)
	p.advance()
	if p.eat(lexer.TokenMul) {
		n.Flags |= ast.FlagDelegate
	}
	if !p.cur.NewlineBefore && !p.at(lexer.TokenSemicolon) && !p.at(lexer.TokenRParen) &&
		!p.at(lexer.TokenRBrace) && !p.at(lexer.TokenRBracket) && !p.at(lexer.TokenComma) &&
		!p.at(lexer.TokenColon) && !p.at(lexer.TokenEOF) {
		n.A = p.parseAssignExpr()
	}
	return p.add(n)
}

func (p *Parser) parseConditional() ast.NodeID {
	start := p.cur.Start
	cond := p.parseBinary(0)
	if !p.eat(lexer.TokenQuestion) {
		return cond
	}
	n := p.node(ast.KindConditional, start)
	n.A = cond
	n.B = p.parseAssignExpr()
	p.expect(lexer.TokenColon)
	n.C = p.parseAssignExpr()
	return p.add(n)
}

// parseBinary implements precedence climbing over binaryPrec. "as T"
// casts are consumed and erased at this level.
func (p *Parser) parseBinary(minPrec int) ast.NodeID {
	start := p.cur.Start
	left := p.parseUnary()
	for {
		if p.at(lexer.TokenAs) && !p.cur.NewlineBefore {
			p.advance()
			p.skipType()
			continue
		}
		if p.at(lexer.TokenIn) && p.noIn {
			return left
		}
		prec, ok := binaryPrec[p.cur.Type]
		if !ok || prec < minPrec {
			return left
		}
		op := p.cur.Literal
		tt := p.cur.Type
		p.advance()

		kind := ast.KindBinary
		if tt == lexer.TokenAnd || tt == lexer.TokenOr || tt == lexer.TokenNullish {
			kind = ast.KindLogical
		}
		// Exponentiation is right associative; everything else left.
		nextMin := prec + 1
		if tt == lexer.TokenPow {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)
		n := p.node(kind, start)
		n.Text = op
		n.A = left
		n.B = right
		left = p.add(n)
	}
}

func (p *Parser) parseUnary() ast.NodeID {
	switch p.cur.Type {
	case lexer.TokenAwait:
		n := p.node(ast.KindAwait, p.cur.Start)
		p.advance()
		n.A = p.parseUnary()
		return p.add(n)
	case lexer.TokenDelete, lexer.TokenTypeof, lexer.TokenVoid,
		lexer.TokenNot, lexer.TokenBitNot, lexer.TokenPlus, lexer.TokenMinus:
		n := p.node(ast.KindUnary, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		n.A = p.parseUnary()
		return p.add(n)
	case lexer.TokenInc, lexer.TokenDec:
		n := p.node(ast.KindUpdate, p.cur.Start)
		n.Text = p.cur.Literal
		n.Flags |= ast.FlagPrefix
		p.advance()
		n.A = p.parseUnary()
		return p.add(n)
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.NodeID {
	start := p.cur.Start
	expr := p.parseLeftHandSide()
	if (p.at(lexer.TokenInc) || p.at(lexer.TokenDec)) && !p.cur.NewlineBefore {
		n := p.node(ast.KindUpdate, start)
		n.Text = p.cur.Literal
		n.A = expr
		p.advance()
		return p.add(n)
	}
	return expr
}

// parseLeftHandSide parses new expressions and call/member chains.
func (p *Parser) parseLeftHandSide() ast.NodeID {
	var expr ast.NodeID
	start := p.cur.Start
	if p.at(lexer.TokenNew) {
		expr = p.parseNew()
	} else {
		expr = p.parsePrimary()
	}
	return p.parseCallChain(expr, start)
}

func (p *Parser) parseNew() ast.NodeID {
	n := p.node(ast.KindNew, p.cur.Start)
	p.expect(lexer.TokenNew)
	if p.at(lexer.TokenNew) {
		n.A = p.parseNew()
	} else {
		callee := p.parsePrimary()
		// Member access binds tighter than the new call itself.
		for {
			if p.at(lexer.TokenDot) {
				calleeStart := int(p.arena.Get(callee).Start)
				p.advance()
				m := p.node(ast.KindMember, calleeStart)
				m.A = callee
				m.Text = p.identText()
				callee = p.add(m)
				continue
			}
			if p.at(lexer.TokenLBracket) {
				calleeStart := int(p.arena.Get(callee).Start)
				p.advance()
				m := p.node(ast.KindIndex, calleeStart)
				m.A = callee
				m.B = p.parseExpression()
				p.expect(lexer.TokenRBracket)
				callee = p.add(m)
				continue
			}
			break
		}
		n.A = callee
	}
	p.skipTypeParams()
	if p.at(lexer.TokenLParen) {
		n.List = p.parseArguments()
	}
	return p.add(n)
}

func (p *Parser) parseCallChain(expr ast.NodeID, start int) ast.NodeID {
	for {
		switch {
		case p.at(lexer.TokenDot):
			p.advance()
			n := p.node(ast.KindMember, start)
			n.A = expr
			n.Text = p.identText()
			expr = p.add(n)
		case p.at(lexer.TokenLBracket):
			p.advance()
			n := p.node(ast.KindIndex, start)
			n.A = expr
			n.B = p.parseExpression()
			p.expect(lexer.TokenRBracket)
			expr = p.add(n)
		case p.at(lexer.TokenLParen):
			n := p.node(ast.KindCall, start)
			n.A = expr
			n.List = p.parseArguments()
			expr = p.add(n)
		case p.at(lexer.TokenTemplate):
			n := p.node(ast.KindTaggedTemplate, start)
			n.A = expr
			n.B = p.parseTemplate()
			expr = p.add(n)
		case p.at(lexer.TokenNot) && !p.cur.NewlineBefore:
			// Non-null assertion, erased.
			p.advance()
		case p.at(lexer.TokenLt) && p.lookaheadIsTypeArgs(p.cur.Start):
			// Generic call: f<T>(...). The arguments are erased.
			p.skipTypeArgs()
		default:
			return expr
		}
	}
}

func (p *Parser) parseArguments() []ast.NodeID {
	var args []ast.NodeID
	p.expect(lexer.TokenLParen)
	for !p.at(lexer.TokenRParen) && !p.at(lexer.TokenEOF) {
		if p.at(lexer.TokenEllipsis) {
			spread := p.node(ast.KindSpreadElement, p.cur.Start)
			p.advance()
			spread.A = p.parseAssignExpr()
			args = append(args, p.add(spread))
		} else {
			args = append(args, p.parseAssignExpr())
		}
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRParen)
	return args
}

func (p *Parser) parsePrimary() ast.NodeID {
	switch p.cur.Type {
	case lexer.TokenIdent, lexer.TokenOf, lexer.TokenFrom, lexer.TokenAs,
		lexer.TokenGet, lexer.TokenSet, lexer.TokenStatic, lexer.TokenTypeKeyword,
		lexer.TokenDeclare:
		n := p.node(ast.KindIdent, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		return p.add(n)
	case lexer.TokenNumber:
		n := p.node(ast.KindNumberLit, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		return p.add(n)
	case lexer.TokenString:
		n := p.node(ast.KindStringLit, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		return p.add(n)
	case lexer.TokenTrue, lexer.TokenFalse:
		n := p.node(ast.KindBoolLit, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		return p.add(n)
	case lexer.TokenNull:
		n := p.node(ast.KindNullLit, p.cur.Start)
		p.advance()
		return p.add(n)
	case lexer.TokenRegex:
		n := p.node(ast.KindRegexLit, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		return p.add(n)
	case lexer.TokenTemplate:
		return p.parseTemplate()
	case lexer.TokenThis:
		n := p.node(ast.KindThis, p.cur.Start)
		p.advance()
		return p.add(n)
	case lexer.TokenSuper:
		n := p.node(ast.KindSuper, p.cur.Start)
		p.advance()
		return p.add(n)
	case lexer.TokenLParen:
		start := p.cur.Start
		p.advance()
		inner := p.parseExpression()
		p.expect(lexer.TokenRParen)
		n := p.node(ast.KindParen, start)
		n.A = inner
		return p.add(n)
	case lexer.TokenLBracket:
		return p.parseArrayLit()
	case lexer.TokenLBrace:
		return p.parseObjectLit()
	case lexer.TokenFunction:
		return p.parseFunctionExpr(false, p.cur.Start)
	case lexer.TokenAsync:
		if p.peek.Type == lexer.TokenFunction && !p.peek.NewlineBefore {
			start := p.cur.Start
			p.advance()
			return p.parseFunctionExpr(true, start)
		}
		// Bare "async" used as an identifier.
		n := p.node(ast.KindIdent, p.cur.Start)
		n.Text = p.cur.Literal
		p.advance()
		return p.add(n)
	case lexer.TokenClass:
		return p.parseClass(false)
	default:
		p.errorAtCur("unexpected token " + p.cur.Type.String() + " in expression")
		n := p.node(ast.KindIdent, p.cur.Start)
		n.Text = "_"
		if !p.at(lexer.TokenEOF) {
			p.advance()
		}
		return p.add(n)
	}
}

func (p *Parser) parseFunctionExpr(isAsync bool, start int) ast.NodeID {
	p.expect(lexer.TokenFunction)
	n := p.node(ast.KindFunctionExpr, start)
	if isAsync {
		n.Flags |= ast.FlagAsync
	}
	if p.eat(lexer.TokenMul) {
		n.Flags |= ast.FlagGenerator
	}
	if p.cur.IdentLike() && !p.at(lexer.TokenLParen) {
		n.Text = p.identText()
	}
	p.skipTypeParams()
	n.List = p.parseParams()
	p.skipTypeAnnotation()
	n.A = p.parseBlock()
	return p.add(n)
}

func (p *Parser) parseArrayLit() ast.NodeID {
	n := p.node(ast.KindArrayLit, p.cur.Start)
	p.expect(lexer.TokenLBracket)
	for !p.at(lexer.TokenRBracket) && !p.at(lexer.TokenEOF) {
		if p.at(lexer.TokenComma) {
			n.List = append(n.List, ast.InvalidNode) // hole
			p.advance()
			continue
		}
		if p.at(lexer.TokenEllipsis) {
			spread := p.node(ast.KindSpreadElement, p.cur.Start)
			p.advance()
			spread.A = p.parseAssignExpr()
			n.List = append(n.List, p.add(spread))
		} else {
			n.List = append(n.List, p.parseAssignExpr())
		}
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBracket)
	return p.add(n)
}

func (p *Parser) parseObjectLit() ast.NodeID {
	n := p.node(ast.KindObjectLit, p.cur.Start)
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.at(lexer.TokenEOF) {
		if p.at(lexer.TokenEllipsis) {
			spread := p.node(ast.KindSpreadElement, p.cur.Start)
			p.advance()
			spread.A = p.parseAssignExpr()
			n.List = append(n.List, p.add(spread))
		} else {
			n.List = append(n.List, p.parseProperty())
		}
		if !p.eat(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRBrace)
	return p.add(n)
}

func (p *Parser) parseProperty() ast.NodeID {
	prop := p.node(ast.KindProperty, p.cur.Start)

	var flags ast.Flags
	if (p.at(lexer.TokenGet) || p.at(lexer.TokenSet)) &&
		p.peek.Type != lexer.TokenColon && p.peek.Type != lexer.TokenComma &&
		p.peek.Type != lexer.TokenRBrace && p.peek.Type != lexer.TokenLParen {
		if p.at(lexer.TokenGet) {
			flags |= ast.FlagGetter
		} else {
			flags |= ast.FlagSetter
		}
		p.advance()
	}
	if p.at(lexer.TokenAsync) && p.peek.Type != lexer.TokenColon &&
		p.peek.Type != lexer.TokenComma && p.peek.Type != lexer.TokenRBrace &&
		p.peek.Type != lexer.TokenLParen && !p.peek.NewlineBefore {
		flags |= ast.FlagAsync
		p.advance()
	}
	if p.eat(lexer.TokenMul) {
		flags |= ast.FlagGenerator
	}
	prop.Flags = flags

	// Key: identifier, string, number, or computed.
	switch {
	case p.at(lexer.TokenString) || p.at(lexer.TokenNumber):
		prop.Text = p.cur.Literal
		p.advance()
	case p.at(lexer.TokenLBracket):
		prop.Flags |= ast.FlagComputed
		p.advance()
		prop.A = p.parseAssignExpr()
		p.expect(lexer.TokenRBracket)
	default:
		prop.Text = p.identText()
	}

	switch {
	case p.at(lexer.TokenLParen) || p.at(lexer.TokenLt):
		// Method shorthand compiles to a function expression value.
		fn := p.node(ast.KindFunctionExpr, p.prevEnd)
		fn.Flags = flags
		p.skipTypeParams()
		fn.List = p.parseParams()
		p.skipTypeAnnotation()
		fn.A = p.parseBlock()
		prop.B = p.add(fn)
	case p.eat(lexer.TokenColon):
		prop.B = p.parseAssignExpr()
	default:
		prop.Flags |= ast.FlagShorthand
		value := p.node(ast.KindIdent, int(prop.Start))
		value.Text = prop.Text
		value.End = prop.Start + int32(len(prop.Text))
		prop.B = p.arena.Add(value)
	}
	return p.add(prop)
}

// parseTemplate consumes a template token and splits it into chunks and
// substitution expressions parsed from the original source slices.
func (p *Parser) parseTemplate() ast.NodeID {
	n := p.node(ast.KindTemplateLit, p.cur.Start)
	raw := p.cur.Literal
	base := p.cur.Start + 1 // past the opening backtick
	p.advance()
	for _, seg := range lexer.SplitTemplate(raw, base) {
		if seg.Expr {
			n.List = append(n.List, p.subExpression(seg.Text, seg.Start))
		} else {
			chunk := ast.NewNode(ast.KindTemplateChunk, seg.Start, seg.End)
			chunk.Text = seg.Text
			n.List = append(n.List, p.arena.Add(chunk))
		}
	}
	return p.add(n)
}

// --- arrow functions -------------------------------------------------------

// tryParseArrow detects and parses arrow functions at assignment level.
// Detection never consumes tokens unless an arrow is actually present.
func (p *Parser) tryParseArrow() (ast.NodeID, bool) {
	start := p.cur.Start
	isAsync := false

	if p.at(lexer.TokenAsync) && !p.peek.NewlineBefore {
		if p.peek.Type == lexer.TokenIdent && p.lookaheadIsArrowAfterIdent(p.peek.End) {
			isAsync = true
			p.advance()
		} else if p.peek.Type == lexer.TokenLParen && p.lookaheadIsArrowParams(p.peek.Start) {
			isAsync = true
			p.advance()
		} else {
			return ast.InvalidNode, false
		}
	}

	switch {
	case p.cur.IdentLike() && p.peek.Type == lexer.TokenArrow:
		n := p.node(ast.KindArrow, start)
		if isAsync {
			n.Flags |= ast.FlagAsync
		}
		param := p.node(ast.KindParam, p.cur.Start)
		bind := p.node(ast.KindBindingIdent, p.cur.Start)
		bind.Text = p.identText()
		param.A = p.add(bind)
		n.List = append(n.List, p.add(param))
		p.expect(lexer.TokenArrow)
		n.A = p.parseArrowBody()
		return p.add(n), true
	case p.at(lexer.TokenLParen) && (isAsync || p.lookaheadIsArrowParams(p.cur.Start)):
		n := p.node(ast.KindArrow, start)
		if isAsync {
			n.Flags |= ast.FlagAsync
		}
		n.List = p.parseParams()
		p.skipTypeAnnotation()
		p.expect(lexer.TokenArrow)
		n.A = p.parseArrowBody()
		return p.add(n), true
	}
	if isAsync {
		// Lookahead said arrow but the parse disagrees; recover as error.
		p.errorAtCur("expected arrow function after async")
	}
	return ast.InvalidNode, false
}

func (p *Parser) parseArrowBody() ast.NodeID {
	if p.at(lexer.TokenLBrace) {
		return p.parseBlock()
	}
	return p.parseAssignExpr()
}

// lookaheadIsArrowParams scans from an opening paren with a throwaway
// lexer and reports whether the balanced group is followed by "=>" or a
// return type annotation.
func (p *Parser) lookaheadIsArrowParams(parenStart int) bool {
	scan := lexer.NewAt(p.file.Content[parenStart:], parenStart)
	tok := scan.NextToken()
	if tok.Type != lexer.TokenLParen {
		return false
	}
	depth := 0
	for {
		switch tok.Type {
		case lexer.TokenLParen, lexer.TokenLBrace, lexer.TokenLBracket:
			depth++
		case lexer.TokenRParen, lexer.TokenRBrace, lexer.TokenRBracket:
			depth--
			if depth == 0 {
				next := scan.NextToken()
				return next.Type == lexer.TokenArrow || next.Type == lexer.TokenColon
			}
		case lexer.TokenEOF:
			return false
		}
		tok = scan.NextToken()
	}
}

// lookaheadIsTypeArgs distinguishes a generic argument list from a
// less-than comparison. Only tokens that can appear in type position are
// allowed, and the closing ">" must be followed by "(".
func (p *Parser) lookaheadIsTypeArgs(ltStart int) bool {
	scan := lexer.NewAt(p.file.Content[ltStart:], ltStart)
	depth := 0
	for {
		tok := scan.NextToken()
		switch tok.Type {
		case lexer.TokenLt:
			depth++
		case lexer.TokenGt:
			depth--
			if depth == 0 {
				return scan.NextToken().Type == lexer.TokenLParen
			}
		case lexer.TokenShr:
			depth -= 2
			if depth <= 0 {
				return scan.NextToken().Type == lexer.TokenLParen
			}
		case lexer.TokenIdent, lexer.TokenComma, lexer.TokenDot,
			lexer.TokenLBracket, lexer.TokenRBracket, lexer.TokenString,
			lexer.TokenNumber, lexer.TokenNull, lexer.TokenTrue, lexer.TokenFalse,
			lexer.TokenVoid, lexer.TokenBitOr, lexer.TokenBitAnd, lexer.TokenTypeof:
			// plausible inside type arguments
		default:
			return false
		}
	}
}

// lookaheadIsArrowAfterIdent reports whether "=>" follows the token
// ending at the given offset.
func (p *Parser) lookaheadIsArrowAfterIdent(identEnd int) bool {
	scan := lexer.NewAt(p.file.Content[identEnd:], identEnd)
	return scan.NextToken().Type == lexer.TokenArrow
}

// retargetPattern reinterprets an expression already parsed in target
// position. Object and array literals assigned to become destructuring
// patterns during lowering, so they pass through unchanged here.
func (p *Parser) retargetPattern(expr ast.NodeID) ast.NodeID {
	return expr
}
