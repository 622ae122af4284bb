// Package parser implements a recursive-descent parser for the
// TypeScript subset handled by the quench downlevel pipeline. It
// produces an arena-allocated AST; type-level syntax (annotations,
// interfaces, type aliases, as-casts) is parsed and erased.
package parser

import (
	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/lexer"
	"github.com/quenchjs/quench/internal/position"
)

// Parser holds the state for parsing one source file. Sub-parsers over
// template substitution slices share the arena and diagnostic bag.
type Parser struct {
	lex   *lexer.Lexer
	cur   lexer.Token
	peek  lexer.Token
	arena *ast.Arena
	file  *position.SourceFile
	diags *position.DiagnosticBag

	prevEnd int  // end offset of the last consumed token
	noIn    bool // suppress the "in" operator inside for-loop heads
}

// ParseFile parses source text into a fresh arena. Parse errors are
// collected in the returned diagnostic bag; the arena is always usable,
// with error regions represented as best-effort nodes.
func ParseFile(filename, src string) (*ast.Arena, *position.DiagnosticBag) {
	file := position.NewSourceFile(filename, src)
	arena := ast.NewArena(file)
	diags := &position.DiagnosticBag{}

	p := &Parser{
		lex:   lexer.New(src),
		arena: arena,
		file:  file,
		diags: diags,
	}
	p.advance()
	p.advance()

	root := p.parseSourceFile()
	arena.SetRoot(root)
	arena.ComputeParents()
	return arena, diags
}

func (p *Parser) advance() {
	p.prevEnd = p.cur.End
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur.Type == tt }

func (p *Parser) eat(tt lexer.TokenType) bool {
	if p.cur.Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt lexer.TokenType) {
	if !p.eat(tt) {
		p.errorAtCur("expected " + tt.String() + ", found " + p.cur.Type.String())
		// Skip one token so a stuck parse always makes progress.
		if p.cur.Type != lexer.TokenEOF {
			p.advance()
		}
	}
}

func (p *Parser) errorAtCur(msg string) {
	p.diags.AddError(position.Span{Start: p.cur.Start, End: p.cur.End}, "syntax", msg)
}

// add finalizes a node whose span runs from start to the end of the last
// consumed token.
func (p *Parser) add(n ast.Node) ast.NodeID {
	n.End = int32(p.prevEnd)
	return p.arena.Add(n)
}

func (p *Parser) node(kind ast.Kind, start int) ast.Node {
	return ast.NewNode(kind, start, start)
}

func (p *Parser) parseSourceFile() ast.NodeID {
	root := p.node(ast.KindSourceFile, p.cur.Start)
	root.Start = 0
	for !p.at(lexer.TokenEOF) {
		before := p.cur.Start
		if id := p.parseStatement(); id != ast.InvalidNode {
			root.List = append(root.List, id)
		}
		// A statement parser that consumed nothing would loop forever.
		if p.cur.Start == before && !p.at(lexer.TokenEOF) {
			p.advance()
		}
	}
	root.End = int32(len(p.file.Content))
	return p.arena.Add(root)
}

// semicolon consumes a statement terminator, applying automatic
// semicolon insertion: an explicit ';', a line break before the next
// token, a closing brace, or end of file all terminate a statement.
func (p *Parser) semicolon() {
	if p.eat(lexer.TokenSemicolon) {
		return
	}
	if p.cur.NewlineBefore || p.at(lexer.TokenRBrace) || p.at(lexer.TokenEOF) {
		return
	}
	p.errorAtCur("expected semicolon")
}

// identText consumes an identifier-like token and returns its text.
func (p *Parser) identText() string {
	if p.cur.IdentLike() {
		text := p.cur.Literal
		p.advance()
		return text
	}
	p.errorAtCur("expected identifier")
	p.advance()
	return "_"
}

// subExpression parses an expression from a slice of the file (template
// literal substitutions) into the shared arena.
func (p *Parser) subExpression(src string, base int) ast.NodeID {
	sub := &Parser{
		lex:   lexer.NewAt(src, base),
		arena: p.arena,
		file:  p.file,
		diags: p.diags,
	}
	sub.advance()
	sub.advance()
	return sub.parseExpression()
}

// --- TypeScript type erasure ---------------------------------------------

// skipTypeAnnotation consumes ": Type" if present.
func (p *Parser) skipTypeAnnotation() {
	if p.eat(lexer.TokenColon) {
		p.skipType()
	}
}

// skipType consumes one type expression without building nodes. It
// understands enough structure (unions, generics, object and function
// types, array suffixes) to find where the type ends.
func (p *Parser) skipType() {
	p.skipTypePrimary()
	for {
		switch p.cur.Type {
		case lexer.TokenBitOr, lexer.TokenBitAnd:
			p.advance()
			p.skipTypePrimary()
		case lexer.TokenExtends:
			// Conditional type: T extends U ? X : Y
			p.advance()
			p.skipTypePrimary()
			if p.eat(lexer.TokenQuestion) {
				p.skipType()
				p.expect(lexer.TokenColon)
				p.skipType()
			}
		default:
			return
		}
	}
}

func (p *Parser) skipTypePrimary() {
	switch p.cur.Type {
	case lexer.TokenLBrace:
		p.skipBalanced(lexer.TokenLBrace, lexer.TokenRBrace)
	case lexer.TokenLBracket:
		p.skipBalanced(lexer.TokenLBracket, lexer.TokenRBracket)
	case lexer.TokenLParen:
		p.skipBalanced(lexer.TokenLParen, lexer.TokenRParen)
		if p.eat(lexer.TokenArrow) {
			p.skipType()
		}
	case lexer.TokenNew:
		p.advance()
		p.skipTypePrimary()
	case lexer.TokenTypeof:
		p.advance()
		p.identText()
	case lexer.TokenString, lexer.TokenNumber, lexer.TokenTrue, lexer.TokenFalse, lexer.TokenNull, lexer.TokenVoid:
		p.advance()
	default:
		if p.cur.IdentLike() || p.at(lexer.TokenIdent) {
			p.advance()
			for p.eat(lexer.TokenDot) {
				p.identText()
			}
			if p.at(lexer.TokenLt) {
				p.skipTypeArgs()
			}
		} else {
			p.advance()
		}
	}
	// Array suffixes: T[] and T[][]
	for p.at(lexer.TokenLBracket) {
		p.advance()
		if !p.eat(lexer.TokenRBracket) {
			p.skipType()
			p.expect(lexer.TokenRBracket)
		}
	}
}

// skipTypeArgs consumes a generic argument list "<...>" tracking angle
// bracket depth. Shift tokens inside type position are split.
func (p *Parser) skipTypeArgs() {
	depth := 0
	for !p.at(lexer.TokenEOF) {
		switch p.cur.Type {
		case lexer.TokenLt:
			depth++
		case lexer.TokenGt:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case lexer.TokenShr:
			depth -= 2
			if depth <= 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) skipBalanced(open, close lexer.TokenType) {
	depth := 0
	for !p.at(lexer.TokenEOF) {
		if p.at(open) {
			depth++
		} else if p.at(close) {
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipTypeParams consumes a generic parameter list "<T, U extends V>".
func (p *Parser) skipTypeParams() {
	if p.at(lexer.TokenLt) {
		p.skipTypeArgs()
	}
}
