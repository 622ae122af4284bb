// Package lexer implements the TypeScript scanner feeding the quench
// parser. It produces tokens with absolute byte offsets so every later
// stage can recover exact line/column positions through the file's
// line-start table.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer scans one source buffer. The base offset supports re-lexing a
// slice of a larger file (template literal substitutions) while keeping
// token offsets absolute.
type Lexer struct {
	input string
	pos   int
	base  int
	// prev is the last non-trivia token type, used to decide whether a
	// '/' starts a regular expression or a division operator.
	prev        TokenType
	hasPrev     bool
	sawNewline  bool
}

// New creates a lexer over input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// NewAt creates a lexer over a slice of a larger file whose first byte
// sits at absolute offset base.
func NewAt(input string, base int) *Lexer {
	return &Lexer{input: input, base: base}
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipTrivia()

	start := l.pos
	if l.pos >= len(l.input) {
		return l.emit(TokenEOF, start, start, "")
	}

	ch := l.input[l.pos]
	switch {
	case isIdentStart(ch):
		return l.scanIdentOrKeyword()
	case ch >= '0' && ch <= '9':
		return l.scanNumber()
	case ch == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]):
		return l.scanNumber()
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case ch == '`':
		return l.scanTemplate()
	case ch == '/' && l.regexAllowed():
		return l.scanRegex()
	}
	return l.scanPunct()
}

func (l *Lexer) emit(tt TokenType, start, end int, literal string) Token {
	tok := Token{
		Type:          tt,
		Literal:       literal,
		Start:         l.base + start,
		End:           l.base + end,
		NewlineBefore: l.sawNewline,
	}
	l.sawNewline = false
	if tt != TokenEOF {
		l.prev = tt
		l.hasPrev = true
	}
	return tok
}

func (l *Lexer) errorToken(start int, msg string) Token {
	return l.emit(TokenError, start, l.pos, msg)
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\n':
			l.sawNewline = true
			l.pos++
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.pos++
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*':
			l.pos += 2
			for l.pos+1 < len(l.input) && !(l.input[l.pos] == '*' && l.input[l.pos+1] == '/') {
				if l.input[l.pos] == '\n' {
					l.sawNewline = true
				}
				l.pos++
			}
			l.pos += 2
			if l.pos > len(l.input) {
				l.pos = len(l.input)
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isIdentPart(ch) {
			l.pos++
			continue
		}
		if ch >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				l.pos += size
				continue
			}
		}
		break
	}
	text := l.input[start:l.pos]
	if tt, ok := keywords[text]; ok {
		return l.emit(tt, start, l.pos, text)
	}
	return l.emit(TokenIdent, start, l.pos, text)
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	if l.input[l.pos] == '0' && l.pos+1 < len(l.input) {
		switch l.input[l.pos+1] {
		case 'x', 'X':
			l.pos += 2
			for l.pos < len(l.input) && isHexDigit(l.input[l.pos]) {
				l.pos++
			}
			return l.emit(TokenNumber, start, l.pos, l.input[start:l.pos])
		case 'b', 'B', 'o', 'O':
			l.pos += 2
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
			return l.emit(TokenNumber, start, l.pos, l.input[start:l.pos])
		}
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		next := l.pos + 1
		if next < len(l.input) && (l.input[next] == '+' || l.input[next] == '-') {
			next++
		}
		if next < len(l.input) && isDigit(l.input[next]) {
			l.pos = next
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		}
	}
	return l.emit(TokenNumber, start, l.pos, l.input[start:l.pos])
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch ch {
		case quote:
			l.pos++
			return l.emit(TokenString, start, l.pos, b.String())
		case '\\':
			if l.pos+1 >= len(l.input) {
				l.pos++
				return l.errorToken(start, "unterminated string literal")
			}
			b.WriteString(decodeEscape(l.input[l.pos+1]))
			l.pos += 2
		case '\n':
			return l.errorToken(start, "unterminated string literal")
		default:
			b.WriteByte(ch)
			l.pos++
		}
	}
	return l.errorToken(start, "unterminated string literal")
}

func decodeEscape(ch byte) string {
	switch ch {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	default:
		return string(ch)
	}
}

// scanTemplate consumes a whole template literal, including any `${...}`
// substitutions, and returns the raw text between the backticks. The
// parser re-lexes substitution slices with NewAt, so the scan only has
// to track brace/quote balance, not expression structure.
func (l *Lexer) scanTemplate() Token {
	start := l.pos
	l.pos++ // backtick
	depth := 0
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\':
			l.pos += 2
		case depth == 0 && ch == '`':
			l.pos++
			return l.emit(TokenTemplate, start, l.pos, l.input[start+1:l.pos-1])
		case ch == '$' && depth == 0 && l.pos+1 < len(l.input) && l.input[l.pos+1] == '{':
			depth++
			l.pos += 2
		case depth > 0 && ch == '{':
			depth++
			l.pos++
		case depth > 0 && ch == '}':
			depth--
			l.pos++
		case depth > 0 && (ch == '"' || ch == '\''):
			l.skipNestedString(ch)
		default:
			l.pos++
		}
	}
	return l.errorToken(start, "unterminated template literal")
}

func (l *Lexer) skipNestedString(quote byte) {
	l.pos++
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
		case quote:
			l.pos++
			return
		default:
			l.pos++
		}
	}
}

// regexAllowed reports whether a '/' in the current position starts a
// regular expression literal rather than a division operator, based on
// the kind of the previous token.
func (l *Lexer) regexAllowed() bool {
	if !l.hasPrev {
		return true
	}
	switch l.prev {
	case TokenIdent, TokenNumber, TokenString, TokenTemplate, TokenRegex,
		TokenRParen, TokenRBracket, TokenThis, TokenSuper, TokenNull,
		TokenTrue, TokenFalse, TokenInc, TokenDec:
		return false
	}
	return true
}

func (l *Lexer) scanRegex() Token {
	start := l.pos
	l.pos++ // slash
	inClass := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\':
			l.pos += 2
		case ch == '[':
			inClass = true
			l.pos++
		case ch == ']':
			inClass = false
			l.pos++
		case ch == '/' && !inClass:
			l.pos++
			for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
				l.pos++
			}
			return l.emit(TokenRegex, start, l.pos, l.input[start:l.pos])
		case ch == '\n':
			return l.errorToken(start, "unterminated regular expression")
		default:
			l.pos++
		}
	}
	return l.errorToken(start, "unterminated regular expression")
}

// punct3, punct2 and punct1 order matters: longest match first.
var punct3 = []struct {
	text string
	tt   TokenType
}{
	{">>>=", TokenUShrAssign}, // 4 bytes, checked first below
	{"===", TokenStrictEq},
	{"!==", TokenStrictNe},
	{"**=", TokenPowAssign},
	{"<<=", TokenShlAssign},
	{">>=", TokenShrAssign},
	{">>>", TokenUShr},
	{"...", TokenEllipsis},
}

var punct2 = []struct {
	text string
	tt   TokenType
}{
	{"=>", TokenArrow},
	{"==", TokenEq},
	{"!=", TokenNe},
	{"<=", TokenLe},
	{">=", TokenGe},
	{"&&", TokenAnd},
	{"||", TokenOr},
	{"??", TokenNullish},
	{"**", TokenPow},
	{"++", TokenInc},
	{"--", TokenDec},
	{"+=", TokenPlusAssign},
	{"-=", TokenMinusAssign},
	{"*=", TokenMulAssign},
	{"/=", TokenDivAssign},
	{"%=", TokenModAssign},
	{"&=", TokenBitAndAssign},
	{"|=", TokenBitOrAssign},
	{"^=", TokenBitXorAssign},
	{"<<", TokenShl},
	{">>", TokenShr},
}

var punct1 = map[byte]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	';': TokenSemicolon,
	',': TokenComma,
	'.': TokenDot,
	':': TokenColon,
	'?': TokenQuestion,
	'=': TokenAssign,
	'<': TokenLt,
	'>': TokenGt,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMul,
	'/': TokenDiv,
	'%': TokenMod,
	'!': TokenNot,
	'~': TokenBitNot,
	'&': TokenBitAnd,
	'|': TokenBitOr,
	'^': TokenBitXor,
}

func (l *Lexer) scanPunct() Token {
	start := l.pos
	rest := l.input[l.pos:]

	for _, p := range punct3 {
		if strings.HasPrefix(rest, p.text) {
			l.pos += len(p.text)
			return l.emit(p.tt, start, l.pos, p.text)
		}
	}
	for _, p := range punct2 {
		if strings.HasPrefix(rest, p.text) {
			l.pos += len(p.text)
			return l.emit(p.tt, start, l.pos, p.text)
		}
	}
	if tt, ok := punct1[rest[0]]; ok {
		l.pos++
		return l.emit(tt, start, l.pos, rest[:1])
	}
	l.pos++
	return l.errorToken(start, "unexpected character "+rest[:1])
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= utf8.RuneSelf
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// TemplateSegment is one piece of a template literal: either a raw text
// chunk or the source of a `${...}` substitution. Offsets are absolute.
type TemplateSegment struct {
	Expr  bool
	Text  string
	Start int
	End   int
}

// SplitTemplate splits the raw text of a template token (as returned in
// Token.Literal) into chunks and substitution sources. base is the
// absolute offset of the first raw byte (token start + 1).
func SplitTemplate(raw string, base int) []TemplateSegment {
	var segs []TemplateSegment
	chunkStart := 0
	i := 0
	for i < len(raw) {
		if raw[i] == '\\' {
			i += 2
			continue
		}
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			segs = append(segs, TemplateSegment{
				Text:  raw[chunkStart:i],
				Start: base + chunkStart,
				End:   base + i,
			})
			exprStart := i + 2
			depth := 1
			j := exprStart
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '\\':
					j++
				case '{':
					depth++
				case '}':
					depth--
				case '"', '\'', '`':
					j = skipQuoted(raw, j)
				}
				j++
			}
			exprEnd := j - 1
			segs = append(segs, TemplateSegment{
				Expr:  true,
				Text:  raw[exprStart:exprEnd],
				Start: base + exprStart,
				End:   base + exprEnd,
			})
			chunkStart = j
			i = j
			continue
		}
		i++
	}
	segs = append(segs, TemplateSegment{
		Text:  raw[chunkStart:],
		Start: base + chunkStart,
		End:   base + len(raw),
	})
	return segs
}

func skipQuoted(s string, i int) int {
	quote := s[i]
	i++
	for i < len(s) {
		if s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == quote {
			return i
		}
		i++
	}
	return i - 1
}
