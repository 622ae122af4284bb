package lexer

import "fmt"

// TokenType represents the type of a token.
type TokenType int

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token types for the TypeScript subset handled by the downlevel pipeline.
const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenIdent
	TokenNumber
	TokenString
	TokenTemplate // full template literal, raw text between backticks
	TokenRegex

	// Keywords
	TokenVar
	TokenLet
	TokenConst
	TokenFunction
	TokenReturn
	TokenIf
	TokenElse
	TokenWhile
	TokenDo
	TokenFor
	TokenIn
	TokenOf
	TokenNew
	TokenDelete
	TokenTypeof
	TokenInstanceof
	TokenVoid
	TokenThis
	TokenSuper
	TokenClass
	TokenExtends
	TokenStatic
	TokenGet
	TokenSet
	TokenAsync
	TokenAwait
	TokenYield
	TokenTry
	TokenCatch
	TokenFinally
	TokenThrow
	TokenSwitch
	TokenCase
	TokenDefault
	TokenBreak
	TokenContinue
	TokenImport
	TokenExport
	TokenFrom
	TokenAs
	TokenEnum
	TokenInterface
	TokenTypeKeyword
	TokenDeclare
	TokenNull
	TokenTrue
	TokenFalse
	TokenDebugger

	// Punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenEllipsis
	TokenColon
	TokenQuestion
	TokenArrow

	// Operators
	TokenAssign
	TokenPlusAssign
	TokenMinusAssign
	TokenMulAssign
	TokenDivAssign
	TokenModAssign
	TokenPowAssign
	TokenShlAssign
	TokenShrAssign
	TokenUShrAssign
	TokenBitAndAssign
	TokenBitOrAssign
	TokenBitXorAssign
	TokenEq
	TokenNe
	TokenStrictEq
	TokenStrictNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenShl
	TokenShr
	TokenUShr
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenPow
	TokenInc
	TokenDec
	TokenNot
	TokenBitNot
	TokenBitAnd
	TokenBitOr
	TokenBitXor
	TokenAnd
	TokenOr
	TokenNullish
)

// Token represents a lexical token with its byte range in the source.
type Token struct {
	Type    TokenType
	Literal string
	Start   int // 0-based byte offset of first character
	End     int // exclusive end offset
	// NewlineBefore is true when at least one line terminator appeared
	// between the previous token and this one; the parser consults it
	// for automatic semicolon insertion.
	NewlineBefore bool
}

// String returns a string representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Start: %d}", t.Type, t.Literal, t.Start)
}

// tokenNames provides string representations for token types.
var tokenNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenError:    "ERROR",
	TokenIdent:    "IDENT",
	TokenNumber:   "NUMBER",
	TokenString:   "STRING",
	TokenTemplate: "TEMPLATE",
	TokenRegex:    "REGEX",

	TokenVar:         "VAR",
	TokenLet:         "LET",
	TokenConst:       "CONST",
	TokenFunction:    "FUNCTION",
	TokenReturn:      "RETURN",
	TokenIf:          "IF",
	TokenElse:        "ELSE",
	TokenWhile:       "WHILE",
	TokenDo:          "DO",
	TokenFor:         "FOR",
	TokenIn:          "IN",
	TokenOf:          "OF",
	TokenNew:         "NEW",
	TokenDelete:      "DELETE",
	TokenTypeof:      "TYPEOF",
	TokenInstanceof:  "INSTANCEOF",
	TokenVoid:        "VOID",
	TokenThis:        "THIS",
	TokenSuper:       "SUPER",
	TokenClass:       "CLASS",
	TokenExtends:     "EXTENDS",
	TokenStatic:      "STATIC",
	TokenGet:         "GET",
	TokenSet:         "SET",
	TokenAsync:       "ASYNC",
	TokenAwait:       "AWAIT",
	TokenYield:       "YIELD",
	TokenTry:         "TRY",
	TokenCatch:       "CATCH",
	TokenFinally:     "FINALLY",
	TokenThrow:       "THROW",
	TokenSwitch:      "SWITCH",
	TokenCase:        "CASE",
	TokenDefault:     "DEFAULT",
	TokenBreak:       "BREAK",
	TokenContinue:    "CONTINUE",
	TokenImport:      "IMPORT",
	TokenExport:      "EXPORT",
	TokenFrom:        "FROM",
	TokenAs:          "AS",
	TokenEnum:        "ENUM",
	TokenInterface:   "INTERFACE",
	TokenTypeKeyword: "TYPE",
	TokenDeclare:     "DECLARE",
	TokenNull:        "NULL",
	TokenTrue:        "TRUE",
	TokenFalse:       "FALSE",
	TokenDebugger:    "DEBUGGER",

	TokenLParen:    "LPAREN",
	TokenRParen:    "RPAREN",
	TokenLBrace:    "LBRACE",
	TokenRBrace:    "RBRACE",
	TokenLBracket:  "LBRACKET",
	TokenRBracket:  "RBRACKET",
	TokenSemicolon: "SEMICOLON",
	TokenComma:     "COMMA",
	TokenDot:       "DOT",
	TokenEllipsis:  "ELLIPSIS",
	TokenColon:     "COLON",
	TokenQuestion:  "QUESTION",
	TokenArrow:     "ARROW",

	TokenAssign:       "ASSIGN",
	TokenPlusAssign:   "PLUS_ASSIGN",
	TokenMinusAssign:  "MINUS_ASSIGN",
	TokenMulAssign:    "MUL_ASSIGN",
	TokenDivAssign:    "DIV_ASSIGN",
	TokenModAssign:    "MOD_ASSIGN",
	TokenPowAssign:    "POW_ASSIGN",
	TokenShlAssign:    "SHL_ASSIGN",
	TokenShrAssign:    "SHR_ASSIGN",
	TokenUShrAssign:   "USHR_ASSIGN",
	TokenBitAndAssign: "BIT_AND_ASSIGN",
	TokenBitOrAssign:  "BIT_OR_ASSIGN",
	TokenBitXorAssign: "BIT_XOR_ASSIGN",
	TokenEq:           "EQ",
	TokenNe:           "NE",
	TokenStrictEq:     "STRICT_EQ",
	TokenStrictNe:     "STRICT_NE",
	TokenLt:           "LT",
	TokenLe:           "LE",
	TokenGt:           "GT",
	TokenGe:           "GE",
	TokenShl:          "SHL",
	TokenShr:          "SHR",
	TokenUShr:         "USHR",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenMul:          "MUL",
	TokenDiv:          "DIV",
	TokenMod:          "MOD",
	TokenPow:          "POW",
	TokenInc:          "INC",
	TokenDec:          "DEC",
	TokenNot:          "NOT",
	TokenBitNot:       "BIT_NOT",
	TokenBitAnd:       "BIT_AND",
	TokenBitOr:        "BIT_OR",
	TokenBitXor:       "BIT_XOR",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNullish:      "NULLISH",
}

// keywords maps identifier text to keyword token types. Contextual
// keywords (of, from, as, get, set, static, async, type, declare) also
// appear here; the parser treats them as identifiers where the grammar
// allows it.
var keywords = map[string]TokenType{
	"var":        TokenVar,
	"let":        TokenLet,
	"const":      TokenConst,
	"function":   TokenFunction,
	"return":     TokenReturn,
	"if":         TokenIf,
	"else":       TokenElse,
	"while":      TokenWhile,
	"do":         TokenDo,
	"for":        TokenFor,
	"in":         TokenIn,
	"of":         TokenOf,
	"new":        TokenNew,
	"delete":     TokenDelete,
	"typeof":     TokenTypeof,
	"instanceof": TokenInstanceof,
	"void":       TokenVoid,
	"this":       TokenThis,
	"super":      TokenSuper,
	"class":      TokenClass,
	"extends":    TokenExtends,
	"static":     TokenStatic,
	"get":        TokenGet,
	"set":        TokenSet,
	"async":      TokenAsync,
	"await":      TokenAwait,
	"yield":      TokenYield,
	"try":        TokenTry,
	"catch":      TokenCatch,
	"finally":    TokenFinally,
	"throw":      TokenThrow,
	"switch":     TokenSwitch,
	"case":       TokenCase,
	"default":    TokenDefault,
	"break":      TokenBreak,
	"continue":   TokenContinue,
	"import":     TokenImport,
	"export":     TokenExport,
	"from":       TokenFrom,
	"as":         TokenAs,
	"enum":       TokenEnum,
	"interface":  TokenInterface,
	"type":       TokenTypeKeyword,
	"declare":    TokenDeclare,
	"null":       TokenNull,
	"true":       TokenTrue,
	"false":      TokenFalse,
	"debugger":   TokenDebugger,
}

// IdentLike reports whether the token can serve as an identifier in
// positions where contextual keywords are plain names.
func (t Token) IdentLike() bool {
	switch t.Type {
	case TokenIdent, TokenOf, TokenFrom, TokenAs, TokenGet, TokenSet,
		TokenStatic, TokenAsync, TokenTypeKeyword, TokenDeclare:
		return true
	}
	return false
}
