package ast

import "fmt"

// Kind is the closed tag set for AST nodes. Transforms switch over it
// exhaustively; adding a kind means visiting every transform.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Root
	KindSourceFile // List: top-level statements

	// Names and literals
	KindIdent         // Text: name
	KindNumberLit     // Text: literal text as written
	KindStringLit     // Text: cooked value; raw quotes restored by printer
	KindBoolLit       // Text: "true" | "false"
	KindNullLit       //
	KindRegexLit      // Text: literal text including slashes and flags
	KindTemplateLit   // List: alternating KindTemplateChunk / expressions
	KindTemplateChunk // Text: raw chunk text (no backticks/braces)
	KindTaggedTemplate

	// Expressions
	KindArrayLit      // List: elements, InvalidNode for holes
	KindObjectLit     // List: KindProperty / KindSpreadElement
	KindProperty      // Text: key (when not computed), A: computed key, B: value
	KindSpreadElement // A: expression
	KindBinary        // Text: operator, A: left, B: right
	KindLogical       // Text: "&&" | "||" | "??", A: left, B: right
	KindAssign        // Text: operator ("=", "+=", ...), A: target, B: value
	KindConditional   // A: condition, B: consequent, C: alternate
	KindUnary         // Text: operator, A: operand (prefix)
	KindUpdate        // Text: "++" | "--", A: operand, FlagPrefix
	KindCall          // A: callee, List: arguments
	KindNew           // A: callee, List: arguments
	KindMember        // A: object, Text: property name
	KindIndex         // A: object, B: index expression
	KindParen         // A: inner expression
	KindComma         // List: expressions, evaluated left to right
	KindArrow         // List: params, A: body (block or expression)
	KindFunctionExpr  // Text: optional name, List: params, A: body block
	KindClassExpr     // Text: optional name, A: heritage, List: members
	KindAwait         // A: operand
	KindYield         // A: optional operand, FlagDelegate for yield*
	KindThis
	KindSuper

	// Patterns and bindings
	KindParam         // A: pattern, B: optional default, FlagRest
	KindBindingIdent  // Text: name
	KindObjectPattern // List: KindPatternProp / KindRestElement
	KindArrayPattern  // List: elements, InvalidNode for holes
	KindPatternProp   // Text: key, A: value pattern, B: optional default
	KindRestElement   // A: pattern

	// Statements
	KindBlock         // List: statements
	KindVarStmt       // Text: "var" | "let" | "const", List: declarators
	KindVarDeclarator // A: pattern, B: optional initializer
	KindExprStmt      // A: expression
	KindEmptyStmt
	KindIf       // A: condition, B: then, C: optional else
	KindWhile    // A: condition, B: body
	KindDoWhile  // A: condition, B: body
	KindFor      // A: init stmt/expr, B: condition, C: update, D: body
	KindForIn    // A: left (pattern stmt or expr), B: object, C: body
	KindForOf    // A: left, B: iterable, C: body
	KindReturn   // A: optional expression
	KindThrow    // A: expression
	KindBreak    // Text: optional label
	KindContinue // Text: optional label
	KindLabeled  // Text: label, A: statement
	KindSwitch   // A: discriminant, List: cases
	KindSwitchCase // A: test (InvalidNode for default), List: statements
	KindTry          // A: block, B: optional catch clause, C: optional finally block
	KindCatchClause  // A: optional binding pattern, B: block
	KindDebuggerStmt

	// Declarations
	KindFunctionDecl // Text: name, List: params, A: body block
	KindClassDecl    // Text: name, A: optional heritage expr, List: members
	KindMethod       // Text: name, A: optional computed key, B: body, List: params
	KindField        // Text: name, A: optional initializer
	KindEnumDecl     // Text: name, List: members
	KindEnumMember   // Text: name, A: optional initializer

	// Modules
	KindImportDecl // Text: module specifier, List: KindImportSpec
	KindImportSpec // Text: local name, A: imported name ident (InvalidNode for default)
	KindExportDecl // A: declaration or default expression
	KindExportNamed // Text: optional re-export module specifier, List: KindExportSpec
	KindExportSpec  // Text: local name, A: optional exported alias ident

	// Synthesized-only kinds (never produced by the parser)
	KindGenOp // Text: opcode comment, List[0]: opcode literal, List[1]: optional value
	KindRaw   // Text: raw output text, emitted verbatim

	kindCount
)

var kindNames = [...]string{
	KindInvalid:        "Invalid",
	KindSourceFile:     "SourceFile",
	KindIdent:          "Ident",
	KindNumberLit:      "NumberLit",
	KindStringLit:      "StringLit",
	KindBoolLit:        "BoolLit",
	KindNullLit:        "NullLit",
	KindRegexLit:       "RegexLit",
	KindTemplateLit:    "TemplateLit",
	KindTemplateChunk:  "TemplateChunk",
	KindTaggedTemplate: "TaggedTemplate",
	KindArrayLit:       "ArrayLit",
	KindObjectLit:      "ObjectLit",
	KindProperty:       "Property",
	KindSpreadElement:  "SpreadElement",
	KindBinary:         "Binary",
	KindLogical:        "Logical",
	KindAssign:         "Assign",
	KindConditional:    "Conditional",
	KindUnary:          "Unary",
	KindUpdate:         "Update",
	KindCall:           "Call",
	KindNew:            "New",
	KindMember:         "Member",
	KindIndex:          "Index",
	KindParen:          "Paren",
	KindComma:          "Comma",
	KindArrow:          "Arrow",
	KindFunctionExpr:   "FunctionExpr",
	KindClassExpr:      "ClassExpr",
	KindAwait:          "Await",
	KindYield:          "Yield",
	KindThis:           "This",
	KindSuper:          "Super",
	KindParam:          "Param",
	KindBindingIdent:   "BindingIdent",
	KindObjectPattern:  "ObjectPattern",
	KindArrayPattern:   "ArrayPattern",
	KindPatternProp:    "PatternProp",
	KindRestElement:    "RestElement",
	KindBlock:          "Block",
	KindVarStmt:        "VarStmt",
	KindVarDeclarator:  "VarDeclarator",
	KindExprStmt:       "ExprStmt",
	KindEmptyStmt:      "EmptyStmt",
	KindIf:             "If",
	KindWhile:          "While",
	KindDoWhile:        "DoWhile",
	KindFor:            "For",
	KindForIn:          "ForIn",
	KindForOf:          "ForOf",
	KindReturn:         "Return",
	KindThrow:          "Throw",
	KindBreak:          "Break",
	KindContinue:       "Continue",
	KindLabeled:        "Labeled",
	KindSwitch:         "Switch",
	KindSwitchCase:     "SwitchCase",
	KindTry:            "Try",
	KindCatchClause:    "CatchClause",
	KindDebuggerStmt:   "DebuggerStmt",
	KindFunctionDecl:   "FunctionDecl",
	KindClassDecl:      "ClassDecl",
	KindMethod:         "Method",
	KindField:          "Field",
	KindEnumDecl:       "EnumDecl",
	KindEnumMember:     "EnumMember",
	KindImportDecl:     "ImportDecl",
	KindImportSpec:     "ImportSpec",
	KindExportDecl:     "ExportDecl",
	KindExportNamed:    "ExportNamed",
	KindExportSpec:     "ExportSpec",
	KindGenOp:          "GenOp",
	KindRaw:            "Raw",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsStatement reports whether nodes of this kind appear in statement position.
func (k Kind) IsStatement() bool {
	switch k {
	case KindBlock, KindVarStmt, KindExprStmt, KindEmptyStmt, KindIf, KindWhile,
		KindDoWhile, KindFor, KindForIn, KindForOf, KindReturn, KindThrow,
		KindBreak, KindContinue, KindLabeled, KindSwitch, KindTry, KindDebuggerStmt,
		KindFunctionDecl, KindClassDecl, KindEnumDecl, KindImportDecl,
		KindExportDecl, KindExportNamed:
		return true
	}
	return false
}

// IsFunctionLike reports whether the kind introduces a new function body,
// which bounds suspension-point discovery.
func (k Kind) IsFunctionLike() bool {
	switch k {
	case KindFunctionDecl, KindFunctionExpr, KindArrow, KindMethod:
		return true
	}
	return false
}
