// Package printer renders the lowered tree back to JavaScript text and
// records source map mappings as it goes. It consumes the lowering
// record directly: every node reference is resolved through the
// replacement chain, and before/after insertions expand inline at
// statement positions.
package printer

import (
	"strconv"
	"strings"

	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/lowering"
	"github.com/quenchjs/quench/internal/position"
	"github.com/quenchjs/quench/internal/sourcemap"
)

// Options configure one print run.
type Options struct {
	// SourceMap collects v3 mappings while printing.
	SourceMap bool
	// OutFile is the generated file name recorded in the map.
	OutFile string
	// EmbedSource includes the original text in sourcesContent.
	EmbedSource bool
}

// Result is the rendered output.
type Result struct {
	Code string
	// Map is nil unless Options.SourceMap was set.
	Map *sourcemap.Generator
}

// Print renders the file the record was built from.
func Print(rec *lowering.Record, opts Options) Result {
	arena := rec.Overlay.Base()
	p := &printer{
		rec:      rec,
		src:      arena.File(),
		fallback: -1,
	}
	if opts.SourceMap {
		p.gen = sourcemap.NewGenerator(opts.OutFile)
		if opts.EmbedSource {
			p.srcIdx = p.gen.AddSourceWithContent(p.src.Filename, p.src.Content)
		} else {
			p.srcIdx = p.gen.AddSource(p.src.Filename)
		}
	}

	for _, h := range helperOrder {
		if rec.Needs(h) {
			p.lineStart()
			p.write(helperText[h])
		}
	}

	root := arena.Get(arena.Root())
	if root != nil {
		p.stmts(root.List)
	}
	if p.out.Len() > 0 {
		p.write("\n")
	}
	return Result{Code: p.out.String(), Map: p.gen}
}

type printer struct {
	rec *lowering.Record
	src *position.SourceFile
	out strings.Builder

	indent    int
	line, col int

	gen      *sourcemap.Generator
	srcIdx   int
	fallback int32 // start offset of the nearest mapped statement
}

func (p *printer) write(s string) {
	p.out.WriteString(s)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			p.line++
			p.col = 0
		} else {
			p.col++
		}
	}
}

func (p *printer) lineStart() {
	if p.out.Len() > 0 {
		p.write("\n")
	}
	for i := 0; i < p.indent; i++ {
		p.write("    ")
	}
}

func (p *printer) get(id ast.NodeID) *ast.Node { return p.rec.Get(id) }

// --- mapping ------------------------------------------------------------

func (p *printer) mapOffset(offset int32, nameIdx int) {
	if p.gen == nil || offset < 0 {
		return
	}
	pos := p.src.PositionFor(int(offset))
	p.gen.AddMapping(p.line, p.col, p.srcIdx, pos.MapLine(), pos.MapColumn(), nameIdx)
}

func (p *printer) mapStmt(n *ast.Node) {
	start := n.Start
	if start < 0 {
		start = p.fallback
	} else {
		p.fallback = start
	}
	p.mapOffset(start, -1)
}

func (p *printer) mapIdent(n *ast.Node) {
	if p.gen == nil || !n.Mapped() {
		return
	}
	nameIdx := -1
	if orig := p.src.Slice(n.Span()); isIdentName(orig) {
		nameIdx = p.gen.AddName(orig)
	}
	p.mapOffset(n.Start, nameIdx)
}

func isIdentName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		ok := r == '_' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// --- statements -----------------------------------------------------------

func (p *printer) stmts(ids []ast.NodeID) {
	for _, id := range ids {
		p.stmt(id)
	}
}

// stmt prints one logical statement: insertions recorded against any
// hop of its replacement chain, then the effective node unless elided.
func (p *printer) stmt(id ast.NodeID) {
	chain := p.rec.Chain(id)
	elided := false
	for _, hop := range chain {
		for _, b := range p.rec.Before(hop) {
			p.stmt(b)
		}
		if p.rec.Elided(hop) {
			elided = true
		}
	}
	if !elided {
		final := chain[len(chain)-1]
		n := p.rec.Overlay.Get(final)
		if n != nil {
			p.lineStart()
			p.mapStmt(n)
			p.stmtNode(final, n)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, a := range p.rec.After(chain[i]) {
			p.stmt(a)
		}
	}
}

// stmtNode emits the statement text without a leading line break.
func (p *printer) stmtNode(id ast.NodeID, n *ast.Node) {
	switch n.Kind {
	case ast.KindBlock:
		p.blockBody(id)
	case ast.KindVarStmt:
		p.varStmt(n)
		p.write(";")
	case ast.KindExprStmt:
		p.exprStmtBody(n.A)
		p.write(";")
	case ast.KindIf:
		p.ifStmt(n)
	case ast.KindWhile:
		p.write("while (")
		p.expr(n.A, 0)
		p.write(")")
		p.embedded(n.B)
	case ast.KindDoWhile:
		p.write("do")
		p.embedded(n.B)
		p.write(" while (")
		p.expr(n.A, 0)
		p.write(");")
	case ast.KindFor:
		p.forStmt(n)
	case ast.KindForIn, ast.KindForOf:
		p.forInOf(n)
	case ast.KindReturn:
		p.write("return")
		if n.A != ast.InvalidNode {
			p.write(" ")
			p.expr(n.A, precAssign)
		}
		p.write(";")
	case ast.KindThrow:
		p.write("throw ")
		p.expr(n.A, precAssign)
		p.write(";")
	case ast.KindBreak:
		p.write("break")
		if n.Text != "" {
			p.write(" " + n.Text)
		}
		p.write(";")
	case ast.KindContinue:
		p.write("continue")
		if n.Text != "" {
			p.write(" " + n.Text)
		}
		p.write(";")
	case ast.KindLabeled:
		p.write(n.Text + ": ")
		inner := p.get(n.A)
		if inner != nil {
			p.stmtNode(p.rec.Resolve(n.A), inner)
		}
	case ast.KindSwitch:
		p.switchStmt(n)
	case ast.KindTry:
		p.tryStmt(n)
	case ast.KindEmptyStmt:
		p.write(";")
	case ast.KindDebuggerStmt:
		p.write("debugger;")
	case ast.KindFunctionDecl:
		p.functionText(n, n.Text)
	case ast.KindClassDecl:
		p.classText(n)
	case ast.KindImportDecl:
		p.importDecl(n)
	case ast.KindExportDecl:
		p.exportDecl(n)
	case ast.KindExportNamed:
		p.exportNamed(n)
	case ast.KindRaw:
		p.write(strings.TrimRight(n.Text, " "))
	default:
		// An expression left at statement position.
		p.exprNode(ast.InvalidNode, n, 0)
		p.write(";")
	}
}

// exprStmtBody wraps expressions that would otherwise parse as a
// declaration or block at statement start.
func (p *printer) exprStmtBody(id ast.NodeID) {
	n := p.get(id)
	if n != nil {
		switch n.Kind {
		case ast.KindFunctionExpr, ast.KindObjectLit, ast.KindClassExpr:
			p.write("(")
			p.expr(id, 0)
			p.write(")")
			return
		}
	}
	p.expr(id, 0)
}

func (p *printer) blockBody(id ast.NodeID) {
	n := p.get(id)
	p.write("{")
	p.indent++
	if n != nil {
		p.stmts(n.List)
	}
	p.indent--
	p.lineStart()
	p.write("}")
}

// embedded prints a sub-statement after a control header. Blocks share
// the header line; anything else gets an indented line of its own.
func (p *printer) embedded(id ast.NodeID) {
	n := p.get(id)
	if n != nil && n.Kind == ast.KindBlock {
		if n.Flags&ast.FlagSingleLine != 0 {
			p.inlineBlock(n)
			return
		}
		p.write(" ")
		p.blockBody(id)
		return
	}
	p.indent++
	p.stmt(id)
	p.indent--
}

// inlineBlock prints a synthesized block on the header line: " { s1; s2; }".
func (p *printer) inlineBlock(n *ast.Node) {
	p.write(" { ")
	for i, sid := range n.List {
		if i > 0 {
			p.write(" ")
		}
		sn := p.get(sid)
		if sn == nil {
			continue
		}
		p.stmtNode(p.rec.Resolve(sid), sn)
	}
	p.write(" }")
}

func (p *printer) ifStmt(n *ast.Node) {
	p.write("if (")
	p.expr(n.A, 0)
	p.write(")")
	if thenBlk := p.get(n.B); thenBlk != nil && thenBlk.Kind != ast.KindBlock {
		p.write(" ")
		p.stmtNode(p.rec.Resolve(n.B), thenBlk)
	} else {
		p.embedded(n.B)
	}
	if n.C == ast.InvalidNode {
		return
	}
	alt := p.get(n.C)
	if thenBlk := p.get(n.B); thenBlk != nil && thenBlk.Kind == ast.KindBlock {
		p.write(" else")
	} else {
		p.lineStart()
		p.write("else")
	}
	if alt != nil && alt.Kind == ast.KindIf {
		p.write(" ")
		p.stmtNode(p.rec.Resolve(n.C), alt)
		return
	}
	p.embedded(n.C)
}

func (p *printer) varStmt(n *ast.Node) {
	p.write("var ")
	for i, declID := range n.List {
		if i > 0 {
			p.write(", ")
		}
		d := p.get(declID)
		p.pattern(d.A)
		if d.B != ast.InvalidNode {
			p.write(" = ")
			p.expr(d.B, precAssign)
		}
	}
}

func (p *printer) forStmt(n *ast.Node) {
	p.write("for (")
	if n.A != ast.InvalidNode {
		p.forHead(n.A)
	}
	p.write("; ")
	if n.B != ast.InvalidNode {
		p.expr(n.B, 0)
	}
	p.write("; ")
	if n.C != ast.InvalidNode {
		p.expr(n.C, 0)
	}
	p.write(")")
	p.embedded(n.D)
}

func (p *printer) forInOf(n *ast.Node) {
	p.write("for (")
	p.forHead(n.A)
	if n.Kind == ast.KindForIn {
		p.write(" in ")
	} else {
		p.write(" of ")
	}
	p.expr(n.B, precAssign)
	p.write(")")
	p.embedded(n.C)
}

// forHead prints a loop-head initializer without a trailing semicolon.
func (p *printer) forHead(id ast.NodeID) {
	n := p.get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindVarStmt:
		p.varStmt(n)
	case ast.KindExprStmt:
		p.expr(n.A, 0)
	default:
		p.expr(id, 0)
	}
}

func (p *printer) switchStmt(n *ast.Node) {
	p.write("switch (")
	p.expr(n.A, 0)
	p.write(") {")
	p.indent++
	for _, caseID := range n.List {
		cs := p.get(caseID)
		p.lineStart()
		if cs.A == ast.InvalidNode {
			p.write("default:")
		} else {
			p.write("case ")
			p.expr(cs.A, precAssign)
			p.write(":")
		}
		p.indent++
		p.stmts(cs.List)
		p.indent--
	}
	p.indent--
	p.lineStart()
	p.write("}")
}

func (p *printer) tryStmt(n *ast.Node) {
	p.write("try ")
	p.blockBody(n.A)
	if n.B != ast.InvalidNode {
		clause := p.get(n.B)
		p.write(" catch (")
		if clause.A != ast.InvalidNode {
			p.pattern(clause.A)
		} else {
			p.write("_e")
		}
		p.write(") ")
		p.blockBody(clause.B)
	}
	if n.C != ast.InvalidNode {
		p.write(" finally ")
		p.blockBody(n.C)
	}
}

// --- declarations kept for degraded or module-free output ----------------

func (p *printer) functionText(n *ast.Node, name string) {
	if n.Flags&ast.FlagAsync != 0 {
		p.write("async ")
	}
	p.write("function")
	if n.Flags&ast.FlagGenerator != 0 {
		p.write("*")
	}
	if name != "" {
		p.write(" " + name)
	} else {
		p.write(" ")
	}
	p.paramList(n.List)
	p.write(" ")
	p.blockBody(n.A)
}

func (p *printer) paramList(params []ast.NodeID) {
	p.write("(")
	for i, paramID := range params {
		if i > 0 {
			p.write(", ")
		}
		param := p.get(paramID)
		if param.Flags&ast.FlagRest != 0 {
			p.write("...")
		}
		p.pattern(param.A)
		if param.B != ast.InvalidNode {
			p.write(" = ")
			p.expr(param.B, precAssign)
		}
	}
	p.write(")")
}

func (p *printer) pattern(id ast.NodeID) {
	n := p.get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindBindingIdent:
		p.mapIdent(n)
		p.write(n.Text)
	case ast.KindObjectPattern:
		p.write("{ ")
		for i, el := range n.List {
			if i > 0 {
				p.write(", ")
			}
			p.pattern(el)
		}
		p.write(" }")
	case ast.KindArrayPattern:
		p.write("[")
		for i, el := range n.List {
			if i > 0 {
				p.write(", ")
			}
			if el != ast.InvalidNode {
				p.pattern(el)
			}
		}
		p.write("]")
	case ast.KindPatternProp:
		if n.Text != "" {
			p.write(n.Text)
			p.write(": ")
		}
		p.pattern(n.A)
		if n.B != ast.InvalidNode {
			p.write(" = ")
			p.expr(n.B, precAssign)
		}
	case ast.KindRestElement:
		p.write("...")
		p.pattern(n.A)
	default:
		p.exprNode(id, n, 0)
	}
}

func (p *printer) classText(n *ast.Node) {
	p.write("class")
	if n.Text != "" {
		p.write(" " + n.Text)
	}
	if n.A != ast.InvalidNode {
		p.write(" extends ")
		p.expr(n.A, precUnary)
	}
	p.write(" {")
	p.indent++
	for _, memberID := range n.List {
		member := p.get(memberID)
		p.lineStart()
		p.classMember(member)
	}
	p.indent--
	p.lineStart()
	p.write("}")
}

func (p *printer) classMember(m *ast.Node) {
	if m.Flags&ast.FlagStatic != 0 {
		p.write("static ")
	}
	switch m.Kind {
	case ast.KindMethod:
		if m.Flags&ast.FlagAsync != 0 {
			p.write("async ")
		}
		if m.Flags&ast.FlagGenerator != 0 {
			p.write("*")
		}
		if m.Flags&ast.FlagGetter != 0 {
			p.write("get ")
		}
		if m.Flags&ast.FlagSetter != 0 {
			p.write("set ")
		}
		if m.Flags&ast.FlagComputed != 0 {
			p.write("[")
			p.expr(m.A, precAssign)
			p.write("]")
		} else {
			p.write(m.Text)
		}
		p.paramList(m.List)
		p.write(" ")
		p.blockBody(m.B)
	case ast.KindField:
		p.write(m.Text)
		if m.A != ast.InvalidNode {
			p.write(" = ")
			p.expr(m.A, precAssign)
		}
		p.write(";")
	}
}

func (p *printer) importDecl(n *ast.Node) {
	p.write("import ")
	if len(n.List) == 0 {
		p.write(quoteString(n.Text) + ";")
		return
	}
	wroteBinding := false
	named := []*ast.Node{}
	for _, specID := range n.List {
		spec := p.get(specID)
		switch {
		case spec.Flags&ast.FlagDefault != 0:
			p.write(spec.Text)
			wroteBinding = true
		case spec.Flags&ast.FlagNamespace != 0:
			if wroteBinding {
				p.write(", ")
			}
			p.write("* as " + spec.Text)
			wroteBinding = true
		default:
			named = append(named, spec)
		}
	}
	if len(named) > 0 {
		if wroteBinding {
			p.write(", ")
		}
		p.write("{ ")
		for i, spec := range named {
			if i > 0 {
				p.write(", ")
			}
			if spec.A != ast.InvalidNode {
				p.write(p.get(spec.A).Text + " as ")
			}
			p.write(spec.Text)
		}
		p.write(" }")
	}
	p.write(" from " + quoteString(n.Text) + ";")
}

func (p *printer) exportDecl(n *ast.Node) {
	p.write("export ")
	if n.Flags&ast.FlagDefault != 0 {
		p.write("default ")
	}
	decl := p.get(n.A)
	if decl == nil {
		p.write(";")
		return
	}
	if decl.Kind.IsStatement() || decl.Kind == ast.KindFunctionDecl || decl.Kind == ast.KindClassDecl {
		chain := p.rec.Chain(n.A)
		p.stmtNode(chain[len(chain)-1], decl)
		// Statements a pass attached to the declaration (an enum's
		// initializer IIFE, for example) follow the export line.
		for i := len(chain) - 1; i >= 0; i-- {
			for _, a := range p.rec.After(chain[i]) {
				p.stmt(a)
			}
		}
		return
	}
	p.expr(n.A, precAssign)
	p.write(";")
}

func (p *printer) exportNamed(n *ast.Node) {
	p.write("export { ")
	for i, specID := range n.List {
		if i > 0 {
			p.write(", ")
		}
		spec := p.get(specID)
		p.write(spec.Text)
		if spec.A != ast.InvalidNode {
			p.write(" as " + p.get(spec.A).Text)
		}
	}
	p.write(" }")
	if n.Text != "" {
		p.write(" from " + quoteString(n.Text))
	}
	p.write(";")
}

// --- expressions -----------------------------------------------------------

// Precedence levels, loosest first. Binary operators slot between
// precCond and precUnary via binPrec.
const (
	precComma  = 1
	precAssign = 2
	precCond   = 3
	precUnary  = 16
	precPost   = 17
	precCall   = 18
	precPrim   = 19
)

var binPrec = map[string]int{
	"??": 4,
	"||": 5,
	"&&": 6,
	"|":  7,
	"^":  8,
	"&":  9,
	"==": 10, "!=": 10, "===": 10, "!==": 10,
	"<": 11, ">": 11, "<=": 11, ">=": 11, "instanceof": 11, "in": 11,
	"<<": 12, ">>": 12, ">>>": 12,
	"+": 13, "-": 13,
	"*": 14, "/": 14, "%": 14,
	"**": 15,
}

func exprPrec(n *ast.Node) int {
	switch n.Kind {
	case ast.KindComma:
		return precComma
	case ast.KindAssign, ast.KindYield, ast.KindArrow:
		return precAssign
	case ast.KindConditional:
		return precCond
	case ast.KindBinary, ast.KindLogical:
		if pr, ok := binPrec[n.Text]; ok {
			return pr
		}
		return precCond + 1
	case ast.KindUnary, ast.KindAwait:
		return precUnary
	case ast.KindUpdate:
		if n.Flags&ast.FlagPrefix != 0 {
			return precUnary
		}
		return precPost
	case ast.KindCall, ast.KindMember, ast.KindIndex, ast.KindNew, ast.KindTaggedTemplate:
		return precCall
	}
	return precPrim
}

// expr resolves id and prints it, parenthesizing when its precedence
// falls below what the context requires.
func (p *printer) expr(id ast.NodeID, minPrec int) {
	resolved := p.rec.Resolve(id)
	// Unsupported-construct markers attach to the expression itself.
	for _, b := range p.rec.Before(resolved) {
		if raw := p.rec.Overlay.Get(b); raw != nil && raw.Kind == ast.KindRaw {
			p.write(raw.Text)
		}
	}
	if resolved != id {
		for _, b := range p.rec.Before(id) {
			if raw := p.rec.Overlay.Get(b); raw != nil && raw.Kind == ast.KindRaw {
				p.write(raw.Text)
			}
		}
	}
	n := p.rec.Overlay.Get(resolved)
	if n == nil {
		return
	}
	p.exprNode(resolved, n, minPrec)
}

func (p *printer) exprNode(id ast.NodeID, n *ast.Node, minPrec int) {
	prec := exprPrec(n)
	if prec < minPrec {
		p.write("(")
		p.exprBody(id, n)
		p.write(")")
		return
	}
	p.exprBody(id, n)
}

func (p *printer) exprBody(id ast.NodeID, n *ast.Node) {
	switch n.Kind {
	case ast.KindIdent:
		p.mapIdent(n)
		p.write(n.Text)
	case ast.KindNumberLit:
		p.write(n.Text)
	case ast.KindStringLit:
		p.write(quoteString(n.Text))
	case ast.KindBoolLit:
		p.write(n.Text)
	case ast.KindNullLit:
		p.write("null")
	case ast.KindRegexLit:
		p.write(n.Text)
	case ast.KindThis:
		p.mapIdent(n)
		p.write("this")
	case ast.KindSuper:
		p.write("super")
	case ast.KindRaw:
		p.write(n.Text)
	case ast.KindTemplateLit:
		p.templateText(n)
	case ast.KindTaggedTemplate:
		p.expr(n.A, precCall)
		p.expr(n.B, precPrim)
	case ast.KindArrayLit:
		p.arrayLit(n)
	case ast.KindObjectLit:
		p.objectLit(n)
	case ast.KindSpreadElement:
		p.write("...")
		p.expr(n.A, precAssign)
	case ast.KindBinary, ast.KindLogical:
		p.binary(n)
	case ast.KindAssign:
		p.expr(n.A, precUnary)
		p.write(" " + n.Text + " ")
		p.expr(n.B, precAssign)
	case ast.KindConditional:
		p.expr(n.A, precCond+1)
		p.write(" ? ")
		p.expr(n.B, precAssign)
		p.write(" : ")
		p.expr(n.C, precAssign)
	case ast.KindUnary:
		p.write(n.Text)
		if isWordOperator(n.Text) {
			p.write(" ")
		}
		p.expr(n.A, precUnary)
	case ast.KindUpdate:
		if n.Flags&ast.FlagPrefix != 0 {
			p.write(n.Text)
			p.expr(n.A, precUnary)
		} else {
			p.expr(n.A, precPost)
			p.write(n.Text)
		}
	case ast.KindAwait:
		p.write("await ")
		p.expr(n.A, precUnary)
	case ast.KindYield:
		p.write("yield")
		if n.Flags&ast.FlagDelegate != 0 {
			p.write("*")
		}
		if n.A != ast.InvalidNode {
			p.write(" ")
			p.expr(n.A, precAssign)
		}
	case ast.KindCall:
		p.callExpr(n)
	case ast.KindNew:
		p.write("new ")
		p.expr(n.A, precCall)
		p.argList(n.List)
	case ast.KindMember:
		p.memberObject(n.A)
		p.write("." + n.Text)
	case ast.KindIndex:
		p.memberObject(n.A)
		p.write("[")
		p.expr(n.B, 0)
		p.write("]")
	case ast.KindParen:
		p.write("(")
		p.expr(n.A, 0)
		p.write(")")
	case ast.KindComma:
		for i, e := range n.List {
			if i > 0 {
				p.write(", ")
			}
			p.expr(e, precAssign)
		}
	case ast.KindFunctionExpr:
		p.functionText(n, n.Text)
	case ast.KindArrow:
		p.paramList(n.List)
		p.write(" => ")
		if body := p.get(n.A); body != nil && body.Kind == ast.KindBlock {
			p.blockBody(n.A)
		} else {
			p.expr(n.A, precAssign)
		}
	case ast.KindClassExpr:
		p.classText(n)
	case ast.KindGenOp:
		p.genOp(n)
	default:
		// Should not reach statement kinds here; emit nothing.
	}
}

func isWordOperator(op string) bool {
	switch op {
	case "typeof", "void", "delete":
		return true
	}
	return false
}

func (p *printer) binary(n *ast.Node) {
	prec := exprPrec(n)
	leftMin, rightMin := prec, prec+1
	if n.Text == "**" {
		leftMin, rightMin = prec+1, prec
	}
	p.expr(n.A, leftMin)
	p.write(" " + n.Text + " ")
	p.expr(n.B, rightMin)
}

func (p *printer) callExpr(n *ast.Node) {
	callee := p.get(n.A)
	if callee != nil && callee.Kind == ast.KindFunctionExpr {
		p.write("(")
		p.expr(n.A, 0)
		p.write(")")
	} else {
		p.expr(n.A, precCall)
	}
	p.argList(n.List)
}

func (p *printer) argList(args []ast.NodeID) {
	p.write("(")
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.expr(a, precAssign)
	}
	p.write(")")
}

// memberObject parenthesizes number literals so 1.toString() style
// output stays parseable.
func (p *printer) memberObject(id ast.NodeID) {
	obj := p.get(id)
	if obj != nil && obj.Kind == ast.KindNumberLit {
		p.write("(")
		p.expr(id, 0)
		p.write(")")
		return
	}
	p.expr(id, precCall)
}

func (p *printer) arrayLit(n *ast.Node) {
	p.write("[")
	for i, el := range n.List {
		if i > 0 {
			p.write(", ")
		}
		if el == ast.InvalidNode {
			if i == len(n.List)-1 {
				p.write(",")
			}
			continue
		}
		p.expr(el, precAssign)
	}
	p.write("]")
}

func (p *printer) objectLit(n *ast.Node) {
	if len(n.List) == 0 {
		p.write("{}")
		return
	}
	p.write("{ ")
	for i, propID := range n.List {
		if i > 0 {
			p.write(", ")
		}
		prop := p.get(propID)
		if prop == nil {
			continue
		}
		if prop.Kind == ast.KindSpreadElement {
			p.write("...")
			p.expr(prop.A, precAssign)
			continue
		}
		p.property(prop)
	}
	p.write(" }")
}

func (p *printer) property(prop *ast.Node) {
	if prop.Flags&(ast.FlagGetter|ast.FlagSetter) != 0 {
		if prop.Flags&ast.FlagGetter != 0 {
			p.write("get ")
		} else {
			p.write("set ")
		}
		p.write(prop.Text)
		if fn := p.get(prop.B); fn != nil && fn.Kind == ast.KindFunctionExpr {
			p.paramList(fn.List)
			p.write(" ")
			p.blockBody(fn.A)
		}
		return
	}
	if prop.Flags&ast.FlagComputed != 0 {
		p.write("[")
		p.expr(prop.A, precAssign)
		p.write("]")
	} else if isIdentName(prop.Text) {
		p.write(prop.Text)
	} else if isNumericKey(prop.Text) {
		p.write(prop.Text)
	} else {
		p.write(quoteString(prop.Text))
	}
	p.write(": ")
	p.expr(prop.B, precAssign)
}

func isNumericKey(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			if s[i] == '.' {
				continue
			}
			return false
		}
	}
	return true
}

func (p *printer) templateText(n *ast.Node) {
	p.write("`")
	for _, el := range n.List {
		child := p.get(el)
		if child != nil && child.Kind == ast.KindTemplateChunk {
			p.write(child.Text)
			continue
		}
		p.write("${")
		p.expr(el, 0)
		p.write("}")
	}
	p.write("`")
}

// genOp prints the trampoline opcode tuple, e.g. [4 /*yield*/, value].
func (p *printer) genOp(n *ast.Node) {
	p.write("[")
	if len(n.List) > 0 {
		p.expr(n.List[0], precAssign)
	}
	p.write(" /*" + n.Text + "*/")
	if len(n.List) > 1 && n.List[1] != ast.InvalidNode {
		p.write(", ")
		p.expr(n.List[1], precAssign)
	}
	p.write("]")
}

// quoteString renders a cooked string value as a double-quoted literal.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 {
				b.WriteString(`\u` + pad4(strconv.FormatInt(int64(r), 16)))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func pad4(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
