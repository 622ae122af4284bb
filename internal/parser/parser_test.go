package parser

import (
	"testing"

	"github.com/quenchjs/quench/internal/ast"
)

func parse(t *testing.T, src string) *ast.Arena {
	t.Helper()
	arena, diags := ParseFile("test.ts", src)
	if diags.HasErrors() {
		for _, d := range diags.Diagnostics {
			t.Errorf("unexpected diagnostic: %s", d.Message)
		}
		t.Fatalf("parse failed for %q", src)
	}
	return arena
}

// stmt returns the i-th top-level statement.
func stmt(t *testing.T, arena *ast.Arena, i int) *ast.Node {
	t.Helper()
	root := arena.Get(arena.Root())
	if i >= len(root.List) {
		t.Fatalf("want at least %d top-level statements, got %d", i+1, len(root.List))
	}
	return arena.Get(root.List[i])
}

func TestParseVarStatement(t *testing.T) {
	arena := parse(t, "var x = 1, y;")
	s := stmt(t, arena, 0)
	if s.Kind != ast.KindVarStmt || s.Text != "var" {
		t.Fatalf("got %s %q", s.Kind, s.Text)
	}
	if len(s.List) != 2 {
		t.Fatalf("want 2 declarators, got %d", len(s.List))
	}
	first := arena.Get(s.List[0])
	if arena.Get(first.A).Text != "x" {
		t.Errorf("first binding = %q, want x", arena.Get(first.A).Text)
	}
	if arena.Get(first.B).Kind != ast.KindNumberLit {
		t.Errorf("first init kind = %s", arena.Get(first.B).Kind)
	}
	second := arena.Get(s.List[1])
	if second.B != ast.InvalidNode {
		t.Error("second declarator should have no initializer")
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	arena := parse(t, "a + b * c;")
	expr := arena.Get(stmt(t, arena, 0).A)
	if expr.Kind != ast.KindBinary || expr.Text != "+" {
		t.Fatalf("root = %s %q, want Binary +", expr.Kind, expr.Text)
	}
	right := arena.Get(expr.B)
	if right.Kind != ast.KindBinary || right.Text != "*" {
		t.Errorf("right = %s %q, want Binary *", right.Kind, right.Text)
	}
}

func TestParseExponentRightAssoc(t *testing.T) {
	arena := parse(t, "a ** b ** c;")
	expr := arena.Get(stmt(t, arena, 0).A)
	if expr.Kind != ast.KindBinary || expr.Text != "**" {
		t.Fatalf("root = %s %q", expr.Kind, expr.Text)
	}
	if arena.Get(expr.A).Kind != ast.KindIdent {
		t.Error("left operand should be the bare identifier a")
	}
	if arena.Get(expr.B).Kind != ast.KindBinary {
		t.Error("right operand should group b ** c")
	}
}

func TestParseLogicalKinds(t *testing.T) {
	tests := []struct {
		src string
		op  string
	}{
		{"a && b;", "&&"},
		{"a || b;", "||"},
		{"a ?? b;", "??"},
	}
	for _, tt := range tests {
		arena := parse(t, tt.src)
		expr := arena.Get(stmt(t, arena, 0).A)
		if expr.Kind != ast.KindLogical || expr.Text != tt.op {
			t.Errorf("%q: got %s %q", tt.src, expr.Kind, expr.Text)
		}
	}
}

func TestParseAssignmentRightAssoc(t *testing.T) {
	arena := parse(t, "a = b = 1;")
	expr := arena.Get(stmt(t, arena, 0).A)
	if expr.Kind != ast.KindAssign {
		t.Fatalf("root = %s", expr.Kind)
	}
	if arena.Get(expr.B).Kind != ast.KindAssign {
		t.Error("nested assignment should sit on the right")
	}
}

func TestParseCallMemberChain(t *testing.T) {
	arena := parse(t, "a.b.c(1)[d]();")
	expr := arena.Get(stmt(t, arena, 0).A)
	if expr.Kind != ast.KindCall {
		t.Fatalf("outermost = %s, want Call", expr.Kind)
	}
	index := arena.Get(expr.A)
	if index.Kind != ast.KindIndex {
		t.Fatalf("callee = %s, want Index", index.Kind)
	}
	inner := arena.Get(index.A)
	if inner.Kind != ast.KindCall || len(inner.List) != 1 {
		t.Fatalf("inner = %s with %d args", inner.Kind, len(inner.List))
	}
	member := arena.Get(inner.A)
	if member.Kind != ast.KindMember || member.Text != "c" {
		t.Errorf("member = %s %q", member.Kind, member.Text)
	}
}

func TestParseArrowForms(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		params  int
		isAsync bool
		block   bool
	}{
		{"single ident", "x => x + 1;", 1, false, false},
		{"paren params", "(a, b) => a + b;", 2, false, false},
		{"no params", "() => 1;", 0, false, false},
		{"block body", "(a) => { return a; };", 1, false, true},
		{"async ident", "async x => x;", 1, true, false},
		{"async parens", "async (a, b) => a;", 2, true, false},
		{"typed params", "(a: number, b: string): number => a;", 2, false, false},
		{"default value", "(a = 1) => a;", 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arena := parse(t, tt.src)
			expr := arena.Get(stmt(t, arena, 0).A)
			if expr.Kind != ast.KindArrow {
				t.Fatalf("got %s, want Arrow", expr.Kind)
			}
			if len(expr.List) != tt.params {
				t.Errorf("params = %d, want %d", len(expr.List), tt.params)
			}
			if got := expr.Flags&ast.FlagAsync != 0; got != tt.isAsync {
				t.Errorf("async = %v, want %v", got, tt.isAsync)
			}
			if got := arena.Get(expr.A).Kind == ast.KindBlock; got != tt.block {
				t.Errorf("block body = %v, want %v", got, tt.block)
			}
		})
	}
}

func TestParseAwait(t *testing.T) {
	arena := parse(t, "async function f(v) { return await v; }")
	fn := stmt(t, arena, 0)
	if fn.Kind != ast.KindFunctionDecl || fn.Flags&ast.FlagAsync == 0 {
		t.Fatalf("got %s flags=%x", fn.Kind, fn.Flags)
	}
	body := arena.Get(fn.A)
	ret := arena.Get(body.List[0])
	if ret.Kind != ast.KindReturn {
		t.Fatalf("body[0] = %s", ret.Kind)
	}
	if arena.Get(ret.A).Kind != ast.KindAwait {
		t.Errorf("return operand = %s, want Await", arena.Get(ret.A).Kind)
	}
}

func TestParseYieldForms(t *testing.T) {
	arena := parse(t, "function* g() { yield 1; yield* inner(); yield; }")
	fn := stmt(t, arena, 0)
	if fn.Flags&ast.FlagGenerator == 0 {
		t.Fatal("generator flag missing")
	}
	body := arena.Get(fn.A)
	y0 := arena.Get(arena.Get(body.List[0]).A)
	if y0.Kind != ast.KindYield || y0.A == ast.InvalidNode {
		t.Errorf("first yield: kind=%s operand=%v", y0.Kind, y0.A)
	}
	y1 := arena.Get(arena.Get(body.List[1]).A)
	if y1.Flags&ast.FlagDelegate == 0 {
		t.Error("yield* should carry the delegate flag")
	}
	y2 := arena.Get(arena.Get(body.List[2]).A)
	if y2.A != ast.InvalidNode {
		t.Error("bare yield should have no operand")
	}
}

func TestParseForVariants(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.Kind
	}{
		{"for (var i = 0; i < 10; i++) {}", ast.KindFor},
		{"for (;;) {}", ast.KindFor},
		{"for (var k in obj) {}", ast.KindForIn},
		{"for (k in obj) {}", ast.KindForIn},
		{"for (const v of items) {}", ast.KindForOf},
	}
	for _, tt := range tests {
		arena := parse(t, tt.src)
		if got := stmt(t, arena, 0).Kind; got != tt.kind {
			t.Errorf("%q: got %s, want %s", tt.src, got, tt.kind)
		}
	}
}

func TestParseClass(t *testing.T) {
	src := `class Point extends Base {
  x = 0;
  static origin = null;
  constructor(x: number) { this.x = x; }
  get size() { return 1; }
  async load() { return await fetch(); }
}`
	arena := parse(t, src)
	c := stmt(t, arena, 0)
	if c.Kind != ast.KindClassDecl || c.Text != "Point" {
		t.Fatalf("got %s %q", c.Kind, c.Text)
	}
	if arena.Get(c.A).Text != "Base" {
		t.Errorf("heritage = %q", arena.Get(c.A).Text)
	}
	if len(c.List) != 5 {
		t.Fatalf("members = %d, want 5", len(c.List))
	}
	if m := arena.Get(c.List[1]); m.Kind != ast.KindField || m.Flags&ast.FlagStatic == 0 {
		t.Errorf("member 1 = %s flags=%x, want static field", m.Kind, m.Flags)
	}
	if m := arena.Get(c.List[3]); m.Flags&ast.FlagGetter == 0 {
		t.Errorf("member 3 should be a getter")
	}
	if m := arena.Get(c.List[4]); m.Flags&ast.FlagAsync == 0 {
		t.Errorf("member 4 should be async")
	}
}

func TestParseEnum(t *testing.T) {
	arena := parse(t, "enum Color { Red, Green = 5, Blue }")
	e := stmt(t, arena, 0)
	if e.Kind != ast.KindEnumDecl || e.Text != "Color" {
		t.Fatalf("got %s %q", e.Kind, e.Text)
	}
	if len(e.List) != 3 {
		t.Fatalf("members = %d", len(e.List))
	}
	green := arena.Get(e.List[1])
	if green.Text != "Green" || green.A == ast.InvalidNode {
		t.Errorf("Green member: %q init=%v", green.Text, green.A)
	}
	if blue := arena.Get(e.List[2]); blue.A != ast.InvalidNode {
		t.Error("Blue should have no explicit initializer")
	}
}

func TestParseDestructuring(t *testing.T) {
	arena := parse(t, "const { a, b: c, d = 1, ...rest } = obj;")
	decl := arena.Get(stmt(t, arena, 0).List[0])
	pat := arena.Get(decl.A)
	if pat.Kind != ast.KindObjectPattern || len(pat.List) != 4 {
		t.Fatalf("pattern %s with %d props", pat.Kind, len(pat.List))
	}
	short := arena.Get(pat.List[0])
	if short.Text != "a" || arena.Get(short.A).Text != "a" {
		t.Errorf("shorthand prop: key=%q binding=%q", short.Text, arena.Get(short.A).Text)
	}
	renamed := arena.Get(pat.List[1])
	if renamed.Text != "b" || arena.Get(renamed.A).Text != "c" {
		t.Errorf("renamed prop: key=%q binding=%q", renamed.Text, arena.Get(renamed.A).Text)
	}
	dflt := arena.Get(pat.List[2])
	if dflt.B == ast.InvalidNode {
		t.Error("defaulted prop should carry its initializer")
	}
	rest := arena.Get(pat.List[3])
	if rest.Kind != ast.KindRestElement {
		t.Errorf("last prop = %s, want RestElement", rest.Kind)
	}
}

func TestParseArrayPatternHoles(t *testing.T) {
	arena := parse(t, "var [a, , b] = xs;")
	pat := arena.Get(arena.Get(stmt(t, arena, 0).List[0]).A)
	if pat.Kind != ast.KindArrayPattern || len(pat.List) != 3 {
		t.Fatalf("pattern %s with %d elems", pat.Kind, len(pat.List))
	}
	if pat.List[1] != ast.InvalidNode {
		t.Error("middle element should be a hole")
	}
}

func TestParseTemplateLiteral(t *testing.T) {
	arena := parse(t, "var s = `a${b + 1}c`;")
	tmpl := arena.Get(arena.Get(stmt(t, arena, 0).List[0]).B)
	if tmpl.Kind != ast.KindTemplateLit {
		t.Fatalf("got %s", tmpl.Kind)
	}
	if len(tmpl.List) != 3 {
		t.Fatalf("segments = %d, want 3", len(tmpl.List))
	}
	if c := arena.Get(tmpl.List[0]); c.Kind != ast.KindTemplateChunk || c.Text != "a" {
		t.Errorf("chunk 0 = %s %q", c.Kind, c.Text)
	}
	expr := arena.Get(tmpl.List[1])
	if expr.Kind != ast.KindBinary {
		t.Errorf("substitution = %s, want Binary", expr.Kind)
	}
	// Substitution spans must point back into the original source.
	if got := arena.File().Slice(expr.Span()); got != "b + 1" {
		t.Errorf("substitution source = %q, want \"b + 1\"", got)
	}
}

func TestParseObjectLiteral(t *testing.T) {
	arena := parse(t, "var o = { a: 1, b, c() { return 2; }, [k]: 3, ...rest };")
	obj := arena.Get(arena.Get(stmt(t, arena, 0).List[0]).B)
	if obj.Kind != ast.KindObjectLit || len(obj.List) != 5 {
		t.Fatalf("got %s with %d props", obj.Kind, len(obj.List))
	}
	if p := arena.Get(obj.List[1]); p.Flags&ast.FlagShorthand == 0 {
		t.Error("prop b should be shorthand")
	}
	if p := arena.Get(obj.List[2]); arena.Get(p.B).Kind != ast.KindFunctionExpr {
		t.Error("method shorthand should desugar to a function expression value")
	}
	if p := arena.Get(obj.List[3]); p.Flags&ast.FlagComputed == 0 {
		t.Error("computed key flag missing")
	}
	if p := arena.Get(obj.List[4]); p.Kind != ast.KindSpreadElement {
		t.Errorf("last prop = %s, want SpreadElement", p.Kind)
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	arena := parse(t, "try { a(); } catch (e) { b(e); } finally { c(); }")
	s := stmt(t, arena, 0)
	if s.Kind != ast.KindTry {
		t.Fatalf("got %s", s.Kind)
	}
	catch := arena.Get(s.B)
	if catch.Kind != ast.KindCatchClause || arena.Get(catch.A).Text != "e" {
		t.Errorf("catch clause malformed: %s", catch.Kind)
	}
	if s.C == ast.InvalidNode {
		t.Error("finally block missing")
	}
}

func TestParseSwitch(t *testing.T) {
	arena := parse(t, "switch (x) { case 1: a(); break; default: b(); }")
	s := stmt(t, arena, 0)
	if s.Kind != ast.KindSwitch || len(s.List) != 2 {
		t.Fatalf("got %s with %d cases", s.Kind, len(s.List))
	}
	if c := arena.Get(s.List[0]); c.A == ast.InvalidNode || len(c.List) != 2 {
		t.Errorf("case 1: test=%v stmts=%d", c.A, len(c.List))
	}
	if c := arena.Get(s.List[1]); c.A != ast.InvalidNode {
		t.Error("default case should have no test")
	}
}

func TestParseImportForms(t *testing.T) {
	tests := []struct {
		src   string
		specs int
		mod   string
	}{
		{`import "./side-effect";`, 0, "./side-effect"},
		{`import def from "m";`, 1, "m"},
		{`import * as ns from "m";`, 1, "m"},
		{`import { a, b as c } from "m";`, 2, "m"},
		{`import def, { a } from "m";`, 2, "m"},
	}
	for _, tt := range tests {
		arena := parse(t, tt.src)
		s := stmt(t, arena, 0)
		if s.Kind != ast.KindImportDecl {
			t.Errorf("%q: got %s", tt.src, s.Kind)
			continue
		}
		if len(s.List) != tt.specs || s.Text != tt.mod {
			t.Errorf("%q: specs=%d mod=%q", tt.src, len(s.List), s.Text)
		}
	}
}

func TestParseExportForms(t *testing.T) {
	arena := parse(t, `export const x = 1;
export function f() {}
export default class C {}
export { a, b as c };`)
	root := arena.Get(arena.Root())
	if len(root.List) != 4 {
		t.Fatalf("statements = %d", len(root.List))
	}
	if s := stmt(t, arena, 0); s.Kind != ast.KindExportDecl || arena.Get(s.A).Kind != ast.KindVarStmt {
		t.Error("export const should wrap a var statement")
	}
	if s := stmt(t, arena, 2); s.Flags&ast.FlagDefault == 0 {
		t.Error("export default flag missing")
	}
	named := stmt(t, arena, 3)
	if named.Kind != ast.KindExportNamed || len(named.List) != 2 {
		t.Fatalf("named export: %s with %d specs", named.Kind, len(named.List))
	}
	aliased := arena.Get(named.List[1])
	if aliased.Text != "b" || arena.Get(aliased.A).Text != "c" {
		t.Errorf("alias spec: local=%q exported=%q", aliased.Text, arena.Get(aliased.A).Text)
	}
}

func TestTypeErasure(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		stmts int
	}{
		{"annotation", "var x: number = 1;", 1},
		{"return type", "function f(a: string[]): void {}", 1},
		{"generics", "function f<T extends object>(x: T): T { return x; }", 1},
		{"as cast", "var y = x as unknown as string;", 1},
		{"non-null", "var z = a!.b;", 1},
		{"interface", "interface I { a: number; }\nvar x = 1;", 1},
		{"type alias", "type T = { a: number } | string;\nvar x = 1;", 1},
		{"declare", "declare const g: number;\nvar x = 1;", 1},
		{"generic call", "f<number>(1);", 1},
		{"optional param", "function f(a?: number) {}", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arena := parse(t, tt.src)
			root := arena.Get(arena.Root())
			if len(root.List) != tt.stmts {
				t.Errorf("statements = %d, want %d", len(root.List), tt.stmts)
			}
		})
	}
}

func TestASI(t *testing.T) {
	arena := parse(t, "var a = 1\nvar b = 2\nreturn\n")
	root := arena.Get(arena.Root())
	if len(root.List) != 3 {
		t.Fatalf("statements = %d, want 3", len(root.List))
	}
	ret := stmt(t, arena, 2)
	if ret.A != ast.InvalidNode {
		t.Error("return followed by newline must not take an operand")
	}
}

func TestParseErrorRecovery(t *testing.T) {
	arena, diags := ParseFile("bad.ts", "var = ;\nvar ok = 1;")
	if !diags.HasErrors() {
		t.Fatal("expected diagnostics")
	}
	root := arena.Get(arena.Root())
	found := false
	for _, id := range root.List {
		s := arena.Get(id)
		if s.Kind == ast.KindVarStmt {
			for _, d := range s.List {
				b := arena.Get(arena.Get(d).A)
				if b.Kind == ast.KindBindingIdent && b.Text == "ok" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("parser should recover and parse the following statement")
	}
}

func TestSpansCoverSource(t *testing.T) {
	src := "function add(a, b) { return a + b; }"
	arena := parse(t, src)
	fn := stmt(t, arena, 0)
	if got := arena.File().Slice(fn.Span()); got != src {
		t.Errorf("function span = %q", got)
	}
	body := arena.Get(fn.A)
	ret := arena.Get(body.List[0])
	if got := arena.File().Slice(ret.Span()); got != "return a + b;" {
		t.Errorf("return span = %q", got)
	}
}

func TestLabeledStatement(t *testing.T) {
	arena := parse(t, "outer: for (;;) { break outer; }")
	s := stmt(t, arena, 0)
	if s.Kind != ast.KindLabeled || s.Text != "outer" {
		t.Fatalf("got %s %q", s.Kind, s.Text)
	}
	loop := arena.Get(s.A)
	body := arena.Get(loop.D)
	brk := arena.Get(body.List[0])
	if brk.Kind != ast.KindBreak || brk.Text != "outer" {
		t.Errorf("break = %s %q", brk.Kind, brk.Text)
	}
}
