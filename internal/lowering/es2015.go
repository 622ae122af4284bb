package lowering

import (
	"strconv"
	"strings"

	"github.com/quenchjs/quench/internal/ast"
)

// lowerES2015 removes the remaining ES2015 expression syntax the later
// passes do not want to see: arrow functions (with lexical this
// capture), template literals, object spread and computed keys, and
// argument/array spread.
func (c *context) lowerES2015() {
	top := &scopeState{capture: c.thisCaptureName(c.arena.Root())}
	c.walkThisScope(c.arena.Root(), top, 0)
	if top.captured {
		root := c.arena.Get(c.arena.Root())
		if len(root.List) > 0 {
			c.rec.InsertBefore(root.List[0], c.varDecl(top.capture, c.ov.New(ast.KindThis)))
		}
	}
	c.lowerTemplatesAndSpreads()
}

type scopeState struct {
	captured bool   // some arrow below used this
	capture  string // hygienic name for the captured this
}

// thisCaptureName picks the capture temporary for one function scope,
// stepping past any identifier the scope already uses.
func (c *context) thisCaptureName(root ast.NodeID) string {
	used := make(map[string]bool)
	c.visit(root, func(_ ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindIdent, ast.KindBindingIdent:
			used[n.Text] = true
		}
		return true
	})
	name := "_this"
	for i := 1; used[name]; i++ {
		name = "_this_" + strconv.Itoa(i)
	}
	return name
}

// walkThisScope converts arrows bottom-up while tracking which function
// scope must capture this. arrowDepth counts arrows between the current
// node and the owning function.
func (c *context) walkThisScope(id ast.NodeID, st *scopeState, arrowDepth int) {
	id = c.rec.Resolve(id)
	n := c.ov.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindFunctionDecl, ast.KindFunctionExpr:
		inner := &scopeState{capture: c.thisCaptureName(id)}
		for _, p := range n.List {
			c.walkThisScope(p, inner, 0)
		}
		c.walkThisScope(n.A, inner, 0)
		if inner.captured {
			body := c.rec.Get(n.A)
			if body != nil && body.Kind == ast.KindBlock {
				capture := c.varDecl(inner.capture, c.ov.New(ast.KindThis))
				c.rec.Replace(n.A, c.ov.Block(append([]ast.NodeID{capture}, body.List...)...))
			}
		}
		return
	case ast.KindArrow:
		for _, p := range n.List {
			c.walkThisScope(p, st, arrowDepth+1)
		}
		c.walkThisScope(n.A, st, arrowDepth+1)
		c.convertArrow(id, n)
		return
	case ast.KindThis:
		if arrowDepth > 0 {
			st.captured = true
			c.rec.Replace(id, c.ov.IdentAt(st.capture, id))
		}
		return
	}
	ast.EachChild(n, func(child ast.NodeID) {
		c.walkThisScope(child, st, arrowDepth)
	})
}

// convertArrow replaces an arrow with an equivalent function expression.
// Lexical this has already been rewritten to the capture temporary by
// the caller.
func (c *context) convertArrow(id ast.NodeID, arrow *ast.Node) {
	ov := c.ov
	fn := ov.NewAt(ast.KindFunctionExpr, id)
	f := ov.Mut(fn)
	f.Flags = arrow.Flags & (ast.FlagAsync | ast.FlagGenerator)
	f.List = arrow.List
	body := c.rec.Get(arrow.A)
	if body != nil && body.Kind == ast.KindBlock {
		f.A = arrow.A
	} else {
		ret := ov.NewAt(ast.KindReturn, arrow.A)
		ov.Mut(ret).A = arrow.A
		f.A = ov.Block(ret)
	}
	c.rec.Replace(id, fn)
}

func (c *context) lowerTemplatesAndSpreads() {
	c.visit(c.arena.Root(), func(id ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindTemplateLit:
			c.rec.Replace(id, c.templateConcat(id, n))
		case ast.KindTaggedTemplate:
			c.rec.MarkUnsupported(id, "tagged template literal")
			return false
		case ast.KindObjectLit:
			c.lowerObjectLit(id, n)
		case ast.KindArrayLit:
			c.lowerArraySpread(id, n)
		case ast.KindCall:
			c.lowerCallSpread(id, n)
		case ast.KindNew:
			for _, a := range n.List {
				if arg := c.rec.Get(a); arg != nil && arg.Kind == ast.KindSpreadElement {
					c.rec.MarkUnsupported(id, "spread argument in new expression")
					break
				}
			}
		}
		return true
	})
}

// templateConcat turns `a${x}b` into "a" + (x) + "b". The leading
// operand is always a string so concatenation semantics hold.
func (c *context) templateConcat(id ast.NodeID, tmpl *ast.Node) ast.NodeID {
	ov := c.ov
	type operand struct {
		id       ast.NodeID
		isString bool
	}
	var ops []operand
	for _, segID := range tmpl.List {
		seg := c.rec.Get(segID)
		if seg.Kind == ast.KindTemplateChunk {
			if seg.Text == "" {
				continue
			}
			s := ov.NewAt(ast.KindStringLit, segID)
			ov.Mut(s).Text = cookTemplateChunk(seg.Text)
			ops = append(ops, operand{s, true})
		} else {
			paren := ov.NewAt(ast.KindParen, segID)
			ov.Mut(paren).A = segID
			ops = append(ops, operand{paren, false})
		}
	}
	empty := func() ast.NodeID {
		s := ov.NewAt(ast.KindStringLit, id)
		ov.Mut(s).Text = ""
		return s
	}
	if len(ops) == 0 {
		return empty()
	}
	// The leading operand must be a string so + concatenates.
	if !ops[0].isString {
		ops = append([]operand{{empty(), true}}, ops...)
	}
	expr := ops[0].id
	for _, op := range ops[1:] {
		bin := ov.New(ast.KindBinary)
		b := ov.Mut(bin)
		b.Text = "+"
		b.A = expr
		b.B = op.id
		expr = bin
	}
	return expr
}

// cookTemplateChunk interprets the escape sequences of a raw template
// chunk into the cooked string value.
func cookTemplateChunk(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '`', '$', '\\', '\'', '"':
			b.WriteByte(raw[i])
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

// lowerObjectLit handles spread properties and computed keys. Spread
// becomes an __assign chain; computed keys go through a this-preserving
// IIFE that builds the object imperatively.
func (c *context) lowerObjectLit(id ast.NodeID, obj *ast.Node) {
	hasSpread, hasComputed := false, false
	for _, propID := range obj.List {
		p := c.rec.Get(propID)
		if p.Kind == ast.KindSpreadElement {
			hasSpread = true
		}
		if p.Flags&ast.FlagComputed != 0 {
			hasComputed = true
		}
	}
	if hasComputed {
		c.rec.Replace(id, c.computedObjectIIFE(id, obj))
		return
	}
	if !hasSpread {
		return
	}

	// { a: 1, ...b, c: 2 } -> __assign(__assign({ a: 1 }, b), { c: 2 })
	ov := c.ov
	c.rec.Need(HelperAssign)
	var expr ast.NodeID = ast.InvalidNode
	var run []ast.NodeID

	flushRun := func() {
		if len(run) == 0 && expr != ast.InvalidNode {
			return
		}
		lit := ov.NewAt(ast.KindObjectLit, id)
		ov.Mut(lit).List = run
		run = nil
		if expr == ast.InvalidNode {
			expr = lit
		} else {
			expr = ov.Call(ov.Ident("__assign"), expr, lit)
		}
	}

	for _, propID := range obj.List {
		p := c.rec.Get(propID)
		if p.Kind != ast.KindSpreadElement {
			run = append(run, propID)
			continue
		}
		flushRun()
		expr = ov.Call(ov.Ident("__assign"), expr, p.A)
	}
	flushRun()
	c.rec.Replace(id, expr)
}

// computedObjectIIFE builds
//
//	(function () { var _a = {}; _a.k = v; _a[expr] = v2; return _a; }).call(this)
func (c *context) computedObjectIIFE(id ast.NodeID, obj *ast.Node) ast.NodeID {
	ov := c.ov
	tmp := c.temp()
	var stmts []ast.NodeID
	empty := ov.New(ast.KindObjectLit)
	stmts = append(stmts, c.varDecl(tmp, empty))

	for _, propID := range obj.List {
		p := c.rec.Get(propID)
		var target ast.NodeID
		switch {
		case p.Kind == ast.KindSpreadElement:
			c.rec.Need(HelperAssign)
			call := ov.Call(ov.Ident("__assign"), ov.Ident(tmp), p.A)
			stmts = append(stmts, ov.ExprStmt(ov.Assign(ov.Ident(tmp), call)))
			continue
		case p.Flags&ast.FlagComputed != 0:
			target = ov.New(ast.KindIndex)
			t := ov.Mut(target)
			t.A = ov.Ident(tmp)
			t.B = p.A
		default:
			target = ov.Member(ov.Ident(tmp), p.Text)
		}
		stmts = append(stmts, ov.ExprStmt(ov.Assign(target, p.B)))
	}
	stmts = append(stmts, ov.Return(ov.Ident(tmp)))

	fn := ov.NewAt(ast.KindFunctionExpr, id)
	ov.Mut(fn).A = ov.Block(stmts...)
	paren := ov.New(ast.KindParen)
	ov.Mut(paren).A = fn
	return ov.Call(ov.Member(paren, "call"), ov.New(ast.KindThis))
}

// lowerArraySpread turns [a, ...b, c] into [a].concat(b, [c]).
func (c *context) lowerArraySpread(id ast.NodeID, arr *ast.Node) {
	hasSpread := false
	for _, e := range arr.List {
		if e == ast.InvalidNode {
			continue
		}
		if el := c.rec.Get(e); el.Kind == ast.KindSpreadElement {
			hasSpread = true
			break
		}
	}
	if !hasSpread {
		return
	}
	c.rec.Replace(id, c.spreadToConcat(id, arr.List))
}

func (c *context) spreadToConcat(origin ast.NodeID, elems []ast.NodeID) ast.NodeID {
	ov := c.ov
	var head ast.NodeID = ast.InvalidNode
	var args []ast.NodeID
	var run []ast.NodeID

	flushRun := func() {
		if len(run) == 0 && head != ast.InvalidNode {
			return
		}
		lit := ov.NewAt(ast.KindArrayLit, origin)
		ov.Mut(lit).List = run
		run = nil
		if head == ast.InvalidNode {
			head = lit
		} else {
			args = append(args, lit)
		}
	}

	for _, e := range elems {
		if e == ast.InvalidNode {
			run = append(run, ast.InvalidNode)
			continue
		}
		el := c.rec.Get(e)
		if el.Kind != ast.KindSpreadElement {
			run = append(run, e)
			continue
		}
		flushRun()
		args = append(args, el.A)
	}
	if len(run) > 0 {
		flushRun()
	}
	if len(args) == 0 {
		return head
	}
	return ov.Call(ov.Member(head, "concat"), args...)
}

// lowerCallSpread rewrites f(...xs) through Function.prototype.apply.
// The receiver must be re-evaluation-safe; anything else degrades.
func (c *context) lowerCallSpread(id ast.NodeID, call *ast.Node) {
	hasSpread := false
	for _, a := range call.List {
		if arg := c.rec.Get(a); arg != nil && arg.Kind == ast.KindSpreadElement {
			hasSpread = true
			break
		}
	}
	if !hasSpread {
		return
	}

	ov := c.ov
	callee := c.rec.Get(call.A)
	var receiver ast.NodeID
	switch callee.Kind {
	case ast.KindIdent:
		receiver = ov.Raw("void 0")
	case ast.KindMember, ast.KindIndex:
		obj := c.rec.Get(callee.A)
		if obj.Kind != ast.KindIdent && obj.Kind != ast.KindThis {
			c.rec.MarkUnsupported(id, "spread call on a computed receiver")
			return
		}
		receiver = callee.A
	default:
		c.rec.MarkUnsupported(id, "spread call on a computed receiver")
		return
	}

	argsArray := c.spreadToConcat(id, call.List)
	apply := ov.Call(ov.Member(call.A, "apply"), receiver, argsArray)
	c.rec.Replace(id, apply)
}
