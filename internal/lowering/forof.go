package lowering

import (
	"github.com/quenchjs/quench/internal/ast"
)

// lowerForOf rewrites for-of to the indexed-array form over a stashed
// operand:
//
//	for (var _i = 0, _a = expr; _i < _a.length; _i++) {
//	    var v = _a[_i];
//	    ...
//	}
//
// This matches array semantics only; arbitrary iterables are out of
// scope for the ES5 target here.
func (c *context) lowerForOf() {
	c.visit(c.arena.Root(), func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind != ast.KindForOf {
			return true
		}
		c.rewriteForOf(id, n)
		return true
	})
}

func (c *context) rewriteForOf(id ast.NodeID, loop *ast.Node) {
	ov := c.ov
	idx := c.temp()
	arr := c.temp()

	// var _i = 0, _a = expr;
	init := ov.NewAt(ast.KindVarStmt, id)
	idxDecl := ov.New(ast.KindVarDeclarator)
	idxBind := ov.New(ast.KindBindingIdent)
	ov.Mut(idxBind).Text = idx
	di := ov.Mut(idxDecl)
	di.A = idxBind
	di.B = ov.Number("0")
	arrDecl := ov.New(ast.KindVarDeclarator)
	arrBind := ov.New(ast.KindBindingIdent)
	ov.Mut(arrBind).Text = arr
	da := ov.Mut(arrDecl)
	da.A = arrBind
	da.B = loop.B
	in := ov.Mut(init)
	in.Text = "var"
	in.List = []ast.NodeID{idxDecl, arrDecl}

	// _i < _a.length
	cond := ov.New(ast.KindBinary)
	cn := ov.Mut(cond)
	cn.Text = "<"
	cn.A = ov.Ident(idx)
	cn.B = ov.Member(ov.Ident(arr), "length")

	// _i++
	update := ov.New(ast.KindUpdate)
	un := ov.Mut(update)
	un.Text = "++"
	un.A = ov.Ident(idx)

	// element read: _a[_i]
	element := ov.New(ast.KindIndex)
	en := ov.Mut(element)
	en.A = ov.Ident(arr)
	en.B = ov.Ident(idx)

	prologue := c.bindLoopVariable(loop.A, element)

	var bodyStmts []ast.NodeID
	bodyStmts = append(bodyStmts, prologue)
	body := c.rec.Get(loop.C)
	if body != nil && body.Kind == ast.KindBlock {
		bodyStmts = append(bodyStmts, body.List...)
	} else if loop.C != ast.InvalidNode {
		bodyStmts = append(bodyStmts, loop.C)
	}

	repl := ov.NewAt(ast.KindFor, id)
	r := ov.Mut(repl)
	r.A = init
	r.B = cond
	r.C = update
	r.D = ov.Block(bodyStmts...)
	c.rec.Replace(id, repl)
}

// bindLoopVariable produces the first body statement that binds the
// loop's left side to the current element.
func (c *context) bindLoopVariable(left, element ast.NodeID) ast.NodeID {
	ov := c.ov
	l := c.rec.Get(left)
	if l != nil && l.Kind == ast.KindVarStmt && len(l.List) == 1 {
		// var v = _a[_i];  (patterns expand in the destructuring pass)
		declr := c.rec.Get(l.List[0])
		nd := ov.NewAt(ast.KindVarDeclarator, l.List[0])
		d := ov.Mut(nd)
		d.A = declr.A
		d.B = element
		stmt := ov.NewAt(ast.KindVarStmt, left)
		s := ov.Mut(stmt)
		s.Text = l.Text
		s.List = []ast.NodeID{nd}
		return stmt
	}
	if l != nil && l.Kind == ast.KindExprStmt {
		// x = _a[_i];
		return ov.ExprStmt(ov.Assign(l.A, element))
	}
	return ov.ExprStmt(ov.Assign(left, element))
}
