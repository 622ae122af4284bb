package lowering

import (
	"strconv"

	"github.com/quenchjs/quench/internal/ast"
)

// lowerBlockScoping converts let and const declarations to var. Var
// hoisting merges block scopes, so a block-scoped name that collides
// with one already hoisted in the same function is renamed throughout
// its declaring block.
func (c *context) lowerBlockScoping() {
	c.scopeFunction(c.arena.Root(), nil)
}

// scopeFunction processes one var-hoisting scope, then recurses into
// the functions nested below it. Parameter names pre-occupy the scope.
func (c *context) scopeFunction(body ast.NodeID, params []ast.NodeID) {
	seen := make(map[string]bool)
	for _, p := range params {
		param := c.rec.Get(p)
		if param == nil {
			continue
		}
		if b := c.rec.Get(param.A); b != nil && b.Kind == ast.KindBindingIdent {
			seen[b.Text] = true
		}
	}
	c.hoistInto(body, body, seen)

	c.visit(body, func(id ast.NodeID, n *ast.Node) bool {
		if id == body {
			return true
		}
		switch n.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr:
			c.scopeFunction(n.A, n.List)
			return false
		}
		return true
	})
}

// hoistInto walks the statements under id without crossing function
// boundaries. renameRoot is the innermost block a colliding declaration
// is scoped to.
func (c *context) hoistInto(id, renameRoot ast.NodeID, seen map[string]bool) {
	n := c.rec.Get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindSourceFile:
		for _, s := range n.List {
			c.hoistInto(s, id, seen)
		}
	case ast.KindBlock:
		for _, s := range n.List {
			c.hoistInto(s, id, seen)
		}
	case ast.KindVarStmt:
		c.hoistVar(id, n, renameRoot, seen)
	case ast.KindIf:
		c.hoistInto(n.B, n.B, seen)
		if n.C != ast.InvalidNode {
			c.hoistInto(n.C, n.C, seen)
		}
	case ast.KindWhile, ast.KindDoWhile:
		c.hoistInto(n.B, n.B, seen)
	case ast.KindFor:
		if n.A != ast.InvalidNode {
			// A loop-head declaration scopes to the whole loop.
			c.hoistInto(n.A, id, seen)
		}
		c.hoistInto(n.D, n.D, seen)
	case ast.KindForIn, ast.KindForOf:
		c.hoistInto(n.A, id, seen)
		c.hoistInto(n.C, n.C, seen)
	case ast.KindLabeled:
		c.hoistInto(n.A, renameRoot, seen)
	case ast.KindTry:
		c.hoistInto(n.A, n.A, seen)
		if n.B != ast.InvalidNode {
			clause := c.rec.Get(n.B)
			c.hoistInto(clause.B, clause.B, seen)
		}
		if n.C != ast.InvalidNode {
			c.hoistInto(n.C, n.C, seen)
		}
	case ast.KindSwitch:
		for _, caseID := range n.List {
			cs := c.rec.Get(caseID)
			for _, s := range cs.List {
				// Cases share the switch block scope.
				c.hoistInto(s, id, seen)
			}
		}
	case ast.KindFunctionDecl:
		seen[n.Text] = true
	}
}

func (c *context) hoistVar(id ast.NodeID, n *ast.Node, renameRoot ast.NodeID, seen map[string]bool) {
	blockScoped := n.Text != "var"
	for _, declID := range n.List {
		d := c.rec.Get(declID)
		b := c.rec.Get(d.A)
		if b == nil || b.Kind != ast.KindBindingIdent {
			continue
		}
		name := b.Text
		if blockScoped && seen[name] {
			c.renames++
			renamed := name + "_" + strconv.Itoa(c.renames)
			c.renameIn(renameRoot, name, renamed)
			seen[renamed] = true
			continue
		}
		seen[name] = true
	}
	if blockScoped {
		repl := c.ov.NewAt(ast.KindVarStmt, id)
		r := c.ov.Mut(repl)
		r.Text = "var"
		r.List = n.List
		c.rec.Replace(id, repl)
	}
}

// renameIn rewrites every use and binding of a name below root. Nested
// redeclarations of the same name are rare enough that they rename
// along with the block.
func (c *context) renameIn(root ast.NodeID, from, to string) {
	c.visit(root, func(id ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindIdent:
			if n.Text == from {
				c.rec.Replace(id, c.ov.IdentAt(to, id))
			}
		case ast.KindBindingIdent:
			if n.Text == from {
				b := c.ov.NewAt(ast.KindBindingIdent, id)
				c.ov.Mut(b).Text = to
				c.rec.Replace(id, b)
			}
		}
		return true
	})
}
