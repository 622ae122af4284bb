package lowering

import (
	"github.com/quenchjs/quench/internal/ast"
)

// lowerEnums rewrites enum declarations to the merge-friendly IIFE
// pattern and inlines const enum member references:
//
//	var E;
//	(function (E) {
//	    E[E["A"] = 0] = "A";
//	    E["S"] = "up";
//	})(E || (E = {}));
//
// String-valued members get no reverse mapping. const enums produce no
// object at all; their use sites become literals.
func (c *context) lowerEnums() {
	c.visit(c.arena.Root(), func(id ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindEnumDecl:
			if n.Flags&ast.FlagConstEnum != 0 {
				c.rec.Elide(id)
			} else {
				c.rewriteEnum(id, n)
			}
			return false
		case ast.KindMember:
			c.inlineConstEnumRef(id, n)
		}
		return true
	})
}

func (c *context) rewriteEnum(id ast.NodeID, decl *ast.Node) {
	ov := c.ov
	name := decl.Text

	// var E;
	varStmt := ov.NewAt(ast.KindVarStmt, id)
	declr := ov.NewAt(ast.KindVarDeclarator, id)
	bind := ov.NewAt(ast.KindBindingIdent, id)
	ov.Mut(bind).Text = name
	ov.Mut(declr).A = bind
	v := ov.Mut(varStmt)
	v.Text = "var"
	v.List = []ast.NodeID{declr}

	// (function (E) { ... })
	fn := ov.NewAt(ast.KindFunctionExpr, id)
	param := ov.New(ast.KindParam)
	pbind := ov.New(ast.KindBindingIdent)
	ov.Mut(pbind).Text = name
	ov.Mut(param).A = pbind

	var body []ast.NodeID
	for _, memberID := range decl.List {
		body = append(body, c.enumMemberStmt(name, memberID))
	}
	block := ov.Block(body...)
	f := ov.Mut(fn)
	f.List = []ast.NodeID{param}
	f.A = block

	// (fn)(E || (E = {}))
	paren := ov.New(ast.KindParen)
	ov.Mut(paren).A = fn
	emptyObj := ov.New(ast.KindObjectLit)
	assignArg := ov.New(ast.KindParen)
	ov.Mut(assignArg).A = ov.Assign(ov.Ident(name), emptyObj)
	orExpr := ov.New(ast.KindLogical)
	oe := ov.Mut(orExpr)
	oe.Text = "||"
	oe.A = ov.Ident(name)
	oe.B = assignArg
	call := ov.Call(paren, orExpr)
	iife := ov.ExprStmt(call)

	c.rec.Replace(id, varStmt)
	c.rec.InsertAfter(id, iife)
}

// enumMemberStmt builds one member assignment inside the enum IIFE.
func (c *context) enumMemberStmt(enumName string, memberID ast.NodeID) ast.NodeID {
	ov := c.ov
	m := c.arena.Get(memberID)
	value, _ := c.oracle.Member(memberID)

	var valueExpr ast.NodeID
	switch {
	case value.Computed && m.A != ast.InvalidNode:
		valueExpr = m.A
	case value.Computed:
		// No initializer and no auto-increment chain: a parse-order
		// error the parser already reported. Emit void 0.
		valueExpr = ov.Raw("void 0")
	default:
		valueExpr = ov.NewAt(ast.KindNumberLit, memberID)
		ov.Mut(valueExpr).Text = value.Format()
		if value.IsString {
			ov.Mut(valueExpr).Kind = ast.KindRaw
		}
	}

	// E["A"] = value
	key := ov.NewAt(ast.KindStringLit, memberID)
	ov.Mut(key).Text = m.Text
	index := ov.New(ast.KindIndex)
	ix := ov.Mut(index)
	ix.A = ov.IdentAt(enumName, memberID)
	ix.B = key
	inner := ov.Assign(index, valueExpr)

	if value.IsString {
		return ov.ExprStmt(inner)
	}

	// E[E["A"] = value] = "A"  (reverse mapping for numeric members)
	reverseKey := ov.New(ast.KindStringLit)
	ov.Mut(reverseKey).Text = m.Text
	outer := ov.New(ast.KindIndex)
	ox := ov.Mut(outer)
	ox.A = ov.IdentAt(enumName, memberID)
	ox.B = inner
	return ov.ExprStmt(ov.Assign(outer, reverseKey))
}

// inlineConstEnumRef replaces E.Member with its folded constant when E
// names a const enum.
func (c *context) inlineConstEnumRef(id ast.NodeID, n *ast.Node) {
	obj := c.rec.Get(n.A)
	if obj == nil || obj.Kind != ast.KindIdent {
		return
	}
	v, ok := c.oracle.ConstMember(obj.Text, n.Text)
	if !ok {
		return
	}
	repl := c.ov.NewAt(ast.KindRaw, id)
	c.ov.Mut(repl).Text = v.Format() + " /* " + obj.Text + "." + n.Text + " */"
	c.rec.Replace(id, repl)
}
