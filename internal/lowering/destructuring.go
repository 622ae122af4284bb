package lowering

import (
	"strconv"

	"github.com/quenchjs/quench/internal/ast"
)

// lowerParamsAndDestructuring flattens binding patterns in variable
// declarations and parameter lists, lowers parameter defaults to
// void-0 checks, and rewrites rest parameters over arguments. It runs
// after the for-of pass (whose loop variable may itself be a pattern)
// and before the async transform, so awaits inside default initializers
// are split like any other body statement.
func (c *context) lowerParamsAndDestructuring() {
	c.visit(c.arena.Root(), func(id ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr, ast.KindArrow:
			c.lowerParams(n)
		case ast.KindVarStmt:
			c.lowerVarPatterns(id, n)
		case ast.KindCatchClause:
			if b := c.rec.Get(n.A); b != nil && b.Kind != ast.KindBindingIdent {
				c.rec.MarkUnsupported(id, "destructuring catch binding")
			}
		case ast.KindAssign:
			if t := c.rec.Get(n.A); t != nil &&
				(t.Kind == ast.KindObjectLit || t.Kind == ast.KindArrayLit ||
					t.Kind == ast.KindObjectPattern || t.Kind == ast.KindArrayPattern) {
				c.rec.MarkUnsupported(id, "destructuring assignment expression")
			}
		}
		return true
	})
}

// lowerParams rewrites one function's parameter list in place (through
// replacements) and prepends the prologue statements to its body.
func (c *context) lowerParams(fn *ast.Node) {
	ov := c.ov
	var prologue []ast.NodeID

	for i, paramID := range fn.List {
		p := c.rec.Get(paramID)
		if p == nil || p.Kind != ast.KindParam {
			continue
		}
		binding := c.rec.Get(p.A)

		if p.Flags&ast.FlagRest != 0 {
			// function f(a, ...rest) -> loop over arguments from index i.
			c.rec.Elide(paramID)
			name := binding.Text
			idx := c.temp()
			prologue = append(prologue,
				c.varDecl(name, ov.NewAt(ast.KindArrayLit, paramID)))
			prologue = append(prologue, c.restLoop(name, idx, i))
			continue
		}

		switch binding.Kind {
		case ast.KindBindingIdent:
			if p.B != ast.InvalidNode {
				// if (name === void 0) { name = init; }
				prologue = append(prologue, c.defaultGuard(binding.Text, p.B, paramID))
				c.rec.Replace(paramID, c.simpleParam(binding.Text, paramID))
			}
		case ast.KindObjectPattern, ast.KindArrayPattern:
			tmp := c.temp()
			c.rec.Replace(paramID, c.simpleParam(tmp, paramID))
			src := ov.Ident(tmp)
			if p.B != ast.InvalidNode {
				prologue = append(prologue, c.defaultGuard(tmp, p.B, paramID))
			}
			decl := ov.NewAt(ast.KindVarStmt, paramID)
			d := ov.Mut(decl)
			d.Text = "var"
			d.List = c.expandPattern(p.A, src)
			prologue = append(prologue, decl)
		}
	}

	if len(prologue) == 0 {
		return
	}
	body := c.rec.Get(fn.A)
	if body == nil || body.Kind != ast.KindBlock {
		return
	}
	newBody := ov.Block(append(prologue, body.List...)...)
	c.rec.Replace(fn.A, newBody)
}

func (c *context) simpleParam(name string, origin ast.NodeID) ast.NodeID {
	ov := c.ov
	param := ov.NewAt(ast.KindParam, origin)
	bind := ov.NewAt(ast.KindBindingIdent, origin)
	ov.Mut(bind).Text = name
	ov.Mut(param).A = bind
	return param
}

// defaultGuard builds if (name === void 0) { name = init; }
func (c *context) defaultGuard(name string, init, origin ast.NodeID) ast.NodeID {
	ov := c.ov
	cond := ov.New(ast.KindBinary)
	cn := ov.Mut(cond)
	cn.Text = "==="
	cn.A = ov.IdentAt(name, origin)
	cn.B = ov.Raw("void 0")
	body := ov.Block(ov.ExprStmt(ov.Assign(ov.Ident(name), init)))
	ov.Mut(body).Flags |= ast.FlagSingleLine
	stmt := ov.NewAt(ast.KindIf, origin)
	s := ov.Mut(stmt)
	s.A = cond
	s.B = body
	return stmt
}

// restLoop builds the arguments-copying loop for a rest parameter:
//
//	for (var _i = n; _i < arguments.length; _i++) { rest[_i - n] = arguments[_i]; }
func (c *context) restLoop(name, idx string, from int) ast.NodeID {
	ov := c.ov
	init := c.varDecl(idx, ov.Number(strconv.Itoa(from)))
	cond := ov.New(ast.KindBinary)
	cn := ov.Mut(cond)
	cn.Text = "<"
	cn.A = ov.Ident(idx)
	cn.B = ov.Member(ov.Ident("arguments"), "length")
	update := ov.New(ast.KindUpdate)
	un := ov.Mut(update)
	un.Text = "++"
	un.A = ov.Ident(idx)

	var slot ast.NodeID
	if from == 0 {
		slot = ov.Ident(idx)
	} else {
		slot = ov.New(ast.KindBinary)
		sn := ov.Mut(slot)
		sn.Text = "-"
		sn.A = ov.Ident(idx)
		sn.B = ov.Number(strconv.Itoa(from))
	}
	target := ov.New(ast.KindIndex)
	tn := ov.Mut(target)
	tn.A = ov.Ident(name)
	tn.B = slot
	source := ov.New(ast.KindIndex)
	sn := ov.Mut(source)
	sn.A = ov.Ident("arguments")
	sn.B = ov.Ident(idx)
	body := ov.Block(ov.ExprStmt(ov.Assign(target, source)))

	loop := ov.New(ast.KindFor)
	l := ov.Mut(loop)
	l.A = init
	l.B = cond
	l.C = update
	l.D = body
	return loop
}

// lowerVarPatterns expands declarators whose binding is a pattern. The
// whole statement is replaced so one declarator can fan out into many.
func (c *context) lowerVarPatterns(id ast.NodeID, stmt *ast.Node) {
	hasPattern := false
	for _, declID := range stmt.List {
		d := c.rec.Get(declID)
		if b := c.rec.Get(d.A); b != nil && b.Kind != ast.KindBindingIdent {
			hasPattern = true
			break
		}
	}
	if !hasPattern {
		return
	}

	ov := c.ov
	var out []ast.NodeID
	for _, declID := range stmt.List {
		d := c.rec.Get(declID)
		b := c.rec.Get(d.A)
		if b.Kind == ast.KindBindingIdent {
			out = append(out, declID)
			continue
		}
		if d.B == ast.InvalidNode {
			c.rec.MarkUnsupported(declID, "binding pattern without initializer")
			continue
		}
		// _a = init, then one declarator per binding.
		tmp := c.temp()
		td := ov.NewAt(ast.KindVarDeclarator, declID)
		tb := ov.NewAt(ast.KindBindingIdent, declID)
		ov.Mut(tb).Text = tmp
		t := ov.Mut(td)
		t.A = tb
		t.B = d.B
		out = append(out, td)
		out = append(out, c.expandPattern(d.A, ov.Ident(tmp))...)
	}

	repl := ov.NewAt(ast.KindVarStmt, id)
	r := ov.Mut(repl)
	r.Text = stmt.Text
	r.List = out
	c.rec.Replace(id, repl)
}

// expandPattern produces the declarators that bind one pattern against
// a source expression (always a cheap reference, never re-evaluated
// side effects).
func (c *context) expandPattern(patternID, src ast.NodeID) []ast.NodeID {
	ov := c.ov
	pattern := c.rec.Get(patternID)
	var out []ast.NodeID

	declare := func(origin ast.NodeID, name string, value ast.NodeID) {
		d := ov.NewAt(ast.KindVarDeclarator, origin)
		b := ov.NewAt(ast.KindBindingIdent, origin)
		ov.Mut(b).Text = name
		dn := ov.Mut(d)
		dn.A = b
		dn.B = value
		out = append(out, d)
	}

	// bindValue routes a pattern element: identifiers bind directly,
	// nested patterns go through a fresh temporary.
	bindValue := func(elemID ast.NodeID, value ast.NodeID, dflt ast.NodeID) {
		if dflt != ast.InvalidNode {
			value = c.defaultedValue(value, dflt)
		}
		elem := c.rec.Get(elemID)
		if elem.Kind == ast.KindBindingIdent {
			declare(elemID, elem.Text, value)
			return
		}
		tmp := c.temp()
		declare(elemID, tmp, value)
		out = append(out, c.expandPattern(elemID, ov.Ident(tmp))...)
	}

	switch pattern.Kind {
	case ast.KindObjectPattern:
		var seen []string
		for _, propID := range pattern.List {
			prop := c.rec.Get(propID)
			if prop.Kind == ast.KindRestElement {
				c.rec.Need(HelperRest)
				rest := c.rec.Get(prop.A)
				keys := ov.New(ast.KindArrayLit)
				var keyIDs []ast.NodeID
				for _, k := range seen {
					s := ov.New(ast.KindStringLit)
					ov.Mut(s).Text = k
					keyIDs = append(keyIDs, s)
				}
				ov.Mut(keys).List = keyIDs
				declare(propID, rest.Text, ov.Call(ov.Ident("__rest"), src, keys))
				continue
			}
			seen = append(seen, prop.Text)
			value := ov.Member(src, prop.Text)
			bindValue(prop.A, value, prop.B)
		}
	case ast.KindArrayPattern:
		for i, elemID := range pattern.List {
			if elemID == ast.InvalidNode {
				continue // hole
			}
			elem := c.rec.Get(elemID)
			if elem.Kind == ast.KindRestElement {
				rest := c.rec.Get(elem.A)
				slice := ov.Call(ov.Member(src, "slice"), ov.Number(strconv.Itoa(i)))
				declare(elemID, rest.Text, slice)
				break
			}
			index := ov.New(ast.KindIndex)
			ix := ov.Mut(index)
			ix.A = src
			ix.B = ov.Number(strconv.Itoa(i))
			// Defaulted array elements arrive wrapped in a PatternProp.
			if elem.Kind == ast.KindPatternProp {
				bindValue(elem.A, index, elem.B)
			} else {
				bindValue(elemID, index, ast.InvalidNode)
			}
		}
	}
	return out
}

// defaultedValue builds value === void 0 ? dflt : value.
func (c *context) defaultedValue(value, dflt ast.NodeID) ast.NodeID {
	ov := c.ov
	test := ov.New(ast.KindBinary)
	tn := ov.Mut(test)
	tn.Text = "==="
	tn.A = value
	tn.B = ov.Raw("void 0")
	cond := ov.New(ast.KindConditional)
	cn := ov.Mut(cond)
	cn.A = test
	cn.B = dflt
	cn.C = value
	return cond
}
