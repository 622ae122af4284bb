package lowering

import (
	"strconv"

	"github.com/quenchjs/quench/internal/ast"
)

// realize turns the linearized blocks into the replacement function
// body. Async functions wrap the dispatcher in __awaiter; generators
// return the __generator iterator directly. Hoisted locals live outside
// the dispatcher closure so they survive re-entry.
func (m *machine) realize() ast.NodeID {
	ov := m.ov

	if !m.cur.done {
		m.cur.term = term{kind: termReturn, val: ast.InvalidNode}
		m.cur.done = true
	}
	m.patchTryTuples()

	dispatcher := m.buildDispatcher()
	genCall := ov.Call(ov.Ident("__generator"), ov.New(ast.KindThis), dispatcher)

	var inner []ast.NodeID
	if hoist := m.hoistDecl(); hoist != ast.InvalidNode {
		inner = append(inner, hoist)
	}
	inner = append(inner, ov.Return(genCall))

	if !m.isAsync {
		return ov.Block(inner...)
	}

	runner := m.functionExpr(nil, ov.Block(inner...))
	awaiterCall := ov.Call(ov.Ident("__awaiter"),
		ov.New(ast.KindThis), ov.Raw("void 0"), ov.Raw("void 0"), runner)
	return ov.Block(ov.Return(awaiterCall))
}

func (m *machine) hoistDecl() ast.NodeID {
	if len(m.hoisted) == 0 {
		return ast.InvalidNode
	}
	ov := m.ov
	decls := make([]ast.NodeID, len(m.hoisted))
	for i, name := range m.hoisted {
		b := ov.New(ast.KindBindingIdent)
		ov.Mut(b).Text = name
		d := ov.New(ast.KindVarDeclarator)
		dn := ov.Mut(d)
		dn.A = b
		dn.B = ast.InvalidNode
		decls[i] = d
	}
	v := ov.New(ast.KindVarStmt)
	vn := ov.Mut(v)
	vn.Text = "var"
	vn.List = decls
	return v
}

func (m *machine) functionExpr(paramNames []string, body ast.NodeID) ast.NodeID {
	ov := m.ov
	params := make([]ast.NodeID, len(paramNames))
	for i, name := range paramNames {
		b := ov.New(ast.KindBindingIdent)
		ov.Mut(b).Text = name
		p := ov.New(ast.KindParam)
		pn := ov.Mut(p)
		pn.A = b
		pn.B = ast.InvalidNode
		params[i] = p
	}
	f := ov.New(ast.KindFunctionExpr)
	fn := ov.Mut(f)
	fn.List = params
	fn.A = body
	return f
}

func (m *machine) buildDispatcher() ast.NodeID {
	ov := m.ov
	cases := make([]ast.NodeID, 0, len(m.blocks))
	for idx, b := range m.blocks {
		stmts := append([]ast.NodeID(nil), b.stmts...)
		stmts = append(stmts, m.terminatorStmts(idx, b.term)...)
		cs := ov.New(ast.KindSwitchCase)
		cn := ov.Mut(cs)
		cn.A = ov.Number(strconv.Itoa(idx))
		cn.List = stmts
		cases = append(cases, cs)
	}

	sw := ov.New(ast.KindSwitch)
	sn := ov.Mut(sw)
	sn.A = m.stateMember("label")
	sn.List = cases

	return m.functionExpr([]string{m.state}, ov.Block(sw))
}

// genOp builds the [opcode /*name*/, value] tuple the trampoline
// dispatches on.
func (m *machine) genOp(op int, name string, value ast.NodeID) ast.NodeID {
	ov := m.ov
	g := ov.New(ast.KindGenOp)
	gn := ov.Mut(g)
	gn.Text = name
	gn.List = []ast.NodeID{ov.Number(strconv.Itoa(op))}
	if value != ast.InvalidNode {
		gn.List = append(gn.List, value)
	}
	return g
}

func (m *machine) opReturn(op int, name string, value ast.NodeID) ast.NodeID {
	return m.ov.Return(m.genOp(op, name, value))
}

// setLabel emits <state>.label = N ahead of a switch fallthrough so the
// trampoline's protected-region bookkeeping stays consistent.
func (m *machine) setLabel(to int) ast.NodeID {
	ov := m.ov
	return ov.ExprStmt(ov.Assign(m.stateMember("label"), ov.Number(strconv.Itoa(to))))
}

func (m *machine) target(l labelRef) int {
	if l < 0 || int(l) >= len(m.targets) || m.targets[l] < 0 {
		return 0
	}
	return m.targets[l]
}

func (m *machine) jumpStmt(to int) ast.NodeID {
	return m.opReturn(3, "break", m.ov.Number(strconv.Itoa(to)))
}

func (m *machine) terminatorStmts(idx int, t term) []ast.NodeID {
	ov := m.ov
	switch t.kind {
	case termNone:
		to := m.target(t.to)
		if to == idx+1 {
			return []ast.NodeID{m.setLabel(to)}
		}
		return []ast.NodeID{m.jumpStmt(to)}

	case termJump:
		return []ast.NodeID{m.jumpStmt(m.target(t.to))}

	case termCond:
		to := m.target(t.to)
		alt := m.target(t.alt)
		if to != idx+1 && alt == idx+1 {
			// if (cond) jump to; fall into alt
			ifStmt := ov.New(ast.KindIf)
			in := ov.Mut(ifStmt)
			in.A = t.cond
			in.B = m.jumpStmt(to)
			in.C = ast.InvalidNode
			return []ast.NodeID{ifStmt, m.setLabel(alt)}
		}
		// if (!(cond)) jump alt; then continue to to
		neg := ov.New(ast.KindUnary)
		nn := ov.Mut(neg)
		nn.Text = "!"
		paren := ov.New(ast.KindParen)
		ov.Mut(paren).A = t.cond
		nn.A = paren
		ifStmt := ov.New(ast.KindIf)
		in := ov.Mut(ifStmt)
		in.A = neg
		in.B = m.jumpStmt(alt)
		in.C = ast.InvalidNode
		out := []ast.NodeID{ifStmt}
		if to == idx+1 {
			out = append(out, m.setLabel(to))
		} else {
			out = append(out, m.jumpStmt(to))
		}
		return out

	case termYield:
		return []ast.NodeID{m.opReturn(4, "yield", t.val)}

	case termDelegate:
		return []ast.NodeID{m.opReturn(5, "yield*", t.val)}

	case termReturn:
		return []ast.NodeID{m.opReturn(2, "return", t.val)}

	case termEndFinally:
		return []ast.NodeID{m.opReturn(7, "endfinally", ast.InvalidNode)}

	case termHalt:
		return nil
	}
	return nil
}

// patchTryTuples fills each recorded trys.push tuple with the final
// block numbers, leaving holes where a region has no catch or finally.
func (m *machine) patchTryTuples() {
	ov := m.ov
	for _, p := range m.patches {
		elems := make([]ast.NodeID, 4)
		elems[0] = ov.Number(strconv.Itoa(m.target(p.try)))
		if p.catch >= 0 {
			elems[1] = ov.Number(strconv.Itoa(m.target(p.catch)))
		} else {
			elems[1] = ast.InvalidNode
		}
		if p.finally >= 0 {
			elems[2] = ov.Number(strconv.Itoa(m.target(p.finally)))
		} else {
			elems[2] = ast.InvalidNode
		}
		elems[3] = ov.Number(strconv.Itoa(m.target(p.end)))
		ov.Mut(p.arrayLit).List = elems
	}
}
