package lowering

import (
	"strconv"

	"github.com/quenchjs/quench/internal/ast"
)

// lowerAsyncAndGenerators rewrites every async function and generator
// into the __awaiter/__generator trampoline protocol. Each function
// body is linearized into labeled basic blocks with explicit jumps,
// awaits and yields become opcode returns, and locals hoist out of the
// re-entrant dispatcher closure.
func (c *context) lowerAsyncAndGenerators() {
	c.visit(c.arena.Root(), func(id ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr:
			isAsync := n.Flags&ast.FlagAsync != 0
			isGen := n.Flags&ast.FlagGenerator != 0
			if isAsync && isGen {
				c.rec.MarkUnsupported(id, "async generator function")
				return true
			}
			if isAsync || isGen {
				c.rewriteSuspendable(id, n, isAsync)
			}
		}
		return true
	})
}

func (c *context) rewriteSuspendable(id ast.NodeID, fn *ast.Node, isAsync bool) {
	m := newMachine(c, isAsync)
	body := c.rec.Get(fn.A)
	if body == nil || body.Kind != ast.KindBlock {
		return
	}
	m.processStmts(body.List)
	if m.failed != "" {
		c.rec.MarkUnsupported(id, m.failed)
		return
	}

	if isAsync {
		c.rec.Need(HelperAwaiter)
	}
	c.rec.Need(HelperGenerator)

	newBody := m.realize()
	repl := c.ov.NewAt(fn.Kind, id)
	r := c.ov.Mut(repl)
	r.Text = fn.Text
	r.List = fn.List
	r.A = newBody
	c.rec.Replace(id, repl)
}

// labelRef is a forward-patchable block target.
type labelRef int

type frameKind uint8

const (
	frameLoop frameKind = iota
	frameSwitch
)

type frame struct {
	kind      frameKind
	name      string // statement label, if any
	breakL    labelRef
	continueL labelRef // loops only
}

type term struct {
	kind termKind
	to   labelRef   // jump / fallthrough / yield resume
	alt  labelRef   // cond: else target
	cond ast.NodeID // cond terminator test
	val  ast.NodeID // yield operand / return value
}

type termKind uint8

const (
	termNone termKind = iota // fall through to to
	termJump                 // return [3, to]
	termCond                 // if (!(cond)) goto alt; fall to to
	termYield                // return [4, val]; resume at next block
	termDelegate             // return [5, val]; resume at next block
	termReturn               // return [2, val?]
	termEndFinally           // return [7]
	termHalt                 // control never leaves (throw)
)

type mblock struct {
	stmts []ast.NodeID
	term  term
	done  bool
}

// tryPatch fills a trys.push tuple with final label numbers during
// realization.
type tryPatch struct {
	arrayLit ast.NodeID
	try      labelRef
	catch    labelRef // -1 when absent
	finally  labelRef // -1 when absent
	end      labelRef
}

// machine linearizes one function body. Blocks are appended in emission
// order; the final label of a block is its position in the slice, which
// keeps every yield's resume point at label+1 as the trampoline
// requires.
type machine struct {
	c       *context
	ov      *ast.Overlay
	isAsync bool
	state   string // dispatcher state parameter name

	blocks  []*mblock
	cur     *mblock
	targets []int // labelRef -> block index

	hoisted  []string
	hoistSet map[string]bool
	frames   []frame
	patches  []tryPatch

	failed string
}

func newMachine(c *context, isAsync bool) *machine {
	m := &machine{
		c:        c,
		ov:       c.ov,
		isAsync:  isAsync,
		state:    c.temp(),
		hoistSet: make(map[string]bool),
	}
	m.cur = &mblock{}
	m.blocks = append(m.blocks, m.cur)
	return m
}

func (m *machine) fail(id ast.NodeID, msg string) {
	if m.failed == "" {
		m.failed = msg
	}
}

func (m *machine) get(id ast.NodeID) *ast.Node { return m.c.rec.Get(id) }

func (m *machine) hoist(name string) {
	if !m.hoistSet[name] {
		m.hoistSet[name] = true
		m.hoisted = append(m.hoisted, name)
	}
}

func (m *machine) temp() string {
	t := m.c.temp()
	m.hoist(t)
	return t
}

// newLabel allocates an unresolved target.
func (m *machine) newLabel() labelRef {
	m.targets = append(m.targets, -1)
	return labelRef(len(m.targets) - 1)
}

// mark binds a label to the current position, starting a new block
// unless the current one is still empty and unbound.
func (m *machine) mark(l labelRef) {
	if len(m.cur.stmts) == 0 && !m.cur.done && !m.anyLabelAt(len(m.blocks)-1) {
		m.targets[l] = len(m.blocks) - 1
		return
	}
	if !m.cur.done {
		next := m.newLabel()
		m.targets[next] = len(m.blocks)
		m.cur.term = term{kind: termNone, to: next}
		m.cur.done = true
	}
	m.startBlock()
	m.targets[l] = len(m.blocks) - 1
}

func (m *machine) anyLabelAt(idx int) bool {
	for _, t := range m.targets {
		if t == idx {
			return true
		}
	}
	return false
}

func (m *machine) startBlock() {
	m.cur = &mblock{}
	m.blocks = append(m.blocks, m.cur)
}

func (m *machine) emit(stmt ast.NodeID) {
	if m.cur.done {
		// Unreachable statement after a terminator; keep output valid
		// by opening a fresh (never-targeted) block.
		m.startBlock()
	}
	m.cur.stmts = append(m.cur.stmts, stmt)
}

func (m *machine) terminate(t term) {
	if m.cur.done {
		m.startBlock()
	}
	m.cur.term = t
	m.cur.done = true
}

// jumpTo ends the current block with a jump unless it already ended.
func (m *machine) jumpTo(l labelRef) {
	if !m.cur.done {
		m.terminate(term{kind: termJump, to: l})
	}
}

// stateExpr builds <state>.<member> access.
func (m *machine) stateMember(member string) ast.NodeID {
	return m.ov.Member(m.ov.Ident(m.state), member)
}

// sentCall builds <state>.sent().
func (m *machine) sentCall() ast.NodeID {
	return m.ov.Call(m.stateMember("sent"))
}

// --- statement linearization ------------------------------------------------

func (m *machine) processStmts(stmts []ast.NodeID) {
	for _, s := range stmts {
		if m.failed != "" {
			return
		}
		m.processStmt(s)
	}
}

func (m *machine) processStmt(id ast.NodeID) {
	n := m.get(id)
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindBlock:
		m.processStmts(n.List)
	case ast.KindVarStmt:
		m.processVar(n)
	case ast.KindExprStmt:
		m.processExprStmt(n)
	case ast.KindReturn:
		var v ast.NodeID = ast.InvalidNode
		if n.A != ast.InvalidNode {
			v = m.splitExpr(n.A)
		}
		m.terminate(term{kind: termReturn, val: v})
	case ast.KindThrow:
		v := m.splitExpr(n.A)
		throw := m.ov.NewAt(ast.KindThrow, id)
		m.ov.Mut(throw).A = v
		m.emit(throw)
		m.terminate(term{kind: termHalt})
	case ast.KindIf:
		m.processIf(id, n)
	case ast.KindWhile:
		m.processWhile(id, n, "")
	case ast.KindDoWhile:
		m.processDoWhile(id, n, "")
	case ast.KindFor:
		m.processFor(id, n, "")
	case ast.KindForIn:
		m.processForIn(id, n, "")
	case ast.KindForOf:
		// Lowered earlier; nothing should reach here.
		m.fail(id, "for-of survived earlier lowering")
	case ast.KindSwitch:
		m.processSwitch(id, n, "")
	case ast.KindTry:
		m.processTry(id, n)
	case ast.KindBreak:
		m.processBreak(id, n)
	case ast.KindContinue:
		m.processContinue(id, n)
	case ast.KindLabeled:
		m.processLabeled(id, n)
	case ast.KindEmptyStmt, ast.KindDebuggerStmt:
		if n.Kind == ast.KindDebuggerStmt {
			m.emit(id)
		}
	case ast.KindFunctionDecl:
		// Nested function declarations hoist whole; they have their own
		// machine if they suspend.
		m.emit(id)
	default:
		m.emit(id)
	}
}

func (m *machine) processVar(n *ast.Node) {
	for _, declID := range n.List {
		d := m.get(declID)
		b := m.get(d.A)
		if b == nil || b.Kind != ast.KindBindingIdent {
			m.fail(declID, "binding pattern survived earlier lowering")
			return
		}
		m.hoist(b.Text)
		if d.B == ast.InvalidNode {
			continue
		}
		value := m.splitExpr(d.B)
		m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.IdentAt(b.Text, d.A), value)))
	}
}

func (m *machine) processExprStmt(n *ast.Node) {
	expr := m.get(n.A)
	// A bare await/yield statement needs no result temporary.
	if expr != nil && (expr.Kind == ast.KindAwait || expr.Kind == ast.KindYield) {
		kind := termYield
		if expr.Kind == ast.KindYield && expr.Flags&ast.FlagDelegate != 0 {
			kind = termDelegate
		}
		var operand ast.NodeID
		if expr.A != ast.InvalidNode {
			operand = m.splitOperandForSuspend(expr.A, kind)
		} else {
			operand = m.ov.Raw("void 0")
		}
		m.terminate(term{kind: kind, val: operand})
		m.startBlock()
		m.emit(m.ov.ExprStmt(m.sentCall()))
		return
	}
	v := m.splitExpr(n.A)
	m.emit(m.ov.ExprStmt(v))
}

func (m *machine) processIf(id ast.NodeID, n *ast.Node) {
	cond := m.splitExpr(n.A)
	thenL := m.newLabel()
	elseL := m.newLabel()
	endL := m.newLabel()
	m.terminate(term{kind: termCond, cond: cond, to: thenL, alt: elseL})
	m.startBlock()
	m.mark(thenL)
	m.processStmt(n.B)
	m.jumpTo(endL)
	m.mark(elseL)
	if n.C != ast.InvalidNode {
		m.processStmt(n.C)
	}
	m.jumpTo(endL)
	m.mark(endL)
}

func (m *machine) pushLoop(name string, breakL, continueL labelRef) {
	m.frames = append(m.frames, frame{kind: frameLoop, name: name, breakL: breakL, continueL: continueL})
}

func (m *machine) popFrame() { m.frames = m.frames[:len(m.frames)-1] }

func (m *machine) processWhile(id ast.NodeID, n *ast.Node, label string) {
	headL := m.newLabel()
	bodyL := m.newLabel()
	endL := m.newLabel()
	m.jumpToOrFall(headL)
	m.mark(headL)
	cond := m.splitExpr(n.A)
	m.terminate(term{kind: termCond, cond: cond, to: bodyL, alt: endL})
	m.startBlock()
	m.mark(bodyL)
	m.pushLoop(label, endL, headL)
	m.processStmt(n.B)
	m.popFrame()
	m.jumpTo(headL)
	m.mark(endL)
}

func (m *machine) processDoWhile(id ast.NodeID, n *ast.Node, label string) {
	bodyL := m.newLabel()
	condL := m.newLabel()
	endL := m.newLabel()
	m.jumpToOrFall(bodyL)
	m.mark(bodyL)
	m.pushLoop(label, endL, condL)
	m.processStmt(n.B)
	m.popFrame()
	m.jumpTo(condL)
	m.mark(condL)
	cond := m.splitExpr(n.A)
	m.terminate(term{kind: termCond, cond: cond, to: bodyL, alt: endL})
	m.startBlock()
	m.mark(endL)
}

func (m *machine) processFor(id ast.NodeID, n *ast.Node, label string) {
	if n.A != ast.InvalidNode {
		m.processStmt(n.A)
	}
	headL := m.newLabel()
	bodyL := m.newLabel()
	contL := m.newLabel()
	endL := m.newLabel()
	m.jumpToOrFall(headL)
	m.mark(headL)
	if n.B != ast.InvalidNode {
		cond := m.splitExpr(n.B)
		m.terminate(term{kind: termCond, cond: cond, to: bodyL, alt: endL})
		m.startBlock()
	}
	m.mark(bodyL)
	m.pushLoop(label, endL, contL)
	m.processStmt(n.D)
	m.popFrame()
	m.jumpTo(contL)
	m.mark(contL)
	if n.C != ast.InvalidNode {
		update := m.splitExpr(n.C)
		m.emit(m.ov.ExprStmt(update))
	}
	m.jumpTo(headL)
	m.mark(endL)
}

// processForIn snapshots the keys first, then runs an indexed loop over
// the snapshot so the body can suspend.
func (m *machine) processForIn(id ast.NodeID, n *ast.Node, label string) {
	keys := m.temp()
	iter := m.temp()
	obj := m.splitExpr(n.B)

	// keys = []; for (iterTmp in obj) keys.push(iterTmp);
	m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.Ident(keys), m.ov.New(ast.KindArrayLit))))
	keyVar := m.temp()
	snapshot := m.ov.New(ast.KindForIn)
	push := m.ov.ExprStmt(m.ov.Call(m.ov.Member(m.ov.Ident(keys), "push"), m.ov.Ident(keyVar)))
	sn := m.ov.Mut(snapshot)
	sn.A = m.ov.ExprStmt(m.ov.Ident(keyVar))
	sn.B = obj
	sn.C = push
	m.emit(snapshot)

	// iter = 0; loop over keys.
	m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.Ident(iter), m.ov.Number("0"))))
	headL := m.newLabel()
	bodyL := m.newLabel()
	contL := m.newLabel()
	endL := m.newLabel()
	m.jumpToOrFall(headL)
	m.mark(headL)
	cond := m.ov.New(ast.KindBinary)
	cn := m.ov.Mut(cond)
	cn.Text = "<"
	cn.A = m.ov.Ident(iter)
	cn.B = m.ov.Member(m.ov.Ident(keys), "length")
	m.terminate(term{kind: termCond, cond: cond, to: bodyL, alt: endL})
	m.startBlock()
	m.mark(bodyL)

	element := m.ov.New(ast.KindIndex)
	en := m.ov.Mut(element)
	en.A = m.ov.Ident(keys)
	en.B = m.ov.Ident(iter)
	left := m.get(n.A)
	switch {
	case left != nil && left.Kind == ast.KindVarStmt && len(left.List) == 1:
		d := m.get(left.List[0])
		b := m.get(d.A)
		if b == nil || b.Kind != ast.KindBindingIdent {
			m.fail(id, "destructuring for-in binding")
			return
		}
		m.hoist(b.Text)
		m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.IdentAt(b.Text, d.A), element)))
	case left != nil && left.Kind == ast.KindExprStmt:
		m.emit(m.ov.ExprStmt(m.ov.Assign(left.A, element)))
	default:
		m.fail(id, "unsupported for-in target")
		return
	}

	m.pushLoop(label, endL, contL)
	m.processStmt(n.C)
	m.popFrame()
	m.jumpTo(contL)
	m.mark(contL)
	inc := m.ov.New(ast.KindUpdate)
	un := m.ov.Mut(inc)
	un.Text = "++"
	un.A = m.ov.Ident(iter)
	m.emit(m.ov.ExprStmt(inc))
	m.jumpTo(headL)
	m.mark(endL)
}

func (m *machine) processSwitch(id ast.NodeID, n *ast.Node, label string) {
	disc := m.splitExpr(n.A)
	discTmp := m.temp()
	m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.Ident(discTmp), disc)))

	endL := m.newLabel()
	caseLabels := make([]labelRef, len(n.List))
	defaultIdx := -1

	// Test chain first, preserving case-test evaluation order.
	for i, caseID := range n.List {
		caseLabels[i] = m.newLabel()
		cs := m.get(caseID)
		if cs.A == ast.InvalidNode {
			defaultIdx = i
			continue
		}
		test := m.splitExpr(cs.A)
		eq := m.ov.New(ast.KindBinary)
		en := m.ov.Mut(eq)
		en.Text = "==="
		en.A = m.ov.Ident(discTmp)
		en.B = test
		nextTest := m.newLabel()
		m.terminate(term{kind: termCond, cond: eq, to: caseLabels[i], alt: nextTest})
		m.startBlock()
		// termCond falls to its "to" label only through a jump during
		// realization, so bind the chain continuation here.
		m.mark(nextTest)
	}
	if defaultIdx >= 0 {
		m.jumpTo(caseLabels[defaultIdx])
	} else {
		m.jumpTo(endL)
	}

	m.frames = append(m.frames, frame{kind: frameSwitch, name: label, breakL: endL})
	for i, caseID := range n.List {
		m.mark(caseLabels[i])
		cs := m.get(caseID)
		m.processStmts(cs.List)
		// fall through to the next case body
	}
	m.popFrame()
	m.jumpTo(endL)
	m.mark(endL)
}

func (m *machine) processTry(id ast.NodeID, n *ast.Node) {
	tryL := m.newLabel()
	endL := m.newLabel()
	catchL := labelRef(-1)
	finallyL := labelRef(-1)
	if n.B != ast.InvalidNode {
		catchL = m.newLabel()
	}
	if n.C != ast.InvalidNode {
		finallyL = m.newLabel()
	}

	m.jumpToOrFall(tryL)
	m.mark(tryL)

	// <state>.trys.push([try, catch, finally, end]) with labels patched
	// at realization time.
	tuple := m.ov.New(ast.KindArrayLit)
	m.patches = append(m.patches, tryPatch{
		arrayLit: tuple,
		try:      tryL,
		catch:    catchL,
		finally:  finallyL,
		end:      endL,
	})
	push := m.ov.Call(m.ov.Member(m.stateMember("trys"), "push"), tuple)
	m.emit(m.ov.ExprStmt(push))

	m.processStmt(n.A)
	m.jumpTo(endL) // the trampoline routes this through finally

	if catchL >= 0 {
		m.mark(catchL)
		clause := m.get(n.B)
		if clause.A != ast.InvalidNode {
			b := m.get(clause.A)
			renamed := b.Text + "_" + strconv.Itoa(len(m.hoisted)+1)
			m.hoist(renamed)
			m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.IdentAt(renamed, clause.A), m.sentCall())))
			m.renameIdent(clause.B, b.Text, renamed)
		} else {
			m.emit(m.ov.ExprStmt(m.sentCall()))
		}
		m.processStmt(clause.B)
		m.jumpTo(endL)
	}

	if finallyL >= 0 {
		m.mark(finallyL)
		m.processStmt(n.C)
		m.terminate(term{kind: termEndFinally})
		m.startBlock()
	}

	m.mark(endL)
}

func (m *machine) processBreak(id ast.NodeID, n *ast.Node) {
	for i := len(m.frames) - 1; i >= 0; i-- {
		f := m.frames[i]
		if n.Text == "" || f.name == n.Text {
			m.terminate(term{kind: termJump, to: f.breakL})
			return
		}
	}
	// No frame: the break targets a loop outside the rewrite (cannot
	// happen in a valid program) or a plain statement label.
	m.fail(id, "break target not found in lowered region")
}

func (m *machine) processContinue(id ast.NodeID, n *ast.Node) {
	for i := len(m.frames) - 1; i >= 0; i-- {
		f := m.frames[i]
		if f.kind != frameLoop {
			continue
		}
		if n.Text == "" || f.name == n.Text {
			m.terminate(term{kind: termJump, to: f.continueL})
			return
		}
	}
	m.fail(id, "continue target not found in lowered region")
}

func (m *machine) processLabeled(id ast.NodeID, n *ast.Node) {
	inner := m.get(n.A)
	if inner == nil {
		return
	}
	switch inner.Kind {
	case ast.KindWhile:
		m.processWhile(n.A, inner, n.Text)
	case ast.KindDoWhile:
		m.processDoWhile(n.A, inner, n.Text)
	case ast.KindFor:
		m.processFor(n.A, inner, n.Text)
	case ast.KindForIn:
		m.processForIn(n.A, inner, n.Text)
	case ast.KindSwitch:
		m.processSwitch(n.A, inner, n.Text)
	default:
		// A label on a non-loop statement: treat break label as a jump
		// past the statement.
		endL := m.newLabel()
		m.frames = append(m.frames, frame{kind: frameSwitch, name: n.Text, breakL: endL})
		m.processStmt(n.A)
		m.popFrame()
		m.jumpTo(endL)
		m.mark(endL)
	}
}

// jumpToOrFall closes the current block toward l, preferring natural
// fallthrough when the block is still open.
func (m *machine) jumpToOrFall(l labelRef) {
	if !m.cur.done {
		m.terminate(term{kind: termNone, to: l})
	}
}

// renameIdent rewrites identifier uses of from to to below root.
func (m *machine) renameIdent(root ast.NodeID, from, to string) {
	m.c.visit(root, func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == ast.KindIdent && n.Text == from {
			m.c.rec.Replace(id, m.ov.IdentAt(to, id))
		}
		return true
	})
}

// --- expression splitting ----------------------------------------------------

// containsSuspension reports whether an await or yield occurs below id
// without crossing a nested function boundary.
func (m *machine) containsSuspension(id ast.NodeID) bool {
	found := false
	m.c.visit(id, func(_ ast.NodeID, n *ast.Node) bool {
		if found {
			return false
		}
		switch n.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr, ast.KindArrow:
			return false
		case ast.KindAwait, ast.KindYield:
			found = true
			return false
		}
		return true
	})
	return found
}

// trivial reports whether re-reading the expression later cannot observe
// a different value or side effect ordering.
func (m *machine) trivial(id ast.NodeID) bool {
	n := m.get(id)
	if n == nil {
		return true
	}
	switch n.Kind {
	case ast.KindIdent, ast.KindNumberLit, ast.KindStringLit, ast.KindBoolLit,
		ast.KindNullLit, ast.KindThis, ast.KindRaw:
		return true
	}
	return false
}

// stash moves a computed value into a hoisted temporary and returns the
// reference, preserving evaluation order across a later suspension.
func (m *machine) stash(expr ast.NodeID) ast.NodeID {
	if m.trivial(expr) {
		return expr
	}
	t := m.temp()
	m.emit(m.ov.ExprStmt(m.ov.Assign(m.ov.Ident(t), expr)))
	return m.ov.Ident(t)
}

// splitOperandForSuspend evaluates the operand of an await/yield. A
// yield* whose operand itself suspends stays unsupported.
func (m *machine) splitOperandForSuspend(id ast.NodeID, kind termKind) ast.NodeID {
	if kind == termDelegate && m.containsSuspension(id) {
		m.fail(id, "yield* delegation with a suspending operand")
		return id
	}
	return m.splitExpr(id)
}

// splitExpr returns an expression equivalent to id in which every
// suspension point has been executed, emitting the interleaved
// statements and yield terminators along the way.
func (m *machine) splitExpr(id ast.NodeID) ast.NodeID {
	if !m.containsSuspension(id) {
		return id
	}
	ov := m.ov
	n := m.get(id)
	switch n.Kind {
	case ast.KindAwait, ast.KindYield:
		kind := termYield
		if n.Kind == ast.KindYield && n.Flags&ast.FlagDelegate != 0 {
			kind = termDelegate
		}
		var operand ast.NodeID
		if n.A != ast.InvalidNode {
			operand = m.splitOperandForSuspend(n.A, kind)
		} else {
			operand = ov.Raw("void 0")
		}
		m.terminate(term{kind: kind, val: operand})
		m.startBlock()
		t := m.temp()
		m.emit(ov.ExprStmt(ov.Assign(ov.Ident(t), m.sentCall())))
		return ov.IdentAt(t, id)

	case ast.KindParen:
		inner := m.splitExpr(n.A)
		p := ov.NewAt(ast.KindParen, id)
		ov.Mut(p).A = inner
		return p

	case ast.KindUnary:
		operand := m.splitExpr(n.A)
		u := ov.NewAt(ast.KindUnary, id)
		un := ov.Mut(u)
		un.Text = n.Text
		un.A = operand
		return u

	case ast.KindBinary:
		left := m.splitExpr(n.A)
		if m.containsSuspension(n.B) {
			left = m.stash(left)
		}
		right := m.splitExpr(n.B)
		b := ov.NewAt(ast.KindBinary, id)
		bn := ov.Mut(b)
		bn.Text = n.Text
		bn.A = left
		bn.B = right
		return b

	case ast.KindLogical:
		return m.splitLogical(id, n)

	case ast.KindConditional:
		return m.splitConditional(id, n)

	case ast.KindCall:
		return m.splitCall(id, n)

	case ast.KindNew:
		callee := m.splitExpr(n.A)
		if m.anySuspends(n.List) {
			callee = m.stash(callee)
		}
		args := m.splitList(n.List)
		nn := ov.NewAt(ast.KindNew, id)
		node := ov.Mut(nn)
		node.A = callee
		node.List = args
		return nn

	case ast.KindMember:
		obj := m.splitExpr(n.A)
		return ov.Member(obj, n.Text)

	case ast.KindIndex:
		obj := m.splitExpr(n.A)
		if m.containsSuspension(n.B) {
			obj = m.stash(obj)
		}
		idx := m.splitExpr(n.B)
		x := ov.NewAt(ast.KindIndex, id)
		xn := ov.Mut(x)
		xn.A = obj
		xn.B = idx
		return x

	case ast.KindArrayLit:
		elems := m.splitList(n.List)
		a := ov.NewAt(ast.KindArrayLit, id)
		ov.Mut(a).List = elems
		return a

	case ast.KindObjectLit:
		return m.splitObject(id, n)

	case ast.KindAssign:
		return m.splitAssign(id, n)

	case ast.KindComma:
		var last ast.NodeID
		for i, e := range n.List {
			v := m.splitExpr(e)
			if i == len(n.List)-1 {
				last = v
			} else {
				m.emit(ov.ExprStmt(v))
			}
		}
		return last

	case ast.KindUpdate:
		// ++x with a suspension below the operand is not expressible.
		m.fail(id, "update expression with suspending operand")
		return id
	}
	m.fail(id, "suspension in unsupported expression position")
	return id
}

func (m *machine) anySuspends(ids []ast.NodeID) bool {
	for _, e := range ids {
		if e != ast.InvalidNode && m.containsSuspension(e) {
			return true
		}
	}
	return false
}

// splitList evaluates an argument/element list left to right, stashing
// everything computed before a later suspension.
func (m *machine) splitList(ids []ast.NodeID) []ast.NodeID {
	lastSusp := -1
	for i, e := range ids {
		if e != ast.InvalidNode && m.containsSuspension(e) {
			lastSusp = i
		}
	}
	out := make([]ast.NodeID, len(ids))
	for i, e := range ids {
		if e == ast.InvalidNode {
			out[i] = e
			continue
		}
		v := m.splitExpr(e)
		if i < lastSusp {
			v = m.stash(v)
		}
		out[i] = v
	}
	return out
}

// splitLogical lowers a && b, a || b, a ?? b with a suspending right
// side into branch blocks writing a shared temporary.
func (m *machine) splitLogical(id ast.NodeID, n *ast.Node) ast.NodeID {
	ov := m.ov
	left := m.splitExpr(n.A)
	if !m.containsSuspension(n.B) {
		l := ov.NewAt(ast.KindLogical, id)
		ln := ov.Mut(l)
		ln.Text = n.Text
		ln.A = left
		ln.B = n.B
		return l
	}

	t := m.temp()
	m.emit(ov.ExprStmt(ov.Assign(ov.Ident(t), left)))

	var cond ast.NodeID
	switch n.Text {
	case "&&":
		cond = ov.Ident(t)
	case "||":
		u := ov.New(ast.KindUnary)
		un := ov.Mut(u)
		un.Text = "!"
		un.A = ov.Ident(t)
		cond = u
	default: // ??
		eq := ov.New(ast.KindBinary)
		en := ov.Mut(eq)
		en.Text = "=="
		en.A = ov.Ident(t)
		en.B = ov.New(ast.KindNullLit)
		cond = eq
	}

	rightL := m.newLabel()
	endL := m.newLabel()
	m.terminate(term{kind: termCond, cond: cond, to: rightL, alt: endL})
	m.startBlock()
	m.mark(rightL)
	right := m.splitExpr(n.B)
	m.emit(ov.ExprStmt(ov.Assign(ov.Ident(t), right)))
	m.jumpTo(endL)
	m.mark(endL)
	return ov.IdentAt(t, id)
}

func (m *machine) splitConditional(id ast.NodeID, n *ast.Node) ast.NodeID {
	ov := m.ov
	cond := m.splitExpr(n.A)
	if !m.containsSuspension(n.B) && !m.containsSuspension(n.C) {
		c := ov.NewAt(ast.KindConditional, id)
		cn := ov.Mut(c)
		cn.A = cond
		cn.B = n.B
		cn.C = n.C
		return c
	}
	t := m.temp()
	thenL := m.newLabel()
	elseL := m.newLabel()
	endL := m.newLabel()
	m.terminate(term{kind: termCond, cond: cond, to: thenL, alt: elseL})
	m.startBlock()
	m.mark(thenL)
	thenV := m.splitExpr(n.B)
	m.emit(ov.ExprStmt(ov.Assign(ov.Ident(t), thenV)))
	m.jumpTo(endL)
	m.mark(elseL)
	elseV := m.splitExpr(n.C)
	m.emit(ov.ExprStmt(ov.Assign(ov.Ident(t), elseV)))
	m.jumpTo(endL)
	m.mark(endL)
	return ov.IdentAt(t, id)
}

// splitCall keeps the receiver binding of method calls across
// suspensions: o.m(await x) evaluates o and o.m before x, then applies
// with the stashed receiver.
func (m *machine) splitCall(id ast.NodeID, n *ast.Node) ast.NodeID {
	ov := m.ov
	callee := m.get(n.A)
	argsSuspend := m.anySuspends(n.List)

	if !argsSuspend {
		c := ov.NewAt(ast.KindCall, id)
		cn := ov.Mut(c)
		cn.A = m.splitExpr(n.A)
		cn.List = n.List
		return c
	}

	switch callee.Kind {
	case ast.KindMember, ast.KindIndex:
		obj := m.stash(m.splitExpr(callee.A))
		var fnRef ast.NodeID
		if callee.Kind == ast.KindMember {
			fnRef = ov.Member(obj, callee.Text)
		} else {
			keyExpr := m.splitExpr(callee.B)
			if m.anySuspends(n.List) {
				keyExpr = m.stash(keyExpr)
			}
			x := ov.New(ast.KindIndex)
			xn := ov.Mut(x)
			xn.A = obj
			xn.B = keyExpr
			fnRef = x
		}
		fn := m.stash(fnRef)
		args := m.splitList(n.List)
		callArgs := append([]ast.NodeID{obj}, args...)
		return ov.Call(ov.Member(fn, "call"), callArgs...)
	case ast.KindIdent, ast.KindRaw:
		args := m.splitList(n.List)
		c := ov.NewAt(ast.KindCall, id)
		cn := ov.Mut(c)
		cn.A = n.A
		cn.List = args
		return c
	default:
		fn := m.stash(m.splitExpr(n.A))
		args := m.splitList(n.List)
		c := ov.NewAt(ast.KindCall, id)
		cn := ov.Mut(c)
		cn.A = fn
		cn.List = args
		return c
	}
}

func (m *machine) splitObject(id ast.NodeID, n *ast.Node) ast.NodeID {
	ov := m.ov
	lastSusp := -1
	for i, propID := range n.List {
		p := m.get(propID)
		if p.B != ast.InvalidNode && m.containsSuspension(p.B) {
			lastSusp = i
		}
	}
	props := make([]ast.NodeID, len(n.List))
	for i, propID := range n.List {
		p := m.get(propID)
		if p.Kind != ast.KindProperty || p.B == ast.InvalidNode {
			props[i] = propID
			continue
		}
		v := m.splitExpr(p.B)
		if i < lastSusp {
			v = m.stash(v)
		}
		np := ov.NewAt(ast.KindProperty, propID)
		pn := ov.Mut(np)
		pn.Text = p.Text
		pn.Flags = p.Flags
		pn.A = p.A
		pn.B = v
		props[i] = np
	}
	o := ov.NewAt(ast.KindObjectLit, id)
	ov.Mut(o).List = props
	return o
}

// splitAssign keeps target sub-expressions evaluated before a
// suspending right side, expanding compound operators so the old value
// is read at the right time.
func (m *machine) splitAssign(id ast.NodeID, n *ast.Node) ast.NodeID {
	ov := m.ov
	target := m.get(n.A)
	if !m.containsSuspension(n.B) {
		// Suspension is inside the target (index expression etc).
		a := ov.NewAt(ast.KindAssign, id)
		an := ov.Mut(a)
		an.Text = n.Text
		an.A = m.splitExpr(n.A)
		an.B = n.B
		return a
	}

	binOp := ""
	if n.Text != "=" {
		binOp = n.Text[:len(n.Text)-1]
	}

	var writeTarget ast.NodeID
	var oldValue ast.NodeID
	switch target.Kind {
	case ast.KindIdent:
		writeTarget = n.A
		if binOp != "" {
			oldValue = m.stash(ov.IdentAt(target.Text, n.A))
		}
	case ast.KindMember:
		obj := m.stash(m.splitExpr(target.A))
		writeTarget = ov.Member(obj, target.Text)
		if binOp != "" {
			oldValue = m.stash(ov.Member(obj, target.Text))
		}
	case ast.KindIndex:
		obj := m.stash(m.splitExpr(target.A))
		key := m.stash(m.splitExpr(target.B))
		x := ov.New(ast.KindIndex)
		xn := ov.Mut(x)
		xn.A = obj
		xn.B = key
		writeTarget = x
		if binOp != "" {
			x2 := ov.New(ast.KindIndex)
			x2n := ov.Mut(x2)
			x2n.A = obj
			x2n.B = key
			oldValue = m.stash(x2)
		}
	default:
		m.fail(id, "suspension across an unsupported assignment target")
		return id
	}

	value := m.splitExpr(n.B)
	if binOp != "" {
		b := ov.New(ast.KindBinary)
		bn := ov.Mut(b)
		bn.Text = binOp
		bn.A = oldValue
		bn.B = value
		value = b
	}
	return ov.Assign(writeTarget, value)
}
