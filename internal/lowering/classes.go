package lowering

import (
	"github.com/quenchjs/quench/internal/ast"
)

// lowerClasses rewrites class declarations and expressions to the ES5
// constructor-function IIFE:
//
//	var C = /** @class */ (function (_super) {
//	    __extends(C, _super);
//	    function C() {
//	        var _this = _super.call(this, ...) || this;
//	        _this.field = init;
//	        return _this;
//	    }
//	    C.prototype.m = function () { ... };
//	    return C;
//	}(Base));
func (c *context) lowerClasses() {
	c.visit(c.arena.Root(), func(id ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindClassDecl:
			c.rewriteClassDecl(id, n)
			return false
		case ast.KindClassExpr:
			c.rec.Replace(id, c.classIIFE(id, n))
			return false
		}
		return true
	})
}

func (c *context) rewriteClassDecl(id ast.NodeID, decl *ast.Node) {
	ov := c.ov
	iife := c.classIIFE(id, decl)

	// var C = <iife>;
	varStmt := ov.NewAt(ast.KindVarStmt, id)
	declr := ov.NewAt(ast.KindVarDeclarator, id)
	bind := ov.NewAt(ast.KindBindingIdent, id)
	ov.Mut(bind).Text = decl.Text
	d := ov.Mut(declr)
	d.A = bind
	d.B = iife
	v := ov.Mut(varStmt)
	v.Text = "var"
	v.List = []ast.NodeID{declr}
	c.rec.Replace(id, varStmt)
}

// classIIFE builds the wrapping IIFE expression for a class node.
func (c *context) classIIFE(id ast.NodeID, decl *ast.Node) ast.NodeID {
	ov := c.ov
	name := decl.Text
	if name == "" {
		name = "anonymous_class"
	}
	derived := decl.A != ast.InvalidNode

	var body []ast.NodeID
	if derived {
		c.rec.Need(HelperExtends)
		body = append(body, ov.ExprStmt(ov.Call(ov.Ident("__extends"), ov.Ident(name), ov.Ident("_super"))))
	}

	ctor, fields, statics, methods, accessors := c.splitMembers(decl)
	body = append(body, c.buildConstructor(id, name, derived, ctor, fields))
	for _, m := range methods {
		body = append(body, c.buildMethodAssign(name, m))
	}
	for _, group := range accessors {
		body = append(body, c.buildAccessor(name, group))
	}
	for _, s := range statics {
		body = append(body, c.buildStatic(name, s))
	}
	retC := ov.Return(ov.Ident(name))
	body = append(body, retC)

	fn := ov.NewAt(ast.KindFunctionExpr, id)
	f := ov.Mut(fn)
	f.A = ov.Block(body...)
	var args []ast.NodeID
	if derived {
		param := ov.New(ast.KindParam)
		pbind := ov.New(ast.KindBindingIdent)
		ov.Mut(pbind).Text = "_super"
		ov.Mut(param).A = pbind
		f.List = []ast.NodeID{param}
		args = []ast.NodeID{decl.A}
	}

	paren := ov.NewAt(ast.KindParen, id)
	ov.Mut(paren).A = ov.Call(fn, args...)
	return paren
}

// accessorGroup pairs the getter and setter sharing one property name.
type accessorGroup struct {
	name     string
	static   bool
	get, set ast.NodeID
}

func (c *context) splitMembers(decl *ast.Node) (ctor ast.NodeID, fields, statics, methods []ast.NodeID, accessors []accessorGroup) {
	ctor = ast.InvalidNode
	groupIdx := make(map[string]int)
	for _, memberID := range decl.List {
		m := c.rec.Get(memberID)
		switch {
		case m.Kind == ast.KindMethod && m.Text == "constructor" && m.Flags&ast.FlagStatic == 0:
			ctor = memberID
		case m.Kind == ast.KindMethod && m.Flags&(ast.FlagGetter|ast.FlagSetter) != 0:
			key := m.Text
			if m.Flags&ast.FlagStatic != 0 {
				key = "static " + key
			}
			i, ok := groupIdx[key]
			if !ok {
				i = len(accessors)
				groupIdx[key] = i
				accessors = append(accessors, accessorGroup{
					name:   m.Text,
					static: m.Flags&ast.FlagStatic != 0,
					get:    ast.InvalidNode,
					set:    ast.InvalidNode,
				})
			}
			if m.Flags&ast.FlagGetter != 0 {
				accessors[i].get = memberID
			} else {
				accessors[i].set = memberID
			}
		case m.Flags&ast.FlagStatic != 0:
			statics = append(statics, memberID)
		case m.Kind == ast.KindField:
			fields = append(fields, memberID)
		default:
			methods = append(methods, memberID)
		}
	}
	return
}

// buildConstructor synthesizes function C(...) {...} from the original
// constructor method (if any) plus instance field initializers.
func (c *context) buildConstructor(classID ast.NodeID, name string, derived bool, ctor ast.NodeID, fields []ast.NodeID) ast.NodeID {
	ov := c.ov
	fn := ov.NewAt(ast.KindFunctionDecl, classID)
	f := ov.Mut(fn)
	f.Text = name

	thisRef := func(origin ast.NodeID) ast.NodeID {
		if derived {
			return ov.IdentAt("_this", origin)
		}
		return ov.NewAt(ast.KindThis, origin)
	}

	fieldInits := func() []ast.NodeID {
		var out []ast.NodeID
		for _, fieldID := range fields {
			fl := c.rec.Get(fieldID)
			if fl.A == ast.InvalidNode {
				continue
			}
			target := ov.Member(thisRef(fieldID), fl.Text)
			out = append(out, ov.ExprStmt(ov.Assign(target, fl.A)))
		}
		return out
	}

	if ctor == ast.InvalidNode {
		var body []ast.NodeID
		if derived {
			// function C() { return _super !== null && _super.apply(this, arguments) || this; }
			apply := ov.Call(ov.Member(ov.Ident("_super"), "apply"), ov.New(ast.KindThis), ov.Ident("arguments"))
			notNull := ov.New(ast.KindBinary)
			nn := ov.Mut(notNull)
			nn.Text = "!=="
			nn.A = ov.Ident("_super")
			nn.B = ov.New(ast.KindNullLit)
			and := ov.New(ast.KindLogical)
			a := ov.Mut(and)
			a.Text = "&&"
			a.A = notNull
			a.B = apply
			if len(fields) == 0 {
				or := ov.New(ast.KindLogical)
				o := ov.Mut(or)
				o.Text = "||"
				o.A = and
				o.B = ov.New(ast.KindThis)
				body = []ast.NodeID{ov.Return(or)}
			} else {
				or := ov.New(ast.KindLogical)
				o := ov.Mut(or)
				o.Text = "||"
				o.A = and
				o.B = ov.New(ast.KindThis)
				body = append(body, c.varDecl("_this", or))
				body = append(body, fieldInits()...)
				body = append(body, ov.Return(ov.Ident("_this")))
			}
		} else {
			body = fieldInits()
		}
		ov.Mut(fn).A = ov.Block(body...)
		return fn
	}

	m := c.rec.Get(ctor)
	origBody := c.rec.Get(m.B)
	var body []ast.NodeID

	if derived {
		// Rewrite super(args) into the _this binding; everything that
		// follows sees this as _this.
		rest := origBody.List
		bound := false
		if len(rest) > 0 {
			if call, ok := c.superCallStmt(rest[0]); ok {
				superCall := ov.Call(ov.Member(ov.IdentAt("_super", rest[0]), "call"), append([]ast.NodeID{ov.New(ast.KindThis)}, call...)...)
				or := ov.New(ast.KindLogical)
				o := ov.Mut(or)
				o.Text = "||"
				o.A = superCall
				o.B = ov.New(ast.KindThis)
				body = append(body, c.varDecl("_this", or))
				rest = rest[1:]
				bound = true
			}
		}
		if !bound {
			c.rec.MarkUnsupported(ctor, "derived constructor must begin with a super(...) call")
			apply := ov.Call(ov.Member(ov.Ident("_super"), "apply"), ov.New(ast.KindThis), ov.Ident("arguments"))
			or := ov.New(ast.KindLogical)
			o := ov.Mut(or)
			o.Text = "||"
			o.A = apply
			o.B = ov.New(ast.KindThis)
			body = append(body, c.varDecl("_this", or))
		}
		body = append(body, fieldInits()...)
		for _, s := range rest {
			c.rewriteCtorThis(s)
			body = append(body, s)
		}
		body = append(body, ov.Return(ov.Ident("_this")))
	} else {
		body = append(body, fieldInits()...)
		body = append(body, origBody.List...)
	}

	fd := ov.Mut(fn)
	fd.List = m.List
	fd.A = ov.Block(body...)
	return fn
}

// superCallStmt recognizes an expression statement that is exactly a
// super(...) call and returns its arguments.
func (c *context) superCallStmt(id ast.NodeID) ([]ast.NodeID, bool) {
	s := c.rec.Get(id)
	if s == nil || s.Kind != ast.KindExprStmt {
		return nil, false
	}
	call := c.rec.Get(s.A)
	if call == nil || call.Kind != ast.KindCall {
		return nil, false
	}
	if callee := c.rec.Get(call.A); callee == nil || callee.Kind != ast.KindSuper {
		return nil, false
	}
	c.rec.Elide(id)
	return call.List, true
}

// rewriteCtorThis replaces this with _this below a derived constructor
// statement. Nested functions keep their own this; arrows do not, so the
// walk descends through them.
func (c *context) rewriteCtorThis(id ast.NodeID) {
	c.visit(id, func(nid ast.NodeID, n *ast.Node) bool {
		switch n.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr:
			return false
		case ast.KindThis:
			c.rec.Replace(nid, c.ov.IdentAt("_this", nid))
		case ast.KindReturn:
			if n.A == ast.InvalidNode {
				c.rec.Replace(nid, c.ov.Return(c.ov.Ident("_this")))
				return false
			}
		}
		return true
	})
}

// buildMethodAssign synthesizes C.prototype.m = function (...) {...};
func (c *context) buildMethodAssign(name string, methodID ast.NodeID) ast.NodeID {
	ov := c.ov
	m := c.rec.Get(methodID)
	fn := c.methodFunction(methodID, m)
	var target ast.NodeID
	proto := ov.Member(ov.IdentAt(name, methodID), "prototype")
	if m.Flags&ast.FlagComputed != 0 && m.A != ast.InvalidNode {
		target = ov.New(ast.KindIndex)
		t := ov.Mut(target)
		t.A = proto
		t.B = m.A
	} else {
		target = ov.Member(proto, m.Text)
	}
	return ov.ExprStmt(ov.Assign(target, fn))
}

// buildStatic synthesizes C.m = ... for static methods and fields.
func (c *context) buildStatic(name string, memberID ast.NodeID) ast.NodeID {
	ov := c.ov
	m := c.rec.Get(memberID)
	target := ov.Member(ov.IdentAt(name, memberID), m.Text)
	if m.Kind == ast.KindField {
		init := m.A
		if init == ast.InvalidNode {
			init = ov.Raw("void 0")
		}
		return ov.ExprStmt(ov.Assign(target, init))
	}
	return ov.ExprStmt(ov.Assign(target, c.methodFunction(memberID, m)))
}

// buildAccessor synthesizes the Object.defineProperty call for a
// getter/setter pair.
func (c *context) buildAccessor(name string, g accessorGroup) ast.NodeID {
	ov := c.ov
	origin := g.get
	if origin == ast.InvalidNode {
		origin = g.set
	}
	receiver := ov.IdentAt(name, origin)
	var target ast.NodeID
	if g.static {
		target = receiver
	} else {
		target = ov.Member(receiver, "prototype")
	}

	desc := ov.New(ast.KindObjectLit)
	var props []ast.NodeID
	addProp := func(key string, value ast.NodeID) {
		p := ov.New(ast.KindProperty)
		pn := ov.Mut(p)
		pn.Text = key
		pn.B = value
		props = append(props, p)
	}
	if g.get != ast.InvalidNode {
		addProp("get", c.methodFunction(g.get, c.rec.Get(g.get)))
	}
	if g.set != ast.InvalidNode {
		addProp("set", c.methodFunction(g.set, c.rec.Get(g.set)))
	}
	addProp("enumerable", ov.Raw("false"))
	addProp("configurable", ov.Raw("true"))
	ov.Mut(desc).List = props

	key := ov.New(ast.KindStringLit)
	ov.Mut(key).Text = g.name
	call := ov.Call(ov.Member(ov.Ident("Object"), "defineProperty"), target, key, desc)
	return ov.ExprStmt(call)
}

// methodFunction turns a class method into a plain function expression,
// rewriting super member access along the way.
func (c *context) methodFunction(methodID ast.NodeID, m *ast.Node) ast.NodeID {
	ov := c.ov
	c.rewriteSuperMembers(m.B, m.Flags&ast.FlagStatic != 0)
	fn := ov.NewAt(ast.KindFunctionExpr, methodID)
	f := ov.Mut(fn)
	f.Flags = m.Flags & (ast.FlagAsync | ast.FlagGenerator)
	f.List = m.List
	f.A = m.B
	return fn
}

// rewriteSuperMembers lowers super.m(...) and super.x inside a method
// body to _super.prototype access bound to this.
func (c *context) rewriteSuperMembers(body ast.NodeID, static bool) {
	base := func(origin ast.NodeID) ast.NodeID {
		if static {
			return c.ov.IdentAt("_super", origin)
		}
		return c.ov.Member(c.ov.IdentAt("_super", origin), "prototype")
	}
	c.visit(body, func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind.IsFunctionLike() && n.Kind != ast.KindArrow {
			return false
		}
		if n.Kind != ast.KindCall {
			if n.Kind == ast.KindMember {
				if obj := c.rec.Get(n.A); obj != nil && obj.Kind == ast.KindSuper {
					c.rec.Replace(id, c.ov.Member(base(id), n.Text))
					return false
				}
			}
			return true
		}
		callee := c.rec.Get(n.A)
		if callee == nil || callee.Kind != ast.KindMember {
			return true
		}
		if obj := c.rec.Get(callee.A); obj == nil || obj.Kind != ast.KindSuper {
			return true
		}
		// super.m(args) -> _super.prototype.m.call(this, args)
		m := c.ov.Member(base(id), callee.Text)
		args := append([]ast.NodeID{c.ov.New(ast.KindThis)}, n.List...)
		c.rec.Replace(id, c.ov.Call(c.ov.Member(m, "call"), args...))
		return false
	})
}

// varDecl synthesizes var name = init;
func (c *context) varDecl(name string, init ast.NodeID) ast.NodeID {
	ov := c.ov
	stmt := ov.New(ast.KindVarStmt)
	declr := ov.New(ast.KindVarDeclarator)
	bind := ov.New(ast.KindBindingIdent)
	ov.Mut(bind).Text = name
	d := ov.Mut(declr)
	d.A = bind
	d.B = init
	s := ov.Mut(stmt)
	s.Text = "var"
	s.List = []ast.NodeID{declr}
	return stmt
}
