package ast

// Overlay extends a read-only Arena with synthesized nodes created during
// lowering. Ids continue past the arena's last id, so a NodeID resolves
// unambiguously against either store and the parsed tree stays immutable.
//
// Nodes are stored behind pointers: the transforms hold *Node views
// across further allocations, so node storage must never move.
type Overlay struct {
	base  *Arena
	nodes []*Node
}

// NewOverlay creates an empty overlay over base.
func NewOverlay(base *Arena) *Overlay {
	return &Overlay{base: base}
}

// Base returns the underlying arena.
func (o *Overlay) Base() *Arena { return o.base }

// Get resolves an id against the base arena or the overlay.
func (o *Overlay) Get(id NodeID) *Node {
	if id < 0 {
		return nil
	}
	if int(id) < o.base.Len() {
		return o.base.Get(id)
	}
	i := int(id) - o.base.Len()
	if i >= len(o.nodes) {
		return nil
	}
	return o.nodes[i]
}

// IsSynthesized reports whether id lives in the overlay.
func (o *Overlay) IsSynthesized(id NodeID) bool {
	return int(id) >= o.base.Len()
}

// New allocates a synthesized node of the given kind with no inherited
// position and returns its id.
func (o *Overlay) New(kind Kind) NodeID {
	n := NewNode(kind, -1, -1)
	n.Flags |= FlagSynthetic
	return o.add(n)
}

// NewAt allocates a synthesized node that inherits the start position of
// the original node origin for mapping purposes.
func (o *Overlay) NewAt(kind Kind, origin NodeID) NodeID {
	start := -1
	if orig := o.Get(origin); orig != nil && orig.Mapped() {
		start = int(orig.Start)
	}
	n := NewNode(kind, start, start)
	n.Flags |= FlagSynthetic
	return o.add(n)
}

func (o *Overlay) add(n Node) NodeID {
	id := NodeID(o.base.Len() + len(o.nodes))
	o.nodes = append(o.nodes, &n)
	return id
}

// Mut returns a mutable view of a synthesized node so the lowering can
// fill in children after allocation. The pointer stays valid across
// later allocations. Parsed nodes are not reachable through Mut; asking
// for one returns nil.
func (o *Overlay) Mut(id NodeID) *Node {
	if !o.IsSynthesized(id) {
		return nil
	}
	i := int(id) - o.base.Len()
	if i < 0 || i >= len(o.nodes) {
		return nil
	}
	return o.nodes[i]
}

// Convenience constructors used heavily by the lowering transforms.

// Ident synthesizes an identifier expression.
func (o *Overlay) Ident(name string) NodeID {
	id := o.New(KindIdent)
	o.Mut(id).Text = name
	return id
}

// IdentAt synthesizes an identifier that inherits origin's position.
func (o *Overlay) IdentAt(name string, origin NodeID) NodeID {
	id := o.NewAt(KindIdent, origin)
	o.Mut(id).Text = name
	return id
}

// Number synthesizes a numeric literal from its source text.
func (o *Overlay) Number(text string) NodeID {
	id := o.New(KindNumberLit)
	o.Mut(id).Text = text
	return id
}

// String synthesizes a string literal with the given cooked value.
func (o *Overlay) String(value string) NodeID {
	id := o.New(KindStringLit)
	o.Mut(id).Text = value
	return id
}

// Raw synthesizes a verbatim output fragment.
func (o *Overlay) Raw(text string) NodeID {
	id := o.New(KindRaw)
	o.Mut(id).Text = text
	return id
}

// Member synthesizes object.property.
func (o *Overlay) Member(object NodeID, property string) NodeID {
	id := o.New(KindMember)
	n := o.Mut(id)
	n.A = object
	n.Text = property
	return id
}

// Call synthesizes callee(args...).
func (o *Overlay) Call(callee NodeID, args ...NodeID) NodeID {
	id := o.New(KindCall)
	n := o.Mut(id)
	n.A = callee
	n.List = args
	return id
}

// Assign synthesizes target = value.
func (o *Overlay) Assign(target, value NodeID) NodeID {
	id := o.New(KindAssign)
	n := o.Mut(id)
	n.Text = "="
	n.A = target
	n.B = value
	return id
}

// ExprStmt synthesizes an expression statement.
func (o *Overlay) ExprStmt(expr NodeID) NodeID {
	id := o.New(KindExprStmt)
	o.Mut(id).A = expr
	return id
}

// Block synthesizes a block statement.
func (o *Overlay) Block(stmts ...NodeID) NodeID {
	id := o.New(KindBlock)
	o.Mut(id).List = stmts
	return id
}

// Return synthesizes a return statement; pass InvalidNode for a bare return.
func (o *Overlay) Return(expr NodeID) NodeID {
	id := o.New(KindReturn)
	o.Mut(id).A = expr
	return id
}
