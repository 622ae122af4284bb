// Package ast defines the arena-allocated syntax tree for the quench
// compiler. All nodes of one source file live in a single Arena and are
// addressed by stable integer ids; child links are ids, never pointers.
// Once parsing finishes the arena is read-only: lowering records its
// output in a separate overlay (see the lowering package) instead of
// mutating parsed nodes.
package ast

import (
	"github.com/quenchjs/quench/internal/position"
)

// NodeID addresses a node within its file's arena. Ids are assigned
// monotonically and never reused within one file.
type NodeID int32

// InvalidNode is the absent-child marker.
const InvalidNode NodeID = -1

// Flags carries kind-specific boolean attributes.
type Flags uint16

const (
	FlagAsync     Flags = 1 << iota // function-like: declared async
	FlagGenerator                   // function-like: declared with *
	FlagStatic                      // class member
	FlagGetter                      // method is an accessor getter
	FlagSetter                      // method is an accessor setter
	FlagComputed                    // property/method key is computed
	FlagShorthand                   // object literal shorthand property
	FlagDelegate                    // yield*
	FlagPrefix                      // update expression is prefix form
	FlagRest                        // rest parameter
	FlagDefault                     // export default / import default binding
	FlagNamespace                   // import * as ns
	FlagConstEnum                   // TS const enum
	FlagSynthetic                   // node synthesized during lowering
	FlagUnsupported                 // construct lowered best-effort only
	FlagSingleLine                  // block prints its statements on one line
)

// Node is one tagged AST node. The meaning of A..D, List and Text is
// fixed per Kind and documented next to each kind constant. Start/End
// are byte offsets into the source; a synthesized node may carry
// Start >= 0 with End == Start to inherit that original position for
// mapping purposes, or Start == -1 to stay unmapped.
type Node struct {
	Kind       Kind
	Flags      Flags
	Start, End int32
	Text       string
	A, B, C, D NodeID
	List       []NodeID
}

// Span returns the node's byte range.
func (n *Node) Span() position.Span {
	return position.Span{Start: int(n.Start), End: int(n.End)}
}

// Synthetic reports whether the node was created during lowering.
func (n *Node) Synthetic() bool { return n.Flags&FlagSynthetic != 0 }

// Mapped reports whether the node carries a position usable for a
// source map entry.
func (n *Node) Mapped() bool { return n.Start >= 0 }

// NewNode returns a Node of the given kind and byte range with all four
// child slots empty. The zero value of NodeID is a real id, so nodes must
// always be built through this constructor (or Overlay allocation).
func NewNode(kind Kind, start, end int) Node {
	return Node{
		Kind:  kind,
		Start: int32(start),
		End:   int32(end),
		A:     InvalidNode,
		B:     InvalidNode,
		C:     InvalidNode,
		D:     InvalidNode,
	}
}

// Arena owns every node of one source file. It is populated by the
// parser and read-only afterwards.
type Arena struct {
	file    *position.SourceFile
	nodes   []Node
	parents []NodeID
	root    NodeID
}

// NewArena creates an empty arena for the given file.
func NewArena(file *position.SourceFile) *Arena {
	return &Arena{
		file:  file,
		nodes: make([]Node, 0, 256),
		root:  InvalidNode,
	}
}

// File returns the source file the arena was parsed from.
func (a *Arena) File() *position.SourceFile { return a.file }

// Add appends a node and returns its id. Children default to InvalidNode
// when the zero Node is extended by the caller.
func (a *Arena) Add(n Node) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

// Get returns the node for id. The result must be treated as read-only
// once parsing has completed.
func (a *Arena) Get(id NodeID) *Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int { return len(a.nodes) }

// Root returns the SourceFile node id.
func (a *Arena) Root() NodeID { return a.root }

// SetRoot records the SourceFile node. Called once by the parser.
func (a *Arena) SetRoot(id NodeID) { a.root = id }

// Parent returns the id of the node's parent, or InvalidNode for the
// root and for ids outside the arena. ComputeParents must have run.
func (a *Arena) Parent(id NodeID) NodeID {
	if a.parents == nil || id < 0 || int(id) >= len(a.parents) {
		return InvalidNode
	}
	return a.parents[id]
}

// ComputeParents builds the child-to-parent index used for position
// inheritance. Called once by the parser after the tree is complete.
func (a *Arena) ComputeParents() {
	a.parents = make([]NodeID, len(a.nodes))
	for i := range a.parents {
		a.parents[i] = InvalidNode
	}
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := a.Get(id)
		if n == nil {
			return
		}
		EachChild(n, func(child NodeID) {
			if child >= 0 && int(child) < len(a.parents) {
				a.parents[child] = id
				walk(child)
			}
		})
	}
	if a.root != InvalidNode {
		walk(a.root)
	}
}

// EachChild calls fn for every present child of n, in source order.
func EachChild(n *Node, fn func(NodeID)) {
	for _, c := range [4]NodeID{n.A, n.B, n.C, n.D} {
		if c != InvalidNode {
			fn(c)
		}
	}
	for _, c := range n.List {
		if c != InvalidNode {
			fn(c)
		}
	}
}
