// Package lowering rewrites the parsed tree down to ES5. Transforms
// never mutate the arena; they synthesize replacement nodes in an
// overlay and record per-node emit actions the printer resolves.
package lowering

import (
	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/position"
)

// Record accumulates the emit actions of every pass over one file.
type Record struct {
	Overlay *ast.Overlay

	replacements map[ast.NodeID]ast.NodeID
	elided       map[ast.NodeID]bool
	before       map[ast.NodeID][]ast.NodeID
	after        map[ast.NodeID][]ast.NodeID

	// Helpers the printer must emit ahead of the program text.
	helpers map[Helper]bool

	Diags *position.DiagnosticBag
}

// Helper names a runtime support function injected into the output.
type Helper uint8

const (
	HelperExtends Helper = iota
	HelperAssign
	HelperRest
	HelperAwaiter
	HelperGenerator
	helperCount
)

func NewRecord(arena *ast.Arena, diags *position.DiagnosticBag) *Record {
	return &Record{
		Overlay:      ast.NewOverlay(arena),
		replacements: make(map[ast.NodeID]ast.NodeID),
		elided:       make(map[ast.NodeID]bool),
		before:       make(map[ast.NodeID][]ast.NodeID),
		after:        make(map[ast.NodeID][]ast.NodeID),
		helpers:      make(map[Helper]bool),
		Diags:        diags,
	}
}

// Chain returns the full replacement chain starting at id, including id
// itself and the effective final node. The printer walks it so insert
// actions recorded against intermediate hops still emit.
func (r *Record) Chain(id ast.NodeID) []ast.NodeID {
	out := []ast.NodeID{id}
	seen := map[ast.NodeID]bool{id: true}
	for {
		next, ok := r.replacements[id]
		if !ok || seen[next] {
			return out
		}
		seen[next] = true
		out = append(out, next)
		id = next
	}
}

// Replace routes every future reference to old through repl.
func (r *Record) Replace(old, repl ast.NodeID) {
	if old != repl {
		r.replacements[old] = repl
	}
}

// Elide drops the node from the output entirely.
func (r *Record) Elide(id ast.NodeID) { r.elided[id] = true }

func (r *Record) Elided(id ast.NodeID) bool { return r.elided[id] }

// InsertBefore schedules statements ahead of a statement-position node.
func (r *Record) InsertBefore(id ast.NodeID, stmts ...ast.NodeID) {
	r.before[id] = append(r.before[id], stmts...)
}

// InsertAfter schedules statements behind a statement-position node.
func (r *Record) InsertAfter(id ast.NodeID, stmts ...ast.NodeID) {
	r.after[id] = append(r.after[id], stmts...)
}

func (r *Record) Before(id ast.NodeID) []ast.NodeID { return r.before[id] }
func (r *Record) After(id ast.NodeID) []ast.NodeID  { return r.after[id] }

// Resolve follows replacement chains to the node that will actually be
// emitted in this position.
func (r *Record) Resolve(id ast.NodeID) ast.NodeID {
	seen := map[ast.NodeID]bool{id: true}
	for {
		repl, ok := r.replacements[id]
		if !ok || seen[repl] {
			return id
		}
		seen[repl] = true
		id = repl
	}
}

// Get returns the effective node for an id, following replacements.
func (r *Record) Get(id ast.NodeID) *ast.Node {
	return r.Overlay.Get(r.Resolve(id))
}

// Need marks a runtime helper for emission.
func (r *Record) Need(h Helper) { r.helpers[h] = true }

func (r *Record) Needs(h Helper) bool { return r.helpers[h] }

// MarkUnsupported records a degraded-output diagnostic for a construct
// the pipeline cannot lower, and leaves the node to print as-is behind
// a marker comment.
func (r *Record) MarkUnsupported(id ast.NodeID, msg string) {
	n := r.Overlay.Get(id)
	r.Diags.AddDegraded(n.Span(), "lowering", msg)
	marker := r.Overlay.NewAt(ast.KindRaw, id)
	r.Overlay.Mut(marker).Text = "/* quench: unsupported construct */ "
	r.InsertBefore(id, marker)
}
