package lowering

import (
	"strconv"

	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/position"
	"github.com/quenchjs/quench/internal/solver"
)

// ModuleKind selects how import/export declarations are lowered.
type ModuleKind uint8

const (
	// ModuleNone leaves module syntax in place (for module-free scripts).
	ModuleNone ModuleKind = iota
	// ModuleCommonJS rewrites modules to require/exports.
	ModuleCommonJS
)

// Options configure one lowering run. The target is always ES5; the
// pipeline exists to get there.
type Options struct {
	Module ModuleKind
}

// context carries shared state through the passes of one file.
type context struct {
	rec    *Record
	ov     *ast.Overlay
	arena  *ast.Arena
	oracle *solver.Oracle
	opts   Options

	// temps hands out names unique across the whole file, so passes
	// never need to coordinate scopes with each other.
	temps tempNamer

	// renames counts block-scope collision renames (x -> x_1).
	renames int
}

// temp returns a fresh synthesized identifier name.
func (c *context) temp() string { return c.temps.next() }

// Lower runs the full pass pipeline over a parsed file. Pass order is
// fixed: each pass produces plain ES5-era constructs (or constructs a
// later pass knows how to consume), so reordering would feed passes
// syntax they no longer handle. Unsupported constructs degrade to
// marked passthrough output instead of aborting the file.
func Lower(arena *ast.Arena, oracle *solver.Oracle, opts Options, diags *position.DiagnosticBag) *Record {
	rec := NewRecord(arena, diags)
	c := &context{
		rec:    rec,
		ov:     rec.Overlay,
		arena:  arena,
		oracle: oracle,
		opts:   opts,
	}

	c.lowerEnums()
	c.lowerClasses()
	c.lowerES2015()
	c.lowerForOf()
	c.lowerParamsAndDestructuring()
	c.lowerAsyncAndGenerators()
	c.lowerBlockScoping()
	if opts.Module == ModuleCommonJS {
		c.lowerModules()
	}
	return rec
}

// eachChild visits the resolved children of the effective node for id.
func (c *context) eachChild(id ast.NodeID, fn func(ast.NodeID)) {
	n := c.rec.Get(id)
	if n == nil {
		return
	}
	ast.EachChild(n, fn)
}

// visit walks the effective tree depth first, pre-order. fn returning
// false prunes the subtree.
func (c *context) visit(id ast.NodeID, fn func(ast.NodeID, *ast.Node) bool) {
	id = c.rec.Resolve(id)
	n := c.ov.Get(id)
	if n == nil {
		return
	}
	if !fn(id, n) {
		return
	}
	ast.EachChild(n, func(child ast.NodeID) {
		c.visit(child, fn)
	})
}

// tempNamer hands out fresh identifier names unique within one file,
// in the order _a, _b, ... _z, _0, _1, ...
type tempNamer struct {
	n int
}

func (t *tempNamer) next() string {
	i := t.n
	t.n++
	if i < 26 {
		return "_" + string(rune('a'+i))
	}
	return "_" + strconv.Itoa(i-26)
}
