package ast

import (
	"testing"

	"github.com/quenchjs/quench/internal/position"
)

func TestArenaIDsAreStable(t *testing.T) {
	sf := position.NewSourceFile("a.ts", "x + y")
	arena := NewArena(sf)

	x := arena.Add(func() Node { n := NewNode(KindIdent, 0, 1); n.Text = "x"; return n }())
	y := arena.Add(func() Node { n := NewNode(KindIdent, 4, 5); n.Text = "y"; return n }())
	bin := NewNode(KindBinary, 0, 5)
	bin.Text = "+"
	bin.A = x
	bin.B = y
	root := arena.Add(bin)

	if x != 0 || y != 1 || root != 2 {
		t.Fatalf("ids not monotonic: %d %d %d", x, y, root)
	}
	if arena.Get(root).A != x || arena.Get(root).B != y {
		t.Fatal("children not addressed by id")
	}
	if arena.Get(InvalidNode) != nil {
		t.Fatal("InvalidNode must resolve to nil")
	}
}

func TestComputeParents(t *testing.T) {
	sf := position.NewSourceFile("a.ts", "return x;")
	arena := NewArena(sf)

	x := arena.Add(func() Node { n := NewNode(KindIdent, 7, 8); n.Text = "x"; return n }())
	ret := NewNode(KindReturn, 0, 9)
	ret.A = x
	retID := arena.Add(ret)
	file := NewNode(KindSourceFile, 0, 9)
	file.List = []NodeID{retID}
	fileID := arena.Add(file)
	arena.SetRoot(fileID)
	arena.ComputeParents()

	if arena.Parent(x) != retID {
		t.Fatalf("parent of x = %d, want %d", arena.Parent(x), retID)
	}
	if arena.Parent(retID) != fileID {
		t.Fatalf("parent of return = %d, want %d", arena.Parent(retID), fileID)
	}
	if arena.Parent(fileID) != InvalidNode {
		t.Fatal("root must have no parent")
	}
}

func TestChildSpanContainment(t *testing.T) {
	sf := position.NewSourceFile("a.ts", "a + b")
	arena := NewArena(sf)
	a := arena.Add(func() Node { n := NewNode(KindIdent, 0, 1); n.Text = "a"; return n }())
	bin := NewNode(KindBinary, 0, 5)
	bin.A = a
	id := arena.Add(bin)

	if !arena.Get(id).Span().Covers(arena.Get(a).Span()) {
		t.Fatal("parent span must cover child span")
	}
}

func TestOverlayIDsContinuePastArena(t *testing.T) {
	sf := position.NewSourceFile("a.ts", "value")
	arena := NewArena(sf)
	orig := arena.Add(func() Node { n := NewNode(KindIdent, 0, 5); n.Text = "value"; return n }())

	ov := NewOverlay(arena)
	synth := ov.Ident("_tmp")

	if int(synth) != arena.Len() {
		t.Fatalf("first overlay id = %d, want %d", synth, arena.Len())
	}
	if !ov.IsSynthesized(synth) || ov.IsSynthesized(orig) {
		t.Fatal("synthesized classification wrong")
	}
	if ov.Get(orig).Text != "value" || ov.Get(synth).Text != "_tmp" {
		t.Fatal("overlay lookup must resolve both stores")
	}
	if ov.Mut(orig) != nil {
		t.Fatal("parsed nodes must not be mutable through the overlay")
	}
}

func TestOverlayMutSurvivesGrowth(t *testing.T) {
	sf := position.NewSourceFile("a.ts", "")
	arena := NewArena(sf)
	ov := NewOverlay(arena)

	sw := ov.New(KindSwitch)
	n := ov.Mut(sw)
	// Grow the overlay well past any initial capacity while the Mut
	// pointer is live.
	var kids []NodeID
	for i := 0; i < 1024; i++ {
		kids = append(kids, ov.Ident("_k"))
	}
	n.A = kids[0]
	n.List = kids

	got := ov.Get(sw)
	if got.A != kids[0] {
		t.Fatalf("discriminant written through stale pointer: got %d, want %d", got.A, kids[0])
	}
	if len(got.List) != 1024 {
		t.Fatalf("case list lost: %d entries", len(got.List))
	}
}

func TestOverlayPositionInheritance(t *testing.T) {
	sf := position.NewSourceFile("a.ts", "await value")
	arena := NewArena(sf)
	orig := arena.Add(func() Node { n := NewNode(KindIdent, 6, 11); n.Text = "value"; return n }())

	ov := NewOverlay(arena)
	inherited := ov.IdentAt("_v", orig)
	unmapped := ov.Ident("_u")

	if got := ov.Get(inherited).Start; got != 6 {
		t.Fatalf("inherited start = %d, want 6", got)
	}
	if ov.Get(unmapped).Mapped() {
		t.Fatal("plain synthesized node must be unmapped")
	}
	if !ov.Get(inherited).Synthetic() {
		t.Fatal("inherited node must still be flagged synthetic")
	}
}
