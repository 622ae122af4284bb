package solver

import (
	"testing"

	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/parser"
)

func resolve(t *testing.T, src string) (*ast.Arena, *Oracle, *ast.Node) {
	t.Helper()
	arena, diags := parser.ParseFile("enum.ts", src)
	if diags.HasErrors() {
		t.Fatalf("parse failed: %v", diags.Diagnostics)
	}
	root := arena.Get(arena.Root())
	for _, id := range root.List {
		if n := arena.Get(id); n.Kind == ast.KindEnumDecl {
			return arena, New(arena), n
		}
	}
	t.Fatal("no enum declaration found")
	return nil, nil, nil
}

func memberValue(t *testing.T, o *Oracle, decl *ast.Node, i int) EnumValue {
	t.Helper()
	v, ok := o.Member(decl.List[i])
	if !ok {
		t.Fatalf("member %d not resolved", i)
	}
	return v
}

func TestAutoIncrement(t *testing.T) {
	_, o, decl := resolve(t, "enum E { A, B, C }")
	for i, want := range []float64{0, 1, 2} {
		if v := memberValue(t, o, decl, i); v.Number != want || v.IsString {
			t.Errorf("member %d = %v, want %v", i, v, want)
		}
	}
}

func TestExplicitThenIncrement(t *testing.T) {
	_, o, decl := resolve(t, "enum E { A = 5, B, C = 1, D }")
	for i, want := range []float64{5, 6, 1, 2} {
		if v := memberValue(t, o, decl, i); v.Number != want {
			t.Errorf("member %d = %v, want %v", i, v.Number, want)
		}
	}
}

func TestStringMembers(t *testing.T) {
	_, o, decl := resolve(t, `enum E { A = "up", B = "down" }`)
	if v := memberValue(t, o, decl, 0); !v.IsString || v.Str != "up" {
		t.Errorf("A = %+v", v)
	}
	if got := memberValue(t, o, decl, 1).Format(); got != `"down"` {
		t.Errorf("B formats as %s", got)
	}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"enum E { A = 1 + 2 }", 3},
		{"enum E { A = 2 * 3 + 1 }", 7},
		{"enum E { A = 1 << 4 }", 16},
		{"enum E { A = 0xff & 0x0f }", 15},
		{"enum E { A = 8 >> 1 }", 4},
		{"enum E { A = -1 >>> 28 }", 15},
		{"enum E { A = ~0 }", -1},
		{"enum E { A = -(2 ** 3) }", -8},
		{"enum E { A = 7 % 4 }", 3},
		{"enum E { A = 0x10 }", 16},
		{"enum E { A = 0b101 }", 5},
	}
	for _, tt := range tests {
		_, o, decl := resolve(t, tt.src)
		if v := memberValue(t, o, decl, 0); v.Number != tt.want || v.Computed {
			t.Errorf("%q: got %v, want %v", tt.src, v.Number, tt.want)
		}
	}
}

func TestMemberReference(t *testing.T) {
	_, o, decl := resolve(t, "enum Flags { None = 0, Read = 1, Write = 2, ReadWrite = Read | Write }")
	if v := memberValue(t, o, decl, 3); v.Number != 3 {
		t.Errorf("ReadWrite = %v, want 3", v.Number)
	}
}

func TestComputedMember(t *testing.T) {
	_, o, decl := resolve(t, "enum E { A = compute(), B = 1 }")
	if v := memberValue(t, o, decl, 0); !v.Computed {
		t.Error("call initializer should be marked computed")
	}
	if v := memberValue(t, o, decl, 1); v.Number != 1 || v.Computed {
		t.Errorf("B = %+v", v)
	}
}

func TestIncrementAfterStringBreaks(t *testing.T) {
	_, o, decl := resolve(t, `enum E { A = "s", B }`)
	if v := memberValue(t, o, decl, 1); !v.Computed {
		t.Error("member after a string with no initializer cannot auto-increment")
	}
}

func TestStringConcat(t *testing.T) {
	_, o, decl := resolve(t, `enum E { A = "a" + "b" }`)
	if v := memberValue(t, o, decl, 0); !v.IsString || v.Str != "ab" {
		t.Errorf("A = %+v", v)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
		{1.5, "1.5"},
		{16, "16"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
