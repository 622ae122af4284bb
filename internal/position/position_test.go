package position

import "testing"

func TestPositionForOffsets(t *testing.T) {
	sf := NewSourceFile("a.ts", "let x = 1;\nlet y = 2;\n\nreturn;")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{10, 1, 11},
		{11, 2, 1},
		{15, 2, 5},
		{22, 3, 1},
		{23, 4, 1},
	}

	for i, tt := range tests {
		pos := sf.PositionFor(tt.offset)
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Fatalf("tests[%d] - offset %d: expected %d:%d, got %d:%d",
				i, tt.offset, tt.line, tt.column, pos.Line, pos.Column)
		}
		if pos.Offset != tt.offset {
			t.Fatalf("tests[%d] - offset not preserved: %d != %d", i, pos.Offset, tt.offset)
		}
	}
}

func TestOffsetForRoundTrip(t *testing.T) {
	sf := NewSourceFile("a.ts", "async function run(value) {\n  return await value;\n}\n")

	for offset := 0; offset <= len(sf.Content); offset++ {
		pos := sf.PositionFor(offset)
		back := sf.OffsetFor(pos.Line, pos.Column)
		if back != offset {
			t.Fatalf("offset %d round-tripped to %d via %d:%d", offset, back, pos.Line, pos.Column)
		}
	}
}

func TestMapCoordinatesAreZeroBased(t *testing.T) {
	sf := NewSourceFile("a.ts", "x\ny")
	pos := sf.PositionFor(2)
	if pos.MapLine() != 1 || pos.MapColumn() != 0 {
		t.Fatalf("expected map position 1:0, got %d:%d", pos.MapLine(), pos.MapColumn())
	}
}

func TestSpanCovers(t *testing.T) {
	parent := Span{Start: 0, End: 20}
	child := Span{Start: 5, End: 10}

	if !parent.Covers(child) {
		t.Fatal("parent should cover child")
	}
	if child.Covers(parent) {
		t.Fatal("child should not cover parent")
	}
	if got := parent.Union(child); got != parent {
		t.Fatalf("union should be parent span, got %v", got)
	}
}

func TestLineAccess(t *testing.T) {
	sf := NewSourceFile("a.ts", "first\nsecond\nthird")
	if got := sf.Line(2); got != "second" {
		t.Fatalf("line 2 = %q", got)
	}
	if got := sf.Line(4); got != "" {
		t.Fatalf("out-of-range line = %q", got)
	}
	if sf.LineCount() != 3 {
		t.Fatalf("line count = %d", sf.LineCount())
	}
}
