// Package position provides unified source code position tracking
// for the quench compiler. Byte offsets are the canonical coordinate;
// line/column pairs are derived through a precomputed line-start table
// so the emitter and source map generator can convert offsets cheaply.
package position

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Position represents a single point in source code.
type Position struct {
	Filename string // Source file name
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Offset   int    // 0-based byte offset in source
}

// IsValid returns true if the position is valid.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0 && p.Offset >= 0
}

// String returns a string representation of the position.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// MapLine returns the 0-based line number used by source map coordinates.
func (p Position) MapLine() int { return p.Line - 1 }

// MapColumn returns the 0-based column number used by source map coordinates.
func (p Position) MapColumn() int { return p.Column - 1 }

// Span represents a half-open byte range [Start, End) within one file.
// AST nodes carry spans rather than full positions; the owning SourceFile
// resolves either end to a Position on demand.
type Span struct {
	Start int // Inclusive start offset
	End   int // Exclusive end offset
}

// IsValid returns true if the span is non-degenerate.
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	if !s.IsValid() {
		return 0
	}
	return s.End - s.Start
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return s.IsValid() && s.Start <= offset && offset < s.End
}

// Covers returns true if the span fully contains other.
// The child-containment invariant of the AST is checked with this.
func (s Span) Covers(other Span) bool {
	return s.IsValid() && other.IsValid() && s.Start <= other.Start && other.End <= s.End
}

// Union returns a span that encompasses both this span and other.
func (s Span) Union(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// SourceFile represents one source file with its content and the
// precomputed line-start table used for offset conversion. The table is
// built once at construction; the file is read-only afterwards.
type SourceFile struct {
	Filename   string
	Content    string
	lineStarts []int // byte offset of the first character of each line
}

// NewSourceFile creates a new source file and builds its line-start table.
func NewSourceFile(filename, content string) *SourceFile {
	starts := make([]int, 1, 64)
	starts[0] = 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &SourceFile{
		Filename:   filename,
		Content:    content,
		lineStarts: starts,
	}
}

// LineStarts returns the line-start table. The returned slice must not
// be modified.
func (sf *SourceFile) LineStarts() []int { return sf.lineStarts }

// LineCount returns the number of lines in the file.
func (sf *SourceFile) LineCount() int { return len(sf.lineStarts) }

// PositionFor converts a byte offset to a Position via binary search
// over the line-start table.
func (sf *SourceFile) PositionFor(offset int) Position {
	if offset < 0 {
		return Position{}
	}
	if offset > len(sf.Content) {
		offset = len(sf.Content)
	}
	// First line start greater than offset, minus one, is our line.
	line := sort.Search(len(sf.lineStarts), func(i int) bool {
		return sf.lineStarts[i] > offset
	}) - 1
	return Position{
		Filename: sf.Filename,
		Line:     line + 1,
		Column:   offset - sf.lineStarts[line] + 1,
		Offset:   offset,
	}
}

// OffsetFor converts a 1-based (line, column) pair to a byte offset,
// or -1 if the pair is out of range.
func (sf *SourceFile) OffsetFor(line, column int) int {
	if line < 1 || line > len(sf.lineStarts) || column < 1 {
		return -1
	}
	offset := sf.lineStarts[line-1] + column - 1
	if offset > len(sf.Content) {
		return -1
	}
	return offset
}

// Slice returns the text covered by the span.
func (sf *SourceFile) Slice(span Span) string {
	if !span.IsValid() || span.End > len(sf.Content) {
		return ""
	}
	return sf.Content[span.Start:span.End]
}

// Line returns the text of the given 1-based line, without its newline.
func (sf *SourceFile) Line(line int) string {
	if line < 1 || line > len(sf.lineStarts) {
		return ""
	}
	start := sf.lineStarts[line-1]
	end := len(sf.Content)
	if line < len(sf.lineStarts) {
		end = sf.lineStarts[line] - 1
	}
	return sf.Content[start:end]
}
