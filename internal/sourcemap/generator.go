// Package sourcemap implements Source Map v3 generation: interned source
// and name tables, mapping accumulation in generation order, and the
// semicolon/comma-delimited VLQ "mappings" encoding.
//
// One Generator serves exactly one output file. Instances share nothing,
// so files compiled in parallel each own their own Generator.
package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"sort"
)

// NoName marks a mapping without a names-table reference.
const NoName = -1

// NoSource marks a mapping without original-position fields. Such entries
// denote emitted text with no traceable origin.
const NoSource = -1

// Mapping is a single correspondence between a generated position and an
// original position. All line/column values are 0-based.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	SourceIndex     int // NoSource for an unmapped segment
	OriginalLine    int
	OriginalColumn  int
	NameIndex       int // NoName when absent
}

// Generator accumulates mappings for one generated file and serializes
// them to the v3 JSON format.
type Generator struct {
	file           string
	sourceRoot     string
	sources        []string
	sourcesContent []string
	hasContent     bool
	names          []string
	nameIndex      map[string]int
	mappings       []Mapping
}

// NewGenerator creates a generator for the named output file.
func NewGenerator(file string) *Generator {
	return &Generator{
		file:      file,
		nameIndex: make(map[string]int),
	}
}

// SetSourceRoot sets the optional sourceRoot field.
func (g *Generator) SetSourceRoot(root string) { g.sourceRoot = root }

// AddSource registers a source file path and returns its index.
func (g *Generator) AddSource(path string) int {
	index := len(g.sources)
	g.sources = append(g.sources, path)
	g.sourcesContent = append(g.sourcesContent, "")
	return index
}

// AddSourceWithContent registers a source file path with its original text
// embedded in the sourcesContent field, returning its index.
func (g *Generator) AddSourceWithContent(path, content string) int {
	index := g.AddSource(path)
	g.sourcesContent[index] = content
	g.hasContent = true
	return index
}

// AddName interns an identifier for the names table and returns its index.
// Lookup is value-based: the same identifier yields the same index.
func (g *Generator) AddName(name string) int {
	if idx, ok := g.nameIndex[name]; ok {
		return idx
	}
	idx := len(g.names)
	g.names = append(g.names, name)
	g.nameIndex[name] = idx
	return idx
}

// AddMapping appends one correspondence entry. Pass NoSource to record a
// generated position with no original position, and NoName when the entry
// carries no identifier.
func (g *Generator) AddMapping(genLine, genCol, srcIndex, origLine, origCol, nameIndex int) {
	g.mappings = append(g.mappings, Mapping{
		GeneratedLine:   genLine,
		GeneratedColumn: genCol,
		SourceIndex:     srcIndex,
		OriginalLine:    origLine,
		OriginalColumn:  origCol,
		NameIndex:       nameIndex,
	})
}

// AddSimpleMapping appends a source-bearing entry without a name.
func (g *Generator) AddSimpleMapping(genLine, genCol, srcIndex, origLine, origCol int) {
	g.AddMapping(genLine, genCol, srcIndex, origLine, origCol, NoName)
}

// Mappings returns the accumulated entries in insertion order.
func (g *Generator) Mappings() []Mapping { return g.mappings }

// jsonMap mirrors the v3 schema.
type jsonMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// ToJSON serializes the source map as a v3 JSON document.
func (g *Generator) ToJSON() (string, error) {
	m := jsonMap{
		Version:  3,
		File:     g.file,
		Sources:  g.sources,
		Names:    g.names,
		Mappings: g.encodeMappings(),
	}
	if m.Sources == nil {
		m.Sources = []string{}
	}
	if m.Names == nil {
		m.Names = []string{}
	}
	if g.hasContent {
		m.SourcesContent = g.sourcesContent
	}
	out, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ToInlineComment serializes the map and wraps it in a base64 data-URI
// sourceMappingURL comment suitable for appending to the generated text.
func (g *Generator) ToInlineComment() (string, error) {
	js, err := g.ToJSON()
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(js))
	return "//# sourceMappingURL=data:application/json;base64," + encoded, nil
}

// encodeMappings produces the semicolon/comma-delimited VLQ stream.
// Every field is delta-encoded against the previous segment's value;
// the generated column additionally resets at each new generated line.
func (g *Generator) encodeMappings() string {
	// Mappings arrive in generation order from the printer, but sort
	// defensively so hand-built maps still serialize correctly.
	sorted := make([]Mapping, len(g.mappings))
	copy(sorted, g.mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GeneratedLine != sorted[j].GeneratedLine {
			return sorted[i].GeneratedLine < sorted[j].GeneratedLine
		}
		return sorted[i].GeneratedColumn < sorted[j].GeneratedColumn
	})

	buf := make([]byte, 0, len(sorted)*8)
	prevGenCol := 0
	prevSrc := 0
	prevOrigLine := 0
	prevOrigCol := 0
	prevName := 0
	line := 0
	firstInLine := true

	for _, m := range sorted {
		for line < m.GeneratedLine {
			buf = append(buf, ';')
			line++
			prevGenCol = 0
			firstInLine = true
		}
		if !firstInLine {
			buf = append(buf, ',')
		}
		firstInLine = false

		buf = AppendVLQ(buf, m.GeneratedColumn-prevGenCol)
		prevGenCol = m.GeneratedColumn

		if m.SourceIndex == NoSource {
			continue
		}
		buf = AppendVLQ(buf, m.SourceIndex-prevSrc)
		prevSrc = m.SourceIndex
		buf = AppendVLQ(buf, m.OriginalLine-prevOrigLine)
		prevOrigLine = m.OriginalLine
		buf = AppendVLQ(buf, m.OriginalColumn-prevOrigCol)
		prevOrigCol = m.OriginalColumn

		if m.NameIndex == NoName {
			continue
		}
		buf = AppendVLQ(buf, m.NameIndex-prevName)
		prevName = m.NameIndex
	}
	return string(buf)
}

// DecodeMappings parses a v3 mappings string back into mapping entries.
// It is the inverse of the encoder and exists for the conformance harness
// and tests that verify positional fidelity of emitted code.
func DecodeMappings(mappings string) ([]Mapping, error) {
	var out []Mapping
	line := 0
	prevGenCol := 0
	prevSrc := 0
	prevOrigLine := 0
	prevOrigCol := 0
	prevName := 0

	for i := 0; i < len(mappings); {
		switch mappings[i] {
		case ';':
			line++
			prevGenCol = 0
			i++
			continue
		case ',':
			i++
			continue
		}

		var fields [5]int
		count := 0
		for count < 5 && i < len(mappings) && mappings[i] != ',' && mappings[i] != ';' {
			v, n, err := DecodeVLQ(mappings[i:])
			if err != nil {
				return nil, err
			}
			fields[count] = v
			count++
			i += n
		}

		m := Mapping{
			GeneratedLine: line,
			SourceIndex:   NoSource,
			NameIndex:     NoName,
		}
		prevGenCol += fields[0]
		m.GeneratedColumn = prevGenCol
		if count >= 4 {
			prevSrc += fields[1]
			prevOrigLine += fields[2]
			prevOrigCol += fields[3]
			m.SourceIndex = prevSrc
			m.OriginalLine = prevOrigLine
			m.OriginalColumn = prevOrigCol
		}
		if count == 5 {
			prevName += fields[4]
			m.NameIndex = prevName
		}
		out = append(out, m)
	}
	return out, nil
}
