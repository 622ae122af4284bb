package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQKnownValues(t *testing.T) {
	tests := []struct {
		value   int
		encoded string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{2, "E"},
		{15, "e"},
		{16, "gB"},
		{-16, "hB"},
		{511, "+f"},
		{1024, "ggC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.encoded, EncodeVLQ(tt.value), "encode %d", tt.value)
	}
}

func TestVLQRoundTrip(t *testing.T) {
	values := []int{0, 1, -1, 15, 16, -16, 31, 32, 1 << 10, -(1 << 10), 1 << 20, -(1 << 20), 123456789, -987654321}
	for _, v := range values {
		encoded := EncodeVLQ(v)
		decoded, n, err := DecodeVLQ(encoded)
		require.NoError(t, err, "decode %q", encoded)
		assert.Equal(t, v, decoded)
		assert.Equal(t, len(encoded), n, "full consumption of %q", encoded)
	}
}

func TestVLQDecodeErrors(t *testing.T) {
	_, _, err := DecodeVLQ("")
	assert.Error(t, err)
	_, _, err = DecodeVLQ("!")
	assert.Error(t, err)
	// Continuation bit set on the last character.
	_, _, err = DecodeVLQ("g")
	assert.Error(t, err)
}

func TestGeneratorEndToEnd(t *testing.T) {
	g := NewGenerator("output.js")
	src := g.AddSource("input.ts")
	require.Equal(t, 0, src)

	g.AddSimpleMapping(0, 0, src, 0, 0)
	g.AddSimpleMapping(0, 10, src, 0, 5)
	g.AddSimpleMapping(1, 0, src, 1, 0)

	js, err := g.ToJSON()
	require.NoError(t, err)

	var parsed struct {
		Version  int      `json:"version"`
		File     string   `json:"file"`
		Sources  []string `json:"sources"`
		Names    []string `json:"names"`
		Mappings string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &parsed))
	assert.Equal(t, 3, parsed.Version)
	assert.Equal(t, "output.js", parsed.File)
	assert.Equal(t, []string{"input.ts"}, parsed.Sources)
	assert.NotEmpty(t, parsed.Mappings)

	decoded, err := DecodeMappings(parsed.Mappings)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.Equal(t, Mapping{GeneratedLine: 0, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 0, OriginalColumn: 0, NameIndex: NoName}, decoded[0])
	assert.Equal(t, Mapping{GeneratedLine: 0, GeneratedColumn: 10, SourceIndex: 0, OriginalLine: 0, OriginalColumn: 5, NameIndex: NoName}, decoded[1])
	assert.Equal(t, Mapping{GeneratedLine: 1, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 1, OriginalColumn: 0, NameIndex: NoName}, decoded[2])
}

func TestNameInterning(t *testing.T) {
	g := NewGenerator("out.js")
	a := g.AddName("value")
	b := g.AddName("other")
	c := g.AddName("value")

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, c, "same identifier must reuse its index")
}

func TestNamedMappingRoundTrip(t *testing.T) {
	g := NewGenerator("out.js")
	src := g.AddSource("in.ts")
	name := g.AddName("run")
	g.AddMapping(0, 4, src, 0, 15, name)
	g.AddSimpleMapping(0, 9, src, 0, 20)

	js, err := g.ToJSON()
	require.NoError(t, err)
	var parsed jsonMap
	require.NoError(t, json.Unmarshal([]byte(js), &parsed))

	decoded, err := DecodeMappings(parsed.Mappings)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, name, decoded[0].NameIndex)
	assert.Equal(t, NoName, decoded[1].NameIndex)
}

func TestUnmappedSegments(t *testing.T) {
	g := NewGenerator("out.js")
	src := g.AddSource("in.ts")
	g.AddMapping(0, 0, NoSource, 0, 0, NoName)
	g.AddSimpleMapping(0, 8, src, 2, 4)

	js, err := g.ToJSON()
	require.NoError(t, err)
	var parsed jsonMap
	require.NoError(t, json.Unmarshal([]byte(js), &parsed))

	decoded, err := DecodeMappings(parsed.Mappings)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, NoSource, decoded[0].SourceIndex)
	assert.Equal(t, 0, decoded[1].SourceIndex)
	assert.Equal(t, 2, decoded[1].OriginalLine)
	assert.Equal(t, 4, decoded[1].OriginalColumn)
}

func TestSourcesContent(t *testing.T) {
	g := NewGenerator("out.js")
	g.AddSourceWithContent("in.ts", "const x = 1;")

	js, err := g.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"sourcesContent":["const x = 1;"]`)

	// Without embedded content the field is omitted entirely.
	g2 := NewGenerator("out.js")
	g2.AddSource("in.ts")
	js2, err := g2.ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, js2, "sourcesContent")
}

func TestInlineComment(t *testing.T) {
	g := NewGenerator("out.js")
	src := g.AddSource("in.ts")
	g.AddSimpleMapping(0, 0, src, 0, 0)

	comment, err := g.ToInlineComment()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(comment, "//# sourceMappingURL=data:application/json;base64,"))

	payload := strings.TrimPrefix(comment, "//# sourceMappingURL=data:application/json;base64,")
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	var parsed jsonMap
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, 3, parsed.Version)
}
