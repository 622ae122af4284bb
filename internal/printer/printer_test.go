package printer_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenchjs/quench/internal/lowering"
	"github.com/quenchjs/quench/internal/parser"
	"github.com/quenchjs/quench/internal/printer"
	"github.com/quenchjs/quench/internal/solver"
	"github.com/quenchjs/quench/internal/sourcemap"
)

func render(t *testing.T, src string, opts printer.Options) printer.Result {
	t.Helper()
	arena, diags := parser.ParseFile("test.ts", src)
	require.False(t, diags.HasErrors(), "parse errors: %v", diags.Diagnostics)
	oracle := solver.New(arena)
	rec := lowering.Lower(arena, oracle, lowering.Options{}, diags)
	return printer.Print(rec, opts)
}

func emit(t *testing.T, src string) string {
	t.Helper()
	return render(t, src, printer.Options{}).Code
}

func TestPlainProgramLayout(t *testing.T) {
	code := emit(t, `var x = 1;
function add(a, b) {
    return a + b;
}
add(x, 2);`)
	want := `var x = 1;
function add(a, b) {
    return a + b;
}
add(x, 2);
`
	assert.Equal(t, want, code)
}

func TestElseIfChaining(t *testing.T) {
	code := emit(t, `if (a) { b(); } else if (c) { d(); } else { e(); }`)
	want := `if (a) {
    b();
} else if (c) {
    d();
} else {
    e();
}
`
	assert.Equal(t, want, code)
}

func TestNonBlockBodiesIndent(t *testing.T) {
	code := emit(t, `while (ready())
    step();`)
	assert.Equal(t, "while (ready())\n    step();\n", code)
}

func TestParensSurviveRoundTrip(t *testing.T) {
	code := emit(t, `var y = (a + b) * c;`)
	assert.Contains(t, code, "var y = (a + b) * c;")
}

func TestStringEscapes(t *testing.T) {
	code := emit(t, `var s = 'say "hi"\n\t\\';`)
	assert.Contains(t, code, `var s = "say \"hi\"\n\t\\";`)
}

func TestWordOperatorSpacing(t *testing.T) {
	code := emit(t, `var ok = key in table && box instanceof Box;
var kind = typeof value;
delete table[key];`)
	assert.Contains(t, code, "key in table && box instanceof Box")
	assert.Contains(t, code, "typeof value")
	assert.Contains(t, code, "delete table[key];")
}

func TestConditionalAndAssignment(t *testing.T) {
	code := emit(t, `var v = flag ? a : b;
v += step;`)
	assert.Contains(t, code, "var v = flag ? a : b;")
	assert.Contains(t, code, "v += step;")
}

func TestArrayHoles(t *testing.T) {
	code := emit(t, `var a = [1, , 3];
var b = [1, ,];`)
	assert.Contains(t, code, "var a = [1, , 3];")
	// A trailing hole needs the extra comma to survive re-parsing.
	assert.Contains(t, code, "var b = [1, ,];")
}

func TestObjectLiteralKeys(t *testing.T) {
	code := emit(t, `var o = { plain: 1, "two words": 2, 3: three };`)
	assert.Contains(t, code, `plain: 1`)
	assert.Contains(t, code, `"two words": 2`)
	assert.Contains(t, code, `3: three`)
}

func TestSwitchLayout(t *testing.T) {
	code := emit(t, `switch (mode) {
case 1:
    one();
    break;
default:
    rest();
}`)
	want := `switch (mode) {
    case 1:
        one();
        break;
    default:
        rest();
}
`
	assert.Equal(t, want, code)
}

func TestHelpersEmitInFixedOrder(t *testing.T) {
	code := emit(t, `class Base {}
class Child extends Base {}
var merged = { ...partial };
async function go() { return await merged; }`)
	extends := strings.Index(code, "var __extends =")
	assign := strings.Index(code, "var __assign =")
	awaiter := strings.Index(code, "var __awaiter =")
	generator := strings.Index(code, "var __generator =")
	require.True(t, extends >= 0 && assign >= 0 && awaiter >= 0 && generator >= 0,
		"missing helper in output:\n%s", code)
	assert.Less(t, extends, assign)
	assert.Less(t, assign, awaiter)
	assert.Less(t, awaiter, generator)
	assert.Equal(t, 1, strings.Count(code, "var __awaiter ="))
}

func TestHelpersOnlyWhenNeeded(t *testing.T) {
	code := emit(t, `var x = 1;`)
	assert.NotContains(t, code, "__extends")
	assert.NotContains(t, code, "__awaiter")
}

func TestSourceMapCollectsIdentifierNames(t *testing.T) {
	res := render(t, `function greet(name) { return name; }`, printer.Options{
		SourceMap: true,
		OutFile:   "test.js",
	})
	require.NotNil(t, res.Map)

	js, err := res.Map.ToJSON()
	require.NoError(t, err)
	var m struct {
		Version  int      `json:"version"`
		Sources  []string `json:"sources"`
		Names    []string `json:"names"`
		Mappings string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &m))
	assert.Equal(t, 3, m.Version)
	assert.Equal(t, []string{"test.ts"}, m.Sources)
	assert.Contains(t, m.Names, "name")

	decoded, err := sourcemap.DecodeMappings(m.Mappings)
	require.NoError(t, err)
	nameIdx := -1
	for i, n := range m.Names {
		if n == "name" {
			nameIdx = i
		}
	}
	found := false
	for _, seg := range decoded {
		if seg.NameIndex == nameIdx && seg.OriginalLine == 0 && seg.OriginalColumn == 15 {
			found = true
		}
	}
	assert.True(t, found, "no mapping for the parameter identifier: %+v", decoded)
}

func TestSourceMapFallbackForSynthesizedCode(t *testing.T) {
	res := render(t, `async function run(value) { return await value; }`, printer.Options{
		SourceMap: true,
		OutFile:   "test.js",
	})
	require.NotNil(t, res.Map)
	for _, seg := range res.Map.Mappings() {
		assert.Equal(t, 0, seg.SourceIndex)
		assert.GreaterOrEqual(t, seg.OriginalLine, 0)
		assert.GreaterOrEqual(t, seg.OriginalColumn, 0)
	}
}

func TestEmbedSourcesContent(t *testing.T) {
	src := `var answer = 42;`
	res := render(t, src, printer.Options{
		SourceMap:   true,
		OutFile:     "test.js",
		EmbedSource: true,
	})
	js, err := res.Map.ToJSON()
	require.NoError(t, err)
	var m struct {
		SourcesContent []string `json:"sourcesContent"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &m))
	require.Len(t, m.SourcesContent, 1)
	assert.Equal(t, src, m.SourcesContent[0])
}
