package lexer

import "testing"

func TestBasicTokens(t *testing.T) {
	input := `async function run(value) {
	return await value;
}`

	tests := []struct {
		expectedType  TokenType
		expectedValue string
	}{
		{TokenAsync, "async"},
		{TokenFunction, "function"},
		{TokenIdent, "run"},
		{TokenLParen, "("},
		{TokenIdent, "value"},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenAwait, "await"},
		{TokenIdent, "value"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedValue {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedValue, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `=== !== >>> >>>= ?? ... => ** ++ <<=`

	expected := []TokenType{
		TokenStrictEq, TokenStrictNe, TokenUShr, TokenUShrAssign,
		TokenNullish, TokenEllipsis, TokenArrow, TokenPow, TokenInc,
		TokenShlAssign, TokenEOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected=%q, got=%q (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestTokenOffsets(t *testing.T) {
	input := "let x = 10;"
	l := New(input)

	tests := []struct {
		start int
		end   int
	}{
		{0, 3},  // let
		{4, 5},  // x
		{6, 7},  // =
		{8, 10}, // 10
		{10, 11}, // ;
	}
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Start != tt.start || tok.End != tt.end {
			t.Fatalf("tests[%d] - span [%d,%d), want [%d,%d)", i, tok.Start, tok.End, tt.start, tt.end)
		}
	}
}

func TestBaseOffset(t *testing.T) {
	l := NewAt("a + b", 100)
	tok := l.NextToken()
	if tok.Start != 100 || tok.End != 101 {
		t.Fatalf("base offset not applied: [%d,%d)", tok.Start, tok.End)
	}
}

func TestNewlineBefore(t *testing.T) {
	input := "a\nb c"
	l := New(input)

	a := l.NextToken()
	b := l.NextToken()
	c := l.NextToken()

	if a.NewlineBefore {
		t.Fatal("first token should not report a preceding newline")
	}
	if !b.NewlineBefore {
		t.Fatal("token after newline must report it")
	}
	if c.NewlineBefore {
		t.Fatal("same-line token must not report a newline")
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\t\"c\""`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("expected string, got %s", tok.Type)
	}
	if tok.Literal != "a\nb\t\"c\"" {
		t.Fatalf("cooked value = %q", tok.Literal)
	}
}

func TestComments(t *testing.T) {
	input := "a // line comment\n/* block\ncomment */ b"
	l := New(input)

	a := l.NextToken()
	b := l.NextToken()
	if a.Literal != "a" || b.Literal != "b" {
		t.Fatalf("comments not skipped: %q %q", a.Literal, b.Literal)
	}
	if !b.NewlineBefore {
		t.Fatal("newline inside skipped trivia must be reported")
	}
}

func TestRegexVersusDivision(t *testing.T) {
	l := New("a / b")
	l.NextToken() // a
	if tok := l.NextToken(); tok.Type != TokenDiv {
		t.Fatalf("expected division, got %s", tok.Type)
	}

	l = New("x = /ab[/]c/gi;")
	l.NextToken() // x
	l.NextToken() // =
	tok := l.NextToken()
	if tok.Type != TokenRegex {
		t.Fatalf("expected regex, got %s", tok.Type)
	}
	if tok.Literal != "/ab[/]c/gi" {
		t.Fatalf("regex literal = %q", tok.Literal)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{".5", ".5"},
		{"1e10", "1e10"},
		{"2.5e-3", "2.5e-3"},
		{"0xff", "0xff"},
		{"0b101", "0b101"},
	}
	for i, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != TokenNumber || tok.Literal != tt.text {
			t.Fatalf("tests[%d] - got %s %q", i, tok.Type, tok.Literal)
		}
	}
}

func TestTemplateScan(t *testing.T) {
	l := New("`a ${b + 1} c`")
	tok := l.NextToken()
	if tok.Type != TokenTemplate {
		t.Fatalf("expected template, got %s", tok.Type)
	}
	if tok.Literal != "a ${b + 1} c" {
		t.Fatalf("raw = %q", tok.Literal)
	}

	segs := SplitTemplate(tok.Literal, tok.Start+1)
	if len(segs) != 3 {
		t.Fatalf("segments = %d", len(segs))
	}
	if segs[0].Expr || segs[0].Text != "a " {
		t.Fatalf("segs[0] = %+v", segs[0])
	}
	if !segs[1].Expr || segs[1].Text != "b + 1" {
		t.Fatalf("segs[1] = %+v", segs[1])
	}
	if segs[1].Start != 5 {
		t.Fatalf("substitution start = %d, want 5", segs[1].Start)
	}
	if segs[2].Expr || segs[2].Text != " c" {
		t.Fatalf("segs[2] = %+v", segs[2])
	}
}

func TestNestedTemplateBraces(t *testing.T) {
	l := New("`x ${ {a: '}'} } y`")
	tok := l.NextToken()
	if tok.Type != TokenTemplate {
		t.Fatalf("expected template, got %s (%q)", tok.Type, tok.Literal)
	}
	segs := SplitTemplate(tok.Literal, tok.Start+1)
	if len(segs) != 3 || !segs[1].Expr {
		t.Fatalf("segments = %+v", segs)
	}
}

func TestTypeKeywordToken(t *testing.T) {
	l := New("type Alias = number;")

	expected := []TokenType{
		TokenTypeKeyword, TokenIdent, TokenAssign, TokenIdent,
		TokenSemicolon, TokenEOF,
	}
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected=%q, got=%q (%q)", i, want, tok.Type, tok.Literal)
		}
	}
	if TokenTypeKeyword.String() != "TYPE" {
		t.Fatalf("TokenTypeKeyword name = %q", TokenTypeKeyword.String())
	}
}
