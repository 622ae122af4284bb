// Package solver provides the read-only constant oracle the lowering
// passes query. It covers what downleveling actually needs: enum member
// values, computed by constant-folding initializers with auto-increment
// for the gaps. Full type checking is out of scope.
package solver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quenchjs/quench/internal/ast"
)

// EnumValue is the resolved value of one enum member. Exactly one of the
// numeric and string forms applies.
type EnumValue struct {
	Name     string
	Number   float64
	Str      string
	IsString bool
	// Computed marks members whose initializer could not be folded; the
	// lowering emits the original expression instead of the constant.
	Computed bool
}

// Format renders the value as JavaScript source text.
func (v EnumValue) Format() string {
	if v.IsString {
		return strconv.Quote(v.Str)
	}
	return FormatNumber(v.Number)
}

// FormatNumber renders a float the way JavaScript prints numbers:
// integral values without a decimal point.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Oracle answers constant queries against one parsed file. It is built
// once after parsing and never mutated by the lowering passes.
type Oracle struct {
	arena *ast.Arena
	// enum member node id -> resolved value
	members map[ast.NodeID]EnumValue
	// const enum name -> member name -> value, for call-site inlining
	constEnums map[string]map[string]EnumValue
}

// New walks the arena and resolves every enum declaration it finds,
// including enums nested in exported declarations.
func New(arena *ast.Arena) *Oracle {
	o := &Oracle{
		arena:      arena,
		members:    make(map[ast.NodeID]EnumValue),
		constEnums: make(map[string]map[string]EnumValue),
	}
	o.walk(arena.Root())
	return o
}

func (o *Oracle) walk(id ast.NodeID) {
	if id == ast.InvalidNode {
		return
	}
	n := o.arena.Get(id)
	if n.Kind == ast.KindEnumDecl {
		o.resolveEnum(id)
	}
	ast.EachChild(n, func(child ast.NodeID) {
		o.walk(child)
	})
}

// Member returns the resolved value for an enum member node.
func (o *Oracle) Member(id ast.NodeID) (EnumValue, bool) {
	v, ok := o.members[id]
	return v, ok
}

// ConstMember resolves a member of a const enum by name, for inlining
// E.Member references at use sites.
func (o *Oracle) ConstMember(enumName, member string) (EnumValue, bool) {
	members, ok := o.constEnums[enumName]
	if !ok {
		return EnumValue{}, false
	}
	v, ok := members[member]
	if !ok || v.Computed {
		return EnumValue{}, false
	}
	return v, true
}

// resolveEnum folds member initializers in declaration order. A member
// without an initializer takes the previous numeric value plus one;
// after a string or computed member the auto-increment chain is broken
// and a missing initializer is an error surfaced as a computed member.
func (o *Oracle) resolveEnum(enumID ast.NodeID) {
	decl := o.arena.Get(enumID)
	next := 0.0
	haveNext := true
	names := make(map[string]EnumValue, len(decl.List))

	for _, memberID := range decl.List {
		m := o.arena.Get(memberID)
		var v EnumValue
		v.Name = m.Text

		if m.A == ast.InvalidNode {
			if haveNext {
				v.Number = next
			} else {
				v.Computed = true
			}
		} else if folded, ok := o.fold(m.A, names); ok {
			v = folded
			v.Name = m.Text
		} else {
			v.Computed = true
		}

		if !v.IsString && !v.Computed {
			next = v.Number + 1
			haveNext = true
		} else {
			haveNext = false
		}
		names[m.Text] = v
		o.members[memberID] = v
	}
	if decl.Flags&ast.FlagConstEnum != 0 {
		o.constEnums[decl.Text] = names
	}
}

// fold evaluates a constant initializer expression. Prior members of the
// same enum are visible by name.
func (o *Oracle) fold(id ast.NodeID, names map[string]EnumValue) (EnumValue, bool) {
	n := o.arena.Get(id)
	switch n.Kind {
	case ast.KindNumberLit:
		f, err := parseNumber(n.Text)
		if err != nil {
			return EnumValue{}, false
		}
		return EnumValue{Number: f}, true
	case ast.KindStringLit:
		return EnumValue{Str: n.Text, IsString: true}, true
	case ast.KindIdent:
		v, ok := names[n.Text]
		if !ok || v.Computed {
			return EnumValue{}, false
		}
		return v, true
	case ast.KindParen:
		return o.fold(n.A, names)
	case ast.KindUnary:
		v, ok := o.fold(n.A, names)
		if !ok || v.IsString {
			return EnumValue{}, false
		}
		switch n.Text {
		case "-":
			v.Number = -v.Number
		case "+":
			// no-op on numbers
		case "~":
			v.Number = float64(^toInt32(v.Number))
		default:
			return EnumValue{}, false
		}
		return v, true
	case ast.KindBinary:
		left, ok := o.fold(n.A, names)
		if !ok {
			return EnumValue{}, false
		}
		right, ok := o.fold(n.B, names)
		if !ok {
			return EnumValue{}, false
		}
		return foldBinary(n.Text, left, right)
	}
	return EnumValue{}, false
}

func foldBinary(op string, left, right EnumValue) (EnumValue, bool) {
	// String concatenation is the only string-valued fold.
	if op == "+" && (left.IsString || right.IsString) {
		if left.IsString && right.IsString {
			return EnumValue{Str: left.Str + right.Str, IsString: true}, true
		}
		return EnumValue{}, false
	}
	if left.IsString || right.IsString {
		return EnumValue{}, false
	}
	a, b := left.Number, right.Number
	switch op {
	case "+":
		return EnumValue{Number: a + b}, true
	case "-":
		return EnumValue{Number: a - b}, true
	case "*":
		return EnumValue{Number: a * b}, true
	case "/":
		return EnumValue{Number: a / b}, true
	case "%":
		return EnumValue{Number: math.Mod(a, b)}, true
	case "**":
		return EnumValue{Number: math.Pow(a, b)}, true
	case "<<":
		return EnumValue{Number: float64(toInt32(a) << (toUint32(b) & 31))}, true
	case ">>":
		return EnumValue{Number: float64(toInt32(a) >> (toUint32(b) & 31))}, true
	case ">>>":
		return EnumValue{Number: float64(toUint32(a) >> (toUint32(b) & 31))}, true
	case "&":
		return EnumValue{Number: float64(toInt32(a) & toInt32(b))}, true
	case "|":
		return EnumValue{Number: float64(toInt32(a) | toInt32(b))}, true
	case "^":
		return EnumValue{Number: float64(toInt32(a) ^ toInt32(b))}, true
	}
	return EnumValue{}, false
}

// toInt32 applies the ToInt32 abstract operation.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

func toUint32(f float64) uint32 {
	return uint32(toInt32(f))
}

// parseNumber handles the numeric literal grammar as written in source:
// decimal, hex, binary, and octal forms.
func parseNumber(text string) (float64, error) {
	t := strings.ToLower(text)
	switch {
	case strings.HasPrefix(t, "0x"):
		u, err := strconv.ParseUint(t[2:], 16, 64)
		return float64(u), err
	case strings.HasPrefix(t, "0b"):
		u, err := strconv.ParseUint(t[2:], 2, 64)
		return float64(u), err
	case strings.HasPrefix(t, "0o"):
		u, err := strconv.ParseUint(t[2:], 8, 64)
		return float64(u), err
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("bad numeric literal %q: %w", text, err)
	}
	return f, nil
}
