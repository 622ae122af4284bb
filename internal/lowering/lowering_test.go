package lowering_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quenchjs/quench/internal/ast"
	"github.com/quenchjs/quench/internal/lowering"
	"github.com/quenchjs/quench/internal/parser"
	"github.com/quenchjs/quench/internal/position"
	"github.com/quenchjs/quench/internal/printer"
	"github.com/quenchjs/quench/internal/solver"
)

func compile(t *testing.T, src string, opts lowering.Options) (string, *position.DiagnosticBag) {
	t.Helper()
	arena, diags := parser.ParseFile("test.ts", src)
	require.False(t, diags.HasErrors(), "parse errors: %v", diags.Diagnostics)
	oracle := solver.New(arena)
	rec := lowering.Lower(arena, oracle, opts, diags)
	res := printer.Print(rec, printer.Options{})
	return res.Code, diags
}

func lower(t *testing.T, src string) string {
	t.Helper()
	code, _ := compile(t, src, lowering.Options{})
	return code
}

func TestEnumLowering(t *testing.T) {
	code := lower(t, `enum Direction { Up, Down, Left = 10, Right }`)
	assert.Contains(t, code, "var Direction;")
	assert.Contains(t, code, "(function (Direction) {")
	assert.Contains(t, code, `Direction[Direction["Up"] = 0] = "Up";`)
	assert.Contains(t, code, `Direction[Direction["Down"] = 1] = "Down";`)
	assert.Contains(t, code, `Direction[Direction["Left"] = 10] = "Left";`)
	assert.Contains(t, code, `Direction[Direction["Right"] = 11] = "Right";`)
	assert.Contains(t, code, "})(Direction || (Direction = {}));")
}

func TestStringEnumHasNoReverseMap(t *testing.T) {
	code := lower(t, `enum Level { Low = "low", High = "high" }`)
	assert.Contains(t, code, `Level["Low"] = "low";`)
	assert.NotContains(t, code, `Level[Level["Low"]`)
}

func TestConstEnumInlining(t *testing.T) {
	code := lower(t, `const enum Color { Red, Green }
var c = Color.Green;`)
	assert.Contains(t, code, "1 /* Color.Green */")
	assert.NotContains(t, code, "var Color")
}

func TestClassLowering(t *testing.T) {
	code := lower(t, `class Point {
  x: number;
  constructor(x: number) { this.x = x; }
  norm() { return this.x; }
  static origin() { return new Point(0); }
}`)
	assert.Contains(t, code, "var Point = ")
	assert.Contains(t, code, "function Point(x)")
	assert.Contains(t, code, "Point.prototype.norm = function")
	assert.Contains(t, code, "Point.origin = function")
	assert.Contains(t, code, "return Point;")
}

func TestDerivedClassLowering(t *testing.T) {
	code := lower(t, `class Base { constructor(n: number) {} }
class Child extends Base {
  constructor() { super(1); }
  run() { super.toString(); }
}`)
	assert.Contains(t, code, "var __extends = ")
	assert.Contains(t, code, "__extends(Child, _super);")
	assert.Contains(t, code, "_super.call(this, 1) || this")
	assert.Contains(t, code, "_super.prototype.toString.call(this)")
}

func TestClassAccessors(t *testing.T) {
	code := lower(t, `class Box {
  get size() { return 1; }
  set size(v: number) {}
}`)
	assert.Contains(t, code, `Object.defineProperty(Box.prototype, "size", {`)
	assert.Contains(t, code, "get: function")
	assert.Contains(t, code, "set: function")
}

func TestArrowThisCapture(t *testing.T) {
	code := lower(t, `class Timer {
  ms = 0;
  start() {
    setInterval(() => { this.ms += 1; }, 1);
  }
}`)
	assert.Contains(t, code, "var _this = this;")
	assert.Contains(t, code, "_this.ms += 1;")
	assert.NotContains(t, code, "=>")
}

func TestTemplateLowering(t *testing.T) {
	code := lower(t, "var greeting = `Hello ${name}, you have ${count} items`;")
	assert.Contains(t, code, `"Hello " + (name) + ", you have " + (count) + " items"`)
	assert.NotContains(t, code, "`")
}

func TestTemplateLeadingExpression(t *testing.T) {
	code := lower(t, "var s = `${x}y`;")
	assert.Contains(t, code, `"" + (x) + "y"`)
}

func TestDefaultParams(t *testing.T) {
	code := lower(t, `function greet(name: string, suffix = "!") { return name + suffix; }`)
	assert.Contains(t, code, `if (suffix === void 0) { suffix = "!"; }`)
}

func TestRestParams(t *testing.T) {
	code := lower(t, `function sum(first: number, ...rest: number[]) { return rest.length; }`)
	assert.Contains(t, code, "var rest = [];")
	assert.Contains(t, code, "_i < arguments.length")
	assert.Contains(t, code, "rest[_i - 1] = arguments[_i];")
}

func TestObjectDestructuring(t *testing.T) {
	code := lower(t, `var { a, b: renamed, c = 5 } = source;`)
	assert.Contains(t, code, "= source")
	assert.Contains(t, code, ".a")
	assert.Contains(t, code, "renamed = ")
	assert.Contains(t, code, "=== void 0 ? 5 : ")
}

func TestObjectRestUsesHelper(t *testing.T) {
	code := lower(t, `var { keep, ...others } = source;`)
	assert.Contains(t, code, "var __rest = ")
	assert.Contains(t, code, `__rest(`)
	assert.Contains(t, code, `"keep"`)
}

func TestArrayDestructuring(t *testing.T) {
	code := lower(t, `var [first, , third, ...tail] = list;`)
	assert.Contains(t, code, "[0]")
	assert.Contains(t, code, "[2]")
	assert.Contains(t, code, ".slice(3)")
}

func TestObjectSpread(t *testing.T) {
	code := lower(t, `var merged = { ...base, extra: 1 };`)
	assert.Contains(t, code, "var __assign = ")
	assert.Contains(t, code, "__assign(")
}

func TestArraySpread(t *testing.T) {
	code := lower(t, `var all = [head, ...mid, tail];`)
	assert.Contains(t, code, ".concat(")
}

func TestCallSpread(t *testing.T) {
	code := lower(t, `fn(a, ...rest);`)
	assert.Contains(t, code, "fn.apply(void 0, ")
}

func TestMethodCallSpread(t *testing.T) {
	code := lower(t, `obj.fn(...args);`)
	assert.Contains(t, code, ".apply(obj, ")
}

func TestForOfLowering(t *testing.T) {
	code := lower(t, `for (const item of items) { consume(item); }`)
	assert.NotContains(t, code, " of ")
	assert.Contains(t, code, ".length")
	assert.Contains(t, code, "consume(item);")
}

func TestLetBecomesVar(t *testing.T) {
	code := lower(t, `let a = 1; const b = 2;`)
	assert.Contains(t, code, "var a = 1;")
	assert.Contains(t, code, "var b = 2;")
	assert.NotContains(t, code, "let ")
	assert.NotContains(t, code, "const ")
}

func TestBlockScopeCollisionRenames(t *testing.T) {
	code := lower(t, `function f(flag: boolean) {
  if (flag) {
    let x = 1;
    use(x);
  } else {
    let x = 2;
    use(x);
  }
}`)
	assert.Contains(t, code, "var x = 1;")
	assert.Contains(t, code, "var x_1 = 2;")
	assert.Contains(t, code, "use(x_1);")
}

func TestAsyncFunctionLowering(t *testing.T) {
	code := lower(t, `async function run(value) { return await value; }`)
	assert.Contains(t, code, "var __awaiter = ")
	assert.Contains(t, code, "var __generator = ")
	assert.Contains(t, code, "__awaiter(this, void 0, void 0, function () {")
	assert.Contains(t, code, "switch (_a.label)")
	assert.Contains(t, code, "[4 /*yield*/, value]")
	assert.Contains(t, code, "_a.sent()")
	assert.Contains(t, code, "[2 /*return*/")
	assert.NotContains(t, code, "await ")
}

func TestAsyncLoopStates(t *testing.T) {
	code := lower(t, `async function drain(queue) {
  while (queue.ready()) {
    await queue.pop();
  }
}`)
	assert.Contains(t, code, "[4 /*yield*/, queue.pop()]")
	assert.Contains(t, code, "[3 /*break*/")
	assert.Contains(t, code, "if (!(queue.ready())) return [3 /*break*/")
}

func TestAsyncTryFinallyOrdering(t *testing.T) {
	code := lower(t, `async function guarded(r) {
  try {
    await r.acquire();
  } finally {
    r.release();
  }
}`)
	assert.Contains(t, code, ".trys.push([")
	assert.Contains(t, code, "[7 /*endfinally*/]")
	assert.Contains(t, code, "r.release();")
}

func TestAsyncTryCatchBindsError(t *testing.T) {
	code := lower(t, `async function safe(p) {
  try {
    await p;
  } catch (e) {
    report(e);
  }
}`)
	assert.Contains(t, code, ".sent();")
	assert.Contains(t, code, "e_1 = ")
	assert.Contains(t, code, "report(e_1);")
}

func TestGeneratorLowering(t *testing.T) {
	code := lower(t, `function* counter() { yield 1; yield 2; }`)
	assert.Contains(t, code, "__generator(this, function (")
	assert.NotContains(t, code, "__awaiter")
	assert.Contains(t, code, "[4 /*yield*/, 1]")
	assert.Contains(t, code, "[4 /*yield*/, 2]")
}

func TestYieldResumeLabelsAreSequential(t *testing.T) {
	// The trampoline increments the label on yield, so each resume
	// case must immediately follow its yield case.
	code := lower(t, `async function two(a, b) {
  var x = await a;
  var y = await b;
  return x + y;
}`)
	assert.Contains(t, code, "case 0:")
	assert.Contains(t, code, "case 1:")
	assert.Contains(t, code, "case 2:")
	assert.Contains(t, code, "return [2 /*return*/, x + y];")
}

func TestAwaitInExpressionPreservesOrder(t *testing.T) {
	code := lower(t, `async function mix(a) { return first() + await a; }`)
	// first() must be stashed before the suspension.
	assert.Contains(t, code, "= first();")
	assert.Contains(t, code, "[4 /*yield*/, a]")
}

func TestAwaitInMethodCallKeepsReceiver(t *testing.T) {
	code := lower(t, `async function send(api, p) { return api.post(await p); }`)
	assert.Contains(t, code, ".call(")
	assert.Contains(t, code, "[4 /*yield*/, p]")
}

func TestAsyncGeneratorDegrades(t *testing.T) {
	code, diags := compile(t, `async function* stream() { yield 1; }`, lowering.Options{})
	assert.Contains(t, code, "/* quench: unsupported construct */")
	degraded := 0
	for _, d := range diags.Diagnostics {
		if d.Severity == position.SeverityDegraded {
			degraded++
		}
	}
	assert.Equal(t, 1, degraded)
}

func TestTaggedTemplateDegrades(t *testing.T) {
	code, diags := compile(t, "var s = tag`a${b}c`;", lowering.Options{})
	assert.Contains(t, code, "/* quench: unsupported construct */")
	assert.NotEmpty(t, diags.Diagnostics)
	assert.Contains(t, code, "tag`a${b}c`")
}

func TestCommonJSImports(t *testing.T) {
	code, _ := compile(t, `import def, { named, orig as alias } from "./dep";
import * as ns from "./tools";
import "./side-effect";
def(named, alias, ns);`, lowering.Options{Module: lowering.ModuleCommonJS})
	assert.Contains(t, code, `"use strict";`)
	assert.Contains(t, code, `Object.defineProperty(exports, "__esModule", { value: true });`)
	assert.Contains(t, code, `var dep_1 = require("./dep");`)
	assert.Contains(t, code, "var def = dep_1.default;")
	assert.Contains(t, code, "var named = dep_1.named;")
	assert.Contains(t, code, "var alias = dep_1.orig;")
	assert.Contains(t, code, `var ns = require("./tools");`)
	assert.Contains(t, code, `require("./side-effect");`)
}

func TestCommonJSExports(t *testing.T) {
	code, _ := compile(t, `export const answer = 42;
export function ask() { return answer; }
export default ask;
export { answer as result };`, lowering.Options{Module: lowering.ModuleCommonJS})
	assert.Contains(t, code, "var answer = 42;")
	assert.Contains(t, code, "exports.answer = answer;")
	assert.Contains(t, code, "exports.ask = ask;")
	assert.Contains(t, code, "exports.default = ask;")
	assert.Contains(t, code, "exports.result = answer;")
	assert.NotContains(t, code, "export ")
}

func TestCommonJSReExport(t *testing.T) {
	code, _ := compile(t, `export { helper as util } from "./helpers";`,
		lowering.Options{Module: lowering.ModuleCommonJS})
	assert.Contains(t, code, `require("./helpers");`)
	assert.Contains(t, code, "exports.util = ")
	assert.Contains(t, code, ".helper;")
}

func TestModuleNonePreservesImports(t *testing.T) {
	code, _ := compile(t, `import { a } from "./m";
export var b = a;`, lowering.Options{Module: lowering.ModuleNone})
	assert.Contains(t, code, `import { a } from "./m";`)
	assert.Contains(t, code, "export var b = a;")
	assert.NotContains(t, code, "require(")
}

func TestLoweringAlreadyPlainCodeIsStable(t *testing.T) {
	src := `var x = 1;
function add(a, b) {
    return a + b + x;
}
add(x, 2);
`
	once := lower(t, src)
	twice := lower(t, once)
	assert.Equal(t, once, twice)
}

func TestAsyncReturnAwaitEmission(t *testing.T) {
	code := lower(t, `async function run(value) {
    return await value;
}`)
	want := `function run(value) {
    return __awaiter(this, void 0, void 0, function () {
        var _b;
        return __generator(this, function (_a) {
            switch (_a.label) {
                case 0:
                    return [4 /*yield*/, value];
                case 1:
                    _b = _a.sent();
                    return [2 /*return*/, _b];
            }
        });
    });
}
`
	require.True(t, strings.HasSuffix(code, want), "emitted:\n%s", code)
}

func TestAsyncTryFinallyKeepsResumeBlock(t *testing.T) {
	code := lower(t, `async function f() {
  try {
    await a();
    work();
  } finally {
    cleanup();
  }
}`)
	assert.Contains(t, code, "_a.trys.push([1, , 3, 4]);")
	assert.Contains(t, code, "return [4 /*yield*/, a()];")

	// The resume case keeps both the sent() drain and the rest of the
	// try body, and leaves the region through the trampoline.
	sent := strings.Index(code, "_a.sent();")
	work := strings.Index(code, "work();")
	exit := strings.Index(code, "return [3 /*break*/, 4];")
	fin := strings.Index(code, "cleanup();")
	end := strings.Index(code, "return [7 /*endfinally*/];")
	require.True(t, sent >= 0 && work >= 0 && exit >= 0 && fin >= 0 && end >= 0, code)
	assert.Less(t, sent, work)
	assert.Less(t, work, exit)
	assert.Less(t, exit, fin)
	assert.Less(t, fin, end)
}

func TestAwaitInLoopConditionKeepsDispatcher(t *testing.T) {
	code := lower(t, `async function f(q) {
  for (; await q.ready();) {
    step();
  }
}`)
	assert.Contains(t, code, "switch (_a.label) {")
	assert.Contains(t, code, "return [4 /*yield*/, q.ready()];")
	assert.Contains(t, code, "if (!(_b)) return [3 /*break*/, 5];")
	assert.Contains(t, code, "case 5:")
	assert.Contains(t, code, "step();")
}

func TestLogicalAwaitKeepsYieldOperand(t *testing.T) {
	code := lower(t, `async function f(x) {
  return x && await g();
}`)
	assert.Contains(t, code, "_b = x;")
	assert.Contains(t, code, "return [4 /*yield*/, g()];")
	assert.Contains(t, code, "return [2 /*return*/, _b];")
	assert.NotContains(t, code, "[ /*yield*/]")
}

func TestArrowThisCaptureAvoidsUserName(t *testing.T) {
	code := lower(t, `function wrap(_this) {
  var f = () => this.x + _this.y;
  return f;
}`)
	assert.Contains(t, code, "var _this_1 = this;")
	assert.Contains(t, code, "_this_1.x + _this.y")
	assert.NotContains(t, code, "var _this = this;")
}

func TestReplacementChainsTerminate(t *testing.T) {
	arena, diags := parser.ParseFile("test.ts", "a; b;")
	require.False(t, diags.HasErrors(), "parse errors: %v", diags.Diagnostics)
	rec := lowering.NewRecord(arena, diags)

	rec.Replace(0, 0)
	assert.Equal(t, ast.NodeID(0), rec.Resolve(0))

	rec.Replace(0, 1)
	rec.Replace(1, 0)
	assert.Equal(t, ast.NodeID(1), rec.Resolve(0))
	assert.Equal(t, ast.NodeID(0), rec.Resolve(1))
	assert.Len(t, rec.Chain(0), 2)
}
