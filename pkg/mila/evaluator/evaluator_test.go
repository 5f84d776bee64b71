package evaluator

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sambeau/mila/pkg/mila/lexer"
	"github.com/sambeau/mila/pkg/mila/parser"
)

// testRun parses and evaluates input with captured output streams.
// configure, if non-nil, adjusts the runtime before evaluation.
func testRun(t *testing.T, input string, configure func(*Runtime)) (Outcome, string, string) {
	t.Helper()

	l := lexer.NewWithFilename(input, "test.mil")
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", input, errs)
	}

	var stdout, stderr bytes.Buffer
	rt := NewRuntime()
	rt.Stdout = NewWriterLogger(&stdout)
	rt.Stderr = NewWriterLogger(&stderr)
	rt.Stdin = bufio.NewReader(strings.NewReader(""))
	if configure != nil {
		configure(rt)
	}

	out := Eval(program, NewEnvironmentWithRuntime(rt))
	return out, stdout.String(), stderr.String()
}

// Helper to parse and evaluate code
func testEval(t *testing.T, input string) Outcome {
	t.Helper()
	out, _, _ := testRun(t, input, nil)
	return out
}

func testIntegerObject(t *testing.T, out Outcome, expected int64) bool {
	t.Helper()
	if out.Flow != Normal {
		t.Errorf("flow = %s, want normal (value %v)", out.Flow, inspect(out.Value))
		return false
	}
	result, ok := out.Value.(*Integer)
	if !ok {
		t.Errorf("object is not Integer. got=%T (%v)", out.Value, inspect(out.Value))
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%d, want=%d", result.Value, expected)
		return false
	}
	return true
}

func testBooleanObject(t *testing.T, out Outcome, expected bool) bool {
	t.Helper()
	result, ok := out.Value.(*Boolean)
	if !ok || out.Flow != Normal {
		t.Errorf("object is not Boolean. got=%T (%v), flow %s", out.Value, inspect(out.Value), out.Flow)
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%t, want=%t", result.Value, expected)
		return false
	}
	return true
}

func testInspect(t *testing.T, out Outcome, expected string) bool {
	t.Helper()
	if out.Flow != Normal {
		t.Errorf("flow = %s, want normal (value %v)", out.Flow, inspect(out.Value))
		return false
	}
	if got := inspect(out.Value); got != expected {
		t.Errorf("Inspect() = %q, want %q", got, expected)
		return false
	}
	return true
}

func testErrorObject(t *testing.T, out Outcome, expected string) *Error {
	t.Helper()
	err := out.Err()
	if err == nil {
		t.Errorf("no error returned. got flow %s, value %v", out.Flow, inspect(out.Value))
		return nil
	}
	if err.Message != expected {
		t.Errorf("wrong error message. got=%q, want=%q", err.Message, expected)
	}
	return err
}

func inspect(obj Object) string {
	if obj == nil {
		return "<no value>"
	}
	return obj.Inspect()
}

func TestEvalIntegerExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"5", 5},
		{"10", 10},
		{"-5", -5},
		{"5 + 5 + 5 + 5 - 10", 10},
		{"2 * 2 * 2 * 2 * 2", 32},
		{"-50 + 100 + -50", 0},
		{"5 * 2 + 10", 20},
		{"5 + 2 * 10", 25},
		{"20 + 2 * -10", 0},
		{"50 / 2 * 2 + 10", 60},
		{"2 * (5 + 10)", 30},
		{"3 * (3 * 3) + 10", 37},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", 50},
		{"-7 / 2", -3},
		{"7 % 3", 1},
		{"1 << 4", 16},
		{"256 >> 2", 64},
		{"1 + 1 << 2", 8},
		{"6 & 3", 2},
		{"6 | 3", 7},
		{"6 ^ 3", 5},
		{"!0", -1},
		{"!5", -6},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testIntegerObject(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestEvalFloatExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"10.0", "10.0"},
		{"1.5 + 2.25", "3.75"},
		{"-2.5", "-2.5"},
		{"7.0 / 2.0", "3.5"},
		{"2.0 * 3.0 - 1.0", "5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := testEval(t, tt.input)
			if _, ok := out.Value.(*Float); !ok {
				t.Fatalf("object is not Float. got=%T", out.Value)
			}
			testInspect(t, out, tt.expected)
		})
	}
}

func TestEvalBooleanExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1 < 2", true},
		{"1 > 2", false},
		{"1 <= 1", true},
		{"1 >= 2", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"1.5 < 2.5", true},
		{"2.5 == 2.5", true},
		{"true == true", true},
		{"true != false", true},
		{"(1 < 2) == true", true},
		{"1 < 2 == true", true},
		{`"a" < "b"`, true},
		{`"abc" == "abc"`, true},
		{`"b" >= "a"`, true},
		{`"a" != "a"`, false},
		{"8 < 10", true},
		{"true && !false", true},
		{"false && true", false},
		{"false || true", true},
		{"!true", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testBooleanObject(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	tests := []struct {
		input    string
		typ      ObjectType
		expected string
	}{
		{"10", INTEGER_OBJ, "10"},
		{"10.0", FLOAT_OBJ, "10.0"},
		{"true", BOOLEAN_OBJ, "true"},
		{`"abc"`, STRING_OBJ, "abc"},
		{`"Hello" + " " + "World!"`, STRING_OBJ, "Hello World!"},
		{"[1, 2 * 2, 3 + 3]", ARRAY_OBJ, "[1,4,6]"},
		{`|name: "mila", "age": 3|`, HASH_OBJ, "|name: mila, age: 3|"},
		{"fn add(a, b) { a + b }", FUNCTION_OBJ, "fn add(a, b) {...}"},
		{"len", BUILTIN_OBJ, "builtin len"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := testEval(t, tt.input)
			if out.Value == nil || out.Value.Type() != tt.typ {
				t.Fatalf("got %v, want a %s", inspect(out.Value), tt.typ)
			}
			testInspect(t, out, tt.expected)
		})
	}
}

func TestIfElseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"if true { 10 }", 10},
		{"if false { 10 }", nil},
		{"if 1 < 2 { 10 }", 10},
		{"if 1 > 2 { 10 }", nil},
		{"if 1 > 2 { 10 } else { 20 }", 20},
		{"if 1 < 2 { 10 } else { 20 }", 10},
		{"if 1 > 2 { 10 } else if 2 > 1 { 30 } else { 20 }", 30},
		{"if 1 > 2 { 10 } else if 2 > 3 { 30 }", nil},
		{"if (1 < 2) { 10 }", 10},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := testEval(t, tt.input)
			if integer, ok := tt.expected.(int); ok {
				testIntegerObject(t, out, int64(integer))
				return
			}
			if out.Flow != Normal || out.Value != nil {
				t.Errorf("expected no value, got %s %v", out.Flow, inspect(out.Value))
			}
		})
	}
}

func TestReturnStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"ret 10;", 10},
		{"return 10;", 10},
		{"ret 10; 9;", 10},
		{"ret 2 * 5; 9;", 10},
		{"9; ret 2 * 5; 9;", 10},
		{"if 10 > 1 { if 10 > 1 { ret 10; } ret 1; }", 10},
		{"let f = fn(x) { ret x; x + 10; }; f(10);", 10},
		{"let f = fn(x) { let result = x + 10; ret result; ret 10; }; f(10);", 20},
		{"let f = fn(n) { while true { ret n; } }; f(7)", 7},
		{"let f = fn() { ret 1; }; f() + f()", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testIntegerObject(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestBareReturnProducesNoValue(t *testing.T) {
	out := testEval(t, "let f = fn() { ret; 1 }; f()")
	if out.Flow != Normal || out.Value != nil {
		t.Errorf("got %s %v, want normal with no value", out.Flow, inspect(out.Value))
	}
}

func TestErrorHandling(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		code     string
	}{
		{"5 + true;", "type mismatch: int + bool", "TYPE-0001"},
		{"5 + true; 5;", "type mismatch: int + bool", "TYPE-0001"},
		{"1 + 1.0", "type mismatch: int + float", "TYPE-0001"},
		{"-true", "unknown operator: -bool", "OP-0002"},
		{`!"a"`, "unknown operator: !string", "OP-0002"},
		{"true + false;", "unknown operator: bool + bool", "OP-0001"},
		{"5; true + false; 5", "unknown operator: bool + bool", "OP-0001"},
		{"if 10 > 1 { true + false; }", "unknown operator: bool + bool", "OP-0001"},
		{"if 10 > 1 { if 10 > 1 { ret true + false; } ret 1; }", "unknown operator: bool + bool", "OP-0001"},
		{`"Hello" - "World"`, "unknown operator: string - string", "OP-0001"},
		{"1.0 % 2.0", "unknown operator: float % float", "OP-0001"},
		{"[1] + [2]", "unknown operator: array + array", "OP-0001"},
		{"foobar", "unknown word 'foobar'", "UNDEF-0001"},
		{"1 / 0", "division by zero", "OP-0003"},
		{"1 % 0", "modulo by zero", "OP-0004"},
		{"1.0 / 0.0", "division by zero", "OP-0003"},
		{"1 << -1", "negative shift count -1", "OP-0005"},
		{"if 1 { 2 }", "condition must be bool, got int", "TYPE-0004"},
		{"while 1 { 2 }", "condition must be bool, got int", "TYPE-0004"},
		{"let f = fn(x) { x }; f(1, 2)", "wrong number of arguments to f: want=1, got=2", "ARITY-0001"},
		{"fn(x, y) { x }(1)", "wrong number of arguments to fn: want=2, got=1", "ARITY-0001"},
		{"5()", "int is not a function", "TYPE-0003"},
		{"[1, 2][5]", "index out of range: 5 (length 2)", "INDEX-0001"},
		{"[1][-1]", "index out of range: -1 (length 1)", "INDEX-0001"},
		{`"ab"[2]`, "index out of range: 2 (length 2)", "INDEX-0001"},
		{`|a: 1|["b"]`, `key not found: "b"`, "UNDEF-0003"},
		{`let h = |a: 1|; h.b`, `key not found: "b"`, "UNDEF-0003"},
		{`1["a"]`, "index operator not supported: int[string]", "TYPE-0006"},
		{`[1]["a"]`, "index operator not supported: array[string]", "TYPE-0006"},
		{"let n = 1; n.foo", "int has no member 'foo'", "TYPE-0009"},
		{"len(1)", "argument to `len` not supported, got int", "TYPE-0002"},
		{"len(1, 2)", "wrong number of arguments to len: want=1, got=2", "ARITY-0001"},
		{`exit("a")`, "exit expected int, got string", "TYPE-0005"},
		{"let x = 1; x = 2", "cannot assign to immutable binding 'x'", "STATE-0004"},
		{"let x = 1; x += 2", "cannot assign to immutable binding 'x'", "STATE-0004"},
		{"y = 2", "unknown word 'y'", "UNDEF-0001"},
		{"var f = fn() { 1 }", "functions must be bound with let", "TYPE-0007"},
		{"var f = 1; f = fn() { 1 }", "functions must be bound with let", "TYPE-0007"},
		{"let x = while false { 1 }", "'x' bound to no value", "VALUE-0001"},
		{"1 + if false { 1 }", "expression produced no value", "VALUE-0002"},
		{"[].pop()", "array is empty", "STATE-0003"},
		{"[1].remove(3)", "invalid position 3", "INDEX-0002"},
		{"[1].replace(-1, 2)", "invalid position -1", "INDEX-0002"},
		{`[1].remove("0")`, "remove expected int, got string", "TYPE-0005"},
		{"[1].push_array(2)", "push_array expected array, got int", "TYPE-0005"},
		{"[1].push()", "wrong number of arguments to push: want=1+, got=0", "ARITY-0001"},
		{"[1].psh(2)", "unknown method 'psh' for array", "UNDEF-0002"},
		{`"a".trim(1)`, "wrong number of arguments to trim: want=0, got=1", "ARITY-0001"},
		{`"a".len()`, "unknown method 'len' for string", "UNDEF-0002"},
		{`to_int("abc")`, `cannot convert "abc" to int`, "TYPE-0008"},
		{`to_float("x1")`, `cannot convert "x1" to float`, "TYPE-0008"},
		{`to_int(to_float("1e300"))`, "cannot convert 1e+300 to int", "TYPE-0008"},
		{"to_int(-9223372036854775808.0 * 2.0)", "cannot convert -1.8446744073709552e+19 to int", "TYPE-0008"},
		{"to_int(9223372036854775807.0)", "cannot convert 9.223372036854776e+18 to int", "TYPE-0008"},
		{"to_int([1])", "argument to `to_int` not supported, got array", "TYPE-0002"},
		{"to_float(true)", "argument to `to_float` not supported, got bool", "TYPE-0002"},
		{"let f = fn() { }; f()", "empty statement sequence", "STATE-0001"},
		{"{ }", "empty statement sequence", "STATE-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := testErrorObject(t, testEval(t, tt.input), tt.expected)
			if err != nil && err.Code != tt.code {
				t.Errorf("code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorPosition(t *testing.T) {
	out := testEval(t, "let a = 1;\nlet b = a + true;")
	err := testErrorObject(t, out, "type mismatch: int + bool")
	if err == nil {
		return
	}
	if err.Line != 2 || err.Column != 11 {
		t.Errorf("position = %d:%d, want 2:11", err.Line, err.Column)
	}
	if err.File != "test.mil" {
		t.Errorf("file = %q, want test.mil", err.File)
	}
	if got := err.ToMilaError().String(); got != "test.mil:2:11: type mismatch: int + bool" {
		t.Errorf("String() = %q", got)
	}
}

func TestErrorPositionInsideFunction(t *testing.T) {
	out := testEval(t, "let f = fn(x) {\n  x / 0\n};\nf(1)")
	err := testErrorObject(t, out, "division by zero")
	if err != nil && (err.Line != 2 || err.Column != 5) {
		t.Errorf("position = %d:%d, want 2:5", err.Line, err.Column)
	}
}

func TestUndefinedHints(t *testing.T) {
	tests := []struct {
		input string
		hint  string
	}{
		{"let count = 1; cont", "Did you mean `count`?"},
		{"putln(1)", "Did you mean `putsln`?"},
		{"[1].psh(2)", "Did you mean `push`?"},
		{`" a ".trm()`, "Did you mean `trim`?"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := testEval(t, tt.input).Err()
			if err == nil {
				t.Fatal("expected an error")
			}
			if len(err.Hints) == 0 || err.Hints[0] != tt.hint {
				t.Errorf("hints = %v, want %q", err.Hints, tt.hint)
			}
		})
	}
}

func TestLetAndVarStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"let a = 5; a;", 5},
		{"let a = 5 * 5; a;", 25},
		{"let a = 5; let b = a; let c = a + b + 5; c;", 15},
		{"let a = 1; let a = 2; a", 2},
		{"var a = 1; a = a + 1; a", 2},
		{"var a = 1; a += 4; a", 5},
		{"var a = 10; a -= 4; a", 6},
		{"var a = 3; a *= 4; a", 12},
		{"var a = 12; a /= 4; a", 3},
		{"var a = 1; a = 5", 5},
		{"var a = 1; var b = 1; a = b = 7; a + b", 14},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testIntegerObject(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestLetStatementProducesNoValue(t *testing.T) {
	out := testEval(t, "let a = 1;")
	if out.Flow != Normal || out.Value != nil {
		t.Errorf("got %s %v, want normal with no value", out.Flow, inspect(out.Value))
	}
}

func TestScoping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"loop counter updates outer binding", "let a = 1; while a < 10 { let a = a + 1; } a", 10},
		{"block yields inner value", "let a = 1; { let a = 2; a }", 2},
		{"block let updates outer", "let a = 1; { let a = 2; }; a", 2},
		{"block-local binding", "{ let b = 2; }; let b = 5; b", 5},
		{"parameters shadow", "let x = 1; let f = fn(x) { x * 10 }; f(5) + x", 51},
		{"parameters stay local", "let x = 1; let f = fn(x) { let x = 99; x }; f(5) + x", 100},
		{"closure mutates var", "var n = 0; let inc = fn() { n += 1; }; inc(); inc(); n", 2},
		{"accumulator", "var total = 0; var i = 0; while i < 5 { i += 1; total += i; } total", 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testIntegerObject(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestBlockDeclarationKeepsOuterMutability(t *testing.T) {
	out := testEval(t, "let x = 1; { var x = 5; }; x = 7; x")
	testErrorObject(t, out, "cannot assign to immutable binding 'x'")

	out = testEval(t, "var y = 1; { let y = 2; }; y = 3; y")
	testIntegerObject(t, out, 3)
}

func TestWhileProducesNoValue(t *testing.T) {
	out := testEval(t, "var i = 0; while i < 3 { i += 1; }")
	if out.Flow != Normal || out.Value != nil {
		t.Errorf("got %s %v, want normal with no value", out.Flow, inspect(out.Value))
	}
}

func TestFunctionApplication(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"let identity = fn(x) { x; }; identity(5);", 5},
		{"let identity = fn(x) { ret x; }; identity(5);", 5},
		{"let double = fn(x) { x * 2; }; double(5);", 10},
		{"let add = fn(x, y) { x + y; }; add(5, 5);", 10},
		{"let add = fn(x, y) { x + y; }; add(5 + 5, add(5, 5));", 20},
		{"fn(x) { x; }(5)", 5},
		{"fn fact(n) { if n <= 1 { ret 1; } n * fact(n - 1) } fact(5)", 120},
		{"let fib = fn(n) { if n < 2 { ret n; } fib(n - 1) + fib(n - 2) }; fib(10)", 55},
		{"let newAdder = fn(x) { fn(y) { x + y }; }; let addTwo = newAdder(2); addTwo(2);", 4},
		{"let apply = fn(f, x) { f(x) }; apply(fn(n) { n + 1 }, 1)", 2},
		{"let f = fn(a, b,) { a - b }; f(5, 3,)", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testIntegerObject(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestArgumentsEvaluatedLeftToRight(t *testing.T) {
	_, stdout, _ := testRun(t, `let f = fn(a, b) { a }; f(puts("a"), puts("b"))`, nil)
	if stdout != "ab" {
		t.Errorf("stdout = %q, want %q", stdout, "ab")
	}
}

func TestFirstArgumentErrorAborts(t *testing.T) {
	out, stdout, _ := testRun(t, `putsln(1 / 0, puts("never"))`, nil)
	testErrorObject(t, out, "division by zero")
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
}

func TestArraysAndIndexing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[1, 2, 3][0]", "1"},
		{"[1, 2, 3][2]", "3"},
		{"let i = 0; [1][i]", "1"},
		{"[1, 2, 3][1 + 1]", "3"},
		{"let a = [1, 2, 3]; a[0] + a[1] + a[2]", "6"},
		{`"héllo"[1]`, "é"},
		{"[[1, 2], [3]][0][1]", "2"},
		{"let a = [1, 2]; a[0] = 5; a", "[5,2]"},
		{"var a = [1, 2]; a[1] *= 3; a", "[1,6]"},
		{"let a = [1, 2]; a[1] = 9", "9"},
		{"[]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testInspect(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestHashes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`let h = |name: "mila", "age": 3|; h.name`, "mila"},
		{`let h = |name: "mila", "age": 3|; h["age"]`, "3"},
		{`let h = |a: 1, b: 2,|; len(h)`, "2"},
		{"||", "||"},
		{"let h = |a: 1|; h.b = 2; h.a += 10; h.a + h.b", "13"},
		{`let h = |a: 1|; h["c"] = 3; h`, "|a: 1, c: 3|"},
		{"let h = |a: 1, b: 2|; h.a = 5; h", "|a: 5, b: 2|"},
		{"let h = |double: fn(x) { x * 2 }|; h.double(4)", "8"},
		{"let h = |items: [1, 2]|; h.items[1]", "2"},
		{"let h = |items: [1, 2]|; h.items.push(3); len(h.items)", "3"},
		{"let h = |bits: (1 | 2)|; h.bits", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testInspect(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestMethods(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let a = [1]; a.push(2, 3); a", "[1,2,3]"},
		{"let a = [1]; a.push(2)", "[1,2]"},
		{"let a = [1]; a.push_array([2, 3]); a", "[1,2,3]"},
		{"let a = [1, 2]; a.push_array(a); a", "[1,2,1,2]"},
		{"let a = [1, 2, 3]; a.pop()", "3"},
		{"let a = [1, 2, 3]; a.pop(); a", "[1,2]"},
		{"let a = [1, 2, 3]; a.remove(1)", "2"},
		{"let a = [1, 2, 3]; a.remove(1); a", "[1,3]"},
		{"let a = [1, 2, 3]; a.replace(0, 9); a", "[9,2,3]"},
		{"let a = [1]; let b = a; b.push(2); len(a)", "2"},
		{`"  hi  ".trim()`, "hi"},
		{`"\tpadded\n".trim()`, "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testInspect(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestBuiltinFunctions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`len("")`, "0"},
		{`len("four")`, "4"},
		{`len("héllo")`, "5"},
		{"len([1, 2, 3])", "3"},
		{"len([])", "0"},
		{"to_int(3.9)", "3"},
		{"to_int(-3.9)", "-3"},
		{`to_int(" 42 ")`, "42"},
		{"to_int(true)", "1"},
		{"to_int(false)", "0"},
		{"to_int(7)", "7"},
		{"to_float(2)", "2.0"},
		{`to_float("1.5")`, "1.5"},
		{"to_float(2.5)", "2.5"},
		{"to_str(12)", "12"},
		{"to_str(1.0)", "1.0"},
		{`to_str([1, "a"])`, "[1,a]"},
		{`to_str("s")`, "s"},
		{`puts("x", 2)`, "x2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testInspect(t, testEval(t, tt.input), tt.expected)
		})
	}
}

func TestOutputBuiltins(t *testing.T) {
	_, stdout, stderr := testRun(t, `puts("a", 1); putsln("b"); putsln(); eputs("e"); eputsln("rr", true)`, nil)

	if stdout != "a1b\n\n" {
		t.Errorf("stdout = %q, want %q", stdout, "a1b\n\n")
	}
	if stderr != "errtrue\n" {
		t.Errorf("stderr = %q, want %q", stderr, "errtrue\n")
	}
}

func TestExit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		code   int
		stdout string
	}{
		{"top level", "putsln(1); exit(3); putsln(2)", 3, "1\n"},
		{"inside loop in function", "let f = fn() { while true { exit(4); } }; f(); putsln(1)", 4, ""},
		{"zero", "exit(0)", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stdout, _ := testRun(t, tt.input, nil)
			if out.Flow != Exited {
				t.Fatalf("flow = %s, want exited", out.Flow)
			}
			if out.Code != tt.code {
				t.Errorf("code = %d, want %d", out.Code, tt.code)
			}
			if stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
		})
	}
}

func TestCallDepthLimit(t *testing.T) {
	limit := func(rt *Runtime) { rt.MaxDepth = 50 }

	out, _, _ := testRun(t, "let f = fn(n) { if n == 0 { ret 0; } f(n - 1) }; f(49)", limit)
	testIntegerObject(t, out, 0)

	var rt *Runtime
	out, _, _ = testRun(t, "let f = fn(n) { f(n + 1) }; f(0)", func(r *Runtime) {
		limit(r)
		rt = r
	})
	err := testErrorObject(t, out, "maximum call depth of 50 exceeded")
	if err != nil && err.Code != "STATE-0002" {
		t.Errorf("code = %q, want STATE-0002", err.Code)
	}
	if rt.Depth() != 0 {
		t.Errorf("depth after unwinding = %d, want 0", rt.Depth())
	}
}

func TestDeepRecursionWithDefaultLimit(t *testing.T) {
	out := testEval(t, "let f = fn(n) { f(n + 1) }; f(0)")
	testErrorObject(t, out, fmt.Sprintf("maximum call depth of %d exceeded", DefaultMaxDepth))
}

func TestRead(t *testing.T) {
	stdin := func(input string) func(*Runtime) {
		return func(rt *Runtime) {
			rt.Stdin = bufio.NewReader(strings.NewReader(input))
		}
	}

	out, _, _ := testRun(t, `let a = read(); let b = read(); a + "|" + b`, stdin("first\r\nsecond"))
	testInspect(t, out, "first|second")

	out, _, _ = testRun(t, "read(); read()", stdin("only\n"))
	err := testErrorObject(t, out, "end of input")
	if err != nil && err.Code != "IO-0003" {
		t.Errorf("code = %q, want IO-0003", err.Code)
	}

	out, _, _ = testRun(t, "read()", stdin("\n"))
	testInspect(t, out, "")
}

func TestReadFileAsString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := testEval(t, fmt.Sprintf("len(read_file_as_string(%q))", path))
	testIntegerObject(t, out, 18)

	out = testEval(t, fmt.Sprintf("read_file_as_string(%q)", filepath.Join(dir, "missing.txt")))
	err := out.Err()
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if err.Code != "IO-0001" || !strings.HasPrefix(err.Message, "failed to read file '") {
		t.Errorf("got %s %q", err.Code, err.Message)
	}

	testErrorObject(t, testEval(t, "read_file_as_string(1)"), "read_file_as_string expected string, got int")
}

func TestEmptyProgram(t *testing.T) {
	out := testEval(t, "")
	testErrorObject(t, out, "empty statement sequence")
}

func TestEvalNilNode(t *testing.T) {
	out := Eval(nil, NewEnvironment())
	if out.Flow != Normal || out.Value != nil {
		t.Errorf("got %s %v, want the zero outcome", out.Flow, inspect(out.Value))
	}
}

func TestApplyFunction(t *testing.T) {
	env := NewEnvironment()
	l := lexer.New("let add = fn(a, b) { a + b };")
	p := parser.New(l)
	Eval(p.ParseProgram(), env)

	fn, ok := env.Get("add")
	if !ok {
		t.Fatal("add not bound")
	}
	out := applyFunction(fn, []Object{&Integer{Value: 2}, &Integer{Value: 3}}, env)
	testIntegerObject(t, out, 5)
}
