package evaluator

import (
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// BuiltinInfo describes a builtin function for introspection.
type BuiltinInfo struct {
	Name        string   `json:"name"`
	Arity       string   `json:"arity"`
	Params      []string `json:"params,omitempty"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
}

// builtins are consulted only after every scope misses.
var builtins map[string]*Builtin

// BuiltinMetadata documents every entry of the builtin table.
var BuiltinMetadata = map[string]BuiltinInfo{
	"len":                 {Name: "len", Arity: "1", Params: []string{"value"}, Category: "collections", Description: "Number of elements of an array, runes of a string or keys of a hash"},
	"puts":                {Name: "puts", Arity: "0+", Params: []string{"values..."}, Category: "output", Description: "Write values to standard output without a newline"},
	"putsln":              {Name: "putsln", Arity: "0+", Params: []string{"values..."}, Category: "output", Description: "Write values to standard output followed by a newline"},
	"eputs":               {Name: "eputs", Arity: "0+", Params: []string{"values..."}, Category: "output", Description: "Write values to standard error without a newline"},
	"eputsln":             {Name: "eputsln", Arity: "0+", Params: []string{"values..."}, Category: "output", Description: "Write values to standard error followed by a newline"},
	"exit":                {Name: "exit", Arity: "1", Params: []string{"code"}, Category: "process", Description: "Stop the program with an integer exit status"},
	"to_int":              {Name: "to_int", Arity: "1", Params: []string{"value"}, Category: "conversion", Description: "Convert an int, float, numeric string or bool to an int"},
	"to_float":            {Name: "to_float", Arity: "1", Params: []string{"value"}, Category: "conversion", Description: "Convert an int, float or numeric string to a float"},
	"to_str":              {Name: "to_str", Arity: "1", Params: []string{"value"}, Category: "conversion", Description: "Render any value as a string"},
	"read":                {Name: "read", Arity: "0", Category: "input", Description: "Read one line from standard input, without the newline"},
	"read_file_as_string": {Name: "read_file_as_string", Arity: "1", Params: []string{"path"}, Category: "input", Description: "Read a whole file into a string"},
}

func init() {
	builtins = map[string]*Builtin{
		"len":                 {Name: "len", Fn: builtinLen},
		"puts":                {Name: "puts", Fn: printer(stdout, false)},
		"putsln":              {Name: "putsln", Fn: printer(stdout, true)},
		"eputs":               {Name: "eputs", Fn: printer(stderr, false)},
		"eputsln":             {Name: "eputsln", Fn: printer(stderr, true)},
		"exit":                {Name: "exit", Fn: builtinExit},
		"to_int":              {Name: "to_int", Fn: builtinToInt},
		"to_float":            {Name: "to_float", Fn: builtinToFloat},
		"to_str":              {Name: "to_str", Fn: builtinToStr},
		"read":                {Name: "read", Fn: builtinRead},
		"read_file_as_string": {Name: "read_file_as_string", Fn: builtinReadFile},
	}
}

// BuiltinNames returns the names of all builtins.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}

func arity(name string, want int, args []Object) (Outcome, bool) {
	if len(args) != want {
		return failed(newArityError(name, strconv.Itoa(want), len(args))), false
	}
	return Outcome{}, true
}

func builtinLen(_ *Environment, args ...Object) Outcome {
	if out, ok := arity("len", 1, args); !ok {
		return out
	}

	switch arg := args[0].(type) {
	case *Array:
		return normal(&Integer{Value: int64(len(arg.Elements))})
	case *String:
		return normal(&Integer{Value: int64(len([]rune(arg.Value)))})
	case *Hash:
		return normal(&Integer{Value: int64(arg.Len())})
	default:
		return failed(newArgumentTypeError("len", args[0]))
	}
}

type stream int

const (
	stdout stream = iota
	stderr
)

// printer builds the puts family. The arguments are concatenated without a
// separator and the text is returned as a string.
func printer(to stream, newline bool) BuiltinFunction {
	return func(env *Environment, args ...Object) Outcome {
		var sb strings.Builder
		for _, arg := range args {
			sb.WriteString(arg.Inspect())
		}
		text := sb.String()

		logger := env.Runtime.Stdout
		if to == stderr {
			logger = env.Runtime.Stderr
		}
		if newline {
			logger.LogLine(text)
		} else {
			logger.Log(text)
		}
		return normal(&String{Value: text})
	}
}

func builtinExit(_ *Environment, args ...Object) Outcome {
	if out, ok := arity("exit", 1, args); !ok {
		return out
	}
	code, ok := args[0].(*Integer)
	if !ok {
		return failed(newExpectedTypeError("exit", INTEGER_OBJ, args[0]))
	}
	return exited(int(code.Value))
}

func builtinToInt(_ *Environment, args ...Object) Outcome {
	if out, ok := arity("to_int", 1, args); !ok {
		return out
	}

	switch arg := args[0].(type) {
	case *Integer:
		return normal(arg)
	case *Float:
		if math.IsNaN(arg.Value) || arg.Value < math.MinInt64 || arg.Value >= math.MaxInt64 {
			return failed(newConversionError(arg, INTEGER_OBJ))
		}
		return normal(&Integer{Value: int64(arg.Value)})
	case *String:
		n, err := strconv.ParseInt(strings.TrimSpace(arg.Value), 10, 64)
		if err != nil {
			return failed(newConversionError(arg, INTEGER_OBJ))
		}
		return normal(&Integer{Value: n})
	case *Boolean:
		if arg.Value {
			return normal(&Integer{Value: 1})
		}
		return normal(&Integer{Value: 0})
	default:
		return failed(newArgumentTypeError("to_int", args[0]))
	}
}

func builtinToFloat(_ *Environment, args ...Object) Outcome {
	if out, ok := arity("to_float", 1, args); !ok {
		return out
	}

	switch arg := args[0].(type) {
	case *Integer:
		return normal(&Float{Value: float64(arg.Value)})
	case *Float:
		return normal(arg)
	case *String:
		f, err := strconv.ParseFloat(strings.TrimSpace(arg.Value), 64)
		if err != nil {
			return failed(newConversionError(arg, FLOAT_OBJ))
		}
		return normal(&Float{Value: f})
	default:
		return failed(newArgumentTypeError("to_float", args[0]))
	}
}

func builtinToStr(_ *Environment, args ...Object) Outcome {
	if out, ok := arity("to_str", 1, args); !ok {
		return out
	}
	if s, ok := args[0].(*String); ok {
		return normal(s)
	}
	return normal(&String{Value: args[0].Inspect()})
}

func builtinRead(env *Environment, args ...Object) Outcome {
	if out, ok := arity("read", 0, args); !ok {
		return out
	}

	in := env.Runtime.Stdin
	if in == nil {
		return fail("IO-0003", nil)
	}

	line, err := in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return fail("IO-0002", map[string]any{"Error": err.Error()})
		}
		if line == "" {
			return fail("IO-0003", nil)
		}
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return normal(&String{Value: line})
}

func builtinReadFile(_ *Environment, args ...Object) Outcome {
	if out, ok := arity("read_file_as_string", 1, args); !ok {
		return out
	}
	path, ok := args[0].(*String)
	if !ok {
		return failed(newExpectedTypeError("read_file_as_string", STRING_OBJ, args[0]))
	}

	data, err := os.ReadFile(path.Value)
	if err != nil {
		return fail("IO-0001", map[string]any{"Path": path.Value, "Error": err.Error()})
	}
	return normal(&String{Value: string(data)})
}
