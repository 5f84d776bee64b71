package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sambeau/mila/pkg/mila/ast"
	merrors "github.com/sambeau/mila/pkg/mila/errors"
)

// ObjectType represents the type of objects in our language. The values
// are the names users see in error messages.
type ObjectType string

const (
	INTEGER_OBJ  ObjectType = "int"
	FLOAT_OBJ    ObjectType = "float"
	BOOLEAN_OBJ  ObjectType = "bool"
	STRING_OBJ   ObjectType = "string"
	ERROR_OBJ    ObjectType = "error"
	FUNCTION_OBJ ObjectType = "function"
	BUILTIN_OBJ  ObjectType = "builtin"
	ARRAY_OBJ    ObjectType = "array"
	HASH_OBJ     ObjectType = "hash"
)

// Object represents all values in our language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer represents integer objects
type Integer struct {
	Value int64
}

func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) Type() ObjectType { return INTEGER_OBJ }

// Float represents floating-point objects
type Float struct {
	Value float64
}

func (f *Float) Inspect() string  { return formatFloat(f.Value) }
func (f *Float) Type() ObjectType { return FLOAT_OBJ }

// formatFloat renders like %g but keeps a decimal point on integral values.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// String represents string objects
type String struct {
	Value string
}

func (s *String) Inspect() string  { return s.Value }
func (s *String) Type() ObjectType { return STRING_OBJ }

// Array is a growable sequence shared by reference.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string { return inspectNested(a, nil) }

func (a *Array) inspectSeen(seen map[Object]bool) string {
	if seen[a] {
		return "[...]"
	}
	seen[a] = true
	defer delete(seen, a)

	elements := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		elements[i] = inspectNested(e, seen)
	}
	return "[" + strings.Join(elements, ",") + "]"
}

// Hash maps string keys to objects, remembering insertion order.
type Hash struct {
	Pairs map[string]Object
	Keys  []string
}

// NewHash creates an empty hash.
func NewHash() *Hash {
	return &Hash{Pairs: make(map[string]Object)}
}

func (h *Hash) Type() ObjectType { return HASH_OBJ }
func (h *Hash) Inspect() string { return inspectNested(h, nil) }

func (h *Hash) inspectSeen(seen map[Object]bool) string {
	if seen[h] {
		return "|...|"
	}
	seen[h] = true
	defer delete(seen, h)

	pairs := make([]string, len(h.Keys))
	for i, key := range h.Keys {
		pairs[i] = key + ": " + inspectNested(h.Pairs[key], seen)
	}
	return "|" + strings.Join(pairs, ", ") + "|"
}

// inspectNested renders obj, printing a container that is already being
// rendered further up as [...] or |...|.
func inspectNested(obj Object, seen map[Object]bool) string {
	switch c := obj.(type) {
	case *Array:
		if seen == nil {
			seen = make(map[Object]bool)
		}
		return c.inspectSeen(seen)
	case *Hash:
		if seen == nil {
			seen = make(map[Object]bool)
		}
		return c.inspectSeen(seen)
	}
	return obj.Inspect()
}

// Get returns the value stored under key.
func (h *Hash) Get(key string) (Object, bool) {
	val, ok := h.Pairs[key]
	return val, ok
}

// Set stores val under key; new keys go to the end of the order.
func (h *Hash) Set(key string, val Object) {
	if _, ok := h.Pairs[key]; !ok {
		h.Keys = append(h.Keys, key)
	}
	h.Pairs[key] = val
}

// Len returns the number of keys.
func (h *Hash) Len() int { return len(h.Keys) }

// Function is a closure over the environment it was defined in.
type Function struct {
	Name       string // empty for anonymous functions
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.Value
	}

	name := ""
	if f.Name != "" {
		name = " " + f.Name
	}
	return fmt.Sprintf("fn%s(%s) {...}", name, strings.Join(params, ", "))
}

// displayName is the name used in arity errors.
func (f *Function) displayName() string {
	if f.Name == "" {
		return "fn"
	}
	return f.Name
}

// BuiltinFunction is the signature of native functions. Builtins get the
// calling environment for access to the runtime's I/O.
type BuiltinFunction func(env *Environment, args ...Object) Outcome

// Builtin represents a native function
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// Error represents a runtime error with structured error information.
type Error struct {
	Message string
	Line    int
	Column  int
	Class   ErrorClass     // Error category
	Code    string         // Error code (e.g., "TYPE-0001")
	Hints   []string       // Suggestions for fixing the error
	File    string         // File path (if known)
	Data    map[string]any // Template variables
}

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass = merrors.ErrorClass

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "ERROR: " + e.Message }

// ToMilaError converts this Error to a MilaError for display.
func (e *Error) ToMilaError() *merrors.MilaError {
	class := e.Class
	if class == "" {
		class = merrors.ClassType
	}
	return &merrors.MilaError{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
		File:    e.File,
		Data:    e.Data,
	}
}
