// eval_errors.go - Error creation helpers for the Mila evaluator
//
// Every runtime error is built from the errors catalog so that it carries a
// code, a class and any hints. Positions are attached by Eval on the way
// out, at the innermost node that failed.

package evaluator

import (
	"strconv"

	"github.com/sambeau/mila/pkg/mila/ast"
	merrors "github.com/sambeau/mila/pkg/mila/errors"
)

// newStructuredError creates a structured error from the catalog.
func newStructuredError(code string, data map[string]any) *Error {
	return fromMilaError(merrors.New(code, data))
}

func fromMilaError(perr *merrors.MilaError) *Error {
	return &Error{
		Class:   perr.Class,
		Code:    perr.Code,
		Message: perr.Message,
		Hints:   perr.Hints,
		Line:    perr.Line,
		Column:  perr.Column,
		File:    perr.File,
		Data:    perr.Data,
	}
}

// fail is newStructuredError wrapped in a Failed outcome.
func fail(code string, data map[string]any) Outcome {
	return failed(newStructuredError(code, data))
}

// locate stamps err with the position of node unless it already has one.
func locate(err *Error, node ast.Node, env *Environment) {
	if err.Line > 0 {
		return
	}
	tok := node.Pos()
	err.Line = tok.Line
	err.Column = tok.Column
	if err.File == "" && env != nil && env.Runtime != nil {
		err.File = env.Runtime.Filename
	}
}

func newTypeMismatchError(left Object, operator string, right Object) *Error {
	return newStructuredError("TYPE-0001", map[string]any{
		"Left":     left.Type(),
		"Operator": operator,
		"Right":    right.Type(),
	})
}

func newUnknownInfixOperatorError(left Object, operator string, right Object) *Error {
	return newStructuredError("OP-0001", map[string]any{
		"Left":     left.Type(),
		"Operator": operator,
		"Right":    right.Type(),
	})
}

func newUnknownPrefixOperatorError(operator string, right Object) *Error {
	return newStructuredError("OP-0002", map[string]any{
		"Operator": operator,
		"Right":    right.Type(),
	})
}

// newArityError reports a call with the wrong number of arguments. want
// is an arity spec such as "1", "2" or "1+".
func newArityError(function, want string, got int) *Error {
	return newStructuredError("ARITY-0001", map[string]any{
		"Function": function,
		"Want":     want,
		"Got":      got,
	})
}

// newArgumentTypeError reports an argument of a type the function rejects.
func newArgumentTypeError(function string, got Object) *Error {
	return newStructuredError("TYPE-0002", map[string]any{
		"Function": function,
		"Got":      got.Type(),
	})
}

// newExpectedTypeError reports that function wanted expected but got got.
func newExpectedTypeError(function string, expected ObjectType, got Object) *Error {
	return newStructuredError("TYPE-0005", map[string]any{
		"Function": function,
		"Expected": expected,
		"Got":      got.Type(),
	})
}

func newConversionError(value Object, target ObjectType) *Error {
	shown := value.Inspect()
	if value.Type() == STRING_OBJ {
		shown = strconv.Quote(shown)
	}
	return newStructuredError("TYPE-0008", map[string]any{
		"Value":  shown,
		"Target": target,
	})
}

func newIndexOutOfRangeError(index int64, length int) *Error {
	return newStructuredError("INDEX-0001", map[string]any{
		"Index":  index,
		"Length": length,
	})
}

func newInvalidPositionError(index int64) *Error {
	return newStructuredError("INDEX-0002", map[string]any{"Index": index})
}

func newKeyNotFoundError(key string) *Error {
	return newStructuredError("UNDEF-0003", map[string]any{"Key": strconv.Quote(key)})
}

func newNoValueError() *Error {
	return newStructuredError("VALUE-0002", nil)
}
