// Package evaluator walks the syntax tree and produces runtime objects.
//
// Evaluation never panics on bad programs and never exits the process:
// every node yields an Outcome, and failures travel as *Error values in
// Failed outcomes until the caller decides what to do with them.
package evaluator

import (
	"strconv"

	"github.com/sambeau/mila/pkg/mila/ast"
	merrors "github.com/sambeau/mila/pkg/mila/errors"
)

// Eval evaluates node in env. A nil node yields the zero Outcome.
func Eval(node ast.Node, env *Environment) Outcome {
	if node == nil {
		return Outcome{}
	}

	out := eval(node, env)
	if out.Flow == Failed {
		if err, ok := out.Value.(*Error); ok {
			locate(err, node, env)
		}
	}
	return out
}

func eval(node ast.Node, env *Environment) Outcome {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return evalProgram(node, env)

	case *ast.ExpressionStatement:
		return Eval(node.Expression, env)

	case *ast.BlockStatement:
		return evalStatements(node.Statements, NewEnclosedEnvironment(env))

	case *ast.LetStatement:
		return evalBinding(node.Name, node.Value, false, env)

	case *ast.VarStatement:
		return evalBinding(node.Name, node.Value, true, env)

	case *ast.ReturnStatement:
		if node.ReturnValue == nil {
			return Outcome{Flow: Returned}
		}
		val := Eval(node.ReturnValue, env)
		if val.interrupted() {
			return val
		}
		return Outcome{Flow: Returned, Value: val.Value}

	// Literals
	case *ast.IntegerLiteral:
		return normal(&Integer{Value: node.Value})

	case *ast.FloatLiteral:
		return normal(&Float{Value: node.Value})

	case *ast.BooleanLiteral:
		return normal(nativeBoolToBooleanObject(node.Value))

	case *ast.StringLiteral:
		return normal(&String{Value: node.Value})

	case *ast.ArrayLiteral:
		elements, out := evalExpressions(node.Elements, env)
		if out.interrupted() {
			return out
		}
		return normal(&Array{Elements: elements})

	case *ast.HashLiteral:
		return evalHashLiteral(node, env)

	// Expressions
	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.PrefixExpression:
		right, out := evalValue(node.Right, env)
		if out.interrupted() {
			return out
		}
		return evalPrefixExpression(node.Operator, right)

	case *ast.InfixExpression:
		if node.Operator == "." {
			return evalMemberExpression(node, env)
		}
		left, out := evalValue(node.Left, env)
		if out.interrupted() {
			return out
		}
		right, out := evalValue(node.Right, env)
		if out.interrupted() {
			return out
		}
		return evalInfixExpression(node.Operator, left, right)

	case *ast.AssignExpression:
		return evalAssignExpression(node, env)

	case *ast.IfExpression:
		return evalIfExpression(node, env)

	case *ast.WhileExpression:
		return evalWhileExpression(node, env)

	case *ast.FunctionLiteral:
		fn := &Function{Parameters: node.Parameters, Body: node.Body, Env: env}
		if node.Name != nil {
			fn.Name = node.Name.Value
			env.Set(fn.Name, fn)
		}
		return normal(fn)

	case *ast.CallExpression:
		function, out := evalValue(node.Function, env)
		if out.interrupted() {
			return out
		}
		args, out := evalExpressions(node.Arguments, env)
		if out.interrupted() {
			return out
		}
		return applyFunction(function, args, env)

	case *ast.IndexExpression:
		index, out := evalValue(node.Index, env)
		if out.interrupted() {
			return out
		}
		left, out := evalValue(node.Left, env)
		if out.interrupted() {
			return out
		}
		return evalIndexExpression(left, index)
	}

	return failed(&Error{
		Class:   merrors.ClassState,
		Message: "cannot evaluate " + node.String(),
	})
}

// evalProgram runs the top level. A ret at the top level ends the program
// with its value.
func evalProgram(program *ast.Program, env *Environment) Outcome {
	if program.File != "" && env.Runtime.Filename == "" {
		env.Runtime.Filename = program.File
	}

	out := evalStatements(program.Statements, env)
	if out.Flow == Returned {
		out.Flow = Normal
	}
	return out
}

// evalStatements evaluates statements in order, stopping at the first
// outcome that is not Normal. An empty sequence is an error.
func evalStatements(stmts []ast.Statement, env *Environment) Outcome {
	if len(stmts) == 0 {
		return fail("STATE-0001", nil)
	}

	var result Outcome
	for _, statement := range stmts {
		result = Eval(statement, env)
		if result.interrupted() {
			return result
		}
	}
	return result
}

// evalValue evaluates an expression that must produce a value.
func evalValue(node ast.Expression, env *Environment) (Object, Outcome) {
	out := Eval(node, env)
	if out.interrupted() {
		return nil, out
	}
	if out.Value == nil {
		err := newNoValueError()
		locate(err, node, env)
		return nil, failed(err)
	}
	return out.Value, out
}

// evalExpressions evaluates exps left to right, stopping at the first
// failure.
func evalExpressions(exps []ast.Expression, env *Environment) ([]Object, Outcome) {
	result := make([]Object, 0, len(exps))

	for _, e := range exps {
		val, out := evalValue(e, env)
		if out.interrupted() {
			return nil, out
		}
		result = append(result, val)
	}

	return result, Outcome{}
}

func evalBinding(name *ast.Identifier, value ast.Expression, mutable bool, env *Environment) Outcome {
	out := Eval(value, env)
	if out.interrupted() {
		return out
	}
	if out.Value == nil {
		return fail("VALUE-0001", map[string]any{"Name": name.Value})
	}
	if fn, isFn := out.Value.(*Function); isFn {
		if mutable {
			return fail("TYPE-0007", map[string]any{"Name": name.Value})
		}
		if fn.Name == "" {
			fn.Name = name.Value
		}
	}

	env.Define(name.Value, out.Value, mutable)
	return Outcome{}
}

func evalIdentifier(node *ast.Identifier, env *Environment) Outcome {
	if val, ok := env.Get(node.Value); ok {
		return normal(val)
	}

	if builtin, ok := builtins[node.Value]; ok {
		return normal(builtin)
	}

	return failed(fromMilaError(merrors.NewUndefinedIdentifier(node.Value, env.AllIdentifiers())))
}

func evalHashLiteral(node *ast.HashLiteral, env *Environment) Outcome {
	hash := NewHash()

	for _, pair := range node.Pairs {
		val, out := evalValue(pair.Value, env)
		if out.interrupted() {
			return out
		}
		hash.Set(pair.Key, val)
	}

	return normal(hash)
}

// evalCondition evaluates an if or while condition, which must be a bool.
func evalCondition(node ast.Expression, env *Environment) (bool, Outcome) {
	cond, out := evalValue(node, env)
	if out.interrupted() {
		return false, out
	}

	b, ok := cond.(*Boolean)
	if !ok {
		err := newStructuredError("TYPE-0004", map[string]any{"Got": cond.Type()})
		locate(err, node, env)
		return false, failed(err)
	}
	return b.Value, out
}

func evalIfExpression(ie *ast.IfExpression, env *Environment) Outcome {
	cond, out := evalCondition(ie.Condition, env)
	if out.interrupted() {
		return out
	}

	switch {
	case cond:
		return Eval(ie.Consequence, env)
	case ie.ElseIf != nil:
		return Eval(ie.ElseIf, env)
	case ie.Alternative != nil:
		return Eval(ie.Alternative, env)
	default:
		return Outcome{}
	}
}

// evalWhileExpression loops until the condition is false. The loop itself
// produces no value; a body that returns, fails or exits ends it.
func evalWhileExpression(we *ast.WhileExpression, env *Environment) Outcome {
	for {
		cond, out := evalCondition(we.Condition, env)
		if out.interrupted() {
			return out
		}
		if !cond {
			return Outcome{}
		}

		body := Eval(we.Body, env)
		if body.interrupted() {
			return body
		}
	}
}

func applyFunction(fn Object, args []Object, env *Environment) Outcome {
	switch fn := fn.(type) {

	case *Function:
		if len(args) != len(fn.Parameters) {
			return failed(newArityError(fn.displayName(), strconv.Itoa(len(fn.Parameters)), len(args)))
		}

		rt := fn.Env.Runtime
		if rt.depth >= rt.MaxDepth {
			return fail("STATE-0002", map[string]any{"Limit": rt.MaxDepth})
		}
		rt.depth++
		defer func() { rt.depth-- }()

		extended := NewEnclosedEnvironment(fn.Env)
		for i, param := range fn.Parameters {
			extended.bindLocal(param.Value, args[i], false)
		}

		out := evalStatements(fn.Body.Statements, extended)
		if out.Flow == Returned {
			out.Flow = Normal
		}
		return out

	case *Builtin:
		return fn.Fn(env, args...)

	default:
		return fail("TYPE-0003", map[string]any{"Got": fn.Type()})
	}
}
