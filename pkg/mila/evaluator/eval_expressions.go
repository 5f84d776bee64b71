package evaluator

import (
	"errors"

	"github.com/sambeau/mila/pkg/mila/ast"
	merrors "github.com/sambeau/mila/pkg/mila/errors"
)

// Index, member access and assignment.

func evalIndexExpression(left, index Object) Outcome {
	switch {
	case left.Type() == ARRAY_OBJ && index.Type() == INTEGER_OBJ:
		elements := left.(*Array).Elements
		i := index.(*Integer).Value
		if i < 0 || i >= int64(len(elements)) {
			return failed(newIndexOutOfRangeError(i, len(elements)))
		}
		return normal(elements[i])

	case left.Type() == STRING_OBJ && index.Type() == INTEGER_OBJ:
		runes := []rune(left.(*String).Value)
		i := index.(*Integer).Value
		if i < 0 || i >= int64(len(runes)) {
			return failed(newIndexOutOfRangeError(i, len(runes)))
		}
		return normal(&String{Value: string(runes[i])})

	case left.Type() == HASH_OBJ && index.Type() == STRING_OBJ:
		key := index.(*String).Value
		val, ok := left.(*Hash).Get(key)
		if !ok {
			return failed(newKeyNotFoundError(key))
		}
		return normal(val)

	default:
		return fail("TYPE-0006", map[string]any{"Left": left.Type(), "Index": index.Type()})
	}
}

// evalMemberExpression handles receiver.name and receiver.name(args).
func evalMemberExpression(node *ast.InfixExpression, env *Environment) Outcome {
	receiver, out := evalValue(node.Left, env)
	if out.interrupted() {
		return out
	}

	switch right := node.Right.(type) {
	case *ast.Identifier:
		return evalHashMember(receiver, right.Value)

	case *ast.CallExpression:
		method, ok := right.Function.(*ast.Identifier)
		if !ok {
			return fail("TYPE-0003", map[string]any{"Got": right.Function.String()})
		}
		args, out := evalExpressions(right.Arguments, env)
		if out.interrupted() {
			return out
		}
		return dispatchMethodCall(receiver, method.Value, args, env)
	}

	return fail("TYPE-0009", map[string]any{"Type": receiver.Type(), "Member": node.Right.String()})
}

func evalHashMember(receiver Object, name string) Outcome {
	hash, ok := receiver.(*Hash)
	if !ok {
		return fail("TYPE-0009", map[string]any{"Type": receiver.Type(), "Member": name})
	}
	val, ok := hash.Get(name)
	if !ok {
		return failed(newKeyNotFoundError(name))
	}
	return normal(val)
}

// dispatchMethodCall calls a method on receiver. A hash holding a function
// under the name calls that function; everything else goes through the
// method registry of the receiver's type.
func dispatchMethodCall(receiver Object, method string, args []Object, env *Environment) Outcome {
	if hash, ok := receiver.(*Hash); ok {
		if fn, ok := hash.Get(method); ok {
			return applyFunction(fn, args, env)
		}
	}

	registry := GetRegistryForType(string(receiver.Type()))
	result, found := dispatchFromRegistry(registry, receiver, method, args, env)
	if !found {
		return failed(fromMilaError(merrors.NewUndefinedMethod(method, string(receiver.Type()), registry.Names())))
	}
	if err, ok := result.(*Error); ok {
		return failed(err)
	}
	return normal(result)
}

func evalAssignExpression(node *ast.AssignExpression, env *Environment) Outcome {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		return assignIdentifier(node, target, env)

	case *ast.IndexExpression:
		container, out := evalValue(target.Left, env)
		if out.interrupted() {
			return out
		}
		index, out := evalValue(target.Index, env)
		if out.interrupted() {
			return out
		}
		return assignElement(node, container, index, env)

	case *ast.InfixExpression:
		container, out := evalValue(target.Left, env)
		if out.interrupted() {
			return out
		}
		member, ok := target.Right.(*ast.Identifier)
		if !ok {
			return fail("PARSE-0007", map[string]any{"Target": target.String()})
		}
		if container.Type() != HASH_OBJ {
			return fail("TYPE-0009", map[string]any{"Type": container.Type(), "Member": member.Value})
		}
		return assignElement(node, container, &String{Value: member.Value}, env)
	}

	return fail("PARSE-0007", map[string]any{"Target": node.Target.String()})
}

func assignIdentifier(node *ast.AssignExpression, target *ast.Identifier, env *Environment) Outcome {
	name := target.Value

	var current Object
	if node.Operator != "=" {
		val, ok := env.Get(name)
		if !ok {
			return failed(fromMilaError(merrors.NewUndefinedIdentifier(name, env.AllIdentifiers())))
		}
		current = val
	}

	val, out := evalAssignedValue(node, current, env)
	if out.interrupted() {
		return out
	}
	if _, isFn := val.(*Function); isFn {
		return fail("TYPE-0007", map[string]any{"Name": name})
	}

	if err := env.Assign(name, val); err != nil {
		switch {
		case errors.Is(err, errUnbound):
			return failed(fromMilaError(merrors.NewUndefinedIdentifier(name, env.AllIdentifiers())))
		case errors.Is(err, errImmutable):
			return fail("STATE-0004", map[string]any{"Name": name})
		}
	}
	return normal(val)
}

// assignElement stores into an array slot or a hash key.
func assignElement(node *ast.AssignExpression, container, index Object, env *Environment) Outcome {
	var current Object
	if node.Operator != "=" {
		out := evalIndexExpression(container, index)
		if out.interrupted() {
			return out
		}
		current = out.Value
	}

	switch {
	case container.Type() == ARRAY_OBJ && index.Type() == INTEGER_OBJ:
		arr := container.(*Array)
		i := index.(*Integer).Value
		if i < 0 || i >= int64(len(arr.Elements)) {
			return failed(newIndexOutOfRangeError(i, len(arr.Elements)))
		}
		val, out := evalAssignedValue(node, current, env)
		if out.interrupted() {
			return out
		}
		arr.Elements[i] = val
		return normal(val)

	case container.Type() == HASH_OBJ && index.Type() == STRING_OBJ:
		val, out := evalAssignedValue(node, current, env)
		if out.interrupted() {
			return out
		}
		container.(*Hash).Set(index.(*String).Value, val)
		return normal(val)

	default:
		return fail("TYPE-0006", map[string]any{"Left": container.Type(), "Index": index.Type()})
	}
}

// evalAssignedValue evaluates the right-hand side and, for compound
// operators, combines it with current.
func evalAssignedValue(node *ast.AssignExpression, current Object, env *Environment) (Object, Outcome) {
	val, out := evalValue(node.Value, env)
	if out.interrupted() {
		return nil, out
	}
	if current == nil {
		return val, out
	}

	out = evalInfixExpression(node.Operator[:1], current, val)
	if out.interrupted() {
		return nil, out
	}
	return out.Value, out
}
