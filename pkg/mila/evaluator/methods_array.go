package evaluator

// ArrayMethodRegistry holds the methods callable on arrays.
var ArrayMethodRegistry MethodRegistry

func init() {
	ArrayMethodRegistry = MethodRegistry{
		"push": {
			Fn:          arrayPush,
			Arity:       "1+",
			Description: "Append values to the end; returns the array",
		},
		"push_array": {
			Fn:          arrayPushArray,
			Arity:       "1",
			Description: "Append every element of another array; returns the array",
		},
		"pop": {
			Fn:          arrayPop,
			Arity:       "0",
			Description: "Remove and return the last element",
		},
		"remove": {
			Fn:          arrayRemove,
			Arity:       "1",
			Description: "Remove the element at a position and return it",
		},
		"replace": {
			Fn:          arrayReplace,
			Arity:       "2",
			Description: "Replace the element at a position; returns the array",
		},
	}
	RegisterMethodRegistry(string(ARRAY_OBJ), ArrayMethodRegistry)
}

func arrayPush(receiver Object, args []Object, _ *Environment) Object {
	arr := receiver.(*Array)
	arr.Elements = append(arr.Elements, args...)
	return arr
}

func arrayPushArray(receiver Object, args []Object, _ *Environment) Object {
	arr := receiver.(*Array)
	other, ok := args[0].(*Array)
	if !ok {
		return newExpectedTypeError("push_array", ARRAY_OBJ, args[0])
	}
	// a.push_array(a) must not see its own growth
	elements := make([]Object, len(other.Elements))
	copy(elements, other.Elements)
	arr.Elements = append(arr.Elements, elements...)
	return arr
}

func arrayPop(receiver Object, _ []Object, _ *Environment) Object {
	arr := receiver.(*Array)
	n := len(arr.Elements)
	if n == 0 {
		return newStructuredError("STATE-0003", nil)
	}
	last := arr.Elements[n-1]
	arr.Elements[n-1] = nil
	arr.Elements = arr.Elements[:n-1]
	return last
}

// position validates an element position argument.
func position(method string, arr *Array, arg Object) (int, *Error) {
	pos, ok := arg.(*Integer)
	if !ok {
		return 0, newExpectedTypeError(method, INTEGER_OBJ, arg)
	}
	if pos.Value < 0 || pos.Value >= int64(len(arr.Elements)) {
		return 0, newInvalidPositionError(pos.Value)
	}
	return int(pos.Value), nil
}

func arrayRemove(receiver Object, args []Object, _ *Environment) Object {
	arr := receiver.(*Array)
	i, err := position("remove", arr, args[0])
	if err != nil {
		return err
	}
	removed := arr.Elements[i]
	arr.Elements = append(arr.Elements[:i], arr.Elements[i+1:]...)
	return removed
}

func arrayReplace(receiver Object, args []Object, _ *Environment) Object {
	arr := receiver.(*Array)
	i, err := position("replace", arr, args[0])
	if err != nil {
		return err
	}
	arr.Elements[i] = args[1]
	return arr
}
