package evaluator

func evalPrefixExpression(operator string, right Object) Outcome {
	switch {
	case operator == "!" && right.Type() == BOOLEAN_OBJ:
		return normal(nativeBoolToBooleanObject(!right.(*Boolean).Value))
	case operator == "!" && right.Type() == INTEGER_OBJ:
		return normal(&Integer{Value: ^right.(*Integer).Value})
	case operator == "-" && right.Type() == INTEGER_OBJ:
		return normal(&Integer{Value: -right.(*Integer).Value})
	case operator == "-" && right.Type() == FLOAT_OBJ:
		return normal(&Float{Value: -right.(*Float).Value})
	default:
		return failed(newUnknownPrefixOperatorError(operator, right))
	}
}

// evalInfixExpression dispatches on the pair of operand types.
func evalInfixExpression(operator string, left, right Object) Outcome {
	switch {
	case left.Type() != right.Type():
		return failed(newTypeMismatchError(left, operator, right))
	case left.Type() == INTEGER_OBJ:
		return evalIntegerInfixExpression(operator, left, right)
	case left.Type() == FLOAT_OBJ:
		return evalFloatInfixExpression(operator, left, right)
	case left.Type() == BOOLEAN_OBJ:
		return evalBooleanInfixExpression(operator, left, right)
	case left.Type() == STRING_OBJ:
		return evalStringInfixExpression(operator, left, right)
	default:
		return failed(newUnknownInfixOperatorError(left, operator, right))
	}
}

func evalIntegerInfixExpression(operator string, left, right Object) Outcome {
	leftVal := left.(*Integer).Value
	rightVal := right.(*Integer).Value

	switch operator {
	case "+":
		return normal(&Integer{Value: leftVal + rightVal})
	case "-":
		return normal(&Integer{Value: leftVal - rightVal})
	case "*":
		return normal(&Integer{Value: leftVal * rightVal})
	case "/":
		if rightVal == 0 {
			return fail("OP-0003", nil)
		}
		return normal(&Integer{Value: leftVal / rightVal})
	case "%":
		if rightVal == 0 {
			return fail("OP-0004", nil)
		}
		return normal(&Integer{Value: leftVal % rightVal})
	case "<<", ">>":
		if rightVal < 0 {
			return fail("OP-0005", map[string]any{"Count": rightVal})
		}
		if operator == "<<" {
			return normal(&Integer{Value: leftVal << uint64(rightVal)})
		}
		return normal(&Integer{Value: leftVal >> uint64(rightVal)})
	case "&":
		return normal(&Integer{Value: leftVal & rightVal})
	case "|":
		return normal(&Integer{Value: leftVal | rightVal})
	case "^":
		return normal(&Integer{Value: leftVal ^ rightVal})
	case "<":
		return normal(nativeBoolToBooleanObject(leftVal < rightVal))
	case ">":
		return normal(nativeBoolToBooleanObject(leftVal > rightVal))
	case "<=":
		return normal(nativeBoolToBooleanObject(leftVal <= rightVal))
	case ">=":
		return normal(nativeBoolToBooleanObject(leftVal >= rightVal))
	case "==":
		return normal(nativeBoolToBooleanObject(leftVal == rightVal))
	case "!=":
		return normal(nativeBoolToBooleanObject(leftVal != rightVal))
	default:
		return failed(newUnknownInfixOperatorError(left, operator, right))
	}
}

func evalFloatInfixExpression(operator string, left, right Object) Outcome {
	leftVal := left.(*Float).Value
	rightVal := right.(*Float).Value

	switch operator {
	case "+":
		return normal(&Float{Value: leftVal + rightVal})
	case "-":
		return normal(&Float{Value: leftVal - rightVal})
	case "*":
		return normal(&Float{Value: leftVal * rightVal})
	case "/":
		if rightVal == 0 {
			return fail("OP-0003", nil)
		}
		return normal(&Float{Value: leftVal / rightVal})
	case "<":
		return normal(nativeBoolToBooleanObject(leftVal < rightVal))
	case ">":
		return normal(nativeBoolToBooleanObject(leftVal > rightVal))
	case "<=":
		return normal(nativeBoolToBooleanObject(leftVal <= rightVal))
	case ">=":
		return normal(nativeBoolToBooleanObject(leftVal >= rightVal))
	case "==":
		return normal(nativeBoolToBooleanObject(leftVal == rightVal))
	case "!=":
		return normal(nativeBoolToBooleanObject(leftVal != rightVal))
	default:
		return failed(newUnknownInfixOperatorError(left, operator, right))
	}
}

// Both operands of && and || have already been evaluated.
func evalBooleanInfixExpression(operator string, left, right Object) Outcome {
	leftVal := left.(*Boolean).Value
	rightVal := right.(*Boolean).Value

	switch operator {
	case "&&":
		return normal(nativeBoolToBooleanObject(leftVal && rightVal))
	case "||":
		return normal(nativeBoolToBooleanObject(leftVal || rightVal))
	case "==":
		return normal(nativeBoolToBooleanObject(leftVal == rightVal))
	case "!=":
		return normal(nativeBoolToBooleanObject(leftVal != rightVal))
	default:
		return failed(newUnknownInfixOperatorError(left, operator, right))
	}
}

func evalStringInfixExpression(operator string, left, right Object) Outcome {
	leftVal := left.(*String).Value
	rightVal := right.(*String).Value

	switch operator {
	case "+":
		return normal(&String{Value: leftVal + rightVal})
	case "<":
		return normal(nativeBoolToBooleanObject(leftVal < rightVal))
	case ">":
		return normal(nativeBoolToBooleanObject(leftVal > rightVal))
	case "<=":
		return normal(nativeBoolToBooleanObject(leftVal <= rightVal))
	case ">=":
		return normal(nativeBoolToBooleanObject(leftVal >= rightVal))
	case "==":
		return normal(nativeBoolToBooleanObject(leftVal == rightVal))
	case "!=":
		return normal(nativeBoolToBooleanObject(leftVal != rightVal))
	default:
		return failed(newUnknownInfixOperatorError(left, operator, right))
	}
}

// Operators lists every operator with the operand types it accepts.
// The help package builds its operator topic from this table.
var Operators = []OperatorInfo{
	{Symbol: "+", Category: "arithmetic", Types: "int, float, string", Description: "addition, or concatenation of strings"},
	{Symbol: "-", Category: "arithmetic", Types: "int, float", Description: "subtraction"},
	{Symbol: "*", Category: "arithmetic", Types: "int, float", Description: "multiplication"},
	{Symbol: "/", Category: "arithmetic", Types: "int, float", Description: "division; integer division truncates"},
	{Symbol: "%", Category: "arithmetic", Types: "int", Description: "remainder"},
	{Symbol: "<<", Category: "bitwise", Types: "int", Description: "shift left"},
	{Symbol: ">>", Category: "bitwise", Types: "int", Description: "arithmetic shift right"},
	{Symbol: "&", Category: "bitwise", Types: "int", Description: "bitwise and"},
	{Symbol: "|", Category: "bitwise", Types: "int", Description: "bitwise or"},
	{Symbol: "^", Category: "bitwise", Types: "int", Description: "bitwise exclusive or"},
	{Symbol: "&&", Category: "logical", Types: "bool", Description: "logical and; both sides are evaluated"},
	{Symbol: "||", Category: "logical", Types: "bool", Description: "logical or; both sides are evaluated"},
	{Symbol: "==", Category: "comparison", Types: "int, float, bool, string", Description: "equal"},
	{Symbol: "!=", Category: "comparison", Types: "int, float, bool, string", Description: "not equal"},
	{Symbol: "<", Category: "comparison", Types: "int, float, string", Description: "less than"},
	{Symbol: ">", Category: "comparison", Types: "int, float, string", Description: "greater than"},
	{Symbol: "<=", Category: "comparison", Types: "int, float, string", Description: "less than or equal"},
	{Symbol: ">=", Category: "comparison", Types: "int, float, string", Description: "greater than or equal"},
	{Symbol: "!", Category: "prefix", Types: "bool, int", Description: "logical not, or bitwise complement of an int"},
	{Symbol: "-", Category: "prefix", Types: "int, float", Description: "negation"},
	{Symbol: "=", Category: "assignment", Types: "var, array element, hash key", Description: "assignment; += -= *= /= combine with the operator"},
}

// OperatorInfo describes one operator for introspection.
type OperatorInfo struct {
	Symbol      string `json:"symbol"`
	Category    string `json:"category"`
	Types       string `json:"types"`
	Description string `json:"description"`
}
