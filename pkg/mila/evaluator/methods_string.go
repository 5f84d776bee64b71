package evaluator

import "strings"

// StringMethodRegistry holds the methods callable on strings.
var StringMethodRegistry MethodRegistry

func init() {
	StringMethodRegistry = MethodRegistry{
		"trim": {
			Fn:          stringTrim,
			Arity:       "0",
			Description: "Remove leading/trailing whitespace",
		},
	}
	RegisterMethodRegistry(string(STRING_OBJ), StringMethodRegistry)
}

func stringTrim(receiver Object, _ []Object, _ *Environment) Object {
	return &String{Value: strings.TrimSpace(receiver.(*String).Value)}
}
