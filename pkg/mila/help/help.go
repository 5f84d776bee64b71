// Package help provides topic-based documentation for Mila, built from the
// evaluator's own tables: builtin metadata, method registries and the
// operator list. It backs `mila describe` and the REPL's `:describe`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sambeau/mila/pkg/mila/errors"
	"github.com/sambeau/mila/pkg/mila/evaluator"
)

// TopicResult represents the help output for a topic
type TopicResult struct {
	Kind        string                   `json:"kind"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Methods     []evaluator.MethodInfo   `json:"methods,omitempty"`
	Builtins    []evaluator.BuiltinInfo  `json:"builtins,omitempty"`
	Operators   []evaluator.OperatorInfo `json:"operators,omitempty"`
	TypeNames   []string                 `json:"type_names,omitempty"`
	Params      []string                 `json:"params,omitempty"`
	Arity       string                   `json:"arity,omitempty"`
	Category    string                   `json:"category,omitempty"`
}

// typeDescriptions covers every runtime type, with or without methods.
var typeDescriptions = map[string]string{
	string(evaluator.INTEGER_OBJ):  "64-bit signed integer; arithmetic wraps on overflow",
	string(evaluator.FLOAT_OBJ):    "64-bit floating point number",
	string(evaluator.BOOLEAN_OBJ):  "true or false; the only type accepted by if and while",
	string(evaluator.STRING_OBJ):   "immutable UTF-8 text, indexed by rune",
	string(evaluator.ARRAY_OBJ):    "mutable ordered list of values shared by reference",
	string(evaluator.HASH_OBJ):     "mutable string-keyed map written |key: value, ...|, keys kept in insertion order",
	string(evaluator.FUNCTION_OBJ): "user function closing over its defining scope; bind with let",
	string(evaluator.BUILTIN_OBJ):  "function provided by the interpreter",
}

// typeAliases maps spellings people try to the runtime type names.
var typeAliases = map[string]string{
	"integer":    "int",
	"boolean":    "bool",
	"dictionary": "hash",
	"dict":       "hash",
	"fn":         "function",
}

// DescribeTopic returns help information for the given topic.
// Topics can be: type names (string, array), special keywords (builtins,
// operators, types), or builtin names (len, putsln).
func DescribeTopic(topic string) (*TopicResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("no topic specified (try: types, builtins, operators, string, array)")
	}

	if result := describeType(topic); result != nil {
		return result, nil
	}

	switch strings.ToLower(topic) {
	case "builtins":
		return describeBuiltins(), nil
	case "operators":
		return describeOperators(), nil
	case "types":
		return describeTypes(), nil
	}

	if result := describeBuiltinByName(topic); result != nil {
		return result, nil
	}

	return nil, unknownTopicError(topic)
}

// describeType returns help for a type, or nil if not found
func describeType(typeName string) *TopicResult {
	name := strings.ToLower(typeName)
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}

	description, ok := typeDescriptions[name]
	if !ok {
		return nil
	}

	return &TopicResult{
		Kind:        "type",
		Name:        name,
		Description: description,
		Methods:     evaluator.GetMethodsForType(name),
	}
}

// describeBuiltins returns a list of all builtins grouped by category
func describeBuiltins() *TopicResult {
	builtins := make([]evaluator.BuiltinInfo, 0, len(evaluator.BuiltinMetadata))
	for _, info := range evaluator.BuiltinMetadata {
		builtins = append(builtins, info)
	}

	sort.Slice(builtins, func(i, j int) bool {
		if builtins[i].Category != builtins[j].Category {
			return builtins[i].Category < builtins[j].Category
		}
		return builtins[i].Name < builtins[j].Name
	})

	return &TopicResult{
		Kind:     "builtin-list",
		Name:     "builtins",
		Builtins: builtins,
	}
}

// describeOperators returns every operator in table order
func describeOperators() *TopicResult {
	operators := make([]evaluator.OperatorInfo, len(evaluator.Operators))
	copy(operators, evaluator.Operators)

	return &TopicResult{
		Kind:      "operator-list",
		Name:      "operators",
		Operators: operators,
	}
}

// describeTypes returns a list of all known types
func describeTypes() *TopicResult {
	names := make([]string, 0, len(typeDescriptions))
	for name := range typeDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)

	return &TopicResult{
		Kind:      "type-list",
		Name:      "types",
		TypeNames: names,
	}
}

// describeBuiltinByName returns help for a specific builtin, or nil if not found
func describeBuiltinByName(name string) *TopicResult {
	info, ok := evaluator.BuiltinMetadata[name]
	if !ok {
		return nil
	}

	return &TopicResult{
		Kind:        "builtin",
		Name:        info.Name,
		Description: info.Description,
		Params:      info.Params,
		Arity:       info.Arity,
		Category:    info.Category,
	}
}

// Topics lists every topic DescribeTopic accepts, for completion.
func Topics() []string {
	topics := []string{"builtins", "operators", "types"}
	topics = append(topics, describeTypes().TypeNames...)
	topics = append(topics, evaluator.BuiltinNames()...)
	sort.Strings(topics)
	return topics
}

// unknownTopicError generates a helpful error for unknown topics
func unknownTopicError(topic string) error {
	suggestions := findSuggestions(topic)

	if len(suggestions) > 0 {
		return fmt.Errorf("unknown topic: %s\nDid you mean: %s?", topic, strings.Join(suggestions, ", "))
	}

	return fmt.Errorf("unknown topic: %s\nTry: types, builtins, operators, string, array, putsln", topic)
}

// findSuggestions finds topics similar to the given unknown topic: the
// closest spelling first, then substring matches.
func findSuggestions(topic string) []string {
	topic = strings.ToLower(topic)
	all := Topics()

	var suggestions []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			suggestions = append(suggestions, name)
		}
	}

	if closest := errors.FindClosestMatch(topic, all); closest != "" {
		add(closest)
	}
	for _, name := range all {
		if strings.Contains(name, topic) || strings.Contains(topic, name) {
			add(name)
		}
	}

	// Limit to 3 suggestions
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}

	return suggestions
}
