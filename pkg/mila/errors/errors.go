// Package errors provides structured error types for the Mila language.
//
// MilaError represents both parser and runtime errors. Each error has a
// class and a catalog code so that callers can filter, render and test
// errors without matching on message text.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Parser/syntax errors
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassArity     ErrorClass = "arity"     // Wrong argument count
	ClassUndefined ErrorClass = "undefined" // Not found/defined
	ClassIO        ErrorClass = "io"        // File and stream operations
	ClassIndex     ErrorClass = "index"     // Out of bounds
	ClassOperator  ErrorClass = "operator"  // Invalid operations
	ClassState     ErrorClass = "state"     // Invalid state
	ClassValue     ErrorClass = "value"     // Missing or unusable values
)

// MilaError represents any error from parsing or evaluation.
type MilaError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "TYPE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *MilaError) Error() string {
	return e.String()
}

// Location renders file:line:col, omitting the parts that are unknown.
func (e *MilaError) Location() string {
	switch {
	case e.Line > 0 && e.File != "":
		return fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	case e.Line > 0:
		return fmt.Sprintf("%d:%d", e.Line, e.Column)
	default:
		return e.File
	}
}

// String returns the one-line form "file:line:col: message" followed by
// any hints on indented lines.
func (e *MilaError) String() string {
	var sb strings.Builder

	if loc := e.Location(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *MilaError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Parse errors (PARSE-0xxx)
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected '{{.Expected}}', got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "syntax error got '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: `could not parse "{{.Literal}}" as integer`,
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: `could not parse "{{.Literal}}" as float`,
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "illegal token '{{.Literal}}'",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "unterminated string",
		Hints:    []string{"close the string with a matching \""},
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "cannot assign to {{.Target}}",
		Hints:    []string{"only names, index expressions and hash members can be assigned"},
	},
	"PARSE-0008": {
		Class:    ClassParse,
		Template: "hash key must be a name or a string, got '{{.Got}}'",
	},

	// Type errors (TYPE-0xxx)
	"TYPE-0001": {
		Class:    ClassType,
		Template: "type mismatch: {{.Left}} {{.Operator}} {{.Right}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "argument to `{{.Function}}` not supported, got {{.Got}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "{{.Got}} is not a function",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "condition must be bool, got {{.Got}}",
		Hints:    []string{"compare explicitly, e.g. x != 0"},
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "{{.Function}} expected {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0006": {
		Class:    ClassType,
		Template: "index operator not supported: {{.Left}}[{{.Index}}]",
	},
	"TYPE-0007": {
		Class:    ClassType,
		Template: "functions must be bound with let",
		Hints:    []string{"let {{.Name}} = fn(...) { ... }"},
	},
	"TYPE-0008": {
		Class:    ClassType,
		Template: "cannot convert {{.Value}} to {{.Target}}",
	},
	"TYPE-0009": {
		Class:    ClassType,
		Template: "{{.Type}} has no member '{{.Member}}'",
		Hints:    []string{"only hashes have members; call methods with {{.Member}}(...)"},
	},

	// Operator errors (OP-0xxx)
	"OP-0001": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.Left}} {{.Operator}} {{.Right}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.Operator}}{{.Right}}",
	},
	"OP-0003": {
		Class:    ClassOperator,
		Template: "division by zero",
	},
	"OP-0004": {
		Class:    ClassOperator,
		Template: "modulo by zero",
	},
	"OP-0005": {
		Class:    ClassOperator,
		Template: "negative shift count {{.Count}}",
	},

	// Arity errors (ARITY-0xxx)
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "wrong number of arguments to {{.Function}}: want={{.Want}}, got={{.Got}}",
	},

	// Undefined errors (UNDEF-0xxx)
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "unknown word '{{.Name}}'",
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "unknown method '{{.Method}}' for {{.Type}}",
	},
	"UNDEF-0003": {
		Class:    ClassUndefined,
		Template: "key not found: {{.Key}}",
	},

	// Index errors (INDEX-0xxx)
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "index out of range: {{.Index}} (length {{.Length}})",
	},
	"INDEX-0002": {
		Class:    ClassIndex,
		Template: "invalid position {{.Index}}",
	},

	// State errors (STATE-0xxx)
	"STATE-0001": {
		Class:    ClassState,
		Template: "empty statement sequence",
	},
	"STATE-0002": {
		Class:    ClassState,
		Template: "maximum call depth of {{.Limit}} exceeded",
		Hints:    []string{"check for recursion without a base case"},
	},
	"STATE-0003": {
		Class:    ClassState,
		Template: "array is empty",
	},
	"STATE-0004": {
		Class:    ClassState,
		Template: "cannot assign to immutable binding '{{.Name}}'",
		Hints:    []string{"declare it with var {{.Name}} = ..."},
	},

	// Value errors (VALUE-0xxx)
	"VALUE-0001": {
		Class:    ClassValue,
		Template: "'{{.Name}}' bound to no value",
	},
	"VALUE-0002": {
		Class:    ClassValue,
		Template: "expression produced no value",
	},

	// IO errors (IO-0xxx)
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to read file '{{.Path}}': {{.Error}}",
	},
	"IO-0002": {
		Class:    ClassIO,
		Template: "failed to read input: {{.Error}}",
	},
	"IO-0003": {
		Class:    ClassIO,
		Template: "end of input",
	},
}

// New creates a MilaError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *MilaError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &MilaError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &MilaError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a MilaError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *MilaError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Option("missingkey=zero").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// suggestionThreshold is the largest edit distance still worth suggesting:
// one edit for short words, two for medium, three for long ones.
func suggestionThreshold(input string) int {
	switch n := len(input); {
	case n >= 7:
		return 3
	case n >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns an empty string when nothing is close enough or the input is an
// exact match.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	var bestMatch string
	bestDistance := -1
	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > suggestionThreshold(input) {
		return ""
	}

	return bestMatch
}

// NewUndefinedIdentifier creates an unknown word error with a "did you
// mean" hint when a close name is available.
func NewUndefinedIdentifier(name string, availableIdentifiers []string) *MilaError {
	err := New("UNDEF-0001", map[string]any{"Name": name})

	if suggestion := FindClosestMatch(name, availableIdentifiers); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}

// NewUndefinedMethod creates an unknown method error with a "did you mean"
// hint when a close method name is available.
func NewUndefinedMethod(method, typeName string, availableMethods []string) *MilaError {
	err := New("UNDEF-0002", map[string]any{
		"Method": method,
		"Type":   typeName,
	})

	if suggestion := FindClosestMatch(method, availableMethods); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
