package help

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sambeau/mila/pkg/mila/evaluator"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCase = cases.Title(language.English)

// heading turns a category key like "collections" into "Collections".
func heading(category string) string {
	return titleCase.String(strings.ReplaceAll(category, "_", " "))
}

// FormatText formats a TopicResult for terminal output
func FormatText(result *TopicResult) string {
	var sb strings.Builder

	switch result.Kind {
	case "type":
		formatTypeText(&sb, result)
	case "builtin":
		formatBuiltinText(&sb, result)
	case "builtin-list":
		formatBuiltinListText(&sb, result)
	case "operator-list":
		formatOperatorListText(&sb, result)
	case "type-list":
		formatTypeListText(&sb, result)
	default:
		fmt.Fprintf(&sb, "Unknown result kind: %s\n", result.Kind)
	}

	return sb.String()
}

// FormatJSON formats a TopicResult as JSON
func FormatJSON(result *TopicResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// FormatHTML renders the Markdown form of a TopicResult to an HTML fragment.
func FormatHTML(result *TopicResult) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert([]byte(FormatMarkdown(result)), &buf); err != nil {
		return "", fmt.Errorf("rendering help for %s: %w", result.Name, err)
	}
	return buf.String(), nil
}

func formatTypeText(sb *strings.Builder, result *TopicResult) {
	fmt.Fprintf(sb, "Type: %s\n", result.Name)
	if result.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", result.Description)
	}

	if len(result.Methods) == 0 {
		sb.WriteString("\n(no methods)\n")
		return
	}

	sb.WriteString("\nMethods:\n")

	maxLen := 0
	for _, m := range result.Methods {
		maxLen = max(maxLen, len(methodSignature(m)))
	}
	for _, m := range result.Methods {
		display := methodSignature(m)
		padding := strings.Repeat(" ", maxLen-len(display)+2)
		fmt.Fprintf(sb, "  %s%s%s\n", display, padding, m.Description)
	}
}

func formatBuiltinText(sb *strings.Builder, result *TopicResult) {
	fmt.Fprintf(sb, "%s(%s)\n", result.Name, strings.Join(result.Params, ", "))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s\n", result.Description)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Arity: %s\n", result.Arity)
	fmt.Fprintf(sb, "Category: %s\n", result.Category)
}

func formatBuiltinListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Builtin Functions\n")
	sb.WriteString("=================\n\n")

	byCategory, categories := groupBuiltins(result.Builtins)
	for _, cat := range categories {
		builtins := byCategory[cat]
		fmt.Fprintf(sb, "%s:\n", heading(cat))

		maxLen := 0
		for _, b := range builtins {
			maxLen = max(maxLen, len(builtinSignature(b)))
		}
		for _, b := range builtins {
			display := builtinSignature(b)
			padding := strings.Repeat(" ", maxLen-len(display)+2)
			fmt.Fprintf(sb, "  %s%s%s\n", display, padding, b.Description)
		}
		sb.WriteString("\n")
	}
}

func formatOperatorListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Operators\n")
	sb.WriteString("=========\n\n")

	byCategory, categories := groupOperators(result.Operators)
	for _, cat := range categories {
		ops := byCategory[cat]
		fmt.Fprintf(sb, "%s:\n", heading(cat))

		// Minimum width keeps short symbols aligned across categories
		maxLen := 6
		for _, op := range ops {
			maxLen = max(maxLen, len(op.Symbol))
		}
		for _, op := range ops {
			padding := strings.Repeat(" ", maxLen-len(op.Symbol)+2)
			fmt.Fprintf(sb, "  %s%s%s (%s)\n", op.Symbol, padding, op.Description, op.Types)
		}
		sb.WriteString("\n")
	}
}

func formatTypeListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Available Types\n")
	sb.WriteString("===============\n\n")

	var scalars, collections, callables []string
	for _, name := range result.TypeNames {
		switch evaluator.ObjectType(name) {
		case evaluator.ARRAY_OBJ, evaluator.HASH_OBJ:
			collections = append(collections, name)
		case evaluator.FUNCTION_OBJ, evaluator.BUILTIN_OBJ:
			callables = append(callables, name)
		default:
			scalars = append(scalars, name)
		}
	}

	for _, group := range []struct {
		title string
		names []string
	}{
		{"Scalars", scalars},
		{"Collections", collections},
		{"Functions", callables},
	} {
		if len(group.names) > 0 {
			fmt.Fprintf(sb, "%s:\n", group.title)
			fmt.Fprintf(sb, "  %s\n\n", strings.Join(group.names, ", "))
		}
	}

	sb.WriteString("Use 'mila describe <type>' for details on a specific type.\n")
}

// FormatMarkdown formats a TopicResult as GitHub-flavoured Markdown.
func FormatMarkdown(result *TopicResult) string {
	var sb strings.Builder

	switch result.Kind {
	case "type":
		fmt.Fprintf(&sb, "# Type `%s`\n\n%s\n", result.Name, result.Description)
		if len(result.Methods) > 0 {
			sb.WriteString("\n## Methods\n\n| Method | Arity | Description |\n|---|---|---|\n")
			for _, m := range result.Methods {
				fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", cell(methodSignature(m)), m.Arity, cell(m.Description))
			}
		}

	case "builtin":
		fmt.Fprintf(&sb, "# `%s(%s)`\n\n%s\n\n", result.Name, strings.Join(result.Params, ", "), result.Description)
		fmt.Fprintf(&sb, "- **Arity:** %s\n- **Category:** %s\n", result.Arity, heading(result.Category))

	case "builtin-list":
		sb.WriteString("# Builtin Functions\n")
		byCategory, categories := groupBuiltins(result.Builtins)
		for _, cat := range categories {
			fmt.Fprintf(&sb, "\n## %s\n\n| Function | Description |\n|---|---|\n", heading(cat))
			for _, b := range byCategory[cat] {
				fmt.Fprintf(&sb, "| `%s` | %s |\n", cell(builtinSignature(b)), cell(b.Description))
			}
		}

	case "operator-list":
		sb.WriteString("# Operators\n")
		byCategory, categories := groupOperators(result.Operators)
		for _, cat := range categories {
			fmt.Fprintf(&sb, "\n## %s\n\n| Operator | Operands | Description |\n|---|---|---|\n", heading(cat))
			for _, op := range byCategory[cat] {
				fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", cell(op.Symbol), cell(op.Types), cell(op.Description))
			}
		}

	case "type-list":
		sb.WriteString("# Types\n\n")
		for _, name := range result.TypeNames {
			fmt.Fprintf(&sb, "- `%s`: %s\n", name, typeDescriptions[name])
		}

	default:
		fmt.Fprintf(&sb, "Unknown result kind: %s\n", result.Kind)
	}

	return sb.String()
}

// cell escapes pipes, which would otherwise end a table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func methodSignature(m evaluator.MethodInfo) string {
	return fmt.Sprintf(".%s(%s)", m.Name, arityToParams(m.Arity))
}

func builtinSignature(b evaluator.BuiltinInfo) string {
	return fmt.Sprintf("%s(%s)", b.Name, strings.Join(b.Params, ", "))
}

func groupBuiltins(builtins []evaluator.BuiltinInfo) (map[string][]evaluator.BuiltinInfo, []string) {
	byCategory := make(map[string][]evaluator.BuiltinInfo)
	for _, b := range builtins {
		byCategory[b.Category] = append(byCategory[b.Category], b)
	}

	categories := make([]string, 0, len(byCategory))
	for cat, list := range byCategory {
		categories = append(categories, cat)
		sort.Slice(list, func(i, j int) bool {
			return list[i].Name < list[j].Name
		})
	}
	sort.Strings(categories)
	return byCategory, categories
}

// groupOperators keeps categories in the order they first appear.
func groupOperators(ops []evaluator.OperatorInfo) (map[string][]evaluator.OperatorInfo, []string) {
	byCategory := make(map[string][]evaluator.OperatorInfo)
	var categories []string
	for _, op := range ops {
		if _, seen := byCategory[op.Category]; !seen {
			categories = append(categories, op.Category)
		}
		byCategory[op.Category] = append(byCategory[op.Category], op)
	}
	return byCategory, categories
}

// arityToParams converts an arity string to a parameter representation
func arityToParams(arity string) string {
	switch arity {
	case "", "0":
		return ""
	case "1":
		return "arg"
	case "2":
		return "arg1, arg2"
	case "3":
		return "arg1, arg2, arg3"
	case "0-1":
		return "arg?"
	case "1-2":
		return "arg1, arg2?"
	case "1+":
		return "arg, ..."
	case "0+":
		return "..."
	default:
		return "..."
	}
}
