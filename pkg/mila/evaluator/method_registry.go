// Method registry: one declarative table per receiver type, used both for
// dispatch and for describe/help output.

package evaluator

import (
	"sort"
	"strconv"
	"strings"
)

// MethodFunc implements one method. The receiver has already been matched to
// the registry's type. A returned *Error fails the call.
type MethodFunc func(receiver Object, args []Object, env *Environment) Object

// MethodEntry is one row of a registry.
type MethodEntry struct {
	Fn          MethodFunc
	Arity       string // exact ("1"), range ("0-1") or minimum ("1+")
	Description string
}

// MethodInfo is the introspection view of a method.
type MethodInfo struct {
	Name        string `json:"name"`
	Arity       string `json:"arity"`
	Description string `json:"description"`
}

// MethodRegistry is the method table of one receiver type.
type MethodRegistry map[string]MethodEntry

// Names lists the methods, sorted. Error hints and completion use it.
func (r MethodRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks a method up by name.
func (r MethodRegistry) Get(name string) (MethodEntry, bool) {
	entry, ok := r[name]
	return entry, ok
}

// ToMethodInfos converts the registry to a slice of MethodInfo, sorted by
// name.
func (r MethodRegistry) ToMethodInfos() []MethodInfo {
	methods := make([]MethodInfo, 0, len(r))
	for name, entry := range r {
		methods = append(methods, MethodInfo{
			Name:        name,
			Arity:       entry.Arity,
			Description: entry.Description,
		})
	}
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Name < methods[j].Name
	})
	return methods
}

// typeRegistries is keyed by ObjectType name.
var typeRegistries = map[string]MethodRegistry{}

// RegisterMethodRegistry installs the table for typeName. Each methods_*.go
// file calls it from init.
func RegisterMethodRegistry(typeName string, registry MethodRegistry) {
	typeRegistries[typeName] = registry
}

// GetRegistryForType returns the table for typeName, or nil.
func GetRegistryForType(typeName string) MethodRegistry {
	return typeRegistries[typeName]
}

// GetMethodsForType describes the methods of typeName for help output.
func GetMethodsForType(typeName string) []MethodInfo {
	registry := typeRegistries[typeName]
	if registry == nil {
		return nil
	}
	return registry.ToMethodInfos()
}

// TypesWithMethods lists the type names that have a registry, sorted.
func TypesWithMethods() []string {
	names := make([]string, 0, len(typeRegistries))
	for name := range typeRegistries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkArity reports whether got arguments satisfy spec.
func checkArity(spec string, got int) bool {
	spec = strings.TrimSpace(spec)

	if exact, err := strconv.Atoi(spec); err == nil {
		return got == exact
	}

	if lo, hi, found := strings.Cut(spec, "-"); found {
		minVal, errMin := strconv.Atoi(lo)
		maxVal, errMax := strconv.Atoi(hi)
		if errMin == nil && errMax == nil {
			return got >= minVal && got <= maxVal
		}
	}

	if suffix, found := strings.CutSuffix(spec, "+"); found {
		if minVal, err := strconv.Atoi(suffix); err == nil {
			return got >= minVal
		}
	}

	// a malformed spec never rejects a call
	return true
}

// dispatchFromRegistry calls method on receiver. found is false when the
// registry has no such method.
func dispatchFromRegistry(registry MethodRegistry, receiver Object, method string, args []Object, env *Environment) (result Object, found bool) {
	entry, ok := registry.Get(method)
	if !ok {
		return nil, false
	}

	if !checkArity(entry.Arity, len(args)) {
		return newArityError(method, entry.Arity, len(args)), true
	}

	return entry.Fn(receiver, args, env), true
}
