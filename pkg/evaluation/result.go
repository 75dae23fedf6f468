package evaluation

import (
	"strings"

	"github.com/simonhull/heron/pkg/diagnostics"
)

// Item is one entry of an evaluated item list
type Item struct {
	Include  string
	metadata map[string]string
}

// NewItem creates an item; metadata names are case-insensitive
func NewItem(include string, metadata map[string]string) Item {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[strings.ToLower(k)] = v
	}
	return Item{Include: include, metadata: md}
}

// Metadata returns the named metadata value, or "" when absent
func (i Item) Metadata(name string) string {
	return i.metadata[strings.ToLower(name)]
}

// Result is the raw outcome of one successful evaluation: a property bag
// and item lists in evaluation order.
type Result struct {
	projectPath     string
	targetFramework string
	properties      map[string]string
	items           map[string][]Item
	diagnostics     diagnostics.List
}

// NewResult creates a result. Keys are stored case-insensitively and item
// order is kept exactly as given.
func NewResult(projectPath, targetFramework string, properties map[string]string, items map[string][]Item) *Result {
	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[strings.ToLower(k)] = v
	}
	lists := make(map[string][]Item, len(items))
	for k, v := range items {
		key := strings.ToLower(k)
		lists[key] = append(lists[key], v...)
	}
	return &Result{
		projectPath:     projectPath,
		targetFramework: targetFramework,
		properties:      props,
		items:           lists,
	}
}

// WithDiagnostics returns a copy carrying non-fatal engine diagnostics
func (r *Result) WithDiagnostics(diags diagnostics.List) *Result {
	clone := *r
	clone.diagnostics = append(diagnostics.List(nil), diags...)
	return &clone
}

// ProjectPath returns the evaluated project file
func (r *Result) ProjectPath() string {
	return r.projectPath
}

// TargetFramework returns the selector the evaluation ran with ("" for the
// project's own default)
func (r *Result) TargetFramework() string {
	return r.targetFramework
}

// Property returns a property value. MSBuild treats an empty property as
// undefined, so whitespace-only values report ok == false.
func (r *Result) Property(name string) (string, bool) {
	v, ok := r.properties[strings.ToLower(name)]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// PropertyOr returns a property value or fallback when undefined
func (r *Result) PropertyOr(name, fallback string) string {
	if v, ok := r.Property(name); ok {
		return v
	}
	return fallback
}

// RequiredProperty returns a property value or an EvaluationError
// diagnostic naming the missing property
func (r *Result) RequiredProperty(name string) (string, error) {
	v, ok := r.Property(name)
	if !ok {
		d := diagnostics.New(diagnostics.EvaluationError,
			"evaluation did not define required property %q", name).
			At(r.projectPath, 0, 0).
			WithTarget(r.targetFramework)
		return "", d
	}
	return v, nil
}

// BoolProperty interprets a property as an MSBuild boolean
func (r *Result) BoolProperty(name string) bool {
	v, _ := r.Property(name)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes":
		return true
	default:
		return false
	}
}

// Items returns the items of kind in evaluation order
func (r *Result) Items(kind string) []Item {
	list := r.items[strings.ToLower(kind)]
	out := make([]Item, len(list))
	copy(out, list)
	return out
}

// Diagnostics returns warnings the engine reported during a successful evaluation
func (r *Result) Diagnostics() diagnostics.List {
	return append(diagnostics.List(nil), r.diagnostics...)
}
