package evaluation

import (
	"fmt"
	"sort"
	"strings"
)

// Property is a single global property passed to the engine
type Property struct {
	Name  string
	Value string
}

// Properties is an ordered set of global property overrides.
//
// Names compare case-insensitively, as MSBuild does. Setting a name that is
// already present replaces its value in place. The zero value is empty and
// ready to use; all methods return copies, so a Properties value handed to
// an engine cannot change underneath it.
type Properties struct {
	entries []Property
}

// NewProperties builds a set from pairs, later duplicates replacing earlier ones
func NewProperties(pairs ...Property) Properties {
	var p Properties
	for _, pair := range pairs {
		p = p.With(pair.Name, pair.Value)
	}
	return p
}

// FromMap builds a set from a map, ordered by name so the result is stable
func FromMap(m map[string]string) Properties {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var p Properties
	for _, name := range names {
		p = p.With(name, m[name])
	}
	return p
}

// With returns a copy with name set to value
func (p Properties) With(name, value string) Properties {
	entries := make([]Property, len(p.entries), len(p.entries)+1)
	copy(entries, p.entries)

	for i, e := range entries {
		if strings.EqualFold(e.Name, name) {
			entries[i].Value = value
			return Properties{entries: entries}
		}
	}
	return Properties{entries: append(entries, Property{Name: name, Value: value})}
}

// Without returns a copy with name removed
func (p Properties) Without(name string) Properties {
	entries := make([]Property, 0, len(p.entries))
	for _, e := range p.entries {
		if !strings.EqualFold(e.Name, name) {
			entries = append(entries, e)
		}
	}
	return Properties{entries: entries}
}

// Merge returns a copy with every entry of other applied on top
func (p Properties) Merge(other Properties) Properties {
	out := p
	for _, e := range other.entries {
		out = out.With(e.Name, e.Value)
	}
	return out
}

// Get returns the value for name
func (p Properties) Get(name string) (string, bool) {
	for _, e := range p.entries {
		if strings.EqualFold(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// Len returns the number of properties
func (p Properties) Len() int {
	return len(p.entries)
}

// All returns the properties in order
func (p Properties) All() []Property {
	out := make([]Property, len(p.entries))
	copy(out, p.entries)
	return out
}

// ParseProperty parses a Name=Value pair as given on the command line
func ParseProperty(s string) (Property, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Property{}, fmt.Errorf("invalid property %q: expected Name=Value", s)
	}
	if strings.ContainsAny(name, " ;=") {
		return Property{}, fmt.Errorf("invalid property name %q", name)
	}
	return Property{Name: name, Value: value}, nil
}

// escapeValue applies MSBuild escaping to characters that separate
// properties on the command line
func escapeValue(v string) string {
	r := strings.NewReplacer("%", "%25", ";", "%3B", ",", "%2C")
	return r.Replace(v)
}
