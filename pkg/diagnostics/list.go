package diagnostics

import "fmt"

// List is an ordered collection of diagnostics
type List []Diagnostic

// Error returns all diagnostics formatted with clear separation
func (l List) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	if len(l) == 1 {
		return l[0].Error()
	}

	result := fmt.Sprintf("found %d diagnostics:\n", len(l))
	for i, d := range l {
		result += fmt.Sprintf("  %d. %s\n", i+1, d.Error())
	}
	return result
}

// HasErrors reports whether any diagnostic has error severity
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.IsError() {
			return true
		}
	}
	return false
}

// OfKind returns the diagnostics of the given kind, in order
func (l List) OfKind(kind Kind) List {
	var out List
	for _, d := range l {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Has reports whether at least one diagnostic of the given kind is present
func (l List) Has(kind Kind) bool {
	for _, d := range l {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Errors returns the error-severity diagnostics
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the warning-severity diagnostics
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if !d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Err returns the list as an error when it holds errors, nil otherwise
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l.Errors()
}
