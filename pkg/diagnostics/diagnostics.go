// Package diagnostics defines the structured warnings and errors collected
// while a project is evaluated and normalized.
//
// Diagnostics are values, not log lines: every stage of a load appends to a
// List which is handed back to the caller alongside the result.
package diagnostics

import (
	"fmt"
	"strings"
)

// Kind classifies where a diagnostic came from and how fatal it is.
type Kind string

const (
	// ConfigurationError reports unresolvable SDK or tooling paths.
	// Evaluation is still attempted.
	ConfigurationError Kind = "ConfigurationError"
	// EvaluationError reports an engine failure. Fatal for one target.
	EvaluationError Kind = "EvaluationError"
	// NoTargetFrameworkError reports a project without target frameworks.
	// Fatal for the whole load.
	NoTargetFrameworkError Kind = "NoTargetFrameworkError"
	// NormalizationWarning reports data dropped while normalizing.
	NormalizationWarning Kind = "NormalizationWarning"
)

// Severity is the impact of a diagnostic on the load
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lower-case severity name
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name for JSON and YAML output
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Location points into a source file (usually the project file)
type Location struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// String formats the location the way MSBuild does: file(line,col)
func (l Location) String() string {
	switch {
	case l.Line > 0 && l.Column > 0:
		return fmt.Sprintf("%s(%d,%d)", l.File, l.Line, l.Column)
	case l.Line > 0:
		return fmt.Sprintf("%s(%d)", l.File, l.Line)
	default:
		return l.File
	}
}

// Diagnostic is a single structured warning or error
type Diagnostic struct {
	Kind            Kind      `json:"kind" yaml:"kind"`
	Severity        Severity  `json:"severity" yaml:"severity"`
	Code            string    `json:"code,omitempty" yaml:"code,omitempty"`
	Message         string    `json:"message" yaml:"message"`
	TargetFramework string    `json:"targetFramework,omitempty" yaml:"targetFramework,omitempty"`
	Location        *Location `json:"location,omitempty" yaml:"location,omitempty"`
}

// Error returns a formatted, single-line description
func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.Location != nil && d.Location.File != "" {
		b.WriteString(d.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(d.Severity.String())
	if d.Code != "" {
		b.WriteString(" ")
		b.WriteString(d.Code)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.TargetFramework != "" {
		fmt.Fprintf(&b, " [%s]", d.TargetFramework)
	}
	return b.String()
}

// IsError reports whether the diagnostic has error severity
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// New creates a diagnostic with the default severity for its kind
func New(kind Kind, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: defaultSeverity(kind),
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithTarget returns a copy tagged with a target framework
func (d Diagnostic) WithTarget(tf string) Diagnostic {
	d.TargetFramework = tf
	return d
}

// At returns a copy carrying a source location
func (d Diagnostic) At(file string, line, column int) Diagnostic {
	d.Location = &Location{File: file, Line: line, Column: column}
	return d
}

func defaultSeverity(kind Kind) Severity {
	switch kind {
	case ConfigurationError, NormalizationWarning:
		return SeverityWarning
	default:
		return SeverityError
	}
}
