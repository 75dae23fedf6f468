package targets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/evaluation"
)

// Source names the property a target list was declared with
type Source string

const (
	SourceNone             Source = ""
	SourceTargetFrameworks Source = evaluation.PropTargetFrameworks
	SourceTargetFramework  Source = evaluation.PropTargetFramework
	SourceLegacy           Source = evaluation.PropTargetFrameworkIdentifier
)

// NoTargetFrameworkError reports a project that declares no target framework
type NoTargetFrameworkError struct {
	ProjectPath string
}

func (e *NoTargetFrameworkError) Error() string {
	return fmt.Sprintf("%s declares no target framework", e.ProjectPath)
}

// Diagnostic converts the error for a load's diagnostic list
func (e *NoTargetFrameworkError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.New(diagnostics.NoTargetFrameworkError,
		"project declares no target framework (set TargetFramework or TargetFrameworks)").
		At(e.ProjectPath, 0, 0)
}

// Declared reads the target frameworks an outer evaluation declares, in
// declared order with case-insensitive duplicates removed. TargetFrameworks
// wins over TargetFramework, which wins over the legacy identifier/version pair.
func Declared(outer *evaluation.Result) ([]string, Source) {
	if v, ok := outer.Property(evaluation.PropTargetFrameworks); ok {
		if list := ParseList(v); len(list) > 0 {
			return list, SourceTargetFrameworks
		}
	}

	if v, ok := outer.Property(evaluation.PropTargetFramework); ok {
		return []string{strings.TrimSpace(v)}, SourceTargetFramework
	}

	identifier, _ := outer.Property(evaluation.PropTargetFrameworkIdentifier)
	version, _ := outer.Property(evaluation.PropTargetFrameworkVersion)
	if moniker := LegacyMoniker(identifier, version); moniker != "" {
		return []string{moniker}, SourceLegacy
	}

	return nil, SourceNone
}

// ParseList splits a semicolon-separated target list. Blank entries are
// dropped and later duplicates (ignoring case) removed.
func ParseList(value string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(value, ";") {
		tf := strings.TrimSpace(part)
		if tf == "" {
			continue
		}
		key := strings.ToLower(tf)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tf)
	}
	return out
}

// LegacyMoniker builds a short moniker from TargetFrameworkIdentifier and
// TargetFrameworkVersion, e.g. (.NETFramework, v4.6.1) => net461.
// Unknown identifiers yield "".
func LegacyMoniker(identifier, version string) string {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if version == "" {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(identifier)) {
	case ".netframework":
		return "net" + strings.ReplaceAll(version, ".", "")
	case ".netcoreapp":
		major, _, _ := strings.Cut(version, ".")
		if n, err := strconv.Atoi(major); err == nil && n >= 5 {
			return "net" + version
		}
		return "netcoreapp" + version
	case ".netstandard":
		return "netstandard" + version
	default:
		return ""
	}
}

// SelectPrimary returns the primary target: requested when it names a
// declared target (ignoring case), otherwise the first declared one. An
// undeclared request is reported as a NormalizationWarning.
func SelectPrimary(declared []string, requested string) (string, diagnostics.List) {
	if len(declared) == 0 {
		return "", nil
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return declared[0], nil
	}
	for _, tf := range declared {
		if strings.EqualFold(tf, requested) {
			return tf, nil
		}
	}
	return declared[0], diagnostics.List{
		diagnostics.New(diagnostics.NormalizationWarning,
			"primary target framework %s is not declared; using %s", requested, declared[0]),
	}
}
