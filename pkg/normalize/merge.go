package normalize

import (
	"path/filepath"
	"strings"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/simonhull/heron/pkg/model"
)

// Input is everything Merge needs to assemble a ProjectFileInfo
type Input struct {
	FilePath   string
	IsSdkStyle bool
	// Declared is the full declared target list, in order
	Declared []string
	// Primary is the target whose fragment supplies project-level fields
	Primary string
	// Targets are the fragments of successfully evaluated targets, in declared order
	Targets []model.TargetInfo
}

// Merge builds the project model from per-target fragments. It returns nil
// when no target evaluated. When the primary target is missing its place is
// taken by the first successful target and a NormalizationWarning is reported.
func Merge(in Input) (*model.ProjectFileInfo, diagnostics.List) {
	if len(in.Targets) == 0 {
		return nil, nil
	}

	var diags diagnostics.List
	primary, ok := find(in.Targets, in.Primary)
	if !ok {
		primary = in.Targets[0]
		if in.Primary != "" {
			diags = append(diags, diagnostics.New(diagnostics.NormalizationWarning,
				"primary target %s did not evaluate; project fields come from %s",
				in.Primary, primary.TargetFramework).WithTarget(in.Primary))
		}
	}

	targets := make([]model.TargetInfo, len(in.Targets))
	for i, t := range in.Targets {
		targets[i] = cloneTarget(t)
	}
	p := cloneTarget(primary)

	info := &model.ProjectFileInfo{
		FilePath:               in.FilePath,
		Name:                   projectName(in.FilePath, p.AssemblyName),
		TargetFrameworks:       append([]string(nil), in.Declared...),
		OutputPath:             p.OutputPath,
		SourceFiles:            p.SourceFiles,
		LanguageVersion:        p.LanguageVersion,
		PrimaryTargetFramework: p.TargetFramework,
		IsSdkStyle:             in.IsSdkStyle,
		AssemblyName:           p.AssemblyName,
		TargetPath:             p.TargetPath,
		Configuration:          p.Configuration,
		Platform:               p.Platform,
		OutputKind:             p.OutputKind,
		DefineConstants:        p.DefineConstants,
		AllowUnsafeCode:        p.AllowUnsafeCode,
		TreatWarningsAsErrors:  p.TreatWarningsAsErrors,
		Nullable:               p.Nullable,
		ProjectReferences:      p.ProjectReferences,
		PackageReferences:      p.PackageReferences,
		Targets:                targets,
	}
	if len(info.TargetFrameworks) == 0 {
		for _, t := range targets {
			info.TargetFrameworks = append(info.TargetFrameworks, t.TargetFramework)
		}
	}
	return info, diags
}

func find(targets []model.TargetInfo, tf string) (model.TargetInfo, bool) {
	for _, t := range targets {
		if strings.EqualFold(t.TargetFramework, tf) {
			return t, true
		}
	}
	return model.TargetInfo{}, false
}

func projectName(filePath, assemblyName string) string {
	if assemblyName != "" {
		return assemblyName
	}
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func cloneTarget(t model.TargetInfo) model.TargetInfo {
	out := t
	out.SourceFiles = append([]string{}, t.SourceFiles...)
	out.DefineConstants = cloneStrings(t.DefineConstants)
	out.ProjectReferences = cloneStrings(t.ProjectReferences)
	if t.PackageReferences != nil {
		out.PackageReferences = append([]model.PackageReference(nil), t.PackageReferences...)
	}
	if t.LanguageVersion != nil {
		v := *t.LanguageVersion
		out.LanguageVersion = &v
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
