// Package model holds the normalized project model produced by a load.
package model

import "strings"

// ProjectFileInfo is the canonical description of one evaluated project.
// Project-level fields come from the primary target; Targets keeps every
// target that evaluated successfully, in declared order.
type ProjectFileInfo struct {
	FilePath         string   `json:"filePath" yaml:"filePath"`
	Name             string   `json:"name" yaml:"name"`
	TargetFrameworks []string `json:"targetFrameworks" yaml:"targetFrameworks"`
	OutputPath       string   `json:"outputPath" yaml:"outputPath"`
	SourceFiles      []string `json:"sourceFiles" yaml:"sourceFiles"`
	LanguageVersion  *string  `json:"languageVersion,omitempty" yaml:"languageVersion,omitempty"`

	PrimaryTargetFramework string             `json:"primaryTargetFramework" yaml:"primaryTargetFramework"`
	IsSdkStyle             bool               `json:"isSdkStyle" yaml:"isSdkStyle"`
	AssemblyName           string             `json:"assemblyName,omitempty" yaml:"assemblyName,omitempty"`
	TargetPath             string             `json:"targetPath,omitempty" yaml:"targetPath,omitempty"`
	Configuration          string             `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Platform               string             `json:"platform,omitempty" yaml:"platform,omitempty"`
	OutputKind             string             `json:"outputKind,omitempty" yaml:"outputKind,omitempty"`
	DefineConstants        []string           `json:"defineConstants,omitempty" yaml:"defineConstants,omitempty"`
	AllowUnsafeCode        bool               `json:"allowUnsafeCode" yaml:"allowUnsafeCode"`
	TreatWarningsAsErrors  bool               `json:"treatWarningsAsErrors" yaml:"treatWarningsAsErrors"`
	Nullable               string             `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ProjectReferences      []string           `json:"projectReferences,omitempty" yaml:"projectReferences,omitempty"`
	PackageReferences      []PackageReference `json:"packageReferences,omitempty" yaml:"packageReferences,omitempty"`

	Targets []TargetInfo `json:"targets" yaml:"targets"`
}

// TargetInfo is the normalized view of one target framework's evaluation
type TargetInfo struct {
	TargetFramework       string             `json:"targetFramework" yaml:"targetFramework"`
	OutputPath            string             `json:"outputPath" yaml:"outputPath"`
	SourceFiles           []string           `json:"sourceFiles" yaml:"sourceFiles"`
	LanguageVersion       *string            `json:"languageVersion,omitempty" yaml:"languageVersion,omitempty"`
	AssemblyName          string             `json:"assemblyName,omitempty" yaml:"assemblyName,omitempty"`
	TargetPath            string             `json:"targetPath,omitempty" yaml:"targetPath,omitempty"`
	Configuration         string             `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Platform              string             `json:"platform,omitempty" yaml:"platform,omitempty"`
	OutputKind            string             `json:"outputKind,omitempty" yaml:"outputKind,omitempty"`
	DefineConstants       []string           `json:"defineConstants,omitempty" yaml:"defineConstants,omitempty"`
	AllowUnsafeCode       bool               `json:"allowUnsafeCode" yaml:"allowUnsafeCode"`
	TreatWarningsAsErrors bool               `json:"treatWarningsAsErrors" yaml:"treatWarningsAsErrors"`
	Nullable              string             `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ProjectReferences     []string           `json:"projectReferences,omitempty" yaml:"projectReferences,omitempty"`
	PackageReferences     []PackageReference `json:"packageReferences,omitempty" yaml:"packageReferences,omitempty"`
}

// PackageReference is a NuGet dependency declared by the project
type PackageReference struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Target returns the per-target info for tf, if that target evaluated
func (p *ProjectFileInfo) Target(tf string) (TargetInfo, bool) {
	for _, t := range p.Targets {
		if strings.EqualFold(t.TargetFramework, tf) {
			return t, true
		}
	}
	return TargetInfo{}, false
}

// HasLanguageVersion reports whether an explicit language version was set
func (p *ProjectFileInfo) HasLanguageVersion() bool {
	return p.LanguageVersion != nil
}
