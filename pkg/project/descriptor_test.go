package project

import (
	"errors"
	"testing"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSdk string
	}{
		{"sdk attribute", `<Project Sdk="Microsoft.NET.Sdk.Web"></Project>`, "Microsoft.NET.Sdk.Web"},
		{"sdk elements", `<Project><Sdk Name="Microsoft.NET.Sdk" /><Sdk Name="My.Sdk" Version="1.0" /></Project>`, "Microsoft.NET.Sdk;My.Sdk"},
		{"sdk import", `<Project><Import Project="Sdk.props" Sdk="Microsoft.NET.Sdk" /></Project>`, "Microsoft.NET.Sdk"},
		{"byte order mark", "\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<Project Sdk=\"Microsoft.NET.Sdk\" />", "Microsoft.NET.Sdk"},
		{"legacy", `<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003"><Import Project="a.props" /></Project>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/src/App/App.csproj", []byte(tt.content), 0o644))

			desc, err := ReadDescriptor(fs, "/src/App/App.csproj")
			require.NoError(t, err)
			assert.Equal(t, "/src/App/App.csproj", desc.Path)
			assert.Equal(t, "/src/App", desc.Dir)
			assert.Equal(t, "App", desc.Name())
			assert.Equal(t, tt.wantSdk, desc.Sdk)
			assert.Equal(t, tt.wantSdk != "", desc.IsSdkStyle())
		})
	}
}

func TestReadDescriptor_StaticProperties(t *testing.T) {
	tests := []struct {
		name               string
		content            string
		wantCrossTargeting bool
		wantLangVersion    string
	}{
		{"single target", `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><TargetFramework>net8.0</TargetFramework></PropertyGroup></Project>`, false, ""},
		{"multi target", `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><TargetFrameworks>net8.0;net472</TargetFrameworks></PropertyGroup></Project>`, true, ""},
		{"blank multi target", `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><TargetFrameworks> </TargetFrameworks></PropertyGroup></Project>`, false, ""},
		{"lang version", `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><LangVersion> 7.1 </LangVersion></PropertyGroup></Project>`, false, "7.1"},
		{"last assignment wins", `<Project><PropertyGroup><LangVersion>7.1</LangVersion></PropertyGroup><PropertyGroup Condition="'$(Configuration)' == 'Release'"><LangVersion>latest</LangVersion></PropertyGroup></Project>`, false, "latest"},
		{"namespaced legacy", `<Project xmlns="http://schemas.microsoft.com/developer/msbuild/2003"><PropertyGroup><LangVersion>6</LangVersion></PropertyGroup></Project>`, false, "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/src/App/App.csproj", []byte(tt.content), 0o644))

			desc, err := ReadDescriptor(fs, "/src/App/App.csproj")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCrossTargeting, desc.CrossTargeting)
			assert.Equal(t, tt.wantLangVersion, desc.LangVersion)
		})
	}
}

func TestReadDescriptor_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/Bad.csproj", []byte("<Project>\n  <PropertyGroup>\n</Project>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/Other.csproj", []byte(`<Solution></Solution>`), 0o644))
	require.NoError(t, fs.MkdirAll("/src/Dir.csproj", 0o755))

	tests := []struct {
		name     string
		path     string
		wantMsg  string
		wantLine int
	}{
		{"missing", "/src/Missing.csproj", "does not exist", 0},
		{"directory", "/src/Dir.csproj", "is a directory", 0},
		{"mismatched tags", "/src/Bad.csproj", "not well-formed", 3},
		{"wrong root", "/src/Other.csproj", "no <Project> root", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDescriptor(fs, tt.path)
			require.Error(t, err)

			var d diagnostics.Diagnostic
			require.True(t, errors.As(err, &d))
			assert.Equal(t, diagnostics.EvaluationError, d.Kind)
			assert.Contains(t, d.Message, tt.wantMsg)
			assert.Equal(t, tt.path, d.Location.File)
			assert.Equal(t, tt.wantLine, d.Location.Line)
		})
	}
}
