// Package project loads a project file into a normalized model.
//
// Load reads the project descriptor, asks the evaluation engine for the
// declared target frameworks, evaluates each target and merges the
// normalized results into a model.ProjectFileInfo. Problems never abort the
// load early: they are collected as diagnostics, and the model is nil only
// when no target evaluated.
//
//	info, diags := project.Load(ctx, "src/App/App.csproj", project.Options{
//	    Sdks:          resolver,
//	    Configuration: "Release",
//	})
//	for _, d := range diags {
//	    fmt.Println(d)
//	}
package project
