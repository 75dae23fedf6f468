// Package heron extracts normalized build metadata from MSBuild projects.
package heron

// Version is the current heron release.
const Version = "0.3.0"
