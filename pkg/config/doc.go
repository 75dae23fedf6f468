// Package config loads heron.yml.
//
// Values come from, lowest first: built-in defaults, the YAML file, and
// HERON_* environment variables (HERON_MSBUILD_CONFIGURATION overrides
// msbuild.configuration).
package config
