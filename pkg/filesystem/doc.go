// Package filesystem finds project description files in a directory tree.
//
// Traversal runs on an afero.Fs, so callers can point it at the real disk
// (afero.NewOsFs) or an in-memory tree in tests:
//
//	projects, err := filesystem.FindProjectFiles(afero.NewOsFs(), "./src")
//
// Build output (bin, obj), VCS metadata and editor folders are skipped.
package filesystem
