package filesystem

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultIgnoreDirs are common directories to skip during traversal.
// bin and obj hold build output and restore artifacts, never project files.
var DefaultIgnoreDirs = []string{
	"node_modules", ".git", ".svn", ".hg",
	"bin", "obj", "packages",
	".idea", ".vscode", ".vs",
}

// ProjectExtensions are the project description files heron can load
var ProjectExtensions = []string{".csproj", ".fsproj", ".vbproj"}

// WalkOptions configures directory traversal behavior
type WalkOptions struct {
	IgnoreDirs    []string // Directories to skip (default: DefaultIgnoreDirs)
	IncludeHidden bool     // Include hidden files/dirs (default: false)
}

// Walk traverses a directory tree on fs with configurable ignore rules.
// The visitor function is called for each file and directory.
// Return filepath.SkipDir from visitor to skip a directory.
func Walk(fs afero.Fs, rootPath string, opts WalkOptions, visitor func(path string, info os.FileInfo) error) error {
	ignoreDirs := opts.IgnoreDirs
	if len(ignoreDirs) == 0 {
		ignoreDirs = DefaultIgnoreDirs
	}

	return afero.Walk(fs, rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !opts.IncludeHidden && strings.HasPrefix(info.Name(), ".") && path != rootPath {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() && path != rootPath {
			for _, ignore := range ignoreDirs {
				if strings.EqualFold(info.Name(), ignore) {
					return filepath.SkipDir
				}
			}
		}

		return visitor(path, info)
	})
}

// IsProjectFile reports whether path has a known project extension
func IsProjectFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range ProjectExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// FindProjectFiles returns every project file under rootPath in lexical
// walk order. If rootPath is itself a project file it is returned alone.
func FindProjectFiles(fs afero.Fs, rootPath string) ([]string, error) {
	info, err := fs.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if IsProjectFile(rootPath) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var projects []string
	err = Walk(fs, rootPath, WalkOptions{}, func(path string, info os.FileInfo) error {
		if !info.IsDir() && IsProjectFile(path) {
			projects = append(projects, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}
