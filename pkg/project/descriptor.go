package project

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/simonhull/heron/pkg/diagnostics"
	"github.com/spf13/afero"
)

// Descriptor identifies the project file a load works on
type Descriptor struct {
	// Path is the absolute project file path
	Path string
	// Dir is the directory containing the project file
	Dir string
	// Sdk names the project SDK(s), empty for legacy projects
	Sdk string
	// CrossTargeting is set when the project file declares TargetFrameworks
	CrossTargeting bool
	// LangVersion is the value the project file assigns, unevaluated
	LangVersion string
}

// Name returns the file name without extension
func (d Descriptor) Name() string {
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsSdkStyle reports whether the project imports an SDK
func (d Descriptor) IsSdkStyle() bool {
	return d.Sdk != ""
}

// rootElement is the part of a project file read before evaluation
type rootElement struct {
	XMLName xml.Name `xml:"Project"`
	Sdk     string   `xml:"Sdk,attr"`
	Sdks    []struct {
		Name string `xml:"Name,attr"`
	} `xml:"Sdk"`
	Imports []struct {
		Sdk string `xml:"Sdk,attr"`
	} `xml:"Import"`
	PropertyGroups []struct {
		TargetFrameworks []string `xml:"TargetFrameworks"`
		LangVersion      []string `xml:"LangVersion"`
	} `xml:"PropertyGroup"`
}

// ReadDescriptor checks that path exists and is well-formed XML with a
// <Project> root, and reads its SDK reference. Problems are returned as
// EvaluationError diagnostics located in the project file.
func ReadDescriptor(fs afero.Fs, path string) (Descriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Descriptor{}, diagnostics.New(diagnostics.EvaluationError, "invalid project path %s: %v", path, err)
	}
	desc := Descriptor{Path: abs, Dir: filepath.Dir(abs)}

	info, err := fs.Stat(abs)
	switch {
	case err != nil && os.IsNotExist(err):
		return desc, diagnostics.New(diagnostics.EvaluationError, "project file does not exist").At(abs, 0, 0)
	case err != nil:
		return desc, diagnostics.New(diagnostics.EvaluationError, "cannot read project file: %v", err).At(abs, 0, 0)
	case info.IsDir():
		return desc, diagnostics.New(diagnostics.EvaluationError, "project path is a directory").At(abs, 0, 0)
	}

	data, err := afero.ReadFile(fs, abs)
	if err != nil {
		return desc, diagnostics.New(diagnostics.EvaluationError, "cannot read project file: %v", err).At(abs, 0, 0)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if err := checkWellFormed(data); err != nil {
		d := diagnostics.New(diagnostics.EvaluationError, "project file is not well-formed XML: %s", err.msg).
			At(abs, err.line, 0)
		d.Code = "MSB4025"
		return desc, d
	}

	var root rootElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return desc, diagnostics.New(diagnostics.EvaluationError, "project file has no <Project> root element").At(abs, 1, 0)
	}

	desc.Sdk = sdkReference(root)
	desc.CrossTargeting, desc.LangVersion = staticProperties(root)
	return desc, nil
}

// staticProperties reads the property assignments the load plans around.
// Conditions are ignored; the last LangVersion assignment wins.
func staticProperties(root rootElement) (crossTargeting bool, langVersion string) {
	for _, g := range root.PropertyGroups {
		for _, v := range g.TargetFrameworks {
			if strings.TrimSpace(v) != "" {
				crossTargeting = true
			}
		}
		for _, v := range g.LangVersion {
			if v = strings.TrimSpace(v); v != "" {
				langVersion = v
			}
		}
	}
	return crossTargeting, langVersion
}

func sdkReference(root rootElement) string {
	if s := strings.TrimSpace(root.Sdk); s != "" {
		return s
	}
	var names []string
	for _, s := range root.Sdks {
		if n := strings.TrimSpace(s.Name); n != "" {
			names = append(names, n)
		}
	}
	for _, imp := range root.Imports {
		if n := strings.TrimSpace(imp.Sdk); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ";")
}

type syntaxError struct {
	line int
	msg  string
}

// checkWellFormed reads every token so errors past the root start tag surface
// before the engine runs
func checkWellFormed(data []byte) *syntaxError {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return &syntaxError{line: se.Line, msg: se.Msg}
			}
			line, _ := dec.InputPos()
			return &syntaxError{line: line, msg: fmt.Sprint(err)}
		}
	}
}
