package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/simonhull/heron/pkg/diagnostics"
)

// evaluationDocument is what `dotnet msbuild -getProperty -getItem` prints
type evaluationDocument struct {
	Properties map[string]string              `json:"Properties"`
	Items      map[string][]map[string]string `json:"Items"`
}

func parseEvaluationOutput(stdout []byte) (map[string]string, map[string][]Item, error) {
	start := documentStart(stdout)
	if start < 0 {
		return nil, nil, fmt.Errorf("no JSON document in engine output")
	}

	var doc evaluationDocument
	if err := json.NewDecoder(bytes.NewReader(stdout[start:])).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decoding engine output: %w", err)
	}

	items := make(map[string][]Item, len(doc.Items))
	for kind, entries := range doc.Items {
		list := make([]Item, 0, len(entries))
		for _, md := range entries {
			include := md["Identity"]
			list = append(list, NewItem(include, md))
		}
		items[kind] = list
	}

	if doc.Properties == nil {
		doc.Properties = map[string]string{}
	}
	return doc.Properties, items, nil
}

// documentStart returns the offset of the first line opening a JSON object,
// or -1. Log lines before it may contain braces of their own.
func documentStart(stdout []byte) int {
	offset := 0
	for _, line := range bytes.SplitAfter(stdout, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t\r")
		if bytes.HasPrefix(trimmed, []byte("{")) {
			return offset + len(line) - len(trimmed)
		}
		offset += len(line)
	}
	return -1
}

// canonicalLine matches MSBuild's canonical error format:
//
//	origin(line,col): [subcategory] error|warning CODE: text [project]
var canonicalLine = regexp.MustCompile(
	`^\s*(?:(.+?)(?:\((\d+)(?:,(\d+))?[^)]*\))?\s*:\s*)?(?:[\w ]+?\s+)?(error|warning)\s*([A-Za-z]+\d+)?\s*:\s*(.*?)(?:\s+\[[^\]]*\])?\s*$`)

// parseDiagnostics extracts canonical error and warning lines from engine output
func parseDiagnostics(text, projectPath string) diagnostics.List {
	var out diagnostics.List
	for _, line := range strings.Split(text, "\n") {
		m := canonicalLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}

		d := diagnostics.New(diagnostics.EvaluationError, "%s", m[6])
		d.Code = m[5]
		if m[4] == "warning" {
			d.Severity = diagnostics.SeverityWarning
		}

		origin := strings.TrimSpace(m[1])
		switch {
		case origin == "" || strings.EqualFold(origin, "MSBUILD"):
			d = d.At(projectPath, 0, 0)
		default:
			ln, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			d = d.At(origin, ln, col)
		}
		out = append(out, d)
	}
	return out
}
