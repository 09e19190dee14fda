// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/headerpack/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts an IncludeMap into TOON format.
func Encode(m *model.IncludeMap) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(m.Root)))

	var fileRows [][]string
	for i := range m.Files {
		f := &m.Files[i]
		fileRows = append(fileRows, []string{
			f.Path,
			string(f.Status),
			fmt.Sprintf("%.4f", f.Rank),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "status", "rank"}, fileRows))

	var edgeRows [][]string
	for i := range m.Edges {
		e := &m.Edges[i]
		edgeRows = append(edgeRows, []string{
			e.Source,
			e.Target,
			fmt.Sprintf("%d", e.Line),
			string(e.Outcome),
		})
	}
	parts = append(parts, formatTabular("includes", []string{"source", "target", "line", "outcome"}, edgeRows))

	return strings.Join(parts, "\n")
}

// EncodeCheck converts the result of parsing a packed header into TOON.
func EncodeCheck(file string, tags []model.Tag, issues []model.SyntaxIssue) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("file: %s", encodeValue(file)))

	var tagRows [][]string
	for i := range tags {
		tag := &tags[i]
		tagRows = append(tagRows, []string{
			tag.Name,
			string(tag.Kind),
			fmt.Sprintf("%d", tag.Line),
		})
	}
	parts = append(parts, formatTabular("declarations", []string{"name", "kind", "line"}, tagRows))

	if len(issues) > 0 {
		var issueRows [][]string
		for i := range issues {
			is := &issues[i]
			kind := "error"
			if is.Missing {
				kind = "missing"
			}
			issueRows = append(issueRows, []string{
				fmt.Sprintf("%d", is.Line),
				fmt.Sprintf("%d", is.Column),
				kind,
				is.Text,
			})
		}
		parts = append(parts, formatTabular("errors", []string{"line", "column", "kind", "text"}, issueRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
