// Package banner writes the preamble of a packed header.
package banner

import (
	"bytes"
	"fmt"
	"io"
)

// Warning is the first line of the generated-file notice.
const Warning = "// WARNING: This is a generated file, do not edit it!"

// Lines returns the generated-file notice for a header packed from library.
func Lines(library string) []string {
	return []string{
		Warning,
		fmt.Sprintf("// This file serves as an API to use for any applications which want to use %s but do not want to include all its headers.", library),
		fmt.Sprintf("// The version ID in this file corresponds to the version of %s it was generated from.", library),
	}
}

// Write writes license verbatim, a blank separator line, then lines.
// An empty license still gets the separator so the notice starts on its own
// line.
func Write(w io.Writer, license []byte, lines []string) error {
	if _, err := w.Write(license); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Skip returns the part of a packed header that starts at the generated-file
// notice, together with the number of lines before it. The license text ahead
// of the notice is copied verbatim and need not be C. Without a notice, src is
// returned whole.
func Skip(src []byte) ([]byte, int) {
	marker := []byte(Warning)
	start := -1
	if bytes.HasPrefix(src, marker) {
		start = 0
	} else if i := bytes.Index(src, append([]byte("\n"), marker...)); i >= 0 {
		start = i + 1
	}
	if start <= 0 {
		return src, 0
	}
	return src[start:], bytes.Count(src[:start], []byte("\n"))
}
