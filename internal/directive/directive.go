// Package directive recognizes `#include` lines and extracts their paths.
//
// Only the exact form `#include <path>` or `#include "path"` is understood:
// the keyword must start the line and be followed by a single space, and the
// closing delimiter must be the last character of the line. There is no
// macro expansion and no support for `#include_next`, tabs, or trailing
// comments.
package directive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/headerpack/internal/model"
)

// Prefix is the literal that starts an include line.
const Prefix = "#include "

// ErrSyntax is wrapped by every *SyntaxError.
var ErrSyntax = errors.New("syntax error in #include statement")

// SyntaxError reports a malformed include line.
type SyntaxError struct {
	Line   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s: %q", ErrSyntax, e.Reason, e.Line)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// IsInclude reports whether line starts with the include prefix.
func IsInclude(line string) bool {
	return strings.HasPrefix(line, Prefix)
}

// Parse returns the directive on line. ok is false when line is not an
// include line at all; err is a *SyntaxError when it is one but the
// delimiters are malformed.
func Parse(line string) (d model.Directive, ok bool, err error) {
	if !IsInclude(line) {
		return model.Directive{}, false, nil
	}
	rest := line[len(Prefix):]
	if len(rest) == 0 {
		return model.Directive{}, true, &SyntaxError{Line: line, Reason: "missing path"}
	}

	open := rest[0]
	var want byte
	switch open {
	case '<':
		want = '>'
	case '"':
		want = '"'
	default:
		return model.Directive{}, true, &SyntaxError{Line: line, Reason: fmt.Sprintf("unexpected delimiter %q", open)}
	}

	// opener and closer must be two distinct characters
	if len(rest) < 2 {
		return model.Directive{}, true, &SyntaxError{Line: line, Reason: "unclosed path"}
	}
	if last := rest[len(rest)-1]; last != want {
		return model.Directive{}, true, &SyntaxError{Line: line, Reason: fmt.Sprintf("expected closing %q, got %q", want, last)}
	}

	path := rest[1 : len(rest)-1]
	if path == "" {
		return model.Directive{}, true, &SyntaxError{Line: line, Reason: "empty path"}
	}

	return model.Directive{
		Raw:   line,
		Open:  open,
		Close: want,
		Path:  path,
	}, true, nil
}
