// Package source reads header files from a fixed source root.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/phobologic/headerpack/internal/model"
)

// ErrNotFound means a path cannot be resolved under the source root.
// For the packer this is not a failure: the include is external.
var ErrNotFound = errors.New("not found under source root")

const (
	licenseOpen  = "/*"
	licenseClose = "*/"
)

// maxLineSize bounds a single line; generated font tables can be long.
const maxLineSize = 4 << 20

// Matcher reports whether a root-relative, slash-separated path is excluded.
// *ignore.GitIgnore satisfies it.
type Matcher interface {
	MatchesPath(path string) bool
}

// Reader loads documents relative to a source root.
type Reader struct {
	root   string
	ignore Matcher
}

// Option configures a Reader.
type Option func(*Reader)

// WithIgnore makes paths matched by m unresolvable.
func WithIgnore(m Matcher) Option {
	return func(r *Reader) {
		r.ignore = m
	}
}

// New returns a Reader rooted at root.
func New(root string, opts ...Option) *Reader {
	r := &Reader{root: root}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the source root directory.
func (r *Reader) Root() string {
	return r.root
}

// Read loads the file at p (relative to the source root) with its leading
// license comment removed. It returns an error wrapping ErrNotFound when the
// file does not exist, is a directory, or is excluded by the ignore rules.
func (r *Reader) Read(p string) (*model.Document, error) {
	if r.ignore != nil && r.ignore.MatchesPath(path.Clean(p)) {
		return nil, fmt.Errorf("%s: ignored: %w", p, ErrNotFound)
	}

	full := filepath.Join(r.root, filepath.FromSlash(p))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory: %w", p, ErrNotFound)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	lines, err := SplitLines(data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	body := StripLicense(lines)
	return &model.Document{Path: p, Lines: body, Offset: len(lines) - len(body)}, nil
}

// SplitLines splits data into lines, dropping "\n" and "\r\n" terminators.
// A trailing terminator does not produce an empty final line.
func SplitLines(data []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// StripLicense drops a leading block comment from lines.
//
// It only fires when the first line is exactly "/*": everything up to and
// including the first line that is exactly "*/" is removed. Without such a
// closing line the input is returned unchanged.
func StripLicense(lines []string) []string {
	if len(lines) == 0 || lines[0] != licenseOpen {
		return lines
	}
	for i, line := range lines {
		if line == licenseClose {
			return lines[i+1:]
		}
	}
	return lines
}
