package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile lists, in gitignore syntax, local headers that are never
// inlined. .gitignore is not consulted: generated headers are often
// git-ignored and still have to be packed.
const IgnoreFile = ".packignore"

// LoadIgnore compiles root's .packignore into a matcher. It returns a nil
// Matcher when the file does not exist or holds no patterns.
func LoadIgnore(root string) (Matcher, error) {
	data, err := os.ReadFile(filepath.Join(root, IgnoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	lines, err := SplitLines(data)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return ignore.CompileIgnoreLines(lines...), nil
}
