package lang

import (
	"github.com/smacker/go-tree-sitter/c"
)

func init() {
	Languages["c"] = &Language{
		Name:       "c",
		Extensions: []string{".h", ".c", ".inc"},
		lang:       c.GetLanguage(),
	}
}
