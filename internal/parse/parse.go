// Package parse extracts declarations and syntax problems from C headers
// using tree-sitter.
package parse

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/headerpack/internal/lang"
	"github.com/phobologic/headerpack/internal/model"
)

var captureMap = map[string]model.TagKind{
	"definition.function": model.Function,
	"definition.struct":   model.Struct,
	"definition.union":    model.Union,
	"definition.enum":     model.Enum,
	"definition.typedef":  model.Typedef,
	"definition.macro":    model.Macro,
}

// maxIssueText bounds the source excerpt stored with a syntax issue.
const maxIssueText = 60

// Result is what a single parse of a header yields.
type Result struct {
	Tags   []model.Tag
	Issues []model.SyntaxIssue
}

// OK reports whether the parse found no syntax problems.
func (r *Result) OK() bool {
	return len(r.Issues) == 0
}

// Shift moves every tag and issue down by n lines, for a source that was cut
// from a larger file.
func (r *Result) Shift(n int) {
	for i := range r.Tags {
		r.Tags[i].Line += n
	}
	for i := range r.Issues {
		r.Issues[i].Line += n
	}
}

// Header parses source with the given parser and query. The parser must be
// created for the C language.
func Header(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte) (*Result, error) {
	res := &Result{}
	if len(source) == 0 {
		return res, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	res.Tags = extractTags(root, query, source)
	if root.HasError() {
		res.Issues = collectIssues(root, source, nil)
	}
	return res, nil
}

func extractTags(root *sitter.Node, query *sitter.Query, source []byte) []model.Tag {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var tags []model.Tag
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode *sitter.Node
		var kind model.TagKind
		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if k, ok := captureMap[cname]; ok {
				kind = k
			}
		}
		if nameNode == nil || kind == "" {
			continue
		}

		tags = append(tags, model.Tag{
			Name: lang.NodeText(nameNode, source),
			Kind: kind,
			Line: int(nameNode.StartPoint().Row) + 1,
		})
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Line < tags[j].Line
	})
	return tags
}

// collectIssues walks the subtrees that contain errors and records every
// ERROR and MISSING node, outermost first.
func collectIssues(node *sitter.Node, source []byte, out []model.SyntaxIssue) []model.SyntaxIssue {
	switch {
	case node.IsMissing():
		p := node.StartPoint()
		return append(out, model.SyntaxIssue{
			Line:    int(p.Row) + 1,
			Column:  int(p.Column) + 1,
			Missing: true,
			Text:    node.Type(),
		})
	case node.Type() == "ERROR":
		p := node.StartPoint()
		return append(out, model.SyntaxIssue{
			Line:   int(p.Row) + 1,
			Column: int(p.Column) + 1,
			Text:   excerpt(lang.NodeText(node, source)),
		})
	}
	if !node.HasError() {
		return out
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		out = collectIssues(node.Child(i), source, out)
	}
	return out
}

func excerpt(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = lang.CollapseWhitespace(s)
	if len(s) > maxIssueText {
		s = s[:maxIssueText]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}
	return s
}
