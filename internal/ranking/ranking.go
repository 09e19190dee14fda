// Package ranking trims a ranked include map to its most central headers.
package ranking

import (
	"strings"

	"github.com/phobologic/headerpack/internal/model"
)

// SelectFiles returns a new IncludeMap with only the top-ranked files and the
// edges between them. If maxFiles is <= 0 or >= len(files), m is returned.
// Files must already be sorted by rank.
func SelectFiles(m *model.IncludeMap, maxFiles int) *model.IncludeMap {
	if maxFiles <= 0 || maxFiles >= len(m.Files) {
		return m
	}

	selected := m.Files[:maxFiles]
	selectedPaths := make(map[string]struct{}, maxFiles)
	for i := range selected {
		selectedPaths[selected[i].Path] = struct{}{}
	}

	var edges []model.Edge
	for i := range m.Edges {
		e := &m.Edges[i]
		_, srcOK := selectedPaths[e.Source]
		_, tgtOK := selectedPaths[e.Target]
		if srcOK && tgtOK {
			edges = append(edges, *e)
		}
	}

	return &model.IncludeMap{
		Root:  m.Root,
		Files: selected,
		Edges: edges,
	}
}

// FilterByPath returns a new IncludeMap holding the files whose path contains
// substr (case-insensitive), the files directly connected to them, and the
// edges touching a match.
func FilterByPath(m *model.IncludeMap, substr string) *model.IncludeMap {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	for i := range m.Files {
		if strings.Contains(strings.ToLower(m.Files[i].Path), lower) {
			matched[m.Files[i].Path] = struct{}{}
		}
	}

	keep := make(map[string]struct{}, len(matched))
	var edges []model.Edge
	for i := range m.Edges {
		e := &m.Edges[i]
		_, srcOK := matched[e.Source]
		_, tgtOK := matched[e.Target]
		if srcOK || tgtOK {
			edges = append(edges, *e)
			keep[e.Source] = struct{}{}
			keep[e.Target] = struct{}{}
		}
	}
	for p := range matched {
		keep[p] = struct{}{}
	}

	var files []model.FileInfo
	for i := range m.Files {
		if _, ok := keep[m.Files[i].Path]; ok {
			files = append(files, m.Files[i])
		}
	}

	return &model.IncludeMap{
		Root:  m.Root,
		Files: files,
		Edges: edges,
	}
}
