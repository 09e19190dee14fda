// Package graph turns a packing report into a ranked include graph.
package graph

import (
	"math"
	"path"
	"sort"

	"github.com/phobologic/headerpack/internal/model"
)

// Build assembles the include graph of rep. headers lists every local header
// under the source root; those the run never reached are added as
// unreached nodes. Node paths are cleaned, so "./a.h" and "a.h" are one
// node. Files are returned ranked, most included first.
func Build(rep *model.Report, headers []string) *model.IncludeMap {
	status := make(map[string]model.FileStatus)
	var order []string
	add := func(p string, s model.FileStatus) {
		p = path.Clean(p)
		if _, ok := status[p]; ok {
			return
		}
		status[p] = s
		order = append(order, p)
	}

	add(rep.Root, model.StatusRoot)
	for _, p := range rep.Included {
		add(p, model.StatusInlined)
	}
	for _, p := range rep.External {
		add(p, model.StatusExternal)
	}
	for _, p := range headers {
		add(p, model.StatusUnreached)
	}

	files := make([]model.FileInfo, len(order))
	for i, p := range order {
		files[i] = model.FileInfo{Path: p, Status: status[p]}
	}

	edges := make([]model.Edge, len(rep.Edges))
	for i, e := range rep.Edges {
		e.Source = path.Clean(e.Source)
		e.Target = path.Clean(e.Target)
		edges[i] = e
	}

	Rank(files, edges)

	return &model.IncludeMap{
		Root:  path.Clean(rep.Root),
		Files: files,
		Edges: edges,
	}
}

// Unreached returns the paths in m that the packing run never touched.
func Unreached(m *model.IncludeMap) []string {
	var out []string
	for _, f := range m.Files {
		if f.Status == model.StatusUnreached {
			out = append(out, f.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Rank applies PageRank over the include edges and sorts files by rank
// descending, then by path. An edge from A to B means A includes B, so
// widely included headers rank highest.
func Rank(files []model.FileInfo, edges []model.Edge) {
	if len(files) == 0 {
		return
	}

	nodes := make(map[string]struct{}, len(files))
	for i := range files {
		nodes[files[i].Path] = struct{}{}
	}

	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, e := range edges {
		if e.Source == e.Target {
			continue // no self-edges
		}
		if _, ok := nodes[e.Source]; !ok {
			continue
		}
		if _, ok := nodes[e.Target]; !ok {
			continue
		}
		outEdges[e.Source] = append(outEdges[e.Source], e.Target)
		outDegree[e.Source]++
	}

	ranks := pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
	for i := range files {
		files[i].Rank = ranks[files[i].Path]
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Rank != files[j].Rank {
			return files[i].Rank > files[j].Rank
		}
		return files[i].Path < files[j].Path
	})
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(outDegree[src])
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}
