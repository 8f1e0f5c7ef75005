// Package query implements the three first-class report queries —
// where, compare, and impact — plus a stats projection, all operating
// read-only against a loaded *report.Report.
package query

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/galeep/plugin-librarian/pkg/model"
	"github.com/galeep/plugin-librarian/pkg/report"
)

// WhereMatch is one matched file: either it belongs to a cluster (Cluster
// is non-nil) or it's reported separately as unclustered.
type WhereMatch struct {
	File    model.FileRecord
	Cluster *model.Cluster // nil if unclustered
}

// WhereResult groups matches by cluster (each cluster appears once, with
// every matching member it contains) and lists unclustered matches
// separately.
type WhereResult struct {
	Clusters    []model.Cluster
	Unclustered []model.FileRecord
}

// Where resolves pattern to a set of files (glob match on filename or path,
// or plain substring match on path) and returns the distinct clusters they
// belong to, plus unclustered matches reported separately.
func Where(r *report.Report, pattern string) WhereResult {
	seen := make(map[int]bool)
	var clusters []model.Cluster
	var unclustered []model.FileRecord

	for _, f := range r.FileIndex {
		if !matchesPattern(pattern, f) {
			continue
		}
		if !f.InCluster {
			unclustered = append(unclustered, f)
			continue
		}
		if seen[f.ClusterID] {
			continue
		}
		seen[f.ClusterID] = true
		if c := r.ClusterByID(f.ClusterID); c != nil {
			clusters = append(clusters, *c)
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ClusterID < clusters[j].ClusterID })
	sort.Slice(unclustered, func(i, j int) bool { return unclustered[i].FileIndex < unclustered[j].FileIndex })

	return WhereResult{Clusters: clusters, Unclustered: unclustered}
}

// matchesPattern applies a glob match against the basename, then against the
// full relative path, when pattern looks like a glob (contains *, ?, or [),
// otherwise a plain substring match against the full relative path.
func matchesPattern(pattern string, f model.FileRecord) bool {
	if looksLikeGlob(pattern) {
		ok, err := doublestar.Match(pattern, f.Filename)
		if err == nil && ok {
			return true
		}
		ok, err = doublestar.Match(pattern, f.Path)
		return err == nil && ok
	}
	return strings.Contains(f.Path, pattern) || strings.Contains(path.Base(f.Path), pattern)
}

func looksLikeGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
