package query

import (
	"sort"

	"github.com/galeep/plugin-librarian/pkg/report"
)

// Stats is a read-only projection of the report's aggregate counts.
type Stats struct {
	TotalFilesScanned  int
	UniqueClusters     int
	UniqueMarketplaces int
	ByType             map[string]report.TypeCounts
	TopFilenames       []FilenameOccurrence
}

// FilenameOccurrence is one entry of the top-filenames-by-cluster-occurrence
// ranking.
type FilenameOccurrence struct {
	Filename      string
	ClusterCount  int
}

// GetStats computes Stats from a loaded report. topN bounds TopFilenames;
// topN <= 0 returns every filename that appears in at least one cluster.
func GetStats(r *report.Report, topN int) Stats {
	s := Stats{
		TotalFilesScanned:  r.Summary.TotalFilesScanned,
		UniqueClusters:     r.Summary.UniqueClusters,
		UniqueMarketplaces: r.Summary.UniqueMarketplaces,
		ByType:             make(map[string]report.TypeCounts, len(r.Summary.ByType)),
	}
	for t, tc := range r.Summary.ByType {
		s.ByType[string(t)] = tc
	}

	for name, clusterIDs := range r.FilenameIndex {
		s.TopFilenames = append(s.TopFilenames, FilenameOccurrence{Filename: name, ClusterCount: len(clusterIDs)})
	}
	sort.Slice(s.TopFilenames, func(i, j int) bool {
		if s.TopFilenames[i].ClusterCount != s.TopFilenames[j].ClusterCount {
			return s.TopFilenames[i].ClusterCount > s.TopFilenames[j].ClusterCount
		}
		return s.TopFilenames[i].Filename < s.TopFilenames[j].Filename
	})
	if topN > 0 && len(s.TopFilenames) > topN {
		s.TopFilenames = s.TopFilenames[:topN]
	}

	return s
}
