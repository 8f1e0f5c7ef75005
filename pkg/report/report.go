// Package report defines the on-disk similarity report artifact: a stable
// versioned schema, a loader that enforces the data-model invariants, and
// the atomic persistence discipline required so a failed write never
// corrupts a prior report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/galeep/plugin-librarian/pkg/model"
)

// SchemaVersion is the current report schema version. Reports written by
// this package always carry this version; Load tolerates older versions
// (see Load's compatibility handling).
const SchemaVersion = "2.0"

// TypeCounts is a {clusters, files} pair, keyed by cluster type in
// Summary.ByType.
type TypeCounts struct {
	Clusters int `json:"clusters"`
	Files    int `json:"files"`
}

// Metadata carries run-level configuration and sanity-check output.
type Metadata struct {
	Version             string    `json:"version"`
	RunID               string    `json:"run_id,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
	SimilarityThreshold float64   `json:"similarity_threshold"`
	NumPermutations     int       `json:"num_permutations"`
	ShingleSize         int       `json:"shingle_size"`
	Confidence          string    `json:"confidence"`
	Warnings            []string  `json:"warnings"`
}

// Summary is the set of aggregate counts a `stats` query projects directly.
type Summary struct {
	TotalFilesScanned  int                             `json:"total_files_scanned"`
	FilesInClusters    int                             `json:"files_in_clusters"`
	UnclusteredFiles   int                             `json:"unclustered_files"`
	UniqueClusters     int                             `json:"unique_clusters"`
	UniqueMarketplaces int                             `json:"unique_marketplaces"`
	ByType             map[model.ClusterType]TypeCounts `json:"by_type"`
}

// Report is the full persisted artifact.
type Report struct {
	Metadata         Metadata             `json:"metadata"`
	Summary          Summary              `json:"summary"`
	FileIndex        []model.FileRecord   `json:"file_index"`
	MarketplaceIndex map[string][]int     `json:"marketplace_index"`
	FilenameIndex    map[string][]int     `json:"filename_index"`
	Clusters         []model.Cluster      `json:"clusters"`

	// byFileIndex and byCluster are the in-memory lookup maps rebuilt on
	// Build/Load for O(1) query resolution. Unexported: not part of the
	// serialized schema.
	byFileIndex map[int]*model.FileRecord
	byCluster   map[int]*model.Cluster
}

// Build assembles a Report from a scanned file table and its clusters. It
// computes the summary, the marketplace/filename indices, and denormalizes
// member rows into each Cluster's Locations. Each FileRecord's ClusterID and
// InCluster are taken as given (cluster.Build sets them); Build does not
// change them.
func Build(files []model.FileRecord, clusters []model.Cluster, threshold float64, numPermutations, shingleSize int, warnings []string, confidence string) *Report {
	r := &Report{
		Metadata: Metadata{
			Version:             SchemaVersion,
			RunID:               ulid.Make().String(),
			GeneratedAt:         time.Now().UTC(),
			SimilarityThreshold: threshold,
			NumPermutations:     numPermutations,
			ShingleSize:         shingleSize,
			Confidence:          confidence,
			Warnings:            warnings,
		},
		FileIndex: files,
		Clusters:  clusters,
	}
	r.reindex()
	r.computeSummary()
	return r
}

// reindex rebuilds every in-memory lookup map and the MarketplaceIndex /
// FilenameIndex from Clusters alone (invariant 7), and denormalizes member
// locations into each cluster.
func (r *Report) reindex() {
	r.byFileIndex = make(map[int]*model.FileRecord, len(r.FileIndex))
	for i := range r.FileIndex {
		r.byFileIndex[r.FileIndex[i].FileIndex] = &r.FileIndex[i]
	}

	r.byCluster = make(map[int]*model.Cluster, len(r.Clusters))
	marketplaceIdx := make(map[string]map[int]struct{})
	filenameIdx := make(map[string]map[int]struct{})

	for i := range r.Clusters {
		c := &r.Clusters[i]
		r.byCluster[c.ClusterID] = c

		c.Locations = c.Locations[:0]
		for _, m := range c.Members {
			if fr, ok := r.byFileIndex[m]; ok {
				c.Locations = append(c.Locations, *fr)
				if marketplaceIdx[fr.Marketplace] == nil {
					marketplaceIdx[fr.Marketplace] = make(map[int]struct{})
				}
				marketplaceIdx[fr.Marketplace][c.ClusterID] = struct{}{}
				if filenameIdx[fr.Filename] == nil {
					filenameIdx[fr.Filename] = make(map[int]struct{})
				}
				filenameIdx[fr.Filename][c.ClusterID] = struct{}{}
			}
		}
	}

	r.MarketplaceIndex = flattenSortedInt(marketplaceIdx)
	r.FilenameIndex = flattenSortedInt(filenameIdx)
}

func flattenSortedInt(in map[string]map[int]struct{}) map[string][]int {
	out := make(map[string][]int, len(in))
	for k, set := range in {
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		out[k] = ids
	}
	return out
}

func (r *Report) computeSummary() {
	s := Summary{ByType: make(map[model.ClusterType]TypeCounts)}
	s.TotalFilesScanned = len(r.FileIndex)

	marketplaces := make(map[string]struct{})
	for _, f := range r.FileIndex {
		marketplaces[f.Marketplace] = struct{}{}
		if f.InCluster {
			s.FilesInClusters++
		}
	}
	s.UnclusteredFiles = s.TotalFilesScanned - s.FilesInClusters
	s.UniqueClusters = len(r.Clusters)
	s.UniqueMarketplaces = len(marketplaces)

	for _, c := range r.Clusters {
		tc := s.ByType[c.Type]
		tc.Clusters++
		tc.Files += c.Size
		s.ByType[c.Type] = tc
	}

	r.Summary = s
}

// FileByIndex returns the file record for a given file_index, or nil.
func (r *Report) FileByIndex(idx int) *model.FileRecord {
	return r.byFileIndex[idx]
}

// ClusterByID returns the cluster for a given cluster_id, or nil.
func (r *Report) ClusterByID(id int) *model.Cluster {
	return r.byCluster[id]
}

// Save persists the report as JSON to path. Writes are atomic: content is
// written to a temp file in the same directory and renamed into place, so a
// failed or interrupted write never corrupts a prior report.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("report: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("report: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("report: rename into place: %w", err)
	}
	return nil
}

// Load reads a report from path, tolerates the v1.0 schema (no file_index /
// marketplace_index / filename_index — rebuilt from clusters), and refuses
// to load a report that fails its data-model invariants.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", path, err)
	}

	var raw rawReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("report: decode %s: %w", path, err)
	}

	r := &Report{
		Metadata:         raw.metadata(),
		Summary:          raw.Summary,
		FileIndex:        raw.FileIndex,
		Clusters:         raw.Clusters,
		MarketplaceIndex: raw.MarketplaceIndex,
		FilenameIndex:    raw.FilenameIndex,
	}

	if len(r.FileIndex) == 0 && len(raw.LegacyFiles) > 0 {
		r.FileIndex = raw.LegacyFiles
	}

	// v1.0 reports lack file_index/marketplace_index/filename_index; derive
	// FileIndex from cluster membership if still empty, then always rebuild
	// the two name indices from Clusters (invariant 7) rather than trust
	// whatever was on disk.
	if len(r.FileIndex) == 0 {
		r.FileIndex = deriveFileIndexFromClusters(r.Clusters)
	}

	r.reindex()
	r.computeSummary()

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("report: invalid report %s: %w", path, err)
	}
	return r, nil
}

// rawReport tolerates both the current schema and the legacy v1.0 shape
// (which has no top-level metadata object at all).
type rawReport struct {
	Metadata         *Metadata           `json:"metadata"`
	Summary          Summary             `json:"summary"`
	FileIndex        []model.FileRecord  `json:"file_index"`
	LegacyFiles      []model.FileRecord  `json:"files"` // pre-2.0 field name
	MarketplaceIndex map[string][]int    `json:"marketplace_index"`
	FilenameIndex    map[string][]int    `json:"filename_index"`
	Clusters         []model.Cluster     `json:"clusters"`
}

func (raw rawReport) metadata() Metadata {
	if raw.Metadata != nil {
		return *raw.Metadata
	}
	return Metadata{Version: "1.0", Confidence: "unknown", Warnings: nil}
}

// deriveFileIndexFromClusters reconstructs a minimal FileIndex from cluster
// Locations when a legacy report carries no top-level file table at all.
// Unclustered files are permanently unrecoverable from such a report — this
// is the documented limitation of loading a v1.0 artifact.
func deriveFileIndexFromClusters(clusters []model.Cluster) []model.FileRecord {
	seen := make(map[int]bool)
	var files []model.FileRecord
	for _, c := range clusters {
		for _, loc := range c.Locations {
			if !seen[loc.FileIndex] {
				seen[loc.FileIndex] = true
				loc.InCluster = true
				loc.ClusterID = c.ClusterID
				files = append(files, loc)
			}
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].FileIndex < files[j].FileIndex })
	return files
}
