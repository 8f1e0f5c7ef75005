// Package sanity inspects a scan's aggregate statistics for implausible
// patterns and converts them into explicit warnings rather than a
// reassuring but wrong "no duplicates" report. This is a direct response to
// the documented failure mode where a silent false negative in the
// similarity engine made a near-duplicate-free report look correct.
package sanity

import (
	"fmt"
	"math"

	"github.com/galeep/plugin-librarian/pkg/model"
)

// Confidence levels, from best to worst.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
	ConfidenceNone   = "none"
)

// Config tunes the thresholds used by the checks below. Zero values fall
// back to the documented defaults.
type Config struct {
	// LargeEcosystemClusterFloor is the unique_clusters count above which
	// every marketplace — regardless of size — is checked for zero
	// membership (rule 1).
	LargeEcosystemClusterFloor int
	// LargeDatasetFileFloor is the total_files_scanned floor for rule 2 to
	// apply at all.
	LargeDatasetFileFloor int
	// ExtremeRatioLow/ExtremeRatioHigh bound the "plausible" fraction of
	// files that are in a cluster on a large dataset (rule 2).
	ExtremeRatioLow  float64
	ExtremeRatioHigh float64
	// FiftyFiftyBand is the +/- band around 0.5 considered suspicious for
	// rule 3.
	FiftyFiftyBand float64
	// FiftyFiftyFileFloor is the total_files_scanned floor for rule 3.
	FiftyFiftyFileFloor int
	// SignificantMarketplaceFraction is the share of total files a
	// marketplace must contribute to be checked by rule 1 even below the
	// LargeEcosystemClusterFloor.
	SignificantMarketplaceFraction float64
}

func (c Config) defaults() Config {
	if c.LargeEcosystemClusterFloor == 0 {
		c.LargeEcosystemClusterFloor = 1000
	}
	if c.LargeDatasetFileFloor == 0 {
		c.LargeDatasetFileFloor = 500
	}
	if c.ExtremeRatioLow == 0 {
		c.ExtremeRatioLow = 0.05
	}
	if c.ExtremeRatioHigh == 0 {
		c.ExtremeRatioHigh = 0.95
	}
	if c.FiftyFiftyBand == 0 {
		c.FiftyFiftyBand = 0.03
	}
	if c.FiftyFiftyFileFloor == 0 {
		c.FiftyFiftyFileFloor = 100
	}
	if c.SignificantMarketplaceFraction == 0 {
		c.SignificantMarketplaceFraction = 0.1
	}
	return c
}

// Input is the aggregate data the checker needs. MarketplaceFileCounts is
// the number of scanned files contributed by each marketplace;
// MarketplaceClustered is the set of marketplaces with at least one file in
// any cluster.
type Input struct {
	TotalFilesScanned     int
	FilesInClusters       int
	UnclusteredFiles      int
	MarketplaceFileCounts map[string]int
	MarketplaceClustered  map[string]bool
	ClusterSizes          []int
}

// Result is the output of Check: the warnings that fired, in rule order,
// and the resulting confidence label.
type Result struct {
	Warnings   []string
	Confidence string
}

// downgrade moves confidence one level towards ConfidenceNone, floor at
// ConfidenceNone.
func downgrade(level string) string {
	switch level {
	case ConfidenceHigh:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceLow
	case ConfidenceLow, ConfidenceNone:
		return ConfidenceNone
	default:
		return ConfidenceNone
	}
}

// Check runs every rule against in and returns accumulated warnings and the
// resulting confidence, starting from ConfidenceHigh.
func Check(in Input, cfg Config) Result {
	cfg = cfg.defaults()
	confidence := ConfidenceHigh
	var warnings []string

	// Rule 4 first: no clusters at all on a non-trivial dataset downgrades
	// straight to none, since every other rule becomes moot.
	if len(in.ClusterSizes) == 0 && in.TotalFilesScanned > 0 {
		warnings = append(warnings, "no clusters were detected in a non-empty corpus; verify the similarity threshold and LSH parameters before trusting this report")
		return Result{Warnings: warnings, Confidence: ConfidenceNone}
	}

	// Rule 1: zero-cluster-membership in a large ecosystem.
	large := len(in.ClusterSizes) > cfg.LargeEcosystemClusterFloor
	for mp, count := range in.MarketplaceFileCounts {
		significant := in.TotalFilesScanned > 0 && float64(count)/float64(in.TotalFilesScanned) >= cfg.SignificantMarketplaceFraction
		if (significant || large) && !in.MarketplaceClustered[mp] {
			warnings = append(warnings, fmt.Sprintf("marketplace %q contributes files but has no member in any cluster", mp))
			confidence = downgrade(confidence)
		}
	}

	// Rule 2: extreme overall ratio on a large dataset.
	if in.TotalFilesScanned > cfg.LargeDatasetFileFloor {
		ratio := float64(in.FilesInClusters) / float64(in.TotalFilesScanned)
		if ratio < cfg.ExtremeRatioLow || ratio > cfg.ExtremeRatioHigh {
			warnings = append(warnings, fmt.Sprintf("files-in-clusters ratio %.3f is outside the plausible range [%.2f, %.2f] for a corpus of %d files", ratio, cfg.ExtremeRatioLow, cfg.ExtremeRatioHigh, in.TotalFilesScanned))
			confidence = downgrade(confidence)
		}
	}

	// Rule 3: suspicious near-50/50 split with no intermediate cluster
	// sizes — a signature of a misconfigured LSH bucketing everything into
	// exactly two outcomes rather than a real distribution of overlap.
	if in.TotalFilesScanned > cfg.FiftyFiftyFileFloor {
		ratio := float64(in.FilesInClusters) / float64(in.TotalFilesScanned)
		if math.Abs(ratio-0.5) <= cfg.FiftyFiftyBand && !hasIntermediateSizes(in.ClusterSizes) {
			warnings = append(warnings, fmt.Sprintf("files-in-clusters ratio %.3f sits suspiciously close to 50%% with no intermediate cluster sizes", ratio))
			confidence = downgrade(confidence)
		}
	}

	return Result{Warnings: warnings, Confidence: confidence}
}

// hasIntermediateSizes reports whether cluster sizes include anything other
// than the smallest and the largest observed size — i.e. whether the
// distribution looks organic rather than bimodal.
func hasIntermediateSizes(sizes []int) bool {
	if len(sizes) < 3 {
		return true // too few clusters to call the distribution suspicious
	}
	minSize, maxSize := sizes[0], sizes[0]
	for _, s := range sizes {
		if s < minSize {
			minSize = s
		}
		if s > maxSize {
			maxSize = s
		}
	}
	for _, s := range sizes {
		if s != minSize && s != maxSize {
			return true
		}
	}
	return false
}

// FromReport extracts sanity.Input from a file table and cluster table,
// without importing the report package: it runs on the tables before a
// report is built, so its warnings can go into that report.
func FromReport(files []model.FileRecord, clusters []model.Cluster) Input {
	in := Input{
		MarketplaceFileCounts: make(map[string]int),
		MarketplaceClustered:  make(map[string]bool),
	}
	for _, f := range files {
		in.TotalFilesScanned++
		in.MarketplaceFileCounts[f.Marketplace]++
		if f.InCluster {
			in.FilesInClusters++
		}
	}
	in.UnclusteredFiles = in.TotalFilesScanned - in.FilesInClusters
	for _, c := range clusters {
		in.ClusterSizes = append(in.ClusterSizes, c.Size)
		for _, mp := range c.Marketplaces {
			in.MarketplaceClustered[mp] = true
		}
	}
	return in
}
