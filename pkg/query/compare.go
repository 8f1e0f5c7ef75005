package query

import (
	"github.com/galeep/plugin-librarian/pkg/model"
	"github.com/galeep/plugin-librarian/pkg/report"
)

// Classification is the verdict assigned to one target file by Compare.
type Classification string

const (
	// RedundantWithReference: the file shares a cluster with at least one
	// reference file.
	RedundantWithReference Classification = "redundant-with-reference"
	// RedundantInternal: the file shares a cluster with another target
	// file, but not with any reference file.
	RedundantInternal Classification = "redundant-internal"
	// Novel: unclustered, or every cluster peer lies outside both target
	// and reference.
	Novel Classification = "novel"
)

// Selector identifies "everything in marketplace m" (Plugin == "") or
// "everything in marketplace m and plugin p".
type Selector struct {
	Marketplace string
	Plugin      string // "" matches every plugin in Marketplace
}

// Matches reports whether f falls within this selector.
func (s Selector) Matches(f model.FileRecord) bool {
	if f.Marketplace != s.Marketplace {
		return false
	}
	return s.Plugin == "" || f.Plugin == s.Plugin
}

// ClassifiedFile pairs a target file with its classification.
type ClassifiedFile struct {
	File           model.FileRecord
	Classification Classification
}

// CompareResult is the outcome of Compare: counts by class, plus the full
// per-file classification list.
type CompareResult struct {
	Counts      map[Classification]int
	Classified  []ClassifiedFile
}

// Compare classifies every file selected by target against the stable
// reference side. Reference is the installed/baseline set; target is the
// candidate being evaluated for install.
func Compare(r *report.Report, target, reference []Selector) CompareResult {
	targetSet := make(map[int]bool)
	referenceSet := make(map[int]bool)

	for _, f := range r.FileIndex {
		if matchesAny(target, f) {
			targetSet[f.FileIndex] = true
		}
		if matchesAny(reference, f) {
			referenceSet[f.FileIndex] = true
		}
	}

	result := CompareResult{Counts: make(map[Classification]int)}

	var targetFiles []model.FileRecord
	for _, f := range r.FileIndex {
		if targetSet[f.FileIndex] {
			targetFiles = append(targetFiles, f)
		}
	}

	for _, f := range targetFiles {
		class := classify(r, f, targetSet, referenceSet)
		result.Counts[class]++
		result.Classified = append(result.Classified, ClassifiedFile{File: f, Classification: class})
	}

	return result
}

func classify(r *report.Report, f model.FileRecord, targetSet, referenceSet map[int]bool) Classification {
	if !f.InCluster {
		return Novel
	}
	c := r.ClusterByID(f.ClusterID)
	if c == nil {
		return Novel
	}

	sawReference := false
	sawOtherTarget := false
	for _, m := range c.Members {
		if m == f.FileIndex {
			continue
		}
		if referenceSet[m] {
			sawReference = true
		}
		if targetSet[m] {
			sawOtherTarget = true
		}
	}

	switch {
	case sawReference:
		return RedundantWithReference
	case sawOtherTarget:
		return RedundantInternal
	default:
		return Novel
	}
}

func matchesAny(selectors []Selector, f model.FileRecord) bool {
	for _, s := range selectors {
		if s.Matches(f) {
			return true
		}
	}
	return false
}

// Impact is shorthand for Compare(target, reference=installed).
func Impact(r *report.Report, target []Selector, installed []Selector) CompareResult {
	return Compare(r, target, installed)
}

// NoveltyRatio returns the fraction of classified target files that are
// novel, the concise ratio an `impact` summary surfaces.
func (c CompareResult) NoveltyRatio() float64 {
	total := len(c.Classified)
	if total == 0 {
		return 0
	}
	return float64(c.Counts[Novel]) / float64(total)
}
