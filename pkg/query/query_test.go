package query

import (
	"testing"

	"github.com/galeep/plugin-librarian/pkg/model"
	"github.com/galeep/plugin-librarian/pkg/report"
)

func buildTestReport() *report.Report {
	files := []model.FileRecord{
		model.NewFileRecord(0, "mA", "p1", "p1/SKILL.md", "SKILL.md", true),
		model.NewFileRecord(1, "mB", "p1", "p1/SKILL.md", "SKILL.md", false),
		model.NewFileRecord(2, "mC", "p1", "p1/other.md", "other.md", false),
	}
	files[0].InCluster, files[0].ClusterID = true, 0
	files[1].InCluster, files[1].ClusterID = true, 0

	clusters := []model.Cluster{
		{
			ClusterID:     0,
			Type:          model.TypeCrossMarketplace,
			Size:          2,
			AvgSimilarity: 0.95,
			HasOfficial:   true,
			Marketplaces:  []string{"mA", "mB"},
			Members:       []int{0, 1},
			SimilarityPairs: []model.SimilarityPair{
				{File1Index: 0, File2Index: 1, Similarity: 0.95},
			},
		},
	}
	return report.Build(files, clusters, 0.70, 128, 3, nil, "high")
}

func TestWhere_GlobMatchesCluster(t *testing.T) {
	r := buildTestReport()
	res := Where(r, "SKILL.*")
	if len(res.Clusters) != 1 {
		t.Fatalf("expected 1 cluster match, got %d", len(res.Clusters))
	}
	if len(res.Unclustered) != 0 {
		t.Fatalf("expected 0 unclustered matches, got %d", len(res.Unclustered))
	}
}

func TestWhere_SubstringMatchesUnclustered(t *testing.T) {
	r := buildTestReport()
	res := Where(r, "other")
	if len(res.Clusters) != 0 {
		t.Fatalf("expected 0 cluster matches, got %d", len(res.Clusters))
	}
	if len(res.Unclustered) != 1 {
		t.Fatalf("expected 1 unclustered match, got %d", len(res.Unclustered))
	}
}

func TestCompare_Classifications(t *testing.T) {
	r := buildTestReport()

	target := []Selector{{Marketplace: "mB"}}
	reference := []Selector{{Marketplace: "mA"}}

	res := Compare(r, target, reference)
	if res.Counts[RedundantWithReference] != 1 {
		t.Fatalf("expected 1 redundant-with-reference, got %d", res.Counts[RedundantWithReference])
	}
	if len(res.Classified) != 1 {
		t.Fatalf("expected 1 classified target file, got %d", len(res.Classified))
	}
}

func TestCompare_NovelWhenUnclustered(t *testing.T) {
	r := buildTestReport()

	target := []Selector{{Marketplace: "mC"}}
	reference := []Selector{{Marketplace: "mA"}}

	res := Compare(r, target, reference)
	if res.Counts[Novel] != 1 {
		t.Fatalf("expected 1 novel, got %d", res.Counts[Novel])
	}
}

func TestImpact_NoveltyRatio(t *testing.T) {
	r := buildTestReport()
	target := []Selector{{Marketplace: "mB"}, {Marketplace: "mC"}}
	installed := []Selector{{Marketplace: "mA"}}

	res := Impact(r, target, installed)
	if res.NoveltyRatio() != 0.5 {
		t.Fatalf("novelty ratio = %v, want 0.5", res.NoveltyRatio())
	}
}

func TestGetStats_TopFilenames(t *testing.T) {
	r := buildTestReport()
	stats := GetStats(r, 5)
	if stats.TotalFilesScanned != 3 {
		t.Fatalf("total=%d want 3", stats.TotalFilesScanned)
	}
	if len(stats.TopFilenames) == 0 {
		t.Fatal("expected at least one filename occurrence")
	}
	if stats.TopFilenames[0].Filename != "SKILL.md" {
		t.Fatalf("expected SKILL.md to rank first, got %s", stats.TopFilenames[0].Filename)
	}
}
