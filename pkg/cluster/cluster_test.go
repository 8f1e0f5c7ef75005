package cluster

import (
	"testing"

	"github.com/galeep/plugin-librarian/pkg/lsh"
	"github.com/galeep/plugin-librarian/pkg/minhash"
	"github.com/galeep/plugin-librarian/pkg/model"
	"github.com/galeep/plugin-librarian/pkg/shingle"
)

func buildSignature(b *minhash.Builder, text string) minhash.Signature {
	tok := shingle.New(3)
	return b.Signature(tok.Shingles(text))
}

func TestBuild_IdenticalFilesFormCluster(t *testing.T) {
	builder := minhash.New(128, 1)
	params := lsh.ChooseParams(128, 0.70)
	index := lsh.New(params)

	text := "The quick brown fox jumps over the lazy dog. "
	var repeated string
	for i := 0; i < 20; i++ {
		repeated += text
	}

	files := []model.FileRecord{
		{FileIndex: 0, Marketplace: "mA", Plugin: "p1", Path: "p1/x.md", Filename: "x.md"},
		{FileIndex: 1, Marketplace: "mB", Plugin: "p1", Path: "p1/x.md", Filename: "x.md"},
	}

	sigs := map[int]minhash.Signature{
		0: buildSignature(builder, repeated),
		1: buildSignature(builder, repeated),
	}
	for i, s := range sigs {
		if err := index.Insert(i, s); err != nil {
			t.Fatal(err)
		}
	}

	clusters, err := Build(files, sigs, index, 0.70)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	c := clusters[0]
	if c.Size != 2 {
		t.Fatalf("expected size 2, got %d", c.Size)
	}
	if c.Type != model.TypeCrossMarketplace {
		t.Fatalf("expected cross-marketplace, got %s", c.Type)
	}
	if c.AvgSimilarity < 0.99 {
		t.Fatalf("expected near-1.0 avg similarity, got %v", c.AvgSimilarity)
	}
	if files[0].ClusterID != c.ClusterID || !files[0].InCluster {
		t.Fatalf("file 0 not assigned to cluster")
	}
	if files[1].ClusterID != c.ClusterID || !files[1].InCluster {
		t.Fatalf("file 1 not assigned to cluster")
	}
}

func TestBuild_DissimilarFilesStayUnclustered(t *testing.T) {
	builder := minhash.New(128, 1)
	params := lsh.ChooseParams(128, 0.70)
	index := lsh.New(params)

	files := []model.FileRecord{
		{FileIndex: 0, Marketplace: "mA", Plugin: "p1", Path: "p1/a.md", Filename: "a.md"},
		{FileIndex: 1, Marketplace: "mA", Plugin: "p2", Path: "p2/b.md", Filename: "b.md"},
	}
	sigs := map[int]minhash.Signature{
		0: buildSignature(builder, "completely unrelated alpha beta gamma delta epsilon zeta theta kappa lambda"),
		1: buildSignature(builder, "totally different corpus about rockets satellites orbital mechanics propulsion"),
	}
	for i, s := range sigs {
		index.Insert(i, s)
	}

	clusters, err := Build(files, sigs, index, 0.70)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected 0 clusters for dissimilar files, got %d", len(clusters))
	}
	if files[0].InCluster || files[1].InCluster {
		t.Fatal("dissimilar files should not be marked in-cluster")
	}
}

func TestBuild_InternalClusterSingleMarketplace(t *testing.T) {
	builder := minhash.New(128, 1)
	params := lsh.ChooseParams(128, 0.70)
	index := lsh.New(params)

	text := "shared setup instructions for configuring the local development environment quickly and reliably "
	var long string
	for i := 0; i < 10; i++ {
		long += text
	}

	files := []model.FileRecord{
		{FileIndex: 0, Marketplace: "mA", Plugin: "p1", Path: "p1/a.md", Filename: "a.md"},
		{FileIndex: 1, Marketplace: "mA", Plugin: "p2", Path: "p2/b.md", Filename: "b.md"},
		{FileIndex: 2, Marketplace: "mA", Plugin: "p3", Path: "p3/c.md", Filename: "c.md"},
	}
	sigs := map[int]minhash.Signature{
		0: buildSignature(builder, long),
		1: buildSignature(builder, long),
		2: buildSignature(builder, long),
	}
	for i, s := range sigs {
		index.Insert(i, s)
	}

	clusters, err := Build(files, sigs, index, 0.70)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Type != model.TypeInternal {
		t.Fatalf("expected internal cluster, got %s", clusters[0].Type)
	}
	if len(clusters[0].Marketplaces) != 1 || clusters[0].Marketplaces[0] != "mA" {
		t.Fatalf("expected marketplaces=[mA], got %v", clusters[0].Marketplaces)
	}
}

func TestBuild_ScaffoldDetection(t *testing.T) {
	builder := minhash.New(128, 1)
	params := lsh.ChooseParams(128, 0.70)
	index := lsh.New(params)

	text := "this skill description is identical boilerplate scaffold text shared across every plugin "
	var long string
	for i := 0; i < 10; i++ {
		long += text
	}

	const n = 25
	files := make([]model.FileRecord, n)
	sigs := make(map[int]minhash.Signature, n)
	for i := 0; i < n; i++ {
		files[i] = model.FileRecord{
			FileIndex:   i,
			Marketplace: "m" + string(rune('A'+i)),
			Plugin:      "p",
			Path:        "p/SKILL.md",
			Filename:    "SKILL.md",
		}
		sigs[i] = buildSignature(builder, long)
	}
	for i, s := range sigs {
		index.Insert(i, s)
	}

	clusters, err := Build(files, sigs, index, 0.70)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Size != n {
		t.Fatalf("expected size %d, got %d", n, clusters[0].Size)
	}
	if clusters[0].Type != model.TypeScaffold {
		t.Fatalf("expected scaffold, got %s", clusters[0].Type)
	}
}
