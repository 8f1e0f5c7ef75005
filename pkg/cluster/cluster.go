// Package cluster turns per-file LSH query results into disjoint clusters:
// connected components of the near-duplicate graph after pruning to edges
// whose estimated similarity meets the detection threshold.
package cluster

import (
	"sort"

	"github.com/galeep/plugin-librarian/pkg/lsh"
	"github.com/galeep/plugin-librarian/pkg/minhash"
	"github.com/galeep/plugin-librarian/pkg/model"
)

// Edge is a retained pairwise similarity between two files, i.e. one that
// met the detection threshold. Edges are the only things unioned into
// components; a file with no retained edge stays a singleton component and
// is dropped as unclustered when components are collected.
type Edge struct {
	File1Index int
	File2Index int
	Similarity float64
}

// Build assembles clusters from files that have a MinHash signature.
//
// index must already contain every signature in sigs (the caller owns
// insertion order and any sharding of that phase). files is indexed by
// FileIndex (files[i].FileIndex == i) and is mutated in place:
// every member of an emitted cluster has its ClusterID and InCluster fields
// set.
func Build(files []model.FileRecord, sigs map[int]minhash.Signature, index *lsh.Index, threshold float64) ([]model.Cluster, error) {
	ordered := make([]int, 0, len(sigs))
	for i := range sigs {
		ordered = append(ordered, i)
	}
	sort.Ints(ordered)

	uf := newUnionFind()
	var edges []Edge

	for _, i := range ordered {
		candidates, err := index.Query(sigs[i])
		if err != nil {
			return nil, err
		}
		sort.Ints(candidates)
		for _, j := range candidates {
			if j <= i {
				continue // dedupe: only emit each unordered pair once, ascending
			}
			sigJ, ok := sigs[j]
			if !ok {
				continue
			}
			sim := minhash.EstimateJaccard(sigs[i], sigJ)
			if sim < threshold {
				continue
			}
			edges = append(edges, Edge{File1Index: i, File2Index: j, Similarity: sim})
			uf.union(i, j)
		}
	}

	components := make(map[int][]int)
	for _, i := range ordered {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	type component struct {
		min      int
		members  []int
		memberOf map[int]bool
	}
	var comps []component
	for _, members := range components {
		if len(members) < 2 {
			continue // residual singleton after pruning: unclustered
		}
		sort.Ints(members)
		memberOf := make(map[int]bool, len(members))
		for _, m := range members {
			memberOf[m] = true
		}
		comps = append(comps, component{min: members[0], members: members, memberOf: memberOf})
	}
	sort.Slice(comps, func(a, b int) bool { return comps[a].min < comps[b].min })

	fileByIndex := make(map[int]*model.FileRecord, len(files))
	for i := range files {
		fileByIndex[files[i].FileIndex] = &files[i]
	}

	clusters := make([]model.Cluster, 0, len(comps))
	for clusterID, c := range comps {
		var pairs []model.SimilarityPair
		var simSum float64
		for _, e := range edges {
			if c.memberOf[e.File1Index] && c.memberOf[e.File2Index] {
				pairs = append(pairs, model.SimilarityPair{
					File1Index: e.File1Index,
					File2Index: e.File2Index,
					Similarity: e.Similarity,
				})
				simSum += e.Similarity
			}
		}
		avgSim := 0.0
		if len(pairs) > 0 {
			avgSim = simSum / float64(len(pairs))
		}

		marketplaceSet := make(map[string]bool)
		basenameSet := make(map[string]int)
		hasOfficial := false
		for _, m := range c.members {
			fr := fileByIndex[m]
			marketplaceSet[fr.Marketplace] = true
			basenameSet[fr.Filename]++
			if fr.IsOfficial {
				hasOfficial = true
			}
		}
		marketplaces := make([]string, 0, len(marketplaceSet))
		for mk := range marketplaceSet {
			marketplaces = append(marketplaces, mk)
		}
		sort.Strings(marketplaces)

		cl := model.Cluster{
			ClusterID:       clusterID,
			Type:            model.ClassifyType(len(c.members), marketplaces, basenameSet),
			Size:            len(c.members),
			AvgSimilarity:   avgSim,
			HasOfficial:     hasOfficial,
			Marketplaces:    marketplaces,
			Members:         c.members,
			SimilarityPairs: pairs,
		}
		clusters = append(clusters, cl)

		for _, m := range c.members {
			fr := fileByIndex[m]
			fr.ClusterID = clusterID
			fr.InCluster = true
		}
	}

	return clusters, nil
}
