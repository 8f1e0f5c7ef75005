package report

import (
	"fmt"

	"github.com/galeep/plugin-librarian/pkg/model"
)

// Validate checks the data-model invariants every report must satisfy:
// every cluster has size >= 2 equal to len(members); clusters are disjoint;
// every similarity pair joins two members of its cluster and is at least the
// threshold; every file's in_cluster and cluster_id agree with cluster
// membership; and the summary counts add up. It does not check cluster type
// tags against the members, that every member has a file_index row, or an
// upper bound on similarity values. A failure here is fatal at load time —
// the loader refuses to operate on an inconsistent report rather than
// attempt a best-effort repair.
func (r *Report) Validate() error {
	clusterByID := make(map[int]*model.Cluster, len(r.Clusters))
	for i := range r.Clusters {
		clusterByID[r.Clusters[i].ClusterID] = &r.Clusters[i]
	}

	memberOfCluster := make(map[int]int) // file_index -> cluster_id
	for i := range r.Clusters {
		c := &r.Clusters[i]
		if c.Size < 2 {
			return fmt.Errorf("cluster %d has size %d, want >= 2", c.ClusterID, c.Size)
		}
		if c.Size != len(c.Members) {
			return fmt.Errorf("cluster %d: size %d != len(members) %d", c.ClusterID, c.Size, len(c.Members))
		}
		for _, m := range c.Members {
			if prior, ok := memberOfCluster[m]; ok {
				return fmt.Errorf("file %d belongs to clusters %d and %d: clusters must be disjoint", m, prior, c.ClusterID)
			}
			memberOfCluster[m] = c.ClusterID
		}
		for _, p := range c.SimilarityPairs {
			if !containsInt(c.Members, p.File1Index) || !containsInt(c.Members, p.File2Index) {
				return fmt.Errorf("cluster %d: similarity_pair (%d,%d) references a non-member", c.ClusterID, p.File1Index, p.File2Index)
			}
			if p.Similarity < r.Metadata.SimilarityThreshold {
				return fmt.Errorf("cluster %d: similarity_pair (%d,%d) similarity %v below threshold %v", c.ClusterID, p.File1Index, p.File2Index, p.Similarity, r.Metadata.SimilarityThreshold)
			}
		}
	}

	filesInClusters := 0
	for _, f := range r.FileIndex {
		cid, isMember := memberOfCluster[f.FileIndex]
		if f.InCluster != isMember {
			return fmt.Errorf("file %d: in_cluster=%v but cluster membership says %v", f.FileIndex, f.InCluster, isMember)
		}
		if isMember {
			filesInClusters++
			if f.ClusterID != cid {
				return fmt.Errorf("file %d: cluster_id %d does not match owning cluster %d", f.FileIndex, f.ClusterID, cid)
			}
			c := clusterByID[cid]
			if !containsInt(c.Members, f.FileIndex) {
				return fmt.Errorf("file %d: claims cluster %d but is not in its members", f.FileIndex, cid)
			}
		} else if f.ClusterID != model.UnclusteredID {
			return fmt.Errorf("file %d: unclustered but cluster_id is %d, want %d", f.FileIndex, f.ClusterID, model.UnclusteredID)
		}
	}

	if filesInClusters != r.Summary.FilesInClusters {
		return fmt.Errorf("summary.files_in_clusters %d does not match actual membership count %d", r.Summary.FilesInClusters, filesInClusters)
	}
	if r.Summary.FilesInClusters+r.Summary.UnclusteredFiles != r.Summary.TotalFilesScanned {
		return fmt.Errorf("summary accounting broken: %d + %d != %d", r.Summary.FilesInClusters, r.Summary.UnclusteredFiles, r.Summary.TotalFilesScanned)
	}

	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
