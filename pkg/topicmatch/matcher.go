// Package topicmatch pairs freshly built clusters with a user's existing topics.
package topicmatch

import (
	"bytes"
	"sort"

	"newsbox-topics/pkg/vector"

	"github.com/google/uuid"
)

const DefaultThreshold = 0.85

type ClusterRef struct {
	Index    int
	Size     int
	Centroid []float32
}

type TopicRef struct {
	ID       uuid.UUID
	Pinned   bool
	Archived bool
	Centroid []float32
}

type Pair struct {
	ClusterIndex int
	TopicID      uuid.UUID
	Similarity   float64
}

type Result struct {
	Matches           []Pair
	UnmatchedClusters []int
	UnmatchedTopics   []uuid.UUID
	Candidates        int
}

// TopicFor returns the topic matched to a cluster index.
func (r *Result) TopicFor(clusterIndex int) (uuid.UUID, bool) {
	for _, m := range r.Matches {
		if m.ClusterIndex == clusterIndex {
			return m.TopicID, true
		}
	}
	return uuid.Nil, false
}

type candidate struct {
	cluster ClusterRef
	topic   TopicRef
	sim     float64
}

// Match greedily assigns each cluster to at most one topic and vice versa, best pairs first.
// A threshold <= 0 uses DefaultThreshold.
func Match(clusters []ClusterRef, topics []TopicRef, threshold float64) *Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var cands []candidate
	for _, c := range clusters {
		if len(c.Centroid) == 0 {
			continue
		}
		for _, t := range topics {
			if t.Archived || len(t.Centroid) == 0 {
				continue
			}
			sim := vector.Cosine(c.Centroid, t.Centroid)
			if sim >= threshold {
				cands = append(cands, candidate{cluster: c, topic: t, sim: sim})
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.sim != b.sim {
			return a.sim > b.sim
		}
		if a.topic.Pinned != b.topic.Pinned {
			return a.topic.Pinned
		}
		if a.cluster.Size != b.cluster.Size {
			return a.cluster.Size > b.cluster.Size
		}
		if a.cluster.Index != b.cluster.Index {
			return a.cluster.Index < b.cluster.Index
		}
		return bytes.Compare(a.topic.ID[:], b.topic.ID[:]) < 0
	})

	res := &Result{Candidates: len(cands)}
	usedCluster := make(map[int]bool)
	usedTopic := make(map[uuid.UUID]bool)
	for _, c := range cands {
		if usedCluster[c.cluster.Index] || usedTopic[c.topic.ID] {
			continue
		}
		usedCluster[c.cluster.Index] = true
		usedTopic[c.topic.ID] = true
		res.Matches = append(res.Matches, Pair{ClusterIndex: c.cluster.Index, TopicID: c.topic.ID, Similarity: c.sim})
	}

	for _, c := range clusters {
		if !usedCluster[c.Index] {
			res.UnmatchedClusters = append(res.UnmatchedClusters, c.Index)
		}
	}
	for _, t := range topics {
		if !t.Archived && !usedTopic[t.ID] {
			res.UnmatchedTopics = append(res.UnmatchedTopics, t.ID)
		}
	}
	return res
}
