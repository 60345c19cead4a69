package topicmatch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(xs ...float32) []float32 { return xs }

func TestMatchAboveThresholdReusesTopic(t *testing.T) {
	topicID := uuid.New()
	clusters := []ClusterRef{{Index: 0, Size: 4, Centroid: vec(1, 0.1, 0)}}
	topics := []TopicRef{{ID: topicID, Centroid: vec(1, 0, 0)}}

	res := Match(clusters, topics, 0.85)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, topicID, res.Matches[0].TopicID)
	assert.Greater(t, res.Matches[0].Similarity, 0.99)
	assert.Empty(t, res.UnmatchedClusters)
	assert.Empty(t, res.UnmatchedTopics)
	got, ok := res.TopicFor(0)
	assert.True(t, ok)
	assert.Equal(t, topicID, got)
}

func TestMatchBelowThresholdCreatesNew(t *testing.T) {
	topicID := uuid.New()
	// cosine = 0.8
	clusters := []ClusterRef{{Index: 0, Size: 3, Centroid: vec(0.8, 0.6)}}
	topics := []TopicRef{{ID: topicID, Centroid: vec(1, 0)}}

	res := Match(clusters, topics, 0.85)

	assert.Empty(t, res.Matches)
	assert.Equal(t, []int{0}, res.UnmatchedClusters)
	assert.Equal(t, []uuid.UUID{topicID}, res.UnmatchedTopics)
	assert.Zero(t, res.Candidates)
}

func TestMatchIsOneToOne(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	clusters := []ClusterRef{
		{Index: 0, Size: 5, Centroid: vec(1, 0.05)},
		{Index: 1, Size: 5, Centroid: vec(1, 0.02)},
	}
	topics := []TopicRef{
		{ID: a, Centroid: vec(1, 0)},
		{ID: b, Centroid: vec(1, 0.3)},
	}

	res := Match(clusters, topics, 0.9)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, 4, res.Candidates)
	// cluster 1 is closest to a, leaving b for cluster 0
	assert.Equal(t, Pair{ClusterIndex: 1, TopicID: a, Similarity: res.Matches[0].Similarity}, res.Matches[0])
	got, _ := res.TopicFor(0)
	assert.Equal(t, b, got)
}

func TestPinnedWinsTie(t *testing.T) {
	plain, pinned := uuid.New(), uuid.New()
	clusters := []ClusterRef{{Index: 0, Size: 2, Centroid: vec(1, 0)}}
	topics := []TopicRef{
		{ID: plain, Centroid: vec(1, 0)},
		{ID: pinned, Pinned: true, Centroid: vec(2, 0)},
	}

	res := Match(clusters, topics, 0.85)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, pinned, res.Matches[0].TopicID)
	assert.Equal(t, []uuid.UUID{plain}, res.UnmatchedTopics)
}

func TestLargerClusterWinsTie(t *testing.T) {
	topicID := uuid.New()
	clusters := []ClusterRef{
		{Index: 0, Size: 2, Centroid: vec(0, 1)},
		{Index: 1, Size: 6, Centroid: vec(0, 1)},
	}
	topics := []TopicRef{{ID: topicID, Centroid: vec(0, 1)}}

	res := Match(clusters, topics, 0.85)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].ClusterIndex)
	assert.Equal(t, []int{0}, res.UnmatchedClusters)
}

func TestArchivedAndEmptyCentroidsSkipped(t *testing.T) {
	archived, empty := uuid.New(), uuid.New()
	clusters := []ClusterRef{{Index: 0, Size: 3, Centroid: vec(1, 0)}, {Index: 1, Size: 3}}
	topics := []TopicRef{
		{ID: archived, Archived: true, Centroid: vec(1, 0)},
		{ID: empty},
	}

	res := Match(clusters, topics, 0)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []int{0, 1}, res.UnmatchedClusters)
	assert.Equal(t, []uuid.UUID{empty}, res.UnmatchedTopics)
}

func TestMatchDeterministic(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	clusters := []ClusterRef{
		{Index: 0, Size: 3, Centroid: vec(1, 0, 0)},
		{Index: 1, Size: 3, Centroid: vec(0, 1, 0)},
	}
	topics := []TopicRef{
		{ID: ids[0], Centroid: vec(1, 0, 0)},
		{ID: ids[1], Centroid: vec(1, 0, 0)},
		{ID: ids[2], Centroid: vec(0, 1, 0.1)},
	}

	first := Match(clusters, topics, 0.85)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Match(clusters, topics, 0.85))
	}
}
