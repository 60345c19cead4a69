// Package clustering partitions note embeddings into topics.
//
// DBSCAN over cosine distance is tried first; when it finds no dense region at all the engine
// falls back to k-means under cosine similarity. The result records which path was taken.
package clustering

import (
	"github.com/google/uuid"
)

type Algorithm string

const (
	AlgorithmAuto   Algorithm = "auto"
	AlgorithmDBSCAN Algorithm = "dbscan"
	AlgorithmKMeans Algorithm = "kmeans"
)

// ParseAlgorithm maps user input onto an Algorithm, defaulting to auto.
func ParseAlgorithm(s string) Algorithm {
	switch Algorithm(s) {
	case AlgorithmDBSCAN, AlgorithmKMeans:
		return Algorithm(s)
	default:
		return AlgorithmAuto
	}
}

type State string

const (
	StateNone            State = "NONE"
	StateDBSCANAttempted State = "DBSCAN_ATTEMPTED"
	StateKMeansFallback  State = "KMEANS_FALLBACK"
	StateClustered       State = "CLUSTERED"
)

type Point struct {
	ID     uuid.UUID
	Vector []float32
}

type Member struct {
	ID    uuid.UUID
	Score float64 // cosine similarity to the cluster centroid
}

type Cluster struct {
	Members  []Member
	Centroid []float32
}

func (c Cluster) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

func (c Cluster) Size() int {
	return len(c.Members)
}

type Config struct {
	Algorithm Algorithm

	// DBSCAN. Epsilon <= 0 means estimate it.
	Epsilon    float64
	MinSamples int
	SampleSize int
	Percentile float64
	Margin     float64
	MinEpsilon float64
	MaxEpsilon float64

	// k-means. K <= 0 means use the heuristic.
	K             int
	MaxIterations int

	// Seed 0 derives a seed from the point ids.
	Seed int64
}

const (
	DefaultMinSamples    = 3
	MaxMinSamples        = 12
	MaxK                 = 20
	DefaultMaxIterations = 50
	smallCorpus          = 6
)

func DefaultConfig() Config {
	return Config{
		Algorithm:     AlgorithmAuto,
		MinSamples:    DefaultMinSamples,
		SampleSize:    200,
		Percentile:    25,
		Margin:        1.25,
		MinEpsilon:    0.05,
		MaxEpsilon:    0.5,
		MaxIterations: DefaultMaxIterations,
	}
}

// Result is a partition tagged with the algorithm and parameters that produced it.
type Result struct {
	Clusters []Cluster
	Noise    []uuid.UUID
	Excluded []uuid.UUID // points without a usable vector

	Algorithm        Algorithm
	Epsilon          float64
	EpsilonEstimated bool
	MinSamples       int
	K                int
	Iterations       int
	States           []State
}

// Assigned counts the points that ended up in a cluster.
func (r *Result) Assigned() int {
	n := 0
	for _, c := range r.Clusters {
		n += len(c.Members)
	}
	return n
}

func (r *Result) FellBack() bool {
	for _, s := range r.States {
		if s == StateKMeansFallback {
			return true
		}
	}
	return false
}
