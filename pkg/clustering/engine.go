package clustering

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"newsbox-topics/pkg/apperr"
	"newsbox-topics/pkg/vector"

	"github.com/google/uuid"
)

type Engine struct {
	cfg Config
}

// NewEngine fills unset fields of cfg from DefaultConfig and applies the caps.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Algorithm == "" {
		cfg.Algorithm = def.Algorithm
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.MinSamples > MaxMinSamples {
		cfg.MinSamples = MaxMinSamples
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.Percentile <= 0 || cfg.Percentile > 100 {
		cfg.Percentile = def.Percentile
	}
	if cfg.Margin <= 0 {
		cfg.Margin = def.Margin
	}
	if cfg.MinEpsilon <= 0 {
		cfg.MinEpsilon = def.MinEpsilon
	}
	if cfg.MaxEpsilon <= 0 || cfg.MaxEpsilon < cfg.MinEpsilon {
		cfg.MaxEpsilon = def.MaxEpsilon
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Run partitions points. It fails only when fewer than two points carry a vector.
func (e *Engine) Run(points []Point) (*Result, error) {
	res := &Result{States: []State{StateNone}, MinSamples: e.cfg.MinSamples}

	usable := make([]Point, 0, len(points))
	seen := make(map[uuid.UUID]bool, len(points))
	for _, p := range points {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if len(p.Vector) == 0 {
			res.Excluded = append(res.Excluded, p.ID)
			continue
		}
		usable = append(usable, Point{ID: p.ID, Vector: vector.Normalize(p.Vector)})
	}
	sortByID(usable)
	dropMismatchedDims(&usable, res)

	if len(usable) < 2 {
		return nil, apperr.New(apperr.KindInsufficientData, "cluster notes",
			fmt.Sprintf("need at least 2 notes with embeddings, have %d", len(usable)),
			"save more notes or widen the recency window before rebuilding topics").
			WithDetail("usable", len(usable)).
			WithDetail("excluded", len(res.Excluded))
	}

	vecs := make([][]float32, len(usable))
	for i, p := range usable {
		vecs[i] = p.Vector
	}

	if e.cfg.Algorithm == AlgorithmKMeans {
		e.runKMeans(usable, vecs, res)
		res.States = append(res.States, StateClustered)
		return res, nil
	}

	res.States = append(res.States, StateDBSCANAttempted)
	res.Algorithm = AlgorithmDBSCAN
	res.Epsilon = e.cfg.Epsilon
	if res.Epsilon <= 0 {
		res.Epsilon = estimateEpsilon(vecs, e.cfg)
		res.EpsilonEstimated = true
	}

	labels, count := dbscan(vecs, res.Epsilon, e.cfg.MinSamples)
	if count == 0 && e.cfg.Algorithm == AlgorithmAuto {
		res.States = append(res.States, StateKMeansFallback)
		e.runKMeans(usable, vecs, res)
		res.States = append(res.States, StateClustered)
		return res, nil
	}

	res.Clusters = buildClusters(usable, labels, count)
	for i, l := range labels {
		if l == labelNoise {
			res.Noise = append(res.Noise, usable[i].ID)
		}
	}
	res.States = append(res.States, StateClustered)
	return res, nil
}

func (e *Engine) runKMeans(usable []Point, vecs [][]float32, res *Result) {
	seed := e.cfg.Seed
	if seed == 0 {
		seed = seedFromIDs(usable)
	}
	k := resolveK(e.cfg.K, len(vecs))
	assign, iterations := kmeans(vecs, k, e.cfg.MaxIterations, rand.New(rand.NewSource(seed)))

	res.Algorithm = AlgorithmKMeans
	res.K = k
	res.Iterations = iterations
	res.Noise = nil
	res.Clusters = buildClusters(usable, assign, k)
}

// buildClusters groups points by label, scores members against the centroid and orders everything
// deterministically. Labels outside [0, count) are skipped and empty groups dropped.
func buildClusters(points []Point, labels []int, count int) []Cluster {
	groups := make([][]Point, count)
	for i, l := range labels {
		if l < 0 || l >= count {
			continue
		}
		groups[l] = append(groups[l], points[i])
	}

	clusters := make([]Cluster, 0, count)
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		vecs := make([][]float32, len(g))
		for i, p := range g {
			vecs[i] = p.Vector
		}
		centroid := vector.Centroid(vecs)

		members := make([]Member, len(g))
		for i, p := range g {
			members[i] = Member{ID: p.ID, Score: vector.Cosine(p.Vector, centroid)}
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Score != members[j].Score {
				return members[i].Score > members[j].Score
			}
			return bytes.Compare(members[i].ID[:], members[j].ID[:]) < 0
		})
		clusters = append(clusters, Cluster{Members: members, Centroid: centroid})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Size() != clusters[j].Size() {
			return clusters[i].Size() > clusters[j].Size()
		}
		a, b := minID(clusters[i]), minID(clusters[j])
		return bytes.Compare(a[:], b[:]) < 0
	})
	return clusters
}

func minID(c Cluster) uuid.UUID {
	lowest := c.Members[0].ID
	for _, m := range c.Members[1:] {
		if bytes.Compare(m.ID[:], lowest[:]) < 0 {
			lowest = m.ID
		}
	}
	return lowest
}

func sortByID(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return bytes.Compare(points[i].ID[:], points[j].ID[:]) < 0
	})
}

// dropMismatchedDims excludes vectors whose dimension differs from the most common one.
func dropMismatchedDims(points *[]Point, res *Result) {
	counts := make(map[int]int)
	for _, p := range *points {
		counts[len(p.Vector)]++
	}
	if len(counts) <= 1 {
		return
	}
	dim, best := 0, -1
	for d, c := range counts {
		if c > best || (c == best && d > dim) {
			dim, best = d, c
		}
	}
	kept := (*points)[:0]
	for _, p := range *points {
		if len(p.Vector) == dim {
			kept = append(kept, p)
		} else {
			res.Excluded = append(res.Excluded, p.ID)
		}
	}
	*points = kept
}

func seedFromIDs(points []Point) int64 {
	h := fnv.New64a()
	for _, p := range points {
		_, _ = h.Write(p.ID[:])
	}
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
