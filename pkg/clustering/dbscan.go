package clustering

import (
	"math"
	"sort"

	"newsbox-topics/pkg/vector"
)

const (
	labelUnvisited = -2
	labelNoise     = -1
)

// dbscan labels each vector with a cluster index, or labelNoise.
// minSamples counts the point itself.
func dbscan(vecs [][]float32, eps float64, minSamples int) ([]int, int) {
	n := len(vecs)
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || vector.Distance(vecs[i], vecs[j]) <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = labelUnvisited
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != labelUnvisited {
			continue
		}
		if len(neighbors[i]) < minSamples {
			labels[i] = labelNoise
			continue
		}

		labels[i] = cluster
		queue := append([]int(nil), neighbors[i]...)
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]
			if labels[q] == labelNoise {
				// border point
				labels[q] = cluster
			}
			if labels[q] != labelUnvisited {
				continue
			}
			labels[q] = cluster
			if len(neighbors[q]) >= minSamples {
				queue = append(queue, neighbors[q]...)
			}
		}
		cluster++
	}
	return labels, cluster
}

// estimateEpsilon takes a low percentile of nearest-neighbour distances within an evenly spaced
// sample, scales it by the margin and clamps it.
func estimateEpsilon(vecs [][]float32, cfg Config) float64 {
	sample := vecs
	if cfg.SampleSize > 0 && len(vecs) > cfg.SampleSize {
		sample = make([][]float32, 0, cfg.SampleSize)
		step := float64(len(vecs)) / float64(cfg.SampleSize)
		for i := 0; i < cfg.SampleSize; i++ {
			sample = append(sample, vecs[int(float64(i)*step)])
		}
	}
	if len(sample) < 2 {
		return cfg.MaxEpsilon
	}

	nearest := make([]float64, 0, len(sample))
	for i := range sample {
		best := math.Inf(1)
		for j := range sample {
			if i == j {
				continue
			}
			if d := vector.Distance(sample[i], sample[j]); d < best {
				best = d
			}
		}
		nearest = append(nearest, math.Max(best, 0))
	}
	sort.Float64s(nearest)

	idx := int(cfg.Percentile / 100 * float64(len(nearest)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(nearest) {
		idx = len(nearest) - 1
	}
	eps := nearest[idx] * cfg.Margin
	return clamp(eps, cfg.MinEpsilon, cfg.MaxEpsilon)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
