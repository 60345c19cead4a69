package clustering

import (
	"math"
	"math/rand"

	"newsbox-topics/pkg/vector"
)

// HeuristicK picks K for a corpus of n points: 1 for small corpora, otherwise round(sqrt(n/2)) in [2, 10].
func HeuristicK(n int) int {
	if n < smallCorpus {
		return 1
	}
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 2 {
		k = 2
	}
	if k > 10 {
		k = 10
	}
	return k
}

func resolveK(requested, n int) int {
	k := requested
	if k <= 0 {
		k = HeuristicK(n)
	}
	if k > MaxK {
		k = MaxK
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	return k
}

// kmeans assigns each unit vector to the most similar of k centroids until nothing moves or maxIter is hit.
// Seeding is farthest-first from the first vector; empty centroids are re-seeded from rng.
func kmeans(vecs [][]float32, k, maxIter int, rng *rand.Rand) ([]int, int) {
	n := len(vecs)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vecs[0])
	for len(centroids) < k {
		bestIdx, bestDist := 0, -1.0
		for i := range vecs {
			d := math.Inf(1)
			for _, c := range centroids {
				d = math.Min(d, vector.Distance(vecs[i], c))
			}
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centroids = append(centroids, vecs[bestIdx])
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	iterations := 0
	for iterations < maxIter {
		iterations++
		changed := false
		for i, v := range vecs {
			best, bestScore := 0, math.Inf(-1)
			for c, centroid := range centroids {
				if s := vector.Cosine(v, centroid); s > bestScore {
					bestScore = s
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		members := make([][][]float32, k)
		for i, c := range assign {
			members[c] = append(members[c], vecs[i])
		}
		for c := range centroids {
			if len(members[c]) == 0 {
				centroids[c] = vecs[rng.Intn(n)]
				changed = true
				continue
			}
			centroids[c] = vector.Centroid(members[c])
		}

		if !changed {
			break
		}
	}
	return assign, iterations
}
