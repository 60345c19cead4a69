// Package vector holds the small amount of linear algebra the topic pipeline needs.
// Embeddings are compared by cosine similarity, so most callers work with unit vectors.
package vector

import "math"

// Normalize scales v to unit length. A zero vector is returned as an unchanged copy.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var magnitude float64
	for _, x := range v {
		magnitude += float64(x) * float64(x)
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / magnitude)
	}
	return out
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty, zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Distance is the cosine distance 1 - Cosine(a, b).
func Distance(a, b []float32) float64 {
	return 1 - Cosine(a, b)
}

// Centroid averages the normalized inputs and re-normalizes the mean.
// Vectors whose length differs from the first usable one are skipped; nil means nothing usable.
func Centroid(vs [][]float32) []float32 {
	var sum []float64
	count := 0
	for _, v := range vs {
		if len(v) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		if len(v) != len(sum) {
			continue
		}
		n := Normalize(v)
		for i, x := range n {
			sum[i] += float64(x)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	mean := make([]float32, len(sum))
	for i, x := range sum {
		mean[i] = float32(x / float64(count))
	}
	return Normalize(mean)
}
