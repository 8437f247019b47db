// Package vector holds the similarity primitives used by the retrieval engine.
package vector

import (
	"math"

	"github.com/kailas-cloud/casecards/internal/domain"
)

// Norm returns the Euclidean norm of v. A zero vector yields 1 so that its
// similarity to anything is 0 instead of a division by zero.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return 1
	}
	return n
}

// Dot returns the sum of elementwise products. Vectors must have equal length.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// CosineSimilarity returns dot(a, b) / (normA * normB) using precomputed norms.
func CosineSimilarity(a []float32, normA float64, b []float32, normB float64) (float64, error) {
	d, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	return d / (normA * normB), nil
}
