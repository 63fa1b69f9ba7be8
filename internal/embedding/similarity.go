package embedding

import (
	"errors"
	"math"
)

var (
	// ErrZeroVector means one side of a cosine similarity has zero norm.
	ErrZeroVector = errors.New("zero-norm vector")
	// ErrDimensionMismatch means two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Similarity returns dot(a,b) / (|a| * |b|), accumulated in float64.
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
