package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	v := []float32{0.3, 0.5, 0.2, 0.9}
	got := CosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-6 {
		t.Fatalf("expected similarity ~1.0 for identical vectors, got %f", got)
	}
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, b); math.Abs(got) > 1e-6 {
		t.Fatalf("expected similarity 0 for orthogonal vectors, got %f", got)
	}
}

func TestCosineSimilarityZeroNormGuard(t *testing.T) {
	zero := []float32{0, 0, 0}
	other := []float32{1, 2, 3}
	if got := CosineSimilarity(zero, other); got != -1 {
		t.Fatalf("expected -1 for zero-norm vector, got %f", got)
	}
	if got := CosineSimilarity(other, zero); got != -1 {
		t.Fatalf("expected -1 for zero-norm vector, got %f", got)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != -1 {
		t.Fatalf("expected -1 for mismatched dimensions, got %f", got)
	}
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float32{3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-6 {
		t.Fatalf("expected unit length after normalize, got norm %f", math.Sqrt(sum))
	}
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := Normalize([]float32{0, 0})
	for _, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector to stay zero, got %v", v)
		}
	}
}
