package mock

import (
	"context"
	"math"
	"testing"
)

func TestEmbedIsDeterministic(t *testing.T) {
	e := New()

	a, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(a) != DefaultDimensions {
		t.Fatalf("dimensions: want %d, got %d", DefaultDimensions, len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedDistinguishesInputs(t *testing.T) {
	e := New()

	a, _ := e.Embed(context.Background(), "hello")
	b, _ := e.Embed(context.Background(), "goodbye")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different inputs must produce different embeddings")
	}
}

func TestEmbedProducesUnitVectors(t *testing.T) {
	e := NewWithDimensions(16)

	vec, err := e.Embed(context.Background(), "normalize me")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if e.Dimensions() != 16 || len(vec) != 16 {
		t.Fatalf("dimensions: got %d (len %d)", e.Dimensions(), len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("vector norm: want 1, got %v", math.Sqrt(norm))
	}
}
