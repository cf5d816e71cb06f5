package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockClient is a deterministic embedding client for tests and offline runs.
// The same text always gets the same unit-length vector.
type MockClient struct {
	dimensions int
	Calls      int
}

// NewMockClient returns a client that produces deterministic embeddings of the given dimensions.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = 8
	}
	return &MockClient{dimensions: dimensions}
}

// CreateEmbedding implements embeddings.EmbedderClient.
func (m *MockClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.Calls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *MockClient) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := float64(h.Sum64()%10007) + 1

	emb := make([]float32, m.dimensions)
	var sum float64
	for i := range emb {
		v := math.Sin(seed*float64(i+1))*0.5 + 0.01
		emb[i] = float32(v)
		sum += v * v
	}
	norm := 1 / math.Sqrt(sum)
	for i := range emb {
		emb[i] *= float32(norm)
	}
	return emb
}
