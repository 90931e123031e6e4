package memory

import (
	"context"

	"github.com/serenechat/serene-go/core"
)

// Record is a stored (vector, metadata) pair. IDs are opaque to the store.
type Record struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string

	// Score is the similarity score assigned by the store on query results.
	// Zero on records built for upsert.
	Score float32
}

// Query describes a similarity search against a Store.
type Query struct {
	// Vector is the query embedding. Required.
	Vector []float32

	// TopK caps the number of results.
	TopK int

	// Filter restricts results to records whose metadata matches every
	// key/value pair exactly. Nil means no filtering.
	Filter map[string]string
}

// Store is the vector storage backend.
// Implementations: pinecone.Store (hosted), chromem.Store (embedded).
type Store interface {
	// Upsert saves a record. The embedding must already be set.
	Upsert(ctx context.Context, rec Record) error

	// Query returns records ranked by similarity, highest first.
	Query(ctx context.Context, q Query) ([]Record, error)

	// Delete removes records by ID. Unknown IDs are not an error.
	Delete(ctx context.Context, ids ...string) error

	// Close releases resources.
	Close() error
}

// Embedder converts text to fixed-dimensionality vectors.
// Implementations: mock.Embedder (testing), onnx.Embedder (local,
// all-MiniLM-L6-v2, build tag "onnx").
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Manager orchestrates memory operations for the response generator.
type Manager interface {
	// Recall returns prior messages to use as prompt context for the
	// user's next turn, in the order they should appear in the prompt.
	Recall(ctx context.Context, userID string, userInput string) ([]*core.Message, error)

	// Save embeds and persists a single message. The message timestamp is
	// stamped here, at persistence time.
	Save(ctx context.Context, msg *core.Message) error

	// Reset removes the user's records and reports how many were deleted.
	// Resetting a user with no records returns (0, nil).
	Reset(ctx context.Context, userID string) (int, error)
}
