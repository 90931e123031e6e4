// Package chromem implements the memory.Store interface on chromem-go, a
// pure Go embedded vector database. Intended for local development and
// tests; production deployments use the Pinecone store.
package chromem

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/serenechat/serene-go/memory"
)

const collectionName = "messages"

// Store keeps all message records in a single chromem collection and
// relies on metadata filtering for user scoping.
type Store struct {
	db  *chromem.DB
	col *chromem.Collection
}

// New creates an in-memory chromem store.
func New() (*Store, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Store{db: db, col: col}, nil
}

// Upsert saves a record with its embedding.
func (s *Store) Upsert(ctx context.Context, rec memory.Record) error {
	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Metadata[memory.MetaText],
		Embedding: rec.Embedding,
		Metadata:  rec.Metadata,
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query retrieves records by vector similarity, optionally filtered by
// metadata equality.
func (s *Store) Query(ctx context.Context, q memory.Query) ([]memory.Record, error) {
	if s.col.Count() == 0 {
		return nil, nil
	}

	// chromem rejects nResults larger than the matching document count,
	// and the filtered count is unknown up front. Shrink until it fits.
	var results []chromem.Result
	for limit := q.TopK; limit >= 1; limit-- {
		var err error
		results, err = s.col.QueryEmbedding(ctx, q.Vector, limit, q.Filter, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	recs := make([]memory.Record, 0, len(results))
	for _, res := range results {
		recs = append(recs, memory.Record{
			ID:        res.ID,
			Embedding: res.Embedding,
			Metadata:  res.Metadata,
			Score:     res.Similarity,
		})
	}
	return recs, nil
}

// Delete removes records by ID.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// Close releases resources. chromem keeps everything in memory, nothing to
// release.
func (s *Store) Close() error {
	return nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
