package pinecone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/serenechat/serene-go/logger"
	"github.com/serenechat/serene-go/memory"
)

// StoreConfig configures the Pinecone-backed memory store.
type StoreConfig struct {
	// IndexName is the Pinecone index holding message records. Required.
	IndexName string

	// Dimension is the embedding dimensionality. Used when the index has to
	// be created and validated against an existing index. Required.
	Dimension int

	// Host skips the describe_index bootstrap when set (recommended for
	// production).
	Host string

	// Cloud/Region/Metric apply when the index is created on first use.
	// Defaults: aws, us-east-1, cosine.
	Cloud  string
	Region string
	Metric string
}

// Store implements memory.Store on a Pinecone index. The index is created
// on first use if it does not exist.
type Store struct {
	log    *logger.Logger
	client *Client
	host   string
	dim    int
}

// New connects to the index, creating it when missing.
func New(ctx context.Context, log *logger.Logger, client *Client, cfg StoreConfig) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	if client == nil {
		return nil, errors.New("pinecone client required")
	}
	if strings.TrimSpace(cfg.IndexName) == "" {
		return nil, errors.New("index name required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("embedding dimension required")
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}

	s := &Store{
		log:    log.With("store", "pinecone", "index", cfg.IndexName),
		client: client,
		dim:    cfg.Dimension,
	}

	if cfg.Host != "" {
		s.host = cfg.Host
		return s, nil
	}

	desc, err := client.DescribeIndex(ctx, cfg.IndexName)
	if errors.Is(err, ErrIndexNotFound) {
		req := CreateIndexRequest{
			Name:      cfg.IndexName,
			Dimension: cfg.Dimension,
			Metric:    cfg.Metric,
		}
		req.Spec.Serverless.Cloud = cfg.Cloud
		req.Spec.Serverless.Region = cfg.Region

		desc, err = client.CreateIndex(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		s.log.Info("created index", "host", desc.Host)
	} else if err != nil {
		return nil, fmt.Errorf("describe index: %w", err)
	}

	if desc.Dimension != 0 && desc.Dimension != cfg.Dimension {
		return nil, fmt.Errorf("index dimension %d does not match embedder dimension %d", desc.Dimension, cfg.Dimension)
	}
	if strings.TrimSpace(desc.Host) == "" {
		return nil, errors.New("index description has no host")
	}

	s.host = desc.Host
	return s, nil
}

// Upsert writes a single record.
func (s *Store) Upsert(ctx context.Context, rec memory.Record) error {
	if len(rec.Embedding) != s.dim {
		return fmt.Errorf("embedding length %d does not match index dimension %d", len(rec.Embedding), s.dim)
	}

	metadata := make(map[string]any, len(rec.Metadata))
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	_, err := s.client.UpsertVectors(ctx, s.host, UpsertRequest{
		Vectors: []Vector{{ID: rec.ID, Values: rec.Embedding, Metadata: metadata}},
	})
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// Query runs a similarity search, translating the equality filter into
// Pinecone's filter expression.
func (s *Store) Query(ctx context.Context, q memory.Query) ([]memory.Record, error) {
	resp, err := s.client.Query(ctx, s.host, QueryRequest{
		Vector:          q.Vector,
		TopK:            q.TopK,
		Filter:          buildFilter(q.Filter),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	recs := make([]memory.Record, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if strings.TrimSpace(match.ID) == "" {
			continue
		}
		metadata := make(map[string]string, len(match.Metadata))
		for k, v := range match.Metadata {
			if str, ok := v.(string); ok {
				metadata[k] = str
			}
		}
		recs = append(recs, memory.Record{
			ID:        match.ID,
			Embedding: match.Values,
			Metadata:  metadata,
			Score:     match.Score,
		})
	}
	return recs, nil
}

// Delete removes records by ID.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if err := s.client.DeleteVectors(ctx, s.host, DeleteRequest{IDs: ids}); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// Close releases resources. The client is plain HTTP, nothing to close.
func (s *Store) Close() error {
	return nil
}

// buildFilter converts an equality filter into Pinecone's expression
// format: {"field": {"$eq": value}}, combined with $and when several
// fields are present.
func buildFilter(filter map[string]string) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	if len(filter) == 1 {
		for k, v := range filter {
			return map[string]any{k: map[string]any{"$eq": v}}
		}
	}
	clauses := make([]any, 0, len(filter))
	for k, v := range filter {
		clauses = append(clauses, map[string]any{k: map[string]any{"$eq": v}})
	}
	return map[string]any{"$and": clauses}
}
