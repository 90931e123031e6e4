// Package pinecone implements the memory.Store interface against the
// Pinecone HTTP API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/serenechat/serene-go/logger"
)

// ErrIndexNotFound is returned by DescribeIndex when the index does not
// exist yet.
var ErrIndexNotFound = errors.New("pinecone index not found")

// ClientConfig configures the low-level Pinecone client.
type ClientConfig struct {
	APIKey     string
	APIVersion string // defaults to "2025-01"
	BaseURL    string // control plane root, defaults to https://api.pinecone.io
	Timeout    time.Duration
}

// Client is a minimal Pinecone HTTP client covering this module's needs:
// index bootstrap plus upsert/query/delete on the data plane.
type Client struct {
	log  *logger.Logger
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a Pinecone client.
func NewClient(log *logger.Logger, cfg ClientConfig) (*Client, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing Pinecone API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-01"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		log:  log.With("client", "pinecone"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// -------------------- Control plane --------------------

// IndexDescription describes an index, including the data-plane host.
type IndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// CreateIndexRequest creates a serverless index.
type CreateIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}

// DescribeIndex fetches index metadata. Returns ErrIndexNotFound for 404.
func (c *Client) DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, errors.New("indexName required")
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/indexes/" + indexName
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pinecone describe_index http %d: %s", resp.StatusCode, string(raw))
	}

	var out IndexDescription
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pinecone describe_index decode: %w", err)
	}
	return &out, nil
}

// CreateIndex creates a serverless index and returns its description.
func (c *Client) CreateIndex(ctx context.Context, req CreateIndexRequest) (*IndexDescription, error) {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/indexes"
	return doJSON[IndexDescription](c, ctx, http.MethodPost, u, req)
}

// -------------------- Data plane --------------------

// Vector is a Pinecone vector with metadata.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpsertRequest writes vectors to the index.
type UpsertRequest struct {
	Vectors []Vector `json:"vectors"`
}

// UpsertResponse reports how many vectors were written.
type UpsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

// UpsertVectors writes vectors to the index at host.
func (c *Client) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	if len(req.Vectors) == 0 {
		return &UpsertResponse{}, nil
	}
	u, err := dataPlaneURL(host, "/vectors/upsert")
	if err != nil {
		return nil, err
	}
	return doJSON[UpsertResponse](c, ctx, http.MethodPost, u, req)
}

// QueryRequest is a similarity query.
type QueryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata,omitempty"`
}

// QueryMatch is a single ranked result.
type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryResponse holds the ranked matches.
type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
}

// Query runs a similarity search against the index at host.
func (c *Client) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	if len(req.Vector) == 0 {
		return nil, errors.New("query vector required")
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}
	u, err := dataPlaneURL(host, "/query")
	if err != nil {
		return nil, err
	}
	return doJSON[QueryResponse](c, ctx, http.MethodPost, u, req)
}

// DeleteRequest removes vectors by ID.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteVectors removes vectors by ID from the index at host.
func (c *Client) DeleteVectors(ctx context.Context, host string, req DeleteRequest) error {
	if len(req.IDs) == 0 {
		return nil
	}
	u, err := dataPlaneURL(host, "/vectors/delete")
	if err != nil {
		return err
	}
	_, err = doJSON[struct{}](c, ctx, http.MethodPost, u, req)
	return err
}

// -------------------- helpers --------------------

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pinecone-Api-Version", c.cfg.APIVersion)
}

func dataPlaneURL(host, path string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("host required")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/") + path, nil
}

func doJSON[T any](c *Client, ctx context.Context, method, url string, body any) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pinecone http %d: %s", resp.StatusCode, string(raw))
	}

	var out T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("pinecone decode: %w", err)
		}
	}
	return &out, nil
}
