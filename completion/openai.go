package completion

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

// DefaultBaseURL points at Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// OpenAIConfig configures the OpenAI-compatible HTTP provider.
type OpenAIConfig struct {
	// APIKey is sent as a bearer token. Required.
	APIKey string

	// BaseURL is the API root, without the trailing /chat/completions.
	// Defaults to the Groq endpoint.
	BaseURL string

	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration
}

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	log  *logger.Logger
	cfg  OpenAIConfig
	http *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(log *logger.Logger, cfg OpenAIConfig) (*OpenAIProvider, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing completion API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		log:  log.With("provider", "openai"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the chat payload and returns the first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (string, error) {
	body := chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	u := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parsing
	case transientStatus(resp.StatusCode):
		return "", &TransientError{StatusCode: resp.StatusCode, Body: string(raw)}
	default:
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ParseError{Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &ParseError{Err: errors.New("response contained no choices")}
	}
	content := out.Choices[0].Message.Content
	if content == "" {
		return "", &ParseError{Err: errors.New("first choice had empty content")}
	}

	p.log.Debug("completion ok", "model", req.Model, "bytes", len(raw))
	return content, nil
}
