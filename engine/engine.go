// Package engine implements the response generator: retrieve context,
// call the completion service with retry/backoff, persist the exchange,
// return the reply.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serenechat/serene-go/completion"
	"github.com/serenechat/serene-go/core"
	"github.com/serenechat/serene-go/logger"
	"github.com/serenechat/serene-go/memory"
)

// Config holds the completion parameters and retry policy.
type Config struct {
	// Model is the completion model identifier.
	Model string

	// Sampling parameters sent with every request.
	Temperature float64
	MaxTokens   int
	TopP        float64

	// SystemPrompt overrides the default persona instruction.
	SystemPrompt string

	// MaxAttempts is the total number of completion calls before giving
	// up on transient failures. Default: 3.
	MaxAttempts int

	// BackoffBase is the first retry delay; each retry doubles it
	// (base, 2*base, 4*base, ...). No jitter. Default: 1s.
	BackoffBase time.Duration
}

// DefaultConfig returns the defaults used when no config is given.
var DefaultConfig = &Config{
	Model:        "llama-3.3-70b-versatile",
	Temperature:  0.9,
	MaxTokens:    250,
	TopP:         0.95,
	SystemPrompt: DefaultSystemPrompt,
	MaxAttempts:  3,
	BackoffBase:  time.Second,
}

// Engine orchestrates retrieval, completion, and persistence for a single
// request/response exchange. One Engine serves all users; it holds no
// per-request state.
type Engine struct {
	log      *logger.Logger
	provider completion.Provider
	memory   memory.Manager
	cfg      *Config
}

// New creates an engine. A nil config selects defaults; zero fields in a
// given config are filled from the defaults, except Temperature and TopP
// where zero is a meaningful value.
func New(log *logger.Logger, provider completion.Provider, mem memory.Manager, cfg *Config) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		log:      log.With("component", "engine"),
		provider: provider,
		memory:   mem,
		cfg:      withDefaults(cfg),
	}
}

func withDefaults(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig
	}
	out := *cfg
	if out.Model == "" {
		out.Model = DefaultConfig.Model
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultConfig.MaxTokens
	}
	if out.SystemPrompt == "" {
		out.SystemPrompt = DefaultConfig.SystemPrompt
	}
	if out.MaxAttempts == 0 {
		out.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if out.BackoffBase == 0 {
		out.BackoffBase = DefaultConfig.BackoffBase
	}
	return &out
}

// GenerateReply produces a reply for the user's input and records the
// exchange on success. The returned reply is never empty: it is either
// the generated text or one of the fixed fallback strings. An error is
// returned only for invalid input or a transport-level completion
// failure.
func (e *Engine) GenerateReply(ctx context.Context, userID, userInput string) (*core.Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrEmptyUserID
	}
	if strings.TrimSpace(userInput) == "" {
		return nil, core.ErrEmptyMessage
	}

	// Retrieval failures degrade to an empty context rather than failing
	// the request.
	history, err := e.memory.Recall(ctx, userID, userInput)
	if err != nil {
		e.log.Warn("memory recall failed", "user_id", userID, "error", err)
		history = nil
	}

	req := &completion.Request{
		Model: e.cfg.Model,
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: e.cfg.SystemPrompt},
			{Role: completion.RoleUser, Content: BuildContext(history, userInput)},
		},
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
		TopP:        e.cfg.TopP,
	}

	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		text, err := e.provider.Complete(ctx, req)
		if err == nil {
			persisted := e.persistExchange(ctx, userID, userInput, text)
			return &core.Reply{
				Text:         text,
				QuickReplies: core.QuickReplies(),
				Persisted:    persisted,
			}, nil
		}

		var parseErr *completion.ParseError
		if errors.As(err, &parseErr) {
			// The service answered; retrying won't fix a malformed body.
			// Nothing is persisted.
			e.log.Error("completion response unusable", "user_id", userID, "error", err)
			return &core.Reply{Text: ReplyParseFailure, QuickReplies: core.QuickReplies()}, nil
		}

		var transient *completion.TransientError
		if errors.As(err, &transient) {
			e.log.Warn("completion transient failure",
				"user_id", userID, "status", transient.StatusCode, "attempt", attempt+1)
			if attempt < e.cfg.MaxAttempts-1 {
				if err := e.backoff(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		var status *completion.StatusError
		if errors.As(err, &status) {
			// Client-side mistakes (bad key, bad model) are not retried.
			e.log.Error("completion rejected", "user_id", userID, "status", status.StatusCode)
			break
		}

		// Connection-level failure: surface it rather than masking it as
		// one more retry.
		return nil, fmt.Errorf("completion request: %w", err)
	}

	return &core.Reply{Text: ReplyUnavailable, QuickReplies: core.QuickReplies()}, nil
}

// ResetSession clears the user's stored conversation history. Resetting a
// user with no records is not an error.
func (e *Engine) ResetSession(ctx context.Context, userID string) (*core.ResetResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrEmptyUserID
	}

	count, err := e.memory.Reset(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}
	return &core.ResetResult{Cleared: count > 0, Count: count}, nil
}

// persistExchange stores the user message and the reply as two
// independent records. Failures are logged and swallowed: the reply has
// already been generated and storage must not block its delivery.
func (e *Engine) persistExchange(ctx context.Context, userID, userInput, replyText string) bool {
	persisted := true

	if err := e.memory.Save(ctx, core.NewMessage(userID, core.SenderUser, userInput)); err != nil {
		e.log.Error("persist user message failed", "user_id", userID, "error", err)
		persisted = false
	}
	if err := e.memory.Save(ctx, core.NewMessage(userID, core.SenderBot, replyText)); err != nil {
		e.log.Error("persist bot reply failed", "user_id", userID, "error", err)
		persisted = false
	}
	return persisted
}

// backoff waits base<<attempt (1s, 2s, 4s with the default base) or until
// the context is cancelled.
func (e *Engine) backoff(ctx context.Context, attempt int) error {
	delay := e.cfg.BackoffBase << attempt
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
