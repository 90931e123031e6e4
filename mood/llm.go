package mood

import (
	"context"
	"fmt"
	"strings"

	"github.com/serenechat/serene-go/completion"
)

const classifierPrompt = `You are a sentiment classifier. ` +
	`Classify the overall sentiment of the user's message. ` +
	`Respond with exactly one word: negative, neutral, or positive.`

// LLMClassifier classifies sentiment by asking a completion provider.
type LLMClassifier struct {
	provider completion.Provider
	model    string
}

// NewLLMClassifier creates a classifier on top of a completion provider.
func NewLLMClassifier(provider completion.Provider, model string) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model}
}

// Classify asks the model for a one-word polarity label. Labels the model
// mangles fall back to neutral rather than failing the caller.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Mood, error) {
	resp, err := c.provider.Complete(ctx, &completion.Request{
		Model: c.model,
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: classifierPrompt},
			{Role: completion.RoleUser, Content: text},
		},
		Temperature: 0,
		MaxTokens:   5,
		TopP:        1,
	})
	if err != nil {
		return "", fmt.Errorf("classify sentiment: %w", err)
	}

	switch Mood(strings.ToLower(strings.Trim(strings.TrimSpace(resp), "."))) {
	case Negative:
		return Negative, nil
	case Positive:
		return Positive, nil
	default:
		return Neutral, nil
	}
}
