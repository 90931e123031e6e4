package mood_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serenechat/serene-go/completion"
	"github.com/serenechat/serene-go/mood"
)

type fakeProvider struct {
	text    string
	err     error
	lastReq *completion.Request
}

func (p *fakeProvider) Complete(ctx context.Context, req *completion.Request) (string, error) {
	p.lastReq = req
	return p.text, p.err
}

func TestClassify(t *testing.T) {
	cases := map[string]mood.Mood{
		"positive":     mood.Positive,
		"negative":     mood.Negative,
		"neutral":      mood.Neutral,
		" Positive.\n": mood.Positive,
		"NEGATIVE":     mood.Negative,
		"mostly happy": mood.Neutral, // unrecognized labels fall back
		"":             mood.Neutral,
	}
	for resp, want := range cases {
		classifier := mood.NewLLMClassifier(&fakeProvider{text: resp}, "llama-3.3-70b-versatile")
		got, err := classifier.Classify(context.Background(), "some message")
		if err != nil {
			t.Fatalf("Classify(%q): %v", resp, err)
		}
		if got != want {
			t.Errorf("Classify(%q): want %q, got %q", resp, want, got)
		}
	}
}

func TestClassifyPropagatesProviderErrors(t *testing.T) {
	classifier := mood.NewLLMClassifier(&fakeProvider{err: errors.New("rate limited")}, "m")
	if _, err := classifier.Classify(context.Background(), "text"); err == nil {
		t.Fatal("expected the provider error")
	}
}

func TestClassifyRequestShape(t *testing.T) {
	provider := &fakeProvider{text: "neutral"}
	classifier := mood.NewLLMClassifier(provider, "llama-3.3-70b-versatile")

	if _, err := classifier.Classify(context.Background(), "today was fine"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	req := provider.lastReq
	if req.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model: got %q", req.Model)
	}
	if req.Temperature != 0 || req.MaxTokens != 5 {
		t.Errorf("sampling params: temperature=%v max_tokens=%d", req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[1].Content != "today was fine" {
		t.Errorf("messages: got %+v", req.Messages)
	}
}
