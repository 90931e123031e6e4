// Package mood classifies text into a coarse sentiment polarity. The
// classifier is an external collaborator; no NLP happens in-process.
package mood

import "context"

// Mood is a sentiment polarity bucket.
type Mood string

const (
	Negative Mood = "negative"
	Neutral  Mood = "neutral"
	Positive Mood = "positive"
)

// Classifier maps text to a sentiment polarity.
type Classifier interface {
	Classify(ctx context.Context, text string) (Mood, error)
}
