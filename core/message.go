package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Input validation errors. These are returned before any network I/O happens.
var (
	ErrEmptyUserID  = errors.New("user_id is required")
	ErrEmptyMessage = errors.New("message is required")
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single turn in a conversation. Messages are created once,
// never updated, and deleted only in bulk via a session reset.
type Message struct {
	// ID is derived from the user ID plus a random component, so concurrent
	// writes for the same user never collide.
	ID string

	// UserID partitions conversations. There is no auth layer, so it is not
	// guaranteed to map to a real identity.
	UserID string

	Sender Sender
	Text   string

	// Timestamp is set in UTC at persistence time.
	Timestamp time.Time

	// Mood is an optional sentiment tag ("negative", "neutral", "positive")
	// attached to stored user messages when a classifier is configured.
	Mood string
}

// NewMessage creates a message with a fresh ID. The timestamp is left zero;
// the memory manager stamps it when the message is persisted.
func NewMessage(userID string, sender Sender, text string) *Message {
	return &Message{
		ID:     fmt.Sprintf("%s_%s", userID, uuid.New().String()),
		UserID: userID,
		Sender: sender,
		Text:   text,
	}
}
