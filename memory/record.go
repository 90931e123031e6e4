package memory

import (
	"fmt"
	"time"

	"github.com/serenechat/serene-go/core"
)

// Metadata keys shared by every store implementation.
const (
	MetaUserID    = "user_id"
	MetaSender    = "sender"
	MetaText      = "text"
	MetaTimestamp = "timestamp"
	MetaMood      = "mood"
)

// recordFromMessage builds a storable record from a message and its
// embedding.
func recordFromMessage(msg *core.Message, embedding []float32) Record {
	metadata := map[string]string{
		MetaUserID:    msg.UserID,
		MetaSender:    string(msg.Sender),
		MetaText:      msg.Text,
		// RFC3339Nano keeps sub-second precision so the two sides of an
		// exchange, saved milliseconds apart, still sort in order.
		MetaTimestamp: msg.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if msg.Mood != "" {
		metadata[MetaMood] = msg.Mood
	}
	return Record{
		ID:        msg.ID,
		Embedding: embedding,
		Metadata:  metadata,
	}
}

// messageFromRecord reconstructs a message from a query match.
func messageFromRecord(rec Record) (*core.Message, error) {
	text, ok := rec.Metadata[MetaText]
	if !ok {
		return nil, fmt.Errorf("record %s has no text metadata", rec.ID)
	}

	ts, err := time.Parse(time.RFC3339Nano, rec.Metadata[MetaTimestamp])
	if err != nil {
		// Old records may lack a parseable timestamp; keep the message,
		// it just sorts first in recency ordering.
		ts = time.Time{}
	}

	return &core.Message{
		ID:        rec.ID,
		UserID:    rec.Metadata[MetaUserID],
		Sender:    core.Sender(rec.Metadata[MetaSender]),
		Text:      text,
		Timestamp: ts,
		Mood:      rec.Metadata[MetaMood],
	}, nil
}
