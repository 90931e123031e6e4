package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/serenechat/serene-go/core"
	"github.com/serenechat/serene-go/logger"
	"github.com/serenechat/serene-go/mood"
)

// RetrievalMode selects how Recall and Reset discover a user's records.
type RetrievalMode int

const (
	// RetrieveByRecency queries with a metadata filter on user_id and
	// returns the most recent messages in chronological order. This is the
	// default.
	RetrieveByRecency RetrievalMode = iota

	// RetrieveLegacy reproduces the inherited behavior: the query vector is
	// the embedding of the literal user_id string, no metadata filter is
	// applied, and results keep their similarity order. Retrieval returns
	// whatever records are nearest in embedding space to the user_id token,
	// so it can include (and on reset, delete) records belonging to other
	// users. Only use this when behavioral parity with the original system
	// is required.
	RetrieveLegacy
)

// Config holds ConversationManager configuration.
type Config struct {
	// ContextMessages is the number of prior messages included in the
	// prompt context. Default: 5.
	ContextMessages int

	// RecencyScanLimit is how many candidates a recency-mode Recall fetches
	// before sorting by timestamp. Default: 50.
	RecencyScanLimit int

	// ResetScanLimit is the top_k used to discover a user's records during
	// Reset. Records beyond this window survive the reset; this is a known,
	// inherited limitation. Default: 100.
	ResetScanLimit int

	// Retrieval selects the retrieval policy. Default: RetrieveByRecency.
	Retrieval RetrievalMode
}

// DefaultConfig returns the defaults used when no config is given.
var DefaultConfig = &Config{
	ContextMessages:  5,
	RecencyScanLimit: 50,
	ResetScanLimit:   100,
	Retrieval:        RetrieveByRecency,
}

// ConversationManager is the Manager implementation backed by a vector
// store and an embedder.
type ConversationManager struct {
	log        *logger.Logger
	store      Store
	embedder   Embedder
	classifier mood.Classifier
	cfg        *Config
}

// Option configures a ConversationManager.
type Option func(*ConversationManager)

// WithClassifier enables mood tagging: stored user messages get a sentiment
// label in their metadata. Classification failures are logged and the
// message is stored untagged.
func WithClassifier(c mood.Classifier) Option {
	return func(m *ConversationManager) {
		m.classifier = c
	}
}

// NewConversationManager creates a manager. A nil config selects defaults.
func NewConversationManager(log *logger.Logger, store Store, embedder Embedder, cfg *Config, opts ...Option) *ConversationManager {
	if log == nil {
		log = logger.Nop()
	}
	if cfg == nil {
		cfg = DefaultConfig
	}
	m := &ConversationManager{
		log:      log.With("component", "memory"),
		store:    store,
		embedder: embedder,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Recall returns up to ContextMessages prior messages for the user.
func (m *ConversationManager) Recall(ctx context.Context, userID string, userInput string) ([]*core.Message, error) {
	if m.cfg.Retrieval == RetrieveLegacy {
		return m.recallLegacy(ctx, userID)
	}
	return m.recallByRecency(ctx, userID, userInput)
}

// recallByRecency fetches candidates filtered by user_id, then keeps the
// most recent ones in chronological order. The vector store cannot order by
// timestamp server-side, so a wider window is fetched and sorted here.
func (m *ConversationManager) recallByRecency(ctx context.Context, userID string, userInput string) ([]*core.Message, error) {
	vec, err := m.embedder.Embed(ctx, userInput)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	recs, err := m.store.Query(ctx, Query{
		Vector: vec,
		TopK:   m.cfg.RecencyScanLimit,
		Filter: map[string]string{MetaUserID: userID},
	})
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	msgs := m.toMessages(recs)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	if len(msgs) > m.cfg.ContextMessages {
		msgs = msgs[len(msgs)-m.cfg.ContextMessages:]
	}

	m.log.Debug("recall", "user_id", userID, "messages", len(msgs))
	return msgs, nil
}

// recallLegacy embeds the user_id string itself as the query vector and
// returns matches in similarity order, unfiltered. See RetrieveLegacy.
func (m *ConversationManager) recallLegacy(ctx context.Context, userID string) ([]*core.Message, error) {
	vec, err := m.embedder.Embed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("embed user id: %w", err)
	}

	recs, err := m.store.Query(ctx, Query{Vector: vec, TopK: m.cfg.ContextMessages})
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	return m.toMessages(recs), nil
}

// Save embeds and upserts a single message, stamping its timestamp.
func (m *ConversationManager) Save(ctx context.Context, msg *core.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	if m.classifier != nil && msg.Sender == core.SenderUser {
		label, err := m.classifier.Classify(ctx, msg.Text)
		if err != nil {
			m.log.Warn("mood classification failed", "user_id", msg.UserID, "error", err)
		} else {
			msg.Mood = string(label)
		}
	}

	embedding, err := m.embedder.Embed(ctx, msg.Text)
	if err != nil {
		return fmt.Errorf("embed message: %w", err)
	}

	if err := m.store.Upsert(ctx, recordFromMessage(msg, embedding)); err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}
	return nil
}

// Reset discovers the user's records within the scan window and deletes
// them by ID. Discovery is a similarity query, not an exact partition
// delete: records outside the window survive.
func (m *ConversationManager) Reset(ctx context.Context, userID string) (int, error) {
	vec, err := m.embedder.Embed(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("embed user id: %w", err)
	}

	q := Query{Vector: vec, TopK: m.cfg.ResetScanLimit}
	if m.cfg.Retrieval != RetrieveLegacy {
		q.Filter = map[string]string{MetaUserID: userID}
	}

	recs, err := m.store.Query(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("query store: %w", err)
	}
	if len(recs) == 0 {
		m.log.Debug("reset found no records", "user_id", userID)
		return 0, nil
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	if err := m.store.Delete(ctx, ids...); err != nil {
		return 0, fmt.Errorf("delete user records: %w", err)
	}

	m.log.Info("reset cleared records", "user_id", userID, "count", len(ids))
	return len(ids), nil
}

// toMessages converts query matches, skipping records that cannot be
// reconstructed.
func (m *ConversationManager) toMessages(recs []Record) []*core.Message {
	msgs := make([]*core.Message, 0, len(recs))
	for _, rec := range recs {
		msg, err := messageFromRecord(rec)
		if err != nil {
			m.log.Warn("skipping unreadable record", "id", rec.ID, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
