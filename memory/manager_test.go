package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/serenechat/serene-go/core"
	"github.com/serenechat/serene-go/logger"
	"github.com/serenechat/serene-go/memory"
	"github.com/serenechat/serene-go/memory/embedder/mock"
	"github.com/serenechat/serene-go/memory/store/chromem"
	"github.com/serenechat/serene-go/mood"
)

func newTestManager(t *testing.T, cfg *memory.Config, opts ...memory.Option) *memory.ConversationManager {
	t.Helper()
	store, err := chromem.New()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return memory.NewConversationManager(logger.Nop(), store, mock.New(), cfg, opts...)
}

func saveMessage(t *testing.T, mgr *memory.ConversationManager, userID string, sender core.Sender, text string, ts time.Time) {
	t.Helper()
	msg := core.NewMessage(userID, sender, text)
	msg.Timestamp = ts
	if err := mgr.Save(context.Background(), msg); err != nil {
		t.Fatalf("save %q: %v", text, err)
	}
}

func TestRecallReturnsRecentMessagesInOrder(t *testing.T) {
	mgr := newTestManager(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		saveMessage(t, mgr, "alice", core.SenderUser, fmt.Sprintf("alice message %d", i), base.Add(time.Duration(i)*time.Minute))
	}
	saveMessage(t, mgr, "bob", core.SenderUser, "bob message", base)

	msgs, err := mgr.Recall(context.Background(), "alice", "what did I say?")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("recall window: want 5 messages, got %d", len(msgs))
	}
	for i, msg := range msgs {
		if msg.UserID != "alice" {
			t.Errorf("message %d: crossed user boundary, got user %q", i, msg.UserID)
		}
		want := fmt.Sprintf("alice message %d", i+2)
		if msg.Text != want {
			t.Errorf("message %d: want %q, got %q", i, want, msg.Text)
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			t.Errorf("messages out of chronological order at %d", i)
		}
	}
}

func TestRecallKeepsSameSecondExchangeInOrder(t *testing.T) {
	mgr := newTestManager(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A user message and its reply land milliseconds apart; ordering must
	// not collapse to similarity within the same second.
	saveMessage(t, mgr, "alice", core.SenderUser, "how do I relax?", base)
	saveMessage(t, mgr, "alice", core.SenderBot, "Try a slow breathing exercise.", base.Add(5*time.Millisecond))

	msgs, err := mgr.Recall(context.Background(), "alice", "more ideas?")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sender != core.SenderUser || msgs[1].Sender != core.SenderBot {
		t.Errorf("exchange out of order: got %s then %s", msgs[0].Sender, msgs[1].Sender)
	}
}

func TestRecallEmptyStore(t *testing.T) {
	mgr := newTestManager(t, nil)

	msgs, err := mgr.Recall(context.Background(), "alice", "hello")
	if err != nil {
		t.Fatalf("Recall on empty store: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("want no messages, got %d", len(msgs))
	}
}

func TestRecallLegacyMode(t *testing.T) {
	mgr := newTestManager(t, &memory.Config{
		ContextMessages:  5,
		RecencyScanLimit: 50,
		ResetScanLimit:   100,
		Retrieval:        memory.RetrieveLegacy,
	})
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		saveMessage(t, mgr, "alice", core.SenderUser, fmt.Sprintf("note %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	msgs, err := mgr.Recall(context.Background(), "alice", "ignored in legacy mode")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("want all 3 stored messages, got %d", len(msgs))
	}
}

func TestResetClearsOnlyTargetUser(t *testing.T) {
	mgr := newTestManager(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		saveMessage(t, mgr, "alice", core.SenderUser, fmt.Sprintf("alice %d", i), base.Add(time.Duration(i)*time.Minute))
	}
	saveMessage(t, mgr, "bob", core.SenderUser, "bob keeps this", base)

	count, err := mgr.Reset(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if count != 3 {
		t.Errorf("reset count: want 3, got %d", count)
	}

	msgs, err := mgr.Recall(context.Background(), "alice", "anything left?")
	if err != nil {
		t.Fatalf("Recall after reset: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("alice history must be empty, got %d messages", len(msgs))
	}

	msgs, err = mgr.Recall(context.Background(), "bob", "still there?")
	if err != nil {
		t.Fatalf("Recall for bob: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("bob history must survive, got %d messages", len(msgs))
	}
}

func TestResetIsIdempotent(t *testing.T) {
	mgr := newTestManager(t, nil)
	saveMessage(t, mgr, "alice", core.SenderUser, "only message", time.Now().UTC())

	if count, err := mgr.Reset(context.Background(), "alice"); err != nil || count != 1 {
		t.Fatalf("first reset: count=%d err=%v", count, err)
	}
	if count, err := mgr.Reset(context.Background(), "alice"); err != nil || count != 0 {
		t.Errorf("second reset: want count=0 err=nil, got count=%d err=%v", count, err)
	}
	if count, err := mgr.Reset(context.Background(), "nobody"); err != nil || count != 0 {
		t.Errorf("reset for unknown user: want count=0 err=nil, got count=%d err=%v", count, err)
	}
}

func TestSaveStampsTimestamp(t *testing.T) {
	mgr := newTestManager(t, nil)
	msg := core.NewMessage("alice", core.SenderUser, "hello")

	if err := mgr.Save(context.Background(), msg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Save must stamp a timestamp on untimestamped messages")
	}
}

type fixedClassifier struct {
	label mood.Mood
	err   error
	calls int
}

func (c *fixedClassifier) Classify(ctx context.Context, text string) (mood.Mood, error) {
	c.calls++
	return c.label, c.err
}

func TestSaveTagsUserMessagesWithMood(t *testing.T) {
	classifier := &fixedClassifier{label: mood.Positive}
	mgr := newTestManager(t, nil, memory.WithClassifier(classifier))
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	saveMessage(t, mgr, "alice", core.SenderUser, "today was great!", base)
	saveMessage(t, mgr, "alice", core.SenderBot, "So glad to hear that!", base.Add(time.Second))

	if classifier.calls != 1 {
		t.Errorf("only user messages are classified, got %d calls", classifier.calls)
	}

	msgs, err := mgr.Recall(context.Background(), "alice", "how was today?")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Mood != string(mood.Positive) {
		t.Errorf("user message mood: want %q, got %q", mood.Positive, msgs[0].Mood)
	}
	if msgs[1].Mood != "" {
		t.Errorf("bot message must stay untagged, got %q", msgs[1].Mood)
	}
}

func TestSaveSurvivesClassifierFailure(t *testing.T) {
	classifier := &fixedClassifier{err: errors.New("classifier down")}
	mgr := newTestManager(t, nil, memory.WithClassifier(classifier))

	saveMessage(t, mgr, "alice", core.SenderUser, "hello", time.Now().UTC())

	msgs, err := mgr.Recall(context.Background(), "alice", "hello again")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("message must be stored despite classifier failure, got %d", len(msgs))
	}
	if msgs[0].Mood != "" {
		t.Errorf("mood must be empty on classifier failure, got %q", msgs[0].Mood)
	}
}
