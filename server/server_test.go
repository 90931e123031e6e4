package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/serenechat/serene-go/core"
	"github.com/serenechat/serene-go/logger"
	"github.com/serenechat/serene-go/server"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// stubPipeline scripts pipeline outcomes and records the inputs it saw.
type stubPipeline struct {
	reply    *core.Reply
	replyErr error
	reset    *core.ResetResult
	resetErr error

	gotUserID string
	gotInput  string
}

func (p *stubPipeline) GenerateReply(ctx context.Context, userID, userInput string) (*core.Reply, error) {
	p.gotUserID = userID
	p.gotInput = userInput
	return p.reply, p.replyErr
}

func (p *stubPipeline) ResetSession(ctx context.Context, userID string) (*core.ResetResult, error) {
	p.gotUserID = userID
	return p.reset, p.resetErr
}

func doRequest(t *testing.T, pipeline *stubPipeline, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := server.New(logger.Nop(), pipeline, server.Config{})
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &stubPipeline{}, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["message"] != "Serene Chat API is running!" {
		t.Errorf("body: got %v", body)
	}
}

func TestChatReturnsReplyAndQuickReplies(t *testing.T) {
	pipeline := &stubPipeline{reply: &core.Reply{
		Text:         "I'm here for you.",
		QuickReplies: core.QuickReplies(),
		Persisted:    true,
	}}

	rec := doRequest(t, pipeline, http.MethodPost, "/chat", `{"user_id":"alice","message":"I feel anxious today"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if pipeline.gotUserID != "alice" || pipeline.gotInput != "I feel anxious today" {
		t.Errorf("pipeline inputs: got user=%q input=%q", pipeline.gotUserID, pipeline.gotInput)
	}

	body := decodeBody(t, rec)
	if body["response"] != "I'm here for you." {
		t.Errorf("response: got %v", body["response"])
	}
	quick, ok := body["quick_replies"].([]any)
	if !ok || len(quick) != len(core.QuickReplies()) {
		t.Fatalf("quick_replies: got %v", body["quick_replies"])
	}
	for i, want := range core.QuickReplies() {
		if quick[i] != want {
			t.Errorf("quick reply %d: want %q, got %v", i, want, quick[i])
		}
	}
}

func TestChatDefaultsUserID(t *testing.T) {
	pipeline := &stubPipeline{reply: &core.Reply{Text: "hi"}}

	rec := doRequest(t, pipeline, http.MethodPost, "/chat", `{"message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if pipeline.gotUserID != "default_user" {
		t.Errorf("user id: want default_user, got %q", pipeline.gotUserID)
	}
}

func TestChatRequiresMessage(t *testing.T) {
	for name, body := range map[string]string{
		"missing message": `{"user_id":"alice"}`,
		"empty message":   `{"user_id":"alice","message":""}`,
	} {
		rec := doRequest(t, &stubPipeline{}, http.MethodPost, "/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d", name, rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != "Message is required" {
			t.Errorf("%s: error got %v", name, got)
		}
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	rec := doRequest(t, &stubPipeline{}, http.MethodPost, "/chat", `{"message":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", rec.Code)
	}
}

func TestChatMapsPipelineErrors(t *testing.T) {
	rec := doRequest(t, &stubPipeline{replyErr: errors.New("upstream down")}, http.MethodPost, "/chat", `{"message":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Failed to generate a response." {
		t.Errorf("error: got %v", got)
	}

	rec = doRequest(t, &stubPipeline{replyErr: core.ErrEmptyMessage}, http.MethodPost, "/chat", `{"message":" "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("validation error status: got %d", rec.Code)
	}
}

func TestResetRequiresUserID(t *testing.T) {
	rec := doRequest(t, &stubPipeline{}, http.MethodPost, "/reset", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "User ID is required" {
		t.Errorf("error: got %v", got)
	}
}

func TestResetMessages(t *testing.T) {
	rec := doRequest(t, &stubPipeline{reset: &core.ResetResult{Cleared: true, Count: 3}}, http.MethodPost, "/reset", `{"user_id":"alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["message"]; got != "Chat history cleared!" {
		t.Errorf("message: got %v", got)
	}

	rec = doRequest(t, &stubPipeline{reset: &core.ResetResult{}}, http.MethodPost, "/reset", `{"user_id":"alice"}`)
	if got := decodeBody(t, rec)["message"]; got != "No messages found for this user." {
		t.Errorf("message: got %v", got)
	}
}

func TestResetMapsPipelineErrors(t *testing.T) {
	rec := doRequest(t, &stubPipeline{resetErr: errors.New("store down")}, http.MethodPost, "/reset", `{"user_id":"alice"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Failed to reset chat history." {
		t.Errorf("error: got %v", got)
	}
}
