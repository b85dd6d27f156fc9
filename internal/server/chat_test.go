package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dgp-ops/askdgp/config"
	"github.com/dgp-ops/askdgp/internal/engine"
	"github.com/dgp-ops/askdgp/internal/record"
	"github.com/dgp-ops/askdgp/internal/retrieve"
	"github.com/dgp-ops/askdgp/internal/topics"
	"github.com/dgp-ops/askdgp/provider"
	"github.com/dgp-ops/askdgp/session"
	"github.com/dgp-ops/askdgp/session/inmemory"
)

type cannedProvider struct{ reply string }

func (p cannedProvider) Compose(ctx context.Context, in provider.ComposeInput) (string, error) {
	return p.reply, nil
}

func (p cannedProvider) TopicQuestion(ctx context.Context, label string) (string, error) {
	return "What is " + label + "?", nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.New(cannedProvider{reply: "canned answer"}, retrieve.New(retrieve.NewTokenSortScorer()), time.UTC, nil)
	srv := &Server{
		Config: &config.Config{
			Server: config.ServerConfig{SessionTTL: time.Hour},
		},
		Engine:   eng,
		Sessions: inmemory.NewStore(),
		Logger:   log.New(io.Discard, "", 0),
	}
	srv.snapshot.Store(&record.Table{Records: []record.Record{
		{Subject: "Billing", QueryDetails: "billing for subscription", Reply: "see circular", AdditionalComments: "closed"},
	}})
	sugg := []topics.Suggestion{{Label: "Billing", Question: "What is Billing?"}}
	srv.suggestions.Store(&sugg)
	return srv
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestChatCreatesSessionAndAnswers(t *testing.T) {
	t.Parallel()
	h := &ChatHandler{Server: testServer(t)}
	e := echo.New()

	req, rec := postJSON("/api/chat", `{"message":"billing for subscription"}`)
	if err := h.chat(e.NewContext(req, rec)); err != nil {
		t.Fatalf("chat: %v", err)
	}
	var resp chatResponse
	decodeBody(t, rec, &resp)
	if resp.SessionID == "" {
		t.Fatal("expected a fresh session id")
	}
	if resp.Message != "canned answer" {
		t.Fatalf("message = %q", resp.Message)
	}
	if resp.Stage != "exact" {
		t.Fatalf("stage = %q", resp.Stage)
	}
	if !strings.Contains(resp.Category, "Advisories") {
		t.Fatalf("category = %q", resp.Category)
	}

	// A second turn on the same session grows the shared history.
	req2, rec2 := postJSON("/api/chat", `{"session_id":"`+resp.SessionID+`","message":"thanks"}`)
	if err := h.chat(e.NewContext(req2, rec2)); err != nil {
		t.Fatalf("second chat: %v", err)
	}
	sess, err := h.Server.Sessions.Get(context.Background(), resp.SessionID)
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v", err)
	}
	// greeting + two user/assistant pairs
	if len(sess.Messages) != 5 {
		t.Fatalf("history has %d messages, want 5", len(sess.Messages))
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	t.Parallel()
	h := &ChatHandler{Server: testServer(t)}
	e := echo.New()

	req, rec := postJSON("/api/chat", `{"message":""}`)
	err := h.chat(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestResetRestoresGreeting(t *testing.T) {
	t.Parallel()
	srv := testServer(t)
	h := &ChatHandler{Server: srv}
	e := echo.New()

	sess, err := srv.Sessions.Ensure(context.Background(), "", time.Hour)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	sess.AppendUser("hello")
	sess.AppendAssistant("hi")

	req, rec := postJSON("/api/chat/reset", `{"session_id":"`+sess.ID+`"}`)
	if err := h.reset(e.NewContext(req, rec)); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(sess.Messages) != 1 || sess.Messages[0].Content != session.Greeting {
		t.Fatalf("history after reset: %+v", sess.Messages)
	}
	if len(sess.QueryCounter) != 0 {
		t.Fatal("counters must be zeroed on reset")
	}
}

func TestResetUnknownSession(t *testing.T) {
	t.Parallel()
	h := &ChatHandler{Server: testServer(t)}
	e := echo.New()

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "missing id", body: `{}`, code: http.StatusBadRequest},
		{name: "unknown id", body: `{"session_id":"nope"}`, code: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := postJSON("/api/chat/reset", tt.body)
			err := h.reset(e.NewContext(req, rec))
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tt.code {
				t.Fatalf("expected %d, got %v", tt.code, err)
			}
		})
	}
}

func TestMessagesReturnsHistory(t *testing.T) {
	t.Parallel()
	srv := testServer(t)
	h := &ChatHandler{Server: srv}
	e := echo.New()

	sess, err := srv.Sessions.Ensure(context.Background(), "", time.Hour)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	sess.AppendUser("hello")

	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+sess.ID+"/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(sess.ID)

	if err := h.messages(c); err != nil {
		t.Fatalf("messages: %v", err)
	}
	var resp struct {
		SessionID string            `json:"session_id"`
		Messages  []session.Message `json:"messages"`
	}
	decodeBody(t, rec, &resp)
	if resp.SessionID != sess.ID {
		t.Fatalf("session_id = %q", resp.SessionID)
	}
	if len(resp.Messages) != 2 || resp.Messages[1].Content != "hello" {
		t.Fatalf("messages = %+v", resp.Messages)
	}
}

func TestLogTicketEndpoint(t *testing.T) {
	t.Parallel()
	srv := testServer(t)
	h := &ChatHandler{Server: srv}
	e := echo.New()

	sess, err := srv.Sessions.Ensure(context.Background(), "", time.Hour)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	sess.AppendUser("problem with supplier contract")
	sess.AppendAssistant("canned answer")
	before := len(sess.Messages)

	req, rec := postJSON("/api/tickets", `{"session_id":"`+sess.ID+`"}`)
	if err := h.logTicket(e.NewContext(req, rec)); err != nil {
		t.Fatalf("logTicket: %v", err)
	}
	var resp struct {
		SubCategory string            `json:"sub_category"`
		Subject     string            `json:"subject"`
		DateTime    string            `json:"date_time"`
		Details     []session.Message `json:"details"`
		Summary     string            `json:"summary"`
	}
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.SubCategory, "Supplier Management") {
		t.Fatalf("sub_category = %q", resp.SubCategory)
	}
	if resp.Subject != "problem with supplier contract" {
		t.Fatalf("subject = %q", resp.Subject)
	}
	if _, err := time.Parse(engine.TimestampLayout, resp.DateTime); err != nil {
		t.Fatalf("date_time %q: %v", resp.DateTime, err)
	}
	if len(resp.Details) != before {
		t.Fatalf("details carries %d messages, want the full history of %d", len(resp.Details), before)
	}
	if !strings.Contains(resp.Summary, "**Summary**") {
		t.Fatalf("summary = %q", resp.Summary)
	}
	if len(sess.Messages) != before {
		t.Fatal("logging a ticket must not mutate the session")
	}
}

func TestSuggestedTopics(t *testing.T) {
	t.Parallel()
	h := &ChatHandler{Server: testServer(t)}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/topics/suggested", nil)
	rec := httptest.NewRecorder()
	if err := h.suggested(e.NewContext(req, rec)); err != nil {
		t.Fatalf("suggested: %v", err)
	}
	var resp []topics.Suggestion
	decodeBody(t, rec, &resp)
	if len(resp) != 1 || resp[0].Question != "What is Billing?" {
		t.Fatalf("suggestions = %+v", resp)
	}
}
