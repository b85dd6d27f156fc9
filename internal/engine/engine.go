// Package engine drives one query/response cycle end to end: classification,
// retrieval, composition and session mutation.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/dgp-ops/askdgp/internal/classify"
	"github.com/dgp-ops/askdgp/internal/record"
	"github.com/dgp-ops/askdgp/internal/retrieve"
	"github.com/dgp-ops/askdgp/provider"
	"github.com/dgp-ops/askdgp/session"
)

// TimestampLayout is the local-time format used on replies and ticket
// summaries.
const TimestampLayout = "2006-01-02 15:04:05"

const subjectMaxLen = 120

// Engine wires the classifier, retriever and composer together. It owns a
// session only for the duration of one query-response cycle; callers hold the
// session lock around each call.
type Engine struct {
	Provider     provider.Provider
	Retriever    *retrieve.Retriever
	ContextTurns int
	Location     *time.Location
	Logger       *log.Logger

	now func() time.Time
}

func New(p provider.Provider, r *retrieve.Retriever, loc *time.Location, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		Provider:     p,
		Retriever:    r,
		ContextTurns: session.DefaultContextTurns,
		Location:     loc,
		Logger:       logger,
		now:          time.Now,
	}
}

// Response is the outcome of one query/response cycle. Err carries the
// composer failure when Message is an error-describing turn; the turn is
// still part of the conversation.
type Response struct {
	Message  string
	Category classify.Category
	Stage    retrieve.Stage
	Err      error
}

// Answer processes one user query synchronously: it appends the user turn,
// classifies and retrieves, composes a reply and appends it as the assistant
// turn. A composer failure becomes an error-describing assistant turn; the
// user always receives a turn in response to their input.
func (e *Engine) Answer(ctx context.Context, sess *session.Session, tbl *record.Table, query string) Response {
	sess.AppendUser(query)

	category := classify.Classify(query, "")
	result := e.Retriever.Retrieve(query, tbl)
	if result.Empty() {
		e.Logger.Printf("no candidates for query %q, composing with no-information marker", query)
	}

	in := provider.ComposeInput{
		Query:         query,
		Conversation:  sess.Context(e.ContextTurns),
		Candidates:    result.Candidates,
		NoInformation: result.Empty(),
		Category:      category.Label(),
		LastResponse:  sess.LastResponse,
		Timestamp:     e.now().In(e.Location).Format(TimestampLayout),
	}

	msg, err := e.Provider.Compose(ctx, in)
	if err != nil {
		e.Logger.Printf("composer failure: %v", err)
		msg = fmt.Sprintf("An error occurred: %v", err)
	}
	sess.AppendAssistant(msg)

	return Response{Message: msg, Category: category, Stage: result.Stage, Err: err}
}

// TicketSummary is the structured summary displayed when the user escalates.
// It is additive only: building it never removes or mutates prior turns, and
// nothing is persisted beyond the displayed summary.
type TicketSummary struct {
	SubCategory string            `json:"sub_category"`
	Subject     string            `json:"subject"`
	DateTime    string            `json:"date_time"`
	Details     []session.Message `json:"details"`
}

// String renders the four numbered summary fields.
func (t TicketSummary) String() string {
	var b strings.Builder
	b.WriteString("**Summary**\n")
	fmt.Fprintf(&b, "1) Sub Category : %s\n", t.SubCategory)
	fmt.Fprintf(&b, "2) Subject : %s\n", t.Subject)
	fmt.Fprintf(&b, "3) Date/Time : %s\n", t.DateTime)
	b.WriteString("4) Details of Query :\n")
	for _, m := range t.Details {
		fmt.Fprintf(&b, "    - %s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

// LogTicket builds a ticket summary from session history. The category comes
// from the last user turn, with the turn three back as a suggested-topic
// hint; the subject is a one-line digest of all user turns.
func (e *Engine) LogTicket(sess *session.Session) TicketSummary {
	category := classify.Classify(sess.LastUserTurn(), sess.FAQHint())
	return TicketSummary{
		SubCategory: category.Label(),
		Subject:     subjectLine(sess.UserTurns()),
		DateTime:    e.now().In(e.Location).Format(TimestampLayout),
		Details:     append([]session.Message(nil), sess.Messages...),
	}
}

// subjectLine flattens all user turns into a single bounded line.
func subjectLine(turns []string) string {
	joined := strings.Join(turns, "; ")
	joined = strings.Join(strings.Fields(joined), " ")
	if joined == "" {
		return "(no query entered)"
	}
	if runes := []rune(joined); len(runes) > subjectMaxLen {
		joined = string(runes[:subjectMaxLen-3]) + "..."
	}
	return joined
}
