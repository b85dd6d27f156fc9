package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dgp-ops/askdgp/internal/retrieve"
	"github.com/dgp-ops/askdgp/session"
)

// ChatHandler exposes the conversational API: query/response cycles, resets,
// ticket logging and suggested topics.
type ChatHandler struct {
	Server *Server
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	g.POST("/chat", h.chat)
	g.POST("/chat/reset", h.reset)
	g.GET("/chat/:id/messages", h.messages)
	g.POST("/tickets", h.logTicket)
	g.GET("/topics/suggested", h.suggested)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Stage     string `json:"stage"`
}

// chat runs one synchronous query/response cycle. The session lock keeps
// exactly one query in flight per session.
func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	ctx := c.Request().Context()
	sess, err := h.Server.Sessions.Ensure(ctx, req.SessionID, h.Server.Config.Server.SessionTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sess.Lock()
	start := time.Now()
	resp := h.Server.Engine.Answer(ctx, sess, h.Server.Snapshot(), req.Message)
	composeDuration.Observe(time.Since(start).Seconds())
	sess.Unlock()

	observeQuery(resp.Stage)
	if resp.Err != nil {
		composerFailures.Inc()
	}
	if err := h.Server.Sessions.Save(ctx, sess, h.Server.Config.Server.SessionTTL); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, chatResponse{
		SessionID: sess.ID,
		Message:   resp.Message,
		Category:  resp.Category.Label(),
		Stage:     resp.Stage.String(),
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// reset truncates the session back to the seeded greeting.
func (h *ChatHandler) reset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	sess, err := h.sessionByID(c, req.SessionID)
	if err != nil {
		return err
	}

	sess.Lock()
	sess.Reset()
	sess.Unlock()

	if err := h.Server.Sessions.Save(ctx, sess, h.Server.Config.Server.SessionTTL); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"messages":   sess.Messages,
	})
}

func (h *ChatHandler) messages(c echo.Context) error {
	sess, err := h.sessionByID(c, c.Param("id"))
	if err != nil {
		return err
	}
	sess.Lock()
	msgs := append([]session.Message(nil), sess.Messages...)
	sess.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sess.ID,
		"messages":   msgs,
	})
}

type ticketRequest struct {
	SessionID string `json:"session_id"`
}

// logTicket builds and returns the structured ticket summary. The session is
// otherwise unchanged; nothing is persisted beyond the displayed summary.
func (h *ChatHandler) logTicket(c echo.Context) error {
	var req ticketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.sessionByID(c, req.SessionID)
	if err != nil {
		return err
	}

	sess.Lock()
	summary := h.Server.Engine.LogTicket(sess)
	sess.Unlock()

	ticketsLogged.Inc()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":   sess.ID,
		"sub_category": summary.SubCategory,
		"subject":      summary.Subject,
		"date_time":    summary.DateTime,
		"details":      summary.Details,
		"summary":      summary.String(),
	})
}

func (h *ChatHandler) suggested(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Server.Suggestions())
}

func (h *ChatHandler) sessionByID(c echo.Context, id string) (*session.Session, error) {
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "session_id required")
	}
	sess, err := h.Server.Sessions.Get(c.Request().Context(), id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return sess, nil
}

func observeQuery(stage retrieve.Stage) {
	queriesTotal.Inc()
	switch stage {
	case retrieve.StageExact:
		exactHits.Inc()
	case retrieve.StageFuzzy:
		fuzzyFallbacks.Inc()
	default:
		emptyRetrievals.Inc()
	}
}
