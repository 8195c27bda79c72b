package adk

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/store"
)

// sessionDocument renders one session with its full event history in ADK
// content form.
func sessionDocument(sess store.Session) map[string]any {
	events := make([]any, 0, len(sess.History))
	for _, turn := range sess.History {
		events = append(events, map[string]any{
			"role":    turn.Role,
			"content": gjson.ParseBytes(turn.Content).Value(),
		})
	}
	return map[string]any{
		"id":         sess.ID,
		"app_name":   sess.AppName,
		"user_id":    sess.UserID,
		"created_at": sess.CreatedAt.Unix(),
		"events":     events,
	}
}

// ListSessions handles GET /apps/:app/users/:user/sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	summaries := h.Store.Sessions.ListBy(c.Param("app"), c.Param("user"))
	out := make([]any, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, map[string]any{
			"id":         s.ID,
			"app_name":   s.AppName,
			"user_id":    s.UserID,
			"created_at": s.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateSession handles POST /apps/:app/users/:user/sessions. The body may
// carry a preferred session id; otherwise one is allocated.
func (h *Handler) CreateSession(c *gin.Context) {
	sessionID := ""
	if raw, err := c.GetRawData(); err == nil && len(raw) > 0 {
		sessionID = gjson.GetBytes(raw, "id").String()
	}
	if sessionID == "" {
		sessionID = h.IDs.SessionID()
	}
	sess := h.Store.Sessions.Create(c.Param("app"), c.Param("user"), sessionID)
	c.JSON(http.StatusCreated, sessionDocument(sess))
}

// GetSession handles GET /apps/:app/users/:user/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	key := store.SessionKey{AppName: c.Param("app"), UserID: c.Param("user"), SessionID: c.Param("id")}
	sess, ok := h.Store.Sessions.Get(key)
	if !ok {
		writeADKError(c, http.StatusNotFound, errSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, sessionDocument(sess))
}

// DeleteSession handles DELETE /apps/:app/users/:user/sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	key := store.SessionKey{AppName: c.Param("app"), UserID: c.Param("user"), SessionID: c.Param("id")}
	if !h.Store.Sessions.Delete(key) {
		writeADKError(c, http.StatusNotFound, errSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

var errSessionNotFound = sessionNotFoundError{}

type sessionNotFoundError struct{}

func (sessionNotFoundError) Error() string { return "session not found" }
