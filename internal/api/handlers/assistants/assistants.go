// Package assistants provides HTTP handlers for the OpenAI Assistants API
// surface: the fixed virtual assistant, thread and message CRUD, and
// synchronous runs.
package assistants

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
)

// DefaultAssistantID is the id of the single virtual assistant this gateway
// exposes.
const DefaultAssistantID = "asst_default"

// Handler serves the Assistants API endpoints.
type Handler struct {
	*handlers.BaseHandler
	startedAt time.Time
}

// NewHandler creates an Assistants API handler instance.
func NewHandler(base *handlers.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, startedAt: time.Now()}
}

func (h *Handler) assistantDocument() map[string]any {
	model := ""
	if resolved, ok := h.Resolver.Resolve(""); ok {
		model = resolved
	}
	return map[string]any{
		"id":           DefaultAssistantID,
		"object":       "assistant",
		"created_at":   h.startedAt.Unix(),
		"name":         h.Cfg.AppName,
		"description":  nil,
		"model":        model,
		"instructions": nil,
		"tools":        []any{},
		"metadata":     map[string]any{},
	}
}

// ListAssistants handles GET /v1/assistants.
func (h *Handler) ListAssistants(c *gin.Context) {
	doc := h.assistantDocument()
	c.JSON(http.StatusOK, gin.H{
		"object":   "list",
		"data":     []any{doc},
		"first_id": DefaultAssistantID,
		"last_id":  DefaultAssistantID,
		"has_more": false,
	})
}

// GetAssistant handles GET /v1/assistants/:id.
func (h *Handler) GetAssistant(c *gin.Context) {
	if c.Param("id") != DefaultAssistantID {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errAssistantNotFound))
		return
	}
	c.JSON(http.StatusOK, h.assistantDocument())
}

var errAssistantNotFound = notFoundError("assistant not found")
var errThreadNotFound = notFoundError("thread not found")
var errMessageNotFound = notFoundError("message not found")

type notFoundError string

func (e notFoundError) Error() string { return string(e) }
