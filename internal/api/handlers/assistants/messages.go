package assistants

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
	transassistants "github.com/modelrelay/modelrelay/internal/translator/assistants"
)

// CreateMessage handles POST /v1/threads/:id/messages (append-only).
func (h *Handler) CreateMessage(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusBadRequest, err))
		return
	}
	body := gjson.ParseBytes(raw)
	content := body.Get("content")
	if !content.Exists() {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusBadRequest, missingFieldError("content")))
		return
	}

	parts := transassistants.ParseContent(content)
	msg, ok := h.Store.Threads.AppendMessage(c.Param("id"), messageRole(body.Get("role").String()), parts, parseMetadata(body.Get("metadata")))
	if !ok {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errThreadNotFound))
		return
	}
	c.JSON(http.StatusCreated, messageDocument(msg))
}

// ListMessages handles GET /v1/threads/:id/messages.
func (h *Handler) ListMessages(c *gin.Context) {
	th, ok := h.Store.Threads.Get(c.Param("id"))
	if !ok {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errThreadNotFound))
		return
	}
	data := make([]any, 0, len(th.Messages))
	for _, msg := range th.Messages {
		data = append(data, messageDocument(msg))
	}
	out := gin.H{
		"object":   "list",
		"data":     data,
		"has_more": false,
	}
	if len(th.Messages) > 0 {
		out["first_id"] = th.Messages[0].ID
		out["last_id"] = th.Messages[len(th.Messages)-1].ID
	}
	c.JSON(http.StatusOK, out)
}

// GetMessage handles GET /v1/threads/:id/messages/:mid.
func (h *Handler) GetMessage(c *gin.Context) {
	msg, ok := h.Store.Threads.GetMessage(c.Param("id"), c.Param("mid"))
	if !ok {
		if _, exists := h.Store.Threads.Get(c.Param("id")); !exists {
			h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errThreadNotFound))
			return
		}
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errMessageNotFound))
		return
	}
	c.JSON(http.StatusOK, messageDocument(msg))
}

type missingFieldError string

func (e missingFieldError) Error() string { return "missing required field: " + string(e) }
