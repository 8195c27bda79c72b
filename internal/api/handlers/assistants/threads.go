package assistants

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
	"github.com/modelrelay/modelrelay/internal/relay"
	"github.com/modelrelay/modelrelay/internal/store"
	transassistants "github.com/modelrelay/modelrelay/internal/translator/assistants"
)

func threadDocument(th store.Thread) map[string]any {
	metadata := map[string]any{}
	for k, v := range th.Metadata {
		metadata[k] = v
	}
	return map[string]any{
		"id":         th.ID,
		"object":     "thread",
		"created_at": th.CreatedAt.Unix(),
		"metadata":   metadata,
	}
}

func messageDocument(msg store.ThreadMessage) map[string]any {
	metadata := map[string]any{}
	for k, v := range msg.Metadata {
		metadata[k] = v
	}
	return map[string]any{
		"id":           msg.ID,
		"object":       "thread.message",
		"created_at":   msg.CreatedAt.Unix(),
		"thread_id":    msg.ThreadID,
		"role":         string(msg.Role),
		"content":      transassistants.RenderContent(msg.Content),
		"assistant_id": nil,
		"run_id":       nil,
		"metadata":     metadata,
	}
}

func parseMetadata(raw gjson.Result) map[string]string {
	if !raw.IsObject() {
		return nil
	}
	metadata := make(map[string]string)
	raw.ForEach(func(key, value gjson.Result) bool {
		metadata[key.String()] = value.String()
		return true
	})
	return metadata
}

func messageRole(role string) relay.Role {
	if role == "assistant" {
		return relay.RoleAssistant
	}
	return relay.RoleUser
}

// createThreadFromBody registers a new thread, seeding it with any inline
// messages the body carries.
func (h *Handler) createThreadFromBody(body gjson.Result) store.Thread {
	th := h.Store.Threads.Create(h.IDs.ThreadID(), parseMetadata(body.Get("metadata")))
	if messages := body.Get("messages"); messages.IsArray() {
		for _, msg := range messages.Array() {
			content := transassistants.ParseContent(msg.Get("content"))
			h.Store.Threads.AppendMessage(th.ID, messageRole(msg.Get("role").String()), content, parseMetadata(msg.Get("metadata")))
		}
	}
	th, _ = h.Store.Threads.Get(th.ID)
	return th
}

// CreateThread handles POST /v1/threads.
func (h *Handler) CreateThread(c *gin.Context) {
	raw, _ := c.GetRawData()
	th := h.createThreadFromBody(gjson.ParseBytes(raw))
	c.JSON(http.StatusCreated, threadDocument(th))
}

// GetThread handles GET /v1/threads/:id.
func (h *Handler) GetThread(c *gin.Context) {
	th, ok := h.Store.Threads.Get(c.Param("id"))
	if !ok {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errThreadNotFound))
		return
	}
	c.JSON(http.StatusOK, threadDocument(th))
}

// DeleteThread handles DELETE /v1/threads/:id.
func (h *Handler) DeleteThread(c *gin.Context) {
	id := c.Param("id")
	if !h.Store.Threads.Delete(id) {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusNotFound, errThreadNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"object":  "thread.deleted",
		"deleted": true,
	})
}
