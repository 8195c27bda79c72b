package assistants

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/relay"
)

func runDocument(runID, threadID, assistantID, model string, createdAt, startedAt, completedAt time.Time) map[string]any {
	return map[string]any{
		"id":           runID,
		"object":       "thread.run",
		"created_at":   createdAt.Unix(),
		"thread_id":    threadID,
		"assistant_id": assistantID,
		"status":       "completed",
		"started_at":   startedAt.Unix(),
		"completed_at": completedAt.Unix(),
		"model":        model,
		"tools":        []any{},
		"metadata":     map[string]any{},
	}
}

// executeRun runs the backend synchronously against the thread's accumulated
// messages, appends the assistant reply to the thread, and returns the
// completed run document. The thread is the history; there is no separate
// session concept.
func (h *Handler) executeRun(c *gin.Context, threadID, assistantID, preferredModel string) (map[string]any, *handlers.ErrorMessage) {
	th, ok := h.Store.Threads.Get(threadID)
	if !ok {
		return nil, handlers.NewErrorMessage(http.StatusNotFound, errThreadNotFound)
	}
	model, ok := h.Resolver.Resolve(preferredModel)
	if !ok {
		return nil, handlers.NewErrorMessage(http.StatusServiceUnavailable, gateway.ErrNoModel)
	}

	messages := make([]relay.Message, 0, len(th.Messages))
	for _, msg := range th.Messages {
		messages = append(messages, relay.Message{Role: msg.Role, Parts: msg.Content})
	}

	ctx, cancel := h.RequestContext(c)
	defer cancel()

	createdAt := time.Now()
	startedAt := time.Now()
	chunks, err := h.Invoker.Invoke(ctx, model, messages)
	if err != nil {
		return nil, handlers.NewErrorMessage(http.StatusInternalServerError, err)
	}
	text, errMsg := handlers.CollectText(ctx, chunks)
	if errMsg != nil {
		// Failed invocation: the thread is left untouched.
		return nil, errMsg
	}
	completedAt := time.Now()

	if _, ok = h.Store.Threads.AppendMessage(threadID, relay.RoleAssistant, []relay.Part{relay.TextPart{Text: text}}, nil); !ok {
		// Thread deleted mid-run; report the reply anyway.
		log.WithField("thread_id", threadID).Warn("thread disappeared during run")
	}

	return runDocument(h.IDs.RunID(), threadID, assistantID, model, createdAt, startedAt, completedAt), nil
}

// CreateRun handles POST /v1/threads/:id/runs.
func (h *Handler) CreateRun(c *gin.Context) {
	raw, _ := c.GetRawData()
	body := gjson.ParseBytes(raw)
	assistantID := body.Get("assistant_id").String()
	if assistantID == "" {
		assistantID = DefaultAssistantID
	}

	run, errMsg := h.executeRun(c, c.Param("id"), assistantID, body.Get("model").String())
	if errMsg != nil {
		h.WriteErrorResponse(c, errMsg)
		return
	}
	c.JSON(http.StatusOK, run)
}

// CreateThreadAndRun handles POST /v1/threads/runs: thread creation
// (optionally pre-seeded with inline messages) followed immediately by the
// same run procedure, as one logical operation.
func (h *Handler) CreateThreadAndRun(c *gin.Context) {
	raw, _ := c.GetRawData()
	body := gjson.ParseBytes(raw)
	assistantID := body.Get("assistant_id").String()
	if assistantID == "" {
		assistantID = DefaultAssistantID
	}

	th := h.createThreadFromBody(body.Get("thread"))
	run, errMsg := h.executeRun(c, th.ID, assistantID, body.Get("model").String())
	if errMsg != nil {
		h.WriteErrorResponse(c, errMsg)
		return
	}
	c.JSON(http.StatusOK, run)
}
