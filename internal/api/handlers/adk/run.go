// Package adk provides HTTP handlers for the Google ADK run API surface:
// /run, /run_sse, /list-apps, and session management.
package adk

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/logging"
	"github.com/modelrelay/modelrelay/internal/relay"
	"github.com/modelrelay/modelrelay/internal/store"
	transadk "github.com/modelrelay/modelrelay/internal/translator/adk"
)

// eventAuthor labels model-authored ADK events.
const eventAuthor = "assistant"

// Handler serves the ADK API endpoints.
type Handler struct {
	*handlers.BaseHandler
}

// NewHandler creates an ADK handler instance.
func NewHandler(base *handlers.BaseHandler) *Handler {
	return &Handler{BaseHandler: base}
}

// ListApps handles GET /list-apps with the fixed single-app list.
func (h *Handler) ListApps(c *gin.Context) {
	c.JSON(http.StatusOK, []string{h.Cfg.AppName})
}

// writeADKError writes the ADK-style flat error body.
func writeADKError(c *gin.Context, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
	}
	c.JSON(status, gin.H{"error": message})
}

// prepareRun validates the body and assembles the canonical generation input
// from session history plus the new turn. No state is mutated here.
func (h *Handler) prepareRun(rawJSON []byte) (*transadk.RunRequest, store.SessionKey, []relay.Message, string, *handlers.ErrorMessage) {
	req, err := transadk.ParseRunRequest(rawJSON)
	if err != nil {
		return nil, store.SessionKey{}, nil, "", handlers.NewErrorMessage(http.StatusBadRequest, err)
	}
	model, ok := h.Resolver.Resolve("")
	if !ok {
		// ADK reports a missing backend as service-unavailable.
		return nil, store.SessionKey{}, nil, "", handlers.NewErrorMessage(http.StatusServiceUnavailable, gateway.ErrNoModel)
	}

	key := store.SessionKey{AppName: req.AppName, UserID: req.UserID, SessionID: req.SessionID}
	sess := h.Store.Sessions.GetOrCreate(key)

	// Generation input is parsed from history; history itself stays verbatim.
	messages := make([]relay.Message, 0, len(sess.History)+1)
	for _, turn := range sess.History {
		messages = append(messages, transadk.ContentToMessage(gjson.ParseBytes(turn.Content)))
	}
	messages = append(messages, req.Message)
	return req, key, messages, model, nil
}

// newEvent shapes one ADK event document.
func (h *Handler) newEvent(invocationID string, content map[string]any) map[string]any {
	return map[string]any{
		"id":            h.IDs.EventID(),
		"invocation_id": invocationID,
		"timestamp":     float64(time.Now().UnixMilli()) / 1000.0,
		"author":        eventAuthor,
		"content":       content,
	}
}

// appendRunTurns records the user turn (original new_message, verbatim) and
// the model turn as one atomic pair. Only called after a successful
// invocation.
func (h *Handler) appendRunTurns(key store.SessionKey, req *transadk.RunRequest, replyText string) {
	modelContent, err := json.Marshal(transadk.TextContent(replyText))
	if err != nil {
		log.WithField("content", logging.SafeJSON(replyText)).Error("failed to encode model turn")
		return
	}
	h.Store.Sessions.AppendTurns(key,
		store.SessionTurn{Role: "user", Content: req.RawNewMessage},
		store.SessionTurn{Role: "model", Content: modelContent},
	)
}

// Run handles POST /run: aggregate the whole stream into one event.
func (h *Handler) Run(c *gin.Context) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		writeADKError(c, http.StatusBadRequest, err)
		return
	}

	req, key, messages, model, errMsg := h.prepareRun(rawJSON)
	if errMsg != nil {
		writeADKError(c, errMsg.StatusCode, errMsg.Err)
		return
	}

	ctx, cancel := h.RequestContext(c)
	defer cancel()

	chunks, err := h.Invoker.Invoke(ctx, model, messages)
	if err != nil {
		writeADKError(c, http.StatusInternalServerError, err)
		return
	}
	text, errMsg := handlers.CollectText(ctx, chunks)
	if errMsg != nil {
		// A failed invocation must not mutate history.
		writeADKError(c, errMsg.StatusCode, errMsg.Err)
		return
	}

	h.appendRunTurns(key, req, text)
	event := h.newEvent(h.IDs.InvocationID(), transadk.TextContent(text))
	c.JSON(http.StatusOK, []any{event})
}

// RunSSE handles POST /run_sse: one event per chunk, each carrying the full
// cumulative text so far, then the [DONE] sentinel.
func (h *Handler) RunSSE(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeADKError(c, http.StatusInternalServerError, errStreamingUnsupported)
		return
	}

	rawJSON, err := c.GetRawData()
	if err != nil {
		writeADKError(c, http.StatusBadRequest, err)
		return
	}

	req, key, messages, model, errMsg := h.prepareRun(rawJSON)
	if errMsg != nil {
		writeADKError(c, errMsg.StatusCode, errMsg.Err)
		return
	}

	ctx, cancel := h.RequestContext(c)
	defer cancel()

	chunks, err := h.Invoker.Invoke(ctx, model, messages)
	if err != nil {
		writeADKError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	invocationID := h.IDs.InvocationID()
	cumulative := ""
	for {
		select {
		case <-c.Request.Context().Done():
			cancel()
			return
		case chunk, chunkOK := <-chunks:
			if !chunkOK {
				h.appendRunTurns(key, req, cumulative)
				handlers.WriteSSEDone(c.Writer)
				flusher.Flush()
				return
			}
			switch v := chunk.(type) {
			case gateway.TextChunk:
				if v.Text == "" {
					continue
				}
				cumulative += v.Text
				// Each emitted event is self-contained with the full text.
				event := h.newEvent(invocationID, transadk.TextContent(cumulative))
				payload, errMarshal := json.Marshal(event)
				if errMarshal != nil {
					log.WithField("event", logging.SafeJSON(event)).Error("failed to encode stream event")
					continue
				}
				handlers.WriteSSEData(c.Writer, payload)
				flusher.Flush()
			case gateway.ToolCallNotice:
				log.WithField("tool", v.Name).Debug("skipping tool call notice in stream")
			case gateway.Unrecognized:
				log.WithField("size", len(v.Raw)).Debug("skipping unrecognized stream item")
			case gateway.StreamError:
				// History stays untouched; terminate with a well-formed
				// error frame rather than dropping the connection.
				payload, _ := json.Marshal(gin.H{"error": v.Error()})
				handlers.WriteSSEData(c.Writer, payload)
				flusher.Flush()
				return
			}
		}
	}
}

var errStreamingUnsupported = streamingUnsupportedError{}

type streamingUnsupportedError struct{}

func (streamingUnsupportedError) Error() string { return "streaming not supported" }
