// Package responses provides HTTP handlers for the OpenAI Responses API
// surface: /v1/responses with both aggregated JSON and SSE streaming output,
// plus the model listing endpoint.
package responses

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/relay"
	transresponses "github.com/modelrelay/modelrelay/internal/translator/responses"
)

// Handler serves the Responses API endpoints.
type Handler struct {
	*handlers.BaseHandler
}

// NewHandler creates a Responses API handler instance.
func NewHandler(base *handlers.BaseHandler) *Handler {
	return &Handler{BaseHandler: base}
}

// Models handles GET /v1/models.
func (h *Handler) Models(c *gin.Context) {
	models := h.Resolver.Models()
	data := make([]any, 0, len(models))
	created := time.Now().Unix()
	for _, id := range models {
		data = append(data, map[string]any{
			"id":       id,
			"object":   "model",
			"created":  created,
			"owned_by": h.Cfg.AppName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}

// Responses handles POST /v1/responses. Streaming is selected by
// "stream":true or an Accept header asking for text/event-stream.
func (h *Handler) Responses(c *gin.Context) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{
				Message: fmt.Sprintf("Invalid request: %v", err),
				Type:    "invalid_request_error",
			},
		})
		return
	}

	wantsStream := gjson.GetBytes(rawJSON, "stream").Type == gjson.True ||
		strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/event-stream")

	if wantsStream {
		h.handleStreamingResponse(c, rawJSON)
	} else {
		h.handleNonStreamingResponse(c, rawJSON)
	}
}

// prepare validates the body and resolves the model before any invocation.
func (h *Handler) prepare(rawJSON []byte) (string, []relay.Message, *handlers.ErrorMessage) {
	messages, err := transresponses.ParseRequest(rawJSON)
	if err != nil {
		return "", nil, handlers.NewErrorMessage(http.StatusBadRequest, err)
	}
	model, ok := h.Resolver.Resolve(gjson.GetBytes(rawJSON, "model").String())
	if !ok {
		// Responses API reports a missing backend as not-found.
		return "", nil, handlers.NewErrorMessage(http.StatusNotFound, gateway.ErrNoModel)
	}
	return model, messages, nil
}

func (h *Handler) handleNonStreamingResponse(c *gin.Context, rawJSON []byte) {
	model, messages, errMsg := h.prepare(rawJSON)
	if errMsg != nil {
		h.WriteErrorResponse(c, errMsg)
		return
	}

	ctx, cancel := h.RequestContext(c)
	defer cancel()

	chunks, err := h.Invoker.Invoke(ctx, model, messages)
	if err != nil {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusInternalServerError, err))
		return
	}
	text, errMsg := handlers.CollectText(ctx, chunks)
	if errMsg != nil {
		h.WriteErrorResponse(c, errMsg)
		return
	}

	resp := buildFinalResponse(h.IDs.ResponseID(), h.IDs.MessageID(), model, text)
	if h.Cfg.RequestLog {
		log.WithField("bytes", len(resp)).Debug("responses api aggregated reply")
	}
	c.Data(http.StatusOK, "application/json", resp)
}

// buildFinalResponse renders the completed response envelope with one
// assistant message item. Usage is always reported as zero.
func buildFinalResponse(respID, msgID, model, text string) []byte {
	resp := buildBaseEnvelope(respID, model)
	resp, _ = sjson.SetBytes(resp, "status", "completed")
	resp, _ = sjson.SetRawBytes(resp, "output.0", buildMessageItem(msgID, "completed", text))
	resp, _ = sjson.SetBytes(resp, "output_text", text)
	return resp
}

// buildBaseEnvelope renders the mutable base response object in status
// in_progress with empty output.
func buildBaseEnvelope(respID, model string) []byte {
	envelope := []byte(`{"id":"","object":"response","created_at":0,"status":"in_progress","error":null,"model":"","output":[],"output_text":"","usage":{"input_tokens":0,"output_tokens":0,"total_tokens":0}}`)
	envelope, _ = sjson.SetBytes(envelope, "id", respID)
	envelope, _ = sjson.SetBytes(envelope, "created_at", time.Now().Unix())
	envelope, _ = sjson.SetBytes(envelope, "model", model)
	return envelope
}

// buildMessageItem renders one assistant message output item.
func buildMessageItem(msgID, status, text string) []byte {
	item := []byte(`{"id":"","type":"message","status":"","role":"assistant","content":[]}`)
	item, _ = sjson.SetBytes(item, "id", msgID)
	item, _ = sjson.SetBytes(item, "status", status)
	if status == "completed" {
		item, _ = sjson.SetRawBytes(item, "content.0", buildTextPart(text))
	}
	return item
}

// buildTextPart renders one output_text content part.
func buildTextPart(text string) []byte {
	part := []byte(`{"type":"output_text","annotations":[],"logprobs":[],"text":""}`)
	part, _ = sjson.SetBytes(part, "text", text)
	return part
}
