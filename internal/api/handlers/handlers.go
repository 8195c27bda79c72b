// Package handlers provides the shared plumbing for all protocol handler
// families: the error envelope, request-scoped cancellation, and consumption
// of the model invocation stream.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/ids"
	"github.com/modelrelay/modelrelay/internal/store"
)

// ErrorResponse represents a standard error response format for the API.
type ErrorResponse struct {
	// Error contains detailed information about the error that occurred.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail provides specific information about an error that occurred.
type ErrorDetail struct {
	// Message is a human-readable message providing more details about the error.
	Message string `json:"message"`

	// Type is the category of error that occurred (e.g., "invalid_request_error").
	Type string `json:"type"`

	// Code is a short code identifying the error, if applicable.
	Code string `json:"code,omitempty"`
}

// ErrorMessage carries a failure from the execution layer to the handler
// boundary together with the HTTP status it maps to.
type ErrorMessage struct {
	StatusCode int
	Err        error
}

// NewErrorMessage wraps err with a status code.
func NewErrorMessage(status int, err error) *ErrorMessage {
	return &ErrorMessage{StatusCode: status, Err: err}
}

// BaseHandler bundles the collaborators every protocol handler family needs.
type BaseHandler struct {
	Cfg      *config.Config
	Invoker  gateway.Invoker
	Resolver gateway.Resolver
	Store    *store.Store
	IDs      *ids.Allocator
}

// NewBaseHandler creates the shared handler state.
func NewBaseHandler(cfg *config.Config, invoker gateway.Invoker, resolver gateway.Resolver, st *store.Store) *BaseHandler {
	return &BaseHandler{
		Cfg:      cfg,
		Invoker:  invoker,
		Resolver: resolver,
		Store:    st,
		IDs:      ids.NewAllocator(),
	}
}

// RequestContext derives a cancellable context for one model invocation. The
// context is cancelled when the client socket closes; the returned cancel
// function must run on every handler exit path.
func (h *BaseHandler) RequestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(c.Request.Context())
}

// WriteErrorResponse writes the OpenAI-style JSON error envelope using the
// status embedded in the message.
func (h *BaseHandler) WriteErrorResponse(c *gin.Context, msg *ErrorMessage) {
	status := http.StatusInternalServerError
	if msg != nil && msg.StatusCode > 0 {
		status = msg.StatusCode
	}

	message := http.StatusText(status)
	if msg != nil && msg.Err != nil {
		if s := strings.TrimSpace(msg.Err.Error()); s != "" {
			message = s
		}
	}

	errType := "invalid_request_error"
	switch {
	case status == http.StatusNotFound:
		errType = "not_found_error"
	case status >= http.StatusInternalServerError:
		errType = "server_error"
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
		},
	})
}

// CollectText drains an invocation stream into one aggregated string. Tool
// call notices and unrecognized items are skipped; a StreamError terminates
// collection and is surfaced to the caller. Zero collected fragments is a
// valid empty response, not a failure.
func CollectText(ctx context.Context, chunks <-chan gateway.Chunk) (string, *ErrorMessage) {
	var b strings.Builder
	textFragments := 0
	for {
		select {
		case <-ctx.Done():
			return b.String(), NewErrorMessage(http.StatusInternalServerError, ctx.Err())
		case chunk, ok := <-chunks:
			if !ok {
				if textFragments == 0 {
					log.Warn("model stream produced no text fragments")
				}
				log.WithField("fragments", textFragments).Debug("model stream complete")
				return b.String(), nil
			}
			switch v := chunk.(type) {
			case gateway.TextChunk:
				textFragments++
				b.WriteString(v.Text)
			case gateway.ToolCallNotice:
				log.WithField("tool", v.Name).Debug("skipping tool call notice")
			case gateway.Unrecognized:
				log.WithField("size", len(v.Raw)).Debug("skipping unrecognized stream item")
			case gateway.StreamError:
				status := v.StatusCode
				if status <= 0 {
					status = http.StatusInternalServerError
				}
				return b.String(), NewErrorMessage(status, v.Err)
			}
		}
	}
}
