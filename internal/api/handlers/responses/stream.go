package responses

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"github.com/modelrelay/modelrelay/internal/api/handlers"
	"github.com/modelrelay/modelrelay/internal/gateway"
)

// streamState is the mutable state threaded through one SSE emission
// sequence. It lives only for the duration of one streaming HTTP response.
type streamState struct {
	responseID string
	messageID  string
	model      string
	seq        int
	envelope   []byte
	text       strings.Builder

	writer  gin.ResponseWriter
	flusher http.Flusher
}

func newStreamState(respID, msgID, model string, writer gin.ResponseWriter, flusher http.Flusher) *streamState {
	return &streamState{
		responseID: respID,
		messageID:  msgID,
		model:      model,
		envelope:   buildBaseEnvelope(respID, model),
		writer:     writer,
		flusher:    flusher,
	}
}

// nextSeq returns the current sequence number and advances it. Numbers are
// strictly increasing by one, starting at zero.
func (s *streamState) nextSeq() int {
	n := s.seq
	s.seq++
	return n
}

// emit writes one named SSE event and flushes immediately: this is a server
// push, never a batch.
func (s *streamState) emit(name string, payload []byte) {
	handlers.WriteSSEEvent(s.writer, name, payload)
	s.flusher.Flush()
}

func (s *streamState) eventBase(name string) []byte {
	payload := []byte(`{}`)
	payload, _ = sjson.SetBytes(payload, "type", name)
	payload, _ = sjson.SetBytes(payload, "sequence_number", s.nextSeq())
	return payload
}

func (s *streamState) emitEnvelopeEvent(name string) {
	payload := s.eventBase(name)
	payload, _ = sjson.SetRawBytes(payload, "response", s.envelope)
	s.emit(name, payload)
}

func (s *streamState) emitOutputItemAdded() {
	payload := s.eventBase("response.output_item.added")
	payload, _ = sjson.SetBytes(payload, "output_index", 0)
	payload, _ = sjson.SetRawBytes(payload, "item", buildMessageItem(s.messageID, "in_progress", ""))
	s.emit("response.output_item.added", payload)
}

func (s *streamState) emitContentPartAdded() {
	payload := s.eventBase("response.content_part.added")
	payload, _ = sjson.SetBytes(payload, "item_id", s.messageID)
	payload, _ = sjson.SetBytes(payload, "output_index", 0)
	payload, _ = sjson.SetBytes(payload, "content_index", 0)
	payload, _ = sjson.SetRawBytes(payload, "part", buildTextPart(""))
	s.emit("response.content_part.added", payload)
}

func (s *streamState) emitDelta(delta string) {
	s.text.WriteString(delta)
	// Keep the envelope's cumulative text current before every emission.
	s.envelope, _ = sjson.SetBytes(s.envelope, "output_text", s.text.String())

	payload := s.eventBase("response.output_text.delta")
	payload, _ = sjson.SetBytes(payload, "item_id", s.messageID)
	payload, _ = sjson.SetBytes(payload, "output_index", 0)
	payload, _ = sjson.SetBytes(payload, "content_index", 0)
	payload, _ = sjson.SetBytes(payload, "delta", delta)
	payload, _ = sjson.SetRawBytes(payload, "logprobs", []byte("[]"))
	s.emit("response.output_text.delta", payload)
}

func (s *streamState) emitTextDone() {
	payload := s.eventBase("response.output_text.done")
	payload, _ = sjson.SetBytes(payload, "item_id", s.messageID)
	payload, _ = sjson.SetBytes(payload, "output_index", 0)
	payload, _ = sjson.SetBytes(payload, "content_index", 0)
	payload, _ = sjson.SetBytes(payload, "text", s.text.String())
	payload, _ = sjson.SetRawBytes(payload, "logprobs", []byte("[]"))
	s.emit("response.output_text.done", payload)
}

func (s *streamState) emitContentPartDone() {
	payload := s.eventBase("response.content_part.done")
	payload, _ = sjson.SetBytes(payload, "item_id", s.messageID)
	payload, _ = sjson.SetBytes(payload, "output_index", 0)
	payload, _ = sjson.SetBytes(payload, "content_index", 0)
	payload, _ = sjson.SetRawBytes(payload, "part", buildTextPart(s.text.String()))
	s.emit("response.content_part.done", payload)
}

func (s *streamState) emitOutputItemDone() {
	payload := s.eventBase("response.output_item.done")
	payload, _ = sjson.SetBytes(payload, "output_index", 0)
	payload, _ = sjson.SetRawBytes(payload, "item", buildMessageItem(s.messageID, "completed", s.text.String()))
	s.emit("response.output_item.done", payload)
}

func (s *streamState) emitCompleted() {
	s.envelope, _ = sjson.SetBytes(s.envelope, "status", "completed")
	s.envelope, _ = sjson.SetRawBytes(s.envelope, "output.0", buildMessageItem(s.messageID, "completed", s.text.String()))
	s.envelope, _ = sjson.SetBytes(s.envelope, "output_text", s.text.String())
	s.emitEnvelopeEvent("response.completed")
	handlers.WriteSSEDone(s.writer)
	s.flusher.Flush()
}

// emitFailed writes the terminal failure event for a stream that already
// sent headers, then the sentinel. The connection is never silently dropped.
func (s *streamState) emitFailed(err error) {
	message := "model invocation failed"
	if err != nil {
		message = err.Error()
	}
	s.envelope, _ = sjson.SetBytes(s.envelope, "status", "failed")
	s.envelope, _ = sjson.SetBytes(s.envelope, "error.message", message)
	s.envelope, _ = sjson.SetBytes(s.envelope, "error.type", "server_error")
	s.emitEnvelopeEvent("response.failed")
	handlers.WriteSSEDone(s.writer)
	s.flusher.Flush()
}

// handleStreamingResponse drives the Responses API SSE event sequence:
// created, in_progress, output_item.added, content_part.added, zero or more
// output_text.delta, output_text.done, content_part.done, output_item.done,
// completed, then the [DONE] sentinel.
func (h *Handler) handleStreamingResponse(c *gin.Context, rawJSON []byte) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusInternalServerError, errStreamingUnsupported))
		return
	}

	model, messages, errMsg := h.prepare(rawJSON)
	if errMsg != nil {
		h.WriteErrorResponse(c, errMsg)
		return
	}

	ctx, cancel := h.RequestContext(c)
	defer cancel()

	// Invocation failure before any bytes are written stays a plain JSON
	// error; no SSE headers have been sent yet.
	chunks, err := h.Invoker.Invoke(ctx, model, messages)
	if err != nil {
		h.WriteErrorResponse(c, handlers.NewErrorMessage(http.StatusInternalServerError, err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	st := newStreamState(h.IDs.ResponseID(), h.IDs.MessageID(), model, c.Writer, flusher)
	st.emitEnvelopeEvent("response.created")
	st.emitEnvelopeEvent("response.in_progress")
	st.emitOutputItemAdded()
	st.emitContentPartAdded()

	for {
		select {
		case <-c.Request.Context().Done():
			// Client went away: cancel the invocation and stop writing.
			cancel()
			return
		case chunk, chunkOK := <-chunks:
			if !chunkOK {
				st.emitTextDone()
				st.emitContentPartDone()
				st.emitOutputItemDone()
				st.emitCompleted()
				return
			}
			switch v := chunk.(type) {
			case gateway.TextChunk:
				if v.Text != "" {
					st.emitDelta(v.Text)
				}
			case gateway.ToolCallNotice:
				log.WithField("tool", v.Name).Debug("skipping tool call notice in stream")
			case gateway.Unrecognized:
				log.WithField("size", len(v.Raw)).Debug("skipping unrecognized stream item")
			case gateway.StreamError:
				st.emitFailed(v.Err)
				return
			}
		}
	}
}

var errStreamingUnsupported = streamingUnsupportedError{}

type streamingUnsupportedError struct{}

func (streamingUnsupportedError) Error() string { return "streaming not supported" }
