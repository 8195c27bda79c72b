package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/gateway"
)

func chunkChannel(chunks ...gateway.Chunk) <-chan gateway.Chunk {
	ch := make(chan gateway.Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestCollectText_Aggregates(t *testing.T) {
	text, errMsg := CollectText(context.Background(), chunkChannel(
		gateway.TextChunk{Text: "Hel"},
		gateway.ToolCallNotice{CallID: "call_1", Name: "lookup"},
		gateway.Unrecognized{Raw: []byte("{}")},
		gateway.TextChunk{Text: "lo"},
	))
	if errMsg != nil {
		t.Fatalf("unexpected error: %v", errMsg.Err)
	}
	if text != "Hello" {
		t.Fatalf("expected %q, got %q", "Hello", text)
	}
}

func TestCollectText_EmptyStreamIsValid(t *testing.T) {
	text, errMsg := CollectText(context.Background(), chunkChannel())
	if errMsg != nil {
		t.Fatalf("empty stream must not fail: %v", errMsg.Err)
	}
	if text != "" {
		t.Fatalf("expected empty string, got %q", text)
	}
}

func TestCollectText_StreamError(t *testing.T) {
	_, errMsg := CollectText(context.Background(), chunkChannel(
		gateway.TextChunk{Text: "partial"},
		gateway.StreamError{StatusCode: http.StatusBadGateway, Err: errors.New("upstream died")},
	))
	if errMsg == nil {
		t.Fatal("expected error message")
	}
	if errMsg.StatusCode != http.StatusBadGateway {
		t.Fatalf("status %d", errMsg.StatusCode)
	}
}

func TestCollectText_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := make(chan gateway.Chunk)
	_, errMsg := CollectText(ctx, ch)
	if errMsg == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestWriteErrorResponse_TypeByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		status   int
		errType  string
		expected string
	}{
		{http.StatusBadRequest, "invalid_request_error", "bad input"},
		{http.StatusNotFound, "not_found_error", "gone"},
		{http.StatusInternalServerError, "server_error", "boom"},
	}
	h := &BaseHandler{}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		h.WriteErrorResponse(c, NewErrorMessage(tc.status, errors.New(tc.expected)))
		if rec.Code != tc.status {
			t.Errorf("status %d, want %d", rec.Code, tc.status)
		}
		body := rec.Body.String()
		if got := gjson.Get(body, "error.type").String(); got != tc.errType {
			t.Errorf("type %q, want %q", got, tc.errType)
		}
		if got := gjson.Get(body, "error.message").String(); got != tc.expected {
			t.Errorf("message %q, want %q", got, tc.expected)
		}
	}
}

func TestWriteErrorResponse_NilMessageDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	(&BaseHandler{}).WriteErrorResponse(c, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
