package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/relay"
)

type fakeInvoker struct {
	chunks []gateway.Chunk
}

func (f *fakeInvoker) Invoke(ctx context.Context, model string, messages []relay.Message) (<-chan gateway.Chunk, error) {
	out := make(chan gateway.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func newTestServer(chunks ...gateway.Chunk) *Server {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return New(cfg, &fakeInvoker{chunks: chunks}, gateway.NewStaticResolver([]string{"gpt-4o"}))
}

func (s *Server) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthAlwaysOK(t *testing.T) {
	s := newTestServer()
	rec := s.request(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gjson.Get(rec.Body.String(), "status").String() != "ok" {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestAllSurfacesRouted(t *testing.T) {
	s := newTestServer(gateway.TextChunk{Text: "hi"})
	paths := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/v1/models", "", http.StatusOK},
		{http.MethodPost, "/v1/responses", `{"input":"hello"}`, http.StatusOK},
		{http.MethodGet, "/list-apps", "", http.StatusOK},
		{http.MethodPost, "/run", `{"app_name":"a","user_id":"u","session_id":"s","new_message":{"role":"user","parts":[{"text":"x"}]}}`, http.StatusOK},
		{http.MethodPost, "/apps/a/users/u/sessions", "", http.StatusCreated},
		{http.MethodGet, "/apps/a/users/u/sessions", "", http.StatusOK},
		{http.MethodGet, "/v1/assistants", "", http.StatusOK},
		{http.MethodPost, "/v1/threads", `{}`, http.StatusCreated},
	}
	for _, tc := range paths {
		rec := s.request(tc.method, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Errorf("%s %s: status %d want %d (%s)", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/v1/responses", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("missing CORS header")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer()
	rec := s.request(http.MethodGet, "/v2/nothing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}
