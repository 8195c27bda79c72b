package adk

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/relay"
)

func TestParseRunRequest_NamesFirstMissingField(t *testing.T) {
	cases := []struct {
		body  string
		field string
	}{
		{`{}`, "app_name"},
		{`{"app_name":"demo"}`, "user_id"},
		{`{"app_name":"demo","user_id":"u1"}`, "session_id"},
		{`{"app_name":"demo","user_id":"u1","session_id":"s1"}`, "new_message"},
		{`{"app_name":42,"user_id":"u1","session_id":"s1","new_message":{}}`, "app_name"},
		{`{"app_name":"demo","user_id":"u1","session_id":"s1","new_message":"nope"}`, "new_message"},
	}
	for _, tc := range cases {
		_, err := ParseRunRequest([]byte(tc.body))
		if err == nil {
			t.Errorf("body %s: expected error", tc.body)
			continue
		}
		if !strings.Contains(err.Error(), tc.field) {
			t.Errorf("body %s: error %q does not name field %q", tc.body, err, tc.field)
		}
	}
}

func TestParseRunRequest_Valid(t *testing.T) {
	body := `{"app_name":"demo","user_id":"u1","session_id":"s1","streaming":true,
		"new_message":{"role":"user","parts":[{"text":"Hello"}]}}`
	req, err := ParseRunRequest([]byte(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if req.AppName != "demo" || req.UserID != "u1" || req.SessionID != "s1" {
		t.Fatalf("routing fields wrong: %+v", req)
	}
	if !req.Streaming {
		t.Fatal("streaming flag lost")
	}
	if req.Message.Text() != "Hello" {
		t.Fatalf("unexpected message text %q", req.Message.Text())
	}
	if gjson.GetBytes(req.RawNewMessage, "parts.0.text").String() != "Hello" {
		t.Fatalf("raw new_message not preserved verbatim: %s", req.RawNewMessage)
	}
}

func TestContentToMessage_Roles(t *testing.T) {
	model := ContentToMessage(gjson.Parse(`{"role":"model","parts":[{"text":"x"}]}`))
	if model.Role != relay.RoleAssistant {
		t.Fatalf("model role should map to assistant, got %q", model.Role)
	}
	user := ContentToMessage(gjson.Parse(`{"role":"user","parts":[{"text":"x"}]}`))
	if user.Role != relay.RoleUser {
		t.Fatalf("user role should map to user, got %q", user.Role)
	}
}

func TestContentToMessage_InlineImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	msg := ContentToMessage(gjson.Parse(`{"role":"user","parts":[{"data":{"data":"` + payload + `","mime_type":"image/png"}}]}`))
	if len(msg.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(msg.Parts))
	}
	img, ok := msg.Parts[0].(relay.ImagePart)
	if !ok {
		t.Fatalf("expected image part, got %T", msg.Parts[0])
	}
	if img.MimeType != "image/png" || len(img.Data) != 3 {
		t.Fatalf("unexpected image part: %+v", img)
	}
}

func TestContentToMessage_DecodeFailurePlaceholder(t *testing.T) {
	msg := ContentToMessage(gjson.Parse(`{"role":"user","parts":[{"data":{"data":"!!!","mime_type":"image/png"}}]}`))
	if len(msg.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(msg.Parts))
	}
	text, ok := msg.Parts[0].(relay.TextPart)
	if !ok || text.Text != relay.PlaceholderDecodeFailed {
		t.Fatalf("expected placeholder text part, got %+v", msg.Parts[0])
	}
}

func TestContentToMessage_UnknownPartSkipped(t *testing.T) {
	msg := ContentToMessage(gjson.Parse(`{"role":"user","parts":[{"function_call":{"name":"f"}},{"text":"kept"}]}`))
	if len(msg.Parts) != 1 || msg.Text() != "kept" {
		t.Fatalf("unknown part should be skipped, got %+v", msg.Parts)
	}
}

func TestMessageContent_RoundTrip(t *testing.T) {
	msg := relay.Message{Role: relay.RoleAssistant, Parts: []relay.Part{
		relay.TextPart{Text: "hi"},
		relay.ImagePart{MimeType: "image/png", Data: []byte{9}},
	}}
	content := MessageContent(msg)
	if content["role"] != "model" {
		t.Fatalf("assistant should render as model, got %v", content["role"])
	}
	parts := content["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	data := parts[1].(map[string]any)["data"].(map[string]any)
	if data["mime_type"] != "image/png" {
		t.Fatalf("mime type lost: %v", data)
	}
}

func TestMessageContent_EmptyMessageGetsEmptyTextPart(t *testing.T) {
	content := MessageContent(relay.Message{Role: relay.RoleUser})
	parts := content["parts"].([]any)
	if len(parts) != 1 {
		t.Fatalf("expected single empty text part, got %v", parts)
	}
	if parts[0].(map[string]any)["text"] != "" {
		t.Fatalf("expected empty text, got %v", parts[0])
	}
}

func TestTextContent(t *testing.T) {
	content := TextContent("Hello")
	if content["role"] != "model" {
		t.Fatalf("expected model role, got %v", content["role"])
	}
	parts := content["parts"].([]any)
	if parts[0].(map[string]any)["text"] != "Hello" {
		t.Fatalf("unexpected parts: %v", parts)
	}
}
