package assistants

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/relay"
)

func TestParseContent_BareString(t *testing.T) {
	parts := ParseContent(gjson.Parse(`"ping"`))
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if text, ok := parts[0].(relay.TextPart); !ok || text.Text != "ping" {
		t.Fatalf("unexpected part: %+v", parts[0])
	}
}

func TestParseContent_TextShapes(t *testing.T) {
	// Both the flat string and the nested value shape must parse.
	parts := ParseContent(gjson.Parse(`[
		{"type":"text","text":"flat"},
		{"type":"text","text":{"value":"nested"}}
	]`))
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].(relay.TextPart).Text != "flat" || parts[1].(relay.TextPart).Text != "nested" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}

func TestParseContent_ImageDataURI(t *testing.T) {
	uri := relay.EncodeImageDataURI("image/png", []byte{1, 2})
	parts := ParseContent(gjson.Parse(`[{"type":"image_url","image_url":{"url":"` + uri + `"}}]`))
	img, ok := parts[0].(relay.ImagePart)
	if !ok {
		t.Fatalf("expected image part, got %+v", parts[0])
	}
	if img.MimeType != "image/png" || len(img.Data) != 2 {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestParseContent_HTTPURLNeverFetched(t *testing.T) {
	parts := ParseContent(gjson.Parse(`[{"type":"image_url","image_url":{"url":"https://example.com/cat.png"}}]`))
	text, ok := parts[0].(relay.TextPart)
	if !ok {
		t.Fatalf("expected placeholder text part, got %+v", parts[0])
	}
	if !strings.Contains(text.Text, "https://example.com/cat.png") {
		t.Fatalf("placeholder should carry the URL: %q", text.Text)
	}
}

func TestParseContent_ImageFilePlaceholder(t *testing.T) {
	parts := ParseContent(gjson.Parse(`[{"type":"image_file","image_file":{"file_id":"file-1"}}]`))
	text, ok := parts[0].(relay.TextPart)
	if !ok || text.Text != relay.PlaceholderImageFileRef {
		t.Fatalf("expected file placeholder, got %+v", parts[0])
	}
}

func TestParseContent_UnknownTagSkipped(t *testing.T) {
	parts := ParseContent(gjson.Parse(`[{"type":"audio"},{"type":"text","text":"kept"}]`))
	if len(parts) != 1 || parts[0].(relay.TextPart).Text != "kept" {
		t.Fatalf("unknown tag should be skipped, got %+v", parts)
	}
}

func TestRenderContent_TextShape(t *testing.T) {
	out := RenderContent([]relay.Part{relay.TextPart{Text: "pong"}})
	if len(out) != 1 {
		t.Fatalf("expected 1 part, got %d", len(out))
	}
	part := out[0].(map[string]any)
	if part["type"] != "text" {
		t.Fatalf("unexpected type: %v", part["type"])
	}
	text := part["text"].(map[string]any)
	if text["value"] != "pong" {
		t.Fatalf("unexpected value: %v", text["value"])
	}
	if _, ok := text["annotations"]; !ok {
		t.Fatal("annotations field must be present")
	}
}

func TestRenderContent_EmptyYieldsSingleEmptyText(t *testing.T) {
	out := RenderContent(nil)
	if len(out) != 1 {
		t.Fatalf("expected single empty text part, got %v", out)
	}
	text := out[0].(map[string]any)["text"].(map[string]any)
	if text["value"] != "" {
		t.Fatalf("expected empty value, got %v", text["value"])
	}
}

func TestRenderContent_ImageRoundTrip(t *testing.T) {
	in := []relay.Part{relay.ImagePart{MimeType: "image/jpeg", Data: []byte{7}}}
	rendered := RenderContent(in)
	url := rendered[0].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data URI: %q", url)
	}
}
