// Package assistants translates OpenAI Assistants API message content
// between the wire shape and the canonical conversation model.
package assistants

import (
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/relay"
)

// ParseContent converts a posted message's content value into canonical
// parts. A bare string wraps as one text part. Supported tags are "text",
// "image_url" (data URI only) and "image_file" (explicitly unsupported,
// degraded to a visible placeholder). Unknown tags are skipped.
func ParseContent(content gjson.Result) []relay.Part {
	if content.Type == gjson.String {
		return []relay.Part{relay.TextPart{Text: content.String()}}
	}
	if !content.IsArray() {
		return nil
	}
	var parts []relay.Part
	for _, item := range content.Array() {
		switch item.Get("type").String() {
		case "text":
			parts = append(parts, relay.TextPart{Text: textValue(item.Get("text"))})
		case "image_url":
			parts = append(parts, parseImageURL(item.Get("image_url.url").String()))
		case "image_file":
			parts = append(parts, relay.TextPart{Text: relay.PlaceholderImageFileRef})
		}
	}
	return parts
}

// textValue accepts both {"text":"..."} and {"text":{"value":"..."}} shapes;
// SDKs disagree on which one they send.
func textValue(text gjson.Result) string {
	if text.Type == gjson.String {
		return text.String()
	}
	return text.Get("value").String()
}

func parseImageURL(url string) relay.Part {
	if len(url) < 5 || url[:5] != "data:" {
		// HTTP(S) references are recognized but never fetched.
		return relay.TextPart{Text: relay.PlaceholderImageURL(url)}
	}
	mimeType, data, err := relay.DecodeImageData(url, "")
	if err != nil {
		log.WithError(err).Warn("image_url decode failed, substituting placeholder")
		return relay.TextPart{Text: relay.PlaceholderDecodeFailed}
	}
	return relay.ImagePart{MimeType: mimeType, Data: data}
}

// RenderContent renders canonical parts back into the Assistants wire shape.
func RenderContent(parts []relay.Part) []any {
	out := make([]any, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case relay.TextPart:
			out = append(out, map[string]any{
				"type": "text",
				"text": map[string]any{"value": p.Text, "annotations": []any{}},
			})
		case relay.ImagePart:
			out = append(out, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": relay.EncodeImageDataURI(p.MimeType, p.Data)},
			})
		}
	}
	if len(out) == 0 {
		out = append(out, map[string]any{
			"type": "text",
			"text": map[string]any{"value": "", "annotations": []any{}},
		})
	}
	return out
}
