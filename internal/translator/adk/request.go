// Package adk normalizes Google ADK run requests into the canonical
// conversation model and back.
package adk

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/relay"
)

// RunRequest is the validated routing envelope of an ADK /run or /run_sse
// call. RawNewMessage preserves the caller's new_message object verbatim for
// history; Message is the parsed canonical form used for generation. The two
// are not guaranteed to match part for part: unsupported parts stay verbatim
// in history while the canonical form substitutes placeholders.
type RunRequest struct {
	AppName       string
	UserID        string
	SessionID     string
	Streaming     bool
	Message       relay.Message
	RawNewMessage json.RawMessage
}

// ParseRunRequest validates a /run body, naming the first missing or
// malformed required field.
func ParseRunRequest(raw []byte) (*RunRequest, error) {
	appName := gjson.GetBytes(raw, "app_name")
	if appName.Type != gjson.String || appName.String() == "" {
		return nil, fmt.Errorf("missing or invalid required field: app_name")
	}
	userID := gjson.GetBytes(raw, "user_id")
	if userID.Type != gjson.String || userID.String() == "" {
		return nil, fmt.Errorf("missing or invalid required field: user_id")
	}
	sessionID := gjson.GetBytes(raw, "session_id")
	if sessionID.Type != gjson.String || sessionID.String() == "" {
		return nil, fmt.Errorf("missing or invalid required field: session_id")
	}
	newMessage := gjson.GetBytes(raw, "new_message")
	if !newMessage.IsObject() {
		return nil, fmt.Errorf("missing or invalid required field: new_message")
	}

	return &RunRequest{
		AppName:       appName.String(),
		UserID:        userID.String(),
		SessionID:     sessionID.String(),
		Streaming:     gjson.GetBytes(raw, "streaming").Bool(),
		Message:       ContentToMessage(newMessage),
		RawNewMessage: json.RawMessage(newMessage.Raw),
	}, nil
}

// ContentToMessage parses an ADK content object ({parts, role}) into a
// canonical message. An empty or absent parts list yields an empty message.
// Multimodal decode failures are non-fatal; a placeholder text part stands in
// for the broken part.
func ContentToMessage(content gjson.Result) relay.Message {
	msg := relay.Message{Role: roleOf(content.Get("role").String())}
	parts := content.Get("parts")
	if !parts.IsArray() {
		return msg
	}
	for _, part := range parts.Array() {
		if text := part.Get("text"); text.Exists() {
			msg.Parts = append(msg.Parts, relay.TextPart{Text: text.String()})
			continue
		}
		if data := part.Get("data"); data.IsObject() {
			mimeType, decoded, err := relay.DecodeImageData(data.Get("data").String(), data.Get("mime_type").String())
			if err != nil {
				log.WithError(err).Warn("inline image decode failed, substituting placeholder")
				msg.Parts = append(msg.Parts, relay.TextPart{Text: relay.PlaceholderDecodeFailed})
				continue
			}
			msg.Parts = append(msg.Parts, relay.ImagePart{MimeType: mimeType, Data: decoded})
			continue
		}
		// Unknown part shapes are skipped, not rejected.
	}
	return msg
}

// MessageContent renders a canonical message as an ADK content object.
func MessageContent(msg relay.Message) map[string]any {
	parts := make([]any, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case relay.TextPart:
			parts = append(parts, map[string]any{"text": p.Text})
		case relay.ImagePart:
			parts = append(parts, map[string]any{
				"data": map[string]any{
					"data":      base64.StdEncoding.EncodeToString(p.Data),
					"mime_type": p.MimeType,
				},
			})
		}
	}
	if len(parts) == 0 {
		parts = append(parts, map[string]any{"text": ""})
	}
	return map[string]any{"parts": parts, "role": wireRole(msg.Role)}
}

// TextContent renders plain text as an ADK model-authored content object.
func TextContent(text string) map[string]any {
	return map[string]any{
		"parts": []any{map[string]any{"text": text}},
		"role":  "model",
	}
}

func roleOf(role string) relay.Role {
	switch role {
	case "model":
		return relay.RoleAssistant
	default:
		return relay.RoleUser
	}
}

func wireRole(role relay.Role) string {
	if role == relay.RoleAssistant {
		return "model"
	}
	return "user"
}
