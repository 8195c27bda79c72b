// Package responses normalizes OpenAI Responses API request bodies into the
// canonical conversation model.
package responses

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/modelrelay/modelrelay/internal/relay"
)

// systemPromptMarker prefixes re-labelled system messages. The backend has no
// native system role, so system content is carried as a marked user turn.
const systemPromptMarker = "[system prompt]"

// ParseRequest extracts the canonical message list from a /v1/responses body.
// Messages come from "messages" if present, else "input" (array or bare
// string); a request carrying neither is rejected.
func ParseRequest(raw []byte) ([]relay.Message, error) {
	if messages := gjson.GetBytes(raw, "messages"); messages.IsArray() {
		return parseItems(messages.Array()), nil
	}
	input := gjson.GetBytes(raw, "input")
	switch {
	case input.IsArray():
		return parseItems(input.Array()), nil
	case input.Type == gjson.String:
		return []relay.Message{relay.NewTextMessage(relay.RoleUser, input.String())}, nil
	}
	return nil, fmt.Errorf("request must include 'messages' or 'input'")
}

func parseItems(items []gjson.Result) []relay.Message {
	messages := make([]relay.Message, 0, len(items))
	for _, item := range items {
		role := normalizeRole(item.Get("role").String())
		text := collectText(item.Get("content"))
		if role == relay.RoleSystem {
			// Re-label: no native system role downstream.
			role = relay.RoleUser
			text = systemPromptMarker + "\n" + text
		}
		messages = append(messages, relay.NewTextMessage(role, text))
	}
	return messages
}

func normalizeRole(role string) relay.Role {
	switch role {
	case "assistant":
		return relay.RoleAssistant
	case "system":
		return relay.RoleSystem
	case "user":
		return relay.RoleUser
	default:
		// Unrecognized roles degrade to user rather than failing the request.
		return relay.RoleUser
	}
}

// collectText flattens a Responses API content value: a bare string, a single
// text object, or an array of parts. Only text-typed parts contribute;
// anything else is silently skipped.
func collectText(content gjson.Result) string {
	switch {
	case content.Type == gjson.String:
		return content.String()
	case content.IsArray():
		text := ""
		for _, part := range content.Array() {
			text += textOfPart(part)
		}
		return text
	case content.IsObject():
		return textOfPart(content)
	}
	return ""
}

func textOfPart(part gjson.Result) string {
	switch part.Get("type").String() {
	case "text", "input_text", "output_text":
		return part.Get("text").String()
	}
	return ""
}
