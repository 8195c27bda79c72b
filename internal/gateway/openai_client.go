package gateway

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/modelrelay/modelrelay/internal/relay"
)

const defaultUpstreamTimeout = 300 * time.Second

// OpenAIInvoker speaks the OpenAI chat-completions protocol to a configured
// upstream and adapts its SSE stream into the gateway chunk variants.
type OpenAIInvoker struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIInvoker builds an invoker against baseURL. timeout <= 0 selects
// the default.
func NewOpenAIInvoker(baseURL, apiKey string, timeout time.Duration) *OpenAIInvoker {
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	return &OpenAIInvoker{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Invoke implements Invoker. It opens a streaming chat-completions request
// and emits one chunk per upstream delta, decoded once at this boundary.
func (c *OpenAIInvoker) Invoke(ctx context.Context, model string, messages []relay.Message) (<-chan Chunk, error) {
	body, err := buildChatRequest(model, messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if msg := gjson.GetBytes(payload, "error.message"); msg.Exists() {
			return nil, fmt.Errorf("upstream error [%d]: %s", resp.StatusCode, msg.String())
		}
		return nil, fmt.Errorf("upstream error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()
		c.consumeStream(ctx, resp.Body, out)
	}()
	return out, nil
}

func (c *OpenAIInvoker) consumeStream(ctx context.Context, body io.Reader, out chan<- Chunk) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}
		chunk := decodeStreamItem([]byte(data))
		if chunk == nil {
			continue
		}
		select {
		case out <- chunk:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		select {
		case out <- StreamError{StatusCode: http.StatusInternalServerError, Err: fmt.Errorf("upstream stream read failed: %w", err)}:
		case <-ctx.Done():
		}
	}
}

// decodeStreamItem classifies one upstream SSE payload into a chunk variant.
// This is the only place upstream item shapes are inspected.
func decodeStreamItem(data []byte) Chunk {
	if !gjson.ValidBytes(data) {
		return Unrecognized{Raw: append([]byte(nil), data...)}
	}
	delta := gjson.GetBytes(data, "choices.0.delta")
	if !delta.Exists() {
		return nil
	}
	if tool := delta.Get("tool_calls.0"); tool.Exists() {
		return ToolCallNotice{
			CallID: tool.Get("id").String(),
			Name:   tool.Get("function.name").String(),
		}
	}
	if content := delta.Get("content"); content.Exists() {
		if content.String() == "" {
			return nil
		}
		return TextChunk{Text: content.String()}
	}
	if delta.Get("role").Exists() {
		return nil
	}
	return Unrecognized{Raw: append([]byte(nil), data...)}
}

func buildChatRequest(model string, messages []relay.Message) ([]byte, error) {
	body := []byte(`{"stream":true}`)
	body, err := sjson.SetBytes(body, "model", model)
	if err != nil {
		return nil, err
	}
	for i, msg := range messages {
		prefix := fmt.Sprintf("messages.%d", i)
		body, _ = sjson.SetBytes(body, prefix+".role", upstreamRole(msg.Role))
		if msg.HasImage() {
			for j, part := range msg.Parts {
				partPath := fmt.Sprintf("%s.content.%d", prefix, j)
				switch p := part.(type) {
				case relay.TextPart:
					body, _ = sjson.SetBytes(body, partPath+".type", "text")
					body, _ = sjson.SetBytes(body, partPath+".text", p.Text)
				case relay.ImagePart:
					body, _ = sjson.SetBytes(body, partPath+".type", "image_url")
					body, _ = sjson.SetBytes(body, partPath+".image_url.url", relay.EncodeImageDataURI(p.MimeType, p.Data))
				}
			}
		} else {
			body, _ = sjson.SetBytes(body, prefix+".content", msg.Text())
		}
	}
	if len(messages) == 0 {
		body, _ = sjson.SetRawBytes(body, "messages", []byte("[]"))
	}
	log.WithFields(log.Fields{"model": model, "messages": len(messages)}).Debug("invoking upstream model")
	return body, nil
}

func upstreamRole(role relay.Role) string {
	switch role {
	case relay.RoleAssistant:
		return "assistant"
	case relay.RoleSystem:
		return "system"
	default:
		return "user"
	}
}
