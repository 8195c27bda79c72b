// Package gateway defines the model-invocation boundary: given canonical
// messages, produce a cancellable stream of chunks. The stream item shape is
// decoded exactly once at this edge into a closed variant; downstream
// consumers switch over the variants and never re-inspect raw payloads.
package gateway

import (
	"context"
	"fmt"

	"github.com/modelrelay/modelrelay/internal/relay"
)

// Chunk is one item of an invocation stream.
type Chunk interface {
	isChunk()
}

// TextChunk carries a UTF-8 text fragment in emission order.
type TextChunk struct {
	Text string
}

// ToolCallNotice reports that the backend attempted a tool call. Tool
// protocol support is out of scope; consumers skip these.
type ToolCallNotice struct {
	CallID string
	Name   string
}

// Unrecognized carries a stream item whose shape matched no known variant.
type Unrecognized struct {
	Raw []byte
}

// StreamError is the terminal failure item. After a StreamError the channel
// is closed; no further chunks follow.
type StreamError struct {
	StatusCode int
	Err        error
}

func (TextChunk) isChunk()      {}
func (ToolCallNotice) isChunk() {}
func (Unrecognized) isChunk()   {}
func (StreamError) isChunk()    {}

func (e StreamError) Error() string {
	if e.Err == nil {
		return "model invocation failed"
	}
	return e.Err.Error()
}

// Invoker produces model output for canonical messages. The returned channel
// is closed when the stream ends; zero text chunks is a valid empty response,
// not an error. Cancellation of ctx stops production promptly, but callers
// must also stop consuming on their own when their client goes away.
type Invoker interface {
	Invoke(ctx context.Context, model string, messages []relay.Message) (<-chan Chunk, error)
}

// Resolver maps a preferred model id onto an available one: exact match
// first, then the first available model, absent if none exist.
type Resolver interface {
	Resolve(preferred string) (string, bool)
	Models() []string
}

// StaticResolver resolves against a fixed model list.
type StaticResolver struct {
	models []string
}

// NewStaticResolver builds a resolver over the configured model ids.
func NewStaticResolver(models []string) *StaticResolver {
	return &StaticResolver{models: append([]string(nil), models...)}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(preferred string) (string, bool) {
	if len(r.models) == 0 {
		return "", false
	}
	for _, m := range r.models {
		if m == preferred {
			return m, true
		}
	}
	return r.models[0], true
}

// Models returns the configured model ids.
func (r *StaticResolver) Models() []string {
	return append([]string(nil), r.models...)
}

// ErrNoModel is returned when no backend model is resolvable.
var ErrNoModel = fmt.Errorf("no language model available")
