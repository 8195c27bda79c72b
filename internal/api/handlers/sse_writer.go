package handlers

import (
	"bytes"
	"io"
	"sync"
)

var sseBufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

var (
	sseEventPrefix = []byte("event: ")
	sseDataPrefix  = []byte("data: ")
	sseNewline     = []byte("\n")
	sseSuffix      = []byte("\n\n")
	sseDone        = []byte("data: [DONE]\n\n")
)

// WriteSSEData writes a standard SSE "data" frame.
func WriteSSEData(w io.Writer, data []byte) {
	if w == nil || len(data) == 0 {
		return
	}
	buf := sseBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Grow(len(sseDataPrefix) + len(data) + len(sseSuffix))
	_, _ = buf.Write(sseDataPrefix)
	_, _ = buf.Write(data)
	_, _ = buf.Write(sseSuffix)
	_, _ = w.Write(buf.Bytes())
	buf.Reset()
	sseBufferPool.Put(buf)
}

// WriteSSEEvent writes a named SSE event frame: "event: <name>\ndata: <data>\n\n".
func WriteSSEEvent(w io.Writer, name string, data []byte) {
	if w == nil || len(data) == 0 {
		return
	}
	buf := sseBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Grow(len(sseEventPrefix) + len(name) + len(sseNewline) + len(sseDataPrefix) + len(data) + len(sseSuffix))
	_, _ = buf.Write(sseEventPrefix)
	_, _ = buf.WriteString(name)
	_, _ = buf.Write(sseNewline)
	_, _ = buf.Write(sseDataPrefix)
	_, _ = buf.Write(data)
	_, _ = buf.Write(sseSuffix)
	_, _ = w.Write(buf.Bytes())
	buf.Reset()
	sseBufferPool.Put(buf)
}

// WriteSSEDone writes the standard SSE done marker.
func WriteSSEDone(w io.Writer) {
	if w == nil {
		return
	}
	_, _ = w.Write(sseDone)
}
