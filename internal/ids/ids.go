// Package ids allocates the identifiers used across all response
// synthesizers: monotonic wrap-around counters plus timestamp-derived
// strings. Uniqueness and non-repetition within a process lifetime are the
// contract; exact formatting is not.
package ids

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Allocator hands out request, message, run and event identifiers. The zero
// value is ready to use and safe for concurrent callers.
type Allocator struct {
	message atomic.Uint64
	run     atomic.Uint64
	event   atomic.Uint64
}

// NewAllocator returns a fresh Allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// ResponseID allocates an id for one Responses API response envelope.
func (a *Allocator) ResponseID() string {
	return fmt.Sprintf("resp_%d", time.Now().UnixMilli())
}

// MessageID allocates an id for an output message item.
func (a *Allocator) MessageID() string {
	return fmt.Sprintf("msg_%x", a.message.Add(1))
}

// RunID allocates an id for an Assistants run.
func (a *Allocator) RunID() string {
	return fmt.Sprintf("run_%x", a.run.Add(1))
}

// EventID allocates an id for an ADK event.
func (a *Allocator) EventID() string {
	return fmt.Sprintf("evt_%x", a.event.Add(1))
}

// InvocationID allocates an id for one ADK run invocation.
func (a *Allocator) InvocationID() string {
	return "e-" + uuid.NewString()
}

// SessionID allocates an id for an ADK session.
func (a *Allocator) SessionID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), randomSuffix())
}

// ThreadID allocates an id for an Assistants thread.
func (a *Allocator) ThreadID() string {
	return fmt.Sprintf("thread_%d_%s", time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
