package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/modelrelay/modelrelay/internal/relay"
)

// ThreadMessage is one message held by a thread. Content is the canonical
// part list; unsupported wire parts arrive here already substituted with
// placeholder text parts.
type ThreadMessage struct {
	ID        string
	ThreadID  string
	CreatedAt time.Time
	Role      relay.Role
	Content   []relay.Part
	Metadata  map[string]string
}

// Thread is the Assistants API's server-held conversation state.
type Thread struct {
	ID        string
	CreatedAt time.Time
	Metadata  map[string]string
	Messages  []ThreadMessage
}

// ThreadStore is an in-memory keyed thread map. Message appends are
// append-only: existing entries are never removed or reordered.
type ThreadStore struct {
	mu      sync.RWMutex
	threads map[string]*Thread
	nextMsg uint64
}

// NewThreadStore returns an empty thread store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{threads: make(map[string]*Thread)}
}

// Create registers a new thread under the given id.
func (s *ThreadStore) Create(id string, metadata map[string]string) Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	th := &Thread{
		ID:        id,
		CreatedAt: time.Now(),
		Metadata:  cloneMetadata(metadata),
	}
	s.threads[id] = th
	return snapshotThread(th)
}

// Get returns a snapshot of the thread, if present.
func (s *ThreadStore) Get(id string) (Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	th, ok := s.threads[id]
	if !ok {
		return Thread{}, false
	}
	return snapshotThread(th), true
}

// Delete removes a thread. It reports whether the thread existed.
func (s *ThreadStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return false
	}
	delete(s.threads, id)
	return true
}

// AppendMessage assigns the message a fresh monotonically increasing id and
// appends it to the thread.
func (s *ThreadStore) AppendMessage(threadID string, role relay.Role, content []relay.Part, metadata map[string]string) (ThreadMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[threadID]
	if !ok {
		return ThreadMessage{}, false
	}
	s.nextMsg++
	msg := ThreadMessage{
		ID:        fmt.Sprintf("msg_%d_%x", time.Now().UnixMilli(), s.nextMsg),
		ThreadID:  threadID,
		CreatedAt: time.Now(),
		Role:      role,
		Content:   append([]relay.Part(nil), content...),
		Metadata:  cloneMetadata(metadata),
	}
	th.Messages = append(th.Messages, msg)
	return msg, true
}

// GetMessage returns one message of a thread by id.
func (s *ThreadStore) GetMessage(threadID, messageID string) (ThreadMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	th, ok := s.threads[threadID]
	if !ok {
		return ThreadMessage{}, false
	}
	for _, msg := range th.Messages {
		if msg.ID == messageID {
			return msg, true
		}
	}
	return ThreadMessage{}, false
}

func snapshotThread(th *Thread) Thread {
	out := *th
	out.Metadata = cloneMetadata(th.Metadata)
	out.Messages = make([]ThreadMessage, len(th.Messages))
	copy(out.Messages, th.Messages)
	return out
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
