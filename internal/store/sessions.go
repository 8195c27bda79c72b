// Package store holds the process-lifetime conversation state behind the ADK
// and Assistants surfaces. Everything lives in keyed in-memory maps; nothing
// survives a restart.
package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// SessionTurn is one entry of a session's history. Content is kept verbatim
// as the ADK content object that was appended; the canonical messages used
// for generation are parsed from it separately and may have dropped or
// placeholder-substituted parts the history still carries.
type SessionTurn struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Session is ADK's server-held multi-turn conversation state, keyed by
// (app_name, user_id, session_id).
type Session struct {
	ID        string        `json:"id"`
	AppName   string        `json:"app_name"`
	UserID    string        `json:"user_id"`
	CreatedAt time.Time     `json:"created_at"`
	History   []SessionTurn `json:"history"`
}

// SessionSummary is the list-view projection of a session.
type SessionSummary struct {
	ID        string    `json:"id"`
	AppName   string    `json:"app_name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Turns     int       `json:"turns"`
}

// SessionKey identifies one session.
type SessionKey struct {
	AppName   string
	UserID    string
	SessionID string
}

// SessionStore is an in-memory keyed session map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[SessionKey]*Session
}

// NewSessionStore returns an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[SessionKey]*Session)}
}

// GetOrCreate returns the session for key, creating it lazily on first
// reference.
func (s *SessionStore) GetOrCreate(key SessionKey) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{
			ID:        key.SessionID,
			AppName:   key.AppName,
			UserID:    key.UserID,
			CreatedAt: time.Now(),
		}
		s.sessions[key] = sess
	}
	return snapshotSession(sess)
}

// Get returns a snapshot of the session for key, if present.
func (s *SessionStore) Get(key SessionKey) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return Session{}, false
	}
	return snapshotSession(sess), true
}

// Create allocates a new session under the given app/user with the supplied
// id and returns it.
func (s *SessionStore) Create(appName, userID, sessionID string) Session {
	return s.GetOrCreate(SessionKey{AppName: appName, UserID: userID, SessionID: sessionID})
}

// Delete removes a session. It reports whether the session existed.
func (s *SessionStore) Delete(key SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		return false
	}
	delete(s.sessions, key)
	return true
}

// ListBy returns summaries of the sessions under one app/user pair, ordered
// by creation time then id.
func (s *SessionStore) ListBy(appName, userID string) []SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]SessionSummary, 0)
	for key, sess := range s.sessions {
		if key.AppName != appName || key.UserID != userID {
			continue
		}
		summaries = append(summaries, SessionSummary{
			ID:        sess.ID,
			AppName:   sess.AppName,
			UserID:    sess.UserID,
			CreatedAt: sess.CreatedAt,
			Turns:     len(sess.History),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// AppendTurns appends the user turn and the model turn as one pair under the
// store lock, so a concurrent append to the same session cannot interleave
// mid-pair. A failed invocation must never reach this method.
func (s *SessionStore) AppendTurns(key SessionKey, user, model SessionTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{
			ID:        key.SessionID,
			AppName:   key.AppName,
			UserID:    key.UserID,
			CreatedAt: time.Now(),
		}
		s.sessions[key] = sess
	}
	sess.History = append(sess.History, user, model)
}

func snapshotSession(sess *Session) Session {
	out := *sess
	out.History = make([]SessionTurn, len(sess.History))
	copy(out.History, sess.History)
	return out
}
