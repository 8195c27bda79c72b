package store

// Store bundles the session and thread maps into one conversation store
// instance that is constructed at server startup and passed to handlers by
// reference.
type Store struct {
	Sessions *SessionStore
	Threads  *ThreadStore
}

// New returns an empty conversation store.
func New() *Store {
	return &Store{
		Sessions: NewSessionStore(),
		Threads:  NewThreadStore(),
	}
}
