package fabriclog

import (
	"sync"

	"github.com/google/uuid"
)

// SessionStore keeps sessions in memory, one per browser.
type SessionStore struct {
	extractor *Extractor
	sink      Sink
	opts      []SessionOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates sessions wired to extractor and sink.
func NewSessionStore(extractor *Extractor, sink Sink, opts ...SessionOption) *SessionStore {
	return &SessionStore{
		extractor: extractor,
		sink:      sink,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session for id, or a new session under a fresh id when id
// is unknown. The boolean reports whether a session was created.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		return s, false
	}
	s := NewSession(uuid.NewString(), st.extractor, st.sink, st.opts...)
	st.sessions[s.ID] = s
	return s, true
}

// Delete forgets a session.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
