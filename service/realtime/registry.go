package realtime

import (
	"sync"
)

// Registry tracks channel memberships for live sessions. Membership exists
// only while the connection lives; nothing here is persisted.
//
// Reads during a racing join may or may not see the new member — the service
// tolerates eventual membership views, so a plain RWMutex over both indexes
// is enough.
type Registry struct {
	mu        sync.RWMutex
	byChannel map[string]map[string]*Session // channel -> session_id -> session
	bySession map[string]map[string]struct{} // session_id -> set of channels
	sessions  map[string]*Session            // session_id -> session
}

func NewRegistry() *Registry {
	return &Registry{
		byChannel: make(map[string]map[string]*Session),
		bySession: make(map[string]map[string]struct{}),
		sessions:  make(map[string]*Session),
	}
}

func (r *Registry) AddSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// RemoveSession drops the session and every membership it holds.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.bySession[sessionID] {
		if m := r.byChannel[ch]; m != nil {
			delete(m, sessionID)
			if len(m) == 0 {
				delete(r.byChannel, ch)
			}
		}
	}
	delete(r.bySession, sessionID)
	delete(r.sessions, sessionID)
}

// Join is idempotent: joining an already-joined channel changes nothing.
// Joining with an unknown session is a no-op (it already disconnected).
func (r *Registry) Join(sessionID, channel string) {
	if sessionID == "" || channel == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[sessionID]
	if s == nil {
		return
	}
	m := r.byChannel[channel]
	if m == nil {
		m = make(map[string]*Session)
		r.byChannel[channel] = m
	}
	m[sessionID] = s

	cs := r.bySession[sessionID]
	if cs == nil {
		cs = make(map[string]struct{})
		r.bySession[sessionID] = cs
	}
	cs[channel] = struct{}{}
}

// Leave is idempotent: leaving a channel the session isn't in is a no-op.
func (r *Registry) Leave(sessionID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.byChannel[channel]; m != nil {
		delete(m, sessionID)
		if len(m) == 0 {
			delete(r.byChannel, channel)
		}
	}
	if cs := r.bySession[sessionID]; cs != nil {
		delete(cs, channel)
		if len(cs) == 0 {
			delete(r.bySession, sessionID)
		}
	}
}

// Members snapshots the current member sessions of a channel.
func (r *Registry) Members(channel string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byChannel[channel]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

// Channels snapshots the channels a session currently belongs to.
func (r *Registry) Channels(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs := r.bySession[sessionID]
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, 0, len(cs))
	for ch := range cs {
		out = append(out, ch)
	}
	return out
}

func (r *Registry) Session(sessionID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID]
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
