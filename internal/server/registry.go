package server

import (
	"sync"
	"time"

	"github.com/relaymesh/echorelay/internal/relay"
)

// Registry tracks live streaming sessions keyed by connection id so shutdown
// can drain them. It implements relay.SessionTracker.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint64]*relay.Session
	wg       sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uint64]*relay.Session)}
}

// Add registers a session that just entered the Open state.
func (r *Registry) Add(s *relay.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ConnID()]; ok {
		return
	}
	r.sessions[s.ConnID()] = s
	r.wg.Add(1)
}

// Remove drops a session that reached the Closed state. Safe to call more
// than once per session.
func (r *Registry) Remove(s *relay.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ConnID()]; !ok {
		return
	}
	delete(r.sessions, s.ConnID())
	r.wg.Done()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll signals every live session to close. The sessions unregister
// themselves as their loops exit.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*relay.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Wait blocks until every session has unregistered or the timeout elapses.
// Returns true when fully drained.
func (r *Registry) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
