package core

import (
	"sort"
	"sync"
)

// Registry maps channels to live sessions and message IDs to the player
// whose turn that message shows. Route bindings are only changed from the
// owning session's goroutine.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	routes   map[string]*Player
	closed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		routes:   make(map[string]*Player),
	}
}

// getOrCreate returns the live session for channel, creating it with create
// when none exists.
func (r *Registry) getOrCreate(channel string, create func() (*Session, error)) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrSessionClosed
	}
	if s, ok := r.sessions[channel]; ok {
		return s, nil
	}
	s, err := create()
	if err != nil {
		return nil, err
	}
	r.sessions[channel] = s
	return s, nil
}

// session returns the live session for channel.
func (r *Registry) session(channel string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[channel]
	return s, ok
}

// removeSession deletes s if it is still the live session of its channel.
func (r *Registry) removeSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.Channel]; ok && cur == s {
		delete(r.sessions, s.Channel)
	}
}

// drain removes and returns every session. No session is created afterwards.
func (r *Registry) drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	out := make([]*Session, 0, len(r.sessions))
	for channel, s := range r.sessions {
		out = append(out, s)
		delete(r.sessions, channel)
	}
	clear(r.routes)
	return out
}

func (r *Registry) route(messageID string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.routes[messageID]
	return p, ok
}

func (r *Registry) bindRoute(messageID string, p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[messageID] = p
}

func (r *Registry) unbindRoute(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, messageID)
}

// Channels lists channels with a live session in lexical order.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sessions))
	for channel := range r.sessions {
		out = append(out, channel)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Routes returns the number of bound message routes.
func (r *Registry) Routes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
