// ABOUTME: Thread-safe TTL registry of MCP sessions.
// ABOUTME: Sessions are created on initialize, refreshed on use and expire when idle.

package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session describes one MCP client session.
type Session struct {
	ID              string
	ProtocolVersion string
	CreatedAt       time.Time
}

// registryEntry stores the session, its last-seen time and its list element.
type registryEntry struct {
	session  Session
	lastSeen time.Time
	element  *list.Element
}

// Registry holds live sessions. Uses a doubly-linked list ordered by last use
// so eviction of the stalest session is O(1).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registryEntry
	order    *list.List // session ids, least recently touched at front
	ttl      time.Duration
	maxSize  int
	now      func() time.Time
	done     chan struct{}
	closed   bool
}

// New creates a registry with the given idle TTL and capacity.
// A background goroutine periodically removes expired sessions.
func New(ttl time.Duration, maxSize int) *Registry {
	if maxSize <= 0 {
		maxSize = 1
	}
	r := &Registry{
		sessions: make(map[string]*registryEntry),
		order:    list.New(),
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go r.cleanup()
	return r
}

// Create registers a new session and returns it.
func (r *Registry) Create(protocolVersion string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	sess := Session{
		ID:              uuid.New().String(),
		ProtocolVersion: protocolVersion,
		CreatedAt:       now,
	}

	if len(r.sessions) >= r.maxSize {
		r.evictOldest()
	}

	elem := r.order.PushBack(sess.ID)
	r.sessions[sess.ID] = &registryEntry{
		session:  sess,
		lastSeen: now,
		element:  elem,
	}
	return sess
}

// Get returns the session if it exists and has not expired.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[id]
	if !ok || r.expired(entry) {
		return Session{}, false
	}
	return entry.session, true
}

// Touch refreshes a live session's TTL. Returns false if the session is
// unknown or already expired.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok || r.expired(entry) {
		return false
	}
	entry.lastSeen = r.now()
	r.order.MoveToBack(entry.element)
	return true
}

// Delete removes a session. Returns true if a live session was removed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return false
	}
	r.order.Remove(entry.element)
	delete(r.sessions, id)
	return !r.expired(entry)
}

// Len returns the number of tracked sessions, including expired ones not yet
// swept.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// expired must be called with mu held.
func (r *Registry) expired(entry *registryEntry) bool {
	return r.now().Sub(entry.lastSeen) >= r.ttl
}

// evictOldest removes the least recently touched session. Must be called with mu held.
func (r *Registry) evictOldest() {
	front := r.order.Front()
	if front == nil {
		return
	}

	id, _ := front.Value.(string)
	r.order.Remove(front)
	delete(r.sessions, id)
}

// cleanup runs in a background goroutine, periodically removing expired sessions.
func (r *Registry) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runCleanup()
		case <-r.done:
			return
		}
	}
}

// runCleanup removes all expired sessions.
func (r *Registry) runCleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.sessions {
		if r.expired(entry) {
			r.order.Remove(entry.element)
			delete(r.sessions, id)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		close(r.done)
		r.closed = true
	}
}
