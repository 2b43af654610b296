package session

import "sync"

// Manager routes session IDs to their contexts. Each session carries its own
// lock, so one session's turns run strictly in order while unrelated
// sessions proceed concurrently. There is no global lock on the hot path
// beyond the map lookup.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	mu  sync.Mutex
	ctx *Context
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*entry)}
}

// Acquire returns the context for id, creating it on first use, with its
// per-session lock held. The caller must invoke the returned release
// function when the turn is finished.
func (m *Manager) Acquire(id string) (*Context, func()) {
	e := m.entry(id)
	e.mu.Lock()
	return e.ctx, e.mu.Unlock
}

func (m *Manager) entry(id string) *entry {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return e
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.sessions[id]; ok {
		return e
	}
	e = &entry{ctx: newContext()}
	m.sessions[id] = e
	return e
}

// Reset clears the session's state and reports whether the session existed.
// The session entry stays registered so an in-flight turn finishing later
// merges into a fresh context rather than a stale one.
func (m *Manager) Reset(id string) bool {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.ctx.Reset()
	e.mu.Unlock()
	return true
}

// Len reports the number of known sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
