package ws

import (
	"sort"
	"sync"
)

// Presence maps a user to the connection that currently represents them.
// The in-memory implementation is process-local; a shared store can satisfy
// the same interface when presence must span several instances.
type Presence interface {
	// Register binds userID to connID and returns the connection it replaced, if any.
	Register(userID, connID string) (previous string, replaced bool)
	// Unregister removes the entry only while it still points at connID.
	Unregister(userID, connID string) bool
	Lookup(userID string) (string, bool)
	Snapshot() []string
}

// MemoryPresence keeps one connection per user. A second registration for the
// same user overwrites the first.
type MemoryPresence struct {
	mu    sync.RWMutex
	conns map[string]string
}

// NewMemoryPresence creates an empty presence table.
func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{conns: make(map[string]string)}
}

func (p *MemoryPresence) Register(userID, connID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	previous, ok := p.conns[userID]
	p.conns[userID] = connID
	return previous, ok && previous != connID
}

func (p *MemoryPresence) Unregister(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.conns[userID]; !ok || current != connID {
		return false
	}
	delete(p.conns, userID)
	return true
}

func (p *MemoryPresence) Lookup(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.conns[userID]
	return connID, ok
}

// Snapshot returns the online user ids in sorted order.
func (p *MemoryPresence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	users := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}
