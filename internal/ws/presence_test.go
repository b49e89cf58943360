package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryPresenceRegisterOverwrites(t *testing.T) {
	p := NewMemoryPresence()

	_, replaced := p.Register("u1", "c1")
	assert.False(t, replaced)

	previous, replaced := p.Register("u1", "c2")
	assert.True(t, replaced)
	assert.Equal(t, "c1", previous)

	connID, ok := p.Lookup("u1")
	assert.True(t, ok)
	assert.Equal(t, "c2", connID)
}

func TestMemoryPresenceUnregisterStaleConnection(t *testing.T) {
	p := NewMemoryPresence()
	p.Register("u1", "c1")
	p.Register("u1", "c2")

	assert.False(t, p.Unregister("u1", "c1"))
	_, ok := p.Lookup("u1")
	assert.True(t, ok)

	assert.True(t, p.Unregister("u1", "c2"))
	_, ok = p.Lookup("u1")
	assert.False(t, ok)
}

func TestMemoryPresenceSnapshotSorted(t *testing.T) {
	p := NewMemoryPresence()
	p.Register("u3", "c3")
	p.Register("u1", "c1")
	p.Register("u2", "c2")

	assert.Equal(t, []string{"u1", "u2", "u3"}, p.Snapshot())
}
