package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Conn is a live delivery channel for one connected user. Implementations
// wrap whatever transport the edge uses (websocket, SSE).
type Conn interface {
	ID() string
	Emit(ctx context.Context, event string, payload any) error
}

// Registry tracks the single live connection per user. A newer connection
// from the same user replaces the older one; disconnects only clear the
// mapping when it still points at the disconnecting connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]Conn)}
}

// Connect associates the connection with the user, replacing any previous one.
func (r *Registry) Connect(userID uuid.UUID, conn Conn) {
	if conn == nil || userID == uuid.Nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = conn
}

// Disconnect removes the association only if it still references conn.
func (r *Registry) Disconnect(userID uuid.UUID, conn Conn) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.conns[userID]
	if !ok || current.ID() != conn.ID() {
		return
	}
	delete(r.conns, userID)
}

// Lookup returns the live connection for the user, if any.
func (r *Registry) Lookup(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}
