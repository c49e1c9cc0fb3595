// Package realtime maps user identities to live socket connections and
// routes best-effort notifications to them.
package realtime

import (
	"sync"

	"github.com/inkwell-app/backend/internal/metrics"
)

// Connection is one live socket as the directory sees it: an opaque,
// process-unique handle that can accept an outbound message.
type Connection interface {
	// ID returns the handle assigned by the transport at accept time
	ID() string

	// Deliver enqueues a message for the connection without blocking.
	// Delivery is best-effort; a full buffer or a dying connection
	// drops the message silently.
	Deliver(msg *Message)
}

// Directory is the in-memory presence map from user identity to the
// user's current connection. It is process-scoped: constructed once at
// startup, injected into the transport handler and the HTTP handlers,
// and cleared at shutdown. Nothing is persisted; reconnecting clients
// re-register.
type Directory struct {
	mu     sync.RWMutex
	byUser map[string]Connection
}

// NewDirectory creates an empty presence directory
func NewDirectory() *Directory {
	return &Directory{
		byUser: make(map[string]Connection),
	}
}

// Register inserts or overwrites the mapping for userID. Last
// registration wins; a superseded connection is not closed, it just
// stops receiving notifications. Never fails.
func (d *Directory) Register(userID string, conn Connection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byUser[userID] = conn
}

// Lookup returns the connection currently representing userID.
// A missing entry means the user is offline.
func (d *Directory) Lookup(userID string) (Connection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.byUser[userID]
	return conn, ok
}

// RemoveByConnection removes the entry whose value is this connection.
// No-op when the handle is unknown or stale: a connection that was
// superseded by a newer registration must not evict the newer one.
func (d *Directory) RemoveByConnection(conn Connection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for userID, current := range d.byUser {
		if current.ID() == conn.ID() {
			delete(d.byUser, userID)
			return
		}
	}
}

// Notify delivers msg to userID's connection if one is registered and
// silently drops it otherwise. No queuing, no retry, no error: absence
// is a normal outcome, and delivery failures past this point are the
// connection's problem.
func (d *Directory) Notify(userID string, msg *Message) {
	conn, ok := d.Lookup(userID)
	if !ok {
		metrics.Get().NotificationsDropped.WithLabelValues(msg.Type).Inc()
		return
	}
	conn.Deliver(msg)
	metrics.Get().NotificationsDelivered.WithLabelValues(msg.Type).Inc()
}

// Online reports whether userID currently has a registered connection
func (d *Directory) Online(userID string) bool {
	_, ok := d.Lookup(userID)
	return ok
}

// OnlineUsers returns the user IDs with a registered connection
func (d *Directory) OnlineUsers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	users := make([]string, 0, len(d.byUser))
	for userID := range d.byUser {
		users = append(users, userID)
	}
	return users
}

// Len returns the number of registered entries
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byUser)
}

// Clear empties the directory. Called at shutdown.
func (d *Directory) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byUser = make(map[string]Connection)
}
