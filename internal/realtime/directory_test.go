package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records deliveries so tests can assert on routing without a
// real socket.
type fakeConn struct {
	id string

	mu        sync.Mutex
	delivered []*Message
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Deliver(msg *Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, msg)
}

func (f *fakeConn) deliveries() []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Message, len(f.delivered))
	copy(out, f.delivered)
	return out
}

func TestRegisterThenLookup(t *testing.T) {
	d := NewDirectory()
	conn := newFakeConn("conn-1")

	d.Register("user-1", conn)

	got, ok := d.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, "conn-1", got.ID())
}

func TestLookupUnknownUser(t *testing.T) {
	d := NewDirectory()

	got, ok := d.Lookup("nobody")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRegisterLastWins(t *testing.T) {
	d := NewDirectory()
	first := newFakeConn("conn-a")
	second := newFakeConn("conn-b")

	d.Register("user-1", first)
	d.Register("user-1", second)

	got, ok := d.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, "conn-b", got.ID())
	assert.Equal(t, 1, d.Len())
}

func TestRemoveByConnection(t *testing.T) {
	d := NewDirectory()
	conn := newFakeConn("conn-1")
	d.Register("user-1", conn)

	d.RemoveByConnection(conn)

	_, ok := d.Lookup("user-1")
	assert.False(t, ok)
	assert.Equal(t, 0, d.Len())
}

func TestRemoveByConnectionUnknownHandle(t *testing.T) {
	d := NewDirectory()
	d.Register("user-1", newFakeConn("conn-1"))

	// Removing a connection the directory never saw must not disturb
	// existing entries.
	d.RemoveByConnection(newFakeConn("conn-other"))

	assert.True(t, d.Online("user-1"))
}

func TestRemoveByConnectionStaleHandle(t *testing.T) {
	d := NewDirectory()
	stale := newFakeConn("conn-old")
	fresh := newFakeConn("conn-new")

	d.Register("user-1", stale)
	d.Register("user-1", fresh)

	// The superseded connection disconnecting must not evict the
	// current one.
	d.RemoveByConnection(stale)

	got, ok := d.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, "conn-new", got.ID())

	// Removing the current connection does evict it.
	d.RemoveByConnection(fresh)
	_, ok = d.Lookup("user-1")
	assert.False(t, ok)
}

func TestNotifyDeliversToRegisteredConnection(t *testing.T) {
	d := NewDirectory()
	conn := newFakeConn("conn-1")
	d.Register("user-1", conn)

	msg := NewMessage(MessageTypeNotification, NotificationPayload{
		Type:    "like",
		Message: "alice liked your post",
		PostID:  "post-42",
	})
	d.Notify("user-1", msg)

	delivered := conn.deliveries()
	require.Len(t, delivered, 1)
	assert.Equal(t, MessageTypeNotification, delivered[0].Type)

	payload, ok := delivered[0].Payload.(NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, "like", payload.Type)
	assert.Equal(t, "alice liked your post", payload.Message)
	assert.Equal(t, "post-42", payload.PostID)
}

func TestNotifyOfflineUserDropsSilently(t *testing.T) {
	d := NewDirectory()
	conn := newFakeConn("conn-1")
	d.Register("user-1", conn)

	d.Notify("someone-else", NewMessage(MessageTypeNotification, NotificationPayload{
		Message: "nobody is listening",
	}))

	assert.Empty(t, conn.deliveries())
}

func TestNotifyAfterSupersededRoutesToNewConnection(t *testing.T) {
	d := NewDirectory()
	old := newFakeConn("conn-old")
	current := newFakeConn("conn-new")

	d.Register("user-1", old)
	d.Register("user-1", current)

	d.Notify("user-1", NewMessage(MessageTypeNotification, NotificationPayload{
		Message: "hello",
	}))

	assert.Empty(t, old.deliveries())
	assert.Len(t, current.deliveries(), 1)
}

func TestOnlineUsers(t *testing.T) {
	d := NewDirectory()
	d.Register("user-1", newFakeConn("c1"))
	d.Register("user-2", newFakeConn("c2"))

	users := d.OnlineUsers()
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, users)
	assert.True(t, d.Online("user-1"))
	assert.False(t, d.Online("user-3"))
}

func TestClear(t *testing.T) {
	d := NewDirectory()
	d.Register("user-1", newFakeConn("c1"))
	d.Register("user-2", newFakeConn("c2"))

	d.Clear()

	assert.Equal(t, 0, d.Len())
	assert.False(t, d.Online("user-1"))
}

func TestConcurrentRegisterAndRemove(t *testing.T) {
	d := NewDirectory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%10)
			conn := newFakeConn(fmt.Sprintf("conn-%d", n))
			d.Register(userID, conn)
			d.Notify(userID, NewMessage(MessageTypeNotification, NotificationPayload{Message: "ping"}))
			d.RemoveByConnection(conn)
		}(i)
	}
	wg.Wait()

	// Every goroutine removed what it registered unless superseded;
	// either way the directory never maps a user to a removed handle.
	for _, userID := range d.OnlineUsers() {
		conn, ok := d.Lookup(userID)
		assert.True(t, ok)
		assert.NotNil(t, conn)
	}
}
