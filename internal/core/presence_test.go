package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/roomhub/internal/domain"
)

func presenceTypes(t *testing.T, c *fakeConn) []string {
	t.Helper()
	var types []string
	for _, o := range c.outbound(t) {
		types = append(types, o.Type)
	}
	return types
}

func TestPresence_ExistsIffAttached(t *testing.T) {
	room := NewRoom("r1")

	// Two connections carrying the same user.
	c1, c2 := &fakeConn{}, &fakeConn{}
	id1 := room.Accept(c1, ident(t, "u1", "Alice"))
	id2 := room.Accept(c2, ident(t, "u1", "Alice"))

	require.Len(t, room.Presence(), 1)
	assert.Equal(t, domain.UserID("u1"), room.Presence()[0].ID)

	// Entry survives losing one of two attached connections.
	room.Disconnect(id1)
	require.Len(t, room.Presence(), 1)

	// Gone the instant the last one closes.
	room.Disconnect(id2)
	assert.Empty(t, room.Presence())
}

func TestPresence_JoinUpdateLeaveFrames(t *testing.T) {
	room := NewRoom("r1")
	watcher := &fakeConn{}
	room.Accept(watcher, nil)

	c1 := &fakeConn{}
	id1 := room.Accept(c1, ident(t, "u1", "Alice"))
	assert.Equal(t, []string{TypePresenceJoin}, presenceTypes(t, watcher))

	// Same user again: update, not a second join.
	c2 := &fakeConn{}
	id2 := room.Accept(c2, ident(t, "u1", "Alice"))
	assert.Equal(t, []string{TypePresenceJoin, TypePresenceUpdate}, presenceTypes(t, watcher))

	room.Disconnect(id1)
	assert.Equal(t, []string{TypePresenceJoin, TypePresenceUpdate}, presenceTypes(t, watcher))

	room.Disconnect(id2)
	assert.Equal(t, []string{TypePresenceJoin, TypePresenceUpdate, TypePresenceLeave}, presenceTypes(t, watcher))
}

func TestPresence_ImplicitChannel(t *testing.T) {
	room := NewRoom("r1")
	// Never subscribes to anything, still sees presence traffic.
	watcher := &fakeConn{}
	room.Accept(watcher, nil)

	room.Accept(&fakeConn{}, ident(t, "u1", ""))

	got := watcher.outbound(t)
	require.Len(t, got, 1)
	assert.Equal(t, TypePresenceJoin, got[0].Type)
	assert.Equal(t, domain.ChannelPresence, got[0].Channel)
}

func TestPresence_JoinExcludesJoiner(t *testing.T) {
	room := NewRoom("r1")
	c := &fakeConn{}
	room.Accept(c, ident(t, "u1", ""))
	assert.Empty(t, c.outbound(t))
}

func TestPresence_SnapshotFields(t *testing.T) {
	room := NewRoom("r1")
	room.Accept(&fakeConn{}, ident(t, "u1", "Alice"))

	users := room.Presence()
	require.Len(t, users, 1)
	assert.Equal(t, domain.UserID("u1"), users[0].ID)
	assert.Equal(t, "Alice", users[0].Name)
	assert.NotZero(t, users[0].LastSeen)
}

func TestPresence_TouchRebroadcastsUpdate(t *testing.T) {
	room := NewRoom("r1")
	watcher := &fakeConn{}
	room.Accept(watcher, nil)

	c := &fakeConn{}
	id := room.Accept(c, ident(t, "u1", ""))
	watcher.reset()

	room.Dispatch(id, []byte(`{"type":"presence","payload":{"status":"typing"}}`))

	got := watcher.outbound(t)
	require.Len(t, got, 1)
	assert.Equal(t, TypePresenceUpdate, got[0].Type)
	assert.Equal(t, map[string]any{"status": "typing"}, got[0].Payload)
	// The toucher does not hear its own update.
	assert.Empty(t, c.outbound(t))
}

func TestPresence_AnonymousTouchIsNoop(t *testing.T) {
	room := NewRoom("r1")
	watcher := &fakeConn{}
	room.Accept(watcher, nil)
	c := &fakeConn{}
	id := room.Accept(c, nil)

	room.Dispatch(id, []byte(`{"type":"presence"}`))
	assert.Empty(t, watcher.outbound(t))
	assert.Empty(t, room.Presence())
}
