package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomManager_GetOrCreate(t *testing.T) {
	m := NewRoomManager()
	r1 := m.GetOrCreate("a")
	r2 := m.GetOrCreate("a")
	assert.Same(t, r1, r2)

	r3 := m.GetOrCreate("b")
	assert.NotSame(t, r1, r3)
}

func TestRoomManager_EvictsEmptyRoom(t *testing.T) {
	m := NewRoomManager()
	room := m.GetOrCreate("a")

	c1, c2 := &fakeConn{}, &fakeConn{}
	id1 := room.Accept(c1, nil)
	id2 := room.Accept(c2, nil)

	room.Disconnect(id1)
	_, ok := m.Get("a")
	assert.True(t, ok)

	room.Disconnect(id2)
	_, ok = m.Get("a")
	assert.False(t, ok)
}

func TestRoomManager_GetDoesNotCreate(t *testing.T) {
	m := NewRoomManager()
	_, ok := m.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, m.List())
}

func TestRoomManager_List(t *testing.T) {
	m := NewRoomManager()
	a := m.GetOrCreate("a")
	a.Accept(&fakeConn{}, ident(t, "u1", ""))
	a.Accept(&fakeConn{}, nil)
	m.GetOrCreate("b").Accept(&fakeConn{}, nil)

	infos := m.List()
	require.Len(t, infos, 2)
	byID := make(map[string]RoomInfo, len(infos))
	for _, i := range infos {
		byID[string(i.ID)] = i
	}
	assert.Equal(t, 2, byID["a"].Connections)
	assert.Equal(t, 1, byID["a"].OnlineUsers)
	assert.Equal(t, 1, byID["b"].Connections)
}

func TestRoomManager_Shutdown(t *testing.T) {
	m := NewRoomManager()
	c := &fakeConn{}
	m.GetOrCreate("a").Accept(c, nil)

	m.Shutdown()
	assert.True(t, c.isClosed())
	_, ok := m.Get("a")
	assert.False(t, ok)
}
