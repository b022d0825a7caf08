package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/domain"
)

// RoomManager owns all room instances by id. Rooms are created on first use
// and dropped once their last connection leaves; rooms never share state.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]*Room)}
}

func (m *RoomManager) GetOrCreate(id domain.RoomID) *Room {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[id]; ok {
		return room
	}
	room = NewRoom(id)
	room.onEmpty = m.evict
	m.rooms[id] = room
	log.Info().Str("module", "core.manager").Str("room", string(id)).Msg("room created")
	return room
}

// Get returns an existing room without creating one; the control API reads
// through this so inspecting a dead room does not resurrect it.
func (m *RoomManager) Get(id domain.RoomID) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// evict drops the room unless a connection raced in after the last one left.
func (m *RoomManager) evict(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok || room.ConnCount() > 0 {
		return
	}
	delete(m.rooms, id)
	log.Info().Str("module", "core.manager").Str("room", string(id)).Msg("empty room evicted")
}

// RoomInfo is the listing view for the control API.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	Connections int           `json:"connections"`
	OnlineUsers int           `json:"onlineUsers"`
}

func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	// Stats are taken outside the manager lock: rooms lock themselves and
	// may call back into the manager on eviction.
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		s := r.Stats()
		out = append(out, RoomInfo{ID: r.ID(), Connections: s.Connections, OnlineUsers: s.OnlineUsers})
	}
	return out
}

// Shutdown closes every connection in every room.
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.rooms = make(map[domain.RoomID]*Room)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}
