package core

// Frame is one serialized outbound message.
type Frame []byte

// ConnID identifies one live connection inside its room.
type ConnID string

// SignalConnection abstracts the messaging transport of one client.
// Owned by the adapter; the adapter must Close() it. TrySend must never
// block: a full buffer or a closed connection is reported as an error and
// the room treats the connection as dead.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// RoomStats is a read-only view for the control API.
type RoomStats struct {
	Connections int `json:"connections"`
	OnlineUsers int `json:"onlineUsers"`
	Channels    int `json:"channels"`
}
