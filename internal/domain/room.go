package domain

type (
	RoomID  string
	Channel string
)

const (
	// ChannelPresence is reserved: every open connection is implicitly
	// subscribed to it and presence_* frames are emitted on it.
	ChannelPresence Channel = "presence"

	MaxChannelLen = 64
)

func (c Channel) Valid() bool {
	return len(c) > 0 && len(c) <= MaxChannelLen
}
