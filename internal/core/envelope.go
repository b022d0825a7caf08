package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/roomhub/internal/domain"
)

// Inbound frame types. The set is closed: anything else is a protocol error
// answered with an error frame, never silently re-broadcast.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeBroadcast   = "broadcast"
	TypePresence    = "presence"
	TypePing        = "ping"
)

// Outbound frame types.
const (
	TypeSubscribed     = "subscribed"
	TypeUnsubscribed   = "unsubscribed"
	TypeMessage        = "message"
	TypePresenceJoin   = "presence_join"
	TypePresenceUpdate = "presence_update"
	TypePresenceLeave  = "presence_leave"
	TypePong           = "pong"
	TypeError          = "error"
)

var (
	ErrBadJSON        = errors.New("bad json")
	ErrUnknownType    = errors.New("unknown message type")
	ErrMissingChannel = errors.New("channel required")
	ErrMissingPayload = errors.New("payload required")
	ErrBadChannel     = errors.New("invalid channel name")
)

// Inbound is the tagged envelope read off the wire.
type Inbound struct {
	Type    string          `json:"type"`
	Channel domain.Channel  `json:"channel,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	UserID  string          `json:"userId,omitempty"`
}

// ParseInbound validates a raw frame against the closed union at the
// boundary, so handlers never see a half-formed envelope.
func ParseInbound(data []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	switch in.Type {
	case TypeSubscribe, TypeUnsubscribe:
		if in.Channel == "" {
			return nil, ErrMissingChannel
		}
		if !in.Channel.Valid() {
			return nil, ErrBadChannel
		}
	case TypeBroadcast:
		if in.Channel == "" {
			return nil, ErrMissingChannel
		}
		if !in.Channel.Valid() {
			return nil, ErrBadChannel
		}
		if len(in.Payload) == 0 {
			return nil, ErrMissingPayload
		}
	case TypePresence, TypePing:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
	return &in, nil
}

// Outbound is the envelope written to clients. Timestamp is unix millis.
type Outbound struct {
	Type      string         `json:"type"`
	Channel   domain.Channel `json:"channel,omitempty"`
	Payload   any            `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Message   string         `json:"message,omitempty"`
}

func NewOutbound(typ string) Outbound {
	return Outbound{Type: typ, Timestamp: time.Now().UnixMilli()}
}

func NewMessage(channel domain.Channel, payload any) Outbound {
	o := NewOutbound(TypeMessage)
	o.Channel = channel
	o.Payload = payload
	return o
}

func NewError(msg string) Outbound {
	o := NewOutbound(TypeError)
	o.Message = msg
	return o
}

// Encode marshals the envelope once so a broadcast serializes a single time
// regardless of fan-out width.
func (o Outbound) Encode() (Frame, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode outbound: %w", err)
	}
	return Frame(b), nil
}
