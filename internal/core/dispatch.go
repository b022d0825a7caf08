package core

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/domain"
)

// Dispatch runs one inbound frame from connID to completion. Malformed or
// unrecognized frames earn the sender an error frame and nothing more; the
// connection stays open. A recover fence keeps a single bad event from
// corrupting the registries or stalling the room.
//
// Frames from connections that already closed are dropped silently: the
// adapter's read loop may still be draining when teardown has happened
// elsewhere (e.g. a failed send mid-broadcast).
func (r *Room) Dispatch(connID ConnID, data []byte) {
	r.mu.Lock()
	r.dispatch(connID, data)
	r.mu.Unlock()
	r.evictIfEmpty()
}

func (r *Room) dispatch(connID ConnID, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("module", "core.dispatch").Str("room", string(r.id)).Str("conn", string(connID)).Interface("panic", rec).Msg("recovered from handler panic")
		}
	}()

	c, ok := r.conns[connID]
	if !ok {
		return
	}

	in, err := ParseInbound(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.dispatch").Str("room", string(r.id)).Str("conn", string(connID)).Msg("protocol error")
		r.send(c, NewError(err.Error()))
		return
	}

	switch in.Type {
	case TypeSubscribe:
		r.subscribe(c, in.Channel)
		o := NewOutbound(TypeSubscribed)
		o.Channel = in.Channel
		r.send(c, o)

	case TypeUnsubscribe:
		r.unsubscribe(c, in.Channel)
		o := NewOutbound(TypeUnsubscribed)
		o.Channel = in.Channel
		r.send(c, o)

	case TypeBroadcast:
		r.broadcastFrame(in.Channel, NewMessage(in.Channel, in.Payload), connID)

	case TypePresence:
		if c.identity == nil {
			return
		}
		r.touch(c.identity.UserID)
		if e, ok := r.presence[c.identity.UserID]; ok {
			o := NewOutbound(TypePresenceUpdate)
			o.Channel = domain.ChannelPresence
			if len(in.Payload) > 0 {
				o.Payload = in.Payload
			} else {
				o.Payload = e.dto()
			}
			r.broadcastFrame(domain.ChannelPresence, o, connID)
		}

	case TypePing:
		r.send(c, NewOutbound(TypePong))
	}
}
