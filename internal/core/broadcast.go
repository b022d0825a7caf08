package core

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/domain"
	"github.com/dkeye/roomhub/internal/metrics"
)

// Broadcast fans payload out on channel to every open, eligible connection
// except exclude ("" excludes nobody) and returns the delivered count.
// This is the control-API entry point; inbound broadcast frames take the
// same path through the dispatcher.
func (r *Room) Broadcast(channel domain.Channel, payload any, exclude ConnID) int {
	r.mu.Lock()
	n := r.broadcastFrame(channel, NewMessage(channel, payload), exclude)
	r.mu.Unlock()
	r.evictIfEmpty()
	return n
}

// broadcastFrame delivers one pre-built envelope. A connection is eligible
// when the channel is the reserved presence channel or in its explicit
// subscription set. A failed send tears that connection down in place and
// the loop carries on: one dead peer never aborts delivery to the rest.
func (r *Room) broadcastFrame(channel domain.Channel, o Outbound, exclude ConnID) int {
	frame, err := o.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.broadcast").Str("room", string(r.id)).Msg("encode frame")
		return 0
	}

	metrics.Broadcasts.Inc()
	delivered := 0
	for id, c := range r.conns {
		if id == exclude {
			continue
		}
		if channel != domain.ChannelPresence {
			if _, ok := c.channels[channel]; !ok {
				continue
			}
		}
		if err := c.signal.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "core.broadcast").Str("room", string(r.id)).Str("conn", string(id)).Msg("send failed, dropping connection")
			metrics.FramesDropped.Inc()
			r.disconnect(id)
			continue
		}
		delivered++
	}
	metrics.FramesDelivered.Add(float64(delivered))
	log.Debug().Str("module", "core.broadcast").Str("room", string(r.id)).Str("channel", string(channel)).Int("delivered", delivered).Msg("broadcast")
	return delivered
}
