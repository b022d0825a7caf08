package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/domain"
	"github.com/dkeye/roomhub/internal/metrics"
)

// conn is the room-side record of one live connection: its transport,
// its explicit channel subscriptions and the identity attached at accept time.
type conn struct {
	id       ConnID
	signal   SignalConnection
	channels map[domain.Channel]struct{}
	identity *domain.Identity
}

// Room is one isolated hub instance. Every event — inbound frame, accept,
// teardown, control-API call — runs to completion under a single mutex, so
// the registries below need no locking of their own and no invariant is ever
// observable in a broken intermediate state.
//
// Exported methods take the lock; lowercase helpers assume it is held.
type Room struct {
	id domain.RoomID

	mu       sync.Mutex
	conns    map[ConnID]*conn
	presence map[domain.UserID]*presenceEntry

	// onEmpty fires after the last connection leaves; set by the manager.
	onEmpty func(domain.RoomID)
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:       id,
		conns:    make(map[ConnID]*conn),
		presence: make(map[domain.UserID]*presenceEntry),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

// Accept registers a new open connection with an empty subscription set.
// It cannot fail: the transport-level accept already happened by the time
// the room hears about it.
func (r *Room) Accept(sig SignalConnection, identity *domain.Identity) ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ConnID(uuid.NewString())
	r.conns[id] = &conn{
		id:       id,
		signal:   sig,
		channels: make(map[domain.Channel]struct{}),
		identity: identity,
	}
	metrics.OpenConnections.Inc()
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("connection accepted")

	if identity != nil {
		r.registerPresence(identity, id)
	}
	return id
}

// Disconnect is the single funnel for all teardown: explicit close, transport
// error and failed send all route here. Unknown ids are a no-op.
func (r *Room) Disconnect(id ConnID) {
	r.mu.Lock()
	r.disconnect(id)
	r.mu.Unlock()
	r.evictIfEmpty()
}

// evictIfEmpty fires the manager hook once the last connection is gone.
// Called after the event lock is released; teardown inside a broadcast also
// ends up here via the exported entry point that triggered it.
func (r *Room) evictIfEmpty() {
	r.mu.Lock()
	empty := len(r.conns) == 0
	r.mu.Unlock()
	if empty && r.onEmpty != nil {
		r.onEmpty(r.id)
	}
}

func (r *Room) disconnect(id ConnID) {
	c, ok := r.conns[id]
	if !ok {
		return
	}
	delete(r.conns, id)
	c.signal.Close()
	metrics.OpenConnections.Dec()
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("connection closed")

	if c.identity != nil {
		r.deregisterIfEmpty(c.identity.UserID, id)
	}
}

// Close tears down every remaining connection, e.g. on server shutdown.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.conns {
		r.disconnect(id)
	}
}

func (r *Room) subscribe(c *conn, channel domain.Channel) {
	c.channels[channel] = struct{}{}
}

func (r *Room) unsubscribe(c *conn, channel domain.Channel) {
	delete(c.channels, channel)
}

// ConnCount reports the number of open connections.
func (r *Room) ConnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Stats snapshots the room for the control API. Channels counts distinct
// explicit subscriptions; the implicit presence channel is not included.
func (r *Room) Stats() RoomStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := make(map[domain.Channel]struct{})
	for _, c := range r.conns {
		for ch := range c.channels {
			channels[ch] = struct{}{}
		}
	}
	return RoomStats{
		Connections: len(r.conns),
		OnlineUsers: len(r.presence),
		Channels:    len(channels),
	}
}

// send delivers a frame to a single connection; a failed send means the
// connection is dead and it is torn down on the spot.
func (r *Room) send(c *conn, o Outbound) bool {
	frame, err := o.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("room", string(r.id)).Msg("encode frame")
		return false
	}
	if err := c.signal.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(c.id)).Msg("send failed, dropping connection")
		metrics.FramesDropped.Inc()
		r.disconnect(c.id)
		return false
	}
	return true
}
