package core

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/roomhub/internal/domain"
	"github.com/dkeye/roomhub/internal/metrics"
)

// presenceEntry exists for a user iff at least one connection carrying that
// user id is open. attached holds those connection ids.
type presenceEntry struct {
	identity domain.Identity
	lastSeen time.Time
	attached map[ConnID]struct{}
}

// PresenceDTO is the read-only view returned by the control API and carried
// as the payload of presence_* frames.
type PresenceDTO struct {
	ID        domain.UserID `json:"id"`
	Name      string        `json:"name,omitempty"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
	LastSeen  int64         `json:"lastSeen"`
}

func (e *presenceEntry) dto() PresenceDTO {
	return PresenceDTO{
		ID:        e.identity.UserID,
		Name:      e.identity.Name,
		AvatarURL: e.identity.AvatarURL,
		LastSeen:  e.lastSeen.UnixMilli(),
	}
}

// registerPresence creates or refreshes the entry for identity.UserID and
// attaches connID. First attachment announces presence_join to everyone else;
// repeats announce presence_update.
func (r *Room) registerPresence(identity *domain.Identity, connID ConnID) {
	e, ok := r.presence[identity.UserID]
	if !ok {
		e = &presenceEntry{
			identity: *identity,
			attached: make(map[ConnID]struct{}),
		}
		r.presence[identity.UserID] = e
		metrics.OnlineUsers.Inc()
	} else {
		// Latest connect wins for name/avatar.
		e.identity = *identity
	}
	e.attached[connID] = struct{}{}
	e.lastSeen = time.Now()

	typ := TypePresenceUpdate
	if !ok {
		typ = TypePresenceJoin
	}
	log.Info().Str("module", "core.presence").Str("room", string(r.id)).Str("user", string(identity.UserID)).Str("event", typ).Msg("presence registered")
	r.announcePresence(typ, e, connID)
}

// touch refreshes lastSeen without changing membership. Unknown users are a
// no-op; anonymous connections never reach here.
func (r *Room) touch(userID domain.UserID) {
	if e, ok := r.presence[userID]; ok {
		e.lastSeen = time.Now()
	}
}

// deregisterIfEmpty detaches connID and deletes the entry the instant the
// last attached connection is gone, announcing presence_leave.
func (r *Room) deregisterIfEmpty(userID domain.UserID, connID ConnID) {
	e, ok := r.presence[userID]
	if !ok {
		return
	}
	delete(e.attached, connID)
	if len(e.attached) > 0 {
		return
	}
	delete(r.presence, userID)
	metrics.OnlineUsers.Dec()
	log.Info().Str("module", "core.presence").Str("room", string(r.id)).Str("user", string(userID)).Msg("presence left")
	r.announcePresence(TypePresenceLeave, e, connID)
}

func (r *Room) announcePresence(typ string, e *presenceEntry, exclude ConnID) {
	o := NewOutbound(typ)
	o.Channel = domain.ChannelPresence
	o.Payload = e.dto()
	r.broadcastFrame(domain.ChannelPresence, o, exclude)
}

// Presence snapshots all live entries for the control API.
func (r *Room) Presence() []PresenceDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PresenceDTO, 0, len(r.presence))
	for _, e := range r.presence {
		out = append(out, e.dto())
	}
	return out
}
