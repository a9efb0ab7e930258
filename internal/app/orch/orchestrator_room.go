package orch

import (
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join moves a bound connection into a room, creating the room on first
// use. Incomplete requests are dropped without touching any room.
func (o *Orchestrator) Join(sid domain.ConnectionID, p domain.JoinPayload) bool {
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	participant, err := domain.NewParticipant(sid, p.RoomID, p.DisplayName)
	if err != nil {
		log.Debug().Err(err).Str("sid", string(sid)).Msg("join rejected")
		return false
	}

	if current, _, ok := o.Registry.RoomOf(sid); ok {
		if current == participant.RoomID {
			log.Debug().Str("sid", string(sid)).Str("room", string(current)).Msg("already joined")
			return false
		}
		o.Leave(sid)
		log.Info().Str("sid", string(sid)).Str("from_room", string(current)).Msg("left previous room")
	}

	room := o.Rooms.GetOrCreate(participant.RoomID)
	session.UpdateMeta(participant)
	o.Registry.AttachRoom(sid, participant.RoomID)
	o.handle(room, room.Join(session))
	log.Info().Str("sid", string(sid)).Str("room", string(participant.RoomID)).Str("name", participant.DisplayName).Msg("added to room")
	return true
}

// Leave removes the connection from its room and tells the others. Repeated
// calls for the same connection are no-ops.
func (o *Orchestrator) Leave(sid domain.ConnectionID) bool {
	roomID, ok := o.Registry.DetachRoom(sid)
	if !ok {
		return false
	}
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return false
	}
	p, res, left := room.Leave(sid)
	if !left {
		return false
	}
	log.Info().Str("sid", string(sid)).Str("room", string(roomID)).Str("name", p.DisplayName).Msg("left room")
	o.handle(room, res)
	return true
}

func (o *Orchestrator) KickBySID(sid domain.ConnectionID) {
	o.Leave(sid)
	o.Registry.Cancel(sid)
	if sess, ok := o.Registry.GetSession(sid); ok {
		sess.Signal().Close()
	}
}

// OnDisconnect is safe to call any number of times for one connection.
func (o *Orchestrator) OnDisconnect(sid domain.ConnectionID) {
	o.Leave(sid)
	o.Registry.Unbind(sid)
}
