package orch

import (
	"context"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/execution"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Executor runs code for rooms. Dispatch returns at once and the result
// comes back through DeliverOutput; Run blocks until the result is ready.
type Executor interface {
	Dispatch(req execution.RunRequest) string
	Run(ctx context.Context, roomID domain.RoomID, code string, lang domain.Language) domain.ExecutionResult
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Exec     Executor
}

// roomFor resolves the room an event targets. Only the room the sender has
// joined resolves; any other id, known or not, is a no-op for the caller.
func (o *Orchestrator) roomFor(sid domain.ConnectionID, roomID domain.RoomID) (core.RoomService, bool) {
	joined, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, false
	}
	if roomID != "" && roomID != joined {
		log.Debug().Str("sid", string(sid)).Str("room", string(roomID)).Str("joined", string(joined)).Msg("event for foreign room dropped")
		return nil, false
	}
	room, ok := o.Rooms.GetRoom(joined)
	if !ok || !room.Has(sid) {
		return nil, false
	}
	return room, true
}

func (o *Orchestrator) UpdateCode(sid domain.ConnectionID, roomID domain.RoomID, code string) bool {
	room, ok := o.roomFor(sid, roomID)
	if !ok {
		return false
	}
	o.handle(room, room.UpdateCode(sid, code))
	return true
}

func (o *Orchestrator) ChangeLanguage(sid domain.ConnectionID, roomID domain.RoomID, lang domain.Language) bool {
	room, ok := o.roomFor(sid, roomID)
	if !ok {
		return false
	}
	o.handle(room, room.ChangeLanguage(sid, lang))
	return true
}

func (o *Orchestrator) MoveCursor(sid domain.ConnectionID, roomID domain.RoomID, cursor domain.CursorPayload) bool {
	room, ok := o.roomFor(sid, roomID)
	if !ok {
		return false
	}
	o.handle(room, room.MoveCursor(sid, cursor))
	return true
}

func (o *Orchestrator) StartTyping(sid domain.ConnectionID, roomID domain.RoomID, name string) bool {
	room, ok := o.roomFor(sid, roomID)
	if !ok {
		return false
	}
	o.handle(room, room.StartTyping(sid, name))
	return true
}

func (o *Orchestrator) StopTyping(sid domain.ConnectionID, roomID domain.RoomID, name string) bool {
	room, ok := o.roomFor(sid, roomID)
	if !ok {
		return false
	}
	o.handle(room, room.StopTyping(sid, name))
	return true
}

// SendMessage relays a chat line to the sender's room.
func (o *Orchestrator) SendMessage(sid domain.ConnectionID, roomID domain.RoomID, text string) bool {
	room, ok := o.roomFor(sid, roomID)
	if !ok {
		return false
	}
	o.handle(room, room.SendMessage(sid, text))
	return true
}

// RunCode hands the request to the executor and returns at once; the result
// reaches the room through DeliverOutput.
func (o *Orchestrator) RunCode(sid domain.ConnectionID, roomID domain.RoomID, p domain.RunPayload) (string, bool) {
	room, ok := o.roomFor(sid, roomID)
	if !ok || o.Exec == nil {
		return "", false
	}
	id := o.Exec.Dispatch(execution.RunRequest{
		RoomID:    room.ID(),
		Requester: sid,
		RequestID: p.RequestID,
		Code:      p.Code,
		Language:  p.Language,
	})
	log.Info().Str("sid", string(sid)).Str("room", string(room.ID())).Str("request_id", id).Str("language", string(p.Language)).Msg("run dispatched")
	return id, true
}

// DeliverOutput fans one execution result out to the whole room. The
// requester may have left meanwhile; the rest of the room still gets it.
func (o *Orchestrator) DeliverOutput(res domain.ExecutionResult) {
	room, ok := o.Rooms.GetRoom(res.RoomID)
	if !ok {
		log.Warn().Str("room", string(res.RoomID)).Msg("output for unknown room dropped")
		return
	}
	o.handle(room, room.PublishOutput(res))
}

func (o *Orchestrator) handle(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("sid", string(slow.ID())).Str("room", string(room.ID())).Msg("kicking slow member")
			o.KickBySID(slow.ID())
		case app.NoAction:
		}
	}
}
