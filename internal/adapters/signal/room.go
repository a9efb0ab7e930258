package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	sid domain.ConnectionID,
	_ *WsSignalConn,
	env domain.Envelope,
) bool {
	var p domain.JoinPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Debug().Err(err).Str("module", "signal").Msg("bad join payload")
			return false
		}
	}
	if p.RoomID == "" {
		p.RoomID = env.RoomID
	}
	if err := ctl.validate.Struct(&p); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("incomplete join")
		return false
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(p.RoomID)).Msg("join")
	return ctl.Orch.Join(sid, p)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(
	sid domain.ConnectionID,
	_ *WsSignalConn,
	_ domain.Envelope,
) bool {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	return ctl.Orch.Leave(sid)
}
