package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

func (ctl *SignalWSController) handleCodeUpdate(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.CodePayload
	if !ctl.decode(env, &p) {
		return false
	}
	return ctl.Orch.UpdateCode(sid, env.RoomID, *p.Code)
}

func (ctl *SignalWSController) handleLanguageChanged(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.LanguagePayload
	if !ctl.decode(env, &p) {
		return false
	}
	return ctl.Orch.ChangeLanguage(sid, env.RoomID, p.Language)
}

func (ctl *SignalWSController) handleCursorChange(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.CursorPayload
	if !ctl.decode(env, &p) {
		return false
	}
	return ctl.Orch.MoveCursor(sid, env.RoomID, p)
}

func (ctl *SignalWSController) handleUserTyping(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.NamePayload
	if !ctl.decode(env, &p) {
		return false
	}
	return ctl.Orch.StartTyping(sid, env.RoomID, p.Name)
}

func (ctl *SignalWSController) handleStopTyping(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.NamePayload
	if !ctl.decode(env, &p) {
		return false
	}
	return ctl.Orch.StopTyping(sid, env.RoomID, p.Name)
}

func (ctl *SignalWSController) handleRunCode(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.RunPayload
	if !ctl.decode(env, &p) {
		return false
	}
	if !ctl.opts.RunLimiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("run-code throttled")
		return false
	}
	_, ok := ctl.Orch.RunCode(sid, env.RoomID, p)
	return ok
}
