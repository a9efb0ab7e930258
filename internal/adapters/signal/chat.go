package signal

import "github.com/dkeye/CodeRoom/internal/domain"

// handleSendMessage relays a chat line inside the sender's room only.
func (ctl *SignalWSController) handleSendMessage(sid domain.ConnectionID, _ *WsSignalConn, env domain.Envelope) bool {
	var p domain.ChatPayload
	if !ctl.decode(env, &p) {
		return false
	}
	return ctl.Orch.SendMessage(sid, env.RoomID, p.Text)
}
