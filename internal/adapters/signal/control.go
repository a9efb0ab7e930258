package signal

import "github.com/dkeye/CodeRoom/internal/domain"

func (ctl *SignalWSController) handlePing(
	_ domain.ConnectionID,
	conn *WsSignalConn,
	_ domain.Envelope,
) bool {
	ctl.sendJSON(conn, domain.EventPong, nil)
	return true
}
