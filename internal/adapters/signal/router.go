package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// handlerFunc applies one inbound event. It reports false when the event was
// dropped: malformed, throttled, or aimed at a room the sender is not in.
type handlerFunc func(ctl *SignalWSController, sid domain.ConnectionID, conn *WsSignalConn, env domain.Envelope) bool

var handlers = map[domain.EventType]handlerFunc{
	domain.EventJoinRoom:        (*SignalWSController).handleJoin,
	domain.EventLeaveRoom:       (*SignalWSController).handleLeave,
	domain.EventCodeUpdate:      (*SignalWSController).handleCodeUpdate,
	domain.EventLanguageChanged: (*SignalWSController).handleLanguageChanged,
	domain.EventCursorChange:    (*SignalWSController).handleCursorChange,
	domain.EventUserTyping:      (*SignalWSController).handleUserTyping,
	domain.EventStopTyping:      (*SignalWSController).handleStopTyping,
	domain.EventRunCode:         (*SignalWSController).handleRunCode,
	domain.EventSendMessage:     (*SignalWSController).handleSendMessage,
	domain.EventPing:            (*SignalWSController).handlePing,
}

// decode unmarshals and validates the payload of env into v.
func (ctl *SignalWSController) decode(env domain.Envelope, v any) bool {
	if len(env.Payload) == 0 {
		log.Debug().Str("module", "signal").Str("type", string(env.Type)).Msg("missing payload")
		return false
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("type", string(env.Type)).Msg("bad payload")
		return false
	}
	if err := ctl.validate.Struct(v); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("type", string(env.Type)).Msg("invalid payload")
		return false
	}
	return true
}
