package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// EncodeEnvelope builds the wire frame for one outbound event.
func EncodeEnvelope(typ domain.EventType, roomID domain.RoomID, sender domain.ConnectionID, payload any) (Frame, error) {
	env := domain.Envelope{Type: typ, RoomID: roomID, SenderID: sender}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", typ, err)
		}
		env.Payload = raw
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", typ, err)
	}
	return b, nil
}
