// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxDisplayNameLen = 64
	MaxRoomIDLen      = 128
)

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrRoomIDEmpty        = errors.New("room id empty")
	ErrRoomIDTooLong      = errors.New("room id too long")
)

type ConnectionID string

// Participant is one live connection inside a room. RoomID is set once at join.
type Participant struct {
	ConnectionID ConnectionID `json:"connectionId"`
	DisplayName  string       `json:"displayName"`
	RoomID       RoomID       `json:"roomId"`
}

// NewParticipant avoids raw literals in adapters and keeps validation in one place.
func NewParticipant(cid ConnectionID, roomID RoomID, displayName string) (*Participant, error) {
	roomID = RoomID(strings.TrimSpace(string(roomID)))
	displayName = strings.TrimSpace(displayName)
	if roomID == "" {
		return nil, ErrRoomIDEmpty
	}
	if len(roomID) > MaxRoomIDLen {
		return nil, ErrRoomIDTooLong
	}
	if displayName == "" {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	return &Participant{ConnectionID: cid, DisplayName: displayName, RoomID: roomID}, nil
}
