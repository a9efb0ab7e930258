package domain

import "encoding/json"

type EventType string

// Inbound
const (
	EventJoinRoom        EventType = "join-room"
	EventLeaveRoom       EventType = "leave-room"
	EventCodeUpdate      EventType = "code-update"
	EventLanguageChanged EventType = "language-changed"
	EventCursorChange    EventType = "cursor-change"
	EventUserTyping      EventType = "user-typing"
	EventStopTyping      EventType = "stop-typing"
	EventRunCode         EventType = "run-code"
	EventSendMessage     EventType = "send-message"
	EventPing            EventType = "ping"
)

// Outbound
const (
	EventCurrentState    EventType = "current-state"
	EventUserJoined      EventType = "user-joined"
	EventUserLeft        EventType = "left the room"
	EventCodeUpdated     EventType = "code-updated"
	EventLanguageUpdated EventType = "language-updated"
	EventTyping          EventType = "typing"
	EventCodeOutput      EventType = "code-output"
	EventMessage         EventType = "message"
	EventPong            EventType = "pong"
)

// Envelope is the unit exchanged over the transport. SenderID is always
// stamped by the server; whatever a client puts there is ignored.
type Envelope struct {
	Type     EventType       `json:"type"`
	RoomID   RoomID          `json:"roomId,omitempty"`
	SenderID ConnectionID    `json:"senderId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	RoomID      RoomID `json:"roomId" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
}

// CodePayload uses a pointer so an empty buffer is told apart from a
// missing field.
type CodePayload struct {
	Code *string `json:"code" validate:"required"`
}

type LanguagePayload struct {
	Language Language `json:"language" validate:"required"`
}

type Position struct {
	LineNumber int `json:"lineNumber" validate:"gte=0"`
	Column     int `json:"column" validate:"gte=0"`
}

type CursorPayload struct {
	Name     string   `json:"name" validate:"required"`
	Position Position `json:"position"`
}

type NamePayload struct {
	Name string `json:"name" validate:"required"`
}

type RunPayload struct {
	Code      string   `json:"code"`
	Language  Language `json:"language" validate:"required"`
	RequestID string   `json:"requestId,omitempty"`
}

// ChatPayload is a chat line. Name is stamped by the server from the
// sender's display name; a client-supplied value is overwritten.
type ChatPayload struct {
	Name string `json:"name,omitempty"`
	Text string `json:"text" validate:"required"`
}

// StatePayload is the private snapshot a joiner receives.
type StatePayload struct {
	Code         string   `json:"code"`
	Language     Language `json:"language"`
	LastOutput   string   `json:"lastOutput"`
	TypingUser   string   `json:"typingUser,omitempty"`
	Participants []string `json:"participants"`
}

// ExecutionResult is what the room sees after a run, success or degraded.
type ExecutionResult struct {
	RoomID    RoomID       `json:"-"`
	RequestID string       `json:"requestId,omitempty"`
	Requester ConnectionID `json:"-"`
	Language  Language     `json:"language,omitempty"`
	Output    string       `json:"output"`
	Stderr    string       `json:"stderr"`

	// Failed marks the degraded result produced when the provider could
	// not be reached or did not answer in time.
	Failed bool `json:"-"`
}
