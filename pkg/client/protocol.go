package client

import "github.com/dkeye/CodeRoom/internal/domain"

// Wire types of the relay protocol, usable from outside this module.
type (
	RoomID       = domain.RoomID
	ConnectionID = domain.ConnectionID
	Language     = domain.Language
	EventType    = domain.EventType
	Envelope     = domain.Envelope

	JoinPayload     = domain.JoinPayload
	CodePayload     = domain.CodePayload
	LanguagePayload = domain.LanguagePayload
	Position        = domain.Position
	CursorPayload   = domain.CursorPayload
	NamePayload     = domain.NamePayload
	RunPayload      = domain.RunPayload
	ChatPayload     = domain.ChatPayload
	StatePayload    = domain.StatePayload
	ExecutionResult = domain.ExecutionResult
)

const (
	LangJavaScript = domain.LangJavaScript
	LangTypeScript = domain.LangTypeScript
	LangPython     = domain.LangPython
	LangCpp        = domain.LangCpp
	LangC          = domain.LangC
	LangJava       = domain.LangJava
	LangGo         = domain.LangGo
	LangRust       = domain.LangRust
	LangRuby       = domain.LangRuby
	LangHTML       = domain.LangHTML
)

// Inbound
const (
	EventJoinRoom        = domain.EventJoinRoom
	EventLeaveRoom       = domain.EventLeaveRoom
	EventCodeUpdate      = domain.EventCodeUpdate
	EventLanguageChanged = domain.EventLanguageChanged
	EventCursorChange    = domain.EventCursorChange
	EventUserTyping      = domain.EventUserTyping
	EventStopTyping      = domain.EventStopTyping
	EventRunCode         = domain.EventRunCode
	EventSendMessage     = domain.EventSendMessage
	EventPing            = domain.EventPing
)

// Outbound
const (
	EventCurrentState    = domain.EventCurrentState
	EventUserJoined      = domain.EventUserJoined
	EventUserLeft        = domain.EventUserLeft
	EventCodeUpdated     = domain.EventCodeUpdated
	EventLanguageUpdated = domain.EventLanguageUpdated
	EventTyping          = domain.EventTyping
	EventCodeOutput      = domain.EventCodeOutput
	EventMessage         = domain.EventMessage
	EventPong            = domain.EventPong
)
