package core

import "github.com/dkeye/CodeRoom/internal/domain"

// MemberSession binds domain.Participant and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Participant
	Signal() SignalConnection
	ID() domain.ConnectionID
	UpdateMeta(*domain.Participant) MemberSession
}
