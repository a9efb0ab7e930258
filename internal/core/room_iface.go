package core

import (
	"github.com/dkeye/CodeRoom/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// RoomService is the core-facing API of a room.
// Every method that mutates state also performs the resulting broadcast
// before returning, so observers see mutations in arrival order.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	Has(cid domain.ConnectionID) bool
	Snapshot() domain.StatePayload

	// Join registers ms, sends it the current state privately and
	// announces it to everybody else.
	Join(ms MemberSession) PublishResult
	// Leave removes cid and announces it to the remaining members.
	// ok is false when cid was not a member; nothing is broadcast then.
	Leave(cid domain.ConnectionID) (p domain.Participant, res PublishResult, ok bool)

	UpdateCode(from domain.ConnectionID, code string) PublishResult
	ChangeLanguage(from domain.ConnectionID, lang domain.Language) PublishResult
	MoveCursor(from domain.ConnectionID, cursor domain.CursorPayload) PublishResult
	StartTyping(from domain.ConnectionID, name string) PublishResult
	StopTyping(from domain.ConnectionID, name string) PublishResult
	// SendMessage relays a chat line to every member, the sender included.
	SendMessage(from domain.ConnectionID, text string) PublishResult
	// PublishOutput stores the result as the last output and sends it to
	// every member, the requester included.
	PublishOutput(res domain.ExecutionResult) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID   `json:"id"`
	Language    domain.Language `json:"language"`
	MemberCount int             `json:"memberCount"`
}

type RoomManager interface {
	GetOrCreate(id domain.RoomID) RoomService
	GetRoom(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	Count() int
}
