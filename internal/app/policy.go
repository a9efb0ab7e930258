package app

import "github.com/dkeye/CodeRoom/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose send queue is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// SimplePolicy disconnects slow members.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return KickMember
}

// TolerantPolicy keeps slow members and lets them lose frames.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(core.RoomService, core.MemberSession) BackpressureAction {
	return NoAction
}

// PolicyFor maps the backpressure config value to a Policy: "drop" keeps
// slow members, anything else kicks them.
func PolicyFor(name string) Policy {
	if name == "drop" {
		return TolerantPolicy{}
	}
	return SimplePolicy{}
}
