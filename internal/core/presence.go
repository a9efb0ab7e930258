package core

// Presence tracks the single participant currently flagged as typing in a
// room. It only mirrors what clients report; the inactivity timeout is
// enforced by the sending side.
// Not safe for concurrent use, the owning room serializes access.
type Presence struct {
	typing string
}

// Set moves to the typing state for name, replacing any previous typer.
func (p *Presence) Set(name string) {
	p.typing = name
}

// Clear returns to idle if name is the current typer. A stale stop from
// somebody who was already superseded leaves the newer typer in place.
func (p *Presence) Clear(name string) bool {
	if p.typing == "" || p.typing != name {
		return false
	}
	p.typing = ""
	return true
}

func (p *Presence) Typing() (string, bool) {
	return p.typing, p.typing != ""
}
