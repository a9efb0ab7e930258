package core

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/CodeRoom/internal/domain"
)

var errFull = errors.New("queue full")

type fakeConn struct {
	mu     sync.Mutex
	frames []domain.Envelope
	full   bool
	closed bool
}

func (f *fakeConn) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return errFull
	}
	var env domain.Envelope
	if err := json.Unmarshal(fr, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) envelopes() []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Envelope(nil), f.frames...)
}

func (f *fakeConn) ofType(typ domain.EventType) []domain.Envelope {
	var out []domain.Envelope
	for _, env := range f.envelopes() {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

func member(roomID domain.RoomID, cid, name string) (MemberSession, *fakeConn) {
	conn := &fakeConn{}
	ms := NewMemberSession(domain.ConnectionID(cid), conn)
	ms.UpdateMeta(&domain.Participant{ConnectionID: domain.ConnectionID(cid), DisplayName: name, RoomID: roomID})
	return ms, conn
}
