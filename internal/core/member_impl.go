package core

import (
	"sync"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// memberSession implements MemberSession by pairing meta + transport.
type memberSession struct {
	id   domain.ConnectionID
	conn SignalConnection

	mu   sync.RWMutex
	meta *domain.Participant
}

func NewMemberSession(id domain.ConnectionID, conn SignalConnection) MemberSession {
	return &memberSession{id: id, conn: conn}
}

func (m *memberSession) ID() domain.ConnectionID  { return m.id }
func (m *memberSession) Signal() SignalConnection { return m.conn }

func (m *memberSession) Meta() *domain.Participant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

func (m *memberSession) UpdateMeta(p *domain.Participant) MemberSession {
	m.mu.Lock()
	m.meta = p
	m.mu.Unlock()
	return m
}
