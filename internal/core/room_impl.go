package core

import (
	"sort"
	"sync"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// One mutex guards state, presence and membership; it is held across a
// mutation and its broadcast. It never closes adapter-owned resources.
type roomImpl struct {
	mu       sync.Mutex
	room     *domain.Room
	presence Presence
	bySID    map[domain.ConnectionID]MemberSession
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:  room,
		bySID: make(map[domain.ConnectionID]MemberSession),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.room.ID }

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySID)
}

func (r *roomImpl) Has(cid domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bySID[cid]
	return ok
}

func (r *roomImpl) Snapshot() domain.StatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *roomImpl) snapshotLocked() domain.StatePayload {
	names := make([]string, 0, len(r.bySID))
	for _, ms := range r.bySID {
		if p := ms.Meta(); p != nil {
			names = append(names, p.DisplayName)
		}
	}
	sort.Strings(names)
	typing, _ := r.presence.Typing()
	return domain.StatePayload{
		Code:         r.room.Code,
		Language:     r.room.Language,
		LastOutput:   r.room.LastOutput,
		TypingUser:   typing,
		Participants: names,
	}
}

func (r *roomImpl) Join(ms MemberSession) PublishResult {
	sid := ms.ID()
	name := ""
	if p := ms.Meta(); p != nil {
		name = p.DisplayName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Str("name", name).Msg("member added")

	res := PublishResult{}
	if f, err := EncodeEnvelope(domain.EventCurrentState, r.room.ID, "", r.snapshotLocked()); err == nil {
		if err := ms.Signal().TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, ms)
		} else {
			res.SendTo++
		}
	} else {
		log.Error().Err(err).Str("module", "core.room").Msg("snapshot encode")
	}

	others := r.broadcastLocked(sid, domain.EventUserJoined, sid, name)
	res.SendTo += others.SendTo
	res.Dropped = append(res.Dropped, others.Dropped...)
	return res
}

func (r *roomImpl) Leave(cid domain.ConnectionID) (domain.Participant, PublishResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[cid]
	if !ok {
		return domain.Participant{}, PublishResult{}, false
	}
	delete(r.bySID, cid)

	var p domain.Participant
	if meta := ms.Meta(); meta != nil {
		p = *meta
	}
	r.presence.Clear(p.DisplayName)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(cid)).Msg("member removed")

	return p, r.broadcastLocked(cid, domain.EventUserLeft, cid, p.DisplayName), true
}

func (r *roomImpl) UpdateCode(from domain.ConnectionID, code string) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.room.Code = code
	return r.broadcastLocked(from, domain.EventCodeUpdated, from, code)
}

func (r *roomImpl) ChangeLanguage(from domain.ConnectionID, lang domain.Language) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.room.Language = lang
	return r.broadcastLocked(from, domain.EventLanguageUpdated, from, lang)
}

func (r *roomImpl) MoveCursor(from domain.ConnectionID, cursor domain.CursorPayload) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastLocked(from, domain.EventCursorChange, from, cursor)
}

func (r *roomImpl) StartTyping(from domain.ConnectionID, name string) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence.Set(name)
	return r.broadcastLocked(from, domain.EventTyping, from, domain.NamePayload{Name: name})
}

func (r *roomImpl) StopTyping(from domain.ConnectionID, name string) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence.Clear(name)
	return r.broadcastLocked(from, domain.EventStopTyping, from, domain.NamePayload{Name: name})
}

func (r *roomImpl) SendMessage(from domain.ConnectionID, text string) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := domain.ChatPayload{Text: text}
	if ms, ok := r.bySID[from]; ok {
		if p := ms.Meta(); p != nil {
			msg.Name = p.DisplayName
		}
	}
	return r.broadcastLocked("", domain.EventMessage, from, msg)
}

func (r *roomImpl) PublishOutput(res domain.ExecutionResult) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.Output != "" {
		r.room.LastOutput = res.Output
	} else {
		r.room.LastOutput = res.Stderr
	}
	// empty exclusion: the requester gets its own result too
	return r.broadcastLocked("", domain.EventCodeOutput, res.Requester, res)
}

// broadcastLocked sends one event to every member except skip.
// Callers must hold r.mu.
func (r *roomImpl) broadcastLocked(skip domain.ConnectionID, typ domain.EventType, sender domain.ConnectionID, payload any) PublishResult {
	res := PublishResult{}
	f, err := EncodeEnvelope(typ, r.room.ID, sender, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("type", string(typ)).Msg("broadcast encode")
		return res
	}
	for sid, m := range r.bySID {
		if skip != "" && sid == skip {
			continue
		}
		if err := m.Signal().TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("type", string(typ)).Str("from", string(sender)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
