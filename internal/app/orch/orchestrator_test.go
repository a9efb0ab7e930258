package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/execution"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

type recConn struct {
	mu     sync.Mutex
	frames []domain.Envelope
	full   bool
	closed int
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("full")
	}
	var env domain.Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return err
	}
	c.frames = append(c.frames, env)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *recConn) count(typ domain.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, env := range c.frames {
		if env.Type == typ {
			n++
		}
	}
	return n
}

type recExec struct {
	mu   sync.Mutex
	reqs []execution.RunRequest
}

func (e *recExec) Dispatch(req execution.RunRequest) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if req.RequestID == "" {
		req.RequestID = "generated"
	}
	e.reqs = append(e.reqs, req)
	return req.RequestID
}

func (e *recExec) Run(_ context.Context, roomID domain.RoomID, code string, lang domain.Language) domain.ExecutionResult {
	return domain.ExecutionResult{RoomID: roomID, Language: lang, Output: code}
}

func newOrch() (*Orchestrator, *recExec) {
	ex := &recExec{}
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.SimplePolicy{},
		Exec:     ex,
	}, ex
}

func connect(o *Orchestrator, cid domain.ConnectionID) *recConn {
	conn := &recConn{}
	o.Registry.BindSignal(cid, core.NewMemberSession(cid, conn), func() {})
	return conn
}

func TestOrchestrator_JoinRequiresBothFields(t *testing.T) {
	o, _ := newOrch()
	conn := connect(o, "a")

	require.False(t, o.Join("a", domain.JoinPayload{RoomID: "r1"}))
	require.False(t, o.Join("a", domain.JoinPayload{DisplayName: "Ann"}))
	require.False(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "   "}))
	require.Equal(t, 0, o.Rooms.Count(), "rejected joins create nothing")
	require.Equal(t, 0, conn.count(domain.EventCurrentState))

	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.Equal(t, 1, conn.count(domain.EventCurrentState))
	require.False(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}), "second join to the same room is ignored")
	require.Equal(t, 1, conn.count(domain.EventCurrentState))
}

func TestOrchestrator_DisconnectAnnouncedExactlyOnce(t *testing.T) {
	o, _ := newOrch()
	annConn := connect(o, "a")
	connect(o, "b")
	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))

	o.OnDisconnect("b")
	o.OnDisconnect("b")
	require.False(t, o.Leave("b"))

	require.Equal(t, 1, annConn.count(domain.EventUserLeft))
	room, ok := o.Rooms.GetRoom("r1")
	require.True(t, ok, "rooms outlive their members")
	require.Equal(t, 1, room.MemberCount())
}

func TestOrchestrator_EventsOutsideJoinedRoomAreDropped(t *testing.T) {
	o, ex := newOrch()
	connect(o, "a")
	bobConn := connect(o, "b")

	require.False(t, o.UpdateCode("a", "r1", "x"), "not joined anywhere")

	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))

	require.False(t, o.UpdateCode("a", "ghost", "x"))
	require.False(t, o.ChangeLanguage("a", "ghost", domain.LangPython))
	_, ok := o.RunCode("a", "ghost", domain.RunPayload{Code: "x", Language: domain.LangPython})
	require.False(t, ok)
	_, ok = o.Rooms.GetRoom("ghost")
	require.False(t, ok, "events never create rooms")
	require.Empty(t, ex.reqs)
	require.Equal(t, 0, bobConn.count(domain.EventCodeUpdated))

	require.True(t, o.UpdateCode("a", "", "y"), "empty room id means the joined room")
	require.Equal(t, 1, bobConn.count(domain.EventCodeUpdated))
}

func TestOrchestrator_RunAndDeliver(t *testing.T) {
	o, ex := newOrch()
	annConn := connect(o, "a")
	bobConn := connect(o, "b")
	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))

	id, ok := o.RunCode("a", "r1", domain.RunPayload{Code: "print(1)", Language: domain.LangPython, RequestID: "q1"})
	require.True(t, ok)
	require.Equal(t, "q1", id)
	require.Len(t, ex.reqs, 1)
	require.Equal(t, execution.RunRequest{
		RoomID: "r1", Requester: "a", RequestID: "q1", Code: "print(1)", Language: domain.LangPython,
	}, ex.reqs[0])

	// requester is gone by the time the result lands
	o.OnDisconnect("a")
	o.DeliverOutput(domain.ExecutionResult{RoomID: "r1", Requester: "a", RequestID: "q1", Output: "1\n"})
	require.Equal(t, 1, bobConn.count(domain.EventCodeOutput))
	require.Equal(t, 0, annConn.count(domain.EventCodeOutput))
}

func TestOrchestrator_SlowMemberIsKicked(t *testing.T) {
	o, _ := newOrch()
	annConn := connect(o, "a")
	bobConn := connect(o, "b")
	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))

	bobConn.mu.Lock()
	bobConn.full = true
	bobConn.mu.Unlock()

	require.True(t, o.UpdateCode("a", "r1", "x"))
	require.Equal(t, 1, bobConn.closed)
	require.Equal(t, 1, annConn.count(domain.EventUserLeft))

	// the transport notices the close later; no second announcement
	o.OnDisconnect("b")
	require.Equal(t, 1, annConn.count(domain.EventUserLeft))
}

func TestOrchestrator_RejoinElsewhereLeavesFirst(t *testing.T) {
	o, _ := newOrch()
	connect(o, "a")
	bobConn := connect(o, "b")
	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))

	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r2", DisplayName: "Ann"}))
	require.Equal(t, 1, bobConn.count(domain.EventUserLeft))
	roomID, _, ok := o.Registry.RoomOf("a")
	require.True(t, ok)
	require.Equal(t, domain.RoomID("r2"), roomID)
}

func TestOrchestrator_TolerantPolicyKeepsSlowMember(t *testing.T) {
	o, _ := newOrch()
	o.Policy = app.PolicyFor("drop")
	connect(o, "a")
	bobConn := connect(o, "b")
	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))

	bobConn.mu.Lock()
	bobConn.full = true
	bobConn.mu.Unlock()

	require.True(t, o.UpdateCode("a", "r1", "x"))
	require.Equal(t, 0, bobConn.closed)
	room, _ := o.Rooms.GetRoom("r1")
	require.True(t, room.Has("b"))
}

func TestOrchestrator_ChatStaysInRoom(t *testing.T) {
	o, _ := newOrch()
	annConn := connect(o, "a")
	bobConn := connect(o, "b")
	carlConn := connect(o, "c")
	require.True(t, o.Join("a", domain.JoinPayload{RoomID: "r1", DisplayName: "Ann"}))
	require.True(t, o.Join("b", domain.JoinPayload{RoomID: "r1", DisplayName: "Bob"}))
	require.True(t, o.Join("c", domain.JoinPayload{RoomID: "r2", DisplayName: "Carl"}))

	require.True(t, o.SendMessage("a", "", "hello"))
	require.False(t, o.SendMessage("c", "r1", "sneaky"))

	require.Equal(t, 1, annConn.count(domain.EventMessage), "sender sees its own line")
	require.Equal(t, 1, bobConn.count(domain.EventMessage))
	require.Equal(t, 0, carlConn.count(domain.EventMessage))
}
