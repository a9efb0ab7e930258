package execution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/CodeRoom/internal/domain"
)

func provider(t *testing.T, handler http.HandlerFunc) *PistonProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPistonProvider(srv.URL)
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestBridge_Run(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    domain.ExecutionResult
	}{
		{
			name:    "top level output",
			handler: reply(`{"output":"1\n","stderr":""}`),
			want:    domain.ExecutionResult{Output: "1\n", Stderr: ""},
		},
		{
			name:    "piston run stage",
			handler: reply(`{"language":"python","run":{"output":"hi\n","stderr":"warn"}}`),
			want:    domain.ExecutionResult{Output: "hi\n", Stderr: "warn"},
		},
		{
			name:    "no output",
			handler: reply(`{}`),
			want:    domain.ExecutionResult{Output: NoOutput, Stderr: ""},
		},
		{
			name: "provider error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: domain.ExecutionResult{Output: "", Stderr: FailedStderr},
		},
		{
			name:    "garbage body",
			handler: reply(`not json`),
			want:    domain.ExecutionResult{Output: "", Stderr: FailedStderr},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(context.Background(), provider(t, tt.handler), nil, time.Second)
			got := b.Run(context.Background(), "r1", "print(1)", domain.LangPython)
			require.Equal(t, tt.want.Output, got.Output)
			require.Equal(t, tt.want.Stderr, got.Stderr)
			require.Equal(t, domain.RoomID("r1"), got.RoomID)
			require.Equal(t, tt.want.Stderr == FailedStderr, got.Failed)
		})
	}
}

func TestBridge_RunTimesOut(t *testing.T) {
	release := make(chan struct{})
	p := provider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	b := NewBridge(context.Background(), p, nil, 50*time.Millisecond)
	started := time.Now()
	got := b.Run(context.Background(), "r1", "while True: pass", domain.LangPython)
	require.Less(t, time.Since(started), 2*time.Second)
	require.Equal(t, "", got.Output)
	require.Equal(t, FailedStderr, got.Stderr)
	require.True(t, got.Failed)
}

func TestBridge_RequestShape(t *testing.T) {
	type seen struct {
		method, contentType string
		body                Request
	}
	captured := make(chan seen, 1)
	p := provider(t, func(w http.ResponseWriter, r *http.Request) {
		s := seen{method: r.Method, contentType: r.Header.Get("Content-Type")}
		_ = json.NewDecoder(r.Body).Decode(&s.body)
		captured <- s
		reply(`{"output":"ok"}`)(w, r)
	})

	b := NewBridge(context.Background(), p, nil, time.Second)
	res := b.Run(context.Background(), "r1", "print(1)", domain.LangPython)
	require.Equal(t, "ok", res.Output)

	got := <-captured
	require.Equal(t, http.MethodPost, got.method)
	require.Equal(t, "application/json", got.contentType)

	require.Equal(t, Request{
		Language: domain.LangPython,
		Version:  "*",
		Files:    []File{{Name: "main.py", Content: "print(1)"}},
	}, got.body)
}

func TestBridge_DispatchPublishesToRelay(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	var (
		mu  sync.Mutex
		got []domain.ExecutionResult
	)
	relay := NewResultRelay(bus, func(res domain.ExecutionResult) {
		mu.Lock()
		got = append(got, res)
		mu.Unlock()
	})
	require.NoError(t, relay.Start(context.Background()))
	require.ErrorIs(t, relay.Start(context.Background()), ErrRelayRunning)

	b := NewBridge(context.Background(), provider(t, reply(`{"output":"1\n"}`)), bus, time.Second)
	id := b.Dispatch(RunRequest{RoomID: "r1", Requester: "a", Code: "print(1)", Language: domain.LangPython})
	require.NotEmpty(t, id, "a request id is generated when the client sends none")
	require.Equal(t, "given", b.Dispatch(RunRequest{RoomID: "r1", Requester: "b", RequestID: "given", Language: domain.LangPython}))
	b.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)
	relay.Stop()

	byID := map[string]domain.ExecutionResult{}
	for _, res := range got {
		byID[res.RequestID] = res
	}
	require.Equal(t, domain.ExecutionResult{
		RoomID: "r1", RequestID: id, Requester: "a", Language: domain.LangPython, Output: "1\n",
	}, byID[id])
	require.Equal(t, domain.ConnectionID("b"), byID["given"].Requester)
}

func TestBridge_RunsAreIndependent(t *testing.T) {
	slow := make(chan struct{})
	p := provider(t, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Files[0].Content == "slow" {
			<-slow
		}
		reply(`{"output":"` + req.Files[0].Content + `"}`)(w, r)
	})

	bus := NewBus(zerolog.Nop())
	defer bus.Close()
	results := make(chan domain.ExecutionResult, 2)
	relay := NewResultRelay(bus, func(res domain.ExecutionResult) { results <- res })
	require.NoError(t, relay.Start(context.Background()))
	defer relay.Stop()

	b := NewBridge(context.Background(), p, bus, 2*time.Second)
	b.Dispatch(RunRequest{RoomID: "r1", RequestID: "1", Code: "slow", Language: domain.LangPython})
	b.Dispatch(RunRequest{RoomID: "r1", RequestID: "2", Code: "fast", Language: domain.LangPython})

	select {
	case res := <-results:
		require.Equal(t, "2", res.RequestID, "the fast run is not held behind the slow one")
	case <-time.After(time.Second):
		t.Fatal("fast result never arrived")
	}
	close(slow)
	select {
	case res := <-results:
		require.Equal(t, "1", res.RequestID)
	case <-time.After(time.Second):
		t.Fatal("slow result never arrived")
	}
	b.Wait()
}
