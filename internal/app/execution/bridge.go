package execution

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/metrics"
)

const (
	DefaultTimeout = 5 * time.Second

	NoOutput     = "No output"
	FailedStderr = "Execution failed"
)

// RunRequest is one run-code event accepted from a room member.
type RunRequest struct {
	RoomID    domain.RoomID
	Requester domain.ConnectionID
	RequestID string
	Code      string
	Language  domain.Language
}

// Bridge turns run requests into provider calls and publishes exactly one
// result per request on ResultTopic. Requests are independent: nothing is
// queued or coalesced, and results can arrive out of request order.
type Bridge struct {
	provider  Provider
	publisher message.Publisher
	timeout   time.Duration

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewBridge binds in-flight runs to ctx rather than to the requesting
// connection, so a requester leaving does not cancel the room's result.
func NewBridge(ctx context.Context, provider Provider, publisher message.Publisher, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		provider:  provider,
		publisher: publisher,
		timeout:   timeout,
		baseCtx:   ctx,
	}
}

// Run calls the provider once, bounded by the bridge timeout. It never
// fails: any error yields the degraded result.
func (b *Bridge) Run(ctx context.Context, roomID domain.RoomID, code string, lang domain.Language) domain.ExecutionResult {
	res := domain.ExecutionResult{RoomID: roomID, Language: lang}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	started := time.Now()
	resp, err := b.provider.Execute(ctx, Request{
		Language: lang,
		Version:  "*",
		Files:    []File{{Name: lang.MainFile(), Content: code}},
	})
	metrics.ExecutionSeconds.Observe(time.Since(started).Seconds())

	if err != nil {
		log.Warn().Err(err).Str("module", "execution").Str("room", string(roomID)).Str("language", string(lang)).Msg("execution failed")
		metrics.ExecutionsTotal.WithLabelValues(string(lang), "failed").Inc()
		res.Output = ""
		res.Stderr = FailedStderr
		res.Failed = true
		return res
	}

	metrics.ExecutionsTotal.WithLabelValues(string(lang), "ok").Inc()
	res.Output = resp.output()
	if res.Output == "" {
		res.Output = NoOutput
	}
	res.Stderr = resp.stderr()
	return res
}

// Dispatch starts the run in its own goroutine and returns the request id
// the result will carry.
func (b *Bridge) Dispatch(req RunRequest) string {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		res := b.Run(b.baseCtx, req.RoomID, req.Code, req.Language)
		res.RequestID = req.RequestID
		res.Requester = req.Requester
		if err := b.publish(res); err != nil {
			log.Error().Err(err).Str("module", "execution").Str("room", string(req.RoomID)).Str("request_id", req.RequestID).Msg("publish result")
		}
	}()
	return req.RequestID
}

// Wait blocks until every dispatched run has published its result.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) publish(res domain.ExecutionResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metaRoomID, string(res.RoomID))
	msg.Metadata.Set(metaRequester, string(res.Requester))
	return b.publisher.Publish(ResultTopic, msg)
}
