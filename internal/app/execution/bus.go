package execution

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/domain"
)

const (
	ResultTopic = "code-output"

	metaRoomID    = "room_id"
	metaRequester = "requester"
)

var ErrRelayRunning = errors.New("result relay already running")

// NewBus returns the in-process pub/sub that carries execution results.
func NewBus(logger zerolog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLoggerAdapter(logger))
}

// ResultRelay consumes ResultTopic and hands each result to onResult in
// delivery order.
type ResultRelay struct {
	subscriber message.Subscriber
	onResult   func(domain.ExecutionResult)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewResultRelay(subscriber message.Subscriber, onResult func(domain.ExecutionResult)) *ResultRelay {
	return &ResultRelay{subscriber: subscriber, onResult: onResult}
}

// Start subscribes before returning, so results published afterwards are
// never missed.
func (rr *ResultRelay) Start(ctx context.Context) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.running {
		return ErrRelayRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	ch, err := rr.subscriber.Subscribe(runCtx, ResultTopic)
	if err != nil {
		cancel()
		return err
	}
	rr.cancel = cancel
	rr.done = make(chan struct{})
	rr.running = true
	go rr.consume(ch, rr.done)
	log.Info().Str("module", "execution").Msg("result relay started")
	return nil
}

// Stop cancels the subscription and waits for the consumer to drain.
func (rr *ResultRelay) Stop() {
	rr.mu.Lock()
	if !rr.running {
		rr.mu.Unlock()
		return
	}
	cancel, done := rr.cancel, rr.done
	rr.running = false
	rr.mu.Unlock()

	cancel()
	<-done
}

func (rr *ResultRelay) consume(ch <-chan *message.Message, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var res domain.ExecutionResult
		if err := json.Unmarshal(msg.Payload, &res); err != nil {
			log.Warn().Err(err).Str("module", "execution").Msg("result relay: failed to decode result")
			msg.Ack()
			continue
		}
		res.RoomID = domain.RoomID(msg.Metadata.Get(metaRoomID))
		res.Requester = domain.ConnectionID(msg.Metadata.Get(metaRequester))
		rr.onResult(res)
		msg.Ack()
	}
	log.Info().Str("module", "execution").Msg("result relay stopped")
}

// loggerAdapter routes watermill logs through zerolog.
type loggerAdapter struct {
	logger zerolog.Logger
}

func NewLoggerAdapter(logger zerolog.Logger) watermill.LoggerAdapter {
	return loggerAdapter{logger: logger.With().Str("module", "watermill").Logger()}
}

func (a loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return loggerAdapter{logger: a.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
