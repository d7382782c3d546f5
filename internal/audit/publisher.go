// Package audit records changes to users, communications and sessions on a
// Redis stream.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cptk8s/registro/internal/metrics"
)

const (
	// StreamKey is the Redis stream for audit events.
	StreamKey = "stream:registro:audit"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 200 * time.Millisecond
)

// Audited actions.
const (
	ActionUserCreated          = "user.created"
	ActionUserDeleted          = "user.deleted"
	ActionCommunicationCreated = "communication.created"
	ActionCommunicationDeleted = "communication.deleted"
	ActionLoginSucceeded       = "login.succeeded"
	ActionLoginFailed          = "login.failed"
)

// Event is the payload stored on the stream.
type Event struct {
	Action   string `json:"action"`
	Actor    string `json:"actor,omitempty"`
	EntityID int64  `json:"entity_id,omitempty"`
	At       int64  `json:"t"` // Unix milliseconds
}

// Publisher appends audit events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	wg sync.WaitGroup
}

// NewPublisher creates a new audit publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "audit.publisher"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// Record publishes an event without blocking the caller.
// Failures are logged and counted, never returned.
func (p *Publisher) Record(_ context.Context, action, actor string, entityID int64) {
	event := Event{
		Action:   action,
		Actor:    actor,
		EntityID: entityID,
		At:       p.now().UnixMilli(),
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish audit event",
				"action", event.Action,
				"error", err,
			)
			p.metrics.IncAuditPublished("dropped")
			return
		}

		p.logger.Debug("audit event published",
			"action", event.Action,
			"stream_id", streamID,
		)
		p.metrics.IncAuditPublished("success")
	}()
}

// Wait blocks until in-flight publishes finish or ctx is done.
func (p *Publisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
