// Package events publishes intake lifecycle events to a Redis stream.
// Downstream workers (summaries, dashboard generation) consume the stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noblesavage/site/internal/metrics"
)

const (
	// StreamKey is the Redis stream for intake events.
	StreamKey = "stream:intake_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 500 * time.Millisecond

	// TypeIntakeSubmitted is emitted once per stored intake.
	TypeIntakeSubmitted = "intake.submitted"
)

// IntakeSubmitted is the stream payload for a new intake.
type IntakeSubmitted struct {
	Type        string `json:"type"`
	CustomerID  string `json:"cid"`
	Referrer    string `json:"ref,omitempty"`
	SubmittedAt int64  `json:"t"` // Unix milliseconds
}

// NewIntakeSubmitted builds the event for a stored intake.
func NewIntakeSubmitted(customerID, referrer string, at time.Time) IntakeSubmitted {
	return IntakeSubmitted{
		Type:        TypeIntakeSubmitted,
		CustomerID:  customerID,
		Referrer:    SanitizeReferrer(referrer),
		SubmittedAt: at.UnixMilli(),
	}
}

// Publisher enqueues events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event IntakeSubmitted) (string, error) {
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
			"type":    event.Type,
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged and counted, never returned.
func (p *Publisher) PublishAsync(event IntakeSubmitted) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish intake event",
				"customer_id", event.CustomerID,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("intake event published",
			"customer_id", event.CustomerID,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}

// SanitizeReferrer keeps scheme, host and path of a referrer URL.
// Query strings and fragments are dropped; the result is capped at 500 bytes.
func SanitizeReferrer(ref string) string {
	if ref == "" {
		return ""
	}

	parsed, err := url.Parse(ref)
	if err != nil || parsed.Host == "" {
		return ""
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.User = nil

	sanitized := parsed.String()
	if len(sanitized) > 500 {
		return sanitized[:500]
	}
	return sanitized
}
