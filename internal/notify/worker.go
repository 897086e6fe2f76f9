package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noblesavage/site/internal/events"
	"github.com/noblesavage/site/internal/metrics"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "intake_notifiers"

	// DeadLetterStreamKey holds events that could not be delivered.
	DeadLetterStreamKey = events.StreamKey + ":dlq"

	// DefaultBatchSize is the max events read per poll.
	DefaultBatchSize = 20

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimInterval is how often to scan pending messages.
	DefaultClaimInterval = 30 * time.Second

	// DefaultClaimIdle is the idle time before reclaiming another consumer's messages.
	// It exceeds the longest retry sequence so live consumers keep their entries.
	DefaultClaimIdle = 5 * time.Minute

	// DefaultMetricsInterval is how often to refresh queue depth metrics.
	DefaultMetricsInterval = 10 * time.Second

	maxDeadLetterLen = 10000
)

// Deliverer sends one notification attempt.
type Deliverer interface {
	Send(ctx context.Context, deliveryID string, payload Payload) error
}

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	Redis       *redis.Client
	Sender      Deliverer
	Logger      *slog.Logger
	Metrics     metrics.Recorder
	ConsumerID  string
	MaxAttempts int
}

// Worker consumes intake events and delivers a notification for each.
// Entries are acknowledged once delivered or dead-lettered.
type Worker struct {
	redis           *redis.Client
	sender          Deliverer
	logger          *slog.Logger
	metrics         metrics.Recorder
	consumerID      string
	maxAttempts     int
	batchSize       int
	blockTimeout    time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	metricsInterval time.Duration
	claimStartID    string
	lastClaim       time.Time
	lastMetrics     time.Time
	wait            func(ctx context.Context, d time.Duration) error

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a notification worker.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConsumerID == "" {
		cfg.ConsumerID = NewConsumerID()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Worker{
		redis:           cfg.Redis,
		sender:          cfg.Sender,
		logger:          cfg.Logger.With("component", "notify.worker", "consumer_id", cfg.ConsumerID),
		metrics:         cfg.Metrics,
		consumerID:      cfg.ConsumerID,
		maxAttempts:     cfg.MaxAttempts,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		metricsInterval: DefaultMetricsInterval,
		claimStartID:    "0-0",
		wait:            sleepContext,
	}
}

// NewConsumerID creates a consumer name unique to this process.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "site"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}

// Run starts the worker loop. Blocks until the context is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("notify worker started", "max_attempts", w.maxAttempts)

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()
		if draining {
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("notify worker stopping")
			return nil
		default:
		}

		if err := w.processOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("process error", "error", err)
			if err := w.wait(ctx, time.Second); err != nil {
				return nil
			}
		}
	}
}

// Shutdown stops the worker and waits for the loop to exit.
// Entries not yet acknowledged are redelivered after a restart.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		w.logger.Info("notify worker shutdown complete")
		return nil
	case <-ctx.Done():
		w.logger.Warn("notify worker shutdown timed out")
		return ctx.Err()
	}
}

func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, events.StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

// processOnce handles one batch of reclaimed or new entries.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	messages, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", "error", err)
	}
	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}

	for _, msg := range messages {
		if err := w.handle(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// handle delivers one entry and acknowledges it unless the context ended first.
func (w *Worker) handle(ctx context.Context, msg redis.XMessage) error {
	event, err := decodeMessage(msg)
	if err != nil {
		w.deadLetter(ctx, msg, "invalid_payload", err.Error())
		return w.ack(ctx, msg.ID)
	}

	if err := w.deliver(ctx, msg.ID, event); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reason := "exhausted"
		if errors.Is(err, ErrPermanent) {
			reason = "rejected"
		}
		w.deadLetter(ctx, msg, reason, err.Error())
	}
	return w.ack(ctx, msg.ID)
}

// deliver sends the notification, retrying transient failures with backoff.
// The stream entry id is the delivery id so receivers can drop duplicates.
func (w *Worker) deliver(ctx context.Context, deliveryID string, event events.IntakeSubmitted) error {
	payload := NewPayload(event)

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := w.sender.Send(ctx, deliveryID, payload)
		w.metrics.ObserveNotificationDuration(time.Since(start))

		if err == nil {
			w.logger.Info("intake notification delivered",
				"delivery_id", deliveryID,
				"customer_id", event.CustomerID,
				"attempt", attempt,
			)
			w.metrics.IncNotification(metrics.NotificationDelivered)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrPermanent) {
			w.logger.Warn("intake notification rejected",
				"delivery_id", deliveryID,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		if IsExhausted(attempt, w.maxAttempts) {
			w.logger.Warn("intake notification attempts exhausted",
				"delivery_id", deliveryID,
				"attempts", attempt,
				"error", err,
			)
			w.metrics.IncNotification(metrics.NotificationExhausted)
			return err
		}

		backoff := NextRetryDelay(attempt - 1)
		w.logger.Warn("intake notification failed, retrying",
			"delivery_id", deliveryID,
			"attempt", attempt,
			"backoff_seconds", backoff.Seconds(),
			"error", err,
		)
		w.metrics.IncNotification(metrics.NotificationRetried)
		if err := w.wait(ctx, backoff); err != nil {
			return err
		}
	}
}

func decodeMessage(msg redis.XMessage) (events.IntakeSubmitted, error) {
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		return events.IntakeSubmitted{}, fmt.Errorf("%w: payload field missing or not a string", events.ErrInvalidPayload)
	}
	return events.DecodeIntakeSubmitted(payload)
}

func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.claimInterval <= 0 || w.claimIdle <= 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}
	w.lastClaim = time.Now()

	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   events.StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{events.StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if w.metricsInterval <= 0 {
		return
	}
	if !w.lastMetrics.IsZero() && time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	groups, err := w.redis.XInfoGroups(ctx, events.StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		w.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			w.metrics.SetNotificationQueueDepth(group.Pending + group.Lag)
			return
		}
	}
}

// deadLetter copies an entry to the dead-letter stream with the failure reason.
func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering intake event",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: maxDeadLetterLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           detail,
			"payload":          fmt.Sprint(msg.Values["payload"]),
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write to dead-letter stream",
			"message_id", msg.ID,
			"error", err,
		)
	}

	w.metrics.IncNotification(metrics.NotificationDeadLettered)
}

func (w *Worker) ack(ctx context.Context, ids ...string) error {
	if err := w.redis.XAck(ctx, events.StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
