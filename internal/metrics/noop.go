package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPageView is a no-op.
func (n *NoopRecorder) IncPageView(page string) {}

// IncSignupSubmitted is a no-op.
func (n *NoopRecorder) IncSignupSubmitted(status string) {}

// ObserveSignupDuration is a no-op.
func (n *NoopRecorder) ObserveSignupDuration(duration time.Duration) {}

// IncCustomerCacheHit is a no-op.
func (n *NoopRecorder) IncCustomerCacheHit() {}

// IncCustomerCacheMiss is a no-op.
func (n *NoopRecorder) IncCustomerCacheMiss() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// IncNotification is a no-op.
func (n *NoopRecorder) IncNotification(status string) {}

// ObserveNotificationDuration is a no-op.
func (n *NoopRecorder) ObserveNotificationDuration(duration time.Duration) {}

// SetNotificationQueueDepth is a no-op.
func (n *NoopRecorder) SetNotificationQueueDepth(depth int64) {}
