// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Submission outcomes recorded by IncSignupSubmitted.
const (
	SignupSucceeded   = "succeeded"
	SignupFailed      = "failed"
	SignupRateLimited = "rate_limited"
)

// Notification outcomes recorded by IncNotification.
const (
	NotificationDelivered    = "delivered"
	NotificationRetried      = "retried"
	NotificationExhausted    = "exhausted"
	NotificationDeadLettered = "dead_lettered"
)

// Recorder captures metric events for the site.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Page metrics
	IncPageView(page string)

	// Signup metrics
	IncSignupSubmitted(status string)
	ObserveSignupDuration(duration time.Duration)

	// Customer lookup metrics
	IncCustomerCacheHit()
	IncCustomerCacheMiss()

	// Event pipeline metrics
	IncEventPublished(status string) // status: "success" or "dropped"

	// Intake notification metrics
	IncNotification(status string)
	ObserveNotificationDuration(duration time.Duration)
	SetNotificationQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
