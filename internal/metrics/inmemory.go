package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PageViews             map[string]uint64
	SignupsSucceeded      uint64
	SignupsFailed         uint64
	SignupsRateLimited    uint64
	SignupDurationCount   uint64
	SignupDurationTotalNs int64
	CustomerCacheHits     uint64
	CustomerCacheMisses   uint64
	EventsPublished       uint64
	EventsDropped         uint64

	Notifications               map[string]uint64
	NotificationDurationCount   uint64
	NotificationDurationTotalNs int64
	NotificationQueueDepth      int64
}

// InMemoryRecorder stores metrics in memory.
// It backs the /metrics endpoint and tests.
type InMemoryRecorder struct {
	mu            sync.Mutex
	pageViews     map[string]uint64
	notifications map[string]uint64

	signupsSucceeded      uint64
	signupsFailed         uint64
	signupsRateLimited    uint64
	signupDurationCount   uint64
	signupDurationTotalNs int64
	customerCacheHits     uint64
	customerCacheMisses   uint64
	eventsPublished       uint64
	eventsDropped         uint64

	notificationDurationCount   uint64
	notificationDurationTotalNs int64
	notificationQueueDepth      int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		pageViews:     make(map[string]uint64),
		notifications: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	views := make(map[string]uint64, len(m.pageViews))
	for page, n := range m.pageViews {
		views[page] = n
	}
	notifications := make(map[string]uint64, len(m.notifications))
	for status, n := range m.notifications {
		notifications[status] = n
	}
	m.mu.Unlock()

	return Snapshot{
		PageViews:             views,
		SignupsSucceeded:      atomic.LoadUint64(&m.signupsSucceeded),
		SignupsFailed:         atomic.LoadUint64(&m.signupsFailed),
		SignupsRateLimited:    atomic.LoadUint64(&m.signupsRateLimited),
		SignupDurationCount:   atomic.LoadUint64(&m.signupDurationCount),
		SignupDurationTotalNs: atomic.LoadInt64(&m.signupDurationTotalNs),
		CustomerCacheHits:     atomic.LoadUint64(&m.customerCacheHits),
		CustomerCacheMisses:   atomic.LoadUint64(&m.customerCacheMisses),
		EventsPublished:       atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:         atomic.LoadUint64(&m.eventsDropped),

		Notifications:               notifications,
		NotificationDurationCount:   atomic.LoadUint64(&m.notificationDurationCount),
		NotificationDurationTotalNs: atomic.LoadInt64(&m.notificationDurationTotalNs),
		NotificationQueueDepth:      atomic.LoadInt64(&m.notificationQueueDepth),
	}
}

// IncPageView increments the view counter for page.
func (m *InMemoryRecorder) IncPageView(page string) {
	m.mu.Lock()
	m.pageViews[page]++
	m.mu.Unlock()
}

// IncSignupSubmitted increments the counter for a submission outcome.
// Unknown statuses are ignored.
func (m *InMemoryRecorder) IncSignupSubmitted(status string) {
	switch status {
	case SignupSucceeded:
		atomic.AddUint64(&m.signupsSucceeded, 1)
	case SignupFailed:
		atomic.AddUint64(&m.signupsFailed, 1)
	case SignupRateLimited:
		atomic.AddUint64(&m.signupsRateLimited, 1)
	}
}

// ObserveSignupDuration records how long a submission took.
func (m *InMemoryRecorder) ObserveSignupDuration(duration time.Duration) {
	atomic.AddUint64(&m.signupDurationCount, 1)
	atomic.AddInt64(&m.signupDurationTotalNs, duration.Nanoseconds())
}

// IncCustomerCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncCustomerCacheHit() {
	atomic.AddUint64(&m.customerCacheHits, 1)
}

// IncCustomerCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncCustomerCacheMiss() {
	atomic.AddUint64(&m.customerCacheMisses, 1)
}

// IncEventPublished increments the published or dropped event counter.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}

// IncNotification increments the counter for a notification outcome.
func (m *InMemoryRecorder) IncNotification(status string) {
	m.mu.Lock()
	m.notifications[status]++
	m.mu.Unlock()
}

// ObserveNotificationDuration records the time spent on one delivery attempt.
func (m *InMemoryRecorder) ObserveNotificationDuration(duration time.Duration) {
	atomic.AddUint64(&m.notificationDurationCount, 1)
	atomic.AddInt64(&m.notificationDurationTotalNs, duration.Nanoseconds())
}

// SetNotificationQueueDepth records pending plus undelivered stream entries.
func (m *InMemoryRecorder) SetNotificationQueueDepth(depth int64) {
	atomic.StoreInt64(&m.notificationQueueDepth, depth)
}
