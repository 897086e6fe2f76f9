package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/noblesavage/site/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	pages := make([]string, 0, len(snap.PageViews))
	for page := range snap.PageViews {
		pages = append(pages, page)
	}
	sort.Strings(pages)
	for _, page := range pages {
		writeMetric(w, "noblesavage_page_views_total{page=%q} %d\n", page, snap.PageViews[page])
	}

	writeMetric(w, "noblesavage_signups_total{status=\"succeeded\"} %d\n", snap.SignupsSucceeded)
	writeMetric(w, "noblesavage_signups_total{status=\"failed\"} %d\n", snap.SignupsFailed)
	writeMetric(w, "noblesavage_signups_total{status=\"rate_limited\"} %d\n", snap.SignupsRateLimited)
	writeMetric(w, "noblesavage_signup_duration_seconds_count %d\n", snap.SignupDurationCount)
	writeMetric(w, "noblesavage_signup_duration_seconds_sum %.6f\n", float64(snap.SignupDurationTotalNs)/1e9)

	writeMetric(w, "noblesavage_customer_cache_hits_total %d\n", snap.CustomerCacheHits)
	writeMetric(w, "noblesavage_customer_cache_misses_total %d\n", snap.CustomerCacheMisses)

	writeMetric(w, "noblesavage_intake_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "noblesavage_intake_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)

	for _, status := range notificationStatuses {
		writeMetric(w, "noblesavage_intake_notifications_total{status=%q} %d\n", status, snap.Notifications[status])
	}
	writeMetric(w, "noblesavage_intake_notification_duration_seconds_count %d\n", snap.NotificationDurationCount)
	writeMetric(w, "noblesavage_intake_notification_duration_seconds_sum %.6f\n", float64(snap.NotificationDurationTotalNs)/1e9)
	writeMetric(w, "noblesavage_intake_notification_queue_depth %d\n", snap.NotificationQueueDepth)
}

var notificationStatuses = []string{
	metrics.NotificationDelivered,
	metrics.NotificationRetried,
	metrics.NotificationExhausted,
	metrics.NotificationDeadLettered,
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
