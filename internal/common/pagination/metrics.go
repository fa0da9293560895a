package pagination

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts paginated list requests.
	// Labels: resource (articles, tags), status (HTTP status code), page_range (1-10, 11-50, ...)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_pagination_requests_total",
			Help: "Total number of pagination requests",
		},
		[]string{"resource", "status", "page_range"},
	)

	// DurationSeconds tracks how long the page and count queries take together.
	DurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kb_pagination_duration_seconds",
			Help:    "Paginated query duration distribution",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
		},
		[]string{"resource"},
	)
)

// RecordRequest records a completed paginated request.
func RecordRequest(resource string, statusCode int, page int) {
	RequestsTotal.WithLabelValues(resource, strconv.Itoa(statusCode), pageRangeBucket(page)).Inc()
}

// RecordDuration records the time spent fetching one page.
func RecordDuration(resource string, d time.Duration) {
	DurationSeconds.WithLabelValues(resource).Observe(d.Seconds())
}

// pageRangeBucket keeps label cardinality bounded.
func pageRangeBucket(page int) string {
	switch {
	case page <= 10:
		return "1-10"
	case page <= 50:
		return "11-50"
	case page <= 100:
		return "51-100"
	default:
		return "100+"
	}
}
