package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize int64, responseSize int) {
	code := strconv.Itoa(status)
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordArticleWrite counts an article mutation ("create", "update", "delete",
// "publish", "archive").
func RecordArticleWrite(operation string) {
	ArticlesWrittenTotal.WithLabelValues(operation).Inc()
}

// RecordSlugCollision counts a retried insert for resource ("article", "tag").
func RecordSlugCollision(resource string) {
	SlugCollisionsTotal.WithLabelValues(resource).Inc()
}

// RecordSummary records the outcome of a summarization. fallback is true when
// the excerpt was returned instead of a generated summary.
func RecordSummary(provider string, fallback bool, duration time.Duration) {
	outcome := "success"
	if fallback {
		outcome = "fallback"
	}
	SummariesTotal.WithLabelValues(provider, outcome).Inc()
	SummarizationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAssetUpload records a stored asset.
func RecordAssetUpload(assetType string, size int64) {
	AssetsUploadedTotal.WithLabelValues(assetType).Inc()
	AssetUploadBytes.Observe(float64(size))
}

// RecordAuthEvent counts an authentication event such as ("login", "failure").
func RecordAuthEvent(event string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	AuthEventsTotal.WithLabelValues(event, result).Inc()
}

// RecordCircuitState is shaped to be used as a circuitbreaker OnStateChange hook.
func RecordCircuitState(name string, _, to gobreaker.State) {
	var v float64
	switch to {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

// UpdateDBConnectionStats copies pool statistics into the gauges.
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
