package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "GET /tags/{id}", "200"))
	RecordHTTPRequest("GET", "GET /tags/{id}", 200, 15*time.Millisecond, 0, 42)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "GET /tags/{id}", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordArticleWrite(t *testing.T) {
	c := ArticlesWrittenTotal.WithLabelValues("publish")
	before := testutil.ToFloat64(c)
	RecordArticleWrite("publish")
	RecordArticleWrite("publish")
	assert.Equal(t, before+2, testutil.ToFloat64(c))
}

func TestRecordSlugCollision(t *testing.T) {
	c := SlugCollisionsTotal.WithLabelValues("tag")
	before := testutil.ToFloat64(c)
	RecordSlugCollision("tag")
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordSummary(t *testing.T) {
	ok := SummariesTotal.WithLabelValues("openai", "success")
	fb := SummariesTotal.WithLabelValues("openai", "fallback")
	okBefore, fbBefore := testutil.ToFloat64(ok), testutil.ToFloat64(fb)

	RecordSummary("openai", false, time.Second)
	RecordSummary("openai", true, 2*time.Second)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, fbBefore+1, testutil.ToFloat64(fb))
}

func TestRecordAuthEvent(t *testing.T) {
	c := AuthEventsTotal.WithLabelValues("login", "failure")
	before := testutil.ToFloat64(c)
	RecordAuthEvent("login", false)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordAssetUpload(t *testing.T) {
	c := AssetsUploadedTotal.WithLabelValues("IMAGE")
	before := testutil.ToFloat64(c)
	RecordAssetUpload("IMAGE", 2048)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordCircuitState(t *testing.T) {
	g := CircuitBreakerState.WithLabelValues("summarizer-test")

	RecordCircuitState("summarizer-test", gobreaker.StateClosed, gobreaker.StateOpen)
	assert.Equal(t, 2.0, testutil.ToFloat64(g))

	RecordCircuitState("summarizer-test", gobreaker.StateOpen, gobreaker.StateHalfOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(g))

	RecordCircuitState("summarizer-test", gobreaker.StateHalfOpen, gobreaker.StateClosed)
	assert.Equal(t, 0.0, testutil.ToFloat64(g))
}

func TestUpdateDBConnectionStats(t *testing.T) {
	UpdateDBConnectionStats(sql.DBStats{InUse: 3, Idle: 7})
	assert.Equal(t, 3.0, testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, 7.0, testutil.ToFloat64(DBConnectionsIdle))
}
