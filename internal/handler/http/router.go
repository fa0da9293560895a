package http

import (
	"database/sql"
	"log/slog"
	"net/http"

	"knowledgebase/internal/common/pagination"
	articleHTTP "knowledgebase/internal/handler/http/article"
	assetHTTP "knowledgebase/internal/handler/http/asset"
	"knowledgebase/internal/handler/http/auth"
	credentialHTTP "knowledgebase/internal/handler/http/credential"
	"knowledgebase/internal/handler/http/requestid"
	tagHTTP "knowledgebase/internal/handler/http/tag"
	"knowledgebase/internal/observability/tracing"
	"knowledgebase/pkg/security/csp"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Deps is everything the router wires together.
type Deps struct {
	Logger   *slog.Logger
	DB       *sql.DB
	Health   map[string]Pinger
	Version  string
	Articles articleHTTP.Service
	Resolver articleHTTP.ContentResolver
	Tags     tagHTTP.Service
	Assets   assetHTTP.Service
	Creds    credentialHTTP.Service
	Auth     auth.Authenticator

	Pagination     pagination.Config
	MaxUploadSize  int64
	MaxBodyBytes   int64
	AllowedOrigins []string
	LoginLimiter   *IPRateLimiter
}

// NewRouter registers every route and wraps the mux in the middleware chain.
// Outermost first: request id, logging, recover, tracing, metrics, CORS,
// security headers, body limit.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &HealthHandler{DB: d.DB, Deps: d.Health, Version: d.Version})
	mux.Handle("GET /ready", &ReadyHandler{DB: d.DB})
	mux.Handle("GET /live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	guard := auth.Guard{Auth: d.Auth}
	limit := func(h http.Handler) http.Handler { return h }
	if d.LoginLimiter != nil {
		limit = d.LoginLimiter.Limit
	}

	credentialHTTP.Register(mux, d.Creds, guard, limit)
	articleHTTP.Register(mux, d.Articles, d.Resolver, guard, d.Pagination)
	tagHTTP.Register(mux, d.Tags, guard, d.Pagination)
	assetHTTP.Register(mux, d.Assets, guard, d.MaxUploadSize)

	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var h http.Handler = mux
	h = LimitRequestBody(maxBody)(h)
	h = SecurityHeaders(csp.APIPolicy())(h)
	h = CORS(d.AllowedOrigins)(h)
	h = MetricsMiddleware(h)
	h = tracing.Middleware(h)
	h = Recover(logger)(h)
	h = Logging(logger)(h)
	h = requestid.Middleware(h)
	return h
}
