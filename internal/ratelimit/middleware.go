package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"skillchain/pkg/platform/httputil"
	"skillchain/pkg/platform/middleware/metadata"
	request "skillchain/pkg/platform/middleware/request"
	"skillchain/pkg/requestcontext"
)

// Metrics counts limiter decisions.
type Metrics struct {
	Decisions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skillchain_ratelimit_decisions_total",
			Help: "Rate limit decisions for registry writes, by outcome",
		}, []string{"outcome"}),
	}
}

type Limiter struct {
	store   Store
	limit   int
	window  time.Duration
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Limiter)

func WithMetrics(m *Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func New(store Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type exceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// PerCaller limits requests by authenticated caller, falling back to the
// client IP. It must run after the caller is installed in the context. Store
// errors fail open.
func (l *Limiter) PerCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + metadata.GetClientIP(ctx)
		if caller := requestcontext.Caller(ctx); caller != (common.Address{}) {
			key = "caller:" + caller.Hex()
		}

		result, err := l.store.Allow(ctx, key, l.limit, l.window)
		if err != nil {
			l.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
			l.record("error")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			l.record("rejected")
			retry := result.RetryAfter(l.now())
			l.logger.InfoContext(ctx, "rate limit exceeded",
				"key", key,
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
				Error:            "rate_limit_exceeded",
				ErrorDescription: "Too many registry writes. Please try again later.",
				RetryAfter:       retry,
			})
			return
		}

		l.record("allowed")
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) record(outcome string) {
	if l.metrics != nil {
		l.metrics.Decisions.WithLabelValues(outcome).Inc()
	}
}
