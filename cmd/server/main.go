package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"skillchain/internal/callertoken"
	"skillchain/internal/platform/config"
	"skillchain/internal/platform/httpserver"
	"skillchain/internal/platform/logger"
	"skillchain/internal/platform/metrics"
	platformmw "skillchain/internal/platform/middleware"
	"skillchain/internal/ratelimit"
	registryhandler "skillchain/internal/registry/handler"
	registrymetrics "skillchain/internal/registry/metrics"
	registryservice "skillchain/internal/registry/service"
	"skillchain/pkg/platform/httputil"
	"skillchain/pkg/platform/middleware/auth"
	"skillchain/pkg/platform/middleware/metadata"
	request "skillchain/pkg/platform/middleware/request"
	"skillchain/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/registry.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development caller-token signing key; set CALLER_TOKEN_SIGNING_KEY in production")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildInfra(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc, err := registryservice.New(deps.store, deps.tx,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(deps.audit),
		registryservice.WithMetrics(registrymetrics.New(reg)),
		registryservice.WithCache(deps.cache),
	)
	if err != nil {
		return err
	}

	tokens := callertoken.NewService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	requireCaller := auth.RequireCaller(tokens, log)
	if cfg.Limits.Enabled {
		limiter := ratelimit.New(deps.limits, cfg.Limits.Requests, cfg.Limits.Window, log,
			ratelimit.WithMetrics(ratelimit.NewMetrics(reg)))
		authenticate := requireCaller
		requireCaller = func(next http.Handler) http.Handler {
			return authenticate(limiter.PerCaller(next))
		}
	}
	h := registryhandler.New(svc, log, registryhandler.WithCallerAuth(requireCaller))

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(platformmw.LatencyMiddleware(metrics.New(reg)))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(metadata.ClientMetadata)
		r.Use(requesttime.Middleware)
		h.Register(r)
	})

	srv := httpserver.New(cfg.Server, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting skillchain registry", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
