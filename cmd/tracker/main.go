// Package main is the tracker API server: it applies migrations, starts the
// change-feed bridge and serves the REST API and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/tracker/internal/api"
	"github.com/persistorai/tracker/internal/config"
	"github.com/persistorai/tracker/internal/db"
	"github.com/persistorai/tracker/internal/dbpool"
	"github.com/persistorai/tracker/internal/service"
	"github.com/persistorai/tracker/internal/store"
	"github.com/persistorai/tracker/internal/ws"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	configureLogger(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.WithError(err).Error("tracker exited with error")
		os.Exit(1)
	}
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.LogFormat == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

func run(ctx context.Context, log *logrus.Logger, cfg *config.Config) error {
	log.WithFields(logrus.Fields{
		"version":      config.Version,
		"addr":         cfg.Addr(),
		"metrics_addr": cfg.MetricsAddr(),
		"db_max_conns": cfg.DBMaxConns,
	}).Info("starting tracker")

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), int32(cfg.DBMaxConns)) //nolint:gosec // validated to 2..200.
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	go pool.ReportUsage(ctx, 15*time.Second)

	// The hub outlives ctx so it can drain clients after the servers stop.
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()

	hub := ws.NewHub(log)
	go hub.Run(hubCtx)

	if err := db.NewNotifyBridge(log, pool, hub).Start(ctx); err != nil {
		return fmt.Errorf("starting notify bridge: %w", err)
	}

	base := store.Base{Pool: pool, Log: log}
	issueStore := store.NewIssueStore(base)
	userStore := store.NewUserStore(base)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:            log,
		Pool:           pool,
		Hub:            hub,
		Issues:         service.NewIssueService(issueStore, userStore, nil, log),
		Imports:        service.NewImportService(issueStore, userStore, nil, log),
		Labels:         service.NewLabelService(store.NewLabelStore(base), issueStore, nil, log),
		Comments:       service.NewCommentService(store.NewCommentStore(base), issueStore, userStore, nil, log),
		Users:          service.NewUserService(userStore, log),
		Reports:        service.NewReportService(store.NewReportStore(base), nil),
		CORSOrigins:    cfg.CORSOrigins,
		Version:        config.Version,
		MaxImportBytes: cfg.MaxImportBytes,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
	})

	apiServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return serve(log, "api", apiServer) })
	g.Go(func() error { return serve(log, "metrics", metricsServer) })

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return shutdown(shutdownCtx, hub, apiServer, metricsServer)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("tracker stopped")

	return nil
}

// drainer is the part of the websocket hub shutdown needs.
type drainer interface {
	Shutdown()
}

// shutdown stops the servers and then drains the hub. Websocket connections
// are hijacked, so Server.Shutdown does not wait for them; the hub closes
// them once no new ones can be accepted.
func shutdown(ctx context.Context, hub drainer, servers ...*http.Server) error {
	errs := make([]error, 0, len(servers))
	for _, srv := range servers {
		errs = append(errs, srv.Shutdown(ctx))
	}

	hub.Shutdown()

	return errors.Join(errs...)
}

func serve(log *logrus.Logger, name string, srv *http.Server) error {
	log.WithFields(logrus.Fields{"server": name, "addr": srv.Addr}).Info("listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}

	return nil
}
