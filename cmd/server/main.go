package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/internal/tracker"
	"github.com/mmynk/splitledger/pkg/logging"
	"github.com/mmynk/splitledger/pkg/rpc"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	feed := ledger.NewFeed()
	defer feed.Close()

	opts := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithMetrics(metrics.New(reg)),
		tracker.WithFeed(feed),
	}
	if cfg.CacheEnabled() {
		balances, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			return err
		}
		defer balances.Close()
		opts = append(opts, tracker.WithCache(balances))
		logger.Info("Balance cache enabled", "redis", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		opts = append(opts, tracker.WithCache(cache.NewMemoryCache()))
		logger.Info("Balance cache in process memory", "hint", "set REDIS_ADDR to share it")
	}
	tr := tracker.New(store, opts...)

	events, cancel := tr.Subscribe(64)
	defer cancel()
	go logEvents(logger, events)

	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(logger))

	mux := http.NewServeMux()
	mux.Handle(rpc.NewParticipantServiceHandler(service.NewParticipantService(tr, logger), interceptors))
	mux.Handle(rpc.NewGroupServiceHandler(service.NewGroupService(tr, logger), interceptors))
	mux.Handle(rpc.NewExpenseServiceHandler(service.NewExpenseService(tr, logger), interceptors))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// h2c serves HTTP/2 without TLS for Connect clients.
	handler := h2c.NewHandler(middleware.Logging(logger, middleware.CORS(mux)), &http2.Server{})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

// logEvents writes ledger changes to the debug log until the feed closes.
func logEvents(logger *slog.Logger, events <-chan ledger.Event) {
	for e := range events {
		logger.Debug("Ledger event", "group_id", e.GroupID, "kind", e.Kind, "message", e.Message)
	}
}
