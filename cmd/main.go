package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gigmatch/gigmatch/internal/adapters/geocode"
	"github.com/gigmatch/gigmatch/internal/adapters/http/api"
	"github.com/gigmatch/gigmatch/internal/adapters/mq/notify"
	"github.com/gigmatch/gigmatch/internal/adapters/repository"
	app "github.com/gigmatch/gigmatch/internal/app"
	"github.com/gigmatch/gigmatch/internal/config"
	"github.com/gigmatch/gigmatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithCountryCode(cfg.CountryCode),
		app.WithNotifyBuffer(cfg.NotifyBuffer),
		app.WithNotifyWorkers(cfg.NotifyWorkers),
	}

	// Postgres when configured, otherwise the in-memory store.
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error(ctx, "failed to connect to database", logger.Error(err))
			return
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.Error(ctx, "failed to run migrations", logger.Error(err))
			return
		}
		opts = append(opts, app.WithStore(pg))
		log.Info(ctx, "using postgres store")
	}

	if cfg.GeocoderBaseURL != "" {
		opts = append(opts, app.WithGeocoder(geocode.NewClient(
			geocode.WithBaseURL(cfg.GeocoderBaseURL),
			geocode.WithTimeout(time.Duration(cfg.GeocoderTimeoutMS)*time.Millisecond),
		)))
	}

	// NATS notifications when configured, otherwise log-only delivery.
	if cfg.NATSURL != "" {
		sink, err := notify.NewNATSSink(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			log.Error(ctx, "failed to connect to NATS", logger.Error(err))
			return
		}
		defer sink.Close()
		opts = append(opts, app.WithNotificationSink(sink))
		log.Info(ctx, "using NATS notification sink", logger.String("url", cfg.NATSURL))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater periodically refreshes service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the notification queue gauge as a side
			// effect; the snapshot itself is not needed here.
			_ = svc.GetStats(ctx)
		}
	}
}
