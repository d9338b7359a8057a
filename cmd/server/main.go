// Command server runs the lost-and-found card service: HTTP API, box bridge
// janitor, and graceful shutdown. Business logic lives in the internal
// packages; main only wires dependencies.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cardreturn/internal/box"
	cardhandler "cardreturn/internal/card/handler"
	"cardreturn/internal/card/service"
	"cardreturn/internal/card/store"
	"cardreturn/internal/identity"
	"cardreturn/internal/notify"
	"cardreturn/internal/ocr"
	"cardreturn/internal/platform/config"
	"cardreturn/internal/platform/httpserver"
	"cardreturn/internal/platform/logger"
	"cardreturn/internal/platform/metrics"
	"cardreturn/internal/platform/middleware"
	"cardreturn/internal/stafftoken"
	httptransport "cardreturn/internal/transport/http"
)

const shutdownGrace = 10 * time.Second

// devSeed backs the resolver when no table file is configured.
var devSeed = map[string]string{
	"s1001": "jane.doe@campus.edu",
	"s1002": "bob.smith@campus.edu",
}

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	m := metrics.New()

	resolver, err := buildResolver(cfg)
	if err != nil {
		log.Error("resolver table load failed", "path", cfg.ResolverTablePath, "error", err.Error())
		os.Exit(1)
	}
	log.Info("identity resolver ready", "entries", resolver.Len())

	var notifier service.Notifier
	switch cfg.NotifyMode {
	case "smtp":
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, cfg.NotifyTimeout)
	default:
		notifier = notify.NewLogNotifier(log)
	}

	var extractor service.Extractor = ocr.Disabled{}
	if cfg.OCRServiceURL != "" {
		extractor = ocr.NewHTTPExtractor(cfg.OCRServiceURL, cfg.OCRTimeout)
	}

	var staffValidator middleware.StaffValidator
	if cfg.StaffSigningKey != "" {
		staffValidator = stafftoken.New(cfg.StaffSigningKey, "cardreturn")
	} else {
		log.Warn("staff signing key unset, staff gate disabled")
	}

	bridge := box.NewBridge(cfg.BoxOpenTTL, log)

	svc := service.New(store.NewInMemory(), resolver, notifier, extractor,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithBoxSignaler(bridge),
		service.WithTimeouts(cfg.OCRTimeout, cfg.NotifyTimeout),
	)

	router := httptransport.New(
		cardhandler.New(svc, log),
		box.NewHandler(svc, bridge, log),
		httptransport.Options{
			Logger:         log,
			Metrics:        m,
			StaffValidator: staffValidator,
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimit:      cfg.IntakeRateLimit,
			RequestTimeout: cfg.RequestTimeout,
		},
	)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting cardreturn server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return bridge.Run(ctx, cfg.BoxSweepEvery)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildResolver(cfg config.Server) (*identity.Resolver, error) {
	if cfg.ResolverTablePath != "" {
		return identity.NewFromFile(cfg.ResolverTablePath)
	}
	return identity.NewStatic(devSeed), nil
}
