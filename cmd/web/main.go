package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pcshop/internal/config"
	"pcshop/internal/logger"
	"pcshop/internal/telemetry"
	"pcshop/internal/web"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }

func main() {
	if err := run(); err != nil {
		log.Fatalf("web: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadWebConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv, zap.String("service", cfg.ServiceName))
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(cfg.OTelEnabled, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	h, err := newHandler(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront listening",
			zap.String("addr", srv.Addr),
			zap.String("api", cfg.APIBaseURL),
		)
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHandler(cfg *config.WebConfig) (http.Handler, error) {
	views, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	api := web.NewClient(cfg.APIBaseURL, telemetry.Client(cfg.APITimeout))
	site := web.NewServer(api, views, cfg.CookieSecure)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Mount("/", site.Routes())

	return telemetry.Handler(r, cfg.ServiceName), nil
}
