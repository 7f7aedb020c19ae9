package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pcshop/internal/banner"
	"pcshop/internal/category"
	"pcshop/internal/config"
	"pcshop/internal/db"
	"pcshop/internal/events"
	"pcshop/internal/handler"
	"pcshop/internal/logger"
	"pcshop/internal/mailer"
	"pcshop/internal/manufacturer"
	"pcshop/internal/metrics"
	"pcshop/internal/middleware"
	"pcshop/internal/order"
	"pcshop/internal/payment"
	"pcshop/internal/product"
	"pcshop/internal/redemption"
	"pcshop/internal/redisx"
	"pcshop/internal/refund"
	"pcshop/internal/telemetry"
	"pcshop/internal/upload"
	"pcshop/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// cache is what the catalog and banner services need from Redis.
type cache interface {
	product.Cache
	banner.Cache
}

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
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

	database, err := initDBFunc(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	c := connectCache(ctx, cfg)

	pub, closeEvents := connectEvents(cfg)
	defer closeEvents()

	stats := metrics.NewRegistry()
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database, c, pub, stats),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("REST server listening", zap.String("addr", srv.Addr))
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

// connectCache falls back to a cache that never hits when Redis is not
// configured or not reachable.
func connectCache(ctx context.Context, cfg *config.Config) cache {
	if cfg.RedisAddr == "" {
		return redisx.Noop{}
	}
	rdb, err := redisx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.L().Warn("redis unavailable, caching disabled", zap.Error(err))
		return redisx.Noop{}
	}
	return redisx.NewCache(rdb, cfg.CacheTTL)
}

func connectEvents(cfg *config.Config) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}, func() {}
	}
	producer := events.NewProducer(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), 0)
	producer.Start()
	return events.NewKafkaPublisher(producer, cfg.ServiceName), func() {
		producer.Close()
		producer.WaitClosed()
	}
}

func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, c cache, pub events.Publisher, stats *metrics.Registry) http.Handler {
	mail := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	tokens := user.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	userSvc := user.NewService(user.NewRepository(database), tokens, mail)
	productSvc := product.NewService(product.NewRepository(database), c)
	orderRepo := order.NewRepository(database)
	qr := payment.QRBuilder{
		BankID:      cfg.QRBankID,
		AccountNo:   cfg.QRAccountNo,
		AccountName: cfg.QRAccountName,
	}

	h := &handler.Handler{
		Users:         userSvc,
		Categories:    category.NewService(category.NewRepository(database), c),
		Manufacturers: manufacturer.NewService(manufacturer.NewRepository(database), c),
		Products:      productSvc,
		Orders:        order.NewService(orderRepo, qr, mail, pub, stats, c),
		Redemptions:   redemption.NewService(redemption.NewRepository(database), productSvc, userSvc, mail, pub, stats),
		Refunds:       refund.NewService(refund.NewRepository(database), orderRepo, mail, pub),
		Banners:       banner.NewService(banner.NewRepository(database), c),
		Uploads:       upload.NewService(upload.NewImgBBGateway(cfg.ImgBBAPIKey)),
		Stats:         stats,
	}

	return setupRouter(cfg, h, tokens, middleware.NewLimiter(ctx), stats)
}

func setupRouter(cfg *config.Config, h *handler.Handler, tokens middleware.TokenParser, limiter *middleware.Limiter, stats *metrics.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware(stats.ObserveStatus))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Authenticate(tokens))
	r.Use(limiter.Middleware)

	h.Routes(r)

	return telemetry.Handler(r, cfg.ServiceName)
}
