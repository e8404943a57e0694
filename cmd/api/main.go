package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/httpserver"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/search"
	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/config"
	pkgdb "github.com/Skotchmaster/echoshop/pkg/db"
	"github.com/Skotchmaster/echoshop/pkg/logging"
	middleware "github.com/Skotchmaster/echoshop/pkg/middleware/auth"
	"github.com/Skotchmaster/echoshop/pkg/tokens"
)

const purgeEvery = time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("notice: no .env loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")
	config.MustPositive(cfg.UploadMaxBytes, "UPLOAD_MAX_BYTES")
	config.MustPositive(int64(cfg.JWTTTL), "JWT_TTL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	rules, err := pricing.FromConfig(cfg.Pricing)
	if err != nil {
		log.Fatalf("pricing: %v", err)
	}
	methods, err := transport.ParsePaymentMethods(cfg.Pricing.PaymentMethods)
	if err != nil {
		log.Fatalf("payment methods: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	gormRepo := &repo.GormRepo{DB: db}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	products := &service.ProductService{Repo: gormRepo, Events: publisher}
	if cfg.Elastic.URL != "" {
		ix, err := search.New(search.Config{
			URL:      cfg.Elastic.URL,
			User:     cfg.Elastic.User,
			Password: cfg.Elastic.Password,
			Index:    cfg.Elastic.Index,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ix.Ping(pingCtx); err != nil {
			logger.Warn("search_unavailable", "reason", "keyword search falls back to sql", "error", err)
		}
		pingCancel()
		products.Index = ix
	}

	var cartStore service.CartStore = gormRepo
	var redisCarts *repo.RedisCartRepo
	if cfg.RedisURL != "" {
		redisCarts, err = repo.NewRedisCartRepo(cfg.RedisURL, cfg.CartTTL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisCarts.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		cartStore = redisCarts
	}

	issuer := &tokens.Issuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}

	e := httpserver.New(logger, httpserver.Options{AllowOrigin: cfg.ClientURL}, &httpserver.Deps{
		Products: &httpserver.ProductHTTP{Svc: products},
		Users: &httpserver.UserHTTP{
			Svc:          &service.UserService{Repo: gormRepo, Tokens: issuer, Events: publisher},
			Tokens:       issuer,
			CookieSecure: cfg.CookieSecure,
		},
		Orders: &httpserver.OrderHTTP{Svc: &service.OrderService{
			Repo:           gormRepo,
			Rules:          rules,
			PaymentMethods: methods,
			Events:         publisher,
		}},
		Carts: &httpserver.CartHTTP{Svc: &service.CartService{Store: cartStore, Rules: rules}},
		Uploads: &httpserver.UploadHTTP{Svc: &service.UploadService{
			Dir:          cfg.UploadDir,
			MaxBytes:     cfg.UploadMaxBytes,
			PublicPrefix: "/uploads",
		}},
		Config:    &httpserver.ConfigHTTP{PayPalClientID: cfg.PayPalClientID},
		Auth:      middleware.NewSessionAuth([]byte(cfg.JWTSecret), gormRepo),
		UploadDir: cfg.UploadDir,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go purgeRevoked(bgCtx, gormRepo, logger)

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	stopBackground()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	if redisCarts != nil {
		if err := redisCarts.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Printf("%s stopped", cfg.ServiceName)
}

// purgeRevoked drops revoked token ids once they would have expired anyway.
func purgeRevoked(ctx context.Context, r *repo.GormRepo, l *slog.Logger) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := r.PurgeRevoked(ctx, now.UTC())
			if err != nil {
				l.Warn("purge_revoked_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("purge_revoked", "removed", n)
			}
		}
	}
}
