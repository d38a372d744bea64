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
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/backoffice/internal/config"
	"github.com/Skotchmaster/backoffice/internal/events"
	"github.com/Skotchmaster/backoffice/internal/httpserver"
	"github.com/Skotchmaster/backoffice/internal/idempotency"
	"github.com/Skotchmaster/backoffice/internal/repo"
	"github.com/Skotchmaster/backoffice/internal/search"
	"github.com/Skotchmaster/backoffice/internal/service"
	pkgdb "github.com/Skotchmaster/backoffice/pkg/db"
	"github.com/Skotchmaster/backoffice/pkg/logging"
	authmw "github.com/Skotchmaster/backoffice/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/backoffice/pkg/middleware/logging"
)

const tokenPurgeInterval = time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := &repo.GormRepo{DB: db}

	var publisher events.Publisher = events.NopPublisher{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers)
		publisher = kafkaPub
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	catalog := &service.CatalogService{Repo: r, Events: publisher}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := search.NewClient(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		esCancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			catalog.Search = &search.Engine{Client: client, Index: cfg.ESIndex}
		}
	}

	var idem idempotency.Store = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	var redisStore *idempotency.RedisStore
	if cfg.RedisAddr != "" {
		redisCtx, redisCancel := context.WithTimeout(context.Background(), 3*time.Second)
		redisStore, err = idempotency.NewRedisStore(redisCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.IdempotencyTTL)
		redisCancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		idem = redisStore
	}

	auth := &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	orders := &service.OrderService{Repo: r, Events: publisher, TxTimeout: cfg.OrderTxTimeout}
	users := &service.UserService{Repo: r, Auth: auth, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Orders:      &httpserver.OrderHTTP{Svc: orders, Idem: idem},
		Products:    &httpserver.CatalogHTTP{Svc: catalog},
		Users:       &httpserver.UserHTTP{Svc: users},
		Auth:        &httpserver.AuthHTTP{Svc: auth},
		RequireAuth: authmw.RequireBearer(cfg.JWTSecret, r),
		Ready:       func(ctx context.Context) error { return repo.Ping(ctx, db) },
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go purgeTokens(bgCtx, auth)

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
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
	_ = srv.Shutdown(shutdownCtx)

	shutdown(logger, db, kafkaPub, redisStore)
}

func purgeTokens(ctx context.Context, auth *service.AuthService) {
	l := logging.FromContext(ctx)
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpired(ctx)
			if err != nil {
				l.Warn("purge_tokens_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("purge_tokens_success", "removed", n)
			}
		}
	}
}

func shutdown(logger *slog.Logger, db *gorm.DB, kafkaPub *events.KafkaPublisher, redisStore *idempotency.RedisStore) {
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Warn("redis_close_failed", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Warn("db_close_failed", "error", err)
	}
	logger.Info("server_stopped")
}
