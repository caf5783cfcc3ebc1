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
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shop_admin/internal/cache"
	"github.com/Skotchmaster/shop_admin/internal/config"
	"github.com/Skotchmaster/shop_admin/internal/db"
	"github.com/Skotchmaster/shop_admin/internal/es"
	"github.com/Skotchmaster/shop_admin/internal/httpserver"
	"github.com/Skotchmaster/shop_admin/internal/logging"
	"github.com/Skotchmaster/shop_admin/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/shop_admin/internal/middleware/logging"
	"github.com/Skotchmaster/shop_admin/internal/mykafka"
	"github.com/Skotchmaster/shop_admin/internal/repo"
	"github.com/Skotchmaster/shop_admin/internal/service"
	"github.com/Skotchmaster/shop_admin/internal/storage"
	"github.com/Skotchmaster/shop_admin/internal/tokens"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	cfg.Require()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	files, err := storage.NewDiskStorage(cfg.UploadDir)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	var events service.EventPublisher
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index service.ProductIndexer
	if cfg.ESURL != "" {
		client, err := es.NewClient(es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			logger.Warn("search_index_disabled", "error", err)
		} else {
			index = es.NewProductIndex(client, cfg.ESIndex)
		}
	}

	var rdb *cache.Client
	if cfg.RedisAddr != "" {
		rdb = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			logger.Warn("cache_unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		pingCancel()
	}

	r := repo.New(gdb)
	issuer := tokens.NewIssuer(cfg.JWTSecret)

	authSvc := &service.AuthService{Repo: r, Tokens: issuer, Events: events}
	catalogSvc := &service.CatalogService{
		Repo:       r,
		Events:     events,
		Index:      index,
		Cache:      rdb,
		CacheTTL:   cfg.CacheTTL,
		Files:      files,
		SoftDelete: cfg.SoftDelete(),
	}

	if cfg.AdminEmail != "" {
		bootCtx, bootCancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
		err := authSvc.EnsureAdmin(bootCtx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		bootCancel()
		if err != nil {
			log.Fatalf("admin bootstrap: %v", err)
		}
	}

	e := httpserver.NewEcho()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit(strconv.Itoa(cfg.MaxUploadMB) + "M"))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc, Files: files},
		Gate:           auth.NewGate(issuer),
		Ready:          func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		UploadDir:      files.Dir,
		SoftDelete:     cfg.SoftDelete(),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "delete_mode", cfg.ProductDeleteMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}

	logger.Info("shutdown complete")
}
