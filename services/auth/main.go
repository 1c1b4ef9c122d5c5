// Сервис сессий дашборда: вход по cookie authData и heartbeat.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/energydash/internal/clock"
	"github.com/energydash/internal/config"
	"github.com/energydash/internal/credential"
	"github.com/energydash/internal/handler"
	"github.com/energydash/internal/logger"
	"github.com/energydash/internal/metrics"
	"github.com/energydash/internal/middleware"
	"github.com/energydash/internal/repository"
	"github.com/energydash/internal/service"
	"github.com/energydash/internal/startup"
	"github.com/energydash/internal/storage"
	"github.com/energydash/internal/storage/memory"
)

func main() {
	logger.SetPrefix("auth")
	defer logger.Flush(2 * time.Second)
	dev := flag.Bool("dev", false, "run embedded PostgreSQL (no external database required)")
	migrateOnly := flag.Bool("migrate", false, "apply migrations and exit")
	flag.Parse()

	logger.Info("starting auth service")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if *dev {
		pg, err := startup.StartEmbeddedPostgres(cfg)
		if err != nil {
			logger.Fatalf("embedded postgres: %v", err)
		}
		defer func() {
			if err := pg.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	ctx := context.Background()
	pool, err := startup.ConnectDBWithRetry(ctx, cfg.Database, 60*time.Second)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := startup.RunMigrations(cfg.DatabaseURL()); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	if *migrateOnly {
		return
	}

	zone, err := clock.NewZoned(cfg.Session.TimeZone)
	if err != nil {
		logger.Fatalf("timezone: %v", err)
	}
	logger.Infof("session clock: %s, now %s", cfg.Session.TimeZone, clock.Format(zone.Now(), zone.Location()))
	cipher, err := credential.NewCipher(cfg.CredentialKey)
	if err != nil {
		logger.Fatalf("credential key: %v", err)
	}

	var limiter storage.RateLimitStore
	if cfg.Redis.URL != "" {
		rc, err := startup.ConnectRedisWithRetry(ctx, cfg.Redis.URL, 30*time.Second)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		limiter = rc.WithLimit(cfg.Session.AuthRateLimit, time.Minute)
	} else {
		logger.Info("REDIS_URL not set: auth rate limit is per process")
		limiter = memory.New(cfg.Session.AuthRateLimit, time.Minute)
	}
	defer limiter.Close()

	sessionRepo := repository.NewSessionRepository(pool, zone.Location())
	sessionSvc := service.NewSessionService(service.NewPostgresStore(sessionRepo), cipher, zone, cfg.Session.SerializeLogin)
	m := metrics.New()
	authH := handler.NewAuthHandler(sessionSvc, cfg.Session, m)
	if cfg.Session.SerializeLogin {
		logger.Info("serialized login enabled")
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(limiter, m)).Get("/auth", authH.Auth)
		r.Post("/heartbeat", authH.Heartbeat)
	})
	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(pool))
	r.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	var srvWg sync.WaitGroup
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("auth server listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("auth server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down auth server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("auth server shutdown: %v", err)
	}
	srvWg.Wait()
	logger.Info("auth server stopped")
}
