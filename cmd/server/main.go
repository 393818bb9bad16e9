package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/session-auth/internal/config"
	"github.com/iliyamo/session-auth/internal/database"
	"github.com/iliyamo/session-auth/internal/handler"
	"github.com/iliyamo/session-auth/internal/logger"
	"github.com/iliyamo/session-auth/internal/maintenance"
	"github.com/iliyamo/session-auth/internal/middleware"
	"github.com/iliyamo/session-auth/internal/queue"
	"github.com/iliyamo/session-auth/internal/router"
	"github.com/iliyamo/session-auth/internal/service"
	"github.com/iliyamo/session-auth/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	// bootstrap logger so configuration errors are visible
	if err := logger.Init("info"); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.WithModule("main").Fatal("invalid configuration", zap.Error(err))
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		logger.WithModule("main").Fatal("init logger", zap.Error(err))
	}
	log := logger.WithModule("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	// Sessions live in Redis when reachable, otherwise in process memory.
	rdb := config.NewRedisClient()
	var store session.Store
	var purger maintenance.SessionPurger
	if rdb != nil {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, "session", cfg.Session.TTL)
	} else {
		mem := session.NewMemoryStore(cfg.Session.TTL)
		store, purger = mem, mem
		log.Warn("using in-memory session store")
	}
	sessions := session.NewManager(store, cfg.Session)

	var publisher service.EventPublisher
	if cfg.AuditQueueEnabled {
		publisher = queue.NewPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, "logs"); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	}
	audit := service.NewAuditLogger(publisher)

	logins := service.NewLoginService(db, sessions, audit, cfg)
	logouts := service.NewLogoutService(db, sessions, audit, cfg.DBTimeout, cfg.RememberCookieName)
	auth := handler.NewAuthHandler(logouts, logins)

	cleaner := maintenance.NewCleaner(db,
		maintenance.WithSessionPurger(purger),
		maintenance.WithTokenSchedule(cfg.TokenCleanupSchedule),
	)
	if err := cleaner.Start(); err != nil {
		log.Fatal("start maintenance", zap.Error(err))
	}
	defer cleaner.Stop()

	ipExtractor, err := router.IPExtractor(cfg.TrustedProxies)
	if err != nil {
		log.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = ipExtractor
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, auth, router.AuthDeps{
		Origins:        middleware.NewAllowList(cfg.AllowedOrigins()...),
		Sessions:       sessions,
		Restorer:       logins,
		RememberCookie: cfg.RememberCookieName,
		RateLimit:      middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
