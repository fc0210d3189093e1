package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/api/handler"
	"github.com/imaker-dev/restro-backend-sub002/internal/api/router"
	"github.com/imaker-dev/restro-backend-sub002/internal/collab"
	"github.com/imaker-dev/restro-backend-sub002/internal/realtime"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/database"
	"github.com/imaker-dev/restro-backend-sub002/pkg/jwt"
	applogger "github.com/imaker-dev/restro-backend-sub002/pkg/logger"
	"github.com/imaker-dev/restro-backend-sub002/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("TABLESIDE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.New(&cfg.Log, "server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting tableside",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Floor.Timezone),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis is optional: without it there is no cache, no blacklist and no cross-instance fan-out
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}

	// 5. jwt
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. collaborators
	hub := realtime.NewHub(cfg.Server.CORS.AllowOrigins, logger)
	deps := service.Deps{
		Permissions: collab.NewRolePermissionChecker(cfg.Floor.ElevatedRoles),
		Broadcaster: hub,
	}
	if cfg.Collab.OrderServiceURL != "" {
		deps.Orders = collab.NewOrderClient(cfg.Collab.OrderServiceURL, cfg.Collab.Timeout, logger)
	} else {
		logger.Warn("order service url not configured, order summaries disabled")
	}
	if cfg.Collab.BillingServiceURL != "" {
		deps.Billing = collab.NewBillingClient(cfg.Collab.BillingServiceURL, cfg.Collab.Timeout, logger)
	} else {
		logger.Warn("billing service url not configured, invoice summaries disabled")
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	if rdb != nil {
		deps.Cache = redis.NewCache(rdb)
		deps.Broadcaster = realtime.NewRedisPublisher(rdb)
		go func() {
			if err := realtime.Relay(relayCtx, rdb, hub, logger); err != nil {
				logger.Error("floor event relay stopped", zap.Error(err))
			}
		}()
	}

	// 7. repository → service → handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, deps, logger)
	h := handler.NewHandler(svc, hub, logger)

	// 8. router
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	stopRelay()
	hub.Close()

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database failed", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("server stopped")
}
