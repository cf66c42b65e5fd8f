package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/gossip-server/config"
	"github.com/d60-Lab/gossip-server/internal/api"
	"github.com/d60-Lab/gossip-server/internal/api/handler"
	"github.com/d60-Lab/gossip-server/internal/repository"
	"github.com/d60-Lab/gossip-server/internal/service"
	"github.com/d60-Lab/gossip-server/pkg/cache"
	"github.com/d60-Lab/gossip-server/pkg/database"
	"github.com/d60-Lab/gossip-server/pkg/logger"
	"github.com/d60-Lab/gossip-server/pkg/tracing"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

// @title Gossip Server API
// @version 1.0
// @description Gossip 社交关系链后端
// @BasePath /
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	shutdownTracer := must(tracing.Init(ctx, cfg))
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(c); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db := must(database.InitDB(cfg))
	rdb := must(cache.InitRedis(cfg))

	// repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	requestRepo := repository.NewFollowRequestRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	fanRepo := repository.NewFanRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	recentRepo := repository.NewRecentSearchRepository(db)

	// 粉丝冗余异步落库
	replicator := service.NewFanReplicator(fanRepo, 100000)
	stopReplicator := replicator.Start(8)

	connCache := service.NewConnectionCache(rdb, cfg.Cache.ConnectionsTTL)

	// services
	authSvc := service.NewAuthService(db, userRepo, otpRepo, sessionRepo, service.NewLogEmailSender(), cfg.JWT, cfg.OTP)
	relSvc := service.NewRelationshipService(db, userRepo, followRepo, requestRepo, notifRepo, fanRepo, replicator, connCache)
	userSvc := service.NewUserService(userRepo, followRepo, requestRepo)
	notifSvc := service.NewNotificationService(notifRepo, userRepo, requestRepo)
	recentSvc := service.NewRecentSearchService(recentRepo, userRepo)

	h := handler.New(authSvc, relSvc, userSvc, notifSvc, recentSvc)
	router := api.NewRouter(cfg, h, authSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := stopReplicator(shutdownCtx); err != nil {
		logger.Warn("replicator drain incomplete", zap.Error(err))
	}
}
