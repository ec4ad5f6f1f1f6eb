package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MohaDjm/the-tip-top-sub000/config"
	"github.com/MohaDjm/the-tip-top-sub000/internal/api/handler"
	"github.com/MohaDjm/the-tip-top-sub000/internal/api/router"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
	"github.com/MohaDjm/the-tip-top-sub000/internal/service"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/database"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/jwt"
	applogger "github.com/MohaDjm/the-tip-top-sub000/pkg/logger"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/mailer"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/redis"
)

func main() {
	// 1. configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("campaign", cfg.Campaign.Name),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("getting underlying sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("running migrations", zap.Error(err))
	}

	// 4. Redis; a failed connection degrades the blacklist, sessions and
	// rate limits rather than blocking startup
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without token revocation and rate limits", zap.Error(err))
		rdb = nil
	}

	// 5. JWT manager and mailer
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mail := mailer.NewMailer(&cfg.Mail, cfg.Server.BaseURL, logger)

	// 6. dependency injection: Repository → Service → Handler
	repo := repository.NewRepository(db)
	var cache service.CacheStore
	if rdb != nil {
		cache = rdb
	}
	svc := service.NewService(cfg, repo, jwtMgr, cache, mail, logger)
	h := handler.NewHandler(svc)

	// 7. routes
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. wait for the shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
