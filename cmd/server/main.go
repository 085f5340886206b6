package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkisten/UserBankingService/docs"
	"github.com/mkisten/UserBankingService/internal/audit"
	"github.com/mkisten/UserBankingService/internal/auth"
	"github.com/mkisten/UserBankingService/internal/cache"
	"github.com/mkisten/UserBankingService/internal/config"
	"github.com/mkisten/UserBankingService/internal/database"
	"github.com/mkisten/UserBankingService/internal/handlers"
	"github.com/mkisten/UserBankingService/internal/repository"
	"github.com/mkisten/UserBankingService/internal/services"
	"github.com/sirupsen/logrus"
)

// @title User Banking Service API
// @version 1.0
// @description Users, contacts, directory search and money transfers
// @host localhost:8080
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("[CONFIG] invalid configuration")
	}
	cfg.ConfigureLogger()

	docs.SwaggerInfo.Title = "User Banking Service API"
	docs.SwaggerInfo.Description = "Users, contacts, directory search and money transfers"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	docs.SwaggerInfo.BasePath = "/api"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	db, err := database.InitDB()
	if err != nil {
		logrus.WithError(err).Fatal("[DB] startup failed")
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			logrus.WithError(err).Fatal("[DB] migration failed")
		}
	}
	if cfg.SeedDemo {
		if err := database.Seed(ctx, db, database.DemoUsers); err != nil {
			logrus.WithError(err).Fatal("[DB] seeding failed")
		}
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}
	responseCache := cache.New(redisClient, cfg.CacheTTL)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration, cfg.JWTStrictSecret)
	if err != nil {
		logrus.WithError(err).Fatal("[AUTH] token manager")
	}
	auditLog := audit.NewLogger(logrus.StandardLogger())

	accounts := repository.NewAccountRepository()
	userService := services.NewUserService(db,
		repository.NewUserRepository(),
		repository.NewEmailRepository(),
		repository.NewPhoneRepository(),
		responseCache, auditLog)
	transferService := services.NewTransferService(db, accounts, auditLog)

	if cfg.CompounderEnabled {
		compounder := services.NewCompounder(db, accounts, auditLog, cfg.CompounderPeriod)
		if err := compounder.Start(); err != nil {
			logrus.WithError(err).Fatal("[COMPOUND] start failed")
		}
		defer compounder.Stop()
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(userService, tokens),
		Users:          handlers.NewUserHandler(userService, transferService),
		Tokens:         tokens,
		DB:             db,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: 60 * time.Second,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logrus.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server stopped")
}
