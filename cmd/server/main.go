// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/database"
	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/jobs"
	"github.com/ledrent/ledrent-backend/internal/repository/gormstore"
	"github.com/ledrent/ledrent-backend/internal/router"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := gormstore.New(db)
	svc := router.NewServices(cfg, store)

	if cfg.Seed.AdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := svc.Users.SeedAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminName); err != nil {
			logrus.WithError(err).Warn("Failed to seed admin user")
		}
		cancel()
	}

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.Enabled {
		runner := jobs.NewRunner(svc.Rentals, time.Duration(cfg.Rental.PendingTTLHours)*time.Hour)
		scheduler, err = jobs.NewScheduler(runner, cfg.Scheduler)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create scheduler")
		}
		scheduler.Start()
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get database handle")
	}

	r := router.Initialize(cfg, store, sqlDB, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r.Engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	r.Stop()
	svc.Notifications.Wait()

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
