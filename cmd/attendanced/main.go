package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"attendance-qr-backend/config"
	"attendance-qr-backend/internal/api"
	"attendance-qr-backend/internal/attendance"
	"attendance-qr-backend/internal/db"
	"attendance-qr-backend/internal/events"
	"attendance-qr-backend/internal/metrics"
	"attendance-qr-backend/internal/reaper"
	"attendance-qr-backend/internal/replay"
	"attendance-qr-backend/internal/seed"
	"attendance-qr-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "attendanced ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	loc, err := time.LoadLocation(cfg.QR.Timezone)
	if err != nil {
		logger.Fatalf("invalid qr.timezone %q: %v", cfg.QR.Timezone, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	seeds := seed.NewManager(appStore, loc)

	// The database guard is always correct on its own; Redis in front of it
	// is a shared fast-reject for multi-instance deployments.
	var guard replay.Guard = replay.NewDBGuard(appStore)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatalf("redis ping failed: %v", err)
		}
		guard = replay.NewRedisGuard(rdb)
		logger.Println("redis replay guard enabled")
	}

	var publisher events.Publisher
	if cfg.AMQP.Enabled {
		publisher = events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		logger.Println("scan event publishing enabled")
	}

	var cooldown *attendance.Cooldown
	if cfg.QR.CooldownSeconds > 0 {
		cooldown = attendance.NewCooldown(time.Duration(cfg.QR.CooldownSeconds) * time.Second)
	}

	proc := attendance.NewProcessor(appStore, seeds, guard, publisher, cooldown, cfg.QR.WindowMinutes)

	if cfg.Reaper.Enabled {
		go reaper.NewService(appStore, cfg.Reaper.Interval).Run(ctx)
	}

	metrics.Register()

	router := api.NewRouter(
		api.NewHandler(appStore, seeds, proc),
		cfg.Server.RateLimitPerSec,
		time.Duration(cfg.Server.CacheTTLSeconds)*time.Second,
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
