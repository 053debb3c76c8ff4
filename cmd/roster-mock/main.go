package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster-console/internal/roster/adapter/fakeapi"
	"roster-console/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

// MockConfig configures the in-memory roster API
type MockConfig struct {
	Host          string  `env:"MOCK_HOST" envDefault:"localhost"`
	Port          string  `env:"MOCK_PORT" envDefault:"8081"`
	RatePerSecond float64 `env:"MOCK_RATE_PER_SECOND" envDefault:"5"`
	Burst         int     `env:"MOCK_RATE_BURST" envDefault:"10"`
	WrapLists     bool    `env:"MOCK_WRAP_LISTS" envDefault:"false"`
	Seed          bool    `env:"MOCK_SEED" envDefault:"true"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	cfg := &MockConfig{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("Failed to load mock configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	server := fakeapi.New(fakeapi.Options{
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		WrapLists:     cfg.WrapLists,
	}, appLogger)
	if cfg.Seed {
		server.Seed()
	}

	app := server.App()
	app.Use(recover.New())

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	appLogger.Infof("Roster mock API listening on %s (%.1f req/s, burst %d)", addr, cfg.RatePerSecond, cfg.Burst)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Mock server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Errorf("Mock server forced to shutdown: %v", err)
	}
}
