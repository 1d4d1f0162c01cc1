package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"saas-billing-be/internal/bootstrap"
	"saas-billing-be/internal/config"
	"saas-billing-be/internal/server"
	"saas-billing-be/internal/tracer"
	"saas-billing-be/pkg/database"
)

func main() {
	// 0. Tracing, enabled with OTEL_ENABLED=true
	shutdownTracer := tracer.InitTracer("saas-billing-backend")
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	go container.Reaper.Run(ctx, container.ReaperInterval)

	// 5. Initialize Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
