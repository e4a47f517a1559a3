package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdf-chat-client/internal/bootstrap"
	"pdf-chat-client/internal/config"
	"pdf-chat-client/internal/server"
	"pdf-chat-client/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.Observe.OtelEnabled, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Start Background Services
	if err := container.Start(ctx); err != nil {
		log.Fatalf("Unable to start workspace: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		container.Logger.Error("Server", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
