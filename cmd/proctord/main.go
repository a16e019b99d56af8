// Command proctord runs the interview integrity monitor API.
// Usage: go run ./cmd/proctord [-addr :8080] [-detector-url URL | -replay capture.jsonl [-loop]]
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/proctor/internal/app"
	"github.com/raysh454/proctor/internal/cli"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/server"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parsing arguments: %v", err)
	}

	cfg, err := app.LoadConfig(args.EnvFiles...)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logging.NewStdoutLogger("proctord")
	application, err := app.NewApplication(cfg, args, logger)
	if err != nil {
		log.Fatalf("starting application: %v", err)
	}

	srv := server.NewServer(server.Config{ListenAddr: cfg.ListenAddr}, application.Orch, application.Metrics,
		logger.With(logging.Field{Key: "component", Value: "server"}))
	httpServer := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", logging.Field{Key: "error", Value: err})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", logging.Field{Key: "error", Value: err})
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Warn("application shutdown", logging.Field{Key: "error", Value: err})
	}
}
