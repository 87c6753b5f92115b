// Command slacker-server runs an async Slacker server exposing a single
// echo function, the Go equivalent of original_source's
// examples/server.rs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slacker/dispatch"
	"slacker/internal/logging"
	"slacker/middleware"
	"slacker/slackerserver"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func echo(ctx context.Context, args []json.RawMessage) (any, error) {
	return args, nil
}

func main() {
	addr := flag.String("addr", "0.0.0.0:8080", "address to listen on")
	flag.Parse()

	registry := dispatch.NewRegistry()
	registry.Register("rust.test/echo", echo)

	svr := slackerserver.NewServer(registry, dispatch.WithMiddleware(middleware.LoggingMiddleware()))

	go func() {
		if err := svr.Serve("tcp", *addr); err != nil {
			logging.L().Fatal("slacker-server: serve failed", zap.Error(err))
		}
	}()
	logging.L().Info("slacker-server: listening", zap.String("addr", *addr))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svr.Shutdown(ctx); err != nil {
		logging.L().Warn("slacker-server: shutdown did not complete cleanly", zap.Error(err))
	}
}
