// Command slacker-threadserver runs the worker-pool Slacker server, the
// Go equivalent of original_source's examples/thread_server.rs
// (ThreadPoolServer over a futures_cpupool::CpuPool).
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
	"slacker/slackerserver"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func echo(ctx context.Context, args []json.RawMessage) (any, error) {
	return args, nil
}

func main() {
	addr := flag.String("addr", "127.0.0.1:3299", "address to listen on")
	workers := flag.Int("workers", 10, "fixed worker pool size")
	flag.Parse()

	registry := dispatch.NewRegistry()
	registry.Register("rust.test/echo", echo)

	svr := slackerserver.NewWorkerPoolServer(registry, *workers)

	go func() {
		if err := svr.Serve("tcp", *addr); err != nil {
			logging.L().Fatal("slacker-threadserver: serve failed", zap.Error(err))
		}
	}()
	logging.L().Info("slacker-threadserver: listening",
		zap.String("addr", *addr), zap.Int("workers", *workers))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svr.Shutdown(ctx); err != nil {
		logging.L().Warn("slacker-threadserver: shutdown did not complete cleanly", zap.Error(err))
	}
}
