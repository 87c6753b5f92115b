// Command slacker-client calls "rust.test/echo" against a Slacker
// server, the Go equivalent of original_source's examples/client.rs.
package main

import (
	"context"
	"flag"
	"time"

	"slacker/internal/logging"
	"slacker/slackerclient"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:3299", "server address")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	manager := slackerclient.NewClientManager()
	client, err := manager.Connect(ctx, *addr)
	if err != nil {
		logging.L().Fatal("slacker-client: connect failed", zap.Error(err))
	}
	defer client.Close()

	result, err := client.Call(ctx, "rust.test", "echo", 1, 2)
	if err != nil {
		logging.L().Fatal("slacker-client: call failed", zap.Error(err))
	}
	logging.L().Info("slacker-client: got result", zap.ByteString("result", result))
}
