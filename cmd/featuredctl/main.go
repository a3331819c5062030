package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/featured/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cli.FromEnvironment).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
