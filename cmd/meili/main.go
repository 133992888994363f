package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kailas-cloud/meili/internal/cli"
)

func main() {
	// Ctrl-C cancels the in-flight request instead of killing the process
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Describe(err))
		stop()
		os.Exit(1)
	}
}
