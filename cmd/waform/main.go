package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DylanUno/whatsapp-group-form-automation/pkg/logger"
)

func main() {
	// Ctrl+C or SIGTERM cancels the run at its next suspension point;
	// the coordinator records everything unprocessed as skipped before
	// returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
