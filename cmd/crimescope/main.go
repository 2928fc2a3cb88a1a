package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/crimescope/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
