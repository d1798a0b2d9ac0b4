package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	clarifyverify "github.com/temirov/clarify-verify/cmd/clarify-verify"
)

func main() {
	logger := zap.Must(zap.NewProduction())

	// Respect container CPU quotas before batch workers start.
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf)); err != nil {
		logger.Warn("adjust GOMAXPROCS", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionErr := clarifyverify.Execute(ctx)
	stop()
	if executionErr != nil {
		logger.Error("command execution failed", zap.Error(executionErr))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
