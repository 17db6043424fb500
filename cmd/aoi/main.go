package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vscsfarm/internal/cli/command"
	"vscsfarm/pkg/utils/logger"
)

// Set via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.New(command.Options{Version: version})
	err := app.Run(ctx, os.Args[1:])
	_ = logger.Sync()
	if err != nil {
		app.Printer().Error("%v", err)
		stop()
		os.Exit(1)
	}
}
