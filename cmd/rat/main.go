package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/macropower/rat/internal/cli"
	"github.com/macropower/rat/pkg/version"
)

func main() {
	err := fang.Execute(
		context.Background(),
		cli.NewRootCmd(),
		fang.WithVersion(version.GetVersion()),
		fang.WithErrorHandler(cli.ErrorHandler),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)

	// Flush spans before exiting, on failure too.
	cli.ShutdownTracing(context.Background())

	if err != nil {
		os.Exit(1)
	}
}
