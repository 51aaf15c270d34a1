// Command imagectl drives the image API from the shell.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCommand()
	if err := execute(ctx, root, a); err != nil {
		slog.Error("imagectl failed", "error", err)
		os.Exit(1)
	}
}
