//go:build !windows

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raoulx24/pollwatch/internal/logging"
)

func reloadOnHangup(ctx context.Context, c *cobra.Command, log *logging.ZeroLogger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			reloadLogLevel(c, log)
		}
	}
}
