//go:build windows

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/raoulx24/pollwatch/internal/logging"
)

// Windows has no SIGHUP.
func reloadOnHangup(ctx context.Context, c *cobra.Command, log *logging.ZeroLogger) {
	_, _ = c, log
	<-ctx.Done()
}
