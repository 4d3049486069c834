package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/notify"
	"github.com/raoulx24/pollwatch/internal/schedule"
	"github.com/raoulx24/pollwatch/internal/watcher"
	"github.com/raoulx24/pollwatch/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the configured targets and print changed files",
	Long: `Seed a baseline from the configured targets, then rescan them every
scan interval. Added and modified files are printed to stdout, one per line.

Example:
  pollwatch run --dir ./src --ext php --interval 2
  pollwatch run --config pollwatch.yaml | xargs -n1 ./reload.sh`,
	RunE: runWatch,
}

func init() {
	addWatchFlags(runCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogging(cfg, cmd.ErrOrStderr())
	log.Info("starting pollwatch",
		"version", version,
		"mode", cfg.Watch.Mode,
		"interval", cfg.Watch.Interval().String(),
		"dirs", cfg.Watch.Dirs,
		"files", cfg.Watch.Files,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			log.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	// Hot reload of the log level; watch targets stay fixed for the process
	go reloadOnHangup(ctx, cmd, log)

	sched := schedule.New(log.With("component", "scheduler"))
	defer sched.Stop()

	w, err := watcher.New(ctx, cfg.Watch, sched, log.With("component", "watcher"))
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	queue := notify.NewQueue[string]()
	wk := worker.New(queue, printHandler(cmd.OutOrStdout(), log), log.With("component", "worker"))
	go wk.Start(ctx)

	if err := w.Watch(ctx, queue); err != nil {
		return fmt.Errorf("watcher error: %w", err)
	}

	log.Info("pollwatch stopped")
	return nil
}

// printHandler writes each changed path to out.
func printHandler(out io.Writer, log logging.Logger) worker.Handler {
	return func(_ context.Context, path string) error {
		log.Info("file changed", "path", path)
		_, err := fmt.Fprintln(out, path)
		return err
	}
}

// reloadLogLevel rereads the configuration c was started with and applies
// its logging level. Watch targets are not reloaded.
func reloadLogLevel(c *cobra.Command, log *logging.ZeroLogger) {
	cfg, err := loadConfig(c)
	if err != nil {
		log.Error("config reload failed", "error", err.Error())
		return
	}
	log.SetLevel(cfg.Logging.Level)
	log.Info("config reloaded", "level", cfg.Logging.Level)
}
