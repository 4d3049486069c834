// Package cmd contains the CLI commands for pollwatch.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raoulx24/pollwatch/internal/config"
	"github.com/raoulx24/pollwatch/internal/logging"
)

const defaultConfigFile = "pollwatch.yaml"

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"

	cfgFile string
	verbose bool

	// overrides shared by commands that need a watch configuration
	flagDirs     []string
	flagFiles    []string
	flagExts     []string
	flagInterval int
	flagMode     string
	flagHash     string
)

var rootCmd = &cobra.Command{
	Use:   "pollwatch",
	Short: "Report added and modified files by periodic polling",
	Long: `pollwatch rescans a set of files and directories at a fixed interval and
prints every added or modified file, one path per line, so the output can
drive a reload. A file is only reported as modified when its content hash
changed, not merely its mtime. Deleted files are logged and withhold the
cycle's modifications, since they usually need a manual restart.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information from the main package.
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// addWatchFlags registers the watch overrides on c.
func addWatchFlags(c *cobra.Command) {
	c.Flags().StringSliceVar(&flagDirs, "dir", nil, "directory to watch recursively (repeatable)")
	c.Flags().StringSliceVar(&flagFiles, "file", nil, "file to watch, relative to basePath (repeatable)")
	c.Flags().StringSliceVar(&flagExts, "ext", nil, "extension to watch inside directories (repeatable)")
	c.Flags().IntVar(&flagInterval, "interval", 0, "scan interval in seconds")
	c.Flags().StringVar(&flagMode, "mode", "", "watch mode: poll, fsnotify or auto")
	c.Flags().StringVar(&flagHash, "hash", "", "content hash: md5 or xxh3")
}

// loadConfig reads the config file, layers command line overrides on top,
// then normalizes and validates.
func loadConfig(c *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Read(cfgFile)
	} else {
		cfg, err = config.ReadOptional(defaultConfigFile)
	}
	if err != nil {
		return nil, err
	}

	applyOverrides(c, cfg)

	if err := config.Normalize(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(c *cobra.Command, cfg *config.Config) {
	f := c.Flags()
	if f.Changed("dir") {
		cfg.Watch.Dirs = flagDirs
	}
	if f.Changed("file") {
		cfg.Watch.Files = flagFiles
	}
	if f.Changed("ext") {
		cfg.Watch.Extensions = flagExts
	}
	if f.Changed("interval") {
		cfg.Watch.ScanInterval = flagInterval
	}
	if f.Changed("mode") {
		cfg.Watch.Mode = flagMode
	}
	if f.Changed("hash") {
		cfg.Watch.Hash = flagHash
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}

func setupLogging(cfg *config.Config, out io.Writer) *logging.ZeroLogger {
	if out == nil {
		out = os.Stderr
	}
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, out)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pollwatch %s\n", version)
		fmt.Fprintf(out, "  Build time: %s\n", buildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", gitCommit)
	},
}
