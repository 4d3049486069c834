package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raoulx24/pollwatch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Load the config file, apply environment and flag overrides, normalize
and validate, then print the result. Useful to check what run will use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	addWatchFlags(configCmd)
}
