package cli

import (
	"github.com/spf13/cobra"

	"github.com/dbxbak/dbxbak/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the tool's configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Show the configuration after applying the config file and environment overrides",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := newFormatter()
	cfg := GetConfig()

	return out.WriteSuccess("config.show", map[string]interface{}{
		"defaultOutputFormat": string(cfg.DefaultOutputFormat),
		"workers":             cfg.Workers,
		"queueSize":           cfg.QueueSize,
		"maxSizeMB":           cfg.MaxSizeMB,
		"maxRetries":          cfg.MaxRetries,
		"retryBaseDelay":      cfg.RetryBaseDelay,
		"requestTimeout":      cfg.RequestTimeout,
		"logLevel":            cfg.LogLevel,
		"logFile":             cfg.LogFile,
		"colorOutput":         cfg.ColorOutput,
	})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := newFormatter()

	path, err := config.GetConfigPath()
	if err != nil {
		return writeCommandError(out, "config.path", err)
	}

	return out.WriteSuccess("config.path", map[string]interface{}{
		"path": path,
	})
}
