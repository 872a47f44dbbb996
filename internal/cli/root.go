// Package cli wires the commands, flags, and process lifecycle.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbxbak/dbxbak/internal/config"
	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
	"github.com/dbxbak/dbxbak/pkg/version"
)

var (
	globalFlags types.GlobalFlags
	logger      logging.Logger
	appConfig   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dbxbak",
	Short: "Dropbox Business team backup tool",
	Long: `dbxbak downloads every team member's files from Dropbox Business
into a local directory tree, one subtree per remote path.

Enumeration and download run concurrently; files shared between members
are fetched once. All commands support JSON output for automation.`,
	Version: version.Version,
	// Errors reach the user as structured output from writeCommandError;
	// cobra printing them again would double up.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateGlobalFlags(); err != nil {
			return err
		}

		var err error
		appConfig, err = config.Load()
		if err != nil {
			return err
		}

		logConfig := logging.LogConfig{
			Level:           logging.INFO,
			OutputFile:      globalFlags.LogFile,
			EnableConsole:   !globalFlags.Quiet,
			EnableDebug:     globalFlags.Debug,
			RedactSensitive: true,
			EnableColor:     true,
			EnableTimestamp: true,
		}
		if logConfig.OutputFile == "" {
			logConfig.OutputFile = appConfig.LogFile
		}
		if globalFlags.Verbose {
			logConfig.Level = logging.DEBUG
		}
		if globalFlags.OutputFormat == types.OutputFormatJSON && !globalFlags.Verbose && !globalFlags.Debug {
			logConfig.EnableConsole = false
		}

		logger, err = logging.NewLogger(logConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "Print the version number of dbxbak",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar((*string)(&globalFlags.OutputFormat), "output", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Token, "token", "", "Dropbox Business team token")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "Output in JSON format (alias for --output json)")

	rootCmd.AddCommand(versionCmd)
}

func validateGlobalFlags() error {
	if globalFlags.JSON {
		globalFlags.OutputFormat = types.OutputFormatJSON
	}

	if globalFlags.OutputFormat != types.OutputFormatJSON && globalFlags.OutputFormat != types.OutputFormatTable {
		return fmt.Errorf("invalid output format: %s", globalFlags.OutputFormat)
	}
	return nil
}

// Execute runs the root command and maps failures to stable exit codes
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			os.Exit(utils.GetExitCode(appErr.CLIError.Code))
		}
		os.Exit(utils.ExitUnknown)
	}
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() types.GlobalFlags {
	return globalFlags
}

// GetLogger returns the global logger
func GetLogger() logging.Logger {
	return logger
}

// GetConfig returns the loaded application configuration
func GetConfig() *config.Config {
	return appConfig
}

// newFormatter builds the output formatter for the current invocation
func newFormatter() *config.OutputFormatter {
	return config.NewOutputFormatter(config.OutputOptions{
		Format:  globalFlags.OutputFormat,
		Quiet:   globalFlags.Quiet,
		Verbose: globalFlags.Verbose,
	})
}

// writeCommandError renders an error and returns the AppError so Execute
// can pick the exit code.
func writeCommandError(out *config.OutputFormatter, command string, err error) error {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}
	if writeErr := out.WriteError(command, appErr.CLIError); writeErr != nil {
		return writeErr
	}
	return appErr
}
