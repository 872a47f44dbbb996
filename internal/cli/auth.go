package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbxbak/dbxbak/internal/auth"
	"github.com/dbxbak/dbxbak/internal/utils"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored team token",
	Long: `Store or remove the Dropbox Business team token in the system keyring.

The token is issued once in the Dropbox admin console. Commands resolve
it from --token, then ` + utils.TokenEnvVar + `, then the keyring.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the team token in the system keyring",
	RunE:  runAuthSet,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored team token",
	RunE:  runAuthClear,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the token would come from",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := newFormatter()

	token := flags.Token
	if token == "" {
		token = os.Getenv(utils.TokenEnvVar)
	}
	if token == "" {
		// Interactive fallback; keeps the token out of shell history.
		fmt.Fprint(cmd.ErrOrStderr(), "Team token: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return writeCommandError(out, "auth.set", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return writeCommandError(out, "auth.set", utils.NewAppError(
			utils.NewCLIError(utils.ErrCodeInvalidArgument, "no token provided").Build()))
	}

	storage := auth.NewKeyringStorage()
	if err := storage.Save(auth.DefaultProfile, []byte(token)); err != nil {
		return writeCommandError(out, "auth.set", err)
	}

	return out.WriteSuccess("auth.set", map[string]interface{}{
		"stored":  true,
		"backend": storage.Name(),
	})
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	out := newFormatter()

	storage := auth.NewKeyringStorage()
	if err := storage.Delete(auth.DefaultProfile); err != nil {
		return writeCommandError(out, "auth.clear", err)
	}

	return out.WriteSuccess("auth.clear", map[string]interface{}{
		"cleared": true,
		"backend": storage.Name(),
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := newFormatter()

	_, source, err := auth.ResolveToken(flags.Token, auth.NewKeyringStorage())
	if err != nil {
		return writeCommandError(out, "auth.status", err)
	}

	return out.WriteSuccess("auth.status", map[string]interface{}{
		"authenticated": true,
		"source":        source,
	})
}
