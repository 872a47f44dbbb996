package cli

import (
	"github.com/spf13/cobra"

	"github.com/dbxbak/dbxbak/internal/api"
	"github.com/dbxbak/dbxbak/internal/auth"
	"github.com/dbxbak/dbxbak/internal/members"
	"github.com/dbxbak/dbxbak/internal/types"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the team's members",
	Long:  "List every member of the Dropbox Business team the token belongs to",
	RunE:  runMembers,
}

func init() {
	rootCmd.AddCommand(membersCmd)
}

func runMembers(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	cfg := GetConfig()
	out := newFormatter()

	token, _, err := auth.ResolveToken(flags.Token, auth.NewKeyringStorage())
	if err != nil {
		return writeCommandError(out, "members", err)
	}

	client := api.NewClient(auth.TokenSource(token), api.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryDelayMs: cfg.RetryBaseDelay,
		Timeout:      cfg.GetRequestTimeout(),
	}, GetLogger())
	service := api.NewTeamService(client)

	roster, err := members.ListAll(cmd.Context(), service, GetLogger())
	if err != nil {
		return writeCommandError(out, "members", err)
	}

	if flags.OutputFormat == types.OutputFormatTable {
		return out.WriteSuccess("members", &types.MemberListRenderer{Members: roster})
	}
	return out.WriteSuccess("members", roster)
}
