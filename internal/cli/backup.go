package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dbxbak/dbxbak/internal/api"
	"github.com/dbxbak/dbxbak/internal/auth"
	"github.com/dbxbak/dbxbak/internal/backup"
	"github.com/dbxbak/dbxbak/internal/config"
	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/members"
	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up every team member's files",
	Long: `Download all team members' files into a local directory tree.

Member enumeration and file downloads run concurrently. Files shared
between members are downloaded once. A failed file is logged and
skipped; the run continues.`,
	RunE: runBackup,
}

var (
	backupSince     string
	backupMaxSizeMB int64
	backupOut       string
	backupWorkers   int
	backupQueueSize int
)

func init() {
	backupCmd.Flags().StringVar(&backupSince, "since", "", "Only back up files modified on or after this date (YYYY-MM-DD)")
	backupCmd.Flags().Int64Var(&backupMaxSizeMB, "maxsize", -1, "Skip files larger than this many MB (0 disables the cap)")
	backupCmd.Flags().StringVar(&backupOut, "out", "", "Output directory (default \"<today> backup\")")
	backupCmd.Flags().IntVar(&backupWorkers, "workers", 0, "Number of concurrent downloads")
	backupCmd.Flags().IntVar(&backupQueueSize, "queue-size", 0, "Maximum files waiting to download")
	rootCmd.AddCommand(backupCmd)
}

// backupSummary is the command's result payload
type backupSummary struct {
	OutputRoot   string `json:"outputRoot"`
	Members      int    `json:"members"`
	Consumers    int    `json:"consumers"`
	Enumerated   int64  `json:"enumerated"`
	Filtered     int64  `json:"filtered"`
	Downloaded   int64  `json:"downloaded"`
	Failed       int64  `json:"failed"`
	BytesWritten int64  `json:"bytesWritten"`
	ListErrors   int64  `json:"listErrors"`
	ElapsedSec   int64  `json:"elapsedSeconds"`
}

func (s *backupSummary) Headers() []string {
	return []string{"Metric", "Value"}
}

func (s *backupSummary) Rows() [][]string {
	return [][]string{
		{"Output", s.OutputRoot},
		{"Members", fmt.Sprintf("%d", s.Members)},
		{"Workers", fmt.Sprintf("%d", s.Consumers)},
		{"Entries seen", fmt.Sprintf("%d", s.Enumerated)},
		{"Skipped by filter", fmt.Sprintf("%d", s.Filtered)},
		{"Downloaded", fmt.Sprintf("%d", s.Downloaded)},
		{"Failed", fmt.Sprintf("%d", s.Failed)},
		{"Bytes written", config.FormatSize(s.BytesWritten)},
		{"Listing errors", fmt.Sprintf("%d", s.ListErrors)},
		{"Elapsed", (time.Duration(s.ElapsedSec) * time.Second).String()},
	}
}

func (s *backupSummary) EmptyMessage() string {
	return "Nothing to back up."
}

func parseSince(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	since, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid --since value %q, expected YYYY-MM-DD", value)).Build())
	}
	if since.After(time.Now()) {
		return time.Time{}, utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			"--since must not be later than today").Build())
	}
	return since, nil
}

// defaultOutputDir names the backup directory after today's date, with
// the cutoff in the name when one is set.
func defaultOutputDir(since string) string {
	today := time.Now().Format("2006-01-02")
	if since != "" {
		return fmt.Sprintf("%s backup since %s", today, since)
	}
	return today + " backup"
}

func runBackup(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	cfg := GetConfig()
	out := newFormatter()
	log := GetLogger()

	since, err := parseSince(backupSince)
	if err != nil {
		return writeCommandError(out, "backup", err)
	}

	maxSizeMB := cfg.MaxSizeMB
	if backupMaxSizeMB >= 0 {
		maxSizeMB = backupMaxSizeMB
	}
	workers := cfg.Workers
	if backupWorkers > 0 {
		workers = backupWorkers
	}
	queueSize := cfg.QueueSize
	if backupQueueSize > 0 {
		queueSize = backupQueueSize
	}
	outputRoot := backupOut
	if outputRoot == "" {
		outputRoot = defaultOutputDir(backupSince)
	}

	token, source, err := auth.ResolveToken(flags.Token, auth.NewKeyringStorage())
	if err != nil {
		return writeCommandError(out, "backup", err)
	}
	log.Debug("token resolved", logging.F("source", source))

	client := api.NewClient(auth.TokenSource(token), api.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryDelayMs: cfg.RetryBaseDelay,
	}, log)
	service := api.NewTeamService(client)

	ctx := cmd.Context()
	roster, err := members.ListAll(ctx, service, log)
	if err != nil {
		return writeCommandError(out, "backup", err)
	}
	if len(roster) == 0 {
		out.AddWarning("team has no members; nothing to back up")
	}
	out.Log("Backing up %d member(s) to %s", len(roster), outputRoot)

	var bar *progressbar.ProgressBar
	var onProgress func(backup.Progress)
	if flags.OutputFormat == types.OutputFormatTable && !flags.Quiet {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
		onProgress = func(p backup.Progress) {
			bar.Add(1)
		}
	}

	pipeline := backup.NewPipeline(service, service, backup.Options{
		OutputRoot: outputRoot,
		Filter: backup.FilterConfig{
			MaxSizeMB: maxSizeMB,
			Since:     since,
		},
		Workers:    workers,
		QueueSize:  queueSize,
		OnProgress: onProgress,
	}, log)

	result := pipeline.Run(ctx, roster)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(cmd.OutOrStdout())
	}

	summary := &backupSummary{
		OutputRoot:   outputRoot,
		Members:      result.Members,
		Consumers:    result.Consumers,
		Enumerated:   result.Enumerated,
		Filtered:     result.Filtered,
		Downloaded:   result.Downloaded,
		Failed:       result.Failed,
		BytesWritten: result.BytesWritten,
		ListErrors:   result.ListErrors,
		ElapsedSec:   int64(result.Elapsed.Seconds()),
	}
	if result.Failed > 0 {
		out.AddWarning(fmt.Sprintf("%d file(s) failed to download; see the log for details", result.Failed))
	}
	if result.ListErrors > 0 {
		out.AddWarning(fmt.Sprintf("%d member listing(s) failed; their files may be incomplete", result.ListErrors))
	}

	return out.WriteSuccess("backup", summary)
}
