package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dbxbak/dbxbak/internal/utils"
)

func TestParseSince(t *testing.T) {
	t.Run("empty means no cutoff", func(t *testing.T) {
		since, err := parseSince("")
		if err != nil {
			t.Fatalf("parseSince() error = %v", err)
		}
		if !since.IsZero() {
			t.Errorf("since = %v, want zero", since)
		}
	})

	t.Run("valid date", func(t *testing.T) {
		since, err := parseSince("2025-06-01")
		if err != nil {
			t.Fatalf("parseSince() error = %v", err)
		}
		want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		if !since.Equal(want) {
			t.Errorf("since = %v, want %v", since, want)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := parseSince("June 1st")
		assertInvalidArgument(t, err)
	})

	t.Run("future date is rejected", func(t *testing.T) {
		future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
		_, err := parseSince(future)
		assertInvalidArgument(t, err)
	})
}

func assertInvalidArgument(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error type = %T, want *utils.AppError", err)
	}
	if appErr.CLIError.Code != utils.ErrCodeInvalidArgument {
		t.Errorf("code = %q, want INVALID_ARGUMENT", appErr.CLIError.Code)
	}
}

func TestDefaultOutputDir(t *testing.T) {
	today := time.Now().Format("2006-01-02")

	if got := defaultOutputDir(""); got != today+" backup" {
		t.Errorf("defaultOutputDir() = %q", got)
	}

	got := defaultOutputDir("2025-06-01")
	if !strings.HasPrefix(got, today) || !strings.Contains(got, "since 2025-06-01") {
		t.Errorf("defaultOutputDir(since) = %q", got)
	}
}

func TestBackupSummaryTable(t *testing.T) {
	s := &backupSummary{
		OutputRoot:   "/backups/today",
		Members:      2,
		Consumers:    8,
		Downloaded:   10,
		BytesWritten: 1_500_000,
	}

	rows := s.Rows()
	if len(rows) != 10 {
		t.Fatalf("got %d rows", len(rows))
	}

	var sawBytes bool
	for _, row := range rows {
		if row[0] == "Bytes written" {
			sawBytes = true
			if !strings.Contains(row[1], "MB") {
				t.Errorf("bytes rendered as %q, want humanized size", row[1])
			}
		}
	}
	if !sawBytes {
		t.Error("summary table missing bytes row")
	}
}
