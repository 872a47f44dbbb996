package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbxbak/dbxbak/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPrefix+"CONFIG_DIR", dir)

	fileCfg := map[string]interface{}{
		"defaultOutputFormat": "json",
		"workers":             4,
		"queueSize":           500,
		"maxSizeMB":           50,
		"maxRetries":          2,
		"retryBaseDelay":      1000,
		"requestTimeout":      60,
		"logLevel":            "verbose",
		"colorOutput":         false,
	}
	data, _ := json.Marshal(fileCfg)
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvPrefix+"WORKERS", "16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers != 16 {
		t.Errorf("workers = %d, want env override 16", cfg.Workers)
	}
	if cfg.QueueSize != 500 {
		t.Errorf("queueSize = %d, want file value 500", cfg.QueueSize)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("maxSizeMB = %d, want file value 50", cfg.MaxSizeMB)
	}
	if cfg.LogLevel != "verbose" {
		t.Errorf("logLevel = %q, want file value verbose", cfg.LogLevel)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.Workers != want.Workers || cfg.QueueSize != want.QueueSize {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad format", func(c *Config) { c.DefaultOutputFormat = "yaml" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative queue", func(c *Config) { c.QueueSize = -1 }},
		{"negative size cap", func(c *Config) { c.MaxSizeMB = -5 }},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG_DIR", t.TempDir())

	cfg := DefaultConfig()
	cfg.Workers = 12
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Workers != 12 {
		t.Errorf("workers = %d, want 12", loaded.Workers)
	}
}

func TestOutputFormatter_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(OutputOptions{
		Format: types.OutputFormatJSON,
		Writer: &buf,
	})

	if err := f.WriteSuccess("members", map[string]int{"count": 3}); err != nil {
		t.Fatalf("WriteSuccess() error = %v", err)
	}

	var out types.CLIOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Command != "members" {
		t.Errorf("command = %q, want members", out.Command)
	}
	if len(out.Errors) != 0 {
		t.Errorf("errors = %v, want none", out.Errors)
	}
}

func TestOutputFormatter_TableRendersMembers(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(OutputOptions{
		Format: types.OutputFormatTable,
		Writer: &buf,
	})

	renderer := &types.MemberListRenderer{Members: []types.Member{
		{ID: "dbmid:aaa", DisplayName: "Ann A", Email: "ann@corp.com", Status: "active"},
	}}
	if err := f.WriteSuccess("members", renderer); err != nil {
		t.Fatalf("WriteSuccess() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Ann A", "ann@corp.com", "active"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestOutputFormatter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(OutputOptions{
		Format: types.OutputFormatTable,
		Writer: &buf,
	})

	if err := f.WriteSuccess("members", &types.MemberListRenderer{}); err != nil {
		t.Fatalf("WriteSuccess() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No team members found.") {
		t.Errorf("missing empty message, got %q", buf.String())
	}
}

func TestOutputFormatter_ErrorIsAlwaysJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewOutputFormatter(OutputOptions{
		Format: types.OutputFormatTable,
		Writer: &buf,
	})

	cliErr := types.CLIError{Code: "PATH_NOT_FOUND", Message: "no such file"}
	if err := f.WriteError("backup", cliErr); err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}

	var out types.CLIOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("error output is not JSON: %v", err)
	}
	if len(out.Errors) != 1 || out.Errors[0].Code != "PATH_NOT_FOUND" {
		t.Errorf("unexpected errors: %+v", out.Errors)
	}
	if out.TraceID == "" {
		t.Error("error output missing trace ID")
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(0); got != "-" {
		t.Errorf("FormatSize(0) = %q, want -", got)
	}
	if got := FormatSize(1_500_000); !strings.Contains(got, "MB") {
		t.Errorf("FormatSize(1.5MB) = %q, want decimal megabytes", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 20); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("a-very-long-identifier", 10); got != "a-very-..." {
		t.Errorf("got %q", got)
	}
}
