package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

// OutputFormatter handles output formatting for CLI commands
type OutputFormatter struct {
	format         types.OutputFormat
	quiet          bool
	verbose        bool
	includeTraceID bool
	writer         io.Writer
	errorWriter    io.Writer
	warnings       []string
}

// OutputOptions configures the output formatter
type OutputOptions struct {
	Format         types.OutputFormat
	Quiet          bool
	Verbose        bool
	IncludeTraceID bool
	// Writer and ErrorWriter default to stdout and stderr
	Writer      io.Writer
	ErrorWriter io.Writer
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(opts OutputOptions) *OutputFormatter {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.ErrorWriter == nil {
		opts.ErrorWriter = os.Stderr
	}
	return &OutputFormatter{
		format:         opts.Format,
		quiet:          opts.Quiet,
		verbose:        opts.Verbose,
		includeTraceID: opts.IncludeTraceID,
		writer:         opts.Writer,
		errorWriter:    opts.ErrorWriter,
	}
}

// AddWarning adds a warning to be included in output
func (f *OutputFormatter) AddWarning(message string) {
	f.warnings = append(f.warnings, message)
}

// WriteSuccess writes a successful result
func (f *OutputFormatter) WriteSuccess(command string, data interface{}) error {
	traceID := ""
	if f.verbose || f.includeTraceID {
		traceID = uuid.New().String()
	}

	output := types.CLIOutput{
		SchemaVersion: utils.SchemaVersion,
		TraceID:       traceID,
		Command:       command,
		Data:          data,
		Warnings:      f.warnings,
		Errors:        []types.CLIError{},
	}

	if f.verbose && traceID != "" {
		f.Verbose("Trace ID: %s", traceID)
	}

	switch f.format {
	case types.OutputFormatJSON:
		return f.writeJSON(output)
	case types.OutputFormatTable:
		return f.writeTable(command, data)
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

// WriteError writes an error result. Errors are always structured JSON
// so scripts can parse them regardless of the chosen format.
func (f *OutputFormatter) WriteError(command string, cliErr types.CLIError) error {
	traceID := uuid.New().String()

	output := types.CLIOutput{
		SchemaVersion: utils.SchemaVersion,
		TraceID:       traceID,
		Command:       command,
		Data:          nil,
		Warnings:      f.warnings,
		Errors:        []types.CLIError{cliErr},
	}

	if err := f.writeJSON(output); err != nil {
		return err
	}

	if f.verbose {
		f.Verbose("Error occurred - Trace ID: %s", traceID)
	}

	return nil
}

// writeJSON writes data as JSON
func (f *OutputFormatter) writeJSON(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// writeTable writes data in table format
func (f *OutputFormatter) writeTable(command string, data interface{}) error {
	if len(f.warnings) > 0 && !f.quiet {
		for _, warning := range f.warnings {
			if _, err := fmt.Fprintf(f.errorWriter, "Warning: %s\n", warning); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f.errorWriter); err != nil {
			return err
		}
	}

	switch v := data.(type) {
	case types.TableRenderer:
		return f.renderTable(v)
	case map[string]interface{}:
		return f.writeKeyValueTable(v)
	default:
		// Fallback to JSON for unknown types
		return f.writeJSON(types.CLIOutput{
			SchemaVersion: utils.SchemaVersion,
			Command:       command,
			Data:          data,
			Warnings:      f.warnings,
			Errors:        []types.CLIError{},
		})
	}
}

func (f *OutputFormatter) renderTable(renderer types.TableRenderer) error {
	rows := renderer.Rows()
	if len(rows) == 0 {
		if !f.quiet {
			if _, err := fmt.Fprintln(f.writer, renderer.EmptyMessage()); err != nil {
				return err
			}
		}
		return nil
	}

	table := tablewriter.NewWriter(f.writer)
	table.SetHeader(renderer.Headers())
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
	return nil
}

// writeKeyValueTable writes a generic key-value table
func (f *OutputFormatter) writeKeyValueTable(data map[string]interface{}) error {
	table := tablewriter.NewWriter(f.writer)
	table.SetHeader([]string{"Key", "Value"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for key, value := range data {
		table.Append([]string{key, fmt.Sprintf("%v", value)})
	}

	table.Render()
	return nil
}

// Log writes a message to stderr unless quiet mode is enabled
func (f *OutputFormatter) Log(format string, args ...interface{}) {
	if !f.quiet {
		fmt.Fprintf(f.errorWriter, format+"\n", args...)
	}
}

// Verbose writes a message to stderr only in verbose mode
func (f *OutputFormatter) Verbose(format string, args ...interface{}) {
	if f.verbose {
		fmt.Fprintf(f.errorWriter, "[VERBOSE] "+format+"\n", args...)
	}
}

// FormatSize renders a byte count for humans. Decimal units, matching
// how the size cap flag is documented.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bytes))
}

// FormatTime formats a timestamp for display, relative for recent times
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("15:04 Today")
	case diff < 48*time.Hour:
		return t.Format("15:04 Yesterday")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	}
	return t.Format("2006-01-02")
}

// TruncateString truncates a string to maxLen with ellipsis
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
