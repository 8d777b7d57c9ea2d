package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Default file names inside the data directory.
const (
	sessionLogFile = "sessions.csv"
	markerFile     = "running.csv"
	heartbeatFile  = "heartbeat.txt"
	quotaFile      = "quota.yaml"
	holidayFile    = "holidays.txt"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DataDir string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ttrack CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ttrack",
		Short: "ttrack - personal time tracker",
		Long: "A personal time tracker: select a client, start and stop a timer,\n" +
			"and report tracked hours against a configured quota.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			logLevel := slog.LevelInfo
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", ".", "directory holding the session log and config files")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAmendCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Paths into the data directory.

func (o *RootOptions) sessionLogPath() string { return filepath.Join(o.DataDir, sessionLogFile) }
func (o *RootOptions) markerPath() string     { return filepath.Join(o.DataDir, markerFile) }
func (o *RootOptions) heartbeatPath() string  { return filepath.Join(o.DataDir, heartbeatFile) }
func (o *RootOptions) quotaPath() string      { return filepath.Join(o.DataDir, quotaFile) }
func (o *RootOptions) holidayPath() string    { return filepath.Join(o.DataDir, holidayFile) }
