package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/ttrack/internal/aggregate"
	"github.com/roach88/ttrack/internal/session"
	"github.com/roach88/ttrack/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Client  string
	LogFile string

	// Clock allows overriding the wall clock (for testing).
	// If nil, defaults to the system clock.
	Clock session.Clock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive tracking loop",
		Long: `Start the interactive tracking loop.

Recovers any session interrupted by a crash (asking whether to keep the
time), then reads commands from stdin while a 1-second tick keeps the
heartbeat fresh:

  client <name>   select a client (stops a running timer first)
  toggle          start or stop the timer for the selected client
  status          show the live session and today/week/month totals
  quit            stop a running timer and exit

Interrupting the process (Ctrl-C) exits without stopping the timer; the
session is offered for recovery at the next launch, exactly as after a
crash.

Example:
  ttrack run --data-dir ~/.ttrack --client Acme`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracker(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Client, "client", "", "client to select at startup")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "tee structured logs to this rotating file")

	return cmd
}

func runTracker(opts *RunOptions, cmd *cobra.Command) error {
	if opts.LogFile != "" {
		setupFileLogging(opts.Verbose, opts.LogFile)
	}

	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	records := store.New(opts.sessionLogPath())
	marker := store.NewMarker(opts.markerPath(), opts.heartbeatPath())
	clock := opts.Clock
	if clock == nil {
		clock = session.SystemClock()
	}
	machine := session.New(records, marker, clock)

	// Recovery runs to completion, prompt included, before the loop
	// accepts any command.
	reader := bufio.NewScanner(in)
	recovered, err := machine.RecoverOnStartup(func(r session.Recovery) bool {
		fmt.Fprintf(out, "%s [y/N]: ", r.Prompt())
		if !reader.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(reader.Text()))
		return answer == "y" || answer == "yes"
	})
	if err != nil {
		return WrapExitError(ExitFailure, "crash recovery failed", err)
	}
	if recovered != nil {
		fmt.Fprintf(out, "Recovered %s for %s.\n",
			aggregate.Hours(recovered.Duration()), recovered.Client)
	}

	if opts.Client != "" {
		if err := machine.SelectClient(opts.Client); err != nil {
			return WrapExitError(ExitCommandError, "select client", err)
		}
	}

	// Signal handling: Ctrl-C exits without stopping the timer, leaving
	// the marker for next-launch recovery, same as a crash.
	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for reader.Scan() {
			lines <- reader.Text()
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fmt.Fprintln(out, `Ready. Commands: client <name>, toggle, status, quit.`)
	for {
		select {
		case <-ctx.Done():
			if machine.State() == session.Running {
				fmt.Fprintln(out, "\nInterrupted with a timer running; it will be offered for recovery at the next launch.")
			}
			return nil

		case <-ticker.C:
			machine.Tick()

		case line, ok := <-lines:
			if !ok {
				// stdin closed: stop cleanly if possible. A blocked log
				// cannot be retried without input, so leave the marker
				// for next-launch recovery.
				done, err := quitTracker(machine, out)
				if !done {
					return NewExitError(ExitFailure, "session log blocked, timer left for recovery at next launch")
				}
				return err
			}
			done, err := dispatch(machine, out, line)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// dispatch handles one interactive command line.
// Returns done=true when the loop should exit.
func dispatch(machine *session.Machine, out io.Writer, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "client":
		if len(fields) < 2 {
			fmt.Fprintln(out, "Usage: client <name>")
			return false, nil
		}
		name := strings.Join(fields[1:], " ")
		if err := machine.SelectClient(name); err != nil {
			printActionError(out, err)
			return false, nil
		}
		fmt.Fprintf(out, "Selected %s.\n", name)

	case "toggle":
		toggleTimer(machine, out)

	case "status":
		printStatus(machine, out)

	case "quit", "exit":
		return quitTracker(machine, out)

	default:
		fmt.Fprintf(out, "Unknown command %q. Commands: client <name>, toggle, status, quit.\n", fields[0])
	}

	return false, nil
}

// toggleTimer flips between Start and Stop, surfacing a blocked log as a
// retryable condition rather than an exit.
func toggleTimer(machine *session.Machine, out io.Writer) {
	if machine.State() == session.Running {
		if err := machine.Stop(); err != nil {
			printActionError(out, err)
			return
		}
		fmt.Fprintln(out, "Timer stopped.")
		return
	}

	if err := machine.Start(); err != nil {
		printActionError(out, err)
		return
	}
	fmt.Fprintf(out, "Timer started for %s.\n", machine.Client())
}

// quitTracker stops a running timer cleanly before exiting. A blocked log
// is not fatal: done=false keeps the loop alive so the user can release
// the other program and retry the quit.
func quitTracker(machine *session.Machine, out io.Writer) (done bool, err error) {
	if machine.State() != session.Running {
		return true, nil
	}

	if err := machine.Stop(); err != nil {
		printActionError(out, err)
		if store.IsBlocked(err) {
			return false, nil
		}
		return true, WrapExitError(ExitFailure, "timer could not be stopped", err)
	}
	fmt.Fprintln(out, "Timer stopped.")
	return true, nil
}

// printStatus renders the live session and the selected client's totals.
func printStatus(machine *session.Machine, out io.Writer) {
	snap := machine.Snapshot()
	if snap.Client == "" {
		fmt.Fprintln(out, "No client selected.")
		return
	}

	fmt.Fprintf(out, "Client: %s\n", snap.Client)
	fmt.Fprintf(out, "Session: %s\n", session.FormatElapsed(snap.Elapsed))

	totals, err := machine.CurrentTotals()
	if err != nil {
		printActionError(out, err)
		return
	}
	fmt.Fprintf(out, "Today: %s\n", aggregate.Hours(totals.Today))
	fmt.Fprintf(out, "Week: %s\n", aggregate.Hours(totals.Week))
	fmt.Fprintf(out, "Month: %s\n", aggregate.Hours(totals.Month))
}

// printActionError renders an action failure without ending the loop.
// A blocked log gets the retry instruction the user actually needs.
func printActionError(out io.Writer, err error) {
	if store.IsBlocked(err) {
		fmt.Fprintln(out, "The session log is held open by another program. Close it and retry.")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}

// setupFileLogging tees structured logs to a rotating file alongside
// stderr, for long-lived tracking sessions.
func setupFileLogging(verbose bool, path string) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, rotating), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
