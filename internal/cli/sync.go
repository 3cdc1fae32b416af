package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/shelfmark/internal/catalog"
	"github.com/roach88/shelfmark/internal/engine"
	"github.com/roach88/shelfmark/internal/profile"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Library string
	Target  string
	Sidecar string
	Profile string
	DryRun  bool
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Converge the target folder and sidecar tree with the library",
		Long: `Converge a target folder of book files and a reader sidecar tree
with the library's catalog.

For every catalog record the preferred format is copied to the target
under its canonical name when missing or stale, stale sidecar
directories are renamed and their embedded document path patched, and
target files no record accounts for are deleted.

Example:
  shelfmark sync --library ~/Books --target /mnt/reader/books --sidecar /mnt/reader/books
  shelfmark sync --library ~/Books --target ./out --sidecar ./out --dry-run --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Library, "library", "", "path to the library root containing "+catalog.MetadataFile+" (required)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "path to the target folder (required)")
	cmd.Flags().StringVar(&opts.Sidecar, "sidecar", "", "path to the sidecar metadata root (required)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "path to a CUE profile file (optional)")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "report what would change without touching anything")
	_ = cmd.MarkFlagRequired("library")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("sidecar")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prof := profile.Default()
	if opts.Profile != "" {
		slog.Info("loading profile", "path", opts.Profile)
		var err error
		prof, err = profile.Load(opts.Profile)
		if err != nil {
			_ = formatter.Error(string(engine.ErrCodeConfig), err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load profile", err)
		}
	}

	slog.Info("opening catalog", "library", opts.Library)
	cat, err := catalog.Open(opts.Library)
	if err != nil {
		_ = formatter.Error(string(engine.ErrCodeConfig), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer func() {
		if closeErr := cat.Close(); closeErr != nil {
			slog.Error("error closing catalog", "error", closeErr)
		}
	}()

	eng, err := engine.New(cat, prof, opts.Target, opts.Sidecar, opts.DryRun)
	if err != nil {
		_ = formatter.Error(string(engine.ErrCodeConfig), err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	// Interrupt signals cancel the run between records.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := eng.Run(ctx)
	if err != nil {
		return wrapRunFailure(formatter, err)
	}

	return outputSyncReport(formatter, report)
}

// wrapRunFailure maps an engine failure to an exit code. Setup and
// validation failures surface before any mutation and exit 2; an
// interruption after the run started exits 1.
func wrapRunFailure(formatter *OutputFormatter, err error) error {
	var runErr *engine.RunError
	if errors.As(err, &runErr) {
		_ = formatter.Error(string(runErr.Code), err.Error(), nil)
		return WrapExitError(ExitCommandError, "sync aborted", err)
	}
	_ = formatter.Error("RUN_INTERRUPTED", err.Error(), nil)
	return WrapExitError(ExitFailure, "sync interrupted", err)
}

// outputSyncReport renders the end-of-run report. A completed run
// exits 0 even when it carries per-record errors; they are reported in
// the summary, and only failures that prevented the run from starting
// map to a non-zero exit.
func outputSyncReport(formatter *OutputFormatter, report *engine.RunReport) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data:   report,
		}
		if len(report.Errors) > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    string(report.Errors[0].Code),
				Message: report.Errors[0].Message,
			}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	}

	fmt.Fprintln(formatter.Writer, report.String())
	return nil
}
