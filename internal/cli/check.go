package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shelfmark/internal/profile"
)

// CheckResult holds profile validation results.
type CheckResult struct {
	Valid    bool   `json:"valid"`
	File     string `json:"file"`
	Message  string `json:"message,omitempty"`
	Line     int    `json:"line,omitempty"`
	Template string `json:"template,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <profile-file>",
		Short: "Validate a profile file without syncing",
		Long: `Validate a CUE profile file without running a sync.

Reports the effective template and format preference on success, and
the offending file position on failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prof, err := profile.Load(path)
	if err != nil {
		var loadErr *profile.LoadError
		if errors.As(err, &loadErr) {
			result := CheckResult{Valid: false, File: path, Message: loadErr.Message}
			if loadErr.Pos.IsValid() {
				result.Line = loadErr.Pos.Line()
			}
			return outputCheckFailure(formatter, result, loadErr)
		}
		// File-level failure (unreadable, missing): command error.
		_ = formatter.Error("PROFILE_UNREADABLE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read profile", err)
	}

	result := CheckResult{Valid: true, File: path, Template: prof.Template}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Profile valid\n")
	fmt.Fprintf(formatter.Writer, "  template: %s\n", prof.Template)
	fmt.Fprintf(formatter.Writer, "  formats:  %v\n", prof.FormatPreference)
	return nil
}

// outputCheckFailure outputs a failed validation and maps it to the
// failure exit code.
func outputCheckFailure(formatter *OutputFormatter, result CheckResult, loadErr *profile.LoadError) error {
	if formatter.Format == "json" {
		_ = formatter.Error("PROFILE_INVALID", loadErr.Error(), result)
		return NewExitError(ExitFailure, "profile validation failed")
	}

	fmt.Fprintln(formatter.Writer, "✗ Profile invalid")
	fmt.Fprintln(formatter.Writer)
	if result.Line > 0 {
		fmt.Fprintf(formatter.Writer, "line %d\n", result.Line)
	}
	fmt.Fprintf(formatter.Writer, "  %s\n", result.Message)
	return NewExitError(ExitFailure, "profile validation failed")
}
