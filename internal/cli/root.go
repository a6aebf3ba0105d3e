// Package cli implements the meal-planner command line.
package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
	"meal-rotation/internal/logger"
	"meal-rotation/internal/planner"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// Opener builds the App a command runs against. The returned func releases it.
type Opener func(ctx context.Context, opts *RootOptions) (*app.App, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string

	open Opener
}

// NewRootCommand creates the root command, configured from the environment.
func NewRootCommand() *cobra.Command {
	return newRootCommand(OpenFromEnv)
}

func newRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "meal-planner",
		Short: "Household meal rotation",
		Long:  "Plans a rolling week of dinners from a versioned recipe catalog and keeps the shopping list in step.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")

	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewShopCommand(opts))
	cmd.AddCommand(NewStaplesCommand(opts))
	cmd.AddCommand(NewRecipeCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewMetricsCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	if !slices.Contains(ValidFormats, format) {
		format = FormatText
	}
	out := &OutputFormatter{Format: format, Writer: cmd.ErrOrStderr()}
	out.Error(err)
	return GetExitCode(err)
}

// OpenFromEnv loads the configuration, then wires the logger and the App.
func OpenFromEnv(ctx context.Context, opts *RootOptions) (*app.App, func(), error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: cfg.LogFormat, Development: cfg.Debug})

	a, cleanup, err := app.Open(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, WrapExitError(ExitCommandError, "failed to initialize", err)
	}
	return a, func() {
		cleanup()
		_ = log.Sync()
	}, nil
}

// withApp opens the App for one command run.
func withApp(cmd *cobra.Command, opts *RootOptions, run func(ctx context.Context, a *app.App, out *OutputFormatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, cleanup, err := opts.open(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return run(ctx, a, out)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

// parseDate reads an optional YYYY-MM-DD flag value; empty means zero.
func parseDate(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := planner.ParseDate(s)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, "invalid --"+name, err)
	}
	return d, nil
}
