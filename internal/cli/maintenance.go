package cli

import (
	"context"
	"fmt"
	"io"

	"meal-rotation/internal/app"
	"meal-rotation/internal/metrics"

	"github.com/spf13/cobra"
)

// NewBackupCommand writes every recipe to the backup directory.
func NewBackupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write every recipe, history included, to BACKUP_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				n, err := a.Backup(ctx)
				if err != nil {
					return err
				}
				return out.Success(map[string]int{"saved": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Backed up %d recipe(s).\n", n)
				})
			})
		},
	}
}

// NewRestoreCommand loads the newest backup of every recipe.
func NewRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Load recipes back from BACKUP_PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				n, err := a.Restore(ctx)
				if err != nil {
					return err
				}
				return out.Success(map[string]int{"restored": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Restored %d recipe(s).\n", n)
				})
			})
		},
	}
}

// NewMetricsCommand reports and trims extractor usage.
func NewMetricsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "LLM usage and process health",
	}

	var days int
	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show daily token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				daily, err := a.DailyUsage(ctx, days)
				if err != nil {
					return err
				}
				health := a.SysHealth()
				data := struct {
					Daily  []metrics.DailyUsage `json:"daily"`
					Health metrics.SysHealth    `json:"health"`
				}{daily, health}
				return out.Success(data, func(w io.Writer) {
					if len(daily) == 0 {
						fmt.Fprintln(w, "No usage recorded.")
					}
					for _, d := range daily {
						fmt.Fprintf(w, "%s  %d prompt + %d completion tokens, %d call(s)\n",
							d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
					}
					fmt.Fprintf(w, "Memory: %d MB alloc, %d MB sys, %d goroutines\n",
						health.AllocMB, health.SysMB, health.Goroutines)
					fmt.Fprintf(w, "Database: %s, backups: %d file(s), %s\n",
						health.DatabaseSize(), health.BackupFiles, health.BackupSize())
				})
			})
		},
	}
	usage.Flags().IntVar(&days, "days", 7, "days to report")

	var olderThan int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete usage records older than a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				n, err := a.CleanupMetrics(ctx, olderThan)
				if err != nil {
					return err
				}
				return out.Success(map[string]int64{"removed": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %d usage record(s).\n", n)
				})
			})
		},
	}
	cleanup.Flags().IntVar(&olderThan, "days", 30, "keep records from the last days")

	cmd.AddCommand(usage, cleanup)
	return cmd
}
