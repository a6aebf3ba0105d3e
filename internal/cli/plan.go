package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"meal-rotation/internal/app"
	"meal-rotation/internal/planner"

	"github.com/spf13/cobra"
)

type mealView struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	RecipeID int64    `json:"recipe_id"`
	Version  int      `json:"recipe_version"`
	Title    string   `json:"title"`
	Servings *int     `json:"servings,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Comment  string   `json:"rating_comment,omitempty"`
	Cooked   bool     `json:"is_cooked"`
	Deleted  bool     `json:"recipe_deleted,omitempty"`
}

func mealViews(meals []app.PlannedMeal) []mealView {
	views := make([]mealView, 0, len(meals))
	for _, m := range meals {
		views = append(views, mealView{
			ID:       m.Item.ID,
			Date:     planner.DateKey(m.Item.Date),
			RecipeID: m.Item.RecipeID,
			Version:  m.Item.RecipeVersion,
			Title:    m.Title,
			Servings: m.Item.Servings,
			Rating:   m.Item.Rating,
			Comment:  m.Item.RatingComment,
			Cooked:   m.Item.IsCooked,
			Deleted:  m.Deleted,
		})
	}
	return views
}

func printMeals(w io.Writer, views []mealView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "Nothing planned.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMEAL\tRECIPE\tSTATUS")
	for _, v := range views {
		title := v.Title
		if v.Deleted {
			title += " (deleted)"
		}
		status := ""
		if v.Cooked {
			status = "cooked"
		}
		if v.Rating != nil {
			status += fmt.Sprintf(" %.1f/5", *v.Rating)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s v%d\t%s\n", v.Date, v.ID, title, v.Version, status)
	}
	tw.Flush()
}

// NewFillCommand plans the open days of the rolling window.
func NewFillCommand(opts *RootOptions) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Plan every open day of the window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, opts, start)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day of the window (YYYY-MM-DD, default today)")
	return cmd
}

func runFill(cmd *cobra.Command, opts *RootOptions, startFlag string) error {
	start, err := parseDate("start", startFlag)
	if err != nil {
		return err
	}
	return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
		if start.IsZero() {
			start = a.Today()
		}
		added, err := a.FillWindow(ctx, start)
		if err != nil {
			return err
		}
		meals, err := a.Plan(ctx, start, time.Time{})
		if err != nil {
			return err
		}
		views := mealViews(meals)
		return out.Success(map[string]any{"added": len(added), "plan": views}, func(w io.Writer) {
			fmt.Fprintf(w, "Planned %d new meal(s).\n", len(added))
			printMeals(w, views)
		})
	})
}

// NewPlanCommand shows the plan and groups the meal commands.
func NewPlanCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show and edit planned meals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanList(cmd, opts, from, to)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day to show (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day to show (YYYY-MM-DD)")

	cmd.AddCommand(newRateCommand(opts))
	cmd.AddCommand(newCookedCommand(opts))
	cmd.AddCommand(newMoveCommand(opts))
	cmd.AddCommand(newServingsCommand(opts))
	cmd.AddCommand(newRerollCommand(opts))
	cmd.AddCommand(newClearHistoryCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	return cmd
}

func runPlanList(cmd *cobra.Command, opts *RootOptions, fromFlag, toFlag string) error {
	from, err := parseDate("from", fromFlag)
	if err != nil {
		return err
	}
	to, err := parseDate("to", toFlag)
	if err != nil {
		return err
	}
	return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
		meals, err := a.Plan(ctx, from, to)
		if err != nil {
			return err
		}
		views := mealViews(meals)
		return out.Success(views, func(w io.Writer) { printMeals(w, views) })
	})
}

// itemResult prints a single changed meal.
func itemResult(out *OutputFormatter, verb string, it planner.Item) error {
	return out.Success(it, func(w io.Writer) {
		fmt.Fprintf(w, "Meal %d on %s %s.\n", it.ID, planner.DateKey(it.Date), verb)
	})
}

func newRateCommand(opts *RootOptions) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "rate <meal-id> <rating>",
		Short: "Rate a meal from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid rating %q", args[1]))
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.RateMeal(ctx, id, rating, comment)
				if err != nil {
					return err
				}
				return itemResult(out, fmt.Sprintf("rated %.1f", rating), it)
			})
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "note stored with the rating")
	return cmd
}

func newCookedCommand(opts *RootOptions) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "cooked <meal-id>",
		Short: "Mark a meal as cooked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.MarkCooked(ctx, id, !undo)
				if err != nil {
					return err
				}
				verb := "marked as cooked"
				if undo {
					verb = "marked as not cooked"
				}
				return itemResult(out, verb, it)
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "clear the cooked flag")
	return cmd
}

func newMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <meal-id> <date>",
		Short: "Move a meal to another open day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			date, err := planner.ParseDate(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid date", err)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.MoveMeal(ctx, id, date)
				if err != nil {
					return err
				}
				return itemResult(out, "is now planned", it)
			})
		},
	}
}

func newServingsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "servings <meal-id> <servings>",
		Short: "Override the servings of a meal, 0 resets to the recipe default",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid servings %q", args[1]))
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.SetServings(ctx, id, n)
				if err != nil {
					return err
				}
				return itemResult(out, "updated", it)
			})
		},
	}
}

func newRerollCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reroll <meal-id>",
		Short: "Pick a different recipe for a meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.Reroll(ctx, id)
				if err != nil {
					return err
				}
				rec, err := a.Recipe(ctx, it.RecipeID)
				if err != nil {
					return err
				}
				return itemResult(out, "rerolled to "+rec.Title, it)
			})
		},
	}
}

func newClearHistoryCommand(opts *RootOptions) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "clear-history",
		Short: "Delete meals dated before a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate("before", before)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if day.IsZero() {
					day = a.Today()
				}
				n, err := a.ClearHistory(ctx, day)
				if err != nil {
					return err
				}
				return out.Success(map[string]int64{"removed": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %d meal(s) before %s.\n", n, planner.DateKey(day))
				})
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "keep meals from this day on (YYYY-MM-DD, default today)")
	return cmd
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how often each recipe was planned, cooked and rated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				stats, err := a.Stats(ctx)
				if err != nil {
					return err
				}
				return out.Success(stats, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "RECIPE\tPLANNED\tCOOKED\tRATING\tLAST")
					for _, s := range stats {
						rating := "-"
						if s.Rated > 0 {
							rating = fmt.Sprintf("%.1f (%d)", s.AverageRating, s.Rated)
						}
						last := "-"
						if !s.LastPlanned.IsZero() {
							last = planner.DateKey(s.LastPlanned)
						}
						fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", s.Title, s.Planned, s.Cooked, rating, last)
					}
					tw.Flush()
				})
			})
		},
	}
}
