package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"meal-rotation/internal/app"
	"meal-rotation/internal/recipe"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewRecipeCommand groups the catalog commands.
func NewRecipeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage the recipe catalog",
	}

	cmd.AddCommand(newRecipeListCommand(opts))
	cmd.AddCommand(newRecipeShowCommand(opts))
	cmd.AddCommand(newRecipeAddCommand(opts))
	cmd.AddCommand(newRecipeUpdateCommand(opts))
	cmd.AddCommand(newRecipeRemoveCommand(opts))
	cmd.AddCommand(newRecipeRateCommand(opts))
	cmd.AddCommand(newRecipeImportCommand(opts))
	cmd.AddCommand(newRecipeSyncCommand(opts))
	return cmd
}

// readRecipeFile decodes a YAML or JSON recipe file.
func readRecipeFile(path string) (recipe.Recipe, error) {
	format, err := recipe.FormatFromPath(path)
	if err != nil {
		return recipe.Recipe{}, WrapExitError(ExitCommandError, "unsupported recipe file", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return recipe.Recipe{}, WrapExitError(ExitCommandError, "failed to open recipe file", err)
	}
	defer f.Close()

	rec, err := recipe.Decode(f, format)
	if err != nil {
		return recipe.Recipe{}, WrapExitError(ExitCommandError, "invalid recipe file", err)
	}
	return rec, nil
}

func recipeSaved(out *OutputFormatter, verb string, rec recipe.Recipe) error {
	return out.Success(rec, func(w io.Writer) {
		fmt.Fprintf(w, "%s recipe %d %q at version %d.\n", verb, rec.ID, rec.Title, rec.CurrentVersion())
	})
}

func newRecipeListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				recipes, err := a.Recipes(ctx)
				if err != nil {
					return err
				}
				return out.Success(recipes, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tTITLE\tVERSION\tRATING")
					for _, r := range recipes {
						rating := "-"
						if r.Rating != nil {
							rating = fmt.Sprintf("%.1f", *r.Rating)
						}
						fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", r.ID, r.Title, r.CurrentVersion(), rating)
					}
					tw.Flush()
				})
			})
		},
	}
}

func newRecipeShowCommand(opts *RootOptions) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "show <recipe-id>",
		Short: "Print a recipe, optionally as it was at an older version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				rec, err := a.Recipe(ctx, id)
				if err != nil {
					return err
				}
				if version == 0 {
					return out.Render(rec, func(w io.Writer) error {
						return recipe.Encode(w, rec, recipe.FormatYAML)
					})
				}
				snap := recipe.ResolveContent(rec, version)
				return out.Render(snap, func(w io.Writer) error {
					if snap.Version != version {
						if _, err := fmt.Fprintf(w, "# version %d is not in history, showing version %d\n", version, snap.Version); err != nil {
							return err
						}
					}
					enc := yaml.NewEncoder(w)
					enc.SetIndent(2)
					if err := enc.Encode(snap); err != nil {
						enc.Close()
						return err
					}
					return enc.Close()
				})
			})
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "version to resolve (default current)")
	return cmd
}

func newRecipeAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Add a recipe from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecipeFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				added, err := a.AddRecipe(ctx, rec)
				if err != nil {
					return err
				}
				return recipeSaved(out, "Added", added)
			})
		},
	}
}

func newRecipeUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <recipe-id> <file>",
		Short: "Replace a recipe's content; ingredient or step changes bump the version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := readRecipeFile(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				updated, err := a.UpdateRecipe(ctx, id, rec)
				if err != nil {
					return err
				}
				return recipeSaved(out, "Updated", updated)
			})
		},
	}
}

func newRecipeRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <recipe-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a recipe; planned meals keep their dates",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.DeleteRecipe(ctx, id); err != nil {
					return err
				}
				return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted recipe %d.\n", id)
				})
			})
		},
	}
}

func newRecipeRateCommand(opts *RootOptions) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "rate <recipe-id> [rating]",
		Short: "Set a recipe's rating from 1 to 5, or clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var rating *float64
			switch {
			case unset && len(args) == 2:
				return NewExitError(ExitCommandError, "--clear takes no rating")
			case !unset && len(args) == 1:
				return NewExitError(ExitCommandError, "a rating or --clear is required")
			case !unset:
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid rating %q", args[1]))
				}
				rating = &v
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				rec, err := a.SetRecipeRating(ctx, id, rating)
				if err != nil {
					return err
				}
				return out.Success(rec, func(w io.Writer) {
					if rec.Rating == nil {
						fmt.Fprintf(w, "Cleared the rating of recipe %d %q.\n", rec.ID, rec.Title)
						return
					}
					fmt.Fprintf(w, "Rated recipe %d %q %.1f.\n", rec.ID, rec.Title, *rec.Rating)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "remove the rating")
	return cmd
}

func newRecipeImportCommand(opts *RootOptions) *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Clip a recipe from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				res, err := a.ImportRecipeFromURL(ctx, args[0], publish)
				if err != nil {
					return err
				}
				verb := "Updated"
				if res.Created {
					verb = "Imported"
				}
				return out.Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "%s recipe %d %q at version %d.\n", verb, res.Recipe.ID, res.Recipe.Title, res.Recipe.CurrentVersion())
					if res.Post != nil {
						fmt.Fprintf(w, "Published as %s\n", res.Post.URL)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also post the recipe to the Ghost blog")
	return cmd
}

func newRecipeSyncCommand(opts *RootOptions) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import new and edited recipes from the Ghost blog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				report, err := a.SyncFromGhost(ctx, prune)
				if err != nil {
					return err
				}
				return out.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "Fetched %d post(s): %d created, %d updated, %d unchanged, %d failed, %d pruned.\n",
						report.Fetched, report.Created, report.Updated, report.Unchanged, report.Failed, report.Pruned)
					if report.Tokens > 0 {
						fmt.Fprintf(w, "Extraction used %d token(s).\n", report.Tokens)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "delete recipes whose post is gone")
	return cmd
}
