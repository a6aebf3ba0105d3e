package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"meal-rotation/internal/app"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shopping"

	"github.com/spf13/cobra"
)

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func printShoppingList(w io.Writer, items []shopping.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Shopping list is empty.")
		return
	}
	// Group by store section, keeping list order within a section.
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b shopping.Item) int {
		return cmp.Compare(a.Category, b.Category)
	})
	var current recipe.Category
	for i, it := range sorted {
		if i == 0 || it.Category != current {
			current = it.Category
			fmt.Fprintf(w, "%s:\n", current)
		}
		box := "[ ]"
		if it.Checked {
			box = "[x]"
		}
		line := formatQuantity(it.Quantity)
		if it.Unit != "" {
			line += " " + it.Unit
		}
		fmt.Fprintf(w, "  %s %s %s  #%d\n", box, line, it.Name, it.ID)
	}
}

// NewShopCommand refreshes the shopping list from the plan and prints it.
func NewShopCommand(opts *RootOptions) *cobra.Command {
	var from, to string
	var includeCooked bool

	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Rebuild the shopping list from the plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShop(cmd, opts, from, to, includeCooked)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first planned day to shop for (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "last planned day to shop for (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&includeCooked, "include-cooked", false, "also shop for meals already cooked")

	cmd.AddCommand(newShopListCommand(opts))
	cmd.AddCommand(newShopAddCommand(opts))
	cmd.AddCommand(newShopToggleCommand(opts))
	cmd.AddCommand(newShopRemoveCommand(opts))
	cmd.AddCommand(newShopClearCheckedCommand(opts))
	return cmd
}

func runShop(cmd *cobra.Command, opts *RootOptions, fromFlag, toFlag string, includeCooked bool) error {
	from, err := parseDate("from", fromFlag)
	if err != nil {
		return err
	}
	to, err := parseDate("to", toFlag)
	if err != nil {
		return err
	}
	return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
		if from.IsZero() {
			from = a.Today()
		}
		items, err := a.RefreshShoppingList(ctx, app.Scope{From: from, To: to, IncludeCooked: includeCooked})
		if err != nil {
			return err
		}
		return out.Success(items, func(w io.Writer) { printShoppingList(w, items) })
	})
}

func newShopListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored shopping list without rebuilding it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				items, err := a.ShoppingList(ctx)
				if err != nil {
					return err
				}
				return out.Success(items, func(w io.Writer) { printShoppingList(w, items) })
			})
		},
	}
}

func newShopAddCommand(opts *RootOptions) *cobra.Command {
	var quantity float64
	var unit, category string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a manual line that rebuilds never touch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.AddManualItem(ctx, args[0], quantity, unit, recipe.Category(category))
				if err != nil {
					return err
				}
				return out.Success(it, func(w io.Writer) {
					fmt.Fprintf(w, "Added %s (#%d).\n", it.Name, it.ID)
				})
			})
		},
	}
	cmd.Flags().Float64VarP(&quantity, "quantity", "q", 1, "amount to buy")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "unit of the amount")
	cmd.Flags().StringVar(&category, "category", string(recipe.CategoryOther), "store section")
	return cmd
}

func newShopToggleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Check or uncheck a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				it, err := a.ToggleItem(ctx, id)
				if err != nil {
					return err
				}
				return out.Success(it, func(w io.Writer) {
					state := "unchecked"
					if it.Checked {
						state = "checked"
					}
					fmt.Fprintf(w, "%s %s.\n", it.Name, state)
				})
			})
		},
	}
}

func newShopRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <item-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.DeleteShoppingItem(ctx, id); err != nil {
					return err
				}
				return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted #%d.\n", id)
				})
			})
		},
	}
}

func newShopClearCheckedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-checked",
		Short: "Delete every checked line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				n, err := a.ClearChecked(ctx)
				if err != nil {
					return err
				}
				return out.Success(map[string]int64{"removed": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %d checked line(s).\n", n)
				})
			})
		},
	}
}

// NewStaplesCommand manages the pantry staples excluded from the shopping list.
func NewStaplesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staples",
		Short: "Manage pantry staples left off the shopping list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored staple patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				staples, err := a.Staples(ctx)
				if err != nil {
					return err
				}
				return out.Success(staples, func(w io.Writer) {
					for _, s := range staples {
						fmt.Fprintln(w, s)
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <pattern>",
		Short: "Add a staple name or regular expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.AddStaple(ctx, args[0]); err != nil {
					return err
				}
				return out.Success(map[string]string{"added": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Added staple %q.\n", args[0])
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <pattern>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored staple",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if err := a.RemoveStaple(ctx, args[0]); err != nil {
					return err
				}
				return out.Success(map[string]string{"removed": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed staple %q.\n", args[0])
				})
			})
		},
	})

	return cmd
}
