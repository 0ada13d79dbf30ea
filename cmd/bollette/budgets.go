package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
	"bollette/internal/core"
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Show spending against each budget in its current period",
	RunE:  runBudgets,
}

var (
	flagExpenseCategory string
	flagExpenseAmount   string
	flagExpenseDate     string
	flagExpenseDesc     string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record an expense counted by budgets",
	RunE:  runExpense,
}

func init() {
	expenseCmd.Flags().StringVar(&flagExpenseCategory, "category", "", "Category ID")
	expenseCmd.Flags().StringVar(&flagExpenseAmount, "amount", "", "Amount, e.g. 12.50")
	expenseCmd.Flags().StringVar(&flagExpenseDate, "date", "", "Date (YYYY-MM-DD, default --now)")
	expenseCmd.Flags().StringVar(&flagExpenseDesc, "desc", "", "Description")
	expenseCmd.MarkFlagRequired("category")
	expenseCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(budgetsCmd, expenseCmd)
}

func runBudgets(_ *cobra.Command, _ []string) error {
	at, err := now()
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, app *cli.App) error {
		snaps, err := app.Budgets.Snapshots(ctx, flagUser, at)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintln(tw, "ID\tUSER\tCATEGORY\tPERIOD\tSPENT\tLIMIT\tUSED\tREMAINING\tSTATUS")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d%%\t%s\t%s\n",
				s.Budget.ID, s.Budget.UserID, s.Budget.CategoryID, s.Period,
				s.ActualSpent, s.Limit, s.PercentUsed, s.Remaining, s.Status)
		}
		return nil
	})
}

func runExpense(_ *cobra.Command, _ []string) error {
	at, err := now()
	if err != nil {
		return err
	}
	if flagUser == "" {
		return fmt.Errorf("--user is required")
	}
	cents, err := core.ParseDecimalToCents(flagExpenseAmount)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", flagExpenseAmount, err)
	}
	date := core.Today(at)
	if flagExpenseDate != "" {
		t, err := time.Parse(core.DateLayout, flagExpenseDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", flagExpenseDate)
		}
		date = core.Date{Time: t}
	}

	return withApp(func(ctx context.Context, app *cli.App) error {
		id, err := app.Budgets.RecordExpense(ctx, app.Store(), core.Expense{
			UserID:      flagUser,
			CategoryID:  flagExpenseCategory,
			Date:        date,
			Amount:      core.Money{Cents: cents},
			Description: flagExpenseDesc,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Recorded expense %d: %s on %s\n", id, core.Money{Cents: cents}, date)
		return nil
	})
}
