package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bollette/internal/core"
	"bollette/internal/schedule"
)

var (
	flagCadence    string
	flagAnchor     string
	flagEnd        string
	flagDayOfMonth int
	flagDayOfWeek  int
	flagCount      int
	flagAmount     string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Print the upcoming due dates of a recurrence rule",
	Example: `  bollette evaluate --cadence monthly --anchor 2024-01-31 --day-of-month 31 --count 4
  bollette evaluate --cadence biweekly --anchor 2024-03-01 --now 2024-03-20`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&flagCadence, "cadence", "", "one_time, weekly, biweekly, monthly, quarterly, semi_annual or annual")
	evaluateCmd.Flags().StringVar(&flagAnchor, "anchor", "", "Anchor date (YYYY-MM-DD)")
	evaluateCmd.Flags().StringVar(&flagEnd, "end", "", "Last possible date (YYYY-MM-DD)")
	evaluateCmd.Flags().IntVar(&flagDayOfMonth, "day-of-month", 0, "Day of month for the monthly family (1-31)")
	evaluateCmd.Flags().IntVar(&flagDayOfWeek, "day-of-week", -1, "Day of week for the weekly family (0=Sunday)")
	evaluateCmd.Flags().IntVar(&flagCount, "count", schedule.DefaultHorizon, "Number of occurrences")
	evaluateCmd.Flags().StringVar(&flagAmount, "amount", "", "Amount per occurrence, e.g. 49.90")
	evaluateCmd.MarkFlagRequired("cadence")
	evaluateCmd.MarkFlagRequired("anchor")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(_ *cobra.Command, _ []string) error {
	at, err := now()
	if err != nil {
		return err
	}

	rule := core.RecurrenceRule{Cadence: core.Cadence(flagCadence)}
	anchor, err := time.Parse(core.DateLayout, flagAnchor)
	if err != nil {
		return fmt.Errorf("invalid --anchor %q: expected YYYY-MM-DD", flagAnchor)
	}
	rule.AnchorDate = core.Date{Time: anchor}
	if flagEnd != "" {
		end, err := time.Parse(core.DateLayout, flagEnd)
		if err != nil {
			return fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", flagEnd)
		}
		rule.EndDate = core.Date{Time: end}
	}
	if flagDayOfMonth != 0 {
		rule.DayOfMonth = core.IntPtr(flagDayOfMonth)
	}
	if flagDayOfWeek >= 0 {
		rule.DayOfWeek = core.IntPtr(flagDayOfWeek)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	var amount core.Money
	if flagAmount != "" {
		cents, err := core.ParseDecimalToCents(flagAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", flagAmount, err)
		}
		amount = core.Money{Cents: cents}
	}

	occurrences := schedule.GenerateHorizon(rule, amount, flagCount, at)
	if len(occurrences) == 0 {
		fmt.Println("No upcoming occurrences: the schedule has ended.")
		return nil
	}
	for _, occ := range occurrences {
		status := schedule.ClassifyDefault(core.PaymentInstance{DueDate: occ.DueDate}, at)
		if amount.Cents > 0 {
			fmt.Printf("%s  %-9s  %s\n", occ.DueDate, status, occ.Amount)
		} else {
			fmt.Printf("%s  %s\n", occ.DueDate, status)
		}
	}
	return nil
}
