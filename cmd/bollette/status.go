package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
	"bollette/internal/schedule"
	"bollette/internal/services"
)

var flagOpen bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the next due date and status of each obligation",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagOpen, "open", false, "List every open payment instead of one line per obligation")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	at, err := now()
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, app *cli.App) error {
		if _, err := app.Reconciler.ReconcileAll(ctx, at); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		if flagOpen {
			payments, err := app.Store().ListOpenPayments(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "INSTANCE\tOBLIGATION\tDUE\tAMOUNT\tSTATUS\tDAYS")
			for _, p := range payments {
				if flagUser != "" && p.UserID != flagUser {
					continue
				}
				inst := p.Instance
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
					inst.ID, p.ObligationName, inst.DueDate, inst.Amount,
					schedule.Classify(inst, at, app.Config.DueSoonDays),
					schedule.DaysUntilDue(inst, at))
			}
			return nil
		}

		summaries, err := services.Overview(ctx, app.Store(), app.Store(), at)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tNAME\tAMOUNT\tCADENCE\tNEXT DUE\tSTATUS\tOPEN\tOVERDUE")
		for _, s := range summaries {
			o := s.Obligation
			if flagUser != "" && o.UserID != flagUser {
				continue
			}
			next, status := "-", "-"
			if !s.NextDue.IsZero() {
				next, status = s.NextDue.String(), string(s.NextStatus)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
				o.ID, o.Name, o.Amount, o.Rule.Cadence, next, status, s.Open, s.Overdue)
		}
		return nil
	})
}
