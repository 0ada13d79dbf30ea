package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
)

var flagSkipReconcile bool

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Emit due reminders and overdue alerts",
	Long:  "Reconcile, then emit reminders and overdue alerts. Each event is sent at most once per payment and type every 24 hours.",
	RunE:  runNotify,
}

func init() {
	notifyCmd.Flags().BoolVar(&flagSkipReconcile, "skip-reconcile", false, "Do not reconcile before notifying")
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(_ *cobra.Command, _ []string) error {
	at, err := now()
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, app *cli.App) error {
		if !flagSkipReconcile {
			if _, err := app.Reconciler.ReconcileAll(ctx, at); err != nil {
				return err
			}
		}
		summary, err := app.Notifier.Run(ctx, at)
		fmt.Printf("Open payments: %d  Reminders: %d  Overdue alerts: %d\n", summary.Open, summary.Reminders, summary.Alerts)
		if err != nil {
			return err
		}

		if flagUser == "" {
			return nil
		}
		insights, err := app.Store().ListInsights(ctx, flagUser, summary.Reminders+summary.Alerts)
		if err != nil {
			return err
		}
		for _, in := range insights {
			fmt.Printf("  %-8s %s\n", in.Type, in.Title)
		}
		return nil
	})
}
