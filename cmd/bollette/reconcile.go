package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Materialize upcoming payment instances for every active obligation",
	RunE:  runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(_ *cobra.Command, _ []string) error {
	at, err := now()
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, app *cli.App) error {
		report, err := app.Reconciler.ReconcileAll(ctx, at)
		fmt.Printf("Obligations: %d  Created: %d  Failed: %d\n", report.Obligations, report.Created, report.Failed)
		return err
	})
}
