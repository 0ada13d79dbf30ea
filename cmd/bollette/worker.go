package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run reconciliation and notifications on the configured interval",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, app *cli.App) error {
		scheduler := app.NewScheduler()
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return scheduler.Stop(stopCtx)
	})
}
