package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bollette/internal/amqp"
	"bollette/internal/cli"
	applog "bollette/internal/log"
	"bollette/internal/worker"
)

var flagStoreInsights bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Consume notification messages from AMQP and print them",
	RunE:  runListen,
}

func init() {
	listenCmd.Flags().BoolVar(&flagStoreInsights, "store", false, "Also store received insights in the backend")
	rootCmd.AddCommand(listenCmd)
}

func runListen(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, app *cli.App) error {
		cfg := app.Config
		if cfg.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is not configured")
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()

		var w *worker.NotificationWorker
		if flagStoreInsights {
			w = worker.NewNotificationWorker(os.Stdout, app.Store(), 4096)
		} else {
			w = worker.NewNotificationWorker(os.Stdout, nil, 4096)
		}
		app.Caches.Register(w.SeenCache())
		app.Caches.StartCleanup(10 * time.Minute)

		err = client.ConsumeWithRetry(ctx, w.HandleNotification)
		handled, duplicates := w.Stats()
		app.Logger.WithComponent(applog.ComponentAMQP).Info("Listener stopped", "handled", handled, "duplicates", duplicates)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
