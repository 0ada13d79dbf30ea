package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
	"bollette/internal/core"
)

var flagPaidOn string

var payCmd = &cobra.Command{
	Use:   "pay INSTANCE_ID",
	Short: "Mark a payment instance as paid",
	Args:  cobra.ExactArgs(1),
	RunE:  runPay,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel INSTANCE_ID",
	Short: "Cancel a payment instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	payCmd.Flags().StringVar(&flagPaidOn, "date", "", "Payment date (YYYY-MM-DD, default --now)")
	rootCmd.AddCommand(payCmd, cancelCmd)
}

func parseInstanceID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid instance ID %q", arg)
	}
	return id, nil
}

func runPay(_ *cobra.Command, args []string) error {
	id, err := parseInstanceID(args[0])
	if err != nil {
		return err
	}
	at, err := now()
	if err != nil {
		return err
	}
	paid := core.Today(at)
	if flagPaidOn != "" {
		t, err := time.Parse(core.DateLayout, flagPaidOn)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", flagPaidOn)
		}
		paid = core.Date{Time: t}
	}
	return withApp(func(ctx context.Context, app *cli.App) error {
		if err := app.Store().MarkPaid(ctx, id, paid); err != nil {
			return err
		}
		fmt.Printf("Instance %d paid on %s\n", id, paid)
		return nil
	})
}

func runCancel(_ *cobra.Command, args []string) error {
	id, err := parseInstanceID(args[0])
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, app *cli.App) error {
		if err := app.Store().MarkCancelled(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Instance %d cancelled\n", id)
		return nil
	})
}
