package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bollette/internal/cli"
	"bollette/internal/core"
	applog "bollette/internal/log"
)

var (
	flagConfig string
	flagNow    string
	flagUser   string
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:           "bollette",
	Short:         "Recurring bills and budgets",
	Long:          "Schedule recurring obligations, track their payment status, send reminders and watch budgets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file (default $BOLLETTE_CONFIG or ./bollette.toml)")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Evaluate as of this date (YYYY-MM-DD) instead of today")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Restrict output to one user")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
}

// now returns the evaluation instant selected by --now.
func now() (time.Time, error) {
	if flagNow == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(core.DateLayout, flagNow)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: expected YYYY-MM-DD", flagNow)
	}
	return t, nil
}

// withApp loads configuration, wires the engine and runs fn with a context
// cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, app *cli.App) error) error {
	if flagConfig != "" {
		os.Setenv("BOLLETTE_CONFIG", flagConfig)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if flagQuiet {
		cfg.LogLevel = "warn"
	}
	logger, err := cli.SetupLogger(cfg, applog.ComponentCLI)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.ApplySeed(ctx); err != nil {
		return err
	}
	return fn(ctx, app)
}
