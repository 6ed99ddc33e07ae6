package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/MarvinPescos/balancehub/internal/app/migrate"
	"github.com/MarvinPescos/balancehub/pkg/config"
	"github.com/MarvinPescos/balancehub/pkg/logger"
)

var (
	timeout time.Duration
	target  int64
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the BalanceHub database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd, func(ctx context.Context, r migrate.Runner) error {
			return r.Ensure(ctx)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd, func(ctx context.Context, r migrate.Runner) error {
			return r.Status(ctx)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration, or down to --target",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd, func(ctx context.Context, r migrate.Runner) error {
			return r.Down(ctx, target)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "command timeout")
	downCmd.Flags().Int64Var(&target, "target", 0, "target version (optional)")
	rootCmd.AddCommand(upCmd, statusCmd, downCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withRunner(cmd *cobra.Command, fn func(context.Context, migrate.Runner) error) error {
	cfg, err := config.LoadMigrateConfig()
	if err != nil {
		return err
	}
	log := logger.New("migrate", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	runner, err := migrate.New(pool, cfg.MigrationsDir, log)
	if err != nil {
		pool.Close()
		return fmt.Errorf("configure migration runner: %w", err)
	}
	defer runner.Close()

	if err := runner.Ping(ctx); err != nil {
		return err
	}
	if err := fn(ctx, runner); err != nil {
		return err
	}
	log.Info("migration command completed", "command", cmd.Name())
	return nil
}
