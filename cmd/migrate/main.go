package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/budgetly/backend/internal/infra/postgres"
	"github.com/budgetly/backend/internal/platform/category"
	"github.com/budgetly/backend/internal/platform/debt"
	"github.com/budgetly/backend/pkg/config"
	"github.com/budgetly/backend/pkg/logger"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the Budgetly database schema and seed data",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *postgres.DB, log *logger.Logger) error {
			applied, err := postgres.NewMigrator(db.Pool, migrationsDir).Up(ctx)
			for _, v := range applied {
				log.Info("Migration applied", "version", v)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info("Schema is up to date")
			}
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *postgres.DB, log *logger.Logger) error {
			version, err := postgres.NewMigrator(db.Pool, migrationsDir).Down(ctx)
			if err != nil {
				return err
			}
			if version == "" {
				log.Info("No migration to revert")
				return nil
			}
			log.Info("Migration reverted", "version", version)
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the global categories listed in the categories file",
	Long: `Create the global categories listed in the categories file (CATEGORIES_FILE,
default config/categories.yaml). Existing categories are left untouched, so the
command is safe to run repeatedly. On an empty table the first entry gets id 1
and serves as the fallback category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *postgres.DB, log *logger.Logger) error {
			seed, err := config.LoadCategoriesConfig(cfg.CategoriesFile)
			if err != nil {
				return err
			}
			for _, kind := range []debt.Kind{debt.KindPayment, debt.KindIncrease} {
				name, categoryType := kind.MirrorCategory()
				if !seed.Has(name, string(categoryType)) {
					log.Warn("Seed file lacks a mirror category, debt entries will use the fallback category",
						"category", name, "type", categoryType)
				}
			}

			svc := category.NewService(postgres.NewCategoryRepository(db.Pool))
			created, err := svc.Seed(ctx, seed)
			if err != nil {
				return err
			}
			log.Info("Categories seeded", "created", created, "total", len(seed.Categories))
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "directory holding the *.up.sql and *.down.sql files")
	rootCmd.AddCommand(upCmd, downCmd, seedCmd)
}

func withDB(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, db *postgres.DB, log *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewDefault(cfg.Env).WithField("component", "migrate")

	db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL, MaxConns: 2, MinConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, db, log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}
