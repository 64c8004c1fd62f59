package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/orbitos/operations/internal/config"
	"github.com/orbitos/operations/internal/seed"
	"github.com/orbitos/operations/internal/store"
)

var (
	flagSeedAdminEmail string
	flagSeedOrgName    string
)

func init() {
	seedCmd.Flags().StringVar(&flagSeedAdminEmail, "admin-email", "admin@orbitos.local", "email for the bootstrap super admin")
	seedCmd.Flags().StringVar(&flagSeedOrgName, "org-name", "Default Organization", "name for the bootstrap organization")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed help articles and a bootstrap admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		repo, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				slog.Error("Failed to close repository", "error", closeErr)
			}
		}()

		ctx := context.Background()
		n, err := seed.HelpArticles(ctx, repo)
		if err != nil {
			return err
		}
		slog.Info("Help articles seeded", "count", n)

		admin, err := seed.Bootstrap(ctx, repo, flagSeedAdminEmail, flagSeedOrgName)
		if err != nil {
			return err
		}
		slog.Info("Bootstrap admin ready", "user_id", admin.ID, "email", admin.Email)
		return nil
	},
}
