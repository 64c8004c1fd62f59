// Package cli wires the orbitd command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "orbitd",
	Short:         "OrbitOS Operations backend",
	Long:          "Multi-tenant operations backend: AI agents, OKR goals, roles, business model canvases and admin tooling over a single HTTP API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		if err := godotenv.Load(); err != nil {
			slog.Info("No .env file found, using environment variables")
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
