package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/orbitos/operations/internal/api"
	"github.com/orbitos/operations/internal/config"
	"github.com/orbitos/operations/internal/events"
	"github.com/orbitos/operations/internal/identity"
	"github.com/orbitos/operations/internal/middleware"
	"github.com/orbitos/operations/internal/seed"
	"github.com/orbitos/operations/internal/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		return err
	}
	slog.Info("Database connected")

	if cfg.SeedHelp {
		n, err := seed.HelpArticles(context.Background(), repo)
		if err != nil {
			return err
		}
		slog.Info("Help articles seeded", "count", n)
	}

	hub := events.NewHub(cfg.EventQueueSize)
	defer hub.Close()

	r := NewRouter(cfg, repo, hub)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket event streams stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}

// NewRouter builds the full API router. Split out so tests can exercise
// the routing table without binding a port.
func NewRouter(cfg *config.Config, repo store.Repository, hub *events.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))

	baseHandler := api.NewHandler(repo, hub)
	api.NewHealthHandler(repo).RegisterHealth(r)

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo))

		r.Route("/api", func(r chi.Router) {
			api.NewMeHandler(baseHandler).RegisterRoutes(r)
			api.NewHelpHandler(baseHandler).RegisterRoutes(r)
			api.NewAdminHandler(baseHandler).RegisterRoutes(r)

			r.Route("/organizations/{orgID}", func(r chi.Router) {
				r.Use(identity.OrgScope(repo))

				api.NewAgentHandler(baseHandler).RegisterRoutes(r)
				api.NewConversationHandler(baseHandler).RegisterRoutes(r)
				api.NewGoalHandler(baseHandler).RegisterRoutes(r)
				api.NewRoleFunctionHandler(baseHandler).RegisterRoutes(r)
				api.NewCanvasHandler(baseHandler).RegisterRoutes(r)
				api.NewOfferingHandler(baseHandler).RegisterRoutes(r)
			})
		})

		r.Get("/ws/events", events.NewWebSocketHandler(hub, repo).ServeHTTP)
	})

	return r
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
