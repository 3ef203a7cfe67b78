package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tenant-sync/core/loader"
	"tenant-sync/core/logger"
	"tenant-sync/core/middleware/auth"
	"tenant-sync/core/middleware/rayid"
	"tenant-sync/feature/replication"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "tenant-sync/docs/swagger"
)

// @title Tenant Sync Agent API
// @version 1.0
// @description Replication and conflict resolution for multi-tenant device data.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync agent",
	Long: `Starts the device agent: waits for the remote store, runs periodic
connectivity checks that replay queued syncs, and serves the sync HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 1. Wire stores and orchestrator; HTTP callers confirm with ?confirm=true
		a, err := openAgent(ctx, replication.RequestConfirmer)
		if err != nil {
			log.Fatalf("Failed to start agent: %v", err)
		}
		defer a.Close()
		logg := a.log
		zap.ReplaceGlobals(logg)
		cfg := a.cfg

		// 2. Wait for the remote store; keep running offline if it never answers
		if err := a.connect(ctx); err != nil {
			logg.Warn("Remote store not ready, starting offline", zap.Error(err))
		} else {
			logg.Info("Connected to remote store")
		}

		// 3. Periodic connectivity checks flush the pending queue when back online
		go a.orch.Monitor().Run(ctx, cfg.Sync.HealthInitialDelay, cfg.Sync.HealthInterval)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(replication.NewFeature(a.orch, logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		if cfg.Server.ApiKey == "" && !cfg.Server.BearerAuthEnabled() {
			logg.Warn("API is unprotected: set SERVER_API_KEY or SERVER_JWT_SECRET")
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, JWTSecret: cfg.Server.JWTSecret}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 5. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 6. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
