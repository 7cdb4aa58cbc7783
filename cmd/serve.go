package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vietlingo/config"
	"vietlingo/logger"
	"vietlingo/metrics"
	"vietlingo/middleware"
	"vietlingo/routers"
	"vietlingo/utils"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Bool("no-scheduler", false, "Do not run the nightly streak sweep in this process")
}

// NewApp builds the fiber application with every middleware and route group.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "vietlingo",
		BodyLimit: 8 << 20,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.Origins(), ","),
		AllowMethods:  "GET,POST,PUT,DELETE",                     // Allowed HTTP methods
		AllowHeaders:  "Content-Type,Authorization,X-Request-ID", // Allowed headers
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(middleware.RequestID)

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))
	app.Use(metrics.Middleware())

	// Archived drawings
	app.Static("/uploads", cfg.UploadDir)

	routers.Setup(app)
	return app
}

func runServe(cmd *cobra.Command) error {
	cfg := config.AppConfig
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup(context.Background())

	if noScheduler, _ := cmd.Flags().GetBool("no-scheduler"); !noScheduler {
		scheduler, err := utils.InitializeStreakScheduler(cfg.StreakSweepCron, svc.Ledger.Location(), svc.Ledger.SweepBrokenStreaks)
		if err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	app := NewApp(cfg)

	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Log.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info("Server is running", zap.String("port", cfg.Port))
	return app.Listen(":" + cfg.Port)
}
