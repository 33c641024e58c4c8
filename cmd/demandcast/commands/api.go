package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/partsflow/demandcast/internal/api"
	"github.com/partsflow/demandcast/internal/api/handlers"
	"github.com/partsflow/demandcast/internal/store"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health                   - Health check
  POST /api/runs                 - Trigger a forecast run
  GET  /api/runs                 - List recent runs
  GET  /api/runs/{id}            - Get one run
  GET  /api/runs/{id}/forecasts  - Forecasts of one run
  GET  /api/runs/{id}/alerts     - Alerts of one run
  GET  /api/forecasts/{code}     - Latest forecast for a SKU
  GET  /api/alerts               - Recent alerts
  GET  /ws/alerts                - Live alert stream (websocket)

Example:
  go run ./cmd/demandcast api
  go run ./cmd/demandcast api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.log

	if a.db != nil {
		if err := store.Migrate(cmd.Context(), a.db.Pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	stream := api.NewAlertStream(log)
	defer stream.Close()

	runHandler := handlers.NewRunHandler(
		a.orchestrator, a.runs, a.forecasts, a.alerts,
		stream, a.cfg.Pipeline.ProductCodes, log,
	)
	forecastHandler := handlers.NewForecastHandler(a.forecasts, log)
	alertHandler := handlers.NewAlertHandler(a.alerts, log)

	router := api.NewRouter(runHandler, forecastHandler, alertHandler, stream, log)
	server := api.New(a.cfg, log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
