package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mreyes/confluence/internal/api"
	"github.com/mreyes/confluence/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET    /health                     - Health check
  GET    /api/signals/latest         - Latest fusion run
  POST   /api/signals/run            - Trigger a fusion run
  GET    /api/blacklist              - Blacklisted tickers
  DELETE /api/blacklist/{ticker}     - Unblock a ticker
  GET    /api/actors                 - Tracked actors with weights
  PUT    /api/actors/{name}/status   - Override an actor's status
  GET    /ws                         - Live run stream

Example:
  go run ./cmd/confluence api
  go run ./cmd/confluence api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	signalsHandler := handlers.NewSignalsHandler(app.signalRepo, app.orchestrator, app.log)
	blacklistHandler := handlers.NewBlacklistHandler(app.blacklistRepo, app.guard, app.log)
	actorsHandler := handlers.NewActorsHandler(app.actorRepo, app.trust, app.log)

	router := api.NewRouter(signalsHandler, blacklistHandler, actorsHandler, app.hub, app.log)
	server := api.New(app.cfg, app.log, router)

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	app.log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
