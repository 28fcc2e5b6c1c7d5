package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the Face Registry HTTP API.

Endpoints:
  POST   /api/v1/face/check       identify a descriptor
  POST   /api/v1/face/verify      verify a descriptor against a claimed name
  POST   /api/v1/face/register    enroll a new identity
  POST   /api/v1/face/neighbors   list the closest identities (diagnostic)
  GET    /api/v1/users            list enrolled identities
  DELETE /api/v1/users/{name}     remove an identity
  GET    /metrics                 Prometheus metrics

Use --memory to run without a database (the registry is lost on exit).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 5000)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
	serveCmd.Flags().Bool("memory", false, "Use the in-memory store instead of DATABASE_DRIVER")
}

// resolveServeHostPort resolves port and host from flags, falling back to the environment.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	if port == 0 {
		port = cfg.Web.Port
	}
	if host == "" {
		host = cfg.Web.Host
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if mustGetBool(cmd, "memory") {
		cfg.Database.Driver = config.DriverMemory
	}

	fmt.Printf("Opening %s store...\n", cfg.Database.Driver)
	service, store, err := openService(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	port, host := resolveServeHostPort(cmd, cfg)
	server := web.NewServer(cfg, service, port, host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Registry API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
