package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local control API",
	Long: `Start the kiosk's HTTP control API.
The API drives capture sessions, edits the registration form, streams session
events and serves the attendance roster and a small status page.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 8080)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 127.0.0.1)")
}

// resolveServeHostPort applies the flags over the environment.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.WebConfig) {
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Host = host
	}
}

// newServer wires the control API over a running kiosk.
func newServer(cfg *config.Config, k *kiosk.Kiosk) *web.Server {
	return web.NewServer(cfg, web.Deps{
		Machine: k.Machine,
		Drafts:  k.Drafts,
		Roster:  k.Roster,
		Journal: k.Journal,
	})
}

// warmRoster fetches the roster once so the first view is not empty.
func warmRoster(ctx context.Context, k *kiosk.Kiosk) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := k.Roster.Refresh(ctx); err != nil {
		slog.Warn("initial roster fetch failed", "error", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	resolveServeHostPort(cmd, &cfg.Web)

	ctx := context.Background()
	k, err := kiosk.New(ctx, cfg)
	if err != nil {
		return err
	}

	warmRoster(ctx, k)
	server := newServer(cfg, k)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
	}()

	fmt.Printf("Starting Attendance Kiosk API on http://%s\n", cfg.Web.Addr())
	fmt.Println("Press Ctrl+C to stop")

	serveErr := server.Start()

	closeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := k.Close(closeCtx); err != nil {
		slog.Error("error closing kiosk", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("starting server: %w", serveErr)
	}
	return nil
}
