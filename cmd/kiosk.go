package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/tui"
)

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Run the interactive terminal kiosk",
	Long: `Run the kiosk in the terminal: pick a mode, open the camera, capture and
watch today's roster update.

Logs go to LOG_FILE, or to attendance-kiosk.log in the temp directory.

Examples:
  attendance-kiosk kiosk
  attendance-kiosk kiosk --serve --port 8080`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationLogToFile: "true"},
	RunE:        runKiosk,
}

func init() {
	rootCmd.AddCommand(kioskCmd)

	kioskCmd.Flags().Bool("serve", false, "Also run the control API")
	kioskCmd.Flags().Int("port", 0, "Port for the control API (default WEB_PORT or 8080)")
	kioskCmd.Flags().String("host", "", "Host for the control API (default WEB_HOST or 127.0.0.1)")
}

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	resolveServeHostPort(cmd, &cfg.Web)

	ctx := context.Background()
	k, err := kiosk.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := k.Close(closeCtx); err != nil {
			slog.Error("error closing kiosk", "error", err)
		}
	}()

	if mustGetBool(cmd, "serve") {
		server := newServer(cfg, k)
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("control API stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	model := tui.New(k.Machine, k.Drafts, k.Roster)
	defer model.Unsubscribe()

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
