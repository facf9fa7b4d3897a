package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/logging"
)

// annotationLogToFile marks commands that own the terminal, so logs must not
// go to stderr.
const annotationLogToFile = "log-to-file"

var (
	captureDir string
	verbose    bool
	closeLog   = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "attendance-kiosk",
	Short: "A face recognition attendance kiosk",
	Long: `Attendance Kiosk drives a camera, captures a face and submits it to a
face recognition backend to mark attendance or register new people.

Run it as an interactive terminal kiosk, as a local HTTP control API, or use
the one-shot commands for scripting.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupLogging,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeLog() },
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save backend responses for testing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if captureDir != "" {
		cfg.Recognition.CaptureDir = captureDir
	}
	return cfg
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := loadConfig().Log
	if cmd.Annotations[annotationLogToFile] != "" && cfg.File == "" {
		cfg.File = filepath.Join(os.TempDir(), "attendance-kiosk.log")
	}

	closeFn, err := logging.Setup(cfg, verbose)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	closeLog = closeFn
	return nil
}
