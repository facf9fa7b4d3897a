package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Capture one face and mark attendance",
	Long: `Open the camera, capture a single frame and submit it to the recognition
backend. Prints the matched identity.

Examples:
  attendance-kiosk mark
  attendance-kiosk mark --retries 3 --json`,
	Args: cobra.NoArgs,
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)

	markCmd.Flags().Int("retries", 2, "Capture again this many times after a failure")
	markCmd.Flags().Duration("timeout", 2*time.Minute, "Give up after this long")
	markCmd.Flags().Bool("json", false, "Output as JSON")
}

func runMark(cmd *cobra.Command, args []string) error {
	retries := mustGetInt(cmd, "retries")
	timeout := mustGetDuration(cmd, "timeout")
	jsonOutput := mustGetBool(cmd, "json")

	result, err := runOneShot(loadConfig(), session.ModeAttendance, retries, timeout, nil)
	if err != nil {
		return err
	}

	match := result.Attendance
	if jsonOutput {
		return outputJSON(match)
	}

	fmt.Printf("Marked present: %s\n", match.IdentityName)
	if match.RollNumber != "" {
		fmt.Printf("  Roll number: %s\n", match.RollNumber)
	}
	fmt.Printf("  Time:        %s\n", match.Timestamp)
	return nil
}
