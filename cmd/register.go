package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Capture one face and register a new person",
	Long: `Open the camera, capture a single frame and enroll it under the given name
and roll number.

Examples:
  attendance-kiosk register --name "Jane Doe" --roll 42
  attendance-kiosk register --name "Jane Doe" --roll 42 --thumbnail jane.jpg`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("name", "", "Full name of the person (required)")
	registerCmd.Flags().String("roll", "", "Roll number of the person (required)")
	registerCmd.Flags().Int("retries", 2, "Capture again this many times after a failure")
	registerCmd.Flags().Duration("timeout", 2*time.Minute, "Give up after this long")
	registerCmd.Flags().String("thumbnail", "", "Save the captured frame to this file")
	registerCmd.Flags().Bool("json", false, "Output as JSON")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("roll")
}

func runRegister(cmd *cobra.Command, args []string) error {
	draft := session.RegistrationDraft{
		Name:       mustGetString(cmd, "name"),
		RollNumber: mustGetString(cmd, "roll"),
	}
	if !draft.Complete() {
		return session.ErrIncompleteDraft
	}
	retries := mustGetInt(cmd, "retries")
	timeout := mustGetDuration(cmd, "timeout")
	thumbnailPath := mustGetString(cmd, "thumbnail")
	jsonOutput := mustGetBool(cmd, "json")

	result, err := runOneShot(loadConfig(), session.ModeRegistration, retries, timeout, func(k *kiosk.Kiosk) {
		k.Drafts.Set(draft)
	})
	if err != nil {
		return err
	}

	reg := result.Registration
	if thumbnailPath != "" && reg.Thumbnail != nil {
		if err := os.WriteFile(thumbnailPath, reg.Thumbnail.Data, 0644); err != nil {
			return fmt.Errorf("writing thumbnail: %w", err)
		}
	}

	if jsonOutput {
		return outputJSON(reg)
	}

	fmt.Printf("Registered: %s (roll %s)\n", reg.Name, reg.RollNumber)
	if reg.Message != "" {
		fmt.Printf("  %s\n", reg.Message)
	}
	if thumbnailPath != "" {
		fmt.Printf("  Thumbnail saved to %s\n", thumbnailPath)
	}
	return nil
}
