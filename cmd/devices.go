package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/camera"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List cameras that can be opened",
	Long: `Probe video device indices and list the ones that open.
Use the ID as CAMERA_DEVICE.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().Int("max", 10, "Number of device indices to probe")
	devicesCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDevices(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "max")
	jsonOutput := mustGetBool(cmd, "json")

	devices := camera.Scan(limit)

	if jsonOutput {
		return outputJSON(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No cameras found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRESOLUTION")
	fmt.Fprintln(w, "--\t----\t----------")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\n", d.ID, d.Name, d.Width, d.Height)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d cameras\n", len(devices))
	return nil
}
