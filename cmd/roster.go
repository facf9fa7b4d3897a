package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show today's attendance list",
	Long: `Fetch the attendance list from the recognition backend and print it.

Examples:
  attendance-kiosk roster
  attendance-kiosk roster --search jane --sort name
  attendance-kiosk roster --sort time --desc --json`,
	Args: cobra.NoArgs,
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)

	rosterCmd.Flags().String("search", "", "Only show names or roll numbers containing this text")
	rosterCmd.Flags().String("sort", roster.ColumnRollNumber, "Sort column: roll_number, name, status or time")
	rosterCmd.Flags().Bool("desc", false, "Sort descending")
	rosterCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRoster(cmd *cobra.Command, args []string) error {
	search := mustGetString(cmd, "search")
	column := mustGetString(cmd, "sort")
	desc := mustGetBool(cmd, "desc")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	client, err := recognition.NewClientWithCapture(cfg.Recognition.URL, cfg.Recognition.Timeout, cfg.Recognition.CaptureDir)
	if err != nil {
		return fmt.Errorf("creating recognition client: %w", err)
	}

	r := roster.New(client)
	if err := r.Refresh(context.Background()); err != nil {
		return err
	}

	records := roster.Sort(roster.Search(r.Records(), search), column, desc)

	if jsonOutput {
		return outputJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No attendance records")
		return nil
	}

	present := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLL\tNAME\tSTATUS\tTIME")
	fmt.Fprintln(w, "----\t----\t------\t----")
	for _, rec := range records {
		if rec.Status == roster.Present {
			present++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.RollNumber, rec.Name, rec.Status, rec.Time)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d (%d present, %d absent)\n", len(records), present, len(records)-present)
	return nil
}
