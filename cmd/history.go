package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-kiosk/internal/journal"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently ended capture sessions",
	Long: `List the most recent sessions from the session journal, newest first.
Requires DATABASE_URL; without it the journal only lives inside a running kiosk.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", journal.DefaultLimit, "Maximum number of sessions to show")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "limit")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := loadConfig()
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set to read the session journal")
	}

	ctx := context.Background()
	store, err := kiosk.OpenJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	outcomes, err := store.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading session journal: %w", err)
	}
	summary := journal.Summarize(outcomes)

	if jsonOutput {
		return outputJSON(map[string]any{
			"sessions": outcomes,
			"summary":  summary,
		})
	}

	if len(outcomes) == 0 {
		fmt.Println("No sessions recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENDED\tMODE\tRESULT\tIDENTITY\tATTEMPTS\tERROR")
	fmt.Fprintln(w, "-----\t----\t------\t--------\t--------\t-----")
	for _, o := range outcomes {
		result := "failed"
		if o.Succeeded {
			result = "ok"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			o.EndedAt.Local().Format("2006-01-02 15:04:05"), o.Mode, result, o.Identity, o.Attempts, o.LastError)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d sessions (%d succeeded, %d failed; %d attendance, %d registrations)\n",
		summary.Sessions, summary.Succeeded, summary.Failed, summary.Attendance, summary.Registrations)
	return nil
}
