package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"imagededup/database"
	"imagededup/utils"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past scans recorded in the removal journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("journal", "", "SQLite removal journal (default imagededup.db next to the executable)")
	historyCmd.Flags().Int("limit", 10, "Number of recent scans to list")
	historyCmd.Flags().String("scan", "", "List the files removed by one scan")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal = mustGetString(cmd, "journal")
	}

	if _, err := os.Stat(cfg.Journal); os.IsNotExist(err) {
		return fmt.Errorf("journal does not exist: %s. Run scan first", cfg.Journal)
	}

	db, err := database.OpenDatabase(cfg.Journal)
	if err != nil {
		return fmt.Errorf("error opening journal: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if scanID := mustGetString(cmd, "scan"); scanID != "" {
		removals, err := database.Removals(db, scanID)
		if err != nil {
			return err
		}
		if len(removals) == 0 {
			fmt.Fprintf(out, "No removals recorded for scan %s\n", scanID)
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "REMOVED\tKEPT\tDIFFERENCE\tSIZE")
		for _, d := range removals {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\n", d.Path, d.KeptPath, d.DifferenceRatio, utils.FormatBytes(d.Size))
		}
		return tw.Flush()
	}

	stats, err := database.GetScanStats(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Scans: %d, duplicates removed: %d, reclaimed: %s\n",
		stats.TotalScans, stats.TotalRemoved, utils.FormatBytes(stats.BytesReclaimed))

	scans, err := database.RecentScans(db, mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSCAN\tSTARTED\tDIRECTORY\tFILES\tREMOVED\tFAILED")
	for _, s := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			s.ScanID, s.StartedAt.Local().Format(time.DateTime), s.Directory, s.Files, s.Removed, s.Failed)
	}
	return tw.Flush()
}
