package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/focuscycle/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals from the local session journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		totals, err := e.store.EventRepo().Totals(cmd.Context())
		if err != nil {
			return err
		}
		pending, err := e.store.SessionJournal().Pending(cmd.Context())
		if err != nil {
			return err
		}
		printTotals(cmd.OutOrStdout(), totals, len(pending))
		return nil
	},
}

func printTotals(w io.Writer, t store.Totals, open int) {
	fmt.Fprintf(w, "%-18s %d\n", "Blocks completed", t.Blocks)
	fmt.Fprintf(w, "%-18s %d\n", "Minutes studied", t.StudiedMinutes)
	fmt.Fprintf(w, "%-18s %d\n", "Minutes skipped", t.SkippedMinutes)
	fmt.Fprintf(w, "%-18s %d\n", "Flushed on exit", t.Flushed)
	fmt.Fprintf(w, "%-18s %d\n", "Blocks undone", t.Undone)
	fmt.Fprintf(w, "%-18s %d\n", "Coins earned", t.Coins)
	fmt.Fprintf(w, "%-18s %d\n", "XP earned", t.XP)
	fmt.Fprintf(w, "%-18s %d\n", "Level ups", t.LevelUps)
	if open > 0 {
		fmt.Fprintf(w, "\n%d session(s) still open; run `focuscycle recover` to close them.\n", open)
	}
}
