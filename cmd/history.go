package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/focuscycle/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent session events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().QuerySessionEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}
		printEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of events to show (0 = all)")
}

func printEvents(w io.Writer, events []store.SessionEventRecord) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No session events yet.")
		return
	}

	fmt.Fprintf(w, "%6s  %-16s  %-8s  %-14s  %-12s  %5s  %s\n",
		"SEQ", "TIME", "ACTION", "SESSION", "SUBJECT", "MIN", "NOTE")
	fmt.Fprintln(w, strings.Repeat("─", 86))

	for _, ev := range events {
		note := ""
		switch {
		case ev.Detail != "":
			note = ev.Detail
		case ev.Skipped:
			note = "skipped"
		case ev.Coins > 0 || ev.XP > 0:
			note = fmt.Sprintf("+%d coins +%d xp", ev.Coins, ev.XP)
		}
		fmt.Fprintf(w, "%6d  %-16s  %-8s  %-14s  %-12s  %5d  %s\n",
			ev.Sequence, ev.Timestamp.Local().Format("2006-01-02 15:04"), ev.Action,
			clip(ev.SessionID, 14), clip(ev.SubjectID, 12), ev.Minutes, note)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
