package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/focuscycle/internal/backend"
	"github.com/abhisek/focuscycle/internal/beacon"
	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/ledger"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Close sessions a crash left open",
	Long: "Commits every session still listed in the local journal as skipped, " +
		"with the study time measured before the crash.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		client := backend.New(backend.Config{
			BaseURL: e.cfg.Backend.URL,
			Token:   e.cfg.Backend.Token,
			Timeout: e.cfg.Backend.Timeout,
		}, backend.WithLogger(e.log.With().Str("component", "backend").Logger()))
		l := ledger.New(client, beacon.Nop{}, e.log.With().Str("component", "ledger").Logger())

		n, err := engine.Recover(cmd.Context(), l, e.store.SessionJournal(), e.store.EventRepo(), e.log)
		fmt.Fprintf(cmd.OutOrStdout(), "Closed %d session(s).\n", n)
		if err != nil {
			return fmt.Errorf("some sessions are still open: %w", err)
		}
		return nil
	},
}
