package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toradrage/mct-trener/internal/replay"
	"github.com/toradrage/mct-trener/internal/session"
)

// #region export

func newExportCmd(a *app) *cobra.Command {
	var sessionID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored session as a replay fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}
			store, err := session.NewStore(a.cfg.DB)
			if err != nil {
				return fmt.Errorf("open store %s: %w", a.cfg.DB, err)
			}
			defer store.Close()

			f, err := replay.ExportSession(store, sessionID)
			if err != nil {
				return err
			}
			if out == "" {
				out = sessionID + ".yaml"
			}
			if err := replay.WriteFixture(out, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d steps to %s\n", len(f.Steps), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "fixture path (default <session>.yaml)")
	return cmd
}

// #endregion export
