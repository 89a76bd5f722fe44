package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toradrage/mct-trener/internal/logging"
	"github.com/toradrage/mct-trener/internal/metrics"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
)

// #region inspect

func newInspectCmd(a *app) *cobra.Command {
	var sessionID string
	var last int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List sessions, or show one session's versions and turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleCfg, err := a.rules()
			if err != nil {
				return err
			}
			store, err := session.NewStore(a.cfg.DB)
			if err != nil {
				return fmt.Errorf("open store %s: %w", a.cfg.DB, err)
			}
			defer store.Close()

			if sessionID != "" {
				return runDetailMode(cmd.OutOrStdout(), store, ruleCfg, sessionID, last, jsonOut)
			}
			return runListMode(cmd.OutOrStdout(), store, last, jsonOut)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "show a single session")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent rows")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

// #endregion inspect

// #region list-mode

type sessionRow struct {
	SessionID    string `json:"session_id"`
	Difficulty   int    `json:"difficulty"`
	TurnCount    int    `json:"turn_count"`
	RulesVersion string `json:"rules_version"`
	CreatedAt    string `json:"created_at"`
}

func runListMode(w io.Writer, store *session.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	rows := make([]sessionRow, len(sessions))
	for i, s := range sessions {
		rows[i] = sessionRow{
			SessionID:    s.ID,
			Difficulty:   int(s.Difficulty),
			TurnCount:    s.TurnCount,
			RulesVersion: s.RulesVersion,
			CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no sessions found")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %5s  %5s  %-14s  %s\n", "Session", "Level", "Turns", "Rules", "Created")
	fmt.Fprintf(w, "%-36s+-%5s+-%5s+-%-14s+-%s\n",
		strings.Repeat("-", 36), "-----", "-----", "--------------", "--------------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-36s  %5d  %5d  %-14s  %s\n", r.SessionID, r.Difficulty, r.TurnCount, r.RulesVersion, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type versionRow struct {
	VersionID  string   `json:"version_id"`
	TurnCount  int      `json:"turn_count"`
	Reason     string   `json:"reason,omitempty"`
	CAS        float64  `json:"cas"`
	U          float64  `json:"uncontrollability"`
	D          float64  `json:"danger"`
	P          float64  `json:"positive_meta_belief"`
	Engagement *float64 `json:"engagement,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

type detailOutput struct {
	Session  session.Session     `json:"session"`
	Versions []versionRow        `json:"versions"`
	Turns    []logging.TurnEntry `json:"turns"`
}

func runDetailMode(w io.Writer, store *session.Store, cfg rules.Config, sessionID string, last int, jsonOut bool) error {
	sess, err := store.GetSession(sessionID)
	if err != nil {
		return err
	}
	versions, err := store.ListVersions(sessionID, last)
	if err != nil {
		return err
	}
	turns, err := logging.ListTurns(store.DB(), sessionID)
	if err != nil {
		return err
	}

	// Store returns DESC, reverse for chronological
	rows := make([]versionRow, len(versions))
	for i, v := range versions {
		rows[len(versions)-1-i] = versionRow{
			VersionID:  v.VersionID,
			TurnCount:  v.TurnCount,
			Reason:     v.Reason,
			CAS:        metrics.CAS(v.State, cfg),
			U:          v.State.Uncontrollability,
			D:          v.State.Danger,
			P:          v.State.PositiveMetaBelief,
			Engagement: v.State.LearnedEngagement,
			CreatedAt:  v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(w, detailOutput{Session: sess, Versions: rows, Turns: turns})
	}

	fmt.Fprintf(w, "Session:    %s\n", sess.ID)
	fmt.Fprintf(w, "Difficulty: %d\n", sess.Difficulty)
	fmt.Fprintf(w, "Rules:      %s\n", sess.RulesVersion)
	fmt.Fprintf(w, "Turns:      %d\n\n", sess.TurnCount)

	fmt.Fprintf(w, "%-12s  %4s  %6s  %6s  %6s  %6s  %6s  %s\n", "Version", "Turn", "CAS", "U", "D", "P", "Eng", "Reason")
	for _, r := range rows {
		eng := "—"
		if r.Engagement != nil {
			eng = fmt.Sprintf("%.1f", *r.Engagement)
		}
		fmt.Fprintf(w, "%-12s  %4d  %6.1f  %6.1f  %6.1f  %6.1f  %6s  %s\n",
			shortID(r.VersionID), r.TurnCount, r.CAS, r.U, r.D, r.P, eng, r.Reason)
	}

	if len(turns) > 0 {
		fmt.Fprintln(w, "\nTurns:")
		for _, t := range turns {
			iv := t.Intervention
			if iv == "" {
				iv = "—"
			}
			fmt.Fprintf(w, "  #%d %-11s %-12s %s\n", t.TurnIndex, t.Phase, iv, t.Reply)
			if t.Message != "" {
				fmt.Fprintf(w, "      therapist: %s\n", t.Message)
			}
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion detail-mode
