package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/trainer"
)

// #region session-new

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage training sessions",
	}

	var difficulty int
	var formulation, jsonOut bool
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Start a session at the seed state",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := svc.NewSession(rules.Difficulty(difficulty), formulation)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), view)
			}
			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}
	newCmd.Flags().IntVarP(&difficulty, "difficulty", "d", 1, "patient difficulty 1-3")
	newCmd.Flags().BoolVar(&formulation, "formulation", false, "open with the case-formulation checklist")
	newCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	cmd.AddCommand(newCmd)
	return cmd
}

// #endregion session-new

// #region turn

func newTurnCmd(a *app) *cobra.Command {
	var sessionID, intervention, message, category string
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "turn",
		Short: "Submit one therapist turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseTurn(intervention, message, category)
			if err != nil {
				return err
			}
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.SubmitTurn(cmd.Context(), sessionID, req)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printTurn(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session ID")
	cmd.Flags().StringVarP(&intervention, "intervention", "i", "", "sokratisk, eksperiment, mindfulness or verbal")
	cmd.Flags().StringVarP(&message, "message", "m", "", "what the therapist says")
	cmd.Flags().StringVarP(&category, "category", "c", "", "checklist item being asked about (formulation phase)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func parseTurn(intervention, message, category string) (trainer.TurnRequest, error) {
	req := trainer.TurnRequest{
		Intervention: rules.Intervention(strings.ToLower(strings.TrimSpace(intervention))),
		Message:      message,
	}
	if req.Intervention != "" && !knownIntervention(req.Intervention) {
		return req, fmt.Errorf("unknown intervention %q", intervention)
	}
	if category != "" {
		req.SelectedCategory = belief.FormulationKey(category)
		if !req.SelectedCategory.Valid() {
			return req, fmt.Errorf("unknown checklist item %q", category)
		}
	}
	return req, nil
}

func knownIntervention(iv rules.Intervention) bool {
	for _, known := range rules.Interventions() {
		if iv == known {
			return true
		}
	}
	return false
}

// #endregion turn

// #region phase2

func newPhase2Cmd(a *app) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "phase2",
		Short: "Start the intervention phase once the case formulation is complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := svc.StartInterventionPhase(sessionID)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session ID")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

// #endregion phase2

// #region output

func printView(w io.Writer, v trainer.StateView) {
	st := v.State
	fmt.Fprintf(w, "Session:      %s\n", v.Session.ID)
	fmt.Fprintf(w, "Difficulty:   %d\n", v.Session.Difficulty)
	fmt.Fprintf(w, "Next turn:    %d (%s, relative %d)\n", v.Session.TurnCount, v.Phase, v.RelativeTurn)
	fmt.Fprintf(w, "CAS:          %.1f\n", v.CAS)
	fmt.Fprintf(w, "Meta-worry:   %.1f\n", v.MetaWorry)
	fmt.Fprintf(w, "Beliefs:      U %.1f · D %.1f · P %.1f\n", st.Uncontrollability, st.Danger, st.PositiveMetaBelief)
	if st.LearnedEngagement != nil {
		fmt.Fprintf(w, "Engagement:   %.1f\n", *st.LearnedEngagement)
	}
	if st.FormulationEnabled {
		fmt.Fprintf(w, "Formulation:  %d/7", v.FormulationDone)
		if st.Phase2Started {
			fmt.Fprint(w, " (phase 2 started)")
		}
		fmt.Fprintln(w)
	}
}

func printTurn(w io.Writer, res trainer.TurnResult) {
	fmt.Fprintf(w, "\nPasient: %s\n\n", res.Reply)
	if res.ReplySource != "rules" {
		fmt.Fprintf(w, "  (rule reply: %s)\n", res.RuleReply)
	}
	for _, line := range strings.Split(res.Trace, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "  [turn %d] CAS %.1f (%+.1f) · resistance %.1f · engagement %.1f\n",
		res.TurnIndex, res.Signals.CAS, res.Signals.DeltaCAS, res.Signals.Resistance, res.Signals.Engagement)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion output
