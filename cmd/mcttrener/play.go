package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/phase"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/trainer"
)

// #region play

const playHelp = `Type what you say to the patient. Commands:
  /i <intervention>   sokratisk | eksperiment | mindfulness | verbal
  /c <item>           checklist item for formulation questions
  /phase2             start the intervention phase
  /state              show the current state
  /quit               leave the session`

func newPlayCmd(a *app) *cobra.Command {
	var sessionID string
	var difficulty int
	var formulation bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Interactive session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := a.openService()
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			var view trainer.StateView
			if sessionID != "" {
				view, err = svc.State(sessionID)
			} else {
				view, err = svc.NewSession(rules.Difficulty(difficulty), formulation)
			}
			if err != nil {
				return err
			}
			id := view.Session.ID
			printView(out, view)
			fmt.Fprintln(out, playHelp)

			intervention := rules.Mindfulness
			var category belief.FormulationKey
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprintf(out, "[%s] > ", intervention)
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				if strings.HasPrefix(line, "/") {
					fields := strings.Fields(line)
					arg := ""
					if len(fields) > 1 {
						arg = fields[1]
					}
					switch fields[0] {
					case "/quit", "/exit":
						return nil
					case "/i":
						iv := rules.Intervention(strings.ToLower(arg))
						if !knownIntervention(iv) {
							fmt.Fprintf(out, "unknown intervention %q\n", arg)
							continue
						}
						intervention = iv
					case "/c":
						key := belief.FormulationKey(arg)
						if !key.Valid() {
							fmt.Fprintf(out, "unknown checklist item %q\n", arg)
							continue
						}
						category = key
					case "/phase2":
						v, err := svc.StartInterventionPhase(id)
						if errors.Is(err, phase.ErrFormulationIncomplete) {
							fmt.Fprintln(out, "the case formulation is not complete yet")
							continue
						}
						if err != nil {
							return err
						}
						printView(out, v)
					case "/state":
						v, err := svc.State(id)
						if err != nil {
							return err
						}
						printView(out, v)
					default:
						fmt.Fprintln(out, playHelp)
					}
					continue
				}

				res, err := svc.SubmitTurn(cmd.Context(), id, trainer.TurnRequest{
					Intervention:     intervention,
					Message:          line,
					SelectedCategory: category,
				})
				if err != nil {
					return err
				}
				printTurn(out, res)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "resume an existing session")
	cmd.Flags().IntVarP(&difficulty, "difficulty", "d", 1, "patient difficulty 1-3 for a new session")
	cmd.Flags().BoolVar(&formulation, "formulation", false, "open a new session with the case-formulation checklist")
	return cmd
}

// #endregion play
