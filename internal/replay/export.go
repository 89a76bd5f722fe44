package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/logging"
	"github.com/toradrage/mct-trener/internal/phase"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
	"github.com/toradrage/mct-trener/internal/simulator"
)

// #region export

// ExportSession rebuilds a fixture from a stored session. It follows the
// active version back to the seed, so turns undone by a rollback are left out.
// Every step expects the flags that fired when it was played.
func ExportSession(store *session.Store, sessionID string) (*Fixture, error) {
	sess, err := store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := logging.ListTurns(store.DB(), sessionID)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[string]logging.TurnEntry, len(turns))
	for _, t := range turns {
		byVersion[t.VersionID] = t
	}

	// Active chain, newest first
	var chain []session.Version
	for id := sess.ActiveVersion; id != ""; {
		v, err := store.GetVersion(id)
		if err != nil {
			return nil, fmt.Errorf("walk versions: %w", err)
		}
		chain = append(chain, v)
		id = v.ParentID
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("session %s has no versions", sessionID)
	}

	seed := chain[len(chain)-1]
	f := &Fixture{
		Description: fmt.Sprintf("exported from session %s", sessionID),
		Difficulty:  sess.Difficulty,
		Formulation: seed.State.FormulationEnabled,
		Start: &FixtureState{
			Uncontrollability:  seed.State.Uncontrollability,
			Danger:             seed.State.Danger,
			PositiveMetaBelief: seed.State.PositiveMetaBelief,
		},
	}

	for i := len(chain) - 2; i >= 0; i-- {
		v := chain[i]
		if t, ok := byVersion[v.VersionID]; ok {
			step, err := stepFromTurn(t)
			if err != nil {
				return nil, err
			}
			f.Steps = append(f.Steps, step)
			continue
		}
		if v.Reason == phase.StartInterventionReason {
			f.Steps = append(f.Steps, Step{
				TurnID: fmt.Sprintf("phase2-%d", v.TurnCount),
				Action: ActionStartPhase,
				Expect: &Expect{Action: ResultPhase2},
			})
		}
	}
	return f, nil
}

func stepFromTurn(t logging.TurnEntry) (Step, error) {
	var flags simulator.Flags
	if t.FlagsJSON != "" {
		if err := json.Unmarshal([]byte(t.FlagsJSON), &flags); err != nil {
			return Step{}, fmt.Errorf("turn %d flags: %w", t.TurnIndex, err)
		}
	}
	return Step{
		TurnID:       fmt.Sprintf("turn-%d", t.TurnIndex),
		Action:       ActionTurn,
		Intervention: rules.Intervention(t.Intervention),
		Message:      t.Message,
		Category:     belief.FormulationKey(t.Category),
		Expect: &Expect{
			Action:         ResultCommit,
			Phase:          rules.Phase(t.Phase),
			Backfire:       belief.Bool(flags.EarlyProcessBackfire),
			ContentPenalty: belief.Bool(flags.ContentCBTPenalty),
			Credited:       belief.Bool(flags.Credited),
		},
	}, nil
}

// WriteFixture saves a fixture as YAML.
func WriteFixture(path string, f *Fixture) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion export
