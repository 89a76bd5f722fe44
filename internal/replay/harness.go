package replay

import (
	"fmt"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/eval"
	"github.com/toradrage/mct-trener/internal/metrics"
	"github.com/toradrage/mct-trener/internal/phase"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/simulator"
)

// #region types

// Step actions.
const (
	ActionTurn       = "turn"
	ActionStartPhase = "start_intervention_phase"
)

// Result actions.
const (
	ResultCommit       = "commit"
	ResultEvalRollback = "eval_rollback"
	ResultPhase2       = "phase2"
	ResultRejected     = "rejected"
)

// Step is one scripted therapist action.
type Step struct {
	TurnID       string                `yaml:"turn_id" json:"turn_id"`
	Action       string                `yaml:"action,omitempty" json:"action,omitempty"` // "turn" (default) | "start_intervention_phase"
	Intervention rules.Intervention    `yaml:"intervention,omitempty" json:"intervention,omitempty"`
	Message      string                `yaml:"message,omitempty" json:"message,omitempty"`
	Category     belief.FormulationKey `yaml:"category,omitempty" json:"category,omitempty"`
	Expect       *Expect               `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// ReplayConfig bundles the rule table, eval tolerances and classifier for a run.
type ReplayConfig struct {
	Rules      rules.Config
	EvalConfig eval.EvalConfig
	Classifier phase.Classifier // nil selects the keyword classifier
}

// DefaultReplayConfig returns the shipped rule table and eval defaults.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Rules:      rules.MCTRulesV2(),
		EvalConfig: eval.DefaultEvalConfig(),
	}
}

// ReplayResult captures the outcome of one step.
type ReplayResult struct {
	TurnID    string
	Action    string // "commit" | "eval_rollback" | "phase2" | "rejected"
	Reason    string
	TurnIndex int
	Phase     rules.Phase

	// Simulator and eval stages (nil for phase-2 steps)
	Output     *simulator.Output
	EvalResult *eval.EvalResult

	// State after this step and its derived CAS
	State belief.BeliefState
	CAS   float64
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSteps      int
	Commits         int
	EvalRollbacks   int
	Rejected        int
	Backfires       int
	Penalties       int
	Credited        int
	FinalCAS        float64
	FinalEngagement float64 // 0 when no intervention turn ran
	FinalState      belief.BeliefState
}

// #endregion types

// #region replay

// Replay runs the steps through simulate, eval and merge in memory. A turn that
// fails eval leaves the state where it was and does not advance the turn index.
func Replay(start belief.BeliefState, difficulty rules.Difficulty, steps []Step, config ReplayConfig) []ReplayResult {
	sim := simulator.New(config.Rules, config.Classifier)
	harness := eval.NewHarness(config.EvalConfig, config.Rules)

	current := belief.Normalize(start)
	turnIndex := 0
	results := make([]ReplayResult, 0, len(steps))

	for i, step := range steps {
		id := step.TurnID
		if id == "" {
			id = fmt.Sprintf("step-%d", i+1)
		}

		// 1. Phase-2 request
		if step.Action == ActionStartPhase {
			r := ReplayResult{TurnID: id, TurnIndex: turnIndex}
			patch, err := phase.StartIntervention(current, turnIndex)
			if err != nil {
				r.Action, r.Reason = ResultRejected, err.Error()
			} else {
				current = belief.Merge(current, patch)
				r.Action, r.Reason = ResultPhase2, "intervention phase started"
			}
			r.Phase, _ = phase.Resolve(current, turnIndex, config.Rules)
			r.State = current
			r.CAS = metrics.CAS(current, config.Rules)
			results = append(results, r)
			continue
		}

		// 2. Simulate
		out := sim.Simulate(simulator.Input{
			Intervention:     step.Intervention,
			Difficulty:       difficulty,
			Message:          step.Message,
			State:            current,
			TurnIndex:        turnIndex,
			SelectedCategory: step.Category,
		})
		next := belief.Merge(current, out.Patch)

		// 3. Eval
		evalResult := harness.Run(current, next, out)
		r := ReplayResult{
			TurnID:     id,
			TurnIndex:  turnIndex,
			Phase:      out.Phase,
			Output:     &out,
			EvalResult: &evalResult,
		}
		if !evalResult.Passed {
			r.Action, r.Reason = ResultEvalRollback, evalResult.Reason
			r.State = current
			r.CAS = metrics.CAS(current, config.Rules)
			results = append(results, r)
			continue
		}

		// 4. Commit
		current = next
		turnIndex++
		r.Action, r.Reason = ResultCommit, evalResult.Reason
		r.State = current
		r.CAS = out.Signals.CAS
		results = append(results, r)
	}

	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalSteps: len(results)}
	for _, r := range results {
		switch r.Action {
		case ResultCommit:
			s.Commits++
		case ResultEvalRollback:
			s.EvalRollbacks++
		case ResultRejected:
			s.Rejected++
		}
		if r.Output != nil && r.Action == ResultCommit {
			if r.Output.Flags.EarlyProcessBackfire {
				s.Backfires++
			}
			if r.Output.Flags.ContentCBTPenalty {
				s.Penalties++
			}
			if r.Output.Flags.Credited && !r.Output.Flags.AlreadyCredited {
				s.Credited++
			}
		}
	}
	if len(results) > 0 {
		last := results[len(results)-1]
		s.FinalState = last.State
		s.FinalCAS = last.CAS
		if last.State.LearnedEngagement != nil {
			s.FinalEngagement = *last.State.LearnedEngagement
		}
	}
	return s
}

// #endregion replay
