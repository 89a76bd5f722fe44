package phase

import (
	"errors"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region in-formulation

// InFormulation reports whether a state is still in the case-formulation phase.
// Leaving it needs both a complete checklist and the explicit start of phase 2.
func InFormulation(s belief.BeliefState) bool {
	if !s.FormulationEnabled {
		return false
	}
	return !(s.FormulationComplete && s.Phase2Started)
}

// #endregion in-formulation

// #region resolve

// Resolve returns the phase for a turn and the turn count relative to the start of
// the intervention phase. In formulation the relative count is always 0.
func Resolve(s belief.BeliefState, turnIndex int, cfg rules.Config) (rules.Phase, int) {
	if InFormulation(s) {
		return rules.PhaseFormulation, 0
	}
	base := 0
	if s.TherapyTurnBase != nil {
		base = *s.TherapyTurnBase
	}
	rel := turnIndex - base
	if rel < 0 {
		rel = 0
	}
	switch {
	case rel < cfg.Phase.EarlyMaxTurnExclusive:
		return rules.PhaseEarly, rel
	case rel < cfg.Phase.MidMaxTurnExclusive:
		return rules.PhaseMid, rel
	default:
		return rules.PhaseLate, rel
	}
}

// #endregion resolve

// #region start-intervention

// ErrFormulationIncomplete is returned when phase 2 is requested before all seven
// checklist items are credited.
var ErrFormulationIncomplete = errors.New("case formulation incomplete")

// StartInterventionReason is the version reason recorded for the phase-2 patch.
const StartInterventionReason = "start intervention phase"

// StartIntervention returns the patch that opens the intervention phase. nextTurn
// is the index the next therapist turn will get; the relative count is moved up to
// it so the first intervention turn is always early. Sessions without a
// formulation phase get an empty patch.
func StartIntervention(s belief.BeliefState, nextTurn int) (belief.Patch, error) {
	if !s.FormulationEnabled {
		return belief.Patch{}, nil
	}
	if !s.FormulationComplete {
		return belief.Patch{}, ErrFormulationIncomplete
	}
	p := belief.Patch{Phase2Started: belief.Bool(true)}
	if s.TherapyTurnBase == nil || *s.TherapyTurnBase < nextTurn {
		p.TherapyTurnBase = belief.Int(nextTurn)
	}
	return p, nil
}

// #endregion start-intervention
