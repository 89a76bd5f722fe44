package belief

import "math"

// #region seed

const (
	SeedUncontrollability  = 80
	SeedDanger             = 50
	SeedPositiveMetaBelief = 30
)

// Seed returns the documented starting state of a GAD patient, without a formulation phase.
func Seed() BeliefState {
	return BeliefState{
		Uncontrollability:  SeedUncontrollability,
		Danger:             SeedDanger,
		PositiveMetaBelief: SeedPositiveMetaBelief,
	}
}

// SeedWithFormulation returns the seed state with the case-formulation checklist switched on.
func SeedWithFormulation() BeliefState {
	s := Seed()
	s.FormulationEnabled = true
	s.FormulationAsked = map[FormulationKey]bool{}
	s.FormulationModel = map[FormulationKey]string{}
	return s
}

// #endregion seed

// #region normalize

// Normalize returns a copy with every belief field defaulted and clamped to [0,100].
// NaN and infinities count as missing and become 0.
func Normalize(s BeliefState) BeliefState {
	out := s
	out.Uncontrollability = clampField(s.Uncontrollability)
	out.Danger = clampField(s.Danger)
	out.PositiveMetaBelief = clampField(s.PositiveMetaBelief)
	out.FormulationAsked = copyAsked(s.FormulationAsked)
	out.FormulationModel = copyModel(s.FormulationModel)
	return out
}

func clampField(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// #endregion normalize

// #region merge

// Merge applies a patch to a state and returns the result. The input state is not modified.
func Merge(s BeliefState, p Patch) BeliefState {
	out := s
	out.FormulationAsked = copyAsked(s.FormulationAsked)
	out.FormulationModel = copyModel(s.FormulationModel)

	if p.Uncontrollability != nil {
		out.Uncontrollability = *p.Uncontrollability
	}
	if p.Danger != nil {
		out.Danger = *p.Danger
	}
	if p.PositiveMetaBelief != nil {
		out.PositiveMetaBelief = *p.PositiveMetaBelief
	}
	if p.LearnedEngagement != nil {
		v := *p.LearnedEngagement
		out.LearnedEngagement = &v
	}
	if p.CASDeltaEMA != nil {
		v := *p.CASDeltaEMA
		out.CASDeltaEMA = &v
	}
	if p.FormulationAsked != nil {
		out.FormulationAsked = copyAsked(p.FormulationAsked)
	}
	if p.FormulationComplete != nil {
		out.FormulationComplete = *p.FormulationComplete
	}
	if p.Phase2Started != nil {
		out.Phase2Started = *p.Phase2Started
	}
	if p.TherapyTurnBase != nil {
		v := *p.TherapyTurnBase
		out.TherapyTurnBase = &v
	}
	if p.FormulationModel != nil {
		out.FormulationModel = copyModel(p.FormulationModel)
	}
	return out
}

// #endregion merge

// #region helpers

// AskedCount returns how many checklist items are credited.
func (s BeliefState) AskedCount() int {
	n := 0
	for _, k := range FormulationKeys() {
		if s.FormulationAsked[k] {
			n++
		}
	}
	return n
}

func copyAsked(m map[FormulationKey]bool) map[FormulationKey]bool {
	if m == nil {
		return nil
	}
	out := make(map[FormulationKey]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyModel(m map[FormulationKey]string) map[FormulationKey]string {
	if m == nil {
		return nil
	}
	out := make(map[FormulationKey]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Float returns a pointer to v. Used to build patches.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// #endregion helpers
