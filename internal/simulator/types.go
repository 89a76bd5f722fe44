package simulator

import (
	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region input

// Input is one therapist turn.
type Input struct {
	Intervention rules.Intervention
	Difficulty   rules.Difficulty
	Message      string
	State        belief.BeliefState
	TurnIndex    int // 0-based, counted over the whole session

	// SelectedCategory is the checklist item picked in the UI. Only read in formulation.
	SelectedCategory belief.FormulationKey
}

// #endregion input

// #region output

// Signals is the per-turn bundle shown next to the reply. Resistance and
// Engagement are the pre-turn values the turn was computed with.
type Signals struct {
	Resistance float64 `json:"resistance"`
	Engagement float64 `json:"engagement"`
	CAS        float64 `json:"cas"`
	DeltaCAS   float64 `json:"deltaCas"`
}

// Flags records which rules fired.
type Flags struct {
	EarlyProcessBackfire bool `json:"earlyProcessBackfire"`
	ContentCBTPenalty    bool `json:"contentCbtPenalty"`
	ProcessRewarded      bool `json:"processRewarded"`
	Credited             bool `json:"credited"`
	AlreadyCredited      bool `json:"alreadyCredited"`
	FormulationComplete  bool `json:"formulationComplete"`
}

// Output is everything a turn produces. The engine never persists; the host
// merges Patch into its stored state.
type Output struct {
	Patch        belief.Patch
	Reply        string
	Trace        string
	Signals      Signals
	Flags        Flags
	Phase        rules.Phase
	RelativeTurn int
	MetaWorry    float64 // pre-turn
	Cooperation  float64
	CASBefore    float64
	Deltas       rules.Deltas // applied, after scaling and clamping
}

// #endregion output
