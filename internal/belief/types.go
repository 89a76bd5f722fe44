package belief

// #region formulation-key

// FormulationKey names one item of the case-formulation checklist.
type FormulationKey string

const (
	KeyTrigger       FormulationKey = "trigger"
	KeyWhatIf        FormulationKey = "whatIf"
	KeyWorryChain    FormulationKey = "worryChain"
	KeyEmotions      FormulationKey = "emotions"
	KeyPositiveMeta  FormulationKey = "positiveMeta"
	KeyNegativeMeta  FormulationKey = "negativeMeta"
	KeyCASStrategies FormulationKey = "casStrategies"
)

// FormulationKeys returns the checklist in the order a formulation is usually taken.
func FormulationKeys() []FormulationKey {
	return []FormulationKey{
		KeyTrigger,
		KeyWhatIf,
		KeyWorryChain,
		KeyEmotions,
		KeyPositiveMeta,
		KeyNegativeMeta,
		KeyCASStrategies,
	}
}

// Valid reports whether k is one of the seven checklist items.
func (k FormulationKey) Valid() bool {
	for _, key := range FormulationKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// #endregion formulation-key

// #region belief-state

// BeliefState is the patient's psychological state for one session.
// Belief fields live in [0,100]. CAS is never stored; it is always derived.
type BeliefState struct {
	Uncontrollability  float64 `json:"uncontrollability" yaml:"uncontrollability"`
	Danger             float64 `json:"danger" yaml:"danger"`
	PositiveMetaBelief float64 `json:"positiveMetaBelief" yaml:"positiveMetaBelief"`

	// Learned signals. nil until the first intervention turn computes them.
	LearnedEngagement *float64 `json:"learnedEngagement,omitempty" yaml:"learnedEngagement,omitempty"`
	CASDeltaEMA       *float64 `json:"casDeltaEma,omitempty" yaml:"casDeltaEma,omitempty"`

	// Case formulation bookkeeping.
	FormulationEnabled  bool                      `json:"formulationEnabled" yaml:"formulationEnabled"`
	FormulationAsked    map[FormulationKey]bool   `json:"formulationAsked,omitempty" yaml:"formulationAsked,omitempty"`
	FormulationComplete bool                      `json:"formulationComplete" yaml:"formulationComplete"`
	Phase2Started       bool                      `json:"phase2Started" yaml:"phase2Started"`
	TherapyTurnBase     *int                      `json:"therapyTurnBase,omitempty" yaml:"therapyTurnBase,omitempty"`
	FormulationModel    map[FormulationKey]string `json:"formulationModel,omitempty" yaml:"formulationModel,omitempty"`
}

// #endregion belief-state

// #region patch

// Patch is a partial BeliefState returned by the engine. nil fields are left untouched
// by Merge; non-nil maps replace the stored map.
type Patch struct {
	Uncontrollability   *float64                  `json:"uncontrollability,omitempty"`
	Danger              *float64                  `json:"danger,omitempty"`
	PositiveMetaBelief  *float64                  `json:"positiveMetaBelief,omitempty"`
	LearnedEngagement   *float64                  `json:"learnedEngagement,omitempty"`
	CASDeltaEMA         *float64                  `json:"casDeltaEma,omitempty"`
	FormulationAsked    map[FormulationKey]bool   `json:"formulationAsked,omitempty"`
	FormulationComplete *bool                     `json:"formulationComplete,omitempty"`
	Phase2Started       *bool                     `json:"phase2Started,omitempty"`
	TherapyTurnBase     *int                      `json:"therapyTurnBase,omitempty"`
	FormulationModel    map[FormulationKey]string `json:"formulationModel,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Uncontrollability == nil && p.Danger == nil && p.PositiveMetaBelief == nil &&
		p.LearnedEngagement == nil && p.CASDeltaEMA == nil && p.FormulationAsked == nil &&
		p.FormulationComplete == nil && p.Phase2Started == nil && p.TherapyTurnBase == nil &&
		p.FormulationModel == nil
}

// #endregion patch
