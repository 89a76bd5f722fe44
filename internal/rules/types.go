package rules

// #region difficulty

// Difficulty is the patient difficulty level, 1 (cooperative) to 3 (high meta-worry).
type Difficulty int

const (
	Level1 Difficulty = 1
	Level2 Difficulty = 2
	Level3 Difficulty = 3
)

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
	return d >= Level1 && d <= Level3
}

// #endregion difficulty

// #region intervention

// Intervention is the technique the therapist selects for a turn.
type Intervention string

const (
	Sokratisk   Intervention = "sokratisk"
	Eksperiment Intervention = "eksperiment"
	Mindfulness Intervention = "mindfulness"
	Verbal      Intervention = "verbal"
)

// Interventions lists the four techniques offered in the therapy room.
func Interventions() []Intervention {
	return []Intervention{Sokratisk, Eksperiment, Mindfulness, Verbal}
}

// #endregion intervention

// #region phase

// Phase is the session phase a turn belongs to.
type Phase string

const (
	PhaseFormulation Phase = "formulation"
	PhaseEarly       Phase = "early"
	PhaseMid         Phase = "mid"
	PhaseLate        Phase = "late"
)

// #endregion phase

// #region coefficient-groups

// Deltas is a raw change to (threat, uncontrollability, positive belief) before scaling.
type Deltas struct {
	Threat            float64 `yaml:"threat" json:"threat"`
	Uncontrollability float64 `yaml:"uncontrollability" json:"uncontrollability"`
	Positive          float64 `yaml:"positive" json:"positive"`
}

// PhaseBounds marks where early and mid end, counted in intervention-phase turns.
type PhaseBounds struct {
	EarlyMaxTurnExclusive int `yaml:"early_max_turn_exclusive" json:"early_max_turn_exclusive"`
	MidMaxTurnExclusive   int `yaml:"mid_max_turn_exclusive" json:"mid_max_turn_exclusive"`
}

// CASWeights blends uncontrollability and danger into the CAS score.
type CASWeights struct {
	Uncontrollability float64 `yaml:"uncontrollability" json:"uncontrollability"`
	Threat            float64 `yaml:"threat" json:"threat"`
}

// MetaWorryWeights blends uncontrollability and positive beliefs into meta-worry.
type MetaWorryWeights struct {
	Uncontrollability float64 `yaml:"uncontrollability" json:"uncontrollability"`
	PositiveBeliefs   float64 `yaml:"positive_beliefs" json:"positive_beliefs"`
	HighThreshold     float64 `yaml:"high_threshold" json:"high_threshold"`
}

// EngagementWeights drive the instantaneous engagement proxy (100 minus the blend).
type EngagementWeights struct {
	Uncontrollability float64 `yaml:"uncontrollability" json:"uncontrollability"`
	Threat            float64 `yaml:"threat" json:"threat"`
}

// ResistanceWeights drive the resistance proxy.
type ResistanceWeights struct {
	CAS             float64                `yaml:"cas" json:"cas"`
	PositiveBeliefs float64                `yaml:"positive_beliefs" json:"positive_beliefs"`
	DifficultyBump  map[Difficulty]float64 `yaml:"difficulty_bump" json:"difficulty_bump"`
}

// CooperationConfig turns engagement and resistance into an effect scale.
type CooperationConfig struct {
	ResistanceWeight float64 `yaml:"resistance_weight" json:"resistance_weight"`
	MinScale         float64 `yaml:"min_scale" json:"min_scale"`
	MaxScale         float64 `yaml:"max_scale" json:"max_scale"`
}

// InterventionConfig classifies techniques and holds their raw deltas.
type InterventionConfig struct {
	ContentLike   []Intervention          `yaml:"content_like" json:"content_like"`
	ProcessLike   []Intervention          `yaml:"process_like" json:"process_like"`
	ProcessDeltas map[Intervention]Deltas `yaml:"process_deltas" json:"process_deltas"`
	ContentMild   Deltas                  `yaml:"content_mild" json:"content_mild"`
	ContentHarsh  Deltas                  `yaml:"content_harsh" json:"content_harsh"`
}

// DriftConfig controls the upward pull of high meta-worry between turns.
type DriftConfig struct {
	BaseMultiplier          float64 `yaml:"base_multiplier" json:"base_multiplier"`
	UncontrollabilityWeight float64 `yaml:"uncontrollability_weight" json:"uncontrollability_weight"`
	ThreatWeight            float64 `yaml:"threat_weight" json:"threat_weight"`
}

// BackfireConfig gates the early process-intervention backfire.
type BackfireConfig struct {
	Level                Difficulty `yaml:"level" json:"level"`
	EarlyPhaseOnly       bool       `yaml:"early_phase_only" json:"early_phase_only"`
	RequireHighMetaWorry bool       `yaml:"require_high_meta_worry" json:"require_high_meta_worry"`
	Deltas               Deltas     `yaml:"deltas" json:"deltas"`
}

// EngagementLearning holds the EMA parameters for learned engagement.
type EngagementLearning struct {
	Alpha       float64                `yaml:"alpha" json:"alpha"`
	RewardRate  float64                `yaml:"reward_rate" json:"reward_rate"`
	PenaltyRate float64                `yaml:"penalty_rate" json:"penalty_rate"`
	Min         float64                `yaml:"min" json:"min"`
	Max         float64                `yaml:"max" json:"max"`
	ProxyBlend  float64                `yaml:"proxy_blend" json:"proxy_blend"`
	Baseline    map[Difficulty]float64 `yaml:"baseline" json:"baseline"`
}

// FormulationConfig holds the fact-finding phase coefficients.
type FormulationConfig struct {
	DriftPerTurn float64 `yaml:"drift_per_turn" json:"drift_per_turn"`
}

// ReplyThresholds split reply templates by belief level.
type ReplyThresholds struct {
	PositiveBeliefHigh float64 `yaml:"positive_belief_high" json:"positive_belief_high"`
	DangerHigh         float64 `yaml:"danger_high" json:"danger_high"`
}

// VoiceBudget limits patient replies per phase.
type VoiceBudget struct {
	Sentences map[Phase]int `yaml:"sentences" json:"sentences"`
	Chars     map[Phase]int `yaml:"chars" json:"chars"`
}

// Profile is the per-difficulty behaviour of the simulated patient.
type Profile struct {
	Label               string  `yaml:"label" json:"label"`
	Stickiness          float64 `yaml:"stickiness" json:"stickiness"`
	ContentPenalty      float64 `yaml:"content_penalty" json:"content_penalty"`
	BackfireSensitivity float64 `yaml:"backfire_sensitivity" json:"backfire_sensitivity"`
	Gain                float64 `yaml:"gain" json:"gain"`
}

// #endregion coefficient-groups

// #region config

// Config is the complete coefficient table. Every computation in the engine reads from it.
type Config struct {
	Version         string                 `yaml:"version" json:"version"`
	Phase           PhaseBounds            `yaml:"phase" json:"phase"`
	CAS             CASWeights             `yaml:"cas" json:"cas"`
	MetaWorry       MetaWorryWeights       `yaml:"meta_worry" json:"meta_worry"`
	EngagementProxy EngagementWeights      `yaml:"engagement_proxy" json:"engagement_proxy"`
	Resistance      ResistanceWeights      `yaml:"resistance" json:"resistance"`
	Cooperation     CooperationConfig      `yaml:"cooperation" json:"cooperation"`
	Interventions   InterventionConfig     `yaml:"interventions" json:"interventions"`
	Drift           DriftConfig            `yaml:"drift" json:"drift"`
	Backfire        BackfireConfig         `yaml:"backfire" json:"backfire"`
	Engagement      EngagementLearning     `yaml:"engagement" json:"engagement"`
	Formulation     FormulationConfig      `yaml:"formulation" json:"formulation"`
	Replies         ReplyThresholds        `yaml:"replies" json:"replies"`
	Voice           VoiceBudget            `yaml:"voice" json:"voice"`
	Profiles        map[Difficulty]Profile `yaml:"profiles" json:"profiles"`
}

// #endregion config
