package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoEmpty      VetoType = "empty"
	VetoVoice      VetoType = "voice_violation"
	VetoJargon     VetoType = "jargon"
	VetoInsight    VetoType = "insight"
	VetoConstraint VetoType = "constraint_violation"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds thresholds for paraphrase acceptance.
type GateConfig struct {
	MaxRawChars int     // hard cap on the raw paraphrase, in runes
	MinOverlap  float64 // soft: prefer paraphrases that keep the rule reply's words
}

// DefaultGateConfig returns the defaults used by the trainer.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxRawChars: 280,
		MinOverlap:  0.15,
	}
}

// #endregion gate-config

// #region candidate
// Candidate is one paraphrase offered for a turn.
type Candidate struct {
	Raw        string // as returned by the paraphraser
	Calibrated string // Raw after the voice pipeline
	Fallback   string // the phase fallback the pipeline substitutes on failure
	RuleReply  string // the calibrated rule-engine reply
}

// #endregion candidate

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "accept" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	SoftScore   float64      // word overlap with the rule reply (for logging)
}

// #endregion gate-decision
