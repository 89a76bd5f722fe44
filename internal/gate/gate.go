package gate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/toradrage/mct-trener/internal/voice"
)

// #region gate
// Gate decides whether an external paraphrase may replace the rule reply.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate checks hard vetoes first, then scores overlap with the rule reply.
// The raw text is judged, not the calibrated one, so the pipeline cannot launder
// a paraphrase that broke a voice rule.
func (g *Gate) Evaluate(c Candidate) GateDecision {
	var vetoes []VetoSignal

	// --- Hard veto pass ---

	// 1. Nothing usable
	if strings.TrimSpace(c.Raw) == "" || strings.TrimSpace(c.Calibrated) == "" {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoEmpty,
			Reason: "paraphrase is empty",
		})
	}

	// 2. Voice rules on the raw text
	if len(vetoes) == 0 {
		for _, v := range voice.Violations(c.Raw) {
			vetoes = append(vetoes, VetoSignal{
				Type:   vetoTypeFor(v.Type),
				Reason: fmt.Sprintf("%s: %q", v.Type, v.Term),
			})
		}
	}

	// 3. Length cap
	if n := utf8.RuneCountInString(c.Raw); n > g.config.MaxRawChars {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoConstraint,
			Reason: fmt.Sprintf("raw length %d exceeds cap %d", n, g.config.MaxRawChars),
		})
	}

	// 4. Calibration had to fall back
	if c.Fallback != "" && c.Calibrated == c.Fallback && c.RuleReply != c.Fallback {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoConstraint,
			Reason: "calibration replaced paraphrase with fallback",
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			SoftScore:   0,
		}
	}

	// --- Soft scoring ---
	softScore := overlap(c.Calibrated, c.RuleReply)
	reason := fmt.Sprintf("passed gate: soft_score=%.4f", softScore)
	if softScore < g.config.MinOverlap {
		reason += " (low overlap)"
	}

	return GateDecision{
		Action:      "accept",
		Reason:      reason,
		Vetoed:      false,
		VetoSignals: nil,
		SoftScore:   softScore,
	}
}

// #endregion gate

// #region helpers
func vetoTypeFor(t voice.ViolationType) VetoType {
	switch t {
	case voice.ViolationEmpty:
		return VetoEmpty
	case voice.ViolationJargon:
		return VetoJargon
	case voice.ViolationInsight:
		return VetoInsight
	default:
		return VetoVoice
	}
}

// overlap is the Jaccard index of the lower-cased word sets.
func overlap(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func words(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = true
	}
	return out
}

// #endregion helpers
