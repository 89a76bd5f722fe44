package gate

import (
	"strings"
	"testing"

	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/voice"
)

func candidate(raw string) Candidate {
	cfg := rules.MCTRulesV2()
	return Candidate{
		Raw:        raw,
		Calibrated: voice.Calibrate(raw, rules.PhaseEarly, cfg),
		Fallback:   voice.Fallback(rules.PhaseEarly),
		RuleReply:  "Det var uvant, men jeg klarte litt mer å bare se på bekymringstrangen.",
	}
}

func TestGateAcceptsCleanParaphrase(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	decision := g.Evaluate(candidate("Det var rart, men jeg klarte å se litt på bekymringstrangen."))

	if decision.Action != "accept" {
		t.Fatalf("expected accept, got %s: %s", decision.Action, decision.Reason)
	}
	if decision.Vetoed {
		t.Fatal("should not be vetoed")
	}
	if decision.SoftScore <= 0 {
		t.Fatalf("expected positive overlap, got %f", decision.SoftScore)
	}
}

func TestGateRejectsVoiceViolations(t *testing.T) {
	cases := []struct {
		raw  string
		want VetoType
	}{
		{"", VetoEmpty},
		{"Vi prøver å la tankene være.", VetoVoice},
		{"Man blir roligere av det.", VetoVoice},
		{"Jeg merker at CAS går ned.", VetoJargon},
		{"Jeg innser at bekymringen ikke er farlig.", VetoInsight},
	}
	g := NewGate(DefaultGateConfig())
	for _, c := range cases {
		decision := g.Evaluate(candidate(c.raw))
		if decision.Action != "reject" || !decision.Vetoed {
			t.Fatalf("%q: expected reject, got %s", c.raw, decision.Action)
		}
		if decision.VetoSignals[0].Type != c.want {
			t.Errorf("%q: expected %s, got %s", c.raw, c.want, decision.VetoSignals[0].Type)
		}
	}
}

func TestGateRejectsOverlongRaw(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	decision := g.Evaluate(candidate(strings.Repeat("Jeg kjenner uro. ", 30)))
	if !decision.Vetoed {
		t.Fatal("expected veto on length")
	}
	if decision.VetoSignals[0].Type != VetoConstraint {
		t.Fatalf("expected constraint veto, got %s", decision.VetoSignals[0].Type)
	}
}

func TestOverlap(t *testing.T) {
	if got := overlap("Jeg kjenner uro", "jeg kjenner uro"); got != 1 {
		t.Errorf("identical: %f", got)
	}
	if got := overlap("a b", "c d"); got != 0 {
		t.Errorf("disjoint: %f", got)
	}
}
