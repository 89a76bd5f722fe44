package eval

import (
	"fmt"
	"math"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/metrics"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/simulator"
	"github.com/toradrage/mct-trener/internal/voice"
)

// #region eval-harness
// EvalHarness checks the engine's invariants on every committed turn.
type EvalHarness struct {
	config EvalConfig
	rules  rules.Config
}

// NewHarness creates an eval harness for a rule table.
func NewHarness(config EvalConfig, cfg rules.Config) *EvalHarness {
	return &EvalHarness{config: config, rules: cfg}
}

// Run validates one turn: before is the state the turn started from, after the
// merged result. A failure means an engine bug, not a bad therapist turn.
func (h *EvalHarness) Run(before, after belief.BeliefState, out simulator.Output) EvalResult {
	var ms []EvalMetric
	var failReasons []string
	check := func(name string, value float64, pass bool, format string, args ...any) {
		ms = append(ms, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf(format, args...))
		}
	}
	tol := h.config.Tolerance

	// 1. Field bounds
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"uncontrollability", after.Uncontrollability},
		{"danger", after.Danger},
		{"positive_meta_belief", after.PositiveMetaBelief},
	} {
		check("bounds_"+f.name, f.v, f.v >= 0 && f.v <= 100 && !math.IsNaN(f.v), "%s %.4f outside [0,100]", f.name, f.v)
	}

	// 2. CAS derived from the stored fields
	derived := metrics.CAS(after, h.rules)
	diff := math.Abs(out.Signals.CAS - derived)
	check("cas_consistency", diff, diff <= tol, "reported CAS %.4f, derived %.4f", out.Signals.CAS, derived)

	// 3. No CAS reduction during fact-finding
	if out.Phase == rules.PhaseFormulation {
		drop := metrics.CAS(before, h.rules) - derived
		check("formulation_lock", drop, drop <= tol, "CAS fell by %.4f during formulation", drop)
	}

	// 4. Learned engagement bounds
	if after.LearnedEngagement != nil {
		e := *after.LearnedEngagement
		check("engagement_bounds", e, e >= h.rules.Engagement.Min && e <= h.rules.Engagement.Max,
			"engagement %.4f outside [%v,%v]", e, h.rules.Engagement.Min, h.rules.Engagement.Max)
	}

	// 5. Reply voice and budget
	check("reply_voice", float64(len(voice.Violations(out.Reply))), voice.Compliant(out.Reply), "reply breaks voice rules: %q", out.Reply)
	_, chars := h.rules.Budget(out.Phase)
	n := len([]rune(out.Reply))
	check("reply_length", float64(n), n <= chars, "reply %d runes exceeds %d", n, chars)

	// 6. Signed CAS change: informational only
	ms = append(ms, EvalMetric{Name: "delta_cas", Value: out.Signals.DeltaCAS, Pass: true})

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: ms,
		Reason:  reason,
	}
}

// #endregion eval-harness
