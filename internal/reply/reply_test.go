package reply

import (
	"strings"
	"testing"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/voice"
)

func TestSelectInterventionPriority(t *testing.T) {
	cfg := rules.MCTRulesV2()
	seed := belief.Seed()

	backfire := SelectIntervention(Params{Intervention: rules.Mindfulness, Difficulty: rules.Level3, Next: seed, MetaWorry: 80, Backfire: true, ContentPenalty: true}, cfg)
	if !strings.Contains(backfire, "sjekke om jeg virkelig er rolig") {
		t.Errorf("backfire should win over penalty: %q", backfire)
	}
	penalty := SelectIntervention(Params{Intervention: rules.Sokratisk, Difficulty: rules.Level2, Next: seed, ContentPenalty: true}, cfg)
	if !strings.Contains(penalty, "sammenligne og vurdere") {
		t.Errorf("penalty reply expected: %q", penalty)
	}
	unknown := SelectIntervention(Params{Intervention: "hypnose", Difficulty: rules.Level1, Next: seed}, cfg)
	if unknown == "" {
		t.Fatal("unknown intervention gave empty reply")
	}
}

func TestSelectInterventionThresholds(t *testing.T) {
	cfg := rules.MCTRulesV2()
	hi := belief.Seed()
	hi.Danger = 90
	hi.PositiveMetaBelief = 70
	lo := belief.Seed()
	lo.Danger = 10
	lo.PositiveMetaBelief = 10

	for _, iv := range []rules.Intervention{rules.Sokratisk, rules.Verbal} {
		a := SelectIntervention(Params{Intervention: iv, Difficulty: rules.Level1, Next: hi}, cfg)
		b := SelectIntervention(Params{Intervention: iv, Difficulty: rules.Level1, Next: lo}, cfg)
		if a == b {
			t.Errorf("%s: same reply for high and low beliefs", iv)
		}
	}
	for _, iv := range []rules.Intervention{rules.Mindfulness, rules.Eksperiment} {
		a := SelectIntervention(Params{Intervention: iv, Difficulty: rules.Level1, Next: hi, MetaWorry: 80}, cfg)
		b := SelectIntervention(Params{Intervention: iv, Difficulty: rules.Level1, Next: lo, MetaWorry: 20}, cfg)
		if a == b {
			t.Errorf("%s: same reply for high and low meta-worry", iv)
		}
	}
}

func TestSuffix(t *testing.T) {
	if Suffix(rules.Level1) != "" {
		t.Error("level 1 has no suffix")
	}
	if Suffix(rules.Level2) == "" || Suffix(rules.Level3) == "" {
		t.Error("levels 2 and 3 carry a suffix")
	}
}

func TestDifficultyColourSurvivesCalibration(t *testing.T) {
	cfg := rules.MCTRulesV2()
	hi := belief.Seed()
	hi.Danger = 90
	hi.PositiveMetaBelief = 70
	states := []belief.BeliefState{belief.Seed(), hi}

	for _, ph := range []rules.Phase{rules.PhaseEarly, rules.PhaseMid, rules.PhaseLate} {
		_, chars := cfg.Budget(ph)
		for _, d := range []rules.Difficulty{rules.Level2, rules.Level3} {
			for _, iv := range append(rules.Interventions(), "ukjent") {
				for _, st := range states {
					for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}} {
						p := Params{Intervention: iv, Difficulty: d, Next: st, MetaWorry: 66, Backfire: flags[0], ContentPenalty: flags[1]}
						raw := SelectIntervention(p, cfg)
						if n := len([]rune(raw)); n > chars && ph == rules.PhaseLate {
							t.Errorf("%s L%d %s: %d runes over late budget %d", ph, d, iv, n, chars)
						}
						got := voice.Calibrate(raw, ph, cfg)
						if !strings.Contains(got, Suffix(d)) {
							t.Errorf("%s L%d %s %v: colour lost in %q", ph, d, iv, flags, got)
						}
					}
				}
			}
		}
	}
}

func TestContentPenaltyReplyWording(t *testing.T) {
	got := SelectIntervention(Params{Intervention: rules.Verbal, Difficulty: rules.Level1, Next: belief.Seed(), ContentPenalty: true}, rules.MCTRulesV2())
	if !strings.Contains(got, "mer grubling,") {
		t.Errorf("got %q", got)
	}
}

func TestSelectFormulation(t *testing.T) {
	got := SelectFormulation(FormulationParams{Detected: belief.KeyEmotions, DetectedOK: true, Selected: belief.KeyEmotions, Credited: true})
	want, _ := FormulationAnswer(belief.KeyEmotions)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	miss := SelectFormulation(FormulationParams{Detected: belief.KeyTrigger, DetectedOK: true, Selected: belief.KeyEmotions})
	for _, k := range belief.FormulationKeys() {
		if a, _ := FormulationAnswer(k); a == miss {
			t.Errorf("uncredited turn revealed %s", k)
		}
	}
	none := SelectFormulation(FormulationParams{Selected: belief.KeyEmotions})
	if none == "" || none == miss {
		t.Errorf("no-detection reply: %q", none)
	}
}

// Every template must already sit in patient voice so calibration only trims it.
func TestTemplatesInPatientVoice(t *testing.T) {
	cfg := rules.MCTRulesV2()
	var all []string
	for _, k := range belief.FormulationKeys() {
		a, ok := FormulationAnswer(k)
		if !ok {
			t.Fatalf("missing answer for %s", k)
		}
		all = append(all, a)
	}
	seed := belief.Seed()
	for _, iv := range append(rules.Interventions(), "ukjent") {
		for _, d := range []rules.Difficulty{rules.Level1, rules.Level2, rules.Level3} {
			for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}} {
				all = append(all, SelectIntervention(Params{Intervention: iv, Difficulty: d, Next: seed, MetaWorry: 66, Backfire: flags[0], ContentPenalty: flags[1]}, cfg))
			}
		}
	}
	all = append(all,
		SelectFormulation(FormulationParams{Selected: belief.KeyTrigger}),
		SelectFormulation(FormulationParams{DetectedOK: true, Detected: belief.KeyWhatIf, Selected: belief.KeyTrigger}),
		SelectFormulation(FormulationParams{DetectedOK: true, Detected: belief.KeyTrigger, Selected: belief.KeyTrigger, Credited: true, AlreadyCredited: true}),
	)
	for _, s := range all {
		if v := voice.Violations(s); len(v) > 0 {
			t.Errorf("%q: %v", s, v)
		}
	}
}
