package phase

import (
	"errors"
	"testing"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

func TestResolveWithoutFormulation(t *testing.T) {
	cfg := rules.MCTRulesV2()
	s := belief.Seed()
	tests := []struct {
		turn int
		want rules.Phase
	}{
		{0, rules.PhaseEarly},
		{1, rules.PhaseEarly},
		{2, rules.PhaseMid},
		{5, rules.PhaseMid},
		{6, rules.PhaseLate},
		{40, rules.PhaseLate},
	}
	for _, tt := range tests {
		got, rel := Resolve(s, tt.turn, cfg)
		if got != tt.want {
			t.Errorf("turn %d: got %s, want %s", tt.turn, got, tt.want)
		}
		if rel != tt.turn {
			t.Errorf("turn %d: relative %d, want %d", tt.turn, rel, tt.turn)
		}
	}
}

func TestResolveFormulationGate(t *testing.T) {
	cfg := rules.MCTRulesV2()

	s := belief.SeedWithFormulation()
	if p, _ := Resolve(s, 3, cfg); p != rules.PhaseFormulation {
		t.Fatalf("incomplete checklist: got %s", p)
	}

	s.FormulationComplete = true
	if p, _ := Resolve(s, 9, cfg); p != rules.PhaseFormulation {
		t.Fatalf("complete but phase 2 not started: got %s", p)
	}

	s.Phase2Started = true
	s.TherapyTurnBase = belief.Int(5)
	tests := []struct {
		turn    int
		want    rules.Phase
		wantRel int
	}{
		{3, rules.PhaseEarly, 0},
		{5, rules.PhaseEarly, 0},
		{6, rules.PhaseEarly, 1},
		{7, rules.PhaseMid, 2},
		{10, rules.PhaseMid, 5},
		{11, rules.PhaseLate, 6},
	}
	for _, tt := range tests {
		got, rel := Resolve(s, tt.turn, cfg)
		if got != tt.want || rel != tt.wantRel {
			t.Errorf("turn %d: got %s/%d, want %s/%d", tt.turn, got, rel, tt.want, tt.wantRel)
		}
	}
}

func TestPhase2WithoutChecklistStaysInFormulation(t *testing.T) {
	s := belief.SeedWithFormulation()
	s.Phase2Started = true
	if !InFormulation(s) {
		t.Fatal("phase 2 flag alone must not leave formulation")
	}
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	tests := []struct {
		name string
		text string
		want belief.FormulationKey
	}{
		{"trigger", "Hva skjedde rett før bekymringen startet i går?", belief.KeyTrigger},
		{"what-if", "Hva om det verste skjer, hva var den første tanken?", belief.KeyWhatIf},
		{"chain", "Og så, hva skjer så videre i hodet ditt?", belief.KeyWorryChain},
		{"emotions", "Hvordan føler du deg i kroppen når det skjer?", belief.KeyEmotions},
		{"positive-meta", "Tror du det er nyttig å bekymre seg, at det gjør deg forberedt?", belief.KeyPositiveMeta},
		{"negative-meta", "Er du redd for at du kan miste kontroll over bekymringen?", belief.KeyNegativeMeta},
		{"strategies", "Hva gjør du for å få bekymringen bort, sjekker du ting?", belief.KeyCASStrategies},
		{"english-what-if", "What if you lose your job?", belief.KeyWhatIf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.text)
			if !ok {
				t.Fatalf("expected a category for %q", tt.text)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeywordClassifierNoMatch(t *testing.T) {
	c := NewKeywordClassifier()
	for _, text := range []string{"", "   ", "Fint vær i dag"} {
		if key, ok := c.Classify(text); ok {
			t.Errorf("%q: expected no match, got %q", text, key)
		}
	}
}

func fixed(key belief.FormulationKey) Classifier {
	return ClassifierFunc(func(string) (belief.FormulationKey, bool) { return key, key != "" })
}

func TestCreditRequiresMatch(t *testing.T) {
	asked := map[belief.FormulationKey]bool{belief.KeyTrigger: true}

	for _, detected := range belief.FormulationKeys() {
		for _, selected := range belief.FormulationKeys() {
			res := Credit(fixed(detected), "tekst", selected, asked)
			if detected == selected {
				if !res.Credited || !res.Asked[selected] {
					t.Errorf("%s/%s: expected credit", detected, selected)
				}
				continue
			}
			if res.Credited {
				t.Errorf("%s/%s: mismatched pair was credited", detected, selected)
			}
			if res.Done != 1 {
				t.Errorf("%s/%s: done changed to %d", detected, selected, res.Done)
			}
		}
	}
	if len(asked) != 1 {
		t.Fatal("Credit mutated the input map")
	}
}

func TestCreditNoDetection(t *testing.T) {
	res := Credit(fixed(""), "hei", belief.KeyEmotions, nil)
	if res.Credited || res.DetectedOK || res.Done != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Asked == nil {
		t.Fatal("result map should be non-nil")
	}
}

func TestCreditCompletesChecklist(t *testing.T) {
	asked := map[belief.FormulationKey]bool{}
	keys := belief.FormulationKeys()
	for i, k := range keys {
		res := Credit(fixed(k), "tekst", k, asked)
		asked = res.Asked
		if res.Done != i+1 {
			t.Fatalf("after %s: done %d, want %d", k, res.Done, i+1)
		}
		if res.Complete != (i == len(keys)-1) {
			t.Fatalf("after %s: complete=%v", k, res.Complete)
		}
	}

	again := Credit(fixed(belief.KeyTrigger), "tekst", belief.KeyTrigger, asked)
	if !again.AlreadyCredited || again.Done != 7 {
		t.Fatalf("re-asking should be flagged as already credited: %+v", again)
	}
}

func completeState() belief.BeliefState {
	s := belief.SeedWithFormulation()
	for _, k := range belief.FormulationKeys() {
		s.FormulationAsked[k] = true
	}
	s.FormulationComplete = true
	return s
}

func TestStartInterventionRequiresChecklist(t *testing.T) {
	_, err := StartIntervention(belief.SeedWithFormulation(), 3)
	if !errors.Is(err, ErrFormulationIncomplete) {
		t.Fatalf("expected ErrFormulationIncomplete, got %v", err)
	}
}

func TestStartInterventionMovesBaseForward(t *testing.T) {
	cfg := rules.MCTRulesV2()
	s := completeState()
	s.TherapyTurnBase = belief.Int(7)

	// Therapist kept talking for two turns after completion.
	p, err := StartIntervention(s, 9)
	if err != nil {
		t.Fatalf("StartIntervention: %v", err)
	}
	if p.TherapyTurnBase == nil || *p.TherapyTurnBase != 9 {
		t.Fatalf("expected base 9, got %v", p.TherapyTurnBase)
	}
	next := belief.Merge(s, p)
	if ph, rel := Resolve(next, 9, cfg); ph != rules.PhaseEarly || rel != 0 {
		t.Errorf("first intervention turn: got %s rel %d", ph, rel)
	}
}

func TestStartInterventionKeepsLaterBase(t *testing.T) {
	s := completeState()
	s.TherapyTurnBase = belief.Int(7)
	p, err := StartIntervention(s, 7)
	if err != nil {
		t.Fatalf("StartIntervention: %v", err)
	}
	if p.TherapyTurnBase != nil {
		t.Errorf("base should be left alone, got %d", *p.TherapyTurnBase)
	}
	if p.Phase2Started == nil || !*p.Phase2Started {
		t.Error("expected phase2Started in patch")
	}
}

func TestStartInterventionWithoutFormulation(t *testing.T) {
	p, err := StartIntervention(belief.Seed(), 4)
	if err != nil {
		t.Fatalf("StartIntervention: %v", err)
	}
	if !p.IsEmpty() {
		t.Errorf("expected empty patch, got %+v", p)
	}
}
