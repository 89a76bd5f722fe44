package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region fixture-types

// Fixture is a scripted training session. YAML and JSON files both load.
type Fixture struct {
	Description string           `yaml:"description" json:"description"`
	Difficulty  rules.Difficulty `yaml:"difficulty" json:"difficulty"`
	Formulation bool             `yaml:"formulation" json:"formulation"`
	Start       *FixtureState    `yaml:"start_state,omitempty" json:"start_state,omitempty"`
	Steps       []Step           `yaml:"steps" json:"steps"`
}

// FixtureState overrides the seed belief fields.
type FixtureState struct {
	Uncontrollability  float64 `yaml:"uncontrollability" json:"uncontrollability"`
	Danger             float64 `yaml:"danger" json:"danger"`
	PositiveMetaBelief float64 `yaml:"positive_meta_belief" json:"positive_meta_belief"`
}

// Expect lists per-step assertions. Unset fields are not checked.
type Expect struct {
	Action         string      `yaml:"action,omitempty" json:"action,omitempty"`
	Phase          rules.Phase `yaml:"phase,omitempty" json:"phase,omitempty"`
	Backfire       *bool       `yaml:"backfire,omitempty" json:"backfire,omitempty"`
	ContentPenalty *bool       `yaml:"content_penalty,omitempty" json:"content_penalty,omitempty"`
	Credited       *bool       `yaml:"credited,omitempty" json:"credited,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if !f.Difficulty.Valid() {
		return nil, fmt.Errorf("parse fixture %s: difficulty %d out of range", path, f.Difficulty)
	}
	return &f, nil
}

// StartState builds the initial belief state for the fixture.
func (f *Fixture) StartState() belief.BeliefState {
	s := belief.Seed()
	if f.Formulation {
		s = belief.SeedWithFormulation()
	}
	if f.Start != nil {
		s.Uncontrollability = f.Start.Uncontrollability
		s.Danger = f.Start.Danger
		s.PositiveMetaBelief = f.Start.PositiveMetaBelief
	}
	return s
}

// Mismatches compares results with the fixture's expectations.
func (f *Fixture) Mismatches(results []ReplayResult) []string {
	var out []string
	if len(results) != len(f.Steps) {
		return []string{fmt.Sprintf("expected %d results, got %d", len(f.Steps), len(results))}
	}
	for i, step := range f.Steps {
		e := step.Expect
		if e == nil {
			continue
		}
		r := results[i]
		id := r.TurnID
		if e.Action != "" && r.Action != e.Action {
			out = append(out, fmt.Sprintf("%s: action=%s, want %s (%s)", id, r.Action, e.Action, r.Reason))
		}
		if e.Phase != "" && r.Phase != e.Phase {
			out = append(out, fmt.Sprintf("%s: phase=%s, want %s", id, r.Phase, e.Phase))
		}
		if r.Output == nil {
			if e.Backfire != nil || e.ContentPenalty != nil || e.Credited != nil {
				out = append(out, fmt.Sprintf("%s: no simulator output to check flags against", id))
			}
			continue
		}
		flags := r.Output.Flags
		if e.Backfire != nil && flags.EarlyProcessBackfire != *e.Backfire {
			out = append(out, fmt.Sprintf("%s: backfire=%v, want %v", id, flags.EarlyProcessBackfire, *e.Backfire))
		}
		if e.ContentPenalty != nil && flags.ContentCBTPenalty != *e.ContentPenalty {
			out = append(out, fmt.Sprintf("%s: content_penalty=%v, want %v", id, flags.ContentCBTPenalty, *e.ContentPenalty))
		}
		if e.Credited != nil && flags.Credited != *e.Credited {
			out = append(out, fmt.Sprintf("%s: credited=%v, want %v", id, flags.Credited, *e.Credited))
		}
	}
	return out
}

// #endregion fixture-loader
