package rules

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and LoadFile for inconsistent tables.
var ErrInvalidConfig = errors.New("invalid rule config")

// #region defaults

// MCTRulesV2 returns the default coefficient table. Each call returns a fresh value.
func MCTRulesV2() Config {
	return Config{
		Version: "mct-rules-v2",
		Phase: PhaseBounds{
			EarlyMaxTurnExclusive: 2,
			MidMaxTurnExclusive:   6,
		},
		CAS: CASWeights{
			Uncontrollability: 0.55,
			Threat:            0.45,
		},
		MetaWorry: MetaWorryWeights{
			Uncontrollability: 0.72,
			PositiveBeliefs:   0.28,
			HighThreshold:     65,
		},
		EngagementProxy: EngagementWeights{
			Uncontrollability: 0.6,
			Threat:            0.4,
		},
		Resistance: ResistanceWeights{
			CAS:             0.45,
			PositiveBeliefs: 0.55,
			DifficultyBump:  map[Difficulty]float64{Level1: 0, Level2: 8, Level3: 16},
		},
		Cooperation: CooperationConfig{
			ResistanceWeight: 0.6,
			MinScale:         0.35,
			MaxScale:         0.65,
		},
		Interventions: InterventionConfig{
			ContentLike: []Intervention{Sokratisk, Verbal},
			ProcessLike: []Intervention{Mindfulness, Eksperiment},
			ProcessDeltas: map[Intervention]Deltas{
				Mindfulness: {Threat: -4, Uncontrollability: -10, Positive: -2},
				Eksperiment: {Threat: -9, Uncontrollability: -6, Positive: -1},
			},
			// Content focus feeds monitoring and rumination.
			ContentMild:  Deltas{Threat: 1.5, Uncontrollability: 1, Positive: 2},
			ContentHarsh: Deltas{Threat: 7, Uncontrollability: 5, Positive: 2},
		},
		Drift: DriftConfig{
			BaseMultiplier:          6,
			UncontrollabilityWeight: 0.6,
			ThreatWeight:            0.4,
		},
		Backfire: BackfireConfig{
			Level:                Level3,
			EarlyPhaseOnly:       true,
			RequireHighMetaWorry: true,
			Deltas:               Deltas{Threat: 9, Uncontrollability: 22, Positive: 4},
		},
		Engagement: EngagementLearning{
			Alpha:       0.35,
			RewardRate:  0.6,
			PenaltyRate: 0.8,
			Min:         10,
			Max:         90,
			ProxyBlend:  0.8,
			Baseline:    map[Difficulty]float64{Level1: 60, Level2: 45, Level3: 35},
		},
		Formulation: FormulationConfig{
			DriftPerTurn: 1,
		},
		Replies: ReplyThresholds{
			PositiveBeliefHigh: 55,
			DangerHigh:         70,
		},
		Voice: VoiceBudget{
			Sentences: map[Phase]int{PhaseFormulation: 1, PhaseEarly: 1, PhaseMid: 1, PhaseLate: 2},
			Chars:     map[Phase]int{PhaseFormulation: 110, PhaseEarly: 130, PhaseMid: 150, PhaseLate: 180},
		},
		Profiles: map[Difficulty]Profile{
			Level1: {
				Label:               "Nivå 1 (samarbeidende / lav meta-worry)",
				Stickiness:          0.15,
				ContentPenalty:      2,
				BackfireSensitivity: 0.15,
				Gain:                1,
			},
			Level2: {
				Label:               "Nivå 2 (fastlåst CAS / ruminerer lett)",
				Stickiness:          0.35,
				ContentPenalty:      8,
				BackfireSensitivity: 0.35,
				Gain:                0.7,
			},
			Level3: {
				Label:               "Nivå 3 (høy meta-worry / tidlig backfire)",
				Stickiness:          0.55,
				ContentPenalty:      12,
				BackfireSensitivity: 0.7,
				Gain:                0.55,
			},
		},
	}
}

// #endregion defaults

// #region lookups

// Profile returns the profile for d. Unknown levels fall back to the nearest known level.
func (c Config) Profile(d Difficulty) Profile {
	return c.Profiles[c.clampDifficulty(d)]
}

// IsProcessLike reports whether iv targets the worry process. Anything else,
// including unknown techniques, is treated as content-like.
func (c Config) IsProcessLike(iv Intervention) bool {
	return slices.Contains(c.Interventions.ProcessLike, iv)
}

// Budget returns the sentence and character limits for a phase.
func (c Config) Budget(p Phase) (sentences, chars int) {
	sentences, ok := c.Voice.Sentences[p]
	if !ok || sentences <= 0 {
		sentences = 1
	}
	chars, ok = c.Voice.Chars[p]
	if !ok || chars <= 0 {
		chars = c.Voice.Chars[PhaseFormulation]
	}
	return sentences, chars
}

// DifficultyBump returns the resistance bump for d.
func (c Config) DifficultyBump(d Difficulty) float64 {
	return c.Resistance.DifficultyBump[c.clampDifficulty(d)]
}

// EngagementBaseline returns the bootstrap engagement baseline for d.
func (c Config) EngagementBaseline(d Difficulty) float64 {
	return c.Engagement.Baseline[c.clampDifficulty(d)]
}

func (c Config) clampDifficulty(d Difficulty) Difficulty {
	if d < Level1 {
		return Level1
	}
	if d > Level3 {
		return Level3
	}
	return d
}

// #endregion lookups

// #region validate

// Validate checks the table for inconsistencies. All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Phase.EarlyMaxTurnExclusive <= 0 || c.Phase.EarlyMaxTurnExclusive >= c.Phase.MidMaxTurnExclusive {
		bad("phase bounds early=%d mid=%d", c.Phase.EarlyMaxTurnExclusive, c.Phase.MidMaxTurnExclusive)
	}
	for name, w := range map[string]float64{
		"cas.uncontrollability":              c.CAS.Uncontrollability,
		"cas.threat":                         c.CAS.Threat,
		"meta_worry.uncontrollability":       c.MetaWorry.Uncontrollability,
		"meta_worry.positive_beliefs":        c.MetaWorry.PositiveBeliefs,
		"engagement_proxy.uncontrollability": c.EngagementProxy.Uncontrollability,
		"engagement_proxy.threat":            c.EngagementProxy.Threat,
		"engagement.alpha":                   c.Engagement.Alpha,
		"engagement.proxy_blend":             c.Engagement.ProxyBlend,
	} {
		if w < 0 || w > 1 {
			bad("weight %s=%v outside [0,1]", name, w)
		}
	}
	if c.Engagement.Min >= c.Engagement.Max {
		bad("engagement bounds min=%v max=%v", c.Engagement.Min, c.Engagement.Max)
	}
	if c.Cooperation.MinScale < 0 || c.Cooperation.MaxScale < 0 {
		bad("cooperation scale min=%v max=%v", c.Cooperation.MinScale, c.Cooperation.MaxScale)
	}
	for _, d := range []Difficulty{Level1, Level2, Level3} {
		p, ok := c.Profiles[d]
		if !ok {
			bad("missing profile for level %d", d)
			continue
		}
		if p.Gain < 0 || p.Stickiness < 0 || p.BackfireSensitivity < 0 {
			bad("negative coefficient in profile %d", d)
		}
		if _, ok := c.Engagement.Baseline[d]; !ok {
			bad("missing engagement baseline for level %d", d)
		}
	}
	for _, iv := range c.Interventions.ProcessLike {
		if slices.Contains(c.Interventions.ContentLike, iv) {
			bad("intervention %q is both process- and content-like", iv)
		}
		if _, ok := c.Interventions.ProcessDeltas[iv]; !ok {
			bad("missing process deltas for %q", iv)
		}
	}
	for _, p := range []Phase{PhaseFormulation, PhaseEarly, PhaseMid, PhaseLate} {
		if c.Voice.Sentences[p] <= 0 || c.Voice.Chars[p] <= 0 {
			bad("missing voice budget for phase %s", p)
		}
	}
	return errors.Join(errs...)
}

// #endregion validate

// #region load

// LoadFile overlays a YAML document on the default table and validates the result.
// Keys absent from the file keep their default values.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays YAML bytes on the default table and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := MCTRulesV2()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UnmarshalYAML decodes onto the values already in c. Entries of the profile and
// process delta maps are merged field by field, so a partial entry keeps the
// fields it does not name.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	profiles := maps.Clone(c.Profiles)
	deltas := maps.Clone(c.Interventions.ProcessDeltas)
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}

	if n := mappingValue(node, "profiles"); n != nil && c.Profiles != nil {
		var entries map[Difficulty]yaml.Node
		if err := n.Decode(&entries); err != nil {
			return err
		}
		for d, entry := range entries {
			p := profiles[d]
			if err := entry.Decode(&p); err != nil {
				return fmt.Errorf("profile %d: %w", d, err)
			}
			c.Profiles[d] = p
		}
	}
	if n := mappingValue(mappingValue(node, "interventions"), "process_deltas"); n != nil && c.Interventions.ProcessDeltas != nil {
		var entries map[Intervention]yaml.Node
		if err := n.Decode(&entries); err != nil {
			return err
		}
		for iv, entry := range entries {
			d := deltas[iv]
			if err := entry.Decode(&d); err != nil {
				return fmt.Errorf("process deltas %s: %w", iv, err)
			}
			c.Interventions.ProcessDeltas[iv] = d
		}
	}
	return nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// #endregion load
