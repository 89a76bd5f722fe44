// Package metrics derives the proxy signals the simulator reasons about.
// Nothing here is stored; every value is recomputed from a belief snapshot.
package metrics

import (
	"math"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region cas

// CAS is the Cognitive Attentional Syndrome score.
func CAS(s belief.BeliefState, cfg rules.Config) float64 {
	u, t, _ := fields(s)
	return Clamp(cfg.CAS.Uncontrollability*u + cfg.CAS.Threat*t)
}

// #endregion cas

// #region meta-worry

// MetaWorry approximates how significant the patient finds the worrying itself.
func MetaWorry(s belief.BeliefState, cfg rules.Config) float64 {
	u, _, p := fields(s)
	return Clamp(cfg.MetaWorry.Uncontrollability*u + cfg.MetaWorry.PositiveBeliefs*p)
}

// IsHighMetaWorry compares a meta-worry value against the configured threshold.
func IsHighMetaWorry(metaWorry float64, cfg rules.Config) bool {
	return metaWorry >= cfg.MetaWorry.HighThreshold
}

// #endregion meta-worry

// #region engagement

// EngagementProxy is the instantaneous engagement estimate: calmer patients engage more.
func EngagementProxy(s belief.BeliefState, cfg rules.Config) float64 {
	u, t, _ := fields(s)
	return Clamp(100 - (cfg.EngagementProxy.Uncontrollability*u + cfg.EngagementProxy.Threat*t))
}

// #endregion engagement

// #region resistance

// Resistance rises with CAS, positive beliefs about worry, and difficulty.
func Resistance(s belief.BeliefState, d rules.Difficulty, cfg rules.Config) float64 {
	_, _, p := fields(s)
	cas := CAS(s, cfg)
	return Clamp(cfg.Resistance.CAS*cas + cfg.Resistance.PositiveBeliefs*p + cfg.DifficultyBump(d))
}

// #endregion resistance

// #region helpers

// Clamp restricts v to [0,100]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fields(s belief.BeliefState) (u, t, p float64) {
	return Clamp(s.Uncontrollability), Clamp(s.Danger), Clamp(s.PositiveMetaBelief)
}

// #endregion helpers
