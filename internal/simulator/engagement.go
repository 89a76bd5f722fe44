package simulator

import (
	"math"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/metrics"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region bootstrap

// BootstrapEngagement returns the engagement a turn starts from: the learned
// value when present, otherwise a blend of the instantaneous proxy and the
// difficulty baseline.
func BootstrapEngagement(s belief.BeliefState, d rules.Difficulty, cfg rules.Config) float64 {
	lo, hi := cfg.Engagement.Min, cfg.Engagement.Max
	if s.LearnedEngagement != nil && !math.IsNaN(*s.LearnedEngagement) {
		return clampRange(*s.LearnedEngagement, lo, hi)
	}
	proxy := metrics.EngagementProxy(s, cfg)
	blend := cfg.Engagement.ProxyBlend
	return clampRange(blend*proxy+(1-blend)*cfg.EngagementBaseline(d), lo, hi)
}

// #endregion bootstrap

// #region ema

// UpdateEngagement folds the observed CAS change into the EMA and moves
// engagement up on sustained improvement and down on sustained worsening.
// A nil prevEMA starts at 0.
func UpdateEngagement(prevEMA *float64, engagement, deltaCAS float64, cfg rules.Config) (ema, next float64) {
	prev := 0.0
	if prevEMA != nil && !math.IsNaN(*prevEMA) && !math.IsInf(*prevEMA, 0) {
		prev = *prevEMA
	}
	a := cfg.Engagement.Alpha
	ema = a*deltaCAS + (1-a)*prev

	next = engagement +
		cfg.Engagement.RewardRate*math.Max(0, -ema) -
		cfg.Engagement.PenaltyRate*math.Max(0, ema)
	return ema, clampRange(next, cfg.Engagement.Min, cfg.Engagement.Max)
}

// #endregion ema

func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
