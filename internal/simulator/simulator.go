// Package simulator computes how the simulated GAD patient reacts to one therapist turn.
//
// Simulate is pure: the same Input and Config always give the same Output, and
// nothing is read from or written to storage.
package simulator

import (
	"math"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/metrics"
	"github.com/toradrage/mct-trener/internal/phase"
	"github.com/toradrage/mct-trener/internal/reply"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/voice"
)

// Simulator holds the immutable rule table and the formulation classifier.
type Simulator struct {
	cfg        rules.Config
	classifier phase.Classifier
}

// New returns a Simulator. A nil classifier selects the keyword classifier.
func New(cfg rules.Config, classifier phase.Classifier) *Simulator {
	if classifier == nil {
		classifier = phase.NewKeywordClassifier()
	}
	return &Simulator{cfg: cfg, classifier: classifier}
}

// Config returns the rule table the simulator was built with.
func (s *Simulator) Config() rules.Config {
	return s.cfg
}

// #region simulate

// Simulate runs one turn. Malformed belief fields count as 0 and unknown
// interventions take the content-like branch, so every call yields a reply.
func (s *Simulator) Simulate(in Input) Output {
	st := belief.Normalize(in.State)
	level := normalizeDifficulty(in.Difficulty)

	ph, rel := phase.Resolve(st, in.TurnIndex, s.cfg)
	if ph == rules.PhaseFormulation {
		return s.formulationTurn(in, st, level)
	}
	return s.interventionTurn(in, st, level, ph, rel)
}

// #endregion simulate

// #region intervention-turn

func (s *Simulator) interventionTurn(in Input, st belief.BeliefState, level rules.Difficulty, ph rules.Phase, rel int) Output {
	cfg := s.cfg
	profile := cfg.Profile(level)

	// 1. Pre-turn signals
	resistance := metrics.Resistance(st, level, cfg)
	engagement := BootstrapEngagement(st, level, cfg)
	coop := metrics.Clamp(engagement-cfg.Cooperation.ResistanceWeight*resistance) / 100
	metaWorry := metrics.MetaWorry(st, cfg)
	highMetaWorry := metrics.IsHighMetaWorry(metaWorry, cfg)
	casBefore := metrics.CAS(st, cfg)

	// 2. Raw deltas, summed over drift, intervention and backfire
	var raw rules.Deltas

	drift := profile.Stickiness * cfg.Drift.BaseMultiplier * math.Max(0, (metaWorry-50)/50)
	raw.Uncontrollability += drift * cfg.Drift.UncontrollabilityWeight
	raw.Threat += drift * cfg.Drift.ThreatWeight

	processLike := cfg.IsProcessLike(in.Intervention)
	contentPenalty := false
	if processLike {
		raw = addDeltas(raw, cfg.Interventions.ProcessDeltas[in.Intervention], 1)
	} else if level >= rules.Level2 {
		harsh := cfg.Interventions.ContentHarsh
		harsh.Threat = math.Max(harsh.Threat, profile.ContentPenalty)
		harsh.Uncontrollability = math.Max(harsh.Uncontrollability, profile.ContentPenalty)
		raw = addDeltas(raw, harsh, 1)
		contentPenalty = true
	} else {
		raw = addDeltas(raw, cfg.Interventions.ContentMild, 1)
	}

	backfire := backfireFires(level, ph, highMetaWorry, processLike, cfg)
	if backfire {
		raw = addDeltas(raw, cfg.Backfire.Deltas, profile.BackfireSensitivity)
	}

	// 3. Scale by gain and cooperation, clamp per field
	scale := profile.Gain * (cfg.Cooperation.MinScale + cfg.Cooperation.MaxScale*coop)
	next := st
	next.Uncontrollability = metrics.Clamp(st.Uncontrollability + raw.Uncontrollability*scale)
	next.Danger = metrics.Clamp(st.Danger + raw.Threat*scale)
	next.PositiveMetaBelief = metrics.Clamp(st.PositiveMetaBelief + raw.Positive*scale)

	casAfter := metrics.CAS(next, cfg)
	deltaCAS := casAfter - casBefore

	// 4. Learned engagement
	ema, learned := UpdateEngagement(st.CASDeltaEMA, engagement, deltaCAS, cfg)

	// 5. Reply
	text := reply.SelectIntervention(reply.Params{
		Intervention:   in.Intervention,
		Difficulty:     level,
		Next:           next,
		MetaWorry:      metrics.MetaWorry(next, cfg),
		Backfire:       backfire,
		ContentPenalty: contentPenalty,
	}, cfg)

	out := Output{
		Patch: belief.Patch{
			Uncontrollability:  belief.Float(next.Uncontrollability),
			Danger:             belief.Float(next.Danger),
			PositiveMetaBelief: belief.Float(next.PositiveMetaBelief),
			LearnedEngagement:  belief.Float(learned),
			CASDeltaEMA:        belief.Float(ema),
		},
		Reply: voice.Calibrate(text, ph, cfg),
		Signals: Signals{
			Resistance: resistance,
			Engagement: engagement,
			CAS:        casAfter,
			DeltaCAS:   metrics.Round1(deltaCAS),
		},
		Flags: Flags{
			EarlyProcessBackfire: backfire,
			ContentCBTPenalty:    contentPenalty,
			ProcessRewarded:      processLike && !backfire,
		},
		Phase:        ph,
		RelativeTurn: rel,
		MetaWorry:    metaWorry,
		Cooperation:  coop,
		CASBefore:    casBefore,
		Deltas: rules.Deltas{
			Threat:            next.Danger - st.Danger,
			Uncontrollability: next.Uncontrollability - st.Uncontrollability,
			Positive:          next.PositiveMetaBelief - st.PositiveMetaBelief,
		},
	}
	out.Trace = interventionTrace(in.Intervention, level, profile, processLike, highMetaWorry, out)
	return out
}

// backfireFires is the early process backfire gate. Each condition can be
// switched off in the rule table except the level and process-like checks.
func backfireFires(level rules.Difficulty, ph rules.Phase, highMetaWorry, processLike bool, cfg rules.Config) bool {
	if level != cfg.Backfire.Level || !processLike {
		return false
	}
	if cfg.Backfire.EarlyPhaseOnly && ph != rules.PhaseEarly {
		return false
	}
	if cfg.Backfire.RequireHighMetaWorry && !highMetaWorry {
		return false
	}
	return true
}

// #endregion intervention-turn

// #region formulation-turn

func (s *Simulator) formulationTurn(in Input, st belief.BeliefState, level rules.Difficulty) Output {
	cfg := s.cfg
	profile := cfg.Profile(level)

	resistance := metrics.Resistance(st, level, cfg)
	engagement := BootstrapEngagement(st, level, cfg)
	casBefore := metrics.CAS(st, cfg)

	credit := phase.Credit(s.classifier, in.Message, in.SelectedCategory, st.FormulationAsked)

	// Fact-finding only drifts upward; intervention type is ignored.
	drift := cfg.Formulation.DriftPerTurn * profile.Stickiness
	next := st
	next.Uncontrollability = metrics.Clamp(st.Uncontrollability + drift)
	next.Danger = metrics.Clamp(st.Danger + drift)

	// No CAS reduction while the checklist is open.
	locked := false
	if casAfter := metrics.CAS(next, cfg); casAfter < casBefore {
		// CAS is linear in both fields, so the shortfall is spread over the weight sum.
		lift := casBefore - casAfter
		if w := cfg.CAS.Uncontrollability + cfg.CAS.Threat; w > 0 {
			lift /= w
		}
		next.Uncontrollability = metrics.Clamp(next.Uncontrollability + lift)
		next.Danger = metrics.Clamp(next.Danger + lift)
		locked = true
	}
	casAfter := metrics.CAS(next, cfg)

	text := voice.Calibrate(reply.SelectFormulation(reply.FormulationParams{
		Detected:        credit.Detected,
		DetectedOK:      credit.DetectedOK,
		Selected:        credit.Selected,
		Credited:        credit.Credited,
		AlreadyCredited: credit.AlreadyCredited,
	}), rules.PhaseFormulation, cfg)

	patch := belief.Patch{
		Uncontrollability:   belief.Float(next.Uncontrollability),
		Danger:              belief.Float(next.Danger),
		FormulationAsked:    credit.Asked,
		FormulationComplete: belief.Bool(credit.Complete),
	}
	if credit.Credited && !credit.AlreadyCredited {
		model := make(map[belief.FormulationKey]string, len(st.FormulationModel)+1)
		for k, v := range st.FormulationModel {
			model[k] = v
		}
		model[credit.Selected] = text
		patch.FormulationModel = model
	}
	if credit.Complete && st.TherapyTurnBase == nil {
		patch.TherapyTurnBase = belief.Int(in.TurnIndex + 1)
	}

	out := Output{
		Patch: patch,
		Reply: text,
		Signals: Signals{
			Resistance: resistance,
			Engagement: engagement,
			CAS:        casAfter,
			DeltaCAS:   metrics.Round1(casAfter - casBefore),
		},
		Flags: Flags{
			Credited:            credit.Credited,
			AlreadyCredited:     credit.AlreadyCredited,
			FormulationComplete: credit.Complete,
		},
		Phase:     rules.PhaseFormulation,
		MetaWorry: metrics.MetaWorry(st, cfg),
		CASBefore: casBefore,
		Deltas: rules.Deltas{
			Threat:            next.Danger - st.Danger,
			Uncontrollability: next.Uncontrollability - st.Uncontrollability,
		},
	}
	out.Trace = formulationTrace(level, profile, credit, locked, out)
	return out
}

// #endregion formulation-turn

// #region helpers

func addDeltas(acc, d rules.Deltas, k float64) rules.Deltas {
	acc.Threat += d.Threat * k
	acc.Uncontrollability += d.Uncontrollability * k
	acc.Positive += d.Positive * k
	return acc
}

func normalizeDifficulty(d rules.Difficulty) rules.Difficulty {
	switch {
	case d < rules.Level1:
		return rules.Level1
	case d > rules.Level3:
		return rules.Level3
	default:
		return d
	}
}

// #endregion helpers
