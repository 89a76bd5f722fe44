// Package reply picks the patient's canned answer for a turn.
package reply

import (
	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region params

// Params carries everything the intervention-phase selector branches on.
// Next holds the post-turn belief levels, MetaWorry the post-turn meta-worry.
type Params struct {
	Intervention   rules.Intervention
	Difficulty     rules.Difficulty
	Next           belief.BeliefState
	MetaWorry      float64
	Backfire       bool
	ContentPenalty bool
}

// #endregion params

// #region select-intervention

// template is a reply in two parts. Lead is one sentence without its closing
// period; Follow is optional and may be cut by a one-sentence budget.
type template struct {
	Lead   string
	Follow string
}

// SelectIntervention returns the reply for an intervention-phase turn.
// Priority: backfire, content penalty, technique branch, default. Never empty.
func SelectIntervention(p Params, cfg rules.Config) string {
	t := base(p, cfg)
	out := t.Lead + Suffix(p.Difficulty) + "."
	if t.Follow != "" {
		out += " " + t.Follow
	}
	return out
}

func base(p Params, cfg rules.Config) template {
	highMeta := p.MetaWorry >= cfg.MetaWorry.HighThreshold

	if p.Backfire {
		if p.Intervention == rules.Eksperiment {
			return template{
				"Når jeg prøver å slippe taket, blir jeg redd for at bekymringen ikke stopper",
				"Da passer jeg enda mer på meg selv, og trykket bare øker.",
			}
		}
		return template{
			"Når jeg skal la tankene være, begynner jeg å sjekke om jeg virkelig er rolig",
			"Da føles bekymringen enda mer ukontrollerbar.",
		}
	}

	if p.ContentPenalty {
		return template{
			"Når jeg går inn i detaljene, begynner jeg å sammenligne og vurdere hele tiden",
			"Det blir mer grubling, og jeg følger bekymringen tettere.",
		}
	}

	switch p.Intervention {
	case rules.Mindfulness:
		if highMeta {
			return template{
				"Når jeg lar tankene være der, synker trangen til å passe på litt",
				"Det er fortsatt ubehagelig, men jeg får et lite mellomrom.",
			}
		}
		return template{
			"Det var uvant, men jeg klarte litt mer å bare se på bekymringstrangen",
			"Jeg gikk ikke like fort inn i den.",
		}

	case rules.Eksperiment:
		if highMeta {
			return template{
				"Ok, jeg kan prøve å utsette bekymringen, selv om det kjennes skummelt",
				"Den tar ikke like mye plass når jeg ikke mater den.",
			}
		}
		return template{
			"Ok, jeg kan prøve å utsette bekymringen til senere",
			"Den tar ikke fullt så mye plass når jeg ikke mater den.",
		}

	case rules.Sokratisk:
		if p.Next.Danger >= cfg.Replies.DangerHigh {
			return template{
				"Jeg prøver å svare, men jo mer jeg tenker på det, jo mer ekte føles faren",
				"Det er vanskelig å slippe.",
			}
		}
		return template{
			"Spørsmålene gjør at jeg går rett i gang med å lete etter svar",
			"Og svaret blir aldri helt godt nok.",
		}

	case rules.Verbal:
		if p.Next.PositiveMetaBelief >= cfg.Replies.PositiveBeliefHigh {
			return template{
				"En del av meg tror fortsatt at bekymring hjelper meg å være forberedt",
				"Da blir det vanskelig å la den være, selv om det koster.",
			}
		}
		return template{
			"Det gir mening, men det føles fortsatt ekte når det står på",
			"Kanskje jeg kan øve på å la det være litt mer.",
		}
	}

	return template{Lead: "Jeg vet ikke helt hva jeg skal si, men det kjennes urolig i kroppen"}
}

// #endregion select-intervention

// #region suffix

// Suffix is the clause that colours a reply by difficulty. It closes the first
// sentence, so a one-sentence budget keeps it.
func Suffix(d rules.Difficulty) string {
	switch d {
	case rules.Level2:
		return ", og jeg blir lett dratt inn i det igjen"
	case rules.Level3:
		return ", og det kicker fort i gang hos meg"
	default:
		return ""
	}
}

// #endregion suffix

// #region select-formulation

// FormulationParams carries the outcome of a formulation turn.
type FormulationParams struct {
	Detected        belief.FormulationKey
	DetectedOK      bool
	Selected        belief.FormulationKey
	Credited        bool
	AlreadyCredited bool
}

var formulationAnswers = map[belief.FormulationKey]string{
	belief.KeyTrigger:       "Det startet da sjefen sendte en melding sent i går kveld om at hun ville snakke med meg.",
	belief.KeyWhatIf:        "Den første tanken var: hva om jeg har gjort noe galt og mister jobben?",
	belief.KeyWorryChain:    "Så tenkte jeg at jeg ikke får betalt regningene, og at alt raser sammen for familien.",
	belief.KeyEmotions:      "Jeg kjente uro i magen og ble helt anspent, nesten kvalm.",
	belief.KeyPositiveMeta:  "Jeg tror bekymringen hjelper meg å være forberedt, så ingenting kommer som et sjokk.",
	belief.KeyNegativeMeta:  "Jeg er redd for at bekymringen tar helt over, og at jeg ikke klarer å stoppe den.",
	belief.KeyCASStrategies: "Jeg sjekker mailen hele tiden, googler og spør kjæresten om alt går bra.",
}

// FormulationAnswer returns the fact the patient reveals for a credited category.
func FormulationAnswer(key belief.FormulationKey) (string, bool) {
	s, ok := formulationAnswers[key]
	return s, ok
}

// SelectFormulation returns the reply for a fact-finding turn. Only a credited
// category gets a concrete answer.
func SelectFormulation(p FormulationParams) string {
	if p.Credited {
		if p.AlreadyCredited {
			return "Det har jeg jo sagt litt om, men det kjennes fortsatt urolig å snakke om."
		}
		if s, ok := formulationAnswers[p.Selected]; ok {
			return s
		}
	}
	if !p.DetectedOK {
		return "Jeg vet ikke helt hva du mener, det kjennes bare urolig."
	}
	return "Jeg er ikke helt sikker på hva du spør om, men det kjennes urolig i kroppen."
}

// #endregion select-formulation
