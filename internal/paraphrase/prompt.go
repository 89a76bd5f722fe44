package paraphrase

import (
	"encoding/json"
	"strings"
)

const maxRawRunes = 280

const systemPrompt = "Du skriver kun pasientens replikk. Ingen meta-kommentarer. Ingen punktlister."

const instructions = "Du er en pasient i en MCT-treningssimulator (GAD). Oppgaven er å parafrasere en eksisterende pasientreplikk til kort, menneskelig norsk.\n" +
	"Viktige regler:\n" +
	"- Ikke endre mening eller retning (kun språk).\n" +
	"- Ikke introduser nye fakta, nye symptomer eller nye hendelser.\n" +
	"- Ikke gi råd eller forklaringer; kun pasientens replikk.\n" +
	"- 1 kort setning. Naturlig og litt uperfekt. Gjerne nøling/uklarhet.\n" +
	"- Beskriv opplevelse, ikke mekanisme. Ikke forklar hvorfor.\n" +
	"- Bruk hverdagsspråk. Unngå terapeutiske begreper.\n" +
	"- Bruk konsekvent 1. person entall (jeg).\n" +
	"- IKKE bruk ordene: vi, man, en.\n" +
	"- IKKE bruk ordene: prosess, analyse-modus, metakognisjon, CAS, monitorering.\n" +
	"- Ikke referer til at du er en AI, en modell eller at du parafraserer.\n\n"

type promptContext struct {
	Phase          string       `json:"phase"`
	Intervention   string       `json:"interventionType"`
	Difficulty     int          `json:"difficultyLevel"`
	PatientState   patientState `json:"patientState"`
	SystemFeedback string       `json:"systemFeedback"`
}

type patientState struct {
	Uncontrollability float64  `json:"beliefUncontrollability"`
	Danger            float64  `json:"beliefDanger"`
	Positive          float64  `json:"beliefPositive"`
	Engagement        *float64 `json:"simEngagement,omitempty"`
	CASDeltaEMA       *float64 `json:"simCasDeltaEma,omitempty"`
}

// buildPrompt renders the user message sent to a chat model.
func buildPrompt(req Request) string {
	ctx := promptContext{
		Phase:        string(req.Phase),
		Intervention: string(req.Intervention),
		Difficulty:   int(req.Difficulty),
		PatientState: patientState{
			Uncontrollability: req.State.Uncontrollability,
			Danger:            req.State.Danger,
			Positive:          req.State.PositiveMetaBelief,
			Engagement:        req.State.LearnedEngagement,
			CASDeltaEMA:       req.State.CASDeltaEMA,
		},
		SystemFeedback: req.Trace,
	}
	js, _ := json.MarshalIndent(ctx, "", "  ")

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("Kontekst (for tone, ikke for nye fakta):\n")
	b.Write(js)
	b.WriteString("\n\nOriginal pasientreplikk (skal parafraseres):\n")
	b.WriteString(strings.TrimSpace(req.RuleReply))
	return b.String()
}

// flatten joins lines and cuts the text to maxRawRunes.
func flatten(s string) string {
	s = strings.Join(strings.Split(s, "\n"), " ")
	if r := []rune(s); len(r) > maxRawRunes {
		s = string(r[:maxRawRunes])
	}
	return strings.TrimSpace(s)
}
