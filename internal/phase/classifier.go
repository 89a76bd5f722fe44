package phase

// #region imports
import (
	"strings"

	"github.com/toradrage/mct-trener/internal/belief"
)

// #endregion

// #region classifier-interface

// Classifier maps therapist free text to the formulation category it most resembles.
// ok is false when nothing matched.
type Classifier interface {
	Classify(text string) (key belief.FormulationKey, ok bool)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(text string) (belief.FormulationKey, bool)

// Classify calls f.
func (f ClassifierFunc) Classify(text string) (belief.FormulationKey, bool) {
	return f(text)
}

// #endregion

// #region keywords

type categoryRule struct {
	key      belief.FormulationKey
	keywords []string
	prefixes []string // question openers, weighted double
}

var defaultCategoryRules = []categoryRule{
	{
		key: belief.KeyTrigger,
		keywords: []string{
			"utløs", "trigger", "satte i gang", "hva skjedde", "når startet", "når begynte",
			"situasjon", "sist gang", "første gang", "hvor var du",
			"what triggered", "when did it start", "situation",
		},
		prefixes: []string{"når ", "hvor var", "hva skjedde"},
	},
	{
		key: belief.KeyWhatIf,
		keywords: []string{
			"hva om", "hva hvis", "første tanke", "første bekymring", "hvilken tanke",
			"tanken som", "dukket opp", "what if", "first thought",
		},
		prefixes: []string{"hva om", "hva hvis", "hvilken tanke"},
	},
	{
		key: belief.KeyWorryChain,
		keywords: []string{
			"og så", "hva skjer så", "hva skjedde så", "deretter", "videre", "neste tanke",
			"ledet til", "hvor endte", "kjede", "and then", "what next",
		},
		prefixes: []string{"og så", "hva skjer så", "hva skjedde så", "hva tenkte du så"},
	},
	{
		key: belief.KeyEmotions,
		keywords: []string{
			"føl", "kjente du", "kjenner du", "emosjon", "kroppen", "hvordan hadde du det",
			"engstelig", "feel", "emotion",
		},
		prefixes: []string{"hvordan føl", "hvordan kjen", "hva føl", "hva kjen"},
	},
	{
		key: belief.KeyPositiveMeta,
		keywords: []string{
			"nyttig", "hjelper det", "hjelpe deg", "fordel", "forberedt", "beskytte",
			"noe godt", "god side", "useful", "helpful", "prepared",
		},
		prefixes: []string{"er det nyttig", "tror du bekymringen hjelper", "hjelper"},
	},
	{
		key: belief.KeyNegativeMeta,
		keywords: []string{
			"kontroll", "stoppe", "farlig", "gå fra vettet", "skade", "ukontrollerbar",
			"control", "dangerous", "stop worrying",
		},
		prefixes: []string{"kan bekymringen", "er bekymringen farlig", "tror du du kan miste"},
	},
	{
		key: belief.KeyCASStrategies,
		keywords: []string{
			"gjør du", "gjorde du", "strategi", "sjekk", "unngå", "berolig", "distrah",
			"google", "håndter", "mestr", "for å få", "cope", "reassurance", "avoid",
		},
		prefixes: []string{"hva gjør du", "hva gjorde du", "hvordan håndterer"},
	},
}

// #endregion

// #region keyword-classifier

// KeywordClassifier scores each category by keyword hits plus question-opener hits.
// The highest score wins; ties go to the earlier checklist item. No model call.
type KeywordClassifier struct {
	rules []categoryRule
}

// NewKeywordClassifier returns the default Norwegian/English keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: defaultCategoryRules}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(text string) (belief.FormulationKey, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}

	var best belief.FormulationKey
	bestScore := 0
	for _, r := range c.rules {
		score := 0
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		for _, p := range r.prefixes {
			if strings.HasPrefix(lower, p) {
				score += 2
			}
		}
		if score > bestScore {
			best, bestScore = r.key, score
		}
	}
	return best, bestScore > 0
}

// #endregion
