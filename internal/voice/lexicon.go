package voice

import "github.com/toradrage/mct-trener/internal/rules"

// #region word-lists

// First-person plural to singular. Keys are lower case.
var weWords = map[string]string{
	"vi":   "jeg",
	"oss":  "meg",
	"vår":  "min",
	"vårt": "mitt",
	"våre": "mine",
}

// Verbs after which "en" reads as a generic pronoun rather than an article.
var pronounVerbs = map[string]bool{
	"blir":    true,
	"kan":     true,
	"må":      true,
	"skal":    true,
	"gjør":    true,
	"kjenner": true,
	"tenker":  true,
	"får":     true,
	"har":     true,
	"er":      true,
}

// Therapist vocabulary a patient would not use about themself.
var jargon = []string{
	"metakognisjon",
	"metakognitiv",
	"metakognitive",
	"metakognitivt",
	"cas",
	"monitorering",
	"prosess",
	"prosessen",
	"prosesser",
	"prosessene",
	"analyse-modus",
	"analysemodus",
	"kognitiv",
	"kognitive",
	"kognitivt",
	"reattribusjon",
	"sokratisk",
	"sokratiske",
	"mindfulness",
	"meta-worry",
	"metabekymring",
	"bekymringsprosess",
	"bekymringsprosessen",
}

// A sentence containing one of these reads as therapist-level insight.
var insightMarkers = []string{
	"jeg innser",
	"jeg forstår at",
	"jeg skjønner at",
	"jeg ser nå at",
	"det handler egentlig om",
	"egentlig handler det om",
	"det handler om at",
	"nå forstår jeg",
	"mekanismen",
}

// #endregion word-lists

// #region anchoring

var uncertaintyOpeners = []string{
	"jeg vet ikke",
	"vet ikke",
	"jeg er ikke helt sikker",
	"jeg er ikke sikker",
	"jeg er usikker",
	"usikker",
	"jeg aner ikke",
	"aner ikke",
}

// Word prefixes that tie an answer to a feeling, the body, or an urge.
var anchorStems = []string{
	"kjenn", "føl", "uro", "redd", "trang", "kropp", "mage", "hjert",
	"spent", "anspent", "vondt", "tung", "slit", "orker", "sjekk", "kvalm",
	"svett", "skjelv", "pust",
}

var anchorTails = map[rules.Phase]string{
	rules.PhaseFormulation: "det kjennes urolig i kroppen",
	rules.PhaseEarly:       "det kjennes urolig i kroppen",
	rules.PhaseMid:         "jeg kjenner trangen til å sjekke",
	rules.PhaseLate:        "jeg merker at uroen slipper litt",
}

var fallbacks = map[rules.Phase]string{
	rules.PhaseFormulation: "Jeg vet ikke helt, men det kjennes urolig i kroppen.",
	rules.PhaseEarly:       "Det kjennes urolig, og jeg vil helst sjekke at alt er greit.",
	rules.PhaseMid:         "Jeg kjenner trangen til å sjekke, men jeg prøver å la den være litt.",
	rules.PhaseLate:        "Uroen er der fortsatt, men jeg merker at den slipper litt.",
}

// #endregion anchoring
