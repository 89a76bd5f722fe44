package voice

import (
	"strings"
	"testing"

	"github.com/toradrage/mct-trener/internal/rules"
)

var allPhases = []rules.Phase{rules.PhaseFormulation, rules.PhaseEarly, rules.PhaseMid, rules.PhaseLate}

func TestSanitizePronouns(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Vi prøver å la det være.", "Jeg prøver å la det være."},
		{"Det hjelper oss å planlegge.", "Det hjelper meg å planlegge."},
		{"Det er vår måte å takle det på.", "Det er min måte å takle det på."},
		{"Man blir sliten av det.", "Jeg blir sliten av det."},
		{"Når en tenker på det blir det verre.", "Når jeg tenker på det blir det verre."},
		{"Jeg har en idé om det.", "Jeg har en idé om det."},
		{"Jeg fikk en melding.", "Jeg fikk en melding."},
		{"Det er  litt vanskelig .", "Det er litt vanskelig."},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeRespectsNorwegianLetters(t *testing.T) {
	// "våre" must be matched as one word, "vårene" must not.
	if got := Sanitize("Våre planer og vårene."); got != "Mine planer og vårene." {
		t.Errorf("got %q", got)
	}
}

func TestStripJargon(t *testing.T) {
	got := StripJargon("Jeg merker CAS og metakognisjon når det står på.")
	if strings.Contains(strings.ToLower(got), "cas") || strings.Contains(got, "metakognisjon") {
		t.Fatalf("jargon left: %q", got)
	}
	if got != "Jeg merker og når det står på." {
		t.Errorf("got %q", got)
	}
	// Substrings of ordinary words are not jargon.
	if got := StripJargon("Jeg satt i kassa hele dagen."); got != "Jeg satt i kassa hele dagen." {
		t.Errorf("got %q", got)
	}
}

func TestStripInsight(t *testing.T) {
	got := StripInsight("Jeg innser at jeg bekymrer meg for mye. Det kjennes tungt.")
	if got != "Det kjennes tungt." {
		t.Errorf("got %q", got)
	}
	if got := StripInsight("Jeg forstår at det handler om kontroll."); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("En. To. Tre.", 2, 100); got != "En. To." {
		t.Errorf("sentences: got %q", got)
	}
	long := strings.Repeat("ord ", 60)
	got := Truncate(long, 1, 40)
	if runeLen(got) > 40 {
		t.Errorf("len %d > 40: %q", runeLen(got), got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("missing ellipsis: %q", got)
	}
	if strings.HasSuffix(got, " …") {
		t.Errorf("cut not on word: %q", got)
	}
	// Multibyte letters count as one character each.
	nb := strings.Repeat("ø", 10)
	if got := Truncate(nb, 1, 10); got != nb {
		t.Errorf("rune budget: got %q", got)
	}
}

func TestAnchorUncertainty(t *testing.T) {
	got := AnchorUncertainty("Jeg vet ikke.", rules.PhaseEarly, 130)
	if got != "Jeg vet ikke, men det kjennes urolig i kroppen." {
		t.Errorf("got %q", got)
	}
	got = AnchorUncertainty("Vet ikke helt.", rules.PhaseMid, 150)
	if got != "Vet ikke helt, men jeg kjenner trangen til å sjekke." {
		t.Errorf("got %q", got)
	}
	// Already anchored.
	in := "Jeg vet ikke, men jeg kjenner uro."
	if got := AnchorUncertainty(in, rules.PhaseEarly, 130); got != in {
		t.Errorf("got %q", got)
	}
	// Not an opener.
	in = "Jeg vetter kniven."
	if got := AnchorUncertainty(in, rules.PhaseEarly, 130); got != in {
		t.Errorf("got %q", got)
	}
	// Budget is respected.
	long := "Jeg vet ikke " + strings.Repeat("hva jeg skal si ", 8)
	got = AnchorUncertainty(long, rules.PhaseFormulation, 110)
	if runeLen(got) > 110 {
		t.Errorf("len %d: %q", runeLen(got), got)
	}
	if len(splitSentences(got)) != 1 {
		t.Errorf("expected one sentence: %q", got)
	}
}

func TestCalibrateAdversarial(t *testing.T) {
	cfg := rules.MCTRulesV2()
	inputs := []string{
		"",
		"   ",
		"Vi innser at CAS er en prosess. Man kan bruke mindfulness. Mekanismen er klar.",
		"Jeg forstår at metakognisjon handler om dette.",
		"Jeg vet ikke",
		"jeg vet ikke hva jeg skal si om dette, det er mye som skjer og jeg klarer ikke helt å sette ord på det, " +
			"det går rundt og rundt og jeg blir bare mer og mer sliten av å tenke på alt sammen hele tiden.",
		strings.Repeat("Bekymring ", 100),
		"!!!???…",
		"En kan bli gal av dette. Oss to. Vårt hus.",
		"Det handler om at jeg vil ha kontroll, og vi gjør alt vi kan.",
	}
	for _, ph := range allPhases {
		sentences, chars := cfg.Budget(ph)
		for _, in := range inputs {
			got := Calibrate(in, ph, cfg)
			if got == "" {
				t.Fatalf("%s: empty output for %q", ph, in)
			}
			if v := Violations(got); len(v) > 0 {
				t.Errorf("%s: %q has violations %v", ph, got, v)
			}
			if runeLen(got) > chars {
				t.Errorf("%s: %q longer than %d", ph, got, chars)
			}
			if n := len(splitSentences(got)); n > sentences {
				t.Errorf("%s: %q has %d sentences", ph, got, n)
			}
			if again := Calibrate(got, ph, cfg); again != got {
				t.Errorf("%s: not idempotent:\n first %q\nsecond %q", ph, got, again)
			}
		}
	}
}

func TestFallbackCompliant(t *testing.T) {
	cfg := rules.MCTRulesV2()
	for _, ph := range allPhases {
		fb := Fallback(ph)
		if !Compliant(fb) {
			t.Errorf("%s: fallback %q not compliant: %v", ph, fb, Violations(fb))
		}
		if got := Calibrate(fb, ph, cfg); got != fb {
			t.Errorf("%s: fallback changes under calibration: %q", ph, got)
		}
	}
}

func TestViolations(t *testing.T) {
	cases := []struct {
		in   string
		want ViolationType
	}{
		{"", ViolationEmpty},
		{"Vi er slitne.", ViolationWe},
		{"Man blir sliten.", ViolationGenericPronoun},
		{"En blir sliten.", ViolationGenericPronoun},
		{"Det er CAS.", ViolationJargon},
		{"Jeg innser det nå.", ViolationInsight},
	}
	for _, c := range cases {
		v := Violations(c.in)
		if len(v) == 0 || v[0].Type != c.want {
			t.Errorf("Violations(%q) = %v, want first %s", c.in, v, c.want)
		}
	}
	if !Compliant("Jeg kjenner uro i magen.") {
		t.Error("plain reply flagged")
	}
}
