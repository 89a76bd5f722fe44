package simulator

import (
	"fmt"
	"strings"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/phase"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region intervention-trace

func interventionTrace(iv rules.Intervention, level rules.Difficulty, profile rules.Profile, processLike, highMetaWorry bool, out Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s (turn %d of intervention phase)\n", out.Phase, out.RelativeTurn+1)
	fmt.Fprintf(&b, "Difficulty %d (%s)\n", level, profile.Label)

	kind := "content-like"
	if processLike {
		kind = "process-like"
	}
	fmt.Fprintf(&b, "Intervention: %s (%s)\n", iv, kind)
	fmt.Fprintf(&b, "ΔCAS: %+.1f (%.1f→%.1f)\n", out.Signals.DeltaCAS, out.CASBefore, out.Signals.CAS)
	fmt.Fprintf(&b, "Meta-worry: %.1f (%s)\n", out.MetaWorry, highLabel(highMetaWorry))
	writeDeltas(&b, out.Deltas)
	fmt.Fprintf(&b, "Cooperation %.2f · Resistance %.1f · Engagement %.1f\n",
		out.Cooperation, out.Signals.Resistance, out.Signals.Engagement)

	switch {
	case out.Flags.EarlyProcessBackfire:
		b.WriteString("Rule: early process backfire (level 3, early phase, high meta-worry)")
	case out.Flags.ContentCBTPenalty:
		b.WriteString("Rule: content CBT penalty (difficulty ≥2 reinforces rumination)")
	case processLike:
		b.WriteString("Rule: process intervention rewarded")
	default:
		b.WriteString("Rule: content intervention not rewarded")
	}
	return b.String()
}

// #endregion intervention-trace

// #region formulation-trace

func formulationTrace(level rules.Difficulty, profile rules.Profile, credit phase.CreditResult, locked bool, out Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: formulation (checklist %d/%d)\n", credit.Done, len(belief.FormulationKeys()))
	fmt.Fprintf(&b, "Difficulty %d (%s)\n", level, profile.Label)

	detected := "none"
	if credit.DetectedOK {
		detected = string(credit.Detected)
	}
	status := "not credited"
	switch {
	case credit.AlreadyCredited:
		status = "already credited"
	case credit.Credited:
		status = "credited"
	}
	fmt.Fprintf(&b, "Category: selected %s, detected %s, %s\n", orNone(string(credit.Selected)), detected, status)
	fmt.Fprintf(&b, "ΔCAS: %+.1f (%.1f→%.1f)\n", out.Signals.DeltaCAS, out.CASBefore, out.Signals.CAS)
	writeDeltas(&b, out.Deltas)

	if locked {
		b.WriteString("Rule: formulation lock corrected a CAS decrease\n")
	}
	b.WriteString("Rule: no therapeutic credit during fact-finding")
	if credit.Complete {
		b.WriteString("\nChecklist complete: start the intervention phase when ready")
	}
	return b.String()
}

// #endregion formulation-trace

func writeDeltas(b *strings.Builder, d rules.Deltas) {
	fmt.Fprintf(b, "ΔU %+.1f · ΔT %+.1f · ΔP %+.1f\n", d.Uncontrollability, d.Threat, d.Positive)
}

func highLabel(high bool) string {
	if high {
		return "high"
	}
	return "normal"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
