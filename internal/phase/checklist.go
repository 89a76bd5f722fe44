package phase

import "github.com/toradrage/mct-trener/internal/belief"

// #region credit-result

// CreditResult describes what one formulation turn did to the checklist.
type CreditResult struct {
	Detected        belief.FormulationKey
	DetectedOK      bool
	Selected        belief.FormulationKey
	Credited        bool // detected matches the selected category
	AlreadyCredited bool
	Asked           map[belief.FormulationKey]bool
	Done            int
	Complete        bool
}

// #endregion credit-result

// #region credit

// Credit runs the classifier over the therapist text and credits the selected
// category only when the classifier agrees with it. The input map is not modified.
func Credit(c Classifier, text string, selected belief.FormulationKey, asked map[belief.FormulationKey]bool) CreditResult {
	res := CreditResult{
		Selected: selected,
		Asked:    make(map[belief.FormulationKey]bool, len(asked)+1),
	}
	for k, v := range asked {
		res.Asked[k] = v
	}

	res.Detected, res.DetectedOK = c.Classify(text)
	if res.DetectedOK && selected.Valid() && res.Detected == selected {
		res.Credited = true
		res.AlreadyCredited = res.Asked[selected]
		res.Asked[selected] = true
	}

	for _, k := range belief.FormulationKeys() {
		if res.Asked[k] {
			res.Done++
		}
	}
	res.Complete = res.Done == len(belief.FormulationKeys())
	return res
}

// #endregion credit
