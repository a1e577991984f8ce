package lease

import "math"

// Score weights. The sum of all weights exceeds 1; Score clamps.
const (
	WeightIndexICC          = 0.25
	WeightIndexUncapped     = 0.15
	WeightIndexOneWay       = 0.25
	WeightCapitalRepairs    = 0.25
	WeightTaxRecharge       = 0.15
	WeightResolutory        = 0.15
	WeightAssignorUnlimited = 0.15
)

// Level thresholds.
const (
	thresholdMoyen = 0.33
	thresholdEleve = 0.66
)

// Score sums the weights of the true signals, clamps to [0,1] and rounds
// to two decimals.
func Score(s ScoreSignals) float64 {
	var sum float64
	add := func(ok bool, w float64) {
		if ok {
			sum += w
		}
	}
	add(s.IndexICC, WeightIndexICC)
	add(s.IndexUncapped, WeightIndexUncapped)
	add(s.IndexOneWay, WeightIndexOneWay)
	add(s.CapitalRepairs, WeightCapitalRepairs)
	add(s.TaxRecharge, WeightTaxRecharge)
	add(s.Resolutory, WeightResolutory)
	add(s.AssignorUnlimited, WeightAssignorUnlimited)

	sum = math.Min(1, math.Max(0, sum))
	return math.Round(sum*100) / 100
}

// LevelFor quantizes a score: [0,0.33) modéré, [0.33,0.66) moyen, else élevé.
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= thresholdEleve:
		return RiskEleve
	case score >= thresholdMoyen:
		return RiskMoyen
	default:
		return RiskModere
	}
}

// Highlights returns the short labels of the notable signals, in a fixed
// order. The index line only appears when the text reads like a lease.
func Highlights(s *Signals) []string {
	out := make([]string, 0, 7)
	switch {
	case s.Index != IndexNone:
		h := "Indexation: " + string(s.Index)
		if s.IndexCapped {
			h += " (cap)"
		}
		out = append(out, h)
	case s.LeaseContext:
		out = append(out, "Indexation non détectée")
	}
	if s.IndexOneWay {
		out = append(out, "Indexation à sens unique")
	}
	if s.CapitalRepairs {
		out = append(out, "606 potentiellement à la charge du locataire")
	}
	if s.PropertyTax {
		out = append(out, "Taxe foncière récupérée")
	}
	if s.WasteTax && !s.PropertyTax {
		out = append(out, "TEOM récupérée")
	}
	if s.Resolutory {
		out = append(out, "Clause résolutoire")
	}
	if s.AssignorSolidarity {
		h := "Solidarité du cédant"
		if !s.ThreeYearCap {
			h += " (non limitée)"
		}
		out = append(out, h)
	}
	return out
}
