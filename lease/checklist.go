package lease

// formulation is a suggested clause wording keyed by topic. Several finding
// ids share one topic so that a wording is only proposed once.
type formulation struct {
	topic string
	text  string
}

var formulationByID = map[string]formulation{
	"charges":            {"charges", "Charges — « Sont exclues les grosses réparations de l’art. 606 C. civ. et les travaux structurels (ravalement, étanchéité, gros œuvre). »"},
	"taxes":              {"fiscalite", "Fiscalité — « La TEOM n’est pas récupérable ; la taxe foncière est plafonnée/forfaitisée avec justificatifs annuels. »"},
	"assignment":         {"cession", "Cession — « Solidarité du cédant limitée à trois (3) ans ; critères d’agrément objectifs ; délai de réponse 15 jours. »"},
	"cession-solidarite": {"cession", "Cession — « Solidarité du cédant limitée à trois (3) ans ; critères d’agrément objectifs ; délai de réponse 15 jours. »"},
	"resolutory":         {"resolutoire", "Résolutoire — « Activation après mise en demeure RAR, délai de remède 30 jours, pour les seuls cas listés ci-après. »"},
	"index":              {"index", "Index — « Index de base ILC T-4 [année] ; révision annuelle à date anniversaire ; cap de +[X]%/an ; pas de rétroactivité. »"},
	"index-missing":      {"index", "Index — « Index de base ILC T-4 [année] ; révision annuelle à date anniversaire ; cap de +[X]%/an ; pas de rétroactivité. »"},
	"index-one-way":      {"index", "Index — « Index de base ILC T-4 [année] ; révision annuelle à la hausse comme à la baisse ; cap de +[X]%/an. »"},
	"travaux-conformite": {"travaux", "Travaux — « Les mises en conformité légales incombent au bailleur ; les travaux privatifs du preneur sont plafonnés à [X] € HT/an. »"},
	"destination":        {"destination", "Destination — « Activités autorisées : … ; ICPE/ERP interdit sauf accord écrit préalable du bailleur. »"},
}

// BuildChecklist derives the negotiation checklist from findings.
// Priorities are the advice of high findings then warn findings, each group
// in finding order, without duplicates. Formulations follow finding order,
// one per topic. Both slices are non-nil.
func BuildChecklist(findings []Finding) *Checklist {
	c := &Checklist{Priorites: []string{}, Formulations: []string{}}

	seen := make(map[string]bool)
	for _, sev := range []Severity{SeverityHigh, SeverityWarn} {
		for _, f := range findings {
			if f.Severity != sev {
				continue
			}
			a := f.EffectiveAdvice()
			if seen[a] {
				continue
			}
			seen[a] = true
			c.Priorites = append(c.Priorites, a)
		}
	}

	topics := make(map[string]bool)
	for _, f := range findings {
		fm, ok := formulationByID[f.ID]
		if !ok || topics[fm.topic] {
			continue
		}
		topics[fm.topic] = true
		c.Formulations = append(c.Formulations, fm.text)
	}
	return c
}
