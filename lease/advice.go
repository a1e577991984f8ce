package lease

import "strings"

// DefaultAdvice is returned for ids without a dedicated entry.
const DefaultAdvice = "Faites valider ce point par votre conseil ou ajustez la clause si nécessaire."

var adviceByID = map[string]string{
	"duration":                    "Vérifiez que la durée est cohérente avec votre projet (sorties anticipées, renouvellement).",
	"index-missing":               "Ajoutez une clause d’indexation claire (souvent ILC/ILAT) ou confirmez l’absence d’indexation.",
	"index-one-way":               "Rendre la clause bilatérale (hausse et baisse) pour éviter la nullité.",
	"charges":                     "Listez précisément les charges récupérables. Excluez les grosses réparations (art. 606) et encadrez la taxe foncière.",
	"taxes":                       "Négociez l’exclusion de la TEOM et plafonnez la taxe foncière avec justificatifs annuels.",
	"charges-regularisation":      "Exiger une régularisation annuelle, un décompte détaillé et les justificatifs.",
	"travaux-conformite":          "Clarifiez la répartition des travaux et des coûts de mise en conformité.",
	"deposit":                     "Vérifiez le montant (souvent 1–3 mois de loyer HT/HC) et les conditions de restitution.",
	"penalties":                   "Encadrez les pénalités (taux, délai de grâce). Vérifiez la proportionnalité.",
	"assignment":                  "Prévoyez des conditions raisonnables de cession/sous-location (accord non abusif, critères objectifs).",
	"cession-solidarite":          "Limitez la solidarité du cédant à 3 ans maximum (art. L145-16-1).",
	"garantie-3-ans":              "Vérifier le périmètre exact des obligations couvertes et la notification au bailleur.",
	"renouvellement-renonciation": "Point sensible : faites valider par un conseil. Vérifier l’indemnité d’éviction.",
	"indem-eviction":              "Vérifier les cas d’exclusion, la méthode de calcul et les délais.",
	"destination":                 "Assurez-vous que l’activité réelle est couverte par la destination pour éviter tout blocage.",
	"exclusivite":                 "Limitez la portée (durée, périmètre, produits) pour sécuriser votre développement.",
	"noncompete":                  "Limitez la portée (durée, périmètre, produits) pour sécuriser votre développement.",
	"resolutory":                  "Prévoyez un mécanisme de mise en demeure et un délai de cure avant résiliation automatique.",
	"notice":                      "Négociez un préavis raisonnable (ex. 3–6 mois) selon vos besoins opérationnels.",
	"franchise":                   "Préciser la durée, l’étalement et l’impact sur l’indexation.",
}

// AdviceFor returns the fallback advice for a finding id. The index advice
// depends on whether the detail names the ICC.
func AdviceFor(id, detail string) string {
	if id == "index" {
		if strings.Contains(detail, "ICC") {
			return "Privilégiez ILC/ILAT. Négociez un plafonnement (cap) et la fréquence de révision."
		}
		return "Confirmez l’indice choisi et les modalités (périodicité, cap)."
	}
	if a, ok := adviceByID[id]; ok {
		return a
	}
	return DefaultAdvice
}

// EffectiveAdvice is the finding's own advice, or the fallback for its id.
func (f Finding) EffectiveAdvice() string {
	if f.Advice != "" {
		return f.Advice
	}
	return AdviceFor(f.ID, f.Detail)
}
