package lease

import "strings"

// detector inspects the signals and optionally emits one finding.
type detector struct {
	id  string
	run func(s *Signals) (Finding, bool)
}

// battery is evaluated in order; the order is the order of the findings.
var battery = []detector{
	{"duration", detectDuration},
	{"index", detectIndex},
	{"index-one-way", detectIndexOneWay},
	{"charges", detectCharges},
	{"taxes", detectTaxes},
	{"charges-regularisation", detectReconciliation},
	{"travaux-conformite", detectCompliance},
	{"deposit", detectDeposit},
	{"penalties", detectPenalties},
	{"assignment", detectAssignment},
	{"cession-solidarite", detectSolidarity},
	{"garantie-3-ans", detectThreeYearCap},
	{"renouvellement-renonciation", detectRenewalWaiver},
	{"indem-eviction", detectEviction},
	{"destination", detectDestination},
	{"exclusivite", detectExclusivity},
	{"resolutory", detectResolutory},
	{"notice", detectNotice},
	{"franchise", detectRentFree},
}

// DetectorIDs lists the battery in evaluation order. The index slot may
// emit "index-missing" instead of "index".
func DetectorIDs() []string {
	ids := make([]string, len(battery))
	for i, d := range battery {
		ids[i] = d.id
	}
	return ids
}

// Classify scans text and runs the detector battery. It never fails: text
// that matches nothing yields only the duration finding.
func Classify(text string) ([]Finding, Meta, Signals) {
	s := Scan(text)
	findings := make([]Finding, 0, len(battery))
	for _, d := range battery {
		if f, ok := d.run(&s); ok {
			findings = append(findings, f)
		}
	}
	meta := Meta{
		Title:        s.Title,
		Pages:        s.PagesGuess,
		Indexation:   s.Index,
		Plafonnement: s.IndexCapped,
	}
	return findings, meta, s
}

func detectDuration(s *Signals) (Finding, bool) {
	f := Finding{
		ID:       "duration",
		Title:    "Durée du bail",
		Severity: SeverityInfo,
		Tags:     []string{"durée", "9 ans", "12 ans"},
	}
	switch {
	case s.Duration9:
		f.Detail = "Durée 9 ans détectée (classique)."
		f.Advice = "Vérifiez que la durée est cohérente avec votre projet (sorties anticipées, renouvellement)."
	case s.Duration12:
		f.Detail = "Durée 12 ans détectée (attention aux sorties)."
		f.Advice = "Bail long : vérifiez les facultés de sortie triennale et leur éventuelle renonciation."
	case s.DurationYears != "":
		f.Detail = "Durée de " + s.DurationYears + " ans détectée."
		f.Advice = "Durée atypique : vérifiez qu’il s’agit bien de la durée du bail (minimum légal 9 ans)."
	default:
		f.Detail = "Durée non trouvée."
		f.Advice = "Repérez la clause de durée dans le bail et confirmez-la (9 ans en principe)."
	}
	return f, true
}

func detectIndex(s *Signals) (Finding, bool) {
	if s.Index == IndexNone {
		if !s.LeaseContext {
			return Finding{}, false
		}
		return Finding{
			ID:       "index-missing",
			Title:    "Indexation non détectée",
			Severity: SeverityWarn,
			Detail:   "Aucune clause d’indexation claire détectée (à vérifier).",
			Advice:   AdviceFor("index-missing", ""),
			Tags:     []string{"indexation absente"},
		}, true
	}

	var b strings.Builder
	b.WriteString("Index repéré : ")
	b.WriteString(string(s.Index))
	if s.IndexPeriod != "" {
		b.WriteString(" (" + s.IndexPeriod + ")")
	}
	if s.IndexCapped {
		b.WriteString(" ; plafonné")
	}
	b.WriteString(".")

	f := Finding{
		ID:       "index",
		Title:    "Indexation du loyer",
		Severity: SeverityInfo,
		Detail:   b.String(),
		Tags:     []string{"index", "révision", "ILC", "ILAT", "ICC"},
	}
	switch {
	case s.IndexOneWay:
		f.Advice = "La clause semble à sens unique (hausse seulement) : à corriger (risque de nullité)."
	case s.Index == IndexICC:
		f.Advice = "Privilégiez ILC/ILAT. Encadrez la mécanique (périodicité, index de base, plafonnement)."
	default:
		f.Advice = "Vérifiez l’index de référence, la périodicité et un éventuel plafonnement."
	}
	if s.Index == IndexICC {
		f.Severity = SeverityWarn
	}
	return f, true
}

func detectIndexOneWay(s *Signals) (Finding, bool) {
	if !s.IndexOneWay {
		return Finding{}, false
	}
	return Finding{
		ID:       "index-one-way",
		Title:    "Indexation à la hausse uniquement",
		Severity: SeverityHigh,
		Detail:   "La clause semble ne prévoir qu’une hausse (clause « cliquet »).",
		Advice:   "Rendre la clause bilatérale (hausse et baisse) pour éviter la nullité.",
		Tags:     []string{"indexation", "clause cliquet"},
	}, true
}

func detectCharges(s *Signals) (Finding, bool) {
	if !s.CapitalRepairs && !s.PropertyTax && !s.WasteTax && !s.ComplianceWorks {
		return Finding{}, false
	}
	f := Finding{
		ID:       "charges",
		Title:    "Charges récupérables",
		Severity: SeverityInfo,
		Advice:   "Précisez la liste des charges, modalités de régularisation et justificatifs.",
		Where:    []string{"charges", "réparations", "606", "taxe foncière", "TEOM"},
		Tags:     []string{"charges", "606", "taxe foncière", "TEOM", "régularisation"},
	}
	switch {
	case s.CapitalRepairs:
		f.Severity = SeverityHigh
		f.Detail = "Mention d’« article 606 » ou « grosses réparations » : semble à la charge du locataire."
		f.Advice = "Listez précisément les charges récupérables, excluez les grosses réparations (art. 606) et encadrez la taxe foncière."
	case s.PropertyTax:
		f.Severity = SeverityWarn
		f.Detail = "La taxe foncière semble récupérée sur le locataire."
	case s.WasteTax:
		f.Severity = SeverityWarn
		f.Detail = "TEOM mentionnée comme refacturée."
	default:
		f.Detail = "Charges mentionnées (détail à vérifier)."
	}
	return f, true
}

func detectTaxes(s *Signals) (Finding, bool) {
	var taxes []string
	if s.PropertyTax {
		taxes = append(taxes, "taxe foncière")
	}
	if s.WasteTax {
		taxes = append(taxes, "TEOM")
	}
	if len(taxes) == 0 {
		return Finding{}, false
	}
	return Finding{
		ID:       "taxes",
		Title:    "Impôts et taxes refacturés",
		Severity: SeverityWarn,
		Detail:   "Refacturation au preneur : " + strings.Join(taxes, " et ") + " (assiette et prorata à vérifier).",
		Advice:   AdviceFor("taxes", ""),
		Tags:     []string{"taxe foncière", "TEOM", "impôts"},
	}, true
}

func detectReconciliation(s *Signals) (Finding, bool) {
	if s.ChargesReconciled == "" {
		return Finding{}, false
	}
	return Finding{
		ID:       "charges-regularisation",
		Title:    "Régularisation des charges",
		Severity: SeverityInfo,
		Detail:   "Régularisation " + s.ChargesReconciled + " des charges mentionnée.",
		Advice:   "Exiger une régularisation annuelle, un décompte détaillé et les justificatifs.",
		Tags:     []string{"régularisation", "décompte"},
	}, true
}

func detectCompliance(s *Signals) (Finding, bool) {
	if !s.ComplianceWorks {
		return Finding{}, false
	}
	return Finding{
		ID:       "travaux-conformite",
		Title:    "Mise en conformité / travaux",
		Severity: SeverityWarn,
		Detail:   "Mentions de mise en conformité (accessibilité, amiante, etc.).",
		Advice:   "Clarifiez la répartition des travaux et des coûts de mise en conformité.",
		Tags:     []string{"travaux", "conformité", "amiante", "accessibilité"},
	}, true
}

func detectDeposit(s *Signals) (Finding, bool) {
	if s.DepositAmount == "" && s.DepositMonths == "" {
		return Finding{}, false
	}
	detail := "Mention de " + s.DepositMonths + " mois de loyer (à confirmer)."
	if s.DepositAmount != "" {
		detail = "Montant repéré : " + s.DepositAmount + " (à confirmer)."
	}
	return Finding{
		ID:       "deposit",
		Title:    "Dépôt de garantie",
		Severity: SeverityInfo,
		Detail:   detail,
		Advice:   AdviceFor("deposit", ""),
		Where:    []string{"dépôt de garantie"},
		Tags:     []string{"dépôt", "garantie", "mois de loyer"},
	}, true
}

func detectPenalties(s *Signals) (Finding, bool) {
	if !s.Penalties {
		return Finding{}, false
	}
	detail := "Clause de pénalités repérée (taux/conditions à vérifier)."
	if s.PenaltyRate != "" {
		detail = "Taux repéré : " + s.PenaltyRate + "."
	}
	return Finding{
		ID:       "penalties",
		Title:    "Pénalités de retard / intérêts",
		Severity: SeverityWarn,
		Detail:   detail,
		Advice:   "Encadrez le taux (raisonnable), les délais de grâce et les modalités de mise en demeure.",
		Where:    []string{"pénalités", "intérêts de retard"},
		Tags:     []string{"pénalités", "intérêts", "taux"},
	}, true
}

func detectAssignment(s *Signals) (Finding, bool) {
	if !s.AssignmentRestricted {
		return Finding{}, false
	}
	return Finding{
		ID:       "assignment",
		Title:    "Cession / sous-location",
		Severity: SeverityWarn,
		Detail:   "Des restrictions à la cession/sous-location semblent présentes.",
		Advice:   "Prévoir une autorisation non abusive, des délais de réponse, et limiter les garanties du cédant.",
		Where:    []string{"cession", "sous-location", "autorisation"},
		Tags:     []string{"cession", "sous-location", "agrément"},
	}, true
}

func detectSolidarity(s *Signals) (Finding, bool) {
	if !s.AssignorSolidarity {
		return Finding{}, false
	}
	detail := "Garantie/solidarité du cédant détectée."
	if !s.ThreeYearCap {
		detail = "Garantie/solidarité du cédant détectée, sans limitation à 3 ans repérée."
	}
	return Finding{
		ID:       "cession-solidarite",
		Title:    "Garantie solidaire du cédant",
		Severity: SeverityWarn,
		Detail:   detail,
		Advice:   "Limiter la solidarité (ex. maximum 3 ans, art. L145-16-1) et la cantonner aux obligations essentielles.",
		Tags:     []string{"solidarité", "cédant", "L145-16-1"},
	}, true
}

func detectThreeYearCap(s *Signals) (Finding, bool) {
	if !s.ThreeYearCap {
		return Finding{}, false
	}
	return Finding{
		ID:       "garantie-3-ans",
		Title:    "Garantie du repreneur (3 ans)",
		Severity: SeverityInfo,
		Detail:   "Référence à la garantie triennale (L145-16-1).",
		Advice:   "Vérifier le périmètre exact des obligations couvertes et la notification au bailleur.",
		Tags:     []string{"garantie 3 ans", "L145-16-1"},
	}, true
}

func detectRenewalWaiver(s *Signals) (Finding, bool) {
	if !s.RenewalWaiver {
		return Finding{}, false
	}
	return Finding{
		ID:       "renouvellement-renonciation",
		Title:    "Renonciation au renouvellement",
		Severity: SeverityHigh,
		Detail:   "Mention d’une renonciation au droit au renouvellement.",
		Advice:   "Point sensible : faites valider par un conseil. Vérifier l’indemnité d’éviction.",
		Tags:     []string{"renouvellement", "indemnité d’éviction"},
	}, true
}

func detectEviction(s *Signals) (Finding, bool) {
	if !s.EvictionIndemnity {
		return Finding{}, false
	}
	return Finding{
		ID:       "indem-eviction",
		Title:    "Indemnité d’éviction",
		Severity: SeverityInfo,
		Detail:   "Indemnité d’éviction mentionnée.",
		Advice:   "Vérifier les cas d’exclusion, la méthode de calcul et les délais.",
		Tags:     []string{"éviction"},
	}, true
}

func detectDestination(s *Signals) (Finding, bool) {
	if s.Destination == "" {
		return Finding{}, false
	}
	return Finding{
		ID:       "destination",
		Title:    "Destination des locaux",
		Severity: SeverityInfo,
		Detail:   "Destination indiquée : " + s.Destination + ".",
		Advice:   "Vérifier l’adéquation avec l’activité projetée et les règles d’urbanisme.",
		Where:    []string{"destination", "usage"},
		Tags:     []string{"destination", "usage", "exclusivité"},
	}, true
}

func detectExclusivity(s *Signals) (Finding, bool) {
	if !s.Exclusivity {
		return Finding{}, false
	}
	return Finding{
		ID:       "exclusivite",
		Title:    "Exclusivité / non-concurrence",
		Severity: SeverityWarn,
		Detail:   "Clause d’exclusivité ou de non-concurrence détectée.",
		Advice:   "Encadrer le périmètre, la durée et le secteur géographique.",
		Tags:     []string{"exclusivité", "non-concurrence"},
	}, true
}

func detectResolutory(s *Signals) (Finding, bool) {
	if !s.Resolutory {
		return Finding{}, false
	}
	return Finding{
		ID:       "resolutory",
		Title:    "Clause résolutoire",
		Severity: SeverityWarn,
		Detail:   "Résiliation de plein droit en cas de manquement.",
		Advice:   "Encadrer la mise en demeure, le délai de remède et les cas visés.",
		Tags:     []string{"résolutoire", "mise en demeure"},
	}, true
}

func detectNotice(s *Signals) (Finding, bool) {
	if s.LongNotice == "" {
		return Finding{}, false
	}
	return Finding{
		ID:       "notice",
		Title:    "Préavis inhabituel",
		Severity: SeverityWarn,
		Detail:   "Préavis long détecté (" + s.LongNotice + ", ≥ 6 mois).",
		Advice:   "Négocier un préavis raisonnable et symétrique.",
		Tags:     []string{"préavis"},
	}, true
}

func detectRentFree(s *Signals) (Finding, bool) {
	if !s.RentFree {
		return Finding{}, false
	}
	detail := "Mention d’une franchise/loyers gratuits."
	if s.RentFreeMonths != "" {
		detail = "Franchise repérée : " + s.RentFreeMonths + " mois."
	}
	return Finding{
		ID:       "franchise",
		Title:    "Franchise de loyer",
		Severity: SeverityInfo,
		Detail:   detail,
		Advice:   "Préciser la durée, l’étalement et l’impact sur l’indexation.",
		Tags:     []string{"franchise"},
	}, true
}
