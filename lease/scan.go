package lease

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultTitle is used when no title-like phrase is found.
const DefaultTitle = "Bail (titre non détecté)"

// Patterns run against the raw text carry (?i); the others run against the
// lower-cased copy so that explicit names match regardless of capitalization.
var (
	reTitle     = regexp.MustCompile(`(?i)(bail commercial|contrat de bail|bail.*locatif)`)
	rePageBreak = regexp.MustCompile(`\f|\n\s*\n`)

	reDuration9   = regexp.MustCompile(`(?i)\b9\)?\s*(?:ans|années)`)
	reDuration12  = regexp.MustCompile(`(?i)\b12\)?\s*(?:ans|années)`)
	reDurationAny = regexp.MustCompile(`(?i)\b(\d{1,2})\)?\s*(?:ans|années)`)

	reILC         = regexp.MustCompile(`\bilc\b|indice des loyers commerciaux`)
	reILAT        = regexp.MustCompile(`\bilat\b|indice des loyers des activités tertiaires`)
	reICC         = regexp.MustCompile(`\bicc\b|co[uû]t de la construction`)
	reIndexCap    = regexp.MustCompile(`(?i)plafon[dn]|\bcap(?:ping)?\b`)
	reIndexPeriod = regexp.MustCompile(`(?i)\b(annuel(?:le)?|trimestriel(?:le)?|semestriel(?:le)?)\b`)
	reIndexOneWay = regexp.MustCompile(`indexation[^.\n]+(?:seulement|uniquement)[^.\n]+(?:hausse|augmentation)|indexation[^.\n]*\bn(?:e\s|['’])[^.\n]{0,60}qu['’](?:à|a)\s+la\s+hausse`)
	reLeaseWords  = regexp.MustCompile(`\bbail\b|\bbaux\b|\bloyers?\b|indexation|\bindices?\b|r[ée]vision`)

	reCapitalRepairs = regexp.MustCompile(`(?i)grosses?\s+r[eé]parations|article\s*606|art\.?\s*606`)
	rePropertyTax    = regexp.MustCompile(`(?i)taxe\s*fonci[eè]re`)
	reWasteTax       = regexp.MustCompile(`\bteom\b|taxe\s+d['’]\s*enl[eè]vement\s+des\s+ordures`)
	reCompliance     = regexp.MustCompile(`mise\s+en\s+conformit[eé]|accessibilit[eé]|amiante|d[ée]samiantage`)
	reReconciliation = regexp.MustCompile(`r[eé]gularisation.{0,20}?(annuelle|trimestrielle|mensuelle)`)

	reDepositAmount = regexp.MustCompile(`(?i)d[eé]p[oô]t\s+de\s+garantie[^0-9]{0,120}?(\d{1,3}(?:[ \x{00A0}\x{202F}.]\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?)(\s*mois)?`)
	reDepositMonths = regexp.MustCompile(`(\d+)\s*mois\s+de\s+loyer`)
	rePenalties     = regexp.MustCompile(`p[eé]nalit[eé]s?|int[eé]r[eê]ts\s+(?:de\s+retard|moratoires)`)
	rePenaltyRate   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%\s*(par\s*(?:an|mois)|l['’]an|annuel|mensuel)`)

	reAssignment   = regexp.MustCompile(`(?:cession|sous-?location).{0,150}(?:interdit|soumis|autorisation|agr[eé]ment)`)
	reSolidarity   = regexp.MustCompile(`(?:garantie|obligation|garant).{0,40}solidaire.{0,40}c[eé]dant|c[eé]dant.{0,60}solidaire`)
	reThreeYearCap = regexp.MustCompile(`l\.?\s*145-16-1|garanti.{0,20}(?:3|trois)\s*(?:\(3\)\s*)?ans`)
	reRenewalWaive = regexp.MustCompile(`renonc(?:iation|e|er)\b[^.]{0,40}renouvellement`)
	reEviction     = regexp.MustCompile(`indemnit[ée]s?\s+d['’]\s*[ée]viction`)

	reDestination = regexp.MustCompile(`(?i)(?:destination|usage)(?:\s+des\s+locaux)?\s*[:\-–]\s*([^\n.;]+)`)
	reExclusivity = regexp.MustCompile(`exclusivit[eé]|non[-\s]?concurrence`)
	reResolutory  = regexp.MustCompile(`clause\s+r[ée]solutoire|r[ée]siliation\s+de\s+plein\s+droit`)

	reNoticeMonths = regexp.MustCompile(`pr[eé]avis[^.\n]{0,30}?\b(\d{1,2})\)?\s*mois`)
	reNoticeWords  = regexp.MustCompile(`pr[eé]avis[^.\n]{0,30}?\b(six|sept|huit|neuf|dix-huit|dix|onze|douze|vingt-quatre)\s*(?:\(\d+\)\s*)?mois`)
	reNoticeYear   = regexp.MustCompile(`pr[eé]avis[^.\n]{0,30}?\b((?:un|une|1|deux|2)\s*(?:\(\d\)\s*)?(?:ans?|années?))\b`)

	reRentFreeMonths = regexp.MustCompile(`franchise[^.\n]{0,60}?\b(\d{1,2})\)?\s*mois`)
	reRentFree       = regexp.MustCompile(`franchise\s+de\s+loyers?|\bloyers?\s+gratuits?\b`)
)

// noticeThresholdMonths is the shortest notice period flagged as long.
const noticeThresholdMonths = 6

// destinationMaxRunes bounds the captured destination text.
const destinationMaxRunes = 200

// Signals holds every boolean or captured value computed from one text.
// Detectors and the scorer only read from it.
type Signals struct {
	Title      string
	PagesGuess int

	Duration9     bool
	Duration12    bool
	DurationYears string

	Index        Index
	IndexCapped  bool
	IndexPeriod  string
	IndexOneWay  bool
	LeaseContext bool

	CapitalRepairs    bool
	PropertyTax       bool
	WasteTax          bool
	ComplianceWorks   bool
	ChargesReconciled string

	DepositAmount string
	DepositMonths string
	Penalties     bool
	PenaltyRate   string

	AssignmentRestricted bool
	AssignorSolidarity   bool
	ThreeYearCap         bool
	RenewalWaiver        bool
	EvictionIndemnity    bool

	Destination string
	Exclusivity bool
	Resolutory  bool

	LongNotice string

	RentFree       bool
	RentFreeMonths string
}

// Scan evaluates every pattern once against text.
func Scan(raw string) Signals {
	text := strings.ToLower(raw)
	var s Signals

	s.Title = DefaultTitle
	if m := reTitle.FindString(raw); m != "" {
		s.Title = truncateRunes(strings.TrimSpace(m), 120)
	}
	s.PagesGuess = max(1, (len(rePageBreak.Split(raw, -1))+1)/2)

	s.Duration9 = reDuration9.MatchString(raw)
	s.Duration12 = reDuration12.MatchString(raw)
	s.DurationYears = submatch(reDurationAny, raw, 1)

	switch {
	case reILC.MatchString(text):
		s.Index = IndexILC
	case reILAT.MatchString(text):
		s.Index = IndexILAT
	case reICC.MatchString(text):
		s.Index = IndexICC
	}
	s.IndexCapped = reIndexCap.MatchString(raw)
	s.IndexPeriod = strings.ToLower(submatch(reIndexPeriod, raw, 1))
	s.IndexOneWay = reIndexOneWay.MatchString(text)
	s.LeaseContext = reLeaseWords.MatchString(text)

	s.CapitalRepairs = reCapitalRepairs.MatchString(raw)
	s.PropertyTax = rePropertyTax.MatchString(raw)
	s.WasteTax = reWasteTax.MatchString(text)
	s.ComplianceWorks = reCompliance.MatchString(text)
	s.ChargesReconciled = submatch(reReconciliation, text, 1)

	if m := reDepositAmount.FindStringSubmatch(raw); m != nil {
		if m[2] != "" {
			s.DepositMonths = m[1]
		} else {
			s.DepositAmount = strings.TrimSpace(m[1])
		}
	}
	if s.DepositMonths == "" {
		s.DepositMonths = submatch(reDepositMonths, text, 1)
	}
	s.Penalties = rePenalties.MatchString(text)
	if m := rePenaltyRate.FindStringSubmatch(text); m != nil {
		s.PenaltyRate = m[1] + " % " + m[2]
	}

	s.AssignmentRestricted = reAssignment.MatchString(text)
	s.AssignorSolidarity = reSolidarity.MatchString(text)
	s.ThreeYearCap = reThreeYearCap.MatchString(text)
	s.RenewalWaiver = reRenewalWaive.MatchString(text)
	s.EvictionIndemnity = reEviction.MatchString(text)

	if d := strings.TrimSpace(submatch(reDestination, raw, 1)); d != "" {
		s.Destination = truncateRunes(d, destinationMaxRunes)
	}
	s.Exclusivity = reExclusivity.MatchString(text)
	s.Resolutory = reResolutory.MatchString(text)

	s.LongNotice = longNotice(text)

	s.RentFreeMonths = submatch(reRentFreeMonths, text, 1)
	s.RentFree = s.RentFreeMonths != "" || reRentFree.MatchString(text)

	return s
}

// longNotice returns the notice phrase when it is at least
// noticeThresholdMonths long, or "".
func longNotice(text string) string {
	for _, m := range reNoticeMonths.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= noticeThresholdMonths {
			return m[1] + " mois"
		}
	}
	if q := firstNoticeQuantity(reNoticeWords, text); q != "" {
		return q + " mois"
	}
	if q := firstNoticeQuantity(reNoticeYear, text); q != "" {
		return strings.Join(strings.Fields(q), " ")
	}
	return ""
}

var reMonthUnit = regexp.MustCompile(`\bmois\b`)

// firstNoticeQuantity returns the captured quantity of the first match of re
// whose lead-in after "préavis" holds no other period in months.
func firstNoticeQuantity(re *regexp.Regexp, text string) string {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if reMonthUnit.MatchString(text[m[0]:m[2]]) {
			continue
		}
		return text[m[2]:m[3]]
	}
	return ""
}

// ScoreSignals is the subset of Signals that feeds the risk score.
type ScoreSignals struct {
	IndexICC          bool
	IndexUncapped     bool
	IndexOneWay       bool
	CapitalRepairs    bool
	TaxRecharge       bool
	Resolutory        bool
	AssignorUnlimited bool
}

// ScoreSignals projects s onto the scoring inputs. A missing cap only
// counts when an index was actually found; solidarity counts as unlimited
// when no three-year cap is referenced.
func (s Signals) ScoreSignals() ScoreSignals {
	return ScoreSignals{
		IndexICC:          s.Index == IndexICC,
		IndexUncapped:     s.Index != IndexNone && !s.IndexCapped,
		IndexOneWay:       s.IndexOneWay,
		CapitalRepairs:    s.CapitalRepairs,
		TaxRecharge:       s.PropertyTax || s.WasteTax,
		Resolutory:        s.Resolutory,
		AssignorUnlimited: s.AssignorSolidarity && !s.ThreeYearCap,
	}
}

func submatch(re *regexp.Regexp, s string, group int) string {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) <= group {
		return ""
	}
	return m[group]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
