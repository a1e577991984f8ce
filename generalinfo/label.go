package generalinfo

import (
	"regexp"
	"strings"
)

// labels in the order they usually appear in a lease. Each capture stops at
// the next "label :" of this list.
var labels = []string{
	"Bailleur",
	"Preneur",
	"Bien loué",
	"Destination des locaux",
	"Loyer",
	"Dépôt de garantie",
	"Durée du bail",
	"Indexation",
	"Clause résolutoire",
}

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reRCS        = regexp.MustCompile(`(?i)\b(?:RCS|SIREN|SIRET)\b[^0-9]*([0-9][0-9 ]{8,})`)
	reRCSStrip   = regexp.MustCompile(`(?i)\b(?:RCS|SIREN|SIRET)\b[^0-9]*[0-9][0-9 ]{8,}`)
	reLegalForm  = regexp.MustCompile(`\b(SASU|SAS|SARL|EURL|SCI|SA|SNC|SCA)\b`)
	reSignatory  = regexp.MustCompile(`(?i)représenté(?:e)? par[^.]+`)
	segmentRegex = buildSegmentRegexps()
)

func buildSegmentRegexps() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(labels))
	for _, l := range labels {
		var next []string
		for _, o := range labels {
			if o != l {
				next = append(next, regexp.QuoteMeta(o))
			}
		}
		out[l] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(l) + `\s*:?\s*(.*?)(?:(?:` + strings.Join(next, "|") + `)\s*:|$)`)
	}
	return out
}

// analysisTextKeys are consulted in order when Source.Text is empty.
var analysisTextKeys = []string{"rawText", "fullText", "text"}

// LabelExtractor captures the text following each known label.
type LabelExtractor struct{}

// Extract implements Extractor.
func (LabelExtractor) Extract(src Source) Info {
	raw := src.Text
	if raw == "" {
		for _, k := range analysisTextKeys {
			if s, ok := src.Analysis[k].(string); ok && s != "" {
				raw = s
				break
			}
		}
	}
	t := normalize(raw)
	if t == "" {
		return Info{}
	}

	bailleur := segment(t, "Bailleur")
	preneur := segment(t, "Preneur")

	info := Info{
		BailleurNom:       stripRegistration(bailleur),
		BailleurForme:     legalForm(bailleur),
		BailleurRCS:       registration(bailleur),
		PreneurNom:        stripRegistration(preneur),
		PreneurForme:      legalForm(preneur),
		PreneurRCS:        registration(preneur),
		DesignationBien:   segment(t, "Bien loué"),
		DestinationLocaux: segment(t, "Destination des locaux"),
		LoyerCommercial:   segment(t, "Loyer"),
	}
	signed := bailleur
	if signed == "" {
		signed = preneur
	}
	info.QualitePouvoirsSignataires = strings.TrimSpace(reSignatory.FindString(signed))
	return info
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func segment(t, label string) string {
	m := segmentRegex[label].FindStringSubmatch(t)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// registration and legalForm only look inside the party segment.
func registration(seg string) string {
	if seg == "" {
		return ""
	}
	m := reRCS.FindStringSubmatch(seg)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(reSpaces.ReplaceAllString(m[1], " "))
}

func legalForm(seg string) string {
	if seg == "" {
		return ""
	}
	return reLegalForm.FindString(seg)
}

func stripRegistration(seg string) string {
	if seg == "" {
		return ""
	}
	return strings.TrimSpace(reSpaces.ReplaceAllString(reRCSStrip.ReplaceAllString(seg, ""), " "))
}
