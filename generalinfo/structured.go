package generalinfo

import (
	"fmt"
	"strings"
)

// StructuredExtractor reads party and premises fields from an analysis
// object that already carries them. It assumes an upstream step that
// produced generalInfo.{bailleur,preneur,bien} or parties.{bailleur,preneur};
// plain text is ignored.
type StructuredExtractor struct{}

// Extract implements Extractor.
func (StructuredExtractor) Extract(src Source) Info {
	for _, root := range structuredRoots(src.Analysis) {
		if isNested(root) {
			return fromNested(root)
		}
	}
	if gi, ok := src.Analysis["generalInfo"].(map[string]any); ok {
		return fromFlat(gi)
	}
	return Info{}
}

// structuredRoots lists the candidate objects holding bailleur/preneur/bien,
// most specific first.
func structuredRoots(a map[string]any) []map[string]any {
	var out []map[string]any
	if m, ok := a["generalInfo"].(map[string]any); ok {
		out = append(out, m)
	}
	if m, ok := a["parties"].(map[string]any); ok {
		out = append(out, m)
	}
	if an, ok := a["analysis"].(map[string]any); ok {
		if m, ok := an["parties"].(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func isNested(m map[string]any) bool {
	for _, k := range []string{"bailleur", "preneur", "bien"} {
		if _, ok := m[k].(map[string]any); ok {
			return true
		}
	}
	return false
}

func fromNested(m map[string]any) Info {
	b := obj(m, "bailleur")
	p := obj(m, "preneur")
	bien := obj(m, "bien")

	info := Info{
		BailleurNom:       str(b, "nom"),
		BailleurForme:     str(b, "forme"),
		BailleurRCS:       str(b, "siren", "rcs", "siret"),
		PreneurNom:        str(p, "nom"),
		PreneurForme:      str(p, "forme"),
		PreneurRCS:        str(p, "siren", "rcs", "siret"),
		DesignationBien:   str(bien, "adresse", "designation"),
		DestinationLocaux: str(bien, "destination"),
		LoyerCommercial:   str(bien, "loyer"),
	}
	info.QualitePouvoirsSignataires = str(b, "representant")
	if info.QualitePouvoirsSignataires == "" {
		info.QualitePouvoirsSignataires = str(p, "representant")
	}
	if info.DestinationLocaux == "" {
		info.DestinationLocaux = str(m, "destination")
	}
	return info
}

func fromFlat(m map[string]any) Info {
	return Info{
		BailleurNom:                str(m, "bailleurNom"),
		BailleurForme:              str(m, "bailleurForme"),
		BailleurRCS:                str(m, "bailleurRCS"),
		PreneurNom:                 str(m, "preneurNom"),
		PreneurForme:               str(m, "preneurForme"),
		PreneurRCS:                 str(m, "preneurRCS"),
		QualitePouvoirsSignataires: str(m, "qualitePouvoirsSignataires"),
		DesignationBien:            str(m, "designationBien"),
		DestinationLocaux:          str(m, "destinationLocaux"),
		LoyerCommercial:            str(m, "loyerCommercial"),
	}
}

func obj(m map[string]any, key string) map[string]any {
	o, _ := m[key].(map[string]any)
	return o
}

// str returns the first non-empty value among keys. Numbers are formatted
// since SIREN values are sometimes stored unquoted.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
