// Package generalinfo pulls the parties, premises and rent out of a lease.
//
// Two strategies share the Extractor interface. LabelExtractor reads the
// raw text and captures what follows labels such as "Bailleur :" or
// "Loyer :". StructuredExtractor reads an already-structured analysis
// object (generalInfo.bailleur.nom, parties.preneur.forme, ...). Neither
// ever fails: absent values are empty strings.
package generalinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Info is the general information block of a lease.
type Info struct {
	BailleurNom                string `json:"bailleurNom,omitempty"`
	BailleurForme              string `json:"bailleurForme,omitempty"`
	BailleurRCS                string `json:"bailleurRCS,omitempty"`
	PreneurNom                 string `json:"preneurNom,omitempty"`
	PreneurForme               string `json:"preneurForme,omitempty"`
	PreneurRCS                 string `json:"preneurRCS,omitempty"`
	QualitePouvoirsSignataires string `json:"qualitePouvoirsSignataires,omitempty"`
	DesignationBien            string `json:"designationBien,omitempty"`
	DestinationLocaux          string `json:"destinationLocaux,omitempty"`
	LoyerCommercial            string `json:"loyerCommercial,omitempty"`
}

// Field is one labelled Info value, in display order.
type Field struct {
	Key   string
	Label string
	Value string
}

// Fields returns every field with its French display label.
func (i Info) Fields() []Field {
	return []Field{
		{"bailleurNom", "Bailleur (nom)", i.BailleurNom},
		{"bailleurForme", "Bailleur (forme sociale)", i.BailleurForme},
		{"bailleurRCS", "Bailleur (RCS / SIREN)", i.BailleurRCS},
		{"preneurNom", "Preneur (nom)", i.PreneurNom},
		{"preneurForme", "Preneur (forme sociale)", i.PreneurForme},
		{"preneurRCS", "Preneur (RCS / SIREN)", i.PreneurRCS},
		{"qualitePouvoirsSignataires", "Qualité et pouvoirs des signataires", i.QualitePouvoirsSignataires},
		{"designationBien", "Désignation du bien loué", i.DesignationBien},
		{"destinationLocaux", "Destination des locaux", i.DestinationLocaux},
		{"loyerCommercial", "Loyer commercial", i.LoyerCommercial},
	}
}

// Missing lists the JSON keys of the absent fields.
func (i Info) Missing() []string {
	var out []string
	for _, f := range i.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			out = append(out, f.Key)
		}
	}
	return out
}

// Empty reports whether no field was found.
func (i Info) Empty() bool {
	return len(i.Missing()) == len(i.Fields())
}

// UnmarshalJSON accepts the flat form produced by this package and the
// nested {bailleur, preneur, bien} form found in hand-written reports.
func (i *Info) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if isNested(m) {
		*i = fromNested(m)
		return nil
	}
	type flat Info
	var f flat
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*i = Info(f)
	return nil
}

// Source is what an Extractor reads from.
type Source struct {
	Text     string
	Analysis map[string]any
}

// Extractor turns a Source into an Info.
type Extractor interface {
	Extract(src Source) Info
}

// Strategy names accepted by ForStrategy.
const (
	StrategyLabel      = "label"
	StrategyStructured = "structured"
)

// ErrUnknownStrategy is returned by ForStrategy.
var ErrUnknownStrategy = errors.New("unknown general-info strategy")

// ForStrategy returns the extractor for name. The empty name selects the
// label strategy.
func ForStrategy(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyLabel:
		return LabelExtractor{}, nil
	case StrategyStructured:
		return StructuredExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
