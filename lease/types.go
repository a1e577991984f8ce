// Package lease classifies the clauses of a French commercial lease
// ("bail commercial") and scores the resulting risk.
//
// Everything in this package is pure: Analyze takes extracted text and
// returns a Report without I/O, randomness or shared mutable state. The
// text is expected to be noisy (no reliable clause boundaries, collapsed
// whitespace), so every detector is a flat regular-expression test.
//
// Usage:
//
//	rep := lease.Analyze(text)
//	fmt.Println(rep.Summary.RiskLevel, len(rep.Findings))
package lease

import (
	"encoding/json"

	"github.com/hazyhaar/lexbaux/generalinfo"
)

// Severity grades a Finding. The order is info < warn < high.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
	SeverityHigh Severity = "high"
)

// Rank returns the ordinal of s (0 for unknown values).
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarn:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Label is the French label shown next to a finding.
func (s Severity) Label() string {
	switch s {
	case SeverityHigh:
		return "Risque élevé"
	case SeverityWarn:
		return "À surveiller"
	default:
		return "Information"
	}
}

// Finding is one detected clause or issue.
type Finding struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
	Advice   string   `json:"advice,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Where    []string `json:"where,omitempty"` // legacy keyword display
}

// Index is the rent index named by the indexation clause.
// The zero value means no index was found and encodes as JSON null.
type Index string

const (
	IndexNone Index = ""
	IndexILC  Index = "ILC"
	IndexILAT Index = "ILAT"
	IndexICC  Index = "ICC"
)

// MarshalJSON encodes IndexNone as null.
func (i Index) MarshalJSON() ([]byte, error) {
	if i == IndexNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(i))
}

// UnmarshalJSON accepts a string or null.
func (i *Index) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*i = IndexNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = Index(s)
	return nil
}

// Meta describes the analysed document.
type Meta struct {
	Title        string `json:"title"`
	Pages        int    `json:"pages"`
	Indexation   Index  `json:"indexation"`
	Plafonnement bool   `json:"plafonnement"`
	Filename     string `json:"filename,omitempty"`
	Version      string `json:"version,omitempty"`
}

// RiskLevel is the three-bucket quantization of a risk score.
type RiskLevel string

const (
	RiskModere RiskLevel = "modéré"
	RiskMoyen  RiskLevel = "moyen"
	RiskEleve  RiskLevel = "élevé"
)

// Summary is the headline of a report.
type Summary struct {
	RiskScore  float64   `json:"riskScore"`
	RiskLevel  RiskLevel `json:"riskLevel"`
	Highlights []string  `json:"highlights"`
}

// Checklist is the negotiation checklist attached to a report.
type Checklist struct {
	Priorites    []string `json:"priorites"`
	Formulations []string `json:"formulations"`
}

// Impact is an estimated financial consequence. Only the canned demo
// reports carry impacts; Analyze never produces them.
type Impact struct {
	Label      string `json:"label"`
	Estimation string `json:"estimation"`
	Note       string `json:"note,omitempty"`
}

// Report is the full analysis output handed to the rendering layer.
type Report struct {
	Meta        Meta              `json:"meta"`
	Findings    []Finding         `json:"findings"`
	Summary     Summary           `json:"summary"`
	Checklist   *Checklist        `json:"checklist,omitempty"`
	GeneralInfo *generalinfo.Info `json:"generalInfo,omitempty"`
	Impacts     []Impact          `json:"impacts,omitempty"`
}

// Finding returns the finding with the given id.
func (r *Report) Finding(id string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.ID == id {
			return f, true
		}
	}
	return Finding{}, false
}

// CountBySeverity tallies findings per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, f := range r.Findings {
		out[f.Severity]++
	}
	return out
}
