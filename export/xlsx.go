package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hazyhaar/lexbaux/lease"
)

const (
	sheetSummary  = "Synthèse"
	sheetFindings = "Points"
	sheetChecks   = "Négociation"
	sheetParties  = "Parties"
	sheetImpacts  = "Impacts"
)

// XLSX returns the report as a workbook: a summary sheet, one row per
// finding, the negotiation checklist and, when present, the parties and
// financial impacts.
func (s *Service) XLSX(r *lease.Report) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx rename: %w", err)
	}

	if err := writeSummary(f, r); err != nil {
		return nil, err
	}
	if err := writeFindings(f, r.Findings); err != nil {
		return nil, err
	}
	if err := writeChecklist(f, r); err != nil {
		return nil, err
	}
	if r.GeneralInfo != nil && !r.GeneralInfo.Empty() {
		rows := [][]any{{"Champ", "Valeur"}}
		for _, fd := range r.GeneralInfo.Fields() {
			rows = append(rows, []any{fd.Label, fd.Value})
		}
		if err := writeSheet(f, sheetParties, rows); err != nil {
			return nil, err
		}
		_ = f.SetColWidth(sheetParties, "A", "A", 36)
		_ = f.SetColWidth(sheetParties, "B", "B", 70)
	}
	if len(r.Impacts) > 0 {
		rows := [][]any{{"Impact", "Estimation", "Note"}}
		for _, im := range r.Impacts {
			rows = append(rows, []any{im.Label, im.Estimation, im.Note})
		}
		if err := writeSheet(f, sheetImpacts, rows); err != nil {
			return nil, err
		}
		_ = f.SetColWidth(sheetImpacts, "A", "A", 36)
		_ = f.SetColWidth(sheetImpacts, "B", "B", 22)
		_ = f.SetColWidth(sheetImpacts, "C", "C", 60)
	}

	idx, _ := f.GetSheetIndex(sheetSummary)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"findings", len(r.Findings),
		"risk_level", string(r.Summary.RiskLevel),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, r *lease.Report) error {
	index := "non détecté"
	if r.Meta.Indexation != lease.IndexNone {
		index = string(r.Meta.Indexation)
	}
	capped := "non"
	if r.Meta.Plafonnement {
		capped = "oui"
	}
	rows := [][]any{
		{"Document", r.Meta.Title},
		{"Fichier", r.Meta.Filename},
		{"Pages", r.Meta.Pages},
		{"Indexation", index},
		{"Plafonnement", capped},
		{"Score de risque", r.Summary.RiskScore},
		{"Niveau de risque", string(r.Summary.RiskLevel)},
		{"Points relevés", len(r.Findings)},
	}
	for i, h := range r.Summary.Highlights {
		label := ""
		if i == 0 {
			label = "Points saillants"
		}
		rows = append(rows, []any{label, h})
	}
	if err := writeSheet(f, sheetSummary, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 22)
	_ = f.SetColWidth(sheetSummary, "B", "B", 70)
	return nil
}

func writeFindings(f *excelize.File, findings []lease.Finding) error {
	rows := [][]any{{"#", "Identifiant", "Gravité", "Point", "Détail", "Conseil"}}
	for i, fd := range findings {
		rows = append(rows, []any{
			i + 1,
			fd.ID,
			fd.Severity.Label(),
			fd.Title,
			truncate(fd.Detail, 500),
			fd.EffectiveAdvice(),
		})
	}
	if err := writeSheet(f, sheetFindings, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetFindings, "A", "A", 5)
	_ = f.SetColWidth(sheetFindings, "B", "B", 26)
	_ = f.SetColWidth(sheetFindings, "C", "C", 14)
	_ = f.SetColWidth(sheetFindings, "D", "D", 36)
	_ = f.SetColWidth(sheetFindings, "E", "F", 60)
	return nil
}

func writeChecklist(f *excelize.File, r *lease.Report) error {
	cl := r.Checklist
	if cl == nil {
		cl = lease.BuildChecklist(r.Findings)
	}
	rows := [][]any{{"Type", "Texte"}}
	for _, p := range cl.Priorites {
		rows = append(rows, []any{"Priorité", p})
	}
	for _, p := range cl.Formulations {
		rows = append(rows, []any{"Formulation", p})
	}
	if err := writeSheet(f, sheetChecks, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(sheetChecks, "A", "A", 14)
	_ = f.SetColWidth(sheetChecks, "B", "B", 100)
	return nil
}

// writeSheet creates sheet if needed and writes rows from A1.
func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx sheet %s: %w", sheet, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
