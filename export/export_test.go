package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hazyhaar/lexbaux/generalinfo"
	"github.com/hazyhaar/lexbaux/lease"
)

const leaseText = `BAIL COMMERCIAL
Durée du bail : 9 ans.
Indexation : ILC annuel.
Les charges comprennent les travaux de l'article 606 du Code civil et la taxe foncière.
Une clause résolutoire est stipulée au profit du bailleur.`

func analysed(t *testing.T) *lease.Report {
	t.Helper()
	r := lease.Analyze(leaseText)
	r.Meta.Filename = "bail.pdf"
	r.GeneralInfo = &generalinfo.Info{BailleurNom: "SCI Les Tilleuls", PreneurForme: "SAS"}
	return r
}

func TestXLSX_ListsEveryFinding(t *testing.T) {
	r := analysed(t)
	data, err := New(nil).XLSX(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetFindings, sheetChecks, sheetParties}, f.GetSheetList())

	rows, err := f.GetRows(sheetFindings)
	require.NoError(t, err)
	require.Len(t, rows, len(r.Findings)+1)
	assert.Equal(t, "Identifiant", rows[0][1])
	for i, fd := range r.Findings {
		assert.Equal(t, fd.ID, rows[i+1][1])
		assert.Equal(t, fd.Title, rows[i+1][3])
		assert.Equal(t, fd.EffectiveAdvice(), rows[i+1][5])
	}
}

func TestXLSX_Summary(t *testing.T) {
	r := analysed(t)
	data, err := New(nil).XLSX(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	level, err := f.GetCellValue(sheetSummary, "B7")
	require.NoError(t, err)
	assert.Equal(t, string(r.Summary.RiskLevel), level)

	file, err := f.GetCellValue(sheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "bail.pdf", file)

	idx, err := f.GetSheetIndex(sheetSummary)
	require.NoError(t, err)
	assert.Equal(t, idx, f.GetActiveSheetIndex())
}

func TestXLSX_DemoImpacts(t *testing.T) {
	r, err := lease.Demo("premium")
	require.NoError(t, err)
	data, err := New(nil).XLSX(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetImpacts)
	require.NoError(t, err)
	assert.Len(t, rows, len(r.Impacts)+1)
}

func TestXLSX_EmptyReport(t *testing.T) {
	r := lease.Analyze("")
	data, err := New(nil).XLSX(r)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestHTML(t *testing.T) {
	r := analysed(t)
	r.Findings[0].Detail = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, New(nil).HTML(&buf, r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<h1>BAIL COMMERCIAL</h1>")
	assert.Contains(t, out, `class="sev-high"`)
	assert.Contains(t, out, "SCI Les Tilleuls")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Checklist de négociation")
}

func TestMarkdown(t *testing.T) {
	r := analysed(t)
	out, err := New(nil).Markdown(r)
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "# BAIL COMMERCIAL")
	assert.Contains(t, md, "## Points relevés")
	for _, fd := range r.Findings {
		assert.Contains(t, md, fd.Title)
	}
	assert.NotContains(t, md, "<table")
	assert.NotContains(t, md, "<style")
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".xlsx", Extension("xlsx"))
	assert.Equal(t, ".md", Extension("md"))
	assert.Equal(t, ".md", Extension("markdown"))
	assert.Equal(t, ".html", Extension("html"))
	assert.Equal(t, "", Extension("pdf"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "éé…", truncate("éééé", 3))
}
