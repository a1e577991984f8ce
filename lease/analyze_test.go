package lease

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioText = `BAIL COMMERCIAL
Durée du bail : 9 ans.
Indexation : ILC annuel.
Les charges comprennent les travaux de l'article 606 du Code civil et la taxe foncière.
Une clause résolutoire est stipulée au profit du bailleur.`

const neutralText = "Recette de la tarte : mélanger la farine et le sucre, puis cuire au four pendant quarante minutes."

func ids(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.ID
	}
	return out
}

func TestAnalyze_Scenario(t *testing.T) {
	rep := Analyze(scenarioText)

	dur, ok := rep.Finding("duration")
	require.True(t, ok)
	assert.Contains(t, dur.Detail, "9 ans")

	idx, ok := rep.Finding("index")
	require.True(t, ok)
	assert.Equal(t, SeverityInfo, idx.Severity)
	assert.Contains(t, idx.Detail, "ILC")

	ch, ok := rep.Finding("charges")
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, ch.Severity)
	assert.Contains(t, ch.Detail, "article 606")

	res, ok := rep.Finding("resolutory")
	require.True(t, ok)
	assert.Equal(t, SeverityWarn, res.Severity)

	assert.GreaterOrEqual(t, rep.Summary.RiskScore, 0.66)
	assert.Equal(t, RiskEleve, rep.Summary.RiskLevel)
	assert.Equal(t, "BAIL COMMERCIAL", rep.Meta.Title)
	assert.Equal(t, IndexILC, rep.Meta.Indexation)
	assert.False(t, rep.Meta.Plafonnement)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a, err := json.Marshal(Analyze(scenarioText))
	require.NoError(t, err)
	b, err := json.Marshal(Analyze(scenarioText))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestAnalyze_NeutralText(t *testing.T) {
	rep := Analyze(neutralText)

	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "duration", rep.Findings[0].ID)
	assert.Equal(t, "Durée non trouvée.", rep.Findings[0].Detail)
	assert.Equal(t, 0.0, rep.Summary.RiskScore)
	assert.Equal(t, RiskModere, rep.Summary.RiskLevel)
	assert.Empty(t, rep.Summary.Highlights)
	assert.Equal(t, DefaultTitle, rep.Meta.Title)
	assert.Equal(t, IndexNone, rep.Meta.Indexation)
}

func TestAnalyze_EmptyText(t *testing.T) {
	rep := Analyze("")
	assert.Equal(t, []string{"duration"}, ids(rep.Findings))
	assert.Equal(t, 1, rep.Meta.Pages)
	require.NoError(t, Validate(rep))
}

func TestAnalyze_IndexMissing(t *testing.T) {
	rep := Analyze("Le loyer annuel est payable par trimestre.")
	f, ok := rep.Finding("index-missing")
	require.True(t, ok)
	assert.Equal(t, SeverityWarn, f.Severity)
	assert.Contains(t, f.Detail, "à vérifier")
	_, ok = rep.Finding("index")
	assert.False(t, ok)
	assert.Contains(t, rep.Summary.Highlights, "Indexation non détectée")
}

func TestAnalyze_IndexPrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Index
		sev  Severity
	}{
		{"ilc over icc", "Le loyer est indexé sur l'ICC puis sur l'ILC.", IndexILC, SeverityInfo},
		{"ilat over icc", "Indexation : ILAT, à défaut ICC.", IndexILAT, SeverityInfo},
		{"icc alone", "Indexation annuelle selon l'indice ICC.", IndexICC, SeverityWarn},
		{"full name", "Révision selon l'indice des loyers commerciaux publié par l'INSEE.", IndexILC, SeverityInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Analyze(tt.text)
			assert.Equal(t, tt.want, rep.Meta.Indexation)
			f, ok := rep.Finding("index")
			require.True(t, ok)
			assert.Equal(t, tt.sev, f.Severity)
			assert.Contains(t, f.Detail, string(tt.want))
		})
	}
}

func TestAnalyze_IndexCappedLowersScore(t *testing.T) {
	uncapped := Analyze("Indexation : ILC annuelle.")
	capped := Analyze("Indexation : ILC annuelle, plafonnée à 5 %.")
	assert.Equal(t, 0.15, uncapped.Summary.RiskScore)
	assert.Equal(t, 0.0, capped.Summary.RiskScore)
	assert.True(t, capped.Meta.Plafonnement)
	f, _ := capped.Finding("index")
	assert.Equal(t, "Index repéré : ILC (annuelle) ; plafonné.", f.Detail)
}

func TestAnalyze_OneWayIndex(t *testing.T) {
	rep := Analyze("L'indexation jouera uniquement en cas de hausse de l'indice ILC.")
	f, ok := rep.Finding("index-one-way")
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.Equal(t, 0.4, rep.Summary.RiskScore)
	assert.Equal(t, RiskMoyen, rep.Summary.RiskLevel)
}

func TestAnalyze_Deposit(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		detail string
	}{
		{"amount wins", "Dépôt de garantie : 7 200 € soit 3 mois de loyer HT.", "Montant repéré : 7 200 (à confirmer)."},
		{"months only", "Le preneur verse un dépôt de garantie égal à 3 mois de loyer.", "Mention de 3 mois de loyer (à confirmer)."},
		{"months elsewhere", "Une somme correspondant à 2 mois de loyer sera versée.", "Mention de 2 mois de loyer (à confirmer)."},
		{"decimal amount", "Dépôt de garantie de 1500,50 euros.", "Montant repéré : 1500,50 (à confirmer)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Analyze(tt.text).Finding("deposit")
			require.True(t, ok)
			assert.Equal(t, tt.detail, f.Detail)
		})
	}
}

func TestAnalyze_NoticeThreshold(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Préavis de 3 mois par lettre recommandée.", false},
		{"Préavis de 5 mois.", false},
		{"Préavis de 6 mois.", true},
		{"Un préavis de six mois est requis.", true},
		{"Un préavis d'un an est requis.", true},
		{"Préavis de 3 mois pour le preneur ; préavis de 12 mois pour le bailleur.", true},
		{"Le preneur donne un préavis de trois mois, délivré 2 ans avant l'échéance.", false},
		{"Un préavis de 3 mois, puis de six mois en cas de renouvellement.", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, ok := Analyze(tt.text).Finding("notice")
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAnalyze_Duration(t *testing.T) {
	tests := []struct {
		text   string
		detail string
	}{
		{"Le bail est consenti pour une durée de neuf (9) ans.", "Durée 9 ans détectée (classique)."},
		{"Durée : 12 années entières.", "Durée 12 ans détectée (attention aux sorties)."},
		{"Durée : 10 ans.", "Durée de 10 ans détectée."},
		{"Rien de tel ici.", "Durée non trouvée."},
	}
	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			f, ok := Analyze(tt.text).Finding("duration")
			require.True(t, ok)
			assert.Equal(t, tt.detail, f.Detail)
		})
	}
}

func TestAnalyze_AssignorLiability(t *testing.T) {
	unlimited := Analyze("En cas de cession, le cédant restera garant solidaire du cessionnaire.")
	_, ok := unlimited.Finding("cession-solidarite")
	require.True(t, ok)
	assert.Equal(t, 0.15, unlimited.Summary.RiskScore)

	limited := Analyze("En cas de cession, le cédant restera garant solidaire du cessionnaire dans la limite de l'article L. 145-16-1, soit une garantie de 3 ans.")
	_, ok = limited.Finding("garantie-3-ans")
	require.True(t, ok)
	assert.Equal(t, 0.0, limited.Summary.RiskScore)
}

func TestAnalyze_BatteryOrder(t *testing.T) {
	text := strings.Join([]string{
		"Bail commercial. Durée : 9 ans.",
		"Indexation selon l'indice ICC.",
		"Les grosses réparations sont à la charge du preneur, ainsi que la taxe foncière et la TEOM.",
		"Régularisation annuelle des charges.",
		"Travaux de mise en conformité et désamiantage à la charge du preneur.",
		"Dépôt de garantie : 5 000 euros.",
		"Pénalités : intérêts de retard au taux de 10 % par an.",
		"Toute cession est soumise à l'agrément du bailleur.",
		"Renonciation expresse au droit au renouvellement.",
		"Aucune indemnité d'éviction ne sera due.",
		"Destination : commerce de détail",
		"Clause de non-concurrence.",
		"Résiliation de plein droit.",
		"Préavis de 9 mois.",
		"Franchise de loyer de 3 mois.",
	}, "\n")
	rep := Analyze(text)
	assert.Equal(t, []string{
		"duration", "index", "charges", "taxes", "charges-regularisation",
		"travaux-conformite", "deposit", "penalties", "assignment",
		"renouvellement-renonciation", "indem-eviction", "destination",
		"exclusivite", "resolutory", "notice", "franchise",
	}, ids(rep.Findings))
	assert.Equal(t, 0.95, rep.Summary.RiskScore)

	dest, _ := rep.Finding("destination")
	assert.Equal(t, "Destination indiquée : commerce de détail.", dest.Detail)
	pen, _ := rep.Finding("penalties")
	assert.Equal(t, "Taux repéré : 10 % par an.", pen.Detail)
	fr, _ := rep.Finding("franchise")
	assert.Equal(t, "Franchise repérée : 3 mois.", fr.Detail)
	tx, _ := rep.Finding("taxes")
	assert.Contains(t, tx.Detail, "taxe foncière et TEOM")
	require.NoError(t, Validate(rep))
}

func TestAnalyze_UniqueIDs(t *testing.T) {
	rep := Analyze(scenarioText + "\nDestination : bureaux\nFranchise de loyer.")
	seen := map[string]bool{}
	for _, f := range rep.Findings {
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
	}
}

func TestAnalyze_PagesGuess(t *testing.T) {
	assert.Equal(t, 1, Analyze("une seule page").Meta.Pages)
	assert.Equal(t, 2, Analyze("a\n\nb\n\nc").Meta.Pages)
	assert.Equal(t, 2, Analyze("a\fb\fc\fd").Meta.Pages)
}

func TestAnalyze_Checklist(t *testing.T) {
	rep := Analyze(scenarioText)
	require.NotNil(t, rep.Checklist)
	require.NotEmpty(t, rep.Checklist.Priorites)

	ch, _ := rep.Finding("charges")
	assert.Equal(t, ch.Advice, rep.Checklist.Priorites[0], "high findings come first")
	assert.True(t, strings.HasPrefix(rep.Checklist.Formulations[0], "Index"))
	for _, f := range rep.Checklist.Formulations {
		assert.NotContains(t, f, "Destination")
	}
}

func TestBuildChecklist_Dedup(t *testing.T) {
	findings := []Finding{
		{ID: "assignment", Severity: SeverityWarn, Advice: "A"},
		{ID: "cession-solidarite", Severity: SeverityWarn, Advice: "A"},
		{ID: "resolutory", Severity: SeverityWarn},
		{ID: "index-one-way", Severity: SeverityHigh, Advice: "B"},
		{ID: "duration", Severity: SeverityInfo, Advice: "C"},
	}
	c := BuildChecklist(findings)
	assert.Equal(t, []string{"B", "A", AdviceFor("resolutory", "")}, c.Priorites)
	assert.Len(t, c.Formulations, 3)
}

func TestAdviceFor(t *testing.T) {
	assert.Contains(t, AdviceFor("index", "Index repéré : ICC."), "Privilégiez ILC/ILAT")
	assert.Contains(t, AdviceFor("index", "Index repéré : ILC."), "Confirmez")
	assert.Equal(t, DefaultAdvice, AdviceFor("inconnu", ""))
}

func TestIndexJSON(t *testing.T) {
	b, err := json.Marshal(Meta{Title: "x", Pages: 1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"indexation":null`)

	var m Meta
	require.NoError(t, json.Unmarshal([]byte(`{"indexation":"ILAT"}`), &m))
	assert.Equal(t, IndexILAT, m.Indexation)
	require.NoError(t, json.Unmarshal([]byte(`{"indexation":null}`), &m))
	assert.Equal(t, IndexNone, m.Indexation)
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityInfo.Rank(), SeverityWarn.Rank())
	assert.Less(t, SeverityWarn.Rank(), SeverityHigh.Rank())
	assert.Equal(t, "Risque élevé", SeverityHigh.Label())
}
