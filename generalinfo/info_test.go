package generalinfo

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leaseText = `BAIL COMMERCIAL
Bailleur : Société IMMOBAIL SARL immatriculée au RCS de Lyon sous le n° 512 345 678, siège social 12 rue de la République, 69001 Lyon, représentée par son gérant Jean Dupont.
Preneur : Société RESTAURA SAS immatriculée au RCS de Lyon sous le n° 789 654 321, siège social 45 av. des Frères Lumière, 69008 Lyon.
Bien loué : Local commercial 15 rue Victor Hugo, 69002 Lyon (120 m²).
Destination des locaux : Activité de restauration rapide.
Loyer : 2 400 € HT par mois, payable trimestriellement d’avance.
Dépôt de garantie : 7 200 €.
Durée du bail : 9 ans.`

func TestLabelExtractor_FullLease(t *testing.T) {
	info := LabelExtractor{}.Extract(Source{Text: leaseText})

	assert.Equal(t, "SARL", info.BailleurForme)
	assert.Equal(t, "512 345 678", info.BailleurRCS)
	assert.Equal(t, "SAS", info.PreneurForme)
	assert.Equal(t, "789 654 321", info.PreneurRCS)
	assert.Contains(t, info.BailleurNom, "IMMOBAIL")
	assert.NotContains(t, info.BailleurNom, "512 345 678")
	assert.NotContains(t, info.BailleurNom, "Preneur")
	assert.Equal(t, "représentée par son gérant Jean Dupont", info.QualitePouvoirsSignataires)
	assert.Equal(t, "Local commercial 15 rue Victor Hugo, 69002 Lyon (120 m²).", info.DesignationBien)
	assert.Equal(t, "Activité de restauration rapide.", info.DestinationLocaux)
	assert.Equal(t, "2 400 € HT par mois, payable trimestriellement d’avance.", info.LoyerCommercial)
	assert.Empty(t, info.Missing())
}

func TestLabelExtractor_Absent(t *testing.T) {
	info := LabelExtractor{}.Extract(Source{Text: "Un texte sans aucune étiquette reconnue, sur plusieurs lignes.\nRien d'autre."})
	assert.True(t, info.Empty())
	assert.Len(t, info.Missing(), 10)

	empty := LabelExtractor{}.Extract(Source{})
	assert.Equal(t, Info{}, empty)

	companies := LabelExtractor{}.Extract(Source{Text: "Entre la SCI Les Tilleuls, RCS Paris 812 345 678, et la société X, il est convenu ce qui suit."})
	assert.True(t, companies.Empty(), "%+v", companies)
}

func TestLabelExtractor_PartyWithoutForm(t *testing.T) {
	text := "Bailleur : SCI Les Tilleuls, RCS Paris 812 345 678.\nPreneur : Jean Dupont, entrepreneur individuel.\nLoyer : 900 € HT par mois."
	info := LabelExtractor{}.Extract(Source{Text: text})

	assert.Equal(t, "SCI", info.BailleurForme)
	assert.Equal(t, "812 345 678", info.BailleurRCS)
	assert.Equal(t, "Jean Dupont, entrepreneur individuel.", info.PreneurNom)
	assert.Empty(t, info.PreneurForme)
	assert.Empty(t, info.PreneurRCS)
}

func TestLabelExtractor_NBSPAndAnalysisFallback(t *testing.T) {
	text := "Bailleur : Foncière Alpha SCI\nPreneur : Beta EURL\nLoyer :\u00a01 000 €"
	info := LabelExtractor{}.Extract(Source{Analysis: map[string]any{"fullText": text}})
	assert.Equal(t, "Foncière Alpha SCI", info.BailleurNom)
	assert.Equal(t, "SCI", info.BailleurForme)
	assert.Equal(t, "Beta EURL", info.PreneurNom)
	assert.Equal(t, "EURL", info.PreneurForme)
	assert.Equal(t, "1 000 €", info.LoyerCommercial)
	assert.Empty(t, info.BailleurRCS)
}

func TestStructuredExtractor(t *testing.T) {
	tests := []struct {
		name     string
		analysis map[string]any
		want     Info
	}{
		{
			name: "generalInfo tree",
			analysis: map[string]any{"generalInfo": map[string]any{
				"bailleur": map[string]any{"nom": " Immo ", "forme": "SARL", "siren": "512 345 678", "representant": "M. Dupont"},
				"preneur":  map[string]any{"nom": "Resto", "forme": "SAS", "siren": 789654321.0},
				"bien":     map[string]any{"adresse": "15 rue Victor Hugo", "destination": "Restauration", "loyer": "2 400 €"},
			}},
			want: Info{
				BailleurNom: "Immo", BailleurForme: "SARL", BailleurRCS: "512 345 678",
				PreneurNom: "Resto", PreneurForme: "SAS", PreneurRCS: "789654321",
				QualitePouvoirsSignataires: "M. Dupont",
				DesignationBien:            "15 rue Victor Hugo", DestinationLocaux: "Restauration", LoyerCommercial: "2 400 €",
			},
		},
		{
			name: "analysis.parties",
			analysis: map[string]any{"analysis": map[string]any{"parties": map[string]any{
				"bailleur": map[string]any{"nom": "Immo"},
			}}},
			want: Info{BailleurNom: "Immo"},
		},
		{
			name:     "flat generalInfo",
			analysis: map[string]any{"generalInfo": map[string]any{"preneurNom": "Resto"}},
			want:     Info{PreneurNom: "Resto"},
		},
		{
			name:     "text is ignored",
			analysis: map[string]any{"rawText": "Bailleur : Immo"},
			want:     Info{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StructuredExtractor{}.Extract(Source{Analysis: tt.analysis}))
		})
	}
}

func TestForStrategy(t *testing.T) {
	e, err := ForStrategy("")
	require.NoError(t, err)
	assert.IsType(t, LabelExtractor{}, e)

	e, err = ForStrategy("Structured")
	require.NoError(t, err)
	assert.IsType(t, StructuredExtractor{}, e)

	_, err = ForStrategy("llm")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestInfo_UnmarshalJSON(t *testing.T) {
	var flat Info
	require.NoError(t, json.Unmarshal([]byte(`{"bailleurNom":"Immo","loyerCommercial":"1 €"}`), &flat))
	assert.Equal(t, Info{BailleurNom: "Immo", LoyerCommercial: "1 €"}, flat)

	var nested Info
	require.NoError(t, json.Unmarshal([]byte(`{"bailleur":{"nom":"Immo"},"bien":{"loyer":"1 €"}}`), &nested))
	assert.Equal(t, Info{BailleurNom: "Immo", LoyerCommercial: "1 €"}, nested)

	out, err := json.Marshal(nested)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bailleurNom":"Immo","loyerCommercial":"1 €"}`, string(out))
}
