package lease

// Analyze runs the classifier and the scorer over text and assembles a
// report. Meta.Pages holds the text-based guess; callers that know the real
// page count overwrite it.
func Analyze(text string) *Report {
	findings, meta, sig := Classify(text)
	score := Score(sig.ScoreSignals())
	return &Report{
		Meta:     meta,
		Findings: findings,
		Summary: Summary{
			RiskScore:  score,
			RiskLevel:  LevelFor(score),
			Highlights: Highlights(&sig),
		},
		Checklist: BuildChecklist(findings),
	}
}
