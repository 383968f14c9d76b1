package extract

import "github.com/openclaw/geo-monitor/internal/models"

// Analysis is the extraction result over both text channels of one answer
type Analysis struct {
	IsMentioned          bool
	MentionedInReasoning bool
	Competitors          []string
	Sources              []models.SourceEntry
	Breakdown            models.SourcesBreakdown
}

// Analyze runs every extractor over the answer and the reasoning trace
func (e *Extractor) Analyze(answer, reasoning string) Analysis {
	answerSources := e.ExtractSources(answer)
	reasoningSources := e.ExtractSources(reasoning)

	return Analysis{
		IsMentioned:          e.IsBrandMentioned(answer),
		MentionedInReasoning: e.IsBrandMentioned(reasoning),
		Competitors:          MergeCompetitors(e.ExtractCompetitors(answer), e.ExtractCompetitors(reasoning)),
		Sources:              MergeSources(answerSources, reasoningSources),
		Breakdown: models.SourcesBreakdown{
			Answer:    answerSources,
			Reasoning: reasoningSources,
		},
	}
}
