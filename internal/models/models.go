package models

import "time"

// SourceReferenceInText marks a source that was named in the answer without a URL.
const SourceReferenceInText = "参考回答文本"

// Message is one chat turn sent to a provider
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the raw outcome of one successful provider call
type ChatResult struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`
}

// SourceEntry is one citation extracted from generated text
type SourceEntry struct {
	Media string `json:"media"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// IsTextReference reports whether the entry has no real URL
func (s SourceEntry) IsTextReference() bool {
	return s.URL == SourceReferenceInText
}

// SourcesBreakdown keeps the per-channel source lists before merging
type SourcesBreakdown struct {
	Answer    []SourceEntry `json:"answer"`
	Reasoning []SourceEntry `json:"reasoning"`
}

// Intent is a topic under which questions are generated and monitored
type Intent struct {
	Label     string   `json:"label" yaml:"label"`
	Keywords  []string `json:"keywords" yaml:"keywords"`
	Questions []string `json:"questions" yaml:"questions"`
}

// QuestionSet maps intent labels to ordered questions. Order is the intent order
// of the configuration and is kept in Intents.
type QuestionSet struct {
	Intents   []string            `json:"intents"`
	Questions map[string][]string `json:"questions"`
}

// NewQuestionSet creates an empty question set
func NewQuestionSet() *QuestionSet {
	return &QuestionSet{Questions: make(map[string][]string)}
}

// Set stores the questions for an intent, keeping first-insertion order
func (q *QuestionSet) Set(intent string, questions []string) {
	if _, exists := q.Questions[intent]; !exists {
		q.Intents = append(q.Intents, intent)
	}
	q.Questions[intent] = questions
}

// Total returns the number of questions across all intents
func (q *QuestionSet) Total() int {
	total := 0
	for _, qs := range q.Questions {
		total += len(qs)
	}
	return total
}

// Record is one (platform, intent, question) observation in the result log
type Record struct {
	RunID                string            `json:"run_id"`
	Timestamp            time.Time         `json:"timestamp"`
	Intent               string            `json:"intent"`
	Platform             string            `json:"platform"`
	Question             string            `json:"question"`
	Answer               string            `json:"answer"`
	Reasoning            string            `json:"reasoning"`
	IsMentioned          bool              `json:"is_mentioned"`
	MentionedInReasoning bool              `json:"mentioned_in_reasoning"`
	Competitors          []string          `json:"competitors"`
	Sources              []SourceEntry     `json:"sources"`
	SourcesBreakdown     *SourcesBreakdown `json:"sources_breakdown"`
	StructuredSources    []SourceEntry     `json:"structured_sources"`
	Strategy             *string           `json:"geo_strategy"`
	AnswerLength         int               `json:"answer_length"`
	ReasoningLength      int               `json:"reasoning_length"`
}

// CountStat is a name with an occurrence count, used for top-N rankings
type CountStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GroupStats aggregates records sharing a platform or intent
type GroupStats struct {
	Name               string      `json:"name"`
	Total              int         `json:"total"`
	Mentioned          int         `json:"mentioned"`
	MentionRate        float64     `json:"mention_rate"`
	ReasoningOnly      int         `json:"reasoning_only"`
	TopCompetitors     []CountStat `json:"top_competitors"`
	TopSources         []CountStat `json:"top_sources"`
	ConfiguredPlatform bool        `json:"configured_platform,omitempty"`
}

// Report represents an aggregate view over loaded records
type Report struct {
	GeneratedAt   time.Time    `json:"generated_at"`
	Period        string       `json:"period"`
	TotalRecords  int          `json:"total_records"`
	Mentioned     int          `json:"mentioned"`
	MentionRate   float64      `json:"mention_rate"`
	ReasoningOnly int          `json:"reasoning_only"`
	Platforms     []GroupStats `json:"platforms"`
	Intents       []GroupStats `json:"intents"`
	TopSources    []CountStat  `json:"top_sources"`
}

// IntentInsight is the gap-analysis outcome for one intent
type IntentInsight struct {
	Intent      string  `json:"intent"`
	Total       int     `json:"total"`
	MentionRate float64 `json:"mention_rate"`
	Analysis    string  `json:"analysis"`
	Leading     bool    `json:"leading"`
}

// InsightReport collects gap analyses for every intent
type InsightReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Threshold   float64         `json:"threshold"`
	Intents     []IntentInsight `json:"intents"`
}

// Alert is an operational notice, such as a failed pass or skipped providers
type Alert struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
