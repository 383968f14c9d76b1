package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnalyst is a mock implementation of the gap analyst
type MockAnalyst struct {
	mock.Mock
}

func (m *MockAnalyst) AnalyzeGap(ctx context.Context, intent string, topCompetitors, samples []string) (string, error) {
	args := m.Called(intent, topCompetitors, samples)
	return args.String(0), args.Error(1)
}

func record(platform, intent string, mentioned bool, competitors ...string) models.Record {
	return models.Record{
		Platform:    platform,
		Intent:      intent,
		IsMentioned: mentioned,
		Competitors: competitors,
		Answer:      platform + " answer about " + intent,
	}
}

func TestSummarize(t *testing.T) {
	records := []models.Record{
		record("Deepseek", "AI", true, "华为"),
		record("Deepseek", "AI", false, "华为", "小米"),
		record("Kimi", "ESG", false),
		record("Zhipu", "AI", true),
	}
	records[0].Sources = []models.SourceEntry{{Media: "36氪"}, {Media: "虎嗅"}}
	records[1].Sources = []models.SourceEntry{{Media: "36氪"}}
	records[2].MentionedInReasoning = true

	report := Summarize(records, []string{"Deepseek", "Kimi", "Doubao"}, 5, "7 days")

	assert.Equal(t, 4, report.TotalRecords)
	assert.Equal(t, 2, report.Mentioned)
	assert.Equal(t, 0.5, report.MentionRate)
	assert.Equal(t, 1, report.ReasoningOnly)
	assert.Equal(t, "7 days", report.Period)
	assert.Equal(t, []models.CountStat{{Name: "36氪", Count: 2}, {Name: "虎嗅", Count: 1}}, report.TopSources)

	require.Len(t, report.Platforms, 4)
	names := []string{}
	for _, p := range report.Platforms {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Deepseek", "Kimi", "Doubao", "Zhipu"}, names)

	deepseek := report.Platforms[0]
	assert.Equal(t, 2, deepseek.Total)
	assert.Equal(t, 0.5, deepseek.MentionRate)
	assert.Equal(t, []models.CountStat{{Name: "华为", Count: 2}, {Name: "小米", Count: 1}}, deepseek.TopCompetitors)
	assert.True(t, deepseek.ConfiguredPlatform)

	doubao := report.Platforms[2]
	assert.Equal(t, 0, doubao.Total)
	assert.Equal(t, 0.0, doubao.MentionRate)
	assert.True(t, doubao.ConfiguredPlatform)
	assert.False(t, report.Platforms[3].ConfiguredPlatform)

	require.Len(t, report.Intents, 2)
	assert.Equal(t, "AI", report.Intents[0].Name)
	assert.Equal(t, 3, report.Intents[0].Total)
	assert.Equal(t, "ESG", report.Intents[1].Name)
}

func TestSummarize_Empty(t *testing.T) {
	report := Summarize(nil, nil, 0, "")
	assert.Equal(t, 0, report.TotalRecords)
	assert.Equal(t, 0.0, report.MentionRate)
	assert.Empty(t, report.Platforms)
	assert.Empty(t, report.TopSources)
}

func TestTopCounts(t *testing.T) {
	counts := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}
	assert.Equal(t, []models.CountStat{{Name: "c", Count: 5}, {Name: "a", Count: 2}, {Name: "b", Count: 2}}, TopCounts(counts, 3))
	assert.Len(t, TopCounts(counts, 0), 4)
}

func TestInsightEngine(t *testing.T) {
	long := strings.Repeat("长", 250)
	records := []models.Record{
		record("Deepseek", "AI", true),
		record("Deepseek", "AI", true),
		record("Deepseek", "ESG", false, "华为", "小米"),
		record("Kimi", "ESG", false, "华为"),
		record("Kimi", "ESG", true),
		record("Kimi", "Chips", false),
	}
	records[2].Answer = long

	analyst := &MockAnalyst{}
	analyst.On("AnalyzeGap", "ESG", []string{"华为", "小米"}, []string{strings.Repeat("长", 200) + "...", "Kimi answer about ESG"}).
		Return("## 核心差距\n竞品叙事更完整", nil)

	insight, err := NewInsightEngine(analyst, 0.8).Analyze(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, insight.Intents, 3)

	ai := insight.Intents[0]
	assert.Equal(t, "AI", ai.Intent)
	assert.True(t, ai.Leading)
	assert.Equal(t, 1.0, ai.MentionRate)

	esg := insight.Intents[1]
	assert.False(t, esg.Leading)
	assert.Equal(t, 3, esg.Total)
	assert.Equal(t, "## 核心差距\n竞品叙事更完整", esg.Analysis)

	chips := insight.Intents[2]
	assert.False(t, chips.Leading)
	assert.Contains(t, chips.Analysis, "暂无可对比")

	analyst.AssertExpectations(t)
	analyst.AssertNumberOfCalls(t, "AnalyzeGap", 1)

	md := InsightMarkdown(insight)
	assert.Contains(t, md, "## ESG（待提升，3 条，提及率 33.3%）")
	assert.Contains(t, md, "## AI（领先")
}

func TestInsightEngine_AnalystFailure(t *testing.T) {
	analyst := &MockAnalyst{}
	analyst.On("AnalyzeGap", "ESG", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

	insight, err := NewInsightEngine(analyst, 0).Analyze(context.Background(), []models.Record{
		record("Kimi", "ESG", false, "华为"),
	})
	require.NoError(t, err)
	require.Len(t, insight.Intents, 1)
	assert.Equal(t, DefaultGapThreshold, insight.Threshold)
	assert.Contains(t, insight.Intents[0].Analysis, "timeout")
}

func TestInsightEngine_NoAnalyst(t *testing.T) {
	insight, err := NewInsightEngine(nil, 0.8).Analyze(context.Background(), []models.Record{
		record("Kimi", "ESG", false, "华为", "小米"),
	})
	require.NoError(t, err)
	assert.Contains(t, insight.Intents[0].Analysis, "华为、小米")
}

func TestMarkdown(t *testing.T) {
	report := Summarize([]models.Record{
		record("Deepseek", "AI", true, "华为"),
	}, []string{"Deepseek", "Kimi"}, 5, "daily")

	md := Markdown(report)
	assert.Contains(t, md, "# GEO 监测报告")
	assert.Contains(t, md, "- 品牌提及：1（100.0%）")
	assert.Contains(t, md, "| Deepseek | 1 | 1 | 100.0% | 华为(1) |")
	assert.Contains(t, md, "| Kimi | 0 | 0 | 无数据 | - |")
	assert.Contains(t, md, "| AI | 1 | 1 | 100.0% | 华为(1) |")
}
