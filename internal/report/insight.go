package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultGapThreshold is the mention rate below which an intent gets a gap analysis
	DefaultGapThreshold = 0.8

	gapCompetitors  = 5
	gapSamples      = 3
	gapSampleLength = 200
)

// Analyst writes the qualitative gap analysis for one intent
type Analyst interface {
	AnalyzeGap(ctx context.Context, intent string, topCompetitors, samples []string) (string, error)
}

// InsightEngine runs gap analysis over under-performing intents
type InsightEngine struct {
	analyst   Analyst
	threshold float64
}

// NewInsightEngine creates an engine. analyst may be nil, in which case gaps are
// listed without analysis.
func NewInsightEngine(analyst Analyst, threshold float64) *InsightEngine {
	if threshold <= 0 {
		threshold = DefaultGapThreshold
	}
	return &InsightEngine{analyst: analyst, threshold: threshold}
}

// Analyze produces one insight per intent, in order of first appearance
func (e *InsightEngine) Analyze(ctx context.Context, records []models.Record) (*models.InsightReport, error) {
	byIntent := make(map[string][]models.Record)
	var order []string
	for _, r := range records {
		if _, ok := byIntent[r.Intent]; !ok {
			order = append(order, r.Intent)
		}
		byIntent[r.Intent] = append(byIntent[r.Intent], r)
	}

	insight := &models.InsightReport{
		GeneratedAt: config.Now(),
		Threshold:   e.threshold,
		Intents:     make([]models.IntentInsight, 0, len(order)),
	}

	for _, intent := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		insight.Intents = append(insight.Intents, e.analyzeIntent(ctx, intent, byIntent[intent]))
	}

	return insight, nil
}

func (e *InsightEngine) analyzeIntent(ctx context.Context, intent string, records []models.Record) models.IntentInsight {
	mentioned := 0
	for _, r := range records {
		if r.IsMentioned {
			mentioned++
		}
	}

	result := models.IntentInsight{
		Intent:      intent,
		Total:       len(records),
		MentionRate: Rate(mentioned, len(records)),
	}

	if result.MentionRate >= e.threshold {
		result.Leading = true
		result.Analysis = fmt.Sprintf("品牌在该领域表现领先（提及率 %.0f%%），保持现有内容投放节奏。", result.MentionRate*100)
		return result
	}

	gaps := GapRecords(records)
	if len(gaps) == 0 {
		result.Analysis = "未提及品牌的回答中没有出现竞品，暂无可对比的差距样本。"
		return result
	}

	competitors := make(map[string]int)
	for _, r := range gaps {
		for _, c := range r.Competitors {
			competitors[c]++
		}
	}
	var top []string
	for _, c := range TopCounts(competitors, gapCompetitors) {
		top = append(top, c.Name)
	}

	var samples []string
	for _, r := range gaps {
		if len(samples) == gapSamples {
			break
		}
		samples = append(samples, truncate(r.Answer, gapSampleLength))
	}

	if e.analyst == nil {
		result.Analysis = fmt.Sprintf("主要竞品：%s（未配置分析模型）", strings.Join(top, "、"))
		return result
	}

	logrus.Infof("Running gap analysis for intent %s (%d gap answers)", intent, len(gaps))
	analysis, err := e.analyst.AnalyzeGap(ctx, intent, top, samples)
	if err != nil {
		logrus.Errorf("Gap analysis failed for intent %s: %v", intent, err)
		result.Analysis = fmt.Sprintf("差距分析失败：%v", err)
		return result
	}

	result.Analysis = analysis
	return result
}

// GapRecords returns the answers that skip the brand but recommend competitors
func GapRecords(records []models.Record) []models.Record {
	var gaps []models.Record
	for _, r := range records {
		if !r.IsMentioned && len(r.Competitors) > 0 {
			gaps = append(gaps, r)
		}
	}
	return gaps
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
