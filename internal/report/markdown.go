package report

import (
	"fmt"
	"strings"

	"github.com/openclaw/geo-monitor/internal/models"
)

// Markdown renders a report for terminals, files and chat webhooks
func Markdown(report *models.Report) string {
	var text strings.Builder

	text.WriteString("# GEO 监测报告\n\n")
	text.WriteString(fmt.Sprintf("生成时间：%s", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.Period != "" {
		text.WriteString(fmt.Sprintf("  统计范围：%s", report.Period))
	}
	text.WriteString("\n\n")

	text.WriteString("## 总览\n\n")
	text.WriteString(fmt.Sprintf("- 总记录数：%d\n", report.TotalRecords))
	text.WriteString(fmt.Sprintf("- 品牌提及：%d（%s）\n", report.Mentioned, Percent(report.MentionRate)))
	text.WriteString(fmt.Sprintf("- 仅在推理中提及：%d\n\n", report.ReasoningOnly))

	if len(report.Platforms) > 0 {
		text.WriteString("## 平台表现\n\n")
		writeGroupTable(&text, "平台", report.Platforms)
	}

	if len(report.Intents) > 0 {
		text.WriteString("## 意图表现\n\n")
		writeGroupTable(&text, "意图", report.Intents)
	}

	if len(report.TopSources) > 0 {
		text.WriteString("## 高频信源\n\n")
		for i, s := range report.TopSources {
			text.WriteString(fmt.Sprintf("%d. %s（%d）\n", i+1, s.Name, s.Count))
		}
		text.WriteString("\n")
	}

	return text.String()
}

// InsightMarkdown renders the gap analyses
func InsightMarkdown(insight *models.InsightReport) string {
	var text strings.Builder

	text.WriteString("# GEO 差距洞察\n\n")
	text.WriteString(fmt.Sprintf("生成时间：%s  触发阈值：提及率低于 %s\n\n",
		insight.GeneratedAt.Format("2006-01-02 15:04:05"), Percent(insight.Threshold)))

	if len(insight.Intents) == 0 {
		text.WriteString("暂无数据。\n")
		return text.String()
	}

	for _, in := range insight.Intents {
		status := "待提升"
		if in.Leading {
			status = "领先"
		}
		text.WriteString(fmt.Sprintf("## %s（%s，%d 条，提及率 %s）\n\n", in.Intent, status, in.Total, Percent(in.MentionRate)))
		text.WriteString(strings.TrimSpace(in.Analysis))
		text.WriteString("\n\n")
	}

	return text.String()
}

// Percent formats a rate as a percentage with one decimal
func Percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func writeGroupTable(text *strings.Builder, label string, groups []models.GroupStats) {
	text.WriteString(fmt.Sprintf("| %s | 记录数 | 提及数 | 提及率 | 主要竞品 |\n", label))
	text.WriteString("|---|---|---|---|---|\n")
	for _, g := range groups {
		rate := Percent(g.MentionRate)
		if g.Total == 0 {
			rate = "无数据"
		}
		text.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s |\n", g.Name, g.Total, g.Mentioned, rate, joinCounts(g.TopCompetitors)))
	}
	text.WriteString("\n")
}

func joinCounts(stats []models.CountStat) string {
	if len(stats) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, fmt.Sprintf("%s(%d)", s.Name, s.Count))
	}
	return strings.Join(parts, ", ")
}
