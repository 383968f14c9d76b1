package report

import (
	"sort"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
)

// DefaultTopN is the ranking length used when none is configured
const DefaultTopN = 5

type group struct {
	name        string
	total       int
	mentioned   int
	reasonOnly  int
	competitors map[string]int
	sources     map[string]int
}

func newGroup(name string) *group {
	return &group{
		name:        name,
		competitors: make(map[string]int),
		sources:     make(map[string]int),
	}
}

func (g *group) add(r models.Record) {
	g.total++
	if r.IsMentioned {
		g.mentioned++
	}
	if r.MentionedInReasoning && !r.IsMentioned {
		g.reasonOnly++
	}
	for _, c := range r.Competitors {
		g.competitors[c]++
	}
	for _, s := range r.Sources {
		g.sources[s.Media]++
	}
}

func (g *group) stats(topN int) models.GroupStats {
	return models.GroupStats{
		Name:           g.name,
		Total:          g.total,
		Mentioned:      g.mentioned,
		MentionRate:    Rate(g.mentioned, g.total),
		ReasoningOnly:  g.reasonOnly,
		TopCompetitors: TopCounts(g.competitors, topN),
		TopSources:     TopCounts(g.sources, topN),
	}
}

// Summarize aggregates records by platform and by intent. Every configured
// platform appears in the result even when it has no records.
func Summarize(records []models.Record, platforms []string, topN int, period string) *models.Report {
	if topN <= 0 {
		topN = DefaultTopN
	}

	overall := newGroup("")
	byPlatform := make(map[string]*group)
	byIntent := make(map[string]*group)
	var platformOrder, intentOrder []string

	configured := make(map[string]bool)
	for _, name := range platforms {
		if _, ok := byPlatform[name]; ok {
			continue
		}
		configured[name] = true
		byPlatform[name] = newGroup(name)
		platformOrder = append(platformOrder, name)
	}

	var extraPlatforms []string
	for _, r := range records {
		overall.add(r)

		pg, ok := byPlatform[r.Platform]
		if !ok {
			pg = newGroup(r.Platform)
			byPlatform[r.Platform] = pg
			extraPlatforms = append(extraPlatforms, r.Platform)
		}
		pg.add(r)

		ig, ok := byIntent[r.Intent]
		if !ok {
			ig = newGroup(r.Intent)
			byIntent[r.Intent] = ig
			intentOrder = append(intentOrder, r.Intent)
		}
		ig.add(r)
	}
	sort.Strings(extraPlatforms)
	platformOrder = append(platformOrder, extraPlatforms...)

	report := &models.Report{
		GeneratedAt:   config.Now(),
		Period:        period,
		TotalRecords:  overall.total,
		Mentioned:     overall.mentioned,
		MentionRate:   Rate(overall.mentioned, overall.total),
		ReasoningOnly: overall.reasonOnly,
		Platforms:     make([]models.GroupStats, 0, len(platformOrder)),
		Intents:       make([]models.GroupStats, 0, len(intentOrder)),
		TopSources:    TopCounts(overall.sources, topN),
	}

	for _, name := range platformOrder {
		stats := byPlatform[name].stats(topN)
		stats.ConfiguredPlatform = configured[name]
		report.Platforms = append(report.Platforms, stats)
	}
	for _, name := range intentOrder {
		report.Intents = append(report.Intents, byIntent[name].stats(topN))
	}

	return report
}

// Rate returns part/total, or 0 when total is 0
func Rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// TopCounts ranks names by count, ties broken by name, and keeps the first n
func TopCounts(counts map[string]int, n int) []models.CountStat {
	stats := make([]models.CountStat, 0, len(counts))
	for name, count := range counts {
		stats = append(stats, models.CountStat{Name: name, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}
