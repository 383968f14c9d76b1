package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.Report {
	return &models.Report{
		GeneratedAt:  time.Date(2024, time.May, 1, 9, 0, 0, 0, config.Location),
		Period:       "daily",
		TotalRecords: 4,
		Mentioned:    1,
		MentionRate:  0.25,
		Platforms: []models.GroupStats{
			{Name: "Deepseek", Total: 4, Mentioned: 1, MentionRate: 0.25,
				TopCompetitors: []models.CountStat{{Name: "华为", Count: 3}, {Name: "小米", Count: 1}}},
			{Name: "Kimi", ConfiguredPlatform: true},
		},
		Intents:    []models.GroupStats{{Name: "AI", Total: 4, Mentioned: 1, MentionRate: 0.25}},
		TopSources: []models.CountStat{{Name: "36氪", Count: 2}},
	}
}

func testConfig(webhook string) *config.Config {
	return &config.Config{
		TeamsWebhookURL: webhook,
		Settings:        config.Settings{Brand: config.BrandSettings{Name: "联想"}},
	}
}

func TestService_SendReportToTeams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(testConfig(server.URL))
	require.True(t, service.Enabled())
	require.NoError(t, service.SendReport(sampleReport()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "联想 GEO 监测报告 - daily", received.Title)
	assert.Contains(t, received.Text, "25.0%")
	require.Len(t, received.Sections, 3)
	assert.Contains(t, received.Sections[1].ActivityText, "**Deepseek**: 1/4 (25.0%)")
	assert.Contains(t, received.Sections[2].ActivityText, "36氪 (2)")
}

func TestService_TeamsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad card"))
	}))
	defer server.Close()

	err := NewService(testConfig(server.URL)).SendReport(sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestService_SendAlert(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	alert := &models.Alert{Type: "providers_skipped", Title: "Providers skipped", Message: "Kimi", Timestamp: time.Now()}
	require.NoError(t, NewService(testConfig(server.URL)).SendAlert(alert))
	assert.Equal(t, "Providers skipped", received.Title)
	assert.Equal(t, "d13438", received.ThemeColor)

	assert.NoError(t, NewService(testConfig("")).SendAlert(alert), "no channel configured is not an error")
}

func TestService_NoChannels(t *testing.T) {
	service := NewService(testConfig(""))
	assert.False(t, service.Enabled())
	assert.NoError(t, service.SendReport(sampleReport()))
}

func TestService_buildEmailHTML(t *testing.T) {
	html, err := NewService(testConfig("")).buildEmailHTML(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, html, "联想 GEO 监测报告")
	assert.Contains(t, html, "<td>Deepseek</td>")
	assert.Contains(t, html, "华为(3), 小米(1)")
	assert.Contains(t, html, "无数据")
	assert.Contains(t, html, "25.0%")
}
