package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/openclaw/geo-monitor/internal/report"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Enabled reports whether any channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(rep *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postTeams(s.buildTeamsMessage(rep)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(rep); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert posts an operational notice to Teams. Email is reserved for reports.
func (s *Service) SendAlert(alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Infof("Alert (no Teams webhook configured): %s - %s", alert.Title, alert.Message)
		return nil
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "d13438",
		Title:      alert.Title,
		Text:       alert.Message,
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "类型", Value: alert.Type},
				{Name: "时间", Value: alert.Timestamp.In(config.Location).Format("2006-01-02 15:04:05")},
			},
		}},
	}

	if err := s.postTeams(message); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func (s *Service) postTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(rep *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("%s GEO 监测报告 - %s", s.config.Settings.Brand.Name, rep.Period),
		Text:    fmt.Sprintf("共 %d 条回答，品牌提及率 %s", rep.TotalRecords, report.Percent(rep.MentionRate)),
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "总览",
		Facts: []TeamsFact{
			{Name: "总记录数", Value: fmt.Sprintf("%d", rep.TotalRecords)},
			{Name: "品牌提及", Value: fmt.Sprintf("%d", rep.Mentioned)},
			{Name: "仅推理提及", Value: fmt.Sprintf("%d", rep.ReasoningOnly)},
			{Name: "生成时间", Value: rep.GeneratedAt.In(config.Location).Format("2006-01-02 15:04:05")},
		},
		Markdown: true,
	})

	if len(rep.Platforms) > 0 {
		var lines []string
		for _, p := range rep.Platforms {
			lines = append(lines, fmt.Sprintf("**%s**: %d/%d (%s)", p.Name, p.Mentioned, p.Total, report.Percent(p.MentionRate)))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "平台表现",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	if len(rep.TopSources) > 0 {
		var lines []string
		for _, src := range rep.TopSources {
			lines = append(lines, fmt.Sprintf("%s (%d)", src.Name, src.Count))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "高频信源",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(rep *models.Report) error {
	subject := fmt.Sprintf("%s GEO 监测报告 - %s (提及率 %s)",
		s.config.Settings.Brand.Name, rep.Period, report.Percent(rep.MentionRate))

	htmlBody, err := s.buildEmailHTML(rep)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", report.Markdown(rep))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>GEO 监测报告</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #e2231a; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #fafafa; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Brand}} GEO 监测报告</h1>
        <p>{{.Report.Period}} · 生成于 {{.Report.GeneratedAt.Format "2006-01-02 15:04"}}</p>
    </div>

    <div class="summary">
        <p><strong>总记录数：</strong>{{.Report.TotalRecords}}</p>
        <p><strong>品牌提及：</strong>{{.Report.Mentioned}}（{{percent .Report.MentionRate}}）</p>
        <p><strong>仅在推理中提及：</strong>{{.Report.ReasoningOnly}}</p>
    </div>

    {{if .Report.Platforms}}
    <h2>平台表现</h2>
    <table>
        <tr><th>平台</th><th>记录数</th><th>提及率</th><th>主要竞品</th></tr>
        {{range .Report.Platforms}}
        <tr>
            <td>{{.Name}}</td>
            <td>{{.Total}}</td>
            <td>{{if .Total}}{{percent .MentionRate}}{{else}}无数据{{end}}</td>
            <td>{{range $i, $c := .TopCompetitors}}{{if $i}}, {{end}}{{$c.Name}}({{$c.Count}}){{end}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    {{if .Report.Intents}}
    <h2>意图表现</h2>
    <table>
        <tr><th>意图</th><th>记录数</th><th>提及率</th></tr>
        {{range .Report.Intents}}
        <tr><td>{{.Name}}</td><td>{{.Total}}</td><td>{{percent .MentionRate}}</td></tr>
        {{end}}
    </table>
    {{end}}

    <hr>
    <p><small>本报告由 GEO Monitor 自动生成。</small></p>
</body>
</html>
`

func (s *Service) buildEmailHTML(rep *models.Report) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"percent": report.Percent,
	}).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	data := struct {
		Brand  string
		Report *models.Report
	}{
		Brand:  s.config.Settings.Brand.Name,
		Report: rep,
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
