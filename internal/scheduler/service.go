package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/openclaw/geo-monitor/internal/monitoring"
	"github.com/openclaw/geo-monitor/internal/notifications"
	"github.com/openclaw/geo-monitor/internal/report"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PassRunner runs one monitoring pass and waits for it
type PassRunner interface {
	Run(ctx context.Context) (*monitoring.PassResult, error)
}

// RecordLoader reads the result log
type RecordLoader interface {
	LoadAll(days int) ([]models.Record, error)
}

// Service handles scheduling of monitoring passes and report delivery
type Service struct {
	config        *config.Config
	runner        PassRunner
	loader        RecordLoader
	notifications notifications.NotificationInterface
	cron          *cron.Cron
}

// NewService creates a new scheduler service. Schedules are evaluated in UTC+8.
func NewService(cfg *config.Config, runner PassRunner, loader RecordLoader, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:        cfg,
		runner:        runner,
		loader:        loader,
		notifications: notifier,
		cron:          cron.New(cron.WithSeconds(), cron.WithLocation(config.Location)),
	}
}

// Expression returns the cron expression for a report schedule
func Expression(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM
		return "0 0 9 * * *"
	default:
		// Run weekly on Monday at 9 AM
		return "0 0 9 * * MON"
	}
}

// ReportDays returns how many days of records a scheduled report covers
func ReportDays(schedule string) int {
	if schedule == "daily" {
		return 1
	}
	return 7
}

// Start begins the scheduled monitoring
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(Expression(s.config.ReportSchedule), func() {
		logrus.Info("Starting scheduled monitoring pass")
		if err := s.RunScheduled(context.Background()); err != nil {
			logrus.Errorf("Scheduled monitoring pass failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule (%s)", s.config.ReportSchedule, config.Location)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		logrus.Info("Scheduler stopped")
	}
}

// RunScheduled runs a pass, then summarizes the scheduled period and delivers
// the report. Failed passes and skipped providers are sent as alerts. A pass that
// is already running is left alone and this tick is skipped.
func (s *Service) RunScheduled(ctx context.Context) error {
	result, err := s.runner.Run(ctx)
	if errors.Is(err, monitoring.ErrAlreadyRunning) {
		logrus.Warn("Skipping scheduled monitoring pass: a pass is already running")
		return nil
	}
	if err != nil {
		s.alert("pass_failed", "GEO 监测任务失败", err.Error())
		return fmt.Errorf("monitoring pass failed: %w", err)
	}

	if skipped := skippedProviders(result); len(skipped) > 0 {
		s.alert("providers_skipped", "部分平台连续失败已跳过", strings.Join(skipped, ", "))
	}

	days := ReportDays(s.config.ReportSchedule)
	records, err := s.loader.LoadAll(days)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	rep := report.Summarize(records, s.config.ProviderNames(), s.config.TopN, fmt.Sprintf("%s (%d 天)", s.config.ReportSchedule, days))
	logrus.Infof("Scheduled report covers %d records, mention rate %s", rep.TotalRecords, report.Percent(rep.MentionRate))

	return s.notifications.SendReport(rep)
}

func (s *Service) alert(kind, title, message string) {
	err := s.notifications.SendAlert(&models.Alert{
		Type:      kind,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		logrus.Errorf("Failed to send alert: %v", err)
	}
}

func skippedProviders(result *monitoring.PassResult) []string {
	if result == nil {
		return nil
	}
	var skipped []string
	for name, state := range result.Providers {
		if state == monitoring.ProviderSkipped {
			skipped = append(skipped, name)
		}
	}
	sort.Strings(skipped)
	return skipped
}
