package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/extract"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/openclaw/geo-monitor/internal/providers"
	"github.com/openclaw/geo-monitor/internal/questions"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNoActiveProviders is returned when no enabled provider has a credential
var ErrNoActiveProviders = errors.New("no active providers configured")

const answerTemperature = 0.7

// ProviderState is the per-provider state within one pass
type ProviderState string

const (
	ProviderActive  ProviderState = "ACTIVE"
	ProviderSkipped ProviderState = "SKIPPED"
	ProviderDone    ProviderState = "DONE"
)

// ProgressFunc is notified whenever a provider changes state
type ProgressFunc func(provider string, state ProviderState)

// RecordStore persists records; the result log implements it
type RecordStore interface {
	Append(record models.Record) error
}

// ProviderFactory builds the active providers for a pass
type ProviderFactory func(cfg *config.Config) ([]providers.Provider, error)

// Service drives monitoring passes over every active provider
type Service struct {
	config       *config.Config
	store        RecordStore
	extractor    *extract.Extractor
	logger       *logrus.Logger
	newProviders ProviderFactory
	sleep        func(ctx context.Context, d time.Duration) error
	newTimer     func() backoff.Timer
	now          func() time.Time
	metrics      *Metrics
	mu           sync.RWMutex
}

// Metrics holds monitoring metrics
type Metrics struct {
	TotalRecords     int            `json:"total_records"`
	TotalPasses      int            `json:"total_passes"`
	LastRun          time.Time      `json:"last_run"`
	LastRunID        string         `json:"last_run_id"`
	LastRunDuration  string         `json:"last_run_duration"`
	LastRunRecords   int            `json:"last_run_records"`
	LastRunMentioned int            `json:"last_run_mentioned"`
	PlatformRecords  map[string]int `json:"platform_records"`
	SkippedProviders []string       `json:"skipped_providers"`
	ErrorCount       int            `json:"error_count"`
}

// PassResult summarizes one monitoring pass
type PassResult struct {
	RunID      string                   `json:"run_id"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Questions  int                      `json:"questions"`
	Records    int                      `json:"records"`
	Mentioned  int                      `json:"mentioned"`
	Failures   int                      `json:"failures"`
	Platforms  map[string]int           `json:"platforms"`
	Providers  map[string]ProviderState `json:"providers"`

	mu sync.Mutex
}

func (r *PassResult) addRecord(record models.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records++
	r.Platforms[record.Platform]++
	if record.IsMentioned {
		r.Mentioned++
	}
}

func (r *PassResult) addFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures++
}

func (r *PassResult) setState(provider string, state ProviderState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Providers[provider] = state
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, store RecordStore, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		config:       cfg,
		store:        store,
		extractor:    cfg.Extractor(),
		logger:       logger,
		newProviders: providers.NewActive,
		sleep:        sleepContext,
		now:          config.Now,
		metrics: &Metrics{
			PlatformRecords: make(map[string]int),
		},
	}
}

// SetProviderFactory replaces how providers are built for a pass
func (s *Service) SetProviderFactory(factory ProviderFactory) {
	s.newProviders = factory
}

// RunPass generates the question set once and asks it of every active provider.
// Provider failures are absorbed by retries and the per-provider circuit breaker;
// only configuration errors and cancellation are returned.
func (s *Service) RunPass(ctx context.Context, progress ProgressFunc) (*PassResult, error) {
	active, err := s.newProviders(s.config)
	if err != nil {
		return nil, fmt.Errorf("failed to build providers: %w", err)
	}
	if len(active) == 0 {
		return nil, ErrNoActiveProviders
	}

	result := &PassResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Platforms: make(map[string]int),
		Providers: make(map[string]ProviderState),
	}
	logger := s.logger.WithField("run_id", result.RunID)

	notify := func(name string, state ProviderState) {
		result.setState(name, state)
		if progress != nil {
			progress(name, state)
		}
	}
	for _, p := range active {
		notify(p.GetName(), ProviderActive)
	}

	analyst := providers.NewAssistant(providers.Pick(active, s.config.Settings.Generator), s.config.Settings.Brand.Name)
	logger.Infof("Starting monitoring pass with %d providers, generator %s", len(active), analyst.Name())

	set, err := questions.NewGenerator(analyst, s.config.QuestionCount, s.logger).Build(ctx, s.config.Intents())
	if err != nil {
		return nil, err
	}
	result.Questions = set.Total()
	if result.Questions == 0 {
		logger.Warn("No questions to ask; configure fallback questions for each intent")
	}

	run := func(ctx context.Context, p providers.Provider) error {
		state, err := s.monitorProvider(ctx, result, p, set, analyst)
		if err != nil {
			return err
		}
		notify(p.GetName(), state)
		return nil
	}

	if s.config.ParallelProviders {
		g, gctx := errgroup.WithContext(ctx)
		for _, p := range active {
			p := p
			g.Go(func() error { return run(gctx, p) })
		}
		err = g.Wait()
	} else {
		for _, p := range active {
			if err = run(ctx, p); err != nil {
				break
			}
		}
	}

	result.FinishedAt = s.now()
	s.updateMetrics(result)

	if err != nil {
		logger.Warnf("Monitoring pass stopped after %d records: %v", result.Records, err)
		return result, err
	}

	logger.Infof("Monitoring pass completed in %v: %d records, %d mentioned, %d failures",
		result.FinishedAt.Sub(result.StartedAt), result.Records, result.Mentioned, result.Failures)
	return result, nil
}

// monitorProvider walks intents then questions for one provider. The returned
// error is non-nil only when the pass was cancelled.
func (s *Service) monitorProvider(ctx context.Context, result *PassResult, p providers.Provider, set *models.QuestionSet, analyst *providers.Assistant) (ProviderState, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"run_id":   result.RunID,
		"platform": p.GetName(),
	})

	failures := 0
	for _, intent := range set.Intents {
		for _, question := range set.Questions[intent] {
			if err := ctx.Err(); err != nil {
				return ProviderActive, err
			}

			chat, err := s.ask(ctx, logger.WithField("intent", intent), p, question)
			if err != nil {
				if ctx.Err() != nil {
					return ProviderActive, ctx.Err()
				}
				failures++
				result.addFailure()
				logger.Warnf("Question failed (%d consecutive): %v", failures, err)
				if failures >= s.config.FailureThreshold {
					logger.Warnf("Skipping remaining questions after %d consecutive failures", failures)
					return ProviderSkipped, nil
				}
			} else {
				failures = 0
				record := s.buildRecord(ctx, logger, result.RunID, intent, p.GetName(), question, chat, analyst)
				if err := s.store.Append(record); err != nil {
					logger.Errorf("Failed to store record: %v", err)
					result.addFailure()
				} else {
					result.addRecord(record)
					logger.Infof("Recorded answer (mentioned=%t, competitors=%d, sources=%d)",
						record.IsMentioned, len(record.Competitors), len(record.Sources))
				}
			}

			if err := s.sleep(ctx, s.config.PacingDelay); err != nil {
				return ProviderActive, err
			}
		}
	}

	logger.Info("Provider finished")
	return ProviderDone, nil
}

// ask sends one question with up to MaxAttempts tries. Blank content is a failure.
// A request that has started runs to completion even if the pass is stopped;
// RequestTimeout still bounds it. Stopping only prevents the next attempt.
func (s *Service) ask(ctx context.Context, logger *logrus.Entry, p providers.Provider, question string) (*models.ChatResult, error) {
	requestCtx := context.WithoutCancel(ctx)

	var chat *models.ChatResult
	attempt := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++

		result, err := p.Chat(requestCtx, providers.UserMessage(question), answerTemperature)
		if err == nil && strings.TrimSpace(result.Content) == "" {
			err = providers.ErrEmptyResponse
		}
		if err != nil {
			return err
		}
		chat = result
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.WithField("attempt", attempt).Debugf("Request failed, retrying in %v: %v", wait, err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.config.RetryDelay), uint64(s.config.MaxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, s.retryTimer()); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *Service) retryTimer() backoff.Timer {
	if s.newTimer == nil {
		return nil
	}
	return s.newTimer()
}

func (s *Service) buildRecord(ctx context.Context, logger *logrus.Entry, runID, intent, platform, question string, chat *models.ChatResult, analyst *providers.Assistant) models.Record {
	analysis := s.extractor.Analyze(chat.Content, chat.Reasoning)
	// follow-up calls belong to the answer already received
	requestCtx := context.WithoutCancel(ctx)
	breakdown := analysis.Breakdown

	record := models.Record{
		RunID:                runID,
		Timestamp:            s.now(),
		Intent:               intent,
		Platform:             platform,
		Question:             question,
		Answer:               chat.Content,
		Reasoning:            chat.Reasoning,
		IsMentioned:          analysis.IsMentioned,
		MentionedInReasoning: analysis.MentionedInReasoning,
		Competitors:          analysis.Competitors,
		Sources:              analysis.Sources,
		SourcesBreakdown:     &breakdown,
		AnswerLength:         utf8.RuneCountInString(chat.Content),
		ReasoningLength:      utf8.RuneCountInString(chat.Reasoning),
	}

	if s.config.EnableStrategyAnalysis {
		strategy, err := analyst.AnalyzeStrategy(requestCtx, intent, chat.Content, analysis.Competitors)
		if err != nil {
			logger.Warnf("Strategy analysis failed: %v", err)
		} else {
			record.Strategy = &strategy
		}
	}

	if s.config.EnableStructuredSources {
		sources, err := analyst.ExtractStructuredSources(requestCtx, chat.Content)
		if err != nil {
			logger.Warnf("Structured source extraction failed: %v", err)
		} else {
			record.StructuredSources = sources
		}
	}

	return record
}

func (s *Service) updateMetrics(result *PassResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalPasses++
	s.metrics.TotalRecords += result.Records
	s.metrics.LastRun = result.FinishedAt
	s.metrics.LastRunID = result.RunID
	s.metrics.LastRunDuration = result.FinishedAt.Sub(result.StartedAt).String()
	s.metrics.LastRunRecords = result.Records
	s.metrics.LastRunMentioned = result.Mentioned
	s.metrics.ErrorCount += result.Failures

	s.metrics.SkippedProviders = nil
	for name, state := range result.Providers {
		if state == ProviderSkipped {
			s.metrics.SkippedProviders = append(s.metrics.SkippedProviders, name)
		}
	}
	sort.Strings(s.metrics.SkippedProviders)
	for name, count := range result.Platforms {
		s.metrics.PlatformRecords[name] += count
	}
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
