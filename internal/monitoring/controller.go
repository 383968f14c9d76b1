package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned when a pass is started while another is in progress
var ErrAlreadyRunning = errors.New("a monitoring pass is already running")

// DefaultLogLimit bounds the log lines kept for status polling
const DefaultLogLimit = 200

// RunState is the controller state
type RunState string

const (
	StateIdle    RunState = "idle"
	StateRunning RunState = "running"
)

// Runner executes one monitoring pass
type Runner interface {
	RunPass(ctx context.Context, progress ProgressFunc) (*PassResult, error)
}

// Status is a point-in-time copy of the controller state
type Status struct {
	State      RunState                 `json:"state"`
	StartedAt  *time.Time               `json:"started_at,omitempty"`
	LastError  string                   `json:"last_error,omitempty"`
	Providers  map[string]ProviderState `json:"providers"`
	LastResult *PassResult              `json:"last_result,omitempty"`
	Logs       []string                 `json:"logs"`
}

// RunController owns the run state that the HTTP surface and the scheduler share
type RunController struct {
	runner Runner
	logger *logrus.Logger
	logs   *LogBuffer

	mu         sync.Mutex
	state      RunState
	startedAt  time.Time
	lastErr    error
	providers  map[string]ProviderState
	lastResult *PassResult
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewRunController creates a controller and mirrors logger output into its log buffer
func NewRunController(runner Runner, logger *logrus.Logger, logLimit int) *RunController {
	if logLimit <= 0 {
		logLimit = DefaultLogLimit
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logs := NewLogBuffer(logLimit)
	logger.AddHook(logs)

	return &RunController{
		runner:    runner,
		logger:    logger,
		logs:      logs,
		state:     StateIdle,
		providers: make(map[string]ProviderState),
	}
}

// Start launches a pass in the background
func (c *RunController) Start(parent context.Context) error {
	ctx, err := c.begin(parent)
	if err != nil {
		return err
	}
	go c.execute(ctx)
	return nil
}

// Run executes a pass and waits for it
func (c *RunController) Run(parent context.Context) (*PassResult, error) {
	ctx, err := c.begin(parent)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx)
}

// Stop cancels the running pass. It returns false when nothing is running.
// The pass stops before its next request.
func (c *RunController) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.cancel == nil {
		return false
	}
	c.logger.Info("Stop requested for monitoring pass")
	c.cancel()
	return true
}

// Done returns a channel closed when the current pass finishes. It is nil when idle.
func (c *RunController) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Status returns a snapshot of the controller state
func (c *RunController) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		State:      c.state,
		Providers:  make(map[string]ProviderState, len(c.providers)),
		LastResult: c.lastResult,
		Logs:       c.logs.Lines(),
	}
	for name, state := range c.providers {
		status.Providers[name] = state
	}
	if !c.startedAt.IsZero() {
		started := c.startedAt
		status.StartedAt = &started
	}
	if c.lastErr != nil {
		status.LastError = c.lastErr.Error()
	}
	return status
}

func (c *RunController) begin(parent context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(parent)
	c.state = StateRunning
	c.startedAt = config.Now()
	c.lastErr = nil
	c.providers = make(map[string]ProviderState)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.logs.Reset()
	return ctx, nil
}

func (c *RunController) execute(ctx context.Context) (*PassResult, error) {
	result, err := c.runner.RunPass(ctx, c.setProviderState)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = fmt.Errorf("stopped: %w", err)
		}
		c.lastErr = err
		c.logger.Errorf("Monitoring pass failed: %v", err)
	}
	if result != nil {
		c.lastResult = result
	}
	c.state = StateIdle
	c.cancel()
	c.cancel = nil
	close(c.done)

	return result, err
}

func (c *RunController) setProviderState(provider string, state ProviderState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[provider] = state
}

// LogBuffer is a logrus hook keeping the most recent formatted lines
type LogBuffer struct {
	mu    sync.Mutex
	limit int
	lines []string
}

// NewLogBuffer creates a buffer holding at most limit lines
func NewLogBuffer(limit int) *LogBuffer {
	return &LogBuffer{limit: limit}
}

func (b *LogBuffer) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

func (b *LogBuffer) Fire(entry *logrus.Entry) error {
	stamp := entry.Time.In(config.Location).Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", stamp, entry.Message)
	if platform, ok := entry.Data["platform"]; ok {
		line = fmt.Sprintf("[%s] %v: %s", stamp, platform, entry.Message)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
	return nil
}

// Lines returns a copy of the buffered lines, oldest first
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Reset drops all buffered lines
func (b *LogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}
