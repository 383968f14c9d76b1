package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner reports its providers as active and waits for cancellation
type blockingRunner struct {
	started chan struct{}
}

func (b *blockingRunner) RunPass(ctx context.Context, progress ProgressFunc) (*PassResult, error) {
	progress("Deepseek", ProviderActive)
	close(b.started)
	<-ctx.Done()
	return &PassResult{RunID: "cancelled"}, ctx.Err()
}

// instantRunner finishes immediately with a fixed outcome
type instantRunner struct {
	result *PassResult
	err    error
}

func (r *instantRunner) RunPass(ctx context.Context, progress ProgressFunc) (*PassResult, error) {
	progress("Deepseek", ProviderActive)
	progress("Deepseek", ProviderDone)
	return r.result, r.err
}

func waitDone(t *testing.T, c *RunController) {
	t.Helper()
	done := c.Done()
	require.NotNil(t, done)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not finish")
	}
}

func TestRunController_StartStop(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{})}
	controller := NewRunController(runner, quietLogger(), 10)

	assert.Equal(t, StateIdle, controller.Status().State)
	assert.False(t, controller.Stop(), "nothing to stop while idle")

	require.NoError(t, controller.Start(context.Background()))
	<-runner.started

	status := controller.Status()
	assert.Equal(t, StateRunning, status.State)
	assert.NotNil(t, status.StartedAt)
	assert.Equal(t, ProviderActive, status.Providers["Deepseek"])

	assert.ErrorIs(t, controller.Start(context.Background()), ErrAlreadyRunning)
	_, err := controller.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	assert.True(t, controller.Stop())
	waitDone(t, controller)

	status = controller.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Contains(t, status.LastError, "stopped")
	require.NotNil(t, status.LastResult)
	assert.Equal(t, "cancelled", status.LastResult.RunID)
}

func TestRunController_Run(t *testing.T) {
	runner := &instantRunner{result: &PassResult{RunID: "run-1", Records: 4}}
	controller := NewRunController(runner, quietLogger(), 10)

	result, err := controller.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.Records)

	status := controller.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Empty(t, status.LastError)
	assert.Equal(t, ProviderDone, status.Providers["Deepseek"])
	assert.Equal(t, "run-1", status.LastResult.RunID)

	runner.err = ErrNoActiveProviders
	runner.result = nil
	_, err = controller.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoActiveProviders))

	status = controller.Status()
	assert.Equal(t, ErrNoActiveProviders.Error(), status.LastError)
	assert.Equal(t, "run-1", status.LastResult.RunID, "a failed pass keeps the previous result")
}

func TestLogBuffer(t *testing.T) {
	logger := quietLogger()
	controller := NewRunController(&instantRunner{}, logger, 2)

	logger.Info("first")
	logger.WithField("platform", "Kimi").Warn("second")
	logger.Debug("ignored")
	logger.Error("third")

	lines := controller.Status().Logs
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Kimi: second")
	assert.Contains(t, lines[1], "third")
}
