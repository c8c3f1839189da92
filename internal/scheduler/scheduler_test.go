package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/mailnotify/internal/scheduler"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (p *stubPruner) PruneBefore(_ context.Context, t time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, t)
	return p.removed, p.err
}

func (p *stubPruner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestNew_Validation(t *testing.T) {
	_, err := scheduler.New(scheduler.Config{Retention: time.Hour})
	require.Error(t, err)

	_, err = scheduler.New(scheduler.Config{Store: &stubPruner{}})
	require.Error(t, err)
}

func TestRunOnce_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	p := &stubPruner{removed: 4}
	s, err := scheduler.New(scheduler.Config{
		Store:     p,
		Retention: 48 * time.Hour,
		Logger:    newTestLogger(),
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), p.cutoffs[0])
}

func TestRunOnce_StoreError(t *testing.T) {
	p := &stubPruner{err: errors.New("db locked")}
	s, err := scheduler.New(scheduler.Config{Store: p, Retention: time.Hour, Logger: newTestLogger()})
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}

func TestStart_RunsImmediately(t *testing.T) {
	p := &stubPruner{}
	s, err := scheduler.New(scheduler.Config{
		Store:     p,
		Retention: time.Hour,
		Interval:  time.Hour,
		Logger:    newTestLogger(),
	})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool { return p.calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
