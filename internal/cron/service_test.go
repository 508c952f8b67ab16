package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	released int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.released++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type panickingJob struct{}

func (panickingJob) Name() string              { return "panicky" }
func (panickingJob) Run(context.Context) error { panic("nil supplier") }

type slowJob struct{}

func (slowJob) Name() string { return "slow" }
func (slowJob) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry:   NewRegistry(jobs...),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		Interval:   time.Hour,
		JobTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	return service
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	ok := &testJob{name: "reminder-dispatch"}
	failing := &testJob{name: "inventory-alerts", err: errors.New("boom")}
	after := &testJob{name: "notification-cleanup"}
	lock := &fakeLock{}
	service := newTestService(t, lock, ok, failing, panickingJob{}, after)

	err := service.RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.ErrorContains(t, err, "inventory-alerts: boom")
	require.ErrorContains(t, err, "panicky: panic: nil supplier")
	require.Equal(t, 1, ok.runs)
	require.Equal(t, 1, failing.runs)
	require.Equal(t, 1, after.runs)
	require.Equal(t, 1, lock.released)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "reminder-dispatch"}
	service := newTestService(t, &fakeLock{acquired: true}, job)

	require.ErrorIs(t, service.RunOnce(context.Background()), ErrLockHeld)
	require.Zero(t, job.runs)
}

func TestRunOnceBoundsEachJob(t *testing.T) {
	service := newTestService(t, &fakeLock{}, slowJob{})
	err := service.RunOnce(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunStartsWithImmediateCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := &cancellingJob{cancel: cancel}
	service := newTestService(t, &fakeLock{}, job)

	require.ErrorIs(t, service.Run(ctx), context.Canceled)
	require.Equal(t, 1, job.runs)
}

type cancellingJob struct {
	cancel context.CancelFunc
	runs   int
}

func (c *cancellingJob) Name() string { return "startup" }

func (c *cancellingJob) Run(context.Context) error {
	c.runs++
	c.cancel()
	return nil
}
