package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/medimitra/medimitra-backend/pkg/logger"
)

type reminderPoller interface {
	RunDue(ctx context.Context, now time.Time) (int, error)
}

type ReminderDispatchJobParams struct {
	Logger *logger.Logger
	Poller reminderPoller
}

// NewReminderDispatchJob delivers every reminder whose next due time has
// passed. Because Service runs a cycle at start-up, the first run doubles as
// the recovery sweep after downtime.
func NewReminderDispatchJob(params ReminderDispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Poller == nil {
		return nil, fmt.Errorf("reminder poller required")
	}
	return &reminderDispatchJob{
		logg:   params.Logger,
		poller: params.Poller,
		now:    time.Now,
	}, nil
}

type reminderDispatchJob struct {
	logg   *logger.Logger
	poller reminderPoller
	now    func() time.Time
}

func (j *reminderDispatchJob) Name() string { return "reminder-dispatch" }

func (j *reminderDispatchJob) Run(ctx context.Context) error {
	delivered, err := j.poller.RunDue(ctx, j.now())
	logCtx := j.logg.WithField(ctx, "reminders_delivered", delivered)
	if err != nil {
		return fmt.Errorf("reminder dispatch: %w", err)
	}
	if delivered > 0 {
		j.logg.Info(logCtx, "reminders delivered")
	}
	return nil
}
