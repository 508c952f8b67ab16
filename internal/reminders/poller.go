package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/logger"
)

const defaultBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PollerParams wires the reminder poller.
type PollerParams struct {
	DB        txRunner
	Repo      *Repository
	Notifier  notifications.Notifier
	Logger    *logger.Logger
	BatchSize int
}

// Poller delivers due reminders from the persisted schedule.
type Poller struct {
	db        txRunner
	repo      *Repository
	notifier  notifications.Notifier
	logg      *logger.Logger
	batchSize int
}

func NewPoller(params PollerParams) (*Poller, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Repo == nil {
		return nil, errors.New("reminders repository required")
	}
	if params.Notifier == nil {
		return nil, errors.New("notifier required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Poller{
		db:        params.DB,
		repo:      params.Repo,
		notifier:  params.Notifier,
		logg:      params.Logger,
		batchSize: batch,
	}, nil
}

// RunDue claims and delivers every reminder due at or before now. It returns
// the number delivered. Occurrences missed while nothing was polling collapse
// into a single delivery.
func (p *Poller) RunDue(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	delivered := 0
	var errs error
	for {
		due, err := p.repo.ListDue(ctx, now, p.batchSize)
		if err != nil {
			return delivered, multierr.Append(errs, fmt.Errorf("list due reminders: %w", err))
		}
		progressed := false
		for _, reminder := range due {
			claimed, err := p.claim(ctx, reminder, now)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("claim reminder %s: %w", reminder.ID, err))
				continue
			}
			if !claimed {
				if p.logg != nil {
					p.logg.Debug(p.logg.WithField(ctx, "reminder_id", reminder.ID.String()), "reminder already claimed")
				}
				continue
			}
			progressed = true
			p.notifier.Dispatch(ctx, Notice(reminder))
			delivered++
		}
		if len(due) < p.batchSize || !progressed {
			break
		}
	}
	return delivered, errs
}

func (p *Poller) claim(ctx context.Context, reminder models.Reminder, now time.Time) (bool, error) {
	updates := map[string]any{
		"last_sent_at": now,
		"updated_at":   now,
	}
	next, ok := NextOccurrence(reminder.Frequency, reminder.StartsAt, reminder.NextDueAt, now)
	if !ok || (reminder.EndsAt != nil && next.After(*reminder.EndsAt)) {
		updates["active"] = false
	} else {
		updates["next_due_at"] = next
	}

	var claimed bool
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		claimed, err = p.repo.WithTx(tx).Claim(ctx, reminder.ID, reminder.NextDueAt, updates)
		return err
	})
	return claimed, err
}

// NextOccurrence advances due along the schedule anchored at start until it
// is strictly after now. One-shot reminders have no next occurrence.
func NextOccurrence(frequency enums.ReminderFrequency, start, due, now time.Time) (time.Time, bool) {
	next, ok := frequency.Next(start, due)
	if !ok {
		return time.Time{}, false
	}
	for !next.After(now) {
		next, _ = frequency.Next(start, next)
	}
	return next.UTC(), true
}

// Notice builds the in-app notification for one reminder occurrence.
func Notice(reminder models.Reminder) notifications.Notice {
	return notifications.Notice{
		Audience: notifications.AudienceUser,
		UserID:   reminder.UserID,
		Type:     enums.NotificationTypeReminder,
		Title:    reminder.Title,
		Message:  reminder.Message,
		Link:     "/reminders/" + reminder.ID.String(),
	}
}
