package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/outbox"
	"github.com/medimitra/medimitra-backend/pkg/outbox/payloads"
)

// Audience selects who receives a Notice.
type Audience int

const (
	// AudienceUser targets Notice.UserID only.
	AudienceUser Audience = iota
	// AudienceAdmins fans out to every active admin.
	AudienceAdmins
)

// Notice is a request to notify someone about something that already happened.
type Notice struct {
	Audience Audience
	UserID   uuid.UUID
	Type     enums.NotificationType
	Title    string
	Message  string
	Link     string
}

// Notifier is the side channel domain services call after their transaction commits.
type Notifier interface {
	Dispatch(ctx context.Context, notices ...Notice)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recipientLister interface {
	ListActiveIDsByRole(ctx context.Context, role enums.UserRole) ([]uuid.UUID, error)
}

// Dispatcher persists in-app notifications and queues them for external delivery.
// Failures never propagate to the caller.
type Dispatcher struct {
	db      txRunner
	repo    *Repository
	users   recipientLister
	emitter outbox.Emitter
	logg    *logger.Logger
}

func NewDispatcher(db txRunner, repo *Repository, users recipientLister, emitter outbox.Emitter, logg *logger.Logger) (*Dispatcher, error) {
	if db == nil {
		return nil, errors.New("db client required")
	}
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if users == nil {
		return nil, errors.New("user lister required")
	}
	return &Dispatcher{db: db, repo: repo, users: users, emitter: emitter, logg: logg}, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, notices ...Notice) {
	if d == nil {
		return
	}
	for _, notice := range notices {
		recipients, err := d.recipients(ctx, notice)
		if err != nil {
			d.logError(ctx, notice, "resolve notification recipients", err)
			continue
		}
		for _, userID := range recipients {
			if err := d.deliver(ctx, userID, notice); err != nil {
				d.logError(ctx, notice, "persist notification", err)
			}
		}
	}
}

func (d *Dispatcher) recipients(ctx context.Context, notice Notice) ([]uuid.UUID, error) {
	switch notice.Audience {
	case AudienceAdmins:
		return d.users.ListActiveIDsByRole(ctx, enums.UserRoleAdmin)
	case AudienceUser:
		if notice.UserID == uuid.Nil {
			return nil, errors.New("notice has no recipient")
		}
		return []uuid.UUID{notice.UserID}, nil
	default:
		return nil, fmt.Errorf("unknown audience %d", notice.Audience)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, userID uuid.UUID, notice Notice) error {
	return d.db.WithTx(ctx, func(tx *gorm.DB) error {
		row := &models.Notification{
			UserID:  userID,
			Type:    notice.Type,
			Title:   notice.Title,
			Message: notice.Message,
		}
		if notice.Link != "" {
			link := notice.Link
			row.Link = &link
		}
		if err := d.repo.WithTx(tx).Create(ctx, row); err != nil {
			return err
		}
		if d.emitter == nil {
			return nil
		}
		return d.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   row.ID,
			Data: payloads.NotificationRequestedEvent{
				NotificationID: row.ID,
				UserID:         userID,
				Type:           notice.Type,
				Title:          notice.Title,
				Message:        notice.Message,
				Link:           notice.Link,
			},
		})
	})
}

func (d *Dispatcher) logError(ctx context.Context, notice Notice, msg string, err error) {
	if d.logg == nil {
		return
	}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"notification_type": notice.Type,
		"recipient":         notice.UserID.String(),
	})
	d.logg.Error(ctx, msg, err)
}
