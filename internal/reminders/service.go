package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

// Service manages a user's own reminders.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateReminderInput) (*ReminderDTO, error)
	List(ctx context.Context, userID uuid.UUID, input ListRemindersInput) (*pagination.Page[ReminderDTO], error)
	Deactivate(ctx context.Context, userID uuid.UUID, role enums.UserRole, id uuid.UUID) (*ReminderDTO, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateReminderInput) (*ReminderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}
	if !input.Frequency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid frequency")
	}
	if input.StartsAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "startsAt is required")
	}
	start := input.StartsAt.UTC()
	var ends *time.Time
	if input.EndsAt != nil {
		v := input.EndsAt.UTC()
		if v.Before(start) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "endsAt must not be before startsAt")
		}
		ends = &v
	}

	reminder := &models.Reminder{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Frequency: input.Frequency,
		StartsAt:  start,
		NextDueAt: start,
		EndsAt:    ends,
		Active:    true,
	}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reminder")
	}
	dto := FromModel(*reminder)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, input ListRemindersInput) (*pagination.Page[ReminderDTO], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, input.ActiveOnly, cursor, input.Pagination.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reminders")
	}
	page := pagination.BuildPage(rows, input.Pagination.Limit, func(r models.Reminder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	items := make([]ReminderDTO, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, FromModel(r))
	}
	return &pagination.Page[ReminderDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// Deactivate is allowed for the owner or an admin. Deactivating an inactive
// reminder is a no-op.
func (s *service) Deactivate(ctx context.Context, userID uuid.UUID, role enums.UserRole, id uuid.UUID) (*ReminderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	reminder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reminder")
	}
	if reminder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
	}
	if reminder.UserID != userID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reminder does not belong to user")
	}
	if reminder.Active {
		if _, err := s.repo.Deactivate(ctx, id, s.now()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate reminder")
		}
		reminder.Active = false
	}
	dto := FromModel(*reminder)
	return &dto, nil
}
