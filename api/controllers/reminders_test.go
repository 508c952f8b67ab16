package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/medimitra/medimitra-backend/internal/reminders"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

type stubRemindersService struct {
	userID      uuid.UUID
	role        enums.UserRole
	createInput reminders.CreateReminderInput
	listInput   reminders.ListRemindersInput
}

func (s *stubRemindersService) Create(ctx context.Context, userID uuid.UUID, input reminders.CreateReminderInput) (*reminders.ReminderDTO, error) {
	s.userID = userID
	s.createInput = input
	return &reminders.ReminderDTO{ID: uuid.New(), Title: input.Title, Active: true}, nil
}

func (s *stubRemindersService) List(ctx context.Context, userID uuid.UUID, input reminders.ListRemindersInput) (*pagination.Page[reminders.ReminderDTO], error) {
	s.userID = userID
	s.listInput = input
	return &pagination.Page[reminders.ReminderDTO]{Items: []reminders.ReminderDTO{}}, nil
}

func (s *stubRemindersService) Deactivate(ctx context.Context, userID uuid.UUID, role enums.UserRole, id uuid.UUID) (*reminders.ReminderDTO, error) {
	s.userID = userID
	s.role = role
	return &reminders.ReminderDTO{ID: id}, nil
}

func TestCreateReminderDecodesSchedule(t *testing.T) {
	svc := &stubRemindersService{}
	userID := uuid.New()
	body := `{"title":"Metformin","message":"500mg with breakfast","frequency":"daily","startsAt":"2026-03-01T08:00:00+05:30"}`
	req := withTestActor(httptest.NewRequest(http.MethodPost, "/api/reminders", strings.NewReader(body)), userID, enums.UserRolePatient)
	rec := httptest.NewRecorder()

	CreateReminder(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, userID, svc.userID)
	require.Equal(t, enums.ReminderFrequencyDaily, svc.createInput.Frequency)
	require.True(t, svc.createInput.StartsAt.Equal(time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)))
}

func TestCreateReminderRequiresTitle(t *testing.T) {
	body := `{"message":"x","frequency":"daily","startsAt":"2026-03-01T08:00:00Z"}`
	req := withTestActor(httptest.NewRequest(http.MethodPost, "/api/reminders", strings.NewReader(body)), uuid.New(), enums.UserRolePatient)
	rec := httptest.NewRecorder()

	CreateReminder(&stubRemindersService{}, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRemindersActiveOnly(t *testing.T) {
	svc := &stubRemindersService{}
	req := withTestActor(httptest.NewRequest(http.MethodGet, "/api/reminders?activeOnly=true&limit=3", nil), uuid.New(), enums.UserRoleDoctor)
	rec := httptest.NewRecorder()

	ListReminders(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.listInput.ActiveOnly)
	require.Equal(t, 3, svc.listInput.Pagination.Limit)
}

func TestDeactivateReminderPassesRole(t *testing.T) {
	svc := &stubRemindersService{}
	adminID := uuid.New()
	reminderID := uuid.New()
	req := withTestActor(httptest.NewRequest(http.MethodPatch, "/api/reminders/"+reminderID.String()+"/deactivate", nil), adminID, enums.UserRoleAdmin)
	req = addRouteParam(req, "id", reminderID.String())
	rec := httptest.NewRecorder()

	DeactivateReminder(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, adminID, svc.userID)
	require.Equal(t, enums.UserRoleAdmin, svc.role)
}
