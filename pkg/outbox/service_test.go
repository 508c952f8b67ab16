package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/db/dbtest"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t, &models.OutboxEvent{}, &models.OutboxDLQ{})
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(NewRepository(conn), nil)
	aggregateID := uuid.New()
	actorID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{UserID: actorID, Role: "patient"},
			Data:          map[string]any{"orderNumber": "ORD-1"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, aggregateID, rows[0].AggregateID)
	require.Nil(t, rows[0].PublishedAt)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	require.Equal(t, 1, env.Version)
	require.Equal(t, rows[0].ID.String(), env.EventID)
	require.Equal(t, actorID, env.Actor.UserID)
	require.JSONEq(t, `{"orderNumber":"ORD-1"}`, string(env.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]any{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitRejectsInvalidEvents(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
	require.Error(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.OutboxEventType("nope"),
		AggregateType: enums.AggregateOrder,
	}))
	require.Error(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventStockReserved,
		AggregateType: enums.OutboxAggregateType("nope"),
	}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	first := models.OutboxEvent{
		EventType:     enums.EventStockReserved,
		AggregateType: enums.AggregateInventory,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	second := first
	second.AggregateID = uuid.New()
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("timeout")))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, rows[0].AttemptCount)
	require.Equal(t, "timeout", *rows[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, rows[0].ID, errors.New("gone"), 3))
	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestDLQRepositoryTruncatesAndFinds(t *testing.T) {
	conn := openTestDB(t)
	repo := NewDLQRepository(conn)
	eventID := uuid.New()
	long := make([]byte, maxErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, repo.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}))

	found, err := repo.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, *found.ErrorMessage, maxErrorLen)

	missing, err := repo.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	rows, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDLQRequeueResetsAttemptBudget(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	dlq := NewDLQRepository(conn)
	ctx := context.Background()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
	}
	require.NoError(t, repo.Insert(conn, event))
	require.NoError(t, repo.MarkTerminalTx(conn, event.ID, errors.New("topic missing"), 10))
	msg := "topic missing"
	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
		AttemptCount:  10,
	}))

	ok, err := dlq.Requeue(ctx, event.ID)
	require.NoError(t, err)
	require.True(t, ok)

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Zero(t, rows[0].AttemptCount)
	require.Nil(t, rows[0].LastError)

	gone, err := dlq.FindByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	ok, err = dlq.Requeue(ctx, event.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDLQRequeueRecreatesPurgedRow(t *testing.T) {
	conn := openTestDB(t)
	dlq := NewDLQRepository(conn)
	eventID := uuid.New()
	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventStockRestored,
		AggregateType: enums.AggregateInventory,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
	}))

	ok, err := dlq.Requeue(context.Background(), eventID)
	require.NoError(t, err)
	require.True(t, ok)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row, "id = ?", eventID).Error)
	require.Equal(t, enums.EventStockRestored, row.EventType)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "ab", truncate("abc", 2))
	// "दवा" is three 3-byte runes
	require.Equal(t, "द", truncate("दवा", 4))
	require.Equal(t, "short", truncate("short", 10))
}
