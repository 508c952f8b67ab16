package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/outbox/registry"
)

// inflight is one row of a batch between Publish and settlement.
type inflight struct {
	event    models.OutboxEvent
	resolved *registry.ResolvedEvent
	result   publishResult
	err      error
}

type batchOutcome int

const (
	batchIdle batchOutcome = iota
	batchDrained
	// batchRetrying means at least one row failed and is still pending.
	batchRetrying
)

// processBatch publishes one batch inside a single transaction. All messages
// are handed to their publishers first so the client can bundle them, then
// each result is awaited and recorded in fetch order. It returns an error only
// when bookkeeping fails; publish failures are recorded on the row.
func (s *Service) processBatch(ctx context.Context) (batchOutcome, error) {
	outcome := batchIdle
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		outcome = batchDrained

		publishCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()

		batch := make([]inflight, len(events))
		for i, event := range events {
			batch[i] = s.start(publishCtx, event)
		}
		for i := range batch {
			pending, err := s.settle(ctx, publishCtx, tx, &batch[i])
			if err != nil {
				return err
			}
			if pending {
				outcome = batchRetrying
			}
		}
		return nil
	})
	if err != nil {
		return batchIdle, err
	}
	return outcome, nil
}

func (s *Service) start(ctx context.Context, event models.OutboxEvent) inflight {
	item := inflight{event: event}
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		item.err = err
		return item
	}
	item.resolved = resolved

	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		item.err = registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
		return item
	}
	item.result = pub.Publish(ctx, message(event, resolved))
	if item.result == nil {
		item.err = registry.NewNonRetryableError(fmt.Errorf("publisher returned no result for topic %s", topic))
	}
	return item
}

func message(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

// settle records the publish result. It reports true when the row stays
// pending for another attempt.
func (s *Service) settle(ctx, publishCtx context.Context, tx *gorm.DB, item *inflight) (bool, error) {
	if item.err == nil {
		_, item.err = item.result.Get(publishCtx)
	}
	event := item.event
	logCtx := s.logg.WithFields(ctx, s.fields(item))

	if item.err == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return false, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.IncPublished(string(event.EventType))
		s.logg.Info(logCtx, "outbox event published")
		return false, nil
	}

	if !retryable(item.err) {
		return false, s.deadLetter(logCtx, tx, event, enums.OutboxDLQReasonNonRetryable, item.err)
	}
	attempt := event.AttemptCount + 1
	if attempt >= s.maxAttempts {
		return false, s.deadLetter(logCtx, tx, event, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("gave up after %d attempts: %w", attempt, item.err))
	}

	s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
		"attempt_count": attempt,
		"error":         item.err.Error(),
	}), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, item.err); err != nil {
		return false, fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	s.metrics.IncFailed(string(event.EventType))
	return true, nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"error_reason": reason,
		"error":        cause.Error(),
	}), "outbox event dead-lettered")

	msg := cause.Error()
	err := s.dlq.InsertTx(tx, models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount + 1,
		FailedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.metrics.IncDeadLettered(string(event.EventType), string(reason))
	return nil
}

// retryable reports whether another attempt could succeed. Registry
// rejections and broker errors that depend only on the message or topic are
// final.
func retryable(err error) bool {
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return false
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied:
		return false
	}
	return true
}

func (s *Service) fields(item *inflight) map[string]any {
	event := item.event
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if item.resolved != nil {
		fields["event_id"] = item.resolved.Envelope.EventID
		fields["topic"] = item.resolved.Descriptor.Topic
	}
	return fields
}
