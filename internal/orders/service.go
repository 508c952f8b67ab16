package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/outbox"
	"github.com/medimitra/medimitra-backend/pkg/outbox/payloads"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

const autoApprovedReason = "auto-approved"

// Service defines the order workflow.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDetailDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDetailDTO, error)
	List(ctx context.Context, actor Actor, input ListOrdersInput) (*pagination.Page[OrderDTO], error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID, input ApproveOrderInput) (*OrderDetailDTO, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, input RejectOrderInput) (*OrderDetailDTO, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, input CancelOrderInput) (*OrderDetailDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input UpdateStatusInput) (*OrderDetailDTO, error)
	Analytics(ctx context.Context, actor Actor, from, to time.Time) (*AnalyticsDTO, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo     Repository
	DB       txRunner
	Stock    StockKeeper
	Outbox   outboxPublisher
	Notifier notifications.Notifier
	Metrics  orderMetrics
	Logger   *logger.Logger
	Pricing  Pricing
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    StockKeeper
	outbox   outboxPublisher
	notifier notifications.Notifier
	metrics  orderMetrics
	logg     *logger.Logger
	pricing  Pricing
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.DB,
		stock:    params.Stock,
		outbox:   params.Outbox,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		pricing:  params.Pricing,
		now:      time.Now,
	}, nil
}

type requestedLine struct {
	ItemID   uuid.UUID
	Quantity int
	Notes    *string
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDetailDTO, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if !input.OrderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.OrderPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}
	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}
	if actor.Role == enums.UserRolePatient && input.OrderType == enums.OrderTypePrescription {
		if input.PrescriptionDetails == nil || strings.TrimSpace(input.PrescriptionDetails.PrescriptionNumber) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prescription number is required for prescription orders")
		}
	}

	now := s.now().UTC()
	var (
		order    *models.Order
		items    []models.OrderLineItem
		history  []models.OrderStatusEntry
		lowStock []models.InventoryItem
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ItemID)
		}
		stock, err := s.stock.Load(ctx, tx, ids)
		if err != nil {
			return err
		}

		built := make([]models.OrderLineItem, 0, len(lines))
		for _, line := range lines {
			item, ok := stock[line.ItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found").
					WithDetails(map[string]any{"itemId": line.ItemID.String()})
			}
			if err := checkOrderable(item, now); err != nil {
				return err
			}
			if err := checkCategory(actor.Role, input.OrderType, item.Category); err != nil {
				return err
			}
			if item.CurrentStock < line.Quantity {
				return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
					WithDetails(map[string]any{
						"itemId":    item.ID.String(),
						"available": item.CurrentStock,
						"requested": line.Quantity,
					})
			}
			built = append(built, models.OrderLineItem{
				ItemID:    item.ID,
				SKU:       item.SKU,
				Name:      item.Name,
				Category:  item.Category,
				Quantity:  line.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  lineSubtotal(item.UnitPrice, line.Quantity),
				Notes:     line.Notes,
			})
		}

		quote := s.pricing.Quote(built)
		status := classify(actor.Role, input.OrderType, quote.Total, s.pricing.AutoApprovalThreshold)
		order = &models.Order{
			OrderNumber:         newOrderNumber(now),
			UserID:              actor.UserID,
			UserRole:            actor.Role,
			OrderType:           input.OrderType,
			Priority:            priority,
			Status:              status,
			RequiresApproval:    status == enums.OrderStatusPending,
			TotalAmount:         quote.Total,
			TaxAmount:           quote.Tax,
			ShippingCost:        quote.Shipping,
			FinalAmount:         quote.Final,
			DeliveryInformation: input.DeliveryInformation,
			Payment:             input.Payment,
			PrescriptionDetails: input.PrescriptionDetails,
			Notes:               trimmed(input.Notes),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		var reason *string
		if status == enums.OrderStatusApproved {
			order.ApprovedAt = &now
			if actor.IsAdmin() {
				approver := actor.UserID
				order.ApprovedBy = &approver
			}
			r := autoApprovedReason
			reason = &r
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range built {
			built[i].OrderID = order.ID
		}
		if err := repo.CreateLineItems(ctx, built); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line items")
		}

		for _, line := range built {
			change, err := s.stock.Reserve(ctx, tx, line.ItemID, line.Quantity)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeValidation) && s.metrics != nil {
					s.metrics.IncStockReservationFailure()
				}
				return err
			}
			if change.CrossedLowStock {
				lowStock = append(lowStock, change.Item)
			}
			if err := s.emitStock(ctx, tx, actor, enums.EventStockReserved, order.ID, line.ItemID, -line.Quantity, change.Item.CurrentStock, "order placed"); err != nil {
				return err
			}
		}

		entry := newHistoryEntry(order.ID, status, actor, reason, now)
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(actor),
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				OrderType:   order.OrderType,
				Status:      order.Status,
				FinalAmount: order.FinalAmount,
				ItemCount:   len(built),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		items = built
		history = []models.OrderStatusEntry{*entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncCreated(order.OrderType.String(), order.Status.String())
	}
	s.logOrder(ctx, order, "order created")

	notices := []notifications.Notice{placedNotice(*order)}
	for _, item := range lowStock {
		notices = append(notices, lowStockNotice(item))
	}
	s.dispatch(ctx, notices...)

	return toDetail(*order, items, history), nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDetailDTO, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return s.detail(ctx, s.repo, *order)
}

func (s *service) List(ctx context.Context, actor Actor, input ListOrdersInput) (*pagination.Page[OrderDTO], error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if input.OrderType != nil && !input.OrderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type filter")
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority filter")
	}
	if input.From != nil && input.To != nil && !input.From.Before(*input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := ListQuery{
		UserID:    input.UserID,
		Status:    input.Status,
		OrderType: input.OrderType,
		Priority:  input.Priority,
		From:      input.From,
		To:        input.To,
		Cursor:    cursor,
		Limit:     input.Pagination.Limit,
	}
	if !actor.IsAdmin() {
		owner := actor.UserID
		query.UserID = &owner
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.BuildPage(rows, input.Pagination.Limit, func(order models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: order.CreatedAt, ID: order.ID}
	})
	out := make([]OrderDTO, 0, len(page.Items))
	for _, order := range page.Items {
		out = append(out, FromModel(order))
	}
	return &pagination.Page[OrderDTO]{Items: out, NextCursor: page.NextCursor}, nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id uuid.UUID, input ApproveOrderInput) (*OrderDetailDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, transitionSpec{
		target: enums.OrderStatusApproved,
		reason: trimmed(input.Notes),
		fields: func(now time.Time) map[string]any {
			return map[string]any{
				"approved_by":       actor.UserID,
				"approved_at":       now,
				"requires_approval": false,
			}
		},
	})
}

func (s *service) Reject(ctx context.Context, actor Actor, id uuid.UUID, input RejectOrderInput) (*OrderDetailDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason := trimmed(&input.Reason)
	if reason == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.transition(ctx, actor, id, transitionSpec{
		target:       enums.OrderStatusRejected,
		reason:       reason,
		restoreStock: true,
		fields: func(now time.Time) map[string]any {
			return map[string]any{
				"rejected_by":      actor.UserID,
				"rejected_at":      now,
				"rejection_reason": *reason,
			}
		},
	})
}

func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, input CancelOrderInput) (*OrderDetailDTO, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	reason := trimmed(input.Reason)
	return s.transition(ctx, actor, id, transitionSpec{
		target:       enums.OrderStatusCancelled,
		reason:       reason,
		restoreStock: true,
		ownerMayAct:  true,
		fields: func(now time.Time) map[string]any {
			fields := map[string]any{
				"cancelled_by": actor.UserID,
				"cancelled_at": now,
			}
			if reason != nil {
				fields["cancellation_reason"] = *reason
			}
			return fields
		},
	})
}

// UpdateStatus is the admin catch-all. Approve, reject and cancel targets
// reuse their dedicated semantics.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input UpdateStatusInput) (*OrderDetailDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	switch input.Status {
	case enums.OrderStatusApproved:
		return s.Approve(ctx, actor, id, ApproveOrderInput{Notes: input.Notes})
	case enums.OrderStatusRejected:
		reason := ""
		if input.Notes != nil {
			reason = *input.Notes
		}
		return s.Reject(ctx, actor, id, RejectOrderInput{Reason: reason})
	case enums.OrderStatusCancelled:
		return s.Cancel(ctx, actor, id, CancelOrderInput{Reason: input.Notes})
	}
	return s.transition(ctx, actor, id, transitionSpec{
		target: input.Status,
		reason: trimmed(input.Notes),
	})
}

type transitionSpec struct {
	target       enums.OrderStatus
	reason       *string
	restoreStock bool
	ownerMayAct  bool
	fields       func(now time.Time) map[string]any
}

func (s *service) transition(ctx context.Context, actor Actor, id uuid.UUID, spec transitionSpec) (*OrderDetailDTO, error) {
	now := s.now().UTC()
	var (
		from   enums.OrderStatus
		detail *OrderDetailDTO
		order  *models.Order
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && (!spec.ownerMayAct || current.UserID != actor.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		from = current.Status
		if !CanTransition(from, spec.target) {
			return transitionError(from, spec.target)
		}

		updates := map[string]any{
			"status":     spec.target,
			"updated_at": now,
		}
		if spec.fields != nil {
			for key, value := range spec.fields(now) {
				updates[key] = value
			}
		}
		ok, err := repo.TransitionStatus(ctx, id, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
				WithDetails(map[string]any{"expected": from, "to": spec.target})
		}

		if spec.restoreStock {
			lines, err := repo.FindLineItems(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line items")
			}
			for _, line := range lines {
				change, err := s.stock.Restore(ctx, tx, line.ItemID, line.Quantity)
				if err != nil {
					return err
				}
				if err := s.emitStock(ctx, tx, actor, enums.EventStockRestored, id, line.ItemID, line.Quantity, change.Item.CurrentStock, "order "+string(spec.target)); err != nil {
					return err
				}
			}
		}

		if err := repo.AppendHistory(ctx, newHistoryEntry(id, spec.target, actor, spec.reason, now)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}

		order, err = s.loadOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		reasonText := ""
		if spec.reason != nil {
			reasonText = *spec.reason
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         buildActor(actor),
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     id,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				From:        from,
				To:          spec.target,
				Reason:      reasonText,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status change")
		}

		detail, err = s.detail(ctx, repo, *order)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(from.String(), spec.target.String())
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": id.String(),
			"from":     from.String(),
			"to":       spec.target.String(),
			"actor_id": actor.UserID.String(),
		})
		s.logg.Info(logCtx, "order status changed")
	}
	s.dispatch(ctx, statusNotice(*order, actor, spec.reason))

	return detail, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) detail(ctx context.Context, repo Repository, order models.Order) (*OrderDetailDTO, error) {
	items, err := repo.FindLineItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line items")
	}
	history, err := repo.FindHistory(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return toDetail(order, items, history), nil
}

func (s *service) emitStock(ctx context.Context, tx *gorm.DB, actor Actor, eventType enums.OutboxEventType, orderID, itemID uuid.UUID, delta, newStock int, reason string) error {
	oid := orderID
	stock := newStock
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInventory,
		AggregateID:   itemID,
		Actor:         buildActor(actor),
		Data: payloads.StockMovementEvent{
			ItemID:   itemID,
			OrderID:  &oid,
			Delta:    delta,
			Reason:   reason,
			NewStock: &stock,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit stock movement")
	}
	return nil
}

func (s *service) dispatch(ctx context.Context, notices ...notifications.Notice) {
	if s.notifier == nil || len(notices) == 0 {
		return
	}
	s.notifier.Dispatch(ctx, notices...)
}

func (s *service) logOrder(ctx context.Context, order *models.Order, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"status":       order.Status.String(),
		"final_amount": order.FinalAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, msg)
}

// mergeLines folds duplicate item ids into one line, keeping first-seen order.
func mergeLines(inputs []OrderItemInput) ([]requestedLine, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	index := make(map[uuid.UUID]int, len(inputs))
	lines := make([]requestedLine, 0, len(inputs))
	for _, input := range inputs {
		if input.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
		}
		if input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"itemId": input.ItemID.String()})
		}
		if pos, ok := index[input.ItemID]; ok {
			lines[pos].Quantity += input.Quantity
			continue
		}
		index[input.ItemID] = len(lines)
		lines = append(lines, requestedLine{
			ItemID:   input.ItemID,
			Quantity: input.Quantity,
			Notes:    trimmed(input.Notes),
		})
	}
	return lines, nil
}

func checkOrderable(item models.InventoryItem, now time.Time) error {
	details := map[string]any{"itemId": item.ID.String(), "sku": item.SKU}
	if !item.IsAvailable {
		return pkgerrors.New(pkgerrors.CodeValidation, "item is not available").WithDetails(details)
	}
	if item.ExpiryDate != nil && !item.ExpiryDate.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "item has expired").WithDetails(details)
	}
	return nil
}

func validateActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if err := validateActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func newHistoryEntry(orderID uuid.UUID, status enums.OrderStatus, actor Actor, reason *string, at time.Time) *models.OrderStatusEntry {
	actorID := actor.UserID
	role := actor.Role
	return &models.OrderStatusEntry{
		OrderID:   orderID,
		Status:    status,
		ActorID:   &actorID,
		ActorRole: &role,
		Reason:    reason,
		CreatedAt: at,
	}
}

func buildActor(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   actor.Role.String(),
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
