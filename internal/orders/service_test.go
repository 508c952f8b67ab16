package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/db/dbtest"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/outbox"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
	"github.com/medimitra/medimitra-backend/pkg/types"
)

type recordingNotifier struct {
	notices []notifications.Notice
}

func (r *recordingNotifier) Dispatch(ctx context.Context, notices ...notifications.Notice) {
	r.notices = append(r.notices, notices...)
}

func (r *recordingNotifier) ofType(kind enums.NotificationType) []notifications.Notice {
	var out []notifications.Notice
	for _, n := range r.notices {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type recordingMetrics struct {
	created      []string
	transitions  []string
	stockFailure int
}

func (m *recordingMetrics) IncCreated(orderType, status string) {
	m.created = append(m.created, orderType+"/"+status)
}

func (m *recordingMetrics) IncTransition(from, to string) {
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *recordingMetrics) IncStockReservationFailure() {
	m.stockFailure++
}

type fixture struct {
	conn      *gorm.DB
	client    *db.Client
	inventory *inventory.Repository
	notifier  *recordingNotifier
	metrics   *recordingMetrics
	svc       Service
	clock     time.Time

	patient Actor
	doctor  Actor
	admin   Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	f := &fixture{
		conn:      conn,
		client:    client,
		inventory: inventory.NewRepository(conn),
		notifier:  &recordingNotifier{},
		metrics:   &recordingMetrics{},
		clock:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		patient:   Actor{UserID: uuid.New(), Role: enums.UserRolePatient},
		doctor:    Actor{UserID: uuid.New(), Role: enums.UserRoleDoctor},
		admin:     Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin},
	}
	f.svc = f.service(t, NewRepository(conn))
	return f
}

// service builds an order service over repo whose clock advances one second per call.
func (f *fixture) service(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		DB:       f.client,
		Stock:    inventory.NewStockKeeper(f.inventory),
		Outbox:   outbox.NewService(outbox.NewRepository(f.conn), nil),
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Pricing:  testPricing(),
	})
	require.NoError(t, err)
	svc.(*service).now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return svc
}

func (f *fixture) item(t *testing.T, sku string, category enums.InventoryCategory, price string, stock, minimum int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		SKU:          sku,
		Name:         "Item " + sku,
		Category:     category,
		Unit:         "box",
		UnitPrice:    decimal.RequireFromString(price),
		CurrentStock: stock,
		MinimumStock: minimum,
		IsAvailable:  true,
	}
	require.NoError(t, f.inventory.Create(context.Background(), item))
	return item
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	item, err := f.inventory.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.CurrentStock
}

func (f *fixture) outboxCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func (f *fixture) order(t *testing.T, actor Actor, orderType enums.OrderType, items ...OrderItemInput) *OrderDetailDTO {
	t.Helper()
	detail, err := f.svc.Create(context.Background(), actor, CreateOrderInput{
		OrderType: orderType,
		Items:     items,
		DeliveryInformation: types.DeliveryInformation{
			Address: "12 MG Road",
			City:    "Pune",
		},
		Payment: types.PaymentInfo{Method: "cash_on_delivery"},
	})
	require.NoError(t, err)
	return detail
}

func requireLastHistory(t *testing.T, detail *OrderDetailDTO, length int) {
	t.Helper()
	require.Len(t, detail.StatusHistory, length)
	require.Equal(t, detail.Status, detail.StatusHistory[length-1].Status)
}

func TestCreatePatientOrderReservesStockAndWaitsForApproval(t *testing.T) {
	f := newFixture(t)
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 5, 3)

	detail := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 2})

	require.Equal(t, enums.OrderStatusPending, detail.Status)
	require.True(t, detail.RequiresApproval)
	require.Regexp(t, `^ORD-20260301-[0-9A-F]{6}$`, detail.OrderNumber)
	require.True(t, detail.TotalAmount.Equal(decimal.RequireFromString("80")))
	require.True(t, detail.TaxAmount.Equal(decimal.RequireFromString("14.40")))
	require.True(t, detail.ShippingCost.Equal(decimal.RequireFromString("50")))
	require.True(t, detail.FinalAmount.Equal(decimal.RequireFromString("144.40")))
	require.Len(t, detail.Items, 1)
	require.True(t, detail.Items[0].UnitPrice.Equal(decimal.RequireFromString("40")))
	requireLastHistory(t, detail, 1)
	require.Nil(t, detail.StatusHistory[0].Reason)

	require.Equal(t, 3, f.stockOf(t, gauze.ID))
	require.EqualValues(t, 1, f.outboxCount(t, enums.EventOrderCreated))
	require.EqualValues(t, 1, f.outboxCount(t, enums.EventStockReserved))
	require.Equal(t, []string{"personal_supplies/pending"}, f.metrics.created)

	placed := f.notifier.ofType(enums.NotificationTypeOrderPlaced)
	require.Len(t, placed, 1)
	require.Equal(t, notifications.AudienceAdmins, placed[0].Audience)
	lowStock := f.notifier.ofType(enums.NotificationTypeLowStock)
	require.Len(t, lowStock, 1)
	require.Equal(t, inventory.ItemLink(gauze.ID), lowStock[0].Link)

	// price changes later must not affect the snapshot
	require.NoError(t, f.inventory.Update(context.Background(), gauze.ID, map[string]any{"unit_price": decimal.RequireFromString("99")}))
	stored, err := f.svc.Get(context.Background(), f.patient, detail.ID)
	require.NoError(t, err)
	require.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("40")))
	require.True(t, stored.Items[0].Subtotal.Equal(decimal.RequireFromString("80")))
}

func TestRejectRestoresStock(t *testing.T) {
	f := newFixture(t)
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 5, 0)
	created := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 2})
	require.Equal(t, 3, f.stockOf(t, gauze.ID))

	_, err := f.svc.Reject(context.Background(), f.admin, created.ID, RejectOrderInput{Reason: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	rejected, err := f.svc.Reject(context.Background(), f.admin, created.ID, RejectOrderInput{Reason: "duplicate request"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRejected, rejected.Status)
	require.Equal(t, f.admin.UserID, *rejected.RejectedBy)
	require.Equal(t, "duplicate request", *rejected.RejectionReason)
	requireLastHistory(t, rejected, 2)
	require.Equal(t, 5, f.stockOf(t, gauze.ID))
	require.EqualValues(t, 1, f.outboxCount(t, enums.EventStockRestored))
	require.EqualValues(t, 1, f.outboxCount(t, enums.EventOrderStatusChanged))

	status := f.notifier.ofType(enums.NotificationTypeOrderStatus)
	require.Len(t, status, 1)
	require.Equal(t, notifications.AudienceUser, status[0].Audience)
	require.Equal(t, f.patient.UserID, status[0].UserID)
	require.Equal(t, []string{"pending->rejected"}, f.metrics.transitions)

	_, err = f.svc.Reject(context.Background(), f.admin, created.ID, RejectOrderInput{Reason: "again"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, 5, f.stockOf(t, gauze.ID))
}

func TestDoctorSmallClinicalOrderIsAutoApproved(t *testing.T) {
	f := newFixture(t)
	gloves := f.item(t, "GL-1", enums.InventoryCategoryConsumables, "40.00", 10, 1)

	detail := f.order(t, f.doctor, enums.OrderTypeClinicalSupplies, OrderItemInput{ItemID: gloves.ID, Quantity: 2})

	require.Equal(t, enums.OrderStatusApproved, detail.Status)
	require.False(t, detail.RequiresApproval)
	require.NotNil(t, detail.ApprovedAt)
	require.Nil(t, detail.ApprovedBy)
	requireLastHistory(t, detail, 1)
	require.Equal(t, autoApprovedReason, *detail.StatusHistory[0].Reason)
}

func TestAdminOrderIsApprovedByAdmin(t *testing.T) {
	f := newFixture(t)
	monitor := f.item(t, "EQ-1", enums.InventoryCategoryMedicalEquipment, "900.00", 2, 0)

	detail := f.order(t, f.admin, enums.OrderTypeEquipment, OrderItemInput{ItemID: monitor.ID, Quantity: 1})

	require.Equal(t, enums.OrderStatusApproved, detail.Status)
	require.Equal(t, f.admin.UserID, *detail.ApprovedBy)
	require.True(t, detail.ShippingCost.Equal(decimal.RequireFromString("50")))
}

func TestApproveNonPendingFailsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 5, 0)
	created := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})

	_, err := f.svc.Approve(context.Background(), f.doctor, created.ID, ApproveOrderInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	approved, err := f.svc.Approve(context.Background(), f.admin, created.ID, ApproveOrderInput{})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusApproved, approved.Status)
	require.Equal(t, f.admin.UserID, *approved.ApprovedBy)
	require.False(t, approved.RequiresApproval)

	_, err = f.svc.Approve(context.Background(), f.admin, created.ID, ApproveOrderInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	again, err := f.svc.Get(context.Background(), f.admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusApproved, again.Status)
	requireLastHistory(t, again, 2)
	require.Equal(t, 4, f.stockOf(t, gauze.ID))
}

type racingRepo struct {
	Repository
	conn *gorm.DB
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository {
	return &racingRepo{Repository: r.Repository.WithTx(tx), conn: tx}
}

// TransitionStatus lets a competing writer move the order first.
func (r *racingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error) {
	if err := r.conn.Model(&models.Order{}).Where("id = ?", id).Update("status", enums.OrderStatusApproved).Error; err != nil {
		return false, err
	}
	return r.Repository.TransitionStatus(ctx, id, from, updates)
}

func TestConcurrentTransitionLosesWithStateConflict(t *testing.T) {
	f := newFixture(t)
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 5, 0)
	created := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 2})

	racing := f.service(t, &racingRepo{Repository: NewRepository(f.conn), conn: f.conn})
	_, err := racing.Reject(context.Background(), f.admin, created.ID, RejectOrderInput{Reason: "out of policy"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	stored, err := f.svc.Get(context.Background(), f.admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, stored.Status)
	requireLastHistory(t, stored, 1)
	require.Equal(t, 3, f.stockOf(t, gauze.ID))
}

func TestCreateRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 5, 0)
	scalpel := f.item(t, "SG-1", enums.InventoryCategorySurgical, "15.00", 5, 0)
	insulin := f.item(t, "MD-1", enums.InventoryCategoryMedication, "25.00", 5, 0)
	expired := f.item(t, "EX-1", enums.InventoryCategorySupplies, "5.00", 5, 0)
	past := f.clock.Add(-24 * time.Hour)
	require.NoError(t, f.inventory.Update(ctx, expired.ID, map[string]any{"expiry_date": past}))
	hidden := f.item(t, "HD-1", enums.InventoryCategorySupplies, "5.00", 5, 0)
	require.NoError(t, f.inventory.Update(ctx, hidden.ID, map[string]any{"is_available": false}))

	cases := []struct {
		name  string
		actor Actor
		input CreateOrderInput
		code  pkgerrors.Code
	}{
		{"no items", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies}, pkgerrors.CodeValidation},
		{"bad type", f.patient, CreateOrderInput{OrderType: "gift", Items: []OrderItemInput{{ItemID: gauze.ID, Quantity: 1}}}, pkgerrors.CodeValidation},
		{"bad priority", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Priority: "asap", Items: []OrderItemInput{{ItemID: gauze.ID, Quantity: 1}}}, pkgerrors.CodeValidation},
		{"unknown item", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Items: []OrderItemInput{{ItemID: uuid.New(), Quantity: 1}}}, pkgerrors.CodeNotFound},
		{"too many", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Items: []OrderItemInput{{ItemID: gauze.ID, Quantity: 3}, {ItemID: gauze.ID, Quantity: 3}}}, pkgerrors.CodeValidation},
		{"expired", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Items: []OrderItemInput{{ItemID: expired.ID, Quantity: 1}}}, pkgerrors.CodeValidation},
		{"unavailable", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Items: []OrderItemInput{{ItemID: hidden.ID, Quantity: 1}}}, pkgerrors.CodeValidation},
		{"patient surgical", f.patient, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Items: []OrderItemInput{{ItemID: scalpel.ID, Quantity: 1}}}, pkgerrors.CodeForbidden},
		{"medication without prescription", f.doctor, CreateOrderInput{OrderType: enums.OrderTypeClinicalSupplies, Items: []OrderItemInput{{ItemID: insulin.ID, Quantity: 1}}}, pkgerrors.CodeForbidden},
		{"prescription without number", f.patient, CreateOrderInput{OrderType: enums.OrderTypePrescription, Items: []OrderItemInput{{ItemID: insulin.ID, Quantity: 1}}}, pkgerrors.CodeValidation},
		{"anonymous", Actor{Role: enums.UserRolePatient}, CreateOrderInput{OrderType: enums.OrderTypePersonalSupplies, Items: []OrderItemInput{{ItemID: gauze.ID, Quantity: 1}}}, pkgerrors.CodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.actor, tc.input)
			require.Error(t, err)
			require.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}

	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	require.Zero(t, orders)
	require.Equal(t, 5, f.stockOf(t, gauze.ID))
	require.Zero(t, f.outboxCount(t, enums.EventOrderCreated))
}

func TestCreateRollsBackEveryReservationOnFailure(t *testing.T) {
	f := newFixture(t)
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 5, 0)
	tape := f.item(t, "TP-1", enums.InventoryCategorySupplies, "3.00", 1, 0)

	// The second line passes the pre-check but loses the conditional decrement.
	keeper := &shrinkingKeeper{StockKeeper: inventory.NewStockKeeper(f.inventory), shrink: tape.ID}
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(f.conn),
		DB:      f.client,
		Stock:   keeper,
		Outbox:  outbox.NewService(outbox.NewRepository(f.conn), nil),
		Metrics: f.metrics,
		Pricing: testPricing(),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), f.patient, CreateOrderInput{
		OrderType: enums.OrderTypePersonalSupplies,
		Items: []OrderItemInput{
			{ItemID: gauze.ID, Quantity: 2},
			{ItemID: tape.ID, Quantity: 1},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, 1, f.metrics.stockFailure)
	require.Equal(t, 5, f.stockOf(t, gauze.ID))

	var lines int64
	require.NoError(t, f.conn.Model(&models.OrderLineItem{}).Count(&lines).Error)
	require.Zero(t, lines)
	require.Zero(t, f.outboxCount(t, enums.EventStockReserved))
}

type shrinkingKeeper struct {
	StockKeeper
	shrink uuid.UUID
}

func (k *shrinkingKeeper) Reserve(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int) (*inventory.StockChange, error) {
	if itemID == k.shrink {
		if err := tx.Model(&models.InventoryItem{}).Where("id = ?", itemID).Update("current_stock", 0).Error; err != nil {
			return nil, err
		}
	}
	return k.StockKeeper.Reserve(ctx, tx, itemID, qty)
}

func TestCancelRulesAndStockRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 10, 0)
	created := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 4})

	stranger := Actor{UserID: uuid.New(), Role: enums.UserRolePatient}
	_, err := f.svc.Cancel(ctx, stranger, created.ID, CancelOrderInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	reason := "ordered by mistake"
	cancelled, err := f.svc.Cancel(ctx, f.patient, created.ID, CancelOrderInput{Reason: &reason})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, reason, *cancelled.CancellationReason)
	requireLastHistory(t, cancelled, 2)
	require.Equal(t, 10, f.stockOf(t, gauze.ID))

	// owner-initiated cancellation goes to the admins
	status := f.notifier.ofType(enums.NotificationTypeOrderStatus)
	require.Len(t, status, 1)
	require.Equal(t, notifications.AudienceAdmins, status[0].Audience)

	shipped := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})
	_, err = f.svc.Approve(ctx, f.admin, shipped.ID, ApproveOrderInput{})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, shipped.ID, UpdateStatusInput{Status: enums.OrderStatusShipped})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.admin, shipped.ID, CancelOrderInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, 9, f.stockOf(t, gauze.ID))
}

func TestUpdateStatusWalksLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 10, 0)
	created := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})

	_, err := f.svc.UpdateStatus(ctx, f.patient, created.ID, UpdateStatusInput{Status: enums.OrderStatusApproved})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	notes := "checked by pharmacist"
	steps := []enums.OrderStatus{
		enums.OrderStatusApproved,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCompleted,
	}
	for i, step := range steps {
		detail, err := f.svc.UpdateStatus(ctx, f.admin, created.ID, UpdateStatusInput{Status: step, Notes: &notes})
		require.NoError(t, err, step)
		require.Equal(t, step, detail.Status)
		requireLastHistory(t, detail, i+2)
	}

	_, err = f.svc.UpdateStatus(ctx, f.admin, created.ID, UpdateStatusInput{Status: enums.OrderStatusCancelled})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = f.svc.UpdateStatus(ctx, f.admin, created.ID, UpdateStatusInput{Status: "lost"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.Len(t, f.notifier.ofType(enums.NotificationTypeOrderStatus), len(steps))
	require.EqualValues(t, len(steps), f.outboxCount(t, enums.EventOrderStatusChanged))
	require.Equal(t, 9, f.stockOf(t, gauze.ID))
}

func TestUpdateStatusRejectedRequiresNotes(t *testing.T) {
	f := newFixture(t)
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 10, 0)
	created := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 2})

	_, err := f.svc.UpdateStatus(context.Background(), f.admin, created.ID, UpdateStatusInput{Status: enums.OrderStatusRejected})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	notes := "not covered"
	detail, err := f.svc.UpdateStatus(context.Background(), f.admin, created.ID, UpdateStatusInput{Status: enums.OrderStatusRejected, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRejected, detail.Status)
	require.Equal(t, 10, f.stockOf(t, gauze.ID))
}

func TestListAndGetEnforceOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "10.00", 50, 0)

	mine := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})
	f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})
	theirs := f.order(t, f.doctor, enums.OrderTypeClinicalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})

	_, err := f.svc.Get(ctx, f.patient, theirs.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.Get(ctx, f.admin, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	// non-admins cannot widen the filter to another user
	page, err := f.svc.List(ctx, f.patient, ListOrdersInput{UserID: &f.doctor.UserID})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, order := range page.Items {
		require.Equal(t, f.patient.UserID, order.UserID)
	}

	first, err := f.svc.List(ctx, f.admin, ListOrdersInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	require.Equal(t, theirs.ID, first.Items[0].ID)

	second, err := f.svc.List(ctx, f.admin, ListOrdersInput{Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, mine.ID, second.Items[0].ID)
	require.Empty(t, second.NextCursor)

	approved := enums.OrderStatusApproved
	filtered, err := f.svc.List(ctx, f.admin, ListOrdersInput{Status: &approved})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	require.Equal(t, theirs.ID, filtered.Items[0].ID)

	_, err = f.svc.List(ctx, f.admin, ListOrdersInput{Pagination: pagination.Params{Cursor: "%%%"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAnalyticsSummarisesWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := f.clock
	gauze := f.item(t, "GZ-1", enums.InventoryCategorySupplies, "40.00", 50, 0)
	gloves := f.item(t, "GL-1", enums.InventoryCategoryConsumables, "40.00", 50, 0)

	f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 2})
	f.order(t, f.doctor, enums.OrderTypeClinicalSupplies, OrderItemInput{ItemID: gloves.ID, Quantity: 2})
	rejected := f.order(t, f.patient, enums.OrderTypePersonalSupplies, OrderItemInput{ItemID: gauze.ID, Quantity: 1})
	_, err := f.svc.Reject(ctx, f.admin, rejected.ID, RejectOrderInput{Reason: "duplicate"})
	require.NoError(t, err)

	_, err = f.svc.Analytics(ctx, f.doctor, time.Time{}, time.Time{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	report, err := f.svc.Analytics(ctx, f.admin, start.Add(-time.Hour), start.Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 3, report.TotalOrders)
	require.EqualValues(t, 1, report.ByStatus["pending"])
	require.EqualValues(t, 1, report.ByStatus["approved"])
	require.EqualValues(t, 1, report.ByStatus["rejected"])
	require.EqualValues(t, 2, report.ByType["personal_supplies"])
	require.EqualValues(t, 1, report.PendingApproval)
	require.True(t, report.Revenue.Equal(decimal.RequireFromString("288.80")), report.Revenue.String())
	require.True(t, report.AverageOrderValue.Equal(decimal.RequireFromString("144.40")), report.AverageOrderValue.String())
	require.Len(t, report.TopItems, 2)
	for _, top := range report.TopItems {
		require.EqualValues(t, 2, top.Quantity)
	}

	empty, err := f.svc.Analytics(ctx, f.admin, start.Add(-48*time.Hour), start.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Zero(t, empty.TotalOrders)
	require.True(t, empty.Revenue.IsZero())

	_, err = f.svc.Analytics(ctx, f.admin, start, start.Add(-time.Hour))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
