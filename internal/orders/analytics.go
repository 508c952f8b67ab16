package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
)

const (
	defaultAnalyticsWindow = 30 * 24 * time.Hour
	topItemsLimit          = 5
)

// Rejected and cancelled orders never count as revenue.
var nonRevenueStatuses = []enums.OrderStatus{enums.OrderStatusRejected, enums.OrderStatusCancelled}

func (s *service) Analytics(ctx context.Context, actor Actor, from, to time.Time) (*AnalyticsDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultAnalyticsWindow)
	}
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	window := TimeWindow{From: from.UTC(), To: to.UTC()}

	byStatus, err := s.repo.CountByStatus(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders by status")
	}
	byType, err := s.repo.CountByType(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders by type")
	}
	revenue, err := s.repo.Revenue(ctx, window, nonRevenueStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order revenue")
	}
	top, err := s.repo.TopItems(ctx, window, nonRevenueStatuses, topItemsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank ordered items")
	}

	out := &AnalyticsDTO{
		From:     window.From,
		To:       window.To,
		ByStatus: make(map[string]int64, len(byStatus)),
		ByType:   make(map[string]int64, len(byType)),
		Revenue:  revenue.Revenue.Round(2),
		TopItems: make([]TopItemDTO, 0, len(top)),
	}
	for _, row := range byStatus {
		out.ByStatus[row.Status.String()] = row.Count
		out.TotalOrders += row.Count
		if row.Status == enums.OrderStatusPending {
			out.PendingApproval = row.Count
		}
	}
	for _, row := range byType {
		out.ByType[row.OrderType.String()] = row.Count
	}
	if revenue.Orders > 0 {
		out.AverageOrderValue = out.Revenue.Div(decimal.NewFromInt(revenue.Orders)).Round(2)
	}
	for _, row := range top {
		out.TopItems = append(out.TopItems, TopItemDTO{
			ItemID:   row.ItemID,
			SKU:      row.SKU,
			Name:     row.Name,
			Quantity: row.Quantity,
			Revenue:  row.Revenue.Round(2),
		})
	}
	return out, nil
}
