package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medimitra/medimitra-backend/pkg/config"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
)

// Pricing holds the constants applied when an order is placed.
type Pricing struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	AutoApprovalThreshold decimal.Decimal
}

func PricingFromConfig(cfg config.OrdersConfig) Pricing {
	return Pricing{
		TaxRate:               cfg.TaxRateDecimal(),
		ShippingFee:           cfg.ShippingFeeDecimal(),
		FreeShippingThreshold: cfg.FreeShippingThresholdDecimal(),
		AutoApprovalThreshold: cfg.AutoApprovalThresholdDecimal(),
	}
}

// Quote is the monetary breakdown of an order.
type Quote struct {
	Total    decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Final    decimal.Decimal
}

func lineSubtotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// Quote sums the line subtotals and applies tax and shipping.
func (p Pricing) Quote(lines []models.OrderLineItem) Quote {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	tax := total.Mul(p.TaxRate).Round(2)
	shipping := decimal.Zero
	if total.LessThan(p.FreeShippingThreshold) {
		shipping = p.ShippingFee.Round(2)
	}
	return Quote{
		Total:    total,
		Tax:      tax,
		Shipping: shipping,
		Final:    total.Add(tax).Add(shipping),
	}
}

// newOrderNumber returns ORD-YYYYMMDD-XXXXXX using the UTC date.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
