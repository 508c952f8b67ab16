package orders

import (
	"net/http"
	"time"

	"github.com/medimitra/medimitra-backend/api/validators"
	internalorders "github.com/medimitra/medimitra-backend/internal/orders"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
)

func buildListInput(r *http.Request) (internalorders.ListOrdersInput, error) {
	var input internalorders.ListOrdersInput

	params, err := validators.ParsePagination(r)
	if err != nil {
		return input, err
	}
	input.Pagination = params

	if input.Status, err = validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus); err != nil {
		return input, err
	}
	if input.OrderType, err = validators.ParseQueryEnum(r, "orderType", enums.ParseOrderType); err != nil {
		return input, err
	}
	if input.Priority, err = validators.ParseQueryEnum(r, "priority", enums.ParseOrderPriority); err != nil {
		return input, err
	}
	if input.UserID, err = validators.ParseQueryUUID(r, "userId"); err != nil {
		return input, err
	}
	if input.From, err = validators.ParseQueryTime(r, "from"); err != nil {
		return input, err
	}
	if input.To, err = validators.ParseQueryTime(r, "to"); err != nil {
		return input, err
	}
	if input.From != nil && input.To != nil && input.To.Before(*input.From) {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	return input, nil
}

// resolveAnalyticsRange leaves zero values for missing bounds; the service
// fills in its default window.
func resolveAnalyticsRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	var start, end time.Time
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	return start, end, nil
}
