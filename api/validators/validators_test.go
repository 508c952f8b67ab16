package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/pagination"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", details["name"])
	require.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","quantity":1,"extra":true}`))
	var body sampleBody
	require.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?days=400&flag=yes&from=2026-03-01&status=pending&limit=5", nil)

	_, err := ParseQueryInt(req, "days", 30, 1, 365)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryBool(req, "flag")
	require.Error(t, err)

	from, err := ParseQueryTime(req, "from")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *from)

	status, err := ParseQueryEnum(req, "status", enums.ParseOrderStatus)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, *status)

	missing, err := ParseQueryUUID(req, "userId")
	require.NoError(t, err)
	require.Nil(t, missing)

	page, err := ParsePagination(req)
	require.NoError(t, err)
	require.Equal(t, pagination.Params{Limit: 5}, page)
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "id")
	require.NoError(t, err)
	require.Equal(t, id, got)

	rc.URLParams = chi.RouteParams{}
	rc.URLParams.Add("id", "nope")
	_, err = ParseUUIDParam(req, "id")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeStringIsRuneSafe(t *testing.T) {
	require.Equal(t, "para", SanitizeString("  para\x00cetamol ", 4))
	require.Equal(t, "पैरा", SanitizeString("पैरासिटामोल", 4))
	require.Equal(t, "insulin", SanitizeString("\tinsulin\n", 0))
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingInput(t *testing.T) {
	var body sampleBody

	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.ErrorIs(t, err, ErrEmptyBody)

	err = DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","quantity":1}{"name":"y"}`)), &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","quantity":"one"}`)), &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Contains(t, details["quantity"], "must be of type")
}

func TestDecodeOptionalJSONBodyAllowsMissingPayload(t *testing.T) {
	body := sampleBody{Name: "untouched"}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, DecodeOptionalJSONBody(req, &body))
	require.Equal(t, "untouched", body.Name)
}
