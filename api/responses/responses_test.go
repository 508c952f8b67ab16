package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/types"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})
	require.Equal(t, http.StatusOK, w.Code)

	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "world", body.Data.(map[string]any)["hello"])

	created := httptest.NewRecorder()
	WriteSuccessStatus(created, http.StatusCreated, map[string]string{"id": "1"})
	require.Equal(t, http.StatusCreated, created.Code)
	require.Equal(t, "application/json", created.Header().Get("Content-Type"))
}

func TestWriteErrorMapping(t *testing.T) {
	const leaked = "dial tcp 10.0.0.3:5432: refused"

	cases := []struct {
		name        string
		err         error
		status      int
		code        pkgerrors.Code
		message     string
		withDetails bool
		retryable   bool
	}{
		{
			name:        "validation keeps details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "quantity"}),
			status:      http.StatusBadRequest,
			code:        pkgerrors.CodeValidation,
			message:     "bad input",
			withDetails: true,
		},
		{
			name:    "state conflict keeps message",
			err:     pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").WithDetails(map[string]any{"from": "delivered", "to": "cancelled"}),
			status:  http.StatusBadRequest,
			code:    pkgerrors.CodeStateConflict,
			message: "invalid status transition",
		},
		{
			name:   "untyped error becomes internal",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			code:   pkgerrors.CodeInternal,
		},
		{
			name:      "rate limit is retryable",
			err:       pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"),
			status:    http.StatusTooManyRequests,
			code:      pkgerrors.CodeRateLimit,
			retryable: true,
		},
		{
			name:   "dependency hides cause",
			err:    pkgerrors.New(pkgerrors.CodeDependency, leaked),
			status: http.StatusServiceUnavailable,
			code:   pkgerrors.CodeDependency,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tc.err)
			require.Equal(t, tc.status, w.Code)

			got := decodeError(t, w)
			require.Equal(t, string(tc.code), got.Code)
			require.NotEqual(t, leaked, got.Message)
			if tc.message != "" {
				require.Equal(t, tc.message, got.Message)
			}
			if tc.withDetails {
				require.NotNil(t, got.Details)
			} else if tc.code == pkgerrors.CodeInternal {
				require.Nil(t, got.Details)
			}
			if tc.retryable {
				require.True(t, got.Retryable)
			}
		})
	}
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set(RequestIDHeader, "req-42")
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "req-42", decodeError(t, w).RequestID)
}
