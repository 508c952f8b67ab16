package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medimitra/medimitra-backend/pkg/config"
)

func TestCORSPreflight(t *testing.T) {
	handler := CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://portal.medimitra.in/", "*"},
		MaxAgeSeconds:  600,
	})(http.HandlerFunc(okHandler))

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", IdempotencyKeyHeader)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://portal.medimitra.in")
	require.Equal(t, "https://portal.medimitra.in", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	rec = preflight("https://evil.example")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
