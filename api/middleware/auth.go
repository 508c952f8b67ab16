package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medimitra/medimitra-backend/api/responses"
	pkgAuth "github.com/medimitra/medimitra-backend/pkg/auth"
	"github.com/medimitra/medimitra-backend/pkg/config"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/logger"
)

var errNoBearer = errors.New("missing bearer token")

// Auth requires a valid access token and stores the caller's id and role on
// the request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err == nil {
				var claims *pkgAuth.AccessTokenClaims
				if claims, err = pkgAuth.ParseAccessToken(cfg, token); err == nil {
					userID, role := claims.UserID.String(), string(claims.Role)
					ctx := WithRole(WithUserID(r.Context(), userID), role)
					if logg != nil {
						ctx = logg.WithActorRole(logg.WithUserID(ctx, userID), role)
					}
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Bearer realm="medimitra"`)
			msg := "invalid token"
			switch {
			case errors.Is(err, errNoBearer):
				msg = "missing credentials"
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "token expired"
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
		})
	}
}

// bearerToken accepts "Bearer <token>" with any scheme casing, or a bare token.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		header = strings.TrimSpace(rest)
	}
	if header == "" {
		return "", errNoBearer
	}
	return header, nil
}
