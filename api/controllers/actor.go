package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/medimitra/medimitra-backend/api/middleware"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
)

func requireActor(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	userID, role, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return userID, role, nil
}
