package controllers

import (
	"context"
	"net/http"

	"github.com/medimitra/medimitra-backend/api/responses"
	"github.com/medimitra/medimitra-backend/api/validators"
	"github.com/medimitra/medimitra-backend/internal/auth"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/logger"
)

// Mirrors the body token for clients that read headers only.
const tokenHeader = "X-MediMitra-Token"

// issueSession decodes a credentials body, runs call and returns the session
// with the token also set as a header.
func issueSession[Req any](svc auth.Service, logg *logger.Logger, status int, call func(auth.Service, context.Context, Req) (*auth.LoginResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := call(svc, r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, session.AccessToken)
		responses.WriteSuccessStatus(w, status, session)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return issueSession(svc, logg, http.StatusOK, auth.Service.Login)
}

// AuthRegister is self sign-up; the service only accepts patient and doctor roles.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return issueSession(svc, logg, http.StatusCreated, auth.Service.Register)
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := requireActor(r)
		if err == nil && svc == nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AdminCreateUser provisions an account of any role, admins included.
func AdminCreateUser(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.CreateUserRequest
		err := validators.DecodeJSONBody(r, &body)
		if err == nil && svc == nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.CreateUser(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}
