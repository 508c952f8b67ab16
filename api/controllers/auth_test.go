package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/medimitra/medimitra-backend/internal/auth"
	"github.com/medimitra/medimitra-backend/internal/users"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
)

type stubAuthService struct {
	loginResp   *auth.LoginResponse
	registerReq auth.RegisterRequest
	createdReq  auth.CreateUserRequest
	me          *users.UserDTO
	err         error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginResp, s.err
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	s.registerReq = req
	return s.loginResp, s.err
}

func (s *stubAuthService) CreateUser(ctx context.Context, req auth.CreateUserRequest) (*users.UserDTO, error) {
	s.createdReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Role: req.Role}, nil
}

func (s *stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return s.me, s.err
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &stubAuthService{loginResp: &auth.LoginResponse{
		AccessToken: "access-token",
		User:        &users.UserDTO{ID: uuid.New(), Email: "asha@example.com", Role: enums.UserRolePatient},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"asha@example.com","password":"password1"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get(tokenHeader); got != "access-token" {
		t.Fatalf("expected token header, got %q", got)
	}

	var envelope struct {
		Data struct {
			AccessToken string         `json:"accessToken"`
			User        *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "asha@example.com" {
		t.Fatalf("unexpected user %+v", envelope.Data.User)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"asha@example.com","password":"nope"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLoginRequiresEmail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"password":"password1"}`))
	resp := httptest.NewRecorder()
	AuthLogin(&stubAuthService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{loginResp: &auth.LoginResponse{
		AccessToken: "fresh-token",
		User:        &users.UserDTO{ID: uuid.New(), Email: "sen@example.com", Role: enums.UserRoleDoctor},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"name":"Dr. Sen","email":"sen@example.com","password":"password1","role":"doctor"}`))
	resp := httptest.NewRecorder()
	AuthRegister(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.registerReq.Role != enums.UserRoleDoctor {
		t.Fatalf("expected doctor role forwarded, got %q", svc.registerReq.Role)
	}
	if got := resp.Header().Get(tokenHeader); got != "fresh-token" {
		t.Fatalf("expected token header, got %q", got)
	}
}

func TestAuthRegisterShortPassword(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"name":"A","email":"a@example.com","password":"short"}`))
	resp := httptest.NewRecorder()
	AuthRegister(&stubAuthService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthMeRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp := httptest.NewRecorder()
	AuthMe(&stubAuthService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	userID := uuid.New()
	svc := &stubAuthService{me: &users.UserDTO{ID: userID, Email: "asha@example.com"}}
	req = withTestActor(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), userID, enums.UserRolePatient)
	resp = httptest.NewRecorder()
	AuthMe(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminCreateUser(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users", bytes.NewBufferString(`{"name":"Ops","email":"ops@example.com","password":"password1","role":"admin"}`))
	resp := httptest.NewRecorder()
	AdminCreateUser(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.createdReq.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role forwarded, got %q", svc.createdReq.Role)
	}
}

func TestAuthHandlersUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{}`))
	resp := httptest.NewRecorder()
	AuthLogin(nil, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
