package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/medimitra/medimitra-backend/internal/users"
	"github.com/medimitra/medimitra-backend/pkg/db"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/security"
)

// Register creates a patient (default) or doctor account and logs it in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	role := req.Role
	if role == "" {
		role = enums.UserRolePatient
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be self-registered")
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, role, nil)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, now, ""); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now
	return s.issue(ctx, user, now)
}

// CreateUser provisions an account of any role. Callers must already hold the admin role.
func (s *service) CreateUser(ctx context.Context, req CreateUserRequest) (*users.UserDTO, error) {
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, req.Role, req.IsActive)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func (s *service) createUser(ctx context.Context, name, email, password string, role enums.UserRole, isActive *bool) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
			IsActive:     isActive,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": created.ID.String(),
			"role":    string(role),
		})
		s.logg.Info(logCtx, "user registered")
	}
	return created, nil
}
