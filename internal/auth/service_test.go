package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/medimitra/medimitra-backend/internal/users"
	pkgAuth "github.com/medimitra/medimitra-backend/pkg/auth"
	"github.com/medimitra/medimitra-backend/pkg/config"
	"github.com/medimitra/medimitra-backend/pkg/db/dbtest"
	"github.com/medimitra/medimitra-backend/pkg/db/models"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	pkgerrors "github.com/medimitra/medimitra-backend/pkg/errors"
	"github.com/medimitra/medimitra-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "medimitra",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func newTestService(t *testing.T) (*service, *users.Repository) {
	t.Helper()
	client, conn := dbtest.Client(t, &models.User{})
	repo := users.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		DB:             client,
		UserRepo:       repo,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return impl, repo
}

func TestRegisterDefaultsToPatientAndIssuesToken(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: " Asha Rao ", Email: " Asha@Example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", resp.User.Email)
	require.Equal(t, "Asha Rao", resp.User.Name)
	require.Equal(t, enums.UserRolePatient, resp.User.Role)
	require.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), resp.ExpiresAt)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, enums.UserRolePatient, claims.Role)

	stored, err := repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "correct-horse", stored.PasswordHash)
	require.NotNil(t, stored.LastLoginAt)
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Root", Email: "root@example.com", Password: "password1", Role: enums.UserRoleAdmin})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Register(ctx, RegisterRequest{Name: "X", Email: "x@example.com", Password: "password1", Role: "nurse"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(ctx, RegisterRequest{Name: "Dr. Sen", Email: "sen@example.com", Password: "password1", Role: enums.UserRoleDoctor})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Dr. Sen", Email: "SEN@example.com", Password: "password2"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Register(ctx, RegisterRequest{Name: "Short", Email: "short@example.com", Password: "short"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserRequest{Name: "Ops", Email: "ops@example.com", Password: "admin-pass", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	require.Nil(t, created.LastLoginAt)

	resp, err := svc.Login(ctx, LoginRequest{Email: "OPS@example.com", Password: "admin-pass"})
	require.NoError(t, err)
	require.Equal(t, created.ID, resp.User.ID)
	require.NotNil(t, resp.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleAdmin, claims.Role)

	_, err = svc.Login(ctx, LoginRequest{Email: "ops@example.com", Password: "wrong-pass"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "admin-pass"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	inactive := false

	_, err := svc.CreateUser(ctx, CreateUserRequest{Name: "Old", Email: "old@example.com", Password: "password1", Role: enums.UserRoleDoctor, IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "old@example.com", Password: "password1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginRejectsAccountWithoutCredentials(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, users.CreateUserDTO{Name: "Seeded", Email: "seeded@example.com", Role: enums.UserRolePatient})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "seeded@example.com", Password: "anything"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "password1"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", me.Email)

	_, err = svc.Me(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Me(ctx, uuid.Nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	weak := testPasswordConfig()
	weak.ArgonKeyLen = 16
	hash, err := security.HashPassword("legacy-pass", weak)
	require.NoError(t, err)
	_, err = repo.Create(ctx, users.CreateUserDTO{Name: "Legacy", Email: "legacy@example.com", PasswordHash: hash, Role: enums.UserRolePatient})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "legacy@example.com", Password: "legacy-pass"})
	require.NoError(t, err)

	stored, err := repo.FindByEmail(ctx, "legacy@example.com")
	require.NoError(t, err)
	require.NotEqual(t, hash, stored.PasswordHash)
	require.False(t, security.NeedsRehash(stored.PasswordHash, testPasswordConfig()))

	_, err = svc.Login(ctx, LoginRequest{Email: "legacy@example.com", Password: "legacy-pass"})
	require.NoError(t, err)
}
