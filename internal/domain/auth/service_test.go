package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"classbook/internal/domain/company"
	jwtsvc "classbook/internal/pkg/jwt"

	_ "modernc.org/sqlite"
)

func setupAuthService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&company.Company{}, &User{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	companies := company.NewRepository(db)
	for _, c := range []company.Company{{Name: "First Studio"}, {Name: "Second Studio"}} {
		c.IsActive = true
		require.NoError(t, companies.Create(context.Background(), &c))
	}

	return NewService(db, companies, jwtsvc.New("test-secret", time.Hour))
}

func TestRegister_UnknownCompany(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "member@example.com",
		Password:  "password123",
		Name:      "Member",
		CompanyID: 42,
	})
	assert.ErrorIs(t, err, company.ErrCompanyNotFound)
}

func TestRegister_And_Login(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{
		Email:     "member@example.com",
		Password:  "password123",
		Name:      "Member",
		CompanyID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleMember, u.Role)
	assert.NotEqual(t, "password123", u.PasswordHash)

	result, err := svc.Login(ctx, LoginRequest{Email: "member@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, u.ID, result.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	req := RegisterRequest{
		Email:     "member@example.com",
		Password:  "password123",
		Name:      "Member",
		CompanyID: 1,
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_AdminRole(t *testing.T) {
	svc := setupAuthService(t)

	u, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "admin@example.com",
		Password:  "password123",
		Name:      "Admin",
		Role:      "admin",
		CompanyID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email:     "member@example.com",
		Password:  "password123",
		Name:      "Member",
		CompanyID: 1,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "member@example.com", Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenCarriesIdentity(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email:     "member@example.com",
		Password:  "password123",
		Name:      "Member",
		CompanyID: 2,
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginRequest{Email: "member@example.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := jwtsvc.New("test-secret", time.Hour).ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.EqualValues(t, 2, claims.CompanyID)
	assert.Equal(t, "member", claims.Role)
}
