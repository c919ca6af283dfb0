package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockAdminRepository is a mock implementation of repositories.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	args := m.Called(admin)
	return args.Error(0)
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	args := m.Called(id, hash)
	return args.Error(0)
}

const testJWTSecret = "test_jwt_secret"

func notFoundErr(username string) error {
	return fmt.Errorf("admin %s: %w", username, repositories.ErrNotFound)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin", func(t *testing.T) {
		repo := new(MockAdminRepository)
		repo.On("GetByUsername", "admin").Return(nil, notFoundErr("admin")).Once()
		repo.On("Create", mock.MatchedBy(func(a *models.Admin) bool {
			return a.Username == "admin" && a.ID != "" &&
				bcrypt.CompareHashAndPassword([]byte(a.Password), []byte("s3cret")) == nil
		})).Return(nil).Once()

		svc := services.NewAuthService(repo, testJWTSecret, zap.NewNop())
		assert.NoError(t, svc.EnsureAdmin(ctx, "admin", "s3cret"))
		repo.AssertExpectations(t)
	})

	t.Run("keeps matching password", func(t *testing.T) {
		repo := new(MockAdminRepository)
		repo.On("GetByUsername", "admin").Return(&models.Admin{ID: "a1", Username: "admin", Password: hashed(t, "s3cret")}, nil).Once()

		svc := services.NewAuthService(repo, testJWTSecret, zap.NewNop())
		assert.NoError(t, svc.EnsureAdmin(ctx, "admin", "s3cret"))
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
	})

	t.Run("resets changed password", func(t *testing.T) {
		repo := new(MockAdminRepository)
		repo.On("GetByUsername", "admin").Return(&models.Admin{ID: "a1", Username: "admin", Password: hashed(t, "old")}, nil).Once()
		repo.On("UpdatePassword", "a1", mock.AnythingOfType("string")).Return(nil).Once()

		svc := services.NewAuthService(repo, testJWTSecret, zap.NewNop())
		assert.NoError(t, svc.EnsureAdmin(ctx, "admin", "new"))
		repo.AssertExpectations(t)
	})

	t.Run("empty password creates nothing", func(t *testing.T) {
		repo := new(MockAdminRepository)
		repo.On("GetByUsername", "admin").Return(nil, notFoundErr("admin")).Once()

		svc := services.NewAuthService(repo, testJWTSecret, zap.NewNop())
		assert.NoError(t, svc.EnsureAdmin(ctx, "admin", ""))
		repo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestAuthService_LoginAdmin(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAdminRepository)
	svc := services.NewAuthService(repo, testJWTSecret, zap.NewNop())
	admin := &models.Admin{ID: "admin-1", Username: "admin", Password: hashed(t, "s3cret")}

	repo.On("GetByUsername", "admin").Return(admin, nil).Once()
	token, err := svc.LoginAdmin(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "admin-1", claims["admin_id"])
	assert.Equal(t, "admin", claims["username"])
	assert.Equal(t, services.RoleAdmin, claims["role"])

	repo.On("GetByUsername", "admin").Return(admin, nil).Once()
	_, err = svc.LoginAdmin(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	repo.On("GetByUsername", "ghost").Return(nil, notFoundErr("ghost")).Once()
	_, err = svc.LoginAdmin(ctx, "ghost", "s3cret")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	repo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	svc := services.NewAuthService(new(MockAdminRepository), testJWTSecret, zap.NewNop())
	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	valid := sign(jwt.MapClaims{"username": "admin", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}, testJWTSecret)
	claims, err := svc.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["username"])

	tests := map[string]string{
		"garbage":      "invalid.token.string",
		"wrong secret": sign(jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()}, "other"),
		"expired":      sign(jwt.MapClaims{"role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}, testJWTSecret),
		"not admin":    sign(jwt.MapClaims{"role": "customer", "exp": time.Now().Add(time.Hour).Unix()}, testJWTSecret),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorContains(t, err, "invalid token")
		})
	}
}
