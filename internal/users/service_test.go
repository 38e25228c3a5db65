package users

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/auth"
	"github.com/infinity-cafe/cafe-backend/pkg/config"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "users-test-secret",
		Issuer:            "cafe-test",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	// Small argon2id parameters keep the suite fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	logg := logger.New(logger.Options{ServiceName: "users-test", Output: io.Discard})
	svc, err := NewService(conn, testJWTConfig(), testPasswordConfig(), logg)
	require.NoError(t, err)
	return svc, conn
}

func TestRegisterHashesPasswordAndStoresUser(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Register(ctx, RegisterInput{
		Username: "barista1",
		Password: "espresso-machine",
		Role:     enums.RoleBarista,
	})
	require.NoError(t, err)
	assert.Equal(t, "barista1", dto.Username)
	assert.Equal(t, enums.RoleBarista, dto.Role)
	assert.True(t, dto.IsActive)

	var row models.User
	require.NoError(t, conn.First(&row, "username = ?", "barista1").Error)
	assert.NotEqual(t, "espresso-machine", row.PasswordHash)
	assert.Contains(t, row.PasswordHash, "$argon2id$")
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing username", RegisterInput{Password: "long-enough-pw", Role: enums.RoleBarista}},
		{"short password", RegisterInput{Username: "u", Password: "short", Role: enums.RoleBarista}},
		{"bad role", RegisterInput{Username: "u", Password: "long-enough-pw", Role: enums.UserRole("owner")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "admin", Password: "first-password", Role: enums.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "admin", Password: "other-password", Role: enums.RoleBarista})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestLoginMintsParsableToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Username: "kitchen1",
		Password: "flat-white-12",
		Role:     enums.RoleKitchen,
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "kitchen1", "flat-white-12")
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.User.ID)

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "kitchen1", claims.Username)
	assert.Equal(t, enums.RoleKitchen, claims.Role)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "barista2",
		Password: "correct-horse",
		Role:     enums.RoleBarista,
	})
	require.NoError(t, err)

	// Wrong password and unknown username must be indistinguishable.
	_, errPass := svc.Login(ctx, "barista2", "wrong-password")
	_, errUser := svc.Login(ctx, "nobody", "correct-horse")
	require.Error(t, errPass)
	require.Error(t, errUser)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(errPass).Code())
	assert.Equal(t, pkgerrors.As(errPass).Error(), pkgerrors.As(errUser).Error())
}

func TestLoginRejectsDeactivatedUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		Username: "leaver",
		Password: "still-valid-pw",
		Role:     enums.RoleBarista,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	_, err = svc.Login(ctx, "leaver", "still-valid-pw")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestDeactivateUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	err := svc.Deactivate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListReturnsUsersSortedByUsername(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, username := range []string{"zoe", "amir", "mika"} {
		_, err := svc.Register(ctx, RegisterInput{
			Username: username,
			Password: "password-" + username,
			Role:     enums.RoleBarista,
		})
		require.NoError(t, err)
	}

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "amir", listed[0].Username)
	assert.Equal(t, "mika", listed[1].Username)
	assert.Equal(t, "zoe", listed[2].Username)
}
