package service

import (
	"context"
	"testing"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/auth/repository"
	"github.com/agrilink/agrilink/internal/clock"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()
	svc, fake, _ := newTestServiceWithDB(t)
	return svc, fake
}

func newTestServiceWithDB(t *testing.T) (authdomain.Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
		Config: config.Config{
			AuthJWTSecret:  "test-secret",
			AuthAccessTTL:  15 * time.Minute,
			AuthRefreshTTL: time.Hour,
		},
	})
	return svc, fake, conn
}

func TestRegisterLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, authdomain.RegisterRequest{
		Email:    " Farmer@AgriLink.local ",
		Name:     "Farmer Joe",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "farmer@agrilink.local", registered.User.Email)
	assert.Equal(t, authdomain.RoleFarmer, registered.User.Role)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)

	_, err = svc.Register(ctx, authdomain.RegisterRequest{Email: "farmer@agrilink.local", Name: "Again", Password: "password123"})
	assert.ErrorIs(t, err, authdomain.ErrUserExists)

	_, err = svc.Login(ctx, authdomain.LoginRequest{Email: "farmer@agrilink.local", Password: "wrong"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, authdomain.LoginRequest{Email: "nobody@agrilink.local", Password: "password123"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	loggedIn, err := svc.Login(ctx, authdomain.LoginRequest{Email: "farmer@agrilink.local", Password: "password123"})
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, loggedIn.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, identity.ID)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), authdomain.RegisterRequest{
		Email: "x@agrilink.local", Name: "X", Password: "password123", Role: "OVERLORD",
	})
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, authdomain.RegisterRequest{Email: "buyer@agrilink.local", Name: "Buyer", Password: "password123", Role: "BUYER"})
	require.NoError(t, err)

	pair, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)

	require.NoError(t, svc.Logout(ctx, "unknown"))
}

func TestRefreshExpiredSession(t *testing.T) {
	svc, fake, conn := newTestServiceWithDB(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, authdomain.RegisterRequest{Email: "i@agrilink.local", Name: "Inspector", Password: "password123", Role: "inspector"})
	require.NoError(t, err)
	assert.Equal(t, authdomain.RoleInspector, res.User.Role)

	fake.Advance(2 * time.Hour)
	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrSessionExpired)

	var remaining int64
	require.NoError(t, conn.Model(&authdomain.Session{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)
}
