package seed_test

import (
	"context"
	"testing"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/auth/password"
	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/agrilink/agrilink/internal/migration"
	"github.com/agrilink/agrilink/internal/seed"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunSeedsDemoDataOnce(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(conn))
	ctx := context.Background()

	require.NoError(t, seed.Run(ctx, conn, zap.NewNop()))
	require.NoError(t, seed.Run(ctx, conn, zap.NewNop()))

	var users, farms, lots, devices int64
	require.NoError(t, conn.Model(&authdomain.User{}).Count(&users).Error)
	require.NoError(t, conn.Model(&farmdomain.Farm{}).Count(&farms).Error)
	require.NoError(t, conn.Model(&farmdomain.Lot{}).Count(&lots).Error)
	require.NoError(t, conn.Model(&devicedomain.SensorDevice{}).Count(&devices).Error)
	assert.EqualValues(t, 4, users)
	assert.EqualValues(t, 3, farms)
	assert.EqualValues(t, 16, lots)
	assert.EqualValues(t, 1, devices)

	var admin authdomain.User
	require.NoError(t, conn.Where("email = ?", "admin@agrilink.local").First(&admin).Error)
	assert.Equal(t, authdomain.RoleAdmin, admin.Role)
	assert.True(t, password.Verify(seed.DemoPassword, admin.PasswordHash))

	var demo farmdomain.Lot
	require.NoError(t, conn.Preload("Farm").Where("public_id = ?", seed.DemoLotID).First(&demo).Error)
	assert.Equal(t, "Green Valley Farm", demo.Farm.Name)

	var device devicedomain.SensorDevice
	require.NoError(t, conn.Where("api_key_hash = ?", devicedomain.HashAPIKey(seed.DemoDeviceKey)).First(&device).Error)
	require.NotNil(t, device.BoundLotID)
	assert.Equal(t, demo.ID, *device.BoundLotID)

	var smart farmdomain.Lot
	require.NoError(t, conn.Where("public_id = ?", "LOT-SMARTAGRICULTURECO-5").First(&smart).Error)
	assert.Equal(t, "Carrots", smart.Produce)

	var events []lotevent.Event
	require.NoError(t, conn.Where("lot_id = ?", demo.ID).Find(&events).Error)
	assert.GreaterOrEqual(t, len(events), 3)
	assert.LessOrEqual(t, len(events), 6)
	for _, ev := range events {
		require.NotNil(t, ev.Temp)
		assert.GreaterOrEqual(t, *ev.Temp, 15.0)
		assert.Less(t, *ev.Temp, 25.0)
	}
}
