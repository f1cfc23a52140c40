// Package seed loads the demo dataset used for local development and pilots.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/internal/auth/password"
	devicedomain "github.com/agrilink/agrilink/internal/device/domain"
	farmdomain "github.com/agrilink/agrilink/internal/farm/domain"
	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DemoPassword   = "password123"
	DemoLotID      = "DEMOLOT"
	DemoDeviceKey  = "DEMO_IOT_KEY_123"
	demoDeviceName = "Demo Temperature Sensor"
	demoLotProduce = "Demo Tomatoes (IoT)"
	lotsPerFarm    = 5
)

var demoUsers = []struct {
	email string
	name  string
	role  authdomain.Role
}{
	{"farmer@agrilink.local", "John Farmer", authdomain.RoleFarmer},
	{"buyer@agrilink.local", "Jane Buyer", authdomain.RoleBuyer},
	{"inspector@agrilink.local", "Mike Inspector", authdomain.RoleInspector},
	{"admin@agrilink.local", "Sarah Admin", authdomain.RoleAdmin},
}

var demoFarms = []struct {
	name     string
	district string
}{
	{"Green Valley Farm", "Chiang Mai"},
	{"Organic Hills", "Chiang Rai"},
	{"Smart Agriculture Co.", "Nakhon Pathom"},
}

var (
	produces   = []string{"Tomatoes", "Lettuce", "Cucumbers", "Bell Peppers", "Carrots"}
	eventTypes = []string{
		lotevent.TypePlanted,
		lotevent.TypeWatered,
		lotevent.TypeFertilized,
		lotevent.TypeHarvested,
		lotevent.TypePackaged,
		lotevent.TypeShipped,
	}
)

// Run seeds users, farms, lots with a short event history and the demo sensor.
// Existing rows are left untouched, so running it twice is safe.
func Run(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1023)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(42, 7))
	now := time.Now().UTC()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var farmer authdomain.User
		for _, u := range demoUsers {
			user, err := ensureUserTx(ctx, tx, node, u.email, u.name, u.role, now)
			if err != nil {
				return err
			}
			if u.role == authdomain.RoleFarmer {
				farmer = user
			}
		}

		var firstFarm farmdomain.Farm
		for i, f := range demoFarms {
			farm, err := ensureFarmTx(ctx, tx, node, f.name, f.district, farmer.ID, now)
			if err != nil {
				return err
			}
			if i == 0 {
				firstFarm = farm
			}
			for n := 1; n <= lotsPerFarm; n++ {
				publicID := farmdomain.SeedPublicID(farm.Name, n)
				if _, err := ensureLotTx(ctx, tx, node, rng, farm.ID, publicID, produces[n-1], now); err != nil {
					return err
				}
			}
		}

		demoLot, err := ensureLotTx(ctx, tx, node, rng, firstFarm.ID, DemoLotID, demoLotProduce, now)
		if err != nil {
			return err
		}
		if err := ensureDeviceTx(ctx, tx, node, demoLot.ID, now); err != nil {
			return err
		}

		log.Info("demo data seeded",
			zap.Int("users", len(demoUsers)),
			zap.Int("farms", len(demoFarms)),
			zap.String("demo_lot", DemoLotID),
		)
		return nil
	})
}

func ensureUserTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, name string, role authdomain.Role, now time.Time) (authdomain.User, error) {
	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	hashed, err := password.Hash(DemoPassword)
	if err != nil {
		return user, err
	}
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        strings.ToLower(email),
		Name:         name,
		Role:         role,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return user, tx.WithContext(ctx).Create(&user).Error
}

func ensureFarmTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name, district string, ownerID snowflake.ID, now time.Time) (farmdomain.Farm, error) {
	var farm farmdomain.Farm
	farmSlug := slug.Make(name)
	err := tx.WithContext(ctx).Where("slug = ? AND owner_id = ?", farmSlug, ownerID).First(&farm).Error
	if err == nil {
		return farm, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return farm, err
	}

	farm = farmdomain.Farm{
		ID:        node.Generate(),
		Name:      name,
		Slug:      farmSlug,
		District:  district,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return farm, tx.WithContext(ctx).Create(&farm).Error
}

// ensureLotTx creates the lot with a 3 to 6 day event history ending yesterday.
func ensureLotTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, rng *rand.Rand, farmID snowflake.ID, publicID, produce string, now time.Time) (farmdomain.Lot, error) {
	var lot farmdomain.Lot
	err := tx.WithContext(ctx).Where("public_id = ?", publicID).First(&lot).Error
	if err == nil {
		return lot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return lot, err
	}

	lot = farmdomain.Lot{
		ID:        node.Generate(),
		PublicID:  publicID,
		FarmID:    farmID,
		Produce:   produce,
		CreatedAt: now,
	}
	if err := tx.WithContext(ctx).Omit("Farm").Create(&lot).Error; err != nil {
		return lot, err
	}

	count := 3 + rng.IntN(4)
	events := make([]lotevent.Event, 0, count)
	for i := 0; i < count; i++ {
		eventType := eventTypes[i%len(eventTypes)]
		temp := 15 + rng.Float64()*10
		hum := 50 + rng.Float64()*30
		events = append(events, lotevent.Event{
			ID:        node.Generate(),
			LotID:     lot.ID,
			Type:      eventType,
			Temp:      &temp,
			Hum:       &hum,
			At:        now.AddDate(0, 0, -(count - i)),
			Note:      fmt.Sprintf("%s event for %s", eventType, produce),
			Place:     fmt.Sprintf("Field Section %d", 1+rng.IntN(5)),
			CreatedAt: now,
		})
	}
	return lot, tx.WithContext(ctx).Create(&events).Error
}

func ensureDeviceTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, lotID snowflake.ID, now time.Time) error {
	hash := devicedomain.HashAPIKey(DemoDeviceKey)
	var existing devicedomain.SensorDevice
	err := tx.WithContext(ctx).Where("api_key_hash = ?", hash).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	device := devicedomain.SensorDevice{
		ID:         node.Generate(),
		Name:       demoDeviceName,
		APIKeyHash: hash,
		BoundLotID: &lotID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return tx.WithContext(ctx).Omit("BoundLot").Create(&device).Error
}
