package authorization

import (
	"context"
	"testing"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
	"github.com/agrilink/agrilink/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestRolePolicies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	farmer := authdomain.Identity{ID: 1, Role: authdomain.RoleFarmer}
	inspector := authdomain.Identity{ID: 2, Role: authdomain.RoleInspector}
	buyer := authdomain.Identity{ID: 3, Role: authdomain.RoleBuyer}
	admin := authdomain.Identity{ID: 4, Role: authdomain.RoleAdmin}

	cases := []struct {
		name     string
		identity authdomain.Identity
		object   string
		action   string
		allowed  bool
	}{
		{"farmer creates farm", farmer, ObjectFarm, ActionFarmCreate, true},
		{"farmer creates lot", farmer, ObjectLot, ActionLotCreate, true},
		{"farmer uploads certificate", farmer, ObjectCertificate, ActionCertificateUpload, true},
		{"farmer cannot inspect", farmer, ObjectInspection, ActionInspectionCreate, false},
		{"inspector inspects", inspector, ObjectInspection, ActionInspectionCreate, true},
		{"inspector records event", inspector, ObjectEvent, ActionEventCreate, true},
		{"inspector cannot create farm", inspector, ObjectFarm, ActionFarmCreate, false},
		{"buyer cannot create lot", buyer, ObjectLot, ActionLotCreate, false},
		{"buyer cannot register device", buyer, ObjectDevice, ActionDeviceCreate, false},
		{"admin registers device", admin, ObjectDevice, ActionDeviceCreate, true},
		{"admin inspects", admin, ObjectInspection, ActionInspectionCreate, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Authorize(ctx, tc.identity, tc.object, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestRoleChangeReplacesGrouping(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user := authdomain.Identity{ID: 9, Role: authdomain.RoleAdmin}
	require.NoError(t, svc.Authorize(ctx, user, ObjectDevice, ActionDeviceCreate))

	user.Role = authdomain.RoleBuyer
	assert.ErrorIs(t, svc.Authorize(ctx, user, ObjectDevice, ActionDeviceCreate), ErrForbidden)
}

func TestAuthorizeRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Identity{Role: authdomain.RoleAdmin}, ObjectFarm, ActionFarmCreate), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Identity{ID: 1, Role: "GUEST"}, ObjectFarm, ActionFarmCreate), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Identity{ID: 1, Role: authdomain.RoleAdmin}, " ", ActionFarmCreate), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, authdomain.Identity{ID: 1, Role: authdomain.RoleAdmin}, ObjectFarm, ""), ErrInvalidAction)
}
