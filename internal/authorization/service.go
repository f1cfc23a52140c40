package authorization

import (
	"context"
	"errors"

	authdomain "github.com/agrilink/agrilink/internal/auth/domain"
)

const (
	ObjectFarm        = "farm"
	ObjectLot         = "lot"
	ObjectEvent       = "event"
	ObjectInspection  = "inspection"
	ObjectCertificate = "certificate"
	ObjectDevice      = "device"
)

const (
	ActionFarmCreate        = "farm.create"
	ActionLotCreate         = "lot.create"
	ActionEventCreate       = "event.create"
	ActionInspectionCreate  = "inspection.create"
	ActionCertificateUpload = "certificate.upload"
	ActionDeviceCreate      = "device.create"
	ActionDeviceView        = "device.view"
)

// Service decides whether an authenticated identity may perform an action.
type Service interface {
	Authorize(ctx context.Context, identity authdomain.Identity, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
