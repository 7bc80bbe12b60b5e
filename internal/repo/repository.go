package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/deviceping/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Ports (interfaces); memory and postgres adapters implement them.
type DeviceStore interface {
	// Add returns ErrDuplicate if the id is taken.
	Add(ctx context.Context, d *domain.Device) error
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id domain.DeviceID) (*domain.Device, error)
	List(ctx context.Context) ([]*domain.Device, error)
}

type AttributeStore interface {
	// Attributes returns zero Attributes for a device that never reported.
	Attributes(ctx context.Context, id domain.DeviceID) (domain.Attributes, error)
	RecordActivity(ctx context.Context, id domain.DeviceID, at time.Time) error
	SetActive(ctx context.Context, id domain.DeviceID, active bool) error
}
