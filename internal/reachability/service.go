// Package reachability decides whether a device is reachable from the
// attributes it last reported.
package reachability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/repo"
)

const DefaultTimeout = 60 * time.Second

type Service struct {
	Logger     *zap.Logger
	Devices    repo.DeviceStore
	Attributes repo.AttributeStore
	// Timeout is how long after its last activity a device still counts as reachable.
	Timeout time.Duration

	now func() time.Time
}

func NewService(logger *zap.Logger, ds repo.DeviceStore, as repo.AttributeStore, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		Logger:     logger,
		Devices:    ds,
		Attributes: as,
		Timeout:    timeout,
		now:        time.Now,
	}
}

// Ping looks the device up and evaluates it. Unknown ids return repo.ErrNotFound.
func (s *Service) Ping(ctx context.Context, id domain.DeviceID) (*domain.PingResponse, error) {
	d, err := s.Devices.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", id, err)
	}
	return s.Evaluate(ctx, d), nil
}

// Evaluate builds the ping response for a known device. Attribute read
// failures are logged and treated as if the attribute was never written.
func (s *Service) Evaluate(ctx context.Context, d *domain.Device) *domain.PingResponse {
	s.Logger.Debug("device_ping",
		zap.String("device_id", string(d.ID)),
		zap.String("device_name", d.Name),
	)

	attrs, err := s.Attributes.Attributes(ctx, d.ID)
	if err != nil {
		s.Logger.Warn("device_attributes_error",
			zap.String("device_id", string(d.ID)),
			zap.Error(err),
		)
		attrs = domain.Attributes{}
	}

	now := s.now()
	res := &domain.PingResponse{
		DeviceID:   string(d.ID),
		DeviceName: d.Name,
	}

	if last := attrs.LastActivityTime; last != nil && last.UnixMilli() > 0 {
		seen := last.UTC().Truncate(time.Second)
		inactive := int64(now.Sub(*last) / time.Second)
		res.LastSeen = &seen
		res.InactivitySeconds = &inactive
		res.Reachable = IsReachable(*last, s.Timeout, now)
	}

	if !res.Reachable && attrs.Active != nil && *attrs.Active {
		res.Reachable = true
	}
	return res
}

// IsReachable reports whether last is no older than timeout at now.
func IsReachable(last time.Time, timeout time.Duration, now time.Time) bool {
	return now.Sub(last) <= timeout
}
