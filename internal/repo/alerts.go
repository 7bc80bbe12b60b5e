package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last reachability we saw for a device and the last
// time we sent a notification about it (used for cooldown).
type AlertRecord struct {
	DeviceID   string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, deviceID string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() we store NULL for last_sent_at.
	Set(ctx context.Context, deviceID string, lastState bool, sentAt time.Time) error
}
