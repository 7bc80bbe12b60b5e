package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/deviceping/internal/repo"
)

type Alerts struct {
	mu sync.Mutex
	m  map[string]repo.AlertRecord
}

func NewAlerts() *Alerts {
	return &Alerts{m: make(map[string]repo.AlertRecord)}
}

func (a *Alerts) Get(ctx context.Context, deviceID string) (*repo.AlertRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.m[deviceID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (a *Alerts) Set(ctx context.Context, deviceID string, lastState bool, sentAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	a.m[deviceID] = repo.AlertRecord{DeviceID: deviceID, LastState: lastState, LastSentAt: ts}
	return nil
}
