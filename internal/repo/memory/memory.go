package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/repo"
)

type Store struct {
	mu      sync.RWMutex
	devices map[domain.DeviceID]*domain.Device
	attrs   map[domain.DeviceID]domain.Attributes
}

func New() *Store {
	return &Store{
		devices: make(map[domain.DeviceID]*domain.Device),
		attrs:   make(map[domain.DeviceID]domain.Attributes),
	}
}

func (m *Store) Add(ctx context.Context, d *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = domain.DeviceID(uuid.NewString())
	}
	if _, ok := m.devices[d.ID]; ok {
		return repo.ErrDuplicate
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *Store) Get(ctx context.Context, id domain.DeviceID) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *Store) List(ctx context.Context) ([]*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Device, 0, len(m.devices))
	for _, d := range m.devices {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Store) Attributes(ctx context.Context, id domain.DeviceID) (domain.Attributes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs[id], nil
}

func (m *Store) RecordActivity(ctx context.Context, id domain.DeviceID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return repo.ErrNotFound
	}
	a := m.attrs[id]
	at = at.UTC()
	a.LastActivityTime = &at
	m.attrs[id] = a
	return nil
}

func (m *Store) SetActive(ctx context.Context, id domain.DeviceID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return repo.ErrNotFound
	}
	a := m.attrs[id]
	a.Active = &active
	m.attrs[id] = a
	return nil
}
