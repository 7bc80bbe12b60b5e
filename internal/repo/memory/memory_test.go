package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/repo"
)

func TestMemoryStore_AddGetList(t *testing.T) {
	ctx := context.Background()
	s := New()

	d := &domain.Device{Name: "Sensor A"}
	if err := s.Add(ctx, d); err != nil {
		t.Fatalf("Add device: %v", err)
	}
	if d.ID == "" || d.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt to be set: %+v", d)
	}

	got, err := s.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Sensor A" {
		t.Fatalf("unexpected name: %s", got.Name)
	}

	if err := s.Add(ctx, &domain.Device{ID: d.ID, Name: "again"}); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 device, got %d", len(all))
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Attributes(t *testing.T) {
	ctx := context.Background()
	s := New()
	d := &domain.Device{ID: "d1", Name: "Sensor A"}
	if err := s.Add(ctx, d); err != nil {
		t.Fatalf("Add: %v", err)
	}

	a, err := s.Attributes(ctx, "d1")
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if a.LastActivityTime != nil || a.Active != nil {
		t.Fatalf("expected empty attributes, got %+v", a)
	}

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.RecordActivity(ctx, "d1", at); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := s.SetActive(ctx, "d1", true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	a, _ = s.Attributes(ctx, "d1")
	if a.LastActivityTime == nil || !a.LastActivityTime.Equal(at) {
		t.Fatalf("unexpected last activity: %v", a.LastActivityTime)
	}
	if a.Active == nil || !*a.Active {
		t.Fatalf("expected active=true, got %v", a.Active)
	}

	if err := s.RecordActivity(ctx, "nope", at); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown device, got %v", err)
	}
}

func TestAlerts_GetSet(t *testing.T) {
	ctx := context.Background()
	a := NewAlerts()
	if rec, err := a.Get(ctx, "d1"); err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}
	if err := a.Set(ctx, "d1", false, time.Time{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, _ := a.Get(ctx, "d1")
	if rec == nil || rec.LastSentAt != nil || rec.LastState {
		t.Fatalf("unexpected: %+v", rec)
	}
	if err := a.Set(ctx, "d1", true, time.Now()); err != nil {
		t.Fatalf("set2: %v", err)
	}
	rec, _ = a.Get(ctx, "d1")
	if rec == nil || rec.LastSentAt == nil || !rec.LastState {
		t.Fatalf("unexpected2: %+v", rec)
	}
}
