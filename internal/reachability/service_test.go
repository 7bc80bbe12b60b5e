package reachability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/repo"
	"github.com/hamed0406/deviceping/internal/repo/memory"
)

var fixedNow = time.Date(2024, 12, 6, 10, 32, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Add(context.Background(), &domain.Device{ID: "d1", Name: "Sensor A"}))
	svc := NewService(zap.NewNop(), store, store, time.Minute)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestPing_NeverActive(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Ping(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", res.DeviceID)
	assert.Equal(t, "Sensor A", res.DeviceName)
	assert.False(t, res.Reachable)
	assert.Nil(t, res.LastSeen)
	assert.Nil(t, res.InactivitySeconds)
}

func TestPing_RecentActivityIsReachable(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.RecordActivity(context.Background(), "d1", fixedNow.Add(-30*time.Second-400*time.Millisecond)))

	res, err := svc.Ping(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, res.Reachable)
	require.NotNil(t, res.InactivitySeconds)
	assert.EqualValues(t, 30, *res.InactivitySeconds)
	require.NotNil(t, res.LastSeen)
	assert.Equal(t, 0, res.LastSeen.Nanosecond())
}

func TestPing_StaleActivity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.RecordActivity(ctx, "d1", fixedNow.Add(-2*time.Hour)))

	res, err := svc.Ping(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, res.Reachable)
	assert.EqualValues(t, 7200, *res.InactivitySeconds)

	// the server-side active flag overrides stale activity
	require.NoError(t, store.SetActive(ctx, "d1", true))
	res, err = svc.Ping(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, res.Reachable)
}

func TestPing_TimeoutBoundaryIsInclusive(t *testing.T) {
	svc, store := newTestService(t)
	require.NoError(t, store.RecordActivity(context.Background(), "d1", fixedNow.Add(-time.Minute)))
	res, err := svc.Ping(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, res.Reachable)
}

func TestPing_UnknownDevice(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Ping(context.Background(), "nope")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

type brokenAttrs struct{}

func (brokenAttrs) Attributes(context.Context, domain.DeviceID) (domain.Attributes, error) {
	return domain.Attributes{}, errors.New("db down")
}
func (brokenAttrs) RecordActivity(context.Context, domain.DeviceID, time.Time) error { return nil }
func (brokenAttrs) SetActive(context.Context, domain.DeviceID, bool) error { return nil }

func TestPing_AttributeErrorsReadAsNeverActive(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Attributes = brokenAttrs{}
	res, err := svc.Ping(context.Background(), "d1")
	require.NoError(t, err)
	assert.False(t, res.Reachable)
	assert.Nil(t, res.LastSeen)
}

func TestIsReachable(t *testing.T) {
	now := time.Now()
	assert.True(t, IsReachable(now.Add(-59*time.Second), time.Minute, now))
	assert.False(t, IsReachable(now.Add(-61*time.Second), time.Minute, now))
}
