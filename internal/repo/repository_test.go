package repo_test

import (
	"testing"

	"github.com/hamed0406/deviceping/internal/repo"
	"github.com/hamed0406/deviceping/internal/repo/memory"
	pg "github.com/hamed0406/deviceping/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.DeviceStore = memory.New()
	var _ repo.AttributeStore = memory.New()
	var _ repo.AlertStore = memory.NewAlerts()

	var _ repo.DeviceStore = (*pg.Store)(nil)
	var _ repo.AttributeStore = (*pg.Store)(nil)
	var _ repo.AlertStore = (*pg.Alerts)(nil)
}
