package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/format"
	"github.com/hamed0406/deviceping/internal/notify"
	"github.com/hamed0406/deviceping/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter turns reachability changes into notifications.
type Alerter struct {
	logger   *zap.Logger
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(logger *zap.Logger, alertDB repo.AlertStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	return &Alerter{
		logger:   logger,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Observe compares res with the last recorded state of the device and sends
// an alert when it changed.
func (a *Alerter) Observe(ctx context.Context, res *domain.PingResponse) error {
	rec, err := a.alertDB.Get(ctx, res.DeviceID)
	if err != nil {
		return fmt.Errorf("alert state %s: %w", res.DeviceID, err)
	}
	now := a.now()

	// Has reachability changed compared to what we last recorded?
	stateChanged := rec == nil || rec.LastState != res.Reachable
	if !stateChanged {
		return nil
	}

	// Cooldown only matters for unreachable alerts (suppresses flapping).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	downAlert := !res.Reachable && cooled
	recoveryAlert := res.Reachable && rec != nil && a.cfg.AlertOnRecovery // bypass cooldown

	if !downAlert && !recoveryAlert {
		// still record the new state, without a send time
		return a.alertDB.Set(ctx, res.DeviceID, res.Reachable, time.Time{})
	}

	title, text := alertMessage(res)
	if err := a.notifier.Send(ctx, title, text); err != nil {
		a.logger.Warn("alert_send_error", zap.String("device_id", res.DeviceID), zap.Error(err))
	} else {
		a.logger.Info("alert_sent",
			zap.String("device_id", res.DeviceID),
			zap.Bool("reachable", res.Reachable),
		)
	}
	return a.alertDB.Set(ctx, res.DeviceID, res.Reachable, now)
}

func alertMessage(res *domain.PingResponse) (string, string) {
	title := "🔴 Device UNREACHABLE"
	if res.Reachable {
		title = "🟢 Device RECOVERED"
	}
	lastSeen := "never"
	if res.LastSeen != nil {
		lastSeen = res.LastSeen.UTC().Format(time.RFC3339)
	}
	text := fmt.Sprintf(
		"Device: %s (%s)\nStatus: %s\nLast seen: %s\nInactivity: %s",
		res.DeviceName, res.DeviceID,
		format.Status(res).Text(),
		lastSeen,
		format.Inactivity(res.InactivitySeconds),
	)
	return title, text
}
