package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/repo"
)

// Evaluator computes the ping response for a known device.
type Evaluator interface {
	Evaluate(ctx context.Context, d *domain.Device) *domain.PingResponse
}

// Observer receives every evaluation the watcher makes.
type Observer interface {
	Observe(ctx context.Context, res *domain.PingResponse) error
}

// Watcher periodically re-evaluates every device.
type Watcher struct {
	Logger      *zap.Logger
	Devices     repo.DeviceStore
	Evaluator   Evaluator
	Observer    Observer
	Interval    time.Duration
	Concurrency int

	limiter ratelimit.Limiter
}

// NewWatcher paces evaluations to at most perSecond per second (<= 0 means unlimited).
func NewWatcher(
	logger *zap.Logger,
	ds repo.DeviceStore,
	ev Evaluator,
	obs Observer,
	interval time.Duration,
	concurrency int,
	perSecond int,
) *Watcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	limiter := ratelimit.NewUnlimited()
	if perSecond > 0 {
		limiter = ratelimit.New(perSecond)
	}
	return &Watcher{
		Logger:      logger,
		Devices:     ds,
		Evaluator:   ev,
		Observer:    obs,
		Interval:    interval,
		Concurrency: concurrency,
		limiter:     limiter,
	}
}

// Run does an immediate pass, then runs each tick. Stops when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if w.Interval == 0 {
		// disabled
		w.Logger.Info("watcher_disabled")
		return
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// immediate pass
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("watcher_stopped")
			return
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	ds, err := w.Devices.List(ctx)
	if err != nil {
		w.Logger.Warn("watcher_list_error", zap.Error(err))
		return
	}

	sem := make(chan struct{}, w.Concurrency)
	var wg sync.WaitGroup

	for _, d := range ds {
		if ctx.Err() != nil {
			break
		}
		w.limiter.Take()
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(d *domain.Device) {
			defer func() { <-sem }()
			defer wg.Done()

			res := w.Evaluator.Evaluate(ctx, d)
			if w.Observer == nil {
				return
			}
			if err := w.Observer.Observe(ctx, res); err != nil {
				w.Logger.Warn("watcher_observe_error",
					zap.String("device_id", string(d.ID)),
					zap.Error(err),
				)
				return
			}
			w.Logger.Debug("watcher_checked",
				zap.String("device_id", res.DeviceID),
				zap.Bool("reachable", res.Reachable),
			)
		}(d)
	}

	wg.Wait()
}
