// Package dialog drives a single device ping from request to display.
package dialog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/format"
)

// DefaultErrorMessage is shown when a failed probe carries no message at all.
const DefaultErrorMessage = "Failed to ping device"

var ErrMissingDeviceID = errors.New("dialog: device id is required")

// Context identifies the device the dialog was opened for.
type Context struct {
	DeviceID   string
	DeviceName string
}

// Prober checks reachability of one device.
type Prober interface {
	Ping(ctx context.Context, deviceID string) (*domain.PingResponse, error)
}

// Host is whatever presents the dialog and can dismiss it.
type Host interface {
	Close()
}

// request is the handle of one in-flight probe. Only the current handle may
// settle state; dropping it is how a probe is cancelled.
type request struct {
	cancel context.CancelFunc
}

type Controller struct {
	dc       Context
	prober   Prober
	host     Host
	logger   *zap.Logger
	onChange func(State)

	mu       sync.Mutex
	state    State
	current  *request
	disposed bool
	wg       sync.WaitGroup
}

type Option func(*Controller)

func WithHost(h Host) Option { return func(c *Controller) { c.host = h } }

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithOnChange registers fn to be called after every state transition.
// fn runs with the controller unlocked and may query it.
func WithOnChange(fn func(State)) Option { return func(c *Controller) { c.onChange = fn } }

func New(dc Context, p Prober, opts ...Option) (*Controller, error) {
	if dc.DeviceID == "" {
		return nil, ErrMissingDeviceID
	}
	if p == nil {
		return nil, errors.New("dialog: prober is required")
	}
	c := &Controller{dc: dc, prober: p, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Controller) Context() Context { return c.dc }

// Open issues the first probe.
func (c *Controller) Open() { c.issue("open") }

// Retry abandons any in-flight probe and issues a fresh one.
func (c *Controller) Retry() { c.issue("retry") }

func (c *Controller) issue(reason string) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if c.current != nil {
		c.current.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	req := &request{cancel: cancel}
	c.current = req
	c.state = loading()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("ping_issued",
		zap.String("device_id", c.dc.DeviceID),
		zap.String("reason", reason),
	)
	c.notify(loading())

	go func() {
		defer c.wg.Done()
		defer cancel()
		res, err := c.prober.Ping(ctx, c.dc.DeviceID)
		c.settle(req, res, err)
	}()
}

func (c *Controller) settle(req *request, res *domain.PingResponse, err error) {
	c.mu.Lock()
	if c.current != req {
		c.mu.Unlock()
		c.logger.Debug("ping_discarded", zap.String("device_id", c.dc.DeviceID))
		return
	}
	c.current = nil
	switch {
	case err != nil:
		c.state = failed(errorMessage(err))
	case res == nil:
		c.state = failed(DefaultErrorMessage)
	default:
		c.state = succeeded(res)
	}
	st := c.state
	c.mu.Unlock()

	if st.Phase == Error {
		c.logger.Info("ping_failed",
			zap.String("device_id", c.dc.DeviceID),
			zap.String("message", st.Err),
			zap.Error(err),
		)
	} else {
		c.logger.Info("ping_settled",
			zap.String("device_id", c.dc.DeviceID),
			zap.Bool("reachable", res != nil && res.Reachable),
		)
	}
	c.notify(st)
}

func (c *Controller) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}

// Close asks the host to dismiss the dialog. It does not cancel the probe.
func (c *Controller) Close() {
	if c.host != nil {
		c.host.Close()
	}
}

// Dispose releases the in-flight probe. State is frozen from here on.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
		c.current = nil
	}
	c.disposed = true
}

// Wait blocks until every probe goroutine started so far has returned.
func (c *Controller) Wait() { c.wg.Wait() }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) result() *domain.PingResponse {
	st := c.State()
	if st.Phase != Success {
		return nil
	}
	return st.Result
}

func (c *Controller) StatusCategory() format.Category { return format.Status(c.result()) }

func (c *Controller) StatusIcon() string { return c.StatusCategory().Icon() }

func (c *Controller) StatusText() string { return c.StatusCategory().Text() }

func (c *Controller) LastSeen() string {
	if res := c.result(); res != nil {
		if res.LastSeenRaw != "" {
			return format.LastSeen(res.LastSeenRaw)
		}
		return format.LastSeenTime(res.LastSeen)
	}
	return format.LastSeenTime(nil)
}

func (c *Controller) Inactivity() string {
	if res := c.result(); res != nil {
		return format.Inactivity(res.InactivitySeconds)
	}
	return format.Inactivity(nil)
}

// apiMessager is implemented by errors that carry a message from the server.
type apiMessager interface {
	APIMessage() string
}

func errorMessage(err error) string {
	var am apiMessager
	if errors.As(err, &am) {
		if m := am.APIMessage(); m != "" {
			return m
		}
	}
	if m := err.Error(); m != "" {
		return m
	}
	return DefaultErrorMessage
}
