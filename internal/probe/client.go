package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hamed0406/deviceping/internal/domain"
)

// Client talks to the device ping API.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	breaker *gobreaker.CircuitBreaker
}

type Option func(*gobreaker.Settings)

// WithBreakerThreshold opens the breaker after n consecutive failures.
// n <= 0 keeps the breaker closed forever.
func WithBreakerThreshold(n int) Option {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(c gobreaker.Counts) bool {
			return n > 0 && c.ConsecutiveFailures >= uint32(n)
		}
	}
}

// WithBreakerCooldown sets how long the breaker stays open before probing again.
func WithBreakerCooldown(d time.Duration) Option {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	st := gobreaker.Settings{
		Name:    "device-ping",
		Timeout: 30 * time.Second,
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			// a 4xx means the API answered; it is the request that is wrong
			var te *TransportError
			return errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500
		},
	}
	WithBreakerThreshold(5)(&st)
	for _, o := range opts {
		o(&st)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Ping asks the API whether the device is reachable.
func (c *Client) Ping(ctx context.Context, deviceID string) (*domain.PingResponse, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var body pingBody
		if err := c.do(ctx, http.MethodGet, "/api/device/ping/"+url.PathEscape(deviceID), nil, &body); err != nil {
			return nil, err
		}
		return body.response(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{Err: err}
		}
		return nil, err
	}
	return out.(*domain.PingResponse), nil
}

// pingBody keeps lastSeen as text so a malformed timestamp still yields a result.
type pingBody struct {
	DeviceID          string  `json:"deviceId"`
	DeviceName        string  `json:"deviceName"`
	Reachable         bool    `json:"reachable"`
	LastSeen          *string `json:"lastSeen"`
	InactivitySeconds *int64  `json:"inactivitySeconds"`
}

func (b pingBody) response() *domain.PingResponse {
	res := &domain.PingResponse{
		DeviceID:          b.DeviceID,
		DeviceName:        b.DeviceName,
		Reachable:         b.Reachable,
		InactivitySeconds: b.InactivitySeconds,
	}
	if b.LastSeen != nil {
		res.LastSeenRaw = *b.LastSeen
		if t, err := time.Parse(time.RFC3339Nano, *b.LastSeen); err == nil {
			res.LastSeen = &t
		}
	}
	return res
}

type registerPayload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Register creates a device. An empty id lets the server pick one.
func (c *Client) Register(ctx context.Context, id, name string) (*domain.Device, error) {
	var d domain.Device
	if err := c.do(ctx, http.MethodPost, "/api/devices", registerPayload{ID: id, Name: name}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &TransportError{
			StatusCode: resp.StatusCode,
			Message:    readMessage(resp.Body),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func readMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	b, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || json.Unmarshal(b, &body) != nil {
		return ""
	}
	return body.Message
}
