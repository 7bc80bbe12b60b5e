package domain

import "time"

type DeviceID string

type Device struct {
	ID        DeviceID  `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Attributes are the server-side attributes consulted when a device is pinged.
// A nil field means the attribute has never been written.
type Attributes struct {
	LastActivityTime *time.Time
	Active           *bool
}

// PingResponse is the reachability report for one device.
type PingResponse struct {
	DeviceID          string     `json:"deviceId"`
	DeviceName        string     `json:"deviceName"`
	Reachable         bool       `json:"reachable"`
	LastSeen          *time.Time `json:"lastSeen"`          // nil if never active
	InactivitySeconds *int64     `json:"inactivitySeconds"` // nil if never active

	// LastSeenRaw is lastSeen exactly as a client received it. LastSeen stays
	// nil when it does not parse.
	LastSeenRaw string `json:"-"`
}
