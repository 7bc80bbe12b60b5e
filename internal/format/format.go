// Package format turns ping results into the strings shown to an operator.
package format

import (
	"fmt"
	"time"

	"github.com/hamed0406/deviceping/internal/domain"
)

// DateTimeLayout matches the en-US locale rendering of a date and time.
var DateTimeLayout = "1/2/2006, 3:04:05 PM"

// Location is the zone timestamps are rendered in.
var Location = time.Local

const (
	never       = "Never"
	invalidDate = "Invalid date"
	unknown     = "Unknown"
)

// LastSeen renders a timestamp string. Empty means the device was never seen.
func LastSeen(raw string) string {
	if raw == "" {
		return never
	}
	t, err := parseTimestamp(raw)
	if err != nil {
		return invalidDate
	}
	return t.In(Location).Format(DateTimeLayout)
}

func LastSeenTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return never
	}
	return t.In(Location).Format(DateTimeLayout)
}

func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t, nil
	}
	// date-time without offset is local; a bare date is UTC
	if t, lerr := time.ParseInLocation("2006-01-02T15:04:05.999999999", raw, Location); lerr == nil {
		return t, nil
	}
	if t, lerr := time.Parse("2006-01-02", raw); lerr == nil {
		return t, nil
	}
	return time.Time{}, err
}

// Inactivity renders elapsed seconds as "N unit(s) ago".
func Inactivity(seconds *int64) string {
	if seconds == nil || *seconds < 0 {
		return unknown
	}
	s := *seconds
	switch {
	case s < 60:
		return ago(s, "second")
	case s < 3600:
		return ago(s/60, "minute")
	case s < 86400:
		return ago(s/3600, "hour")
	default:
		return ago(s/86400, "day")
	}
}

func ago(n int64, unit string) string {
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}

type Category int

const (
	Unreachable Category = iota
	Reachable
)

// Status maps a ping result to its category. No result reads as unreachable.
func Status(res *domain.PingResponse) Category {
	if res != nil && res.Reachable {
		return Reachable
	}
	return Unreachable
}

func (c Category) String() string {
	if c == Reachable {
		return "reachable"
	}
	return "unreachable"
}

// Icon is the material icon name for the category.
func (c Category) Icon() string {
	if c == Reachable {
		return "check_circle"
	}
	return "cancel"
}

func (c Category) Text() string {
	if c == Reachable {
		return "Device is Reachable"
	}
	return "Device is Unreachable"
}
