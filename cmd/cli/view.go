package main

import (
	"fmt"
	"io"

	"github.com/hamed0406/deviceping/internal/dialog"
	"github.com/hamed0406/deviceping/internal/format"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
)

var icons = map[string]string{
	"check_circle": "✔",
	"cancel":       "✖",
}

func renderHeader(out io.Writer, dc dialog.Context) {
	name := dc.DeviceName
	if name == "" {
		name = dc.DeviceID
	}
	fmt.Fprintf(out, "Ping Device: %s\n", name)
}

func render(out io.Writer, c *dialog.Controller) {
	st := c.State()
	switch st.Phase {
	case dialog.Loading, dialog.Idle:
		fmt.Fprintln(out, "Pinging device...")
	case dialog.Error:
		fmt.Fprintf(out, "%s%s Error:%s %s\n", ansiRed, icons["cancel"], ansiReset, st.Err)
	case dialog.Success:
		color := ansiRed
		if c.StatusCategory() == format.Reachable {
			color = ansiGreen
		}
		fmt.Fprintf(out, "%s%s %s%s\n", color, icons[c.StatusIcon()], c.StatusText(), ansiReset)
		fmt.Fprintf(out, "  Device ID:  %s\n", st.Result.DeviceID)
		fmt.Fprintf(out, "  Last seen:  %s\n", c.LastSeen())
		fmt.Fprintf(out, "  Inactivity: %s\n", c.Inactivity())
	}
}
