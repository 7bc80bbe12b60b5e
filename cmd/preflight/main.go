// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hamed0406/deviceping/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail(err.Error())
	}

	if len(cfg.AdminAPIKeys) == 0 {
		fail("ADMIN_API_KEYS is empty (device registration will 401).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		fail("PUBLIC_API_KEYS is empty (ping requests will 401).")
	}

	// Lists are comma-separated with no spaces.
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS", "ALLOWED_ORIGINS"} {
		if strings.Contains(os.Getenv(name), " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	ok("API_ADDR=" + cfg.Addr)

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; devices and activity are kept in memory and lost on restart.")
	} else if _, err := url.Parse(cfg.DatabaseURL); err != nil {
		fail("DATABASE_URL is not a valid URL: " + err.Error())
	} else {
		ok("DATABASE_URL present")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; every origin is allowed by CORS.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.PingTimeout <= 0 {
		fail("DEVICE_PING_TIMEOUT_MS must be positive.")
	}
	ok("device ping timeout " + cfg.PingTimeout.String())

	if cfg.WatchInterval > 0 {
		if cfg.SlackWebhook == "" && (cfg.TelegramToken == "" || cfg.TelegramChatID == 0) {
			warn("WATCH_INTERVAL_MS set but no SLACK_WEBHOOK or TELEGRAM_TOKEN/TELEGRAM_CHAT_ID; transitions will only be logged.")
		} else {
			ok("alerts enabled every " + cfg.WatchInterval.String())
		}
	}

	ok("preflight passed")
}
