package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/config"
	"github.com/hamed0406/deviceping/internal/dialog"
	"github.com/hamed0406/deviceping/internal/logging"
	"github.com/hamed0406/deviceping/internal/probe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := newApp(cfg, os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp(cfg config.Config, in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "deviceping",
		Usage:     "Check whether a device is reachable",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the deviceping API",
				Value:   cfg.APIBase,
				EnvVars: []string{"API_BASE"},
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "API key sent as X-API-Key",
				Value:   cfg.APIKey,
				EnvVars: []string{"API_KEY"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "HTTP timeout per request",
				Value: cfg.HTTPTimeout,
			},
			&cli.PathFlag{
				Name:    "log-dir",
				Value:   cfg.LogDir,
				EnvVars: []string{"LOG_DIR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ping",
				Usage:     "Ping a device and show its reachability",
				ArgsUsage: "<device-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "device name shown in the header"},
					&cli.BoolFlag{Name: "no-retry", Usage: "exit on error instead of offering a retry"},
				},
				Action: func(c *cli.Context) error {
					id := strings.TrimSpace(c.Args().First())
					if id == "" {
						return cli.Exit("device id is required", 2)
					}
					logger, err := logging.NewCLILogger(c.Path("log-dir"))
					if err != nil {
						return err
					}
					defer func() { _ = logger.Sync() }()

					client := newClient(c, cfg)
					return runPing(c.Context, logger, client, dialog.Context{
						DeviceID:   id,
						DeviceName: c.String("name"),
					}, in, c.App.Writer, !c.Bool("no-retry"))
				},
			},
			{
				Name:      "register",
				Usage:     "Register a device (admin key required)",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "device UUID; generated when empty"},
				},
				Action: func(c *cli.Context) error {
					name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
					if name == "" {
						return cli.Exit("device name is required", 2)
					}
					d, err := newClient(c, cfg).Register(c.Context, c.String("id"), name)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Registered %s (%s)\n", d.Name, d.ID)
					return nil
				},
			},
		},
	}
}

func newClient(c *cli.Context, cfg config.Config) *probe.Client {
	return probe.NewClient(c.String("api"), c.String("key"), c.Duration("timeout"),
		probe.WithBreakerThreshold(cfg.BreakerFailures))
}

// terminalHost dismisses the dialog by closing done.
type terminalHost struct {
	done chan struct{}
}

func (h *terminalHost) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func runPing(ctx context.Context, logger *zap.Logger, p dialog.Prober, dc dialog.Context, in io.Reader, out io.Writer, offerRetry bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := &terminalHost{done: make(chan struct{})}
	ctrl, err := dialog.New(dc, p,
		dialog.WithHost(host),
		dialog.WithLogger(logger),
	)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ctrl.Dispose()

	renderHeader(out, dc)
	reader := bufio.NewReader(in)
	ctrl.Open()

	for {
		if !settle(ctx, ctrl, out) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		st := ctrl.State()
		render(out, ctrl)
		if st.Phase != dialog.Error || !offerRetry || !askRetry(reader, out) {
			ctrl.Close()
			break
		}
		ctrl.Retry()
	}

	<-host.done
	if ctrl.State().Phase == dialog.Error {
		return cli.Exit("", 1)
	}
	return nil
}

// settle waits for the current probe, drawing a spinner while it runs.
// It returns false when ctx is cancelled first.
func settle(ctx context.Context, ctrl *dialog.Controller, out io.Writer) bool {
	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()
	t := time.NewTicker(150 * time.Millisecond)
	defer t.Stop()
	frames := []string{"|", "/", "-", "\\"}
	for i := 0; ; i++ {
		select {
		case <-done:
			fmt.Fprint(out, "\r")
			return true
		case <-ctx.Done():
			ctrl.Dispose()
			fmt.Fprint(out, "\r")
			return false
		case <-t.C:
			fmt.Fprintf(out, "\r%s Pinging device...", frames[i%len(frames)])
		}
	}
}

func askRetry(r *bufio.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Retry? [y/N]: ")
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
