package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/deviceping/internal/config"
	"github.com/hamed0406/deviceping/internal/httpapi"
	apimw "github.com/hamed0406/deviceping/internal/httpapi/middleware"
	"github.com/hamed0406/deviceping/internal/logging"
	"github.com/hamed0406/deviceping/internal/notify"
	"github.com/hamed0406/deviceping/internal/reachability"
	"github.com/hamed0406/deviceping/internal/repo"
	"github.com/hamed0406/deviceping/internal/repo/memory"
	"github.com/hamed0406/deviceping/internal/repo/postgres"
	"github.com/hamed0406/deviceping/internal/scheduler"
)

type stores struct {
	devices repo.DeviceStore
	attrs   repo.AttributeStore
	alerts  repo.AlertStore
	close   func()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		m := memory.New()
		logger.Info("store_memory")
		return stores{devices: m, attrs: m, alerts: memory.NewAlerts(), close: func() {}}, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return stores{}, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return stores{}, err
	}
	logger.Info("store_postgres")
	return stores{devices: pg, attrs: pg, alerts: pg.Alerts(), close: pg.Close}, nil
}

func notifiers(cfg config.Config, logger *zap.Logger) notify.Multi {
	var out notify.Multi
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		out = append(out, s)
	}
	tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		logger.Warn("telegram_disabled", zap.Error(err))
	} else if tg != nil {
		out = append(out, tg)
	}
	return out
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_error", zap.Error(err))
	}
	defer st.close()

	svc := reachability.NewService(logger, st.devices, st.attrs, cfg.PingTimeout)
	api := httpapi.NewServer(logger, st.devices, st.attrs, svc)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	alerter := scheduler.NewAlerter(logger, st.alerts, notifiers(cfg, logger), scheduler.AlerterConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		Cooldown:        cfg.AlertCooldown,
	})
	watcher := scheduler.NewWatcher(logger, st.devices, svc, alerter, cfg.WatchInterval, cfg.WatchConcurrent, cfg.WatchRate)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		watcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api_exit", zap.Error(err))
	}
}
