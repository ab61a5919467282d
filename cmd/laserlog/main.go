package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"codeberg.org/mutker/laserlog/internal/archive"
	"codeberg.org/mutker/laserlog/internal/category"
	"codeberg.org/mutker/laserlog/internal/config"
	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/device"
	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
	"codeberg.org/mutker/laserlog/internal/observer"
	"codeberg.org/mutker/laserlog/internal/pid"
	"codeberg.org/mutker/laserlog/internal/publish/influx"
	"codeberg.org/mutker/laserlog/internal/publish/mqtt"
	"codeberg.org/mutker/laserlog/internal/telemetry"
	"github.com/trickstertwo/xclock"
)

type app struct {
	cfg    *config.Config
	dev    *device.Simulated
	dl     *datalog.Logger
	series *observer.Series
	closer []func() error
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Str("file", cfg.ConfigFile).Msg("Config loaded")

	lock, err := pid.Acquire(pid.DefaultDir())
	if err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("Failed to write PID file")
	}

	a, err := newApp(cfg)
	if err != nil {
		_ = lock.Release()
		logger.FatalWithCode(asCoded(err)).Msg("Failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := a.run(ctx); err != nil {
		logger.ErrorWithCode(asCoded(err)).Msg("Error in main loop")
	}
	a.cleanup()

	if err := lock.Release(); err != nil {
		logger.Warn().Err(err).Msg("Failed to remove PID file")
	}
}

func newApp(cfg *config.Config) (*app, error) {
	errFactory := errors.New()

	profile := device.DefaultProfile()
	if cfg.DeviceProfile != "" {
		var err error
		if profile, err = device.LoadProfile(cfg.DeviceProfile); err != nil {
			return nil, err
		}
	}

	dev, err := device.NewSimulated(profile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, dev: dev, series: observer.NewSeries(cfg.SeriesWindow)}

	a.dl = datalog.New(dev, category.NewRegistry(dev),
		datalog.WithIntervalSeconds(cfg.Interval),
		datalog.WithResumeOnReconnect(cfg.ResumeOnReconnect),
		datalog.WithRecorder(telemetry.NewRecorder()),
		datalog.WithFilePath(a.logFilePath()),
	)
	if !a.dl.SetFilePathSuccessful() {
		return nil, errFactory.WithData(datalog.ErrFileOpen, a.dl.FilePath())
	}

	for _, id := range cfg.CategoryIDs() {
		if err := a.dl.IncludeCategory(id); err != nil {
			return nil, err
		}
	}

	a.dl.Subscribe(observer.NewDebug())
	a.dl.Subscribe(a.series)

	if err := a.attachSinks(); err != nil {
		a.cleanup()
		return nil, err
	}

	return a, nil
}

func (a *app) logFilePath() string {
	if a.cfg.LogFile != "" {
		return a.cfg.LogFile
	}
	name := datalog.DefaultFileName(a.dev.LaserModel(), a.dev.SerialNumber(), xclock.Now())
	return filepath.Join(a.cfg.LogDir, name)
}

func (a *app) attachSinks() error {
	store, err := archive.NewService(a.cfg.Archive)
	if err != nil {
		return err
	}
	a.closer = append(a.closer, store.Close)
	a.dl.Subscribe(archive.NewObserver(store))

	if a.cfg.MQTT.Enabled {
		client, err := mqtt.Connect(a.cfg.MQTT)
		if err != nil {
			return err
		}
		a.closer = append(a.closer, client.Close)
		obs := mqtt.NewObserver(client, a.cfg.MQTT, a.dev.SerialNumber())
		a.dl.Subscribe(obs)
		logger.Info().Str("topic", obs.Topic()).Msg("Publishing data points to MQTT")
	}

	if a.cfg.Influx.Enabled {
		client, err := influx.Connect(context.Background(), a.cfg.Influx)
		if err != nil {
			return err
		}
		a.closer = append(a.closer, client.Close)
		a.dl.Subscribe(influx.NewObserver(client.Writer(), a.dev.SerialNumber()))
	}

	return nil
}

func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.dl.Start(); err != nil {
		return err
	}

	logger.Info().
		Str("file", a.dl.FilePath()).
		Str("model", a.dev.LaserModel()).
		Str("serial", a.dev.SerialNumber()).
		Msg("Laser state logging active")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.dl.Wait()
		// The sampler exits on its own after a fatal error or a disconnect
		// without resume.
		cancel()
		return a.dl.Err()
	})

	g.Go(func() error {
		<-gctx.Done()
		a.dl.Stop()
		return nil
	})

	if a.cfg.MetricsAddr != "" {
		g.Go(func() error {
			logger.Info().Str("addr", a.cfg.MetricsAddr).Msg("Serving metrics")
			return telemetry.Serve(gctx, a.cfg.MetricsAddr)
		})
	}

	return g.Wait()
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func (a *app) cleanup() {
	if a.dl != nil {
		a.dl.Stop()
		a.dl.Wait()

		logger.Info().
			Int("total", a.dl.TotalLoggedDataPoints()).
			Int("alarms", len(a.series.Alarms())).
			Str("session", a.dl.SessionID()).
			Msg("Logging finished")
	}

	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](); err != nil {
			logger.Error().Err(err).Msg("Failed to close sink")
		}
	}
	a.closer = nil

	logger.Info().Msg("Exiting...")
}

func asCoded(err error) errors.Error {
	var coded errors.Error
	if errors.As(err, &coded) {
		return coded
	}
	return errors.New().Wrap(errors.ErrInternal, err)
}
