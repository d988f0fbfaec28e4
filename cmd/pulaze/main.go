// Command pulaze runs the carnival bloco feed as a local service: it polls
// the backend on a schedule, keeps the assembled feed in memory and serves
// it over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/pulaze/blocos/internal/api"
	"github.com/pulaze/blocos/internal/config"
	"github.com/pulaze/blocos/internal/favorites"
	"github.com/pulaze/blocos/internal/feed"
	"github.com/pulaze/blocos/internal/httpapi"
	"github.com/pulaze/blocos/internal/metrics"
	"github.com/pulaze/blocos/internal/render"
	"github.com/pulaze/blocos/internal/weather"
)

func main() {
	configPath := flag.String("config", "pulaze.yaml", "path to the YAML configuration file")
	listen := flag.String("listen", "", "listen address, overrides the configured one")
	once := flag.Bool("once", false, "fetch a single cycle, print the timeline and exit")
	printTimeline := flag.Bool("print", false, "print the timeline after the initial fetch")
	flag.Parse()

	if err := run(*configPath, *listen, *once, *printTimeline); err != nil {
		fmt.Fprintf(os.Stderr, "pulaze: %v\n", err)
		os.Exit(1)
	}
}

// initialDates picks today's date when the calendar includes it, otherwise
// the first calendar date.
func initialDates(calendar []string, now time.Time) []string {
	today := now.Format(feed.ISODate)
	for _, date := range calendar {
		if date == today {
			return []string{date}
		}
	}
	return calendar[:1]
}

// startScheduler starts the background refresh cron. An empty schedule
// disables background refreshes and returns a nil scheduler.
func startScheduler(schedule string, service *feed.Service, timeout time.Duration, logger hclog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := service.Refresh(refreshCtx); err != nil {
			logger.Warn("scheduled refresh failed", "error", err.Error())
		}
	}); err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}

func run(configPath, listenOverride string, once, printTimeline bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenOverride != "" {
		cfg.Listen = listenOverride
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "pulaze",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	registry := prometheus.NewRegistry()
	collectors := metrics.New(registry)

	client := api.NewClient(cfg.API.BaseURL, cfg.Timeout(), logger.Named("api"))
	orchestrator := feed.NewOrchestrator(
		client,
		cfg.Reference.Latitude,
		cfg.Reference.Longitude,
		cfg.Reference.RadiusKm,
		cfg.FetchLimit,
		cfg.Calendar,
		logger.Named("orchestrator"),
	)
	service := feed.NewService(orchestrator, initialDates(cfg.Calendar, time.Now()), collectors, logger.Named("feed"))
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := service.Refresh(ctx); err != nil {
		// The service stays up with an empty feed; the scheduler retries.
		logger.Error("initial fetch failed", "error", err.Error())
	}

	if once || printTimeline {
		fmt.Print(render.Timeline(service.Snapshot()))
		if once {
			return nil
		}
	}

	favStore, err := favorites.Open(cfg.FavoritesPath, logger.Named("favorites"))
	if err != nil {
		return err
	}
	defer favStore.Close()

	scheduler, err := startScheduler(cfg.RefreshCron, service, cfg.Timeout()*2, logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	server := httpapi.NewServer(
		service,
		client,
		favStore,
		weather.NewClient(cfg.WeatherBaseURL),
		cfg.Reference.Latitude,
		cfg.Reference.Longitude,
		registry,
		logger.Named("http"),
	)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
