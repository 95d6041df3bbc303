package runtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/audio"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/bus"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/content"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/natsserver"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/progress"
	"github.com/cornellj834-lang/Lego-Adventure-App/internal/speech"
)

// Runtime assembles the daemon: telemetry, the embedded bus, the audio
// stack, and the speech and progress services. Start blocks until the
// context is cancelled, then shuts everything down in reverse order.
type Runtime struct {
	cfg         config.Config
	version     string
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup

	busClient *bus.Client
	speechSvc *speech.Service
	progSvc   *progress.Service
}

func New(cfg config.Config, version string, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:     cfg,
		version: version,
		logger:  logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.version, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("connect bus: %w", err)
	}
	r.busClient = busClient
	defer busClient.Close()

	metrics, err := speech.NewMetrics()
	if err != nil {
		r.logger.Warn("speech metrics unavailable", slog.String("error", err.Error()))
	}

	cache := speech.OpenCache(ctx, r.cfg.Cache, r.logger)
	defer cache.Close()

	store, err := progress.Open(ctx, r.cfg.Progress, r.logger)
	if err != nil {
		return fmt.Errorf("open progress store: %w", err)
	}
	defer store.Close()

	device := audio.NewDevice(r.cfg.Audio, r.logger)
	breaker := speech.NewBreaker(
		time.Duration(r.cfg.Preload.BreakerCooldownMS)*time.Millisecond, metrics, r.logger)
	remote := speech.NewRemoteClient(r.cfg.Speech, breaker, r.logger)
	fetcher := speech.NewFetcher(cache, remote, breaker, metrics, r.logger)
	narrator := speech.NewExecNarrator(r.cfg.Narrator, r.logger)
	controller := speech.NewController(fetcher, narrator, speech.DeviceOutput{Device: device}, metrics, r.logger)
	preloader := speech.NewPreloader(r.cfg.Preload, fetcher, breaker, metrics, r.logger)
	defer preloader.Close()

	r.speechSvc = speech.NewService(ctx, busClient, device, controller, preloader,
		content.WarmupTexts(), r.logger)
	if err := r.speechSvc.Start(); err != nil {
		return fmt.Errorf("start speech service: %w", err)
	}
	defer r.speechSvc.Close()

	r.progSvc = progress.NewService(ctx, busClient, store, r.logger)
	if err := r.progSvc.Start(); err != nil {
		return fmt.Errorf("start progress service: %w", err)
	}
	defer r.progSvc.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() && r.busClient.Healthy() &&
		r.speechSvc.Healthy() && r.progSvc.Healthy() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
