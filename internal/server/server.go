package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Builder produces the site. Implemented by site.Generator.
type Builder interface {
	Build(ctx context.Context) (*site.BuildReport, error)
	OutputDir() string
}

// Server runs the preview server: it serves the generated site, watches for
// changes, rebuilds through the debouncer, and exposes Prometheus metrics on
// a separate port.
type Server struct {
	cfg        *config.Config
	configPath string
	builder    Builder
	recorder   metrics.Recorder

	debouncer *Debouncer
	watcher   *Watcher
	scheduler *Scheduler
	noWatch   bool

	siteServer    *http.Server
	metricsServer *http.Server
}

// New creates a preview server.
func New(cfg *config.Config, configPath string, builder Builder, recorder metrics.Recorder) (*Server, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	debouncer, err := NewDebouncer(DebouncerConfig{
		QuietWindow: 300 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	watcher, err := NewWatcher(cfg, configPath, debouncer)
	if err != nil {
		return nil, err
	}
	scheduler, err := NewScheduler(debouncer)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		builder:    builder,
		recorder:   recorder,
		debouncer:  debouncer,
		watcher:    watcher,
		scheduler:  scheduler,
	}, nil
}

// DisableWatch turns off filesystem watching. Scheduled rebuilds still run.
func (s *Server) DisableWatch() {
	s.noWatch = true
}

// Run builds the site once, then serves it until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.builder.Build(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	// Pre-bind both ports so startup fails fast with one aggregate error
	// instead of a partially started server.
	siteLn, metricsLn, err := s.bindListeners()
	if err != nil {
		return err
	}

	handler := &siteHandler{outputDir: s.builder.OutputDir, recorder: s.recorder}
	s.siteServer = &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	s.metricsServer = &http.Server{Handler: s.metricsHandler(), ReadHeaderTimeout: 5 * time.Second}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := s.siteServer.Serve(siteLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("site server: %w", err)
		}
	}()
	go func() {
		if err := s.metricsServer.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	go func() {
		if err := s.debouncer.Run(runCtx); err != nil {
			slog.Error("Debouncer stopped", "error", err)
		}
	}()
	go s.rebuildLoop(runCtx)

	if !s.noWatch {
		if err := s.watcher.Start(); err != nil {
			s.shutdown()
			return err
		}
	}
	if interval := s.cfg.RebuildInterval(); interval > 0 {
		if _, err := s.scheduler.SchedulePeriodicRebuild(interval); err != nil {
			s.shutdown()
			return err
		}
		s.scheduler.Start()
	}

	slog.Info("Serving site",
		"addr", fmt.Sprintf("http://localhost:%d/", s.cfg.Serve.Port),
		"metrics_port", s.cfg.Serve.MetricsPort,
		"output", s.builder.OutputDir())

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

func (s *Server) bindListeners() (net.Listener, net.Listener, error) {
	type bind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []bind{
		{name: "site", port: s.cfg.Serve.Port},
		{name: "metrics", port: s.cfg.Serve.MetricsPort},
	}
	var bindErrs []error
	for i := range binds {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", binds[i].port))
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return nil, nil, fmt.Errorf("server startup failed: %w", errors.Join(bindErrs...))
	}
	return binds[0].ln, binds[1].ln, nil
}

func (s *Server) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	if pr, ok := s.recorder.(*metrics.PrometheusRecorder); ok {
		mux.Handle("/metrics", pr.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// rebuildLoop consumes coalesced rebuild triggers and rebuilds the site.
// Build failures are logged and the previous output stays published.
func (s *Server) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.debouncer.Rebuilds():
			start := time.Now()
			report, err := s.builder.Build(ctx)
			s.recorder.ObserveRebuild(evt.LastReason, time.Since(start), err == nil)
			if err != nil {
				slog.Error("Rebuild failed",
					"reason", evt.LastReason,
					"requests", evt.RequestCount,
					"error", err)
				continue
			}
			slog.Info("Site rebuilt",
				"reason", evt.LastReason,
				"requests", evt.RequestCount,
				"cause", evt.DebounceCause,
				"pages", report.Pages,
				"duration", report.Duration)
		}
	}
}

func (s *Server) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.watcher.Stop(); err != nil {
		slog.Warn("Watcher shutdown", "error", err)
	}
	if err := s.scheduler.Stop(); err != nil {
		slog.Warn("Scheduler shutdown", "error", err)
	}
	if s.siteServer != nil {
		if err := s.siteServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Site server shutdown", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown", "error", err)
		}
	}
}
