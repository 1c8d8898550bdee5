package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/server"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port        int    `short:"p" help:"HTTP port (overrides config)"`
	MetricsPort int    `name:"metrics-port" help:"Prometheus metrics port (overrides config)"`
	Output      string `short:"o" help:"Output directory (overrides config)"`
	Drafts      bool   `short:"D" help:"Include draft posts"`
	Future      bool   `short:"F" help:"Include future-dated posts"`
	NoWatch     bool   `name:"no-watch" help:"Serve without watching for file changes"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Serve.Port = s.Port
	}
	if s.MetricsPort != 0 {
		cfg.Serve.MetricsPort = s.MetricsPort
	}
	if s.Drafts {
		cfg.BuildDrafts = true
	}
	if s.Future {
		cfg.BuildFuture = true
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	generator := site.NewGenerator(cfg, ResolveOutputDir(s.Output, cfg)).WithRecorder(recorder)

	srv, err := server.New(cfg, root.Config, generator, recorder)
	if err != nil {
		return err
	}
	if s.NoWatch {
		srv.DisableWatch()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return srv.Run(ctx)
}
