package serve

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/bocfx/cmd/env"
	"github.com/sig-0/bocfx/cmd/setup"
	"github.com/sig-0/bocfx/ingest"
	"github.com/sig-0/bocfx/server"
	"github.com/sig-0/bocfx/storage/memory"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	configPath    string
	listenAddress string
}

// NewServeCmd creates the serve command
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve [flags]",
		LongHelp:   "Serves the rate API, periodically ingesting the BOC USD table into an in-memory datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.listenAddress,
		"listen",
		"",
		"the IP:PORT URL for the server, overrides the configuration",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)
}

func (c *serveCfg) exec(ctx context.Context, _ []string) error {
	logger := setup.Logger()

	cfg, err := setup.LoadConfig(logger, c.configPath)
	if err != nil {
		return err
	}

	if c.listenAddress != "" {
		cfg.ListenAddress = c.listenAddress
	}

	// Create an in-memory store
	store := memory.NewStorage()

	// Create the ingestion service
	orchestrator := ingest.New(store, ingest.WithLogger(logger))

	providers, err := defaultProviders(cfg, logger)
	if err != nil {
		return err
	}

	for _, provider := range providers {
		if err = orchestrator.Register(provider); err != nil {
			return fmt.Errorf("unable to register provider: %w", err)
		}
	}

	// Create the server instance
	s, err := server.New(
		store,
		server.WithLogger(logger),
		server.WithConfig(cfg),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the ingestion service
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
