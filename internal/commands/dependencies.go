package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/diogo/agentchat/internal/api"
	"github.com/diogo/agentchat/internal/config"
	apierrors "github.com/diogo/agentchat/internal/errors"
	"github.com/diogo/agentchat/internal/history"
	"github.com/diogo/agentchat/internal/models"
	"github.com/diogo/agentchat/internal/storage"
)

// Dependencies holds what a command needs to talk to the server and the
// archive. Commands build one per invocation and Close it when done.
type Dependencies struct {
	Config  config.Config
	Agent   string
	Logger  *slog.Logger
	Archive *history.Store

	clientOpts []api.ClientOption
	closeStore func() error
}

// loadConfig reads the config file and applies the global flags on top
func loadConfig(g *globalOptions) (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if g.server != "" {
		cfg.ServerURL = g.server
	}
	if g.verbose {
		cfg.Verbose = true
	}
	if g.ephemeral {
		cfg.Storage.Backend = config.BackendMemory
	}
	return cfg, nil
}

// NewDependencies loads the config and opens the archive. Logs go to logOut.
func NewDependencies(g *globalOptions, logOut io.Writer) (*Dependencies, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	return newDependencies(g, cfg, logOut)
}

func newDependencies(g *globalOptions, cfg config.Config, logOut io.Writer) (*Dependencies, error) {
	agent := cfg.DefaultAgent
	if g.agent != "" {
		agent = g.agent
	}
	a, ok := models.AgentByName(agent)
	if !ok {
		return nil, fmt.Errorf("%q: %w", agent, apierrors.ErrUnknownAgent)
	}

	logger := newLogger(logOut, cfg.Verbose)

	kv, closeStore, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	logger.Debug("archive opened", slog.String("backend", cfg.Storage.Backend))

	return &Dependencies{
		Config:     cfg,
		Agent:      a.Name,
		Logger:     logger,
		Archive:    history.NewStore(kv, history.WithLogger(logger)),
		clientOpts: g.clientOpts,
		closeStore: closeStore,
	}, nil
}

// newLogger returns a text logger at Debug level when verbose, Warn otherwise
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewClient creates an API client for the configured server
func (d *Dependencies) NewClient() (*api.Client, error) {
	opts := []api.ClientOption{
		api.WithTimeout(d.Config.Timeout()),
		api.WithLogger(d.Logger),
	}
	opts = append(opts, d.clientOpts...)

	client, err := api.NewClient(d.Config.ServerURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Resolver returns a conversation reference resolver over the archive
func (d *Dependencies) Resolver() *history.Resolver {
	return history.NewResolver(d.Archive)
}

// Close releases the archive backend
func (d *Dependencies) Close() error {
	if d == nil || d.closeStore == nil {
		return nil
	}
	err := d.closeStore()
	d.closeStore = nil
	if err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}
