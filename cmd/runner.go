package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/repositories"
	"github.com/desertthunder/ytplaylists/internal/services"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/desertthunder/ytplaylists/internal/store"
	"github.com/desertthunder/ytplaylists/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store and video provider are opened on first use so commands like setup never touch them.
type Runner struct {
	config     *shared.Config
	configPath string
	configured bool
	store      *store.Store
	provider   services.VideoProvider
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.PlaylistEngine
	registry   *prometheus.Registry
	closers    []func() error

	metricsRegistered bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      *store.Store
	Provider   services.VideoProvider
	Logger     *log.Logger
	Output     io.Writer
	Registry   *prometheus.Registry
}

// NewRunner creates a new Runner with the provided configuration.
//
// A Config passed in opts is used as is; otherwise Before resolves one from the --config flag.
func NewRunner(opts RunnerOpts) *Runner {
	configured := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		configured: configured,
		store:      opts.Store,
		provider:   opts.Provider,
		logger:     opts.Logger,
		output:     opts.Output,
		registry:   opts.Registry,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, userCommand, playlistCommand, searchCommand, cacheCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before resolves the configuration and applies the log level ahead of any command action.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if !r.configured {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configured = true
	}

	level := r.config.Log.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}
	if err := shared.SetLogLevelString(r.logger, level); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openStore returns the playlist store, opening the configured backend on first use.
func (r *Runner) openStore() (*store.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	backend, err := repositories.Open(r.config.Database, shared.WithLogger(r.logger, "component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	// The operation counter can only be registered once per registry.
	var registerer prometheus.Registerer
	if !r.metricsRegistered {
		registerer = r.registry
		r.metricsRegistered = true
	}

	r.store = store.New(store.Opts{
		Backend:    backend,
		Logger:     shared.WithLogger(r.logger, "component", "store"),
		Registerer: registerer,
	})
	r.closers = append(r.closers, func() error {
		st := r.store
		r.store, r.engine = nil, nil
		return st.Close()
	})
	return r.store, nil
}

// openProvider returns the video provider. The YouTube client is wrapped in a Redis cache when
// one is configured and reachable; an unreachable cache only disables caching.
func (r *Runner) openProvider(ctx context.Context) services.VideoProvider {
	if r.provider != nil {
		return r.provider
	}

	cfg := r.config.YouTube
	youtube := services.NewYouTubeService(services.YouTubeOpts{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "component", "youtube"),
	})
	if cfg.APIKey == "" {
		r.logger.Warn("YOUTUBE_DATA_API_KEY is not set; video details will be unavailable")
	}
	r.provider = youtube

	if url := r.config.Cache.RedisURL; url != "" {
		rdb, err := services.NewRedisClient(ctx, url)
		if err != nil {
			r.logger.Warn("video cache unavailable, continuing without it", "error", err)
			return r.provider
		}
		r.closers = append(r.closers, rdb.Close)
		r.provider = services.NewCachedProvider(youtube, rdb, r.config.Cache.TTL, shared.WithLogger(r.logger, "component", "cache"))
	}
	return r.provider
}

// openEngine returns the playlist task engine over the store and provider.
func (r *Runner) openEngine(ctx context.Context) (*tasks.PlaylistEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	st, err := r.openStore()
	if err != nil {
		return nil, err
	}
	r.engine = tasks.NewPlaylistEngine(st, r.openProvider(ctx), shared.WithLogger(r.logger, "component", "tasks"))
	return r.engine, nil
}

// Close releases everything the runner opened, most recent first.
func (r *Runner) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
