// Package cli implements the pomgraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/buildinfo"
	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/config"
	"github.com/matzehuels/pomgraph/pkg/integrations"
	"github.com/matzehuels/pomgraph/pkg/integrations/maven"
	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/store"
	"github.com/matzehuels/pomgraph/pkg/store/memory"
	"github.com/matzehuels/pomgraph/pkg/store/mongo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pomgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pomgraph resolves Maven dependency graphs into a graph store",
		Long:         `pomgraph fetches Maven POMs, resolves parents, properties, BOM imports and managed versions, and stores the resulting package graph for later queries.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pomgraph/config.toml)")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.crawlCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// =============================================================================
// Environment Factory
// =============================================================================

// envOpts are the flags shared by every command that talks to a repository
// or the store. Empty values fall back to the config file.
type envOpts struct {
	repoURL      string
	crawlVersion string
	store        string
	noCache      bool
	refresh      bool
}

func (o *envOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.repoURL, "repo", "", "Maven repository base URL (http(s):// or file://)")
	cmd.Flags().StringVar(&o.crawlVersion, "crawl-version", "", "crawl version stamped on fetched nodes")
	cmd.Flags().StringVar(&o.store, "store", "", "store backend: memory, mongo")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the POM cache")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "bypass cached POMs")
}

// env is everything a command needs, built from the config file and flags.
type env struct {
	cfg      *config.Config
	repoURL  string
	cache    cache.Cache
	gateway  *store.Gateway
	fetcher  *maven.Client
	resolver *resolve.Resolver
}

func (e *env) Close(ctx context.Context) {
	_ = e.gateway.Close(ctx)
	_ = e.cache.Close()
}

func (c *CLI) loadConfig(o envOpts) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if o.repoURL != "" {
		cfg.Resolve.RepoURL = o.repoURL
	}
	if o.crawlVersion != "" {
		cfg.Resolve.CrawlVersion = o.crawlVersion
	}
	if o.store != "" {
		cfg.Store.Backend = o.store
	}
	if o.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CLI) openEnv(ctx context.Context, o envOpts) (*env, error) {
	cfg, err := c.loadConfig(o)
	if err != nil {
		return nil, err
	}
	repo, err := integrations.NormalizeRepoURL(cfg.Resolve.RepoURL)
	if err != nil {
		return nil, err
	}

	ch, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		ch.Close()
		return nil, err
	}
	gw := store.NewGateway(backend, store.WithLogger(c.Logger))
	if err := gw.EnsureSchema(ctx); err != nil {
		ch.Close()
		gw.Close(ctx)
		return nil, err
	}

	fetcher := maven.NewClient(ch, cfg.Cache.TTL)
	fetcher.Refresh = o.refresh

	opts := cfg.ResolveOptions()
	opts.Logger = c.Logger
	c.Logger.Debug("environment ready", "repo", repo, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)

	return &env{
		cfg:      cfg,
		repoURL:  repo,
		cache:    ch,
		gateway:  gw,
		fetcher:  fetcher,
		resolver: resolve.New(fetcher, gw, opts),
	}, nil
}

func newCache(ctx context.Context, cc config.CacheConfig) (cache.Cache, error) {
	switch cc.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cc.RedisAddr})
	case config.CacheFile:
		if cc.Dir == "" {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cc.Dir)
	default:
		return cache.NewNullCache(), nil
	}
}

func openBackend(ctx context.Context, sc config.StoreConfig) (store.Backend, error) {
	if sc.Backend == config.StoreMongo {
		return mongo.Connect(ctx, sc.MongoURI, sc.Database)
	}
	return memory.New(), nil
}
