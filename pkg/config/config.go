// Package config loads pomgraph settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/pomgraph/config.toml (falling back to
// ~/.config/pomgraph/config.toml) unless a path is given explicitly:
//
//	[resolve]
//	repo_url = "https://repo1.maven.org/maven2"
//	crawl_version = "2024-06"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//	database = "pomgraph"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
//
//	[worker]
//	concurrency = 8
//	failure_ledger = "failures.jsonl"
//
// Every field is optional; [Config.WithDefaults] fills the gaps.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/integrations"
	"github.com/matzehuels/pomgraph/pkg/integrations/maven"
	"github.com/matzehuels/pomgraph/pkg/resolve"
)

const appName = "pomgraph"

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Defaults.
const (
	DefaultDatabase     = "pomgraph"
	DefaultCacheTTL     = 7 * 24 * time.Hour
	DefaultServerAddr   = ":8080"
	DefaultConcurrency  = 4
	DefaultCrawlVersion = "1"
)

// Config is the full settings file.
type Config struct {
	Resolve ResolveConfig `toml:"resolve"`
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Worker  WorkerConfig  `toml:"worker"`
}

// ResolveConfig configures the resolution engine.
type ResolveConfig struct {
	RepoURL           string `toml:"repo_url"`
	CrawlVersion      string `toml:"crawl_version"`
	MaxPropertyPasses int    `toml:"max_property_passes"`
}

// StoreConfig selects the graph store.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// CacheConfig selects where fetched POMs are cached.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	TTL       time.Duration `toml:"ttl"`
}

// ServerConfig configures `pomgraph serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// WorkerConfig configures batch crawls.
type WorkerConfig struct {
	Concurrency   int    `toml:"concurrency"`
	FailureLedger string `toml:"failure_ledger"`
}

// DefaultPath returns the XDG location of the config file.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the XDG cache directory (~/.cache/pomgraph/).
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the config at path. An empty path means [DefaultPath], which
// may be absent; an explicit path must exist. The result has defaults
// applied and is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "locate config file")
		}
		path = p
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read %s", path)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	out := c
	if out.Resolve.RepoURL == "" {
		out.Resolve.RepoURL = maven.CentralURL
	}
	if out.Resolve.CrawlVersion == "" {
		out.Resolve.CrawlVersion = DefaultCrawlVersion
	}
	if out.Resolve.MaxPropertyPasses <= 0 {
		out.Resolve.MaxPropertyPasses = resolve.DefaultMaxPropertyPasses
	}
	if out.Store.Backend == "" {
		out.Store.Backend = StoreMemory
	}
	if out.Store.Database == "" {
		out.Store.Database = DefaultDatabase
	}
	if out.Cache.Backend == "" {
		out.Cache.Backend = CacheFile
	}
	if out.Cache.Dir == "" && out.Cache.Backend == CacheFile {
		if dir, err := DefaultCacheDir(); err == nil {
			out.Cache.Dir = dir
		}
	}
	if out.Cache.TTL <= 0 {
		out.Cache.TTL = DefaultCacheTTL
	}
	if out.Server.Addr == "" {
		out.Server.Addr = DefaultServerAddr
	}
	if out.Worker.Concurrency <= 0 {
		out.Worker.Concurrency = DefaultConcurrency
	}
	return out
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := integrations.NormalizeRepoURL(c.Resolve.RepoURL); err != nil {
		return err
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeConfiguration, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeConfiguration, "invalid store.backend: %q (must be one of: memory, mongo)", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeConfiguration, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeConfiguration, "invalid cache.backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	return nil
}

// ResolveOptions converts the [resolve] section.
func (c Config) ResolveOptions() resolve.Options {
	return resolve.Options{
		CrawlVersion:      c.Resolve.CrawlVersion,
		MaxPropertyPasses: c.Resolve.MaxPropertyPasses,
	}
}
