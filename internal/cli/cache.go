package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the POM cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached POM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(envOpts{})
			if err != nil {
				return err
			}
			return clearCache(cmd.Context(), cfg.Cache)
		},
	}
}

func clearCache(ctx context.Context, cc config.CacheConfig) error {
	switch cc.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cc.RedisAddr})
		if err != nil {
			return err
		}
		defer rc.Close()
		n, err := rc.Clear(ctx)
		if err != nil {
			return err
		}
		printSuccess("Cleared %d cached entries", n)
		printDetail("Redis: %s", cc.RedisAddr)
	case config.CacheFile:
		fc, err := cache.NewFileCache(cc.Dir)
		if err != nil {
			return err
		}
		n, err := fc.Clear()
		if err != nil {
			return err
		}
		printSuccess("Cleared %d cached entries", n)
		printDetail("Directory: %s", fc.Dir())
	default:
		printInfo("Cache is disabled")
	}
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where POMs are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(envOpts{})
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.CacheRedis:
				fmt.Fprintln(cmd.OutOrStdout(), "redis://"+cfg.Cache.RedisAddr)
			case config.CacheFile:
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Dir)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "none")
			}
			return nil
		},
	}
}
