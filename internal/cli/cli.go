// Package cli implements the scenograph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/psdltools/scenograph/pkg/buildinfo"
	"github.com/psdltools/scenograph/pkg/cache"
	"github.com/psdltools/scenograph/pkg/config"
	"github.com/psdltools/scenograph/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "scenograph"

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

	// ConfigPath overrides the default config file location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "scenograph",
		Short:        "Scenograph compiles clinical scenario outlines into layered graphs",
		Long:         `Scenograph is a CLI tool for compiling scenario outlines (signals, trends, logic rules) into dependency graphs and laying them out as layered node-link diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: XDG config dir)")

	// Register all subcommands
	root.AddCommand(c.outlineCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the cache section of the
// config file.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	ca, err := c.newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ca, newKeyer(cfg.Cache), c.Logger), nil
}

// loadConfig reads the config file selected by --config, falling back to
// the default location.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.ConfigPath)
}

// newCache builds the configured cache backend. An explicit TTL in the
// config replaces the per-stage defaults for every entry.
func (c *CLI) newCache(ctx context.Context, cfg config.CacheConfig, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	backend, err := c.newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.HasTTL() {
		backend = cache.NewTTLOverride(backend, cfg.TTLOrDefault())
	}
	return backend, nil
}

func (c *CLI) newBackend(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return cache.NewNullCache(), nil
	case config.CacheBackendRedis:
		c.Logger.Info("using redis cache", "addr", cfg.RedisAddr)
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	default:
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// newKeyer scopes cache keys when the backend is a redis instance that
// may be shared with other tenants.
func newKeyer(cfg config.CacheConfig) cache.Keyer {
	if cfg.Backend == config.CacheBackendRedis {
		return cache.NewScopedKeyer(nil, appName+":")
	}
	return nil
}

// =============================================================================
// Layout Config
// =============================================================================

// layoutDefaults converts the config file's layout section into baseline
// pipeline options. Zero fields fall through to the engine defaults.
func layoutDefaults(cfg config.LayoutConfig) pipeline.Options {
	return pipeline.Options{
		Direction:   cfg.Direction,
		NodeWidth:   cfg.NodeWidth,
		NodeHeight:  cfg.NodeHeight,
		RankSpacing: cfg.RankSpacing,
		NodeSpacing: cfg.NodeSpacing,
	}
}

// applyLayoutConfig merges the config file's layout section into opts.
// Flags the user set explicitly on the command line win over the config.
func applyLayoutConfig(cmd *cobra.Command, cfg config.LayoutConfig, opts *pipeline.Options) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if cfg.Direction != "" && !changed("direction") {
		opts.Direction = cfg.Direction
	}
	if cfg.NodeWidth > 0 && !changed("node-width") {
		opts.NodeWidth = cfg.NodeWidth
	}
	if cfg.NodeHeight > 0 && !changed("node-height") {
		opts.NodeHeight = cfg.NodeHeight
	}
	if cfg.RankSpacing > 0 && !changed("rank-spacing") {
		opts.RankSpacing = cfg.RankSpacing
	}
	if cfg.NodeSpacing > 0 && !changed("node-spacing") {
		opts.NodeSpacing = cfg.NodeSpacing
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scenograph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputPath derives the output file from the input when -o is not given.
func outputPath(input, explicit, suffix string) string {
	if explicit != "" {
		return explicit
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}
