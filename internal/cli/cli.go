// Package cli implements the pindown command-line interface.
//
// This package provides commands for linting requirements manifests,
// checking pins against package indexes, pinning loose requirements, and
// managing the index response cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - lint: Run sanity checks on a requirements file
//   - list: Show the parsed dependency records
//   - check: Compare pins against the configured indexes
//   - pin: Pin unpinned requirements to the latest release
//   - cache: Manage the index response cache
//   - serve: Run lint and check as an HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pindown/pindown/pkg/buildinfo"
	"github.com/pindown/pindown/pkg/cache"
	"github.com/pindown/pindown/pkg/config"
	"github.com/pindown/pindown/pkg/history"
)

// appName is the application name used for directories and display.
const appName = "pindown"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg        *config.Config
	configPath string
	noCache    bool
	refresh    bool
	verbose    bool
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
		Short:        "Pindown keeps requirements.txt manifests honest",
		Long:         `Pindown parses, lints and checks pip requirements manifests: it validates the file's grammar, flags duplicate and conflicting requirements, compares pinned versions against the package indexes, and pins what was left loose.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(log.DebugLevel)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "path to pindown.toml")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching of index responses")
	pf.BoolVar(&c.refresh, "refresh", false, "bypass cached index responses")

	// Register all subcommands
	root.AddCommand(c.lintCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.pinCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newBackend creates the cache backend selected by flags and config:
// disabled, Redis, or the default on-disk cache.
func (c *CLI) newBackend(ctx context.Context) cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	if addr := c.cfg.Cache.RedisAddr; addr != "" {
		backend, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:   addr,
			DB:     c.cfg.Cache.RedisDB,
			Prefix: appName + ":",
		})
		if err == nil {
			return backend
		}
		c.Logger.Warn("Redis unavailable, falling back to file cache", "err", err)
	}
	dir := c.cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache()
		}
	}
	backend, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return backend
}

// newHistoryStore opens the configured history store. Mongo when a URI is
// set, otherwise JSON files next to the cache.
func (c *CLI) newHistoryStore(ctx context.Context) (history.Store, error) {
	if uri := c.cfg.History.MongoURI; uri != "" {
		return history.NewMongoStore(ctx, uri, c.cfg.History.MongoDB)
	}
	dir := c.cfg.History.Dir
	if dir == "" {
		cacheBase, err := cacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(cacheBase, "history")
	}
	return history.NewFileStore(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pindown/).
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
