// Package cli implements the cpgwalk command-line interface.
//
// # Commands
//
//   - validate: load a graph document and check its structure
//   - query: run an exploration from one or more start nodes
//   - paths: list every path leaving a node along one edge kind
//   - exits: list the nodes where a function's evaluation order ends
//   - profiles: list the query profiles of a TOML file
//   - cache: manage the report cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// traces every exploration the engine runs. The logger travels to the
// commands through the command context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cpgwalk/pkg/buildinfo"
	"github.com/matzehuels/cpgwalk/pkg/cache"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "cpgwalk"

// redisURLEnv names the environment variable consulted when --redis-url is
// not given.
const redisURLEnv = "CPGWALK_REDIS_URL"

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
		Use:   appName,
		Short: "cpgwalk explores code property graphs",
		Long: `cpgwalk answers reachability and dataflow questions over code property graphs
stored as JSON or YAML documents: can a value flow from here to there, does
every path reach a node, which paths never do.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.pathsCommand())
	root.AddCommand(c.exitsCommand())
	root.AddCommand(c.profilesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheOpts are the flags that pick a cache backend.
type cacheOpts struct {
	noCache  bool
	redisURL string
}

func (o *cacheOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "do not read or write cached reports")
	cmd.Flags().StringVar(&o.redisURL, "redis-url", "", "share reports through Redis (default $"+redisURLEnv+")")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, opts cacheOpts) (*pipeline.Runner, error) {
	cache, err := newCache(ctx, opts)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, loggerFromContext(ctx)), nil
}

// newCache picks Redis when a URL is configured, else the file cache. A
// missing home directory silently disables caching.
func newCache(ctx context.Context, opts cacheOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	url := opts.redisURL
	if url == "" {
		url = os.Getenv(redisURLEnv)
	}
	if url != "" {
		if err := cerrors.ValidateRedisURL(url); err != nil {
			return nil, err
		}
		return cache.NewRedisCache(ctx, url)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cpgwalk/).
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
