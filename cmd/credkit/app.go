package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/n1/credkit/internal/config"
	"github.com/n1/credkit/internal/credential"
	"github.com/n1/credkit/internal/log"
	"github.com/n1/credkit/internal/secretstore"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	in   io.Reader
	out  io.Writer
	home string // overrides the user's home directory when set

	openStore func(config.File) (secretstore.Store, io.Closer, error)

	cfg      config.File
	registry *prometheus.Registry
	store    secretstore.Store
	closer   io.Closer
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: in, out: out, openStore: openStore}
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:    "credkit",
		Usage:   "Store and look up credentials",
		Version: version,
		Writer:  a.out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				EnvVars: []string{"CREDKIT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Secret store (default, memory, keyring, sqlite, keychain)",
				EnvVars: []string{"CREDKIT_STORE"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the sqlite database",
				EnvVars: []string{"CREDKIT_DB"},
			},
			&cli.StringFlag{
				Name:    "accessibility",
				Aliases: []string{"a"},
				Usage:   "Default accessibility token for saved credentials",
				EnvVars: []string{"CREDKIT_ACCESSIBILITY"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Logging level (debug, info, warn, error)",
				EnvVars: []string{"CREDKIT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write store metrics in text format to this file on exit",
				EnvVars: []string{"CREDKIT_METRICS_FILE"},
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.setCommand(),
			a.getCommand(),
			a.deleteCommand(),
			a.listCommand(),
		},
	}
}

func (a *app) before(c *cli.Context) error {
	cfg, path, err := config.Load(config.Options{ConfigPath: c.String("config"), HomeDir: a.home})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.IsSet("store") {
		cfg.Store = c.String("store")
	}
	if c.IsSet("db") {
		cfg.Database = c.String("db")
	}
	if c.IsSet("accessibility") {
		cfg.Accessibility = c.String("accessibility")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid log level: %v", err), 1)
	}
	log.SetLevel(level)
	if path != "" {
		log.Debug().Str("path", path).Msg("Loaded configuration")
	}

	credential.DefaultContext.SetAccessibility(secretstore.Accessibility(cfg.Accessibility))
	a.cfg = cfg
	a.registry = prometheus.NewRegistry()
	return nil
}

func (a *app) after(c *cli.Context) error {
	if path := c.String("metrics-file"); path != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(expandPath(path), a.registry); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to write metrics")
		}
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close secret store")
		}
		a.closer = nil
	}
	return nil
}

// secretStore opens the configured store on first use.
func (a *app) secretStore() (secretstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	raw, closer, err := a.openStore(a.cfg)
	if err != nil {
		return nil, err
	}
	store, err := secretstore.Instrument(raw, a.registry)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	log.Debug().Str("store", a.cfg.Store).Msg("Opened secret store")
	a.store, a.closer = store, closer
	return store, nil
}

// newQuery builds a query for the command's identity and --sync flag.
func (a *app) newQuery(c *cli.Context, service, account string) (*credential.Query, error) {
	mode := a.cfg.Sync
	if c.IsSet("sync") {
		mode = c.String("sync")
	}
	sync, err := secretstore.ParseSync(mode)
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	store, err := a.secretStore()
	if err != nil {
		return nil, exitError(err)
	}
	q := credential.NewQuery(store)
	q.Service = service
	q.Account = account
	q.SyncMode = sync
	return q, nil
}

// expandPath expands the ~ in a path to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
