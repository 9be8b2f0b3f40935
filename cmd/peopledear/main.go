/*
main.go - Application entry point

PURPOSE:
  The peopledear command. Runs the HTTP server and offers a few
  administrative subcommands that work directly against the store.

COMMANDS:
  serve                                    Run the API server
  period create  --org ID --year N         Open a year (closes the previous)
  period balances --org ID --year N        Open the year's vacation balances
  catalog install --org ID --file PATH     Install a JSON/YAML type catalog
  catalog defaults                         Print the default catalog as YAML

CONFIGURATION:
  --config    JSON config file (optional)
  --env-file  .env file loaded before the environment (default ".env")
  Environment variables use the PEOPLEDEAR_ prefix, "__" separating
  levels: PEOPLEDEAR_HTTP__ADDR=:9090, PEOPLEDEAR_DATABASE__PATH=:memory:

EXAMPLES:
  peopledear serve
  PEOPLEDEAR_DATABASE__DRIVER=memory peopledear serve
  peopledear period create --org 3f2a... --year 2026

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/peopledear/peopledear/config"
	"github.com/peopledear/peopledear/logging"
	"github.com/peopledear/peopledear/notify"
	"github.com/peopledear/peopledear/store/memory"
	"github.com/peopledear/peopledear/store/sqlite"
	"github.com/peopledear/peopledear/timeoff"
)

var Version = "dev"

type rootFlags struct {
	configFile string
	envFile    string
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "peopledear",
		Short:         "PeopleDear time-off service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "JSON config file")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file read before the environment")

	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(periodCmd(flags))
	rootCmd.AddCommand(catalogCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	cfg    config.Config
	logger *log.Logger
	svc    *timeoff.Service
	async  *notify.Async

	closers []io.Closer
}

func (a *app) Close() error {
	if a.async != nil {
		a.async.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func openApp(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(config.Source{File: flags.configFile, DotEnv: flags.envFile})
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "logging")
	}
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	store, err := openStore(cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	opts := []timeoff.Option{timeoff.WithLogger(logger)}
	if d := dispatcher(cfg.Mail, logger); d != nil {
		a.async = notify.NewAsync(d, logging.WithComponent(logger, "notify"))
		opts = append(opts, timeoff.WithNotifier(a.async))
	}
	a.svc = timeoff.NewService(store, opts...)

	logger.WithFields(log.Fields{
		"database": cfg.Database.Driver,
		"mail":     cfg.Mail.Driver,
	}).Debug("application initialized")
	return a, nil
}

func openStore(cfg config.DatabaseConfig) (timeoff.TxStore, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	default:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open database %s", cfg.Path)
		}
		return s, nil
	}
}

func dispatcher(cfg config.MailConfig, logger *log.Logger) notify.Dispatcher {
	switch cfg.Driver {
	case "sendgrid":
		return notify.NewSendgrid(cfg.SendgridKey, cfg.FromName, cfg.FromEmail)
	case "none":
		return nil
	default:
		return notify.LogDispatcher{Logger: logger}
	}
}
