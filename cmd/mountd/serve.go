package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gorhandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mountfs/mount/api"
	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/configuration"
	"github.com/mountfs/mount/health"
	"github.com/mountfs/mount/health/checks"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/rootptr"
	"github.com/mountfs/mount/version"
)

// ServeCmd is a cobra command for running the mount daemon.
var ServeCmd = &cobra.Command{
	Use:   "serve <config>",
	Short: "`serve` runs the mount daemon's HTTP surface",
	Long:  "`serve` runs the mount daemon's HTTP surface.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := dcontext.WithVersion(dcontext.Background(), version.Version())

		config, err := resolveConfiguration(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			// nolint:errcheck
			cmd.Usage()
			os.Exit(1)
		}

		daemon, err := NewDaemon(ctx, config)
		if err != nil {
			logrus.Fatalln(err)
		}

		if err = daemon.ListenAndServe(); err != nil {
			logrus.Fatalln(err)
		}
	},
}

// Daemon is a complete running instance of mountd.
type Daemon struct {
	config *configuration.Configuration
	server *http.Server
	quit   chan os.Signal
}

// NewDaemon constructs the block-store client, root-pointer coordinator,
// and HTTP application from config, registers health checks, and wraps the
// application with the same middleware stack the teacher's NewRegistry
// assembles: access logging, panic recovery, the health short-circuit.
func NewDaemon(ctx context.Context, config *configuration.Configuration) (*Daemon, error) {
	ctx, err := configureLogging(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error configuring logger: %v", err)
	}

	store := blockstore.New(config.Remote.URL, config.Remote.Token)
	coord := coordinatorFor(config)

	registerHealthChecks(config, store, coord)

	app, err := api.NewApp(ctx, store, coord, config.Remote.Token)
	if err != nil {
		return nil, fmt.Errorf("error constructing application: %v", err)
	}

	var handler http.Handler = app
	handler = panicHandler(handler)
	handler = health.Handler(handler)
	if !config.Log.AccessLog.Disabled {
		handler = gorhandlers.CombinedLoggingHandler(os.Stdout, handler)
	}

	server := &http.Server{
		Addr:    config.HTTP.Addr,
		Handler: handler,
	}

	return &Daemon{
		config: config,
		server: server,
		quit:   make(chan os.Signal, 1),
	}, nil
}

// coordinatorFor builds the root-pointer coordinator named by config.
// Wiring a concrete SQL driver is left to the embedding binary: spec.md §1
// names "SQL persistence of the canonical root pointer" as an external
// collaborator, so mountd itself only ever constructs the in-memory
// coordinator, logging a warning if a DSN was configured without a linked
// driver.
func coordinatorFor(config *configuration.Configuration) rootptr.Coordinator {
	if config.Remote.CoordinatorDSN != "" {
		logrus.Warn("remote.coordinatordsn is set, but mountd links no SQL driver; " +
			"falling back to an in-memory coordinator. Build a daemon binary that " +
			"blank-imports a driver and calls rootptr.NewSQLStore to persist the root " +
			"pointer across restarts.")
	}
	return rootptr.NewInMemory()
}

func registerHealthChecks(config *configuration.Configuration, store blockstore.Store, coord rootptr.Coordinator) {
	if config.Health.BlockStore.Enabled {
		updater := health.NewStatusUpdater()
		health.Register("blockstore", updater)
		go health.Poll(context.Background(), updater, checks.BlockStoreChecker(store), config.Health.BlockStore.Interval)
	}
	if config.Health.Coordinator.Enabled {
		updater := health.NewStatusUpdater()
		health.Register("coordinator", updater)
		go health.Poll(context.Background(), updater, checks.CoordinatorChecker(coord), config.Health.Coordinator.Interval)
	}
	for _, fc := range config.Health.FileCheckers {
		health.Register(fc.File, checks.FileChecker(fc.File))
	}
	for _, hc := range config.Health.HTTPCheckers {
		health.Register(hc.URI, checks.HTTPChecker(hc.URI, hc.StatusCode, hc.Timeout, hc.Headers))
	}
}

// ListenAndServe runs the daemon's HTTP server, gracefully draining
// connections on SIGINT/SIGTERM if config.HTTP.DrainTimeout is set.
func (d *Daemon) ListenAndServe() error {
	dcontext.GetLogger(context.Background()).Infof("listening on %v", d.server.Addr)

	if d.config.HTTP.DrainTimeout == 0 {
		return d.server.ListenAndServe()
	}

	signal.Notify(d.quit, os.Interrupt, syscall.SIGTERM)
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- d.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-d.quit:
		logrus.Infof("stopping server gracefully, draining connections for %v", d.config.HTTP.DrainTimeout)
		c, cancel := context.WithTimeout(context.Background(), d.config.HTTP.DrainTimeout)
		defer cancel()
		return d.server.Shutdown(c)
	}
}

// panicHandler recovers a panic in handler and reports it via logrus,
// matching the teacher's own panicHandler.
func panicHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logrus.Panic(fmt.Sprintf("%v", err))
			}
		}()
		handler.ServeHTTP(w, r)
	})
}

func resolveConfiguration(args []string) (*configuration.Configuration, error) {
	var configurationPath string

	if len(args) > 0 {
		configurationPath = args[0]
	} else if os.Getenv("MOUNT_CONFIGURATION_PATH") != "" {
		configurationPath = os.Getenv("MOUNT_CONFIGURATION_PATH")
	}

	if configurationPath == "" {
		return nil, fmt.Errorf("configuration path unspecified")
	}

	fp, err := os.Open(configurationPath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", configurationPath, err)
	}
	return config, nil
}
