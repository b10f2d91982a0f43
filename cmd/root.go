// Package cmd defines and implements the CLI commands for the
// adafruit-crawler executable.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/printdhruv/adafruit-crawler/internal/archive"
	"github.com/printdhruv/adafruit-crawler/internal/clock/system"
	"github.com/printdhruv/adafruit-crawler/internal/config"
	"github.com/printdhruv/adafruit-crawler/internal/crawler"
	collyfetcher "github.com/printdhruv/adafruit-crawler/internal/fetcher/colly"
	"github.com/printdhruv/adafruit-crawler/internal/logging"
	"github.com/printdhruv/adafruit-crawler/internal/metrics"
	"github.com/printdhruv/adafruit-crawler/internal/store"
	"github.com/printdhruv/adafruit-crawler/internal/store/memory"
	"github.com/printdhruv/adafruit-crawler/internal/store/postgres"
	"github.com/printdhruv/adafruit-crawler/internal/store/sqlite"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App bundles the services commands need. It is an interface so tests
// can inject a mock application.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Engine() *crawler.Engine
	Store() store.ProductStore
}

type application struct {
	cfg    config.Config
	logger *zap.Logger
	store  store.ProductStore
	engine *crawler.Engine
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close product store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *application) Config() config.Config   { return a.cfg }
func (a *application) Logger() *zap.Logger     { return a.logger }
func (a *application) Engine() *crawler.Engine { return a.engine }
func (a *application) Store() store.ProductStore {
	return a.store
}

// newApp is the application factory. It is a variable so tests can
// replace it with a mock factory.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var pageArchive crawler.PageArchiver
	if cfg.Archive.Dir != "" {
		arc, err := archive.New(archive.Config{Dir: cfg.Archive.Dir})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		pageArchive = arc
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	engine, err := crawler.New(
		crawler.Config{MasterURL: cfg.Crawler.MasterURL},
		fetcher,
		st,
		pageArchive,
		system.Clock{},
		logger.Named("crawler"),
	)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init crawl engine: %w", err)
	}

	return &application{
		cfg:    cfg,
		logger: logger,
		store:  st,
		engine: engine,
	}, nil
}

func buildStore(ctx context.Context, cfg config.Config) (store.ProductStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := postgres.New(ctx, postgres.Config{
			DSN:   cfg.Storage.DSN,
			Table: cfg.Storage.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return st, nil
	case "sqlite":
		st, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return st, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adafruit-crawler",
		Short: "Crawls the Adafruit catalog and serves product availability data.",
		Long: `adafruit-crawler discovers the product category pages of the
Adafruit catalog, extracts every product listing into a structured
snapshot, and serves fixed availability views over HTTP.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus CRAWLER_* env)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() error {
	return newRootCmd().Execute()
}

// shutdownTimeout bounds graceful HTTP server shutdown.
const shutdownTimeout = 10 * time.Second
