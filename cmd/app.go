package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kasuboski/moviefind/config"
	mhttp "github.com/kasuboski/moviefind/pkg/http"
	"github.com/kasuboski/moviefind/pkg/logger"
	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/storage/appwrite"
	"github.com/kasuboski/moviefind/pkg/storage/sqlite"
	"github.com/kasuboski/moviefind/pkg/tmdb"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultStoreTimeout = time.Second * 10

// loadConfig reads and validates the configuration and installs the configured logger
func loadConfig() (config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.New(viper.GetViper())
	if err != nil {
		return cfg, logger.Get(), fmt.Errorf("failed to read configurations: %w", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	if err != nil {
		return cfg, logger.Get(), err
	}
	logger.Set(log)

	if err := cfg.Validate(); err != nil {
		return cfg, log, err
	}

	return cfg, log, nil
}

// newTMDBClient builds the metadata client: breaker in front of retries in front of a timed http client
func newTMDBClient(cfg config.TMDB, m *metrics.Metrics) (*tmdb.Client, error) {
	retry := mhttp.NewRetryClient(
		mhttp.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		mhttp.WithMaxRetries(cfg.MaxRetries),
		mhttp.WithBaseBackoff(cfg.BaseBackoff),
	)

	breaker := mhttp.NewBreakerClient(retry, mhttp.BreakerSettings{
		Name:             "tmdb",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Get().Warnw("circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
			m.BreakerState(name, int(to))
		},
	})

	return tmdb.NewClient(cfg.URI,
		tmdb.WithHTTPClient(breaker),
		tmdb.WithRequestEditorFn(tmdb.SetRequestAPIKey(cfg.APIKey)),
	)
}

// newStore opens the configured popularity store. SQLite migrations are applied on open.
func newStore(ctx context.Context, cfg config.Store) (storage.Storage, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite:
		store, err := sqlite.New(ctx, cfg.SQLite.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage connection: %w", err)
		}

		if err := store.RunMigrations(ctx); err != nil {
			store.Close()
			return nil, err
		}

		return store, nil

	case config.StoreDriverAppwrite:
		client := mhttp.NewRetryClient(mhttp.WithHTTPClient(&http.Client{Timeout: defaultStoreTimeout}))
		return appwrite.New(client, appwrite.Config{
			Endpoint:     cfg.Appwrite.Endpoint,
			ProjectID:    cfg.Appwrite.ProjectID,
			APIKey:       cfg.Appwrite.APIKey,
			DatabaseID:   cfg.Appwrite.DatabaseID,
			CollectionID: cfg.Appwrite.CollectionID,
		})

	default:
		return nil, fmt.Errorf("unknown store driver: %v", cfg.Driver)
	}
}
