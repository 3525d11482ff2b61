package cmd

import (
	"context"

	"github.com/kasuboski/moviefind/pkg/manager"
	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/trending"
	"github.com/kasuboski/moviefind/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the movie server",
	Long:  `start the movie server with search, trending and live search endpoints`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)

		tmdbClient, err := newTMDBClient(cfg.TMDB, m)
		if err != nil {
			log.Fatalw("failed to create tmdb client", "error", err)
		}

		store, err := newStore(context.Background(), cfg.Store)
		if err != nil {
			log.Fatalw("failed to open store", "error", err)
		}
		defer store.Close()

		reg.MustRegister(metrics.NewTrendingCollector(store, cfg.Trending.Limit))

		tracker := trending.New(store,
			trending.WithImageURI(cfg.TMDB.ImageURI),
			trending.WithLimit(cfg.Trending.Limit),
			trending.WithMetrics(m),
		)
		mgr := manager.New(tmdbClient, tracker,
			manager.WithMetrics(m),
			manager.WithRequestTimeout(cfg.TMDB.Timeout),
			manager.WithRecordTimeout(cfg.Search.RecordTimeout),
		)

		srv := server.New(log, mgr,
			server.WithStats(store),
			server.WithMetrics(m, reg),
			server.WithDebounce(cfg.Search.Debounce),
		)
		if err := srv.Serve(cfg.Server.Port); err != nil {
			log.Errorw("server stopped", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
