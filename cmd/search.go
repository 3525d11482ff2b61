package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/kasuboski/moviefind/pkg/manager"
	"github.com/kasuboski/moviefind/pkg/trending"

	"github.com/spf13/cobra"
)

var noRecord bool

// searchCmd runs a single search through the same path the server uses
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "search movies on TMDB",
	Long:  `search movies on TMDB, without a query popular movies are listed`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		tmdbClient, err := newTMDBClient(cfg.TMDB, nil)
		if err != nil {
			log.Fatalw("failed to create tmdb client", "error", err)
		}

		var tracker manager.PopularityTracker
		if !noRecord {
			store, err := newStore(context.Background(), cfg.Store)
			if err != nil {
				log.Fatalw("failed to open store", "error", err)
			}
			defer store.Close()

			tracker = trending.New(store, trending.WithImageURI(cfg.TMDB.ImageURI), trending.WithLimit(cfg.Trending.Limit))
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		}

		m := manager.New(tmdbClient, tracker,
			manager.WithRequestTimeout(cfg.TMDB.Timeout),
			manager.WithRecordTimeout(cfg.Search.RecordTimeout),
		)
		renderSearch(cmd.OutOrStdout(), m.SearchMovies(context.Background(), query))
	},
}

func renderSearch(w io.Writer, result manager.SearchResult) {
	if result.ErrorMessage != "" {
		fmt.Fprintln(w, result.ErrorMessage)
		return
	}

	if len(result.Movies) == 0 {
		fmt.Fprintln(w, "No movies found")
		return
	}

	for _, m := range result.Movies {
		line := m.Title
		if m.ReleaseDate != nil && len(*m.ReleaseDate) >= 4 {
			line = fmt.Sprintf("%s (%s)", line, (*m.ReleaseDate)[:4])
		}
		if m.VoteAverage != nil && *m.VoteAverage > 0 {
			line = fmt.Sprintf("%s - %.1f/10", line, *m.VoteAverage)
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	searchCmd.Flags().BoolVar(&noRecord, "no-record", false, "do not count this search towards trending")
	rootCmd.AddCommand(searchCmd)
}
