package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/trending"

	"github.com/spf13/cobra"
)

// trendingCmd prints the most searched terms
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "list trending searches",
	Long:  `list the most searched terms, highest count first`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		ctx := context.Background()
		store, err := newStore(ctx, cfg.Store)
		if err != nil {
			log.Fatalw("failed to open store", "error", err)
		}
		defer store.Close()

		tracker := trending.New(store, trending.WithLimit(cfg.Trending.Limit))

		if term, _ := cmd.Flags().GetString("term"); term != "" {
			record, err := tracker.Lookup(ctx, term)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has not been searched yet\n", term)
				return
			}
			if err != nil {
				log.Fatalw("failed to look up search term", "error", err)
			}

			renderTerm(cmd.OutOrStdout(), record, time.Now())
			return
		}

		result := tracker.Trending(ctx)
		if result.Err != nil {
			log.Fatalw("failed to list trending searches", "error", result.Err)
		}

		renderTrending(cmd.OutOrStdout(), result.Records, time.Now())
	},
}

func renderTrending(w io.Writer, records []storage.SearchRecord, now time.Time) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No trending searches yet")
		return
	}

	fmt.Fprintln(w, "Trending searches")
	for i, r := range records {
		fmt.Fprintf(w, "%d. %s - %s %s, last %s\n",
			i+1,
			r.SearchTerm,
			humanize.Comma(int64(r.Count)),
			english.PluralWord(r.Count, "search", "searches"),
			humanize.RelTime(r.UpdatedAt, now, "ago", "from now"),
		)
	}
}

func renderTerm(w io.Writer, r storage.SearchRecord, now time.Time) {
	fmt.Fprintf(w, "%s - %s %s, first %s, last %s\n",
		r.SearchTerm,
		humanize.Comma(int64(r.Count)),
		english.PluralWord(r.Count, "search", "searches"),
		humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
		humanize.RelTime(r.UpdatedAt, now, "ago", "from now"),
	)
}

func init() {
	trendingCmd.Flags().String("term", "", "show the count for a single search term")
	rootCmd.AddCommand(trendingCmd)
}
