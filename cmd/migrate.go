package cmd

import (
	"context"

	"github.com/kasuboski/moviefind/config"
	"github.com/kasuboski/moviefind/pkg/storage/sqlite"

	"github.com/spf13/cobra"
)

// migrateCmd applies the sqlite schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply database migrations",
	Long:  `apply the sqlite schema migrations, other stores manage their own schema`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log, err := loadConfig()
		if err != nil {
			log.Fatalw("invalid configuration", "error", err)
		}

		if cfg.Store.Driver != config.StoreDriverSQLite {
			log.Infow("nothing to migrate", "driver", cfg.Store.Driver)
			return
		}

		ctx := context.Background()
		store, err := sqlite.New(ctx, cfg.Store.SQLite.FilePath)
		if err != nil {
			log.Fatalw("failed to create storage connection", "error", err)
		}
		defer store.Close()

		if err := store.RunMigrations(ctx); err != nil {
			log.Fatalw("failed to run migrations", "error", err)
		}

		version, dirty, err := store.GetMigrationVersion()
		if err != nil {
			log.Fatalw("failed to read migration version", "error", err)
		}
		log.Infow("migrations applied", "version", version, "dirty", dirty)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
