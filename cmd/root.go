package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moviefind",
	Short: "moviefind cli",
	Long:  `moviefind searches movies on TMDB and keeps track of trending searches`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

func initConfig() {
	// a missing config file is fine, everything can come from the environment
	if _, err := os.Stat(cfgFile); err == nil {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("MOVIEFIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tmdb.uri", "https://api.themoviedb.org")
	v.SetDefault("tmdb.apiKey", "")
	v.SetDefault("tmdb.imageUri", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.backoff", time.Millisecond*500)
	v.SetDefault("tmdb.maxRetries", 3)
	v.SetDefault("tmdb.timeout", time.Second*10)
	v.SetDefault("tmdb.breaker.failureThreshold", 5)
	v.SetDefault("tmdb.breaker.openTimeout", time.Second*30)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite.filePath", "moviefind.sqlite")
	v.SetDefault("store.appwrite.endpoint", "https://cloud.appwrite.io/v1")
	v.SetDefault("store.appwrite.projectId", "")
	v.SetDefault("store.appwrite.apiKey", "")
	v.SetDefault("store.appwrite.databaseId", "")
	v.SetDefault("store.appwrite.collectionId", "")

	v.SetDefault("server.port", 8080)

	v.SetDefault("search.debounce", time.Millisecond*500)
	v.SetDefault("search.recordTimeout", time.Second*5)

	v.SetDefault("trending.limit", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}
