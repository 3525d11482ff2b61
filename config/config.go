package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverAppwrite = "appwrite"
)

type Config struct {
	TMDB     TMDB     `json:"tmdb" yaml:"tmdb" mapstructure:"tmdb"`
	Store    Store    `json:"store" yaml:"store" mapstructure:"store"`
	Server   Server   `json:"server" yaml:"server" mapstructure:"server"`
	Search   Search   `json:"search" yaml:"search" mapstructure:"search"`
	Trending Trending `json:"trending" yaml:"trending" mapstructure:"trending"`
	Log      Log      `json:"log" yaml:"log" mapstructure:"log"`
}

type TMDB struct {
	URI         string        `json:"uri" yaml:"uri" mapstructure:"uri" validate:"required,url"`
	APIKey      string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey" validate:"required"`
	ImageURI    string        `json:"imageUri" yaml:"imageUri" mapstructure:"imageUri" validate:"required,url"`
	BaseBackoff time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries" validate:"gte=0"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Breaker     Breaker       `json:"breaker" yaml:"breaker" mapstructure:"breaker"`
}

// Breaker configures the circuit breaker in front of the metadata api
type Breaker struct {
	FailureThreshold uint32        `json:"failureThreshold" yaml:"failureThreshold" mapstructure:"failureThreshold"`
	OpenTimeout      time.Duration `json:"openTimeout" yaml:"openTimeout" mapstructure:"openTimeout"`
}

// Store selects and configures the document store backing search popularity
type Store struct {
	Driver   string   `json:"driver" yaml:"driver" mapstructure:"driver" validate:"oneof=sqlite appwrite"`
	SQLite   SQLite   `json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`
	Appwrite Appwrite `json:"appwrite" yaml:"appwrite" mapstructure:"appwrite"`
}

type SQLite struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath" validate:"required"`
}

type Appwrite struct {
	Endpoint     string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	ProjectID    string `json:"projectId" yaml:"projectId" mapstructure:"projectId" validate:"required"`
	APIKey       string `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	DatabaseID   string `json:"databaseId" yaml:"databaseId" mapstructure:"databaseId" validate:"required"`
	CollectionID string `json:"collectionId" yaml:"collectionId" mapstructure:"collectionId" validate:"required"`
}

type Server struct {
	Port int `json:"port" yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Search configures the interactive search behavior
type Search struct {
	Debounce      time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
	RecordTimeout time.Duration `json:"recordTimeout" yaml:"recordTimeout" mapstructure:"recordTimeout"`
}

type Trending struct {
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit" validate:"gte=1,lte=5"`
}

type Log struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	JSON  bool   `json:"json" yaml:"json" mapstructure:"json"`
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}

// Validate checks that everything needed to build requests is present.
// Only the selected store driver's section is checked.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	sections := []section{
		{"tmdb", c.TMDB},
		{"store", storeDriver{c.Store.Driver}},
		{"server", c.Server},
		{"trending", c.Trending},
	}

	switch c.Store.Driver {
	case StoreDriverSQLite:
		sections = append(sections, section{"store.sqlite", c.Store.SQLite})
	case StoreDriverAppwrite:
		sections = append(sections, section{"store.appwrite", c.Store.Appwrite})
	}

	var problems []string
	for _, sec := range sections {
		err := v.Struct(sec.value)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		for _, fe := range verrs {
			problems = append(problems, describe(sec.prefix, fe))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

type section struct {
	prefix string
	value  any
}

type storeDriver struct {
	Driver string `validate:"oneof=sqlite appwrite"`
}

func describe(prefix string, fe validator.FieldError) string {
	key := prefix + "." + lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "url":
		return fmt.Sprintf("%s must be a url, got %q", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s", key, fe.Tag(), fe.Param())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	// APIKey -> apiKey, ProjectID -> projectID
	upper := 0
	for upper < len(s) && s[upper] >= 'A' && s[upper] <= 'Z' {
		upper++
	}
	switch {
	case upper == len(s):
		return strings.ToLower(s)
	case upper > 1:
		upper--
	}
	return strings.ToLower(s[:upper]) + s[upper:]
}
