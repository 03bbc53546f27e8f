// Package config loads CLI settings from a YAML file, .env files and
// DOCQUERY_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/manojoshi/docquery/driver"
)

// AppFs is the filesystem config and .env files are read from.
var AppFs = afero.NewOsFs()

const EnvPrefix = "DOCQUERY"

// Config holds everything the CLI needs to reach a cluster.
type Config struct {
	QueryEndpoint   string
	Username        string
	Password        string
	Bucket          string
	Name            string
	IDField         string
	Separator       string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	PaginateDefault int
	PaginateMax     int
	Consistency     string
	QueryTimeout    time.Duration
	LogLevel        string
}

// Load reads configuration. path may name a config file explicitly;
// otherwise .docquery.yaml is looked up in the working directory, the
// home directory and ~/.config/docquery.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".docquery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "docquery"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("query_endpoint", "http://localhost:8093")
	v.SetDefault("bucket", "default")
	v.SetDefault("id_field", "uuid")
	v.SetDefault("separator", "::")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("paginate_default", 0)
	v.SetDefault("paginate_max", 0)
	v.SetDefault("query_timeout", "75s")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// .env.local wins over .env; real environment wins over both.
	if err := loadDotenv(".env.local", ".env"); err != nil {
		return nil, err
	}

	return &Config{
		QueryEndpoint:   v.GetString("query_endpoint"),
		Username:        v.GetString("username"),
		Password:        v.GetString("password"),
		Bucket:          v.GetString("bucket"),
		Name:            v.GetString("name"),
		IDField:         v.GetString("id_field"),
		Separator:       v.GetString("separator"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisPassword:   v.GetString("redis_password"),
		RedisDB:         v.GetInt("redis_db"),
		PaginateDefault: v.GetInt("paginate_default"),
		PaginateMax:     v.GetInt("paginate_max"),
		Consistency:     v.GetString("consistency"),
		QueryTimeout:    v.GetDuration("query_timeout"),
		LogLevel:        v.GetString("log_level"),
	}, nil
}

// loadDotenv exports the variables of each existing file without
// overriding what is already set. Earlier files take precedence.
func loadDotenv(files ...string) error {
	for _, name := range files {
		f, err := AppFs.Open(name)
		if err != nil {
			continue
		}
		vars, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("config: parse %s: %w", name, err)
		}
		for k, val := range vars {
			if _, set := os.LookupEnv(k); !set {
				os.Setenv(k, val)
			}
		}
	}
	return nil
}

// ScanConsistency parses Consistency; empty means the service default.
func (c *Config) ScanConsistency() (driver.Consistency, error) {
	if c.Consistency == "" {
		return "", nil
	}
	return driver.ParseConsistency(c.Consistency)
}

// Level maps LogLevel onto slog; unknown names fall back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
