// Package config handles loading application configuration.
//
// Values come from the environment (optionally pre-populated from a .env
// file in the working directory). A YAML file may be supplied as well,
// in priority order:
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Environment variables always override values from the YAML file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported values of Database.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Database Database `yaml:"database"`

	HTTPServer `yaml:"http_server"`
}

// Database holds the store connection settings.
type Database struct {
	// Driver selects the backend: "postgres" or "sqlite".
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`

	Host     string `yaml:"host"     env:"DB_HOST"              env-default:"localhost"`
	Name     string `yaml:"name"     env:"DB_DATABASE,DB_NAME"  env-default:"postgres"`
	User     string `yaml:"user"     env:"DB_USER"              env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Port     int    `yaml:"port"     env:"DB_PORT"              env-default:"5432"`
	SSLMode  string `yaml:"sslmode"  env:"DB_SSLMODE"           env-default:"disable"`

	// Path is the SQLite database file. It must be a file on disk: the
	// store keeps no idle connections, so ":memory:" would lose its data
	// after every call.
	Path string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"storage/persons.db"`
}

// HTTPServer holds the listener settings.
type HTTPServer struct {
	Host string `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"PORT" env-default:"8000"`

	// Reload enables development mode when it equals "true" in any
	// case. Go binaries cannot reload themselves; pair it with an
	// external watcher such as air. A bool field would not work here:
	// cleanenv treats a YAML false as unset and applies the default.
	Reload string `yaml:"reload" env:"RELOAD" env-default:"true"`
}

// ReloadEnabled reports whether Reload is set to "true".
func (h HTTPServer) ReloadEnabled() bool {
	return strings.EqualFold(h.Reload, "true")
}

// Addr returns the host:port the server listens on.
func (h HTTPServer) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// DSN returns a Postgres connection URL with credentials escaped.
func (d Database) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Load reads configuration from the environment, and from the YAML file
// at path when path is not empty. A .env file in the working directory
// is loaded into the environment first; variables already set win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	switch cfg.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	return &cfg, nil
}

// MustLoad resolves the optional config file path from CONFIG_PATH or
// the --config flag, loads the configuration and exits the process on
// failure.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to an optional configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("config file does not exist: %s", configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}
