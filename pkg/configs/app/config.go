// Package app loads the runtime configuration shared by citationd and
// the loops daemon.
package app

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

var ErrInvalidConfig = errors.New("config: invalid")

type DatabaseConfig struct {
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
	Name     string `ini:"name"`
}

// URL renders the connection string for the database driver.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

type ServerConfig struct {
	Port int32 `ini:"port"`

	// BaseUrl is the address this service is published at, for links
	// rendered into exports.
	BaseUrl string `ini:"base-url"`
}

type SecretsConfig struct {
	// SecretKey signs session tokens.
	SecretKey string `ini:"secret_key"`

	// TokenTTL of issued session tokens. Zero lets the auth package
	// choose.
	TokenTTL time.Duration `ini:"token_ttl"`
}

type CrossrefConfig struct {
	BaseUrl   string        `ini:"base_url"`
	RateLimit float64       `ini:"rate_limit"`
	Timeout   time.Duration `ini:"timeout"`
}

type ArchiveConfig struct {
	// Timeout per archive URL health probe.
	Timeout time.Duration `ini:"timeout"`
}

type CacheConfig struct {
	// TTL of warmed cache entries. Zero lets the warmer choose.
	TTL time.Duration `ini:"ttl"`
}

type Config struct {
	Database DatabaseConfig `ini:"database"`
	Server   ServerConfig   `ini:"server"`
	Secrets  SecretsConfig  `ini:"secrets"`
	Crossref CrossrefConfig `ini:"crossref"`
	Archive  ArchiveConfig  `ini:"archive"`
	Cache    CacheConfig    `ini:"cache"`
}

// Load reads a config.ini.
//
// The [database] and [server] sections must be present, with enough of
// [database] filled in to connect. Everything else may be omitted;
// omitted keys keep their zero value or a serviceable default.
func Load(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return unmarshal(file)
}

func unmarshal(file *ini.File) (*Config, error) {
	for _, section := range []string{"database", "server"} {
		if _, err := file.GetSection(section); err != nil {
			return nil, fmt.Errorf("%w: no [%s] section", ErrInvalidConfig, section)
		}
	}

	conf := &Config{
		Database: DatabaseConfig{Port: 5432},
		Server:   ServerConfig{Port: 8000},
	}
	if err := file.StrictMapTo(conf); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	if conf.Database.Host == "" {
		return nil, fmt.Errorf("%w: database.host is required", ErrInvalidConfig)
	}
	if conf.Database.User == "" {
		return nil, fmt.Errorf("%w: database.user is required", ErrInvalidConfig)
	}
	if conf.Database.Name == "" {
		return nil, fmt.Errorf("%w: database.name is required", ErrInvalidConfig)
	}
	return conf, nil
}
