package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Stitcher StitcherConfig `yaml:"stitcher"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the job store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, postgres
}

// DatabaseConfig holds PostgreSQL connection configuration, used only when
// the postgres store backend is selected.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// StitcherConfig holds video processing configuration
type StitcherConfig struct {
	TempDir         string        `yaml:"temp_dir"`
	FFmpegPath      string        `yaml:"ffmpeg_path"`
	FFprobePath     string        `yaml:"ffprobe_path"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	ConcatTimeout   time.Duration `yaml:"concat_timeout"` // 0 = unlimited
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Stitcher.TempDir == "" {
		c.Stitcher.TempDir = "temp"
	}
	if c.Stitcher.FFmpegPath == "" {
		c.Stitcher.FFmpegPath = "ffmpeg"
	}
	if c.Stitcher.FFprobePath == "" {
		c.Stitcher.FFprobePath = "ffprobe"
	}
	if c.Stitcher.DownloadTimeout <= 0 {
		c.Stitcher.DownloadTimeout = 30 * time.Second
	}
	if c.Stitcher.SweepInterval <= 0 {
		c.Stitcher.SweepInterval = time.Hour
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres store backend")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres store backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q (must be memory or postgres)", c.Store.Backend)
	}

	if c.Stitcher.DownloadTimeout <= 0 {
		return fmt.Errorf("stitcher download_timeout must be greater than 0")
	}

	if c.Stitcher.SweepInterval <= 0 {
		return fmt.Errorf("stitcher sweep_interval must be greater than 0")
	}

	return nil
}
