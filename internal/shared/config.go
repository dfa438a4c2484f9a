package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Supported values for [DatabaseConfig.Driver].
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Seed     SeedConfig     `toml:"seed"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Source returns the data source name handed to [NewDatabase] for the configured driver.
func (d DatabaseConfig) Source() string {
	if d.Driver == DriverMySQL {
		return d.DSN
	}
	return d.Path
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	SessionSecret string   `toml:"session_secret"`
	TokenTTL      Duration `toml:"token_ttl"`
	LoginRate     float64  `toml:"login_rate"`
	LoginBurst    int      `toml:"login_burst"`
}

// Addr joins host and port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SeedConfig toggles sample data population on startup.
type SeedConfig struct {
	Enabled bool `toml:"enabled"`
}

// LogConfig contains logger level and optional rotating file settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Duration wraps [time.Duration] so it can be written as "24h" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, text)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// LoadEnvFiles loads the given dotenv files into the process environment.
//
// Missing files are skipped; variables already set in the environment win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays CADENCE_* and MYSQL_* environment variables onto config.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CADENCE_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("CADENCE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CADENCE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("CADENCE_SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("CADENCE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CADENCE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CADENCE_PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	if c.Database.Driver == DriverMySQL && c.Database.DSN == "" {
		c.Database.DSN = MySQLDSNFromEnv()
	}
	return nil
}

// MySQLDSNFromEnv composes a DSN from MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DB and MYSQL_PORT.
func MySQLDSNFromEnv() string {
	host := getEnv("MYSQL_HOST", "localhost")
	user := getEnv("MYSQL_USER", "root")
	pass := getEnv("MYSQL_PASSWORD", "")
	name := getEnv("MYSQL_DB", "music_app")
	port := getEnv("MYSQL_PORT", "3306")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, pass, host, port, name)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite3"))
		}
	case DriverMySQL:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ValidateServer additionally requires a session secret and token lifetime.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.SessionSecret == "" {
		return fmt.Errorf("%w: server.session_secret is required", ErrInvalidConfig)
	}
	if c.Server.TokenTTL.Duration <= 0 {
		return fmt.Errorf("%w: server.token_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
