package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Remote   RemoteConfig   `json:"remote"`
	Wizard   WizardConfig   `json:"wizard"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
	ReadTimeout    Duration `json:"read_timeout"`
	WriteTimeout   Duration `json:"write_timeout"`
	IdleTimeout    Duration `json:"idle_timeout"`
}

// RemoteConfig points at the verification GraphQL service
type RemoteConfig struct {
	Endpoint string   `json:"endpoint"`
	Token    string   `json:"token"`
	Timeout  Duration `json:"timeout"`
}

// WizardConfig tunes the verification sessions
type WizardConfig struct {
	AdvanceTimeout Duration `json:"advance_timeout"`
	SessionTTL     Duration `json:"session_ttl"`
	SweepSchedule  string   `json:"sweep_schedule"`
	ReportQueue    int      `json:"report_queue"`
}

// DatabaseConfig represents database configuration. Drafts fall back to
// memory when Host is empty.
type DatabaseConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	User           string   `json:"user"`
	Password       string   `json:"password"`
	DBName         string   `json:"db_name"`
	SSLMode        string   `json:"ssl_mode"`
	MaxConnections int      `json:"max_connections"`
	MaxIdleConns   int      `json:"max_idle_conns"`
	MaxLifetime    Duration `json:"max_lifetime"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// Duration reads "30s" style strings as well as integer nanoseconds
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
			IdleTimeout:  Duration(60 * time.Second),
		},
		Remote: RemoteConfig{
			Endpoint: "http://localhost:4000/graphql",
			Timeout:  Duration(20 * time.Second),
		},
		Wizard: WizardConfig{
			AdvanceTimeout: Duration(30 * time.Second),
			SessionTTL:     Duration(30 * time.Minute),
			SweepSchedule:  "@every 5m",
			ReportQueue:    256,
		},
		Database: DatabaseConfig{
			Port:           5432,
			DBName:         "project_verification",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    Duration(time.Hour),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from file and environment variables. A
// missing file is not an error; a .env file in the working directory is
// loaded first without overriding variables already set.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if origins := os.Getenv("SERVER_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}

	if endpoint := os.Getenv("REMOTE_ENDPOINT"); endpoint != "" {
		config.Remote.Endpoint = endpoint
	}
	if token := os.Getenv("REMOTE_TOKEN"); token != "" {
		config.Remote.Token = token
	}
	if err := envDuration("REMOTE_TIMEOUT", &config.Remote.Timeout); err != nil {
		return err
	}

	if err := envDuration("WIZARD_ADVANCE_TIMEOUT", &config.Wizard.AdvanceTimeout); err != nil {
		return err
	}
	if err := envDuration("WIZARD_SESSION_TTL", &config.Wizard.SessionTTL); err != nil {
		return err
	}
	if schedule := os.Getenv("WIZARD_SWEEP_SCHEDULE"); schedule != "" {
		config.Wizard.SweepSchedule = schedule
	}

	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	return nil
}

func envDuration(key string, target *Duration) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = Duration(d)
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the values the server cannot start without
func (c *Config) Validate() error {
	if c.Remote.Endpoint == "" {
		return errors.New("remote endpoint is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Wizard.AdvanceTimeout <= 0 {
		return errors.New("wizard advance timeout must be positive")
	}
	if c.Wizard.SessionTTL <= 0 {
		return errors.New("wizard session ttl must be positive")
	}
	return nil
}

// DraftsEnabled reports whether drafts are persisted to postgres
func (c *DatabaseConfig) DraftsEnabled() bool {
	return c.Host != ""
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
