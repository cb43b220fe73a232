// ABOUTME: Configuration loading and parsing for todo-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion, overrides, and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// defaultLocalRegion is used against an endpoint override when no region is
// configured. The SDK refuses to sign requests without one.
const defaultLocalRegion = "us-east-1"

// Config represents the complete todo-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Store     StoreConfig     `yaml:"store" toml:"store"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	DynamoDB  DynamoDBConfig  `yaml:"dynamodb" toml:"dynamodb"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr          string        `yaml:"http_addr" toml:"http_addr"`
	ReadHeaderTimeout time.Duration `yaml:"-" toml:"-"`
	ShutdownTimeout   time.Duration `yaml:"-" toml:"-"`
	IdempotencyTTL    time.Duration `yaml:"-" toml:"-"` // how long Idempotency-Key replays are kept

	// Raw string values for unmarshaling
	ReadHeaderTimeoutRaw string `yaml:"read_header_timeout" toml:"read_header_timeout"`
	ShutdownTimeoutRaw   string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	IdempotencyTTLRaw    string `yaml:"idempotency_ttl" toml:"idempotency_ttl"`
}

// StoreConfig selects the item store backend
type StoreConfig struct {
	Backend           string `yaml:"backend" toml:"backend"`
	OptimisticUpdates bool   `yaml:"optimistic_updates" toml:"optimistic_updates"`
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// DynamoDBConfig holds DynamoDB configuration
type DynamoDBConfig struct {
	TableName   string `yaml:"table_name" toml:"table_name"`
	Region      string `yaml:"region" toml:"region"`
	Endpoint    string `yaml:"endpoint" toml:"endpoint"`         // e.g. http://localhost:4566 for LocalStack
	CreateTable bool   `yaml:"create_table" toml:"create_table"` // create table + index if missing
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"`   // serve :443 with Tailscale-issued certs
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:             ":8080",
			ReadHeaderTimeoutRaw: "10s",
			ShutdownTimeoutRaw:   "5s",
			IdempotencyTTLRaw:    "10m",
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Database: DatabaseConfig{
			Path: "./data/todos.db",
		},
		DynamoDB: DynamoDBConfig{
			TableName: "todos",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded. Files ending in
// .toml are parsed as TOML, everything else as YAML. Fields missing from the
// file keep their Default values, then environment overrides are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// LoadFromEnv builds a DynamoDB-backed configuration purely from the
// environment, the way a Lambda execution environment supplies it.
// TABLE_NAME is required.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	cfg.Store.Backend = BackendDynamoDB
	cfg.DynamoDB.TableName = ""
	cfg.Logging.Format = "json"
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides lets well-known variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TODO_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TABLE_NAME"); v != "" {
		cfg.DynamoDB.TableName = v
	}
	if v := os.Getenv("AWS_ENDPOINT_URL"); v != "" {
		cfg.DynamoDB.Endpoint = v
	}
	if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		cfg.DynamoDB.Region = v
	}
	// AWS_REGION is what the Lambda runtime sets; it wins over the default
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.DynamoDB.Region = v
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDB.TableName == "" {
			return fmt.Errorf("dynamodb.table_name is required for the dynamodb backend (or set TABLE_NAME)")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store.backend %q is not one of sqlite, dynamodb, memory", c.Store.Backend)
	}

	// Server address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ReadHeaderTimeoutRaw != "" {
		cfg.Server.ReadHeaderTimeout, err = time.ParseDuration(cfg.Server.ReadHeaderTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing read_header_timeout %q: %w", cfg.Server.ReadHeaderTimeoutRaw, err)
		}
	}

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Server.IdempotencyTTLRaw != "" {
		cfg.Server.IdempotencyTTL, err = time.ParseDuration(cfg.Server.IdempotencyTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing idempotency_ttl %q: %w", cfg.Server.IdempotencyTTLRaw, err)
		}
	}

	return nil
}

// DynamoConnection is the resolved way to reach DynamoDB.
type DynamoConnection struct {
	Table    string
	Region   string
	Endpoint string
	Local    bool // talking to an emulator through an endpoint override
}

// ResolveDynamoConnection decides between a local emulator and the regional
// service. An endpoint override selects the emulator and forces a region;
// otherwise the region may stay empty and the SDK resolves it.
func ResolveDynamoConnection(c DynamoDBConfig) DynamoConnection {
	conn := DynamoConnection{
		Table:    c.TableName,
		Region:   c.Region,
		Endpoint: strings.TrimSpace(c.Endpoint),
	}
	if conn.Endpoint != "" {
		conn.Local = true
		if conn.Region == "" {
			conn.Region = defaultLocalRegion
		}
	}
	return conn
}

// WriteDefault writes a starter YAML configuration to path. Existing files
// are left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return Write(path, Default())
}

// Write encodes cfg as YAML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	header := "# todo-gateway configuration\n# Generated by todo-gateway init\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
