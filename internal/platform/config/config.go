package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values are resolved in order:
// built-in defaults, the YAML file named by CONFIG_FILE, then environment.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Server   ServerConfig   `yaml:"server"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Store    StoreConfig    `yaml:"store"`
	Roles    RolesConfig    `yaml:"roles"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"logLevel"`
	// DefaultActor is used when a request carries no actor identity.
	DefaultActor string `yaml:"defaultActor"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type GRPCConfig struct {
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type DatabaseConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	Database    string        `yaml:"database"`
	SSLMode     string        `yaml:"sslMode"`
	MaxConns    int32         `yaml:"maxConns"`
	MinConns    int32         `yaml:"minConns"`
	MaxConnTime time.Duration `yaml:"maxConnTime"`
	MaxIdleTime time.Duration `yaml:"maxIdleTime"`
	HealthCheck time.Duration `yaml:"healthCheck"`
}

type NATSConfig struct {
	// URL is empty when event publishing is disabled.
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

type StoreConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver"`
}

// RolesConfig overrides the hiring-approval role table.
type RolesConfig struct {
	First       string            `yaml:"first"`
	Last        string            `yaml:"last"`
	Default     string            `yaml:"default"`
	Departments map[string]string `yaml:"departments"`
	Sections    map[string]string `yaml:"sections"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:         "be-hr-recruitment",
			Version:      "dev",
			Environment:  "development",
			LogLevel:     "info",
			DefaultActor: "Current User",
		},
		Server: ServerConfig{
			Port:            8086,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		GRPC: GRPCConfig{Port: 9086, Reflection: true},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        5432,
			User:        "postgres",
			Database:    "hr_recruitment",
			SSLMode:     "disable",
			MaxConns:    10,
			MinConns:    1,
			MaxConnTime: time.Hour,
			MaxIdleTime: 30 * time.Minute,
			HealthCheck: time.Minute,
		},
		NATS:  NATSConfig{SubjectPrefix: "workflow"},
		Store: StoreConfig{Driver: "memory"},
	}
}

// Load resolves the configuration from defaults, file and environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Service.Name, "SERVICE_NAME")
	setString(&c.Service.Version, "SERVICE_VERSION")
	setString(&c.Service.Environment, "ENVIRONMENT")
	setString(&c.Service.LogLevel, "LOG_LEVEL")
	setString(&c.Service.DefaultActor, "DEFAULT_ACTOR")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.NATS.URL, "NATS_URL")
	setString(&c.Store.Driver, "STORE_DRIVER")

	for key, dst := range map[string]*int{
		"HTTP_PORT": &c.Server.Port,
		"GRPC_PORT": &c.GRPC.Port,
		"DB_PORT":   &c.Database.Port,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the resolved configuration for values the service cannot
// start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid http port %d", c.Server.Port)
	}
	if c.GRPC.Port <= 0 {
		return fmt.Errorf("invalid grpc port %d", c.GRPC.Port)
	}
	switch c.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}
