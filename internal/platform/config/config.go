package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App        App        `yaml:"app"`
	HTTP       HTTP       `yaml:"http"`
	Database   Database   `yaml:"database"`
	Log        Log        `yaml:"log"`
	Auth       Auth       `yaml:"auth"`
	Pagination Pagination `yaml:"pagination"`
}

type App struct {
	Name string `yaml:"name"`
}

type HTTP struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Database.Driver: memory | sqlite | postgres.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Auth: si IAMBaseURL está vacío, el server queda en modo dev (X-Debug-User-ID).
type Auth struct {
	IAMBaseURL string        `yaml:"iam_base_url"`
	IAMAPIKey  string        `yaml:"iam_api_key"`
	IAMTimeout time.Duration `yaml:"iam_timeout"`
}

type Pagination struct {
	PageSize int `yaml:"page_size"`
}

func Default() Config {
	return Config{
		App: App{Name: "farm-registry"},
		HTTP: HTTP{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database:   Database{Driver: "memory"},
		Log:        Log{Level: "info", Format: "text"},
		Auth:       Auth{IAMTimeout: 5 * time.Second},
		Pagination: Pagination{PageSize: 10},
	}
}

// Load arma la config: defaults -> YAML (CONFIG_FILE, opcional) -> env.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.mergeYAML(data)
}

func (c *Config) mergeYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("APP_NAME")); v != "" {
		c.App.Name = v
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		c.HTTP.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("DB_DRIVER")); v != "" {
		c.Database.Driver = v
	}
	if v := strings.TrimSpace(getenv("DB_DSN")); v != "" {
		c.Database.DSN = v
		// compat: DB_DSN sin driver explícito => postgres (como antes)
		if strings.TrimSpace(getenv("DB_DRIVER")) == "" && c.Database.Driver == "memory" {
			c.Database.Driver = "postgres"
		}
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv("LOG_FORMAT")); v != "" {
		c.Log.Format = v
	}
	if v := strings.TrimSpace(getenv("IAM_BASE_URL")); v != "" {
		c.Auth.IAMBaseURL = v
	}
	if v := strings.TrimSpace(getenv("IAM_API_KEY")); v != "" {
		c.Auth.IAMAPIKey = v
	}
	if v := strings.TrimSpace(getenv("PAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pagination.PageSize = n
		}
	}
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" && c.Database.Driver == "postgres" {
			return fmt.Errorf("config: database.dsn required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Pagination.PageSize <= 0 || c.Pagination.PageSize > 100 {
		return fmt.Errorf("config: pagination.page_size must be between 1 and 100")
	}
	return nil
}
