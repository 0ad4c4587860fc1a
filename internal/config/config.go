package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Bracket   BracketConfig   `yaml:"bracket"`
	Provision ProvisionConfig `yaml:"provision"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// Host the Twitch player is embedded on.
	EmbedParent string `yaml:"embed_parent"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // sqlite3|postgres
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type BracketConfig struct {
	MapPool    []string      `yaml:"map_pool"`
	DelayGrace time.Duration `yaml:"delay_grace"`
	MinShift   time.Duration `yaml:"min_shift"`
}

// ProvisionConfig points at the game-server provisioner. An empty webhook
// URL disables provisioning.
type ProvisionConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			EmbedParent:    "localhost",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite3",
			DSN:          "esports_bracket.db?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on",
			MaxOpenConns: 1,
		},
		Bracket: BracketConfig{
			MapPool:    []string{"ancient", "anubis", "dust2", "inferno", "mirage", "nuke", "train"},
			DelayGrace: 5 * time.Minute,
			MinShift:   10 * time.Minute,
		},
		Provision: ProvisionConfig{
			Timeout:    5 * time.Second,
			MaxRetries: 3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads .env (if present) and the YAML file at path over the defaults,
// then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
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

func (c *Config) applyEnv() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("EMBED_PARENT"); v != "" {
		c.HTTP.EmbedParent = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("MAP_POOL"); v != "" {
		c.Bracket.MapPool = splitList(v)
	}
	if v := os.Getenv("DELAY_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DELAY_GRACE value: %w", err)
		}
		c.Bracket.DelayGrace = d
	}
	if v := os.Getenv("MIN_SHIFT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MIN_SHIFT value: %w", err)
		}
		c.Bracket.MinShift = d
	}
	if v := os.Getenv("PROVISION_WEBHOOK_URL"); v != "" {
		c.Provision.WebhookURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if len(c.Bracket.MapPool) < 2 {
		errs = append(errs, errors.New("bracket.map_pool needs at least 2 maps"))
	}
	if c.Bracket.DelayGrace < 0 || c.Bracket.MinShift < 0 {
		errs = append(errs, errors.New("bracket delay durations cannot be negative"))
	}
	if c.Provision.WebhookURL != "" && c.Provision.Timeout <= 0 {
		errs = append(errs, errors.New("provision.timeout must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", l.Level)
	}
	return level, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
