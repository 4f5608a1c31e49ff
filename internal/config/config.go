package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		CORSOrigins     []string      `koanf:"cors_origins"`
	} `koanf:"http"`

	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string `koanf:"jwt_secret"`
		Issuer    string `koanf:"issuer"`
		Audience  string `koanf:"audience"`
	} `koanf:"security"`
}

// Load reads base.yaml from pathDir, overlays an optional per-environment
// file, then environment variables (prefix ESTAPI_, nested with __), e.g.
// ESTAPI_POSTGRES__DSN, ESTAPI_SECURITY__JWT_SECRET.
func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base config: %w", err)
	}
	if envName != "" {
		overlay := fmt.Sprintf("%s/%s.yaml", pathDir, envName)
		if _, err := os.Stat(overlay); err == nil {
			if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s config: %w", envName, err)
			}
		}
	}

	if err := k.Load(env.Provider("ESTAPI_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ESTAPI_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "catalog-api"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Idempotency.TTL == 0 {
		c.Idempotency.TTL = 24 * time.Hour
	}
}

func (c Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	return nil
}
