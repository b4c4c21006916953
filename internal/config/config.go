package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jengzang/densitymap-backend-go/internal/logging"
)

// envPrefix maps nested keys like density.workers to DENSITYMAP_DENSITY_WORKERS
const envPrefix = "DENSITYMAP"

// Config 应用配置
type Config struct {
	Port      string         `mapstructure:"port"`
	DBPath    string         `mapstructure:"db_path"` // empty disables run history
	JWTSecret string         `mapstructure:"jwt_secret"`
	GinMode   string         `mapstructure:"gin_mode"`
	Log       logging.Config `mapstructure:"log"`
	Density   DensityConfig  `mapstructure:"density"`
	RateLimit RateLimit      `mapstructure:"rate_limit"`
}

// DensityConfig bounds per-request computation
type DensityConfig struct {
	Workers    int           `mapstructure:"workers"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxSamples int           `mapstructure:"max_samples"`
}

// RateLimit configures the per-IP limiter; zero requests disables it
type RateLimit struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", ":8080")
	v.SetDefault("db_path", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("density.workers", runtime.NumCPU())
	v.SetDefault("density.timeout", 30*time.Second)
	v.SetDefault("density.max_samples", 200000)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", time.Minute)
	return v
}

// Load 加载配置
// path may be empty, in which case only defaults and DENSITYMAP_* environment
// variables are used.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.Density.Workers < 0 {
		return fmt.Errorf("density.workers must not be negative, got %d", c.Density.Workers)
	}
	if c.Density.Timeout < 0 {
		return fmt.Errorf("density.timeout must not be negative, got %s", c.Density.Timeout)
	}
	if c.Density.MaxSamples < 0 {
		return fmt.Errorf("density.max_samples must not be negative, got %d", c.Density.MaxSamples)
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.window must be positive when rate limiting is enabled")
	}
	return nil
}
