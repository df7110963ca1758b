package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Database struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

type Cleanup struct {
	Interval   time.Duration `mapstructure:"interval"`
	Inactivity time.Duration `mapstructure:"inactivity"`
}

type Limits struct {
	Events  int           `mapstructure:"events"`
	Window  time.Duration `mapstructure:"window"`
	HTTPRPS uint          `mapstructure:"http_rps"`
}

type CORS struct {
	Origins []string `mapstructure:"origins"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendQueue  int           `mapstructure:"send_queue"`
	Secret     string        `mapstructure:"secret"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Database   Database      `mapstructure:"database"`
	Cleanup    Cleanup       `mapstructure:"cleanup"`
	Limits     Limits        `mapstructure:"limits"`
	CORS       CORS          `mapstructure:"cors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_queue", 64)
	v.SetDefault("secret", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:chat.db?_foreign_keys=1&_busy_timeout=5000")
	v.SetDefault("database.migrate", true)
	v.SetDefault("cleanup.interval", "1h")
	v.SetDefault("cleanup.inactivity", "720h")
	v.SetDefault("limits.events", 30)
	v.SetDefault("limits.window", "5s")
	v.SetDefault("limits.http_rps", 100)
	v.SetDefault("cors.origins", []string{"*"})
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then CHAT_* environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.Database.Driver).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Cleanup.Interval <= 0 || c.Cleanup.Inactivity <= 0 {
		return fmt.Errorf("cleanup interval and inactivity must be positive")
	}
	return nil
}
