package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// MinSecretLength is the minimum HMAC key size accepted for HS512 signing.
const MinSecretLength = 32

type Config struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	MigrateOnStart bool
	SeedDemo       bool

	RedisEnabled bool
	CacheTTL     time.Duration

	JWTSecret       string
	JWTExpiration   time.Duration
	JWTStrictSecret bool

	CompounderEnabled bool
	CompounderPeriod  time.Duration

	AllowedOrigins []string
}

var bindings = map[string]string{
	"server.port":             "PORT",
	"server.read_timeout":     "SERVER_READ_TIMEOUT",
	"server.write_timeout":    "SERVER_WRITE_TIMEOUT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
	"database.host":           "DATABASE_HOST",
	"database.port":           "DATABASE_PORT",
	"database.user":           "DATABASE_USER",
	"database.password":       "DATABASE_PASSWORD",
	"database.name":           "DATABASE_NAME",
	"database.ssl_mode":       "DATABASE_SSL_MODE",
	"database.migrate":        "DATABASE_MIGRATE",
	"database.seed_demo":      "DATABASE_SEED_DEMO",
	"redis.enabled":           "REDIS_ENABLED",
	"redis.host":              "REDIS_HOST",
	"redis.port":              "REDIS_PORT",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"cache.ttl":               "CACHE_TTL",
	"jwt.secret":              "JWT_SECRET",
	"jwt.expiration":          "JWT_EXPIRATION",
	"jwt.strict_secret":       "JWT_STRICT_SECRET",
	"compounder.enabled":      "COMPOUNDER_ENABLED",
	"compounder.period":       "COMPOUNDER_PERIOD",
	"cors.allowed_origins":    "CORS_ALLOWED_ORIGINS",
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("server.shutdown_timeout", 30*time.Second)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("database.migrate", true)
	viper.SetDefault("database.seed_demo", false)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("cache.ttl", 10*time.Minute)
	viper.SetDefault("jwt.expiration", int64(86_400_000))
	viper.SetDefault("jwt.strict_secret", false)
	viper.SetDefault("compounder.enabled", true)
	viper.SetDefault("compounder.period", int64(30_000))
	viper.SetDefault("cors.allowed_origins", []string{"https://*", "http://*"})
}

// Load reads .env (if present) and the environment into viper and returns the
// resolved configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("[CONFIG] could not load .env")
	}

	viper.AutomaticEnv()
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	setDefaults()

	cfg := &Config{
		Port:              viper.GetString("server.port"),
		ReadTimeout:       viper.GetDuration("server.read_timeout"),
		WriteTimeout:      viper.GetDuration("server.write_timeout"),
		ShutdownTimeout:   viper.GetDuration("server.shutdown_timeout"),
		LogLevel:          viper.GetString("log.level"),
		LogFormat:         viper.GetString("log.format"),
		MigrateOnStart:    viper.GetBool("database.migrate"),
		SeedDemo:          viper.GetBool("database.seed_demo"),
		RedisEnabled:      viper.GetBool("redis.enabled"),
		CacheTTL:          viper.GetDuration("cache.ttl"),
		JWTSecret:         viper.GetString("jwt.secret"),
		JWTExpiration:     time.Duration(viper.GetInt64("jwt.expiration")) * time.Millisecond,
		JWTStrictSecret:   viper.GetBool("jwt.strict_secret"),
		CompounderEnabled: viper.GetBool("compounder.enabled"),
		CompounderPeriod:  time.Duration(viper.GetInt64("compounder.period")) * time.Millisecond,
		AllowedOrigins:    splitList(viper.GetStringSlice("cors.allowed_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWTStrictSecret && len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("jwt.secret must be at least %d bytes", MinSecretLength)
	}
	if c.JWTExpiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}
	if c.CompounderEnabled && c.CompounderPeriod < time.Second {
		return errors.New("compounder.period must be at least 1000 ms")
	}
	return nil
}

// ConfigureLogger applies the level and format to the standard logrus logger.
func (c *Config) ConfigureLogger() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// splitList accepts both list values and a single comma separated env string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
