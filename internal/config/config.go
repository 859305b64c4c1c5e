package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by the loader. Environment values
// always win over the YAML config file.
const (
	EnvConfigPath      = "CONFIG_PATH"
	EnvDBConnection    = "DB_CONNECTION"
	EnvJWTSecret       = "JWT_SECRET"
	EnvJWTExpiry       = "JWT_EXPIRY"
	EnvSealerKey       = "SEALER_KEY"
	EnvUpstreamTimeout = "UPSTREAM_TIMEOUT"
	EnvRateLimit       = "RATE_LIMIT"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvAdminUsername   = "ADMIN_USERNAME"
	EnvAdminPassword   = "ADMIN_PASSWORD"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// ErrMissingSealerKey indicates no sealer key is configured.
var ErrMissingSealerKey = errors.New("missing sealer key (set `sealer.key` in config file or SEALER_KEY)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// GatewayConfig holds proxy behavior settings.
type GatewayConfig struct {
	UpstreamTimeout time.Duration `yaml:"upstream-timeout"`
	RateLimit       int           `yaml:"rate-limit"`
}

// RedisConfig holds the optional redis rate-limit backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// AdminConfig holds the seed administrator account settings.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// fileConfig maps the full YAML config file.
type fileConfig struct {
	DatabaseDSN string `yaml:"database-dsn"`
	Database    struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT    JWTConfig `yaml:"jwt"`
	Sealer struct {
		Key string `yaml:"key"`
	} `yaml:"sealer"`
	Gateway GatewayConfig `yaml:"gateway"`
	Redis   RedisConfig   `yaml:"redis"`
	Admin   AdminConfig   `yaml:"admin"`
}

// readFileConfig parses the YAML config file, tolerating absence.
func readFileConfig(configPath string) (fileConfig, error) {
	var cfg fileConfig
	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("parse config file: %w", errUnmarshal)
	}
	return cfg, nil
}

// LoadDatabaseDSN reads the database DSN from env or the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}
	cfg, errFile := readFileConfig(configPath)
	if errFile != nil {
		return "", errFile
	}
	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file and env.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	result := JWTConfig{Expiry: defaultJWTExpiry}

	if cfg, errFile := readFileConfig(configPath); errFile == nil {
		if cfg.JWT.Secret != "" {
			result.Secret = cfg.JWT.Secret
		}
		if cfg.JWT.Expiry > 0 {
			result.Expiry = cfg.JWT.Expiry
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// LoadSealerKey reads the base64 sealer key from env or the config file.
func LoadSealerKey(configPath string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvSealerKey)); key != "" {
		return key, nil
	}
	cfg, errFile := readFileConfig(configPath)
	if errFile != nil {
		return "", errFile
	}
	if key := strings.TrimSpace(cfg.Sealer.Key); key != "" {
		return key, nil
	}
	return "", ErrMissingSealerKey
}

// defaultUpstreamTimeout bounds the outbound proxied call. The gateway
// makes a single attempt; a hung upstream must not pin a worker forever.
const defaultUpstreamTimeout = 60 * time.Second

// LoadGatewayConfig loads proxy settings with defaults applied.
func LoadGatewayConfig(configPath string) (GatewayConfig, error) {
	result := GatewayConfig{UpstreamTimeout: defaultUpstreamTimeout}

	if cfg, errFile := readFileConfig(configPath); errFile == nil {
		if cfg.Gateway.UpstreamTimeout > 0 {
			result.UpstreamTimeout = cfg.Gateway.UpstreamTimeout
		}
		if cfg.Gateway.RateLimit > 0 {
			result.RateLimit = cfg.Gateway.RateLimit
		}
	}

	if timeoutRaw := strings.TrimSpace(os.Getenv(EnvUpstreamTimeout)); timeoutRaw != "" {
		if timeout, errParse := time.ParseDuration(timeoutRaw); errParse == nil && timeout > 0 {
			result.UpstreamTimeout = timeout
		}
	}
	if limitRaw := strings.TrimSpace(os.Getenv(EnvRateLimit)); limitRaw != "" {
		if limit, errParse := strconv.Atoi(limitRaw); errParse == nil && limit >= 0 {
			result.RateLimit = limit
		}
	}

	if result.UpstreamTimeout <= 0 {
		result.UpstreamTimeout = defaultUpstreamTimeout
	}
	return result, nil
}

// LoadRedisConfig loads redis rate-limit backend settings. An empty
// Addr disables the redis backend.
func LoadRedisConfig(configPath string) (RedisConfig, error) {
	var result RedisConfig
	if cfg, errFile := readFileConfig(configPath); errFile == nil {
		result = cfg.Redis
	}
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		result.Addr = addr
	}
	if password := strings.TrimSpace(os.Getenv(EnvRedisPassword)); password != "" {
		result.Password = password
	}
	if result.Prefix == "" {
		result.Prefix = "mcpflow"
	}
	return result, nil
}

// LoadAdminConfig loads the seed administrator settings. Empty values
// mean no admin is seeded at migration time.
func LoadAdminConfig(configPath string) (AdminConfig, error) {
	var result AdminConfig
	if cfg, errFile := readFileConfig(configPath); errFile == nil {
		result = cfg.Admin
	}
	if username := strings.TrimSpace(os.Getenv(EnvAdminUsername)); username != "" {
		result.Username = username
	}
	if password := strings.TrimSpace(os.Getenv(EnvAdminPassword)); password != "" {
		result.Password = password
	}
	return result, nil
}
