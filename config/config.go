package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling and env variable binding.
type Config struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	// Redis backs the login guard and rate counters. When RedisAddr is empty
	// the service falls back to per-instance in-memory counters.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Signing keys: PEM material directly in the environment (escaped \n
	// accepted) or file paths. Material takes precedence over paths.
	JWTPrivateKey     string `mapstructure:"JWT_PRIVATE_KEY"`
	JWTPublicKey      string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTPrivateKeyPath string `mapstructure:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string `mapstructure:"JWT_PUBLIC_KEY_PATH"`

	AccessTokenLifetime  int `mapstructure:"ACCESS_TOKEN_LIFETIME"`
	RefreshTokenLifetime int `mapstructure:"REFRESH_TOKEN_LIFETIME"`

	DeviceCodeLength   int `mapstructure:"DEVICE_CODE_LENGTH"`
	DeviceCodeTTL      int `mapstructure:"DEVICE_CODE_TTL"`
	DeviceCodesPerHour int `mapstructure:"DEVICE_CODES_PER_HOUR"`

	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	LoginLockWindow  int `mapstructure:"LOGIN_LOCK_WINDOW"`

	WordPressBaseURL string `mapstructure:"WORDPRESS_BASE_URL"`
	WordPressAPIKey  string `mapstructure:"WORDPRESS_API_KEY"`
	UpstreamTimeout  int    `mapstructure:"UPSTREAM_TIMEOUT"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/miracole-bridge/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "4000")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/miracole_bridge")
	v.SetDefault("MONGO_DB_NAME", "miracole_bridge")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_PRIVATE_KEY_PATH", "./keys/jwt_private.pem")
	v.SetDefault("JWT_PUBLIC_KEY_PATH", "./keys/jwt_public.pem")
	v.SetDefault("ACCESS_TOKEN_LIFETIME", 3600)     // 1 hour
	v.SetDefault("REFRESH_TOKEN_LIFETIME", 7776000) // 90 days
	v.SetDefault("DEVICE_CODE_LENGTH", 8)
	v.SetDefault("DEVICE_CODE_TTL", 900) // 15 minutes
	v.SetDefault("DEVICE_CODES_PER_HOUR", 7)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_LOCK_WINDOW", 1800) // 30 minutes
	v.SetDefault("WORDPRESS_BASE_URL", "https://miracoleplus.com")
	v.SetDefault("UPSTREAM_TIMEOUT", 5)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env vars and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
