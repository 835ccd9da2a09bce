package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime knob the service reads from the environment.
// Values come from real env vars or a .env file loaded before Load is called.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBDriver    string `mapstructure:"DB_DRIVER"` // postgres, mysql, sqlite
	HTTPPort    int    `mapstructure:"HTTP_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn  time.Duration `mapstructure:"JWT_EXPIRES_IN"`
	LoginTokenTTL time.Duration `mapstructure:"LOGIN_TOKEN_TTL"`
	ResetTokenTTL time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	HashRounds    int           `mapstructure:"HASH_ROUNDS"`

	SuperAdminEmail    string `mapstructure:"SUPERADMIN_EMAIL"`
	SuperAdminPassword string `mapstructure:"SUPERADMIN_PASSWORD"`
	PermissionSeedFile string `mapstructure:"PERMISSION_SEED_FILE"`
}

func Load() (*Config, error) {
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("HTTP_PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_EXPIRES_IN", "24h")
	viper.SetDefault("LOGIN_TOKEN_TTL", "2m")
	viper.SetDefault("RESET_TOKEN_TTL", "5m")
	viper.SetDefault("HASH_ROUNDS", 10)
	viper.SetDefault("SUPERADMIN_EMAIL", "superadmin@auths.local")
	viper.SetDefault("SUPERADMIN_PASSWORD", "superadmin")
	viper.SetDefault("PERMISSION_SEED_FILE", "permission.seed.json")

	viper.AutomaticEnv()
	// AutomaticEnv alone does not surface env vars through Unmarshal,
	// so bind each known key explicitly.
	for _, key := range []string{
		"DATABASE_URL", "DB_DRIVER", "HTTP_PORT", "LOG_LEVEL",
		"JWT_SECRET", "JWT_EXPIRES_IN", "LOGIN_TOKEN_TTL", "RESET_TOKEN_TTL",
		"HASH_ROUNDS", "SUPERADMIN_EMAIL", "SUPERADMIN_PASSWORD", "PERMISSION_SEED_FILE",
	} {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
