package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fieldz/fieldz_backend/pkg/constants"
)

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. FIELDZ_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" && os.Getenv(constants.EnvPrefix+"_DATABASE_PATH") == "" {
			return nil, fmt.Errorf("config file not found in %q and no database env set", configPath)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key viper should know about, so env overrides
// work even when the key is absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fieldz")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 20)
	v.SetDefault("server.rate_limit.expiration_seconds", 30)

	v.SetDefault("authentication.session_store", "redis")
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.local_key_hex", "")
	v.SetDefault("authentication.paseto.issuer", "fieldz")
	v.SetDefault("authentication.paseto.audience", "fieldz-clients")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 30)

	v.SetDefault("authorization.policy_path", "")
	v.SetDefault("authorization.policy_store", "")
	v.SetDefault("authorization.enable_audit", false)

	v.SetDefault("scheduling.timezone", "Africa/Algiers")
	v.SetDefault("scheduling.max_range_days", 731)
	v.SetDefault("scheduling.lock_backend", "redis")
	v.SetDefault("scheduling.lock_ttl_seconds", 30)
	v.SetDefault("scheduling.lock_wait_millis", 5000)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "fieldz")

	v.SetDefault("observability.service_name", "fieldz_backend")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)
}
