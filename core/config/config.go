package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"tenant-sync/core/database"
	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/logger"
	"tenant-sync/core/server"
	"tenant-sync/core/storage"
	"tenant-sync/core/syncer"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the S3/MinIO remote backend.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the on-device local store.
	Database database.Config `mapstructure:"database"`
	// Remote selects and configures the shared remote store backend.
	Remote docstore.RemoteConfig `mapstructure:"remote"`
	// Sync holds replication engine settings (intervals, queue bounds, protected identities).
	Sync syncer.Config `mapstructure:"sync"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_HEALTH_INTERVAL -> sync.health_interval)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the agent cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Remote.Backend) {
	case "", "s3", "redis", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("remote.backend: unsupported backend %q", c.Remote.Backend))
	}

	switch c.Database.Driver {
	case "", "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}

	if _, err := entity.LookupAll(c.Sync.Kinds); err != nil {
		errs = append(errs, fmt.Errorf("sync.kinds: %w", err))
	}
	if c.Sync.QueueCapacity <= 0 {
		errs = append(errs, fmt.Errorf("sync.queue_capacity: must be positive, got %d", c.Sync.QueueCapacity))
	}
	if c.Sync.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("sync.probe_timeout: must be positive, got %s", c.Sync.ProbeTimeout))
	}

	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
