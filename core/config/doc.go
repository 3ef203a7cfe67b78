// Package config provides configuration management for the replication agent.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Default values live next to each field in `default:` struct
// tags and are registered by reflection, so every key is also reachable through
// AutomaticEnv (SECTION_KEY).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, JWT secret)
//   - Database: on-device local store (sqlite by default, mysql optional)
//   - Remote: shared remote store backend (s3, redis, postgres, memory)
//   - Storage: S3/MinIO credentials and bucket settings for the s3 backend
//   - Sync: health probe cadence, pending queue bounds, protected identities
//   - Log: Logging level and format
//
// LoadConfig validates the result: unknown backends, drivers or entity kinds and
// a non-positive queue capacity or probe timeout are reported together.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.HealthInterval)
package config
