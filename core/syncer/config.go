package syncer

import "time"

// Config holds replication engine settings.
type Config struct {
	// DeviceID identifies this replica in logs. Generated when empty.
	DeviceID string `mapstructure:"device_id" default:""`
	// HealthInterval is the period between connectivity checks.
	HealthInterval time.Duration `mapstructure:"health_interval" default:"5m"`
	// HealthInitialDelay is the wait before the first connectivity check.
	HealthInitialDelay time.Duration `mapstructure:"health_initial_delay" default:"3s"`
	// ProbeTimeout bounds a single connectivity check.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" default:"5s"`
	// ReadyAttempts and ReadyBackoff bound the startup readiness poll.
	ReadyAttempts int           `mapstructure:"ready_attempts" default:"5"`
	ReadyBackoff  time.Duration `mapstructure:"ready_backoff" default:"2s"`
	// QueueCapacity is the number of pending sync entries kept.
	QueueCapacity int `mapstructure:"queue_capacity" default:"50"`
	// QueueBucket is the window within which repeated entries collapse.
	QueueBucket time.Duration `mapstructure:"queue_bucket" default:"1m"`
	// ProtectedIdentities may never be deleted (e.g. the platform administrator).
	ProtectedIdentities []string `mapstructure:"protected_identities" default:""`
	// LockFile excludes concurrent syncs across processes sharing the local
	// store. Empty disables the cross-process lock.
	LockFile string `mapstructure:"lock_file" default:"replica.sync.lock"`
	// Kinds lists the replicated entity kinds, in sync order.
	Kinds []string `mapstructure:"kinds" default:"users,tenants,subscriptions"`
}
