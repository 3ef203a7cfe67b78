// Package logger builds the zap loggers shared by the sync agent.
//
// New turns a Config into a logger. Level "debug" selects zap's development
// preset; any other level runs the production preset at that threshold.
// Format picks json output or a colored console encoder for terminals.
//
// Components that accept an optional logger pass it through OrNop, so the
// orchestrator, queue, tombstone registry and connectivity monitor can be
// built in tests without one.
//
// HTTP handlers call WithRayID to tag entries with the ray_id local set by
// the request middleware:
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Agent started", zap.String("device", id))
//
//	logger.WithRayID(log, c).Warn("Sync rejected", zap.Error(err))
package logger
