// Package connectivity watches whether the remote store can be reached.
//
// CheckHealth issues a Ping against the remote backend (a bucket HEAD, a redis
// PING or a postgres round trip) bounded by the probe timeout. Run performs a
// check shortly after start and then on a fixed interval. Subscribers are
// told about every check, with Changed set on online/offline transitions,
// which is what the orchestrator uses to replay queued syncs.
//
// # Usage
//
//	mon := connectivity.NewMonitor(remote, 5*time.Second, log)
//	mon.Subscribe(func(ev connectivity.Event) { ... })
//	go mon.Run(ctx, 3*time.Second, 5*time.Minute)
package connectivity
