// Package loader mounts optional HTTP features onto the agent's router.
//
// A Feature names itself, reports whether it has what it needs to run,
// and registers its routes in Load. The Manager keeps features in
// registration order; LoadAll skips disabled ones and returns the first
// Load error wrapped with the feature name.
//
// The start command registers the replication feature, which is enabled
// whenever an orchestrator was built and serves the sync routes:
//
//	mgr := loader.NewManager()
//	mgr.Register(replication.NewFeature(orch, logg))
//	if err := mgr.LoadAll(app); err != nil {
//	    return err
//	}
package loader
