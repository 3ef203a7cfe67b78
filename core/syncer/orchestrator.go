package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tenant-sync/core/connectivity"
	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/logger"
	"tenant-sync/core/queue"
	"tenant-sync/core/scope"
	"tenant-sync/core/tombstone"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadMode selects how uploadOnly writes to the remote store.
type UploadMode string

const (
	// ModeMerge merges local with remote and writes the result to both.
	ModeMerge UploadMode = "merge"
	// ModeAuthoritative overwrites remote with local minus tombstones.
	ModeAuthoritative UploadMode = "authoritative"
)

// ParseUploadMode parses a mode name; empty means ModeMerge.
func ParseUploadMode(s string) (UploadMode, error) {
	switch UploadMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMerge:
		return ModeMerge, nil
	case ModeAuthoritative:
		return ModeAuthoritative, nil
	}
	return "", newError(CodeValidation, fmt.Sprintf("unknown upload mode %q", s), nil)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	// Local is the device-local store. Required.
	Local docstore.Store
	// Remote is the shared remote store. Required.
	Remote docstore.Store
	// Monitor defaults to a monitor over Remote.
	Monitor *connectivity.Monitor
	// Domain defaults to a StoreDomain over Local.
	Domain Domain
	// Confirmer defaults to Deny.
	Confirmer Confirmer
	Logger    *zap.Logger
}

// Orchestrator coordinates every sync operation of one device.
type Orchestrator struct {
	deviceID string
	kinds    []entity.Kind
	local    docstore.Store
	remote   docstore.Store
	monitor  *connectivity.Monitor
	registry *tombstone.Registry
	queue    *queue.Queue
	domain   Domain
	confirm  Confirmer
	log      *zap.Logger
	now      func() time.Time

	guard  *Guard
	status statusTracker
	bg     sync.WaitGroup
}

// New wires an orchestrator and subscribes it to connectivity changes.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Local == nil || deps.Remote == nil {
		return nil, fmt.Errorf("local and remote stores are required")
	}
	names := cfg.Kinds
	if len(names) == 0 {
		names = []string{entity.Users.Name, entity.Tenants.Name, entity.Subscriptions.Name}
	}
	kinds, err := entity.LookupAll(names)
	if err != nil {
		return nil, err
	}

	log := logger.OrNop(deps.Logger)
	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	log = log.With(zap.String("device_id", deviceID))

	o := &Orchestrator{
		deviceID: deviceID,
		kinds:    kinds,
		local:    deps.Local,
		remote:   deps.Remote,
		monitor:  deps.Monitor,
		registry: tombstone.NewRegistry(deps.Local, cfg.ProtectedIdentities, log),
		queue:    queue.New(deps.Local, cfg.QueueCapacity, cfg.QueueBucket, log),
		domain:   deps.Domain,
		confirm:  deps.Confirmer,
		log:      log,
		now:      time.Now,
		guard:    NewGuard(cfg.LockFile),
	}
	if o.monitor == nil {
		o.monitor = connectivity.NewMonitor(deps.Remote, cfg.ProbeTimeout, log)
	}
	if o.domain == nil {
		o.domain = NewStoreDomain(deps.Local)
	}
	if o.confirm == nil {
		o.confirm = Deny
	}
	o.monitor.Subscribe(o.onConnectivity)

	if n, err := o.queue.Len(context.Background()); err == nil {
		o.status.setPending(n)
	}
	return o, nil
}

// Monitor returns the connectivity monitor driving this orchestrator.
func (o *Orchestrator) Monitor() *connectivity.Monitor {
	return o.monitor
}

// Kinds returns the replicated kinds in sync order.
func (o *Orchestrator) Kinds() []entity.Kind {
	return append([]entity.Kind(nil), o.kinds...)
}

// Wait blocks until background flushes started by connectivity events finish.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}

// Status returns the current sync status.
func (o *Orchestrator) Status(ctx context.Context) Status {
	if n, err := o.queue.Len(ctx); err == nil {
		o.status.setPending(n)
	} else {
		o.log.Warn("Failed to read pending queue", zap.Error(err))
	}
	st := o.status.snapshot()
	st.DeviceID = o.deviceID
	st.InProgress = o.guard.Held()
	st.Online = o.monitor.Online()
	return st
}

// CheckHealth runs an on-demand connectivity check.
func (o *Orchestrator) CheckHealth(ctx context.Context) bool {
	return o.monitor.CheckHealth(ctx)
}

// FullSync merge-syncs every kind, publishes tenant documents and clears the pending queue.
func (o *Orchestrator) FullSync(ctx context.Context) Result {
	return o.run(ctx, OpFullSync, "", true, o.fullSync)
}

// UploadOnly pushes local data to the remote store. Authoritative mode
// overwrites remote and must be confirmed.
func (o *Orchestrator) UploadOnly(ctx context.Context, mode UploadMode) Result {
	if mode == "" {
		mode = ModeMerge
	}
	switch mode {
	case ModeMerge:
		return o.run(ctx, OpUpload, string(mode), true, func(ctx context.Context, res *Result) error {
			for _, kind := range o.kinds {
				if _, err := o.mergeKind(ctx, kind, res); err != nil {
					return err
				}
			}
			return nil
		})
	case ModeAuthoritative:
		prompt := "Overwrite the remote copy with this device's data? Unsynced edits made on other devices will be lost."
		if !o.confirm.Confirm(ctx, prompt) {
			return o.refused(OpUpload, prompt)
		}
		return o.run(ctx, OpUpload, string(mode), true, func(ctx context.Context, res *Result) error {
			for _, kind := range o.kinds {
				if err := o.pushKind(ctx, kind, res); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		res := Result{Operation: OpUpload}
		_, err := ParseUploadMode(string(mode))
		res.fail(err)
		return res
	}
}

// DownloadOnly pulls the remote entities visible to caller and merges them
// into the local store without writing to the remote store.
func (o *Orchestrator) DownloadOnly(ctx context.Context, caller scope.Scope) Result {
	if err := caller.Validate(); err != nil {
		res := Result{Operation: OpDownload}
		res.fail(err)
		return res
	}
	return o.run(ctx, OpDownload, "", true, func(ctx context.Context, res *Result) error {
		for _, kind := range o.kinds {
			if err := o.pullKind(ctx, kind, caller, res); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteEntity tombstones an entity, removes it locally and uploads the
// deletion. Authoritative uploads must be confirmed.
func (o *Orchestrator) DeleteEntity(ctx context.Context, kindName, identity string, authoritative bool) Result {
	kind, err := o.kind(kindName)
	if err != nil {
		res := Result{Operation: OpDelete}
		res.fail(err)
		return res
	}
	mode := ModeMerge
	if authoritative {
		mode = ModeAuthoritative
		prompt := fmt.Sprintf("Delete %s %q and overwrite the remote copy? Unsynced edits made on other devices will be lost.", kind.Name, identity)
		if !o.confirm.Confirm(ctx, prompt) {
			return o.refused(OpDelete, prompt)
		}
	}

	res := o.run(ctx, OpDelete, string(mode), true, func(ctx context.Context, res *Result) error {
		if err := o.removeLocally(ctx, kind, identity); err != nil {
			return err
		}
		if !o.monitor.CheckHealth(ctx) {
			return newError(CodeConnectivity, "deleted locally", docstore.ErrUnavailable)
		}
		if mode == ModeAuthoritative {
			return o.pushKind(ctx, kind, res)
		}
		_, err := o.mergeKind(ctx, kind, res)
		return err
	}, skipHealthCheck())
	return res
}

// PurgeTombstones clears the tombstone set of a kind locally and remotely and
// publishes a purge marker so every device drops its copy, letting previously
// deleted identities return. It must be confirmed and needs the remote store.
func (o *Orchestrator) PurgeTombstones(ctx context.Context, kindName string) Result {
	kind, err := o.kind(kindName)
	if err != nil {
		res := Result{Operation: OpPurge}
		res.fail(err)
		return res
	}
	prompt := fmt.Sprintf("Purge every %s tombstone? Deleted %s may reappear on the next sync.", kind.Name, kind.Name)
	if !o.confirm.Confirm(ctx, prompt) {
		return o.refused(OpPurge, prompt)
	}
	return o.run(ctx, OpPurge, "", false, func(ctx context.Context, res *Result) error {
		at := o.now().UTC()
		marker, err := tombstone.MarkerDocument(at)
		if err != nil {
			return err
		}
		empty, err := tombstone.Set(nil).Document()
		if err != nil {
			return err
		}
		// Other devices drop the tombstones they learned before the marker.
		if err := o.remote.SetMany(ctx, map[docstore.Key]docstore.Document{
			tombstone.RemoteKey(kind): empty,
			tombstone.PurgeKey(kind):  marker,
		}); err != nil {
			return err
		}
		return localErr("failed to purge local tombstones", o.registry.Purge(ctx, kind, at))
	})
}

// Tombstones lists the locally known deleted identities of a kind.
func (o *Orchestrator) Tombstones(ctx context.Context, kindName string) ([]string, error) {
	kind, err := o.kind(kindName)
	if err != nil {
		return nil, classify(err)
	}
	set, err := o.registry.Load(ctx, kind)
	if err != nil {
		return nil, localErr("failed to load tombstones", err)
	}
	return set.Slice(), nil
}

// Flush replays the pending queue with a full sync when it is non-empty.
func (o *Orchestrator) Flush(ctx context.Context) Result {
	var synced Result
	ran, err := o.queue.Flush(ctx, func(ctx context.Context, _ []queue.Entry) error {
		synced = o.FullSync(ctx)
		if !synced.Success {
			if synced.err != nil {
				return synced.err
			}
			return newError(CodeInProgress, "sync already in progress", nil)
		}
		return nil
	})
	if !ran {
		res := Result{Operation: OpFlush, Success: err == nil}
		if err != nil {
			res.fail(localErr("failed to read pending queue", err))
		}
		return res
	}
	synced.Operation = OpFlush
	if err != nil && synced.Success {
		synced.fail(localErr("failed to clear pending queue", err))
	}
	o.refreshPending(ctx)
	return synced
}

func (o *Orchestrator) onConnectivity(ev connectivity.Event) {
	if !ev.Online || o.guard.Held() {
		return
	}
	ctx := context.Background()
	pending, err := o.queue.Len(ctx)
	if err != nil {
		o.log.Warn("Failed to read pending queue", zap.Error(err))
		return
	}
	if pending == 0 {
		return
	}
	// Listeners run inside the monitor's probe, which a sync would wait on.
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		res := o.Flush(ctx)
		if !res.Success {
			o.log.Warn("Pending sync replay failed", zap.String("code", string(res.Code)), zap.String("error", res.Error))
		}
	}()
}

type runOption func(*runOptions)

type runOptions struct {
	skipHealth bool
}

// skipHealthCheck lets the operation do local work before checking connectivity itself.
func skipHealthCheck() runOption {
	return func(o *runOptions) { o.skipHealth = true }
}

// run executes fn under the single-flight guard and turns its outcome into a Result.
// Queueable operations that fail for connectivity are deferred to the pending queue.
func (o *Orchestrator) run(ctx context.Context, op, mode string, queueable bool, fn func(context.Context, *Result) error, opts ...runOption) Result {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	res := Result{Operation: op}
	acquired, lockErr := o.guard.acquire()
	if lockErr != nil {
		res.fail(localErr("failed to acquire sync lock", lockErr))
		o.log.Error("Sync lock unavailable", zap.String("operation", op), zap.Error(lockErr))
		return res
	}
	if !acquired {
		res.Skipped = true
		res.Code = CodeInProgress
		res.Error = "sync already in progress"
		o.log.Debug("Sync skipped, another one is running", zap.String("operation", op))
		return res
	}
	defer o.guard.Release()

	start := o.now()
	log := o.log.With(zap.String("operation", op))
	if mode != "" {
		log = log.With(zap.String("mode", mode))
	}
	log.Info("Sync started")

	var err error
	if !ro.skipHealth && !o.monitor.CheckHealth(ctx) {
		err = newError(CodeConnectivity, offlineMessage, docstore.ErrUnavailable)
	} else {
		err = fn(ctx, &res)
	}

	if err == nil {
		res.Success = true
		o.status.succeeded(o.now().UTC())
		log.Info("Sync completed",
			zap.Duration("elapsed", o.now().Sub(start)),
			zap.Int("entities", res.Report.Total),
			zap.Int("local_wins", res.Report.LocalWins),
			zap.Int("remote_wins", res.Report.RemoteWins),
			zap.Int("tombstoned", res.Report.Tombstoned),
			zap.Int("invalid", res.Report.Invalid),
		)
		o.refreshPending(ctx)
		return res
	}

	res.fail(err)
	if res.Code == CodeConnectivity && queueable {
		if added, qerr := o.queue.Enqueue(ctx, op, mode); qerr != nil {
			log.Error("Failed to queue sync", zap.Error(qerr))
		} else {
			res.Queued = true
			if !added {
				log.Debug("Sync already queued for this window")
			}
		}
	}
	o.status.failed(res.Error)
	o.refreshPending(ctx)

	if res.Code == CodeConnectivity {
		log.Warn("Sync deferred", zap.Bool("queued", res.Queued), zap.Error(err))
	} else {
		log.Error("Sync failed", zap.String("code", string(res.Code)), zap.Error(err))
	}
	return res
}

func (o *Orchestrator) refused(op, prompt string) Result {
	o.log.Info("Operation not confirmed", zap.String("operation", op))
	res := Result{Operation: op}
	res.fail(newError(CodeNotConfirmed, "operator did not confirm: "+prompt, nil))
	return res
}

func (o *Orchestrator) refreshPending(ctx context.Context) {
	if n, err := o.queue.Len(ctx); err == nil {
		o.status.setPending(n)
	}
}

func (o *Orchestrator) kind(name string) (entity.Kind, error) {
	k, err := entity.Lookup(name)
	if err != nil {
		return entity.Kind{}, err
	}
	for _, configured := range o.kinds {
		if configured.Name == k.Name {
			return k, nil
		}
	}
	return entity.Kind{}, fmt.Errorf("%w: %s is not replicated", entity.ErrUnknownKind, k.Name)
}

func (o *Orchestrator) hasKind(name string) bool {
	for _, k := range o.kinds {
		if k.Name == name {
			return true
		}
	}
	return false
}
