package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"tenant-sync/core/config"
	"tenant-sync/core/connectivity"
	"tenant-sync/core/database"
	"tenant-sync/core/docstore"
	"tenant-sync/core/logger"
	"tenant-sync/core/syncer"

	"go.uber.org/zap"
	"golang.org/x/term"
	"gorm.io/gorm"
)

var (
	yesConfirm bool
	jsonOutput bool
)

// agent bundles the stores and orchestrator of this device.
type agent struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	remote *docstore.Remote
	orch   *syncer.Orchestrator
}

// openAgent loads configuration and wires the local store, the remote backend
// and the orchestrator. Nothing is dialed yet.
func openAgent(ctx context.Context, confirm syncer.Confirmer) (*agent, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	local, err := docstore.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare local store: %w", err)
	}

	remote, err := docstore.OpenRemote(ctx, cfg.Remote, cfg.Storage)
	if err != nil {
		return nil, err
	}
	logg = logg.With(zap.String("remote", remote.Backend))

	monitor := connectivity.NewMonitor(remote.Store, cfg.Sync.ProbeTimeout, logg)
	orch, err := syncer.New(cfg.Sync, syncer.Deps{
		Local:     local,
		Remote:    remote.Store,
		Monitor:   monitor,
		Confirmer: confirm,
		Logger:    logg,
	})
	if err != nil {
		_ = remote.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return &agent{cfg: cfg, log: logg, db: db, remote: remote, orch: orch}, nil
}

// connect waits for the remote store and provisions it.
func (a *agent) connect(ctx context.Context) error {
	if err := a.orch.Monitor().WaitReady(ctx, a.cfg.Sync.ReadyAttempts, a.cfg.Sync.ReadyBackoff); err != nil {
		return err
	}
	if err := a.remote.Prepare(ctx); err != nil {
		return fmt.Errorf("failed to prepare remote store: %w", err)
	}
	return nil
}

// connectOrWarn is used by one-shot commands: an unreachable remote store is
// not fatal because queueable work is deferred.
func (a *agent) connectOrWarn(ctx context.Context) {
	if err := a.connect(ctx); err != nil {
		a.log.Warn("Remote store unavailable, working offline", zap.Error(err))
	}
}

func (a *agent) Close() {
	a.orch.Wait()
	if err := a.remote.Close(); err != nil {
		a.log.Warn("Failed to close remote store", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// cliConfirmer asks on stdin unless --yes was given.
var cliConfirmer = syncer.ConfirmFunc(func(_ context.Context, prompt string) bool {
	return confirmDestructiveAction(prompt)
})

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(prompt string) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("\n⚠️  %s\nstdin is not a terminal; rerun with --yes to confirm.\n", prompt)
		return false
	}

	fmt.Printf("\n⚠️  %s\nType 'yes' to confirm: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}

// report prints a result and turns a failure into a command error. Work that
// was queued for later is not a failure.
func report(l *zap.Logger, res syncer.Result) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		l.Info("Sync result",
			zap.String("operation", res.Operation),
			zap.Bool("success", res.Success),
			zap.Bool("queued", res.Queued),
			zap.Bool("skipped", res.Skipped),
			zap.String("code", string(res.Code)),
			zap.Int("entities", res.Report.Total),
			zap.Int("local_only", res.Report.LocalOnly),
			zap.Int("remote_only", res.Report.RemoteOnly),
			zap.Int("local_wins", res.Report.LocalWins),
			zap.Int("remote_wins", res.Report.RemoteWins),
			zap.Int("tombstoned", res.Report.Tombstoned),
			zap.Int("invalid", res.Report.Invalid),
		)
		for kind, r := range res.Kinds {
			l.Debug("Kind report", zap.String("kind", kind), zap.Int("entities", r.Total), zap.Int("invalid", r.Invalid))
		}
	}

	switch {
	case res.Success:
		return nil
	case res.Queued:
		l.Warn("Remote store unreachable, operation queued for the next sync")
		return nil
	case res.Code == syncer.CodeNotConfirmed:
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	default:
		return fmt.Errorf("%s: %s", res.Code, res.Error)
	}
}
