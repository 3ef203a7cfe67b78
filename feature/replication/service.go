package replication

import (
	"context"

	"tenant-sync/core/scope"
	"tenant-sync/core/syncer"

	"go.uber.org/zap"
)

type confirmKey struct{}

// WithConfirmation marks ctx as carrying the operator's approval.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// RequestConfirmer approves a destructive action when the request context
// carries the operator's approval.
var RequestConfirmer = syncer.ConfirmFunc(func(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
})

// Service applies caller scope rules on top of the orchestrator.
type Service struct {
	orch   *syncer.Orchestrator
	logger *zap.Logger
}

// NewService creates a new replication service.
func NewService(orch *syncer.Orchestrator, logger *zap.Logger) *Service {
	return &Service{orch: orch, logger: logger}
}

func (s *Service) Status(ctx context.Context) syncer.Status {
	return s.orch.Status(ctx)
}

// Health runs a connectivity check and returns the refreshed status.
func (s *Service) Health(ctx context.Context) syncer.Status {
	s.orch.CheckHealth(ctx)
	return s.orch.Status(ctx)
}

func (s *Service) FullSync(ctx context.Context, caller scope.Scope) syncer.Result {
	if res, ok := requireValid(syncer.OpFullSync, caller); !ok {
		return res
	}
	return s.orch.FullSync(ctx)
}

func (s *Service) Upload(ctx context.Context, caller scope.Scope, mode string) syncer.Result {
	m, err := syncer.ParseUploadMode(mode)
	if err != nil {
		return syncer.Result{Operation: syncer.OpUpload, Code: syncer.CodeValidation, Error: err.Error()}
	}
	if m == syncer.ModeAuthoritative {
		if res, ok := requireUnrestricted(syncer.OpUpload, caller); !ok {
			return res
		}
	} else if res, ok := requireValid(syncer.OpUpload, caller); !ok {
		return res
	}
	return s.orch.UploadOnly(ctx, m)
}

func (s *Service) Download(ctx context.Context, caller scope.Scope) syncer.Result {
	return s.orch.DownloadOnly(ctx, caller)
}

func (s *Service) ShareCode(ctx context.Context, caller scope.Scope, code string) syncer.Result {
	if res, ok := requireValid(syncer.OpShareCode, caller); !ok {
		return res
	}
	return s.orch.SyncByShareCode(ctx, code)
}

func (s *Service) DeleteEntity(ctx context.Context, caller scope.Scope, kind, identity string, authoritative bool) syncer.Result {
	if res, ok := requireUnrestricted(syncer.OpDelete, caller); !ok {
		return res
	}
	return s.orch.DeleteEntity(ctx, kind, identity, authoritative)
}

// Tombstones lists deleted identities. They span every tenant, so only an
// unrestricted caller may read them.
func (s *Service) Tombstones(ctx context.Context, caller scope.Scope, kind string) ([]string, error) {
	if !caller.Unrestricted {
		return nil, &syncer.Error{Code: syncer.CodePermissionDenied, Message: "listing tombstones requires an unrestricted caller"}
	}
	return s.orch.Tombstones(ctx, kind)
}

func (s *Service) PurgeTombstones(ctx context.Context, caller scope.Scope, kind string) syncer.Result {
	if res, ok := requireUnrestricted(syncer.OpPurge, caller); !ok {
		return res
	}
	return s.orch.PurgeTombstones(ctx, kind)
}

func requireValid(op string, caller scope.Scope) (syncer.Result, bool) {
	if err := caller.Validate(); err != nil {
		return denied(op, err.Error()), false
	}
	return syncer.Result{}, true
}

func requireUnrestricted(op string, caller scope.Scope) (syncer.Result, bool) {
	if !caller.Unrestricted {
		return denied(op, "operation requires an unrestricted caller"), false
	}
	return syncer.Result{}, true
}

func denied(op, msg string) syncer.Result {
	return syncer.Result{Operation: op, Code: syncer.CodePermissionDenied, Error: msg}
}
