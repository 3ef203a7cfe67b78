package replication

import (
	"errors"

	"tenant-sync/core/logger"
	"tenant-sync/core/middleware/auth"
	"tenant-sync/core/syncer"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for replication.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the replication routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Get("/health", h.HandleHealth)
	group.Post("/full", h.HandleFullSync)
	group.Post("/upload", h.HandleUpload)
	group.Post("/download", h.HandleDownload)
	group.Post("/share/:code", h.HandleShareCode)
	group.Delete("/entities/:kind/:identity", h.HandleDeleteEntity)
	group.Get("/tombstones/:kind", h.HandleListTombstones)
	group.Delete("/tombstones/:kind", h.HandlePurgeTombstones)
}

// HandleStatus returns the current sync status.
// @Summary Sync Status
// @Description Returns whether a sync is running, the last successful sync, the last error, the pending queue length and connectivity.
// @Tags sync
// @Produce json
// @Success 200 {object} syncer.Status
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status(c.UserContext()))
}

// HandleHealth runs an on-demand connectivity check.
// @Summary Check Connectivity
// @Description Probes the remote store now. A transition to online replays pending syncs in the background.
// @Tags sync
// @Produce json
// @Success 200 {object} syncer.Status
// @Failure 503 {object} syncer.Status
// @Router /sync/health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	st := h.service.Health(c.UserContext())
	if !st.Online {
		return c.Status(fiber.StatusServiceUnavailable).JSON(st)
	}
	return c.JSON(st)
}

// HandleFullSync merge-syncs every replicated kind.
// @Summary Full Sync
// @Description Merges local and remote data for every kind, writes the result to both sides and publishes per-tenant documents.
// @Tags sync
// @Produce json
// @Success 200 {object} syncer.Result
// @Success 202 {object} syncer.Result "Queued while offline"
// @Failure 409 {object} syncer.Result "Already running"
// @Router /sync/full [post]
func (h *Handler) HandleFullSync(c *fiber.Ctx) error {
	return h.respond(c, h.service.FullSync(c.UserContext(), auth.ScopeFrom(c)))
}

// HandleUpload pushes local data to the remote store.
// @Summary Upload Only
// @Description Merge mode merges before writing. Authoritative mode overwrites the remote copy and needs confirm=true.
// @Tags sync
// @Produce json
// @Param mode query string false "merge or authoritative" Enums(merge, authoritative)
// @Param confirm query boolean false "Confirm an authoritative upload"
// @Success 200 {object} syncer.Result
// @Failure 428 {object} syncer.Result "Not confirmed"
// @Router /sync/upload [post]
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	ctx := WithConfirmation(c.UserContext(), c.QueryBool("confirm"))
	return h.respond(c, h.service.Upload(ctx, auth.ScopeFrom(c), c.Query("mode")))
}

// HandleDownload pulls the remote data visible to the caller.
// @Summary Download Only
// @Description Merges the remote entities the caller may see into local storage. Never writes to the remote store.
// @Tags sync
// @Produce json
// @Success 200 {object} syncer.Result
// @Failure 403 {object} syncer.Result
// @Router /sync/download [post]
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	return h.respond(c, h.service.Download(c.UserContext(), auth.ScopeFrom(c)))
}

// HandleShareCode onboards the device into the tenant owning a share code.
// @Summary Sync By Share Code
// @Tags sync
// @Produce json
// @Param code path string true "Tenant share code"
// @Success 200 {object} syncer.Result
// @Failure 404 {object} syncer.Result
// @Failure 409 {object} syncer.Result "Code matches several tenants"
// @Router /sync/share/{code} [post]
func (h *Handler) HandleShareCode(c *fiber.Ctx) error {
	return h.respond(c, h.service.ShareCode(c.UserContext(), auth.ScopeFrom(c), c.Params("code")))
}

// HandleDeleteEntity tombstones an entity and uploads the deletion.
// @Summary Delete Entity
// @Tags sync
// @Produce json
// @Param kind path string true "Entity kind" Enums(users, tenants, subscriptions)
// @Param identity path string true "Entity identity (email for users)"
// @Param authoritative query boolean false "Overwrite the remote copy instead of merging"
// @Param confirm query boolean false "Confirm an authoritative deletion"
// @Success 200 {object} syncer.Result
// @Success 202 {object} syncer.Result "Deleted locally, upload queued"
// @Failure 403 {object} syncer.Result "Protected identity"
// @Router /sync/entities/{kind}/{identity} [delete]
func (h *Handler) HandleDeleteEntity(c *fiber.Ctx) error {
	ctx := WithConfirmation(c.UserContext(), c.QueryBool("confirm"))
	res := h.service.DeleteEntity(ctx, auth.ScopeFrom(c), c.Params("kind"), c.Params("identity"), c.QueryBool("authoritative"))
	return h.respond(c, res)
}

// HandleListTombstones lists deleted identities of a kind.
// @Summary List Tombstones
// @Tags sync
// @Produce json
// @Description Requires an unrestricted caller.
// @Param kind path string true "Entity kind"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /sync/tombstones/{kind} [get]
func (h *Handler) HandleListTombstones(c *fiber.Ctx) error {
	kind := c.Params("kind")
	ids, err := h.service.Tombstones(c.UserContext(), auth.ScopeFrom(c), kind)
	if err != nil {
		code := syncer.CodeInternal
		var se *syncer.Error
		if errors.As(err, &se) {
			code = se.Code
		}
		logger.WithRayID(h.service.logger, c).Error("Failed to list tombstones", zap.String("kind", kind), zap.Error(err))
		return c.Status(statusFor(code)).JSON(fiber.Map{"code": code, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"kind": kind, "count": len(ids), "identities": ids})
}

// HandlePurgeTombstones clears the tombstones of a kind locally and remotely.
// @Summary Purge Tombstones
// @Description Deleted identities may reappear on the next sync. Needs confirm=true.
// @Tags sync
// @Produce json
// @Param kind path string true "Entity kind"
// @Param confirm query boolean false "Confirm the purge"
// @Success 200 {object} syncer.Result
// @Failure 428 {object} syncer.Result "Not confirmed"
// @Router /sync/tombstones/{kind} [delete]
func (h *Handler) HandlePurgeTombstones(c *fiber.Ctx) error {
	ctx := WithConfirmation(c.UserContext(), c.QueryBool("confirm"))
	return h.respond(c, h.service.PurgeTombstones(ctx, auth.ScopeFrom(c), c.Params("kind")))
}

func (h *Handler) respond(c *fiber.Ctx, res syncer.Result) error {
	l := logger.WithRayID(h.service.logger, c)
	status := fiber.StatusOK
	switch {
	case res.Success:
	case res.Queued:
		status = fiber.StatusAccepted
	case res.Skipped:
		status = fiber.StatusConflict
	default:
		status = statusFor(res.Code)
	}
	if status >= fiber.StatusInternalServerError {
		l.Error("Sync request failed", zap.String("operation", res.Operation), zap.String("code", string(res.Code)), zap.String("error", res.Error))
	} else if !res.Success {
		l.Info("Sync request not completed", zap.String("operation", res.Operation), zap.String("code", string(res.Code)))
	}
	return c.Status(status).JSON(res)
}

func statusFor(code syncer.Code) int {
	switch code {
	case syncer.CodeValidation:
		return fiber.StatusBadRequest
	case syncer.CodePermissionDenied, syncer.CodeProtected:
		return fiber.StatusForbidden
	case syncer.CodeNotFound:
		return fiber.StatusNotFound
	case syncer.CodeAmbiguousCode, syncer.CodeInProgress:
		return fiber.StatusConflict
	case syncer.CodeNotConfirmed:
		return fiber.StatusPreconditionRequired
	case syncer.CodeBackendRejected:
		return fiber.StatusBadGateway
	case syncer.CodeConnectivity:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
