package replication

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/middleware/auth"
	"tenant-sync/core/syncer"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var jwtSecret = []byte("handler-secret")

type testEnv struct {
	app    *fiber.App
	remote *docstore.MemoryStore
	local  *docstore.MemoryStore
	orch   *syncer.Orchestrator
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()
	remote := docstore.NewMemoryStore()
	local := docstore.NewMemoryStore()
	orch, err := syncer.New(syncer.Config{DeviceID: "test", ProbeTimeout: time.Second}, syncer.Deps{
		Local:     local,
		Remote:    remote,
		Confirmer: RequestConfirmer,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(orch.Wait)

	app := fiber.New()
	app.Use(auth.New(auth.Config{JWTSecret: string(jwtSecret)}))
	feature := NewFeature(orch, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return &testEnv{app: app, remote: remote, local: local, orch: orch}
}

func token(t *testing.T, role, tenant string) string {
	t.Helper()
	raw, err := auth.GenerateToken(auth.Claims{Role: role, TenantID: tenant, Email: "caller@x.io"}, jwtSecret, time.Minute)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(t *testing.T, method, target, bearer string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func (e *testEnv) seed(t *testing.T, kind entity.Kind, entities ...entity.Entity) {
	t.Helper()
	data, err := entity.Encode(entities)
	require.NoError(t, err)
	require.NoError(t, e.remote.Set(context.Background(), docstore.Global(kind.Name), docstore.Document{Value: data}))
}

func TestLoader(t *testing.T) {
	env := setupTestApp(t)
	feature := NewFeature(env.orch, zap.NewNop())
	assert.Equal(t, "replication", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.False(t, NewFeature(nil, zap.NewNop()).IsEnabled())
}

func TestHandleStatusAndHealth(t *testing.T) {
	env := setupTestApp(t)
	admin := token(t, "platform_admin", "")

	code, body := env.do(t, "GET", "/sync/status", admin)
	assert.Equal(t, 200, code)
	assert.Equal(t, "test", body["deviceId"])
	assert.Equal(t, false, body["online"])

	code, body = env.do(t, "GET", "/sync/health", admin)
	assert.Equal(t, 200, code)
	assert.Equal(t, true, body["online"])

	env.remote.SetOffline(true)
	code, _ = env.do(t, "GET", "/sync/health", admin)
	assert.Equal(t, 503, code)
}

func TestHandleFullSync(t *testing.T) {
	env := setupTestApp(t)
	env.seed(t, entity.Users, entity.Entity{"email": "a@x.io", "tenantId": "t1"})
	admin := token(t, "platform_admin", "")

	code, body := env.do(t, "POST", "/sync/full", admin)
	assert.Equal(t, 200, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, syncer.OpFullSync, body["operation"])

	env.remote.SetOffline(true)
	code, body = env.do(t, "POST", "/sync/full", admin)
	assert.Equal(t, 202, code)
	assert.Equal(t, true, body["queued"])
	assert.Equal(t, string(syncer.CodeConnectivity), body["code"])
}

func TestHandleUpload(t *testing.T) {
	env := setupTestApp(t)
	admin := token(t, "platform_admin", "")
	member := token(t, "editor", "t1")

	code, _ := env.do(t, "POST", "/sync/upload?mode=merge", member)
	assert.Equal(t, 200, code)

	code, body := env.do(t, "POST", "/sync/upload?mode=authoritative", member)
	assert.Equal(t, 403, code)
	assert.Equal(t, string(syncer.CodePermissionDenied), body["code"])

	code, body = env.do(t, "POST", "/sync/upload?mode=authoritative", admin)
	assert.Equal(t, 428, code)
	assert.Equal(t, string(syncer.CodeNotConfirmed), body["code"])

	code, _ = env.do(t, "POST", "/sync/upload?mode=authoritative&confirm=true", admin)
	assert.Equal(t, 200, code)

	code, _ = env.do(t, "POST", "/sync/upload?mode=sideways", admin)
	assert.Equal(t, 400, code)
}

func TestHandleDownloadScope(t *testing.T) {
	env := setupTestApp(t)
	env.seed(t, entity.Users,
		entity.Entity{"email": "a@x.io", "tenantId": "t1"},
		entity.Entity{"email": "b@x.io", "tenantId": "t2"},
	)
	writes := env.remote.Writes()

	code, body := env.do(t, "POST", "/sync/download", token(t, "editor", "t1"))
	assert.Equal(t, 200, code, body)
	assert.Equal(t, writes, env.remote.Writes())

	users, err := syncer.NewStoreDomain(env.local).LocalSnapshot(context.Background(), entity.Users)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.io", users[0]["email"])

	code, body = env.do(t, "POST", "/sync/download", token(t, "editor", ""))
	assert.Equal(t, 403, code)
	assert.Equal(t, string(syncer.CodePermissionDenied), body["code"])
}

func TestHandleShareCode(t *testing.T) {
	env := setupTestApp(t)
	env.seed(t, entity.Tenants, entity.Entity{"id": "t1", "shareCode": "JOIN-ME"})
	member := token(t, "editor", "t1")

	code, body := env.do(t, "POST", "/sync/share/join-me", member)
	assert.Equal(t, 200, code)
	assert.Equal(t, "t1", body["tenantId"])

	code, _ = env.do(t, "POST", "/sync/share/unknown", member)
	assert.Equal(t, 404, code)
}

func TestHandleDeleteAndTombstones(t *testing.T) {
	env := setupTestApp(t)
	env.seed(t, entity.Users, entity.Entity{"email": "a@x.io", "tenantId": "t1"}, entity.Entity{"email": "b@x.io", "tenantId": "t1"})
	admin := token(t, "superadmin", "")

	code, _ := env.do(t, "POST", "/sync/full", admin)
	require.Equal(t, 200, code)

	code, _ = env.do(t, "DELETE", "/sync/entities/users/b@x.io", token(t, "editor", "t1"))
	assert.Equal(t, 403, code)

	code, body := env.do(t, "DELETE", "/sync/entities/users/b@x.io", admin)
	assert.Equal(t, 200, code, body)

	code, body = env.do(t, "GET", "/sync/tombstones/users", token(t, "editor", "t1"))
	assert.Equal(t, 403, code)
	assert.Equal(t, string(syncer.CodePermissionDenied), body["code"])
	assert.NotContains(t, body, "identities")

	code, body = env.do(t, "GET", "/sync/tombstones/users", admin)
	assert.Equal(t, 200, code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, []any{"b@x.io"}, body["identities"])

	code, _ = env.do(t, "GET", "/sync/tombstones/invoices", admin)
	assert.Equal(t, 400, code)

	code, _ = env.do(t, "DELETE", "/sync/tombstones/users", admin)
	assert.Equal(t, 428, code)

	code, _ = env.do(t, "DELETE", "/sync/tombstones/users?confirm=true", admin)
	assert.Equal(t, 200, code)

	_, body = env.do(t, "GET", "/sync/tombstones/users", admin)
	assert.Equal(t, float64(0), body["count"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 502, statusFor(syncer.CodeBackendRejected))
	assert.Equal(t, 403, statusFor(syncer.CodeProtected))
	assert.Equal(t, 409, statusFor(syncer.CodeAmbiguousCode))
	assert.Equal(t, 500, statusFor(syncer.CodeLocalStore))
}
