package docstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the shared Store contract against a live backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	realm := "it-" + uuid.NewString()
	users := Key{Realm: realm, Name: "users"}
	deleted := Key{Realm: realm, Name: DeletedName("users")}

	require.NoError(t, store.Ping(ctx))

	doc, err := store.Get(ctx, users)
	require.NoError(t, err)
	assert.Nil(t, doc)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SetMany(ctx, map[Key]Document{
		users:   {Value: []byte(`[{"email":"a@x.io"}]`), SyncedAt: &now},
		deleted: {Value: []byte(`["b@x.io"]`)},
	}))

	doc, err = store.Get(ctx, users)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.JSONEq(t, `[{"email":"a@x.io"}]`, string(doc.Value))
	require.NotNil(t, doc.SyncedAt)
	assert.True(t, now.Equal(*doc.SyncedAt))

	require.NoError(t, store.Delete(ctx, deleted))
	doc, err = store.Get(ctx, deleted)
	require.NoError(t, err)
	assert.Nil(t, doc)

	if rd, ok := store.(RealmDeleter); ok {
		require.NoError(t, rd.DeleteRealm(ctx, realm))
		doc, err = store.Get(ctx, users)
		require.NoError(t, err)
		assert.Nil(t, doc)
	}
}

func TestRedisStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := NewRedisClient(url)
	require.NoError(t, err)
	store := NewRedisStore(client, "sync-test")
	defer store.Close()

	exerciseStore(t, store)
}

func TestPostgresStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPostgresPool(ctx, url)
	require.NoError(t, err)
	store := NewPostgresStore(pool)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	exerciseStore(t, store)
}

func TestRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient("not-a-url")
	assert.Error(t, err)
}

func TestOpenRemote(t *testing.T) {
	ctx := context.Background()

	remote, err := OpenRemote(ctx, RemoteConfig{Backend: "memory"}, storageConfigForTest())
	require.NoError(t, err)
	_, ok := remote.Store.(*MemoryStore)
	assert.True(t, ok)
	assert.Equal(t, "memory", remote.Backend)
	assert.NoError(t, remote.Prepare(ctx))
	assert.NoError(t, remote.Close())

	remote, err = OpenRemote(ctx, RemoteConfig{Backend: "S3"}, storageConfigForTest())
	require.NoError(t, err)
	_, ok = remote.Store.(*ObjectStore)
	assert.True(t, ok)
	assert.Equal(t, "s3", remote.Backend)

	remote, err = OpenRemote(ctx, RemoteConfig{Backend: "redis", RedisURL: "redis://localhost:6379/0", KeyPrefix: "sync"}, storageConfigForTest())
	require.NoError(t, err)
	_, ok = remote.Store.(*RedisStore)
	assert.True(t, ok)
	assert.NoError(t, remote.Close())

	_, err = OpenRemote(ctx, RemoteConfig{Backend: "dynamo"}, storageConfigForTest())
	assert.ErrorContains(t, err, "unsupported remote backend")
}
