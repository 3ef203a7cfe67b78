package tombstone

import (
	"context"
	"testing"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := NewSet("b", "", "a")
	assert.Equal(t, []string{"a", "b"}, s.Slice())
	assert.True(t, s.Contains("a"))
	assert.False(t, Set(nil).Contains("a"))

	u := s.Union(NewSet("c"))
	assert.Len(t, u, 3)
	assert.Len(t, s, 2)

	doc, err := u.Document()
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c"]`, string(doc.Value))

	back, err := Decode(entity.Tenants, &doc)
	require.NoError(t, err)
	assert.Equal(t, u, back)

	empty, err := Decode(entity.Tenants, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeNormalizesIdentities(t *testing.T) {
	doc := docstore.Document{Value: []byte(`[" A@X.com", "b@x.com", ""]`)}
	set, err := Decode(entity.Users, &doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, set.Slice())
}

func TestPurgeMarker(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 8, time.FixedZone("x", 3600))
	doc, err := MarkerDocument(at)
	require.NoError(t, err)

	got, err := DecodeMarker(&doc)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, at.Equal(*got))

	none, err := DecodeMarker(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = DecodeMarker(&docstore.Document{Value: []byte(`{}`)})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	reg := NewRegistry(store, []string{"Root@Platform.io"}, nil)

	t.Run("RecordDeletion", func(t *testing.T) {
		require.NoError(t, reg.RecordDeletion(ctx, entity.Users, " U2@X.io "))
		require.NoError(t, reg.RecordDeletion(ctx, entity.Users, "u2@x.io"))

		ok, err := reg.Contains(ctx, entity.Users, "u2@x.io")
		require.NoError(t, err)
		assert.True(t, ok)

		set, err := reg.Load(ctx, entity.Users)
		require.NoError(t, err)
		assert.Equal(t, []string{"u2@x.io"}, set.Slice())
	})

	t.Run("Protected", func(t *testing.T) {
		err := reg.RecordDeletion(ctx, entity.Users, "root@platform.io")
		assert.ErrorIs(t, err, ErrProtected)

		ok, err := reg.Contains(ctx, entity.Users, "root@platform.io")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.ErrorIs(t, reg.RecordDeletion(ctx, entity.Tenants, "  "), ErrEmptyIdentity)
	})

	t.Run("UnionWith Is Monotonic", func(t *testing.T) {
		union, err := reg.UnionWith(ctx, entity.Users, Remote{Deleted: NewSet("u9@x.io", "root@platform.io")})
		require.NoError(t, err)
		assert.Equal(t, []string{"u2@x.io", "u9@x.io"}, union.Slice())

		union, err = reg.UnionWith(ctx, entity.Users, Remote{})
		require.NoError(t, err)
		assert.Equal(t, []string{"u2@x.io", "u9@x.io"}, union.Slice())
	})

	t.Run("UnionWith Normalizes Remote Identities", func(t *testing.T) {
		union, err := reg.UnionWith(ctx, entity.Users, Remote{Deleted: NewSet("U9@X.io", " Root@Platform.io")})
		require.NoError(t, err)
		assert.Equal(t, []string{"u2@x.io", "u9@x.io"}, union.Slice())
	})

	t.Run("Kinds Are Independent", func(t *testing.T) {
		set, err := reg.Load(ctx, entity.Tenants)
		require.NoError(t, err)
		assert.Empty(t, set)
	})

	t.Run("Purge", func(t *testing.T) {
		require.NoError(t, reg.Purge(ctx, entity.Users, time.Now()))
		set, err := reg.Load(ctx, entity.Users)
		require.NoError(t, err)
		assert.Empty(t, set)
	})

	t.Run("Store Failure", func(t *testing.T) {
		store.SetOffline(true)
		defer store.SetOffline(false)
		err := reg.RecordDeletion(ctx, entity.Users, "x@x.io")
		assert.True(t, docstore.IsUnavailable(err))
	})
}

func TestUnionWithAppliesRemotePurge(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(docstore.NewMemoryStore(), nil, nil)
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	require.NoError(t, reg.RecordDeletion(ctx, entity.Users, "old@x.io"))
	purgedAt := clock.Add(time.Hour)

	clock = clock.Add(2 * time.Hour)
	require.NoError(t, reg.RecordDeletion(ctx, entity.Users, "new@x.io"))

	t.Run("Drops Tombstones Learned Before The Purge", func(t *testing.T) {
		union, err := reg.UnionWith(ctx, entity.Users, Remote{Deleted: NewSet("after@x.io"), PurgedAt: &purgedAt})
		require.NoError(t, err)
		assert.Equal(t, []string{"after@x.io", "new@x.io"}, union.Slice())
	})

	t.Run("Same Purge Is Applied Once", func(t *testing.T) {
		// A tombstone learned after the purge but dated before it by a skewed
		// clock must not be dropped by replaying the same marker.
		clock = purgedAt.Add(-time.Minute)
		require.NoError(t, reg.RecordDeletion(ctx, entity.Users, "skewed@x.io"))

		union, err := reg.UnionWith(ctx, entity.Users, Remote{PurgedAt: &purgedAt})
		require.NoError(t, err)
		assert.Equal(t, []string{"after@x.io", "new@x.io", "skewed@x.io"}, union.Slice())
	})

	t.Run("Older Purge Is Ignored", func(t *testing.T) {
		older := purgedAt.Add(-24 * time.Hour)
		union, err := reg.UnionWith(ctx, entity.Users, Remote{PurgedAt: &older})
		require.NoError(t, err)
		assert.Len(t, union, 3)
	})

	t.Run("Local Purge Matches Remote Marker", func(t *testing.T) {
		later := purgedAt.Add(24 * time.Hour)
		require.NoError(t, reg.Purge(ctx, entity.Users, later))
		clock = later.Add(time.Minute)
		require.NoError(t, reg.RecordDeletion(ctx, entity.Users, "again@x.io"))

		union, err := reg.UnionWith(ctx, entity.Users, Remote{PurgedAt: &later})
		require.NoError(t, err)
		assert.Equal(t, []string{"again@x.io"}, union.Slice())
	})
}
