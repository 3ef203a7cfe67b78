package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKeys(t *testing.T) {
	docs := map[Key]Document{
		Global("users"):                {},
		Global(DeletedName("users")):   {},
		TenantKey("t-1"):               {},
		Global(DeletedName("tenants")): {},
	}

	keys := orderedKeys(docs)

	require.Len(t, keys, 4)
	assert.Equal(t, Global("deleted_tenants"), keys[0])
	assert.Equal(t, Global("deleted_users"), keys[1])
	assert.Equal(t, Global("users"), keys[2])
	assert.Equal(t, TenantKey("t-1"), keys[3])
}

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc, err := NewDocument([]string{"a", "b"}, &now)
	require.NoError(t, err)

	var ids []string
	require.NoError(t, doc.Decode(&ids))
	assert.Equal(t, []string{"a", "b"}, ids)

	var missing *Document
	assert.NoError(t, missing.Decode(&ids))
}

func TestErrorClassification(t *testing.T) {
	unavailable := fmt.Errorf("failed to read: %w", &UnavailableError{Backend: "s3", Err: errors.New("dial tcp: refused")})
	assert.True(t, IsUnavailable(unavailable))
	assert.False(t, IsBackendError(unavailable))

	rejected := fmt.Errorf("failed to write: %w", &BackendError{Backend: "s3", Code: "AccessDenied", Message: "denied"})
	assert.False(t, IsUnavailable(rejected))
	assert.True(t, IsBackendError(rejected))
	assert.Contains(t, rejected.Error(), "AccessDenied")

	assert.True(t, IsUnavailable(context.DeadlineExceeded))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("Miss", func(t *testing.T) {
		doc, err := s.Get(ctx, Global("users"))
		assert.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Copies Values", func(t *testing.T) {
		value := []byte(`[1,2]`)
		require.NoError(t, s.Set(ctx, Global("users"), Document{Value: value}))
		value[1] = '9'

		doc, err := s.Get(ctx, Global("users"))
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2]`, string(doc.Value))
	})

	t.Run("Offline", func(t *testing.T) {
		s.SetOffline(true)
		defer s.SetOffline(false)

		_, err := s.Get(ctx, Global("users"))
		assert.True(t, IsUnavailable(err))
		assert.True(t, IsUnavailable(s.Ping(ctx)))
		assert.True(t, IsUnavailable(s.Set(ctx, Global("x"), Document{})))
	})

	t.Run("DeleteRealm", func(t *testing.T) {
		require.NoError(t, s.SetMany(ctx, map[Key]Document{
			TenantKey("t-1"):              {Value: []byte(`{}`)},
			{Realm: "t-1", Name: "other"}: {Value: []byte(`{}`)},
			TenantKey("t-2"):              {Value: []byte(`{}`)},
		}))
		require.NoError(t, s.DeleteRealm(ctx, "t-1"))

		doc, _ := s.Get(ctx, TenantKey("t-1"))
		assert.Nil(t, doc)
		doc, _ = s.Get(ctx, TenantKey("t-2"))
		assert.NotNil(t, doc)
	})

	t.Run("FailWith", func(t *testing.T) {
		s.FailWith(&BackendError{Backend: "memory", Code: "Quota"})
		defer s.FailWith(nil)
		assert.True(t, IsBackendError(s.Ping(ctx)))
	})
}

func TestValidateRealm(t *testing.T) {
	for _, ok := range []string{"t1", "tenant-42", "global", "Acme.Corp"} {
		assert.NoError(t, ValidateRealm(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "x/../global", "a\\b", "t1 ", "t\n1"} {
		assert.ErrorIs(t, ValidateRealm(bad), ErrInvalidRealm, bad)
	}

	assert.NoError(t, ValidateTenantRealm("t1"))
	assert.ErrorIs(t, ValidateTenantRealm("Global"), ErrInvalidRealm)
	assert.ErrorIs(t, ValidateTenantRealm("local"), ErrInvalidRealm)
	assert.ErrorIs(t, ValidateTenantRealm("../t1"), ErrInvalidRealm)
}
