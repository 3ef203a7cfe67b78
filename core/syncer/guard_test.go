package syncer

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"tenant-sync/core/docstore"
	"tenant-sync/core/scope"
	"tenant-sync/core/tombstone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	var g Guard
	require.True(t, g.TryAcquire())
	assert.True(t, g.Held())
	assert.False(t, g.TryAcquire())
	g.Release()
	assert.False(t, g.Held())
	assert.True(t, g.TryAcquire())
}

func TestGuardLockFileExcludesOtherHolders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.lock")
	agent := NewGuard(path)
	cli := NewGuard(path)

	require.True(t, agent.TryAcquire())
	assert.False(t, cli.TryAcquire())
	assert.False(t, cli.Held())

	agent.Release()
	assert.True(t, cli.TryAcquire())
	cli.Release()
}

func TestGuardLockFileError(t *testing.T) {
	g := NewGuard(filepath.Join(t.TempDir(), "missing", "sync.lock"))
	ok, err := g.acquire()
	assert.False(t, ok)
	assert.Error(t, err)
	assert.False(t, g.Held())
}

func TestParseUploadMode(t *testing.T) {
	m, err := ParseUploadMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMerge, m)

	m, err = ParseUploadMode(" Authoritative ")
	require.NoError(t, err)
	assert.Equal(t, ModeAuthoritative, m)

	_, err = ParseUploadMode("overwrite")
	assert.Equal(t, CodeValidation, classify(err).Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		code Code
	}{
		{fmt.Errorf("read: %w", &docstore.UnavailableError{Backend: "s3", Err: errors.New("refused")}), CodeConnectivity},
		{fmt.Errorf("write: %w", &docstore.BackendError{Backend: "s3", Code: "AccessDenied"}), CodeBackendRejected},
		{fmt.Errorf("x: %w", tombstone.ErrProtected), CodeProtected},
		{scope.ErrPermissionDenied, CodePermissionDenied},
		{fmt.Errorf("x: %w", docstore.ErrInvalidRealm), CodeValidation},
		{localErr("disk", errors.New("full")), CodeLocalStore},
		{newError(CodeNotFound, "missing", nil), CodeNotFound},
		{errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, classify(tt.err).Code, tt.err.Error())
	}
	assert.Nil(t, localErr("ignored", nil))
}
