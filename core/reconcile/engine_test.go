package reconcile

import (
	"testing"

	"tenant-sync/core/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type set map[string]struct{}

func (s set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func tombstones(ids ...string) set {
	s := set{}
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

const (
	t1 = "2026-01-01T10:00:00Z"
	t2 = "2026-01-02T10:00:00Z"
	t3 = "2026-01-03T10:00:00Z"
)

func TestMerge(t *testing.T) {
	t.Run("Remote Wins Privileged Fields, Local Keeps Ordinary Fields", func(t *testing.T) {
		local := []entity.Entity{{"id": "u1", "email": "a@x.com", "plan": "starter", "displayName": "Alice A.", "updatedAt": t1}}
		remote := []entity.Entity{{"id": "u1", "email": "a@x.com", "plan": "pro", "displayName": "Alice", "updatedAt": t2}}

		res := Merge(entity.Users, local, remote, nil)

		require.Len(t, res.Entities, 1)
		got := res.Entities[0]
		assert.Equal(t, "pro", got["plan"])
		assert.Equal(t, t2, got["updatedAt"])
		assert.Equal(t, "Alice A.", got["displayName"])
		assert.Equal(t, 1, res.Report.RemoteWins)
	})

	t.Run("Local Wins Exact Tie", func(t *testing.T) {
		local := []entity.Entity{{"id": "t1", "plan": "starter", "name": "Local", "updatedAt": t2}}
		remote := []entity.Entity{{"id": "t1", "plan": "pro", "name": "Remote", "updatedAt": t2}}

		res := Merge(entity.Tenants, local, remote, nil)

		require.Len(t, res.Entities, 1)
		assert.Equal(t, "starter", res.Entities[0]["plan"])
		assert.Equal(t, "Local", res.Entities[0]["name"])
		assert.Equal(t, 1, res.Report.LocalWins)
	})

	t.Run("Empty Privileged Field Falls Back To Loser", func(t *testing.T) {
		local := []entity.Entity{{"id": "s1", "tenantId": "t1", "status": "", "plan": "pro", "updatedAt": t3}}
		remote := []entity.Entity{{"id": "s1", "tenantId": "t1", "status": "active", "plan": "starter", "updatedAt": t1}}

		res := Merge(entity.Subscriptions, local, remote, nil)

		require.Len(t, res.Entities, 1)
		assert.Equal(t, "active", res.Entities[0]["status"])
		assert.Equal(t, "pro", res.Entities[0]["plan"])
	})

	t.Run("Winner Without UpdatedAt Drops Stale Remote Value", func(t *testing.T) {
		local := []entity.Entity{{"id": "t1", "createdAt": t3}}
		remote := []entity.Entity{{"id": "t1", "updatedAt": t1}}

		res := Merge(entity.Tenants, local, remote, nil)

		require.Len(t, res.Entities, 1)
		_, has := res.Entities[0]["updatedAt"]
		assert.False(t, has)
		ts, err := res.Entities[0].Timestamp()
		require.NoError(t, err)
		assert.Equal(t, 3, ts.Day())
	})

	t.Run("One-Sided Entities Are Kept", func(t *testing.T) {
		local := []entity.Entity{{"id": "t-local", "updatedAt": t1}}
		remote := []entity.Entity{{"id": "t-remote", "updatedAt": t1}}

		res := Merge(entity.Tenants, local, remote, nil)

		require.Len(t, res.Entities, 2)
		assert.Equal(t, "t-local", res.Entities[0]["id"])
		assert.Equal(t, "t-remote", res.Entities[1]["id"])
		assert.Equal(t, 1, res.Report.LocalOnly)
		assert.Equal(t, 1, res.Report.RemoteOnly)
	})

	t.Run("Tombstones Beat Newer Edits", func(t *testing.T) {
		local := []entity.Entity{{"email": "gone@x.io", "updatedAt": t3}}
		remote := []entity.Entity{{"email": "Gone@X.io", "updatedAt": t1}, {"email": "kept@x.io", "updatedAt": t1}}

		res := Merge(entity.Users, local, remote, tombstones("gone@x.io"))

		require.Len(t, res.Entities, 1)
		assert.Equal(t, "kept@x.io", res.Entities[0]["email"])
		assert.Equal(t, 2, res.Report.Tombstoned)
	})

	t.Run("Invalid Entities Are Dropped And Reported", func(t *testing.T) {
		local := []entity.Entity{
			{"name": "no identity"},
			{"email": "broken", "updatedAt": t1},
			{"email": "ok@x.io", "updatedAt": "not a time"},
			nil,
			{"email": "fine@x.io", "updatedAt": t1},
		}

		res := Merge(entity.Users, local, nil, nil)

		require.Len(t, res.Entities, 1)
		assert.Equal(t, 4, res.Report.Invalid)
		require.Len(t, res.Issues, 4)
		assert.Equal(t, SideLocal, res.Issues[0].Side)
		assert.Equal(t, 0, res.Issues[0].Index)
		assert.ErrorIs(t, res.Issues[0].Err, entity.ErrMissingIdentity)
		assert.ErrorIs(t, res.Issues[1].Err, entity.ErrInvalidEmail)
		assert.ErrorIs(t, res.Issues[2].Err, entity.ErrInvalidTimestamp)
	})

	t.Run("Duplicates Keep Newest", func(t *testing.T) {
		remote := []entity.Entity{
			{"id": "t1", "name": "new", "updatedAt": t2},
			{"id": "t1", "name": "old", "updatedAt": t1},
		}

		res := Merge(entity.Tenants, nil, remote, nil)

		require.Len(t, res.Entities, 1)
		assert.Equal(t, "new", res.Entities[0]["name"])
		assert.Equal(t, 1, res.Report.Duplicates)
	})

	t.Run("Input Is Not Mutated", func(t *testing.T) {
		local := []entity.Entity{{"id": "t1", "name": "L", "updatedAt": t1}}
		remote := []entity.Entity{{"id": "t1", "name": "R", "plan": "pro", "updatedAt": t2}}

		Merge(entity.Tenants, local, remote, nil)

		assert.Equal(t, entity.Entity{"id": "t1", "name": "L", "updatedAt": t1}, local[0])
		assert.Equal(t, entity.Entity{"id": "t1", "name": "R", "plan": "pro", "updatedAt": t2}, remote[0])
	})
}

func fixtures() (local, remote []entity.Entity, deleted set) {
	local = []entity.Entity{
		{"id": "u1", "email": "a@x.io", "tenantId": "t1", "plan": "starter", "nick": "al", "updatedAt": t1},
		{"id": "u2", "email": "b@x.io", "tenantId": "t1", "role": "", "updatedAt": t3},
		{"id": "u3", "email": "c@x.io", "tenantId": "t2", "updatedAt": t2},
		{"email": "bad"},
	}
	remote = []entity.Entity{
		{"id": "u1", "email": "A@x.io", "tenantId": "t1", "plan": "pro", "updatedAt": t2},
		{"id": "u2", "email": "b@x.io", "tenantId": "t1", "role": "admin", "updatedAt": t2},
		{"id": "u4", "email": "d@x.io", "tenantId": "t2", "updatedAt": t2},
		{"id": "u5", "email": "e@x.io", "tenantId": "t2", "updatedAt": t2},
	}
	return local, remote, tombstones("c@x.io", "e@x.io")
}

func TestMergeIdempotent(t *testing.T) {
	local, remote, deleted := fixtures()

	once := Merge(entity.Users, local, remote, deleted)
	twice := Merge(entity.Users, once.Entities, once.Entities, deleted)

	assert.Equal(t, once.Entities, twice.Entities)
	assert.Empty(t, twice.Issues)
}

func TestMergeIdentitySetCommutative(t *testing.T) {
	local, remote, deleted := fixtures()

	ab := Merge(entity.Users, local, remote, deleted)
	ba := Merge(entity.Users, remote, local, deleted)

	assert.Equal(t, Identities(entity.Users, ab.Entities), Identities(entity.Users, ba.Entities))
}

func TestMergeNoResurrection(t *testing.T) {
	local, remote, deleted := fixtures()

	for _, res := range []Result{
		Merge(entity.Users, local, remote, deleted),
		Merge(entity.Users, remote, local, deleted),
		Merge(entity.Users, local, local, deleted),
		Merge(entity.Users, nil, remote, deleted),
	} {
		for id := range Identities(entity.Users, res.Entities) {
			assert.False(t, deleted.Contains(id), "tombstoned identity %s resurrected", id)
		}
	}
}

func TestWithout(t *testing.T) {
	entities := []entity.Entity{{"id": "t1"}, {"id": "t2"}}
	out := Without(entity.Tenants, entities, tombstones("t1"))
	require.Len(t, out, 1)
	assert.Equal(t, "t2", out[0]["id"])
	assert.Len(t, Without(entity.Tenants, entities, nil), 2)
}

func TestReportAdd(t *testing.T) {
	r := Report{Total: 1, LocalWins: 1}
	r.Add(Report{Total: 2, RemoteOnly: 3, Invalid: 1})
	assert.Equal(t, Report{Total: 3, LocalWins: 1, RemoteOnly: 3, Invalid: 1}, r)
}
