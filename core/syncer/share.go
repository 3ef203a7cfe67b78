package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/reconcile"
	"tenant-sync/core/scope"

	"go.uber.org/zap"
)

// TenantData is the tenant_full_data document: one tenant and everything it owns.
type TenantData struct {
	Tenant        entity.Entity   `json:"tenant"`
	Users         []entity.Entity `json:"users"`
	Subscriptions []entity.Entity `json:"subscriptions"`
}

func decodeTenantData(doc *docstore.Document) (*TenantData, error) {
	dec := json.NewDecoder(bytes.NewReader(doc.Value))
	dec.UseNumber()
	var td TenantData
	if err := dec.Decode(&td); err != nil {
		return nil, err
	}
	return &td, nil
}

// publishTenantData writes one tenant_full_data document per live tenant and
// drops the realm of every tombstoned tenant.
func (o *Orchestrator) publishTenantData(ctx context.Context, merged map[string][]entity.Entity) error {
	tenants, ok := merged[entity.Tenants.Name]
	if !ok {
		return nil
	}

	docs := make(map[docstore.Key]docstore.Document, len(tenants))
	now := o.now().UTC()
	for _, tenant := range tenants {
		id := entity.Tenants.Identity(tenant)
		if err := docstore.ValidateTenantRealm(id); err != nil {
			o.log.Warn("Skipping tenant that cannot own a realm", zap.String("tenant_id", id), zap.Error(err))
			continue
		}
		bound := scope.Tenant(id, "")
		td := TenantData{Tenant: tenant, Users: []entity.Entity{}, Subscriptions: []entity.Entity{}}
		if users, err := scope.Filter(entity.Users, merged[entity.Users.Name], bound); err == nil && users != nil {
			td.Users = users
		}
		if subs, err := scope.Filter(entity.Subscriptions, merged[entity.Subscriptions.Name], bound); err == nil && subs != nil {
			td.Subscriptions = subs
		}
		doc, err := docstore.NewDocument(td, &now)
		if err != nil {
			return err
		}
		docs[docstore.TenantKey(id)] = doc
	}
	if len(docs) > 0 {
		if err := o.remote.SetMany(ctx, docs); err != nil {
			return err
		}
	}

	deleted, err := o.registry.Load(ctx, entity.Tenants)
	if err != nil {
		return localErr("failed to load tenant tombstones", err)
	}
	for _, id := range deleted.Slice() {
		if err := docstore.ValidateTenantRealm(id); err != nil {
			o.log.Warn("Keeping realm of deleted tenant with unusable id", zap.String("tenant_id", id), zap.Error(err))
			continue
		}
		if rd, ok := o.remote.(docstore.RealmDeleter); ok {
			err = rd.DeleteRealm(ctx, id)
		} else {
			err = o.remote.Delete(ctx, docstore.TenantKey(id))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SyncByShareCode onboards a device into the tenant whose share code matches
// code (case-insensitive, exact). Only that tenant's record and its
// non-deleted users are pulled into the local store.
func (o *Orchestrator) SyncByShareCode(ctx context.Context, code string) Result {
	code = strings.TrimSpace(code)
	if code == "" {
		res := Result{Operation: OpShareCode}
		res.fail(newError(CodeValidation, "share code is required", nil))
		return res
	}
	return o.run(ctx, OpShareCode, "", false, func(ctx context.Context, res *Result) error {
		tenant, err := o.resolveShareCode(ctx, code)
		if err != nil {
			return err
		}
		tenantID := entity.Tenants.Identity(tenant)
		res.TenantID = tenantID

		users, err := o.tenantUsers(ctx, tenantID)
		if err != nil {
			return err
		}

		pulls := []struct {
			kind     entity.Kind
			entities []entity.Entity
		}{
			{entity.Tenants, []entity.Entity{tenant}},
			{entity.Users, users},
		}
		for _, p := range pulls {
			if !o.hasKind(p.kind.Name) {
				continue
			}
			if err := o.pullEntities(ctx, p.kind, p.entities, res); err != nil {
				return err
			}
		}
		o.log.Info("Onboarded via share code", zap.String("tenant_id", tenantID), zap.Int("users", len(users)))
		return nil
	})
}

func (o *Orchestrator) resolveShareCode(ctx context.Context, code string) (entity.Entity, error) {
	tenants, _, err := o.remoteEntities(ctx, docstore.Global(entity.Tenants.Name))
	if err != nil {
		return nil, err
	}
	deleted, err := o.remoteTombstones(ctx, entity.Tenants)
	if err != nil {
		return nil, err
	}

	var matches []entity.Entity
	for _, t := range reconcile.Without(entity.Tenants, tenants, deleted.Deleted) {
		if strings.EqualFold(strings.TrimSpace(t.String(entity.FieldShareCode)), code) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return nil, newError(CodeNotFound, "no tenant matches the share code", nil)
	case 1:
		if err := docstore.ValidateTenantRealm(entity.Tenants.Identity(matches[0])); err != nil {
			return nil, newError(CodeValidation, "matching tenant has an unusable id", err)
		}
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, entity.Tenants.Identity(m))
		}
		o.log.Error("Share code matches several tenants", zap.Strings("tenant_ids", ids))
		return nil, newError(CodeAmbiguousCode, fmt.Sprintf("share code matches %d tenants", len(matches)), nil)
	}
}

// tenantUsers returns the tenant's users from its full-data document, falling
// back to the global users collection, minus deleted users.
func (o *Orchestrator) tenantUsers(ctx context.Context, tenantID string) ([]entity.Entity, error) {
	var users []entity.Entity
	doc, err := o.remote.Get(ctx, docstore.TenantKey(tenantID))
	if err != nil {
		return nil, err
	}
	if doc != nil {
		td, err := decodeTenantData(doc)
		if err != nil {
			return nil, newError(CodeValidation, fmt.Sprintf("remote document %s is malformed", docstore.TenantKey(tenantID)), err)
		}
		users = td.Users
	} else {
		all, _, err := o.remoteEntities(ctx, docstore.Global(entity.Users.Name))
		if err != nil {
			return nil, err
		}
		users = all
	}

	// Full-data documents are written by other devices; never trust their tenant boundary.
	users, err = scope.Filter(entity.Users, users, scope.Tenant(tenantID, ""))
	if err != nil {
		return nil, err
	}
	deleted, err := o.remoteTombstones(ctx, entity.Users)
	if err != nil {
		return nil, err
	}
	return reconcile.Without(entity.Users, users, deleted.Deleted), nil
}

// pullEntities merges entities into the local collection of kind.
func (o *Orchestrator) pullEntities(ctx context.Context, kind entity.Kind, pulled []entity.Entity, res *Result) error {
	local, err := o.domain.LocalSnapshot(ctx, kind)
	if err != nil {
		return localErr(fmt.Sprintf("failed to read local %s", kind.Name), err)
	}
	remoteDeleted, err := o.remoteTombstones(ctx, kind)
	if err != nil {
		return err
	}
	deleted, err := o.registry.UnionWith(ctx, kind, remoteDeleted)
	if err != nil {
		return localErr("failed to merge tombstones", err)
	}
	merged := reconcile.Merge(kind, local, pulled, deleted)
	o.logIssues(kind, merged.Issues)
	res.addMerge(merged)
	if err := o.domain.ApplyMergedSnapshot(ctx, kind, merged.Entities); err != nil {
		return localErr(fmt.Sprintf("failed to apply merged %s", kind.Name), err)
	}
	return nil
}

