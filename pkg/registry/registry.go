// SPDX-License-Identifier: Apache-2.0

// Package registry owns the metadata Snapshot (C4): an immutable bundle of
// catalogue, roles, and derived indexes, swapped atomically on reload. It
// mirrors the teacher's single-owner-of-connection shape (pkg/roll.Roll,
// pkg/state.State) but generalizes ownership of a live connection to
// ownership of an immutable, atomically-replaced value.
package registry

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/config"
	"github.com/querygateway/gateway/pkg/errs"
)

// MetadataProvider loads the metadata catalogue from wherever it is stored
// (file, database, remote service).
type MetadataProvider interface {
	Load(ctx context.Context) (*catalog.Catalogue, error)
}

// RoleProvider loads the current set of roles.
type RoleProvider interface {
	Load(ctx context.Context) ([]catalog.Role, error)
}

// Snapshot is an immutable (catalogue + roles + derived indexes) bundle.
// Once constructed, a Snapshot is never mutated; callers share it by
// reference.
type Snapshot struct {
	Catalogue *catalog.Catalogue
	Roles     []catalog.Role
	RolesByID map[string]*catalog.Role
	Index     *catalog.Index
}

func newSnapshot(cat *catalog.Catalogue, roles []catalog.Role) *Snapshot {
	rolesByID := make(map[string]*catalog.Role, len(roles))
	for i := range roles {
		rolesByID[roles[i].ID] = &roles[i]
	}
	return &Snapshot{
		Catalogue: cat,
		Roles:     roles,
		RolesByID: rolesByID,
		Index:     catalog.BuildIndex(cat, roles),
	}
}

// Registry holds the current Snapshot and knows how to reload it from its
// providers. The current pointer is swapped atomically; in-flight readers
// keep whatever Snapshot they captured via Current.
type Registry struct {
	metadata MetadataProvider
	roles    RoleProvider

	current atomic.Pointer[Snapshot]
}

// New constructs a Registry and performs the initial load. A failure here
// is fatal -- there is no previous snapshot to fall back to.
func New(ctx context.Context, metadata MetadataProvider, roles RoleProvider) (*Registry, error) {
	r := &Registry{metadata: metadata, roles: roles}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Current returns the active Snapshot. Safe for concurrent use; the
// returned Snapshot is never mutated, only replaced.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Reload loads a fresh catalogue and role set, validates them, builds a new
// Snapshot, and atomically swaps it in. On any failure, the previous
// Snapshot (if any) is left in place and the error is returned.
func (r *Registry) Reload(ctx context.Context) error {
	cat, err := r.metadata.Load(ctx)
	if err != nil {
		return errs.NewMetadataLoadFailed(err)
	}

	roles, err := r.roles.Load(ctx)
	if err != nil {
		return errs.NewRoleLoadFailed(err)
	}

	if err := config.Validate(cat, roles); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	r.current.Store(newSnapshot(cat, roles))
	return nil
}
