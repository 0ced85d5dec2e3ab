// Package permission decides whether an actor may act on a workflow
// document's current step. Every predicate is pure over a directory
// snapshot, checks the admin bypass first, and fails closed on missing
// departments or configuration.
package permission

import (
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
)

// Resolver answers permission questions against one directory snapshot.
// Build a fresh resolver per decision so configuration edits take effect
// immediately; the zero snapshot authorizes nobody but admins.
type Resolver struct {
	dir *entity.DirectorySnapshot
}

// NewResolver creates a resolver over the given directory snapshot
func NewResolver(dir *entity.DirectorySnapshot) *Resolver {
	return &Resolver{dir: dir}
}

// groupPermissions resolves the approver lists for a management block,
// nil when the configuration has no entry for the derived group.
func (r *Resolver) groupPermissions(managementBlock string) *entity.ApprovalPermissions {
	return r.dir.Permissions(entity.PermissionGroupKey(managementBlock))
}
