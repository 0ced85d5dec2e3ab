package permission

import (
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// CanProcessRequest reports whether the actor may approve or reject the
// request at its current status. Terminal and unknown statuses are never
// actionable, even for admins.
func (r *Resolver) CanProcessRequest(actor *entity.Actor, req *entity.AssetRequest) bool {
	if actor == nil || req == nil {
		return false
	}
	switch req.Status {
	case workflow.StatusPendingHC, workflow.StatusPendingBlockLeader, workflow.StatusPendingKT:
		if actor.IsAdmin() {
			return true
		}
		return r.CanActOnRequest(actor, req, req.Status)
	default:
		return false
	}
}

// CanActOnRequest evaluates the step predicate matching the given status
func (r *Resolver) CanActOnRequest(actor *entity.Actor, req *entity.AssetRequest, status workflow.Status) bool {
	if actor == nil || req == nil {
		return false
	}

	dept := r.dir.Department(req.OwningDepartmentID())
	if dept == nil {
		return false
	}

	switch status {
	case workflow.StatusPendingHC:
		return r.groupPermissions(dept.ManagementBlock).HasHCApprover(actor.UID)
	case workflow.StatusPendingBlockLeader:
		return r.dir.BlockLeaders(dept.ManagementBlock).HasLeader(actor.UID)
	case workflow.StatusPendingKT:
		return r.groupPermissions(dept.ManagementBlock).HasKTApprover(actor.UID)
	default:
		return false
	}
}

// CanDeleteRequest restricts request deletion to admins
func (r *Resolver) CanDeleteRequest(actor *entity.Actor, req *entity.AssetRequest) bool {
	return actor.IsAdmin() && req != nil
}
