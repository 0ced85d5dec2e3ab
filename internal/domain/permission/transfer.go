package permission

import (
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// canSignDeptSide is the shared sender/receiver rule: block head or deputy
// of the department's block, or a manager/primary member of the department.
func (r *Resolver) canSignDeptSide(actor *entity.Actor, deptID string) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}

	dept := r.dir.Department(deptID)
	if dept == nil || !r.dir.ConfigLoaded() {
		return false
	}

	if leaders := r.dir.BlockLeaders(dept.ManagementBlock); leaders.HasLeader(actor.UID) {
		return true
	}

	return actor.ManagesDepartment(dept.ID) || actor.PrimaryDepartmentID == dept.ID
}

// CanSignSender reports whether the actor may sign the sending side
func (r *Resolver) CanSignSender(actor *entity.Actor, t *entity.Transfer) bool {
	if t == nil {
		return false
	}
	return r.canSignDeptSide(actor, t.FromDeptID)
}

// CanSignReceiver reports whether the actor may sign the receiving side
func (r *Resolver) CanSignReceiver(actor *entity.Actor, t *entity.Transfer) bool {
	if t == nil {
		return false
	}
	return r.canSignDeptSide(actor, t.ToDeptID)
}

// CanSignAdmin reports whether the actor may sign the administrative-office
// confirmation. The permission group is derived from the source department's
// block, falling back to the destination's, then the slip's own block name.
func (r *Resolver) CanSignAdmin(actor *entity.Actor, t *entity.Transfer) bool {
	if actor == nil || t == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}

	block := t.BlockName
	if toDept := r.dir.Department(t.ToDeptID); toDept != nil && toDept.ManagementBlock != "" {
		block = toDept.ManagementBlock
	}
	if fromDept := r.dir.Department(t.FromDeptID); fromDept != nil && fromDept.ManagementBlock != "" {
		block = fromDept.ManagementBlock
	}

	return r.groupPermissions(block).HasHCApprover(actor.UID)
}

// IsMyTurn is the single source of truth for showing the transfer action
// button: admins see it on anything not yet completed, everyone else only
// when the step predicate for the current status passes.
func (r *Resolver) IsMyTurn(actor *entity.Actor, t *entity.Transfer) bool {
	if actor == nil || t == nil {
		return false
	}
	if actor.IsAdmin() {
		return t.Status != workflow.StatusCompleted
	}
	return r.CanActOnTransfer(actor, t, t.Status)
}

// CanActOnTransfer evaluates the step predicate matching the given status
func (r *Resolver) CanActOnTransfer(actor *entity.Actor, t *entity.Transfer, status workflow.Status) bool {
	switch status {
	case workflow.StatusPendingSender:
		return r.CanSignSender(actor, t)
	case workflow.StatusPendingReceiver:
		return r.CanSignReceiver(actor, t)
	case workflow.StatusPendingAdmin:
		return r.CanSignAdmin(actor, t)
	default:
		return false
	}
}

// CanDeleteTransfer allows admins always, and the creator only while the
// slip is still at its first step with no signatures collected.
func (r *Resolver) CanDeleteTransfer(actor *entity.Actor, t *entity.Transfer) bool {
	if actor == nil || t == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return t.CreatedBy.UID == actor.UID && t.Status == workflow.StatusPendingSender
}
