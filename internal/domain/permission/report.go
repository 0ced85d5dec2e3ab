package permission

import (
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// reportBlock resolves the management block governing a report: an explicit
// block name on the report wins, otherwise the reporting department's block.
func (r *Resolver) reportBlock(rep *entity.InventoryReport) string {
	if rep.BlockName != "" {
		return rep.BlockName
	}
	if dept := r.dir.Department(rep.DepartmentID); dept != nil {
		return dept.ManagementBlock
	}
	return ""
}

// CanProcessReport reports whether the actor may sign or reject the report
// at its current status. Terminal statuses are never actionable.
func (r *Resolver) CanProcessReport(actor *entity.Actor, rep *entity.InventoryReport) bool {
	if actor == nil || rep == nil {
		return false
	}
	if rep.Status.IsTerminal() {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return r.CanActOnReport(actor, rep, rep.Status)
}

// CanActOnReport evaluates the step predicate matching the given status
func (r *Resolver) CanActOnReport(actor *entity.Actor, rep *entity.InventoryReport, status workflow.Status) bool {
	if actor == nil || rep == nil {
		return false
	}

	block := r.reportBlock(rep)

	switch status {
	case workflow.StatusPendingDeptLeader:
		return r.dir.BlockLeaders(block).HasLeader(actor.UID)
	case workflow.StatusPendingHC:
		return r.groupPermissions(block).HasHCApprover(actor.UID)
	case workflow.StatusPendingKT:
		return r.groupPermissions(block).HasKTApprover(actor.UID)
	case workflow.StatusPendingDirector:
		if leaders := r.dir.BlockLeaders(block); leaders != nil {
			return leaders.HasDirector(actor.UID)
		}
		// Company-wide summaries without a block fall back to the
		// administrative block's director list.
		if block == "" && rep.Type == workflow.ReportSummary {
			return r.dir.BlockLeaders(entity.BlockAdministration).HasDirector(actor.UID)
		}
		return false
	default:
		return false
	}
}

// CanDeleteReport restricts report deletion to admins
func (r *Resolver) CanDeleteReport(actor *entity.Actor, rep *entity.InventoryReport) bool {
	return actor.IsAdmin() && rep != nil
}
