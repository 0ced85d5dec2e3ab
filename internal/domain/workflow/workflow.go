package workflow

// Kind identifies a workflow document type
type Kind string

const (
	KindTransfer        Kind = "transfer"
	KindAssetRequest    Kind = "asset_request"
	KindInventoryReport Kind = "inventory_report"
)

// Report type discriminators, stored on inventory report documents
const (
	ReportBlockInventory = "BLOCK_INVENTORY"
	ReportSummary        = "SUMMARY_REPORT"
)

// Step is one entry of a workflow table: while a document sits at Status,
// a signature under SignatureKey is required to move it forward.
type Step struct {
	Status       Status
	SignatureKey SignatureKey
	Label        string
}

// Workflow is the ordered, fixed step list for one document type.
// A document past the last step is COMPLETED.
type Workflow struct {
	Name  string
	Steps []Step
}

var transferWorkflow = Workflow{
	Name: "transfer",
	Steps: []Step{
		{Status: StatusPendingSender, SignatureKey: KeySender, Label: "Chờ chuyển"},
		{Status: StatusPendingReceiver, SignatureKey: KeyReceiver, Label: "Chờ nhận"},
		{Status: StatusPendingAdmin, SignatureKey: KeyAdmin, Label: "Chờ P.HC xác nhận"},
	},
}

var requestWorkflow = Workflow{
	Name: "asset_request",
	Steps: []Step{
		{Status: StatusPendingHC, SignatureKey: KeyHC, Label: "Chờ P.HC"},
		{Status: StatusPendingBlockLeader, SignatureKey: KeyBlockLeader, Label: "Chờ Lãnh đạo Khối"},
		{Status: StatusPendingKT, SignatureKey: KeyKT, Label: "Chờ P.KT"},
	},
}

var blockInventoryWorkflow = Workflow{
	Name: "inventory_report/block",
	Steps: []Step{
		{Status: StatusPendingHC, SignatureKey: KeyHC, Label: "P. Hành chính Ký duyệt"},
		{Status: StatusPendingDeptLeader, SignatureKey: KeyDeptLeader, Label: "Lãnh đạo Phòng Ký nhận"},
		{Status: StatusPendingDirector, SignatureKey: KeyDirector, Label: "BTGĐ duyệt"},
	},
}

var summaryReportWorkflow = Workflow{
	Name: "inventory_report/summary",
	Steps: []Step{
		{Status: StatusPendingHC, SignatureKey: KeyHC, Label: "P.HC duyệt"},
		{Status: StatusPendingKT, SignatureKey: KeyKT, Label: "P.KT duyệt"},
		{Status: StatusPendingDirector, SignatureKey: KeyDirector, Label: "BTGĐ duyệt"},
	},
}

// For returns the workflow table for a document type. reportType is only
// consulted for inventory reports.
func For(kind Kind, reportType string) (Workflow, error) {
	switch kind {
	case KindTransfer:
		return transferWorkflow, nil
	case KindAssetRequest:
		return requestWorkflow, nil
	case KindInventoryReport:
		switch reportType {
		case ReportBlockInventory:
			return blockInventoryWorkflow, nil
		case ReportSummary:
			return summaryReportWorkflow, nil
		default:
			return Workflow{}, ErrUnknownWorkflow
		}
	default:
		return Workflow{}, ErrUnknownWorkflow
	}
}

// First returns the entry step of the workflow
func (w Workflow) First() Step {
	return w.Steps[0]
}

// StepAt returns the step whose status equals the given status, with its index
func (w Workflow) StepAt(status Status) (Step, int, bool) {
	for i, step := range w.Steps {
		if step.Status == status {
			return step, i, true
		}
	}
	return Step{}, -1, false
}

// Next returns the status following the given one, or COMPLETED after the
// last step. Returns ErrStateMismatch if the status is not in the table.
func (w Workflow) Next(status Status) (Status, error) {
	_, idx, ok := w.StepAt(status)
	if !ok {
		return "", ErrStateMismatch
	}
	if idx == len(w.Steps)-1 {
		return StatusCompleted, nil
	}
	return w.Steps[idx+1].Status, nil
}

// Requires verifies that the step at expectedStatus demands the given
// signature key. The check is positional: even an admin must supply the key
// matching the table entry for the current status.
func (w Workflow) Requires(expectedStatus Status, key SignatureKey) error {
	step, _, ok := w.StepAt(expectedStatus)
	if !ok {
		return ErrStateMismatch
	}
	if step.SignatureKey != key {
		return ErrStateMismatch
	}
	return nil
}
