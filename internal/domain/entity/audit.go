package entity

import "time"

// Audit actions recorded by the approval service
const (
	AuditTransferSigned   = "TRANSFER_SIGNED"
	AuditTransferCreated  = "TRANSFER_CREATED"
	AuditTransferDeleted  = "TRANSFER_DELETED"
	AuditRequestCreated   = "ASSET_REQUEST_CREATED"
	AuditRequestApproved  = "ASSET_REQUEST_APPROVED"
	AuditRequestRejected  = "ASSET_REQUEST_REJECTED"
	AuditRequestDeleted   = "ASSET_REQUEST_DELETED"
	AuditReportCreated    = "INVENTORY_REPORT_CREATED"
	AuditReportSigned     = "INVENTORY_REPORT_SIGNED"
	AuditReportRejected   = "INVENTORY_REPORT_REJECTED"
	AuditReportDeleted    = "INVENTORY_REPORT_DELETED"
)

// Audit severities
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
)

// AuditActor identifies who performed an audited action
type AuditActor struct {
	UID   string `json:"uid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// AuditLog is one append-only audit trail entry
type AuditLog struct {
	ID         int64      `json:"id"`
	Action     string     `json:"action"`
	Actor      AuditActor `json:"actor"`
	TargetType string     `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Details    string     `json:"details,omitempty"`
	Severity   string     `json:"severity"`
	CreatedAt  time.Time  `json:"created_at"`
}
