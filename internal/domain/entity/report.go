package entity

import (
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// ReportItem is one asset line counted by an inventory report
type ReportItem struct {
	AssetID        string  `json:"id"`
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	BookQuantity   float64 `json:"book_quantity"`
	ActualQuantity float64 `json:"actual_quantity"`
	Notes          string  `json:"notes,omitempty"`
}

// InventoryReport is an inventory record for one block (BLOCK_INVENTORY) or
// the whole company (SUMMARY_REPORT). The two variants share signatures and
// statuses but run different workflow tables.
type InventoryReport struct {
	ID          string          `json:"id"`
	DisplayCode string          `json:"display_code,omitempty"`
	Title       string          `json:"title"`
	Type        string          `json:"type"` // workflow.ReportBlockInventory or workflow.ReportSummary
	Status      workflow.Status `json:"status"`
	Signatures  SignatureSet    `json:"signatures"`

	DepartmentID string `json:"department_id,omitempty"`
	BlockName    string `json:"block_name,omitempty"`

	Assets    []ReportItem `json:"assets"`
	Requester CreatedBy    `json:"requester"`

	RejectedBy *Rejection `json:"rejected_by,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
