package entity

import (
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// RequestType discriminates what an asset-change request does on completion
type RequestType string

const (
	RequestAdd            RequestType = "ADD"
	RequestDelete         RequestType = "DELETE"
	RequestReduceQuantity RequestType = "REDUCE_QUANTITY"
)

// AssetData is the asset payload carried by an asset-change request
type AssetData struct {
	Name         string  `json:"name"`
	Size         string  `json:"size,omitempty"`
	Description  string  `json:"description,omitempty"`
	Unit         string  `json:"unit"`
	Quantity     float64 `json:"quantity"`
	Notes        string  `json:"notes,omitempty"`
	DepartmentID string  `json:"departmentId"`
}

// AssetRequest is a request to add, delete, or reduce the quantity of an
// asset. It advances PENDING_HC → PENDING_BLOCK_LEADER → PENDING_KT →
// COMPLETED, at which point the change is applied to the asset store.
type AssetRequest struct {
	ID            string          `json:"id"`
	DisplayCode   string          `json:"display_code,omitempty"`
	Type          RequestType     `json:"type"`
	Status        workflow.Status `json:"status"`
	Signatures    SignatureSet    `json:"signatures"`
	DepartmentID  string          `json:"department_id,omitempty"`
	TargetAssetID string          `json:"target_asset_id,omitempty"`
	AssetData     AssetData       `json:"asset_data"`
	Requester     CreatedBy       `json:"requester"`

	RejectionReason string     `json:"rejection_reason,omitempty"`
	ProcessedBy     *CreatedBy `json:"processed_by,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwningDepartmentID resolves the department whose block governs approval:
// the asset payload's department wins over the request-level field.
func (r *AssetRequest) OwningDepartmentID() string {
	if r.AssetData.DepartmentID != "" {
		return r.AssetData.DepartmentID
	}
	return r.DepartmentID
}
