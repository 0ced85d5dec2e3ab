package entity

import (
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// TransferItem is one asset line on a transfer slip
type TransferItem struct {
	AssetID  string  `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Size     string  `json:"size,omitempty"`
	Quantity float64 `json:"quantity"`
}

// Transfer is an asset transfer slip moving assets between two departments.
// It advances PENDING_SENDER → PENDING_RECEIVER → PENDING_ADMIN → COMPLETED.
type Transfer struct {
	ID          string          `json:"id"`
	DisplayCode string          `json:"display_code,omitempty"`
	FromDeptID  string          `json:"from_dept_id"`
	ToDeptID    string          `json:"to_dept_id"`
	BlockName   string          `json:"block_name,omitempty"`
	Status      workflow.Status `json:"status"`
	Signatures  SignatureSet    `json:"signatures"`
	Assets      []TransferItem  `json:"assets"`
	CreatedBy   CreatedBy       `json:"created_by"`
	// StockMoved guards the completion stock movement so it applies exactly once
	StockMoved bool      `json:"stock_moved"`
	Version    int64     `json:"version"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
