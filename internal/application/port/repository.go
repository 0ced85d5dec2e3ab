package port

import (
	"context"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
)

// TransactionManager runs a function inside a storage transaction. The
// transaction is carried in the context; repository calls made with that
// context join it. Returning an error aborts the whole transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransferRepository defines persistence operations for transfer slips.
// Advance performs the status-guarded update that enforces the
// exactly-one-writer guarantee: it must fail with workflow.ErrConflict when
// the live status no longer equals from.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Transfer, error)
	Advance(ctx context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature, markStockMoved bool) error
	Delete(ctx context.Context, id string) error
}

// RequestRepository defines persistence operations for asset-change requests
type RequestRepository interface {
	Create(ctx context.Context, req *entity.AssetRequest) error
	GetByID(ctx context.Context, id string) (*entity.AssetRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.AssetRequest, error)
	Advance(ctx context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature) error
	Reject(ctx context.Context, id string, from workflow.Status, reason string, by entity.CreatedBy) error
	Delete(ctx context.Context, id string) error
}

// ReportRepository defines persistence operations for inventory reports
type ReportRepository interface {
	Create(ctx context.Context, rep *entity.InventoryReport) error
	GetByID(ctx context.Context, id string) (*entity.InventoryReport, error)
	List(ctx context.Context, limit, offset int) ([]*entity.InventoryReport, error)
	Advance(ctx context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature) error
	Reject(ctx context.Context, id string, from workflow.Status, rejection entity.Rejection) error
	Delete(ctx context.Context, id string) error
}

// DepartmentRepository reads the department directory
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Department, error)
	List(ctx context.Context) ([]*entity.Department, error)
}

// LeadershipRepository reads the externally-edited leadership configuration.
// Get returns (nil, nil) when no configuration has been written yet; the
// caller must treat that as nobody-is-authorized.
type LeadershipRepository interface {
	Get(ctx context.Context) (*entity.LeadershipConfig, error)
	Put(ctx context.Context, cfg *entity.LeadershipConfig) error
}

// UserRepository resolves actor identities
type UserRepository interface {
	GetByUID(ctx context.Context, uid string) (*entity.Actor, error)
}

// AssetRepository defines persistence operations for assets, including the
// adjustments performed as workflow completion side effects
type AssetRepository interface {
	Create(ctx context.Context, a *entity.Asset) error
	GetByID(ctx context.Context, id string) (*entity.Asset, error)
	ListByDepartment(ctx context.Context, deptID string) ([]*entity.Asset, error)
	FindMatch(ctx context.Context, deptID, matchKey string) (*entity.Asset, error)
	AdjustQuantity(ctx context.Context, id string, delta float64) error
	AdjustReserved(ctx context.Context, id string, delta float64) error
	SetDepartment(ctx context.Context, id, deptID string) error
	SetQuantity(ctx context.Context, id string, quantity float64) error
	StampLastChecked(ctx context.Context, ids []string, t time.Time) error
	Delete(ctx context.Context, id string) error
}

// AuditLogRepository appends to the audit trail
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]*entity.AuditLog, error)
}
