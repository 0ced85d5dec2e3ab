package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
	"github.com/bachkhoacons/asset-approval/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTransferInput carries the fields a caller supplies for a new
// transfer slip. Status, signatures and timestamps are server-assigned.
type CreateTransferInput struct {
	FromDeptID string
	ToDeptID   string
	BlockName  string
	Date       time.Time
	Assets     []entity.TransferItem
}

// TransferService manages the lifecycle of transfer slips around the
// approval engine: creation reserves source stock, deletion releases or
// reverts it depending on how far the slip got.
type TransferService interface {
	Create(ctx context.Context, in CreateTransferInput, actor *entity.Actor) (*entity.Transfer, error)
	Get(ctx context.Context, id string) (*entity.Transfer, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Transfer, error)
	Delete(ctx context.Context, id string, actor *entity.Actor) error
}

type transferServiceImpl struct {
	transfers port.TransferRepository
	assets    port.AssetRepository
	auditLogs port.AuditLogRepository
	directory DirectoryService
	txManager port.TransactionManager
	publisher port.EventPublisher
	stock     *stockMover
	logger    *zap.Logger
	now       func() time.Time
}

// NewTransferService creates a new TransferService
func NewTransferService(
	transfers port.TransferRepository,
	assets port.AssetRepository,
	auditLogs port.AuditLogRepository,
	directory DirectoryService,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	logger *zap.Logger,
) TransferService {
	return &transferServiceImpl{
		transfers: transfers,
		assets:    assets,
		auditLogs: auditLogs,
		directory: directory,
		txManager: txManager,
		publisher: publisher,
		stock:     &stockMover{assets: assets, logger: logger},
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the slip, reserves the transferred quantities on the
// source assets, and writes the slip at its first workflow step. Reservation
// and insert share one transaction so a failed insert holds nothing.
func (s *transferServiceImpl) Create(ctx context.Context, in CreateTransferInput, actor *entity.Actor) (*entity.Transfer, error) {
	if in.FromDeptID == "" || in.ToDeptID == "" {
		return nil, fmt.Errorf("%w: source and destination departments are required", ErrInvalidInput)
	}
	if in.FromDeptID == in.ToDeptID {
		return nil, fmt.Errorf("%w: source and destination must differ", ErrInvalidInput)
	}
	if len(in.Assets) == 0 {
		return nil, fmt.Errorf("%w: at least one asset line is required", ErrInvalidInput)
	}
	for i, item := range in.Assets {
		if item.AssetID == "" {
			return nil, fmt.Errorf("%w: asset line %d has no asset id", ErrInvalidInput, i)
		}
		if err := utils.ValidateQuantity(item.Quantity); err != nil {
			return nil, fmt.Errorf("%w: asset line %d: %v", ErrInvalidInput, i, err)
		}
	}

	wf, err := workflow.For(workflow.KindTransfer, "")
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	t := &entity.Transfer{
		ID:          uuid.NewString(),
		DisplayCode: displayCode("DC", date),
		FromDeptID:  in.FromDeptID,
		ToDeptID:    in.ToDeptID,
		BlockName:   in.BlockName,
		Status:      wf.First().Status,
		Signatures:  entity.SignatureSet{},
		Assets:      in.Assets,
		CreatedBy:   entity.CreatedBy{UID: actor.UID, Name: actor.SignerName()},
		Date:        date,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, item := range t.Assets {
			src, err := s.assets.GetByID(txCtx, item.AssetID)
			if err != nil {
				return err
			}
			if src == nil {
				return fmt.Errorf("%w: asset %s", ErrNotFound, item.AssetID)
			}
			if src.DepartmentID != t.FromDeptID {
				return fmt.Errorf("%w: asset %s does not belong to the source department", ErrInvalidInput, item.AssetID)
			}
			if src.Available() < item.Quantity {
				return fmt.Errorf("%w: asset %s has %.2f available, %.2f requested",
					ErrInsufficientStock, src.Name, src.Available(), item.Quantity)
			}
			if err := s.assets.AdjustReserved(txCtx, src.ID, item.Quantity); err != nil {
				return fmt.Errorf("reserve asset %s: %w", src.ID, err)
			}
		}
		if err := s.transfers.Create(txCtx, t); err != nil {
			return err
		}
		return s.auditCreate(txCtx, entity.AuditTransferCreated, actor, "transfer", t.ID, map[string]any{
			"display_code": t.DisplayCode,
			"from_dept":    t.FromDeptID,
			"to_dept":      t.ToDeptID,
			"asset_count":  len(t.Assets),
		})
	})
	if err != nil {
		s.logger.Error("Failed to create transfer", zap.Error(err))
		return nil, err
	}

	s.publishEvent(workflow.KindTransfer, t.ID, t.Status, "created")
	s.logger.Info("Transfer created",
		zap.String("id", t.ID),
		zap.String("display_code", t.DisplayCode),
		zap.String("created_by", actor.UID))
	return t, nil
}

func (s *transferServiceImpl) Get(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *transferServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Transfer, error) {
	return s.transfers.List(ctx, normalizeLimit(limit), offset)
}

// Delete removes a slip. Pending slips release their reservations; a
// completed slip has already moved stock, so an admin delete reverts the
// movement first. All of it commits atomically with the row removal.
func (s *transferServiceImpl) Delete(ctx context.Context, id string, actor *entity.Actor) error {
	t, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return err
	}
	if !resolver.CanDeleteTransfer(actor, t) {
		return workflow.ErrUnauthorized
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if t.StockMoved {
			if err := s.stock.revert(txCtx, t); err != nil {
				return fmt.Errorf("revert stock movement: %w", err)
			}
		} else if !t.Status.IsTerminal() {
			if err := s.stock.release(txCtx, t); err != nil {
				return fmt.Errorf("release reservations: %w", err)
			}
		}
		if err := s.transfers.Delete(txCtx, id); err != nil {
			return err
		}
		return s.auditCreate(txCtx, entity.AuditTransferDeleted, actor, "transfer", id, map[string]any{
			"display_code": t.DisplayCode,
			"status":       t.Status,
			"stock_moved":  t.StockMoved,
		})
	})
	if err != nil {
		s.logger.Error("Failed to delete transfer", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publishEvent(workflow.KindTransfer, id, t.Status, "deleted")
	s.logger.Info("Transfer deleted", zap.String("id", id), zap.String("by", actor.UID))
	return nil
}

func (s *transferServiceImpl) auditCreate(ctx context.Context, action string, actor *entity.Actor, targetType, targetID string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	return s.auditLogs.Create(ctx, &entity.AuditLog{
		Action:     action,
		Actor:      entity.AuditActor{UID: actor.UID, Name: actor.DisplayName, Email: actor.Email},
		TargetType: targetType,
		TargetID:   targetID,
		Details:    string(payload),
		Severity:   entity.SeverityInfo,
		CreatedAt:  s.now(),
	})
}

func (s *transferServiceImpl) publishEvent(kind workflow.Kind, id string, status workflow.Status, action string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(port.DocumentEvent{Kind: kind, ID: id, Status: status, Action: action})
}

// displayCode builds a human-facing slip code like DC-20260415-A1B2
func displayCode(prefix string, t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("%s-%s-%s", prefix, t.Format("20060102"), suffix)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
