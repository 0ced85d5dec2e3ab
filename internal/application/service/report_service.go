package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
	"github.com/bachkhoacons/asset-approval/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReportInput carries the fields for a new inventory report. When
// SnapshotAssets is set and a department is given, the current asset rows
// of that department are copied onto the report as its count lines.
type CreateReportInput struct {
	Title          string
	Type           string
	DepartmentID   string
	BlockName      string
	Assets         []entity.ReportItem
	SnapshotAssets bool
}

// ReportService manages inventory reports around the approval engine
type ReportService interface {
	Create(ctx context.Context, in CreateReportInput, actor *entity.Actor) (*entity.InventoryReport, error)
	Get(ctx context.Context, id string) (*entity.InventoryReport, error)
	List(ctx context.Context, limit, offset int) ([]*entity.InventoryReport, error)
	Delete(ctx context.Context, id string, actor *entity.Actor) error
}

type reportServiceImpl struct {
	reports   port.ReportRepository
	assets    port.AssetRepository
	auditLogs port.AuditLogRepository
	directory DirectoryService
	txManager port.TransactionManager
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	reports port.ReportRepository,
	assets port.AssetRepository,
	auditLogs port.AuditLogRepository,
	directory DirectoryService,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	logger *zap.Logger,
) ReportService {
	return &reportServiceImpl{
		reports:   reports,
		assets:    assets,
		auditLogs: auditLogs,
		directory: directory,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the report type against its workflow table and writes
// the report at the first step of that table
func (s *reportServiceImpl) Create(ctx context.Context, in CreateReportInput, actor *entity.Actor) (*entity.InventoryReport, error) {
	in.Title = utils.SanitizeString(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	wf, err := workflow.For(workflow.KindInventoryReport, in.Type)
	if err != nil {
		return nil, err
	}

	assets := in.Assets
	if in.SnapshotAssets && in.DepartmentID != "" {
		rows, err := s.assets.ListByDepartment(ctx, in.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("snapshot department assets: %w", err)
		}
		assets = make([]entity.ReportItem, 0, len(rows))
		for _, a := range rows {
			assets = append(assets, entity.ReportItem{
				AssetID:        a.ID,
				Name:           a.Name,
				Unit:           a.Unit,
				BookQuantity:   a.Quantity,
				ActualQuantity: a.Quantity,
			})
		}
	}

	blockName := in.BlockName
	if blockName == "" && in.DepartmentID != "" {
		if snap, err := s.directory.Snapshot(ctx); err == nil {
			if dept := snap.Department(in.DepartmentID); dept != nil {
				blockName = dept.ManagementBlock
			}
		}
	}

	rep := &entity.InventoryReport{
		ID:           uuid.NewString(),
		DisplayCode:  displayCode("KK", s.now()),
		Title:        in.Title,
		Type:         in.Type,
		Status:       wf.First().Status,
		Signatures:   entity.SignatureSet{},
		DepartmentID: in.DepartmentID,
		BlockName:    blockName,
		Assets:       assets,
		Requester:    entity.CreatedBy{UID: actor.UID, Name: actor.SignerName()},
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reports.Create(txCtx, rep); err != nil {
			return err
		}
		return s.audit(txCtx, entity.AuditReportCreated, actor, rep.ID, map[string]any{
			"display_code": rep.DisplayCode,
			"report_type":  rep.Type,
			"asset_count":  len(rep.Assets),
		})
	})
	if err != nil {
		s.logger.Error("Failed to create report", zap.Error(err))
		return nil, err
	}

	s.publishEvent(rep.ID, rep.Status, "created")
	s.logger.Info("Report created",
		zap.String("id", rep.ID),
		zap.String("type", rep.Type),
		zap.String("created_by", actor.UID))
	return rep, nil
}

func (s *reportServiceImpl) Get(ctx context.Context, id string) (*entity.InventoryReport, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, ErrNotFound
	}
	return rep, nil
}

func (s *reportServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.InventoryReport, error) {
	return s.reports.List(ctx, normalizeLimit(limit), offset)
}

// Delete removes a report. Admin only.
func (s *reportServiceImpl) Delete(ctx context.Context, id string, actor *entity.Actor) error {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rep == nil {
		return ErrNotFound
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return err
	}
	if !resolver.CanDeleteReport(actor, rep) {
		return workflow.ErrUnauthorized
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reports.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audit(txCtx, entity.AuditReportDeleted, actor, id, map[string]any{
			"display_code": rep.DisplayCode,
			"status":       rep.Status,
		})
	})
	if err != nil {
		s.logger.Error("Failed to delete report", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publishEvent(id, rep.Status, "deleted")
	s.logger.Info("Report deleted", zap.String("id", id), zap.String("by", actor.UID))
	return nil
}

func (s *reportServiceImpl) audit(ctx context.Context, action string, actor *entity.Actor, targetID string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	return s.auditLogs.Create(ctx, &entity.AuditLog{
		Action:     action,
		Actor:      entity.AuditActor{UID: actor.UID, Name: actor.DisplayName, Email: actor.Email},
		TargetType: "inventory_report",
		TargetID:   targetID,
		Details:    string(payload),
		Severity:   entity.SeverityInfo,
		CreatedAt:  s.now(),
	})
}

func (s *reportServiceImpl) publishEvent(id string, status workflow.Status, action string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(port.DocumentEvent{
		Kind:   workflow.KindInventoryReport,
		ID:     id,
		Status: status,
		Action: action,
	})
}
