package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/application/port"
	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRequestInput carries the fields for a new asset-change request
type CreateRequestInput struct {
	Type          entity.RequestType
	DepartmentID  string
	TargetAssetID string
	AssetData     entity.AssetData
}

// RequestService manages asset-change requests around the approval engine
type RequestService interface {
	Create(ctx context.Context, in CreateRequestInput, actor *entity.Actor) (*entity.AssetRequest, error)
	Get(ctx context.Context, id string) (*entity.AssetRequest, error)
	List(ctx context.Context, limit, offset int) ([]*entity.AssetRequest, error)
	Delete(ctx context.Context, id string, actor *entity.Actor) error
}

type requestServiceImpl struct {
	requests  port.RequestRepository
	assets    port.AssetRepository
	auditLogs port.AuditLogRepository
	directory DirectoryService
	txManager port.TransactionManager
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requests port.RequestRepository,
	assets port.AssetRepository,
	auditLogs port.AuditLogRepository,
	directory DirectoryService,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	logger *zap.Logger,
) RequestService {
	return &requestServiceImpl{
		requests:  requests,
		assets:    assets,
		auditLogs: auditLogs,
		directory: directory,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the request payload and writes it at the first workflow
// step. Delete and reduce requests must reference an existing asset so the
// completion side effect has a target.
func (s *requestServiceImpl) Create(ctx context.Context, in CreateRequestInput, actor *entity.Actor) (*entity.AssetRequest, error) {
	switch in.Type {
	case entity.RequestAdd:
		if in.AssetData.Name == "" || in.AssetData.Unit == "" {
			return nil, fmt.Errorf("%w: name and unit are required for an add request", ErrInvalidInput)
		}
		if in.AssetData.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
	case entity.RequestDelete:
		if in.TargetAssetID == "" {
			return nil, fmt.Errorf("%w: target asset is required for a delete request", ErrInvalidInput)
		}
	case entity.RequestReduceQuantity:
		if in.TargetAssetID == "" {
			return nil, fmt.Errorf("%w: target asset is required for a reduce request", ErrInvalidInput)
		}
		if in.AssetData.Quantity <= 0 {
			return nil, fmt.Errorf("%w: reduction quantity must be positive", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown request type %q", ErrInvalidInput, in.Type)
	}

	if in.TargetAssetID != "" {
		target, err := s.assets.GetByID(ctx, in.TargetAssetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, fmt.Errorf("%w: asset %s", ErrNotFound, in.TargetAssetID)
		}
		if in.Type == entity.RequestReduceQuantity && in.AssetData.Quantity > target.Quantity {
			return nil, fmt.Errorf("%w: cannot reduce %s below zero", ErrInvalidInput, target.Name)
		}
		// Snapshot the target's identity so approvers see what the
		// request touches even if the asset changes later
		if in.AssetData.Name == "" {
			in.AssetData.Name = target.Name
		}
		if in.AssetData.Unit == "" {
			in.AssetData.Unit = target.Unit
		}
		if in.AssetData.DepartmentID == "" {
			in.AssetData.DepartmentID = target.DepartmentID
		}
	}

	wf, err := workflow.For(workflow.KindAssetRequest, "")
	if err != nil {
		return nil, err
	}

	req := &entity.AssetRequest{
		ID:            uuid.NewString(),
		DisplayCode:   displayCode("YC", s.now()),
		Type:          in.Type,
		Status:        wf.First().Status,
		Signatures:    entity.SignatureSet{},
		DepartmentID:  in.DepartmentID,
		TargetAssetID: in.TargetAssetID,
		AssetData:     in.AssetData,
		Requester:     entity.CreatedBy{UID: actor.UID, Name: actor.SignerName()},
		CreatedAt:     s.now(),
		UpdatedAt:     s.now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, req); err != nil {
			return err
		}
		return s.audit(txCtx, entity.AuditRequestCreated, actor, req.ID, entity.SeverityInfo, map[string]any{
			"display_code": req.DisplayCode,
			"request_type": req.Type,
			"department":   req.OwningDepartmentID(),
		})
	})
	if err != nil {
		s.logger.Error("Failed to create request", zap.Error(err))
		return nil, err
	}

	s.publishEvent(req.ID, req.Status, "created")
	s.logger.Info("Request created",
		zap.String("id", req.ID),
		zap.String("type", string(req.Type)),
		zap.String("created_by", actor.UID))
	return req, nil
}

func (s *requestServiceImpl) Get(ctx context.Context, id string) (*entity.AssetRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *requestServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.AssetRequest, error) {
	return s.requests.List(ctx, normalizeLimit(limit), offset)
}

// Delete removes a request. Admin only; a completed request has already
// changed the asset store and deleting its record does not undo that, so
// the audit entry is written at WARNING.
func (s *requestServiceImpl) Delete(ctx context.Context, id string, actor *entity.Actor) error {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrNotFound
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return err
	}
	if !resolver.CanDeleteRequest(actor, req) {
		return workflow.ErrUnauthorized
	}

	severity := entity.SeverityInfo
	if req.Status == workflow.StatusCompleted {
		severity = entity.SeverityWarning
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requests.Delete(txCtx, id); err != nil {
			return err
		}
		return s.audit(txCtx, entity.AuditRequestDeleted, actor, id, severity, map[string]any{
			"display_code": req.DisplayCode,
			"status":       req.Status,
			"request_type": req.Type,
		})
	})
	if err != nil {
		s.logger.Error("Failed to delete request", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publishEvent(id, req.Status, "deleted")
	s.logger.Info("Request deleted", zap.String("id", id), zap.String("by", actor.UID))
	return nil
}

func (s *requestServiceImpl) audit(ctx context.Context, action string, actor *entity.Actor, targetID, severity string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	return s.auditLogs.Create(ctx, &entity.AuditLog{
		Action:     action,
		Actor:      entity.AuditActor{UID: actor.UID, Name: actor.DisplayName, Email: actor.Email},
		TargetType: "asset_request",
		TargetID:   targetID,
		Details:    string(payload),
		Severity:   severity,
		CreatedAt:  s.now(),
	})
}

func (s *requestServiceImpl) publishEvent(id string, status workflow.Status, action string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(port.DocumentEvent{
		Kind:   workflow.KindAssetRequest,
		ID:     id,
		Status: status,
		Action: action,
	})
}
