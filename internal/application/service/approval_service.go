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

// ApprovalService performs atomic workflow advancement. Advance validates
// the step table and the actor's permission before touching storage, then
// commits the status transition and signature in one transaction. Only a
// concurrent advance of the same document can fail it after validation, and
// that surfaces as workflow.ErrConflict with no partial write.
type ApprovalService interface {
	AdvanceTransfer(ctx context.Context, id string, expected workflow.Status, key workflow.SignatureKey, actor *entity.Actor) (workflow.Status, error)
	AdvanceRequest(ctx context.Context, id string, expected workflow.Status, key workflow.SignatureKey, actor *entity.Actor) (workflow.Status, error)
	AdvanceReport(ctx context.Context, id string, expected workflow.Status, key workflow.SignatureKey, actor *entity.Actor) (workflow.Status, error)
	RejectRequest(ctx context.Context, id, reason string, actor *entity.Actor) error
	RejectReport(ctx context.Context, id string, actor *entity.Actor) error
}

type approvalServiceImpl struct {
	transfers port.TransferRepository
	requests  port.RequestRepository
	reports   port.ReportRepository
	assets    port.AssetRepository
	auditLogs port.AuditLogRepository
	directory DirectoryService
	txManager port.TransactionManager
	publisher port.EventPublisher
	stock     *stockMover
	logger    *zap.Logger
	now       func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	transfers port.TransferRepository,
	requests port.RequestRepository,
	reports port.ReportRepository,
	assets port.AssetRepository,
	auditLogs port.AuditLogRepository,
	directory DirectoryService,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	logger *zap.Logger,
) ApprovalService {
	return &approvalServiceImpl{
		transfers: transfers,
		requests:  requests,
		reports:   reports,
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

// signature builds the ledger entry for this advance. The timestamp is
// server-assigned here, never taken from the client.
func (s *approvalServiceImpl) signature(actor *entity.Actor) entity.Signature {
	return entity.Signature{
		UID:      actor.UID,
		Name:     actor.SignerName(),
		SignedAt: s.now(),
	}
}

// AdvanceTransfer signs the transfer's current step and moves it forward.
// On the final step the slip's stock movement is applied in the same
// transaction, guarded by the stockMoved flag.
func (s *approvalServiceImpl) AdvanceTransfer(ctx context.Context, id string, expected workflow.Status, key workflow.SignatureKey, actor *entity.Actor) (workflow.Status, error) {
	wf, err := workflow.For(workflow.KindTransfer, "")
	if err != nil {
		return "", err
	}
	if err := wf.Requires(expected, key); err != nil {
		return "", err
	}

	t, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", ErrNotFound
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin() && !resolver.CanActOnTransfer(actor, t, expected) {
		return "", workflow.ErrUnauthorized
	}

	next, err := wf.Next(expected)
	if err != nil {
		return "", err
	}
	sig := s.signature(actor)

	var completed *entity.Transfer
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		live, err := s.transfers.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if live == nil {
			return ErrNotFound
		}
		if live.Status != expected || live.Signatures.Has(key) {
			return workflow.ErrConflict
		}

		moveStock := next == workflow.StatusCompleted && !live.StockMoved
		if err := s.transfers.Advance(txCtx, id, expected, next, key, sig, moveStock); err != nil {
			return err
		}
		if moveStock {
			if err := s.stock.move(txCtx, live); err != nil {
				return fmt.Errorf("apply stock movement: %w", err)
			}
			completed = live
		}

		return s.audit(txCtx, entity.AuditTransferSigned, actor, "transfer", id, map[string]any{
			"signature_key": key,
			"from":          expected,
			"to":            next,
		}, entity.SeverityInfo)
	})
	if err != nil {
		s.logger.Error("Failed to advance transfer",
			zap.String("id", id),
			zap.String("expected", expected.String()),
			zap.Error(err))
		return "", err
	}

	s.publish(workflow.KindTransfer, id, next, "advanced")
	if completed != nil {
		s.stampAssetsChecked(ctx, transferAssetIDs(completed))
	}

	s.logger.Info("Transfer advanced",
		zap.String("id", id),
		zap.String("status", next.String()),
		zap.String("signed_by", actor.UID))
	return next, nil
}

// AdvanceRequest signs the request's current step. On the final step the
// requested asset change is applied in the same transaction.
func (s *approvalServiceImpl) AdvanceRequest(ctx context.Context, id string, expected workflow.Status, key workflow.SignatureKey, actor *entity.Actor) (workflow.Status, error) {
	wf, err := workflow.For(workflow.KindAssetRequest, "")
	if err != nil {
		return "", err
	}
	if err := wf.Requires(expected, key); err != nil {
		return "", err
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if req == nil {
		return "", ErrNotFound
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin() && !resolver.CanActOnRequest(actor, req, expected) {
		return "", workflow.ErrUnauthorized
	}

	next, err := wf.Next(expected)
	if err != nil {
		return "", err
	}
	sig := s.signature(actor)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		live, err := s.requests.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if live == nil {
			return ErrNotFound
		}
		if live.Status != expected || live.Signatures.Has(key) {
			return workflow.ErrConflict
		}

		if err := s.requests.Advance(txCtx, id, expected, next, key, sig); err != nil {
			return err
		}
		if next == workflow.StatusCompleted {
			if err := s.applyRequestChange(txCtx, live); err != nil {
				return fmt.Errorf("apply asset change: %w", err)
			}
		}

		return s.audit(txCtx, entity.AuditRequestApproved, actor, "asset_request", id, map[string]any{
			"signature_key": key,
			"from":          expected,
			"to":            next,
			"request_type":  live.Type,
		}, entity.SeverityInfo)
	})
	if err != nil {
		s.logger.Error("Failed to advance request",
			zap.String("id", id),
			zap.String("expected", expected.String()),
			zap.Error(err))
		return "", err
	}

	s.publish(workflow.KindAssetRequest, id, next, "advanced")
	s.logger.Info("Request advanced",
		zap.String("id", id),
		zap.String("status", next.String()),
		zap.String("signed_by", actor.UID))
	return next, nil
}

// AdvanceReport signs the report's current step
func (s *approvalServiceImpl) AdvanceReport(ctx context.Context, id string, expected workflow.Status, key workflow.SignatureKey, actor *entity.Actor) (workflow.Status, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rep == nil {
		return "", ErrNotFound
	}

	wf, err := workflow.For(workflow.KindInventoryReport, rep.Type)
	if err != nil {
		return "", err
	}
	if err := wf.Requires(expected, key); err != nil {
		return "", err
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin() && !resolver.CanActOnReport(actor, rep, expected) {
		return "", workflow.ErrUnauthorized
	}

	next, err := wf.Next(expected)
	if err != nil {
		return "", err
	}
	sig := s.signature(actor)

	var completed *entity.InventoryReport
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		live, err := s.reports.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if live == nil {
			return ErrNotFound
		}
		if live.Status != expected || live.Signatures.Has(key) {
			return workflow.ErrConflict
		}

		if err := s.reports.Advance(txCtx, id, expected, next, key, sig); err != nil {
			return err
		}
		if next == workflow.StatusCompleted {
			completed = live
		}

		return s.audit(txCtx, entity.AuditReportSigned, actor, "inventory_report", id, map[string]any{
			"signature_key": key,
			"from":          expected,
			"to":            next,
			"report_type":   live.Type,
		}, entity.SeverityInfo)
	})
	if err != nil {
		s.logger.Error("Failed to advance report",
			zap.String("id", id),
			zap.String("expected", expected.String()),
			zap.Error(err))
		return "", err
	}

	s.publish(workflow.KindInventoryReport, id, next, "advanced")
	if completed != nil {
		s.stampAssetsChecked(ctx, reportAssetIDs(completed))
	}

	s.logger.Info("Report advanced",
		zap.String("id", id),
		zap.String("status", next.String()),
		zap.String("signed_by", actor.UID))
	return next, nil
}

// RejectRequest terminates the request from any pending step. The gate is
// the same as for approving that step.
func (s *approvalServiceImpl) RejectRequest(ctx context.Context, id, reason string, actor *entity.Actor) error {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrNotFound
	}

	switch req.Status {
	case workflow.StatusPendingHC, workflow.StatusPendingBlockLeader, workflow.StatusPendingKT:
	default:
		return workflow.ErrStateMismatch
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return err
	}
	if !resolver.CanProcessRequest(actor, req) {
		return workflow.ErrUnauthorized
	}

	reason = utils.SanitizeString(reason)
	if reason == "" {
		reason = "Không có lý do"
	}
	by := entity.CreatedBy{UID: actor.UID, Name: actor.SignerName()}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requests.Reject(txCtx, id, req.Status, reason, by); err != nil {
			return err
		}
		return s.audit(txCtx, entity.AuditRequestRejected, actor, "asset_request", id, map[string]any{
			"reason": reason,
		}, entity.SeverityInfo)
	})
	if err != nil {
		s.logger.Error("Failed to reject request", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publish(workflow.KindAssetRequest, id, workflow.StatusRejected, "rejected")
	s.logger.Info("Request rejected", zap.String("id", id), zap.String("by", actor.UID))
	return nil
}

// RejectReport terminates the report from any pending step
func (s *approvalServiceImpl) RejectReport(ctx context.Context, id string, actor *entity.Actor) error {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rep == nil {
		return ErrNotFound
	}
	if rep.Status.IsTerminal() {
		return workflow.ErrStateMismatch
	}

	resolver, err := s.directory.Resolver(ctx)
	if err != nil {
		return err
	}
	if !resolver.CanProcessReport(actor, rep) {
		return workflow.ErrUnauthorized
	}

	rejection := entity.Rejection{
		UID:        actor.UID,
		Name:       actor.SignerName(),
		RejectedAt: s.now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reports.Reject(txCtx, id, rep.Status, rejection); err != nil {
			return err
		}
		return s.audit(txCtx, entity.AuditReportRejected, actor, "inventory_report", id, nil, entity.SeverityInfo)
	})
	if err != nil {
		s.logger.Error("Failed to reject report", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publish(workflow.KindInventoryReport, id, workflow.StatusRejected, "rejected")
	s.logger.Info("Report rejected", zap.String("id", id), zap.String("by", actor.UID))
	return nil
}

// applyRequestChange executes the asset change a completed request carries
func (s *approvalServiceImpl) applyRequestChange(ctx context.Context, req *entity.AssetRequest) error {
	switch req.Type {
	case entity.RequestAdd:
		block := ""
		if snap, err := s.directory.Snapshot(ctx); err == nil {
			if dept := snap.Department(req.OwningDepartmentID()); dept != nil {
				block = dept.ManagementBlock
			}
		}
		return s.assets.Create(ctx, &entity.Asset{
			ID:              uuid.NewString(),
			Name:            req.AssetData.Name,
			Size:            req.AssetData.Size,
			Description:     req.AssetData.Description,
			Unit:            req.AssetData.Unit,
			Quantity:        req.AssetData.Quantity,
			Notes:           req.AssetData.Notes,
			DepartmentID:    req.OwningDepartmentID(),
			ManagementBlock: block,
			CreatedByUID:    req.Requester.UID,
		})
	case entity.RequestDelete:
		return s.assets.Delete(ctx, req.TargetAssetID)
	case entity.RequestReduceQuantity:
		return s.assets.AdjustQuantity(ctx, req.TargetAssetID, -req.AssetData.Quantity)
	default:
		return fmt.Errorf("%w: request type %q", workflow.ErrUnknownWorkflow, req.Type)
	}
}

// stampAssetsChecked marks assets as counted after a transfer or report
// completes. Runs after the commit; a failure here is logged, not fatal.
func (s *approvalServiceImpl) stampAssetsChecked(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.assets.StampLastChecked(ctx, ids, s.now()); err != nil {
		s.logger.Error("Failed to stamp last-checked on assets",
			zap.Int("count", len(ids)),
			zap.Error(err))
	}
}

func (s *approvalServiceImpl) audit(ctx context.Context, action string, actor *entity.Actor, targetType, targetID string, details map[string]any, severity string) error {
	payload := ""
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		payload = string(b)
	}
	return s.auditLogs.Create(ctx, &entity.AuditLog{
		Action:     action,
		Actor:      entity.AuditActor{UID: actor.UID, Name: actor.DisplayName, Email: actor.Email},
		TargetType: targetType,
		TargetID:   targetID,
		Details:    payload,
		Severity:   severity,
		CreatedAt:  s.now(),
	})
}

func (s *approvalServiceImpl) publish(kind workflow.Kind, id string, status workflow.Status, action string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(port.DocumentEvent{
		Kind:   kind,
		ID:     id,
		Status: status,
		Action: action,
	})
}

func transferAssetIDs(t *entity.Transfer) []string {
	ids := make([]string, 0, len(t.Assets))
	for _, item := range t.Assets {
		if item.AssetID != "" {
			ids = append(ids, item.AssetID)
		}
	}
	return ids
}

func reportAssetIDs(rep *entity.InventoryReport) []string {
	ids := make([]string, 0, len(rep.Assets))
	for _, item := range rep.Assets {
		if item.AssetID != "" {
			ids = append(ids, item.AssetID)
		}
	}
	return ids
}
