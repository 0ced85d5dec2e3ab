package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/internal/domain/workflow"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"go.uber.org/zap"
)

// ReportRepository handles inventory report database operations
type ReportRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new inventory report
func (r *ReportRepository) Create(ctx context.Context, rep *entity.InventoryReport) error {
	signatures, err := json.Marshal(rep.Signatures)
	if err != nil {
		return fmt.Errorf("failed to marshal signatures: %w", err)
	}
	assets, err := json.Marshal(rep.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}
	requester, err := json.Marshal(rep.Requester)
	if err != nil {
		return fmt.Errorf("failed to marshal requester: %w", err)
	}

	query := `
		INSERT INTO inventory_reports (
			id, display_code, title, type, status, signatures,
			department_id, block_name, assets, requester,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = execer(ctx, r.db).ExecContext(ctx, query,
		rep.ID,
		rep.DisplayCode,
		rep.Title,
		rep.Type,
		rep.Status,
		string(signatures),
		rep.DepartmentID,
		rep.BlockName,
		string(assets),
		string(requester),
		rep.Version,
		rep.CreatedAt,
		rep.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.String("id", rep.ID), zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by ID, nil when absent
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.InventoryReport, error) {
	query := reportSelect + ` WHERE id = ?`
	row := execer(ctx, r.db).QueryRowContext(ctx, query, id)
	rep, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get report", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

// List retrieves reports newest first
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*entity.InventoryReport, error) {
	query := reportSelect + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := execer(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*entity.InventoryReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// Advance moves a report to the next status and records the signature.
// The status guard makes concurrent advances lose with workflow.ErrConflict.
func (r *ReportRepository) Advance(ctx context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature) error {
	sigJSON, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signature: %w", err)
	}

	query := `
		UPDATE inventory_reports
		SET status = ?,
			signatures = json_set(signatures, '$.' || ?, json(?)),
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND status = ? AND json_extract(signatures, '$.' || ?) IS NULL
	`
	result, err := execer(ctx, r.db).ExecContext(ctx, query,
		to, string(key), string(sigJSON), time.Now(),
		id, from, string(key),
	)
	if err != nil {
		r.logger.Error("Failed to advance report", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to advance report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConflict
	}
	return nil
}

// Reject terminates a report, guarded by the status it was seen at
func (r *ReportRepository) Reject(ctx context.Context, id string, from workflow.Status, rejection entity.Rejection) error {
	rejectedBy, err := json.Marshal(rejection)
	if err != nil {
		return fmt.Errorf("failed to marshal rejection: %w", err)
	}

	query := `
		UPDATE inventory_reports
		SET status = ?,
			rejected_by = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := execer(ctx, r.db).ExecContext(ctx, query,
		workflow.StatusRejected, string(rejectedBy), time.Now(),
		id, from,
	)
	if err != nil {
		r.logger.Error("Failed to reject report", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to reject report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return workflow.ErrConflict
	}
	return nil
}

// Delete removes a report
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	_, err := execer(ctx, r.db).ExecContext(ctx, `DELETE FROM inventory_reports WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete report", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

const reportSelect = `
	SELECT id, display_code, title, type, status, signatures,
		department_id, block_name, assets, requester,
		rejected_by, version, created_at, updated_at
	FROM inventory_reports`

func scanReport(s scanner) (*entity.InventoryReport, error) {
	var rep entity.InventoryReport
	var signatures, assets, requester string
	var rejectedBy sql.NullString

	err := s.Scan(
		&rep.ID,
		&rep.DisplayCode,
		&rep.Title,
		&rep.Type,
		&rep.Status,
		&signatures,
		&rep.DepartmentID,
		&rep.BlockName,
		&assets,
		&requester,
		&rejectedBy,
		&rep.Version,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(signatures), &rep.Signatures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signatures: %w", err)
	}
	if err := json.Unmarshal([]byte(assets), &rep.Assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
	}
	if err := json.Unmarshal([]byte(requester), &rep.Requester); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requester: %w", err)
	}
	if rejectedBy.Valid && rejectedBy.String != "" {
		var rj entity.Rejection
		if err := json.Unmarshal([]byte(rejectedBy.String), &rj); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rejected_by: %w", err)
		}
		rep.RejectedBy = &rj
	}
	if rep.Signatures == nil {
		rep.Signatures = entity.SignatureSet{}
	}
	return &rep, nil
}
