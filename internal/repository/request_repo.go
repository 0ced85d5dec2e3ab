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

// RequestRepository handles asset-change request database operations
type RequestRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *database.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new asset-change request
func (r *RequestRepository) Create(ctx context.Context, req *entity.AssetRequest) error {
	signatures, err := json.Marshal(req.Signatures)
	if err != nil {
		return fmt.Errorf("failed to marshal signatures: %w", err)
	}
	assetData, err := json.Marshal(req.AssetData)
	if err != nil {
		return fmt.Errorf("failed to marshal asset data: %w", err)
	}
	requester, err := json.Marshal(req.Requester)
	if err != nil {
		return fmt.Errorf("failed to marshal requester: %w", err)
	}

	query := `
		INSERT INTO asset_requests (
			id, display_code, type, status, signatures,
			department_id, target_asset_id, asset_data, requester,
			rejection_reason, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = execer(ctx, r.db).ExecContext(ctx, query,
		req.ID,
		req.DisplayCode,
		req.Type,
		req.Status,
		string(signatures),
		req.DepartmentID,
		req.TargetAssetID,
		string(assetData),
		string(requester),
		req.RejectionReason,
		req.Version,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID, nil when absent
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.AssetRequest, error) {
	query := requestSelect + ` WHERE id = ?`
	row := execer(ctx, r.db).QueryRowContext(ctx, query, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// List retrieves requests newest first
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.AssetRequest, error) {
	query := requestSelect + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := execer(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.AssetRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Advance moves a request to the next status and records the signature.
// The status guard makes concurrent advances lose with workflow.ErrConflict.
func (r *RequestRepository) Advance(ctx context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature) error {
	sigJSON, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signature: %w", err)
	}

	query := `
		UPDATE asset_requests
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
		r.logger.Error("Failed to advance request", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to advance request: %w", err)
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

// Reject terminates a request, guarded by the status it was seen at
func (r *RequestRepository) Reject(ctx context.Context, id string, from workflow.Status, reason string, by entity.CreatedBy) error {
	processedBy, err := json.Marshal(by)
	if err != nil {
		return fmt.Errorf("failed to marshal processed_by: %w", err)
	}

	query := `
		UPDATE asset_requests
		SET status = ?,
			rejection_reason = ?,
			processed_by = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := execer(ctx, r.db).ExecContext(ctx, query,
		workflow.StatusRejected, reason, string(processedBy), time.Now(),
		id, from,
	)
	if err != nil {
		r.logger.Error("Failed to reject request", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to reject request: %w", err)
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

// Delete removes a request
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	_, err := execer(ctx, r.db).ExecContext(ctx, `DELETE FROM asset_requests WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete request", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

const requestSelect = `
	SELECT id, display_code, type, status, signatures,
		department_id, target_asset_id, asset_data, requester,
		rejection_reason, processed_by, version, created_at, updated_at
	FROM asset_requests`

func scanRequest(s scanner) (*entity.AssetRequest, error) {
	var req entity.AssetRequest
	var signatures, assetData, requester string
	var processedBy sql.NullString

	err := s.Scan(
		&req.ID,
		&req.DisplayCode,
		&req.Type,
		&req.Status,
		&signatures,
		&req.DepartmentID,
		&req.TargetAssetID,
		&assetData,
		&requester,
		&req.RejectionReason,
		&processedBy,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(signatures), &req.Signatures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signatures: %w", err)
	}
	if err := json.Unmarshal([]byte(assetData), &req.AssetData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset data: %w", err)
	}
	if err := json.Unmarshal([]byte(requester), &req.Requester); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requester: %w", err)
	}
	if processedBy.Valid && processedBy.String != "" {
		var by entity.CreatedBy
		if err := json.Unmarshal([]byte(processedBy.String), &by); err != nil {
			return nil, fmt.Errorf("failed to unmarshal processed_by: %w", err)
		}
		req.ProcessedBy = &by
	}
	if req.Signatures == nil {
		req.Signatures = entity.SignatureSet{}
	}
	return &req, nil
}
