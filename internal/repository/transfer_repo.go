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

// TransferRepository handles transfer slip database operations
type TransferRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *database.DB, logger *zap.Logger) *TransferRepository {
	return &TransferRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new transfer slip
func (r *TransferRepository) Create(ctx context.Context, t *entity.Transfer) error {
	signatures, err := json.Marshal(t.Signatures)
	if err != nil {
		return fmt.Errorf("failed to marshal signatures: %w", err)
	}
	assets, err := json.Marshal(t.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}
	createdBy, err := json.Marshal(t.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to marshal created_by: %w", err)
	}

	query := `
		INSERT INTO transfers (
			id, display_code, from_dept_id, to_dept_id, block_name,
			status, signatures, assets, created_by, stock_moved,
			version, date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = execer(ctx, r.db).ExecContext(ctx, query,
		t.ID,
		t.DisplayCode,
		t.FromDeptID,
		t.ToDeptID,
		t.BlockName,
		t.Status,
		string(signatures),
		string(assets),
		string(createdBy),
		t.StockMoved,
		t.Version,
		t.Date,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transfer", zap.String("id", t.ID), zap.Error(err))
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// GetByID retrieves a transfer slip by ID, nil when absent
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	query := `
		SELECT id, display_code, from_dept_id, to_dept_id, block_name,
			status, signatures, assets, created_by, stock_moved,
			version, date, created_at, updated_at
		FROM transfers
		WHERE id = ?
	`
	row := execer(ctx, r.db).QueryRowContext(ctx, query, id)
	t, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get transfer", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return t, nil
}

// List retrieves transfer slips newest first
func (r *TransferRepository) List(ctx context.Context, limit, offset int) ([]*entity.Transfer, error) {
	query := `
		SELECT id, display_code, from_dept_id, to_dept_id, block_name,
			status, signatures, assets, created_by, stock_moved,
			version, date, created_at, updated_at
		FROM transfers
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := execer(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transfers", zap.Error(err))
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*entity.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// Advance moves a slip from one status to the next and records the
// signature. The WHERE clause re-checks the expected status so a concurrent
// advance leaves exactly one winner; the loser gets workflow.ErrConflict.
func (r *TransferRepository) Advance(ctx context.Context, id string, from, to workflow.Status, key workflow.SignatureKey, sig entity.Signature, markStockMoved bool) error {
	sigJSON, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signature: %w", err)
	}

	query := `
		UPDATE transfers
		SET status = ?,
			signatures = json_set(signatures, '$.' || ?, json(?)),
			stock_moved = stock_moved OR ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND status = ? AND json_extract(signatures, '$.' || ?) IS NULL
	`
	result, err := execer(ctx, r.db).ExecContext(ctx, query,
		to, string(key), string(sigJSON), markStockMoved, time.Now(),
		id, from, string(key),
	)
	if err != nil {
		r.logger.Error("Failed to advance transfer", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to advance transfer: %w", err)
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

// Delete removes a transfer slip
func (r *TransferRepository) Delete(ctx context.Context, id string) error {
	_, err := execer(ctx, r.db).ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete transfer", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete transfer: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(s scanner) (*entity.Transfer, error) {
	var t entity.Transfer
	var signatures, assets, createdBy string

	err := s.Scan(
		&t.ID,
		&t.DisplayCode,
		&t.FromDeptID,
		&t.ToDeptID,
		&t.BlockName,
		&t.Status,
		&signatures,
		&assets,
		&createdBy,
		&t.StockMoved,
		&t.Version,
		&t.Date,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(signatures), &t.Signatures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signatures: %w", err)
	}
	if err := json.Unmarshal([]byte(assets), &t.Assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
	}
	if err := json.Unmarshal([]byte(createdBy), &t.CreatedBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created_by: %w", err)
	}
	if t.Signatures == nil {
		t.Signatures = entity.SignatureSet{}
	}
	return &t, nil
}
