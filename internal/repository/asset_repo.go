package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"go.uber.org/zap"
)

// AssetRepository handles asset database operations. The match_key column
// is maintained on every write so destination merges during stock movement
// are a single indexed lookup.
type AssetRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *database.DB, logger *zap.Logger) *AssetRepository {
	return &AssetRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new asset
func (r *AssetRepository) Create(ctx context.Context, a *entity.Asset) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO assets (
			id, name, size, description, unit, quantity, reserved,
			notes, department_id, management_block, match_key,
			last_checked, created_by_uid, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := execer(ctx, r.db).ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Size,
		a.Description,
		a.Unit,
		a.Quantity,
		a.Reserved,
		a.Notes,
		a.DepartmentID,
		a.ManagementBlock,
		a.MatchKey(),
		a.LastChecked,
		a.CreatedByUID,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create asset", zap.String("id", a.ID), zap.Error(err))
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// GetByID retrieves an asset by ID, nil when absent
func (r *AssetRepository) GetByID(ctx context.Context, id string) (*entity.Asset, error) {
	query := assetSelect + ` WHERE id = ?`
	row := execer(ctx, r.db).QueryRowContext(ctx, query, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get asset", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// ListByDepartment retrieves all assets of one department
func (r *AssetRepository) ListByDepartment(ctx context.Context, deptID string) ([]*entity.Asset, error) {
	query := assetSelect + ` WHERE department_id = ? ORDER BY name`
	rows, err := execer(ctx, r.db).QueryContext(ctx, query, deptID)
	if err != nil {
		r.logger.Error("Failed to list assets", zap.String("department_id", deptID), zap.Error(err))
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*entity.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// FindMatch finds a department's asset with the given merge key, nil when
// there is none
func (r *AssetRepository) FindMatch(ctx context.Context, deptID, matchKey string) (*entity.Asset, error) {
	query := assetSelect + ` WHERE department_id = ? AND match_key = ? LIMIT 1`
	row := execer(ctx, r.db).QueryRowContext(ctx, query, deptID, matchKey)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find matching asset: %w", err)
	}
	return a, nil
}

// AdjustQuantity adds delta to an asset's quantity
func (r *AssetRepository) AdjustQuantity(ctx context.Context, id string, delta float64) error {
	return r.adjust(ctx, id, "quantity", delta)
}

// AdjustReserved adds delta to an asset's reserved amount
func (r *AssetRepository) AdjustReserved(ctx context.Context, id string, delta float64) error {
	return r.adjust(ctx, id, "reserved", delta)
}

func (r *AssetRepository) adjust(ctx context.Context, id, column string, delta float64) error {
	// Clamp at zero: float drift must not leave a negative balance
	query := fmt.Sprintf(`
		UPDATE assets
		SET %s = MAX(0, %s + ?), updated_at = ?
		WHERE id = ?
	`, column, column)
	result, err := execer(ctx, r.db).ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to adjust asset", zap.String("id", id), zap.String("column", column), zap.Error(err))
		return fmt.Errorf("failed to adjust asset %s: %w", column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("asset %s not found", id)
	}
	return nil
}

// SetDepartment re-homes an asset to another department
func (r *AssetRepository) SetDepartment(ctx context.Context, id, deptID string) error {
	query := `UPDATE assets SET department_id = ?, updated_at = ? WHERE id = ?`
	result, err := execer(ctx, r.db).ExecContext(ctx, query, deptID, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to move asset", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to move asset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("asset %s not found", id)
	}
	return nil
}

// SetQuantity overwrites an asset's quantity
func (r *AssetRepository) SetQuantity(ctx context.Context, id string, quantity float64) error {
	query := `UPDATE assets SET quantity = ?, updated_at = ? WHERE id = ?`
	result, err := execer(ctx, r.db).ExecContext(ctx, query, quantity, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to set asset quantity", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set asset quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("asset %s not found", id)
	}
	return nil
}

// StampLastChecked marks the given assets as counted at t
func (r *AssetRepository) StampLastChecked(ctx context.Context, ids []string, t time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, t)
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(`UPDATE assets SET last_checked = ? WHERE id IN (%s)`, placeholders)
	_, err := execer(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to stamp last checked", zap.Int("count", len(ids)), zap.Error(err))
		return fmt.Errorf("failed to stamp last checked: %w", err)
	}
	return nil
}

// Delete removes an asset
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	_, err := execer(ctx, r.db).ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete asset", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

const assetSelect = `
	SELECT id, name, size, description, unit, quantity, reserved,
		notes, department_id, management_block,
		last_checked, created_by_uid, created_at, updated_at
	FROM assets`

func scanAsset(s scanner) (*entity.Asset, error) {
	var a entity.Asset
	var lastChecked sql.NullTime

	err := s.Scan(
		&a.ID,
		&a.Name,
		&a.Size,
		&a.Description,
		&a.Unit,
		&a.Quantity,
		&a.Reserved,
		&a.Notes,
		&a.DepartmentID,
		&a.ManagementBlock,
		&lastChecked,
		&a.CreatedByUID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastChecked.Valid {
		a.LastChecked = &lastChecked.Time
	}
	return &a, nil
}
