package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"go.uber.org/zap"
)

// DepartmentRepository handles department directory database operations
type DepartmentRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *database.DB, logger *zap.Logger) *DepartmentRepository {
	return &DepartmentRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a department by ID, nil when absent
func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*entity.Department, error) {
	query := `SELECT id, name, management_block FROM departments WHERE id = ?`

	var d entity.Department
	err := execer(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.ManagementBlock)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get department", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &d, nil
}

// List retrieves all departments
func (r *DepartmentRepository) List(ctx context.Context) ([]*entity.Department, error) {
	query := `SELECT id, name, management_block FROM departments ORDER BY name`

	rows, err := execer(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list departments", zap.Error(err))
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var departments []*entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.ManagementBlock); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}
