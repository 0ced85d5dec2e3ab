package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"go.uber.org/zap"
)

// UserRepository resolves actor identities from the users table
type UserRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUID retrieves an actor by UID, nil when absent
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*entity.Actor, error) {
	query := `
		SELECT uid, display_name, email, role, managed_department_ids, primary_department_id
		FROM users
		WHERE uid = ?
	`

	var a entity.Actor
	var managed sql.NullString
	err := execer(ctx, r.db).QueryRowContext(ctx, query, uid).Scan(
		&a.UID,
		&a.DisplayName,
		&a.Email,
		&a.Role,
		&managed,
		&a.PrimaryDepartmentID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if managed.Valid && managed.String != "" {
		if err := json.Unmarshal([]byte(managed.String), &a.ManagedDepartmentIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal managed departments: %w", err)
		}
	}
	return &a, nil
}
