package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bachkhoacons/asset-approval/internal/domain/entity"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"go.uber.org/zap"
)

// AuditLogRepository appends to and reads the audit trail. There is no
// update or delete path; the table is append-only.
type AuditLogRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit entry
func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audit_logs (
			action, actor_uid, actor_name, actor_email,
			target_type, target_id, details, severity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := execer(ctx, r.db).ExecContext(ctx, query,
		log.Action,
		log.Actor.UID,
		log.Actor.Name,
		log.Actor.Email,
		log.TargetType,
		log.TargetID,
		log.Details,
		log.Severity,
		log.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit log", zap.String("action", log.Action), zap.Error(err))
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.ID = id
	return nil
}

// ListByTarget retrieves the audit trail of one document, newest first
func (r *AuditLogRepository) ListByTarget(ctx context.Context, targetType, targetID string) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, action, actor_uid, actor_name, actor_email,
			target_type, target_id, details, severity, created_at
		FROM audit_logs
		WHERE target_type = ? AND target_id = ?
		ORDER BY created_at DESC
	`
	rows, err := execer(ctx, r.db).QueryContext(ctx, query, targetType, targetID)
	if err != nil {
		r.logger.Error("Failed to list audit logs", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		if err := rows.Scan(
			&l.ID,
			&l.Action,
			&l.Actor.UID,
			&l.Actor.Name,
			&l.Actor.Email,
			&l.TargetType,
			&l.TargetID,
			&l.Details,
			&l.Severity,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
